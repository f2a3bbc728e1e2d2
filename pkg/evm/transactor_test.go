// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package evm

import (
	"context"
	"math/big"
	"testing"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

// receiptBackend answers every transaction with the configured receipt
type receiptBackend struct {
	receipt       *types.Receipt
	requests      []TxRequest
	confirmations []uint64
}

func (*receiptBackend) Sender() common.Address { return common.HexToAddress(testAddress) }

func (*receiptBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (*receiptBackend) Balance(context.Context, common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (*receiptBackend) SuggestFees(context.Context) (*big.Int, *big.Int, error) {
	return big.NewInt(2), big.NewInt(1), nil
}

func (*receiptBackend) Call(context.Context, common.Address, []byte) ([]byte, error) { return nil, nil }

func (*receiptBackend) StorageAt(context.Context, common.Address, common.Hash) (common.Hash, error) {
	return common.Hash{}, nil
}

func (b *receiptBackend) Send(_ context.Context, req TxRequest) (common.Hash, error) {
	b.requests = append(b.requests, req)
	return b.receipt.TxHash, nil
}

func (b *receiptBackend) WaitForConfirmations(_ context.Context, _ common.Hash, confirmations uint64) (*types.Receipt, error) {
	b.confirmations = append(b.confirmations, confirmations)
	return b.receipt, nil
}

func TestTransactorDeploy(t *testing.T) {
	require := require.New(t)
	created := common.HexToAddress("0x1000000000000000000000000000000000000001")
	backend := &receiptBackend{receipt: &types.Receipt{
		TxHash:          common.HexToHash("0x01"),
		Status:          types.ReceiptStatusSuccessful,
		ContractAddress: created,
		GasUsed:         21_000,
	}}
	fees := FeePolicy{GasFeeCap: big.NewInt(2), GasTipCap: big.NewInt(1)}
	m := metrics.NewRunMetrics("test")
	transactor := NewTransactor(backend, fees, 0, nil, m)
	addr, txHash, err := transactor.Deploy(context.Background(), []byte{0x60, 0x80})
	require.NoError(err)
	require.Equal(created, addr)
	require.Equal(common.HexToHash("0x01"), txHash)
	require.Len(backend.requests, 1)
	require.Nil(backend.requests[0].To)
	require.Equal(fees, backend.requests[0].Fees)
	require.Equal([]uint64{constants.DefaultTxConfirmations}, backend.confirmations)
}

func TestTransactorExecuteReverted(t *testing.T) {
	backend := &receiptBackend{receipt: &types.Receipt{
		TxHash: common.HexToHash("0x02"),
		Status: types.ReceiptStatusFailed,
	}}
	transactor := NewTransactor(backend, FeePolicy{}, 2, nil, nil)
	to := common.HexToAddress("0x01")
	_, err := transactor.Execute(context.Background(), to, []byte{0x01})
	require.ErrorIs(t, err, constants.ErrTxReverted)
	require.Equal(t, &to, backend.requests[0].To)
	require.Equal(t, []uint64{2}, backend.confirmations)
}
