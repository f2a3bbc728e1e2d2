// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/metrics"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// TxRequest describes a transaction to sign. A nil To creates a contract.
type TxRequest struct {
	To    *common.Address
	Data  []byte
	Value *big.Int
	Fees  FeePolicy
}

// Backend is the chain surface the deployment packages depend on
type Backend interface {
	FeeSuggester
	Sender() common.Address
	ChainID(ctx context.Context) (*big.Int, error)
	Balance(ctx context.Context, address common.Address) (*big.Int, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	StorageAt(ctx context.Context, address common.Address, slot common.Hash) (common.Hash, error)
	Send(ctx context.Context, req TxRequest) (common.Hash, error)
	WaitForConfirmations(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error)
}

// Transactor sends transactions with the fee policy of the run and waits for them
type Transactor struct {
	Backend       Backend
	Fees          FeePolicy
	Confirmations uint64
	Log           logging.Logger
	Metrics       *metrics.RunMetrics
}

// Deploy sends a creation transaction and returns the created address
func (t *Transactor) Deploy(ctx context.Context, creationCode []byte) (common.Address, common.Hash, error) {
	receipt, err := t.send(ctx, nil, creationCode, "deploy")
	if err != nil {
		return common.Address{}, common.Hash{}, err
	}
	if receipt.ContractAddress == (common.Address{}) {
		return common.Address{}, receipt.TxHash, fmt.Errorf("receipt of %s has no contract address", receipt.TxHash.Hex())
	}
	return receipt.ContractAddress, receipt.TxHash, nil
}

// Execute sends [data] to [to] and waits for the configured confirmations
func (t *Transactor) Execute(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	return t.send(ctx, &to, data, "call")
}

func (t *Transactor) send(ctx context.Context, to *common.Address, data []byte, kind string) (*types.Receipt, error) {
	txHash, err := t.Backend.Send(ctx, TxRequest{To: to, Data: data, Fees: t.Fees})
	if err != nil {
		return nil, err
	}
	confirmations := t.Confirmations
	if confirmations == 0 {
		confirmations = constants.DefaultTxConfirmations
	}
	receipt, err := t.Backend.WaitForConfirmations(ctx, txHash, confirmations)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", constants.ErrTxReverted, txHash.Hex())
	}
	t.Metrics.TxConfirmed(kind, receipt.GasUsed)
	t.Log.Debug("transaction confirmed",
		zap.String("kind", kind),
		zap.Stringer("hash", txHash),
		zap.Uint64("gasUsed", receipt.GasUsed),
	)
	return receipt, nil
}

func NewTransactor(backend Backend, fees FeePolicy, confirmations uint64, log logging.Logger, m *metrics.RunMetrics) *Transactor {
	if log == nil {
		log = logging.NoLog{}
	}
	return &Transactor{
		Backend:       backend,
		Fees:          fees,
		Confirmations: confirmations,
		Log:           log,
		Metrics:       m,
	}
}
