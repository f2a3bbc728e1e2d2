// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package wiring

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/lendr-finance/lendr-deployer/internal/testutils"
	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/evm"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	deployerAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	treasury     = common.HexToAddress("0xb14b29d81De2cB3a4f8DcA7BAcC94150c980c41f")
)

type core struct {
	chain   *testutils.FakeChain
	handles map[string]contract.Handle
	peers   map[string]common.Address
	list    []contract.Handle
}

// newCore places every core contract on a fake chain
func newCore(t *testing.T) *core {
	t.Helper()
	chain := testutils.NewFakeChain(deployerAddr)
	tx := evm.NewTransactor(chain, evm.FeePolicy{GasFeeCap: big.NewInt(2), GasTipCap: big.NewInt(1)}, 1, nil, nil)
	c := &core{chain: chain, handles: map[string]contract.Handle{}, peers: map[string]common.Address{}}
	for i, e := range contract.CoreCatalog("PriceFeedTestnet", "TimelockTester").Entries() {
		addr := common.BigToAddress(big.NewInt(int64(0x1000 + i)))
		chain.AddContract(e.Name, addr)
		h := contract.NewHandle(e, addr, tx)
		c.handles[e.Name] = h
		c.peers[e.Role] = addr
		c.list = append(c.list, h)
	}
	return c
}

func newEngine() *Engine {
	return New(logging.NoLog{}, ux.Discard())
}

func TestAddressList(t *testing.T) {
	require := require.New(t)
	c := newCore(t)

	addrs, roles := AddressList(contract.CoreAddressLayout, c.peers, treasury)
	require.Len(addrs, 15)
	require.Equal(treasury, addrs[12])
	require.Equal(contract.TreasurySlot, roles[12])
	require.Equal(c.peers[contract.RoleActivePool], addrs[0])
	require.Equal(c.peers[contract.RoleVesselManagerOperations], addrs[14])
	require.NoError(ValidateAddresses(addrs, roles))

	// without a treasury slot the treasury goes last
	addrs, roles = AddressList([]string{contract.RoleActivePool, contract.RoleGasPool}, c.peers, treasury)
	require.Equal([]common.Address{c.peers[contract.RoleActivePool], c.peers[contract.RoleGasPool], treasury}, addrs)
	require.Equal(contract.TreasurySlot, roles[2])
}

func TestValidateAddressesNamesIndex(t *testing.T) {
	c := newCore(t)
	delete(c.peers, contract.RoleTimelock)
	addrs, roles := AddressList(contract.CoreAddressLayout, c.peers, treasury)
	err := ValidateAddresses(addrs, roles)
	var invalid *InvalidAddressError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, 11, invalid.Index)
	require.Equal(t, contract.RoleTimelock, invalid.Role)
	require.Contains(t, err.Error(), "index 11")
}

func TestWireAll(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	c := newCore(t)

	results := newEngine().WireAll(ctx, c.list, contract.CoreAddressLayout, c.peers, treasury)
	// every core contract that is both address wireable and ownable
	require.Equal(10, results.Count(models.Done))
	require.Zero(results.Count(models.Recovered))
	writes := c.chain.Writes("setAddresses(address[])")
	require.Len(writes, 10)
	for _, w := range writes {
		addrs := w.Args[0].([]common.Address)
		require.Len(addrs, 15)
		require.Equal(treasury, addrs[12])
	}
	require.Nil(c.chain.Contract(c.handles[contract.GasPool].Address).Addresses)

	// a second run only reads
	results = newEngine().WireAll(ctx, c.list, contract.CoreAddressLayout, c.peers, treasury)
	require.Equal(10, results.Count(models.Skipped))
	require.Len(c.chain.Writes("setAddresses(address[])"), 10)
}

func TestWireAllInvalidAddressSendsNothing(t *testing.T) {
	require := require.New(t)
	c := newCore(t)

	results := newEngine().WireAll(context.Background(), c.list, contract.CoreAddressLayout, c.peers, common.Address{})
	require.Equal(10, results.Count(models.Recovered))
	require.False(results.HasFatal())
	for _, r := range results.GetResults() {
		var invalid *InvalidAddressError
		require.True(errors.As(r.Err, &invalid))
		require.Equal(12, invalid.Index)
	}
	require.Zero(c.chain.Sends())
}

func TestWireAllRecoversPerContract(t *testing.T) {
	require := require.New(t)
	c := newCore(t)
	c.chain.Revert(contract.FeeCollector, "setAddresses(address[])")

	results := newEngine().WireAll(context.Background(), c.list, contract.CoreAddressLayout, c.peers, treasury)
	require.Equal(9, results.Count(models.Done))
	failed := results.Filter(StepSetAddresses)
	recovered := []models.StepResult{}
	for _, r := range failed {
		if r.Outcome == models.Recovered {
			recovered = append(recovered, r)
		}
	}
	require.Len(recovered, 1)
	require.Equal(contract.FeeCollector, recovered[0].Contract)
	require.ErrorIs(recovered[0].Err, constants.ErrTxReverted)
}

func TestWireAllReadFailure(t *testing.T) {
	require := require.New(t)
	c := newCore(t)
	c.chain.FailRead("isAddressSetupInitialized()", testutils.ErrTransient)

	results := newEngine().WireAll(context.Background(), c.list, contract.CoreAddressLayout, c.peers, treasury)
	require.Equal(10, results.Count(models.Recovered))
	require.Zero(c.chain.Sends())
}

func TestPointToPointCalls(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	c := newCore(t)
	e := newEngine()
	debtToken := c.handles[contract.DebtToken]

	r := e.LinkDebtToken(ctx, debtToken,
		c.peers[contract.RoleBorrowerOperations],
		c.peers[contract.RoleStakedDebtToken],
		c.peers[contract.RoleVesselManager],
	)
	require.Equal(models.Done, r.Outcome)
	require.Equal([]any{
		c.peers[contract.RoleBorrowerOperations],
		c.peers[contract.RoleStakedDebtToken],
		c.peers[contract.RoleVesselManager],
	}, c.chain.Writes("setAddresses(address,address,address)")[0].Args)

	r = e.WhitelistFeeCollector(ctx, debtToken, c.peers[contract.RoleFeeCollector])
	require.Equal(models.Done, r.Outcome)

	r = e.SetRedemptionSoftening(ctx, c.handles[contract.VesselManagerOperations], big.NewInt(constants.RedemptionSofteningParam))
	require.Equal(models.Done, r.Outcome)
	w := c.chain.Writes("setRedemptionSofteningParam(uint256)")
	require.Len(w, 1)
	require.Equal(int64(9900), w[0].Args[0].(*big.Int).Int64())

	c.chain.Revert(contract.DebtToken, "addWhitelist(address)")
	r = e.WhitelistFeeCollector(ctx, debtToken, c.peers[contract.RoleFeeCollector])
	require.Equal(models.Recovered, r.Outcome)
	require.ErrorIs(r.Err, constants.ErrTxReverted)
}

func TestLinkAuxiliary(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	c := newCore(t)
	communityIssuance := common.HexToAddress("0xc1")
	lndrStaking := common.HexToAddress("0xc2")

	results := newEngine().LinkAuxiliary(ctx, c.list, communityIssuance, lndrStaking)
	require.Equal(1, results.Count(models.Done))
	w := c.chain.Writes("setLNDRStaking(address)")
	require.Len(w, 1)
	require.Equal(contract.FeeCollector, w[0].Contract)
	require.Equal(lndrStaking, w[0].Args[0])

	tx := evm.NewTransactor(c.chain, evm.FeePolicy{GasFeeCap: big.NewInt(2), GasTipCap: big.NewInt(1)}, 1, nil, nil)
	pool := common.HexToAddress("0x5b")
	c.chain.AddContract("StabilityPool", pool)
	stabilityPool := contract.NewHandle(contract.Entry{Name: "StabilityPool", Links: contract.LinkCommunityIssuance | contract.LinkLNDRStaking}, pool, tx)
	results = newEngine().LinkAuxiliary(ctx, []contract.Handle{stabilityPool}, communityIssuance, lndrStaking)
	require.Equal(2, results.Count(models.Done))
	require.Equal(communityIssuance, c.chain.Writes("setCommunityIssuance(address)")[0].Args[0])

	r := newEngine().LinkLNDRStaking(ctx, stabilityPool, common.HexToAddress("0xa0"), treasury)
	require.Equal(models.Done, r.Outcome)
}
