// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package deployer

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/lendr-finance/lendr-deployer/internal/testutils"
	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/evm"
	"github.com/lendr-finance/lendr-deployer/pkg/metrics"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/state"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	artifactsDir = "artifacts"
	statePath    = "deployments/hardhat.json"
)

var deployerAddr = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

type fixture struct {
	fs       afero.Fs
	chain    *testutils.FakeChain
	store    *state.Store
	deployer *Deployer
}

func newFixture(t *testing.T) *fixture {
	require := require.New(t)
	fs := afero.NewMemMapFs()
	require.NoError(testutils.WriteArtifacts(fs, artifactsDir, testutils.LendrArtifacts()...))
	store := state.NewStore(fs, statePath, logging.NoLog{})
	_, err := store.Load()
	require.NoError(err)
	chain := testutils.NewFakeChain(deployerAddr)
	tx := evm.NewTransactor(chain, evm.FeePolicy{GasFeeCap: big.NewInt(2), GasTipCap: big.NewInt(1)}, 1, nil, nil)
	settings := models.RetrySettings{
		DeployAttempts:      2,
		Delay:               time.Millisecond,
		ImplResolveAttempts: 3,
		ImplResolveDelay:    time.Millisecond,
	}
	d := New(store, contract.NewResolver(fs, artifactsDir), tx, settings, logging.NoLog{}, ux.Discard(), metrics.NewRunMetrics("hardhat"))
	return &fixture{fs: fs, chain: chain, store: store, deployer: d}
}

func entry(name string, pattern contract.Pattern) contract.Entry {
	return contract.Entry{Name: name, Pattern: pattern}
}

func TestDeployDirectAndReuse(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	admin := common.HexToAddress("0x31c57298578f7508B5982062cfEc5ec8BD346247")

	h, err := f.deployer.DeployOrReuse(ctx, entry("TimelockTester", contract.Direct), big.NewInt(300), admin)
	require.NoError(err)
	require.Equal(1, f.chain.Sends())
	fc := f.chain.Contract(h.Address)
	require.NotNil(fc)
	require.Equal("TimelockTester", fc.Name)
	require.Len(fc.ConstructorArgs, 64)

	rec, ok := f.store.Get("TimelockTester")
	require.True(ok)
	require.Equal(h.Address, rec.Address)
	require.NotEqual(common.Hash{}, rec.TxHash)
	require.Nil(rec.ImplAddress)

	// the record survives a reload from disk
	reloaded := state.NewStore(f.fs, statePath, logging.NoLog{})
	st, err := reloaded.Load()
	require.NoError(err)
	require.Equal(rec, st["TimelockTester"])

	again, err := f.deployer.DeployOrReuse(ctx, entry("TimelockTester", contract.Direct), big.NewInt(300), admin)
	require.NoError(err)
	require.Equal(h.Address, again.Address)
	require.Equal(1, f.chain.Sends())
}

func TestDeployRedeploysClearedRecord(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	cleared := `{"GasPool": {"address": "", "txHash": ""}}`
	require.NoError(afero.WriteFile(f.fs, statePath, []byte(cleared), 0o644))
	_, err := f.store.Load()
	require.NoError(err)

	h, err := f.deployer.DeployOrReuse(context.Background(), entry(contract.GasPool, contract.Direct))
	require.NoError(err)
	require.Equal(1, f.chain.Sends())
	require.NotEqual(common.Address{}, h.Address)
	rec, ok := f.store.Get(contract.GasPool)
	require.True(ok)
	require.True(rec.Deployed())
	require.Equal(h.Address, rec.Address)
}

func TestDeployProxied(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	h, err := f.deployer.DeployOrReuse(ctx, entry(contract.ActivePool, contract.Proxied))
	require.NoError(err)
	require.Equal(2, f.chain.Deploys())

	proxy := f.chain.Contract(h.Address)
	require.True(proxy.Initialized)

	rec, ok := f.store.Get(contract.ActivePool)
	require.True(ok)
	require.Equal(h.Address, rec.Address)
	require.NotNil(rec.ImplAddress)
	impl := f.chain.Contract(*rec.ImplAddress)
	require.NotNil(impl)
	require.Equal(contract.ActivePool, impl.Name)
	require.NotEqual(h.Address, *rec.ImplAddress)
}

func TestDeployProxiedWithInitializerArgs(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	debtToken := common.HexToAddress("0x1000000000000000000000000000000000000001")

	h, err := f.deployer.DeployOrReuse(ctx, entry(contract.StakedDebtToken, contract.Proxied), debtToken)
	require.NoError(err)
	require.True(f.chain.Contract(h.Address).Initialized)

	// no zero argument initializer and no args: the proxy is deployed without init data
	h, err = f.deployer.DeployOrReuse(ctx, entry(contract.CommunityIssuance, contract.Proxied))
	require.NoError(err)
	require.False(f.chain.Contract(h.Address).Initialized)
}

func TestDeployRecoversFromTransientFailure(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.chain.FailDeploys = 1

	h, err := f.deployer.DeployOrReuse(context.Background(), entry(contract.GasPool, contract.Direct))
	require.NoError(err)
	require.Equal(1, f.chain.Deploys())
	_, ok := f.store.Get(contract.GasPool)
	require.True(ok)
	require.NotEqual(common.Address{}, h.Address)
}

func TestDeployExhausted(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.chain.FailDeploys = 5

	_, err := f.deployer.DeployOrReuse(context.Background(), entry(contract.GasPool, contract.Direct))
	require.Error(err)
	require.True(IsExhausted(err))
	require.ErrorIs(err, testutils.ErrTransient)
	var exhausted *ExhaustedError
	require.True(errors.As(err, &exhausted))
	require.Equal(contract.GasPool, exhausted.Contract)
	require.Equal(2, exhausted.Attempts)
	require.Contains(err.Error(), contract.GasPool)

	_, ok := f.store.Get(contract.GasPool)
	require.False(ok)
}

func TestDeployProxyRetryKeepsImplementation(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.chain.Revert(contract.ActivePool, "initialize()")

	_, err := f.deployer.DeployOrReuse(context.Background(), entry(contract.ActivePool, contract.Proxied))
	require.True(IsExhausted(err))
	require.ErrorIs(err, constants.ErrTxReverted)
	// one implementation, two proxy attempts
	require.Equal(3, f.chain.Deploys())
	_, ok := f.store.Get(contract.ActivePool)
	require.False(ok)
}

func TestDeployImplementationNotResolved(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.chain.EmptyImplSlot = true

	h, err := f.deployer.DeployOrReuse(ctx, entry(contract.FeeCollector, contract.Proxied))
	require.NoError(err)
	rec, ok := f.store.Get(contract.FeeCollector)
	require.True(ok)
	require.Equal(h.Address, rec.Address)
	require.Nil(rec.ImplAddress)
}

func TestDeployImplementationResolvedAfterRetries(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	f.chain.FailImplReads = 2

	_, err := f.deployer.DeployOrReuse(context.Background(), entry(contract.SortedVessels, contract.Proxied))
	require.NoError(err)
	rec, _ := f.store.Get(contract.SortedVessels)
	require.NotNil(rec.ImplAddress)
}

func TestReuseFillsMissingImplementation(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	f.chain.EmptyImplSlot = true
	h, err := f.deployer.DeployOrReuse(ctx, entry(contract.VesselManager, contract.Proxied))
	require.NoError(err)
	sends := f.chain.Sends()

	impl := common.HexToAddress("0x2000000000000000000000000000000000000002")
	f.chain.Contract(h.Address).Storage[contract.ImplementationSlot] = common.BytesToHash(impl.Bytes())

	again, err := f.deployer.DeployOrReuse(ctx, entry(contract.VesselManager, contract.Proxied))
	require.NoError(err)
	require.Equal(h.Address, again.Address)
	require.Equal(sends, f.chain.Sends())
	rec, _ := f.store.Get(contract.VesselManager)
	require.Equal(impl, *rec.ImplAddress)
}

func TestDeployMissingArtifact(t *testing.T) {
	f := newFixture(t)
	_, err := f.deployer.DeployOrReuse(context.Background(), entry("StabilityPool", contract.Proxied))
	require.ErrorIs(t, err, constants.ErrArtifactNotFound)
	require.False(t, IsExhausted(err))
	require.Zero(t, f.chain.Sends())
}

func TestAttachAndLoad(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	existing := common.HexToAddress("0x3000000000000000000000000000000000000003")

	h := f.deployer.Attach(entry(contract.DebtToken, contract.Direct), existing)
	require.Equal(existing, h.Address)
	_, ok := f.store.Get(contract.DebtToken)
	require.False(ok)

	_, err := f.deployer.Load(entry(contract.ActivePool, contract.Proxied))
	require.ErrorIs(err, constants.ErrNotDeployed)

	require.NoError(f.store.Put(contract.ActivePool, models.DeploymentRecord{Address: existing}))
	h, err = f.deployer.Load(entry(contract.ActivePool, contract.Proxied))
	require.NoError(err)
	require.Equal(existing, h.Address)
	require.Zero(f.chain.Sends())
}
