// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package collateral

import (
	"context"
	"math/big"
	"testing"

	"github.com/lendr-finance/lendr-deployer/internal/testutils"
	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/evm"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/utils"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	deployerAddr  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	adminAddr     = common.HexToAddress("0xad00000000000000000000000000000000000001")
	priceFeedAddr = common.HexToAddress("0xfe00000000000000000000000000000000000002")
)

func ether(t *testing.T, amount string) models.EtherAmount {
	wei, err := utils.ParseEther(amount)
	require.NoError(t, err)
	return models.NewEtherAmount(wei)
}

func wETH(t *testing.T) models.CollateralAsset {
	return models.CollateralAsset{
		Name:                     "wETH",
		Address:                  common.HexToAddress("0x7b79995e5f793a07bc00c21412e50ecae098e7f9"),
		OracleAddress:            common.HexToAddress("0x694AA1769357215DE4FAC081bf1f309aDC325306"),
		OracleTimeoutSeconds:     86400,
		BorrowingFee:             ether(t, "0.02"),
		MCR:                      ether(t, "1.111"),
		CCR:                      ether(t, "1.4"),
		MinNetDebt:               ether(t, "2000"),
		GasCompensation:          ether(t, "200"),
		MintCap:                  ether(t, "1500000"),
		RedemptionBlockTimestamp: 1705449600,
	}
}

func newConfigurator(chain *testutils.FakeChain, opts ...Option) *Configurator {
	tx := evm.NewTransactor(chain, evm.FeePolicy{GasFeeCap: big.NewInt(2), GasTipCap: big.NewInt(1)}, 1, nil, nil)
	chain.AddContract(contract.AdminContract, adminAddr)
	chain.AddContract("PriceFeedTestnet", priceFeedAddr)
	admin := contract.NewHandle(contract.Entry{Name: contract.AdminContract}, adminAddr, tx)
	priceFeed := contract.NewHandle(contract.Entry{Name: "PriceFeedTestnet"}, priceFeedAddr, tx)
	return New(admin, priceFeed, deployerAddr, logging.NoLog{}, ux.Discard(), opts...)
}

func TestEnsureCollateralFromScratch(t *testing.T) {
	require := require.New(t)
	chain := testutils.NewFakeChain(deployerAddr)
	c := newConfigurator(chain)
	asset := wETH(t)

	results := c.EnsureCollateral(context.Background(), asset)
	require.Equal(3, results.Count(models.Done))
	require.Zero(results.Count(models.Recovered))

	add := chain.Writes("addNewCollateral(address,uint256,uint256)")
	require.Len(add, 1)
	require.Equal(asset.Address, add[0].Args[0])
	require.Equal(asset.GasCompensation.Wei(), add[0].Args[1])
	require.Equal(int64(constants.CollateralDecimals), add[0].Args[2].(*big.Int).Int64())

	params := chain.Writes("setCollateralParameters(address,uint256,uint256,uint256,uint256,uint256,uint256,uint256)")
	require.Len(params, 1)
	args := params[0].Args
	require.Equal(asset.BorrowingFee.Wei(), args[1])
	require.Equal(asset.CCR.Wei(), args[2])
	require.Equal(asset.MCR.Wei(), args[3])
	require.Equal(asset.MinNetDebt.Wei(), args[4])
	require.Equal(asset.MintCap.Wei(), args[5])
	require.Equal(int64(200), args[6].(*big.Int).Int64())
	require.Equal(int64(5_000_000_000_000_000), args[7].(*big.Int).Int64())

	ts := chain.Writes("setRedemptionBlockTimestamp(address,uint256)")
	require.Len(ts, 1)
	require.Equal(uint64(1705449600), ts[0].Args[1].(*big.Int).Uint64())
}

func TestEnsureCollateralIsIdempotent(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	chain := testutils.NewFakeChain(deployerAddr)
	c := newConfigurator(chain)
	asset := wETH(t)

	c.EnsureCollateral(ctx, asset)
	sends := chain.Sends()

	results := c.EnsureCollateral(ctx, asset)
	require.Equal(2, results.Count(models.Skipped))
	require.Zero(results.Count(models.Done))
	require.Equal(sends, chain.Sends())
}

func TestEnsureCollateralAddedButInactive(t *testing.T) {
	require := require.New(t)
	chain := testutils.NewFakeChain(deployerAddr)
	c := newConfigurator(chain)
	asset := wETH(t)
	chain.Contract(adminAddr).Mcr[asset.Address] = big.NewInt(1)

	results := c.EnsureCollateral(context.Background(), asset)
	require.Len(results.Filter(StepAddNewCollateral), 1)
	require.Equal(models.Skipped, results.Filter(StepAddNewCollateral)[0].Outcome)
	require.Empty(chain.Writes("addNewCollateral(address,uint256,uint256)"))
	require.Len(chain.Writes("setCollateralParameters(address,uint256,uint256,uint256,uint256,uint256,uint256,uint256)"), 1)
}

func TestEnsureCollateralSkipsIncompleteAssets(t *testing.T) {
	require := require.New(t)
	chain := testutils.NewFakeChain(deployerAddr)
	c := newConfigurator(chain)

	noOracle := wETH(t)
	noOracle.OracleAddress = common.Address{}
	noAddress := wETH(t)
	noAddress.Name = "rETH"
	noAddress.Address = common.Address{}

	results := c.EnsureAll(context.Background(), []models.CollateralAsset{noOracle, noAddress})
	require.Equal(2, results.Count(models.Skipped))
	require.False(results.HasFatal())
	require.Zero(chain.Sends())
}

func TestEnsureCollateralFailureIsRecovered(t *testing.T) {
	require := require.New(t)
	chain := testutils.NewFakeChain(deployerAddr)
	c := newConfigurator(chain)
	chain.Revert(contract.AdminContract, "addNewCollateral(address,uint256,uint256)")

	results := c.EnsureCollateral(context.Background(), wETH(t))
	require.Equal(1, results.Count(models.Recovered))
	require.ErrorIs(results.GetResults()[0].Err, constants.ErrTxReverted)
	require.Empty(chain.Writes(""))
}

func TestEnsureOracleDisabledByDefault(t *testing.T) {
	chain := testutils.NewFakeChain(deployerAddr)
	c := newConfigurator(chain)
	results := c.EnsureOracle(context.Background(), wETH(t))
	require.Zero(t, results.Len())
	require.Zero(t, chain.Sends())
}

func TestEnsureOracle(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	chain := testutils.NewFakeChain(deployerAddr)
	c := newConfigurator(chain, WithOracles(true))
	asset := wETH(t)

	results := c.EnsureOracle(ctx, asset)
	require.Equal(1, results.Count(models.Done))
	record := chain.Contract(priceFeedAddr).Oracles[asset.Address]
	require.Equal(asset.OracleAddress, record.Oracle)
	require.Equal(uint64(86400), record.Timeout.Uint64())

	// same oracle: nothing to do
	results = c.EnsureOracle(ctx, asset)
	require.Equal(1, results.Count(models.Skipped))

	// another oracle: warn and leave it
	other := asset
	other.OracleAddress = common.HexToAddress("0x01")
	results = c.EnsureOracle(ctx, other)
	require.Equal(1, results.Count(models.Recovered))
	require.Len(chain.Writes("setOracle(address,address,uint8,uint256,bool,bool)"), 1)
}

func TestEnsureOracleNotOwner(t *testing.T) {
	require := require.New(t)
	chain := testutils.NewFakeChain(deployerAddr)
	c := newConfigurator(chain, WithOracles(true))
	chain.Contract(priceFeedAddr).Owner = common.HexToAddress("0x3Dd1BC3021e9CD98F5C99f90bCad06ca470DD9Ec")

	results := c.EnsureOracle(context.Background(), wETH(t))
	require.Equal(1, results.Count(models.Recovered))
	require.Contains(results.GetResults()[0].Err.Error(), "owner")
	require.Zero(chain.Sends())
}

func TestEnsureAllRegistersNativeAssetForWETH(t *testing.T) {
	require := require.New(t)
	chain := testutils.NewFakeChain(deployerAddr)
	c := newConfigurator(chain, WithOracles(true))
	asset := wETH(t)

	results := c.EnsureAll(context.Background(), []models.CollateralAsset{asset})
	require.False(results.HasFatal())
	oracles := chain.Contract(priceFeedAddr).Oracles
	require.Equal(asset.OracleAddress, oracles[asset.Address].Oracle)
	require.Equal(asset.OracleAddress, oracles[common.Address{}].Oracle)
	// the native asset is priced, not registered as collateral
	require.Len(chain.Writes("addNewCollateral(address,uint256,uint256)"), 1)
}
