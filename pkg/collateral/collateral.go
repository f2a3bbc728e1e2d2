// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package collateral registers collateral assets and their price oracles on the core
// contracts. Every step reads the chain first and only writes what is missing.
package collateral

import (
	"context"
	"fmt"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const (
	StepCollateral                  = "collateral"
	StepAddNewCollateral            = "addNewCollateral"
	StepSetCollateralParameters     = "setCollateralParameters"
	StepSetRedemptionBlockTimestamp = "setRedemptionBlockTimestamp"
	StepSetOracle                   = "setOracle"

	nativeAssetName = "ETH"
)

type Configurator struct {
	admin     contract.Handle
	priceFeed contract.Handle
	deployer  common.Address
	oracles   bool
	log       logging.Logger
	out       *ux.UserLog
}

type Option func(*Configurator)

// WithOracles enables the registration of price oracles on the price feed
func WithOracles(enabled bool) Option {
	return func(c *Configurator) {
		c.oracles = enabled
	}
}

func New(admin, priceFeed contract.Handle, deployer common.Address, log logging.Logger, out *ux.UserLog, opts ...Option) *Configurator {
	if log == nil {
		log = logging.NoLog{}
	}
	c := &Configurator{
		admin:     admin,
		priceFeed: priceFeed,
		deployer:  deployer,
		log:       log,
		out:       out,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Configurator) fail(results *models.StepResults, step string, asset string, err error) {
	c.log.Warn("collateral step failed", zap.String("step", step), zap.String("asset", asset), zap.Error(err))
	c.out.RedXToUser("[%s] %s failed: %s", asset, step, err)
	results.AddRecovered(step, asset, err)
}

// EnsureCollateral adds asset to the admin contract and sets its parameters, skipping
// whatever the chain shows as already done
func (c *Configurator) EnsureCollateral(ctx context.Context, asset models.CollateralAsset) *models.StepResults {
	results := &models.StepResults{}
	if !asset.Configurable() {
		c.out.WarningToUser("[%s] No address and/or oracle address found! Skipping", asset.Name)
		results.AddSkipped(StepCollateral, asset.Name)
		return results
	}

	mcr, err := c.admin.GetMcr(ctx, asset.Address)
	if err != nil {
		c.fail(results, StepAddNewCollateral, asset.Name, err)
		return results
	}
	if mcr.Sign() > 0 {
		c.out.SkipToUser("[%s] NOTICE: collateral has already been added before", asset.Name)
		results.AddSkipped(StepAddNewCollateral, asset.Name)
	} else {
		c.out.Info("[%s] AdminContract.addNewCollateral() ...", asset.Name)
		if err := c.admin.AddNewCollateral(ctx, asset.Address, asset.GasCompensation.Wei(), constants.CollateralDecimals); err != nil {
			c.fail(results, StepAddNewCollateral, asset.Name, err)
			return results
		}
		c.out.GreenCheckmarkToUser("[%s] Collateral added @ %s", asset.Name, asset.Address.Hex())
		results.AddDone(StepAddNewCollateral, asset.Name)
	}

	active, err := c.admin.GetIsActive(ctx, asset.Address)
	if err != nil {
		c.fail(results, StepSetCollateralParameters, asset.Name, err)
		return results
	}
	if active {
		c.out.SkipToUser("[%s] NOTICE: collateral params have already been set", asset.Name)
		results.AddSkipped(StepSetCollateralParameters, asset.Name)
		return results
	}
	c.out.Info("[%s] Setting collateral params...", asset.Name)
	percentDivisor, err := c.admin.PercentDivisorDefault(ctx)
	if err != nil {
		c.fail(results, StepSetCollateralParameters, asset.Name, err)
		return results
	}
	redemptionFeeFloor, err := c.admin.RedemptionFeeFloorDefault(ctx)
	if err != nil {
		c.fail(results, StepSetCollateralParameters, asset.Name, err)
		return results
	}
	params := contract.CollateralParameters{
		BorrowingFee:       asset.BorrowingFee.Wei(),
		CCR:                asset.CCR.Wei(),
		MCR:                asset.MCR.Wei(),
		MinNetDebt:         asset.MinNetDebt.Wei(),
		MintCap:            asset.MintCap.Wei(),
		PercentDivisor:     percentDivisor,
		RedemptionFeeFloor: redemptionFeeFloor,
	}
	if err := c.admin.SetCollateralParameters(ctx, asset.Address, params); err != nil {
		c.fail(results, StepSetCollateralParameters, asset.Name, err)
		return results
	}
	results.AddDone(StepSetCollateralParameters, asset.Name)
	if err := c.admin.SetRedemptionBlockTimestamp(ctx, asset.Address, asset.RedemptionBlockTimestamp); err != nil {
		c.fail(results, StepSetRedemptionBlockTimestamp, asset.Name, err)
		return results
	}
	results.AddDone(StepSetRedemptionBlockTimestamp, asset.Name)
	c.out.GreenCheckmarkToUser("[%s] AdminContract.setCollateralParameters() -> ok", asset.Name)
	return results
}

// EnsureOracle registers the oracle of asset on the price feed. It does nothing unless the
// configurator was built WithOracles(true).
func (c *Configurator) EnsureOracle(ctx context.Context, asset models.CollateralAsset) *models.StepResults {
	results := &models.StepResults{}
	if !c.oracles {
		return results
	}
	record, err := c.priceFeed.Oracles(ctx, asset.Address)
	if err != nil {
		c.fail(results, StepSetOracle, asset.Name, err)
		return results
	}
	if record.IsSet() {
		if record.OracleAddress == asset.OracleAddress {
			c.out.SkipToUser("[%s] Oracle Price Feed had already been set @ %s", asset.Name, asset.OracleAddress.Hex())
			results.AddSkipped(StepSetOracle, asset.Name)
			return results
		}
		err := fmt.Errorf("oracle %s already set, update it via Timelock.setOracle()", record.OracleAddress.Hex())
		c.out.WarningToUser("[%s] another oracle had already been set, please update via Timelock.setOracle()", asset.Name)
		results.AddRecovered(StepSetOracle, asset.Name, err)
		return results
	}
	owner, err := c.priceFeed.Owner(ctx)
	if err != nil {
		c.fail(results, StepSetOracle, asset.Name, err)
		return results
	}
	if owner != c.deployer {
		err := fmt.Errorf("cannot call PriceFeed.setOracle(): deployer = %s, owner = %s", c.deployer.Hex(), owner.Hex())
		c.out.WarningToUser("[%s] %s", asset.Name, err)
		results.AddRecovered(StepSetOracle, asset.Name, err)
		return results
	}
	c.out.Info("[%s] PriceFeed.setOracle()", asset.Name)
	if err := c.priceFeed.SetOracle(ctx, asset.Address, asset.OracleAddress, asset.OracleTimeoutSeconds, asset.OracleIsEthIndexed); err != nil {
		c.fail(results, StepSetOracle, asset.Name, err)
		return results
	}
	c.out.GreenCheckmarkToUser("[%s] Oracle Price Feed has been set @ %s", asset.Name, asset.OracleAddress.Hex())
	results.AddDone(StepSetOracle, asset.Name)
	return results
}

// EnsureAll configures every asset in order. The wETH oracle also prices the native asset,
// registered under the zero address.
func (c *Configurator) EnsureAll(ctx context.Context, assets []models.CollateralAsset) *models.StepResults {
	results := &models.StepResults{}
	for _, asset := range assets {
		if !asset.Configurable() {
			c.out.WarningToUser("[%s] No address and/or oracle address found! Skipping", asset.Name)
			results.AddSkipped(StepCollateral, asset.Name)
			continue
		}
		results.Merge(c.EnsureOracle(ctx, asset))
		results.Merge(c.EnsureCollateral(ctx, asset))
		if asset.Name == constants.WrappedEtherCollateral {
			native := asset
			native.Name = nativeAssetName
			native.Address = common.Address{}
			results.Merge(c.EnsureOracle(ctx, native))
		}
	}
	return results
}
