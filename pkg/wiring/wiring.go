// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wiring connects deployed contracts to their siblings.
package wiring

import (
	"context"
	"fmt"
	"math/big"

	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const (
	StepSetAddresses            = "setAddresses"
	StepDebtTokenAddresses      = "debtToken.setAddresses"
	StepWhitelistFeeCollector   = "debtToken.addWhitelist"
	StepRedemptionSoftening     = "setRedemptionSofteningParam"
	StepSetCommunityIssuance    = "setCommunityIssuance"
	StepSetLNDRStaking          = "setLNDRStaking"
	StepLNDRStakingSetAddresses = "lndrStaking.setAddresses"
)

// InvalidAddressError reports the first empty entry of an address list
type InvalidAddressError struct {
	Index int
	Role  string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("setAddresses :: Invalid address for index %d (%s)", e.Index, e.Role)
}

// AddressList orders the addresses of peers following layout. The treasury takes the
// treasury slot of the layout, or goes last when the layout has none.
func AddressList(layout []string, peers map[string]common.Address, treasury common.Address) ([]common.Address, []string) {
	addrs := make([]common.Address, 0, len(layout)+1)
	roles := make([]string, 0, len(layout)+1)
	hasTreasury := false
	for _, role := range layout {
		if role == contract.TreasurySlot {
			hasTreasury = true
			addrs = append(addrs, treasury)
		} else {
			addrs = append(addrs, peers[role])
		}
		roles = append(roles, role)
	}
	if !hasTreasury {
		addrs = append(addrs, treasury)
		roles = append(roles, contract.TreasurySlot)
	}
	return addrs, roles
}

// ValidateAddresses fails on the first zero address of addrs
func ValidateAddresses(addrs []common.Address, roles []string) error {
	for i, addr := range addrs {
		if addr == (common.Address{}) {
			role := ""
			if i < len(roles) {
				role = roles[i]
			}
			return &InvalidAddressError{Index: i, Role: role}
		}
	}
	return nil
}

type Engine struct {
	log logging.Logger
	out *ux.UserLog
}

func New(log logging.Logger, out *ux.UserLog) *Engine {
	if log == nil {
		log = logging.NoLog{}
	}
	return &Engine{log: log, out: out}
}

// WireAll calls setAddresses on every address wireable contract whose address setup is not
// initialized yet. Every failure is recovered and reported in the results.
func (e *Engine) WireAll(
	ctx context.Context,
	contracts []contract.Handle,
	layout []string,
	peers map[string]common.Address,
	treasury common.Address,
) *models.StepResults {
	results := &models.StepResults{}
	addrs, roles := AddressList(layout, peers, treasury)
	invalid := ValidateAddresses(addrs, roles)
	for _, h := range contracts {
		if !h.Capability().AddressWireable() {
			e.out.Info("(%s has no setAddresses() or isAddressSetupInitialized() function)", h.Name)
			continue
		}
		initialized, err := h.IsAddressSetupInitialized(ctx)
		if err != nil {
			e.fail(results, StepSetAddresses, h.Name, err)
			continue
		}
		if initialized {
			e.out.SkipToUser("%s.setAddresses() already set!", h.Name)
			results.AddSkipped(StepSetAddresses, h.Name)
			continue
		}
		if invalid != nil {
			e.fail(results, StepSetAddresses, h.Name, invalid)
			continue
		}
		e.out.Info("%s.setAddresses()...", h.Name)
		if err := h.SetAddresses(ctx, addrs); err != nil {
			e.fail(results, StepSetAddresses, h.Name, err)
			continue
		}
		e.out.GreenCheckmarkToUser("%s.setAddresses()", h.Name)
		results.AddDone(StepSetAddresses, h.Name)
	}
	return results
}

func (e *Engine) fail(results *models.StepResults, step string, name string, err error) {
	e.log.Warn("wiring step failed", zap.String("step", step), zap.String("contract", name), zap.Error(err))
	e.out.RedXToUser("%s.%s() failed: %s", name, step, err)
	results.AddRecovered(step, name, err)
}

func (e *Engine) done(step string, name string, err error) models.StepResult {
	if err != nil {
		e.log.Warn("wiring step failed", zap.String("step", step), zap.String("contract", name), zap.Error(err))
		e.out.RedXToUser("%s.%s failed!", name, step)
		return models.StepResult{Step: step, Contract: name, Outcome: models.Recovered, Err: err}
	}
	e.out.GreenCheckmarkToUser("%s.%s", name, step)
	return models.StepResult{Step: step, Contract: name, Outcome: models.Done}
}

// LinkDebtToken gives the debt token the contracts allowed to mint and burn it
func (e *Engine) LinkDebtToken(ctx context.Context, debtToken contract.Handle, borrowerOperations, stakedDebtToken, vesselManager common.Address) models.StepResult {
	e.out.Info("DebtToken.setAddresses()...")
	return e.done(StepDebtTokenAddresses, debtToken.Name, debtToken.SetDebtTokenAddresses(ctx, borrowerOperations, stakedDebtToken, vesselManager))
}

func (e *Engine) WhitelistFeeCollector(ctx context.Context, debtToken contract.Handle, feeCollector common.Address) models.StepResult {
	e.out.Info("DebtToken.addWhitelist(FeeCollector)...")
	return e.done(StepWhitelistFeeCollector, debtToken.Name, debtToken.AddWhitelist(ctx, feeCollector))
}

func (e *Engine) SetRedemptionSoftening(ctx context.Context, vesselManagerOperations contract.Handle, param *big.Int) models.StepResult {
	e.out.Info("VesselManagerOperations.setRedemptionSofteningParam(%s)...", param)
	return e.done(StepRedemptionSoftening, vesselManagerOperations.Name, vesselManagerOperations.SetRedemptionSofteningParam(ctx, param))
}

// LinkAuxiliary points the core contracts declaring a link to the auxiliary token family
func (e *Engine) LinkAuxiliary(ctx context.Context, contracts []contract.Handle, communityIssuance, lndrStaking common.Address) *models.StepResults {
	results := &models.StepResults{}
	for _, h := range contracts {
		if h.Entry.Links.Has(contract.LinkCommunityIssuance) {
			results.Add(e.done(StepSetCommunityIssuance, h.Name, h.SetCommunityIssuance(ctx, communityIssuance)))
		}
		if h.Entry.Links.Has(contract.LinkLNDRStaking) {
			results.Add(e.done(StepSetLNDRStaking, h.Name, h.SetLNDRStaking(ctx, lndrStaking)))
		}
	}
	return results
}

// LinkLNDRStaking gives the staking contract the LNDR token and the treasury
func (e *Engine) LinkLNDRStaking(ctx context.Context, lndrStaking contract.Handle, lndrToken, treasury common.Address) models.StepResult {
	e.out.Info("LNDRStaking.setAddresses()...")
	return e.done(StepLNDRStakingSetAddresses, lndrStaking.Name, lndrStaking.SetLNDRStakingAddresses(ctx, lndrToken, treasury))
}
