// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ethereum/go-ethereum/common"
)

const (
	StepTransferOwnership = "transferOwnership"
	StepSetupInitialized  = "setSetupIsInitialized"
)

var ErrMissingUpgradesAdmin = errors.New("CONTRACT_UPGRADES_ADMIN missing from network profile")

// transferOwnerships hands every ownable contract over to admin. Contracts already owned by
// admin are skipped, a contract owned by someone else is reported and left alone.
func transferOwnerships(ctx context.Context, contracts []contract.Handle, admin common.Address, out *ux.UserLog) (*models.StepResults, error) {
	if admin == (common.Address{}) {
		return nil, ErrMissingUpgradesAdmin
	}
	out.PrintToUser("Transferring ownership of contracts to %s...", admin.Hex())
	results := &models.StepResults{}
	for _, h := range contracts {
		name := h.DisplayName(ctx)
		if !h.Capability().Ownable() {
			out.PrintToUser(" - %s is NOT Ownable", name)
			continue
		}
		owner, err := h.Owner(ctx)
		if err != nil {
			out.RedXToUser(" - %s -> ERROR [%s]", name, err)
			results.AddRecovered(StepTransferOwnership, h.Name, err)
			continue
		}
		if owner == admin {
			out.SkipToUser(" - %s -> Owner had already been set to @ %s", name, admin.Hex())
			results.AddSkipped(StepTransferOwnership, h.Name)
			continue
		}
		if err := h.TransferOwnership(ctx, admin); err != nil {
			out.RedXToUser(" - %s -> ERROR [owner = %s]", name, owner.Hex())
			results.AddRecovered(StepTransferOwnership, h.Name, fmt.Errorf("owner is %s: %w", owner.Hex(), err))
			continue
		}
		out.GreenCheckmarkToUser(" - %s -> Owner set to CONTRACT_UPGRADES_ADMIN @ %s", name, admin.Hex())
		results.AddDone(StepTransferOwnership, h.Name)
	}
	return results, nil
}

// toggleSetupInitialization ends the setup period of a contract, once
func toggleSetupInitialization(ctx context.Context, h contract.Handle, out *ux.UserLog) models.StepResult {
	initialized, err := h.IsSetupInitialized(ctx)
	if err != nil {
		out.RedXToUser("%s.isSetupInitialized() failed: %s", h.Name, err)
		return models.StepResult{Step: StepSetupInitialized, Contract: h.Name, Outcome: models.Recovered, Err: err}
	}
	if initialized {
		out.SkipToUser("%s is already initialized!", h.Name)
		return models.StepResult{Step: StepSetupInitialized, Contract: h.Name, Outcome: models.Skipped}
	}
	if err := h.SetSetupIsInitialized(ctx); err != nil {
		out.RedXToUser("%s.setSetupIsInitialized() failed: %s", h.Name, err)
		return models.StepResult{Step: StepSetupInitialized, Contract: h.Name, Outcome: models.Recovered, Err: err}
	}
	out.GreenCheckmarkToUser("%s has been initialized", h.Name)
	return models.StepResult{Step: StepSetupInitialized, Contract: h.Name, Outcome: models.Done}
}
