// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package runner

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/utils"
	"github.com/lendr-finance/lendr-deployer/pkg/verify"

	"github.com/ethereum/go-ethereum/common"
)

// Verification submits the sources of the contracts recorded in the state of a run context,
// rebuilding the constructor arguments from the network profile. Nothing is deployed.
type Verification struct {
	*sequence
	catalogs []*contract.Catalog
}

// NewCoreVerification covers the core contracts and the price aggregators, which share a state file
func NewCoreVerification(rc *RunContext) *Verification {
	timelock, _ := rc.Profile.TimelockFlavour()
	return &Verification{
		sequence: newSequence(rc, fmt.Sprintf("Verification on %s", rc.Profile.Name)),
		catalogs: []*contract.Catalog{
			contract.CoreCatalog(rc.Profile.PriceFeedContract, timelock),
			contract.PriceFeedsCatalog(),
		},
	}
}

func NewLndrVerification(rc *RunContext) *Verification {
	return &Verification{
		sequence: newSequence(rc, fmt.Sprintf("LNDR verification on %s", rc.Profile.Name)),
		catalogs: []*contract.Catalog{contract.LndrCatalog()},
	}
}

func (v *Verification) Run(ctx context.Context) (*models.StepResults, error) {
	return v.run(ctx, []phase{v.verifyPhase(v.Targets)})
}

// Targets lists the recorded contracts of the catalogs in deployment order
func (v *Verification) Targets() []verify.Target {
	targets := []verify.Target{}
	for _, catalog := range v.catalogs {
		recorded := utils.Filter(catalog.Entries(), func(entry contract.Entry) bool {
			rec, ok := v.rc.Store.Get(entry.Name)
			return ok && rec.Deployed()
		})
		for _, entry := range recorded {
			target := verify.Target{Name: entry.Name}
			if entry.Pattern == contract.Direct {
				target.Args = v.constructorArgs(entry)
			}
			targets = append(targets, target)
		}
	}
	return targets
}

func (v *Verification) constructorArgs(entry contract.Entry) []any {
	profile := v.rc.Profile
	switch entry.Role {
	case contract.RoleTimelock:
		_, delay := profile.TimelockFlavour()
		return []any{big.NewInt(int64(delay / time.Second)), profile.SystemParamsAdmin}
	case contract.RoleDebtToken:
		return []any{profile.DebtToken.Name, profile.DebtToken.Symbol}
	case contract.RoleLNDRToken:
		return []any{profile.Lndr.LzEndpoint, lndrTreasury(profile)}
	case contract.RoleFixedPriceAggregator:
		return []any{big.NewInt(constants.FixedAggregatorPrice)}
	case contract.RoleWstEth2UsdPriceAggregator:
		return []any{common.HexToAddress(constants.WstETHAddress), common.HexToAddress(constants.StETHUSDOracle)}
	}
	return nil
}
