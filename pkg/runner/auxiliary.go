// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package runner

import (
	"context"
	"fmt"

	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/state"
	"github.com/lendr-finance/lendr-deployer/pkg/verify"
	"github.com/lendr-finance/lendr-deployer/pkg/wiring"

	"github.com/ethereum/go-ethereum/common"
)

// Auxiliary deploys the LNDR token family and links it to an existing core deployment.
// Its records live in their own state file, the core one is only read.
type Auxiliary struct {
	*sequence
	catalog   *contract.Catalog
	coreStore *state.Store
	byName    map[string]contract.Handle
	targets   []verify.Target
}

func NewAuxiliary(rc *RunContext, coreStore *state.Store) *Auxiliary {
	return &Auxiliary{
		sequence:  newSequence(rc, fmt.Sprintf("LNDR on %s", rc.Profile.Name)),
		catalog:   contract.LndrCatalog(),
		coreStore: coreStore,
		byName:    map[string]contract.Handle{},
	}
}

func (a *Auxiliary) treasury() common.Address {
	return lndrTreasury(a.rc.Profile)
}

// lndrTreasury is the LNDR treasury of profile, the core treasury unless overridden
func lndrTreasury(profile models.NetworkProfile) common.Address {
	if profile.Lndr.TreasuryWallet != (common.Address{}) {
		return profile.Lndr.TreasuryWallet
	}
	return profile.TreasuryWallet
}

func (a *Auxiliary) phases() []phase {
	phases := []phase{
		a.balancePhase(PhaseBalance),
		a.feesPhase(),
		{name: PhaseDeploy, run: a.deployAll},
		{name: PhaseLink, run: a.link},
	}
	if !a.rc.Options.SkipVerify {
		phases = append(phases, a.verifyPhase(func() []verify.Target { return a.targets }))
	}
	return append(phases, a.balancePhase(PhaseCost))
}

func (a *Auxiliary) Run(ctx context.Context) (*models.StepResults, error) {
	a.rc.Out.PrintToUser("Deploying LNDR contracts on %s...", a.rc.Profile.Name)
	return a.run(ctx, a.phases())
}

func (a *Auxiliary) deployAll(ctx context.Context) error {
	for _, entry := range a.catalog.Entries() {
		var args []any
		switch entry.Role {
		case contract.RoleLNDRToken:
			args = []any{a.rc.Profile.Lndr.LzEndpoint, a.treasury()}
		case contract.RoleCommunityIssuance:
			args = []any{a.byName[contract.LNDRToken].Address}
		}
		h, err := a.deploy(ctx, entry, args...)
		if err != nil {
			return err
		}
		a.byName[h.Name] = h
		target := verify.Target{Name: h.Name}
		if entry.Pattern == contract.Direct {
			target.Args = args
		}
		a.targets = append(a.targets, target)
	}
	return nil
}

// loadCore binds the core contracts that link to the LNDR family
func (a *Auxiliary) loadCore() ([]contract.Handle, error) {
	core := a.rc.Deployer.WithStore(a.coreStore)
	handles := []contract.Handle{}
	timelock, _ := a.rc.Profile.TimelockFlavour()
	for _, entry := range contract.CoreCatalog(a.rc.Profile.PriceFeedContract, timelock).Entries() {
		if entry.Links == 0 {
			continue
		}
		h, err := core.Load(entry)
		if err != nil {
			return nil, fmt.Errorf("unable to load contract %s, it is not deployed: %w", entry.Name, err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func (a *Auxiliary) link(ctx context.Context) error {
	if _, err := a.coreStore.Load(); err != nil {
		return err
	}
	core, err := a.loadCore()
	if err != nil {
		return err
	}
	engine := wiring.New(a.rc.Log, a.rc.Out)
	a.results.Merge(engine.LinkAuxiliary(ctx, core,
		a.byName[contract.CommunityIssuance].Address,
		a.byName[contract.LNDRStaking].Address,
	))
	a.results.Add(engine.LinkLNDRStaking(ctx, a.byName[contract.LNDRStaking], a.byName[contract.LNDRToken].Address, a.treasury()))
	return nil
}
