// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package runner

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/lendr-finance/lendr-deployer/pkg/collateral"
	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/utils"
	"github.com/lendr-finance/lendr-deployer/pkg/verify"
	"github.com/lendr-finance/lendr-deployer/pkg/wiring"

	"github.com/ethereum/go-ethereum/common"
)

// Core deploys, wires and configures the Lendr core contracts
type Core struct {
	*sequence
	catalog   *contract.Catalog
	timelock  time.Duration
	contracts []contract.Handle
	byName    map[string]contract.Handle
	targets   []verify.Target
}

func NewCore(rc *RunContext) *Core {
	timelockName, timelockDelay := rc.Profile.TimelockFlavour()
	return &Core{
		sequence: newSequence(rc, fmt.Sprintf("Lendr core on %s", rc.Profile.Name)),
		catalog:  contract.CoreCatalog(rc.Profile.PriceFeedContract, timelockName),
		timelock: timelockDelay,
		byName:   map[string]contract.Handle{},
	}
}

// Phases lists the phases of the run with the options of the run context
func (c *Core) Phases() []string {
	return utils.Map(c.phases(), func(p phase) string { return p.name })
}

func (c *Core) phases() []phase {
	phases := []phase{
		c.balancePhase(PhaseBalance),
		c.feesPhase(),
		{name: PhaseDeploy, run: c.deployAll},
		{name: PhaseWire, run: c.wire},
		{name: PhaseCollateral, run: c.configureCollateral},
	}
	if c.rc.Options.Handoff {
		phases = append(phases, phase{name: PhaseHandoff, run: c.handoff})
	}
	if !c.rc.Options.SkipVerify {
		phases = append(phases, c.verifyPhase(func() []verify.Target { return c.targets }))
	}
	if c.rc.Options.TransferOwnership {
		phases = append(phases, phase{name: PhaseOwnership, run: c.transferOwnerships})
	}
	return append(phases, c.balancePhase(PhaseCost))
}

// Run executes the core deployment. The error is set when a fatal step stopped the run.
func (c *Core) Run(ctx context.Context) (*models.StepResults, error) {
	c.rc.Out.PrintToUser("Deploying Lendr Core on %s...", c.rc.Profile.Name)
	return c.run(ctx, c.phases())
}

// Contract returns the handle of a contract deployed or reused by the run
func (c *Core) Contract(name string) (contract.Handle, bool) {
	h, ok := c.byName[name]
	return h, ok
}

func (c *Core) add(h contract.Handle, verifyArgs ...any) {
	c.contracts = append(c.contracts, h)
	c.byName[h.Name] = h
	c.targets = append(c.targets, verify.Target{Name: h.Name, Args: verifyArgs})
}

func (c *Core) deployAll(ctx context.Context) error {
	c.rc.Out.PrintToUser("Deploying core contracts...")
	profile := c.rc.Profile
	for _, entry := range c.catalog.Entries() {
		var args []any
		switch entry.Role {
		case contract.RoleTimelock:
			args = []any{big.NewInt(int64(c.timelock / time.Second)), profile.SystemParamsAdmin}
		case contract.RoleDebtToken:
			if profile.DebtToken.Address != (common.Address{}) {
				h := c.rc.Deployer.Attach(entry, profile.DebtToken.Address)
				c.contracts = append(c.contracts, h)
				c.byName[h.Name] = h
				c.results.AddSkipped(PhaseDeploy, entry.Name)
				continue
			}
			args = []any{profile.DebtToken.Name, profile.DebtToken.Symbol}
		case contract.RoleStakedDebtToken:
			args = []any{c.byName[contract.DebtToken].Address}
		}
		h, err := c.deploy(ctx, entry, args...)
		if err != nil {
			return err
		}
		if entry.Pattern == contract.Proxied {
			// upgradeable implementations take no constructor arguments
			c.add(h)
		} else {
			c.add(h, args...)
		}
	}
	return nil
}

func (c *Core) peers() map[string]common.Address {
	peers := map[string]common.Address{}
	for _, h := range c.contracts {
		peers[h.Entry.Role] = h.Address
	}
	return peers
}

func (c *Core) wire(ctx context.Context) error {
	engine := wiring.New(c.rc.Log, c.rc.Out)
	c.results.Merge(engine.WireAll(ctx, c.contracts, c.catalog.Layout, c.peers(), c.rc.Profile.TreasuryWallet))

	debtToken := c.byName[contract.DebtToken]
	c.results.Add(engine.LinkDebtToken(ctx, debtToken,
		c.byName[contract.BorrowerOperations].Address,
		c.byName[contract.StakedDebtToken].Address,
		c.byName[contract.VesselManager].Address,
	))
	c.results.Add(engine.WhitelistFeeCollector(ctx, debtToken, c.byName[contract.FeeCollector].Address))
	c.results.Add(engine.SetRedemptionSoftening(ctx, c.byName[contract.VesselManagerOperations], big.NewInt(constants.RedemptionSofteningParam)))
	return nil
}

func (c *Core) configureCollateral(ctx context.Context) error {
	c.rc.Out.PrintToUser("Adding Collateral...")
	priceFeed, ok := c.catalog.ByRole(contract.RolePriceFeed)
	if !ok {
		return fmt.Errorf("catalog has no price feed")
	}
	configurator := collateral.New(
		c.byName[contract.AdminContract],
		c.byName[priceFeed.Name],
		c.rc.Deployer.Transactor().Backend.Sender(),
		c.rc.Log,
		c.rc.Out,
		collateral.WithOracles(c.rc.Options.WithOracles),
	)
	c.results.Merge(configurator.EnsureAll(ctx, c.rc.Profile.Collateral))
	return nil
}

func (c *Core) handoff(ctx context.Context) error {
	c.results.Add(toggleSetupInitialization(ctx, c.byName[contract.AdminContract], c.rc.Out))
	return nil
}

func (c *Core) transferOwnerships(ctx context.Context) error {
	results, err := transferOwnerships(ctx, c.contracts, c.rc.Profile.ContractUpgradesAdmin, c.rc.Out)
	if err != nil {
		return err
	}
	c.results.Merge(results)
	return nil
}
