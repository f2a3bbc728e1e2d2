// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package runner

import (
	"context"
	"fmt"
	"math/big"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/verify"

	"github.com/ethereum/go-ethereum/common"
)

// oracleHints names the collateral each aggregator is meant to price
var oracleHints = map[string]string{
	contract.FixedPriceAggregator:      "bLUSD",
	contract.WstEth2UsdPriceAggregator: "wstETH",
}

// PriceFeeds deploys the price aggregators the collateral of a network may use as oracles.
// Records go to the core state file.
type PriceFeeds struct {
	*sequence
	catalog *contract.Catalog
	targets []verify.Target
}

func NewPriceFeeds(rc *RunContext) *PriceFeeds {
	return &PriceFeeds{
		sequence: newSequence(rc, fmt.Sprintf("Price feeds on %s", rc.Profile.Name)),
		catalog:  contract.PriceFeedsCatalog(),
	}
}

func (p *PriceFeeds) Run(ctx context.Context) (*models.StepResults, error) {
	phases := []phase{
		p.balancePhase(PhaseBalance),
		p.feesPhase(),
		{name: PhaseDeploy, run: p.deployAll},
	}
	if !p.rc.Options.SkipVerify {
		phases = append(phases, p.verifyPhase(func() []verify.Target { return p.targets }))
	}
	phases = append(phases, p.balancePhase(PhaseCost))
	p.rc.Out.PrintToUser("Deploying price feeds on %s...", p.rc.Profile.Name)
	return p.run(ctx, phases)
}

func (p *PriceFeeds) deployAll(ctx context.Context) error {
	for _, entry := range p.catalog.Entries() {
		var args []any
		switch entry.Role {
		case contract.RoleFixedPriceAggregator:
			args = []any{big.NewInt(constants.FixedAggregatorPrice)}
		case contract.RoleWstEth2UsdPriceAggregator:
			args = []any{common.HexToAddress(constants.WstETHAddress), common.HexToAddress(constants.StETHUSDOracle)}
		}
		h, err := p.deploy(ctx, entry, args...)
		if err != nil {
			return err
		}
		p.targets = append(p.targets, verify.Target{Name: h.Name, Args: args})
		p.rc.Out.PrintToUser("%s -> set as oracleAddress of the %s collateral on the config file", h.Address.Hex(), oracleHints[h.Name])
	}
	return nil
}
