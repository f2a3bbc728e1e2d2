// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package deploycmd

import (
	"context"

	"github.com/lendr-finance/lendr-deployer/cmd/flags"
	"github.com/lendr-finance/lendr-deployer/pkg/application"
	"github.com/lendr-finance/lendr-deployer/pkg/cobrautils"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/runner"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/spf13/cobra"
)

var app *application.Lendr

// lendr deploy
func NewCmd(injectedApp *application.Lendr) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy Lendr contracts",
		Long: `The deploy command suite deploys the Lendr contracts to the network of a profile.

Every run can be interrupted and started again: contracts recorded in the state file of
the network are reused, and configuration steps already visible on chain are skipped.`,
		RunE: cobrautils.CommandSuiteUsage,
	}
	app = injectedApp
	// deploy core
	cmd.AddCommand(newCoreCmd())
	// deploy lndr
	cmd.AddCommand(newLndrCmd())
	// deploy pricefeeds
	cmd.AddCommand(newPriceFeedsCmd())
	return cmd
}

type run interface {
	Run(ctx context.Context) (*models.StepResults, error)
}

// execute connects to the network, builds the run recording into the state file picked
// by statePath and runs it
func execute(
	network string,
	rf flags.RunFlags,
	command string,
	statePath func(models.NetworkProfile) string,
	build func(*Session, *runner.RunContext) run,
) error {
	ctx := context.Background()
	s, err := Connect(ctx, app, network)
	if err != nil {
		return err
	}
	defer s.Finish(ctx, rf)
	rc, err := s.RunContext(ctx, statePath(s.Profile), rf.Options)
	if err != nil {
		return err
	}
	results, runErr := build(s, rc).Run(ctx)
	err = summarize(results, runErr)
	app.RecordRun(command, s.Profile.Name, err != nil)
	if err == nil {
		ux.Logger.GreenCheckmarkToUser("Deployment state saved to %s", rc.Store.Path())
	}
	return err
}

func coreStatePath(p models.NetworkProfile) string {
	return p.OutputFile
}

func newCoreCmd() *cobra.Command {
	nf := flags.NetworkFlags{}
	rf := flags.RunFlags{}
	cmd := &cobra.Command{
		Use:   "core",
		Short: "Deploy, wire and configure the Lendr core",
		Long: `Deploys the Lendr core contracts, connects them to each other and registers the
collaterals of the network profile. Contract verification runs last unless
--skip-verify is given.`,
		Args: cobrautils.ExactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return execute(nf.Network, rf, "deploy core", coreStatePath, func(_ *Session, rc *runner.RunContext) run {
				return runner.NewCore(rc)
			})
		},
	}
	flags.AddNetworkFlagsToCmd(cmd, &nf)
	flags.AddRunFlagsToCmd(cmd, &rf, true)
	return cmd
}

func newLndrCmd() *cobra.Command {
	nf := flags.NetworkFlags{}
	rf := flags.RunFlags{}
	cmd := &cobra.Command{
		Use:   "lndr",
		Short: "Deploy the LNDR token family and link it to the core",
		Long: `Deploys LNDRToken, CommunityIssuance and LNDRStaking into their own state file,
then links them to the core contracts recorded by deploy core.`,
		Args: cobrautils.ExactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			lndrStatePath := func(p models.NetworkProfile) string { return p.Lndr.OutputFile }
			return execute(nf.Network, rf, "deploy lndr", lndrStatePath, func(s *Session, rc *runner.RunContext) run {
				return runner.NewAuxiliary(rc, app.StateStore(s.Profile.OutputFile))
			})
		},
	}
	flags.AddNetworkFlagsToCmd(cmd, &nf)
	flags.AddRunFlagsToCmd(cmd, &rf, false)
	return cmd
}

func newPriceFeedsCmd() *cobra.Command {
	nf := flags.NetworkFlags{}
	rf := flags.RunFlags{}
	cmd := &cobra.Command{
		Use:   "pricefeeds",
		Short: "Deploy the price aggregators used as collateral oracles",
		Args:  cobrautils.ExactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return execute(nf.Network, rf, "deploy pricefeeds", coreStatePath, func(_ *Session, rc *runner.RunContext) run {
				return runner.NewPriceFeeds(rc)
			})
		},
	}
	flags.AddNetworkFlagsToCmd(cmd, &nf)
	flags.AddRunFlagsToCmd(cmd, &rf, false)
	return cmd
}
