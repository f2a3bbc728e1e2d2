// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package verifycmd

import (
	"context"

	"github.com/lendr-finance/lendr-deployer/cmd/deploycmd"
	"github.com/lendr-finance/lendr-deployer/cmd/flags"
	"github.com/lendr-finance/lendr-deployer/pkg/application"
	"github.com/lendr-finance/lendr-deployer/pkg/cobrautils"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/runner"

	"github.com/spf13/cobra"
)

var (
	app  *application.Lendr
	lndr bool
)

// lendr verify
func NewCmd(injectedApp *application.Lendr) *cobra.Command {
	app = injectedApp
	nf := flags.NetworkFlags{}
	rf := flags.RunFlags{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify recorded contracts on the block explorer",
		Long: `The verify command submits the sources of every contract recorded in the state file
of the network to its block explorer. Contracts already verified are skipped.`,
		Args: cobrautils.ExactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			return verify(nf.Network, rf)
		},
	}
	flags.AddNetworkFlagsToCmd(cmd, &nf)
	cmd.Flags().BoolVar(&lndr, "lndr", false, "verify the LNDR contracts instead of the core ones")
	cmd.Flags().StringVar(&rf.MetricsTextfile, flags.MetricsTextfileFlag, "", "write the run metrics to this file, in the prometheus text format")
	return cmd
}

func verify(network string, rf flags.RunFlags) error {
	ctx := context.Background()
	s, err := deploycmd.Connect(ctx, app, network)
	if err != nil {
		return err
	}
	defer s.Finish(ctx, rf)
	statePath := s.Profile.OutputFile
	newVerification := runner.NewCoreVerification
	if lndr {
		statePath = s.Profile.Lndr.OutputFile
		newVerification = runner.NewLndrVerification
	}
	rc, err := s.RunContext(ctx, statePath, rf.Options)
	if err != nil {
		return err
	}
	results, err := newVerification(rc).Run(ctx)
	if err == nil && results.Count(models.Recovered) > 0 {
		app.RecordRun("verify", s.Profile.Name, true)
		rc.Out.WarningToUser("some contracts could not be verified, run verify again to retry them")
		return nil
	}
	app.RecordRun("verify", s.Profile.Name, err != nil)
	return err
}
