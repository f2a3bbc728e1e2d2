// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package statecmd

import (
	"github.com/lendr-finance/lendr-deployer/pkg/application"
	"github.com/lendr-finance/lendr-deployer/pkg/cobrautils"

	"github.com/spf13/cobra"
)

var app *application.Lendr

// lendr state
func NewCmd(injectedApp *application.Lendr) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect deployment state files",
		Long: `The state command suite shows what previous runs recorded for a network, without
sending any transaction.`,
		RunE: cobrautils.CommandSuiteUsage,
	}
	app = injectedApp
	// state show
	cmd.AddCommand(newShowCmd())
	return cmd
}
