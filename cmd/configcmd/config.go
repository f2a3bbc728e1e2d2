// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package configcmd

import (
	"github.com/lendr-finance/lendr-deployer/pkg/application"
	"github.com/lendr-finance/lendr-deployer/pkg/cobrautils"

	"github.com/spf13/cobra"
)

var app *application.Lendr

// lendr config
func NewCmd(injectedApp *application.Lendr) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Modify configuration for the Lendr deployer",
		Long:  `Customize configuration for the Lendr deployer`,
		RunE:  cobrautils.CommandSuiteUsage,
	}
	app = injectedApp
	// set user metrics collection preferences cmd
	cmd.AddCommand(newMetricsCmd())
	return cmd
}
