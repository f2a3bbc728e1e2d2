// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package flags

import (
	"fmt"
	"regexp"

	"github.com/lendr-finance/lendr-deployer/pkg/runner"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	NetworkFlag           = "network"
	SkipVerifyFlag        = "skip-verify"
	WithOraclesFlag       = "with-oracles"
	TransferOwnershipFlag = "transfer-ownership"
	HandoffFlag           = "handoff"
	MetricsTextfileFlag   = "metrics-textfile"
	MetricsPushFlag       = "metrics-push-gateway"
)

var networkNameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// NetworkFlags selects the network profile a command works on
type NetworkFlags struct {
	Network string
}

func AddNetworkFlagsToCmd(cmd *cobra.Command, nf *NetworkFlags) {
	set := pflag.NewFlagSet("network", pflag.ContinueOnError)
	set.StringVarP(&nf.Network, NetworkFlag, "n", "", "name of the network profile")
	cmd.Flags().AddFlagSet(set)
	_ = cmd.MarkFlagRequired(NetworkFlag)

	existingPreRunE := cmd.PreRunE
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if existingPreRunE != nil {
			if err := existingPreRunE(cmd, args); err != nil {
				return err
			}
		}
		return ValidateNetwork(nf.Network)
	}
}

// ValidateNetwork rejects names that could escape the networks and deployments directories
func ValidateNetwork(network string) error {
	if !networkNameRegexp.MatchString(network) {
		return fmt.Errorf("invalid network name %q", network)
	}
	return nil
}

// RunFlags are the optional phases of a deployment run and where its metrics go
type RunFlags struct {
	Options         runner.Options
	MetricsTextfile string
	MetricsPush     string
}

func AddRunFlagsToCmd(cmd *cobra.Command, rf *RunFlags, phases bool) {
	set := pflag.NewFlagSet("run", pflag.ContinueOnError)
	set.BoolVar(&rf.Options.SkipVerify, SkipVerifyFlag, false, "do not verify the contracts on the explorer")
	if phases {
		set.BoolVar(&rf.Options.WithOracles, WithOraclesFlag, false, "register the collateral oracles on the price feed")
		set.BoolVar(&rf.Options.TransferOwnership, TransferOwnershipFlag, false, "hand the ownable contracts over to the upgrades admin")
		set.BoolVar(&rf.Options.Handoff, HandoffFlag, false, "end the setup period of the admin contract")
	}
	set.StringVar(&rf.MetricsTextfile, MetricsTextfileFlag, "", "write the run metrics to this file, in the prometheus text format")
	set.StringVar(&rf.MetricsPush, MetricsPushFlag, "", "push the run metrics to this prometheus push gateway")
	cmd.Flags().AddFlagSet(set)
}
