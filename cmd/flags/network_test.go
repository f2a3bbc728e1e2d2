// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestValidateNetwork(t *testing.T) {
	for _, name := range []string{"sepolia", "hardhat", "arbitrum-one", "base_sepolia"} {
		require.NoError(t, ValidateNetwork(name))
	}
	for _, name := range []string{"", "../etc", "a/b", "sepolia.yaml"} {
		require.Error(t, ValidateNetwork(name), name)
	}
}

func TestAddFlags(t *testing.T) {
	require := require.New(t)
	nf := NetworkFlags{}
	rf := RunFlags{}
	cmd := &cobra.Command{Use: "core", RunE: func(*cobra.Command, []string) error { return nil }}
	AddNetworkFlagsToCmd(cmd, &nf)
	AddRunFlagsToCmd(cmd, &rf, true)

	require.NoError(cmd.ParseFlags([]string{"--network", "sepolia", "--skip-verify", "--handoff"}))
	require.Equal("sepolia", nf.Network)
	require.True(rf.Options.SkipVerify)
	require.True(rf.Options.Handoff)
	require.False(rf.Options.WithOracles)
	require.NoError(cmd.PreRunE(cmd, nil))

	nf.Network = "../x"
	require.Error(cmd.PreRunE(cmd, nil))
}

func TestRunFlagsWithoutPhases(t *testing.T) {
	cmd := &cobra.Command{Use: "lndr"}
	AddRunFlagsToCmd(cmd, &RunFlags{}, false)
	require.Nil(t, cmd.Flags().Lookup(HandoffFlag))
	require.NotNil(t, cmd.Flags().Lookup(SkipVerifyFlag))
}
