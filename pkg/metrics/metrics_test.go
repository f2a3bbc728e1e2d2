// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package metrics

import (
	"runtime"
	"testing"

	"github.com/lendr-finance/lendr-deployer/pkg/application"
	"github.com/lendr-finance/lendr-deployer/pkg/config"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestCheckCommandIsNotCompletion(t *testing.T) {
	root := &cobra.Command{Use: "lendr"}
	completion := &cobra.Command{Use: "completion"}
	bash := &cobra.Command{Use: "bash"}
	deploy := &cobra.Command{Use: "deploy"}
	root.AddCommand(completion, deploy)
	completion.AddCommand(bash)

	require.False(t, CheckCommandIsNotCompletion(bash))
	require.True(t, CheckCommandIsNotCompletion(deploy))
}

func TestTrackingProperties(t *testing.T) {
	props := TrackingProperties("lendr deploy core", map[string]string{"network": "sepolia"})
	require.Equal(t, "lendr deploy core", props["command"])
	require.Equal(t, runtime.GOOS, props["os"])
	require.Equal(t, "sepolia", props["network"])
}

func TestHandleTrackingNeedsOptIn(t *testing.T) {
	fs := afero.NewMemMapFs()
	app := application.New()
	app.Setup("/base", logging.NoLog{}, config.New(fs), fs, application.ProjectDirs{})
	require.NotPanics(t, func() {
		HandleTracking(&cobra.Command{Use: "deploy"}, app, nil)
	})
}
