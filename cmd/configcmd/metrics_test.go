// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package configcmd

import (
	"bytes"
	"testing"

	"github.com/lendr-finance/lendr-deployer/internal/testutils"
	"github.com/lendr-finance/lendr-deployer/pkg/application"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestMetricsSettings(t *testing.T) {
	require := require.New(t)
	injected := testutils.SetupTestApp(t, application.ProjectDirs{})
	out := &bytes.Buffer{}
	ux.NewUserLog(logging.NoLog{}, out)

	cmd := NewCmd(injected)
	cmd.SetArgs([]string{"metrics", "enable"})
	require.NoError(cmd.Execute())
	require.True(injected.MetricsEnabled())
	require.Contains(out.String(), "opting in")
	exists, err := afero.Exists(injected.Fs, injected.GetConfigPath())
	require.NoError(err)
	require.True(exists)

	cmd.SetArgs([]string{"metrics", "disable"})
	require.NoError(cmd.Execute())
	require.False(injected.MetricsEnabled())

	cmd.SetArgs([]string{"metrics", "maybe"})
	require.Error(cmd.Execute())
}
