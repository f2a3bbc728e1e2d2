// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package application

import (
	"path/filepath"
	"testing"

	"github.com/lendr-finance/lendr-deployer/pkg/config"
	"github.com/lendr-finance/lendr-deployer/pkg/constants"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseDir = "/home/dev/.lendr-deployer"

func newTestApp(dirs ProjectDirs) *Lendr {
	fs := afero.NewMemMapFs()
	app := New()
	app.Setup(baseDir, logging.NoLog{}, config.New(fs), fs, dirs)
	return app
}

func TestProjectDirs(t *testing.T) {
	assert := assert.New(t)
	app := newTestApp(ProjectDirs{})
	assert.Equal(constants.DefaultNetworksDir, app.GetNetworksDir())
	assert.Equal(constants.DefaultArtifactsDir, app.GetArtifactsDir())
	assert.Equal(filepath.Join(baseDir, constants.LogDir), app.GetLogDir())

	app.SetProjectDirs(ProjectDirs{Artifacts: "out/artifacts"})
	assert.Equal(constants.DefaultNetworksDir, app.GetNetworksDir())
	assert.Equal("out/artifacts", app.GetArtifactsDir())
}

func TestLoadProfile(t *testing.T) {
	require := require.New(t)
	app := newTestApp(ProjectDirs{Networks: "profiles"})
	require.NoError(afero.WriteFile(app.Fs, "profiles/hardhat.yaml", []byte(`
rpcUrl: http://127.0.0.1:8545
systemParamsAdmin: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
treasuryWallet: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
debtToken:
  name: Lendr USD
  symbol: LUSD
`), constants.WriteReadReadPerms))

	p, err := app.LoadProfile("hardhat")
	require.NoError(err)
	require.Equal("hardhat", p.Name)

	_, err = app.LoadProfile("sepolia")
	require.ErrorIs(err, config.ErrProfileNotFound)
}

func TestMetricsEnabled(t *testing.T) {
	app := newTestApp(ProjectDirs{})
	app.Conf.SetConfig(logging.NoLog{}, app.GetConfigPath())
	require.False(t, app.MetricsEnabled())
	require.NoError(t, app.Conf.SetConfigValue(constants.ConfigMetricsEnabledKey, true))
	require.True(t, app.MetricsEnabled())
}

func TestLastActions(t *testing.T) {
	require := require.New(t)
	app := newTestApp(ProjectDirs{})

	_, err := app.ReadLastActionsFile()
	require.Error(err)

	app.RecordRun("deploy core", "sepolia", false)
	app.RecordRun("deploy lndr", "sepolia", true)
	acts, err := app.ReadLastActionsFile()
	require.NoError(err)
	require.Len(acts.Runs, 2)
	require.Equal("sepolia", acts.Runs["deploy core"].Network)
	require.True(acts.Runs["deploy lndr"].Failed)
	require.False(acts.Runs["deploy core"].At.IsZero())
}
