// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package testutils

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/lendr-finance/lendr-deployer/pkg/application"
	"github.com/lendr-finance/lendr-deployer/pkg/config"
	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const TestBaseDir = "/home/dev/.lendr-deployer"

func SetupTest(t *testing.T) *require.Assertions {
	// use io.Discard to not print anything
	ux.NewUserLog(logging.NoLog{}, io.Discard)
	return require.New(t)
}

// SetupTestApp returns an app working on an in memory filesystem, with its config loaded
func SetupTestApp(t *testing.T, dirs application.ProjectDirs) *application.Lendr {
	fs := afero.NewMemMapFs()
	app := application.New()
	app.Setup(TestBaseDir, logging.NoLog{}, config.New(fs), fs, dirs)
	app.Conf.SetConfig(logging.NoLog{}, app.GetConfigPath())
	require.NoError(t, fs.MkdirAll(TestBaseDir, constants.DefaultPerms755))
	return app
}

// WriteProfile writes a yaml network profile into the networks directory of app
func WriteProfile(t *testing.T, app *application.Lendr, network string, profile string) {
	path := filepath.Join(app.GetNetworksDir(), network+".yaml")
	require.NoError(t, afero.WriteFile(app.Fs, path, []byte(profile), constants.WriteReadReadPerms))
}
