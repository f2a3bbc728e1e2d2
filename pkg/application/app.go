// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package application

import (
	"path/filepath"

	"github.com/lendr-finance/lendr-deployer/pkg/config"
	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/state"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/afero"
)

// ProjectDirs locates the inputs of a deployment inside the contracts project
type ProjectDirs struct {
	Networks  string
	Artifacts string
}

type Lendr struct {
	Log     logging.Logger
	Fs      afero.Fs
	Conf    *config.Config
	baseDir string
	dirs    ProjectDirs
}

func New() *Lendr {
	return &Lendr{}
}

func (app *Lendr) Setup(baseDir string, log logging.Logger, conf *config.Config, fs afero.Fs, dirs ProjectDirs) {
	app.baseDir = baseDir
	app.Log = log
	app.Conf = conf
	app.Fs = fs
	app.SetProjectDirs(dirs)
}

// SetProjectDirs replaces the project directories, keeping the defaults for empty ones
func (app *Lendr) SetProjectDirs(dirs ProjectDirs) {
	if dirs.Networks == "" {
		dirs.Networks = constants.DefaultNetworksDir
	}
	if dirs.Artifacts == "" {
		dirs.Artifacts = constants.DefaultArtifactsDir
	}
	app.dirs = dirs
}

func (app *Lendr) GetBaseDir() string {
	return app.baseDir
}

func (app *Lendr) GetLogDir() string {
	return filepath.Join(app.baseDir, constants.LogDir)
}

func (app *Lendr) GetConfigPath() string {
	return filepath.Join(app.baseDir, constants.ConfigFileName)
}

func (app *Lendr) GetNetworksDir() string {
	return app.dirs.Networks
}

func (app *Lendr) GetArtifactsDir() string {
	return app.dirs.Artifacts
}

// LoadProfile reads and validates the network profile of network
func (app *Lendr) LoadProfile(network string) (models.NetworkProfile, error) {
	return config.LoadProfile(app.Fs, app.GetNetworksDir(), network)
}

// StateStore returns the store of the deployment state file at path, not loaded yet
func (app *Lendr) StateStore(path string) *state.Store {
	return state.NewStore(app.Fs, path, app.Log)
}

// MetricsEnabled tells whether the user opted in command telemetry
func (app *Lendr) MetricsEnabled() bool {
	return app.Conf != nil && app.Conf.ConfigFileExists() && app.Conf.GetConfigBoolValue(constants.ConfigMetricsEnabledKey)
}
