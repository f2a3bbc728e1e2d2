// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package application

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// LastActions remembers the last run of each command, shown by state show
type LastActions struct {
	Runs map[string]LastRun
}

type LastRun struct {
	Network string
	At      time.Time
	Failed  bool
}

func (app *Lendr) lastActionsPath() string {
	return filepath.Join(app.GetBaseDir(), constants.LastFileName)
}

func (app *Lendr) WriteLastActionsFile(acts *LastActions) {
	bLastActs, err := json.Marshal(&acts)
	if err != nil {
		app.Log.Warn("failed to marshal lastActions! This is non-critical but is logged", zap.Error(err))
		return
	}
	if err := app.Fs.MkdirAll(app.GetBaseDir(), constants.DefaultPerms755); err != nil {
		app.Log.Warn("failed to create the base dir! This is non-critical but is logged", zap.Error(err))
		return
	}
	if err := afero.WriteFile(app.Fs, app.lastActionsPath(), bLastActs, constants.WriteReadReadPerms); err != nil {
		app.Log.Warn("failed to create the last-actions file! This is non-critical but is logged", zap.Error(err))
	}
}

func (app *Lendr) ReadLastActionsFile() (*LastActions, error) {
	var lastActs *LastActions
	fileBytes, err := afero.ReadFile(app.Fs, app.lastActionsPath())
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fileBytes, &lastActs); err != nil {
		app.Log.Warn("failed to unmarshal lastActions! This is non-critical but is logged", zap.Error(err))
		return nil, nil
	}
	return lastActs, nil
}

// RecordRun stores the outcome of command on network in the last actions file
func (app *Lendr) RecordRun(command string, network string, failed bool) {
	acts, err := app.ReadLastActionsFile()
	if err != nil || acts == nil {
		acts = &LastActions{}
	}
	if acts.Runs == nil {
		acts.Runs = map[string]LastRun{}
	}
	acts.Runs[command] = LastRun{Network: network, At: time.Now().UTC(), Failed: failed}
	app.WriteLastActionsFile(acts)
}
