// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state persists the per-network deployment records.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/models"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	ErrRecordNotFound = errors.New("deployment record not found")
	ErrAlreadySet     = errors.New("record field already set")
)

// Store owns the deployment state of one network. Every mutation is written through to disk
// before returning, so an interrupted run resumes from the last successful step.
type Store struct {
	fs     afero.Fs
	path   string
	log    logging.Logger
	mu     sync.Mutex
	state  models.DeploymentState
	loaded bool
}

func NewStore(fs afero.Fs, path string, log logging.Logger) *Store {
	return &Store{
		fs:    fs,
		path:  path,
		log:   log,
		state: models.DeploymentState{},
	}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the state file. A missing file yields an empty state.
func (s *Store) Load() (models.DeploymentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bs, err := afero.ReadFile(s.fs, s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.log.Info("no deployment state found, starting fresh", zap.String("path", s.path))
		s.state = models.DeploymentState{}
	case err != nil:
		return nil, fmt.Errorf("failure reading deployment state %s: %w", s.path, err)
	default:
		st := models.DeploymentState{}
		if len(bs) > 0 {
			if err := json.Unmarshal(bs, &st); err != nil {
				return nil, fmt.Errorf("failure decoding deployment state %s: %w", s.path, err)
			}
		}
		s.state = st
	}
	s.loaded = true
	return s.snapshot(), nil
}

// Save writes the whole state to a temp file next to the target and renames it over it
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Store) save() error {
	bs, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, constants.DefaultPerms755); err != nil {
		return fmt.Errorf("failure creating state dir %s: %w", dir, err)
	}
	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failure creating temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(bs); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failure writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return err
	}
	if err := s.fs.Chmod(tmpName, constants.WriteReadReadPerms); err != nil {
		s.log.Debug("could not chmod state file", zap.Error(err))
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failure saving deployment state %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) Get(name string) (models.DeploymentRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state[name]
	return rec, ok
}

// State returns a copy of the current state
func (s *Store) State() models.DeploymentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() models.DeploymentState {
	out := make(models.DeploymentState, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}

// Put records a new deployment and persists it
func (s *Store) Put(name string, rec models.DeploymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[name] = rec
	return s.save()
}

// SetImplementation adds the implementation address of a proxied record
func (s *Store) SetImplementation(name string, impl common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, name)
	}
	if rec.ImplAddress != nil {
		if *rec.ImplAddress == impl {
			return nil
		}
		return fmt.Errorf("%w: %s implAddress is %s", ErrAlreadySet, name, rec.ImplAddress.Hex())
	}
	rec.ImplAddress = &impl
	s.state[name] = rec
	return s.save()
}

// SetVerification stores the explorer marker of a verified record
func (s *Store) SetVerification(name string, marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, name)
	}
	if rec.Verification != "" {
		if rec.Verification == marker {
			return nil
		}
		return fmt.Errorf("%w: %s verification is %s", ErrAlreadySet, name, rec.Verification)
	}
	rec.Verification = marker
	s.state[name] = rec
	return s.save()
}
