// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package runner sequences the phases of a deployment run against one network.
package runner

import (
	"context"
	"fmt"
	"math/big"

	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/deployer"
	"github.com/lendr-finance/lendr-deployer/pkg/evm"
	"github.com/lendr-finance/lendr-deployer/pkg/metrics"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/state"
	"github.com/lendr-finance/lendr-deployer/pkg/statemachine"
	"github.com/lendr-finance/lendr-deployer/pkg/utils"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"
	"github.com/lendr-finance/lendr-deployer/pkg/verify"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	PhaseBalance    = "balance"
	PhaseFees       = "fees"
	PhaseDeploy     = "deploy"
	PhaseWire       = "wire"
	PhaseCollateral = "collateral"
	PhaseLink       = "link"
	PhaseVerify     = "verify"
	PhaseOwnership  = "ownership"
	PhaseHandoff    = "handoff"
	PhaseCost       = "cost"
)

// Options turns the optional phases of a run on or off
type Options struct {
	SkipVerify        bool
	WithOracles       bool
	TransferOwnership bool
	Handoff           bool
}

// Dependencies are the collaborators a run context is assembled from
type Dependencies struct {
	Backend      evm.Backend
	Fs           afero.Fs
	ArtifactsDir string
	// Explorer may be nil, verification is then skipped
	Explorer verify.Backend
	Log      logging.Logger
	Out      *ux.UserLog
	Metrics  *metrics.RunMetrics
}

// RunContext is everything a run needs. It is assembled once per command and passed down.
// Fees stays empty until the fees phase of the run resolves it.
type RunContext struct {
	Profile  models.NetworkProfile
	Fees     evm.FeePolicy
	Store    *state.Store
	Resolver *contract.Resolver
	Deployer *deployer.Deployer
	Verifier *verify.Verifier
	Log      logging.Logger
	Out      *ux.UserLog
	Metrics  *metrics.RunMetrics
	Options  Options
}

// NewRunContext checks the chain behind deps.Backend against profile and loads the
// deployment state at statePath
func NewRunContext(
	ctx context.Context,
	profile models.NetworkProfile,
	statePath string,
	deps Dependencies,
	opts Options,
) (*RunContext, error) {
	log := deps.Log
	if log == nil {
		log = logging.NoLog{}
	}
	if profile.ChainID != 0 {
		chainID, err := deps.Backend.ChainID(ctx)
		if err != nil {
			return nil, err
		}
		if chainID.Uint64() != profile.ChainID {
			return nil, fmt.Errorf("network %s expects chain id %d, rpc reports %s", profile.Name, profile.ChainID, chainID)
		}
	}
	store := state.NewStore(deps.Fs, statePath, log)
	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	if len(st) > 0 {
		deps.Out.PrintToUser("Loading previous deployment from %s...", statePath)
	}
	resolver := contract.NewResolver(deps.Fs, deps.ArtifactsDir)
	tx := evm.NewTransactor(deps.Backend, evm.FeePolicy{}, profile.TxConfirmations, log, deps.Metrics)
	return &RunContext{
		Profile:  profile,
		Store:    store,
		Resolver: resolver,
		Deployer: deployer.New(store, resolver, tx, profile.Retry, log, deps.Out, deps.Metrics),
		Verifier: verify.New(store, resolver, deps.Explorer, profile.ExplorerBaseURL, log, deps.Out),
		Log:      log,
		Out:      deps.Out,
		Metrics:  deps.Metrics,
		Options:  opts,
	}, nil
}

type phase struct {
	name string
	run  func(ctx context.Context) error
}

// sequence runs phases in order on the state machine. A phase error is fatal and stops the run.
type sequence struct {
	rc      *RunContext
	title   string
	results *models.StepResults
	balance *big.Int
}

func newSequence(rc *RunContext, title string) *sequence {
	return &sequence{rc: rc, title: title, results: &models.StepResults{}}
}

func (s *sequence) run(ctx context.Context, phases []phase) (*models.StepResults, error) {
	names := make([]string, 0, len(phases))
	byName := make(map[string]phase, len(phases))
	for _, p := range phases {
		names = append(names, p.name)
		byName[p.name] = p
	}
	sm, err := statemachine.NewStateMachine(names)
	if err != nil {
		return s.results, err
	}
	var runErr error
	for sm.Running() {
		p := byName[sm.CurrentState()]
		s.rc.Log.Info("phase started", zap.String("run", s.title), zap.String("phase", p.name))
		if err := p.run(ctx); err != nil {
			s.rc.Log.Error("phase failed", zap.String("run", s.title), zap.String("phase", p.name), zap.Error(err))
			s.results.AddFatal(p.name, "", err)
			runErr = err
			sm.NextState(statemachine.Stop)
			continue
		}
		sm.NextState(statemachine.Forward)
	}
	s.rc.Metrics.Steps(s.results)
	if s.results.Len() > 0 {
		s.rc.Out.PrintToUser(ux.StepResultsTable(s.title, s.results).Render())
	}
	return s.results, runErr
}

// balancePhase prints the deployer balance and, after a first snapshot, what the run spent
func (s *sequence) balancePhase(name string) phase {
	return phase{name: name, run: func(ctx context.Context) error {
		backend := s.rc.Deployer.Transactor().Backend
		sender := backend.Sender()
		balance, err := backend.Balance(ctx, sender)
		if err != nil {
			s.rc.Log.Warn("failed reading deployer balance", zap.String("phase", name), zap.Error(err))
			s.rc.Out.WarningToUser("unable to read the balance of %s: %s", sender.Hex(), err)
			s.results.AddRecovered(name, "", err)
			return nil
		}
		if s.balance == nil {
			// no starting snapshot, so no cost either
			s.rc.Out.PrintToUser("%s Balance: %s", sender.Hex(), utils.FormatEther(balance))
			if name != PhaseCost {
				s.balance = balance
			}
			return nil
		}
		cost := new(big.Int).Sub(s.balance, balance)
		s.rc.Metrics.SetCost(cost)
		s.rc.Out.PrintToUser("%s Balance: %s (Deployment cost: %s)", sender.Hex(), utils.FormatEther(balance), utils.FormatEther(cost))
		s.balance = balance
		return nil
	}}
}

// feesPhase fixes the fee policy of every transaction the run sends
func (s *sequence) feesPhase() phase {
	return phase{name: PhaseFees, run: func(ctx context.Context) error {
		tx := s.rc.Deployer.Transactor()
		fees, err := evm.ResolveFeePolicy(ctx, tx.Backend, s.rc.Profile.Fees)
		if err != nil {
			return fmt.Errorf("failure resolving fees: %w", err)
		}
		s.rc.Log.Info("fee policy", zap.Stringer("fees", fees))
		s.rc.Fees = fees
		tx.Fees = fees
		return nil
	}}
}

// deploy deploys or reuses entry and records whether a transaction was needed
func (s *sequence) deploy(ctx context.Context, entry contract.Entry, args ...any) (contract.Handle, error) {
	rec, recorded := s.rc.Store.Get(entry.Name)
	existed := recorded && rec.Deployed()
	h, err := s.rc.Deployer.DeployOrReuse(ctx, entry, args...)
	if err != nil {
		return contract.Handle{}, err
	}
	if existed {
		s.results.AddSkipped(PhaseDeploy, entry.Name)
	} else {
		s.results.AddDone(PhaseDeploy, entry.Name)
	}
	return h, nil
}

func (s *sequence) verifyPhase(targets func() []verify.Target) phase {
	return phase{name: PhaseVerify, run: func(ctx context.Context) error {
		s.results.Merge(s.rc.Verifier.VerifyAll(ctx, targets()))
		return nil
	}}
}
