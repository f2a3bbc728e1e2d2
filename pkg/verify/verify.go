// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package verify submits the sources of recorded deployments to a block explorer and
// remembers the contracts the explorer accepted.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/state"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const StepVerify = "verify"

type Status int

const (
	Verified Status = iota
	AlreadyVerified
)

func (s Status) String() string {
	if s == AlreadyVerified {
		return "already verified"
	}
	return "verified"
}

// Request carries what an explorer needs to match the sources deployed at Address
type Request struct {
	Name            string
	Address         common.Address
	Artifact        *contract.Artifact
	BuildInfo       *contract.BuildInfo
	ConstructorArgs []byte
}

//go:generate mockgen -destination=mocks/backend.go -package=mocks . Backend
type Backend interface {
	Verify(ctx context.Context, req Request) (Status, error)
}

// Target is a contract to verify along with the arguments it was constructed with
type Target struct {
	Name string
	Args []any
}

type Verifier struct {
	store           *state.Store
	resolver        *contract.Resolver
	backend         Backend
	explorerBaseURL string
	log             logging.Logger
	out             *ux.UserLog
}

func New(
	store *state.Store,
	resolver *contract.Resolver,
	backend Backend,
	explorerBaseURL string,
	log logging.Logger,
	out *ux.UserLog,
) *Verifier {
	if log == nil {
		log = logging.NoLog{}
	}
	return &Verifier{
		store:           store,
		resolver:        resolver,
		backend:         backend,
		explorerBaseURL: strings.TrimSuffix(explorerBaseURL, "/"),
		log:             log,
		out:             out,
	}
}

// Enabled tells whether an explorer is configured
func (v *Verifier) Enabled() bool {
	return v.explorerBaseURL != "" && v.backend != nil
}

// Marker is the explorer page stored in the record of a verified contract
func (v *Verifier) Marker(addr common.Address) string {
	return fmt.Sprintf("%s/%s#code", v.explorerBaseURL, addr.Hex())
}

// VerifyAll verifies every target in order. Without an explorer nothing is attempted.
func (v *Verifier) VerifyAll(ctx context.Context, targets []Target) *models.StepResults {
	results := &models.StepResults{}
	if !v.Enabled() {
		v.out.PrintToUser("(No block explorer configured, skipping contract verification)")
		return results
	}
	for _, t := range targets {
		results.Add(v.Verify(ctx, t.Name, t.Args...))
	}
	return results
}

// Verify submits the sources of the recorded contract name. A record that already carries a
// verification marker is skipped without contacting the explorer.
func (v *Verifier) Verify(ctx context.Context, name string, args ...any) models.StepResult {
	if !v.Enabled() {
		v.out.Info("no explorer configured, not verifying %s", name)
		return models.StepResult{Step: StepVerify, Contract: name, Outcome: models.Skipped, Err: constants.ErrNoExplorer}
	}
	rec, ok := v.store.Get(name)
	if !ok || !rec.Deployed() {
		v.log.Error("no deployment state for contract", zap.String("contract", name))
		v.out.RedXToUser("  --> No deployment state for contract %s!!", name)
		return v.failed(name, fmt.Errorf("%w: %s", constants.ErrNotDeployed, name))
	}
	if rec.Verified() {
		v.out.SkipToUser("Contract %s already verified", name)
		return models.StepResult{Step: StepVerify, Contract: name, Outcome: models.Skipped}
	}
	req, err := v.request(name, rec, args...)
	if err != nil {
		return v.failed(name, err)
	}
	status, err := v.backend.Verify(ctx, req)
	if err != nil {
		v.out.RedXToUser("Error verifying %s: %s", name, err)
		return v.failed(name, err)
	}
	marker := v.Marker(rec.Address)
	if err := v.store.SetVerification(name, marker); err != nil {
		return v.failed(name, err)
	}
	v.out.GreenCheckmarkToUser("%s %s: %s", name, status, marker)
	return models.StepResult{Step: StepVerify, Contract: name, Outcome: models.Done}
}

func (v *Verifier) request(name string, rec models.DeploymentRecord, args ...any) (Request, error) {
	artifact, err := v.resolver.Artifact(name)
	if err != nil {
		return Request{}, err
	}
	buildInfo, err := v.resolver.BuildInfo(artifact)
	if err != nil {
		return Request{}, err
	}
	var ctorArgs []byte
	if len(args) > 0 {
		if ctorArgs, err = artifact.ConstructorArgs(args...); err != nil {
			return Request{}, err
		}
	}
	return Request{
		Name:            name,
		Address:         rec.VerificationTarget(),
		Artifact:        artifact,
		BuildInfo:       buildInfo,
		ConstructorArgs: ctorArgs,
	}, nil
}

func (v *Verifier) failed(name string, err error) models.StepResult {
	v.log.Warn("verification failed", zap.String("contract", name), zap.Error(err))
	return models.StepResult{Step: StepVerify, Contract: name, Outcome: models.Recovered, Err: err}
}
