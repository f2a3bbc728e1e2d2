// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package deployer deploys contracts or reuses the ones recorded in the deployment state.
package deployer

import (
	"context"
	"errors"
	"fmt"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/evm"
	"github.com/lendr-finance/lendr-deployer/pkg/metrics"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/retry"
	"github.com/lendr-finance/lendr-deployer/pkg/state"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ExhaustedError is returned when a contract could not be deployed within the attempts of
// the retry policy. It matches constants.ErrDeploymentExhausted.
type ExhaustedError struct {
	Contract string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("unable to deploy contract %s after %d attempts: %v", e.Contract, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{constants.ErrDeploymentExhausted, e.Err}
}

type Deployer struct {
	store    *state.Store
	resolver *contract.Resolver
	tx       *evm.Transactor
	retry    models.RetrySettings
	log      logging.Logger
	out      *ux.UserLog
	metrics  *metrics.RunMetrics
}

func New(
	store *state.Store,
	resolver *contract.Resolver,
	tx *evm.Transactor,
	retrySettings models.RetrySettings,
	log logging.Logger,
	out *ux.UserLog,
	m *metrics.RunMetrics,
) *Deployer {
	if log == nil {
		log = logging.NoLog{}
	}
	return &Deployer{
		store:    store,
		resolver: resolver,
		tx:       tx,
		retry:    retrySettings,
		log:      log,
		out:      out,
		metrics:  m,
	}
}

func (d *Deployer) Transactor() *evm.Transactor {
	return d.tx
}

// WithStore returns a deployer sharing everything with d but the deployment state
func (d *Deployer) WithStore(store *state.Store) *Deployer {
	other := *d
	other.store = store
	return &other
}

// DeployOrReuse returns the recorded deployment of entry when there is one, sending no
// transaction. Otherwise it deploys entry with its pattern, persisting the record as soon
// as the deployment is confirmed.
func (d *Deployer) DeployOrReuse(ctx context.Context, entry contract.Entry, args ...any) (contract.Handle, error) {
	if rec, ok := d.store.Get(entry.Name); ok && rec.Deployed() {
		d.out.Info("Using previous deployment: %s -> %s", rec.Address.Hex(), entry.Name)
		if entry.Pattern == contract.Proxied && rec.ImplAddress == nil {
			d.resolveImplementation(ctx, entry.Name, rec.Address)
		}
		return contract.NewHandle(entry, rec.Address, d.tx), nil
	}
	artifact, err := d.resolver.Artifact(entry.Name)
	if err != nil {
		return contract.Handle{}, err
	}
	policy := retry.DeployPolicy(d.retry)
	switch entry.Pattern {
	case contract.Proxied:
		d.out.Info("(Deploying %s [uups]...)", entry.Name)
		return d.deployProxied(ctx, entry, artifact, policy, args)
	default:
		d.out.Info("(Deploying %s...)", entry.Name)
		return d.deployDirect(ctx, entry, artifact, policy, args)
	}
}

func (d *Deployer) deployDirect(
	ctx context.Context,
	entry contract.Entry,
	artifact *contract.Artifact,
	policy retry.Policy,
	args []any,
) (contract.Handle, error) {
	code, err := artifact.CreationCode(args...)
	if err != nil {
		return contract.Handle{}, err
	}
	attempts := 0
	rec, err := retry.Do(ctx, policy, d.log, "deploy "+entry.Name, func() (models.DeploymentRecord, error) {
		attempts++
		if attempts > 1 {
			d.metrics.Retried()
		}
		addr, txHash, err := d.tx.Deploy(ctx, code)
		if err != nil {
			d.out.Info("[Error: %s] Retrying...", err)
			return models.DeploymentRecord{}, err
		}
		return models.DeploymentRecord{Address: addr, TxHash: txHash}, nil
	})
	if err != nil {
		return contract.Handle{}, d.exhausted(ctx, entry.Name, attempts, err)
	}
	if err := d.store.Put(entry.Name, rec); err != nil {
		return contract.Handle{}, err
	}
	d.out.GreenCheckmarkToUser("%s deployed at %s", entry.Name, rec.Address.Hex())
	return contract.NewHandle(entry, rec.Address, d.tx), nil
}

func (d *Deployer) deployProxied(
	ctx context.Context,
	entry contract.Entry,
	artifact *contract.Artifact,
	policy retry.Policy,
	args []any,
) (contract.Handle, error) {
	implCode, err := artifact.CreationCode()
	if err != nil {
		return contract.Handle{}, err
	}
	initData, err := artifact.InitData(args...)
	if err != nil {
		return contract.Handle{}, err
	}
	if initData == nil {
		initData = []byte{}
	}
	proxyArtifact, err := d.resolver.Artifact(contract.ERC1967Proxy)
	if err != nil {
		return contract.Handle{}, err
	}
	// the implementation survives a failed proxy deployment
	var impl common.Address
	attempts := 0
	rec, err := retry.Do(ctx, policy, d.log, "deploy "+entry.Name, func() (models.DeploymentRecord, error) {
		attempts++
		if attempts > 1 {
			d.metrics.Retried()
		}
		if impl == (common.Address{}) {
			addr, _, err := d.tx.Deploy(ctx, implCode)
			if err != nil {
				d.out.Info("[Error: %s] Retrying...", err)
				return models.DeploymentRecord{}, err
			}
			impl = addr
			d.log.Debug("implementation deployed", zap.String("contract", entry.Name), zap.Stringer("address", impl))
		}
		proxyCode, err := proxyArtifact.CreationCode(impl, initData)
		if err != nil {
			return models.DeploymentRecord{}, retry.Permanent(err)
		}
		addr, txHash, err := d.tx.Deploy(ctx, proxyCode)
		if err != nil {
			d.out.Info("[Error: %s] Retrying...", err)
			return models.DeploymentRecord{}, err
		}
		return models.DeploymentRecord{Address: addr, TxHash: txHash}, nil
	})
	if err != nil {
		return contract.Handle{}, d.exhausted(ctx, entry.Name, attempts, err)
	}
	if err := d.store.Put(entry.Name, rec); err != nil {
		return contract.Handle{}, err
	}
	d.out.GreenCheckmarkToUser("%s deployed at %s", entry.Name, rec.Address.Hex())
	d.resolveImplementation(ctx, entry.Name, rec.Address)
	return contract.NewHandle(entry, rec.Address, d.tx), nil
}

func (d *Deployer) exhausted(ctx context.Context, name string, attempts int, err error) error {
	if ctx.Err() != nil {
		return err
	}
	return &ExhaustedError{Contract: name, Attempts: attempts, Err: err}
}

// resolveImplementation records the implementation behind a proxy. Failures are only logged,
// the proxy record stays valid without it.
func (d *Deployer) resolveImplementation(ctx context.Context, name string, proxy common.Address) {
	impl, err := retry.Do(ctx, retry.ImplResolvePolicy(d.retry), d.log, "implementation of "+name, func() (common.Address, error) {
		return contract.ImplementationAddress(ctx, d.tx.Backend, proxy)
	})
	if err != nil {
		d.log.Warn("unable to find implementation address", zap.String("contract", name), zap.Error(err))
		d.out.WarningToUser("Unable to find implAddress for %s", name)
		return
	}
	if err := d.store.SetImplementation(name, impl); err != nil {
		d.log.Warn("unable to record implementation address", zap.String("contract", name), zap.Error(err))
		return
	}
	d.out.Info("(ImplAddress: %s)", impl.Hex())
}

// Attach binds an existing deployment that has no record, such as a pre existing debt token
func (d *Deployer) Attach(entry contract.Entry, address common.Address) contract.Handle {
	d.out.Info("Using existing %s from %s", entry.Name, address.Hex())
	return contract.NewHandle(entry, address, d.tx)
}

// Load binds a contract from the deployment state only
func (d *Deployer) Load(entry contract.Entry) (contract.Handle, error) {
	rec, ok := d.store.Get(entry.Name)
	if !ok || !rec.Deployed() {
		return contract.Handle{}, fmt.Errorf("%w: %s has no record in %s", constants.ErrNotDeployed, entry.Name, d.store.Path())
	}
	return contract.NewHandle(entry, rec.Address, d.tx), nil
}

// IsExhausted tells whether err comes from a deployment that ran out of attempts
func IsExhausted(err error) bool {
	return errors.Is(err, constants.ErrDeploymentExhausted)
}
