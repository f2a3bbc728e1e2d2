// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package retry runs operations under a bounded, fixed-delay retry policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lendr-finance/lendr-deployer/pkg/models"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var ErrExhausted = errors.New("retry attempts exhausted")

// Policy bounds the number of attempts of an operation. Jitter, when set, randomizes each
// delay by up to that amount in both directions.
type Policy struct {
	Attempts int
	Delay    time.Duration
	Jitter   time.Duration
}

// DeployPolicy is the policy used for contract creations
func DeployPolicy(s models.RetrySettings) Policy {
	return Policy{Attempts: s.DeployAttempts, Delay: s.Delay, Jitter: s.Jitter}
}

// ImplResolvePolicy is the policy used to read the ERC1967 implementation slot
func ImplResolvePolicy(s models.RetrySettings) Policy {
	return Policy{Attempts: s.ImplResolveAttempts, Delay: s.ImplResolveDelay, Jitter: s.Jitter}
}

func (p Policy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Delay
	b.MaxInterval = p.Delay
	b.Multiplier = 1
	b.RandomizationFactor = 0
	if p.Jitter > 0 && p.Delay > 0 {
		b.RandomizationFactor = min(float64(p.Jitter)/float64(p.Delay), 1)
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.attempts()-1)), ctx)
}

// Permanent marks err as not worth another attempt
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls fn until it succeeds, returns a permanent error or the policy runs out of attempts.
// The final error wraps ErrExhausted and the last error returned by fn.
func Do[T any](ctx context.Context, p Policy, log logging.Logger, name string, fn func() (T, error)) (T, error) {
	attempt := 0
	permanentErr := false
	op := func() (T, error) {
		attempt++
		result, err := fn()
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			permanentErr = true
		}
		return result, err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("attempt failed, retrying",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", p.attempts()),
			zap.Duration("retryIn", wait),
			zap.Error(err),
		)
	}
	result, err := backoff.RetryNotifyWithData(op, p.backOff(ctx), notify)
	if err == nil {
		return result, nil
	}
	if permanentErr {
		return result, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("%s interrupted: %w", name, ctxErr)
	}
	return result, fmt.Errorf("%s: %w after %d attempts: %w", name, ErrExhausted, attempt, err)
}
