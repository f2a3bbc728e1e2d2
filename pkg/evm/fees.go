// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
)

// FeePolicy is fixed once per run and applied to every transaction of it.
// A zero GasLimit means the limit is estimated per transaction.
type FeePolicy struct {
	GasFeeCap *big.Int
	GasTipCap *big.Int
	GasLimit  uint64
}

type FeeSuggester interface {
	SuggestFees(ctx context.Context) (*big.Int, *big.Int, error)
}

// ResolveFeePolicy uses the caps of the network profile when present and asks the rpc
// otherwise. A profile tip without a fee cap only overrides the suggested tip.
func ResolveFeePolicy(ctx context.Context, suggester FeeSuggester, settings models.FeeSettings) (FeePolicy, error) {
	policy := FeePolicy{GasLimit: settings.GasLimit}
	if settings.MaxFeePerGas.IsSet() {
		policy.GasFeeCap = settings.MaxFeePerGas.Wei()
		if settings.MaxPriorityFeePerGas.IsSet() {
			policy.GasTipCap = settings.MaxPriorityFeePerGas.Wei()
		} else {
			policy.GasTipCap = big.NewInt(constants.DefaultMaxPriorityFeePerGas)
		}
	} else {
		gasFeeCap, gasTipCap, err := suggester.SuggestFees(ctx)
		if err != nil {
			return FeePolicy{}, err
		}
		policy.GasFeeCap = gasFeeCap
		policy.GasTipCap = gasTipCap
		if settings.MaxPriorityFeePerGas.IsSet() {
			policy.GasTipCap = settings.MaxPriorityFeePerGas.Wei()
		}
	}
	if policy.GasTipCap.Cmp(policy.GasFeeCap) > 0 {
		policy.GasTipCap = new(big.Int).Set(policy.GasFeeCap)
	}
	if policy.GasFeeCap.Sign() <= 0 {
		return FeePolicy{}, fmt.Errorf("invalid fee cap %s", policy.GasFeeCap)
	}
	return policy, nil
}

func (p FeePolicy) String() string {
	limit := "estimated"
	if p.GasLimit != 0 {
		limit = fmt.Sprintf("%d", p.GasLimit)
	}
	return fmt.Sprintf("maxFeePerGas=%s wei maxPriorityFeePerGas=%s wei gasLimit=%s", p.GasFeeCap, p.GasTipCap, limit)
}
