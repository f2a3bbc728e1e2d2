// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package evm

import (
	"context"
	"math/big"
	"testing"

	"github.com/lendr-finance/lendr-deployer/pkg/models"

	"github.com/stretchr/testify/require"
)

type staticSuggester struct {
	gasFeeCap *big.Int
	gasTipCap *big.Int
	calls     int
}

func (s *staticSuggester) SuggestFees(context.Context) (*big.Int, *big.Int, error) {
	s.calls++
	return s.gasFeeCap, s.gasTipCap, nil
}

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func TestResolveFeePolicy(t *testing.T) {
	tests := []struct {
		name      string
		settings  models.FeeSettings
		wantCap   *big.Int
		wantTip   *big.Int
		wantLimit uint64
		wantCalls int
	}{
		{
			name:      "suggested",
			wantCap:   gwei(40),
			wantTip:   gwei(2),
			wantCalls: 1,
		},
		{
			name: "profile caps",
			settings: models.FeeSettings{
				MaxFeePerGas:         models.GweiAmount{Int: gwei(100)},
				MaxPriorityFeePerGas: models.GweiAmount{Int: gwei(3)},
				GasLimit:             5_000_000,
			},
			wantCap:   gwei(100),
			wantTip:   gwei(3),
			wantLimit: 5_000_000,
		},
		{
			name:      "profile tip only",
			settings:  models.FeeSettings{MaxPriorityFeePerGas: models.GweiAmount{Int: gwei(5)}},
			wantCap:   gwei(40),
			wantTip:   gwei(5),
			wantCalls: 1,
		},
		{
			name: "tip clamped to cap",
			settings: models.FeeSettings{
				MaxFeePerGas:         models.GweiAmount{Int: gwei(1)},
				MaxPriorityFeePerGas: models.GweiAmount{Int: gwei(3)},
			},
			wantCap: gwei(1),
			wantTip: gwei(1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			suggester := &staticSuggester{gasFeeCap: gwei(40), gasTipCap: gwei(2)}
			policy, err := ResolveFeePolicy(context.Background(), suggester, tt.settings)
			require.NoError(t, err)
			require.Zero(t, tt.wantCap.Cmp(policy.GasFeeCap))
			require.Zero(t, tt.wantTip.Cmp(policy.GasTipCap))
			require.Equal(t, tt.wantLimit, policy.GasLimit)
			require.Equal(t, tt.wantCalls, suggester.calls)
		})
	}
}

func TestResolveFeePolicyRejectsZeroCap(t *testing.T) {
	suggester := &staticSuggester{gasFeeCap: big.NewInt(0), gasTipCap: big.NewInt(0)}
	_, err := ResolveFeePolicy(context.Background(), suggester, models.FeeSettings{})
	require.Error(t, err)
}
