// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package utils

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	EtherDecimals = 18
	GweiDecimals  = 9
)

var (
	errInvalidDecimal   = errors.New("invalid decimal amount")
	errTooManyDecimals  = errors.New("amount has more fractional digits than the denomination allows")
	errNegativeQuantity = errors.New("amount must not be negative")
)

// Convert an integer amount of the given denomination to base units
// (i.e. An amount of 54 with a decimals value of 3 results in 54000)
func ApplyDenomination(amount uint64, decimals uint8) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(amount), pow10(decimals))
}

// ParseUnits converts a decimal string of the given denomination into base units
// (i.e. "1.25" with 18 decimals results in 1250000000000000000). Underscores are allowed
// as digit separators.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	s := strings.ReplaceAll(strings.TrimSpace(amount), "_", "")
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", errInvalidDecimal)
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: %s", errNegativeQuantity, amount)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errInvalidDecimal, amount)
	}
	r.Mul(r, new(big.Rat).SetInt(pow10(decimals)))
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: %s", errTooManyDecimals, amount)
	}
	return new(big.Int).Set(r.Num()), nil
}

func ParseEther(amount string) (*big.Int, error) {
	return ParseUnits(amount, EtherDecimals)
}

func ParseGwei(amount string) (*big.Int, error) {
	return ParseUnits(amount, GweiDecimals)
}

// FormatUnits formats an amount of base units in the given denomination, trimming
// trailing zeros (i.e. 54321 with 3 decimals results in "54.321")
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)
	q, r := new(big.Int).QuoRem(abs, pow10(decimals), new(big.Int))
	out := q.String()
	if r.Sign() != 0 {
		frac := r.String()
		frac = strings.Repeat("0", int(decimals)-len(frac)) + frac
		out += "." + strings.TrimRight(frac, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}

func FormatEther(amount *big.Int) string {
	return FormatUnits(amount, EtherDecimals)
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}
