// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/lendr-finance/lendr-deployer/pkg/evm"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3"
)

var ErrEmptyReturn = errors.New("call returned no data")

// Handle binds a deployed contract to the transactor of the run
type Handle struct {
	Name    string
	Address common.Address
	Entry   Entry
	tx      *evm.Transactor
}

func NewHandle(entry Entry, address common.Address, tx *evm.Transactor) Handle {
	return Handle{
		Name:    entry.Name,
		Address: address,
		Entry:   entry,
		tx:      tx,
	}
}

func (h Handle) Capability() Capability {
	return h.Entry.Capability
}

// Call runs a read only call of fn and decodes its return values into returns
func (h Handle) Call(ctx context.Context, fn *w3.Func, returns []any, args ...any) error {
	data, err := fn.EncodeArgs(args...)
	if err != nil {
		return fmt.Errorf("failure encoding %s.%s: %w", h.Name, fn.Signature, err)
	}
	out, err := h.tx.Backend.Call(ctx, h.Address, data)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", h.Name, fn.Signature, err)
	}
	if len(out) == 0 {
		return fmt.Errorf("%s.%s: %w", h.Name, fn.Signature, ErrEmptyReturn)
	}
	if err := fn.DecodeReturns(out, returns...); err != nil {
		return fmt.Errorf("failure decoding %s.%s: %w", h.Name, fn.Signature, err)
	}
	return nil
}

// Send issues a transaction calling fn and waits for its confirmations
func (h Handle) Send(ctx context.Context, fn *w3.Func, args ...any) (*types.Receipt, error) {
	data, err := fn.EncodeArgs(args...)
	if err != nil {
		return nil, fmt.Errorf("failure encoding %s.%s: %w", h.Name, fn.Signature, err)
	}
	receipt, err := h.tx.Execute(ctx, h.Address, data)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", h.Name, fn.Signature, err)
	}
	return receipt, nil
}

// DisplayName returns the NAME() of the contract, "?" when it has none
func (h Handle) DisplayName(ctx context.Context) string {
	var name string
	if err := h.Call(ctx, FuncNAME, []any{&name}); err != nil || name == "" {
		return "?"
	}
	return name
}
