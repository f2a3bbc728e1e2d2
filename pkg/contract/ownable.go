// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
)

var (
	FuncOwner             = w3.MustNewFunc("owner()", "address")
	FuncTransferOwnership = w3.MustNewFunc("transferOwnership(address newOwner)", "")
)

// Owner gets owner for https://docs.openzeppelin.com/contracts/2.x/api/ownership#Ownable-owner contracts
func (h Handle) Owner(ctx context.Context) (common.Address, error) {
	var owner common.Address
	if err := h.Call(ctx, FuncOwner, []any{&owner}); err != nil {
		return common.Address{}, err
	}
	return owner, nil
}

func (h Handle) TransferOwnership(ctx context.Context, newOwner common.Address) error {
	_, err := h.Send(ctx, FuncTransferOwnership, newOwner)
	return err
}
