// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ImplementationSlot is the ERC1967 storage slot holding the implementation address,
// bytes32(uint256(keccak256("eip1967.proxy.implementation")) - 1)
var ImplementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076c3732a8b1e1b2b4d2ed4a1f4")

var ErrNoImplementation = errors.New("proxy has no implementation set")

type StorageReader interface {
	StorageAt(ctx context.Context, address common.Address, slot common.Hash) (common.Hash, error)
}

// ImplementationAddress reads the implementation behind an ERC1967 proxy
func ImplementationAddress(ctx context.Context, reader StorageReader, proxy common.Address) (common.Address, error) {
	value, err := reader.StorageAt(ctx, proxy, ImplementationSlot)
	if err != nil {
		return common.Address{}, fmt.Errorf("failure reading implementation slot of %s: %w", proxy.Hex(), err)
	}
	impl := common.BytesToAddress(value.Bytes())
	if impl == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s", ErrNoImplementation, proxy.Hex())
	}
	return impl, nil
}
