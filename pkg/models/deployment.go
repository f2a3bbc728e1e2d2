// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DeploymentRecord is the persisted memory of one deployed contract.
// For proxied contracts Address is the proxy and ImplAddress the implementation behind it.
type DeploymentRecord struct {
	Address      common.Address  `json:"address"`
	TxHash       common.Hash     `json:"txHash"`
	ImplAddress  *common.Address `json:"implAddress,omitempty"`
	Verification string          `json:"verification,omitempty"`
}

// UnmarshalJSON accepts hand edited records. Empty strings are read as absent values
// instead of failing the whole file.
func (r *DeploymentRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Address      string `json:"address"`
		TxHash       string `json:"txHash"`
		ImplAddress  string `json:"implAddress"`
		Verification string `json:"verification"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rec := DeploymentRecord{Verification: strings.TrimSpace(raw.Verification)}
	if v := strings.TrimSpace(raw.Address); v != "" {
		if err := rec.Address.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("address %q: %w", v, err)
		}
	}
	if v := strings.TrimSpace(raw.TxHash); v != "" {
		if err := rec.TxHash.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("txHash %q: %w", v, err)
		}
	}
	if v := strings.TrimSpace(raw.ImplAddress); v != "" {
		impl := common.Address{}
		if err := impl.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("implAddress %q: %w", v, err)
		}
		rec.ImplAddress = &impl
	}
	*r = rec
	return nil
}

// Deployed tells whether the record points at a contract. A record whose address was
// cleared stands for a contract to deploy again.
func (r DeploymentRecord) Deployed() bool {
	return r.Address != (common.Address{})
}

func (r DeploymentRecord) Verified() bool {
	return r.Verification != ""
}

// VerificationTarget is the address whose source the explorer should match
func (r DeploymentRecord) VerificationTarget() common.Address {
	if r.ImplAddress != nil {
		return *r.ImplAddress
	}
	return r.Address
}

// DeploymentState maps contract names to their records
type DeploymentState map[string]DeploymentRecord

// Names returns the recorded contract names in lexical order
func (s DeploymentState) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
