// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package evm

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"

	"github.com/ethereum/go-ethereum/crypto"
)

// LoadPrivateKey returns [privateKeyHex] parsed, falling back to the deployer key of the
// environment. A missing key is fatal for a run.
func LoadPrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	if privateKeyHex == "" {
		privateKeyHex = os.Getenv(constants.DeployerPrivateKeyEnvVar)
	}
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if privateKeyHex == "" {
		return nil, constants.ErrMissingPrivateKey
	}
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid deployer private key: %w", err)
	}
	return key, nil
}
