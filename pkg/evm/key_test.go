// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package evm

import (
	"testing"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestLoadPrivateKey(t *testing.T) {
	t.Setenv(constants.DeployerPrivateKeyEnvVar, "")
	_, err := LoadPrivateKey("")
	require.ErrorIs(t, err, constants.ErrMissingPrivateKey)

	t.Setenv(constants.DeployerPrivateKeyEnvVar, "0x"+testKeyHex)
	key, err := LoadPrivateKey("")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(testAddress), crypto.PubkeyToAddress(key.PublicKey))

	_, err = LoadPrivateKey("not-a-key")
	require.Error(t, err)
	require.NotErrorIs(t, err, constants.ErrMissingPrivateKey)
}
