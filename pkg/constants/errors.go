// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package constants

import "errors"

var (
	ErrMissingPrivateKey   = errors.New("provide a value for " + DeployerPrivateKeyEnvVar + " in your .env file")
	ErrDeploymentExhausted = errors.New("deployment exhausted")
	ErrNotDeployed         = errors.New("contract is not deployed")
	ErrArtifactNotFound    = errors.New("contract artifact not found")
	ErrNoExplorer          = errors.New("no explorer configured")
	ErrTxReverted          = errors.New("transaction reverted")
	ErrInvalidProfile      = errors.New("invalid network profile")
)
