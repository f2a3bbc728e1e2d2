// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package testutils

import (
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	BuildInfoName   = "lendr.json"
	SolcLongVersion = "0.8.23+commit.f704f362"

	zeroArgInitializer = `{"type":"function","name":"initialize","inputs":[],"outputs":[],"stateMutability":"nonpayable"}`
	addressInitializer = `{"type":"function","name":"initialize","inputs":[{"name":"_address","type":"address","internalType":"address"}],"outputs":[],"stateMutability":"nonpayable"}`
)

// ArtifactSpec describes a compiled contract written by WriteArtifacts
type ArtifactSpec struct {
	Name       string
	SourceName string
	ABI        []string
}

func constructor(types ...string) string {
	inputs := make([]string, 0, len(types))
	for i, t := range types {
		inputs = append(inputs, `{"name":"arg`+string(rune('0'+i))+`","type":"`+t+`","internalType":"`+t+`"}`)
	}
	return `{"type":"constructor","inputs":[` + strings.Join(inputs, ",") + `],"stateMutability":"nonpayable"}`
}

// LendrArtifacts are the contracts of the core, the LNDR family and the price aggregators
func LendrArtifacts() []ArtifactSpec {
	specs := []ArtifactSpec{}
	for _, name := range []string{
		"ActivePool", "AdminContract", "BorrowerOperations", "CollSurplusPool", "DefaultPool",
		"FeeCollector", "SortedVessels", "VesselManager", "VesselManagerOperations", "LNDRStaking",
	} {
		specs = append(specs, ArtifactSpec{Name: name, ABI: []string{zeroArgInitializer}})
	}
	return append(specs,
		ArtifactSpec{Name: "StakedDebtToken", ABI: []string{addressInitializer}},
		ArtifactSpec{Name: "CommunityIssuance", ABI: []string{addressInitializer}},
		ArtifactSpec{Name: "GasPool"},
		ArtifactSpec{Name: "PriceFeedTestnet", SourceName: "contracts/TestContracts/PriceFeedTestnet.sol"},
		ArtifactSpec{Name: "PriceFeed"},
		ArtifactSpec{Name: "Timelock", ABI: []string{constructor("uint256", "address")}},
		ArtifactSpec{Name: "TimelockTester", SourceName: "contracts/TestContracts/TimelockTester.sol", ABI: []string{constructor("uint256", "address")}},
		ArtifactSpec{Name: "DebtToken", ABI: []string{constructor("string", "string")}},
		ArtifactSpec{Name: "LNDRToken", ABI: []string{constructor("address", "address")}},
		ArtifactSpec{Name: "FixedPriceAggregator", ABI: []string{constructor("int256")}},
		ArtifactSpec{Name: "WstEth2UsdPriceAggregator", ABI: []string{constructor("address", "address")}},
		ArtifactSpec{
			Name:       "ERC1967Proxy",
			SourceName: "@openzeppelin/contracts/proxy/ERC1967/ERC1967Proxy.sol",
			ABI:        []string{constructor("address", "bytes")},
		},
	)
}

// WriteArtifacts lays out hardhat artifacts, debug files and one build info under root.
// The bytecode of each artifact is the creation code FakeChain recognizes.
func WriteArtifacts(fs afero.Fs, root string, specs ...ArtifactSpec) error {
	buildInfoDir := filepath.Join(root, "build-info")
	if err := fs.MkdirAll(buildInfoDir, 0o755); err != nil {
		return err
	}
	buildInfo := map[string]any{
		"_format":         "hh-sol-build-info-1",
		"solcVersion":     strings.Split(SolcLongVersion, "+")[0],
		"solcLongVersion": SolcLongVersion,
		"input": map[string]any{
			"language": "Solidity",
			"sources":  map[string]any{},
			"settings": map[string]any{"optimizer": map[string]any{"enabled": true, "runs": 200}},
		},
	}
	if err := writeJSON(fs, filepath.Join(buildInfoDir, BuildInfoName), buildInfo); err != nil {
		return err
	}
	for _, spec := range specs {
		source := spec.SourceName
		if source == "" {
			source = "contracts/" + spec.Name + ".sol"
		}
		dir := filepath.Join(root, filepath.FromSlash(source))
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		rawABI := json.RawMessage("[" + strings.Join(spec.ABI, ",") + "]")
		code := "0x" + hex.EncodeToString(CreationCode(spec.Name))
		artifact := map[string]any{
			"_format":          "hh-sol-artifact-1",
			"contractName":     spec.Name,
			"sourceName":       source,
			"abi":              rawABI,
			"bytecode":         code,
			"deployedBytecode": code,
			"linkReferences":   map[string]any{},
		}
		if err := writeJSON(fs, filepath.Join(dir, spec.Name+".json"), artifact); err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, filepath.Join(buildInfoDir, BuildInfoName))
		if err != nil {
			return err
		}
		dbg := map[string]any{"_format": "hh-sol-dbg-1", "buildInfo": filepath.ToSlash(rel)}
		if err := writeJSON(fs, filepath.Join(dir, spec.Name+".dbg.json"), dbg); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(fs afero.Fs, path string, v any) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, bs, 0o644)
}
