// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package statecmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/lendr-finance/lendr-deployer/internal/testutils"
	"github.com/lendr-finance/lendr-deployer/pkg/application"
	"github.com/lendr-finance/lendr-deployer/pkg/config"
	"github.com/lendr-finance/lendr-deployer/pkg/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var activePool, activeImpl, lndrToken common.Address

func setupApp(t *testing.T) {
	addrs, err := testutils.GenerateEthAddrs(3)
	require.NoError(t, err)
	activePool, activeImpl, lndrToken = addrs[0], addrs[1], addrs[2]

	app = testutils.SetupTestApp(t, application.ProjectDirs{Networks: "networks"})
	testutils.WriteProfile(t, app, "sepolia", `
rpcUrl: https://rpc.sepolia.org
systemParamsAdmin: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
treasuryWallet: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
debtToken:
  name: Lendr USD
  symbol: LUSD
`)

	impl := activeImpl
	require.NoError(t, app.StateStore("deployments/sepolia.json").Put("ActivePool", models.DeploymentRecord{
		Address:      activePool,
		ImplAddress:  &impl,
		Verification: "https://sepolia.etherscan.io/address/" + activePool.Hex() + "#code",
	}))
	require.NoError(t, app.StateStore("deployments/sepolia-lndr.json").Put("LNDRToken", models.DeploymentRecord{Address: lndrToken}))
}

func TestShowTable(t *testing.T) {
	require := require.New(t)
	setupApp(t)
	format, withNames = formatTable, false
	app.RecordRun("deploy core", "sepolia", false)
	app.RecordRun("deploy lndr", "mainnet", true)

	out := &bytes.Buffer{}
	require.NoError(show(out, "sepolia"))
	require.Contains(out.String(), activePool.Hex())
	require.Contains(out.String(), activeImpl.Hex())
	require.Contains(out.String(), lndrToken.Hex())
	require.Contains(out.String(), "Last deploy core:")
	require.NotContains(out.String(), "Last deploy lndr:")
}

func TestShowJSON(t *testing.T) {
	require := require.New(t)
	setupApp(t)
	format, withNames = formatJSON, false

	out := &bytes.Buffer{}
	require.NoError(show(out, "sepolia"))
	rows := []ContractRow{}
	require.NoError(json.Unmarshal(out.Bytes(), &rows))
	require.Len(rows, 2)
	require.Equal("ActivePool", rows[0].Name)
	require.Equal("deployments/sepolia.json", rows[0].File)
	require.Equal(activeImpl.Hex(), rows[0].Impl)
	require.NotEmpty(rows[0].Verified)
	require.Equal("LNDRToken", rows[1].Name)
	require.Empty(rows[1].Impl)
}

func TestShowYAML(t *testing.T) {
	require := require.New(t)
	setupApp(t)
	format, withNames = formatYAML, false

	out := &bytes.Buffer{}
	require.NoError(show(out, "sepolia"))
	rows := []ContractRow{}
	require.NoError(yaml.Unmarshal(out.Bytes(), &rows))
	require.Len(rows, 2)
	require.Equal(lndrToken.Hex(), rows[1].Address)
}

func TestShowErrors(t *testing.T) {
	setupApp(t)
	format = "xml"
	require.ErrorContains(t, show(&bytes.Buffer{}, "sepolia"), "unsupported format")
	format = formatTable
	require.ErrorIs(t, show(&bytes.Buffer{}, "mainnet"), config.ErrProfileNotFound)
}

func TestCollectRowsWithNames(t *testing.T) {
	require := require.New(t)
	setupApp(t)
	profile, err := app.LoadProfile("sepolia")
	require.NoError(err)

	names := func(_ context.Context, name string, _ common.Address) string {
		return "Lendr " + name
	}
	rows, err := collectRows(context.Background(), profile, names)
	require.NoError(err)
	require.Equal("Lendr ActivePool", rows[0].DisplayName)

	out := &bytes.Buffer{}
	require.NoError(render(out, formatTable, rows))
	require.Contains(out.String(), "ActivePool (Lendr ActivePool)")
}
