// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package statecmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/lendr-finance/lendr-deployer/cmd/flags"
	"github.com/lendr-finance/lendr-deployer/pkg/cobrautils"
	"github.com/lendr-finance/lendr-deployer/pkg/contract"
	"github.com/lendr-finance/lendr-deployer/pkg/evm"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	format    string
	withNames bool
)

// ContractRow is one recorded contract as listed by state show
type ContractRow struct {
	File        string `json:"file" yaml:"file"`
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Address     string `json:"address" yaml:"address"`
	Impl        string `json:"implementation,omitempty" yaml:"implementation,omitempty"`
	Verified    string `json:"verification,omitempty" yaml:"verification,omitempty"`
}

// nameReader returns the display name of the contract deployed at address
type nameReader func(ctx context.Context, name string, address common.Address) string

func newShowCmd() *cobra.Command {
	nf := flags.NetworkFlags{}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the contracts recorded for a network",
		Long: `Lists the core and LNDR contracts recorded for the network. With --names the NAME()
of every contract is read from the chain.`,
		Args: cobrautils.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return show(cmd.OutOrStdout(), nf.Network)
		},
	}
	flags.AddNetworkFlagsToCmd(cmd, &nf)
	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table, json or yaml")
	cmd.Flags().BoolVar(&withNames, "names", false, "read the NAME() of each contract from the network")
	return cmd
}

func show(w io.Writer, network string) error {
	if format != formatTable && format != formatJSON && format != formatYAML {
		return fmt.Errorf("unsupported format %q", format)
	}
	profile, err := app.LoadProfile(network)
	if err != nil {
		return err
	}
	var names nameReader
	if withNames {
		client, err := dialReadOnly(profile)
		if err != nil {
			return err
		}
		defer client.Close()
		names = handleNames(client)
	}
	rows, err := collectRows(context.Background(), profile, names)
	if err != nil {
		return err
	}
	if err := render(w, format, rows); err != nil {
		return err
	}
	if format == formatTable {
		printLastRuns(w, profile.Name)
	}
	return nil
}

// dialReadOnly connects with a throwaway key, state show never signs
func dialReadOnly(profile models.NetworkProfile) (*evm.Client, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return evm.GetClient(context.Background(), profile.RPCURL, key, app.Log)
}

func handleNames(backend evm.Backend) nameReader {
	tx := evm.NewTransactor(backend, evm.FeePolicy{}, 0, app.Log, nil)
	return func(ctx context.Context, name string, address common.Address) string {
		return contract.NewHandle(contract.Entry{Name: name}, address, tx).DisplayName(ctx)
	}
}

func collectRows(ctx context.Context, profile models.NetworkProfile, names nameReader) ([]ContractRow, error) {
	rows := []ContractRow{}
	for _, path := range []string{profile.OutputFile, profile.Lndr.OutputFile} {
		st, err := app.StateStore(path).Load()
		if err != nil {
			return nil, err
		}
		for _, name := range st.Names() {
			rec := st[name]
			row := ContractRow{
				File:     path,
				Name:     name,
				Verified: rec.Verification,
			}
			if rec.Deployed() {
				row.Address = rec.Address.Hex()
			}
			if rec.ImplAddress != nil {
				row.Impl = rec.ImplAddress.Hex()
			}
			if names != nil && rec.Deployed() {
				row.DisplayName = names(ctx, name, rec.Address)
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func render(w io.Writer, format string, rows []ContractRow) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(rows)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No contracts recorded")
		return err
	}
	t := ux.DefaultTable("Deployed contracts", table.Row{"Name", "Address", "Implementation", "Verified", "File"})
	hasNames := false
	for _, r := range rows {
		if r.DisplayName != "" {
			hasNames = true
		}
	}
	for _, r := range rows {
		name := r.Name
		if hasNames {
			name = fmt.Sprintf("%s (%s)", r.Name, r.DisplayName)
		}
		verified := "no"
		if r.Verified != "" {
			verified = "yes"
		}
		t.AppendRow(table.Row{name, r.Address, r.Impl, verified, r.File})
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printLastRuns(w io.Writer, network string) {
	acts, err := app.ReadLastActionsFile()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			app.Log.Warn(fmt.Sprintf("unable to read last runs: %s", err))
		}
		return
	}
	for _, command := range slices.Sorted(maps.Keys(acts.Runs)) {
		run := acts.Runs[command]
		if run.Network != network {
			continue
		}
		status := "ok"
		if run.Failed {
			status = "failed"
		}
		fmt.Fprintf(w, "Last %s: %s (%s)\n", command, run.At.Format(time.RFC3339), status)
	}
}
