// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package ux

import (
	"github.com/lendr-finance/lendr-deployer/pkg/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func DefaultTable(title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.Style().Title.Align = text.AlignCenter
	t.Style().Title.Format = text.FormatUpper
	t.Style().Options.SeparateRows = true
	t.SetTitle(title)
	if header != nil {
		t.AppendHeader(header)
	}
	return t
}

// StepResultsTable summarizes the outcome of every step of a run
func StepResultsTable(title string, results *models.StepResults) table.Writer {
	t := DefaultTable(title, table.Row{"Step", "Contract", "Outcome", "Error"})
	for _, r := range results.GetResults() {
		errMsg := ""
		if r.Err != nil {
			errMsg = r.Err.Error()
		}
		t.AppendRow(table.Row{r.Step, r.Contract, outcomeColor(r.Outcome).Sprint(r.Outcome.String()), errMsg})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 80},
	})
	return t
}

func outcomeColor(o models.Outcome) text.Colors {
	switch o {
	case models.Done:
		return text.Colors{text.FgHiGreen}
	case models.Recovered:
		return text.Colors{text.FgHiYellow}
	case models.Fatal:
		return text.Colors{text.FgHiRed}
	}
	return text.Colors{text.Faint}
}
