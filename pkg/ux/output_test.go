// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package ux

import (
	"bytes"
	"errors"
	"testing"

	"github.com/lendr-finance/lendr-deployer/pkg/models"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"
)

func TestUserLogPrints(t *testing.T) {
	var buf bytes.Buffer
	ul := New(logging.NoLog{}, &buf)
	ul.PrintToUser("deploying %s", "ActivePool")
	ul.GreenCheckmarkToUser("done")
	ul.WarningToUser("DebtToken.addWhitelist() failed")
	out := buf.String()
	require.Contains(t, out, "deploying ActivePool\n")
	require.Contains(t, out, "done")
	require.Contains(t, out, "DebtToken.addWhitelist() failed")
}

func TestNilUserLogIsSafe(t *testing.T) {
	var ul *UserLog
	require.NotPanics(t, func() {
		ul.Info("x")
		ul.Error("y")
	})
}

func TestStepResultsTable(t *testing.T) {
	results := &models.StepResults{}
	results.AddDone("deploy", "ActivePool")
	results.AddRecovered("wire", "DebtToken", errors.New("execution reverted"))
	out := StepResultsTable("summary", results).Render()
	require.Contains(t, out, "ActivePool")
	require.Contains(t, out, "execution reverted")
	require.Contains(t, out, "SUMMARY")
}

func TestConvertToStringWithThousandSeparator(t *testing.T) {
	require.Equal(t, "1_500_000", ConvertToStringWithThousandSeparator(1_500_000))
}
