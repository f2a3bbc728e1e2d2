// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package metrics

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os/user"
	"runtime"
	"strings"

	"github.com/lendr-finance/lendr-deployer/pkg/application"
	"github.com/lendr-finance/lendr-deployer/pkg/utils"

	"github.com/posthog/posthog-go"
	"github.com/spf13/cobra"
)

// telemetryToken value is set at build time using ldflags
var (
	telemetryToken    = ""
	telemetryInstance = "https://app.posthog.com"
)

// Version is set at build time using ldflags
var Version = "dev"

func HandleTracking(cmd *cobra.Command, app *application.Lendr, flags map[string]string) {
	if !app.MetricsEnabled() {
		return
	}
	if !cmd.HasSubCommands() && CheckCommandIsNotCompletion(cmd) {
		TrackMetrics(cmd.CommandPath(), flags)
	}
}

func CheckCommandIsNotCompletion(cmd *cobra.Command) bool {
	result := strings.Fields(cmd.CommandPath())
	if len(result) >= 2 && result[1] == "completion" {
		return false
	}
	return true
}

// TrackingProperties builds the event properties of a command. Only flag names and
// the network are sent, never addresses or keys.
func TrackingProperties(commandPath string, flags map[string]string) map[string]interface{} {
	properties := map[string]interface{}{
		"command": commandPath,
		"version": Version,
		"os":      runtime.GOOS,
	}
	for k, v := range flags {
		properties[k] = v
	}
	return properties
}

func TrackMetrics(commandPath string, flags map[string]string) {
	if telemetryToken == "" || utils.IsE2E() {
		return
	}
	client, err := posthog.NewWithConfig(telemetryToken, posthog.Config{Endpoint: telemetryInstance})
	if err != nil {
		return
	}
	defer client.Close()

	userID := ""
	if usr, err := user.Current(); err == nil {
		hash := sha256.Sum256([]byte(fmt.Sprintf("%s%s", usr.Username, usr.Uid)))
		userID = base64.StdEncoding.EncodeToString(hash[:])
	}
	_ = client.Enqueue(posthog.Capture{
		DistinctId: userID,
		Event:      "deployer-command",
		Properties: TrackingProperties(commandPath, flags),
	})
}
