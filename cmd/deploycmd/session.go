// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package deploycmd

import (
	"context"
	"fmt"
	"os"

	"github.com/lendr-finance/lendr-deployer/cmd/flags"
	"github.com/lendr-finance/lendr-deployer/pkg/application"
	"github.com/lendr-finance/lendr-deployer/pkg/evm"
	"github.com/lendr-finance/lendr-deployer/pkg/metrics"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/runner"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"
	"github.com/lendr-finance/lendr-deployer/pkg/verify"

	"go.uber.org/zap"
)

// Session is a connection to the network of a profile, with the deployer key bound
type Session struct {
	Profile  models.NetworkProfile
	Client   *evm.Client
	Explorer verify.Backend
	Metrics  *metrics.RunMetrics
	spinner  *ux.UserSpinner
	app      *application.Lendr
}

// Connect loads the profile of network and dials its rpc
func Connect(ctx context.Context, app *application.Lendr, network string) (*Session, error) {
	profile, err := app.LoadProfile(network)
	if err != nil {
		return nil, err
	}
	key, err := evm.LoadPrivateKey("")
	if err != nil {
		return nil, err
	}
	client, err := evm.GetClient(ctx, profile.RPCURL, key, app.Log)
	if err != nil {
		return nil, err
	}
	spinner := ux.NewUserSpinner(ux.Logger)
	client.WithSpinner(spinner)
	s := &Session{
		Profile: profile,
		Client:  client,
		Metrics: metrics.NewRunMetrics(profile.Name),
		spinner: spinner,
		app:     app,
	}
	if profile.ExplorerAPIURL != "" {
		apiKey := ""
		if profile.ExplorerAPIKeyEnv != "" {
			apiKey = os.Getenv(profile.ExplorerAPIKeyEnv)
			if apiKey == "" {
				ux.Logger.WarningToUser("%s is not set, explorer requests may be rejected", profile.ExplorerAPIKeyEnv)
			}
		}
		s.Explorer = verify.NewEtherscanBackend(profile.ExplorerAPIURL, apiKey, profile.ChainID, app.Log)
	}
	ux.Logger.PrintToUser("Network: %s (%s)", profile.Name, client.URL)
	ux.Logger.PrintToUser("Deployer: %s", client.Sender().Hex())
	return s, nil
}

func (s *Session) Dependencies() runner.Dependencies {
	return runner.Dependencies{
		Backend:      s.Client,
		Fs:           s.app.Fs,
		ArtifactsDir: s.app.GetArtifactsDir(),
		Explorer:     s.Explorer,
		Log:          s.app.Log,
		Out:          ux.Logger,
		Metrics:      s.Metrics,
	}
}

// RunContext builds the context of a run recording into statePath
func (s *Session) RunContext(ctx context.Context, statePath string, opts runner.Options) (*runner.RunContext, error) {
	return runner.NewRunContext(ctx, s.Profile, statePath, s.Dependencies(), opts)
}

// Finish exports the run metrics where the flags ask for them and releases the connection
func (s *Session) Finish(ctx context.Context, rf flags.RunFlags) {
	s.spinner.Stop()
	s.Client.Close()
	if err := s.Metrics.WriteTextfile(rf.MetricsTextfile); err != nil {
		s.app.Log.Warn("failed writing run metrics", zap.String("path", rf.MetricsTextfile), zap.Error(err))
		ux.Logger.WarningToUser("unable to write metrics to %s: %s", rf.MetricsTextfile, err)
	}
	if err := s.Metrics.Push(ctx, rf.MetricsPush); err != nil {
		s.app.Log.Warn("failed pushing run metrics", zap.String("gateway", rf.MetricsPush), zap.Error(err))
		ux.Logger.WarningToUser("unable to push metrics to %s: %s", rf.MetricsPush, err)
	}
}

// summarize turns the results of a run into the error of the command
func summarize(results *models.StepResults, err error) error {
	if err != nil {
		return err
	}
	if n := results.Count(models.Recovered); n > 0 {
		ux.Logger.WarningToUser("%d step(s) failed and were skipped, run again to retry them", n)
	}
	if results.HasFatal() {
		return fmt.Errorf("run aborted: %w", results.Err())
	}
	return nil
}
