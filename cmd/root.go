// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/lendr-finance/lendr-deployer/cmd/configcmd"
	"github.com/lendr-finance/lendr-deployer/cmd/deploycmd"
	"github.com/lendr-finance/lendr-deployer/cmd/statecmd"
	"github.com/lendr-finance/lendr-deployer/cmd/verifycmd"
	"github.com/lendr-finance/lendr-deployer/pkg/application"
	"github.com/lendr-finance/lendr-deployer/pkg/cobrautils"
	"github.com/lendr-finance/lendr-deployer/pkg/config"
	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/metrics"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	app *application.Lendr

	logLevel     string
	networksDir  string
	artifactsDir string
	envFile      string
)

func NewRootCmd() *cobra.Command {
	// rootCmd represents the base command when called without any subcommands
	rootCmd := &cobra.Command{
		Use: "lendr",
		Long: `Lendr deployer deploys the Lendr core contracts to an EVM network, wires them
together and registers the collaterals of the network profile.

Runs are resumable: every confirmed deployment is recorded in the state file of the
network and reused by the next run.

To get started, write a network profile under ./networks and run
lendr deploy core --network <name>.`,
		PersistentPreRunE: createApp,
		PersistentPostRun: handleTracking,
		Version:           metrics.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Disable printing the completion command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "ERROR", "log level for the application")
	rootCmd.PersistentFlags().StringVar(&networksDir, "networks-dir", constants.DefaultNetworksDir, "directory of the network profiles")
	rootCmd.PersistentFlags().StringVar(&artifactsDir, "artifacts-dir", constants.DefaultArtifactsDir, "hardhat artifacts directory")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", constants.DotEnvFile, "dotenv file holding "+constants.DeployerPrivateKeyEnvVar+" and explorer keys")

	rootCmd.AddCommand(deploycmd.NewCmd(app))
	rootCmd.AddCommand(verifycmd.NewCmd(app))
	rootCmd.AddCommand(statecmd.NewCmd(app))
	rootCmd.AddCommand(configcmd.NewCmd(app))

	cobrautils.ConfigureRootCmd(rootCmd)
	return rootCmd
}

func createApp(cmd *cobra.Command, _ []string) error {
	baseDir, err := setupEnv()
	if err != nil {
		return err
	}
	log, err := setupLogging(baseDir)
	if err != nil {
		return err
	}
	if err := loadEnvFile(envFile); err != nil {
		return err
	}
	fs := afero.NewOsFs()
	conf := config.New(fs)
	app.Setup(baseDir, log, conf, fs, application.ProjectDirs{
		Networks:  config.ProfilesDir(networksDir),
		Artifacts: artifactsDir,
	})
	conf.SetConfig(log, app.GetConfigPath())
	log.Info(fmt.Sprintf("command: %s", cmd.CommandPath()))
	return nil
}

// loadEnvFile exports the variables of the dotenv file without overriding the environment.
// A missing file is fine, keys may come from the environment itself.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed loading %s: %w", path, err)
	}
	return nil
}

func setupEnv() (string, error) {
	usr, err := user.Current()
	if err != nil {
		// no logger here yet
		fmt.Printf("unable to get system user %s\n", err)
		return "", err
	}
	baseDir := filepath.Join(usr.HomeDir, constants.BaseDirName)

	// Create base dir if it doesn't exist
	if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
		// no logger here yet
		fmt.Printf("failed creating the basedir %s: %s\n", baseDir, err)
		return "", err
	}
	return baseDir, nil
}

func setupLogging(baseDir string) (logging.Logger, error) {
	var err error

	config := logging.Config{}
	config.LogLevel = logging.Info
	config.DisplayLevel, err = logging.ToLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level configured: %s", logLevel)
	}
	config.Directory = filepath.Join(baseDir, constants.LogDir)
	if err := os.MkdirAll(config.Directory, constants.DefaultPerms755); err != nil {
		return nil, fmt.Errorf("failed creating log directory: %w", err)
	}

	// some logging config params
	config.LogFormat = logging.Colors
	config.MaxSize = constants.MaxLogFileSize
	config.MaxFiles = constants.MaxNumOfLogFiles
	config.MaxAge = constants.RetainOldFiles

	factory := logging.NewFactory(config)
	log, err := factory.Make(constants.LogName)
	if err != nil {
		factory.Close()
		return nil, fmt.Errorf("failed setting up logging, exiting: %w", err)
	}
	// create the user facing logger as a global var
	ux.NewUserLog(log, os.Stdout)
	return log, nil
}

func handleTracking(cmd *cobra.Command, _ []string) {
	flags := map[string]string{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		// only the name of the network, never values that may carry keys or urls
		if f.Name == "network" {
			flags[f.Name] = f.Value.String()
			return
		}
		flags[f.Name] = "set"
	})
	metrics.HandleTracking(cmd, app, flags)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	app = application.New()
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	cobrautils.HandleErrors(err)
}
