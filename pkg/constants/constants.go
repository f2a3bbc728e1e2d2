// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package constants

import "time"

const (
	BaseDirName = ".lendr-deployer"
	LogDir      = "logs"
	LogName     = "lendr"

	ConfigFileName = "config.json"
	LastFileName   = ".last_actions.json"

	DefaultPerms755    = 0o755
	WriteReadReadPerms = 0o644

	// log rotation
	MaxLogFileSize   = 4
	MaxNumOfLogFiles = 5
	RetainOldFiles   = 0 // retain all old log files

	DefaultNetworksDir  = "networks"
	DefaultArtifactsDir = "artifacts"
	DefaultOutputDir    = "deployments"
	StateFileSuffix     = ".json"

	// env
	DeployerPrivateKeyEnvVar = "DEPLOYER_PRIVATEKEY"
	DotEnvFile               = ".env"

	// http / rpc
	APIRequestTimeout      = 30 * time.Second
	APIRequestLargeTimeout = 2 * time.Minute
	TxConfirmationTimeout  = 10 * time.Minute
	ReceiptPollInterval    = 2 * time.Second

	// deployment retries
	DefaultDeployAttempts      = 2
	DefaultDeployRetryDelay    = 2 * time.Second
	DefaultImplResolveAttempts = 5
	DefaultImplResolveDelay    = 2 * time.Second
	DefaultRPCAttempts         = 3
	DefaultRPCRetryDelay       = 1 * time.Second

	// fees
	BaseFeeFactor               = 2
	DefaultMaxPriorityFeePerGas = 2_500_000_000 // 2.5 gwei
	GasLimitBufferPercent       = 20

	DefaultTxConfirmations = 1
	CollateralDecimals     = 18

	RedemptionSofteningParam = 9900

	// price aggregators
	FixedAggregatorPrice = 1_0000_0000 // 1 with 8 decimals
	WstETHAddress        = "0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0"
	StETHUSDOracle       = "0xCfE54B5cD566aB89272946F602D76Ea879CAb4a8"

	// the wETH collateral also prices the native asset
	WrappedEtherCollateral = "wETH"

	// timelock flavours
	TestnetTimelockDelay = 5 * time.Minute
	MainnetTimelockDelay = 48 * time.Hour

	// viper keys
	ConfigMetricsEnabledKey = "MetricsEnabled"
)
