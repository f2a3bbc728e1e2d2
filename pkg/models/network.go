// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package models

import (
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"time"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
)

// EtherAmount is a wei amount written as a decimal ether string ("1.25") in network profiles
type EtherAmount struct {
	*big.Int
}

// GweiAmount is a wei amount written as a decimal gwei string ("1.5") in network profiles
type GweiAmount struct {
	*big.Int
}

func NewEtherAmount(wei *big.Int) EtherAmount {
	return EtherAmount{Int: wei}
}

// Wei returns a copy of the amount, zero when unset
func (a EtherAmount) Wei() *big.Int {
	if a.Int == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.Int)
}

func (a EtherAmount) IsSet() bool {
	return a.Int != nil
}

func (a GweiAmount) Wei() *big.Int {
	if a.Int == nil {
		return nil
	}
	return new(big.Int).Set(a.Int)
}

func (a GweiAmount) IsSet() bool {
	return a.Int != nil
}

type CollateralAsset struct {
	Name                     string         `mapstructure:"name"`
	Address                  common.Address `mapstructure:"address"`
	OracleAddress            common.Address `mapstructure:"oracleAddress"`
	OracleTimeoutSeconds     uint64         `mapstructure:"oracleTimeoutSeconds"`
	OracleIsEthIndexed       bool           `mapstructure:"oracleIsEthIndexed"`
	BorrowingFee             EtherAmount    `mapstructure:"borrowingFee"`
	MCR                      EtherAmount    `mapstructure:"mcr"`
	CCR                      EtherAmount    `mapstructure:"ccr"`
	MinNetDebt               EtherAmount    `mapstructure:"minNetDebt"`
	GasCompensation          EtherAmount    `mapstructure:"gasCompensation"`
	MintCap                  EtherAmount    `mapstructure:"mintCap"`
	RedemptionBlockTimestamp uint64         `mapstructure:"redemptionBlockTimestamp"`
}

// Configurable tells whether the asset carries both the token and the oracle address.
// Assets missing either are skipped with a warning.
func (c CollateralAsset) Configurable() bool {
	return c.Address != (common.Address{}) && c.OracleAddress != (common.Address{})
}

type FeeSettings struct {
	MaxFeePerGas         GweiAmount `mapstructure:"maxFeePerGasGwei"`
	MaxPriorityFeePerGas GweiAmount `mapstructure:"maxPriorityFeePerGasGwei"`
	GasLimit             uint64     `mapstructure:"gasLimit"`
}

type RetrySettings struct {
	DeployAttempts      int           `mapstructure:"deployAttempts"`
	Delay               time.Duration `mapstructure:"delay"`
	ImplResolveAttempts int           `mapstructure:"implResolveAttempts"`
	ImplResolveDelay    time.Duration `mapstructure:"implResolveDelay"`
	Jitter              time.Duration `mapstructure:"jitter"`
}

type DebtTokenSettings struct {
	Name   string `mapstructure:"name"`
	Symbol string `mapstructure:"symbol"`
	// Address of an already deployed debt token. When set the token is attached instead of deployed.
	Address common.Address `mapstructure:"address"`
}

// LndrSettings configures the auxiliary LNDR token family
type LndrSettings struct {
	LzEndpoint     common.Address `mapstructure:"lzEndpoint"`
	TreasuryWallet common.Address `mapstructure:"treasuryWallet"`
	OutputFile     string         `mapstructure:"outputFile"`
}

type NetworkProfile struct {
	Name                  string            `mapstructure:"name"`
	RPCURL                string            `mapstructure:"rpcUrl"`
	ChainID               uint64            `mapstructure:"chainId"`
	Testnet               bool              `mapstructure:"testnet"`
	TxConfirmations       uint64            `mapstructure:"txConfirmations"`
	OutputFile            string            `mapstructure:"outputFile"`
	ExplorerBaseURL       string            `mapstructure:"explorerBaseUrl"`
	ExplorerAPIURL        string            `mapstructure:"explorerApiUrl"`
	ExplorerAPIKeyEnv     string            `mapstructure:"explorerApiKeyEnv"`
	ContractUpgradesAdmin common.Address    `mapstructure:"contractUpgradesAdmin"`
	SystemParamsAdmin     common.Address    `mapstructure:"systemParamsAdmin"`
	TreasuryWallet        common.Address    `mapstructure:"treasuryWallet"`
	DebtToken             DebtTokenSettings `mapstructure:"debtToken"`
	PriceFeedContract     string            `mapstructure:"priceFeedContract"`
	Fees                  FeeSettings       `mapstructure:"fees"`
	Retry                 RetrySettings     `mapstructure:"retry"`
	Collateral            []CollateralAsset `mapstructure:"collateral"`
	Lndr                  LndrSettings      `mapstructure:"lndr"`
}

// ApplyDefaults fills every optional setting left empty by the profile
func (p *NetworkProfile) ApplyDefaults() {
	if p.TxConfirmations == 0 {
		p.TxConfirmations = constants.DefaultTxConfirmations
	}
	if p.OutputFile == "" {
		p.OutputFile = filepath.Join(constants.DefaultOutputDir, p.Name+constants.StateFileSuffix)
	}
	if p.Lndr.OutputFile == "" {
		p.Lndr.OutputFile = filepath.Join(constants.DefaultOutputDir, p.Name+"-lndr"+constants.StateFileSuffix)
	}
	if p.PriceFeedContract == "" {
		p.PriceFeedContract = "PriceFeedTestnet"
	}
	if p.Retry.DeployAttempts == 0 {
		p.Retry.DeployAttempts = constants.DefaultDeployAttempts
	}
	if p.Retry.Delay == 0 {
		p.Retry.Delay = constants.DefaultDeployRetryDelay
	}
	if p.Retry.ImplResolveAttempts == 0 {
		p.Retry.ImplResolveAttempts = constants.DefaultImplResolveAttempts
	}
	if p.Retry.ImplResolveDelay == 0 {
		p.Retry.ImplResolveDelay = constants.DefaultImplResolveDelay
	}
}

func (p *NetworkProfile) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.RPCURL == "" {
		errs = append(errs, errors.New("rpcUrl is required"))
	}
	if p.DebtToken.Address == (common.Address{}) && (p.DebtToken.Name == "" || p.DebtToken.Symbol == "") {
		errs = append(errs, errors.New("debtToken needs either an address or a name and symbol"))
	}
	if p.SystemParamsAdmin == (common.Address{}) {
		errs = append(errs, errors.New("systemParamsAdmin is required"))
	}
	if p.TreasuryWallet == (common.Address{}) {
		errs = append(errs, errors.New("treasuryWallet is required"))
	}
	if p.Retry.DeployAttempts < 0 || p.Retry.ImplResolveAttempts < 0 {
		errs = append(errs, errors.New("retry attempts must not be negative"))
	}
	if p.ExplorerBaseURL != "" && p.ExplorerAPIURL == "" {
		errs = append(errs, errors.New("explorerBaseUrl requires explorerApiUrl"))
	}
	if p.ExplorerAPIURL != "" {
		if p.ExplorerBaseURL == "" {
			errs = append(errs, errors.New("explorerApiUrl requires explorerBaseUrl"))
		}
		if err := utils.ValidateURLFormat(p.ExplorerAPIURL); err != nil {
			errs = append(errs, fmt.Errorf("explorerApiUrl: %w", err))
		}
	}
	names := map[string]struct{}{}
	for i, c := range p.Collateral {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("collateral[%d]: name is required", i))
			continue
		}
		if _, ok := names[c.Name]; ok {
			errs = append(errs, fmt.Errorf("collateral[%d]: duplicated name %s", i, c.Name))
		}
		names[c.Name] = struct{}{}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %q: %w", constants.ErrInvalidProfile, p.Name, errors.Join(errs...))
	}
	return nil
}

// TimelockFlavour returns the timelock contract name and its delay for the network kind
func (p *NetworkProfile) TimelockFlavour() (string, time.Duration) {
	if p.Testnet {
		return "TimelockTester", constants.TestnetTimelockDelay
	}
	return "Timelock", constants.MainnetTimelockDelay
}
