// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
)

// Named methods of the Lendr contracts reached by the deployer
var (
	FuncSetAddresses              = w3.MustNewFunc("setAddresses(address[] _addresses)", "")
	FuncIsAddressSetupInitialized = w3.MustNewFunc("isAddressSetupInitialized()", "bool")
	FuncNAME                      = w3.MustNewFunc("NAME()", "string")
	FuncInitialize                = w3.MustNewFunc("initialize()", "")

	FuncDebtTokenSetAddresses = w3.MustNewFunc(
		"setAddresses(address _borrowerOperationsAddress, address _stakedDebtTokenAddress, address _vesselManagerAddress)",
		"",
	)
	FuncAddWhitelist                = w3.MustNewFunc("addWhitelist(address _address)", "")
	FuncSetRedemptionSofteningParam = w3.MustNewFunc("setRedemptionSofteningParam(uint256 _redemptionSofteningParam)", "")
	FuncSetCommunityIssuance        = w3.MustNewFunc("setCommunityIssuance(address _communityIssuance)", "")
	FuncSetLNDRStaking              = w3.MustNewFunc("setLNDRStaking(address _lndrStaking)", "")
	FuncLNDRStakingSetAddresses     = w3.MustNewFunc("setAddresses(address _lndrToken, address _treasury)", "")
	FuncIsSetupInitialized          = w3.MustNewFunc("isSetupInitialized()", "bool")
	FuncSetSetupIsInitialized       = w3.MustNewFunc("setSetupIsInitialized()", "")
	FuncGetMcr                      = w3.MustNewFunc("getMcr(address _collateral)", "uint256")
	FuncGetIsActive                 = w3.MustNewFunc("getIsActive(address _collateral)", "bool")
	FuncAddNewCollateral            = w3.MustNewFunc("addNewCollateral(address _collateral, uint256 _debtTokenGasCompensation, uint256 _decimals)", "")
	FuncPercentDivisorDefault       = w3.MustNewFunc("PERCENT_DIVISOR_DEFAULT()", "uint256")
	FuncRedemptionFeeFloorDefault   = w3.MustNewFunc("REDEMPTION_FEE_FLOOR_DEFAULT()", "uint256")
	FuncSetRedemptionBlockTimestamp = w3.MustNewFunc("setRedemptionBlockTimestamp(address _collateral, uint256 _blockTimestamp)", "")
	FuncSetCollateralParameters     = w3.MustNewFunc(
		"setCollateralParameters(address _collateral, uint256 borrowingFee, uint256 ccr, uint256 mcr, uint256 minNetDebt, uint256 mintCap, uint256 percentDivisor, uint256 redemptionFeeFloor)",
		"",
	)
	FuncOracles = w3.MustNewFunc(
		"oracles(address _token)",
		"address oracleAddress, uint8 providerType, uint256 timeoutSeconds, uint256 decimals, bool isEthIndexed",
	)
	FuncSetOracle = w3.MustNewFunc(
		"setOracle(address _token, address _oracle, uint8 _type, uint256 _timeoutSeconds, bool _isEthIndexed, bool _isFallback)",
		"",
	)
)

func (h Handle) IsAddressSetupInitialized(ctx context.Context) (bool, error) {
	var initialized bool
	err := h.Call(ctx, FuncIsAddressSetupInitialized, []any{&initialized})
	return initialized, err
}

func (h Handle) SetAddresses(ctx context.Context, addresses []common.Address) error {
	_, err := h.Send(ctx, FuncSetAddresses, addresses)
	return err
}

func (h Handle) IsSetupInitialized(ctx context.Context) (bool, error) {
	var initialized bool
	err := h.Call(ctx, FuncIsSetupInitialized, []any{&initialized})
	return initialized, err
}

func (h Handle) SetSetupIsInitialized(ctx context.Context) error {
	_, err := h.Send(ctx, FuncSetSetupIsInitialized)
	return err
}

// CollateralParameters are the arguments of AdminContract.setCollateralParameters
type CollateralParameters struct {
	BorrowingFee       *big.Int
	CCR                *big.Int
	MCR                *big.Int
	MinNetDebt         *big.Int
	MintCap            *big.Int
	PercentDivisor     *big.Int
	RedemptionFeeFloor *big.Int
}

func (h Handle) GetMcr(ctx context.Context, collateral common.Address) (*big.Int, error) {
	var mcr *big.Int
	if err := h.Call(ctx, FuncGetMcr, []any{&mcr}, collateral); err != nil {
		return nil, err
	}
	return mcr, nil
}

func (h Handle) GetIsActive(ctx context.Context, collateral common.Address) (bool, error) {
	var active bool
	err := h.Call(ctx, FuncGetIsActive, []any{&active}, collateral)
	return active, err
}

func (h Handle) AddNewCollateral(ctx context.Context, collateral common.Address, gasCompensation *big.Int, decimals uint64) error {
	_, err := h.Send(ctx, FuncAddNewCollateral, collateral, gasCompensation, new(big.Int).SetUint64(decimals))
	return err
}

func (h Handle) PercentDivisorDefault(ctx context.Context) (*big.Int, error) {
	var v *big.Int
	if err := h.Call(ctx, FuncPercentDivisorDefault, []any{&v}); err != nil {
		return nil, err
	}
	return v, nil
}

func (h Handle) RedemptionFeeFloorDefault(ctx context.Context) (*big.Int, error) {
	var v *big.Int
	if err := h.Call(ctx, FuncRedemptionFeeFloorDefault, []any{&v}); err != nil {
		return nil, err
	}
	return v, nil
}

func (h Handle) SetCollateralParameters(ctx context.Context, collateral common.Address, p CollateralParameters) error {
	_, err := h.Send(ctx, FuncSetCollateralParameters,
		collateral,
		p.BorrowingFee,
		p.CCR,
		p.MCR,
		p.MinNetDebt,
		p.MintCap,
		p.PercentDivisor,
		p.RedemptionFeeFloor,
	)
	return err
}

func (h Handle) SetRedemptionBlockTimestamp(ctx context.Context, collateral common.Address, timestamp uint64) error {
	_, err := h.Send(ctx, FuncSetRedemptionBlockTimestamp, collateral, new(big.Int).SetUint64(timestamp))
	return err
}

// OracleRecord is the price feed entry of a token. A zero Decimals means no oracle is set.
type OracleRecord struct {
	OracleAddress  common.Address
	ProviderType   uint8
	TimeoutSeconds *big.Int
	Decimals       *big.Int
	IsEthIndexed   bool
}

func (r OracleRecord) IsSet() bool {
	return r.Decimals != nil && r.Decimals.Sign() != 0
}

func (h Handle) Oracles(ctx context.Context, token common.Address) (OracleRecord, error) {
	var r OracleRecord
	err := h.Call(ctx, FuncOracles, []any{&r.OracleAddress, &r.ProviderType, &r.TimeoutSeconds, &r.Decimals, &r.IsEthIndexed}, token)
	return r, err
}

// SetOracle registers a chainlink (provider type 0) primary oracle for token
func (h Handle) SetOracle(ctx context.Context, token common.Address, oracle common.Address, timeoutSeconds uint64, isEthIndexed bool) error {
	_, err := h.Send(ctx, FuncSetOracle, token, oracle, uint8(0), new(big.Int).SetUint64(timeoutSeconds), isEthIndexed, false)
	return err
}

func (h Handle) SetDebtTokenAddresses(ctx context.Context, borrowerOperations, stakedDebtToken, vesselManager common.Address) error {
	_, err := h.Send(ctx, FuncDebtTokenSetAddresses, borrowerOperations, stakedDebtToken, vesselManager)
	return err
}

func (h Handle) AddWhitelist(ctx context.Context, address common.Address) error {
	_, err := h.Send(ctx, FuncAddWhitelist, address)
	return err
}

func (h Handle) SetRedemptionSofteningParam(ctx context.Context, param *big.Int) error {
	_, err := h.Send(ctx, FuncSetRedemptionSofteningParam, param)
	return err
}

func (h Handle) SetCommunityIssuance(ctx context.Context, communityIssuance common.Address) error {
	_, err := h.Send(ctx, FuncSetCommunityIssuance, communityIssuance)
	return err
}

func (h Handle) SetLNDRStaking(ctx context.Context, lndrStaking common.Address) error {
	_, err := h.Send(ctx, FuncSetLNDRStaking, lndrStaking)
	return err
}

func (h Handle) SetLNDRStakingAddresses(ctx context.Context, lndrToken, treasury common.Address) error {
	_, err := h.Send(ctx, FuncLNDRStakingSetAddresses, lndrToken, treasury)
	return err
}
