// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/retry"
	"github.com/lendr-finance/lendr-deployer/pkg/ux"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=mocks/eth_client.go -package=mocks . EthClient

// EthClient is the subset of the go-ethereum rpc client used by the deployer
type EthClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

var (
	// used to mock the connection function
	ethclientDialContext = func(ctx context.Context, rawurl string) (EthClient, error) {
		return ethclient.DialContext(ctx, rawurl)
	}
	rpcPolicy    = retry.Policy{Attempts: constants.DefaultRPCAttempts, Delay: constants.DefaultRPCRetryDelay}
	pollInterval = constants.ReceiptPollInterval

	ErrConfirmationTimeout = errors.New("timeout waiting for transaction confirmations")
)

// Client wraps over ethclient for the calls used by the deployer:
// - read calls are repeated to recover from rpc flakiness, each attempt with its own timeout
// - transactions are EIP-1559, signed with the deployer key
// - failures mention the rpc url
type Client struct {
	EthClient EthClient
	URL       string
	log       logging.Logger
	key       *ecdsa.PrivateKey
	sender    common.Address
	chainID   *big.Int
	spinner   *ux.UserSpinner
}

// HasScheme indicates if the given rpc url has schema or not
func HasScheme(rpcURL string) (bool, error) {
	parsedURL, err := url.Parse(rpcURL)
	if err != nil {
		if !strings.Contains(err.Error(), "first path segment in URL cannot contain colon") {
			return false, err
		}
		return false, nil
	}
	return strings.Contains(rpcURL, "://") && parsedURL.Scheme != "", nil
}

// GetClient connects to [rpcURL] and binds the deployer key. Urls without scheme default to https.
func GetClient(ctx context.Context, rpcURL string, privateKey *ecdsa.PrivateKey, log logging.Logger) (*Client, error) {
	hasScheme, err := HasScheme(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failure determining the scheme of url %s: %w", rpcURL, err)
	}
	if !hasScheme {
		rpcURL = "https://" + rpcURL
	}
	ethClient, err := retry.Do(ctx, rpcPolicy, log, "dial", func() (EthClient, error) {
		dialCtx, cancel := context.WithTimeout(ctx, constants.APIRequestLargeTimeout)
		defer cancel()
		return ethclientDialContext(dialCtx, rpcURL)
	})
	if err != nil {
		return nil, fmt.Errorf("failure connecting to %s: %w", rpcURL, err)
	}
	return NewClient(ethClient, rpcURL, privateKey, log), nil
}

func NewClient(ethClient EthClient, rpcURL string, privateKey *ecdsa.PrivateKey, log logging.Logger) *Client {
	return &Client{
		EthClient: ethClient,
		URL:       rpcURL,
		log:       log,
		key:       privateKey,
		sender:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// WithSpinner shows a spinner to the user while waiting for confirmations
func (client *Client) WithSpinner(spinner *ux.UserSpinner) *Client {
	client.spinner = spinner
	return client
}

// closes underlying ethclient connection
func (client *Client) Close() {
	client.EthClient.Close()
}

func (client *Client) Sender() common.Address {
	return client.sender
}

func withRetry[T any](ctx context.Context, client *Client, name string, f func(context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, rpcPolicy, client.log, name, func() (T, error) {
		callCtx, cancel := context.WithTimeout(ctx, constants.APIRequestTimeout)
		defer cancel()
		return f(callCtx)
	})
}

// returns the chain ID, cached after the first successful call
func (client *Client) ChainID(ctx context.Context) (*big.Int, error) {
	if client.chainID != nil {
		return new(big.Int).Set(client.chainID), nil
	}
	chainID, err := withRetry(ctx, client, "chain id", client.EthClient.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failure getting chain id from %s: %w", client.URL, err)
	}
	client.chainID = chainID
	return new(big.Int).Set(chainID), nil
}

func (client *Client) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := withRetry(ctx, client, "balance", func(ctx context.Context) (*big.Int, error) {
		return client.EthClient.BalanceAt(ctx, address, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failure obtaining balance for %s on %s: %w", address.Hex(), client.URL, err)
	}
	return balance, nil
}

// SuggestFees returns gasFeeCap and gasTipCap computed from the latest base fee
func (client *Client) SuggestFees(ctx context.Context) (*big.Int, *big.Int, error) {
	header, err := withRetry(ctx, client, "latest header", func(ctx context.Context) (*types.Header, error) {
		return client.EthClient.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failure obtaining base fee on %s: %w", client.URL, err)
	}
	gasTipCap, err := withRetry(ctx, client, "gas tip cap", client.EthClient.SuggestGasTipCap)
	if err != nil {
		return nil, nil, fmt.Errorf("failure obtaining gas tip cap on %s: %w", client.URL, err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	gasFeeCap := new(big.Int).Mul(baseFee, big.NewInt(constants.BaseFeeFactor))
	gasFeeCap.Add(gasFeeCap, big.NewInt(constants.DefaultMaxPriorityFeePerGas))
	if gasTipCap.Cmp(gasFeeCap) > 0 {
		gasTipCap = new(big.Int).Set(gasFeeCap)
	}
	return gasFeeCap, gasTipCap, nil
}

// Call runs a read only call of [data] against [to] on the latest block
func (client *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := withRetry(ctx, client, "call", func(ctx context.Context) ([]byte, error) {
		return client.EthClient.CallContract(ctx, ethereum.CallMsg{From: client.sender, To: &to, Data: data}, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failure calling %s on %s: %w", to.Hex(), client.URL, err)
	}
	return out, nil
}

func (client *Client) StorageAt(ctx context.Context, address common.Address, slot common.Hash) (common.Hash, error) {
	out, err := withRetry(ctx, client, "storage", func(ctx context.Context) ([]byte, error) {
		return client.EthClient.StorageAt(ctx, address, slot, nil)
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failure reading storage of %s on %s: %w", address.Hex(), client.URL, err)
	}
	return common.BytesToHash(out), nil
}

// Send signs and sends [req] with the deployer key, estimating the gas limit when the fee
// policy does not fix one. It returns as soon as the node accepted the transaction.
func (client *Client) Send(ctx context.Context, req TxRequest) (common.Hash, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	nonce, err := withRetry(ctx, client, "nonce", func(ctx context.Context) (uint64, error) {
		return client.EthClient.PendingNonceAt(ctx, client.sender)
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failure obtaining nonce for %s on %s: %w", client.sender.Hex(), client.URL, err)
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	gasLimit := req.Fees.GasLimit
	if gasLimit == 0 {
		estimated, err := withRetry(ctx, client, "estimate gas", func(ctx context.Context) (uint64, error) {
			return client.EthClient.EstimateGas(ctx, ethereum.CallMsg{
				From:      client.sender,
				To:        req.To,
				GasFeeCap: req.Fees.GasFeeCap,
				GasTipCap: req.Fees.GasTipCap,
				Value:     value,
				Data:      req.Data,
			})
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("failure estimating gas limit on %s: %w", client.URL, err)
		}
		gasLimit = estimated * (100 + constants.GasLimitBufferPercent) / 100
	}
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		To:        req.To,
		Gas:       gasLimit,
		GasFeeCap: req.Fees.GasFeeCap,
		GasTipCap: req.Fees.GasTipCap,
		Value:     value,
		Data:      req.Data,
	})
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), client.key)
	if err != nil {
		return common.Hash{}, err
	}
	_, err = withRetry(ctx, client, "send transaction", func(ctx context.Context) (struct{}, error) {
		err := client.EthClient.SendTransaction(ctx, signedTx)
		if err != nil && strings.Contains(err.Error(), "already known") {
			// a previous attempt reached the node
			return struct{}{}, nil
		}
		if err != nil && isPermanentSendError(err) {
			return struct{}{}, retry.Permanent(err)
		}
		return struct{}{}, err
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failure sending transaction %s to %s: %w", signedTx.Hash().Hex(), client.URL, err)
	}
	client.log.Debug("transaction sent", zap.Stringer("hash", signedTx.Hash()), zap.Uint64("nonce", nonce))
	return signedTx.Hash(), nil
}

func isPermanentSendError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"insufficient funds", "nonce too low", "intrinsic gas too low", "exceeds block gas limit"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// WaitForConfirmations polls until [txHash] is mined and [confirmations] blocks were built on
// top of its block (the including block counts as the first one)
func (client *Client) WaitForConfirmations(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error) {
	if client.spinner == nil {
		return client.waitForConfirmations(ctx, txHash, confirmations)
	}
	sp := client.spinner.SpinToUser("waiting for %s", txHash.Hex())
	receipt, err := client.waitForConfirmations(ctx, txHash, confirmations)
	if err != nil {
		client.spinner.SpinFailWithError(sp, "", err)
		return nil, err
	}
	ux.SpinComplete(sp)
	return receipt, nil
}

func (client *Client) waitForConfirmations(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.TxConfirmationTimeout)
	defer cancel()
	var receipt *types.Receipt
	for receipt == nil {
		r, err := client.EthClient.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			receipt = r
			continue
		case errors.Is(err, ethereum.NotFound):
		default:
			client.log.Debug("failure polling receipt", zap.Stringer("hash", txHash), zap.Error(err))
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return nil, fmt.Errorf("%w: %s on %s", ErrConfirmationTimeout, txHash.Hex(), client.URL)
		}
	}
	if confirmations <= 1 || receipt.BlockNumber == nil {
		return receipt, nil
	}
	target := receipt.BlockNumber.Uint64() + confirmations - 1
	for {
		head, err := client.EthClient.BlockNumber(ctx)
		if err == nil && head >= target {
			return receipt, nil
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return nil, fmt.Errorf("%w: %s waiting for block %d on %s", ErrConfirmationTimeout, txHash.Hex(), target, client.URL)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
