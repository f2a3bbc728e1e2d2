// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package verify

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lendr-finance/lendr-deployer/pkg/retry"
	"github.com/lendr-finance/lendr-deployer/pkg/utils"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"
)

const (
	standardJSONFormat = "solidity-standard-json-input"

	defaultPollInterval = 5 * time.Second
	defaultPollAttempts = 24
)

var (
	ErrVerificationFailed = errors.New("explorer rejected the verification")
	errPending            = errors.New("verification pending")
)

type etherscanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// EtherscanBackend verifies sources through an Etherscan compatible API
type EtherscanBackend struct {
	apiURL  string
	apiKey  string
	chainID uint64
	poll    retry.Policy
	log     logging.Logger
}

type EtherscanOption func(*EtherscanBackend)

// WithPolling sets how often and how many times the verification status is checked
func WithPolling(interval time.Duration, attempts int) EtherscanOption {
	return func(b *EtherscanBackend) {
		b.poll = retry.Policy{Attempts: attempts, Delay: interval}
	}
}

// NewEtherscanBackend talks to the API at apiURL. A non zero chainID is sent along every
// request, as multichain explorers require.
func NewEtherscanBackend(apiURL, apiKey string, chainID uint64, log logging.Logger, opts ...EtherscanOption) *EtherscanBackend {
	if log == nil {
		log = logging.NoLog{}
	}
	b := &EtherscanBackend{
		apiURL:  apiURL,
		apiKey:  apiKey,
		chainID: chainID,
		poll:    retry.Policy{Attempts: defaultPollAttempts, Delay: defaultPollInterval},
		log:     log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *EtherscanBackend) endpoint(query url.Values) (string, error) {
	u, err := url.Parse(b.apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid explorer api url %q: %w", b.apiURL, err)
	}
	q := u.Query()
	if b.chainID != 0 {
		q.Set("chainid", strconv.FormatUint(b.chainID, 10))
	}
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (b *EtherscanBackend) Verify(ctx context.Context, req Request) (Status, error) {
	if req.Artifact == nil || req.BuildInfo == nil {
		return 0, fmt.Errorf("missing compiler data for %s", req.Name)
	}
	form := url.Values{}
	form.Set("apikey", b.apiKey)
	form.Set("module", "contract")
	form.Set("action", "verifysourcecode")
	form.Set("contractaddress", req.Address.Hex())
	form.Set("sourceCode", string(req.BuildInfo.Input))
	form.Set("codeformat", standardJSONFormat)
	form.Set("contractname", req.Artifact.FullyQualifiedName())
	form.Set("compilerversion", "v"+req.BuildInfo.SolcLongVersion)
	// the misspelling is part of the api
	form.Set("constructorArguements", hex.EncodeToString(req.ConstructorArgs))

	endpoint, err := b.endpoint(nil)
	if err != nil {
		return 0, err
	}
	resp, err := b.request(utils.MakePostFormRequest(ctx, endpoint, form))
	if err != nil {
		return 0, fmt.Errorf("failure submitting %s sources: %w", req.Name, err)
	}
	if resp.Status != "1" {
		if isAlreadyVerified(resp.Result) {
			return AlreadyVerified, nil
		}
		return 0, fmt.Errorf("%w: %s: %s", ErrVerificationFailed, resp.Message, resp.Result)
	}
	guid := resp.Result
	b.log.Info("verification submitted", zap.String("contract", req.Name), zap.String("guid", guid))
	return retry.Do(ctx, b.poll, b.log, "checkverifystatus "+req.Name, func() (Status, error) {
		return b.checkStatus(ctx, guid)
	})
}

func (b *EtherscanBackend) checkStatus(ctx context.Context, guid string) (Status, error) {
	endpoint, err := b.endpoint(url.Values{
		"apikey": {b.apiKey},
		"module": {"contract"},
		"action": {"checkverifystatus"},
		"guid":   {guid},
	})
	if err != nil {
		return 0, retry.Permanent(err)
	}
	resp, err := b.request(utils.MakeGetRequest(ctx, endpoint))
	if err != nil {
		return 0, err
	}
	switch {
	case isAlreadyVerified(resp.Result):
		return AlreadyVerified, nil
	case resp.Status == "1":
		return Verified, nil
	case strings.Contains(strings.ToLower(resp.Result), "pending"):
		return 0, errPending
	}
	return 0, retry.Permanent(fmt.Errorf("%w: %s", ErrVerificationFailed, resp.Result))
}

func (*EtherscanBackend) request(body []byte, err error) (etherscanResponse, error) {
	var resp etherscanResponse
	if err != nil {
		return resp, err
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return resp, fmt.Errorf("unexpected explorer response: %w", err)
	}
	return resp, nil
}

func isAlreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}
