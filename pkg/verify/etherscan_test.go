// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lendr-finance/lendr-deployer/pkg/contract"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

type fakeExplorer struct {
	mu       sync.Mutex
	submit   etherscanResponse
	statuses []etherscanResponse
	forms    []map[string]string
	checks   int
	chainIDs []string
}

func (e *fakeExplorer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chainIDs = append(e.chainIDs, r.URL.Query().Get("chainid"))
	var resp etherscanResponse
	if r.Method == http.MethodPost {
		_ = r.ParseForm()
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		e.forms = append(e.forms, form)
		resp = e.submit
	} else {
		resp = e.statuses[min(e.checks, len(e.statuses)-1)]
		e.checks++
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (e *fakeExplorer) seen() (int, []map[string]string, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checks, e.forms, e.chainIDs
}

func testRequest() Request {
	return Request{
		Name:    "DebtToken",
		Address: common.HexToAddress("0x3000000000000000000000000000000000000003"),
		Artifact: &contract.Artifact{
			ContractName: "DebtToken",
			SourceName:   "contracts/DebtToken.sol",
		},
		BuildInfo: &contract.BuildInfo{
			SolcVersion:     "0.8.23",
			SolcLongVersion: "0.8.23+commit.f704f362",
			Input:           json.RawMessage(`{"language":"Solidity"}`),
		},
		ConstructorArgs: []byte{0xca, 0xfe},
	}
}

func newBackend(t *testing.T, e *fakeExplorer) *EtherscanBackend {
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return NewEtherscanBackend(srv.URL+"/api", "KEY", 11155111, logging.NoLog{}, WithPolling(time.Millisecond, 3))
}

func TestEtherscanVerify(t *testing.T) {
	require := require.New(t)
	e := &fakeExplorer{
		submit: etherscanResponse{Status: "1", Message: "OK", Result: "guid-1"},
		statuses: []etherscanResponse{
			{Status: "0", Message: "NOTOK", Result: "Pending in queue"},
			{Status: "1", Message: "OK", Result: "Pass - Verified"},
		},
	}
	status, err := newBackend(t, e).Verify(context.Background(), testRequest())
	require.NoError(err)
	require.Equal(Verified, status)
	checks, forms, chainIDs := e.seen()
	require.Equal(2, checks)

	require.Len(forms, 1)
	form := forms[0]
	require.Equal("verifysourcecode", form["action"])
	require.Equal("contract", form["module"])
	require.Equal("KEY", form["apikey"])
	require.Equal(standardJSONFormat, form["codeformat"])
	require.Equal("contracts/DebtToken.sol:DebtToken", form["contractname"])
	require.Equal("v0.8.23+commit.f704f362", form["compilerversion"])
	require.Equal("cafe", form["constructorArguements"])
	require.Equal(`{"language":"Solidity"}`, form["sourceCode"])
	for _, id := range chainIDs {
		require.Equal("11155111", id)
	}
}

func TestEtherscanAlreadyVerified(t *testing.T) {
	e := &fakeExplorer{submit: etherscanResponse{Status: "0", Message: "NOTOK", Result: "Contract source code already verified"}}
	status, err := newBackend(t, e).Verify(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, AlreadyVerified, status)
	checks, _, _ := e.seen()
	require.Zero(t, checks)
}

func TestEtherscanRejected(t *testing.T) {
	require := require.New(t)
	e := &fakeExplorer{
		submit:   etherscanResponse{Status: "1", Message: "OK", Result: "guid-2"},
		statuses: []etherscanResponse{{Status: "0", Message: "NOTOK", Result: "Fail - Unable to verify"}},
	}
	_, err := newBackend(t, e).Verify(context.Background(), testRequest())
	require.ErrorIs(err, ErrVerificationFailed)
	// a failed verification is not polled again
	checks, _, _ := e.seen()
	require.Equal(1, checks)
}

func TestEtherscanStillPending(t *testing.T) {
	e := &fakeExplorer{
		submit:   etherscanResponse{Status: "1", Message: "OK", Result: "guid-3"},
		statuses: []etherscanResponse{{Status: "0", Message: "NOTOK", Result: "Pending in queue"}},
	}
	_, err := newBackend(t, e).Verify(context.Background(), testRequest())
	require.ErrorIs(t, err, errPending)
	checks, _, _ := e.seen()
	require.Equal(t, 3, checks)
}

func TestEtherscanMissingCompilerData(t *testing.T) {
	req := testRequest()
	req.BuildInfo = nil
	_, err := NewEtherscanBackend("http://localhost", "", 0, nil).Verify(context.Background(), req)
	require.Error(t, err)
}
