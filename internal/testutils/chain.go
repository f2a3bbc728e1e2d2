// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package testutils

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/lendr-finance/lendr-deployer/pkg/evm"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	codeMarker    = "LENDR:"
	proxyName     = "ERC1967Proxy"
	fakeGasUsed   = 100_000
	defaultMcrWei = 1_100_000_000_000_000_000
)

var (
	implementationSlot = common.HexToHash("0x360894a13ba1a3210667c828492db98dca3e2076c3732a8b1e1b2b4d2ed4a1f4")

	ErrTransient = errors.New("connection reset by peer")
	errRevert    = errors.New("execution reverted")
)

// Write is a state changing call the fake chain executed successfully
type Write struct {
	To       common.Address
	Contract string
	Method   string
	Args     []any
}

type OracleRecord struct {
	Oracle       common.Address
	Timeout      *big.Int
	IsEthIndexed bool
}

// FakeContract is the simulated state of a contract deployed on a FakeChain
type FakeContract struct {
	Name             string
	Address          common.Address
	ConstructorArgs  []byte
	Storage          map[common.Hash]common.Hash
	Initialized      bool
	AddressSetup     bool
	Addresses        []common.Address
	SetupInitialized bool
	Owner            common.Address
	Mcr              map[common.Address]*big.Int
	Active           map[common.Address]bool
	Oracles          map[common.Address]OracleRecord
}

type fakeMethod struct {
	sig     string
	inputs  abi.Arguments
	outputs abi.Arguments
	write   bool
	run     func(c *FakeChain, target *FakeContract, args []any) ([]any, error)
}

// FakeChain is an in-memory evm.Backend simulating the Lendr contracts the deployer talks to.
// Contracts are identified by the creation code written by WriteArtifacts.
type FakeChain struct {
	mu        sync.Mutex
	sender    common.Address
	chainID   *big.Int
	nonce     uint64
	block     uint64
	balance   *big.Int
	receipts  map[common.Hash]*types.Receipt
	contracts map[common.Address]*FakeContract
	methods   map[[4]byte]fakeMethod
	writes    []Write
	sends     int
	deploys   int

	// FailDeploys makes the next creation transactions fail before reaching the chain
	FailDeploys int
	// FailImplReads makes the next reads of the implementation slot fail
	FailImplReads int
	// EmptyImplSlot leaves the implementation slot of new proxies unset
	EmptyImplSlot bool
	// FailBalanceReads makes the next balance reads fail
	FailBalanceReads int
	// FailFees makes every fee suggestion fail
	FailFees    bool
	reverts     map[string]struct{}
	failedReads map[string]error
}

func NewFakeChain(sender common.Address) *FakeChain {
	c := &FakeChain{
		sender:      sender,
		chainID:     big.NewInt(31337),
		balance:     new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18)),
		receipts:    map[common.Hash]*types.Receipt{},
		contracts:   map[common.Address]*FakeContract{},
		reverts:     map[string]struct{}{},
		failedReads: map[string]error{},
		block:       1,
	}
	c.methods = buildMethods()
	return c
}

// Revert makes every transaction calling method on contract revert. An empty contract
// matches every contract.
func (c *FakeChain) Revert(contract string, method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reverts[contract+"."+method] = struct{}{}
}

// FailRead makes every read only call of method fail with err
func (c *FakeChain) FailRead(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedReads[method] = err
}

// Contract returns the simulated state at addr
func (c *FakeChain) Contract(addr common.Address) *FakeContract {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contracts[addr]
}

// ContractByName returns the last deployed contract named name
func (c *FakeChain) ContractByName(name string) *FakeContract {
	c.mu.Lock()
	defer c.mu.Unlock()
	var found *FakeContract
	for _, fc := range c.contracts {
		if fc.Name == name && (found == nil || fc.Storage[implementationSlot] != (common.Hash{})) {
			found = fc
		}
	}
	return found
}

// AddContract places a contract without a creation transaction, as a pre existing deployment
func (c *FakeChain) AddContract(name string, addr common.Address) *FakeContract {
	c.mu.Lock()
	defer c.mu.Unlock()
	fc := newFakeContract(name, addr, c.sender)
	c.contracts[addr] = fc
	return fc
}

// Writes returns the successful state changing calls of method, every one when method is empty
func (c *FakeChain) Writes(method string) []Write {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Write
	for _, w := range c.writes {
		if method == "" || w.Method == method {
			out = append(out, w)
		}
	}
	return out
}

// Sends counts every transaction that reached the chain
func (c *FakeChain) Sends() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sends
}

// Deploys counts the creation transactions that reached the chain
func (c *FakeChain) Deploys() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deploys
}

func (c *FakeChain) Sender() common.Address {
	return c.sender
}

func (c *FakeChain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

func (c *FakeChain) SuggestFees(context.Context) (*big.Int, *big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailFees {
		return nil, nil, ErrTransient
	}
	return big.NewInt(3_000_000_000), big.NewInt(1_000_000_000), nil
}

func (c *FakeChain) Balance(_ context.Context, addr common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailBalanceReads > 0 {
		c.FailBalanceReads--
		return nil, ErrTransient
	}
	if addr != c.sender {
		return new(big.Int), nil
	}
	return new(big.Int).Set(c.balance), nil
}

func (c *FakeChain) StorageAt(_ context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot == implementationSlot && c.FailImplReads > 0 {
		c.FailImplReads--
		return common.Hash{}, ErrTransient
	}
	fc, ok := c.contracts[addr]
	if !ok {
		return common.Hash{}, nil
	}
	return fc.Storage[slot], nil
}

func (c *FakeChain) Call(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fc, ok := c.contracts[to]
	if !ok || len(data) < 4 {
		return nil, nil
	}
	m, ok := c.methods[[4]byte(data[:4])]
	if !ok {
		return nil, nil
	}
	if err, ok := c.failedReads[m.sig]; ok {
		return nil, err
	}
	args, err := m.inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	if m.write {
		// a dry run must not change state
		return nil, nil
	}
	out, err := m.run(c, fc, args)
	if err != nil {
		return nil, err
	}
	return m.outputs.Pack(out...)
}

func (c *FakeChain) Send(_ context.Context, req evm.TxRequest) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req.To == nil && c.FailDeploys > 0 {
		c.FailDeploys--
		return common.Hash{}, ErrTransient
	}
	c.sends++
	nonce := c.nonce
	c.nonce++
	c.block++
	nonceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBytes, nonce)
	txHash := crypto.Keccak256Hash(c.sender.Bytes(), nonceBytes, req.Data)
	receipt := &types.Receipt{
		TxHash:      txHash,
		Status:      types.ReceiptStatusSuccessful,
		GasUsed:     fakeGasUsed,
		BlockNumber: new(big.Int).SetUint64(c.block),
	}
	price := req.Fees.GasFeeCap
	if price == nil {
		price = big.NewInt(1)
	}
	c.balance.Sub(c.balance, new(big.Int).Mul(price, big.NewInt(fakeGasUsed)))
	var err error
	if req.To == nil {
		c.deploys++
		var addr common.Address
		addr, err = c.create(nonce, req.Data)
		receipt.ContractAddress = addr
	} else {
		err = c.execute(*req.To, req.Data)
	}
	if err != nil {
		receipt.Status = types.ReceiptStatusFailed
		receipt.ContractAddress = common.Address{}
	}
	c.receipts[txHash] = receipt
	return txHash, nil
}

func (c *FakeChain) WaitForConfirmations(_ context.Context, txHash common.Hash, _ uint64) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	receipt, ok := c.receipts[txHash]
	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", txHash.Hex())
	}
	return receipt, nil
}

func (c *FakeChain) create(nonce uint64, data []byte) (common.Address, error) {
	name, args, err := splitCreationCode(data)
	if err != nil {
		return common.Address{}, err
	}
	addr := crypto.CreateAddress(c.sender, nonce)
	if name != proxyName {
		fc := newFakeContract(name, addr, c.sender)
		fc.ConstructorArgs = args
		c.contracts[addr] = fc
		return addr, nil
	}
	values, err := proxyArgs.Unpack(args)
	if err != nil {
		return common.Address{}, err
	}
	implAddr := values[0].(common.Address)
	initData := values[1].([]byte)
	impl, ok := c.contracts[implAddr]
	if !ok {
		return common.Address{}, fmt.Errorf("proxy implementation %s not deployed", implAddr.Hex())
	}
	proxy := newFakeContract(impl.Name, addr, c.sender)
	if !c.EmptyImplSlot {
		proxy.Storage[implementationSlot] = common.BytesToHash(implAddr.Bytes())
	}
	c.contracts[addr] = proxy
	if len(initData) > 0 {
		if err := c.execute(addr, initData); err != nil {
			delete(c.contracts, addr)
			return common.Address{}, err
		}
	}
	return addr, nil
}

func (c *FakeChain) execute(to common.Address, data []byte) error {
	fc, ok := c.contracts[to]
	if !ok {
		// calls to accounts without code succeed without effects
		return nil
	}
	if len(data) < 4 {
		return errRevert
	}
	m, ok := c.methods[[4]byte(data[:4])]
	if !ok || !m.write {
		return errRevert
	}
	if _, ok := c.reverts[fc.Name+"."+m.sig]; ok {
		return errRevert
	}
	if _, ok := c.reverts["."+m.sig]; ok {
		return errRevert
	}
	args, err := m.inputs.Unpack(data[4:])
	if err != nil {
		return err
	}
	if _, err := m.run(c, fc, args); err != nil {
		return err
	}
	c.writes = append(c.writes, Write{To: to, Contract: fc.Name, Method: m.sig, Args: args})
	return nil
}

func newFakeContract(name string, addr common.Address, owner common.Address) *FakeContract {
	return &FakeContract{
		Name:    name,
		Address: addr,
		Storage: map[common.Hash]common.Hash{},
		Owner:   owner,
		Mcr:     map[common.Address]*big.Int{},
		Active:  map[common.Address]bool{},
		Oracles: map[common.Address]OracleRecord{},
	}
}

// CreationCode is the bytecode the fake chain recognizes as contract name
func CreationCode(name string) []byte {
	return []byte(codeMarker + name + ";")
}

func splitCreationCode(data []byte) (string, []byte, error) {
	if !bytes.HasPrefix(data, []byte(codeMarker)) {
		return "", nil, fmt.Errorf("unknown creation code")
	}
	rest := data[len(codeMarker):]
	end := bytes.IndexByte(rest, ';')
	if end < 0 {
		return "", nil, fmt.Errorf("malformed creation code")
	}
	return string(rest[:end]), rest[end+1:], nil
}

func mustArgs(types ...string) abi.Arguments {
	args := abi.Arguments{}
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}

var proxyArgs = mustArgs("address", "bytes")

func selector(sig string) [4]byte {
	return [4]byte(crypto.Keccak256([]byte(sig))[:4])
}

func inputTypes(sig string) []string {
	inner := sig[strings.Index(sig, "(")+1 : len(sig)-1]
	if inner == "" {
		return nil
	}
	return strings.Split(inner, ",")
}

func buildMethods() map[[4]byte]fakeMethod {
	methods := map[[4]byte]fakeMethod{}
	add := func(sig string, write bool, outputs []string, run func(*FakeChain, *FakeContract, []any) ([]any, error)) {
		methods[selector(sig)] = fakeMethod{
			sig:     sig,
			inputs:  mustArgs(inputTypes(sig)...),
			outputs: mustArgs(outputs...),
			write:   write,
			run:     run,
		}
	}
	record := func(*FakeChain, *FakeContract, []any) ([]any, error) { return nil, nil }

	add("initialize()", true, nil, initialize)
	add("initialize(address)", true, nil, initialize)
	add("NAME()", false, []string{"string"}, func(_ *FakeChain, fc *FakeContract, _ []any) ([]any, error) {
		return []any{fc.Name}, nil
	})
	add("isAddressSetupInitialized()", false, []string{"bool"}, func(_ *FakeChain, fc *FakeContract, _ []any) ([]any, error) {
		return []any{fc.AddressSetup}, nil
	})
	add("setAddresses(address[])", true, nil, func(_ *FakeChain, fc *FakeContract, args []any) ([]any, error) {
		if fc.AddressSetup {
			return nil, errRevert
		}
		addrs := args[0].([]common.Address)
		for _, a := range addrs {
			if a == (common.Address{}) {
				return nil, errRevert
			}
		}
		fc.Addresses = addrs
		fc.AddressSetup = true
		return nil, nil
	})
	add("setAddresses(address,address,address)", true, nil, record)
	add("setAddresses(address,address)", true, nil, record)
	add("addWhitelist(address)", true, nil, record)
	add("setRedemptionSofteningParam(uint256)", true, nil, record)
	add("setCommunityIssuance(address)", true, nil, record)
	add("setLNDRStaking(address)", true, nil, record)
	add("setRedemptionBlockTimestamp(address,uint256)", true, nil, record)
	add("isSetupInitialized()", false, []string{"bool"}, func(_ *FakeChain, fc *FakeContract, _ []any) ([]any, error) {
		return []any{fc.SetupInitialized}, nil
	})
	add("setSetupIsInitialized()", true, nil, func(_ *FakeChain, fc *FakeContract, _ []any) ([]any, error) {
		fc.SetupInitialized = true
		return nil, nil
	})
	add("owner()", false, []string{"address"}, func(_ *FakeChain, fc *FakeContract, _ []any) ([]any, error) {
		return []any{fc.Owner}, nil
	})
	add("transferOwnership(address)", true, nil, func(c *FakeChain, fc *FakeContract, args []any) ([]any, error) {
		if fc.Owner != c.sender {
			return nil, errRevert
		}
		fc.Owner = args[0].(common.Address)
		return nil, nil
	})
	add("getMcr(address)", false, []string{"uint256"}, func(_ *FakeChain, fc *FakeContract, args []any) ([]any, error) {
		mcr, ok := fc.Mcr[args[0].(common.Address)]
		if !ok {
			return []any{new(big.Int)}, nil
		}
		return []any{mcr}, nil
	})
	add("getIsActive(address)", false, []string{"bool"}, func(_ *FakeChain, fc *FakeContract, args []any) ([]any, error) {
		return []any{fc.Active[args[0].(common.Address)]}, nil
	})
	add("addNewCollateral(address,uint256,uint256)", true, nil, func(_ *FakeChain, fc *FakeContract, args []any) ([]any, error) {
		asset := args[0].(common.Address)
		if _, ok := fc.Mcr[asset]; ok {
			return nil, errRevert
		}
		fc.Mcr[asset] = new(big.Int).SetUint64(defaultMcrWei)
		return nil, nil
	})
	add("setCollateralParameters(address,uint256,uint256,uint256,uint256,uint256,uint256,uint256)", true, nil,
		func(_ *FakeChain, fc *FakeContract, args []any) ([]any, error) {
			asset := args[0].(common.Address)
			if _, ok := fc.Mcr[asset]; !ok {
				return nil, errRevert
			}
			fc.Mcr[asset] = args[3].(*big.Int)
			fc.Active[asset] = true
			return nil, nil
		})
	add("PERCENT_DIVISOR_DEFAULT()", false, []string{"uint256"}, func(*FakeChain, *FakeContract, []any) ([]any, error) {
		return []any{big.NewInt(200)}, nil
	})
	add("REDEMPTION_FEE_FLOOR_DEFAULT()", false, []string{"uint256"}, func(*FakeChain, *FakeContract, []any) ([]any, error) {
		return []any{big.NewInt(5_000_000_000_000_000)}, nil
	})
	add("oracles(address)", false, []string{"address", "uint8", "uint256", "uint256", "bool"},
		func(_ *FakeChain, fc *FakeContract, args []any) ([]any, error) {
			r, ok := fc.Oracles[args[0].(common.Address)]
			if !ok {
				return []any{common.Address{}, uint8(0), new(big.Int), new(big.Int), false}, nil
			}
			return []any{r.Oracle, uint8(0), r.Timeout, big.NewInt(8), r.IsEthIndexed}, nil
		})
	add("setOracle(address,address,uint8,uint256,bool,bool)", true, nil, func(c *FakeChain, fc *FakeContract, args []any) ([]any, error) {
		if fc.Owner != c.sender {
			return nil, errRevert
		}
		fc.Oracles[args[0].(common.Address)] = OracleRecord{
			Oracle:       args[1].(common.Address),
			Timeout:      args[3].(*big.Int),
			IsEthIndexed: args[4].(bool),
		}
		return nil, nil
	})
	return methods
}

func initialize(_ *FakeChain, fc *FakeContract, _ []any) ([]any, error) {
	if fc.Initialized {
		return nil, errRevert
	}
	fc.Initialized = true
	return nil, nil
}
