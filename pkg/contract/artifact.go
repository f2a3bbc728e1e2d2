// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/afero"
)

const (
	artifactSuffix    = ".json"
	debugSuffix       = ".dbg.json"
	buildInfoDir      = "build-info"
	initializerMethod = "initialize"
)

var (
	ErrUnlinkedBytecode = errors.New("bytecode has unlinked libraries")
	ErrNoBytecode       = errors.New("artifact has no creation bytecode")
	ErrAmbiguousName    = errors.New("contract name matches more than one artifact")
)

// Artifact is a compiled contract as written by hardhat under artifacts/**/Name.json
type Artifact struct {
	ContractName     string          `json:"contractName"`
	SourceName       string          `json:"sourceName"`
	RawABI           json.RawMessage `json:"abi"`
	Bytecode         string          `json:"bytecode"`
	DeployedBytecode string          `json:"deployedBytecode"`

	ABI  abi.ABI `json:"-"`
	Path string  `json:"-"`
}

// BuildInfo holds the compiler input an artifact was produced from
type BuildInfo struct {
	SolcVersion     string          `json:"solcVersion"`
	SolcLongVersion string          `json:"solcLongVersion"`
	Input           json.RawMessage `json:"input"`
}

type debugInfo struct {
	BuildInfo string `json:"buildInfo"`
}

// FullyQualifiedName is the "source:Name" form explorers expect
func (a *Artifact) FullyQualifiedName() string {
	return a.SourceName + ":" + a.ContractName
}

// ConstructorArgs ABI encodes args for the constructor
func (a *Artifact) ConstructorArgs(args ...any) ([]byte, error) {
	packed, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("failure packing constructor args of %s: %w", a.ContractName, err)
	}
	return packed, nil
}

// CreationCode is the bytecode followed by the encoded constructor args
func (a *Artifact) CreationCode(args ...any) ([]byte, error) {
	if strings.Contains(a.Bytecode, "__") {
		return nil, fmt.Errorf("%s: %w", a.ContractName, ErrUnlinkedBytecode)
	}
	code := common.FromHex(a.Bytecode)
	if len(code) == 0 {
		return nil, fmt.Errorf("%s: %w", a.ContractName, ErrNoBytecode)
	}
	packed, err := a.ConstructorArgs(args...)
	if err != nil {
		return nil, err
	}
	return append(code, packed...), nil
}

func (a *Artifact) HasZeroArgInitializer() bool {
	for _, m := range a.ABI.Methods {
		if m.RawName == initializerMethod && len(m.Inputs) == 0 {
			return true
		}
	}
	return false
}

// InitData is the calldata a proxy runs on construction: initialize() when the contract has
// a zero argument initializer and no args are given, initialize(args...) otherwise.
// It is empty when there is nothing to initialize.
func (a *Artifact) InitData(args ...any) ([]byte, error) {
	if len(args) == 0 {
		if !a.HasZeroArgInitializer() {
			return nil, nil
		}
		return FuncInitialize.EncodeArgs()
	}
	for _, m := range a.ABI.Methods {
		if m.RawName != initializerMethod || len(m.Inputs) != len(args) {
			continue
		}
		packed, err := m.Inputs.Pack(args...)
		if err != nil {
			return nil, fmt.Errorf("failure packing %s.%s: %w", a.ContractName, m.Sig, err)
		}
		data := make([]byte, 0, len(m.ID)+len(packed))
		data = append(data, m.ID...)
		return append(data, packed...), nil
	}
	return nil, fmt.Errorf("%s has no initializer taking %d arguments", a.ContractName, len(args))
}

// Resolver finds hardhat artifacts by contract name under an artifacts directory
type Resolver struct {
	fs    afero.Fs
	root  string
	once  sync.Once
	index map[string][]string
	err   error
	cache map[string]*Artifact
	mu    sync.Mutex
}

func NewResolver(fs afero.Fs, root string) *Resolver {
	return &Resolver{
		fs:    fs,
		root:  root,
		cache: map[string]*Artifact{},
	}
}

func (r *Resolver) Root() string {
	return r.root
}

func (r *Resolver) buildIndex() {
	r.index = map[string][]string{}
	r.err = afero.Walk(r.fs, r.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == buildInfoDir {
				return filepath.SkipDir
			}
			return nil
		}
		name := info.Name()
		if !strings.HasSuffix(name, artifactSuffix) || strings.HasSuffix(name, debugSuffix) {
			return nil
		}
		contractName := strings.TrimSuffix(name, artifactSuffix)
		r.index[contractName] = append(r.index[contractName], path)
		return nil
	})
	if r.err != nil {
		r.err = fmt.Errorf("failure indexing artifacts under %s: %w", r.root, r.err)
	}
}

// Names lists every contract name found under the artifacts directory
func (r *Resolver) Names() ([]string, error) {
	r.once.Do(r.buildIndex)
	if r.err != nil {
		return nil, r.err
	}
	names := make([]string, 0, len(r.index))
	for name := range r.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Artifact loads the artifact of [name]
func (r *Resolver) Artifact(name string) (*Artifact, error) {
	r.once.Do(r.buildIndex)
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.cache[name]; ok {
		return a, nil
	}
	paths := r.index[name]
	switch len(paths) {
	case 0:
		return nil, fmt.Errorf("%w: %s under %s", constants.ErrArtifactNotFound, name, r.root)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrAmbiguousName, name, strings.Join(paths, ", "))
	}
	a, err := loadArtifact(r.fs, paths[0])
	if err != nil {
		return nil, err
	}
	r.cache[name] = a
	return a, nil
}

func loadArtifact(fs afero.Fs, path string) (*Artifact, error) {
	bs, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	a := &Artifact{}
	if err := json.Unmarshal(bs, a); err != nil {
		return nil, fmt.Errorf("failure decoding artifact %s: %w", path, err)
	}
	parsed, err := abi.JSON(bytes.NewReader(a.RawABI))
	if err != nil {
		return nil, fmt.Errorf("failure parsing abi of %s: %w", path, err)
	}
	a.ABI = parsed
	a.Path = path
	return a, nil
}

// BuildInfo loads the compiler input referenced by the debug file next to the artifact
func (r *Resolver) BuildInfo(a *Artifact) (*BuildInfo, error) {
	dbgPath := strings.TrimSuffix(a.Path, artifactSuffix) + debugSuffix
	bs, err := afero.ReadFile(r.fs, dbgPath)
	if err != nil {
		return nil, fmt.Errorf("failure reading %s: %w", dbgPath, err)
	}
	dbg := debugInfo{}
	if err := json.Unmarshal(bs, &dbg); err != nil {
		return nil, fmt.Errorf("failure decoding %s: %w", dbgPath, err)
	}
	if dbg.BuildInfo == "" {
		return nil, fmt.Errorf("%s does not reference a build info", dbgPath)
	}
	path := filepath.Join(filepath.Dir(dbgPath), dbg.BuildInfo)
	bs, err = afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failure reading build info %s: %w", path, err)
	}
	info := &BuildInfo{}
	if err := json.Unmarshal(bs, info); err != nil {
		return nil, fmt.Errorf("failure decoding build info %s: %w", path, err)
	}
	return info, nil
}
