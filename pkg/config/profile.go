// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/models"
	"github.com/lendr-finance/lendr-deployer/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables overriding profile keys, for example
// LENDR_RPCURL overrides rpcUrl
const EnvPrefix = "LENDR"

var (
	ErrProfileNotFound = errors.New("network profile not found")

	profileExtensions = []string{".yaml", ".yml", ".json"}
)

// LoadProfile reads the profile of network from dir, applies the defaults and validates it
func LoadProfile(fs afero.Fs, dir string, network string) (models.NetworkProfile, error) {
	path, err := profilePath(fs, dir, network)
	if err != nil {
		return models.NetworkProfile{}, err
	}
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return models.NetworkProfile{}, fmt.Errorf("failure reading network profile %s: %w", path, err)
	}
	profile := models.NetworkProfile{}
	if err := v.Unmarshal(&profile, viper.DecodeHook(DecodeHook())); err != nil {
		return models.NetworkProfile{}, fmt.Errorf("failure decoding network profile %s: %w", path, err)
	}
	if profile.Name == "" {
		profile.Name = network
	}
	profile.ApplyDefaults()
	if err := profile.Validate(); err != nil {
		return models.NetworkProfile{}, err
	}
	return profile, nil
}

func profilePath(fs afero.Fs, dir string, network string) (string, error) {
	for _, ext := range profileExtensions {
		path := filepath.Join(dir, network+ext)
		if utils.FileExists(fs, path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrProfileNotFound, network, dir)
}

// ListProfiles returns the names of the networks with a profile in dir
func ListProfiles(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !utils.Belongs(profileExtensions, ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DecodeHook converts the scalar notations of a profile into their typed values
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		addressHook,
		etherAmountHook,
		gweiAmountHook,
	)
}

var (
	addressType     = reflect.TypeOf(common.Address{})
	etherAmountType = reflect.TypeOf(models.EtherAmount{})
	gweiAmountType  = reflect.TypeOf(models.GweiAmount{})
)

func addressHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != addressType || from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return nil, fmt.Errorf("%q is not an address", s)
	}
	return common.HexToAddress(s), nil
}

// decimalString renders the numbers yaml and json decode into the decimal notation
func decimalString(data interface{}) (string, bool) {
	switch v := data.(type) {
	case string:
		return strings.TrimSpace(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func etherAmountHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != etherAmountType {
		return data, nil
	}
	s, ok := decimalString(data)
	if !ok {
		return data, nil
	}
	if s == "" {
		return models.EtherAmount{}, nil
	}
	wei, err := utils.ParseEther(s)
	if err != nil {
		return nil, err
	}
	return models.NewEtherAmount(wei), nil
}

func gweiAmountHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != gweiAmountType {
		return data, nil
	}
	s, ok := decimalString(data)
	if !ok {
		return data, nil
	}
	if s == "" {
		return models.GweiAmount{}, nil
	}
	wei, err := utils.ParseGwei(s)
	if err != nil {
		return nil, err
	}
	return models.GweiAmount{Int: wei}, nil
}

// ProfilesDir resolves the networks directory, the default one when dir is empty
func ProfilesDir(dir string) string {
	if dir == "" {
		return constants.DefaultNetworksDir
	}
	return utils.ExpandHome(dir)
}
