// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"path/filepath"

	"github.com/lendr-finance/lendr-deployer/pkg/constants"
	"github.com/lendr-finance/lendr-deployer/pkg/utils"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds the settings of the tool itself, such as the metrics opt in. Network
// profiles are loaded separately with LoadProfile.
type Config struct {
	fs afero.Fs
	v  *viper.Viper
}

func New(fs afero.Fs) *Config {
	v := viper.New()
	v.SetFs(fs)
	return &Config{fs: fs, v: v}
}

func (c *Config) SetConfig(log logging.Logger, s string) {
	c.v.SetConfigType("json")
	c.v.SetConfigFile(s)
	if err := c.v.ReadInConfig(); err == nil {
		log.Info("Using config file", zap.String("config-file", s))
	} else {
		log.Info("No config file found", zap.String("config-file", s))
	}
}

func (c *Config) GetConfigPath() string {
	return c.v.ConfigFileUsed()
}

func (c *Config) ConfigFileExists() bool {
	path := c.GetConfigPath()
	return path != "" && utils.FileExists(c.fs, path)
}

// SetConfigValue sets the value of a configuration key and writes the config file
func (c *Config) SetConfigValue(key string, value interface{}) error {
	c.v.Set(key, value)
	path := c.GetConfigPath()
	if err := c.fs.MkdirAll(filepath.Dir(path), constants.DefaultPerms755); err != nil {
		return err
	}
	return c.v.WriteConfigAs(path)
}

func (c *Config) ConfigValueIsSet(key string) bool {
	return c.v.IsSet(key)
}

func (c *Config) GetConfigBoolValue(key string) bool {
	return c.v.GetBool(key)
}

func (c *Config) GetConfigStringValue(key string) string {
	return c.v.GetString(key)
}
