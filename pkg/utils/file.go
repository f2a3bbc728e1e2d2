// Copyright (C) 2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package utils

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileExists checks if a regular file exists on fs
func FileExists(fs afero.Fs, filename string) bool {
	info, err := fs.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ExpandHome expands ~ symbol to home directory
func ExpandHome(path string) string {
	if path == "" {
		home, _ := os.UserHomeDir()
		return home
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}
	return path
}
