// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Identityd Contributors

// Package xdg resolves identityd's XDG Base Directory paths.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "identityd"

// ConfigFileName is the config file looked up in ConfigDir.
const ConfigFileName = "config.yaml"

// ConfigDir returns the identityd config directory.
// Checks XDG_CONFIG_HOME first, falls back to $HOME/.config.
func ConfigDir(getenv func(string) string) string {
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigFile returns ConfigDir/config.yaml when that file exists,
// or "" otherwise.
func DefaultConfigFile(getenv func(string) string) string {
	if getenv("XDG_CONFIG_HOME") == "" && getenv("HOME") == "" {
		return ""
	}
	path := filepath.Join(ConfigDir(getenv), ConfigFileName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return path
}
