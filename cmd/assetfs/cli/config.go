// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/assetfs/lib/config"
)

// ConfigFlag is the --config flag shared by commands that read the
// daemon configuration.
type ConfigFlag struct {
	Path string
}

// AddFlags registers --config.
func (c *ConfigFlag) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&c.Path, "config", "c", "", "path to the assetfs config file (default $"+config.EnvironmentVariable+")")
}

// Load reads the file named by --config, or by ASSETFS_CONFIG when the
// flag is unset.
func (c *ConfigFlag) Load() (*config.Config, error) {
	if c.Path != "" {
		return config.LoadFile(c.Path)
	}
	return config.Load()
}
