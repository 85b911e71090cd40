// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/clihost"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins [list]",
	Short: "Report the Meta-Importer's plugin state",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)

		disabled := os.Getenv("JAC_DISABLE_PLUGINS") == "1"
		disabledList := os.Getenv("JAC_DISABLED_PLUGINS")

		info := map[string]any{
			"disabled":          disabled,
			"disabled_packages": disabledList,
			"providers":         []string{},
		}
		if disabled {
			host.Warn("JAC_DISABLE_PLUGINS=1: every plugin import resolves to a fallback passthrough")
		}
		if disabledList != "" {
			host.Warn("JAC_DISABLED_PLUGINS=%s: these packages fall back even for subprocesses", disabledList)
		}
		exitCode = host.Succeed("plugins", start, info)
		return nil
	},
}
