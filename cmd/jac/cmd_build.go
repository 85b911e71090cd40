// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/clihost"
)

var buildCacheDir string

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Compile a Jac module and populate its bytecode cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)

		_, mod, err := compileEntry(cmd.Context(), args[0], buildCacheDir)
		if err != nil {
			exitCode = host.Fail("build", start, err)
			return nil
		}
		exitCode = host.Succeed("build", start, map[string]any{
			"module":     mod.Name,
			"archetypes": len(mod.Archetypes),
			"functions":  len(mod.Functions),
		})
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildCacheDir, "cache-dir", "", "bytecode cache directory (default .jac_cache next to the file)")
}
