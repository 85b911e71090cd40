// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/clihost"
	"github.com/jac-lang/jac/internal/extern"
)

var createDir string

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Scaffold a new Jac project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		dir := createDir
		if dir == "" {
			dir = args[0]
		}

		scaffolder := extern.NoopScaffolder{}
		if err := scaffolder.Scaffold(cmd.Context(), args[0], dir); err != nil {
			exitCode = host.Fail("create", start, err)
			return nil
		}
		exitCode = host.Succeed("create", start, map[string]any{"name": args[0], "dir": dir})
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createDir, "dir", "", "directory to scaffold into (default: ./<name>)")
}
