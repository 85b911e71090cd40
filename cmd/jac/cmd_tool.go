// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/clihost"
	"github.com/jac-lang/jac/internal/extern"
)

var toolCmd = &cobra.Command{
	Use:   "tool <name>",
	Short: "Run a registered developer tool backend (e.g. lsp)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)

		switch args[0] {
		case "lsp":
			srv := extern.NoopLSPServer{}
			if err := srv.Serve(cmd.Context()); err != nil {
				exitCode = host.Fail("tool lsp", start, err)
				return nil
			}
			exitCode = host.Succeed("tool lsp", start, nil)
		default:
			exitCode = host.Fail("tool", start, fmt.Errorf("tool: no backend registered for %q", args[0]))
		}
		return nil
	},
}
