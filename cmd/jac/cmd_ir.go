// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/clihost"
)

var irCmd = &cobra.Command{
	Use:   "ir <kind> <file>",
	Short: "Dump an intermediate representation of a module: ast or diagnostics",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		ctx := cmd.Context()
		kind, file := args[0], args[1]

		prog, entry, err := buildProgram(file, "")
		if err != nil {
			exitCode = host.Fail("ir", start, err)
			return nil
		}
		mod, compileErr := prog.Compile(ctx, entry)

		switch kind {
		case "ast":
			if mod == nil {
				exitCode = host.Fail("ir", start, fmt.Errorf("compiling %s: %w", file, compileErr))
				return nil
			}
			data, err := json.MarshalIndent(mod, "", "  ")
			if err != nil {
				exitCode = host.Fail("ir", start, err)
				return nil
			}
			fmt.Println(string(data))
			exitCode = clihost.ExitSuccess
		case "diagnostics":
			diags := prog.Diagnostics(entry)
			data, err := json.MarshalIndent(diags, "", "  ")
			if err != nil {
				exitCode = host.Fail("ir", start, err)
				return nil
			}
			fmt.Println(string(data))
			if len(diags) > 0 {
				exitCode = clihost.ExitFailure
				return nil
			}
			exitCode = clihost.ExitSuccess
		default:
			exitCode = host.Fail("ir", start, fmt.Errorf("ir: unknown kind %q (want ast or diagnostics)", kind))
		}
		return nil
	},
}
