// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/clihost"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Run the compile pipeline and report diagnostics without generating code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		file := args[0]

		if !strings.HasSuffix(file, ".jac") {
			exitCode = host.Fail("check", start, fmt.Errorf("check: %s is not a .jac file", file))
			return nil
		}

		prog, entry, err := buildProgram(file, "")
		if err != nil {
			exitCode = host.Fail("check", start, err)
			return nil
		}
		mod, compileErr := prog.Compile(cmd.Context(), entry)
		diags := prog.Diagnostics(entry)

		for _, d := range diags {
			host.Warn("%s:%d: [%s] %s", file, d.Span.FirstLine, d.Stage, d.Message)
		}

		if compileErr != nil {
			exitCode = host.Fail("check", start, compileErr)
			return nil
		}
		if len(diags) > 0 {
			exitCode = host.Fail("check", start, fmt.Errorf("check: %d diagnostic(s)", len(diags)))
			return nil
		}
		exitCode = host.Succeed("check", start, map[string]any{"module": mod.Name, "diagnostics": 0})
		return nil
	},
}
