// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/clihost"
	"github.com/jac-lang/jac/internal/extern"
)

var py2jacCmd = &cobra.Command{
	Use:   "py2jac <file>",
	Short: "Transpile a Python source file to Jac",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranspile(cmd, args[0], true)
	},
}

var jac2pyCmd = &cobra.Command{
	Use:   "jac2py <file>",
	Short: "Transpile a Jac source file to Python",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranspile(cmd, args[0], false)
	},
}

func runTranspile(cmd *cobra.Command, file string, pyToJac bool) error {
	start := time.Now()
	name := "jac2py"
	if pyToJac {
		name = "py2jac"
	}
	host := clihost.New(jsonOutput)

	src, err := os.ReadFile(file)
	if err != nil {
		exitCode = host.Fail(name, start, fmt.Errorf("%s: %w", name, err))
		return nil
	}

	t := extern.NoopTranspiler{}
	var out string
	if pyToJac {
		out, err = t.PyToJac(cmd.Context(), string(src))
	} else {
		out, err = t.JacToPy(cmd.Context(), string(src))
	}
	if err != nil {
		exitCode = host.Fail(name, start, err)
		return nil
	}
	fmt.Print(out)
	exitCode = clihost.ExitSuccess
	return nil
}
