// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command jac is the Jac language CLI: compiling, checking, testing,
// formatting, and serving Jac source files over the API Server, with a
// Hot Reloader keeping a running server's module current as its
// sources change.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// exitCode is set by each subcommand's RunE before returning, since
// cobra itself only distinguishes "returned an error" from success and
// spec.md §6 needs finer-grained exit codes (format/check have their
// own conventions beyond plain 0/1).
var exitCode int

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "jac",
	Short: "Compile, run, and serve Jac modules",
	Long: `jac is the command-line entry point for the Jac toolchain: it
compiles and runs modules through the Program/Source Resolver pipeline,
exposes them over the API Server with a Hot Reloader watching sources
for changes, and hosts project-maintenance and introspection commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON result envelopes")
	rootCmd.AddCommand(
		runCmd,
		buildCmd,
		checkCmd,
		formatCmd,
		testCmd,
		startCmd,
		serveCmd,
		cleanCmd,
		configCmd,
		pluginsCmd,
		createCmd,
		dotCmd,
		irCmd,
		py2jacCmd,
		jac2pyCmd,
		toolCmd,
	)
}
