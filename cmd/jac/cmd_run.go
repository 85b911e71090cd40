// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/clihost"
	"github.com/jac-lang/jac/internal/execctx"
	"github.com/jac-lang/jac/internal/graphmem"
	"github.com/jac-lang/jac/internal/walker"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Compile and run a Jac module's entry walker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		ctx := cmd.Context()

		prog, mod, err := compileEntry(ctx, args[0], "")
		if err != nil {
			exitCode = host.Fail("run", start, err)
			return nil
		}

		db, err := graphmem.OpenInMemory()
		if err != nil {
			exitCode = host.Fail("run", start, fmt.Errorf("opening graph memory: %w", err))
			return nil
		}
		defer db.Close()
		store := graphmem.NewStore(db)

		root, err := store.CreateRoot(ctx)
		if err != nil {
			exitCode = host.Fail("run", start, fmt.Errorf("creating root: %w", err))
			return nil
		}
		ec := &execctx.ExecCtx{RootID: root.ID, Store: store, Program: prog}

		rt := walker.New()
		result, err := rt.RunEntry(ctx, ec, mod)
		if err != nil {
			exitCode = host.Fail("run", start, err)
			return nil
		}
		exitCode = host.Succeed("run", start, result)
		return nil
	},
}
