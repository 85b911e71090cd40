// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/clihost"
	"github.com/jac-lang/jac/internal/execctx"
	"github.com/jac-lang/jac/internal/graphmem"
	"github.com/jac-lang/jac/internal/program"
	"github.com/jac-lang/jac/internal/walker"
)

var (
	testCaseFilter string
	testGlob       string
	testDir        string
	testFailFast   bool
)

type testCaseResult struct {
	Name   string `json:"name"`
	Module string `json:"module"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run .test.jac annex test cases discovered under the project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		ctx := cmd.Context()

		root := testDir
		if root == "" && len(args) > 0 {
			root = args[0]
		}
		if root == "" {
			root = "."
		}

		entries, err := jacFilesUnder(root)
		if err != nil {
			exitCode = host.Fail("test", start, err)
			return nil
		}

		db, err := graphmem.OpenInMemory()
		if err != nil {
			exitCode = host.Fail("test", start, fmt.Errorf("opening graph memory: %w", err))
			return nil
		}
		defer db.Close()
		store := graphmem.NewStore(db)
		rt := walker.New()

		var results []testCaseResult
		for _, file := range entries {
			if strings.HasSuffix(file, ".test.jac") || strings.HasSuffix(file, ".impl.jac") || strings.HasSuffix(file, ".cl.jac") {
				continue
			}
			if testGlob != "" {
				if match, _ := filepath.Match(testGlob, filepath.Base(file)); !match {
					continue
				}
			}
			prog, mod, err := compileEntry(ctx, file, "")
			if err != nil {
				exitCode = host.Fail("test", start, err)
				return nil
			}
			for _, tmod := range mod.TestMod {
				for _, fn := range tmod.Functions {
					if testCaseFilter != "" && !strings.Contains(fn.Name, testCaseFilter) {
						continue
					}
					res := runTestCase(ctx, prog, store, rt, mod.Name, tmod, fn)
					results = append(results, res)
					if !res.Passed {
						host.Warn("FAIL %s", res.Name)
						if testFailFast {
							exitCode = reportTestResults(host, start, results)
							return nil
						}
					} else {
						host.Info("PASS %s", res.Name)
					}
				}
			}
		}
		exitCode = reportTestResults(host, start, results)
		return nil
	},
}

func init() {
	testCmd.Flags().StringVarP(&testCaseFilter, "test-case", "t", "", "only run test cases whose name contains this substring")
	testCmd.Flags().StringVarP(&testGlob, "files", "f", "", "only run suites whose base module filename matches this glob")
	testCmd.Flags().StringVarP(&testDir, "dir", "d", "", "directory to discover test suites under (default: current directory)")
	testCmd.Flags().BoolVarP(&testFailFast, "fail-fast", "x", false, "stop at the first failing test case")
}

// runTestCase spawns an ephemeral root scoped to this one test case and
// executes fn's body against it, isolating each case's Graph Memory
// state from every other case in the same run.
func runTestCase(ctx context.Context, prog *program.Program, store *graphmem.Store, rt *walker.Runtime, moduleName string, tmod *ast.Module, fn *ast.Ability) testCaseResult {
	res := testCaseResult{Name: fn.Name, Module: moduleName}
	root, err := store.CreateRoot(ctx)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	ec := &execctx.ExecCtx{RootID: root.ID, Store: store, Program: prog}
	if _, err := rt.RunFunction(ctx, ec, tmod, fn); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Passed = true
	return res
}

func reportTestResults(host *clihost.Host, start time.Time, results []testCaseResult) int {
	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}
	if failed > 0 {
		return host.Fail("test", start, fmt.Errorf("test: %d/%d test case(s) failed", failed, len(results)))
	}
	return host.Succeed("test", start, map[string]any{"total": len(results), "failed": 0, "results": results})
}
