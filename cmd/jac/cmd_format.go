// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	godiff "github.com/sourcegraph/go-diff/diff"
	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/clihost"
	"github.com/jac-lang/jac/internal/jacfmt"
	"github.com/jac-lang/jac/internal/parser"
	"github.com/jac-lang/jac/internal/resolver"
)

var formatShowDiff bool
var formatCheckOnly bool

var formatCmd = &cobra.Command{
	Use:   "format <path>",
	Short: "Rewrite one file or every .jac file under a directory in canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)

		files, err := jacFilesUnder(args[0])
		if err != nil {
			exitCode = host.Fail("format", start, err)
			return nil
		}

		var changed []string
		for _, f := range files {
			did, err := formatOne(f, host)
			if err != nil {
				exitCode = host.Fail("format", start, err)
				return nil
			}
			if did {
				changed = append(changed, f)
			}
		}

		if len(changed) > 0 && !formatCheckOnly {
			host.Info("reformatted %d file(s)", len(changed))
		}
		if len(changed) > 0 {
			exitCode = host.Fail("format", start, fmt.Errorf("format: %d file(s) not canonically formatted", len(changed)))
			return nil
		}
		exitCode = host.Succeed("format", start, map[string]any{"files": len(files), "changed": 0})
		return nil
	},
}

func init() {
	formatCmd.Flags().BoolVar(&formatShowDiff, "diff", false, "print a unified diff instead of rewriting the file")
	formatCmd.Flags().BoolVar(&formatCheckOnly, "check", false, "report files that would change without rewriting them")
}

func jacFilesUnder(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var out []string
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".jac") {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

// formatOne reformats file in place (unless formatCheckOnly or
// formatShowDiff), returning whether its canonical form differs from
// what's on disk.
func formatOne(file string, host *clihost.Host) (bool, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return false, fmt.Errorf("format: %w", err)
	}
	unitKind := ast.UnitMain
	if annexKind, ok := resolver.ClassifyAnnex(file); ok {
		unitKind = resolver.UnitKindFor(annexKind)
	}
	parsed := parser.Parse(file, string(src), unitKind)
	for _, d := range parsed.Diagnostics {
		if d.Fatal {
			return false, fmt.Errorf("format: %s: %s", file, d.Message)
		}
	}
	out, err := jacfmt.Format(parsed.Module)
	if err != nil {
		return false, err
	}
	if out == string(src) {
		return false, nil
	}

	if formatShowDiff {
		ud := difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(src)),
			B:        difflib.SplitLines(out),
			FromFile: file,
			ToFile:   file + " (formatted)",
			Context:  3,
		}
		text, err := difflib.GetUnifiedDiffString(ud)
		if err != nil {
			return true, fmt.Errorf("format: building diff: %w", err)
		}
		if _, err := godiff.ParseFileDiff([]byte(text)); err != nil {
			return true, fmt.Errorf("format: invalid unified diff produced: %w", err)
		}
		host.Info("%s", text)
		return true, nil
	}

	if formatCheckOnly {
		host.Info("%s would be reformatted", file)
		return true, nil
	}

	info, err := os.Stat(file)
	var mode os.FileMode = 0o644
	if err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(file, []byte(out), mode); err != nil {
		return true, fmt.Errorf("format: writing %s: %w", file, err)
	}
	return true, nil
}
