// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/clihost"
)

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

var dotOut string

var dotCmd = &cobra.Command{
	Use:   "dot <file>",
	Short: "Render a module's archetype graph as Graphviz DOT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		ctx := cmd.Context()

		_, mod, err := compileEntry(ctx, args[0], "")
		if err != nil {
			exitCode = host.Fail("dot", start, err)
			return nil
		}

		graph := renderDot(mod)
		if dotOut != "" {
			if err := writeFile(dotOut, graph); err != nil {
				exitCode = host.Fail("dot", start, err)
				return nil
			}
			exitCode = host.Succeed("dot", start, map[string]any{"written": dotOut})
			return nil
		}
		fmt.Println(graph)
		exitCode = clihost.ExitSuccess
		return nil
	},
}

func init() {
	dotCmd.Flags().StringVarP(&dotOut, "out", "o", "", "write the DOT graph to a file instead of stdout")
}

// renderDot builds a Graphviz digraph of mod's archetypes: node/object
// archetypes as boxes, walker archetypes as diamonds, edge archetypes
// as plain labeled arrows between the node kinds their `with entry`
// abilities pair against, and a dashed arrow for every `Bases` entry.
func renderDot(mod *ast.Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", dotIdent(mod.Name))
	b.WriteString("  rankdir=LR;\n")

	archs := make([]*ast.Archetype, len(mod.Archetypes))
	copy(archs, mod.Archetypes)
	sort.Slice(archs, func(i, j int) bool { return archs[i].Name < archs[j].Name })

	for _, a := range archs {
		shape := "box"
		switch a.Kind {
		case ast.KindWalker:
			shape = "diamond"
		case ast.KindEdge:
			shape = "plaintext"
		}
		fmt.Fprintf(&b, "  %s [label=%q shape=%s];\n", dotIdent(a.Name), a.Name, shape)
		for _, base := range a.Bases {
			fmt.Fprintf(&b, "  %s -> %s [style=dashed arrowhead=empty];\n", dotIdent(a.Name), dotIdent(base))
		}
		for _, ab := range a.Abilities {
			if ab.OtherArch == "" {
				continue
			}
			label := "entry"
			if ab.IsExit {
				label = "exit"
			}
			fmt.Fprintf(&b, "  %s -> %s [label=%q];\n", dotIdent(a.Name), dotIdent(ab.OtherArch), label)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

func dotIdent(name string) string {
	if name == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, name)
}
