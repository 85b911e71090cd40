// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jacfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/parser"
)

func TestFormat_NilModuleErrors(t *testing.T) {
	_, err := Format(nil)
	assert.Error(t, err)
}

func TestFormat_RoundTripsWalker(t *testing.T) {
	src := `
walker greeter {
  has name: str = "world";
  can start with Thing entry {
    report name;
  }
}
`
	res := parser.Parse("t.jac", src, ast.UnitMain)
	require.Empty(t, res.Diagnostics)

	out, err := Format(res.Module)
	require.NoError(t, err)
	assert.Contains(t, out, "walker greeter {")
	assert.Contains(t, out, `has name: str = "world";`)
	assert.Contains(t, out, "can start(")
	assert.Contains(t, out, "with Thing entry")
}

// TestFormat_Idempotent exercises spec property P5: formatting a
// formatted module twice yields identical bytes, since re-parsing the
// printer's own output and reprinting it should reach a fixed point.
func TestFormat_Idempotent(t *testing.T) {
	src := `
node Thing {
  has x: int;
}

public walker greeter {
  can start with Thing entry {
    report x;
    disengage;
  }
}
`
	res1 := parser.Parse("t.jac", src, ast.UnitMain)
	out1, err := Format(res1.Module)
	require.NoError(t, err)

	res2 := parser.Parse("t.jac", out1, ast.UnitMain)
	out2, err := Format(res2.Module)
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
}

func TestFormat_ForwardDeclarationHasNoBraces(t *testing.T) {
	res := parser.Parse("t.jac", `walker greeter;`, ast.UnitMain)
	out, err := Format(res.Module)
	require.NoError(t, err)
	assert.Contains(t, out, "walker greeter;")
	assert.NotContains(t, out, "{")
}

func TestFormat_PrivateAccessOmitted(t *testing.T) {
	res := parser.Parse("t.jac", `node Thing {}`, ast.UnitMain)
	out, err := Format(res.Module)
	require.NoError(t, err)
	assert.Equal(t, "node Thing {\n}\n\n", out)
}
