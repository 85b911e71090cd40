// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package walker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/execctx"
	"github.com/jac-lang/jac/internal/graphmem"
	"github.com/jac-lang/jac/internal/jacerr"
)

func newTestEnv(t *testing.T) (*execctx.ExecCtx, context.Context) {
	t.Helper()
	db, err := graphmem.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := graphmem.NewStore(db)
	root, err := store.CreateRoot(context.Background())
	require.NoError(t, err)

	ec := &execctx.ExecCtx{RootID: root.ID, Store: store}
	return ec, context.Background()
}

func reportStmt(text string) *ast.Stmt   { return &ast.Stmt{Kind: "report", Text: text} }
func visitStmt(args ...string) *ast.Stmt { return &ast.Stmt{Kind: "visit", Args: args} }
func disengageStmt() *ast.Stmt           { return &ast.Stmt{Kind: "disengage"} }

func moduleWithGreeter(entryBody *ast.Body) *ast.Module {
	mod := ast.NewModule(ast.Location{}, "main", "main.jac", ast.UnitMain)
	mod.Archetypes = append(mod.Archetypes,
		&ast.Archetype{Kind: ast.KindNode, Name: "Thing"},
		&ast.Archetype{
			Kind: ast.KindWalker, Name: "Greeter",
			Abilities: []*ast.Ability{
				{OwnerArch: "Greeter", OtherArch: "Thing", IsEntry: true, HasBody: true, Body: entryBody},
			},
		},
	)
	return mod
}

func TestRun_EntryAbilityReports(t *testing.T) {
	ec, ctx := newTestEnv(t)
	node, err := ec.Spawn(ctx, "Thing", graphmem.AccessPrivate, nil)
	require.NoError(t, err)

	mod := moduleWithGreeter(&ast.Body{Statements: []*ast.Stmt{reportStmt("hello")}})

	res, err := New().Run(ctx, ec, mod, "Greeter", node.ID)
	require.NoError(t, err)
	assert.Equal(t, []any{"hello"}, res.Reports)
	assert.False(t, res.Disengaged)
	assert.Equal(t, 1, res.NodesVisited)
}

func TestRun_VisitQueuesNeighbors(t *testing.T) {
	ec, ctx := newTestEnv(t)
	a, err := ec.Spawn(ctx, "Thing", graphmem.AccessPrivate, nil)
	require.NoError(t, err)
	b, err := ec.Spawn(ctx, "Thing", graphmem.AccessPrivate, nil)
	require.NoError(t, err)
	_, err = ec.Store.Connect(ctx, ec.RootID, a.ID, b.ID, "connects", graphmem.AccessPrivate, nil)
	require.NoError(t, err)

	mod := moduleWithGreeter(&ast.Body{Statements: []*ast.Stmt{
		reportStmt("visited"),
		visitStmt(),
	}})

	res, err := New().Run(ctx, ec, mod, "Greeter", a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NodesVisited)
	assert.Equal(t, []any{"visited", "visited"}, res.Reports)
}

func TestRun_DisengageStopsTraversal(t *testing.T) {
	ec, ctx := newTestEnv(t)
	a, err := ec.Spawn(ctx, "Thing", graphmem.AccessPrivate, nil)
	require.NoError(t, err)
	b, err := ec.Spawn(ctx, "Thing", graphmem.AccessPrivate, nil)
	require.NoError(t, err)
	_, err = ec.Store.Connect(ctx, ec.RootID, a.ID, b.ID, "connects", graphmem.AccessPrivate, nil)
	require.NoError(t, err)

	mod := moduleWithGreeter(&ast.Body{Statements: []*ast.Stmt{
		reportStmt("first"),
		disengageStmt(),
		visitStmt(),
	}})

	res, err := New().Run(ctx, ec, mod, "Greeter", a.ID)
	require.NoError(t, err)
	assert.True(t, res.Disengaged)
	assert.Equal(t, 1, res.NodesVisited)
	assert.Equal(t, []any{"first"}, res.Reports)
}

func TestRun_AmbiguousAbilityMatch(t *testing.T) {
	ec, ctx := newTestEnv(t)
	node, err := ec.Spawn(ctx, "Thing", graphmem.AccessPrivate, nil)
	require.NoError(t, err)

	mod := ast.NewModule(ast.Location{}, "main", "main.jac", ast.UnitMain)
	mod.Archetypes = append(mod.Archetypes,
		&ast.Archetype{Kind: ast.KindNode, Name: "Thing"},
		&ast.Archetype{
			Kind: ast.KindWalker, Name: "Greeter",
			Abilities: []*ast.Ability{
				{OwnerArch: "Greeter", OtherArch: "Thing", IsEntry: true, HasBody: true, Body: &ast.Body{}},
				{OwnerArch: "Greeter", OtherArch: "Thing", IsEntry: true, HasBody: true, Body: &ast.Body{}},
			},
		},
	)

	_, err = New().Run(ctx, ec, mod, "Greeter", node.ID)
	assert.ErrorIs(t, err, jacerr.ErrAmbiguousAbility)
}

func TestRun_UnknownWalkerArchetype(t *testing.T) {
	ec, ctx := newTestEnv(t)
	mod := ast.NewModule(ast.Location{}, "main", "main.jac", ast.UnitMain)

	_, err := New().Run(ctx, ec, mod, "Nope", "any-id")
	assert.ErrorIs(t, err, jacerr.ErrNotFound)
}

func assignStmt(args ...string) *ast.Stmt { return &ast.Stmt{Kind: "assign", Args: args} }
func exprStmt(args ...string) *ast.Stmt   { return &ast.Stmt{Kind: "expr", Args: args} }

// TestRunFunction_ReportsBoundArg exercises spec.md §8 scenario 1's
// first half: a function body's `report` resolves a bare identifier
// against the Execution Context's bound call args when nothing shadows
// it locally.
func TestRunFunction_ReportsBoundArg(t *testing.T) {
	ec, ctx := newTestEnv(t)
	ec.Args = map[string]any{"title": "T"}

	fn := &ast.Ability{Name: "greet", Body: &ast.Body{Statements: []*ast.Stmt{
		reportStmt("title"),
	}}}

	res, err := New().RunFunction(ctx, ec, ast.NewModule(ast.Location{}, "main", "main.jac", ast.UnitMain), fn)
	require.NoError(t, err)
	assert.Equal(t, []any{"T"}, res.Reports)
}

// TestRunFunction_LetBindsLocalOverArg confirms a `let` binding shadows
// a same-named bound arg within the rest of the body.
func TestRunFunction_LetBindsLocalOverArg(t *testing.T) {
	ec, ctx := newTestEnv(t)
	ec.Args = map[string]any{"title": "fromArgs"}

	fn := &ast.Ability{Name: "greet", Body: &ast.Body{Statements: []*ast.Stmt{
		assignStmt("title", "=", `"fromLocal"`),
		reportStmt("title"),
	}}}

	res, err := New().RunFunction(ctx, ec, ast.NewModule(ast.Location{}, "main", "main.jac", ast.UnitMain), fn)
	require.NoError(t, err)
	assert.Equal(t, []any{"fromLocal"}, res.Reports)
}

// TestRun_VisitByArchetypeListsOwnedNodesNotJustNeighbors exercises the
// list_by side of a `visit Thing;` statement: a node of the named
// archetype that the walker's root owns is visited even when it isn't
// directly connected to the start node, the way a ListTasks walker
// needs to see every owned task.
func TestRun_VisitByArchetypeListsOwnedNodesNotJustNeighbors(t *testing.T) {
	ec, ctx := newTestEnv(t)
	a, err := ec.Spawn(ctx, "Thing", graphmem.AccessPrivate, map[string]any{"title": "A"})
	require.NoError(t, err)
	_, err = ec.Spawn(ctx, "Thing", graphmem.AccessPrivate, map[string]any{"title": "B"})
	require.NoError(t, err)
	// a and b are never Connected, so Neighbors alone would see neither.

	mod := moduleWithGreeter(&ast.Body{Statements: []*ast.Stmt{
		reportStmt("title"),
		visitStmt("Thing"),
	}})

	res, err := New().Run(ctx, ec, mod, "Greeter", a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NodesVisited)
	assert.ElementsMatch(t, []any{"A", "B"}, res.Reports)
}

// TestRun_HereFieldWriteBackThenReport exercises spec.md §8 scenario
// 1's second half: `here.title = title;` writes into the node's Graph
// Memory Data, and a later report of the same node (via a second walk)
// reads that write back out.
func TestRun_HereFieldWriteBackThenReport(t *testing.T) {
	ec, ctx := newTestEnv(t)
	ec.Args = map[string]any{"title": "T"}
	node, err := ec.Spawn(ctx, "Thing", graphmem.AccessPrivate, nil)
	require.NoError(t, err)

	createBody := &ast.Body{Statements: []*ast.Stmt{
		exprStmt("here", ".", "title", "=", "title"),
	}}
	res, err := New().Run(ctx, ec, moduleWithGreeter(createBody), "Greeter", node.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Reports)

	got, err := ec.Store.Get(ctx, ec.RootID, node.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Data["title"])

	listBody := &ast.Body{Statements: []*ast.Stmt{reportStmt("title")}}
	res, err = New().Run(ctx, ec, moduleWithGreeter(listBody), "Greeter", node.ID)
	require.NoError(t, err)
	assert.Equal(t, []any{"T"}, res.Reports)
}
