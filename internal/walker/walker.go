// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package walker implements the Walker Runtime: the spawn/visit-queue
// dispatch loop that drives a walker anchor across Graph Memory,
// resolving which ability fires at each node by the most specific
// (walker archetype, node archetype) match and honoring report/disengage
// control flow.
package walker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/execctx"
	"github.com/jac-lang/jac/internal/graphmem"
	"github.com/jac-lang/jac/internal/jacerr"
)

// Result is the outcome of driving one walker to completion: every value
// it reported, in order, and whether it ended by disengaging early.
type Result struct {
	Reports      []any
	Disengaged   bool
	NodesVisited int
}

// Runtime dispatches walkers over a compiled module's archetypes.
type Runtime struct{}

// New returns a Walker Runtime.
func New() *Runtime {
	return &Runtime{}
}

// Run drives walkerArch starting at startNodeID, visiting nodes
// breadth-first via the visit statements its abilities emit, until the
// visit queue empties or an ability disengages.
func (rt *Runtime) Run(ctx context.Context, ec *execctx.ExecCtx, mod *ast.Module, walkerArch, startNodeID string) (*Result, error) {
	wa := findArchetype(mod, ast.KindWalker, walkerArch)
	if wa == nil {
		return nil, fmt.Errorf("walker %s: %w", walkerArch, jacerr.ErrNotFound)
	}

	res := &Result{}
	queue := []string{startNodeID}
	visited := make(map[string]bool)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		nodeID := queue[0]
		queue = queue[1:]
		if visited[nodeID] {
			continue
		}
		visited[nodeID] = true
		res.NodesVisited++

		node, err := ec.Store.Get(ctx, ec.RootID, nodeID)
		if err != nil {
			return res, err
		}

		entry, err := resolveAbility(wa, mod, node.Archetype, true)
		if err != nil {
			return res, err
		}
		if entry != nil && entry.HasBody {
			visits, reports, disengaged := rt.execBody(ctx, ec, mod, node, entry.Body)
			res.Reports = append(res.Reports, reports...)
			queue = append(queue, visits...)
			if disengaged {
				res.Disengaged = true
				return res, nil
			}
		}

		exit, err := resolveAbility(wa, mod, node.Archetype, false)
		if err != nil {
			return res, err
		}
		if exit != nil && exit.HasBody {
			visits, reports, disengaged := rt.execBody(ctx, ec, mod, node, exit.Body)
			res.Reports = append(res.Reports, reports...)
			queue = append(queue, visits...)
			if disengaged {
				res.Disengaged = true
				return res, nil
			}
		}
	}
	return res, nil
}

// RunEntry executes mod's top-level `with entry { ... }` blocks in
// declaration order against ec's bound root, the script-mode
// counterpart to Run's graph-traversal dispatch — this is what `jac run`
// drives for a module with no walker of its own. A disengage inside one
// block stops that block but not the ones after it, since with-entry
// blocks are independent top-level units, not a single traversal.
func (rt *Runtime) RunEntry(ctx context.Context, ec *execctx.ExecCtx, mod *ast.Module) (*Result, error) {
	root, err := ec.Root(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	for _, we := range mod.Globals {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, reports, _ := rt.execBody(ctx, ec, mod, root, we.Body)
		res.Reports = append(res.Reports, reports...)
	}
	return res, nil
}

// RunFunction executes a single free-floating function or test case
// body against ec's bound root, the same statement interpreter RunEntry
// uses for with-entry blocks. A disengage inside fn's body simply ends
// the function, matching an early `return`.
func (rt *Runtime) RunFunction(ctx context.Context, ec *execctx.ExecCtx, mod *ast.Module, fn *ast.Ability) (*Result, error) {
	root, err := ec.Root(ctx)
	if err != nil {
		return nil, err
	}
	_, reports, _ := rt.execBody(ctx, ec, mod, root, fn.Body)
	return &Result{Reports: reports}, nil
}

// findArchetype locates the archetype named name of kind k in mod.
func findArchetype(mod *ast.Module, k ast.ArchetypeKind, name string) *ast.Archetype {
	for _, a := range mod.Archetypes {
		if a.Kind == k && a.Name == name {
			return a
		}
	}
	return nil
}

// resolveAbility picks the ability on walkerArch that fires for
// nodeArch, preferring an exact OtherArch match over a wildcard
// ("with entry"/"with exit" naming no specific archetype). Two exact
// matches at the same specificity is an ambiguous configuration.
func resolveAbility(walkerArch *ast.Archetype, mod *ast.Module, nodeArch string, wantEntry bool) (*ast.Ability, error) {
	var exact, wildcard []*ast.Ability
	for _, ab := range walkerArch.Abilities {
		if wantEntry && !ab.IsEntry {
			continue
		}
		if !wantEntry && !ab.IsExit {
			continue
		}
		switch ab.OtherArch {
		case "":
			wildcard = append(wildcard, ab)
		case nodeArch:
			exact = append(exact, ab)
		}
	}
	if len(exact) > 1 {
		return nil, fmt.Errorf("walker %s vs node %s: %w", walkerArch.Name, nodeArch, jacerr.ErrAmbiguousAbility)
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	if len(wildcard) > 1 {
		return nil, fmt.Errorf("walker %s vs node %s: %w", walkerArch.Name, nodeArch, jacerr.ErrAmbiguousAbility)
	}
	if len(wildcard) == 1 {
		return wildcard[0], nil
	}
	return nil, nil
}

// execBody interprets one ability body's flat statement list, returning
// the node IDs it queued for further visitation, the values it reported,
// and whether it disengaged.
//
// Name resolution follows a three-level scope chain, narrowest first:
// statement-local bindings made by `let`/`glob` in this body, the
// Execution Context's bound request args, and here's own Data. A name
// that resolves nowhere falls back to its raw source text, so a bare
// `report "literal text"`-style statement built directly from an
// ast.Stmt (as the test suite's fixtures do) still reports verbatim.
func (rt *Runtime) execBody(ctx context.Context, ec *execctx.ExecCtx, mod *ast.Module, here *graphmem.Anchor, body *ast.Body) (visits []string, reports []any, disengaged bool) {
	if body == nil {
		return nil, nil, false
	}
	locals := make(map[string]any)
	for _, stmt := range body.Statements {
		switch stmt.Kind {
		case "disengage":
			return visits, reports, true
		case "report":
			reports = append(reports, rt.resolveValue(ec, here, locals, stmt.Text))
		case "assign":
			rt.execAssign(ctx, ec, here, locals, stmt.Args)
		case "visit":
			visits = append(visits, rt.resolveVisitTargets(ctx, ec, mod, here, stmt)...)
		case "expr":
			rt.execWriteBack(ctx, ec, here, locals, stmt.Args)
		}
	}
	return visits, reports, false
}

// resolveValue resolves a shallow-parsed expression's raw text against
// locals, then the Execution Context's bound args, then here's Data,
// returning the raw text unchanged when nothing matches. A
// double-quoted text is treated as a string literal and unquoted rather
// than looked up.
func (rt *Runtime) resolveValue(ec *execctx.ExecCtx, here *graphmem.Anchor, locals map[string]any, text string) any {
	text = strings.TrimSpace(text)
	if unquoted, err := strconv.Unquote(text); err == nil {
		return unquoted
	}
	if v, ok := locals[text]; ok {
		return v
	}
	if ec != nil && ec.Args != nil {
		if v, ok := ec.Args[text]; ok {
			return v
		}
	}
	if here != nil && here.Data != nil {
		if v, ok := here.Data[text]; ok {
			return v
		}
	}
	return text
}

// execAssign handles a `let`/`glob` statement's remaining tokens
// (name, "=", expr...), binding the resolved value as a local.
func (rt *Runtime) execAssign(ctx context.Context, ec *execctx.ExecCtx, here *graphmem.Anchor, locals map[string]any, args []string) {
	name, rhs, ok := splitAssignment(args)
	if !ok {
		return
	}
	locals[name] = rt.resolveValue(ec, here, locals, rhs)
}

// execWriteBack recognizes the `here.<field> = <expr>;` form among
// statements the shallow parser classifies as a plain "expr" (anything
// not led by a report/visit/disengage/let/glob keyword), and persists
// the resolved value into here's Data via Graph Memory's Update
// operation. Any other expression shape is a no-op: archetype-level
// computed expressions beyond field writes are evaluated by the host
// language's Codegen backend, not interpreted here.
func (rt *Runtime) execWriteBack(ctx context.Context, ec *execctx.ExecCtx, here *graphmem.Anchor, locals map[string]any, args []string) {
	if len(args) < 4 || args[0] != "here" || args[1] != "." {
		return
	}
	field := args[2]
	name, rhs, ok := splitAssignment(args[2:])
	if !ok || name != field {
		return
	}
	value := rt.resolveValue(ec, here, locals, rhs)
	data := make(map[string]any, len(here.Data)+1)
	for k, v := range here.Data {
		data[k] = v
	}
	data[field] = value
	updated, err := ec.Store.Update(ctx, ec.RootID, here.ID, data)
	if err != nil {
		return
	}
	here.Data = updated.Data
}

// splitAssignment splits tokens of the form `name = expr...` on the
// first top-level "=", returning the target name and the joined RHS
// text. It reports ok=false for anything else, including a stray "=="
// (which the lexer still tokenizes as two separate "=" symbols, so a
// caller passing an equality check's tokens here would otherwise
// misread it as an assignment to a single-character name).
func splitAssignment(tokens []string) (name, rhs string, ok bool) {
	if len(tokens) < 3 || tokens[1] != "=" || (len(tokens) > 2 && tokens[2] == "=") {
		return "", "", false
	}
	return tokens[0], strings.Join(tokens[2:], " "), true
}

// resolveVisitTargets expands a `visit` statement into the node anchor
// IDs it reaches. An argument naming a known node archetype (e.g.
// `visit Task;`) is Graph Memory's list_by(kind=node, owner=, archetype=)
// query (spec.md §4.7): every node of that archetype the walker's root
// owns, not only ones reachable through an edge already held — this is
// what makes a ListTasks-style walker able to enumerate every owned
// task rather than only ones connected to the current anchor. A `visit`
// with no archetype argument instead walks here's held edges, as
// before.
func (rt *Runtime) resolveVisitTargets(ctx context.Context, ec *execctx.ExecCtx, mod *ast.Module, here *graphmem.Anchor, stmt *ast.Stmt) []string {
	var filterArch string
	if len(stmt.Args) > 0 && findArchetype(mod, ast.KindNode, stmt.Args[0]) != nil {
		filterArch = stmt.Args[0]
	}

	if filterArch != "" {
		owned, err := ec.Store.ListBy(ctx, ec.RootID, graphmem.ListByFilter{
			Kind:      graphmem.KindNode,
			Archetype: filterArch,
			OwnerID:   ec.RootID,
		})
		if err != nil {
			return nil
		}
		ids := make([]string, 0, len(owned))
		for _, n := range owned {
			ids = append(ids, n.ID)
		}
		return ids
	}

	neighbors, err := ec.Store.Neighbors(ctx, ec.RootID, here.ID)
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		ids = append(ids, n.ID)
	}
	return ids
}
