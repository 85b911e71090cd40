// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package execctx implements the Execution Context: the per-request
// container that binds an authenticated root to a Graph Memory store
// and a Program, so a walker's abilities, the API Server's handlers, and
// the Walker Runtime all see the same (root, store) pair without
// threading it through every call explicitly.
package execctx

import (
	"context"

	"github.com/jac-lang/jac/internal/graphmem"
	"github.com/jac-lang/jac/internal/jacerr"
	"github.com/jac-lang/jac/internal/program"
)

type ctxKey struct{}

// ExecCtx is the bound execution scope for one request or one `jac run`
// invocation: which root is acting, which Graph Memory store it acts
// against, and which compiled Program supplies its archetypes.
type ExecCtx struct {
	RootID  string
	Store   *graphmem.Store
	Program *program.Program

	// Args holds the request's bound call arguments (a function call's
	// JSON body, or a walker spawn's payload), visible to the Walker
	// Runtime's statement interpreter as a name-resolution scope
	// alongside locals and the current anchor's Data.
	Args map[string]any
}

// WithExecCtx returns a derived context carrying ec, retrievable later
// with FromContext.
func WithExecCtx(ctx context.Context, ec *ExecCtx) context.Context {
	return context.WithValue(ctx, ctxKey{}, ec)
}

// FromContext returns the ExecCtx bound to ctx, or ErrRootRequired if
// none was bound.
func FromContext(ctx context.Context) (*ExecCtx, error) {
	ec, ok := ctx.Value(ctxKey{}).(*ExecCtx)
	if !ok || ec == nil {
		return nil, jacerr.ErrRootRequired
	}
	return ec, nil
}

// Root resolves ec's bound root anchor from its Store.
func (ec *ExecCtx) Root(ctx context.Context) (*graphmem.Anchor, error) {
	return ec.Store.Get(ctx, ec.RootID, ec.RootID)
}

// Spawn creates a new node anchor owned by ec's root, the idiom used by
// `node X()` expressions inside a walker ability body.
func (ec *ExecCtx) Spawn(ctx context.Context, archetype string, access graphmem.Access, data map[string]any) (*graphmem.Anchor, error) {
	return ec.Store.CreateNode(ctx, ec.RootID, archetype, access, data)
}

// SpawnWalker creates a new walker anchor owned by ec's root.
func (ec *ExecCtx) SpawnWalker(ctx context.Context, archetype string, access graphmem.Access, data map[string]any) (*graphmem.Anchor, error) {
	return ec.Store.CreateWalker(ctx, ec.RootID, archetype, access, data)
}
