// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package execctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jac-lang/jac/internal/graphmem"
	"github.com/jac-lang/jac/internal/jacerr"
)

func newTestExecCtx(t *testing.T) (*ExecCtx, context.Context) {
	t.Helper()
	db, err := graphmem.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := graphmem.NewStore(db)
	root, err := store.CreateRoot(context.Background())
	require.NoError(t, err)

	ec := &ExecCtx{RootID: root.ID, Store: store}
	return ec, WithExecCtx(context.Background(), ec)
}

func TestFromContext_MissingReturnsRootRequired(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, jacerr.ErrRootRequired)
}

func TestFromContext_RoundTrips(t *testing.T) {
	ec, ctx := newTestExecCtx(t)
	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, ec, got)
}

func TestExecCtx_Root(t *testing.T) {
	ec, ctx := newTestExecCtx(t)
	root, err := ec.Root(ctx)
	require.NoError(t, err)
	assert.Equal(t, ec.RootID, root.ID)
}

func TestExecCtx_SpawnOwnedByRoot(t *testing.T) {
	ec, ctx := newTestExecCtx(t)
	node, err := ec.Spawn(ctx, "Thing", graphmem.AccessPrivate, map[string]any{"n": 1.0})
	require.NoError(t, err)
	assert.Equal(t, ec.RootID, node.OwnerRootID)

	got, err := ec.Store.Get(ctx, ec.RootID, node.ID)
	require.NoError(t, err)
	assert.Equal(t, node.ID, got.ID)
}

func TestExecCtx_SpawnWalker(t *testing.T) {
	ec, ctx := newTestExecCtx(t)
	w, err := ec.SpawnWalker(ctx, "Greeter", graphmem.AccessPrivate, nil)
	require.NoError(t, err)
	assert.Equal(t, graphmem.KindWalker, w.Kind)
}
