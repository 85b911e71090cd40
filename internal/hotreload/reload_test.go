// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hotreload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jac-lang/jac/internal/bytecache"
	"github.com/jac-lang/jac/internal/program"
	"github.com/jac-lang/jac/internal/resolver"
)

func newTestProgram(t *testing.T, dir string) *program.Program {
	t.Helper()
	res := resolver.New([]string{dir})
	cache, err := bytecache.New(filepath.Join(dir, ".jac_cache"))
	require.NoError(t, err)
	return program.NewWithResolver(res, cache, nil)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestReloader_RecompilesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.jac")
	require.NoError(t, os.WriteFile(path, []byte(`node Thing {}`), 0o644))

	pr := newTestProgram(t, dir)
	_, err := pr.Compile(context.Background(), "main")
	require.NoError(t, err)

	r, err := New(pr, 20*time.Millisecond)
	require.NoError(t, err)
	defer r.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Start(ctx, []string{dir}))

	require.NoError(t, os.WriteFile(path, []byte("node Thing {}\nnode Other {}"), 0o644))

	ok := waitFor(t, 2*time.Second, func() bool {
		mod, found := pr.Module("main")
		return found && len(mod.Archetypes) == 2
	})
	assert.True(t, ok, "expected the watcher to pick up the change and recompile")
}

func TestReloader_ClientChangeHookFiresInsteadOfRecompile(t *testing.T) {
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "main.jac")
	clientPath := filepath.Join(dir, "main.cl.jac")
	require.NoError(t, os.WriteFile(mainPath, []byte(`node Thing {}`), 0o644))
	require.NoError(t, os.WriteFile(clientPath, []byte(`client Page {}`), 0o644))

	pr := newTestProgram(t, dir)
	_, err := pr.Compile(context.Background(), "main")
	require.NoError(t, err)

	seen := make(chan string, 1)
	r, err := New(pr, 20*time.Millisecond, WithClientChangeHook(func(dotted, path string) {
		seen <- dotted
	}))
	require.NoError(t, err)
	defer r.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Start(ctx, []string{dir}))

	require.NoError(t, os.WriteFile(clientPath, []byte(`client Page { can render() {} }`), 0o644))

	select {
	case dotted := <-seen:
		assert.Equal(t, "main", dotted)
	case <-time.After(2 * time.Second):
		t.Fatal("client change hook was never invoked")
	}
}

func TestReloader_IgnoresUnrelatedPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.jac"), []byte(`node Thing {}`), 0o644))

	pr := newTestProgram(t, dir)
	first, err := pr.Compile(context.Background(), "main")
	require.NoError(t, err)

	r, err := New(pr, 20*time.Millisecond)
	require.NoError(t, err)
	defer r.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Start(ctx, []string{dir}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	time.Sleep(200 * time.Millisecond)

	current, _ := pr.Module("main")
	assert.Same(t, first, current, "a non-.jac file change should never trigger a recompile")
}

func TestNew_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	pr := newTestProgram(t, dir)
	r, err := New(pr, time.Millisecond)
	require.NoError(t, err)
	r.Stop()
	r.Stop()
}
