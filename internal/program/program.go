// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package program implements Program: the top-level owner of every
// compiled module and its bytecode cache entry for one compile
// invocation (a `jac run`, `jac build`, or API Server boot).
//
// # Thread Safety
//
// Program is safe for concurrent use. Compile calls for distinct
// modules proceed in parallel; concurrent Compile calls for the same
// module are deduplicated via singleflight so a fan-out import graph
// never compiles the same file twice.
package program

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/bytecache"
	"github.com/jac-lang/jac/internal/passpipeline"
	"github.com/jac-lang/jac/internal/resolver"
)

func loadSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HostVersion is the compiler build identifier folded into every
// bytecode cache key; bumping it invalidates every cache entry without
// touching the filesystem.
const HostVersion = "jac-0.1"

// BootstrapMinimalModules lists the dotted module names that must be
// compiled in minimal mode (Codegen skipped) even on a cold cache,
// because they are needed by the compiler's own pass pipeline and a
// full compile would recurse into itself. This mirrors the upstream
// meta-importer's bootstrap module list.
var BootstrapMinimalModules = map[string]bool{
	"jac.runtime.builtin":               true,
	"jac.runtime.walker_dispatch":       true,
	"jac.runtime.graph_memory":          true,
	"jac.compiler.passes.annex_attach":  true,
	"jac.compiler.passes.import":        true,
	"jac.compiler.passes.def_impl":      true,
	"jac.compiler.passes.semantic_type": true,
}

// Program owns the compiled module set and bytecode cache for a single
// compile invocation.
type Program struct {
	resolver *resolver.Resolver
	cache    bytecache.Cache
	pipeline *passpipeline.Pipeline

	mu          sync.RWMutex
	modules     map[string]*ast.Module
	diagnostics map[string][]passpipeline.Diagnostic

	flight singleflight.Group
}

// New returns a Program that resolves imports via res, reads and writes
// compiled artifacts through cache, and runs every module through
// pipeline.
func New(res *resolver.Resolver, cache bytecache.Cache, pipeline *passpipeline.Pipeline) *Program {
	return &Program{
		resolver:    res,
		cache:       cache,
		pipeline:    pipeline,
		modules:     make(map[string]*ast.Module),
		diagnostics: make(map[string][]passpipeline.Diagnostic),
	}
}

// resolverLoader adapts *resolver.Resolver to passpipeline.Loader.
type resolverLoader struct{ r *resolver.Resolver }

func (l resolverLoader) Load(dotted string) (string, string, error) {
	resolved, err := l.r.Resolve(dotted)
	if err != nil {
		return "", "", err
	}
	src, err := loadSource(resolved.Path)
	if err != nil {
		return "", "", err
	}
	return resolved.Path, src, nil
}

// Compile compiles dotted, consulting the bytecode cache first and
// populating it on a miss. Concurrent callers requesting the same
// module share one compile via singleflight.
func (pr *Program) Compile(ctx context.Context, dotted string) (*ast.Module, error) {
	pr.mu.RLock()
	if m, ok := pr.modules[dotted]; ok {
		pr.mu.RUnlock()
		return m, nil
	}
	pr.mu.RUnlock()

	v, err, _ := pr.flight.Do(dotted, func() (any, error) {
		return pr.compileUncached(ctx, dotted)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ast.Module), nil
}

func (pr *Program) compileUncached(ctx context.Context, dotted string) (*ast.Module, error) {
	minimal := BootstrapMinimalModules[dotted]

	resolved, err := pr.resolver.Resolve(dotted)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", dotted, err)
	}

	// A cache hit only short-circuits Codegen: the pipeline's frontend
	// passes still run so the Program has a parsed *ast.Module for
	// symbol resolution, the Walker Runtime, and the API Server's route
	// discovery. Re-running the frontend against already-validated
	// source is cheap relative to Codegen.
	key := bytecache.Key{SourcePath: resolved.Path, Minimal: minimal, HostVersion: HostVersion}
	cacheHit := false
	if pr.cache != nil {
		_, cacheHit = pr.cache.Get(key)
	}

	unitKind := resolver.UnitKindFor(resolved.Kind)
	res, err := pr.pipeline.Run(ctx, dotted, unitKind, minimal || cacheHit)
	if err != nil {
		pr.mu.Lock()
		pr.diagnostics[dotted] = res.Diagnostics
		pr.mu.Unlock()
		return res.Module, err
	}

	if pr.cache != nil && !minimal && !cacheHit {
		_ = pr.cache.Put(key, bytecache.Entry{Bytecode: []byte(dotted)})
	}

	pr.mu.Lock()
	pr.modules[dotted] = res.Module
	pr.diagnostics[dotted] = res.Diagnostics
	pr.mu.Unlock()
	return res.Module, nil
}

// Diagnostics returns every diagnostic (including non-fatal warnings)
// produced by the most recent compile or recompile of dotted. Used by
// `jac check`, which must exit non-zero on a diagnostic even when it
// wasn't fatal enough to fail the compile outright.
func (pr *Program) Diagnostics(dotted string) []passpipeline.Diagnostic {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.diagnostics[dotted]
}

// Module returns a previously compiled module by dotted name.
func (pr *Program) Module(dotted string) (*ast.Module, bool) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	m, ok := pr.modules[dotted]
	return m, ok
}

// Recompile forces a fresh compile of dotted, bypassing both the
// in-memory module cache and (since its bytecode cache key is keyed by
// the source file's mtime and content hash) the on-disk one, then
// atomically swaps the result into the module registry. On failure the
// previously registered module, if any, is left in place untouched so
// callers keep serving the last good build. This is the critical
// section the Hot Reloader drives on every debounced source change.
func (pr *Program) Recompile(ctx context.Context, dotted string) (*ast.Module, error) {
	v, err, _ := pr.flight.Do("recompile:"+dotted, func() (any, error) {
		return pr.compileUncached(ctx, dotted)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ast.Module), nil
}

// DottedNameForPath reverse-resolves an absolute source path to the
// dotted module name it was last compiled under, by scanning every
// compiled module's own path plus its annex paths. It is used by the
// Hot Reloader to turn an fsnotify path into a Recompile argument; a
// path belonging to a module never yet compiled returns false.
func (pr *Program) DottedNameForPath(path string) (string, bool) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	for dotted, m := range pr.modules {
		if m.Path == path {
			return dotted, true
		}
		for _, annex := range m.ImplMod {
			if annex.Path == path {
				return dotted, true
			}
		}
		for _, annex := range m.TestMod {
			if annex.Path == path {
				return dotted, true
			}
		}
		for _, annex := range m.ClientMod {
			if annex.Path == path {
				return dotted, true
			}
		}
	}
	return "", false
}

// Modules returns every module compiled so far, keyed by dotted name.
func (pr *Program) Modules() map[string]*ast.Module {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	out := make(map[string]*ast.Module, len(pr.modules))
	for k, v := range pr.modules {
		out[k] = v
	}
	return out
}

// NewWithResolver is a convenience constructor that also builds the
// passpipeline.Loader adapter, used by cmd/jac so callers never need to
// import internal/passpipeline directly just to wire up a Program.
func NewWithResolver(res *resolver.Resolver, cache bytecache.Cache, codegen func(*ast.Module) error) *Program {
	pipe := passpipeline.New(resolverLoader{r: res})
	pipe.Codegen = codegen
	return New(res, cache, pipe)
}
