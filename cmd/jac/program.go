// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/bytecache"
	"github.com/jac-lang/jac/internal/program"
	"github.com/jac-lang/jac/internal/resolver"
)

// buildProgram wires a Program rooted at file's directory, using a
// bytecode cache under cacheDir (relative to that directory when not
// absolute), and returns it along with the dotted entry module name
// derived from file's basename.
func buildProgram(file, cacheDir string) (*program.Program, string, error) {
	dir := filepath.Dir(file)
	entry := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	if cacheDir == "" {
		cacheDir = ".jac_cache"
	}
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(dir, cacheDir)
	}
	cache, err := bytecache.New(cacheDir)
	if err != nil {
		return nil, "", fmt.Errorf("opening bytecode cache: %w", err)
	}

	res := resolver.New([]string{dir})
	prog := program.NewWithResolver(res, cache, nil)
	return prog, entry, nil
}

// compileEntry compiles file's owning module and returns both the
// Program (for reuse by start/serve) and the compiled *ast.Module.
func compileEntry(ctx context.Context, file, cacheDir string) (*program.Program, *ast.Module, error) {
	prog, entry, err := buildProgram(file, cacheDir)
	if err != nil {
		return nil, nil, err
	}
	mod, err := prog.Compile(ctx, entry)
	if err != nil {
		return nil, nil, fmt.Errorf("compiling %s: %w", file, err)
	}
	return prog, mod, nil
}
