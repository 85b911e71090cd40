// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package passpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/jacerr"
)

type dirLoader struct{ dir string }

func (d dirLoader) Load(dotted string) (string, string, error) {
	path := filepath.Join(d.dir, dotted+".jac")
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return path, string(b), nil
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestRun_SimpleWalkerCompiles(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "main.jac"), `
walker greeter {
  can start with entry {
    report "hello";
  }
}
`)
	p := New(dirLoader{dir: dir})
	res, err := p.Run(context.Background(), "main", ast.UnitMain, false)
	if err != nil {
		t.Fatalf("Run() error = %v, diagnostics = %+v", err, res.Diagnostics)
	}
	if len(res.Module.Archetypes) != 1 || res.Module.Archetypes[0].Name != "greeter" {
		t.Fatalf("Archetypes = %+v", res.Module.Archetypes)
	}
}

func TestRun_ModuleNotFound(t *testing.T) {
	p := New(dirLoader{dir: t.TempDir()})
	_, err := p.Run(context.Background(), "missing", ast.UnitMain, false)
	if err == nil {
		t.Fatal("Run() error = nil, want load failure")
	}
}

func TestRun_AnnexAttachFoldsImplIntoForwardDecl(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "main.jac"), `
walker greeter;
`)
	write(t, filepath.Join(dir, "main.impl.jac"), `
impl greeter {
  can start with entry {
    report "hi";
  }
}
`)
	p := New(dirLoader{dir: dir})
	res, err := p.Run(context.Background(), "main", ast.UnitMain, false)
	if err != nil {
		t.Fatalf("Run() error = %v, diagnostics = %+v", err, res.Diagnostics)
	}
	arch := res.Module.Archetypes[0]
	if !arch.HasBody {
		t.Error("expected forward-declared walker to gain HasBody via impl fold-in")
	}
	if len(arch.Abilities) != 1 || !arch.Abilities[0].HasBody {
		t.Errorf("expected matched ability with body, got %+v", arch.Abilities)
	}
}

func TestRun_DuplicateArchetypeIsFatal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "main.jac"), `
node Thing {}
node Thing {}
`)
	p := New(dirLoader{dir: dir})
	_, err := p.Run(context.Background(), "main", ast.UnitMain, false)
	if !errors.Is(err, jacerr.ErrCompileFailed) {
		t.Errorf("Run() error = %v, want ErrCompileFailed", err)
	}
}

func TestRun_SelfImportIsFatal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "main.jac"), `
import from main {Thing};
`)
	p := New(dirLoader{dir: dir})
	_, err := p.Run(context.Background(), "main", ast.UnitMain, false)
	if !errors.Is(err, jacerr.ErrCompileFailed) {
		t.Errorf("Run() error = %v, want ErrCompileFailed", err)
	}
}

func TestRun_MinimalSkipsCodegen(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "main.jac"), `node Thing {}`)

	called := false
	p := New(dirLoader{dir: dir})
	p.Codegen = func(*ast.Module) error { called = true; return nil }

	if _, err := p.Run(context.Background(), "main", ast.UnitMain, true); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if called {
		t.Error("Codegen should not run in minimal mode")
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "main.jac"), `node Thing {}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(dirLoader{dir: dir})
	if _, err := p.Run(ctx, "main", ast.UnitMain, false); err == nil {
		t.Error("Run() with a cancelled context should return an error")
	}
}
