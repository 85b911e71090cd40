// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package extern declares thin interface contracts for the pieces of
// the CLI surface this module states but does not implement: the
// client-side JS bundler, deploy/TUI hooks, the language-server engine,
// project scaffolding, the npm-style package installer, and the
// Python<->Jac transpiler pair. Each is a pluggable backend whose
// contract this package fixes so `cmd/jac` can wire a real
// implementation in without touching the CLI layer, while this module
// ships only a safe no-op default — following the host project's own
// Null Object convention for optional dependencies.
package extern

import (
	"context"
	"fmt"

	"github.com/jac-lang/jac/internal/ast"
)

// ClientBundler turns a module's client pages into the static JS bundle
// the API Server serves from /static. Out of scope per spec.md's Non-
// goal on target-language code emission; NoopClientBundler is the
// default until a real bundler is registered.
type ClientBundler interface {
	Bundle(ctx context.Context, mod *ast.Module, outDir string) error
}

// DeployHook drives out-of-process deployment actions (container
// orchestration, TUI progress reporting) for `jac start`/`jac serve`
// beyond simply running the API Server in this process.
type DeployHook interface {
	BeforeServe(ctx context.Context, entry string) error
	AfterServe(ctx context.Context, entry string) error
}

// LSPServer is the contract a language-server backend would implement;
// `jac tool lsp` dispatches to one if registered.
type LSPServer interface {
	Serve(ctx context.Context) error
}

// Scaffolder generates a new project skeleton for `jac create <name>`.
type Scaffolder interface {
	Scaffold(ctx context.Context, name, dir string) error
}

// PackageInstaller resolves and fetches third-party Jac packages
// (an npm-style installer), invoked by a future `jac add` surface that
// spec.md's CLI contract does not enumerate; kept here so the
// interface exists for a registered implementation to satisfy.
type PackageInstaller interface {
	Install(ctx context.Context, name string) error
}

// Transpiler converts between Jac and Python source, backing the
// `py2jac`/`jac2py` CLI commands.
type Transpiler interface {
	PyToJac(ctx context.Context, src string) (string, error)
	JacToPy(ctx context.Context, src string) (string, error)
}

// ErrNotConfigured is returned by every Noop implementation below, so
// the CLI can distinguish "ran and did nothing" from "not wired" and
// report the latter clearly instead of silently succeeding.
var ErrNotConfigured = fmt.Errorf("extern: no implementation registered for this backend")

// NoopClientBundler is the default ClientBundler: it does nothing and
// reports ErrNotConfigured so `jac start`'s client codegen step fails
// loudly instead of silently serving a stale or empty bundle.
type NoopClientBundler struct{}

func (NoopClientBundler) Bundle(context.Context, *ast.Module, string) error { return ErrNotConfigured }

// NoopDeployHook is the default DeployHook: both hooks are no-ops that
// succeed, since running the API Server in-process needs no external
// orchestration by default.
type NoopDeployHook struct{}

func (NoopDeployHook) BeforeServe(context.Context, string) error { return nil }
func (NoopDeployHook) AfterServe(context.Context, string) error  { return nil }

// NoopLSPServer reports ErrNotConfigured immediately rather than
// blocking, so `jac tool lsp` fails fast when no LSP backend is built
// into this binary.
type NoopLSPServer struct{}

func (NoopLSPServer) Serve(context.Context) error { return ErrNotConfigured }

// NoopScaffolder reports ErrNotConfigured; `jac create` needs a real
// Scaffolder registered to produce a project skeleton.
type NoopScaffolder struct{}

func (NoopScaffolder) Scaffold(context.Context, string, string) error { return ErrNotConfigured }

// NoopPackageInstaller reports ErrNotConfigured.
type NoopPackageInstaller struct{}

func (NoopPackageInstaller) Install(context.Context, string) error { return ErrNotConfigured }

// NoopTranspiler reports ErrNotConfigured for both directions.
type NoopTranspiler struct{}

func (NoopTranspiler) PyToJac(context.Context, string) (string, error) { return "", ErrNotConfigured }
func (NoopTranspiler) JacToPy(context.Context, string) (string, error) { return "", ErrNotConfigured }

var (
	_ ClientBundler    = NoopClientBundler{}
	_ DeployHook       = NoopDeployHook{}
	_ LSPServer        = NoopLSPServer{}
	_ Scaffolder       = NoopScaffolder{}
	_ PackageInstaller = NoopPackageInstaller{}
	_ Transpiler       = NoopTranspiler{}
)
