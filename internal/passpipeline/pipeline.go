// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package passpipeline runs the ordered compile passes — Parse, Annex
// Attach, Import, Symbol/Def-Impl Match, Semantic/Type Check, Codegen —
// over a single module and its annexes.
//
// Thread Safety:
//
// A Pipeline instance is reused across every module the Program
// compiles; Run is safe for concurrent use from multiple goroutines as
// long as two calls never target the same *ast.Module simultaneously.
package passpipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/jac-lang/jac/internal/annex"
	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/jacerr"
	"github.com/jac-lang/jac/internal/parser"
)

func loadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// StageName identifies one pass in the pipeline, used in diagnostics.
type StageName string

const (
	StageParse        StageName = "parse"
	StageAnnexAttach  StageName = "annex_attach"
	StageImport       StageName = "import"
	StageDefImplMatch StageName = "def_impl_match"
	StageSemanticType StageName = "semantic_type_check"
	StageCodegen      StageName = "codegen"
)

// Loader resolves a dotted module name to source text, decoupling the
// pipeline from the Source Resolver so it can be driven by tests without
// touching a filesystem.
type Loader interface {
	Load(dotted string) (path, src string, err error)
}

// Diagnostic is one pass-produced error or warning, carried alongside
// the Program's per-module result rather than returned as a Go error so
// a single compile can surface many of them at once.
type Diagnostic struct {
	Stage   StageName
	Span    ast.Location
	Message string
	Fatal   bool
}

// Result is the outcome of running the pipeline over one module.
type Result struct {
	Module      *ast.Module
	Diagnostics []Diagnostic
	// Minimal is set when Run was called in minimal mode, which skips
	// Codegen; internal/program uses it for bootstrap-minimal modules and
	// for bytecode cache hits.
	Minimal bool
}

// Pipeline runs the compile passes in a fixed order.
type Pipeline struct {
	loader Loader
	// Codegen is a pluggable backend; this spec's pass pipeline states
	// its contract (consume a matched, type-checked *ast.Module; emit a
	// target artifact) without enumerating target-language emission
	// syntax, so Codegen may be nil in configurations that only need
	// the frontend (e.g. `jac check`, `jac format`).
	Codegen func(*ast.Module) error
}

// New returns a Pipeline that loads source text via loader.
func New(loader Loader) *Pipeline {
	return &Pipeline{loader: loader}
}

// Run executes every stage over the module named dotted. minimal skips
// Codegen and any stage-internal optimization, matching the bootstrap
// compile mode the Program uses for modules on its minimal-module list.
func (p *Pipeline) Run(ctx context.Context, dotted string, unitKind ast.SourceUnitKind, minimal bool) (*Result, error) {
	path, src, err := p.loader.Load(dotted)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dotted, err)
	}

	res := &Result{Minimal: minimal}

	// Stage: Parse.
	parsed := parser.Parse(path, src, unitKind)
	res.Module = parsed.Module
	for _, d := range parsed.Diagnostics {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{Stage: StageParse, Span: d.Span, Message: d.Message, Fatal: d.Fatal})
		if d.Fatal {
			return res, fmt.Errorf("%s: %w", dotted, jacerr.ErrCompileFailed)
		}
	}

	// Stage: Annex Attach.
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := p.runAnnexAttach(ctx, res); err != nil {
		return res, err
	}

	// Stage: Import.
	if err := ctx.Err(); err != nil {
		return res, err
	}
	p.runImport(res)

	// Stage: Symbol/Def-Impl Match.
	p.runDefImplMatch(res)

	// Stage: Semantic/Type Check.
	p.runSemanticCheck(res)

	hasFatal := false
	for _, d := range res.Diagnostics {
		if d.Fatal {
			hasFatal = true
			break
		}
	}
	if hasFatal {
		return res, fmt.Errorf("%s: %w", dotted, jacerr.ErrCompileFailed)
	}

	// Stage: Codegen.
	if !minimal && p.Codegen != nil {
		if err := p.Codegen(res.Module); err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Stage: StageCodegen, Message: err.Error(), Fatal: true})
			return res, fmt.Errorf("%s: %w", dotted, jacerr.ErrCompileFailed)
		}
	}
	return res, nil
}

// runAnnexAttach discovers and parses every annex file for the module
// and attaches the compiled annex *ast.Module values to it, mirroring
// the upstream annex pass's load_annexes.
func (p *Pipeline) runAnnexAttach(ctx context.Context, res *Result) error {
	mod := res.Module
	if mod.StubOnly || mod.AnnexedBy != "" {
		return nil
	}
	for _, f := range annex.Discover(mod.Path) {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := loadFile(f.Path)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Stage: StageAnnexAttach, Message: fmt.Sprintf("reading annex %s: %v", f.Path, err),
			})
			continue
		}
		var kind ast.SourceUnitKind
		switch f.Kind {
		case annex.KindImpl:
			kind = ast.UnitImpl
		case annex.KindClient:
			kind = ast.UnitClient
		case annex.KindTest:
			kind = ast.UnitTest
		}
		parsedAnnex := parser.Parse(f.Path, src, kind)
		parsedAnnex.Module.AnnexedBy = mod.Name
		switch f.Kind {
		case annex.KindImpl:
			mod.ImplMod = append(mod.ImplMod, parsedAnnex.Module)
		case annex.KindTest:
			mod.TestMod = append(mod.TestMod, parsedAnnex.Module)
		case annex.KindClient:
			mod.Clients = append(mod.Clients, parsedAnnex.Module.Clients...)
			mod.ClientMod = append(mod.ClientMod, parsedAnnex.Module)
		}
	}
	return nil
}

// runImport flags an Import of the module itself as a fatal diagnostic.
// It does not resolve imported names or detect cycles across modules,
// and the Program does not either.
func (p *Pipeline) runImport(res *Result) {
	for _, imp := range res.Module.Imports {
		if imp.ModuleName == res.Module.Name {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Stage: StageImport, Span: imp.Location,
				Message: fmt.Sprintf("module %q imports itself", imp.ModuleName), Fatal: true,
			})
		}
	}
}

// runDefImplMatch folds each impl module's ImplBlocks into the matching
// forward-declared Archetype or Ability on the base module, and flags
// anything left unresolved.
func (p *Pipeline) runDefImplMatch(res *Result) {
	mod := res.Module
	archByName := make(map[string]*ast.Archetype, len(mod.Archetypes))
	for _, a := range mod.Archetypes {
		archByName[a.Name] = a
	}

	for _, im := range mod.ImplMod {
		for _, impl := range im.Impls {
			arch, ok := archByName[impl.ArchName]
			if !ok {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Stage: StageDefImplMatch, Span: impl.Location,
					Message: fmt.Sprintf("impl for unknown archetype %q", impl.ArchName),
				})
				continue
			}
			if impl.MethodName == "" {
				arch.Fields = append(arch.Fields, impl.Fields...)
				arch.Abilities = append(arch.Abilities, impl.Abilities...)
				arch.HasBody = true
				continue
			}
			matched := false
			for _, ab := range arch.Abilities {
				if ab.Name == impl.MethodName {
					ab.Body = impl.Body
					ab.HasBody = true
					matched = true
					break
				}
			}
			if !matched {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Stage: StageDefImplMatch, Span: impl.Location,
					Message: fmt.Sprintf("impl for unknown ability %q on %q", impl.MethodName, impl.ArchName),
				})
			}
		}
	}

	for _, a := range mod.Archetypes {
		if !a.HasBody {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Stage: StageDefImplMatch, Span: a.Location,
				Message: fmt.Sprintf("%s %q has no matching impl", a.Kind, a.Name),
			})
		}
		for _, ab := range a.Abilities {
			if !ab.HasBody {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Stage: StageDefImplMatch, Span: ab.Location,
					Message: fmt.Sprintf("ability %q on %q has no matching impl", ab.Name, a.Name),
					Fatal:   true,
				})
			}
		}
	}
}

// runSemanticCheck performs the narrow set of checks this spec actually
// needs downstream (duplicate archetype names, and a walker ability's
// with-clause naming an archetype that exists) rather than a full type
// system — full expression typing is out of scope per the grammar this
// module's parser implements.
func (p *Pipeline) runSemanticCheck(res *Result) {
	mod := res.Module
	seen := map[string]bool{}
	known := map[string]bool{}
	for _, a := range mod.Archetypes {
		known[a.Name] = true
	}
	for _, a := range mod.Archetypes {
		if seen[a.Name] {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Stage: StageSemanticType, Span: a.Location,
				Message: fmt.Sprintf("duplicate archetype name %q", a.Name), Fatal: true,
			})
		}
		seen[a.Name] = true
		for _, ab := range a.Abilities {
			if ab.OtherArch != "" && !known[ab.OtherArch] {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Stage: StageSemanticType, Span: ab.Location,
					Message: fmt.Sprintf("ability %q references unknown archetype %q", ab.Name, ab.OtherArch),
				})
			}
		}
	}
}
