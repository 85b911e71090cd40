// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolver implements the Source Resolver: turning a dotted
// module name into a source file on disk, and classifying a resolved
// path by its role (package, module, or annex) in the compile pipeline.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/jacerr"
	"github.com/jac-lang/jac/pkg/validation"
)

// Kind classifies a resolved path by its role relative to its base
// module, mirroring the suffixes the Annex Loader keys off of.
type Kind int

const (
	KindPackage Kind = iota // a directory with __init__.jac
	KindModule              // a plain .jac file
	KindImplAnnex
	KindClientAnnex
	KindTestAnnex
)

// Resolved is the outcome of resolving one dotted module name.
type Resolved struct {
	Path string
	Kind Kind
	// SearchLocations is non-nil only for KindPackage, and becomes the
	// submodule search path for names nested under this package.
	SearchLocations []string
}

// Resolver resolves dotted Jac module names against a fixed ordered
// list of search directories, in the order given to New — the first
// directory to contain a matching package or file wins, matching the
// meta path importer's find_spec precedence.
type Resolver struct {
	searchPaths []string
}

// New returns a Resolver over searchPaths, in priority order.
func New(searchPaths []string) *Resolver {
	cp := make([]string, len(searchPaths))
	copy(cp, searchPaths)
	return &Resolver{searchPaths: cp}
}

// Resolve finds the source file for a dotted module name such as
// "pkg.sub.mod". It never resolves to an annex file directly — those
// are discovered by the Annex Loader once a base module is known —
// so only KindPackage and KindModule are ever returned here.
func (r *Resolver) Resolve(dotted string) (Resolved, error) {
	if err := validation.ValidateModuleName(dotted); err != nil {
		return Resolved{}, err
	}
	parts := strings.Split(dotted, ".")

	for _, base := range r.searchPaths {
		candidate := filepath.Join(append([]string{base}, parts...)...)

		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			initFile := filepath.Join(candidate, "__init__.jac")
			if _, err := os.Stat(initFile); err == nil {
				return Resolved{
					Path:            initFile,
					Kind:            KindPackage,
					SearchLocations: []string{candidate},
				}, nil
			}
			continue
		}

		jacFile := candidate + ".jac"
		if _, err := os.Stat(jacFile); err == nil {
			return Resolved{Path: jacFile, Kind: KindModule}, nil
		}
	}
	return Resolved{}, jacerr.ErrModuleNotFound
}

// ClassifyAnnex reports the annex Kind a file path would have relative
// to a base module path, by suffix alone. It does not check existence;
// the Annex Loader calls this after it has already listed a directory.
func ClassifyAnnex(path string) (Kind, bool) {
	switch {
	case strings.HasSuffix(path, ".impl.jac"):
		return KindImplAnnex, true
	case strings.HasSuffix(path, ".cl.jac"):
		return KindClientAnnex, true
	case strings.HasSuffix(path, ".test.jac"):
		return KindTestAnnex, true
	default:
		return 0, false
	}
}

// UnitKindFor maps an annex Kind to the ast.SourceUnitKind the parser
// should tag the resulting module with.
func UnitKindFor(k Kind) ast.SourceUnitKind {
	switch k {
	case KindImplAnnex:
		return ast.UnitImpl
	case KindClientAnnex:
		return ast.UnitClient
	case KindTestAnnex:
		return ast.UnitTest
	case KindPackage:
		return ast.UnitPackageInit
	default:
		return ast.UnitMain
	}
}
