// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package annex discovers and attaches annex files — .impl.jac,
// .cl.jac, and .test.jac — to the base module they extend.
//
// Annex files are discovered from three places relative to a base
// module at "foo.jac":
//
//   - The same directory: foo.impl.jac, foo.test.jac, foo.cl.jac
//   - A module-specific folder: foo.impl/bar.impl.jac, foo.test/*.test.jac
//   - A shared "impl" folder in the same directory, matched by basename
//     prefix: impl/foo.extra.impl.jac attaches to foo.jac
//
// This lets implementation and test code live apart from interface
// declarations without the Annex Loader needing any declaration inside
// the base module naming its annexes.
package annex

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies a discovered annex file.
type Kind int

const (
	KindImpl Kind = iota
	KindTest
	KindClient
)

// File is one discovered annex file awaiting compilation.
type File struct {
	Path string
	Kind Kind
}

// Discover returns every annex file attached to the base module at
// modPath, in no particular order. modPath must end in ".jac" (plain
// modules only; package __init__.jac files are not annexable by this
// spec's rules, matching the upstream loader's stub_only / annexable_by
// early return). A client module's ".cl" suffix is stripped to find its
// base; an ".impl.jac" or ".test.jac" path is itself an annex and
// returns nil.
func Discover(modPath string) []File {
	if !strings.HasSuffix(modPath, ".jac") || filepath.Base(modPath) == "__init__.jac" ||
		strings.HasSuffix(modPath, ".impl.jac") || strings.HasSuffix(modPath, ".test.jac") {
		return nil
	}
	basePath := strings.TrimSuffix(modPath, ".jac")
	if strings.HasSuffix(basePath, ".cl") {
		basePath = strings.TrimSuffix(basePath, ".cl")
	}
	baseName := filepath.Base(basePath)
	dir := filepath.Dir(modPath)

	implFolder := basePath + ".impl"
	testFolder := basePath + ".test"
	clFolder := basePath + ".cl"
	sharedImplFolder := filepath.Join(dir, "impl")

	var candidates []string
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			candidates = append(candidates, filepath.Join(dir, e.Name()))
		}
	}
	for _, folder := range []string{implFolder, testFolder, clFolder, sharedImplFolder} {
		entries, err := os.ReadDir(folder)
		if err != nil {
			continue
		}
		for _, e := range entries {
			candidates = append(candidates, filepath.Join(folder, e.Name()))
		}
	}

	var out []File
	seen := map[string]bool{}
	for _, path := range candidates {
		if path == modPath || seen[path] {
			continue
		}
		switch {
		case strings.HasSuffix(path, ".impl.jac") && belongsToBase(path, basePath, baseName, implFolder, sharedImplFolder):
			out = append(out, File{Path: path, Kind: KindImpl})
		case strings.HasSuffix(path, ".cl.jac") && belongsToBase(path, basePath, baseName, clFolder, ""):
			out = append(out, File{Path: path, Kind: KindClient})
		case strings.HasSuffix(path, ".test.jac") && belongsToBase(path, basePath, baseName, testFolder, ""):
			out = append(out, File{Path: path, Kind: KindTest})
		default:
			continue
		}
		seen[path] = true
	}
	return out
}

// belongsToBase applies the three attachment rules shared by every
// annex kind: same-directory prefix match, residence in the kind's own
// module-specific folder, or — for impl annexes only — residence in the
// shared impl folder with a basename that is prefixed by the base
// module's name.
func belongsToBase(path, basePath, baseName, ownFolder, sharedFolder string) bool {
	if strings.HasPrefix(path, basePath+".") {
		return true
	}
	if filepath.Dir(path) == ownFolder {
		return true
	}
	if sharedFolder != "" && filepath.Dir(path) == sharedFolder && strings.HasPrefix(filepath.Base(path), baseName+".") {
		return true
	}
	return false
}
