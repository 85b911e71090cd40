// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package validation provides input validation utilities for security-critical
// operations: dotted module names and filesystem paths derived from them.
//
// Using these validators before touching the filesystem prevents path
// traversal and injection of shell-meaningful characters into resolved
// source paths.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// modNamePattern matches a single dotted-name segment: a module or package
// component between dots. Mirrors Go identifier rules loosely (letters,
// digits, underscore; must not start with a digit).
var modNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateModuleName validates a dotted logical module name such as
// "pkg.sub.mod" before it is handed to the Source Resolver.
//
// Valid names:
//   - One or more dot-separated segments
//   - Each segment starts with a letter or underscore
//   - Each segment contains only letters, digits, or underscores
//
// Rejects empty names, leading/trailing dots, consecutive dots, and any
// segment containing path separators ("/", "\") or "..", which would
// otherwise let a crafted import escape the configured search roots.
func ValidateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return fmt.Errorf("invalid module name %q: leading or trailing dot", name)
	}
	segments := strings.Split(name, ".")
	for _, seg := range segments {
		if seg == "" {
			return fmt.Errorf("invalid module name %q: empty segment", name)
		}
		if !modNamePattern.MatchString(seg) {
			return fmt.Errorf("invalid module name %q: segment %q is not a valid identifier", name, seg)
		}
	}
	return nil
}

// ValidateSearchRelative checks that a path resolved from a module name,
// when joined under a search root, cannot escape that root. Callers pass
// the segment-joined relative path (before filepath.Join with the root).
func ValidateSearchRelative(relPath string) error {
	if relPath == "" {
		return fmt.Errorf("relative path cannot be empty")
	}
	for _, part := range strings.Split(relPath, "/") {
		if part == ".." {
			return fmt.Errorf("invalid relative path %q: contains parent traversal", relPath)
		}
	}
	return nil
}
