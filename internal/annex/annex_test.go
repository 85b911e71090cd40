// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annex

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func write(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func names(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = filepath.Base(f.Path)
	}
	sort.Strings(out)
	return out
}

func TestDiscover_SameDirectoryPrefix(t *testing.T) {
	dir := t.TempDir()
	mod := filepath.Join(dir, "foo.jac")
	write(t, mod)
	write(t, filepath.Join(dir, "foo.impl.jac"))
	write(t, filepath.Join(dir, "foo.test.jac"))
	write(t, filepath.Join(dir, "unrelated.jac"))

	got := Discover(mod)
	want := []string{"foo.impl.jac", "foo.test.jac"}
	if gotNames := names(got); !equal(gotNames, want) {
		t.Errorf("Discover() = %v, want %v", gotNames, want)
	}
}

func TestDiscover_ModuleSpecificFolder(t *testing.T) {
	dir := t.TempDir()
	mod := filepath.Join(dir, "foo.jac")
	write(t, mod)
	write(t, filepath.Join(dir, "foo.impl", "bar.impl.jac"))
	write(t, filepath.Join(dir, "foo.test", "cases.test.jac"))

	got := Discover(mod)
	want := []string{"bar.impl.jac", "cases.test.jac"}
	if gotNames := names(got); !equal(gotNames, want) {
		t.Errorf("Discover() = %v, want %v", gotNames, want)
	}
}

func TestDiscover_SharedImplFolderPrefixMatch(t *testing.T) {
	dir := t.TempDir()
	mod := filepath.Join(dir, "foo.jac")
	write(t, mod)
	write(t, filepath.Join(dir, "impl", "foo.extra.impl.jac"))
	write(t, filepath.Join(dir, "impl", "other.extra.impl.jac"))

	got := Discover(mod)
	want := []string{"foo.extra.impl.jac"}
	if gotNames := names(got); !equal(gotNames, want) {
		t.Errorf("Discover() = %v, want %v", gotNames, want)
	}
}

func TestDiscover_ClientAnnex(t *testing.T) {
	dir := t.TempDir()
	mod := filepath.Join(dir, "foo.jac")
	write(t, mod)
	write(t, filepath.Join(dir, "foo.cl.jac"))

	got := Discover(mod)
	if len(got) != 1 || got[0].Kind != KindClient {
		t.Errorf("Discover() = %+v, want one KindClient entry", got)
	}
}

func TestDiscover_AnnexPathReturnsNil(t *testing.T) {
	if got := Discover("foo.impl.jac"); got != nil {
		t.Errorf("Discover(impl path) = %v, want nil", got)
	}
}

func TestDiscover_ExcludesSelf(t *testing.T) {
	dir := t.TempDir()
	mod := filepath.Join(dir, "foo.jac")
	write(t, mod)

	got := Discover(mod)
	for _, f := range got {
		if f.Path == mod {
			t.Error("Discover() should never include the base module itself")
		}
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
