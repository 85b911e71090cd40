// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bytecache provides disk-based caching for compiled module
// artifacts, mirroring Python's __pycache__ mechanism: one content- and
// mtime-addressed file per (source path, compile mode, host version)
// tuple, stored under a single cache directory rather than scattered
// alongside sources.
package bytecache

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"
)

const (
	extension    = ".jbc"
	minimalInfix = ".minimal"
)

// Key identifies one cached artifact. Minimal distinguishes the
// bootstrap-minimal compile mode (see internal/program) from a full
// compile of the same source, since the two produce different bytecode
// for the same path. HostVersion binds the entry to the compiler build
// that produced it, so upgrading the toolchain invalidates every entry
// without needing to touch the filesystem.
type Key struct {
	SourcePath  string
	Minimal     bool
	HostVersion string
}

// Entry is one cached compiled artifact plus the bookkeeping needed to
// validate it without recompiling.
type Entry struct {
	Bytecode   []byte
	SourceHash uint64
}

// Cache is the interface the Program depends on; Disk is the only
// production implementation, but tests can substitute an in-memory
// stand-in.
type Cache interface {
	Get(key Key) (Entry, bool)
	Put(key Key, entry Entry) error
}

// Disk is a filesystem-backed Cache rooted at Dir.
//
// # Thread Safety
//
// Disk is safe for concurrent use: Get performs independent file reads
// and Put writes to a path derived deterministically from Key, so two
// goroutines racing to cache the same entry simply overwrite each other
// with equivalent bytes.
type Disk struct {
	Dir string
}

// New returns a Disk cache rooted at dir, creating it if necessary.
func New(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Disk{Dir: dir}, nil
}

func (d *Disk) pathFor(key Key) string {
	abs, err := filepath.Abs(key.SourcePath)
	if err != nil {
		abs = key.SourcePath
	}
	sum := xxh3.HashString(abs)
	hash := hex.EncodeToString([]byte{
		byte(sum >> 56), byte(sum >> 48), byte(sum >> 40), byte(sum >> 32),
		byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum),
	})[:8]

	name := filepath.Base(abs)
	name = trimSourceExt(name)
	suffix := extension
	if key.Minimal {
		suffix = minimalInfix + extension
	}
	return filepath.Join(d.Dir, name+"."+hash+"."+key.HostVersion+suffix)
}

func trimSourceExt(name string) string {
	for _, ext := range []string{".impl.jac", ".test.jac", ".cl.jac", ".jac"} {
		if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// Get returns the cached entry for key if the on-disk artifact is newer
// than the source file and its stored content hash still matches the
// source's current content hash. A stale or absent entry returns
// (Entry{}, false); callers recompile and Put the fresh result rather
// than treating this as an error.
func (d *Disk) Get(key Key) (Entry, bool) {
	cachePath := d.pathFor(key)

	srcInfo, err := os.Stat(key.SourcePath)
	if err != nil {
		return Entry{}, false
	}
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return Entry{}, false
	}
	if !cacheInfo.ModTime().After(srcInfo.ModTime()) {
		return Entry{}, false
	}

	src, err := os.ReadFile(key.SourcePath)
	if err != nil {
		return Entry{}, false
	}
	raw, err := os.ReadFile(cachePath)
	if err != nil {
		return Entry{}, false
	}
	if len(raw) < 8 {
		return Entry{}, false
	}
	storedHash := decodeHash(raw[:8])
	if storedHash != xxh3.Hash(src) {
		return Entry{}, false
	}
	return Entry{Bytecode: raw[8:], SourceHash: storedHash}, true
}

// Put stores bytecode for key, deriving its content hash from src so a
// later Get can detect drift even when the file's mtime was not bumped
// (e.g. a checkout that resets mtimes to checkout time).
func (d *Disk) Put(key Key, entry Entry) error {
	src, err := os.ReadFile(key.SourcePath)
	if err != nil {
		return err
	}
	entry.SourceHash = xxh3.Hash(src)

	cachePath := d.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return err
	}

	buf := make([]byte, 8+len(entry.Bytecode))
	encodeHash(buf[:8], entry.SourceHash)
	copy(buf[8:], entry.Bytecode)

	tmp := cachePath + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, cachePath)
}

func encodeHash(b []byte, h uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(h >> (56 - 8*i))
	}
}

func decodeHash(b []byte) uint64 {
	var h uint64
	for i := 0; i < 8; i++ {
		h = h<<8 | uint64(b[i])
	}
	return h
}

// Invalidate removes a cached entry; an entry that is not on disk is
// not an error.
func (d *Disk) Invalidate(key Key) error {
	err := os.Remove(d.pathFor(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// touch is exercised only by tests that need to force a cache entry's
// mtime ahead of a freshly rewritten source file.
func touch(path string) error {
	now := time.Now()
	return os.Chtimes(path, now, now)
}
