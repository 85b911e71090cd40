// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package graphmem implements Graph Memory: the persistent anchor store
// backing nodes, edges, walkers, and roots, each owned by a root and
// gated by a public/protected/private access control list.
//
// The storage layer is a thin wrapper around dgraph-io/badger/v4,
// structured the way this module's teacher wraps Badger for its own
// embedded stores: a Config with an in-memory/persistent switch, a DB
// with context-aware transaction helpers, and a background GCRunner for
// value-log compaction.
package graphmem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Config configures the underlying Badger store.
type Config struct {
	InMemory          bool
	Path              string
	SyncWrites        bool
	NumVersionsToKeep int
	GCInterval        time.Duration
	GCDiscardRatio    float64
	Logger            badger.Logger
}

// DefaultConfig returns the configuration for a persistent, durable
// store suitable for production use.
func DefaultConfig() Config {
	return Config{
		SyncWrites:        true,
		NumVersionsToKeep: 1,
		GCInterval:        5 * time.Minute,
		GCDiscardRatio:    0.5,
	}
}

// InMemoryConfig returns the configuration used by tests and by `jac
// run` sessions that don't need anchors to survive the process.
func InMemoryConfig() Config {
	return Config{
		InMemory:   true,
		SyncWrites: false,
		GCInterval: 0,
	}
}

// DB wraps a *badger.DB with context-aware transaction helpers.
//
// # Thread Safety
//
// DB is safe for concurrent use; Badger itself serializes writers
// internally and supports concurrent readers.
type DB struct {
	bdb *badger.DB
	gc  *GCRunner
}

// OpenInMemory opens a transient, non-persisted store.
func OpenInMemory() (*DB, error) {
	return Open(InMemoryConfig())
}

// OpenWithPath opens a persistent store rooted at dir.
func OpenWithPath(dir string) (*DB, error) {
	cfg := DefaultConfig()
	cfg.Path = dir
	return Open(cfg)
}

// Open opens a store per cfg.
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("graphmem: path is required for a persistent store")
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts = opts.WithInMemory(cfg.InMemory).WithSyncWrites(cfg.SyncWrites)
	if cfg.NumVersionsToKeep > 0 {
		opts = opts.WithNumVersionsToKeep(cfg.NumVersionsToKeep)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(cfg.Logger)
	} else {
		opts = opts.WithLogger(nil)
	}

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("graphmem: opening store: %w", err)
	}

	db := &DB{bdb: bdb}
	if cfg.GCInterval > 0 {
		runner, err := NewGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		if err != nil {
			bdb.Close()
			return nil, err
		}
		db.gc = runner
		runner.Start()
	}
	return db, nil
}

// Raw exposes the underlying *badger.DB, for components that need a
// direct handle onto the same store Graph Memory is backed by (the
// User Manager's credential and refresh-token records, for instance).
func (d *DB) Raw() *badger.DB {
	return d.bdb
}

// Close stops the GC runner (if any) and closes the underlying store.
func (d *DB) Close() error {
	if d.gc != nil {
		d.gc.Stop()
	}
	return d.bdb.Close()
}

// WithTxn runs fn inside a read-write Badger transaction, honoring ctx
// cancellation before the transaction even starts.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("graphmem: context cancelled: %w", err)
	}
	return d.bdb.Update(fn)
}

// WithReadTxn runs fn inside a read-only Badger transaction.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("graphmem: context cancelled: %w", err)
	}
	return d.bdb.View(fn)
}

// GCRunner periodically runs Badger's value-log garbage collection on a
// background goroutine.
type GCRunner struct {
	db       *DB
	interval time.Duration
	ratio    float64
	logger   badger.Logger

	stop chan struct{}
	once sync.Once
}

// NewGCRunner validates its arguments and returns a GCRunner bound to db.
func NewGCRunner(db *DB, interval time.Duration, ratio float64, logger badger.Logger) (*GCRunner, error) {
	if db == nil {
		return nil, errors.New("graphmem: db must not be nil")
	}
	if interval <= 0 {
		return nil, errors.New("graphmem: interval must be positive")
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, errors.New("graphmem: ratio must be between 0 and 1")
	}
	return &GCRunner{db: db, interval: interval, ratio: ratio, logger: logger, stop: make(chan struct{})}, nil
}

// Start begins the periodic GC loop on a new goroutine.
func (g *GCRunner) Start() {
	go func() {
		ticker := time.NewTicker(g.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for {
					if err := g.db.bdb.RunValueLogGC(g.ratio); err != nil {
						break
					}
				}
			case <-g.stop:
				return
			}
		}
	}()
}

// Stop halts the GC loop. Safe to call more than once.
func (g *GCRunner) Stop() {
	g.once.Do(func() { close(g.stop) })
}

// TempDir creates a fresh temporary directory for a persistent store,
// used by tests that need OpenWithPath's on-disk behavior.
func TempDir(pattern string) (string, error) {
	return os.MkdirTemp("", pattern)
}

// CleanupDir removes dir if non-empty; a no-op for an empty path so
// callers can defer it unconditionally.
func CleanupDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}
