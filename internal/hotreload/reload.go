// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hotreload implements the Hot Reloader + Watcher: a debounced
// filesystem watcher over the project's Jac source roots that reverse-
// resolves a changed file back to its owning module, recompiles it, and
// swaps the new module atomically into the Program's module registry
// without dropping the API Server's listener or any live execution
// context.
package hotreload

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jac-lang/jac/internal/program"
)

// defaultIgnorePatterns mirrors the directories and editor-swap files
// no project ever wants triggering a recompile.
var defaultIgnorePatterns = []string{".git", ".jac_cache", ".jac_data", "node_modules", "*.swp", "*.tmp"}

// Event describes one completed reload, successful or not. The Reloader
// itself does not produce Events.
type Event struct {
	Dotted string
	Module bool // true if the changed path was a client (.cl.jac) annex
	Err    error
}

// Reloader watches a set of source roots and keeps a Program's compiled
// modules current as files change underneath it.
//
// # Thread Safety
//
// Safe for concurrent use. Start should only be called once; Stop may
// be called from any goroutine and is idempotent.
type Reloader struct {
	prog     *program.Program
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger

	// onClientChange, if set, is invoked (instead of Program.Recompile)
	// when the changed path is a client annex, so a bundler can re-run
	// codegen for that client page. Client bundling itself is out of
	// this package's scope; see internal/extern.
	onClientChange func(dotted, path string)

	events   chan fsnotify.Event
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	watching bool
}

// Option configures a Reloader at construction time.
type Option func(*Reloader)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reloader) { r.logger = l }
}

// WithClientChangeHook registers a callback invoked for .cl.jac changes
// in place of a recompile-and-swap, so the caller can drive client
// bundle regeneration.
func WithClientChangeHook(fn func(dotted, path string)) Option {
	return func(r *Reloader) { r.onClientChange = fn }
}

// New builds a Reloader over prog, debouncing filesystem events by
// debounce before acting on them.
func New(prog *program.Program, debounce time.Duration, opts ...Option) (*Reloader, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	r := &Reloader{
		prog:     prog,
		watcher:  w,
		debounce: debounce,
		logger:   slog.Default(),
		events:   make(chan fsnotify.Event, 256),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start recursively watches every root and begins reacting to changes.
// It spawns two goroutines (event intake and debounce-then-reload) and
// returns once the initial watch is established; both goroutines exit
// when ctx is cancelled or Stop is called.
func (r *Reloader) Start(ctx context.Context, roots []string) error {
	r.mu.Lock()
	if r.watching {
		r.mu.Unlock()
		return nil
	}
	r.watching = true
	r.mu.Unlock()

	for _, root := range roots {
		if err := r.addRecursive(root); err != nil {
			return err
		}
	}

	go r.intake(ctx)
	go r.debounceLoop(ctx)
	return nil
}

// Stop releases the underlying filesystem watch. Safe to call more
// than once.
func (r *Reloader) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.watcher.Close()
		r.mu.Lock()
		r.watching = false
		r.mu.Unlock()
	})
}

func (r *Reloader) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if shouldIgnore(path) {
			return filepath.SkipDir
		}
		return r.watcher.Add(path)
	})
}

func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range defaultIgnorePatterns {
		if base == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// intake forwards raw fsnotify events onto r.events, adding newly
// created directories to the watch as it goes.
func (r *Reloader) intake(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".jac") {
				if ev.Has(fsnotify.Create) {
					if info, err := fsDirInfo(ev.Name); err == nil && info {
						r.watcher.Add(ev.Name)
					}
				}
				continue
			}
			if shouldIgnore(ev.Name) {
				continue
			}
			select {
			case r.events <- ev:
			default:
				r.logger.Warn("hot reload event buffer full, dropping event", "path", ev.Name)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("hot reload watcher error", "error", err)
		}
	}
}

func fsDirInfo(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// debounceLoop batches changed paths per debounce window, then, for
// each distinct path in the batch, runs the recompile-and-swap critical
// section described in the package doc.
func (r *Reloader) debounceLoop(ctx context.Context) {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		for path := range pending {
			r.reloadPath(ctx, path)
		}
		pending = make(map[string]struct{})
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-r.done:
			flush()
			return
		case ev := <-r.events:
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(r.debounce)
				timerC = timer.C
			} else {
				timer.Reset(r.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// reloadPath is the critical section: reverse-resolve path to a dotted
// module name, then either hand off to the client-change hook or
// recompile and atomically swap the module. A compile failure is
// logged and otherwise ignored — the Program keeps serving whatever it
// last had registered for that name, and persisted Graph Memory state
// and any in-flight execution contexts are untouched either way since
// neither holds a reference into the old *ast.Module beyond the single
// call that's using it.
func (r *Reloader) reloadPath(ctx context.Context, path string) {
	dotted, ok := r.prog.DottedNameForPath(path)
	if !ok {
		r.logger.Debug("hot reload: changed path not owned by any compiled module", "path", path)
		return
	}

	if strings.HasSuffix(path, ".cl.jac") && r.onClientChange != nil {
		r.onClientChange(dotted, path)
		return
	}

	_, err := r.prog.Recompile(ctx, dotted)
	if err != nil {
		r.logger.Error("hot reload: recompile failed, keeping previous module", "module", dotted, "path", path, "error", err)
		return
	}
	r.logger.Info("hot reload: module recompiled", "module", dotted, "path", path)
}
