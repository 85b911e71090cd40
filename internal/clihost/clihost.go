// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package clihost implements the CLI's terminal-facing output: plain
// text or JSON result envelopes, colorized diagnostics gated on
// whether stdout is actually a terminal, and the exit-code contract
// every `cmd/jac` subcommand returns through.
package clihost

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Exit codes per spec.md §6: 0 on success, 1 on any compilation,
// type-check, or runtime error (plus the command-specific exceptions
// `format`/`check` document for themselves).
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Result wraps one command's outcome for JSON-mode output.
type Result struct {
	Command    string    `json:"command"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
	OK         bool      `json:"ok"`
	Data       any       `json:"data,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Host bundles the output destinations and formatting mode every
// subcommand renders through, so commands stay testable by swapping
// out and err for in-memory buffers.
type Host struct {
	out, err io.Writer
	json     bool
	color    bool
}

// New builds a Host writing to os.Stdout/os.Stderr, enabling color
// only when stdout is an actual terminal (never when piped or
// redirected) and JSON is off.
func New(jsonMode bool) *Host {
	return &Host{
		out:   os.Stdout,
		err:   os.Stderr,
		json:  jsonMode,
		color: !jsonMode && isatty.IsTerminal(os.Stdout.Fd()),
	}
}

// NewForTest builds a Host over explicit writers with color disabled,
// for deterministic command tests.
func NewForTest(out, errW io.Writer, jsonMode bool) *Host {
	return &Host{out: out, err: errW, json: jsonMode, color: false}
}

const (
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

func (h *Host) colorize(code, s string) string {
	if !h.color {
		return s
	}
	return code + s + ansiReset
}

// Info prints a plain informational line to stdout. No-op in JSON mode,
// since JSON mode's only output is the final Result.
func (h *Host) Info(format string, args ...any) {
	if h.json {
		return
	}
	fmt.Fprintf(h.out, format+"\n", args...)
}

// Warn prints a yellow-tinted warning line to stderr.
func (h *Host) Warn(format string, args ...any) {
	if h.json {
		return
	}
	fmt.Fprintln(h.err, h.colorize(ansiYellow, fmt.Sprintf(format, args...)))
}

// Succeed renders a successful command result and returns ExitSuccess.
func (h *Host) Succeed(cmd string, start time.Time, data any) int {
	if h.json {
		h.emit(Result{Command: cmd, Timestamp: start, DurationMs: time.Since(start).Milliseconds(), OK: true, Data: data})
	} else if data != nil {
		fmt.Fprintln(h.out, h.colorize(ansiGreen, fmt.Sprint(data)))
	}
	return ExitSuccess
}

// Fail renders a failed command result and returns ExitFailure.
func (h *Host) Fail(cmd string, start time.Time, err error) int {
	if h.json {
		h.emit(Result{Command: cmd, Timestamp: start, DurationMs: time.Since(start).Milliseconds(), OK: false, Error: err.Error()})
	} else {
		fmt.Fprintln(h.err, h.colorize(ansiRed, "error: "+err.Error()))
	}
	return ExitFailure
}

func (h *Host) emit(r Result) {
	enc := json.NewEncoder(h.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(r)
}
