// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/apiserver"
	"github.com/jac-lang/jac/internal/clihost"
	"github.com/jac-lang/jac/internal/config"
	"github.com/jac-lang/jac/internal/extern"
	"github.com/jac-lang/jac/internal/hotreload"
	"github.com/jac-lang/jac/pkg/logging"
)

var (
	startPort     int
	startWatch    bool
	startNoClient bool
	startFaux     bool
)

var startCmd = &cobra.Command{
	Use:   "start <file>",
	Short: "Serve a Jac module over the API Server, optionally with hot reload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		ctx := cmd.Context()
		file := args[0]

		cfg := config.Default()
		if startPort != 0 {
			cfg.Server.Addr = fmt.Sprintf(":%d", startPort)
		}
		cfg.Storage.InMemory = startFaux

		prog, mod, err := compileEntry(ctx, file, "")
		if err != nil {
			exitCode = host.Fail("start", start, err)
			return nil
		}
		entry := mod.Name

		db, store, users, err := openStorage(cfg.Storage, cfg.Server)
		if err != nil {
			exitCode = host.Fail("start", start, err)
			return nil
		}
		defer db.Close()
		defer users.Close()

		if !startNoClient && len(mod.Clients) > 0 {
			bundler := extern.NoopClientBundler{}
			if err := bundler.Bundle(ctx, mod, filepath.Join(filepath.Dir(file), ".jac_cache", "client")); err != nil {
				host.Warn("client bundling skipped: %v", err)
			}
		}

		srv := apiserver.New(prog, store, users, cfg.Server, entry)

		var reloader *hotreload.Reloader
		if startWatch {
			logger := logging.New(logging.Config{Service: "jac-start"})
			defer logger.Close()
			reloader, err = hotreload.New(prog, cfg.Reload.DebounceDelay, hotreload.WithLogger(logger.Slog()))
			if err != nil {
				exitCode = host.Fail("start", start, fmt.Errorf("starting hot reloader: %w", err))
				return nil
			}
			if err := reloader.Start(ctx, []string{filepath.Dir(file)}); err != nil {
				exitCode = host.Fail("start", start, fmt.Errorf("watching %s: %w", file, err))
				return nil
			}
			defer reloader.Stop()
		}

		host.Info("serving %s on %s", entry, cfg.Server.Addr)
		runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if err := srv.Run(runCtx); err != nil {
			exitCode = host.Fail("start", start, err)
			return nil
		}
		exitCode = host.Succeed("start", start, nil)
		return nil
	},
}

func init() {
	startCmd.Flags().IntVar(&startPort, "port", 0, "HTTP port to listen on (default :8000)")
	startCmd.Flags().BoolVar(&startWatch, "watch", false, "recompile and hot-swap the module when its sources change")
	startCmd.Flags().BoolVar(&startNoClient, "no_client", false, "skip client bundle generation even if the module declares client pages")
	startCmd.Flags().BoolVar(&startFaux, "faux", false, "use an in-memory Graph Memory store instead of persisting to disk")
}
