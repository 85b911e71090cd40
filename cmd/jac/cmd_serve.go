// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/apiserver"
	"github.com/jac-lang/jac/internal/clihost"
	"github.com/jac-lang/jac/internal/config"
)

var (
	serveSession string
	servePort    int
)

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve a Jac module without hot reload, creating or checking a session root and reporting its ID (requests are not bound to it)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		ctx := cmd.Context()
		file := args[0]

		cfg := config.Default()
		if servePort != 0 {
			cfg.Server.Addr = fmt.Sprintf(":%d", servePort)
		}

		prog, mod, err := compileEntry(ctx, file, "")
		if err != nil {
			exitCode = host.Fail("serve", start, err)
			return nil
		}

		db, store, users, err := openStorage(cfg.Storage, cfg.Server)
		if err != nil {
			exitCode = host.Fail("serve", start, err)
			return nil
		}
		defer db.Close()
		defer users.Close()

		session := serveSession
		if session == "" {
			root, err := store.CreateRoot(ctx)
			if err != nil {
				exitCode = host.Fail("serve", start, fmt.Errorf("creating session root: %w", err))
				return nil
			}
			session = root.ID
		} else if _, err := store.Get(ctx, session, session); err != nil {
			exitCode = host.Fail("serve", start, fmt.Errorf("session %s: %w", session, err))
			return nil
		}
		host.Info("session %s", session)

		srv := apiserver.New(prog, store, users, cfg.Server, mod.Name)
		host.Info("serving %s on %s", mod.Name, cfg.Server.Addr)

		runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if err := srv.Run(runCtx); err != nil {
			exitCode = host.Fail("serve", start, err)
			return nil
		}
		exitCode = host.Succeed("serve", start, map[string]any{"session": session})
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveSession, "session", "", "resume an existing session root ID instead of creating a fresh one")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port to listen on (default :8000)")
}
