// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/clihost"
	"github.com/jac-lang/jac/internal/config"
)

var (
	cleanData     bool
	cleanCache    bool
	cleanPackages bool
	cleanClient   bool
	cleanAll      bool
	cleanForce    bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated data, cache, package, or client directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		cfg := config.Default()

		targets := map[string]string{}
		if cleanData || cleanAll {
			targets["data"] = cfg.Storage.DataDir
		}
		if cleanCache || cleanAll {
			targets["cache"] = cfg.Module.CacheDir
		}
		if cleanClient || cleanAll {
			targets["client"] = filepath.Join(cfg.Module.CacheDir, "client")
		}
		if cleanPackages || cleanAll {
			targets["packages"] = filepath.Join(cfg.Module.CacheDir, "packages")
		}
		if len(targets) == 0 {
			exitCode = host.Fail("clean", start, fmt.Errorf("clean: specify --data, --cache, --packages, --client, or --all"))
			return nil
		}

		if !cleanForce {
			host.Info("would remove: %s (pass --force to actually remove)", dirList(targets))
			exitCode = host.Succeed("clean", start, map[string]any{"dry_run": true, "targets": targets})
			return nil
		}

		removed := make([]string, 0, len(targets))
		for name, dir := range targets {
			if err := os.RemoveAll(dir); err != nil {
				exitCode = host.Fail("clean", start, fmt.Errorf("removing %s (%s): %w", name, dir, err))
				return nil
			}
			removed = append(removed, name)
		}
		exitCode = host.Succeed("clean", start, map[string]any{"removed": removed})
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanData, "data", false, "remove the persisted Graph Memory data directory")
	cleanCmd.Flags().BoolVar(&cleanCache, "cache", false, "remove the bytecode cache directory")
	cleanCmd.Flags().BoolVar(&cleanPackages, "packages", false, "remove cached downloaded packages")
	cleanCmd.Flags().BoolVar(&cleanClient, "client", false, "remove generated client bundle output")
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "remove every generated directory")
	cleanCmd.Flags().BoolVar(&cleanForce, "force", false, "actually remove the targets instead of a dry run")
}

func dirList(targets map[string]string) string {
	out := ""
	for name, dir := range targets {
		if out != "" {
			out += ", "
		}
		out += name + "=" + dir
	}
	return out
}
