// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads and validates jac.toml, the project-level
// configuration file consumed by the CLI, the API Server, and the Hot
// Reloader.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root of jac.toml.
type Config struct {
	Module  ModuleConfig  `toml:"module"`
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	Reload  ReloadConfig  `toml:"reload"`
}

// ModuleConfig describes the root Jac module this project compiles.
type ModuleConfig struct {
	Name       string   `toml:"name"`
	Entry      string   `toml:"entry"`       // dotted name of the main module
	SearchPath []string `toml:"search_path"` // additional directories searched for dotted imports
	CacheDir   string   `toml:"cache_dir"`   // defaults to ".jac_cache" when empty
}

// ServerConfig configures the API Server.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	JWTIssuer       string        `toml:"jwt_issuer"`
	AccessTTL       time.Duration `toml:"access_ttl"`
	RefreshWindow   time.Duration `toml:"refresh_window"`
	RateLimitPerSec float64       `toml:"rate_limit_per_sec"`
	RateLimitBurst  int           `toml:"rate_limit_burst"`
	EnableOpenAPI   bool          `toml:"enable_openapi"`
	ClRoutePrefix   string        `toml:"cl_route_prefix"` // prefix for client-page routes, default "cl"
	BaseRouteApp    string        `toml:"base_route_app"`  // if set, GET / renders this client page instead of the API directory
}

// StorageConfig configures Graph Memory's persisted anchor store.
type StorageConfig struct {
	DataDir    string `toml:"data_dir"`
	InMemory   bool   `toml:"in_memory"`
	SyncWrites bool   `toml:"sync_writes"`
}

// LogConfig configures structured logging across every component.
type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
	Dir   string `toml:"dir"`
}

// ReloadConfig configures the Hot Reloader + Watcher.
type ReloadConfig struct {
	Enabled       bool          `toml:"enabled"`
	DebounceDelay time.Duration `toml:"debounce_delay"`
}

// Default returns a Config populated with the built-in defaults that
// Load overlays a jac.toml onto.
func Default() Config {
	return Config{
		Module: ModuleConfig{
			CacheDir: ".jac_cache",
		},
		Server: ServerConfig{
			Addr:            ":8000",
			JWTIssuer:       "jac",
			AccessTTL:       15 * time.Minute,
			RefreshWindow:   24 * time.Hour,
			RateLimitPerSec: 50,
			RateLimitBurst:  100,
			EnableOpenAPI:   true,
			ClRoutePrefix:   "cl",
		},
		Storage: StorageConfig{
			DataDir:    ".jac_data",
			SyncWrites: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Reload: ReloadConfig{
			Enabled:       true,
			DebounceDelay: 75 * time.Millisecond,
		},
	}
}

// Load reads and parses jac.toml at path, starting from Default and
// overlaying whatever fields the file sets.
//
// Description:
//
//	Load reads the TOML file at path and merges its contents onto
//	Default(), so a config file only needs to specify the fields it
//	wants to override.
//
// Inputs:
//   - path: filesystem path to a jac.toml file
//
// Outputs:
//   - Config: the merged configuration
//   - error: wrapped os.ReadFile error if the file cannot be read, or
//     wrapped toml.Unmarshal error if the file is malformed
//
// Limitations:
//   - Does not support includes or environment variable interpolation
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field-level invariants that toml.Unmarshal cannot
// express: a missing or empty entry module, a non-positive rate limit,
// and a negative debounce delay are all rejected early rather than
// surfacing as confusing failures downstream.
func (c Config) Validate() error {
	if c.Module.Entry == "" {
		return fmt.Errorf("config: module.entry is required")
	}
	if c.Server.RateLimitPerSec <= 0 {
		return fmt.Errorf("config: server.rate_limit_per_sec must be positive")
	}
	if c.Reload.DebounceDelay < 0 {
		return fmt.Errorf("config: reload.debounce_delay must not be negative")
	}
	return nil
}
