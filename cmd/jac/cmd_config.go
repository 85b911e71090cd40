// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/jac-lang/jac/internal/clihost"
)

var configPath string
var configGroup string
var configOutputFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit jac.toml",
}

func init() {
	configCmd.PersistentFlags().StringVar(&configPath, "file", "jac.toml", "path to the project config file")
	configCmd.AddCommand(configGroupsCmd, configPathCmd, configShowCmd, configListCmd,
		configGetCmd, configSetCmd, configUnsetCmd, configOutputCmd)
	configShowCmd.Flags().StringVarP(&configGroup, "group", "g", "", "only show this top-level table")
}

func loadConfigMap(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	out := map[string]any{}
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return out, nil
}

func saveConfigMap(path string, m map[string]any) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// dotGet walks m along a dotted key path such as "server.addr".
func dotGet(m map[string]any, key string) (any, bool) {
	parts := strings.Split(key, ".")
	var cur any = m
	for _, p := range parts {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := asMap[p]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// dotSet walks/creates nested tables along key and assigns value at the
// leaf, creating intermediate tables as needed.
func dotSet(m map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	cur := m
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func dotUnset(m map[string]any, key string) bool {
	parts := strings.Split(key, ".")
	cur := m
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return false
		}
		cur = next
	}
	leaf := parts[len(parts)-1]
	if _, ok := cur[leaf]; !ok {
		return false
	}
	delete(cur, leaf)
	return true
}

func printConfigValue(host *clihost.Host, cmdName string, start time.Time, v any) {
	if configOutputFormat == "toml" {
		data, err := toml.Marshal(map[string]any{"value": v})
		if err != nil {
			exitCode = host.Fail(cmdName, start, err)
			return
		}
		fmt.Print(string(data))
		exitCode = clihost.ExitSuccess
		return
	}
	if jsonOutput {
		exitCode = host.Succeed(cmdName, start, v)
		return
	}
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
	exitCode = clihost.ExitSuccess
}

var configGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the top-level tables in jac.toml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		m, err := loadConfigMap(configPath)
		if err != nil {
			exitCode = host.Fail("config groups", start, err)
			return nil
		}
		names := make([]string, 0, len(m))
		for k := range m {
			names = append(names, k)
		}
		sort.Strings(names)
		printConfigValue(host, "config groups", start, names)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the resolved jac.toml path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		abs, err := resolveAbs(configPath)
		if err != nil {
			exitCode = host.Fail("config path", start, err)
			return nil
		}
		printConfigValue(host, "config path", start, abs)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print jac.toml, or one group with -g",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		m, err := loadConfigMap(configPath)
		if err != nil {
			exitCode = host.Fail("config show", start, err)
			return nil
		}
		if configGroup == "" {
			printConfigValue(host, "config show", start, m)
			return nil
		}
		v, ok := m[configGroup]
		if !ok {
			exitCode = host.Fail("config show", start, fmt.Errorf("config: no group %q", configGroup))
			return nil
		}
		printConfigValue(host, "config show", start, v)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every key in jac.toml, one per line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		m, err := loadConfigMap(configPath)
		if err != nil {
			exitCode = host.Fail("config list", start, err)
			return nil
		}
		var keys []string
		collectKeys("", m, &keys)
		sort.Strings(keys)
		printConfigValue(host, "config list", start, keys)
		return nil
	},
}

func collectKeys(prefix string, m map[string]any, out *[]string) {
	for k, v := range m {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			collectKeys(full, sub, out)
			continue
		}
		*out = append(*out, full)
	}
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value at a dotted key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		m, err := loadConfigMap(configPath)
		if err != nil {
			exitCode = host.Fail("config get", start, err)
			return nil
		}
		v, ok := dotGet(m, args[0])
		if !ok {
			exitCode = host.Fail("config get", start, fmt.Errorf("config: no key %q", args[0]))
			return nil
		}
		printConfigValue(host, "config get", start, v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a dotted key to a value and write it back to jac.toml",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		m, err := loadConfigMap(configPath)
		if err != nil {
			exitCode = host.Fail("config set", start, err)
			return nil
		}
		dotSet(m, args[0], coerceConfigValue(args[1]))
		if err := saveConfigMap(configPath, m); err != nil {
			exitCode = host.Fail("config set", start, err)
			return nil
		}
		exitCode = host.Succeed("config set", start, map[string]any{args[0]: args[1]})
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a dotted key from jac.toml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		m, err := loadConfigMap(configPath)
		if err != nil {
			exitCode = host.Fail("config unset", start, err)
			return nil
		}
		if !dotUnset(m, args[0]) {
			exitCode = host.Fail("config unset", start, fmt.Errorf("config: no key %q", args[0]))
			return nil
		}
		if err := saveConfigMap(configPath, m); err != nil {
			exitCode = host.Fail("config unset", start, err)
			return nil
		}
		exitCode = host.Succeed("config unset", start, nil)
		return nil
	},
}

var configOutputCmd = &cobra.Command{
	Use:   "output {json|toml}",
	Short: "Select the rendering format the other config subcommands use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		host := clihost.New(jsonOutput)
		switch args[0] {
		case "json", "toml":
			configOutputFormat = args[0]
			exitCode = host.Succeed("config output", start, map[string]any{"format": args[0]})
		default:
			exitCode = host.Fail("config output", start, fmt.Errorf("config: output format must be json or toml, got %q", args[0]))
		}
		return nil
	},
}

// coerceConfigValue interprets a raw CLI string as bool/int/float when it
// unambiguously looks like one, falling back to a plain string — jac.toml
// values are typed, but the CLI only ever receives text.
func coerceConfigValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	var i int64
	if _, err := fmt.Sscanf(raw, "%d", &i); err == nil && fmt.Sprint(i) == raw {
		return i
	}
	var f float64
	if _, err := fmt.Sscanf(raw, "%g", &f); err == nil && fmt.Sprint(f) == raw {
		return f
	}
	return raw
}

func resolveAbs(path string) (string, error) {
	if path == "" {
		path = "jac.toml"
	}
	return filepath.Abs(path)
}
