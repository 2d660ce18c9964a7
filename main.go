//
// Copyright (c) 2025 Sumicare
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sumicare/zigup/toolchain"
)

// errUsage is returned for malformed or missing arguments.
var errUsage = errors.New("usage error")

// version, commit and date are set via ldflags at build time by the release
// tooling. These fields are surfaced via the "version" subcommand.
var (
	version = "dev"     //nolint:gochecknoglobals // build metadata set via ldflags
	commit  = "none"    //nolint:gochecknoglobals // build metadata set via ldflags
	date    = "unknown" //nolint:gochecknoglobals // build metadata set via ldflags
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			toolchain.Errf("%s", err)
			os.Exit(1)
		}

		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}

		toolchain.Errf("%s", err)
		os.Exit(1)
	}
}

// exitCodeError carries a child process's propagated exit code through run's
// single error return.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("child exited %d", e.code)
}

func run(args []string) error {
	args, opts := parseGlobalOptions(args)

	if len(args) == 0 {
		printUsage()

		return nil
	}

	command := args[0]
	rest := args[1:]

	switch command {
	case "version", "--version", "-v":
		fmt.Printf("zigup %s (commit: %s, built: %s)\n", version, commit, date)

		return nil

	case "help", "--help", "-h":
		printUsage()

		return nil

	case "list":
		return cmdList(opts)

	case "keep":
		return cmdKeep(opts, rest)

	case "clean":
		return cmdClean(opts, rest)

	case "fetch":
		return cmdFetch(opts, rest)

	case "fetch-index":
		return cmdFetchIndex(opts, toolchain.IndexZig)

	case "fetch-mach-index":
		return cmdFetchIndex(opts, toolchain.IndexMach)

	case "default":
		return cmdDefault(opts, rest)

	case "run":
		return cmdRun(opts, rest)

	case "set-install-dir":
		return cmdSetInstallDir(opts, rest)

	case "set-zig-symlink":
		return cmdSetSymlink(opts, "zig_symlink", rest)

	case "set-zls-symlink":
		return cmdSetSymlink(opts, "zls_symlink", rest)

	default:
		// A bare version spec, e.g. `zigup 0.13.0`: download and set default.
		return cmdInstallAndSetDefault(opts, append([]string{command}, rest...))
	}
}

type globalOptions struct {
	installDir string
	zigSymlink string
	zlsSymlink string
}

// parseGlobalOptions scans args for the --install-dir/--zig-symlink/
// --zls-symlink options, which may appear anywhere before the
// command-specific positional arguments, and returns the remaining
// positional args alongside whatever was found.
func parseGlobalOptions(args []string) ([]string, globalOptions) {
	var opts globalOptions

	var positional []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--install-dir":
			if i+1 < len(args) {
				opts.installDir = args[i+1]
				i++
			}
		case "--zig-symlink":
			if i+1 < len(args) {
				opts.zigSymlink = args[i+1]
				i++
			}
		case "--zls-symlink":
			if i+1 < len(args) {
				opts.zlsSymlink = args[i+1]
				i++
			}
		default:
			positional = append(positional, args[i])
		}
	}

	return positional, opts
}

func printUsage() {
	fmt.Println(`zigup <VERSION>                            download + set default
zigup fetch <VERSION>                      download only
zigup default [VERSION]                    read or set default
zigup list
zigup keep <VERSION>
zigup clean <VERSION>                      VERSION = literal | "outdated"
zigup run <VERSION> <ARGS...>              everything after VERSION is forwarded
zigup set-install-dir <DIR>
zigup set-zig-symlink <PATH>
zigup set-zls-symlink <PATH>
zigup fetch-index | fetch-mach-index

Options (anywhere before the command-specific positional args):
  --install-dir <DIR>
  --zig-symlink <PATH>
  --zls-symlink <PATH>
  -h | --help`)
}

func resolvedConfig(opts globalOptions) (toolchain.ResolvedConfig, error) {
	dataDir, err := toolchain.DataDir()
	if err != nil {
		return toolchain.ResolvedConfig{}, err
	}

	configDir, err := toolchain.ConfigDir()
	if err != nil {
		return toolchain.ResolvedConfig{}, err
	}

	cfg, err := toolchain.LoadConfig(configDir, dataDir)
	if err != nil {
		return toolchain.ResolvedConfig{}, err
	}

	if opts.installDir != "" {
		cfg.InstallDir = opts.installDir
	}

	if opts.zigSymlink != "" {
		cfg.ZigLinkPath = opts.zigSymlink
	}

	if opts.zlsSymlink != "" {
		cfg.ZlsLinkPath = opts.zlsSymlink
	}

	return cfg, nil
}

func cmdList(opts globalOptions) error {
	cfg, err := resolvedConfig(opts)
	if err != nil {
		return err
	}

	layout := toolchain.NewInstallLayout(cfg.InstallDir)

	entries, err := toolchain.NewLifecycle(layout).List()
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.Kept {
			fmt.Printf("%s (kept)\n", e.ID)
		} else {
			fmt.Println(e.ID)
		}
	}

	return nil
}

func cmdKeep(opts globalOptions, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: keep requires exactly one version", errUsage)
	}

	cfg, err := resolvedConfig(opts)
	if err != nil {
		return err
	}

	layout := toolchain.NewInstallLayout(cfg.InstallDir)

	id := toolchain.InstallID(args[0])

	return toolchain.NewLifecycle(layout).Keep(id)
}

func cmdClean(opts globalOptions, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: clean requires exactly one version or \"outdated\"", errUsage)
	}

	cfg, err := resolvedConfig(opts)
	if err != nil {
		return err
	}

	layout := toolchain.NewInstallLayout(cfg.InstallDir)
	lifecycle := toolchain.NewLifecycle(layout)

	if args[0] == "outdated" {
		removed, err := lifecycle.CleanOutdated()
		if err != nil {
			return err
		}

		for _, id := range removed {
			fmt.Println("removed", id)
		}

		return nil
	}

	return lifecycle.Clean(toolchain.InstallID(args[0]))
}

func cmdFetchIndex(opts globalOptions, kind toolchain.IndexKind) error {
	_ = opts

	cacheDir, err := toolchain.CacheDir()
	if err != nil {
		return err
	}

	index := toolchain.NewIndexStore(cacheDir)

	_, err = index.Get(context.Background(), kind, toolchain.NeverCache)

	return err
}

// installAndProvision resolves raw, installs the compiler, and provisions
// ZLS against it, returning the resolved install id.
func installAndProvision(cfg toolchain.ResolvedConfig, raw string) (string, error) {
	spec, err := toolchain.ParseVersionSpec(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errUsage, err)
	}

	cacheDir, err := toolchain.CacheDir()
	if err != nil {
		return "", err
	}

	layout := toolchain.NewInstallLayout(cfg.InstallDir)
	if err := layout.EnsureInstallDir(); err != nil {
		return "", err
	}

	index := toolchain.NewIndexStore(cacheDir)
	resolver := toolchain.NewVersionResolver(spec, index, layout)

	ctx := context.Background()

	id, err := resolver.ID(ctx)
	if err != nil {
		return "", err
	}

	url, err := resolver.URL(ctx)
	if err != nil {
		return "", err
	}

	if err := toolchain.NewCompilerInstaller(layout).Install(ctx, id, url); err != nil {
		return "", err
	}

	prompter := toolchain.NewStdPrompter(os.Stdin, os.Stderr)

	if err := toolchain.NewZlsProvisioner(layout, prompter).Provision(ctx, id, spec); err != nil {
		toolchain.Stdlog.Warnf("zls build failed: %s", err)
	}

	toolchain.Msgf("installed %s", id)

	return id, nil
}

func cmdFetch(opts globalOptions, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: fetch requires exactly one version", errUsage)
	}

	cfg, err := resolvedConfig(opts)
	if err != nil {
		return err
	}

	_, err = installAndProvision(cfg, args[0])

	return err
}

func cmdInstallAndSetDefault(opts globalOptions, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: unrecognized command %q", errUsage, args[0])
	}

	cfg, err := resolvedConfig(opts)
	if err != nil {
		return err
	}

	id, err := installAndProvision(cfg, args[0])
	if err != nil {
		return err
	}

	layout := toolchain.NewInstallLayout(cfg.InstallDir)

	return setDefault(layout, cfg, id)
}

func setDefault(layout *toolchain.InstallLayout, cfg toolchain.ResolvedConfig, id string) error {
	zigPointer, err := toolchain.NewDefaultPointer(cfg.ZigLinkPath)
	if err != nil {
		return err
	}

	if err := zigPointer.Set(layout.CompilerBin(id)); err != nil {
		return err
	}

	if toolchain.Exists(layout.ZlsBin(id)) {
		zlsPointer, err := toolchain.NewDefaultPointer(cfg.ZlsLinkPath)
		if err != nil {
			return err
		}

		if err := zlsPointer.Set(layout.ZlsBin(id)); err != nil {
			return err
		}
	}

	return nil
}

func cmdDefault(opts globalOptions, args []string) error {
	cfg, err := resolvedConfig(opts)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		pointer, err := toolchain.NewDefaultPointer(cfg.ZigLinkPath)
		if err != nil {
			return err
		}

		id, ok, err := pointer.Read()
		if err != nil {
			return err
		}

		if !ok {
			return fmt.Errorf("%w: no default set", errUsage)
		}

		fmt.Println(id)

		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("%w: default takes at most one version", errUsage)
	}

	id, err := installAndProvision(cfg, args[0])
	if err != nil {
		return err
	}

	layout := toolchain.NewInstallLayout(cfg.InstallDir)

	return setDefault(layout, cfg, id)
}

func cmdRun(opts globalOptions, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: run requires a version", errUsage)
	}

	cfg, err := resolvedConfig(opts)
	if err != nil {
		return err
	}

	layout := toolchain.NewInstallLayout(cfg.InstallDir)
	id := toolchain.InstallID(args[0])

	code, err := toolchain.NewLifecycle(layout).Run(context.Background(), id, args[1:])
	if err != nil {
		return err
	}

	if code != 0 {
		return exitCodeError{code: code}
	}

	return nil
}

func cmdSetInstallDir(opts globalOptions, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: set-install-dir requires exactly one path", errUsage)
	}

	_ = opts

	configDir, err := toolchain.ConfigDir()
	if err != nil {
		return err
	}

	return toolchain.WriteConfigValue(configDir, "install_dir", args[0])
}

func cmdSetSymlink(opts globalOptions, key string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: %s requires exactly one path", errUsage, key)
	}

	_ = opts

	configDir, err := toolchain.ConfigDir()
	if err != nil {
		return err
	}

	return toolchain.WriteConfigValue(configDir, key, args[0])
}
