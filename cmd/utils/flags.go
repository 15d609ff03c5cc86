// Copyright 2019 The oasis-compile Authors
// This file is part of oasis-compile.
//
// oasis-compile is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// oasis-compile is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with oasis-compile. If not, see <http://www.gnu.org/licenses/>.

// Package utils contains internal helper functions for oasis-compile commands.
package utils

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/oasislabs/oasis-compile/internal/flags"
	"github.com/oasislabs/oasis-compile/oasis"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// Project settings
	RootFlag = &flags.DirectoryFlag{
		Name:     "root",
		Usage:    "Project root (default: nearest directory holding truffle-config.js or truffle.js)",
		Category: flags.ProjectCategory,
	}
	TargetDirFlag = &flags.DirectoryFlag{
		Name:     "target-dir",
		Usage:    "Shared cargo target directory for all crates (default: $CARGO_TARGET_DIR)",
		Category: flags.ProjectCategory,
	}
	SequentialFlag = &cli.BoolFlag{
		Name:     "sequential",
		Usage:    "Build crates one at a time",
		Category: flags.ProjectCategory,
	}

	// Toolchains
	CargoFlag = &cli.StringFlag{
		Name:     "cargo",
		Usage:    "Cargo executable",
		Value:    oasis.Defaults.Cargo,
		Category: flags.ToolchainCategory,
	}
	WasmBuildFlag = &cli.StringFlag{
		Name:     "wasm-build",
		Usage:    "wasm-build executable",
		Value:    oasis.Defaults.WasmBuild,
		Category: flags.ToolchainCategory,
	}
	SolcFlag = &cli.StringFlag{
		Name:     "solc",
		Usage:    "Solidity compiler executable",
		Value:    oasis.Defaults.Solc,
		Category: flags.ToolchainCategory,
	}
	SolcFlagsFlag = &cli.StringFlag{
		Name:     "solc.flags",
		Usage:    "Extra space separated flags passed to the Solidity compiler",
		Category: flags.ToolchainCategory,
	}
)

// Fatalf formats a message to standard error and exits the program.
// The message is also printed to standard output if standard error
// is redirected to a different file.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

// SetConfig applies command line flags to the build configuration.
func SetConfig(ctx *cli.Context, cfg *oasis.Config) {
	if ctx.IsSet(RootFlag.Name) {
		cfg.Root = ctx.String(RootFlag.Name)
	}
	if ctx.IsSet(TargetDirFlag.Name) {
		cfg.TargetDir = ctx.String(TargetDirFlag.Name)
	}
	if ctx.IsSet(SequentialFlag.Name) {
		cfg.Sequential = ctx.Bool(SequentialFlag.Name)
	}
	if ctx.IsSet(CargoFlag.Name) {
		cfg.Cargo = ctx.String(CargoFlag.Name)
	}
	if ctx.IsSet(WasmBuildFlag.Name) {
		cfg.WasmBuild = ctx.String(WasmBuildFlag.Name)
	}
	if ctx.IsSet(SolcFlag.Name) {
		cfg.Solc = ctx.String(SolcFlag.Name)
	}
	if ctx.IsSet(SolcFlagsFlag.Name) {
		cfg.SolcFlags = strings.Fields(ctx.String(SolcFlagsFlag.Name))
	}
}
