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

// oasis-compile builds the Rust and Solidity contracts of a project into
// deployable artifacts.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/oasislabs/oasis-compile/cmd/utils"
	"github.com/oasislabs/oasis-compile/internal/debug"
	"github.com/oasislabs/oasis-compile/internal/flags"
	"github.com/urfave/cli/v2"
)

var (
	configFlags = []cli.Flag{
		configFileFlag,
		utils.RootFlag,
		utils.TargetDirFlag,
		utils.SequentialFlag,
		utils.CargoFlag,
		utils.WasmBuildFlag,
		utils.SolcFlag,
		utils.SolcFlagsFlag,
	}

	cleanCommand = &cli.Command{
		Action: clean,
		Name:   "clean",
		Usage:  "Remove build artifacts, cargo output and lock files",
		Flags:  flags.Merge(configFlags, debug.Flags),
		Description: `
Removes the artifact directory, the framework build directory and, for every
crate, its Cargo.lock and target directory. A shared cargo target directory
only loses the per-crate output.`,
	}
)

var app = flags.NewApp("the Oasis contract build tool")

func init() {
	app.Action = compile
	app.Commands = []*cli.Command{
		cleanCommand,
		dumpConfigCommand,
	}
	app.Flags = flags.Merge(configFlags, debug.Flags)
	app.Before = func(ctx *cli.Context) error {
		flags.MigrateGlobalFlags(ctx)
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		utils.Fatalf("%v", err)
	}
}

// compile is the main entry point if no subcommand is run. It builds every
// contract of the project.
func compile(ctx *cli.Context) error {
	if args := ctx.Args().Slice(); len(args) > 0 {
		return fmt.Errorf("invalid command: %s", args[0])
	}
	if err := debug.Setup(ctx); err != nil {
		return err
	}
	c, err := makeCompiler(ctx)
	if err != nil {
		return err
	}
	sigctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.Compile(sigctx)
}

func clean(ctx *cli.Context) error {
	if err := debug.Setup(ctx); err != nil {
		return err
	}
	c, err := makeCompiler(ctx)
	if err != nil {
		return err
	}
	return c.Clean()
}
