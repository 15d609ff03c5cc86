// Copyright 2019 The oasis-compile Authors
// This file is part of the oasis-compile library.
//
// The oasis-compile library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The oasis-compile library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the oasis-compile library. If not, see <http://www.gnu.org/licenses/>.

package oasis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/oasislabs/oasis-compile/contracts"
	"github.com/oasislabs/oasis-compile/contracts/solidity"
	"github.com/oasislabs/oasis-compile/contracts/wasm"
	"github.com/oasislabs/oasis-compile/internal/build"
	"github.com/oasislabs/oasis-compile/internal/project"
	"github.com/oasislabs/oasis-compile/log"
	"golang.org/x/sync/errgroup"
)

// Compiler builds every contract of one project.
type Compiler struct {
	config *Config
	layout *project.Layout
	runner build.Runner
}

// New creates a compiler for the project at layout. A nil runner executes the
// real toolchains.
func New(config *Config, layout *project.Layout, runner build.Runner) *Compiler {
	if runner == nil {
		runner = build.Exec{}
	}
	return &Compiler{config: config, layout: layout, runner: runner}
}

// Config returns the effective configuration.
func (c *Compiler) Config() *Config { return c.config }

// Layout returns the project the compiler works on.
func (c *Compiler) Layout() *project.Layout { return c.layout }

// Compile builds all crates and Solidity sources under the contracts
// directory and writes their artifacts. Every crate manifest is validated
// before any toolchain runs. The wasm and Solidity pipelines run concurrently;
// the build fails if any unit fails.
func (c *Compiler) Compile(ctx context.Context) error {
	unlock, err := c.layout.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	var (
		start = time.Now()
		run   = uuid.NewString()
	)
	log.Debug("Starting build", "run", run, "root", c.layout.Root)
	dirs, err := contracts.FindUnits(c.layout.Contracts, wasm.ManifestFile)
	if err != nil {
		return err
	}
	writer := contracts.NewWriter(c.layout.Output)
	modules := wasm.New(c.config.wasmConfig(), c.runner, writer)
	crates, err := modules.Prepare(dirs)
	if err != nil {
		return err
	}
	highlevel := solidity.New(c.config.solidity(), c.runner, writer)

	var (
		g    errgroup.Group
		errs [2]error
	)
	g.Go(func() error {
		errs[0] = modules.Build(ctx, crates)
		return nil
	})
	g.Go(func() error {
		errs[1] = highlevel.Build(ctx, c.layout.Root, c.layout.Contracts)
		return nil
	})
	g.Wait()
	if err := multierror.Append(nil, errs[0], errs[1]).ErrorOrNil(); err != nil {
		return err
	}
	log.Info("Compiled contracts", "run", run, "crates", len(crates), "artifacts", len(writer.Written()), "output", c.layout.Output, "elapsed", time.Since(start))
	return nil
}
