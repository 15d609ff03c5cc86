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

// Package oasis orchestrates the contract toolchains of a project.
package oasis

import (
	"github.com/oasislabs/oasis-compile/common/compiler"
	"github.com/oasislabs/oasis-compile/contracts/wasm"
)

// Defaults contains default settings for compiling a project.
var Defaults = Config{
	Cargo:     "cargo",
	CargoArgs: wasm.DefaultCargoArgs,
	WasmBuild: "wasm-build",
	Solc:      "solc",
	Namespace: "oasis",
}

// Config contains configuration options for compiling and cleaning a project.
type Config struct {
	// Root of the project. Empty means searching upwards from the working
	// directory for the framework's configuration file.
	Root string `toml:",omitempty"`

	// Shared cargo target directory. Empty means each crate builds into its
	// own target directory.
	TargetDir string `toml:",omitempty"`

	Cargo     string
	CargoArgs []string
	WasmBuild string

	// Manifest table under [package.metadata] holding build options.
	Namespace string

	Solc      string
	SolcFlags []string `toml:",omitempty"`

	// Build crates one at a time.
	Sequential bool
}

func (c *Config) wasmConfig() wasm.Config {
	return wasm.Config{
		Cargo:      c.Cargo,
		CargoArgs:  c.CargoArgs,
		WasmBuild:  c.WasmBuild,
		Namespace:  c.Namespace,
		TargetDir:  c.TargetDir,
		Sequential: c.Sequential,
	}
}

func (c *Config) solidity() *compiler.Solidity {
	return &compiler.Solidity{Path: c.Solc, Flags: c.SolcFlags}
}
