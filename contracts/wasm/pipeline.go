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

// Package wasm builds Rust crates into wasm contract artifacts through cargo
// and wasm-build.
package wasm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hashicorp/go-multierror"
	"github.com/oasislabs/oasis-compile/contracts"
	"github.com/oasislabs/oasis-compile/internal/build"
	"github.com/oasislabs/oasis-compile/log"
	"golang.org/x/sync/errgroup"
)

const (
	// WasmTarget is the rustc target every crate is compiled for.
	WasmTarget = "wasm32-unknown-unknown"

	// finalName is the module name wasm-build produces, <targetDir>/oasis.wasm.
	finalName = "oasis"
)

// DefaultCargoArgs compiles a crate in release mode for the wasm target.
var DefaultCargoArgs = []string{"build", "--release", "--target", WasmTarget}

// Config parameterizes the pipeline.
type Config struct {
	Cargo      string   // cargo executable
	CargoArgs  []string // arguments passed to cargo
	WasmBuild  string   // wasm-build executable
	Namespace  string   // manifest metadata table holding build options
	TargetDir  string   // shared cargo target directory, empty for <crate>/target
	Sequential bool     // build one crate at a time
}

// Crate is a crate whose manifest has been loaded and validated.
type Crate struct {
	Dir      string
	Manifest *Manifest
}

// Unit returns the crate as a build unit.
func (c *Crate) Unit() contracts.Unit {
	return contracts.Unit{Path: c.Dir, Kind: contracts.KindModule}
}

// TargetDir returns the cargo target directory used for the crate in dir.
func TargetDir(dir, override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(dir, "target")
}

// OutDir returns the directory holding a crate's compiled module and ABI.
func OutDir(targetDir, name string) string {
	return filepath.Join(targetDir, name)
}

// Pipeline compiles crates and writes their artifacts.
type Pipeline struct {
	cfg    Config
	runner build.Runner
	writer *contracts.Writer
}

// New creates a pipeline running toolchains through runner and writing
// artifacts through writer.
func New(cfg Config, runner build.Runner, writer *contracts.Writer) *Pipeline {
	if cfg.Cargo == "" {
		cfg.Cargo = "cargo"
	}
	if cfg.CargoArgs == nil {
		cfg.CargoArgs = DefaultCargoArgs
	}
	if cfg.WasmBuild == "" {
		cfg.WasmBuild = "wasm-build"
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "oasis"
	}
	return &Pipeline{cfg: cfg, runner: runner, writer: writer}
}

// Prepare loads the manifest of every crate directory. It fails on the first
// unreadable manifest or invalid crate name, before anything is built.
func (p *Pipeline) Prepare(dirs []string) ([]*Crate, error) {
	crates := make([]*Crate, 0, len(dirs))
	for _, dir := range dirs {
		m, err := LoadManifest(dir, p.cfg.Namespace)
		if err != nil {
			return nil, err
		}
		if len(m.Ignored) > 0 {
			log.Debug("Ignoring unknown build options", "crate", m.Name, "keys", strings.Join(m.Ignored, ","))
		}
		crates = append(crates, &Crate{Dir: dir, Manifest: m})
	}
	return crates, nil
}

// Build compiles all crates. Crates are built concurrently unless configured
// otherwise or a shared target directory is in use, since wasm-build writes
// fixed file names into it. Every crate is attempted; the returned error
// aggregates all failures as *contracts.UnitError values.
func (p *Pipeline) Build(ctx context.Context, crates []*Crate) error {
	errs := make([]error, len(crates))

	var g errgroup.Group
	if p.cfg.Sequential || p.cfg.TargetDir != "" {
		g.SetLimit(1)
	}
	for i, c := range crates {
		g.Go(func() error {
			if err := p.buildCrate(ctx, c); err != nil {
				errs[i] = &contracts.UnitError{Unit: c.Dir, Err: err}
			}
			return nil
		})
	}
	g.Wait()

	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (p *Pipeline) buildCrate(ctx context.Context, c *Crate) error {
	var (
		name         = c.Manifest.Name
		confidential = c.Unit().Confidential()
		targetDir    = TargetDir(c.Dir, p.cfg.TargetDir)
		outDir       = OutDir(targetDir, name)
		env          []string
	)
	log.Info("Compiling crate", "crate", name, "confidential", confidential)

	if p.cfg.TargetDir != "" {
		env = []string{"CARGO_TARGET_DIR=" + p.cfg.TargetDir}
	}
	if _, err := p.runner.Run(ctx, build.Command{Name: p.cfg.Cargo, Args: p.cfg.CargoArgs, Dir: c.Dir, Env: env}); err != nil {
		return err
	}
	args := []string{"--target", WasmTarget, targetDir, name}
	args = append(args, c.Manifest.Options.Args()...)
	args = append(args, "--final", finalName)
	if _, err := p.runner.Run(ctx, build.Command{Name: p.cfg.WasmBuild, Args: args, Dir: c.Dir, Env: env}); err != nil {
		return err
	}
	if err := p.collect(targetDir, outDir); err != nil {
		return err
	}

	code, err := readBytecode(outDir)
	if err != nil {
		return err
	}
	if confidential {
		code = contracts.Encode(code)
	}
	contractName, abi, err := readABI(outDir, name)
	if err != nil {
		return err
	}
	return p.writer.Write(&contracts.Artifact{
		ContractName: contractName,
		ABI:          abi,
		Bytecode:     code,
		Source:       c.Dir,
	})
}

// collect moves the module and the generated json directory out of the target
// directory into the crate's own output directory. Keeping them per crate lets
// readBytecode notice stale modules left behind by earlier builds.
func (p *Pipeline) collect(targetDir, outDir string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	module := finalName + ".wasm"
	if err := os.Rename(filepath.Join(targetDir, module), filepath.Join(outDir, module)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	jsonDir := filepath.Join(targetDir, "json")
	if p.cfg.TargetDir != "" {
		// A shared target directory gets an extra target level.
		jsonDir = filepath.Join(targetDir, "target", "json")
	}
	if _, err := os.Stat(jsonDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	dest := filepath.Join(outDir, "json")
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	return os.Rename(jsonDir, dest)
}

// readBytecode returns the hex encoded contents of the single .wasm file in dir.
func readBytecode(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var modules []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".wasm" {
			modules = append(modules, e.Name())
		}
	}
	if len(modules) != 1 {
		return "", &contracts.AmbiguousOutputError{Dir: dir, Found: modules}
	}
	code, err := os.ReadFile(filepath.Join(dir, modules[0]))
	if err != nil {
		return "", err
	}
	return hexutil.Encode(code), nil
}

// readABI returns the contract name and ABI found in <dir>/json. Without an
// ABI file the crate name and an empty ABI are used.
func readABI(dir, crateName string) (string, json.RawMessage, error) {
	jsonDir := filepath.Join(dir, "json")
	entries, err := os.ReadDir(jsonDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	switch {
	case len(files) == 0:
		return crateName, contracts.DefaultABI, nil
	case len(files) > 1:
		return "", nil, &contracts.MultipleAbiError{Dir: jsonDir, Found: files}
	}
	file := files[0]
	if !strings.HasSuffix(file, ".json") {
		return "", nil, fmt.Errorf("ABI file %s must end with .json", filepath.Join(jsonDir, file))
	}
	abi, err := os.ReadFile(filepath.Join(jsonDir, file))
	if err != nil {
		return "", nil, err
	}
	if !json.Valid(abi) {
		return "", nil, fmt.Errorf("ABI file %s is not valid JSON", filepath.Join(jsonDir, file))
	}
	return strings.TrimSuffix(file, ".json"), json.RawMessage(abi), nil
}
