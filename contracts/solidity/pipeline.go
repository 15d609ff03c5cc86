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

// Package solidity compiles every Solidity source of a project in one solc
// batch and converts the results into contract artifacts.
package solidity

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/oasislabs/oasis-compile/common/compiler"
	"github.com/oasislabs/oasis-compile/contracts"
	"github.com/oasislabs/oasis-compile/internal/build"
	"github.com/oasislabs/oasis-compile/log"
)

const (
	// SourceExt is the extension of Solidity sources.
	SourceExt = ".sol"

	// packagesDir holds installed packages that sources may import from.
	packagesDir = "node_modules"
)

// Pipeline compiles Solidity sources.
type Pipeline struct {
	solc   *compiler.Solidity
	runner build.Runner
	writer *contracts.Writer
}

// New creates a pipeline invoking solc through runner.
func New(solc *compiler.Solidity, runner build.Runner, writer *contracts.Writer) *Pipeline {
	if solc == nil {
		solc = new(compiler.Solidity)
	}
	return &Pipeline{solc: solc, runner: runner, writer: writer}
}

// Sources returns the Solidity sources below dir.
func Sources(dir string) ([]string, error) {
	return contracts.FindSources(dir, SourceExt)
}

// Build compiles every source below dir. Imports resolve against the project
// root and, if present, its installed packages. Nothing runs if there are no
// sources, so solc does not have to be installed for wasm-only projects. A
// compile failure fails the whole batch.
func (p *Pipeline) Build(ctx context.Context, root, dir string) error {
	sources, err := Sources(dir)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		log.Debug("No Solidity sources found", "dir", dir)
		return nil
	}
	log.Info("Compiling Solidity sources", "count", len(sources))

	solc := p.importRoots(root)
	compiled, err := solc.Compile(ctx, p.runner, dir, sources...)
	if err != nil {
		return &contracts.UnitError{Unit: dir, Err: err}
	}
	keys := make([]string, 0, len(compiled))
	for key := range compiled {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		a, err := toArtifact(key, compiled[key])
		if err != nil {
			return err
		}
		if err := p.writer.Write(a); err != nil {
			return err
		}
	}
	return nil
}

// importRoots returns a copy of the compiler settings resolving imports
// against root.
func (p *Pipeline) importRoots(root string) *compiler.Solidity {
	solc := *p.solc
	solc.BasePath = root
	solc.IncludePaths = slices.Clone(p.solc.IncludePaths)
	if info, err := os.Stat(filepath.Join(root, packagesDir)); err == nil && info.IsDir() {
		solc.IncludePaths = append(solc.IncludePaths, filepath.Join(root, packagesDir))
	}
	return &solc
}

func toArtifact(key string, c *compiler.Contract) (*contracts.Artifact, error) {
	source, name := compiler.SplitName(key)
	code, runtime := c.Code, c.RuntimeCode
	confidential := contracts.IsConfidential(source)
	if confidential {
		code, runtime = contracts.Encode(code), contracts.Encode(runtime)
	}
	abi := contracts.DefaultABI
	if c.Info.AbiDefinition != nil {
		blob, err := json.Marshal(c.Info.AbiDefinition)
		if err != nil {
			return nil, fmt.Errorf("encoding ABI of %s: %w", key, err)
		}
		abi = blob
	}
	log.Debug("Compiled contract", "contract", name, "source", filepath.Base(source), "confidential", confidential)
	return &contracts.Artifact{
		ContractName:     name,
		ABI:              abi,
		Bytecode:         code,
		DeployedBytecode: runtime,
		Source:           source,
	}, nil
}
