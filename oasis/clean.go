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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/oasislabs/oasis-compile/contracts"
	"github.com/oasislabs/oasis-compile/contracts/wasm"
	"github.com/oasislabs/oasis-compile/log"
)

const cargoLock = "Cargo.lock"

// Clean removes everything the build generated: per crate the lock file,
// target directory and output directory, then the artifact and framework
// build directories. Missing paths are not errors, so cleaning is idempotent.
// A shared target directory and anything outside the project are never
// removed as a whole.
func (c *Compiler) Clean() error {
	unlock, err := c.layout.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	dirs, err := contracts.FindUnits(c.layout.Contracts, wasm.ManifestFile)
	if err != nil {
		return err
	}
	var result *multierror.Error
	for _, dir := range dirs {
		if err := c.cleanCrate(dir); err != nil {
			result = multierror.Append(result, &contracts.UnitError{Unit: dir, Err: err})
		}
	}
	for _, dir := range []string{c.layout.Output, c.layout.Build} {
		if err := os.RemoveAll(dir); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	log.Info("Cleaned project", "root", c.layout.Root, "crates", len(dirs))
	return nil
}

func (c *Compiler) cleanCrate(dir string) error {
	if err := removeFile(filepath.Join(dir, cargoLock)); err != nil {
		return err
	}
	targetDir := wasm.TargetDir(dir, c.config.TargetDir)
	owned := c.config.TargetDir == "" && c.within(targetDir)

	m, err := wasm.LoadManifest(dir, c.config.Namespace)
	if err != nil {
		log.Warn("Cannot determine crate output directory", "crate", dir, "err", err)
	} else if !owned {
		outDir := wasm.OutDir(targetDir, m.Name)
		log.Debug("Removing crate output", "crate", m.Name, "dir", outDir)
		if err := os.RemoveAll(outDir); err != nil {
			return err
		}
	}
	if owned {
		log.Debug("Removing target directory", "dir", targetDir)
		return os.RemoveAll(targetDir)
	}
	return nil
}

// within reports whether path resolves to a location inside the project root.
func (c *Compiler) within(path string) bool {
	root, err := filepath.EvalSymlinks(c.layout.Root)
	if err != nil {
		return false
	}
	real, err := filepath.EvalSymlinks(path)
	if os.IsNotExist(err) {
		// Nothing to remove, but judge by the parent for symlinked crates.
		parent, perr := filepath.EvalSymlinks(filepath.Dir(path))
		if perr != nil {
			return false
		}
		real, err = filepath.Join(parent, filepath.Base(path)), nil
	}
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, real)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}
