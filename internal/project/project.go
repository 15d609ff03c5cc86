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

// Package project locates a contract project on disk and guards it against
// concurrent builds.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/oasislabs/oasis-compile/log"
)

// Files marking the root of a project, checked in every directory from the
// working directory upwards.
var rootMarkers = []string{"truffle-config.js", "truffle.js"}

const (
	contractsDir = "contracts"
	outputDir    = ".oasis-build"
	buildDir     = "build"
	envFile      = ".env"
	lockFile     = ".oasis-compile.lock"
)

var (
	// ErrNoProject is returned when no project root is found above the
	// working directory.
	ErrNoProject = errors.New("could not find truffle-config.js or truffle.js in this or any parent directory")

	// ErrProjectLocked is returned when another process is building or
	// cleaning the same project.
	ErrProjectLocked = errors.New("project is being built by another process")
)

// Layout holds the canonical absolute directories of a project.
type Layout struct {
	Root      string
	Contracts string // contract sources, both crates and .sol files
	Output    string // unified artifacts
	Build     string // output of the deployment framework
}

// NewLayout returns the layout of the project rooted at root.
func NewLayout(root string) (*Layout, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Layout{
		Root:      root,
		Contracts: filepath.Join(root, contractsDir),
		Output:    filepath.Join(root, outputDir),
		Build:     filepath.Join(root, buildDir),
	}, nil
}

// FindRoot returns the nearest directory at or above dir holding a project
// marker. Nested projects therefore resolve to the innermost one.
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range rootMarkers {
			info, err := os.Stat(filepath.Join(dir, marker))
			if err == nil && !info.IsDir() {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

// Locate resolves the project layout. An explicit root is used as is,
// otherwise the root is searched for from the working directory.
func Locate(root string) (*Layout, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if root, err = FindRoot(wd); err != nil {
			return nil, err
		}
	} else if info, err := os.Stat(root); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}
	return NewLayout(root)
}

// LoadEnv loads <root>/.env into the process environment. Variables that are
// already set are kept. A missing file is not an error.
func (l *Layout) LoadEnv() error {
	path := filepath.Join(l.Root, envFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	log.Debug("Loaded environment file", "path", path)
	return nil
}

// Lock takes the advisory project lock, failing immediately with
// ErrProjectLocked if it is held elsewhere. The returned function releases it.
func (l *Layout) Lock() (func(), error) {
	lock := flock.New(filepath.Join(l.Root, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrProjectLocked
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("Failed to release project lock", "err", err)
		}
	}, nil
}
