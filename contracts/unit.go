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

package contracts

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies the toolchain that builds a unit.
type Kind int

const (
	KindModule    Kind = iota // crate compiled to wasm through cargo and wasm-build
	KindHighLevel             // source compiled in batch by solc
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "wasm"
	case KindHighLevel:
		return "solidity"
	default:
		return "unknown"
	}
}

// Unit is one compilable directory or file found under the contracts root.
type Unit struct {
	Path string
	Kind Kind
}

// Name returns the base name of the unit.
func (u Unit) Name() string { return filepath.Base(u.Path) }

// Confidential reports whether the unit is compiled with the confidentiality
// marker.
func (u Unit) Confidential() bool { return IsConfidential(u.Path) }

// FindUnits returns every directory below root (root included) that directly
// contains a file called marker. Directories are visited in lexical order and
// nested matches are all reported.
func FindUnits(root, marker string) ([]string, error) {
	var units []string
	err := walkDirs(root, false, func(dir string, entries []fs.DirEntry) {
		for _, e := range entries {
			if e.Name() == marker && !e.IsDir() {
				units = append(units, dir)
				return
			}
		}
	})
	return units, err
}

// FindSources returns every file below root with the given extension. Build
// output, dependency and hidden directories are not searched.
func FindSources(root, ext string) ([]string, error) {
	var files []string
	err := walkDirs(root, true, func(dir string, entries []fs.DirEntry) {
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ext {
				continue
			}
			if info, err := os.Stat(filepath.Join(dir, e.Name())); err == nil && info.Mode().IsRegular() {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	})
	return files, err
}

// walkDirs calls fn for every directory reachable from root. Symbolic links to
// directories are followed, but each directory is entered at most once by its
// resolved path so link cycles terminate. A missing root is not an error.
func walkDirs(root string, skipGenerated bool, fn func(dir string, entries []fs.DirEntry)) error {
	seen := make(map[string]struct{})

	var walk func(dir string) error
	walk = func(dir string) error {
		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return err
		}
		if _, ok := seen[real]; ok {
			return nil
		}
		seen[real] = struct{}{}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		fn(dir, entries)

		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if skipGenerated && isGenerated(e.Name()) {
				continue
			}
			isDir := e.IsDir()
			if e.Type()&fs.ModeSymlink != 0 {
				info, err := os.Stat(path)
				if err != nil {
					continue // dangling link
				}
				isDir = info.IsDir()
			}
			if !isDir {
				continue
			}
			if err := walk(path); err != nil {
				return err
			}
		}
		return nil
	}
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return walk(root)
}

func isGenerated(name string) bool {
	return name == "target" || name == "node_modules" || strings.HasPrefix(name, ".")
}
