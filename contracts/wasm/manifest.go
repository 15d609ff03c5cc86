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

package wasm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/naoina/toml"
	"github.com/naoina/toml/ast"
	"github.com/oasislabs/oasis-compile/contracts"
)

// ManifestFile is the name of the file marking a crate directory.
const ManifestFile = "Cargo.toml"

// Option is a wasm-build option that may be set from a crate manifest under
// [package.metadata.<namespace>].
type Option string

const (
	// OptionMaxMem caps the linear memory of the produced module.
	OptionMaxMem Option = "max-mem"
)

// knownOptions lists every recognized option, in the order they are rendered
// on the command line.
var knownOptions = []Option{OptionMaxMem}

// Options holds the recognized build options of a crate.
type Options map[Option]int64

// Args renders the options as wasm-build arguments, e.g. --max-mem 30000.
func (o Options) Args() []string {
	var args []string
	for _, opt := range knownOptions {
		if v, ok := o[opt]; ok {
			args = append(args, "--"+string(opt), strconv.FormatInt(v, 10))
		}
	}
	return args
}

// Manifest is the part of a crate's Cargo.toml the build cares about.
type Manifest struct {
	Name    string
	Options Options
	Ignored []string // keys under the metadata table that are not recognized
}

// LoadManifest reads and parses <dir>/Cargo.toml.
func LoadManifest(dir, namespace string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data, namespace)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseManifest parses the contents of a Cargo.toml. The package name is
// validated since it ends up on the wasm-build command line.
func ParseManifest(data []byte, namespace string) (*Manifest, error) {
	root, err := toml.Parse(data)
	if err != nil {
		return nil, err
	}
	pkg := subTable(root, "package")
	if pkg == nil {
		return nil, errors.New("missing [package] table")
	}
	name, err := stringField(pkg, "name")
	if err != nil {
		return nil, err
	}
	if err := contracts.ValidateName(name); err != nil {
		return nil, err
	}
	m := &Manifest{Name: name, Options: make(Options)}

	meta := subTable(subTable(pkg, "metadata"), namespace)
	if meta == nil {
		return m, nil
	}
	for key, field := range meta.Fields {
		kv, ok := field.(*ast.KeyValue)
		if !ok || !isKnown(Option(key)) {
			m.Ignored = append(m.Ignored, key)
			continue
		}
		n, ok := kv.Value.(*ast.Integer)
		if !ok {
			return nil, fmt.Errorf("package.metadata.%s.%s must be an integer", namespace, key)
		}
		v, err := n.Int()
		if err != nil {
			return nil, fmt.Errorf("package.metadata.%s.%s: %v", namespace, key, err)
		}
		m.Options[Option(key)] = v
	}
	sort.Strings(m.Ignored)
	return m, nil
}

func isKnown(opt Option) bool {
	for _, known := range knownOptions {
		if opt == known {
			return true
		}
	}
	return false
}

func subTable(t *ast.Table, name string) *ast.Table {
	if t == nil {
		return nil
	}
	sub, _ := t.Fields[name].(*ast.Table)
	return sub
}

func stringField(t *ast.Table, key string) (string, error) {
	kv, ok := t.Fields[key].(*ast.KeyValue)
	if !ok {
		return "", fmt.Errorf("missing %s.%s", t.Name, key)
	}
	s, ok := kv.Value.(*ast.String)
	if !ok {
		return "", fmt.Errorf("%s.%s must be a string", t.Name, key)
	}
	return s.Value, nil
}
