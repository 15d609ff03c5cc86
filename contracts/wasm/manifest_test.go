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
	"os"
	"path/filepath"
	"testing"

	"github.com/oasislabs/oasis-compile/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pkgHeader = "[package]\nname = \"wasm-counter\"\nversion = \"0.1.0\"\n"

func TestParseManifestOptions(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		options Options
		args    []string
		ignored []string
	}{
		{
			name:    "no metadata",
			input:   pkgHeader,
			options: Options{},
		},
		{
			name:    "other namespace",
			input:   pkgHeader + "\n[package.metadata.docs]\nmax-mem = 1\n",
			options: Options{},
		},
		{
			name:    "empty table",
			input:   pkgHeader + "\n[package.metadata.oasis]\n",
			options: Options{},
		},
		{
			name:    "max-mem",
			input:   pkgHeader + "\n[package.metadata.oasis]\nmax-mem = 30000\n",
			options: Options{OptionMaxMem: 30000},
			args:    []string{"--max-mem", "30000"},
		},
		{
			name:    "unknown key",
			input:   pkgHeader + "\n[package.metadata.oasis]\nnot-valid = 30000\n",
			options: Options{},
			ignored: []string{"not-valid"},
		},
		{
			name:    "mixed",
			input:   pkgHeader + "\n[package.metadata.oasis]\nzeta = true\nmax-mem = 64\nalpha = \"x\"\n",
			options: Options{OptionMaxMem: 64},
			args:    []string{"--max-mem", "64"},
			ignored: []string{"alpha", "zeta"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest([]byte(tt.input), "oasis")
			require.NoError(t, err)
			assert.Equal(t, "wasm-counter", m.Name)
			assert.Equal(t, tt.options, m.Options)
			assert.Equal(t, tt.args, m.Options.Args())
			assert.Equal(t, tt.ignored, m.Ignored)
		})
	}
}

func TestParseManifestErrors(t *testing.T) {
	_, err := ParseManifest([]byte(pkgHeader+"\n[package.metadata.oasis]\nmax-mem = \"lots\"\n"), "oasis")
	assert.ErrorContains(t, err, "must be an integer")

	_, err = ParseManifest([]byte("[dependencies]\nserde = \"1\"\n"), "oasis")
	assert.ErrorContains(t, err, "missing [package]")

	_, err = ParseManifest([]byte("[package]\nversion = \"0.1.0\"\n"), "oasis")
	assert.Error(t, err)

	_, err = ParseManifest([]byte("[package]\nname = \"bad name; rm -rf\"\n"), "oasis")
	assert.ErrorIs(t, err, contracts.ErrInvalidName)

	_, err = ParseManifest([]byte("[package\nname = "), "oasis")
	assert.Error(t, err)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadManifest(dir, "oasis")
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(pkgHeader), 0644))
	m, err := LoadManifest(dir, "oasis")
	require.NoError(t, err)
	assert.Equal(t, "wasm-counter", m.Name)
}
