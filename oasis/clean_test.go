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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	p := newTestProject(t)
	counter := p.addCrate(t, "counter", "counter", "")
	writeFile(t, filepath.Join(counter, "Cargo.lock"), "# generated\n")
	writeFile(t, filepath.Join(p.layout.Build, "contracts", "Migrations.json"), "{}")

	c := New(&p.config, p.layout, nil)
	require.NoError(t, c.Compile(context.Background()))
	require.DirExists(t, p.layout.Output)

	require.NoError(t, c.Clean())
	assert.NoDirExists(t, p.layout.Output)
	assert.NoDirExists(t, p.layout.Build)
	assert.NoDirExists(t, filepath.Join(counter, "target"))
	assert.NoFileExists(t, filepath.Join(counter, "Cargo.lock"))
	assert.FileExists(t, filepath.Join(counter, "Cargo.toml"))
	assert.FileExists(t, filepath.Join(counter, "src", "lib.rs"))

	// A second clean has nothing left to do and still succeeds.
	require.NoError(t, c.Clean())
}

func TestCleanSharedTargetDir(t *testing.T) {
	p := newTestProject(t)
	shared := filepath.Join(t.TempDir(), "cargo-target")
	p.config.TargetDir = shared
	p.addCrate(t, "counter", "counter", "")
	writeFile(t, filepath.Join(shared, "counter", "oasis.wasm"), "\x00asm")
	writeFile(t, filepath.Join(shared, "release", "deps", "keep.rlib"), "")

	require.NoError(t, New(&p.config, p.layout, nil).Clean())
	assert.NoDirExists(t, filepath.Join(shared, "counter"))
	assert.FileExists(t, filepath.Join(shared, "release", "deps", "keep.rlib"))
}

func TestCleanUnreadableManifest(t *testing.T) {
	p := newTestProject(t)
	broken := p.addCrate(t, "broken", "not a valid name", "")
	writeFile(t, filepath.Join(broken, "Cargo.lock"), "")
	writeFile(t, filepath.Join(broken, "target", "debug", "x"), "")

	require.NoError(t, New(&p.config, p.layout, nil).Clean())
	assert.NoFileExists(t, filepath.Join(broken, "Cargo.lock"))
	assert.NoDirExists(t, filepath.Join(broken, "target"))
}

func TestCleanTargetOutsideProject(t *testing.T) {
	p := newTestProject(t)
	counter := p.addCrate(t, "counter", "counter", "")
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "counter", "oasis.wasm"), "")
	writeFile(t, filepath.Join(outside, "keep"), "")
	require.NoError(t, os.Symlink(outside, filepath.Join(counter, "target")))

	require.NoError(t, New(&p.config, p.layout, nil).Clean())
	assert.FileExists(t, filepath.Join(outside, "keep"))
	assert.NoDirExists(t, filepath.Join(outside, "counter"))
}
