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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/oasislabs/oasis-compile/contracts"
	"github.com/oasislabs/oasis-compile/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fakeCargo = "#!/bin/sh\necho \"$@\" > cargo.args\n"

	// Invoked as: wasm-build --target <triple> <target dir> <name> [options] --final oasis
	fakeWasmBuild = `#!/bin/sh
mkdir -p "$3/json"
printf '\000asm' > "$3/oasis.wasm"
printf '[]' > "$3/json/$4.json"
echo "$@" > "$3/wasm-build.args"
`
	fakeSolc = `#!/bin/sh
cat <<'JSON'
{"contracts":{"Token.sol:Token":{"abi":[],"bin":"6080","bin-runtime":"6081"}},"version":"0.8.19"}
JSON
`
)

type testProject struct {
	layout *project.Layout
	config Config
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func newTestProject(t *testing.T) *testProject {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeFile(t, filepath.Join(root, "truffle-config.js"), "module.exports = {};\n")

	layout, err := project.NewLayout(root)
	require.NoError(t, err)

	bin := t.TempDir()
	config := Defaults
	config.Cargo = writeScript(t, bin, "cargo", fakeCargo)
	config.WasmBuild = writeScript(t, bin, "wasm-build", fakeWasmBuild)
	config.Solc = filepath.Join(bin, "solc-not-installed")
	return &testProject{layout: layout, config: config}
}

func (p *testProject) addCrate(t *testing.T, dir, name, extra string) string {
	t.Helper()
	path := filepath.Join(p.layout.Contracts, dir)
	writeFile(t, filepath.Join(path, "Cargo.toml"), "[package]\nname = \""+name+"\"\nversion = \"0.1.0\"\n"+extra)
	writeFile(t, filepath.Join(path, "src", "lib.rs"), "")
	return path
}

func (p *testProject) artifact(t *testing.T, name string) contracts.Artifact {
	t.Helper()
	blob, err := os.ReadFile(filepath.Join(p.layout.Output, name+".json"))
	require.NoError(t, err)
	var a contracts.Artifact
	require.NoError(t, json.Unmarshal(blob, &a))
	return a
}

func TestCompile(t *testing.T) {
	p := newTestProject(t)
	counter := p.addCrate(t, "wasm-counter", "wasm-counter", "\n[package.metadata.oasis]\nmax-mem = 30000\n")
	p.addCrate(t, "confidential-counter", "confidential-counter", "")

	c := New(&p.config, p.layout, nil)
	require.NoError(t, c.Compile(context.Background()))

	plain := p.artifact(t, "wasm-counter")
	assert.Equal(t, "wasm-counter", plain.ContractName)
	assert.Equal(t, "0x0061736d", plain.Bytecode)
	assert.Equal(t, "[]", string(plain.ABI))

	secret := p.artifact(t, "confidential-counter")
	assert.Equal(t, "0x00656e630061736d", secret.Bytecode)
	assert.Len(t, secret.Bytecode, len(plain.Bytecode)+8)

	args, err := os.ReadFile(filepath.Join(counter, "target", "wasm-build.args"))
	require.NoError(t, err)
	assert.Contains(t, string(args), "wasm-counter --max-mem 30000 --final oasis")

	args, err = os.ReadFile(filepath.Join(counter, "cargo.args"))
	require.NoError(t, err)
	assert.Equal(t, "build --release --target wasm32-unknown-unknown\n", string(args))

	// Building again must not trip over the moved output of the first build.
	require.NoError(t, c.Compile(context.Background()))
}

func TestCompileSolidity(t *testing.T) {
	p := newTestProject(t)
	p.config.Solc = writeScript(t, t.TempDir(), "solc", fakeSolc)
	writeFile(t, filepath.Join(p.layout.Contracts, "Token.sol"), "pragma solidity ^0.8.0;\n")
	p.addCrate(t, "counter", "counter", "")

	require.NoError(t, New(&p.config, p.layout, nil).Compile(context.Background()))

	token := p.artifact(t, "Token")
	assert.Equal(t, "0x6080", token.Bytecode)
	assert.Equal(t, "0x6081", token.DeployedBytecode)
	assert.Equal(t, "0x0061736d", p.artifact(t, "counter").Bytecode)
}

func TestCompileInvalidNameRunsNothing(t *testing.T) {
	p := newTestProject(t)
	good := p.addCrate(t, "good", "good", "")
	p.addCrate(t, "bad", "bad;name", "")

	err := New(&p.config, p.layout, nil).Compile(context.Background())
	assert.ErrorIs(t, err, contracts.ErrInvalidName)
	assert.NoFileExists(t, filepath.Join(good, "cargo.args"))
	assert.NoDirExists(t, p.layout.Output)
}

func TestCompileToolchainFailure(t *testing.T) {
	p := newTestProject(t)
	p.config.Cargo = writeScript(t, t.TempDir(), "cargo", "#!/bin/sh\necho 'error: could not compile' >&2\nexit 101\n")
	p.addCrate(t, "a", "alpha", "")
	p.addCrate(t, "b", "beta", "")

	err := New(&p.config, p.layout, nil).Compile(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not compile")
	assert.Contains(t, err.Error(), filepath.Join(p.layout.Contracts, "a"))
	assert.Contains(t, err.Error(), filepath.Join(p.layout.Contracts, "b"))
}

func TestCompileLocked(t *testing.T) {
	p := newTestProject(t)
	unlock, err := p.layout.Lock()
	require.NoError(t, err)
	defer unlock()

	err = New(&p.config, p.layout, nil).Compile(context.Background())
	assert.ErrorIs(t, err, project.ErrProjectLocked)
}
