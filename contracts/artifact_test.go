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
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/oasislabs/oasis-compile/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readArtifact(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(blob, &out))
	return out
}

func TestWriterWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".oasis-build")
	w := NewWriter(dir)

	err := w.Write(&Artifact{
		ContractName: "Counter",
		ABI:          json.RawMessage(`[{"type":"function","name":"inc","inputs":[],"outputs":[]}]`),
		Bytecode:     "0x0061736d",
		Source:       "contracts/counter",
	})
	require.NoError(t, err)

	blob, err := os.ReadFile(filepath.Join(dir, "Counter.json"))
	require.NoError(t, err)
	assert.Contains(t, string(blob), "\n  \"contractName\": \"Counter\"")

	got := readArtifact(t, w.Path("Counter"))
	assert.Equal(t, "Counter", got["contractName"])
	assert.Equal(t, "0x0061736d", got["bytecode"])
	assert.Len(t, got["abi"], 1)
	assert.NotContains(t, got, "deployedBytecode")
	assert.NotContains(t, got, "Source")
	assert.Len(t, got, 3)
}

func TestWriterDefaultABIAndOverwrite(t *testing.T) {
	w := NewWriter(t.TempDir())
	require.NoError(t, w.Write(&Artifact{ContractName: "Counter", Bytecode: "0x01"}))
	require.NoError(t, w.Write(&Artifact{ContractName: "Counter", Bytecode: "0x02", DeployedBytecode: "0x03"}))

	got := readArtifact(t, w.Path("Counter"))
	assert.Equal(t, "0x02", got["bytecode"])
	assert.Equal(t, "0x03", got["deployedBytecode"])
	assert.Equal(t, []interface{}{}, got["abi"])
	assert.Equal(t, []string{"Counter"}, w.Written())
}

func TestWriterRejectsPaths(t *testing.T) {
	w := NewWriter(t.TempDir())
	for _, name := range []string{"", ".", "..", "../Escape", "a/b"} {
		assert.Error(t, w.Write(&Artifact{ContractName: name, Bytecode: "0x"}), "name %q", name)
	}
	assert.Empty(t, w.Written())
}

func TestWriterConcurrent(t *testing.T) {
	w := NewWriter(t.TempDir())
	names := []string{"A", "B", "C", "D", "E", "F"}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Write(&Artifact{ContractName: name, Bytecode: "0x00"}))
		}()
	}
	wg.Wait()
	assert.Equal(t, names, w.Written())
}

func TestWriterDuplicateNamesBothSources(t *testing.T) {
	var buf bytes.Buffer
	defer log.SetDefault(log.Root())
	log.SetDefault(log.NewLogger(log.LogfmtHandler(&buf, slog.LevelDebug)))

	w := NewWriter(t.TempDir())
	require.NoError(t, w.Write(&Artifact{ContractName: "Counter", Bytecode: "0x01", Source: "contracts/Counter.sol"}))
	assert.NotContains(t, buf.String(), "emitted twice")

	require.NoError(t, w.Write(&Artifact{ContractName: "Counter", Bytecode: "0x02", Source: "contracts/counter"}))
	assert.Contains(t, buf.String(), "emitted twice")
	assert.Contains(t, buf.String(), "source=contracts/counter")
	assert.Contains(t, buf.String(), "previous=contracts/Counter.sol")
	assert.Equal(t, "contracts/counter", w.Source("Counter"))
}
