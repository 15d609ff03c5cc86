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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/oasislabs/oasis-compile/log"
)

// DefaultABI is used for contracts that were built without an ABI.
var DefaultABI = json.RawMessage(`[]`)

// Artifact is the compiled representation of one contract as consumed by the
// deployment framework. Both toolchains converge on this shape.
type Artifact struct {
	ContractName     string          `json:"contractName"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         string          `json:"bytecode"`
	DeployedBytecode string          `json:"deployedBytecode,omitempty"`

	Source string `json:"-"` // unit the artifact was built from, for diagnostics
}

// Writer persists artifacts as <dir>/<contractName>.json. It is safe for
// concurrent use by both pipelines.
type Writer struct {
	dir     string
	written mapset.Set[string]

	mu      sync.Mutex
	sources map[string]string // contract name -> unit of the last write
}

// NewWriter creates a writer for the given output directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, written: mapset.NewSet[string](), sources: make(map[string]string)}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Path returns the file an artifact for the named contract is written to.
func (w *Writer) Path(contractName string) string {
	return filepath.Join(w.dir, contractName+".json")
}

// Write serializes a, overwriting any artifact of the same name. Writing the
// same contract twice within one build is not an error, the last write wins,
// but it is reported since it usually means two units share a contract name.
func (w *Writer) Write(a *Artifact) error {
	name := a.ContractName
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("invalid contract name %q for artifact from %s", name, a.Source)
	}
	abi := a.ABI
	if len(abi) == 0 {
		abi = DefaultABI
	}
	out := *a
	out.ABI = abi

	blob, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact %s: %w", name, err)
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}
	if prev, dup := w.record(name, a.Source); dup {
		log.Warn("Contract name emitted twice, overwriting earlier artifact", "contract", name, "source", a.Source, "previous", prev)
	}
	if err := os.WriteFile(w.Path(name), blob, 0644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", name, err)
	}
	log.Debug("Wrote artifact", "contract", name, "path", w.Path(name))
	return nil
}

// record remembers that source produced the named contract. It returns the
// previous source if the name was already written.
func (w *Writer) record(name, source string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	prev := w.sources[name]
	w.sources[name] = source
	return prev, !w.written.Add(name)
}

// Source returns the unit the named contract was last written from.
func (w *Writer) Source(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sources[name]
}

// Written returns the names of all contracts written so far, sorted.
func (w *Writer) Written() []string {
	names := w.written.ToSlice()
	sort.Strings(names)
	return names
}
