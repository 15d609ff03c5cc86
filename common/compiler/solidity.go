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

package compiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/oasislabs/oasis-compile/internal/build"
)

// Solidity contains information about the solidity compiler.
type Solidity struct {
	Path    string   // solc executable
	Flags   []string // extra flags appended before the source files
	Version string   // reported compiler version, taken from the output if empty

	// BasePath is the directory imports are resolved against. If empty, solc
	// resolves against its working directory and may only read below it.
	BasePath     string
	IncludePaths []string // extra import roots, e.g. installed packages
}

// --combined-json output
type solcOutput struct {
	Contracts map[string]struct {
		BinRuntime                                  string `json:"bin-runtime"`
		SrcMapRuntime                               string `json:"srcmap-runtime"`
		Bin, SrcMap, Abi, Devdoc, Userdoc, Metadata string
		Hashes                                      map[string]string
	}
	Version string
}

// solidity v.0.8 changes the way ABI, Devdoc and Userdoc are serialized
type solcOutputV8 struct {
	Contracts map[string]struct {
		BinRuntime            string `json:"bin-runtime"`
		SrcMapRuntime         string `json:"srcmap-runtime"`
		Bin, SrcMap, Metadata string
		Abi                   interface{}
		Devdoc                interface{}
		Userdoc               interface{}
		Hashes                map[string]string
	}
	Version string
}

func (s *Solidity) path() string {
	if s.Path == "" {
		return "solc"
	}
	return s.Path
}

func (s *Solidity) makeArgs() []string {
	args := []string{"--combined-json", "abi,bin,bin-runtime"}
	if s.BasePath == "" {
		args = append(args, "--allow-paths", ".")
		return append(args, s.Flags...)
	}
	args = append(args, "--base-path", s.BasePath)
	for _, path := range s.IncludePaths {
		args = append(args, "--include-path", path)
	}
	allowed := append([]string{s.BasePath}, s.IncludePaths...)
	args = append(args, "--allow-paths", strings.Join(allowed, ","))
	return append(args, s.Flags...)
}

// Compile builds all given source files in a single solc invocation running in
// dir. Source paths are passed through unchanged, so they should either be
// absolute or relative to dir.
func (s *Solidity) Compile(ctx context.Context, r build.Runner, dir string, sourcefiles ...string) (map[string]*Contract, error) {
	if len(sourcefiles) == 0 {
		return nil, errors.New("solc: no source files")
	}
	args := append(s.makeArgs(), "--")
	cmd := build.Command{Name: s.path(), Args: append(args, sourcefiles...), Dir: dir}
	out, err := r.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return ParseCombinedJSON([]byte(out), "", "", s.Version, strings.Join(s.makeArgs(), " "))
}

// ParseCombinedJSON takes the direct output of a solc --combined-json run and
// parses it into a map of string contract name to Contract structs. The
// provided source, language and compiler version, and compiler options are all
// passed through into the Contract structs. If compilerVersion is empty the
// version reported in the output is used.
//
// The solc output is expected to contain ABI, source mapping, user docs, and dev docs.
//
// Returns an error if the JSON is malformed or missing data, or if the JSON
// embedded within the JSON is malformed.
func ParseCombinedJSON(combinedJSON []byte, source string, languageVersion string, compilerVersion string, compilerOptions string) (map[string]*Contract, error) {
	var output solcOutput
	if err := json.Unmarshal(combinedJSON, &output); err != nil {
		// Try to parse the output with the new solidity v.0.8.0 rules
		return parseCombinedJSONV8(combinedJSON, source, languageVersion, compilerVersion, compilerOptions)
	}
	if compilerVersion == "" {
		compilerVersion = output.Version
	}
	// Compilation succeeded, assemble and return the contracts.
	contracts := make(map[string]*Contract)
	for name, info := range output.Contracts {
		// Parse the individual compilation results.
		var abi, userdoc, devdoc interface{}
		if err := json.Unmarshal([]byte(info.Abi), &abi); err != nil {
			return nil, fmt.Errorf("solc: error reading abi definition (%v)", err)
		}
		if info.Userdoc != "" {
			if err := json.Unmarshal([]byte(info.Userdoc), &userdoc); err != nil {
				return nil, fmt.Errorf("solc: error reading userdoc definition (%v)", err)
			}
		}
		if info.Devdoc != "" {
			if err := json.Unmarshal([]byte(info.Devdoc), &devdoc); err != nil {
				return nil, fmt.Errorf("solc: error reading devdoc definition (%v)", err)
			}
		}

		contracts[name] = &Contract{
			Code:        "0x" + info.Bin,
			RuntimeCode: "0x" + info.BinRuntime,
			Hashes:      info.Hashes,
			Info: ContractInfo{
				Source:          source,
				Language:        "Solidity",
				LanguageVersion: languageVersion,
				CompilerVersion: compilerVersion,
				CompilerOptions: compilerOptions,
				SrcMap:          info.SrcMap,
				SrcMapRuntime:   info.SrcMapRuntime,
				AbiDefinition:   abi,
				UserDoc:         userdoc,
				DeveloperDoc:    devdoc,
				Metadata:        info.Metadata,
			},
		}
	}
	return contracts, nil
}

// parseCombinedJSONV8 parses the direct output of solc --combined-output
// and parses it using the rules from solidity v.0.8.0 and later.
func parseCombinedJSONV8(combinedJSON []byte, source string, languageVersion string, compilerVersion string, compilerOptions string) (map[string]*Contract, error) {
	var output solcOutputV8
	if err := json.Unmarshal(combinedJSON, &output); err != nil {
		return nil, err
	}
	if compilerVersion == "" {
		compilerVersion = output.Version
	}
	// Compilation succeeded, assemble and return the contracts.
	contracts := make(map[string]*Contract)
	for name, info := range output.Contracts {
		contracts[name] = &Contract{
			Code:        "0x" + info.Bin,
			RuntimeCode: "0x" + info.BinRuntime,
			Hashes:      info.Hashes,
			Info: ContractInfo{
				Source:          source,
				Language:        "Solidity",
				LanguageVersion: languageVersion,
				CompilerVersion: compilerVersion,
				CompilerOptions: compilerOptions,
				SrcMap:          info.SrcMap,
				SrcMapRuntime:   info.SrcMapRuntime,
				AbiDefinition:   info.Abi,
				UserDoc:         info.Userdoc,
				DeveloperDoc:    info.Devdoc,
				Metadata:        info.Metadata,
			},
		}
	}
	return contracts, nil
}
