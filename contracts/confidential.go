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
	"path/filepath"
	"strings"
)

// Marker is prepended to the bytecode of confidential contracts (b"\0enc").
const Marker = "0x00656e63"

// IsConfidential reports whether the unit or source file at p asks for
// confidential compilation, i.e. whether its base name starts with
// "confidential_" or "confidential-".
func IsConfidential(p string) bool {
	name := filepath.Base(p)
	return strings.HasPrefix(name, "confidential_") || strings.HasPrefix(name, "confidential-")
}

// Encode prefixes hex encoded bytecode with the confidentiality marker. The
// marker replaces the leading "0x" of code. Code always comes from our own
// toolchain output, so a missing prefix is a bug and panics.
func Encode(code string) string {
	if !strings.HasPrefix(code, "0x") {
		panic("contracts: bytecode without 0x prefix")
	}
	return Marker + code[2:]
}
