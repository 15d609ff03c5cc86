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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	for _, body := range []string{"", "00", "0061736d01000000", "6080604052348015600f57600080fd5b50"} {
		got := Encode("0x" + body)
		assert.True(t, strings.HasPrefix(got, "0x00656e63"), got)
		assert.Equal(t, len(body)+10, len(got))
		assert.Equal(t, Marker+body, got)
	}
}

func TestEncodeRequiresPrefix(t *testing.T) {
	assert.Panics(t, func() { Encode("6080") })
}

func TestIsConfidential(t *testing.T) {
	tests := map[string]bool{
		"confidential_Foo.sol":                  true,
		"confidential-my-crate":                 true,
		"/test/confidential_Contract.sol":       true,
		"/box/contracts/confidential-counter":   true,
		"Foo.sol":                               false,
		"my-confidential-crate":                 false,
		"confidential":                          false,
		"confidentialFoo.sol":                   false,
		"/box/confidential_dir/Counter.sol":     false,
		"/box/contracts/confidential-counter/x": false,
	}
	for path, want := range tests {
		assert.Equal(t, want, IsConfidential(path), "path %q", path)
	}
}
