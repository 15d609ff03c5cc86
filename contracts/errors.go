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
	"fmt"
	"strings"
)

// ErrInvalidName is the sentinel matched by every *InvalidNameError.
var ErrInvalidName = errors.New("invalid name")

// InvalidNameError reports a name that may not be passed to a toolchain.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid crate name: %q. Crates must contain only alphanumeric characters separated by a - or _", e.Name)
}

func (e *InvalidNameError) Is(target error) bool { return target == ErrInvalidName }

// AmbiguousOutputError is returned when a unit's output directory does not hold
// exactly one compiled module.
type AmbiguousOutputError struct {
	Dir   string
	Found []string
}

func (e *AmbiguousOutputError) Error() string {
	if len(e.Found) == 0 {
		return fmt.Sprintf("did not find a .wasm output in %s", e.Dir)
	}
	return fmt.Sprintf("found more than one .wasm file in %s (%s). Execute `oasis-compile clean` and try again",
		e.Dir, strings.Join(e.Found, ", "))
}

// MultipleAbiError is returned when a unit produced more than one ABI file.
type MultipleAbiError struct {
	Dir   string
	Found []string
}

func (e *MultipleAbiError) Error() string {
	return fmt.Sprintf("there can be only one ABI per contract crate, found %s in %s. Execute `oasis-compile clean` and try again",
		strings.Join(e.Found, ", "), e.Dir)
}

// UnitError attributes a build failure to the unit it happened in.
type UnitError struct {
	Unit string
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Unit, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }
