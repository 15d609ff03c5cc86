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

// Package build runs the external toolchains used to compile contracts.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oasislabs/oasis-compile/log"
)

// Command describes a single toolchain invocation. Dir is mandatory: every
// command runs in its own working directory instead of the process-wide one.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // extra KEY=VALUE pairs appended to the inherited environment
}

// String formats the command line into a single string suitable for logs.
func (c Command) String() string {
	return printArgs(append([]string{c.Name}, c.Args...))
}

// Runner executes toolchain commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecError is returned when a toolchain could not be started or exited with a
// non-zero status.
type ExecError struct {
	Command  string
	Dir      string
	ExitCode int // -1 if the process never ran
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s (in %s): %v", e.Command, e.Dir, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }

// Exec is the Runner backed by os/exec.
type Exec struct{}

// Run spawns cmd, waits for it to exit and returns its standard output. There
// is no retry and no timeout beyond cancellation of ctx.
func (Exec) Run(ctx context.Context, cmd Command) (string, error) {
	if cmd.Dir == "" || !filepath.IsAbs(cmd.Dir) {
		return "", fmt.Errorf("command %q needs an absolute working directory, have %q", cmd.Name, cmd.Dir)
	}
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout, c.Stderr = &stdout, &stderr

	log.Debug("Running toolchain", "cmd", cmd, "dir", cmd.Dir)
	if err := c.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return stdout.String(), &ExecError{
			Command:  cmd.String(),
			Dir:      cmd.Dir,
			ExitCode: code,
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	if s := strings.TrimSpace(stderr.String()); s != "" {
		log.Trace("Toolchain diagnostics", "cmd", cmd.Name, "stderr", s)
	}
	return stdout.String(), nil
}

// printArgs formats the command arguments into a single string.
func printArgs(args []string) string {
	var s strings.Builder
	for i, arg := range args {
		if i > 0 {
			s.WriteByte(' ')
		}
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'") {
			arg = strconv.QuoteToASCII(arg)
		}
		s.WriteString(arg)
	}
	return s.String()
}
