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

// Package debug configures logging from command line flags.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/oasislabs/oasis-compile/internal/flags"
	"github.com/oasislabs/oasis-compile/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	verbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    3,
		Category: flags.LoggingCategory,
	}
	logFormatFlag = &cli.StringFlag{
		Name:     "log.format",
		Usage:    "Log format to use (json|logfmt|terminal)",
		Category: flags.LoggingCategory,
	}
	logFileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Write logs to a file",
		Category: flags.LoggingCategory,
	}
	logRotateFlag = &cli.BoolFlag{
		Name:     "log.rotate",
		Usage:    "Enables log file rotation",
		Category: flags.LoggingCategory,
	}
	logMaxSizeMBsFlag = &cli.IntFlag{
		Name:     "log.maxsize",
		Usage:    "Maximum size in MBs of a single log file",
		Value:    100,
		Category: flags.LoggingCategory,
	}
	logMaxBackupsFlag = &cli.IntFlag{
		Name:     "log.maxbackups",
		Usage:    "Maximum number of log files to retain",
		Value:    10,
		Category: flags.LoggingCategory,
	}
	logMaxAgeFlag = &cli.IntFlag{
		Name:     "log.maxage",
		Usage:    "Maximum number of days to retain a log file",
		Value:    30,
		Category: flags.LoggingCategory,
	}
	logCompressFlag = &cli.BoolFlag{
		Name:     "log.compress",
		Usage:    "Compress the log files",
		Value:    false,
		Category: flags.LoggingCategory,
	}
)

// Flags are the logging flags shared by every command.
var Flags = []cli.Flag{
	verbosityFlag,
	logFormatFlag,
	logFileFlag,
	logRotateFlag,
	logMaxSizeMBsFlag,
	logMaxBackupsFlag,
	logMaxAgeFlag,
	logCompressFlag,
}

// logOutputFile is the file or rotating writer opened by Setup, closed by Exit.
var logOutputFile io.WriteCloser

// Setup installs the root logger described by the logging flags. It must run
// before the command does any work so nothing is logged to the discard
// handler.
func Setup(ctx *cli.Context) error {
	format := ctx.String(logFormatFlag.Name)
	if format == "" {
		format = "terminal"
	}
	switch format {
	case "terminal", "json", "logfmt":
	default:
		return fmt.Errorf("unknown log format: %v", format)
	}

	location, err := openLogFile(ctx)
	if err != nil {
		return err
	}
	var (
		level   = log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
		console = io.Writer(os.Stderr)
		handler slog.Handler
	)
	switch format {
	case "json":
		handler = log.JSONHandler(withFile(console), level)
	case "logfmt":
		handler = log.LogfmtHandler(withFile(console), level)
	default:
		color := useColor()
		if color {
			console = colorable.NewColorableStderr()
		}
		handler = log.NewTerminalHandler(withFile(console), level, color)
	}
	log.SetDefault(log.NewLogger(handler))

	if location != "" {
		log.Info("Logging configured", "format", format, "rotate", ctx.Bool(logRotateFlag.Name), "location", location)
	}
	return nil
}

// openLogFile opens the writer selected by --log.file and --log.rotate and
// returns where it writes, or "" when logging goes to the console only.
func openLogFile(ctx *cli.Context) (string, error) {
	var (
		path   = ctx.String(logFileFlag.Name)
		rotate = ctx.Bool(logRotateFlag.Name)
	)
	if path != "" {
		if err := validateLogLocation(filepath.Dir(path)); err != nil {
			return "", fmt.Errorf("failed to initialize file logger: %v", err)
		}
	}
	switch {
	case rotate:
		logOutputFile = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    ctx.Int(logMaxSizeMBsFlag.Name),
			MaxBackups: ctx.Int(logMaxBackupsFlag.Name),
			MaxAge:     ctx.Int(logMaxAgeFlag.Name),
			Compress:   ctx.Bool(logCompressFlag.Name),
		}
		if path == "" {
			// lumberjack falls back to <process>-lumberjack.log in the temp dir.
			return filepath.Join(os.TempDir(), filepath.Base(os.Args[0])+"-lumberjack.log"), nil
		}
		return path, nil
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return "", err
		}
		logOutputFile = f
		return path, nil
	}
	return "", nil
}

// withFile tees console into the open log file, if there is one.
func withFile(console io.Writer) io.Writer {
	if logOutputFile == nil {
		return console
	}
	return io.MultiWriter(logOutputFile, console)
}

func useColor() bool {
	fd := os.Stderr.Fd()
	return (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("TERM") != "dumb"
}

// Exit closes the log file, if any.
func Exit() {
	if logOutputFile != nil {
		logOutputFile.Close()
		logOutputFile = nil
	}
}

// validateLogLocation creates dir if needed and makes sure a file can be
// written into it.
func validateLogLocation(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("error creating the directory: %w", err)
	}
	f, err := os.CreateTemp(dir, ".log-check-*")
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(f.Name())
}
