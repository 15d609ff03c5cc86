// Copyright 2019 The oasis-compile Authors
// This file is part of oasis-compile.
//
// oasis-compile is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// oasis-compile is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with oasis-compile. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/oasislabs/oasis-compile/cmd/utils"
	"github.com/oasislabs/oasis-compile/internal/debug"
	"github.com/oasislabs/oasis-compile/internal/flags"
	"github.com/oasislabs/oasis-compile/internal/project"
	"github.com/oasislabs/oasis-compile/log"
	"github.com/oasislabs/oasis-compile/oasis"
	"github.com/urfave/cli/v2"
)

const targetDirEnv = "CARGO_TARGET_DIR"

var (
	dumpConfigCommand = &cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Export configuration values in a TOML format",
		ArgsUsage:   "<dumpfile (optional)>",
		Flags:       flags.Merge(configFlags, debug.Flags),
		Description: `Export configuration values in TOML format (to stdout by default).`,
	}

	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.ProjectCategory,
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type compileConfig struct {
	Oasis oasis.Config
}

func loadConfig(file string, cfg *compileConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// loadBaseConfig loads the configuration from the defaults, the config file
// and the command line, in that order of precedence.
func loadBaseConfig(ctx *cli.Context) (compileConfig, error) {
	cfg := compileConfig{Oasis: oasis.Defaults}

	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	utils.SetConfig(ctx, &cfg.Oasis)
	return cfg, nil
}

// makeCompiler resolves the project, loads its environment file and applies
// the cargo target override from the environment if no flag or config file
// set one.
func makeCompiler(ctx *cli.Context) (*oasis.Compiler, error) {
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return nil, err
	}
	layout, err := project.Locate(cfg.Oasis.Root)
	if err != nil {
		return nil, err
	}
	if err := layout.LoadEnv(); err != nil {
		return nil, err
	}
	if cfg.Oasis.TargetDir == "" {
		cfg.Oasis.TargetDir = os.Getenv(targetDirEnv)
	}
	if cfg.Oasis.TargetDir != "" {
		if cfg.Oasis.TargetDir, err = filepath.Abs(cfg.Oasis.TargetDir); err != nil {
			return nil, err
		}
		log.Debug("Using shared cargo target directory", "dir", cfg.Oasis.TargetDir)
	}
	return oasis.New(&cfg.Oasis, layout, nil), nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	if err := debug.Setup(ctx); err != nil {
		return err
	}
	cfg, err := loadBaseConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	_, err = io.WriteString(dump, "# Note: this config doesn't contain the project root if it was not set explicitly.\n\n")
	if err != nil {
		return err
	}
	_, err = dump.Write(out)
	return err
}
