/*
 * Copyright (C) 2025 rpmtrace contributors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"log"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/nic-ct/rpmtrace/internal/config"
)

// globalFlags map the environment knobs config.FromEnviron already reads
// from RPMTRACE_* onto CLI flags, which win when set.
type globalFlags struct {
	Parallel      int64  `long:"parallel" description:"worker-pool size for trace loading and preprocessing"`
	StagingRoot   string `long:"staging-root" description:"directory to write trace files, staged sources, and result.json"`
	Stage         string `long:"stage" description:"which stage to run: rpmbuild, preprocessing, or all" default:"all"`
	SRPMName      string `long:"srpm-name" description:"override the name-version-release recorded for this run"`
	TracerPath    string `long:"tracer-path" description:"path to the strace binary"`
	BuildToolPath string `long:"rpmbuild-path" description:"path to the rpmbuild binary"`
}

// Command is the top-level command.
type Command struct {
	Build      cmdBuild      `command:"build" description:"run rpmbuild under the tracer"`
	Preprocess cmdPreprocess `command:"preprocess" description:"resume the preprocessing stage against an existing staging root"`
}

var currentCmd Command
var parser = flags.NewParser(&currentCmd, flags.Default)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// resolveConfig layers g over the environment-derived defaults, flags
// taking precedence.
func resolveConfig(g globalFlags) (config.Config, error) {
	cfg, err := config.FromEnviron()
	if err != nil {
		return config.Config{}, err
	}
	if g.Parallel != 0 {
		cfg.Parallel = g.Parallel
	}
	if g.StagingRoot != "" {
		cfg.StagingRoot = g.StagingRoot
	}
	if g.Stage != "" && g.Stage != "all" {
		cfg.Stage = config.Stage(g.Stage)
	}
	if g.SRPMName != "" {
		cfg.SRPMName = g.SRPMName
	}
	if g.TracerPath != "" {
		cfg.TracerPath = g.TracerPath
	}
	if g.BuildToolPath != "" {
		cfg.BuildToolPath = g.BuildToolPath
	}
	return cfg, nil
}
