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

// Package config resolves the driver's environment-variable knobs from
// the mock build environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Stage selects which half of the pipeline a run performs.
type Stage string

const (
	StageRpmbuild    Stage = "rpmbuild"
	StagePreprocess  Stage = "preprocessing"
	StageAll         Stage = "all"
)

// Config is every environment-derived knob the driver needs.
type Config struct {
	// StagingRoot is where the tracer writes trace files, staged inputs,
	// preprocessed output, and the final manifest.
	StagingRoot string
	// Parallel is the worker-pool size used by both trace-file loading
	// and per-call preprocessing. <=0 means unbounded.
	Parallel int64
	// Stage selects which part of the pipeline to run.
	Stage Stage
	// SRPMName overrides the name-version-release string normally
	// derived from the spec file, for resuming only the preprocessing
	// stage against an existing staging root.
	SRPMName string
	// TracerPath and BuildToolPath are the tracer and rpmbuild binaries;
	// an empty TracerPath means "resolve strace from PATH". FromEnviron
	// fills both with defaults.
	TracerPath    string
	BuildToolPath string
	// StringLimit bounds how much of each string argument the tracer
	// keeps; very long build command lines otherwise get truncated by
	// the tracer's own default.
	StringLimit int
}

const (
	envParallel      = "RPMTRACE_PARALLEL"
	envRPMBuildNCPUs = "RPM_BUILD_NCPUS"
	envStagingRoot   = "RPMTRACE_STAGING_ROOT"
	envStage         = "RPMTRACE_STAGE"
	envSRPMName      = "RPMTRACE_SRPM_NAME"
	envTracerPath    = "RPMTRACE_TRACER_PATH"
	envBuildToolPath = "RPMTRACE_RPMBUILD_PATH"
	envStringLimit   = "RPMTRACE_STRING_LIMIT"
)

const (
	defaultStagingRoot = "/tmp/rpmtrace"
	defaultTracerPath  = "/usr/bin/strace"
	defaultBuildPath   = "/usr/bin/rpmbuild"
	defaultStringLimit = 4096
)

// FromEnviron builds a Config from the process environment, applying the
// same defaults a bare invocation (no env vars set) would get in a mock
// chroot.
func FromEnviron() (Config, error) {
	cfg := Config{
		StagingRoot:   defaultStagingRoot,
		Parallel:      1,
		Stage:         StageAll,
		TracerPath:    defaultTracerPath,
		BuildToolPath: defaultBuildPath,
		StringLimit:   defaultStringLimit,
	}

	if v, ok := os.LookupEnv(envStagingRoot); ok && v != "" {
		cfg.StagingRoot = v
	}
	if v, ok := os.LookupEnv(envTracerPath); ok && v != "" {
		cfg.TracerPath = v
	}
	if v, ok := os.LookupEnv(envBuildToolPath); ok && v != "" {
		cfg.BuildToolPath = v
	}
	if v, ok := os.LookupEnv(envSRPMName); ok && v != "" {
		cfg.SRPMName = v
	}

	if v, ok := os.LookupEnv(envStringLimit); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s=%q is not an integer: %w", envStringLimit, v, err)
		}
		cfg.StringLimit = n
	}

	if v, ok := os.LookupEnv(envParallel); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s=%q is not an integer: %w", envParallel, v, err)
		}
		cfg.Parallel = n
	} else if v, ok := os.LookupEnv(envRPMBuildNCPUs); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s=%q is not an integer: %w", envRPMBuildNCPUs, v, err)
		}
		cfg.Parallel = n
	}

	if v, ok := os.LookupEnv(envStage); ok && v != "" {
		switch Stage(v) {
		case StageRpmbuild, StagePreprocess, StageAll:
			cfg.Stage = Stage(v)
		default:
			return Config{}, fmt.Errorf("config: %s=%q is not one of rpmbuild, preprocessing, all", envStage, v)
		}
	}

	return cfg, nil
}
