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

package tracedriver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// packageBuildFlags is the set of rpmbuild actions that actually produce
// a package (and therefore are worth tracing). Any other invocation
// (e.g. rpmbuild --showrc, or a bare --help) is passed straight through
// untraced.
var packageBuildFlags = []string{
	"-ba", "-bb", "-ra", "-rb", "-ta", "-tb", "--rebuild", "--recompile",
}

// IsPackageBuild reports whether argv (the rpmbuild arguments, not
// including the rpmbuild binary itself) requests an action this tracer
// understands how to trace.
func IsPackageBuild(argv []string) bool {
	for _, a := range argv {
		for _, flag := range packageBuildFlags {
			if a == flag {
				return true
			}
		}
	}
	return false
}

// EnsureNoClean returns argv with --noclean appended if not already
// present. The tracer must observe the build's output artifacts after
// the %install section runs, and rpmbuild's default %clean section
// would remove them before the trace driver gets a chance to look.
func EnsureNoClean(argv []string) []string {
	for _, a := range argv {
		if a == "--noclean" {
			return argv
		}
	}
	out := make([]string, len(argv), len(argv)+1)
	copy(out, argv)
	return append(out, "--noclean")
}

// SRPMNVR extracts the name-version-release string for specPath by
// invoking rpmspec. RunBuild stores the result in Cfg.SRPMName when no
// SRPM name was configured.
func SRPMNVR(ctx context.Context, rpmspecPath, specPath string) (string, error) {
	if rpmspecPath == "" {
		rpmspecPath = "rpmspec"
	}
	cmd := exec.CommandContext(ctx, rpmspecPath, "-q", "--queryformat", "%{nvr}", "--srpm", specPath)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tracedriver: rpmspec failed for %s: %w: %s", specPath, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

// findSpecArg returns the last positional (non-flag) argument in argv,
// which rpmbuild treats as the spec/tarball/package path for -b*/-t*
// invocations.
func findSpecArg(argv []string) (string, bool) {
	var last string
	found := false
	for _, a := range argv {
		if strings.HasPrefix(a, "-") {
			continue
		}
		last = a
		found = true
	}
	return last, found
}
