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
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/snapcore/snapd/gadget/quantity"

	"github.com/nic-ct/rpmtrace/internal/compiler"
	"github.com/nic-ct/rpmtrace/internal/config"
	"github.com/nic-ct/rpmtrace/internal/files"
	"github.com/nic-ct/rpmtrace/internal/preprocess"
	"github.com/nic-ct/rpmtrace/internal/strace"
	"github.com/nic-ct/rpmtrace/internal/tracestore"
	"github.com/nic-ct/rpmtrace/internal/walker"
)

// writeLayoutFile (re)creates one of the staging root's top-level record
// files (cwd, cmd, rpmbuild.cmd, rpmbuild.returncode), replacing any
// stale copy left by an earlier run over the same staging root.
func writeLayoutFile(path, content string) error {
	f, err := files.EnsureExistsAndOpen(path, true)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

// Driver runs the full rpmbuild-then-preprocess pipeline described in
// §6, writing the staging-root layout as it goes.
type Driver struct {
	Cfg   config.Config
	Timer *Timer
}

// New returns a Driver for cfg.
func New(cfg config.Config) *Driver {
	return &Driver{Cfg: cfg, Timer: NewTimer()}
}

// RunBuild wraps rpmbuildArgv (the arguments after the rpmbuild binary
// name) under the tracer, unless it isn't a package-building invocation,
// in which case it runs it straight through. Returns rpmbuild's exit
// code.
func (d *Driver) RunBuild(ctx context.Context, rpmbuildArgv []string) (int, error) {
	if !IsPackageBuild(rpmbuildArgv) {
		log.Printf("not a package build invocation, passing through untraced")
		cmd := exec.CommandContext(ctx, d.Cfg.BuildToolPath, rpmbuildArgv...)
		cmd.Stdout, cmd.Stderr, cmd.Stdin = os.Stdout, os.Stderr, os.Stdin
		if err := cmd.Run(); err != nil {
			return exitCodeOf(err), nil
		}
		return 0, nil
	}

	if err := os.MkdirAll(d.Cfg.StagingRoot, 0755); err != nil {
		return 0, fmt.Errorf("tracedriver: creating staging root: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return 0, err
	}
	if err := writeLayoutFile(filepath.Join(d.Cfg.StagingRoot, "cwd"), cwd+"\n"); err != nil {
		return 0, err
	}

	argv := EnsureNoClean(rpmbuildArgv)
	if err := writeLayoutFile(filepath.Join(d.Cfg.StagingRoot, "rpmbuild.cmd"),
		strings.Join(append([]string{d.Cfg.BuildToolPath}, argv...), " ")+"\n"); err != nil {
		return 0, err
	}

	if specArg, ok := findSpecArg(argv); ok && d.Cfg.SRPMName == "" {
		if nvr, err := SRPMNVR(ctx, "", specArg); err == nil {
			d.Cfg.SRPMName = nvr
		} else {
			log.Printf("could not resolve SRPM name-version-release: %v", err)
		}
	}

	traceDir := filepath.Join(d.Cfg.StagingRoot, "strace")
	if err := os.MkdirAll(traceDir, 0755); err != nil {
		return 0, err
	}
	tracePattern := filepath.Join(traceDir, "trace-rpmbuild")

	fullCmd := append([]string{d.Cfg.BuildToolPath}, argv...)
	cmd, err := strace.TraceCommand(d.Cfg.TracerPath, tracePattern, d.Cfg.StringLimit, fullCmd...)
	if err != nil {
		return 0, fmt.Errorf("tracedriver: building trace command: %w", err)
	}
	if err := writeLayoutFile(filepath.Join(d.Cfg.StagingRoot, "cmd"), strings.Join(cmd.Args, " ")+"\n"); err != nil {
		return 0, err
	}
	cmd.Stdout, cmd.Stderr, cmd.Stdin = os.Stdout, os.Stderr, os.Stdin

	d.Timer.Mark("rpmbuild-start")
	runErr := cmd.Run()
	d.Timer.Mark("rpmbuild-end")

	rc := 0
	if runErr != nil {
		rc = exitCodeOf(runErr)
	}
	if err := writeLayoutFile(filepath.Join(d.Cfg.StagingRoot, "rpmbuild.returncode"), strconv.Itoa(rc)+"\n"); err != nil {
		return rc, err
	}
	return rc, nil
}

// RunPreprocessing loads the trace files already present under the
// staging root, walks the process tree to find compiler calls, and
// produces the staged tree plus result.json.
func (d *Driver) RunPreprocessing(ctx context.Context) error {
	tracePattern := filepath.Join(d.Cfg.StagingRoot, "strace", "trace-rpmbuild")

	d.Timer.Mark("trace-load-start")
	data, err := tracestore.Load(ctx, tracePattern, d.Cfg.Parallel)
	if err != nil {
		return fmt.Errorf("tracedriver: loading trace: %w", err)
	}
	d.Timer.Mark("trace-load-end")

	rootCwd, err := os.ReadFile(filepath.Join(d.Cfg.StagingRoot, "cwd"))
	if err != nil {
		return fmt.Errorf("tracedriver: reading recorded cwd: %w", err)
	}

	m := compiler.NewMatcher()
	calls, err := walker.Walk(ctx, data, data.Root.PID, strings.TrimSpace(string(rootCwd)), m)
	if err != nil {
		return fmt.Errorf("tracedriver: walking process tree: %w", err)
	}
	d.Timer.Mark("walk-end")

	calls = preprocess.Prefilter(calls)
	log.Printf("processing %d compiler calls", len(calls))

	items, err := preprocess.ProcessAll(ctx, d.Cfg.StagingRoot, calls, d.Cfg.Parallel, func(format string, args ...interface{}) {
		log.Printf(format, args...)
	})
	if err != nil {
		return fmt.Errorf("tracedriver: preprocessing compiler calls: %w", err)
	}
	d.Timer.Mark("preprocess-end")

	if err := preprocess.WriteManifest(d.Cfg.StagingRoot, items); err != nil {
		return fmt.Errorf("tracedriver: writing manifest: %w", err)
	}
	d.Timer.Mark("manifest-written")

	size, err := stagingTreeSize(d.Cfg.StagingRoot)
	if err == nil {
		log.Printf("staging root is now %s", quantity.Size(size))
	}

	return nil
}

func stagingTreeSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

func exitCodeOf(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}
