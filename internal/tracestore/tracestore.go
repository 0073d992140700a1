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

// Package tracestore loads the set of per-PID trace files a tracing run
// produced into an indexed, walkable tree, spreading file parsing across
// a bounded worker pool.
package tracestore

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nic-ct/rpmtrace/internal/strace"
	"github.com/nic-ct/rpmtrace/internal/tracetypes"
)

// TraceData is every process observed in one tracing run, indexed by pid,
// plus the root process (the one directly exec'd by the tracer).
type TraceData struct {
	Procs map[int]*tracetypes.ProcTrace
	Root  *tracetypes.ProcTrace
}

// Load globs pattern+".*" for trace files, parses each concurrently (at
// most parallelism at a time; parallelism <= 0 means unbounded), and
// selects the root process as the one with the earliest start timestamp,
// breaking ties on the lowest pid the way a freshly exec'd tracee's first
// observed syscall would.
func Load(ctx context.Context, pattern string, parallelism int64) (*TraceData, error) {
	paths, err := filepath.Glob(pattern + ".*")
	if err != nil {
		return nil, fmt.Errorf("tracestore: globbing trace files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("tracestore: no trace files found matching %s.*", pattern)
	}

	var sem *semaphore.Weighted
	if parallelism > 0 {
		sem = semaphore.NewWeighted(parallelism)
	}

	var mu sync.Mutex
	procs := make(map[int]*tracetypes.ProcTrace, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range paths {
		p := p
		g.Go(func() error {
			if sem != nil {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
			}
			proc, err := strace.ParseFile(p)
			if err != nil {
				return fmt.Errorf("tracestore: parsing %s: %w", p, err)
			}
			mu.Lock()
			procs[proc.PID] = proc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	root := selectRoot(procs)
	return &TraceData{Procs: procs, Root: root}, nil
}

// selectRoot picks the process with the earliest TsStart, breaking ties
// on the lowest pid so the choice is deterministic regardless of map
// iteration order.
func selectRoot(procs map[int]*tracetypes.ProcTrace) *tracetypes.ProcTrace {
	pids := make([]int, 0, len(procs))
	for pid := range procs {
		pids = append(pids, pid)
	}
	sort.Ints(pids)

	var root *tracetypes.ProcTrace
	for _, pid := range pids {
		p := procs[pid]
		if root == nil || p.TsStart < root.TsStart {
			root = p
		}
	}
	return root
}

// Children returns the set of syscall records in proc that spawn a
// traced child process (the fork-like family), in timestamp order.
func Children(proc *tracetypes.ProcTrace) []tracetypes.SysCallRecord {
	var out []tracetypes.SysCallRecord
	for _, rec := range proc.Syscalls {
		if tracetypes.ForkLike(rec.Name) {
			out = append(out, rec)
		}
	}
	return out
}
