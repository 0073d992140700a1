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

// Package walker reconstructs each process's working directory over time
// and, walking the tree from the root, recognizes compiler invocations
// and attributes every file opened anywhere in their subtree to them.
//
// The walk is iterative rather than recursive: an explicit stack of
// frames stands in for the call stack a recursive implementation would
// use, so a build with a very deep or very wide process tree cannot blow
// Go's goroutine stack.
package walker

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nic-ct/rpmtrace/internal/compiler"
	"github.com/nic-ct/rpmtrace/internal/tracestore"
	"github.com/nic-ct/rpmtrace/internal/tracetypes"
)

// frame is one process's walk state, kept on an explicit stack in place
// of a recursive call. idx is the next syscall to process; openFiles
// accumulates files opened by this process and its descendants until
// they are either attributed to a CompilerCall opened on this branch or
// merged into the parent frame.
type frame struct {
	proc           *tracetypes.ProcTrace
	idx            int
	cwd            string
	insideCompiler bool
	openFiles      []tracetypes.OpenFile
	call           *tracetypes.CompilerCall // set once this frame opens a compiler call
}

// Walk walks data from rootPID (whose initial working directory is
// rootCwd) and returns every recognized CompilerCall, in the order their
// owning process's frame finished.
func Walk(ctx context.Context, data *tracestore.TraceData, rootPID int, rootCwd string, m *compiler.Matcher) ([]tracetypes.CompilerCall, error) {
	var calls []tracetypes.CompilerCall

	root, ok := data.Procs[rootPID]
	if !ok {
		return nil, fmt.Errorf("walker: root pid %d not found in trace store", rootPID)
	}

	stack := []*frame{{proc: root, cwd: rootCwd}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.idx >= len(top.proc.Syscalls) {
			stack = stack[:len(stack)-1]

			var toParent []tracetypes.OpenFile
			if top.call != nil {
				if top.proc.ExitCode != nil {
					top.call.ExitCode = *top.proc.ExitCode
				}
				top.call.OpenFiles = top.openFiles
				calls = append(calls, *top.call)
			} else {
				toParent = top.openFiles
			}

			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.openFiles = append(parent.openFiles, toParent...)
			}
			continue
		}

		rec := top.proc.Syscalls[top.idx]
		top.idx++

		switch {
		case tracetypes.ForkLike(rec.Name):
			childPID := int(rec.ReturnValue)
			child, ok := data.Procs[childPID]
			if !ok {
				// the child's trace file is missing (e.g. it exited before
				// the tracer finished flushing); nothing to attribute from it.
				continue
			}
			stack = append(stack, &frame{proc: child, cwd: top.cwd, insideCompiler: top.insideCompiler})

		case rec.Name == tracetypes.SyscallChdir:
			top.cwd = joinCwd(top.cwd, rec.Args.Chdir.Path)

		case rec.Name == tracetypes.SyscallFchdir:
			top.cwd = joinCwd(top.cwd, rec.Args.Fchdir.Path)

		case rec.Name == tracetypes.SyscallExecveat:
			panic("walker: execveat is not implemented")

		case rec.Name == tracetypes.SyscallExecve:
			if top.insideCompiler {
				continue
			}
			ea := rec.Args.Execve
			id, recognized := m.Match(ctx, ea.Path, ea.Argv)
			if !recognized {
				continue
			}
			top.insideCompiler = true
			top.call = &tracetypes.CompilerCall{
				PID: top.proc.PID,
				Command: tracetypes.CompilerCommand{
					Cwd:        top.cwd,
					Compiler:   id,
					Executable: ea.Path,
					Args:       ea.Argv,
				},
			}

		case rec.Name == tracetypes.SyscallOpen:
			if !top.insideCompiler {
				continue
			}
			oa := rec.Args.Open
			top.openFiles = append(top.openFiles, tracetypes.OpenFile{
				Path:  joinCwd(top.cwd, oa.Path),
				Oflag: oa.Oflag,
				Mode:  oa.Mode,
			})

		case rec.Name == tracetypes.SyscallOpenat:
			if !top.insideCompiler {
				continue
			}
			oa := rec.Args.Openat
			base := top.cwd
			if oa.DirPath != "" {
				base = oa.DirPath
			}
			top.openFiles = append(top.openFiles, tracetypes.OpenFile{
				Path:  joinCwd(base, oa.Path),
				Oflag: oa.Oflag,
				Mode:  oa.Mode,
			})

		case rec.Name == tracetypes.SyscallOpenat2:
			if !top.insideCompiler {
				continue
			}
			oa := rec.Args.Openat2
			base := top.cwd
			if oa.DirPath != "" {
				base = oa.DirPath
			}
			top.openFiles = append(top.openFiles, tracetypes.OpenFile{
				Path:  joinCwd(base, oa.Path),
				Oflag: oa.How["flags"],
				Mode:  oa.How["mode"],
			})
		}
	}

	return calls, nil
}

// joinCwd resolves path against cwd the way chdir/open semantics require:
// an absolute path replaces cwd entirely, a relative one is joined and
// cleaned.
func joinCwd(cwd, path string) string {
	if path == "" {
		return cwd
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(cwd, path))
}
