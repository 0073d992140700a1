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

package strace

import (
	"fmt"
	"os/exec"

	"github.com/nic-ct/rpmtrace/internal/commands"
)

// tracedSyscalls is the exact event filter the tracer is invoked with: the
// fork-like family (to follow the process tree), the two exec forms (only
// execve is understood; execveat is deliberately traced so that
// encountering one is detected rather than silently missed), the cwd
// trackers, and the three open forms. Each is marked optional (?) except
// fork/vfork/clone/execve/chdir/fchdir so that a tracer build lacking a
// given syscall in its syscall table does not abort the whole trace.
const tracedSyscalls = "fork,vfork,clone,?clone2,?clone3,execve,?execveat,chdir,fchdir,?open,?openat,?openat2"

// TraceCommand returns an exec.Cmd that runs tracerPath against buildCmd,
// writing one trace file per traced process under the outputPattern
// (which strace expands to outputPattern.<pid> because of -ff).
//
// The flags mirror what the downstream parser in this package requires:
// hex-escaped strings so paths survive as exact bytes (-xx), absolute
// nanosecond Unix timestamps so syscalls from different trace files can be
// globally ordered, fd decoration so openat's dirfd resolves to a path,
// unabridged argument/structure printing, and successful-syscalls-only so
// the parser never has to special-case a failed open().
func TraceCommand(tracerPath, outputPattern string, stringLimit int, buildCmd ...string) (*exec.Cmd, error) {
	if tracerPath == "" {
		var err error
		tracerPath, err = exec.LookPath("strace")
		if err != nil {
			return nil, fmt.Errorf("cannot find an installed strace: %w", err)
		}
	}

	args := []string{
		tracerPath,
		"-xx",
		"--absolute-timestamps=format:unix,precision:ns",
		"-f",
		"-ff",
		"--decode-fds=all",
		fmt.Sprintf("--string-limit=%d", stringLimit),
		"--no-abbrev",
		"-e", "trace=" + tracedSyscalls,
		"-z",
		"--seccomp-bpf",
		"-o", outputPattern,
	}
	args = append(args, buildCmd...)

	cmd := &exec.Cmd{
		Path: args[0],
		Args: args,
	}

	if err := commands.AddSudoIfNeeded(cmd, "-E"); err != nil {
		return nil, err
	}
	return cmd, nil
}
