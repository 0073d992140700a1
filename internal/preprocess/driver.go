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

package preprocess

import (
	"strings"

	"github.com/nic-ct/rpmtrace/internal/tracetypes"
)

// callKey returns the canonical tuple Prefilter uses to recognize
// repeated invocations: same cwd, same compiler identity, same
// executable, same argv. Counting on this tuple (rather than on PID)
// catches the "configure runs the same probe a dozen times" pattern
// without caring which process ran it.
func callKey(call tracetypes.CompilerCall) string {
	var b strings.Builder
	b.WriteString(call.Command.Cwd)
	b.WriteByte(0)
	b.WriteString(call.Command.Compiler.String())
	b.WriteByte(0)
	b.WriteString(call.Command.Executable)
	b.WriteByte(0)
	b.WriteString(strings.Join(call.Command.Args, "\x00"))
	return b.String()
}

// Prefilter drops calls that exited non-zero, opened zero files, or
// belong to a (cwd, compiler, executable, argv) tuple that occurs more
// than once in calls. All copies of a repeated tuple are removed, not
// just the extras, since a repeated probe's single "successful" run
// carries no more information than its siblings.
func Prefilter(calls []tracetypes.CompilerCall) []tracetypes.CompilerCall {
	counts := make(map[string]int, len(calls))
	for _, call := range calls {
		counts[callKey(call)]++
	}

	out := make([]tracetypes.CompilerCall, 0, len(calls))
	for _, call := range calls {
		if call.ExitCode != 0 {
			continue
		}
		if len(call.OpenFiles) == 0 {
			continue
		}
		if counts[callKey(call)] > 1 {
			continue
		}
		out = append(out, call)
	}
	return out
}
