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

// Package strace decodes the line-oriented output of a single trace file
// (one PID, per the tracer's -ff splitting) into a tracetypes.ProcTrace.
//
// The tracer is assumed configured for nanosecond absolute Unix
// timestamps, hex-escaped strings (-xx), fd decoration (-y /
// --decode-fds=all), no abbreviation, and "successful syscalls only"
// (-z). Lines that don't match the grammar below are expected: the
// tracer also emits unrelated diagnostic text, and we skip those
// silently. A line whose outer shape matches but whose arguments don't
// parse is a bug in this parser or an unanticipated tracer format change,
// and panics rather than silently producing a wrong record.
package strace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nic-ct/rpmtrace/internal/tracetypes"
)

// lineRE matches the three line shapes the tracer emits: a kill
// notification, an exit notification, or a single syscall record. Lines
// look like:
//
//	1705315200.123456789 +++ exited with 0 +++
//	1705315200.123456789 +++ killed by SIGKILL +++
//	1705315200.123456789 +++ killed by SIGSEGV (core dumped) +++
//	1705315200.123456789 openat(3</home/build>, "foo.c", O_RDONLY) = 4</home/build/foo.c>
//	1705315200.123456789 chdir("/home/build") = 0
//	1705315200.123456789 openat(AT_FDCWD, "/usr/include/stdio.h", O_RDONLY) = -1 ENOENT (No such file or directory)
var lineRE = regexp.MustCompile(
	`^(?P<timestamp>\d+\.\d+)\s` +
		`(?:` +
		`(?:\+\+\+ killed by (?P<killedby>[A-Z]+)(?: \(core dumped\))? \+\+\+)` +
		`|(?:\+\+\+ exited with (?P<exitcode>-?\d+) \+\+\+)` +
		`|(?:(?P<syscall>chdir|fork|vfork|clone3|clone2|clone|execveat|execve|fchdir|openat2|openat|open)\((?P<args>.*)\)\s+=\s+` +
		`(?:(?P<returnvalue>-?\d+)(?:(?:<(?P<returnfile>.*)>)|(?: (?P<errno>[A-Z_]+) \((?P<errstr>.*)\)))?)?)` +
		`)$`,
)

// Per-syscall argument grammars. A string is matched as a run of \xNN
// escapes (the -xx format) and bare characters other than a quote or a
// backslash.
var (
	execveArgsRE = regexp.MustCompile(
		`^"(?P<path>(?:\\x[0-9A-Fa-f]{2}|[^"\\])*)", ` +
			`\[(?P<argv>"(?:\\x[0-9A-Fa-f]{2}|[^"\\])*"(?:, "(?:\\x[0-9A-Fa-f]{2}|[^"\\])*")*)?(?:\.\.\.)?\], ` +
			`(?:\[(?P<env>"(?:\\x[0-9A-Fa-f]{2}|[^"\\])*"(?:, "(?:\\x[0-9A-Fa-f]{2}|[^"\\])*")*)?(?:\.\.\.)?\]|(?P<envph>0x[0-9a-fA-F]+ /\* \d+ vars? \*/))$`,
	)
	chdirArgsRE = regexp.MustCompile(
		`^"(?P<path>(?:\\x[0-9A-Fa-f]{2}|[^"\\])*)"$`,
	)
	fchdirArgsRE = regexp.MustCompile(
		`^(?P<fd>\d+)<(?P<path>(?:\\x[0-9A-Fa-f]{2}|[^>\\])*)>$`,
	)
	openArgsRE = regexp.MustCompile(
		`^"(?P<path>(?:\\x[0-9A-Fa-f]{2}|[^"\\])*)", (?P<oflag>O_[A-Z]+(?:\|O_[A-Z]+)*)(?:, (?P<mode>\d+))?$`,
	)
	openatArgsRE = regexp.MustCompile(
		`^(?P<dirfd>\d+|AT_FDCWD)(?:<(?P<dircwd>[^>]*)>)?, "(?P<path>(?:\\x[0-9A-Fa-f]{2}|[^"\\])*)", (?P<oflag>O_[A-Z]+(?:\|O_[A-Z]+)*)(?:, (?P<mode>\d+))?$`,
	)
	openat2ArgsRE = regexp.MustCompile(
		`^(?P<dirfd>\d+|AT_FDCWD)(?:<(?P<dircwd>[^>]*)>)?, "(?P<path>(?:\\x[0-9A-Fa-f]{2}|[^"\\])*)", \{(?P<how>[^}]*)\}, (?P<size>\d+)$`,
	)
)

// namedGroups turns a FindStringSubmatch result into a name->value map,
// skipping unmatched optional groups.
func namedGroups(re *regexp.Regexp, match []string) map[string]string {
	out := make(map[string]string, len(match))
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" || match[i] == "" {
			continue
		}
		out[name] = match[i]
	}
	return out
}

// ParsePID parses the PID embedded in a trace-file name of the form
// "<prefix>.<pid>", as produced by a tracer configured with -ff.
func ParsePID(path string) (int, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" {
		return 0, fmt.Errorf("strace: trace file name %q has no .<pid> suffix", base)
	}
	pid, err := strconv.Atoi(ext[1:])
	if err != nil {
		return 0, fmt.Errorf("strace: trace file name %q has a non-numeric pid suffix: %w", base, err)
	}
	return pid, nil
}

// ParseFile opens and decodes a single trace file.
func ParseFile(path string) (*tracetypes.ProcTrace, error) {
	pid, err := ParsePID(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(pid, f)
}

// Parse decodes a single trace file's contents, already known to belong
// to pid, into a ProcTrace.
func Parse(pid int, r io.Reader) (*tracetypes.ProcTrace, error) {
	proc := &tracetypes.ProcTrace{PID: pid}
	haveTs := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		m := lineRE.FindStringSubmatch(line)
		if m == nil {
			// expected: the tracer emits unrelated diagnostic lines
			continue
		}
		g := namedGroups(lineRE, m)

		ts, err := strconv.ParseFloat(g["timestamp"], 64)
		if err != nil {
			panic(fmt.Sprintf("strace: matched line with unparsable timestamp: %q", line))
		}
		if !haveTs {
			proc.TsStart, proc.TsEnd = ts, ts
			haveTs = true
		} else {
			if ts < proc.TsStart {
				proc.TsStart = ts
			}
			if ts > proc.TsEnd {
				proc.TsEnd = ts
			}
		}

		if killedBy, ok := g["killedby"]; ok {
			proc.KilledBy = killedBy
			continue
		}
		if exitCode, ok := g["exitcode"]; ok {
			n, err := strconv.Atoi(exitCode)
			if err != nil {
				panic(fmt.Sprintf("strace: matched exit line with unparsable code: %q", line))
			}
			proc.ExitCode = &n
			continue
		}

		name := g["syscall"]
		if name == "" {
			continue
		}
		rv, err := strconv.ParseInt(g["returnvalue"], 10, 64)
		if err != nil {
			panic(fmt.Sprintf("strace: matched syscall line with unparsable return value: %q", line))
		}
		// Failures are discarded before storage (the tracer is configured
		// with -z/successful-only already, but we don't rely on that).
		if rv < 0 {
			continue
		}

		rec := tracetypes.SysCallRecord{
			Timestamp:   ts,
			Name:        name,
			ReturnValue: rv,
		}
		if rf, ok := g["returnfile"]; ok {
			rec.ReturnFile = decodeXString(rf)
		}

		decodeArgs(&rec, g["args"], line)
		proc.Syscalls = append(proc.Syscalls, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(proc.Syscalls, func(i, j int) bool {
		return proc.Syscalls[i].Timestamp < proc.Syscalls[j].Timestamp
	})

	return proc, nil
}

// decodeArgs fills in rec.Args (or rec.RawArgs) from the raw argument
// text captured between the syscall's parentheses. line is kept only for
// panic messages.
func decodeArgs(rec *tracetypes.SysCallRecord, args, line string) {
	switch rec.Name {
	case tracetypes.SyscallFork, tracetypes.SyscallVfork:
		// No arguments are meaningful; only the return value (child pid)
		// is used by the walker.
	case tracetypes.SyscallClone, tracetypes.SyscallClone2, tracetypes.SyscallClone3:
		// Arguments are preserved verbatim; only the return value is used.
		rec.RawArgs = args
	case tracetypes.SyscallExecveat:
		// Explicitly unimplemented: execveat's dirfd-relative semantics
		// differ materially from execve's and must not be silently
		// folded into it.
		panic(fmt.Sprintf("strace: execveat is not implemented (line: %q)", line))
	case tracetypes.SyscallExecve:
		m := execveArgsRE.FindStringSubmatch(args)
		if m == nil {
			panic(fmt.Sprintf("strace: malformed execve arguments: %q", line))
		}
		g := namedGroups(execveArgsRE, m)
		ea := &tracetypes.ExecveArgs{
			Path: decodeXString(g["path"]),
			Argv: decodeStringList(g["argv"]),
		}
		if env, ok := g["env"]; ok {
			ea.Envp = decodeStringList(env)
		} else {
			// truncated placeholder, e.g. "0x561b... /* 69 vars */"
			ea.Envp = nil
		}
		rec.Args.Execve = ea
	case tracetypes.SyscallChdir:
		m := chdirArgsRE.FindStringSubmatch(args)
		if m == nil {
			panic(fmt.Sprintf("strace: malformed chdir arguments: %q", line))
		}
		g := namedGroups(chdirArgsRE, m)
		rec.Args.Chdir = &tracetypes.ChdirArgs{Path: decodeXString(g["path"])}
	case tracetypes.SyscallFchdir:
		m := fchdirArgsRE.FindStringSubmatch(args)
		if m == nil {
			panic(fmt.Sprintf("strace: malformed fchdir arguments: %q", line))
		}
		g := namedGroups(fchdirArgsRE, m)
		fd, err := strconv.Atoi(g["fd"])
		if err != nil {
			panic(fmt.Sprintf("strace: malformed fchdir fd: %q", line))
		}
		rec.Args.Fchdir = &tracetypes.FchdirArgs{FD: fd, Path: decodeXString(g["path"])}
	case tracetypes.SyscallOpen:
		m := openArgsRE.FindStringSubmatch(args)
		if m == nil {
			panic(fmt.Sprintf("strace: malformed open arguments: %q", line))
		}
		g := namedGroups(openArgsRE, m)
		rec.Args.Open = &tracetypes.OpenArgs{
			Path:  decodeXString(g["path"]),
			Oflag: g["oflag"],
			Mode:  g["mode"],
		}
	case tracetypes.SyscallOpenat:
		m := openatArgsRE.FindStringSubmatch(args)
		if m == nil {
			panic(fmt.Sprintf("strace: malformed openat arguments: %q", line))
		}
		g := namedGroups(openatArgsRE, m)
		rec.Args.Openat = &tracetypes.OpenatArgs{
			DirFD:   g["dirfd"],
			DirPath: decodeXString(g["dircwd"]),
			Path:    decodeXString(g["path"]),
			Oflag:   g["oflag"],
			Mode:    g["mode"],
		}
	case tracetypes.SyscallOpenat2:
		m := openat2ArgsRE.FindStringSubmatch(args)
		if m == nil {
			panic(fmt.Sprintf("strace: malformed openat2 arguments: %q", line))
		}
		g := namedGroups(openat2ArgsRE, m)
		how := map[string]string{}
		if raw, ok := g["how"]; ok {
			for _, kv := range splitTopLevelArgs(raw) {
				kv = strings.TrimSpace(kv)
				if idx := indexByte(kv, '='); idx >= 0 {
					how[kv[:idx]] = kv[idx+1:]
				}
			}
		}
		rec.Args.Openat2 = &tracetypes.Openat2Args{
			DirFD:   g["dirfd"],
			DirPath: decodeXString(g["dircwd"]),
			Path:    decodeXString(g["path"]),
			How:     how,
			Size:    g["size"],
		}
	default:
		rec.RawArgs = args
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
