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

// Package tracetypes holds the data model shared by every stage of the
// build tracer: the decoded syscall stream, the per-process trace, the
// compiler identity, and the manifest row emitted for the analyzer.
package tracetypes

import "fmt"

// Syscall names this tracer understands. Anything else is kept as an
// opaque raw-argument record if the tracer is configured to emit it.
const (
	SyscallFork     = "fork"
	SyscallVfork    = "vfork"
	SyscallClone    = "clone"
	SyscallClone2   = "clone2"
	SyscallClone3   = "clone3"
	SyscallExecve   = "execve"
	SyscallExecveat = "execveat"
	SyscallChdir    = "chdir"
	SyscallFchdir   = "fchdir"
	SyscallOpen     = "open"
	SyscallOpenat   = "openat"
	SyscallOpenat2  = "openat2"
)

// ForkLike reports whether name spawns a new traced process whose return
// value is the child PID.
func ForkLike(name string) bool {
	switch name {
	case SyscallFork, SyscallVfork, SyscallClone, SyscallClone2, SyscallClone3:
		return true
	}
	return false
}

// ExecveArgs is the decoded argument set for a successful execve(2).
type ExecveArgs struct {
	Path string
	Argv []string
	Envp []string
}

// ChdirArgs is the decoded argument set for chdir(2).
type ChdirArgs struct {
	Path string
}

// FchdirArgs is the decoded argument set for fchdir(2); Path is supplied by
// the tracer's fd-decoration, not computed by this tracer.
type FchdirArgs struct {
	FD   int
	Path string
}

// OpenArgs is the decoded argument set for open(2).
type OpenArgs struct {
	Path  string
	Oflag string
	Mode  string
}

// OpenatArgs is the decoded argument set for openat(2). DirPath is empty
// unless the tracer resolved the dirfd to a path; DirFD is the literal
// string "AT_FDCWD" for the current-directory case.
type OpenatArgs struct {
	DirFD   string
	DirPath string
	Path    string
	Oflag   string
	Mode    string
}

// Openat2Args is the decoded argument set for openat2(2).
type Openat2Args struct {
	DirFD   string
	DirPath string
	Path    string
	How     map[string]string
	Size    string
}

// SysCallArgs is a tagged union over the syscalls this tracer decodes
// structurally. Exactly one field is non-nil for a decoded record; none are
// set for syscalls kept only as RawArgs.
type SysCallArgs struct {
	Execve  *ExecveArgs
	Chdir   *ChdirArgs
	Fchdir  *FchdirArgs
	Open    *OpenArgs
	Openat  *OpenatArgs
	Openat2 *Openat2Args
}

// SysCallRecord represents one successful, observed syscall.
type SysCallRecord struct {
	Timestamp   float64
	Name        string
	ReturnValue int64
	// ReturnFile is set when the tracer annotates the returned fd with the
	// path it resolves to.
	ReturnFile string
	Args       SysCallArgs
	// RawArgs holds the verbatim argument text for syscalls this tracer
	// does not structurally decode (clone/clone2/clone3, and any
	// syscall admitted by configuration but not listed above).
	RawArgs string
}

// ProcTrace is one process: its lifetime and its ordered syscall stream.
// Exactly one of ExitCode or KilledBy is set once the trace is complete.
type ProcTrace struct {
	PID      int
	TsStart  float64
	TsEnd    float64
	ExitCode *int
	KilledBy string
	Syscalls []SysCallRecord
}

// CompilerID is the canonical compiler identity used to key standards
// tables. Two CompilerIDs are equal iff all three components match.
type CompilerID struct {
	ID      string // one of "gcc", "clang", "lcc"
	Like    string // optional compatible driver family, e.g. "gcc" for lcc
	Version string // dotted, e.g. "11.5.0"
}

// Ids returns the identifiers this CompilerID should match against in a
// preprocessor-capability check: its own id, and its Like id if set.
func (c CompilerID) Ids() []string {
	if c.Like == "" {
		return []string{c.ID}
	}
	return []string{c.ID, c.Like}
}

func (c CompilerID) String() string {
	if c.Like == "" {
		return fmt.Sprintf("%s-%s", c.ID, c.Version)
	}
	return fmt.Sprintf("%s(like %s)-%s", c.ID, c.Like, c.Version)
}

// CompilerCommand is a single compiler invocation: where it ran, what it
// is, and the exact argv observed.
type CompilerCommand struct {
	Cwd        string
	Compiler   CompilerID
	Executable string
	Args       []string
}

// Clone returns a deep copy of cc, safe to mutate independently (used by
// the preprocessor-command rewrite, which must not disturb the original).
func (cc CompilerCommand) Clone() CompilerCommand {
	args := make([]string, len(cc.Args))
	copy(args, cc.Args)
	return CompilerCommand{
		Cwd:        cc.Cwd,
		Compiler:   cc.Compiler,
		Executable: cc.Executable,
		Args:       args,
	}
}

// SourceFileMetadata is the (language, standard) pair recorded for a
// single compiled source file.
type SourceFileMetadata struct {
	Lang     string // "c" or "c++"
	Standard string // normalized standard name, e.g. "gnu17"; may be empty
}

const (
	LangC   = "c"
	LangCXX = "c++"
)

// OpenFile is a single file opened by a compiler invocation or one of its
// descendants, attributed to that invocation.
type OpenFile struct {
	Path  string
	Oflag string
	Mode  string
}

// CompilerCall is one recognized compiler invocation plus every file
// opened anywhere in its subtree.
type CompilerCall struct {
	PID       int
	ExitCode  int
	Command   CompilerCommand
	OpenFiles []OpenFile
}

// ResultItem is a single row of the manifest: one preprocessed translation
// unit derived from one source argument of one CompilerCall.
type ResultItem struct {
	PreprocessedFile string
	SourceFile       string
	SourceMetadata   SourceFileMetadata
	Command          CompilerCommand
}
