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

// Package compiler recognizes compiler invocations, infers their default
// language standard, and rewrites a recognized invocation into an
// equivalent preprocessing command.
package compiler

import "path/filepath"

// fileType classifies a source extension.
type fileType int

const (
	fileTypeSource fileType = iota
	fileTypeHeader
	fileTypeModule
)

// sourceExt describes what a file extension means and which languages
// accept it as input.
type sourceExt struct {
	kind  fileType
	langs []string
}

// extTable is the authoritative extension → (kind, languages) table. Only
// extensions present here are ever treated as source, header, or module
// arguments; anything else is an ordinary flag or value to this tracer.
var extTable = map[string]sourceExt{
	".c":    {fileTypeSource, []string{LangC}},
	".C":    {fileTypeSource, []string{LangCXX}},
	".c++":  {fileTypeSource, []string{LangCXX}},
	".cc":   {fileTypeSource, []string{LangCXX}},
	".cpp":  {fileTypeSource, []string{LangCXX}},
	".cxx":  {fileTypeSource, []string{LangCXX}},
	".cppm": {fileTypeModule, []string{LangCXX}},
	".ixx":  {fileTypeModule, []string{LangCXX}},
	".h":    {fileTypeHeader, []string{LangC, LangCXX}},
	".H":    {fileTypeHeader, []string{LangCXX}},
	".h++":  {fileTypeHeader, []string{LangCXX}},
	".hh":   {fileTypeHeader, []string{LangCXX}},
	".hpp":  {fileTypeHeader, []string{LangCXX}},
	".hxx":  {fileTypeHeader, []string{LangCXX}},
	".ipp":  {fileTypeHeader, []string{LangCXX}},
}

const (
	LangC   = "c"
	LangCXX = "c++"
)

// fileLang returns the language a bare file extension implies, defaulting
// to C for anything not in the table (matcher callers only reach here for
// arguments already known to be sources).
func fileLang(path string) string {
	ext := filepath.Ext(path)
	if e, ok := extTable[ext]; ok && len(e.langs) > 0 {
		return e.langs[0]
	}
	return LangC
}

// isSourceArg reports whether path's extension classifies as a compiled
// source (not a header, not a module, not unrecognized).
func isSourceArg(path string) bool {
	ext := filepath.Ext(path)
	e, ok := extTable[ext]
	return ok && e.kind == fileTypeSource
}

// SourcesFromArgs conservatively collects every argument whose extension
// is a known source extension. It does not attempt to determine which
// argument a compiler would actually treat as input.
func SourcesFromArgs(args []string) []string {
	var out []string
	for _, a := range args {
		if isSourceArg(a) {
			out = append(out, a)
		}
	}
	return out
}
