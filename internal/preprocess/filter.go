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

// Package preprocess turns a filtered list of CompilerCalls into a
// staged input tree, preprocessed translation units, and a JSON
// manifest for a downstream static analyzer.
package preprocess

import (
	"regexp"
	"strings"
)

var ignoredSuffixRE = regexp.MustCompile(`\.so(\.\d+)+$`)

var ignoredExactSuffixes = []string{".a", ".o", ".s", ".so"}

var ignoredFiles = map[string]bool{
	"/etc/localtime":    true,
	"/etc/ld.so.cache": true,
}

var ignoredDirs = []string{
	"/dev",
	"/etc",
	"/proc",
	"/run",
	"/sys",
	"/usr/lib/rpm",
	"/usr/lib64/gconv",
	"/usr/lib/locale",
	"/usr/share/locale",
	"/usr/share/zoneinfo",
}

// AllowOpenFile reports whether path should be staged: it is not a
// shared-library/static-archive/object/assembly artifact, not one of the
// always-ignored exact files, and not inside one of the always-ignored
// directories (dynamic loader config, pseudo-filesystems, locale/zoneinfo
// data) — none of which a static analyzer needs to see.
func AllowOpenFile(path string) bool {
	if ignoredSuffixRE.MatchString(path) {
		return false
	}
	for _, suf := range ignoredExactSuffixes {
		if strings.HasSuffix(path, suf) {
			return false
		}
	}
	if ignoredFiles[path] {
		return false
	}
	for _, dir := range ignoredDirs {
		if path == dir || strings.HasPrefix(path, dir+"/") {
			return false
		}
	}
	return true
}

// cmakeProbeFiles are the build-system compiler-identification sources
// whose compiler invocation must never be mistaken for a real
// translation unit.
var cmakeProbeFiles = map[string]bool{
	"CMakeCCompilerId.c":   true,
	"CMakeCXXCompilerId.cpp": true,
}

// IsCMakeProbeSource reports whether basename is one of CMake's compiler
// identification probe sources.
func IsCMakeProbeSource(basename string) bool {
	return cmakeProbeFiles[basename]
}
