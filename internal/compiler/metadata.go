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

package compiler

import (
	"strings"

	"github.com/nic-ct/rpmtrace/internal/tracetypes"
)

// stdFromArgs scans argv for -std=<v>, --std=<v>, or --std <v> and
// reports the raw value found, if any.
func stdFromArgs(argv []string) (string, bool) {
	for i, a := range argv {
		switch {
		case strings.HasPrefix(a, "-std="):
			return a[len("-std="):], true
		case strings.HasPrefix(a, "--std="):
			return a[len("--std="):], true
		case a == "--std":
			if i+1 < len(argv) {
				return argv[i+1], true
			}
		}
	}
	return "", false
}

func hasFlag(argv []string, flag string) bool {
	for _, a := range argv {
		if a == flag {
			return true
		}
	}
	return false
}

// SourceMetadata computes the (language, standard) pair for one source
// argument of cc, per the algorithm in §4.3: frontend language (from
// argv[0]) wins over file-extension language; an explicit -std is kept
// only if it agrees with the effective language; otherwise -ansi, then
// the vendor default-standard table, supply it.
func SourceMetadata(cc tracetypes.CompilerCommand, source string) tracetypes.SourceFileMetadata {
	frontendLang := LangC
	if len(cc.Args) > 0 && strings.Contains(cc.Args[0], "++") {
		frontendLang = LangCXX
	}

	effectiveLang := fileLang(source)
	if frontendLang == LangCXX {
		effectiveLang = LangCXX
	}

	var std string
	if raw, ok := stdFromArgs(cc.Args); ok {
		stdLang := LangC
		if strings.Contains(raw, "++") {
			stdLang = LangCXX
		}
		if stdLang == effectiveLang {
			std = raw
		}
	}

	if std == "" && hasFlag(cc.Args, "-ansi") {
		std = GetAnsiStd(cc.Compiler.ID, cc.Compiler.Like, effectiveLang)
	}

	if std == "" {
		std = GetDefaultStd(cc.Compiler.ID, cc.Compiler.Like, cc.Compiler.Version, effectiveLang)
	}

	return tracetypes.SourceFileMetadata{
		Lang:     effectiveLang,
		Standard: NormalizeStandard(std),
	}
}
