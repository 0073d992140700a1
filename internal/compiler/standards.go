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
	"strconv"
	"strings"
)

// version is a dotted version split into integer components, compared
// tuple-lexicographically with the shorter operand zero-padded.
type version []int

func parseVersion(s string) version {
	parts := strings.Split(s, ".")
	v := make(version, len(parts))
	for i, p := range parts {
		n, _ := strconv.Atoi(p)
		v[i] = n
	}
	return v
}

// compareVersions returns -1, 0, or 1 the way strings.Compare does,
// zero-padding the shorter of a, b to the longer's length before
// comparing component-wise.
func compareVersions(a, b string) int {
	va, vb := parseVersion(a), parseVersion(b)
	n := len(va)
	if len(vb) > n {
		n = len(vb)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(va) {
			x = va[i]
		}
		if i < len(vb) {
			y = vb[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// stdRow is one row of a default-standard table: the lowest version this
// row applies to, and the standard for each language.
type stdRow struct {
	minVersion string
	c          string
	cxx        string
}

// defaultStdTable picks the last row whose minVersion is <= version.
// Rows are stored in ascending minVersion order.
type defaultStdTable []stdRow

func (t defaultStdTable) lookup(ver, lang string) string {
	var best *stdRow
	for i := range t {
		row := &t[i]
		if compareVersions(row.minVersion, ver) <= 0 {
			best = row
		} else {
			break
		}
	}
	if best == nil {
		return ""
	}
	if lang == LangCXX {
		return best.cxx
	}
	return best.c
}

// defaultStdTables holds one defaultStdTable per compiler id, grounded on
// each vendor's documented default -std history.
var defaultStdTables = map[string]defaultStdTable{
	"gcc": {
		{"0.0.0", "gnu90", "gnu++98"},
		{"5.0.0", "gnu11", "gnu++98"},
		{"6.0.0", "gnu11", "gnu++14"},
		{"8.0.0", "gnu11", "gnu++17"},
		{"11.0.0", "gnu17", "gnu++17"},
		{"15.0.0", "gnu23", "gnu++17"},
	},
	"clang": {
		{"0.0.0", "gnu99", "gnu++98"},
		{"6.0.0", "gnu11", "gnu++14"},
		{"16.0.0", "gnu17", "gnu++17"},
		{"18.0.0", "gnu17", "gnu++20"},
	},
	"lcc": {
		{"0.0.0", "gnu11", "gnu++17"},
		{"1.27.0", "gnu17", "gnu++20"},
	},
}

// ansiStdTable maps compiler id to the per-language standard implied by a
// bare -ansi flag.
var ansiStdTable = map[string]struct{ c, cxx string }{
	"gcc":   {"c90", "c++98"},
	"clang": {"c89", "c++98"},
	"lcc":   {"c90", "c++98"},
}

// GetDefaultStd returns the default standard for id.ID at id.Version for
// lang, consulting the Like family's table if id.ID has none of its own.
func GetDefaultStd(id, likeID, ver, lang string) string {
	if t, ok := defaultStdTables[id]; ok {
		if s := t.lookup(ver, lang); s != "" {
			return s
		}
	}
	if likeID != "" {
		if t, ok := defaultStdTables[likeID]; ok {
			return t.lookup(ver, lang)
		}
	}
	return ""
}

// GetAnsiStd returns the -ansi standard for id.ID (or its Like family) and
// lang.
func GetAnsiStd(id, likeID, lang string) string {
	row, ok := ansiStdTable[id]
	if !ok && likeID != "" {
		row, ok = ansiStdTable[likeID]
	}
	if !ok {
		return ""
	}
	if lang == LangCXX {
		return row.cxx
	}
	return row.c
}

// standardAliases maps every recognized spelling (GNU variants, ISO9899
// forms, pre-standardization codenames) to its canonical name. A name not
// present here is unrecognized and NormalizeStandard maps it to ""
// (downstream omits the standard).
var standardAliases = map[string]string{
	"c89":       "c89",
	"c90":       "c90",
	"iso9899:1990": "c90",
	"iso9899:199409": "c94",
	"c9x":       "c99",
	"c99":       "c99",
	"iso9899:1999": "c99",
	"iso9899:199x": "c99",
	"c1x":       "c11",
	"c11":       "c11",
	"iso9899:2011": "c11",
	"c17":       "c17",
	"c18":       "c17",
	"iso9899:2017": "c17",
	"iso9899:2018": "c17",
	"c2x":       "c23",
	"c23":       "c23",
	"gnu89":     "gnu89",
	"gnu90":     "gnu90",
	"gnu9x":     "gnu99",
	"gnu99":     "gnu99",
	"gnu1x":     "gnu11",
	"gnu11":     "gnu11",
	"gnu17":     "gnu17",
	"gnu18":     "gnu17",
	"gnu2x":     "gnu23",
	"gnu23":     "gnu23",
	"c++98":     "c++98",
	"c++03":     "c++98",
	"gnu++98":   "gnu++98",
	"gnu++03":   "gnu++98",
	"c++0x":     "c++11",
	"c++11":     "c++11",
	"gnu++0x":   "gnu++11",
	"gnu++11":   "gnu++11",
	"c++1y":     "c++14",
	"c++14":     "c++14",
	"gnu++1y":   "gnu++14",
	"gnu++14":   "gnu++14",
	"c++1z":     "c++17",
	"c++17":     "c++17",
	"gnu++1z":   "gnu++17",
	"gnu++17":   "gnu++17",
	"c++2a":     "c++20",
	"c++20":     "c++20",
	"gnu++2a":   "gnu++20",
	"gnu++20":   "gnu++20",
	"c++2b":     "c++23",
	"c++23":     "c++23",
	"gnu++2b":   "gnu++23",
	"gnu++23":   "gnu++23",
}

// NormalizeStandard maps a raw -std/-ansi/default-table value to its
// canonical name, or "" if unrecognized.
func NormalizeStandard(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if canon, ok := standardAliases[raw]; ok {
		return canon
	}
	return ""
}
