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
	"fmt"

	"github.com/nic-ct/rpmtrace/internal/tracetypes"
)

// supportedPreprocessors is the set of compiler ids (or "like" families)
// this tracer knows how to convert to a preprocessing command.
var supportedPreprocessors = map[string]bool{
	"gcc":   true,
	"clang": true,
	"lcc":   true,
}

// SupportsPreprocessing reports whether id can be converted to an "-E"
// command by this package.
func SupportsPreprocessing(id tracetypes.CompilerID) bool {
	for _, candidate := range id.Ids() {
		if supportedPreprocessors[candidate] {
			return true
		}
	}
	return false
}

// MakePreprocessorCommand rewrites cc into an equivalent "emit
// preprocessed output" command for the single given source argument:
// every discovered source argument is stripped, an "-E -o outputPath"
// pair is placed where any existing "-o <path>" pair was (or right after
// argv[0] if there wasn't one), and source is appended as the sole
// input. It fails if -E is already present (the call cannot be
// converted) or the compiler id is not a supported preprocessor.
func MakePreprocessorCommand(cc tracetypes.CompilerCommand, allSources []string, source, outputPath string) (tracetypes.CompilerCommand, error) {
	if !SupportsPreprocessing(cc.Compiler) {
		return tracetypes.CompilerCommand{}, fmt.Errorf("compiler %s does not support preprocessing", cc.Compiler)
	}
	if hasFlag(cc.Args, "-E") {
		return tracetypes.CompilerCommand{}, fmt.Errorf("command already contains -E")
	}

	out := cc.Clone()

	sourceSet := make(map[string]bool, len(allSources))
	for _, s := range allSources {
		sourceSet[s] = true
	}

	stripped := make([]string, 0, len(out.Args))
	for _, a := range out.Args {
		if sourceSet[a] {
			continue
		}
		stripped = append(stripped, a)
	}

	rewritten := make([]string, 0, len(stripped)+4)
	inserted := false
	for i := 0; i < len(stripped); i++ {
		a := stripped[i]
		if a == "-o" && i+1 < len(stripped) {
			rewritten = append(rewritten, "-E", "-o", outputPath)
			i++ // skip the old -o argument's value
			inserted = true
			continue
		}
		rewritten = append(rewritten, a)
	}
	if !inserted {
		// insert "-E -o outputPath" immediately after argv[0]
		withFlag := make([]string, 0, len(rewritten)+3)
		withFlag = append(withFlag, rewritten[0])
		withFlag = append(withFlag, "-E", "-o", outputPath)
		withFlag = append(withFlag, rewritten[1:]...)
		rewritten = withFlag
	}

	rewritten = append(rewritten, source)
	out.Args = rewritten
	return out, nil
}
