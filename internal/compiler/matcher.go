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
	"bufio"
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/nic-ct/rpmtrace/internal/tracetypes"
)

// pathPrefilterRE matches the basename of a recognized compiler driver,
// allowing a host-triple prefix (e.g. x86_64-redhat-linux-) and a version
// suffix on the gcc/g++/clang/clang++ forms.
var pathPrefilterRE = regexp.MustCompile(
	`^(?:[\w.]+-)*(?:lcc|l\+\+|clang(?:\+\+)?(?:-\d+(?:\.\d+)*)?|cc|c\+\+|gcc(?:-\d+(?:\.\d+)*)?|g\+\+(?:-\d+(?:\.\d+)*)?)$`,
)

// versionLineRE classifies the first line of `--version` output.
var versionLineRE = []struct {
	re   *regexp.Regexp
	id   string
	like string
}{
	{regexp.MustCompile(`^l(?:cc|\+\+):\S*:(\d+\.\d+\.\d+)`), "lcc", "gcc"},
	{regexp.MustCompile(`^clang version (\d+\.\d+\.\d+)`), "clang", ""},
	{regexp.MustCompile(`^(?:gcc|g\+\+)(?:-\S+)? \([^)]*\) (\d+\.\d+\.\d+)`), "gcc", ""},
}

// cacheKey identifies a unique (executable, argv[0]) pair: the matcher
// never needs to re-probe the same pair twice in one run.
type cacheKey struct {
	executable string
	argv0      string
}

// Matcher recognizes compiler invocations and memoizes both positive and
// negative probe results, so that a configure script invoking the same
// non-compiler a thousand times only pays the exec cost once.
type Matcher struct {
	mu      sync.Mutex
	cache   map[cacheKey]tracetypes.CompilerID
	negCache map[cacheKey]struct{}

	// runVersionProbe is overridden in tests to avoid actually exec'ing a
	// compiler.
	runVersionProbe func(ctx context.Context, executable, argv0 string) (string, error)
}

// NewMatcher returns a Matcher ready to use.
func NewMatcher() *Matcher {
	return &Matcher{
		cache:           make(map[cacheKey]tracetypes.CompilerID),
		negCache:        make(map[cacheKey]struct{}),
		runVersionProbe: execVersionProbe,
	}
}

// NewMatcherForTest returns a Matcher whose --version probe is replaced
// by probe, so tests need not have a real compiler on PATH.
func NewMatcherForTest(probe func(ctx context.Context, executable, argv0 string) (string, error)) *Matcher {
	m := NewMatcher()
	m.runVersionProbe = probe
	return m
}

// Match decides whether executable/argv is a recognized compiler
// invocation. ok is false if it is not (this is not an error: most
// execve calls in a build are not compilers).
func (m *Matcher) Match(ctx context.Context, executable string, argv []string) (id tracetypes.CompilerID, ok bool) {
	if len(argv) == 0 {
		return tracetypes.CompilerID{}, false
	}
	key := cacheKey{executable: executable, argv0: argv[0]}

	m.mu.Lock()
	if cached, hit := m.cache[key]; hit {
		m.mu.Unlock()
		return cached, true
	}
	if _, hit := m.negCache[key]; hit {
		m.mu.Unlock()
		return tracetypes.CompilerID{}, false
	}
	m.mu.Unlock()

	base := filepath.Base(argv[0])
	if !pathPrefilterRE.MatchString(base) {
		m.storeNegative(key)
		return tracetypes.CompilerID{}, false
	}

	out, err := m.runVersionProbe(ctx, executable, argv[0])
	if err != nil {
		m.storeNegative(key)
		return tracetypes.CompilerID{}, false
	}

	firstLine := firstLineOf(out)
	for _, candidate := range versionLineRE {
		sub := candidate.re.FindStringSubmatch(firstLine)
		if sub == nil {
			continue
		}
		id := tracetypes.CompilerID{ID: candidate.id, Like: candidate.like, Version: sub[1]}
		m.storePositive(key, id)
		return id, true
	}

	m.storeNegative(key)
	return tracetypes.CompilerID{}, false
}

func (m *Matcher) storePositive(key cacheKey, id tracetypes.CompilerID) {
	m.mu.Lock()
	m.cache[key] = id
	m.mu.Unlock()
}

func (m *Matcher) storeNegative(key cacheKey) {
	m.mu.Lock()
	m.negCache[key] = struct{}{}
	m.mu.Unlock()
}

func firstLineOf(s string) string {
	scanner := bufio.NewScanner(strings.NewReader(s))
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

// execVersionProbe runs executable, with argv[0] set to argv0, as
// "<argv0> --version" in the C locale, and returns stdout. A non-zero
// exit or exec failure is returned as an error (a hard no to the
// caller), matching the "any I/O error is a hard no" rule.
func execVersionProbe(ctx context.Context, executable, argv0 string) (string, error) {
	cmd := exec.CommandContext(ctx, executable, "--version")
	cmd.Args = []string{argv0, "--version"}
	cmd.Env = []string{"LC_ALL=C", "LANG=C"}
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
