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

package compiler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nic-ct/rpmtrace/internal/compiler"
	"github.com/nic-ct/rpmtrace/internal/tracetypes"
)

func TestSourcesFromArgs(t *testing.T) {
	got := compiler.SourcesFromArgs([]string{"-O2", "-o", "a.out", "a.c", "b.h", "-lm"})
	require.Equal(t, []string{"a.c"}, got)
}

func TestSourcesFromArgsUppercaseCXX(t *testing.T) {
	got := compiler.SourcesFromArgs([]string{"foo.C"})
	require.Equal(t, []string{"foo.C"}, got)
}

func TestMatcherPathPrefilterRejectsNonCompiler(t *testing.T) {
	m := compiler.NewMatcher()
	_, ok := m.Match(context.Background(), "/bin/sh", []string{"sh", "-c", "true"})
	require.False(t, ok)
}

func TestMatcherClassifiesGcc(t *testing.T) {
	m := compiler.NewMatcherForTest(func(ctx context.Context, executable, argv0 string) (string, error) {
		return "gcc (GCC) 11.5.0 20240719 (Red Hat 11.5.0-2)\nCopyright ...\n", nil
	})
	id, ok := m.Match(context.Background(), "/usr/bin/gcc", []string{"gcc", "-c", "a.c"})
	require.True(t, ok)
	require.Equal(t, "gcc", id.ID)
	require.Equal(t, "11.5.0", id.Version)
}

func TestMatcherClassifiesClang(t *testing.T) {
	m := compiler.NewMatcherForTest(func(ctx context.Context, executable, argv0 string) (string, error) {
		return "clang version 16.0.6\nTarget: x86_64-redhat-linux-gnu\n", nil
	})
	id, ok := m.Match(context.Background(), "/usr/bin/clang", []string{"clang", "-c", "a.c"})
	require.True(t, ok)
	require.Equal(t, "clang", id.ID)
	require.Equal(t, "16.0.6", id.Version)
}

func TestMatcherClassifiesLcc(t *testing.T) {
	m := compiler.NewMatcherForTest(func(ctx context.Context, executable, argv0 string) (string, error) {
		return "lcc:e2k-v5-linux:1.27.17:Mar 12 2024 18:00:00\n", nil
	})
	id, ok := m.Match(context.Background(), "/opt/mcst/lcc/bin/lcc", []string{"lcc", "-c", "a.c"})
	require.True(t, ok)
	require.Equal(t, "lcc", id.ID)
	require.Equal(t, "gcc", id.Like)
	require.Equal(t, "1.27.17", id.Version)
}

func TestMatcherMemoizesNegative(t *testing.T) {
	n := 0
	m := compiler.NewMatcherForTest(func(ctx context.Context, executable, argv0 string) (string, error) {
		n++
		return "not a compiler\n", nil
	})
	_, ok1 := m.Match(context.Background(), "/usr/bin/gcc", []string{"gcc"})
	_, ok2 := m.Match(context.Background(), "/usr/bin/gcc", []string{"gcc"})
	require.False(t, ok1)
	require.False(t, ok2)
	require.Equal(t, 1, n)
}

func TestSourceMetadataSimpleC(t *testing.T) {
	cc := tracetypes.CompilerCommand{
		Compiler: tracetypes.CompilerID{ID: "gcc", Version: "11.5.0"},
		Args:     []string{"gcc", "-O2", "-o", "a.out", "a.c"},
	}
	meta := compiler.SourceMetadata(cc, "a.c")
	require.Equal(t, "c", meta.Lang)
	require.Equal(t, "gnu17", meta.Standard)
}

func TestSourceMetadataFrontendOverridesExtension(t *testing.T) {
	cc := tracetypes.CompilerCommand{
		Compiler: tracetypes.CompilerID{ID: "gcc", Version: "11.5.0"},
		Args:     []string{"g++", "foo.c"},
	}
	meta := compiler.SourceMetadata(cc, "foo.c")
	require.Equal(t, "c++", meta.Lang)
}

func TestSourceMetadataMismatchedStdDropped(t *testing.T) {
	cc := tracetypes.CompilerCommand{
		Compiler: tracetypes.CompilerID{ID: "gcc", Version: "11.5.0"},
		Args:     []string{"g++", "-std=c99", "x.cpp"},
	}
	meta := compiler.SourceMetadata(cc, "x.cpp")
	require.Equal(t, "c++", meta.Lang)
	require.Equal(t, "gnu++17", meta.Standard)
}

func TestSourceMetadataAnsiOnC(t *testing.T) {
	cc := tracetypes.CompilerCommand{
		Compiler: tracetypes.CompilerID{ID: "gcc", Version: "11.5.0"},
		Args:     []string{"gcc", "-ansi", "x.c"},
	}
	meta := compiler.SourceMetadata(cc, "x.c")
	require.Equal(t, "c90", meta.Standard)
}

func TestSourceMetadataClangAnsiOnC(t *testing.T) {
	cc := tracetypes.CompilerCommand{
		Compiler: tracetypes.CompilerID{ID: "clang", Version: "16.0.6"},
		Args:     []string{"clang", "-ansi", "x.c"},
	}
	meta := compiler.SourceMetadata(cc, "x.c")
	require.Equal(t, "c89", meta.Standard)
}

func TestMakePreprocessorCommandReplacesExistingO(t *testing.T) {
	cc := tracetypes.CompilerCommand{
		Cwd:        "/b",
		Compiler:   tracetypes.CompilerID{ID: "gcc", Version: "11.5.0"},
		Executable: "/usr/bin/gcc",
		Args:       []string{"gcc", "-O2", "-o", "a.out", "a.c"},
	}
	out, err := compiler.MakePreprocessorCommand(cc, []string{"a.c"}, "a.c", "/stage/preprocessed/ab/cd/hash.i")
	require.NoError(t, err)
	require.Equal(t, []string{"gcc", "-O2", "-E", "-o", "/stage/preprocessed/ab/cd/hash.i", "a.c"}, out.Args)
	require.Equal(t, []string{"gcc", "-O2", "-o", "a.out", "a.c"}, cc.Args, "original untouched")
}

func TestMakePreprocessorCommandInsertsAfterArgv0(t *testing.T) {
	cc := tracetypes.CompilerCommand{
		Compiler: tracetypes.CompilerID{ID: "clang"},
		Args:     []string{"clang", "-c", "a.c"},
	}
	out, err := compiler.MakePreprocessorCommand(cc, []string{"a.c"}, "a.c", "/stage/preprocessed/ab/cd/hash.i")
	require.NoError(t, err)
	require.Equal(t, []string{"clang", "-E", "-o", "/stage/preprocessed/ab/cd/hash.i", "-c", "a.c"}, out.Args)
}

func TestMakePreprocessorCommandFailsIfEPresent(t *testing.T) {
	cc := tracetypes.CompilerCommand{
		Compiler: tracetypes.CompilerID{ID: "gcc"},
		Args:     []string{"gcc", "-E", "a.c"},
	}
	_, err := compiler.MakePreprocessorCommand(cc, []string{"a.c"}, "a.c", "/x")
	require.Error(t, err)
}

func TestMakePreprocessorCommandUnsupportedCompiler(t *testing.T) {
	cc := tracetypes.CompilerCommand{
		Compiler: tracetypes.CompilerID{ID: "msvc"},
		Args:     []string{"cl", "a.c"},
	}
	_, err := compiler.MakePreprocessorCommand(cc, []string{"a.c"}, "a.c", "/x")
	require.Error(t, err)
}

func TestVersionComparePadding(t *testing.T) {
	require.Equal(t, "gnu11", compiler.GetDefaultStd("gcc", "", "5.0", "c"))
	require.Equal(t, "gnu90", compiler.GetDefaultStd("gcc", "", "4.9.9", "c"))
}

func TestNormalizeStandardAliases(t *testing.T) {
	require.Equal(t, "c++20", compiler.NormalizeStandard("c++2a"))
	require.Equal(t, "c99", compiler.NormalizeStandard("c9x"))
	require.Equal(t, "gnu++11", compiler.NormalizeStandard("gnu++0x"))
	require.Equal(t, "", compiler.NormalizeStandard("bogus"))
	require.Equal(t, "c++20", compiler.NormalizeStandard(compiler.NormalizeStandard("c++2a")))
}
