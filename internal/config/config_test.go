package config

import (
	"testing"

	"github.com/ohmlnz/denopack/internal/test"
	"github.com/stretchr/testify/require"
)

func TestFilterDefaults(t *testing.T) {
	filter, err := NewFilter(Options{})
	require.NoError(t, err)
	require.True(t, filter.Match("/src/app.js"))
	require.True(t, filter.Match("relative/app.ts"))
	require.False(t, filter.Match("\x00virtual-module"))
}

func TestFilterPatterns(t *testing.T) {
	filter, err := NewFilter(Options{
		Include:    []string{"src/**/*.js", "**/*.ts"},
		Exclude:    []string{"**/node_modules/**", "./src/legacy/*"},
		WorkingDir: "/proj",
	})
	require.NoError(t, err)

	require.True(t, filter.Match("/proj/src/pages/index.js"))
	require.True(t, filter.Match("/proj/src/index.js"))
	require.True(t, filter.Match("/elsewhere/types.ts"))
	require.False(t, filter.Match("/proj/lib/index.js"))
	require.False(t, filter.Match("/other/src/index.js"))
	require.False(t, filter.Match("/proj/src/node_modules/dep/index.js"))
	require.False(t, filter.Match("/proj/src/legacy/old.js"))
}

func TestFilterEscapesWorkingDir(t *testing.T) {
	filter, err := NewFilter(Options{Include: []string{"*.js"}, WorkingDir: "/[app]"})
	require.NoError(t, err)
	require.True(t, filter.Match("/[app]/index.js"))
	require.False(t, filter.Match("/a/index.js"))
}

func TestFilterInvalidPattern(t *testing.T) {
	_, err := NewFilter(Options{Exclude: []string{"/src/[a"}})
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestLoaderFromPath(t *testing.T) {
	check := func(path string, expected Loader) {
		t.Helper()
		test.AssertEqual(t, LoaderFromPath(path), expected)
	}

	check("/src/a.js", LoaderJS)
	check("/src/a.mjs", LoaderJS)
	check("/src/a.cjs", LoaderJS)
	check("/src/a.JSX", LoaderJS)
	check("/src/a.ts", LoaderTS)
	check("/src/a.mts", LoaderTS)
	check("/src/a.cts", LoaderTS)
	check("/src/a.tsx", LoaderTSX)
	check("/src/a.css", LoaderNone)
	check("/src/Makefile", LoaderNone)
	test.AssertEqual(t, LoaderTSX.String(), "tsx")
}

func TestParseSourceMap(t *testing.T) {
	mode, err := ParseSourceMap("linked")
	require.NoError(t, err)
	test.AssertEqual(t, mode, SourceMapLinkedWithComment)

	_, err = ParseSourceMap("both")
	require.Error(t, err)
}
