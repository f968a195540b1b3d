package main

import (
	"context"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/ohmlnz/denopack/internal/config"
	"github.com/ohmlnz/denopack/internal/exitcode"
	"github.com/ohmlnz/denopack/internal/test"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, contents := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	}
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	contents, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(contents)
}

func configForTest(sourceMap string) *Config {
	return &Config{
		OutDir:    "out",
		SourceMap: sourceMap,
		Jobs:      2,
		LogLevel:  "silent",
		Color:     "never",
	}
}

func projectForTest(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/main.js":                   "export const load = name => import(`./pages/${name}/${name}Page.jsx`)\n",
		"src/util.js":                   "export const one = 1\n",
		"src/pages/Home/HomePage.jsx":   "export default 'home'\n",
		"src/pages/About/AboutPage.jsx": "export default 'about'\n",
	})
	return root
}

func TestTransformFiles(t *testing.T) {
	root := projectForTest(t)
	err := transformFiles(context.Background(), configForTest("linked"), root,
		[]string{"src/main.js", filepath.Join(root, "src", "util.js")}, log.New(io.Discard))
	require.NoError(t, err)

	code := readFile(t, filepath.Join(root, "out", "src", "main.js"))
	require.True(t, strings.HasPrefix(code, "function __variableDynamicImportRuntime0__(path) {\n"))
	require.Contains(t, code, `case "./pages/About/AboutPage.jsx": return import("./pages/About/AboutPage.jsx");`)
	require.Contains(t, code, `case "./pages/Home/HomePage.jsx": return import("./pages/Home/HomePage.jsx");`)
	require.True(t, strings.HasSuffix(code, "\n//# sourceMappingURL=main.js.map\n"))

	sourceMap := readFile(t, filepath.Join(root, "out", "src", "main.js.map"))
	require.True(t, strings.HasPrefix(sourceMap, `{"version":3,`))

	// Modules without variable imports are copied as-is
	test.AssertEqual(t, readFile(t, filepath.Join(root, "out", "src", "util.js")), "export const one = 1\n")
	_, err = os.Stat(filepath.Join(root, "out", "src", "util.js.map"))
	require.True(t, os.IsNotExist(err))
}

func TestTransformFilesInlineSourceMap(t *testing.T) {
	root := projectForTest(t)
	require.NoError(t, transformFiles(context.Background(), configForTest("inline"), root, []string{"src/main.js"}, log.New(io.Discard)))

	code := readFile(t, filepath.Join(root, "out", "src", "main.js"))
	const prefix = "//# sourceMappingURL=data:application/json;base64,"
	i := strings.LastIndex(code, prefix)
	require.True(t, i > 0)
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(code[i+len(prefix):], "\n"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(decoded), `{"version":3,`))

	_, err = os.Stat(filepath.Join(root, "out", "src", "main.js.map"))
	require.True(t, os.IsNotExist(err))
}

func TestTransformFilesFailure(t *testing.T) {
	root := projectForTest(t)
	writeFiles(t, root, map[string]string{"src/bad.js": "import(someVariable)\n"})

	err := transformFiles(context.Background(), configForTest("none"), root, []string{"src/bad.js", "src/util.js"}, log.New(io.Discard))
	require.EqualError(t, err, "1 of 2 modules failed")
	test.AssertEqual(t, exitcode.Get(err), exitcode.ModulesFailed)

	// Other modules are still written, but never the failed one
	test.AssertEqual(t, readFile(t, filepath.Join(root, "out", "src", "util.js")), "export const one = 1\n")
	_, err = os.Stat(filepath.Join(root, "out", "src", "bad.js"))
	require.True(t, os.IsNotExist(err))

	cfg := configForTest("none")
	cfg.WarnOnError = true
	require.NoError(t, transformFiles(context.Background(), cfg, root, []string{"src/bad.js"}, log.New(io.Discard)))
	test.AssertEqual(t, readFile(t, filepath.Join(root, "out", "src", "bad.js")), "import(someVariable)\n")
}

func TestTransformFilesMissingFile(t *testing.T) {
	root := t.TempDir()
	err := transformFiles(context.Background(), configForTest("none"), root, []string{"missing.js"}, log.New(io.Discard))
	require.ErrorContains(t, err, "missing.js")
}

func TestOutputPath(t *testing.T) {
	root := filepath.FromSlash("/project")
	test.AssertEqual(t, outputPath("out", root, filepath.FromSlash("/project/src/a.js")), filepath.FromSlash("/project/out/src/a.js"))
	test.AssertEqual(t, outputPath(filepath.FromSlash("/dist"), root, filepath.FromSlash("/project/a.js")), filepath.FromSlash("/dist/a.js"))
	test.AssertEqual(t, outputPath("out", root, filepath.FromSlash("/elsewhere/b.js")), filepath.FromSlash("/project/out/b.js"))
}

func TestAttachSourceMap(t *testing.T) {
	code, mapFile := attachSourceMap(config.SourceMapNone, "out/a.js", "a()", "{}")
	test.AssertEqual(t, code, "a()")
	test.AssertEqual(t, mapFile, "")

	code, mapFile = attachSourceMap(config.SourceMapLinkedWithComment, "out/a.js", "a()", "{}")
	test.AssertEqual(t, code, "a()\n//# sourceMappingURL=a.js.map\n")
	test.AssertEqual(t, mapFile, "{}")

	code, mapFile = attachSourceMap(config.SourceMapExternalWithoutComment, "out/a.js", "a()\n", "{}")
	test.AssertEqual(t, code, "a()\n")
	test.AssertEqual(t, mapFile, "{}")

	code, _ = attachSourceMap(config.SourceMapInline, "out/a.js", "a()\n", "{}")
	test.AssertEqual(t, code, "a()\n//# sourceMappingURL=data:application/json;base64,e30=\n")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "denopack.yaml")
	writeFiles(t, dir, map[string]string{
		"denopack.yaml": "outdir: dist\nwarn_on_error: true\ninclude:\n  - src/**\nsourcemap: external\n",
	})

	cmd := newTransformCommand()
	require.NoError(t, cmd.Flags().Set("jobs", "3"))
	t.Setenv("DENOPACK_LOG_LEVEL", "error")

	cfg, err := loadConfig(cmd, configFile)
	require.NoError(t, err)
	test.AssertEqual(t, cfg.OutDir, "dist")
	test.AssertEqual(t, cfg.WarnOnError, true)
	test.AssertEqual(t, cfg.SourceMap, "external")
	test.AssertEqual(t, cfg.Jobs, 3)
	test.AssertEqual(t, cfg.LogLevel, "error")
	test.AssertEqual(t, cfg.Color, "auto")
	require.Equal(t, []string{"src/**"}, cfg.Include)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newTransformCommand()
	require.NoError(t, cmd.Flags().Set("sourcemap", "sometimes"))
	_, err := loadConfig(cmd, "")
	require.ErrorContains(t, err, "invalid source map mode \"sometimes\"")

	cmd = newTransformCommand()
	require.NoError(t, cmd.Flags().Set("jobs", "0"))
	_, err = loadConfig(cmd, "")
	require.ErrorContains(t, err, "jobs must be at least 1")
	test.AssertEqual(t, exitcode.Get(err), exitcode.InvalidConfig)
}
