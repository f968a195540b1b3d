package api_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/ohmlnz/denopack/internal/config"
	"github.com/ohmlnz/denopack/internal/test"
	"github.com/ohmlnz/denopack/pkg/api"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var projectFS = fstest.MapFS{
	"project/src/pages/Flags/FlagsPage.jsx":         {Data: []byte("export default 1")},
	"project/src/pages/Questions/QuestionsPage.jsx": {Data: []byte("export default 2")},
	"project/src/locales/en.json":                   {Data: []byte("{}")},
	"project/src/locales/fr.json":                   {Data: []byte("{}")},
}

func pluginForTest(t *testing.T, options api.DynamicImportVarsOptions) api.Plugin {
	t.Helper()
	if options.FS == nil {
		options.FS = projectFS
	}
	if options.WorkingDir == "" {
		options.WorkingDir = "/project"
	}
	plugin, err := api.DynamicImportVars(options)
	require.NoError(t, err)
	return plugin
}

func TestName(t *testing.T) {
	plugin := pluginForTest(t, api.DynamicImportVarsOptions{})
	test.AssertEqual(t, plugin.Name(), "denopack-plugin-dynamicImportVar")
}

func TestTransformRewrites(t *testing.T) {
	plugin := pluginForTest(t, api.DynamicImportVarsOptions{Include: []string{"src/**/*.js"}})
	result := plugin.Transform("export const page = name => import(`./pages/${name}/${name}Page.jsx`)\n", "/project/src/main.js")
	require.Empty(t, result.Errors)
	require.Empty(t, result.Warnings)
	require.NotNil(t, result.Code)
	require.NotNil(t, result.Map)

	code := *result.Code
	require.True(t, strings.HasPrefix(code, "function __variableDynamicImportRuntime0__(path) {\n"))
	require.Contains(t, code, `case "./pages/Flags/FlagsPage.jsx": return import("./pages/Flags/FlagsPage.jsx");`)
	require.Contains(t, code, `case "./pages/Questions/QuestionsPage.jsx": return import("./pages/Questions/QuestionsPage.jsx");`)
	require.True(t, strings.HasSuffix(code, "\nexport const page = name => __variableDynamicImportRuntime0__(`./pages/${name}/${name}Page.jsx`)\n"))

	sourceMap := *result.Map
	require.True(t, strings.HasPrefix(sourceMap, `{"version":3,"file":"/project/src/main.js","sources":["/project/src/main.js"],`))
	require.Contains(t, sourceMap, `"sourcesContent":["export const page = name => import(`)
}

func TestTransformUnchanged(t *testing.T) {
	plugin := pluginForTest(t, api.DynamicImportVarsOptions{})
	for _, code := range []string{"", "export default 1\n", "import('./a.js')\n"} {
		result := plugin.Transform(code, "/project/src/main.js")
		require.Nil(t, result.Code)
		require.Nil(t, result.Map)
		require.Empty(t, result.Errors)
	}
}

func TestTransformFilter(t *testing.T) {
	plugin := pluginForTest(t, api.DynamicImportVarsOptions{
		Include: []string{"src/**"},
		Exclude: []string{"src/legacy/**"},
	})
	code := "import(`./locales/${lang}.json`)"

	require.NotNil(t, plugin.Transform(code, "/project/src/main.js").Code)
	require.Nil(t, plugin.Transform(code, "/project/src/legacy/main.js").Code)
	require.Nil(t, plugin.Transform(code, "/project/vendor/main.js").Code)
	require.Nil(t, plugin.Transform(code, "\x00virtual:/project/src/main.js").Code)

	// The filter runs before parsing, so broken code is not an error here
	result := plugin.Transform("import(", "/project/vendor/main.js")
	require.Empty(t, result.Errors)
}

func TestTransformWarnOnError(t *testing.T) {
	plugin := pluginForTest(t, api.DynamicImportVarsOptions{WarnOnError: true})
	result := plugin.Transform("const a = 1\nimport(someVariable)\n", "/project/src/main.js")
	require.Nil(t, result.Code)
	require.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)

	warning := result.Warnings[0]
	test.AssertEqual(t, warning.ID, "unsupported-dynamic-import")
	test.AssertEqual(t, warning.PluginName, "denopack-plugin-dynamicImportVar")
	require.True(t, strings.HasPrefix(warning.Text, `invalid import "import(someVariable)".`))
	require.Equal(t, &api.Location{
		File:     "src/main.js",
		Line:     2,
		Column:   0,
		Length:   20,
		LineText: "import(someVariable)",
	}, warning.Location)
}

func TestTransformError(t *testing.T) {
	plugin := pluginForTest(t, api.DynamicImportVarsOptions{})
	result := plugin.Transform("import(`./locales/${lang}.json`)\nimport(`./pages/${page.name}.jsx`)\n", "/project/src/main.js")
	require.Nil(t, result.Code)
	require.Nil(t, result.Map)
	require.Len(t, result.Errors, 1)

	msg := result.Errors[0]
	test.AssertEqual(t, msg.ID, "")
	test.AssertEqual(t, msg.Location.Line, 2)
	require.Len(t, msg.Notes, 1)
	test.AssertEqual(t, msg.Notes[0].Location.Column, 18)
	test.AssertEqual(t, msg.Notes[0].Location.Length, 9)
}

func TestTransformSyntaxError(t *testing.T) {
	plugin := pluginForTest(t, api.DynamicImportVarsOptions{})
	result := plugin.Transform("const x = import(`./locales/${lang}.json`\n", "/project/src/main.js")
	require.Nil(t, result.Code)
	require.NotEmpty(t, result.Errors)
}

func TestInvalidPattern(t *testing.T) {
	_, err := api.DynamicImportVars(api.DynamicImportVarsOptions{FS: projectFS, Include: []string{"src/[.js"}})
	require.Error(t, err)
	require.True(t, errors.Is(err, config.ErrInvalidPattern))
}

func TestConcurrentTransforms(t *testing.T) {
	plugin := pluginForTest(t, api.DynamicImportVarsOptions{DirCacheSize: 8})
	expected := plugin.Transform("import(`./locales/${lang}.json`)\n", "/project/src/main.js")
	require.NotNil(t, expected.Code)

	var g errgroup.Group
	results := make([]api.TransformResult, 16)
	for i := range results {
		g.Go(func() error {
			results[i] = plugin.Transform("import(`./locales/${lang}.json`)\n", "/project/src/main.js")
			if results[i].Code == nil {
				return fmt.Errorf("module %d was not rewritten", i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, result := range results {
		test.AssertEqualWithDiff(t, *result.Code, *expected.Code)
		test.AssertEqualWithDiff(t, *result.Map, *expected.Map)
	}
}
