package helpers_test

import (
	"testing"

	"github.com/ohmlnz/denopack/internal/helpers"
	"github.com/ohmlnz/denopack/internal/test"
)

func TestQuoteForJSON(t *testing.T) {
	check := func(text string, expected string) {
		t.Helper()
		test.AssertEqual(t, helpers.QuoteForJSON(text), expected)
	}

	check("", `""`)
	check("./pages/a.jsx", `"./pages/a.jsx"`)
	check(`a"b`, `"a\"b"`)
	check("a'b", `"a'b"`)
	check("a\\b", `"a\\b"`)
	check("a\nb\tc", `"a\nb\tc"`)
	check("\x01", `"\u0001"`)
	check("\u2028", `"\u2028"`)
	check("caf\u00e9", "\"caf\u00e9\"")
	check("\U0001F600", "\"\U0001F600\"")
	check("\xff", `"\uFFFD"`)

	test.AssertEqual(t, helpers.QuoteSingle("it's"), `'it\'s'`)
}

func TestEscapeGlob(t *testing.T) {
	test.AssertEqual(t, helpers.EscapeGlob("./pages/"), "./pages/")
	test.AssertEqual(t, helpers.EscapeGlob("./[id]/{a}*?.js"), `./\[id\]/\{a\}\*\?.js`)
	test.AssertEqual(t, helpers.EscapeGlob(`a\b`), `a\\b`)
	test.AssertEqual(t, helpers.UnescapeGlob(helpers.EscapeGlob("./[id]/{a}*?.js")), "./[id]/{a}*?.js")
}

func TestSplitGlobDir(t *testing.T) {
	check := func(pattern string, dir string, rest string) {
		t.Helper()
		d, r := helpers.SplitGlobDir(pattern)
		test.AssertEqual(t, d, dir)
		test.AssertEqual(t, r, rest)
	}

	check("./pages/*/*Page.jsx", "./pages/", "*/*Page.jsx")
	check("./pages/a*.js", "./pages/", "a*.js")
	check("../locales/*.json", "../locales/", "*.json")
	check(`./\[id\]/*.js`, `./\[id\]/`, "*.js")
	check("./a/b.js", "./a/", "b.js")
	check("*.js", "", "*.js")
}
