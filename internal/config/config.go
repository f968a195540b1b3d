package config

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ohmlnz/denopack/internal/helpers"
)

// Options is shared by every module a plugin instance transforms. It must not
// be mutated after it has been handed to the plugin.
type Options struct {
	Include []string
	Exclude []string

	// Report unsupported dynamic imports as warnings and leave them alone
	// instead of failing the module
	WarnOnError bool

	// Relative include and exclude patterns are resolved against this
	WorkingDir string
}

type SourceMap uint8

const (
	SourceMapNone SourceMap = iota
	SourceMapInline
	SourceMapLinkedWithComment
	SourceMapExternalWithoutComment
)

var sourceMapNames = map[string]SourceMap{
	"none":     SourceMapNone,
	"inline":   SourceMapInline,
	"linked":   SourceMapLinkedWithComment,
	"external": SourceMapExternalWithoutComment,
}

func ParseSourceMap(text string) (SourceMap, error) {
	if mode, ok := sourceMapNames[text]; ok {
		return mode, nil
	}
	return SourceMapNone, fmt.Errorf("invalid source map mode %q (valid: none, inline, linked, external)", text)
}

type Loader uint8

const (
	LoaderNone Loader = iota
	LoaderJS
	LoaderTS
	LoaderTSX
)

var loaderNames = []string{
	LoaderNone: "none",
	LoaderJS:   "js",
	LoaderTS:   "ts",
	LoaderTSX:  "tsx",
}

func (loader Loader) String() string {
	return loaderNames[loader]
}

// LoaderFromPath picks the grammar for a module from its extension. The
// JavaScript grammar also covers JSX.
func LoaderFromPath(p string) Loader {
	switch strings.ToLower(path.Ext(filepath.ToSlash(p))) {
	case ".js", ".mjs", ".cjs", ".jsx":
		return LoaderJS
	case ".ts", ".mts", ".cts":
		return LoaderTS
	case ".tsx":
		return LoaderTSX
	}
	return LoaderNone
}

var ErrInvalidPattern = errors.New("invalid glob pattern")

// Filter decides which module ids are transformed. An id is included when
// it matches any include pattern (or there are none) and no exclude pattern.
type Filter struct {
	include []string
	exclude []string
}

func NewFilter(options Options) (Filter, error) {
	include, err := compilePatterns(options.Include, options.WorkingDir)
	if err != nil {
		return Filter{}, err
	}
	exclude, err := compilePatterns(options.Exclude, options.WorkingDir)
	if err != nil {
		return Filter{}, err
	}
	return Filter{include: include, exclude: exclude}, nil
}

func compilePatterns(patterns []string, workingDir string) ([]string, error) {
	compiled := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if !path.IsAbs(pattern) && !strings.HasPrefix(pattern, "**") && workingDir != "" {
			base := strings.TrimSuffix(helpers.EscapeGlob(filepath.ToSlash(workingDir)), "/")
			pattern = base + "/" + strings.TrimPrefix(pattern, "./")
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		compiled = append(compiled, pattern)
	}
	return compiled, nil
}

// Match reports whether the module with this id should be transformed.
// Virtual modules (ids containing a NUL byte) never are.
func (f Filter) Match(id string) bool {
	if strings.IndexByte(id, 0) >= 0 {
		return false
	}
	id = filepath.ToSlash(id)
	for _, pattern := range f.exclude {
		if matched, err := doublestar.Match(pattern, id); err == nil && matched {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, pattern := range f.include {
		if matched, err := doublestar.Match(pattern, id); err == nil && matched {
			return true
		}
	}
	return false
}
