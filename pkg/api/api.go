// This API exposes the variable dynamic import rewriter as a plugin for a
// host build pipeline. The host calls "Transform" once per module with the
// module's code and id, and either keeps the code as-is (when "Code" is nil)
// or replaces it with the rewritten code and its source map.
//
// Example usage:
//
//	package main
//
//	import (
//	    "fmt"
//	    "os"
//
//	    "github.com/ohmlnz/denopack/pkg/api"
//	)
//
//	func main() {
//	    plugin, err := api.DynamicImportVars(api.DynamicImportVarsOptions{
//	        Include: []string{"src/**/*.js"},
//	    })
//	    if err != nil {
//	        os.Exit(1)
//	    }
//
//	    result := plugin.Transform("import(`./pages/${name}.js`)", "/project/src/main.js")
//	    if len(result.Errors) > 0 {
//	        os.Exit(1)
//	    }
//	    if result.Code != nil {
//	        fmt.Printf("%s\n", *result.Code)
//	    }
//	}
package api

import (
	iofs "io/fs"
)

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type LogLevel uint8

const (
	// Messages are only returned in the result, never printed
	LogLevelSilent LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Note struct {
	Text     string
	Location *Location
}

type Message struct {
	ID         string
	PluginName string
	Text       string
	Location   *Location
	Notes      []Note
}

// TransformResult leaves "Code" and "Map" nil when the module is unchanged.
// A non-nil "Code" pointing at an empty string is an empty module.
type TransformResult struct {
	Code *string
	Map  *string

	Errors   []Message
	Warnings []Message
}

// Plugin is safe for concurrent use once created.
type Plugin interface {
	Name() string
	Transform(code string, id string) TransformResult
}

////////////////////////////////////////////////////////////////////////////////
// Dynamic import vars

type DynamicImportVarsOptions struct {
	// Glob patterns selecting the module ids to transform. Relative patterns
	// are relative to "WorkingDir". No include patterns means every module.
	Include []string
	Exclude []string

	// Report unsupported variable imports as warnings and leave them alone
	// instead of failing the module
	WarnOnError bool

	// Defaults to the current directory, or "/" when "FS" is set
	WorkingDir string

	// Files are listed from this file system instead of the real one when
	// set. Its root is "/", so module ids must be absolute slash-separated
	// paths.
	FS iofs.FS

	// Directory listings are cached across modules when this is positive
	DirCacheSize int

	LogLevel LogLevel
	Color    StderrColor
}

func DynamicImportVars(options DynamicImportVarsOptions) (Plugin, error) {
	return dynamicImportVarsImpl(options)
}
