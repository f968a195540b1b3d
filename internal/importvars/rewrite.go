// Package importvars rewrites "import()" expressions whose argument is only
// partly known at build time. Each one is replaced by a call to a generated
// function that switches over every file the argument could name, so that
// every possible target is a plain "import()" with a literal argument.
package importvars

import (
	"strings"

	"github.com/ohmlnz/denopack/internal/config"
	"github.com/ohmlnz/denopack/internal/fs"
	"github.com/ohmlnz/denopack/internal/js_ast"
	"github.com/ohmlnz/denopack/internal/js_parser"
	"github.com/ohmlnz/denopack/internal/logger"
	"github.com/ohmlnz/denopack/internal/sourcemap"
	"github.com/ohmlnz/denopack/internal/splice"
)

type Status uint8

const (
	Unchanged Status = iota
	Rewritten
	Failed
)

func (status Status) String() string {
	switch status {
	case Unchanged:
		return "unchanged"
	case Rewritten:
		return "rewritten"
	case Failed:
		return "failed"
	default:
		panic("Internal error")
	}
}

type Options struct {
	FS fs.FS

	// If this is "LoaderNone", the loader is picked from the module path
	Loader config.Loader

	WarnOnError bool
}

// RewriteResult only carries code when the status is "Rewritten". A failed
// module never returns partial output.
type RewriteResult struct {
	Code      string
	SourceMap *sourcemap.SourceMap
	Edits     []DispatchEdit
	Status    Status
}

type rewriter struct {
	log     logger.Log
	source  logger.Source
	options Options

	importerDir string
	edits       []DispatchEdit
	failed      bool
}

// Transform rewrites every variable dynamic import in one module. All
// diagnostics go to the log. Unsupported imports are reported and left alone.
// They fail the module once the whole module has been checked, unless
// "WarnOnError" is set.
func Transform(log logger.Log, source logger.Source, options Options) RewriteResult {
	// Avoid the parser entirely for modules that can't contain an import
	if !strings.Contains(source.Contents, "import") {
		return RewriteResult{Status: Unchanged}
	}

	loader := options.Loader
	if loader == config.LoaderNone {
		loader = config.LoaderFromPath(source.KeyPath)
	}
	if loader == config.LoaderNone {
		return RewriteResult{Status: Unchanged}
	}

	ast, ok := js_parser.Parse(log, source, js_parser.Options{Loader: loader})
	if !ok {
		return RewriteResult{Status: Failed}
	}

	r := rewriter{log: log, source: source, options: options}
	keyPath := source.KeyPath
	if !options.FS.IsAbs(keyPath) {
		keyPath, _ = options.FS.Abs(keyPath)
	}
	r.importerDir = options.FS.Dir(keyPath)

	for i, call := range ast.ImportCalls {
		site := ImportSite{
			Index:   i,
			Range:   call.Range,
			Keyword: call.Keyword,
			Text:    source.TextForRange(call.Range),
		}
		if len(call.Args) > 0 {
			site.Arg = call.Args[0]
			site.HasOptions = len(call.Args) > 1
		}
		if !r.visit(site) {
			return RewriteResult{Status: Failed}
		}
	}

	if r.failed {
		return RewriteResult{Status: Failed}
	}
	if len(r.edits) == 0 {
		return RewriteResult{Status: Unchanged}
	}
	return r.finish(ast)
}

// visit returns false when the module can't be processed any further.
func (r *rewriter) visit(site ImportSite) bool {
	switch c := Classify(site).(type) {
	case Static:
		return true

	case Unsupported:
		r.report(site, c)
		return true

	case Templated:
		candidates, err := ResolveCandidates(r.options.FS, r.log, &r.source, site.Range, r.importerDir, c.Pattern)
		if err != nil {
			r.log.AddError(&r.source, site.Range, err.Error())
			return false
		}
		edit, err := Synthesize(site, candidates)
		if err != nil {
			r.log.AddError(&r.source, site.Range, err.Error())
			return false
		}
		r.edits = append(r.edits, edit)
		return true
	}

	panic("Internal error")
}

func (r *rewriter) report(site ImportSite, failure Unsupported) {
	var notes []logger.MsgData
	if failure.Code == CodeUnsupportedHole {
		notes = append(notes, r.source.RangeToNote(failure.Blame,
			"The value of this expression can't be used as part of a file name"))
	}

	if r.options.WarnOnError {
		r.log.AddIDWithNotes(logger.MsgID_JS_UnsupportedDynamicImport, logger.Warning, &r.source, site.Range, failure.Reason, notes)
		return
	}

	r.log.AddMsg(logger.Msg{
		Kind:  logger.Error,
		Data:  logger.MsgData{Text: failure.Reason, Location: logger.LocationOrNil(&r.source, site.Range)},
		Notes: notes,
	})
	r.failed = true
}

func (r *rewriter) finish(ast js_ast.AST) RewriteResult {
	buffer := splice.New(r.source.Contents)

	// Dispatchers go at the top of the module, but a "#!" line must stay first
	block := dispatchBlock(r.edits)
	offset := 0
	if ast.Hashbang.Len > 0 {
		offset = int(ast.Hashbang.End())
		contents := r.source.Contents
		switch {
		case strings.HasPrefix(contents[offset:], "\r\n"):
			offset += 2
		case strings.HasPrefix(contents[offset:], "\n"):
			offset++
		default:
			block = "\n" + block
		}
	}

	if err := buffer.Insert(offset, block); err != nil {
		r.log.AddError(&r.source, logger.Range{}, err.Error())
		return RewriteResult{Status: Failed}
	}
	for _, edit := range r.edits {
		if err := buffer.Overwrite(int(edit.Keyword.Loc.Start), int(edit.Keyword.End()), edit.Name); err != nil {
			r.log.AddError(&r.source, edit.Keyword, err.Error())
			return RewriteResult{Status: Failed}
		}
	}

	code, sourceMap := buffer.SourceMap(r.source.KeyPath)
	return RewriteResult{
		Status:    Rewritten,
		Code:      code,
		SourceMap: sourceMap,
		Edits:     r.edits,
	}
}
