package importvars

import (
	"fmt"

	"github.com/ohmlnz/denopack/internal/js_ast"
	"github.com/ohmlnz/denopack/internal/logger"
)

// ImportSite is one "import(...)" expression. Index counts every import
// expression of the module in document order, including ones with a literal
// argument, so dispatcher names stay stable when unrelated imports change
// shape.
type ImportSite struct {
	Index   int
	Range   logger.Range
	Keyword logger.Range

	// This has a nil "Data" field when the call has no arguments
	Arg js_ast.Expr

	// The call passes import attributes after the specifier
	HasOptions bool

	// The raw source of the whole call, only used for messages
	Text string
}

type FailureKind uint8

const (
	// The argument has a shape that can never be turned into a pattern
	ClassificationFailure FailureKind = iota

	// The argument has the right shape but the pattern would be unusable
	PatternFailure
)

func (kind FailureKind) String() string {
	switch kind {
	case ClassificationFailure:
		return "classification"
	case PatternFailure:
		return "pattern"
	default:
		panic("Internal error")
	}
}

type FailureCode uint8

const (
	CodeNoLiteralContext FailureCode = iota
	CodeUnsupportedHole
	CodeEmptyPattern
	CodeNotRelative
	CodeOwnDirectory
	CodeMissingExtension
	CodeAmbiguousSeparator
)

// Classification is one of Static, Templated or Unsupported.
type Classification interface{ isClassification() }

// Static imports are left alone. The bundler can already see where they go.
type Static struct {
	Path string
}

type Templated struct {
	Pattern GlobPattern
}

type Unsupported struct {
	Kind   FailureKind
	Code   FailureCode
	Reason string

	// The part of the argument responsible for the failure. This is the
	// whole argument unless a single hole is to blame.
	Blame logger.Range
}

func (Static) isClassification()      {}
func (Templated) isClassification()   {}
func (Unsupported) isClassification() {}

// Classify decides what can be done with an import expression. It has no
// side effects.
func Classify(site ImportSite) Classification {
	switch e := site.Arg.Data.(type) {
	case *js_ast.EString:
		return Static{Path: e.Value}

	case *js_ast.ETemplate:
		return classifyPieces(site)

	case *js_ast.EBinary:
		if e.Op == js_ast.BinOpAdd {
			return classifyPieces(site)
		}
	}

	blame := site.Arg.Range
	if site.Arg.Data == nil {
		blame = site.Range
	}
	return Unsupported{
		Kind:  ClassificationFailure,
		Code:  CodeNoLiteralContext,
		Blame: blame,
		Reason: fmt.Sprintf("invalid import %q. It cannot be statically analyzed. "+
			"Variable dynamic imports must start with ./ and be limited to a specific directory. %s", site.Text, importExample),
	}
}

func classifyPieces(site ImportSite) Classification {
	f := flattener{}
	f.flatten(site.Arg)

	if f.unsupportedHole != nil {
		return Unsupported{
			Kind:  ClassificationFailure,
			Code:  CodeUnsupportedHole,
			Blame: f.unsupportedHole.Range,
			Reason: fmt.Sprintf("invalid import %q. Function calls, constructor calls and property accesses "+
				"cannot be used as the variable part of an import. Assign the value to a variable first. %s", site.Text, importExample),
		}
	}

	// A template or concatenation made only of literals is a constant
	if !f.hasHole {
		text := ""
		for _, segment := range f.segments {
			text += segment.(Literal).Text
		}
		return Static{Path: text}
	}

	pattern, err := Translate(f.segments, site.Text)
	if err != nil {
		code := CodeEmptyPattern
		if patternErr, ok := err.(*PatternError); ok {
			code = patternErr.Code
		}
		return Unsupported{
			Kind:   PatternFailure,
			Code:   code,
			Reason: err.Error(),
			Blame:  site.Arg.Range,
		}
	}
	return Templated{Pattern: pattern}
}
