package js_ast

import "github.com/ohmlnz/denopack/internal/logger"

// This is a deliberately small expression tree. Only the shapes that matter
// when deciding what a dynamic import may load get their own node type. The
// rest are kept as EUnknown so that their source range is still available.

type OpCode uint8

const (
	BinOpAdd OpCode = iota
	BinOpOther
)

type Expr struct {
	Range logger.Range
	Data  E
}

// This interface is never called. Its purpose is to encode a variant type in
// Go's type system.
type E interface{ isExpr() }

// EString holds the decoded value of a quoted string literal.
type EString struct {
	Value string
}

type TemplatePart struct {
	Value Expr
	Tail  string
}

// ETemplate is an untagged template literal. Tagged templates are calls and
// are represented by ECall.
type ETemplate struct {
	Head  string
	Parts []TemplatePart
}

type EBinary struct {
	Op    OpCode
	Left  Expr
	Right Expr
}

type EIdentifier struct {
	Name string
}

type ENumber struct {
	Raw string
}

type ECall struct {
	Target Expr
	Args   []Expr
}

type ENew struct {
	Target Expr
	Args   []Expr
}

type EDot struct {
	Target Expr
	Name   string
}

type EIndex struct {
	Target Expr
	Index  Expr
}

// EUnknown is any other expression. Kind is the grammar's name for it.
type EUnknown struct {
	Kind string
}

func (*EString) isExpr()     {}
func (*ETemplate) isExpr()   {}
func (*EBinary) isExpr()     {}
func (*EIdentifier) isExpr() {}
func (*ENumber) isExpr()     {}
func (*ECall) isExpr()       {}
func (*ENew) isExpr()        {}
func (*EDot) isExpr()        {}
func (*EIndex) isExpr()      {}
func (*EUnknown) isExpr()    {}

// ImportCall is one "import(...)" expression.
type ImportCall struct {
	// The whole call including the closing parenthesis
	Range logger.Range

	// Just the "import" keyword
	Keyword logger.Range

	Args []Expr
}

type AST struct {
	// Every import call in the module in document order, including calls
	// nested inside the arguments of other import calls
	ImportCalls []ImportCall

	// The "#!" line if there is one, without its line terminator
	Hashbang logger.Range
}
