package js_parser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/ohmlnz/denopack/internal/config"
	"github.com/ohmlnz/denopack/internal/js_ast"
	"github.com/ohmlnz/denopack/internal/js_lexer"
	"github.com/ohmlnz/denopack/internal/logger"
)

type Options struct {
	Loader config.Loader
}

// Tree-sitter parsers are not safe for concurrent use, so each grammar keeps
// a pool of them. The grammar itself is only loaded the first time it is
// needed.
type grammar struct {
	getLanguage func() unsafe.Pointer
	once        sync.Once
	parsers     sync.Pool
}

var grammars = map[config.Loader]*grammar{
	config.LoaderJS:  {getLanguage: javascript.GetLanguage},
	config.LoaderTS:  {getLanguage: typescript.GetLanguage},
	config.LoaderTSX: {getLanguage: tsx.GetLanguage},
}

func (g *grammar) acquire() (*sitter.Parser, bool) {
	g.once.Do(func() {
		lang := sitter.NewLanguage(g.getLanguage())
		g.parsers.New = func() any {
			p := sitter.NewParser()
			p.SetLanguage(lang)
			return p
		}
	})
	p, ok := g.parsers.Get().(*sitter.Parser)
	return p, ok
}

var errPoolType = errors.New("unexpected value in parser pool")

type parser struct {
	log      logger.Log
	source   logger.Source
	ast      js_ast.AST
	hasError bool
}

// Parse collects the import calls of one module. Syntax errors are reported
// to the log, in which case "ok" is false and the result must not be used.
func Parse(log logger.Log, source logger.Source, options Options) (result js_ast.AST, ok bool) {
	g := grammars[options.Loader]
	if g == nil {
		log.AddError(nil, logger.Range{}, fmt.Sprintf("Cannot parse %q with loader %q", source.PrettyPath, options.Loader.String()))
		return
	}

	tsParser, ok := g.acquire()
	if !ok {
		log.AddError(nil, logger.Range{}, errPoolType.Error())
		return
	}
	defer g.parsers.Put(tsParser)

	tree, err := tsParser.ParseString(context.Background(), nil, []byte(source.Contents))
	if err != nil {
		log.AddError(&source, logger.Range{}, fmt.Sprintf("Failed to parse: %s", err.Error()))
		return result, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		log.AddError(&source, logger.Range{}, "Failed to parse: no syntax tree")
		return result, false
	}

	p := &parser{log: log, source: source}
	if errorNode := findFirstError(root); !errorNode.IsNull() {
		p.unexpected(errorNode)
		return result, false
	}

	p.visit(root)
	return p.ast, !p.hasError
}

func findFirstError(n sitter.Node) sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := range n.ChildCount() {
		if found := findFirstError(n.Child(i)); !found.IsNull() {
			return found
		}
	}
	return sitter.Node{}
}

func rangeOf(n sitter.Node) logger.Range {
	start := int32(n.StartByte())
	return logger.Range{Loc: logger.Loc{Start: start}, Len: int32(n.EndByte()) - start}
}

func (p *parser) textOf(n sitter.Node) string {
	return p.source.Contents[n.StartByte():n.EndByte()]
}

func (p *parser) addRangeError(r logger.Range, text string) {
	p.log.AddError(&p.source, r, text)
	p.hasError = true
}

func (p *parser) unexpected(errorNode sitter.Node) {
	// Tree-sitter inserts zero-width nodes for tokens it had to assume
	if errorNode.IsMissing() {
		p.addRangeError(rangeOf(errorNode), fmt.Sprintf("Expected %q", errorNode.Type()))
		return
	}

	// Point at the first token the grammar could not place
	leaf := errorNode
	for leaf.ChildCount() > 0 {
		leaf = leaf.Child(0)
	}
	r := rangeOf(leaf)
	if r.Len == 0 && int(r.Loc.Start) >= len(p.source.Contents) {
		p.addRangeError(r, "Unexpected end of file")
		return
	}
	if r.Len == 0 {
		r.Len = 1
	}
	p.addRangeError(r, fmt.Sprintf("Unexpected %q", p.source.TextForRange(r)))
}

func (p *parser) visit(n sitter.Node) {
	switch n.Type() {
	case "hash_bang_line", "hashbang_line":
		p.ast.Hashbang = rangeOf(n)

	case "call_expression":
		if target := n.ChildByFieldName("function"); !target.IsNull() && target.Type() == "import" {
			p.importCall(n, target)
		}
	}

	for i := range n.ChildCount() {
		p.visit(n.Child(i))
	}
}

func (p *parser) importCall(n sitter.Node, keyword sitter.Node) {
	args := n.ChildByFieldName("arguments")
	if args.IsNull() || args.Type() != "arguments" {
		p.addRangeError(rangeOf(keyword), "Expected \"(\" after \"import\"")
		return
	}

	// Tree-sitter recovers from a missing ")" without an error node
	if end := args.EndByte(); end == 0 || p.source.Contents[end-1] != ')' {
		p.addRangeError(logger.Range{Loc: logger.Loc{Start: int32(end)}}, "Expected \")\"")
		return
	}

	p.ast.ImportCalls = append(p.ast.ImportCalls, js_ast.ImportCall{
		Range:   rangeOf(n),
		Keyword: rangeOf(keyword),
		Args:    p.exprList(args),
	})
}

func (p *parser) exprList(n sitter.Node) []js_ast.Expr {
	var exprs []js_ast.Expr
	for i := range n.NamedChildCount() {
		if child := n.NamedChild(i); child.Type() != "comment" {
			exprs = append(exprs, p.expr(child))
		}
	}
	return exprs
}

func (p *parser) firstNamedChild(n sitter.Node) (sitter.Node, bool) {
	for i := range n.NamedChildCount() {
		if child := n.NamedChild(i); child.Type() != "comment" {
			return child, true
		}
	}
	return sitter.Node{}, false
}

func (p *parser) expr(n sitter.Node) js_ast.Expr {
	r := rangeOf(n)

	switch n.Type() {
	case "parenthesized_expression":
		if inner, ok := p.firstNamedChild(n); ok {
			return p.expr(inner)
		}

	case "string":
		if value, ok := p.stringValue(n); ok {
			return js_ast.Expr{Range: r, Data: &js_ast.EString{Value: value}}
		}

	case "template_string":
		if template, ok := p.template(n); ok {
			return js_ast.Expr{Range: r, Data: template}
		}

	case "binary_expression":
		op := js_ast.BinOpOther
		if operator := n.ChildByFieldName("operator"); !operator.IsNull() && operator.Type() == "+" {
			op = js_ast.BinOpAdd
		}
		left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
		if !left.IsNull() && !right.IsNull() {
			return js_ast.Expr{Range: r, Data: &js_ast.EBinary{Op: op, Left: p.expr(left), Right: p.expr(right)}}
		}

	case "identifier":
		return js_ast.Expr{Range: r, Data: &js_ast.EIdentifier{Name: p.textOf(n)}}

	case "number":
		return js_ast.Expr{Range: r, Data: &js_ast.ENumber{Raw: p.textOf(n)}}

	case "call_expression":
		if target := n.ChildByFieldName("function"); !target.IsNull() {
			call := &js_ast.ECall{Target: p.expr(target)}
			if args := n.ChildByFieldName("arguments"); !args.IsNull() {
				if args.Type() == "arguments" {
					call.Args = p.exprList(args)
				} else {
					// A tagged template literal
					call.Args = []js_ast.Expr{p.expr(args)}
				}
			}
			return js_ast.Expr{Range: r, Data: call}
		}

	case "new_expression":
		if target := n.ChildByFieldName("constructor"); !target.IsNull() {
			expr := &js_ast.ENew{Target: p.expr(target)}
			if args := n.ChildByFieldName("arguments"); !args.IsNull() {
				expr.Args = p.exprList(args)
			}
			return js_ast.Expr{Range: r, Data: expr}
		}

	case "member_expression":
		object, property := n.ChildByFieldName("object"), n.ChildByFieldName("property")
		if !object.IsNull() && !property.IsNull() {
			return js_ast.Expr{Range: r, Data: &js_ast.EDot{Target: p.expr(object), Name: p.textOf(property)}}
		}

	case "subscript_expression":
		object, index := n.ChildByFieldName("object"), n.ChildByFieldName("index")
		if !object.IsNull() && !index.IsNull() {
			return js_ast.Expr{Range: r, Data: &js_ast.EIndex{Target: p.expr(object), Index: p.expr(index)}}
		}
	}

	return js_ast.Expr{Range: r, Data: &js_ast.EUnknown{Kind: n.Type()}}
}

func (p *parser) stringValue(n sitter.Node) (string, bool) {
	text := p.textOf(n)
	if len(text) < 2 || text[0] != text[len(text)-1] || (text[0] != '"' && text[0] != '\'') {
		p.addRangeError(rangeOf(n), "Unterminated string literal")
		return "", false
	}
	return p.decode(int(n.StartByte())+1, text[1:len(text)-1], false)
}

func (p *parser) template(n sitter.Node) (*js_ast.ETemplate, bool) {
	contents := p.source.Contents
	start, end := int(n.StartByte()), int(n.EndByte())
	if end-start < 2 || contents[end-1] != '`' {
		p.addRangeError(rangeOf(n), "Unterminated template literal")
		return nil, false
	}

	template := &js_ast.ETemplate{}
	pos := start + 1
	text := &template.Head
	for i := range n.NamedChildCount() {
		child := n.NamedChild(i)
		if child.Type() != "template_substitution" {
			continue
		}

		value, ok := p.decode(pos, contents[pos:child.StartByte()], true)
		if !ok {
			return nil, false
		}
		*text = value

		part := js_ast.TemplatePart{Value: js_ast.Expr{Range: rangeOf(child), Data: &js_ast.EUnknown{Kind: child.Type()}}}
		if inner, ok := p.firstNamedChild(child); ok {
			part.Value = p.expr(inner)
		}
		template.Parts = append(template.Parts, part)
		text = &template.Parts[len(template.Parts)-1].Tail
		pos = int(child.EndByte())
	}

	value, ok := p.decode(pos, contents[pos:end-1], true)
	if !ok {
		return nil, false
	}
	*text = value
	return template, true
}

func (p *parser) decode(start int, text string, isTemplate bool) (string, bool) {
	value, err := js_lexer.DecodeEscapeSequences(text, isTemplate)
	if err != nil {
		var escapeErr *js_lexer.EscapeError
		if errors.As(err, &escapeErr) {
			p.addRangeError(logger.Range{Loc: logger.Loc{Start: int32(start + escapeErr.Offset)}, Len: int32(escapeErr.Len)}, escapeErr.Text)
		} else {
			p.addRangeError(logger.Range{Loc: logger.Loc{Start: int32(start)}, Len: int32(len(text))}, err.Error())
		}
		return "", false
	}
	return value, true
}
