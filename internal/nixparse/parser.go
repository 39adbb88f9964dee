package nixparse

import (
	"fmt"

	"github.com/NixOS/nix-sub000/internal/symtab"
)

// parser is a straightforward hand-written recursive-descent/precedence-
// climbing parser, in the technique of the teacher's internal/parser
// Cursor (peek-then-consume over a flat token slice) though not copied
// from it line for line, since the grammars share nothing.
type parser struct {
	toks   []token
	pos    int
	st     *symtab.SymbolTable
	pt     *symtab.PositionTable
	origin int
}

// Parse lexes and parses src (registered under originName in pt) into an
// Expr, with every Var left unresolved — callers must run Bind
// afterwards before handing the result to the evaluator.
func Parse(originName, src string, st *symtab.SymbolTable, pt *symtab.PositionTable) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	originIdx := pt.AddOrigin(originName, src)
	p := &parser{toks: toks, st: st, pt: pt, origin: originIdx}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(tEOF) {
		return nil, p.errorf("unexpected trailing input %q", p.cur().text)
	}
	return e, nil
}

func (p *parser) posAt(off int) symtab.PosIdx { return p.pt.Add(p.origin, off) }

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) at(k tokKind) bool { return p.cur().kind == k }

func (p *parser) atPunct(text string) bool {
	return p.cur().kind == tPunct && p.cur().text == text
}

func (p *parser) atKeyword(word string) bool {
	return p.cur().kind == tKeyword && p.cur().text == word
}

func (p *parser) peekAt(offset int, k tokKind, text string) bool {
	i := p.pos + offset
	if i >= len(p.toks) {
		return false
	}
	t := p.toks[i]
	return t.kind == k && (text == "" || t.text == text)
}

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expectPunct(text string) (token, error) {
	if !p.atPunct(text) {
		return token{}, p.errorf("expected %q, got %q", text, p.cur().text)
	}
	return p.advance(), nil
}

func (p *parser) expectKeyword(word string) (token, error) {
	if !p.atKeyword(word) {
		return token{}, p.errorf("expected keyword %q, got %q", word, p.cur().text)
	}
	return p.advance(), nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("parse error at byte %d: %s", p.cur().pos, fmt.Sprintf(format, args...))
}

func (p *parser) sym(name string) symtab.Symbol { return p.st.Intern(name) }

// ---- top-level expression dispatch ----------------------------------------

func (p *parser) parseExpr() (Expr, error) {
	switch {
	case p.atKeyword("let"):
		return p.parseLet()
	case p.atKeyword("with"):
		return p.parseWith()
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("assert"):
		return p.parseAssert()
	case p.looksLikeLambda():
		return p.parseLambda()
	default:
		return p.parseOpImpl()
	}
}

func (p *parser) looksLikeLambda() bool {
	if p.at(tIdent) && p.peekAt(1, tPunct, ":") {
		return true
	}
	if p.at(tIdent) && p.peekAt(1, tPunct, "@") {
		return true
	}
	if p.atPunct("{") {
		depth := 0
		i := p.pos
		for i < len(p.toks) {
			t := p.toks[i]
			if t.kind == tPunct && t.text == "{" {
				depth++
			}
			if t.kind == tPunct && t.text == "}" {
				depth--
				if depth == 0 {
					i++
					break
				}
			}
			i++
		}
		if i < len(p.toks) {
			t := p.toks[i]
			if t.kind == tPunct && (t.text == ":" || t.text == "@") {
				return true
			}
		}
	}
	return false
}

// ---- let / with / if / assert ---------------------------------------------

func (p *parser) parseLet() (Expr, error) {
	tok, _ := p.expectKeyword("let")
	binds, inherits, err := p.parseBindingsUntil("in")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Let{node: node{pos: p.posAt(tok.pos)}, Binds: binds, Inherits: inherits, Body: body}, nil
}

func (p *parser) parseWith() (Expr, error) {
	tok, _ := p.expectKeyword("with")
	attrsExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &With{node: node{pos: p.posAt(tok.pos)}, Attrs: attrsExpr, Body: body}, nil
}

func (p *parser) parseIf() (Expr, error) {
	tok, _ := p.expectKeyword("if")
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("else"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &If{node: node{pos: p.posAt(tok.pos)}, Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseAssert() (Expr, error) {
	tok, _ := p.expectKeyword("assert")
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Assert{node: node{pos: p.posAt(tok.pos)}, Cond: cond, Body: body}, nil
}

// ---- bindings (let and rec/plain attrsets share this) ---------------------

func (p *parser) parseBindingsUntil(stopKeyword string) ([]Binding, []InheritBinding, error) {
	var binds []Binding
	var inherits []InheritBinding
	for {
		if stopKeyword != "" && p.atKeyword(stopKeyword) {
			return binds, inherits, nil
		}
		if stopKeyword == "" && p.atPunct("}") {
			return binds, inherits, nil
		}
		if p.atKeyword("inherit") {
			tok := p.advance()
			var from Expr
			if p.atPunct("(") {
				p.advance()
				e, err := p.parseExpr()
				if err != nil {
					return nil, nil, err
				}
				if _, err := p.expectPunct(")"); err != nil {
					return nil, nil, err
				}
				from = e
			}
			var names []AttrPathElem
			for p.at(tIdent) {
				id := p.advance()
				names = append(names, AttrPathElem{Name: p.sym(id.text)})
			}
			if _, err := p.expectPunct(";"); err != nil {
				return nil, nil, err
			}
			inherits = append(inherits, InheritBinding{From: from, Names: names, Pos: p.posAt(tok.pos)})
			continue
		}
		path, err := p.parseAttrPath()
		if err != nil {
			return nil, nil, err
		}
		eqTok, err := p.expectPunct("=")
		if err != nil {
			return nil, nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, nil, err
		}
		if _, err := p.expectPunct(";"); err != nil {
			return nil, nil, err
		}
		binds = append(binds, Binding{Path: path, Value: val, Pos: p.posAt(eqTok.pos)})
	}
}

func (p *parser) parseAttrPath() ([]AttrPathElem, error) {
	var path []AttrPathElem
	for {
		elem, err := p.parseAttrPathElem()
		if err != nil {
			return nil, err
		}
		path = append(path, elem)
		if p.atPunct(".") {
			p.advance()
			continue
		}
		return path, nil
	}
}

func (p *parser) parseAttrPathElem() (AttrPathElem, error) {
	switch {
	case p.at(tIdent):
		id := p.advance()
		return AttrPathElem{Name: p.sym(id.text)}, nil
	case p.at(tStringStart):
		s, err := p.parseString()
		if err != nil {
			return AttrPathElem{}, err
		}
		if len(s.Parts) == 1 && s.Parts[0].Expr == nil {
			return AttrPathElem{Name: p.sym(s.Parts[0].Text)}, nil
		}
		return AttrPathElem{Expr: s}, nil
	case p.at(tDollarBrace):
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return AttrPathElem{}, err
		}
		if _, err := expectKind(p, tCloseBrace); err != nil {
			return AttrPathElem{}, err
		}
		return AttrPathElem{Expr: e}, nil
	default:
		return AttrPathElem{}, p.errorf("expected attribute name, got %q", p.cur().text)
	}
}

// ---- attrsets, lists, lambdas ---------------------------------------------

func (p *parser) parseAttrSet() (Expr, error) {
	rec := false
	startPos := p.cur().pos
	if p.atKeyword("rec") {
		p.advance()
		rec = true
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	binds, inherits, err := p.parseBindingsUntil("")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &AttrSet{node: node{pos: p.posAt(startPos)}, Rec: rec, Binds: binds, Inherits: inherits}, nil
}

func (p *parser) parseList() (Expr, error) {
	tok, err := p.expectPunct("[")
	if err != nil {
		return nil, err
	}
	var elems []Expr
	for !p.atPunct("]") {
		e, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	p.advance()
	return &List{node: node{pos: p.posAt(tok.pos)}, Elems: elems}, nil
}

func (p *parser) parseLambda() (Expr, error) {
	startPos := p.cur().pos
	var simple symtab.Symbol = symtab.NoSymbol
	var alias symtab.Symbol = symtab.NoSymbol
	var formals []Formal
	ellipsis := false

	if p.at(tIdent) && p.peekAt(1, tPunct, ":") {
		id := p.advance()
		simple = p.sym(id.text)
		p.advance() // ':'
	} else {
		if p.at(tIdent) && p.peekAt(1, tPunct, "@") {
			id := p.advance()
			alias = p.sym(id.text)
			p.advance() // '@'
		}
		if _, err := p.expectPunct("{"); err != nil {
			return nil, err
		}
		for !p.atPunct("}") {
			if p.atPunct("...") {
				p.advance()
				ellipsis = true
				break
			}
			id, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			f := Formal{Name: p.sym(id.text), Pos: p.posAt(id.pos)}
			if p.atPunct("?") {
				p.advance()
				def, err := p.parseApp()
				if err != nil {
					return nil, err
				}
				f.Default = def
			}
			formals = append(formals, f)
			if p.atPunct(",") {
				p.advance()
			}
		}
		if _, err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		if alias == symtab.NoSymbol && p.atPunct("@") {
			p.advance()
			id, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			alias = p.sym(id.text)
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Lambda{
		node:        node{pos: p.posAt(startPos)},
		SimpleParam: simple,
		Formals:     formals,
		Ellipsis:    ellipsis,
		Alias:       alias,
		Body:        body,
	}, nil
}

func (p *parser) expectIdent() (token, error) {
	if !p.at(tIdent) {
		return token{}, p.errorf("expected identifier, got %q", p.cur().text)
	}
	return p.advance(), nil
}

// ---- operator precedence chain (lowest to highest) ------------------------

func (p *parser) parseOpImpl() (Expr, error) {
	left, err := p.parseOpOr()
	if err != nil {
		return nil, err
	}
	if p.atPunct("->") {
		tok := p.advance()
		right, err := p.parseOpImpl()
		if err != nil {
			return nil, err
		}
		return &BinaryOp{node: node{pos: p.posAt(tok.pos)}, Op: Impl, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseOpOr() (Expr, error) {
	left, err := p.parseOpAnd()
	if err != nil {
		return nil, err
	}
	for p.atPunct("||") {
		tok := p.advance()
		right, err := p.parseOpAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{node: node{pos: p.posAt(tok.pos)}, Op: Or, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseOpAnd() (Expr, error) {
	left, err := p.parseOpEq()
	if err != nil {
		return nil, err
	}
	for p.atPunct("&&") {
		tok := p.advance()
		right, err := p.parseOpEq()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{node: node{pos: p.posAt(tok.pos)}, Op: And, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseOpEq() (Expr, error) {
	left, err := p.parseOpCmp()
	if err != nil {
		return nil, err
	}
	if p.atPunct("==") || p.atPunct("!=") {
		op := Eq
		if p.atPunct("!=") {
			op = NEq
		}
		tok := p.advance()
		right, err := p.parseOpCmp()
		if err != nil {
			return nil, err
		}
		return &BinaryOp{node: node{pos: p.posAt(tok.pos)}, Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseOpCmp() (Expr, error) {
	left, err := p.parseOpUpdate()
	if err != nil {
		return nil, err
	}
	var op BinaryOpKind
	switch {
	case p.atPunct("<"):
		op = Less
	case p.atPunct("<="):
		op = LessEq
	case p.atPunct(">"):
		op = Greater
	case p.atPunct(">="):
		op = GreaterEq
	default:
		return left, nil
	}
	tok := p.advance()
	right, err := p.parseOpUpdate()
	if err != nil {
		return nil, err
	}
	return &BinaryOp{node: node{pos: p.posAt(tok.pos)}, Op: op, Left: left, Right: right}, nil
}

func (p *parser) parseOpUpdate() (Expr, error) {
	left, err := p.parseOpAdd()
	if err != nil {
		return nil, err
	}
	if p.atPunct("//") {
		tok := p.advance()
		right, err := p.parseOpUpdate()
		if err != nil {
			return nil, err
		}
		return &BinaryOp{node: node{pos: p.posAt(tok.pos)}, Op: Update, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseOpAdd() (Expr, error) {
	left, err := p.parseOpMul()
	if err != nil {
		return nil, err
	}
	for p.atPunct("+") || p.atPunct("-") {
		op := Add
		if p.atPunct("-") {
			op = Sub
		}
		tok := p.advance()
		right, err := p.parseOpMul()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{node: node{pos: p.posAt(tok.pos)}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseOpMul() (Expr, error) {
	left, err := p.parseOpConcat()
	if err != nil {
		return nil, err
	}
	for p.atPunct("*") || p.atPunct("/") {
		op := Mul
		if p.atPunct("/") {
			op = Div
		}
		tok := p.advance()
		right, err := p.parseOpConcat()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{node: node{pos: p.posAt(tok.pos)}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseOpConcat() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.atPunct("++") {
		tok := p.advance()
		right, err := p.parseOpConcat()
		if err != nil {
			return nil, err
		}
		return &BinaryOp{node: node{pos: p.posAt(tok.pos)}, Op: ConcatLists, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.atPunct("!") {
		tok := p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{node: node{pos: p.posAt(tok.pos)}, Op: Not, Expr: e}, nil
	}
	if p.atPunct("-") {
		tok := p.advance()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{node: node{pos: p.posAt(tok.pos)}, Op: Neg, Expr: e}, nil
	}
	return p.parseHasAttr()
}

func (p *parser) parseHasAttr() (Expr, error) {
	left, err := p.parseApp()
	if err != nil {
		return nil, err
	}
	if p.atPunct("?") {
		tok := p.advance()
		path, err := p.parseAttrPath()
		if err != nil {
			return nil, err
		}
		return &HasAttr{node: node{pos: p.posAt(tok.pos)}, Target: left, Path: path}, nil
	}
	return left, nil
}

// parseApp parses function application (left-associative juxtaposition)
// and select (`.`) at tighter precedence still, then falls through to
// primary expressions.
func (p *parser) parseApp() (Expr, error) {
	fn, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	for p.startsPrimary() {
		arg, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		fn = &Call{node: node{pos: fn.Pos()}, Fun: fn, Arg: arg}
	}
	return fn, nil
}

func (p *parser) startsPrimary() bool {
	switch p.cur().kind {
	case tInt, tFloat, tIdent, tStringStart, tPathLit:
		return true
	case tKeyword:
		return p.cur().text == "rec"
	case tPunct:
		switch p.cur().text {
		case "(", "[", "{":
			return true
		}
	}
	return false
}

func (p *parser) parseSelect() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.atPunct(".") {
		tok := p.advance()
		path, err := p.parseAttrPath()
		if err != nil {
			return nil, err
		}
		sel := &Select{node: node{pos: p.posAt(tok.pos)}, Target: e, Path: path}
		if p.atKeyword("or") {
			p.advance()
			def, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			sel.Default = def
		}
		e = sel
	}
	return e, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch {
	case p.at(tInt):
		tok := p.advance()
		return &Int{node: node{pos: p.posAt(tok.pos)}, Value: tok.ival}, nil
	case p.at(tFloat):
		tok := p.advance()
		return &Float{node: node{pos: p.posAt(tok.pos)}, Value: tok.fval}, nil
	case p.at(tIdent):
		tok := p.advance()
		return &Var{node: node{pos: p.posAt(tok.pos)}, Name: p.sym(tok.text)}, nil
	case p.at(tStringStart):
		return p.parseString()
	case p.at(tPathLit):
		tok := p.advance()
		return &Path{node: node{pos: p.posAt(tok.pos)}, Parts: []StringPart{{Text: tok.text}}, Angle: tok.text[0] == '<'}, nil
	case p.atKeyword("rec"):
		return p.parseAttrSet()
	case p.atPunct("{"):
		return p.parseAttrSet()
	case p.atPunct("["):
		return p.parseList()
	case p.atPunct("("):
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errorf("unexpected token %q", p.cur().text)
	}
}

func (p *parser) parseString() (*Str, error) {
	startTok, err := expectKind(p, tStringStart)
	if err != nil {
		return nil, err
	}
	var parts []StringPart
	for !p.at(tStringEnd) {
		switch {
		case p.at(tStringPart):
			t := p.advance()
			parts = append(parts, StringPart{Text: t.text})
		case p.at(tDollarBrace):
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := expectKind(p, tCloseBrace); err != nil {
				return nil, err
			}
			parts = append(parts, StringPart{Expr: e})
		default:
			return nil, p.errorf("malformed string literal")
		}
	}
	p.advance() // tStringEnd
	return &Str{node: node{pos: p.posAt(startTok.pos)}, Parts: parts}, nil
}

func expectKind(p *parser, k tokKind) (token, error) {
	if p.cur().kind != k {
		return token{}, p.errorf("unexpected token %q", p.cur().text)
	}
	return p.advance(), nil
}
