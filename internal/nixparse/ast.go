// Package nixparse provides a minimal recursive-descent reader for the
// expression language the evaluator runs: a lexer, a parser producing the
// node types below, and a binding pass (bind.go) that resolves every
// variable reference to a (level, displacement) pair using
// internal/env.StaticEnv before an Expr is ever handed to the evaluator.
//
// This is deliberately NOT a production-grade parser: diagnostics are
// terse, the grammar covers the language's core constructs, and it exists
// so the evaluator (internal/eval) has something to exercise end to end in
// tests and the CLI. Parsing proper is out of scope.
package nixparse

import "github.com/NixOS/nix-sub000/internal/symtab"

// node is embedded by every Expr implementation to provide Pos().
type node struct {
	pos symtab.PosIdx
}

func (n node) Pos() symtab.PosIdx { return n.pos }

// Int is an integer literal.
type Int struct {
	node
	Value int64
}

// Float is a floating point literal.
type Float struct {
	node
	Value float64
}

// StringPart is one piece of a (possibly interpolated) string or path
// literal: either literal text or an embedded expression (`${...}`).
type StringPart struct {
	Text string // meaningful when Expr == nil
	Expr Expr
}

// Str is a string literal, possibly with interpolated parts.
type Str struct {
	node
	Parts []StringPart
}

// Path is a path literal, held as a single literal part (the lexer does
// not interpolate inside paths). A search-path literal (`<nixpkgs>`)
// keeps its angle brackets in that part and is flagged by Angle.
type Path struct {
	node
	Parts []StringPart
	Angle bool
}

// Var is a reference to an identifier. Level/Displacement/Resolved/HasWithFallback
// are filled in by the binding pass (bind.go); the parser leaves them
// zero.
type Var struct {
	node
	Name            symtab.Symbol
	Level           int
	Displacement    int
	Resolved        bool
	HasWithFallback bool
}

// AttrPathElem is one element of a `.`-separated attribute path, as used
// by Select and the `inherit (e) a.b` form — almost always a plain Name,
// but may itself be a dynamic `${expr}` segment.
type AttrPathElem struct {
	Name symtab.Symbol
	Expr Expr // non-nil for ${...} segments; Name is unused then
}

// Select is `expr.path` or `expr.path or default`.
type Select struct {
	node
	Target  Expr
	Path    []AttrPathElem
	Default Expr // nil if there is no `or` clause
}

// HasAttr is `expr ? path`.
type HasAttr struct {
	node
	Target Expr
	Path   []AttrPathElem
}

// Binding is one `name = value;` entry of a let or attrset.
type Binding struct {
	Path  []AttrPathElem // length 1 for a plain `name = ...;`, >1 for `a.b.c = ...;`
	Value Expr
	Pos   symtab.PosIdx
}

// InheritBinding is `inherit a b;` or `inherit (e) a b;`.
type InheritBinding struct {
	From  Expr // nil for plain `inherit a b;`
	Names []AttrPathElem
	Pos   symtab.PosIdx
	// Refs holds one resolved Var per entry of Names, filled in by the
	// binding pass, used only when From == nil: a plain `inherit a;`
	// reads `a` from the scope enclosing the new let/rec/attrset scope,
	// so it is resolved exactly like any other variable reference against
	// that enclosing scope, not looked up dynamically at eval time.
	Refs []*Var
}

// AttrSet is `{ ... }` or `rec { ... }`.
type AttrSet struct {
	node
	Rec      bool
	Binds    []Binding
	Inherits []InheritBinding
	// NumSlots is the number of displacement slots the binding pass
	// assigned for this attrset's own scope (meaningful only when Rec).
	NumSlots int
}

// List is `[ e1 e2 ... ]`.
type List struct {
	node
	Elems []Expr
}

// Formal is one parameter of an attrset-destructuring lambda,
// e.g. `a` or `b ? default` in `{a, b ? default, ...}: body`.
type Formal struct {
	Name    symtab.Symbol
	Default Expr
	Pos     symtab.PosIdx
}

// Lambda is `param: body` or `{formals}: body` or `{formals}@alias: body`.
// SimpleParam.Valid() holds for a plain parameter; otherwise the lambda
// destructures an attrset described by Formals (nil for `{ }:`).
type Lambda struct {
	node
	// SimpleParam is the bound name for a plain `x: body` lambda; invalid
	// (symtab.NoSymbol) when the lambda instead destructures an attrset.
	SimpleParam symtab.Symbol
	// Formals is non-nil for an attrset-destructuring lambda.
	Formals  []Formal
	Ellipsis bool // `{a, b, ...}:`
	// Alias is the `@name` binding alongside a destructuring pattern;
	// invalid when there is none.
	Alias symtab.Symbol
	Body  Expr
	// NumSlots is the number of displacement slots this lambda's own
	// scope needs (1 for a simple param, len(Formals)+maybe 1 for alias).
	NumSlots int
}

// Call is `fun arg`.
type Call struct {
	node
	Fun Expr
	Arg Expr
}

// Let is `let binds...; in body`.
type Let struct {
	node
	Binds    []Binding
	Inherits []InheritBinding
	Body     Expr
	NumSlots int
}

// With is `with expr; body`.
type With struct {
	node
	Attrs Expr
	Body  Expr
}

// If is `if cond then then else else_`.
type If struct {
	node
	Cond, Then, Else Expr
}

// Assert is `assert cond; body`.
type Assert struct {
	node
	Cond, Body Expr
}

// UnaryOp is `!e` or `-e`.
type UnaryOpKind int

const (
	Not UnaryOpKind = iota
	Neg
)

type UnaryOp struct {
	node
	Op   UnaryOpKind
	Expr Expr
}

// BinaryOpKind enumerates every infix operator.
type BinaryOpKind int

const (
	Add BinaryOpKind = iota
	Sub
	Mul
	Div
	Eq
	NEq
	Less
	LessEq
	Greater
	GreaterEq
	And
	Or
	Impl
	Update
	ConcatLists
)

type BinaryOp struct {
	node
	Op          BinaryOpKind
	Left, Right Expr
}

// ConcatStrings is a run of adjacent string/path parts and interpolations
// that must be coerced and concatenated together. The parser does not
// produce it: string interpolation stays a Str with several Parts.
type ConcatStrings struct {
	node
	Parts     []Expr
	ForcePath bool // true when this concatenation builds a Path, not a String
}

// Expr is the union of every node type above, re-exported so callers
// outside this package don't need to depend on internal/value for the
// interface declaration.
type Expr = interface {
	Pos() symtab.PosIdx
}
