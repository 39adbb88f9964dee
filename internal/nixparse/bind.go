package nixparse

import (
	"sort"

	"github.com/NixOS/nix-sub000/internal/env"
	"github.com/NixOS/nix-sub000/internal/symtab"
)

// Bind walks e, resolving every Var against the given root scope using
// internal/env.StaticEnv, and filling in each construct's NumSlots. It
// mutates the tree in place (the parser returns nodes it owns exclusively)
// and must run exactly once per parsed expression, before the evaluator
// ever sees it.
func Bind(e Expr, root *env.StaticEnv) {
	bindExpr(e, root)
}

func bindExpr(e Expr, se *env.StaticEnv) {
	switch n := e.(type) {
	case *Int, *Float, nil:
		return
	case *Str:
		for _, p := range n.Parts {
			if p.Expr != nil {
				bindExpr(p.Expr, se)
			}
		}
	case *Path:
		for _, p := range n.Parts {
			if p.Expr != nil {
				bindExpr(p.Expr, se)
			}
		}
	case *Var:
		ref := se.Resolve(n.Name)
		n.Resolved = ref.Found
		n.Level = ref.Level
		n.Displacement = ref.Displacement
		n.HasWithFallback = ref.HasWithFallback
	case *Select:
		bindExpr(n.Target, se)
		bindAttrPath(n.Path, se)
		if n.Default != nil {
			bindExpr(n.Default, se)
		}
	case *HasAttr:
		bindExpr(n.Target, se)
		bindAttrPath(n.Path, se)
	case *AttrSet:
		bindAttrSet(n, se)
	case *List:
		for _, el := range n.Elems {
			bindExpr(el, se)
		}
	case *Lambda:
		bindLambda(n, se)
	case *Call:
		bindExpr(n.Fun, se)
		bindExpr(n.Arg, se)
	case *Let:
		bindLet(n, se)
	case *With:
		bindExpr(n.Attrs, se)
		child := se.ChildWith()
		bindExpr(n.Body, child)
	case *If:
		bindExpr(n.Cond, se)
		bindExpr(n.Then, se)
		bindExpr(n.Else, se)
	case *Assert:
		bindExpr(n.Cond, se)
		bindExpr(n.Body, se)
	case *UnaryOp:
		bindExpr(n.Expr, se)
	case *BinaryOp:
		bindExpr(n.Left, se)
		bindExpr(n.Right, se)
	case *ConcatStrings:
		for _, p := range n.Parts {
			bindExpr(p, se)
		}
	}
}

func bindAttrPath(path []AttrPathElem, se *env.StaticEnv) {
	for _, elem := range path {
		if elem.Expr != nil {
			bindExpr(elem.Expr, se)
		}
	}
}

// bindAttrSet handles both plain and `rec` attrsets. A `rec` attrset
// introduces its own scope (its bindings can refer to each other and to
// `self`, in spirit, via their own names); a plain attrset's values are
// bound in the enclosing scope.
func bindAttrSet(n *AttrSet, se *env.StaticEnv) {
	scope := se
	if n.Rec {
		scope = se.Child()
		names := collectNames(n.Binds, n.Inherits)
		for _, nm := range names {
			scope.Declare(nm)
		}
		n.NumSlots = len(names)
	}
	for i := range n.Binds {
		bindAttrPath(n.Binds[i].Path, scope)
		bindExpr(n.Binds[i].Value, scope)
	}
	for i := range n.Inherits {
		if n.Inherits[i].From != nil {
			bindExpr(n.Inherits[i].From, se)
		} else {
			resolvePlainInheritRefs(&n.Inherits[i], se)
		}
	}
}

// resolvePlainInheritRefs resolves each name of a plain `inherit a b;`
// (no source expression) against enclosing, pre-existing scope se — the
// same scope a reference to `a` written just outside the new let/rec
// block would resolve against.
func resolvePlainInheritRefs(inh *InheritBinding, se *env.StaticEnv) {
	inh.Refs = make([]*Var, len(inh.Names))
	for i, nm := range inh.Names {
		if nm.Expr != nil {
			continue
		}
		ref := se.Resolve(nm.Name)
		inh.Refs[i] = &Var{
			node:            node{pos: inh.Pos},
			Name:            nm.Name,
			Level:           ref.Level,
			Displacement:    ref.Displacement,
			Resolved:        ref.Found,
			HasWithFallback: ref.HasWithFallback,
		}
	}
}

func collectNames(binds []Binding, inherits []InheritBinding) []symtab.Symbol {
	var names []symtab.Symbol
	for _, b := range binds {
		if len(b.Path) == 1 && b.Path[0].Expr == nil {
			names = append(names, b.Path[0].Name)
		}
	}
	for _, inh := range inherits {
		for _, n := range inh.Names {
			if n.Expr == nil {
				names = append(names, n.Name)
			}
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Less(names[j]) })
	return names
}

func bindLambda(n *Lambda, se *env.StaticEnv) {
	scope := se.Child()
	slots := 0
	if n.SimpleParam.Valid() {
		scope.Declare(n.SimpleParam)
		slots = 1
	} else {
		if n.Alias.Valid() {
			scope.Declare(n.Alias)
			slots++
		}
		for i := range n.Formals {
			scope.Declare(n.Formals[i].Name)
			slots++
			if n.Formals[i].Default != nil {
				// Defaults are evaluated in the lambda's own scope, so a
				// default may refer to a sibling formal or itself lazily.
				bindExpr(n.Formals[i].Default, scope)
			}
		}
	}
	n.NumSlots = slots
	bindExpr(n.Body, scope)
}

func bindLet(n *Let, se *env.StaticEnv) {
	scope := se.Child()
	names := collectNames(n.Binds, n.Inherits)
	for _, nm := range names {
		scope.Declare(nm)
	}
	n.NumSlots = len(names)
	for i := range n.Binds {
		bindAttrPath(n.Binds[i].Path, scope)
		bindExpr(n.Binds[i].Value, scope)
	}
	for i := range n.Inherits {
		if n.Inherits[i].From != nil {
			bindExpr(n.Inherits[i].From, se)
		} else {
			resolvePlainInheritRefs(&n.Inherits[i], se)
		}
	}
	bindExpr(n.Body, scope)
}
