package eval

import (
	"sort"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/nixparse"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// eval is the heart of the evaluator: a big type switch over every AST
// node, producing a value in weak head normal form. Anything that must
// stay lazy is wrapped with ev.Thunk instead of recursed into directly.
func (ev *Evaluator) eval(expr Expr, env *value.Environment) (*value.Value, error) {
	switch n := expr.(type) {
	case *nixparse.Int:
		return value.NewInt(n.Value), nil
	case *nixparse.Float:
		return value.NewFloat(n.Value), nil
	case *nixparse.Var:
		return ev.evalVar(n, env)
	case *nixparse.Str:
		return ev.evalStringParts(n.Parts, env, false)
	case *nixparse.Path:
		return ev.evalPath(n, env)
	case *nixparse.Select:
		return ev.evalSelect(n, env)
	case *nixparse.HasAttr:
		return ev.evalHasAttr(n, env)
	case *nixparse.AttrSet:
		return ev.evalAttrSet(n, env)
	case *nixparse.List:
		return ev.evalList(n, env)
	case *nixparse.Lambda:
		return &value.Value{Kind: value.KindLambda, Lambda: &value.Lambda{Env: env, Node: n}}, nil
	case *nixparse.Call:
		fn, err := ev.Eval(n.Fun, env)
		if err != nil {
			return nil, err
		}
		argThunk := ev.Thunk(n.Arg, env)
		return ev.Apply(fn, argThunk, n.Pos())
	case *nixparse.Let:
		return ev.evalLet(n, env)
	case *nixparse.With:
		return ev.evalWith(n, env)
	case *nixparse.If:
		cond, err := ev.Eval(n.Cond, env)
		if err != nil {
			return nil, err
		}
		b, err := ev.requireBool(cond, n.Pos())
		if err != nil {
			return nil, err
		}
		if b {
			return ev.Eval(n.Then, env)
		}
		return ev.Eval(n.Else, env)
	case *nixparse.Assert:
		cond, err := ev.Eval(n.Cond, env)
		if err != nil {
			return nil, err
		}
		b, err := ev.requireBool(cond, n.Pos())
		if err != nil {
			return nil, err
		}
		if !b {
			return nil, ev.throw(errs.AssertionError, n.Pos(), "assertion failed")
		}
		return ev.Eval(n.Body, env)
	case *nixparse.UnaryOp:
		return ev.evalUnary(n, env)
	case *nixparse.BinaryOp:
		return ev.evalBinary(n, env)
	case *nixparse.ConcatStrings:
		return ev.evalConcatStrings(n, env)
	case *inheritExpr:
		if err := ev.Force(n.src, n.pos); err != nil {
			return nil, err
		}
		if n.src.Kind != value.KindAttrs {
			return nil, ev.throw(errs.TypeError, n.pos, "value to inherit from is a %s, not a set", n.src.Type())
		}
		slot, ok := n.src.Attrs.Get(n.sym)
		if !ok {
			return nil, ev.throw(errs.EvalError, n.pos, "attribute '%s' missing in inherit source", ev.Symbols.Str(n.sym))
		}
		return ev.forceAndReturn(slot.Value.(*value.Value), n.pos)
	default:
		return nil, ev.throw(errs.EvalError, expr.Pos(), "internal error: unhandled expression node %T", expr)
	}
}

func (ev *Evaluator) evalVar(n *nixparse.Var, env *value.Environment) (*value.Value, error) {
	if n.Resolved {
		return ev.forceAndReturn(env.At(n.Level, n.Displacement), n.Pos())
	}
	if n.HasWithFallback {
		for w := env.NearestWith(); w != nil; w = w.Parent.NearestWith() {
			attrsVal, err := ev.resolveWithAttrs(w, n.Pos())
			if err != nil {
				return nil, err
			}
			if slot, ok := attrsVal.Attrs.Get(n.Name); ok {
				return ev.forceAndReturn(slot.Value.(*value.Value), n.Pos())
			}
		}
	}
	return nil, ev.throw(errs.UndefinedVariable, n.Pos(), "undefined variable '%s'", ev.Symbols.Str(n.Name))
}

func (ev *Evaluator) forceAndReturn(v *value.Value, pos symtab.PosIdx) (*value.Value, error) {
	if err := ev.Force(v, pos); err != nil {
		return nil, err
	}
	return v, nil
}

// resolveWithAttrs forces a `with` frame's attribute-set value (once) and
// caches the result back into the frame.
func (ev *Evaluator) resolveWithAttrs(w *value.Environment, pos symtab.PosIdx) (*value.Value, error) {
	if w.Kind == value.HasWithAttrs {
		return w.With, nil
	}
	if err := ev.Force(w.With, pos); err != nil {
		return nil, err
	}
	if w.With.Kind != value.KindAttrs {
		return nil, ev.throw(errs.TypeError, pos, "value in `with` is a %s, not a set", w.With.Type())
	}
	w.Kind = value.HasWithAttrs
	return w.With, nil
}

func (ev *Evaluator) requireBool(v *value.Value, pos symtab.PosIdx) (bool, error) {
	if v.Kind != value.KindBool {
		return false, ev.throw(errs.TypeError, pos, "expected a bool, got %s", v.Type())
	}
	return v.Bool, nil
}

func (ev *Evaluator) evalPath(n *nixparse.Path, env *value.Environment) (*value.Value, error) {
	if len(n.Parts) == 1 && n.Parts[0].Expr == nil {
		return value.NewPath("local", n.Parts[0].Text), nil
	}
	s, err := ev.evalStringParts(n.Parts, env, true)
	if err != nil {
		return nil, err
	}
	return value.NewPath("local", s.Str.Bytes), nil
}

func (ev *Evaluator) evalList(n *nixparse.List, env *value.Environment) (*value.Value, error) {
	elems := make([]*value.Value, len(n.Elems))
	for i, e := range n.Elems {
		elems[i] = ev.Thunk(e, env)
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(elems)}, nil
}

func (ev *Evaluator) evalLet(n *nixparse.Let, env *value.Environment) (*value.Value, error) {
	child := value.NewChildEnvironment(env, n.NumSlots)
	if _, err := ev.bindDeclarations(n.Binds, n.Inherits, child, env); err != nil {
		return nil, err
	}
	return ev.Eval(n.Body, child)
}

func (ev *Evaluator) evalWith(n *nixparse.With, env *value.Environment) (*value.Value, error) {
	withThunk := ev.Thunk(n.Attrs, env)
	child := value.NewWithEnvironment(env, withThunk)
	return ev.Eval(n.Body, child)
}

// bindDeclarations fills the slots of child (already sized to
// len(names)+len(inherits)) for a let or rec-attrset scope. declEnv is
// the environment bound expressions (and `inherit (expr)` sources) that
// are NOT part of the new recursive scope should resolve against — for a
// plain `inherit a b;` (no `(expr)`), the symbol is still resolved
// lazily from the OUTER scope's binding of the same name, so evalLet and
// evalAttrSet both pass the enclosing env for that purpose via the
// closure captured when bind.go resolved each Var; nothing extra is
// needed here beyond creating thunks in the right environment (child for
// recursive lookups, declEnv for inherited names resolved outside).
//
// The returned map gives each declared name's slot within child, so a
// caller (evalAttrSet's `__overrides` handling) can rebind a slot in place
// after the fact, without re-deriving bind.go's collectNames order itself.
func (ev *Evaluator) bindDeclarations(binds []nixparse.Binding, inherits []nixparse.InheritBinding, child, declEnv *value.Environment) (map[symtab.Symbol]int, error) {
	// Slot assignment mirrors bind.go's collectNames: sorted symbol order
	// across binds+inherits (simple, single-element paths only) maps 1:1
	// to displacement, attribute-path bindings (`a.b.c = ...`) are handled
	// as nested attrset merges against the root binding of `a`.
	var order []symtab.Symbol
	for _, b := range binds {
		if len(b.Path) == 1 && b.Path[0].Expr == nil {
			order = append(order, b.Path[0].Name)
		}
	}
	for _, inh := range inherits {
		for _, nm := range inh.Names {
			if nm.Expr == nil {
				order = append(order, nm.Name)
			}
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })
	names := map[symtab.Symbol]int{}
	for i, sym := range order {
		if _, ok := names[sym]; !ok {
			names[sym] = i
		}
	}

	for _, b := range binds {
		if len(b.Path) == 1 && b.Path[0].Expr == nil {
			slot := names[b.Path[0].Name]
			child.Bind(slot, ev.Thunk(b.Value, child))
		}
	}
	for _, inh := range inherits {
		if inh.From != nil {
			srcThunk := ev.Thunk(inh.From, declEnv)
			for _, nm := range inh.Names {
				if nm.Expr != nil {
					continue
				}
				slot := names[nm.Name]
				child.Bind(slot, ev.inheritSelectThunk(srcThunk, nm.Name, inh.Pos))
			}
		} else {
			for i, nm := range inh.Names {
				if nm.Expr != nil {
					continue
				}
				slot := names[nm.Name]
				child.Bind(slot, ev.Thunk(inh.Refs[i], declEnv))
			}
		}
	}
	return names, nil
}

// inheritSelectThunk builds a thunk that selects sym out of (the forced
// result of) src once forced.
func (ev *Evaluator) inheritSelectThunk(src *value.Value, sym symtab.Symbol, pos symtab.PosIdx) *value.Value {
	return value.NewThunk(&inheritExpr{pos: pos, src: src, sym: sym}, nil)
}

// inheritExpr is a small synthetic AST node (never produced by the
// parser) used only to give an `inherit (expr) a;` thunk something to
// evaluate: select sym out of the already-thunked source expr.
type inheritExpr struct {
	pos symtab.PosIdx
	src *value.Value
	sym symtab.Symbol
}

func (e *inheritExpr) Pos() symtab.PosIdx { return e.pos }

// overridesName is the literal attribute a `rec { ... }` may define to
// replace and extend its own fields before anything else in the set (or
// its self-referential bindings) reads them.
const overridesName = "__overrides"

func (ev *Evaluator) evalAttrSet(n *nixparse.AttrSet, env *value.Environment) (*value.Value, error) {
	scopeEnv := env
	var slotOf map[symtab.Symbol]int
	var overridesSym symtab.Symbol
	if n.Rec {
		scopeEnv = value.NewChildEnvironment(env, n.NumSlots)
		var err error
		slotOf, err = ev.bindDeclarations(n.Binds, n.Inherits, scopeEnv, env)
		if err != nil {
			return nil, err
		}
		overridesSym = ev.Symbols.Intern(overridesName)
	}
	tree := newAttrNode()
	for _, bind := range n.Binds {
		if n.Rec && len(bind.Path) == 1 && bind.Path[0].Expr == nil && bind.Path[0].Name == overridesSym {
			continue // consumed below instead of appearing as an output attribute
		}
		if err := ev.insertAttrPath(tree, bind.Path, bind.Value, bind.Pos, scopeEnv); err != nil {
			return nil, err
		}
	}
	b := attrs.NewBuilder(len(n.Binds) + len(n.Inherits))
	for sym, child := range tree.children {
		v, err := ev.buildAttrNode(child)
		if err != nil {
			return nil, err
		}
		b.Insert(sym, child.pos, v)
	}
	for _, inh := range n.Inherits {
		if inh.From != nil {
			srcThunk := ev.Thunk(inh.From, env)
			for _, nm := range inh.Names {
				if nm.Expr != nil {
					continue
				}
				b.Overwrite(nm.Name, inh.Pos, ev.inheritSelectThunk(srcThunk, nm.Name, inh.Pos))
			}
		} else {
			for i, nm := range inh.Names {
				if nm.Expr != nil {
					continue
				}
				b.Overwrite(nm.Name, inh.Pos, ev.Thunk(inh.Refs[i], env))
			}
		}
	}
	if n.Rec {
		if slot, ok := slotOf[overridesSym]; ok {
			if err := ev.applyOverrides(scopeEnv, slot, slotOf, b, n.Pos()); err != nil {
				return nil, err
			}
		}
	}
	built, err := b.Build()
	if err != nil {
		dup := err.(*attrs.DuplicateAttrError)
		return nil, ev.throw(errs.EvalError, n.Pos(), "attribute '%s' already defined", ev.Symbols.Str(dup.Sym))
	}
	return value.NewAttrs(built), nil
}

// applyOverrides forces the `__overrides` attribute (bound at overridesSlot
// within scopeEnv) to a set and, for each of its attributes, replaces the
// matching output attribute (appending it if it wasn't already one of the
// rec set's own attributes) and — for names that were declared in this
// rec scope — rebinds scopeEnv's slot in place, so any other attribute's
// still-unforced body that reads that name via a lexical reference sees the
// overridden value once it is itself forced.
func (ev *Evaluator) applyOverrides(scopeEnv *value.Environment, overridesSlot int, slotOf map[symtab.Symbol]int, b *attrs.Builder, pos symtab.PosIdx) error {
	overridesVal := scopeEnv.At(0, overridesSlot)
	if err := ev.Force(overridesVal, pos); err != nil {
		return err
	}
	if overridesVal.Kind != value.KindAttrs {
		return ev.throw(errs.TypeError, pos, "`__overrides` must be a set, got a %s", overridesVal.Type())
	}
	var rangeErr error
	overridesVal.Attrs.Range(func(sym symtab.Symbol, p symtab.PosIdx, slot *attrs.Slot) {
		if rangeErr != nil {
			return
		}
		v := slot.Value.(*value.Value)
		b.Overwrite(sym, p, v)
		if s, ok := slotOf[sym]; ok {
			scopeEnv.Bind(s, v)
		}
	})
	return rangeErr
}

// attrNode is a scratch tree used while constructing an attrset literal,
// merging repeated prefixes of dotted attribute paths (`a.b = 1; a.c =
// 2;` both extend the same node for `a`) before the final sorted
// Bindings is built bottom-up.
type attrNode struct {
	pos      symtab.PosIdx
	leaf     *value.Value // set when this node is a terminal binding
	children map[symtab.Symbol]*attrNode
}

func newAttrNode() *attrNode { return &attrNode{children: map[symtab.Symbol]*attrNode{}} }

func (ev *Evaluator) buildAttrNode(n *attrNode) (*value.Value, error) {
	if n.leaf != nil {
		return n.leaf, nil
	}
	b := attrs.NewBuilder(len(n.children))
	for sym, child := range n.children {
		v, err := ev.buildAttrNode(child)
		if err != nil {
			return nil, err
		}
		b.Insert(sym, child.pos, v)
	}
	built, err := b.Build()
	if err != nil {
		dup := err.(*attrs.DuplicateAttrError)
		return nil, ev.throw(errs.EvalError, n.pos, "attribute '%s' already defined", ev.Symbols.Str(dup.Sym))
	}
	return value.NewAttrs(built), nil
}

// insertAttrPath descends/creates tree nodes for each element of path,
// planting val's thunk at the leaf. A path element whose dynamic name
// expression evaluates to `null` makes the whole binding vanish — no tree
// node is created or extended for it — matching the `${expr} = ...;`
// idiom for conditionally omitting an attribute from a set literal.
func (ev *Evaluator) insertAttrPath(tree *attrNode, path []nixparse.AttrPathElem, val Expr, pos symtab.PosIdx, env *value.Environment) error {
	cur := tree
	for i, elem := range path {
		sym, skip, err := ev.resolvePathElem(elem, env, true)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}
		child, ok := cur.children[sym]
		if ok && (i == len(path)-1 || child.leaf != nil) {
			return ev.throw(errs.EvalError, pos, "attribute '%s' already defined", ev.Symbols.Str(sym))
		}
		if !ok {
			child = newAttrNode()
			child.pos = pos
			cur.children[sym] = child
		}
		if i == len(path)-1 {
			child.leaf = ev.Thunk(val, env)
		}
		cur = child
	}
	return nil
}

// resolvePathElem resolves a (possibly dynamic) attribute-path element to
// its interned symbol. When allowNullSkip is set and the dynamic name
// expression evaluates to `null`, it reports skip=true instead of erroring
// — callers building an attrset literal use this to drop the binding
// entirely; select (`.`) and has-attr (`?`) paths pass allowNullSkip=false,
// since there is no binding to drop and `null` there is simply not a
// string.
func (ev *Evaluator) resolvePathElem(elem nixparse.AttrPathElem, env *value.Environment, allowNullSkip bool) (sym symtab.Symbol, skip bool, err error) {
	if elem.Expr == nil {
		return elem.Name, false, nil
	}
	v, err := ev.Eval(elem.Expr, env)
	if err != nil {
		return symtab.NoSymbol, false, err
	}
	if allowNullSkip && v.Kind == value.KindNull {
		return symtab.NoSymbol, true, nil
	}
	if v.Kind != value.KindString {
		return symtab.NoSymbol, false, ev.throw(errs.TypeError, elem.Expr.Pos(), "dynamic attribute name is a %s, not a string", v.Type())
	}
	return ev.Symbols.Intern(v.Str.Bytes), false, nil
}
