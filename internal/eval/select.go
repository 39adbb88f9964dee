package eval

import (
	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/nixparse"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// evalSelect evaluates `target.a.b.c` or `target.a.b.c or default`.
// Each intermediate attrset in the path is forced (selection needs to
// know the shape of the set to descend further); the default branch, if
// present, short-circuits any missing-attribute error along the path.
func (ev *Evaluator) evalSelect(n *nixparse.Select, env *value.Environment) (*value.Value, error) {
	cur, err := ev.Eval(n.Target, env)
	if err != nil {
		if n.Default != nil {
			return ev.Eval(n.Default, env)
		}
		return nil, err
	}
	for _, elem := range n.Path {
		sym, _, serr := ev.resolvePathElem(elem, env, false)
		if serr != nil {
			if n.Default != nil {
				return ev.Eval(n.Default, env)
			}
			return nil, serr
		}
		if cur.Kind != value.KindAttrs {
			if n.Default != nil {
				return ev.Eval(n.Default, env)
			}
			return nil, ev.throw(errs.TypeError, n.Pos(), "cannot select attribute '%s' from a %s", ev.Symbols.Str(sym), cur.Type())
		}
		slot, ok := cur.Attrs.Get(sym)
		if !ok {
			if n.Default != nil {
				return ev.Eval(n.Default, env)
			}
			return nil, ev.throw(errs.EvalError, n.Pos(), "attribute '%s' missing, candidates: %v", ev.Symbols.Str(sym), value.AttrNames(cur.Attrs, ev.Symbols))
		}
		next := slot.Value.(*value.Value)
		if err := ev.Force(next, n.Pos()); err != nil {
			if n.Default != nil {
				return ev.Eval(n.Default, env)
			}
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// evalHasAttr evaluates `target ? a.b.c`: true iff every element of the
// path can be descended into without error. Never forces Default (there
// is none) and never propagates a missing-attribute error — that's
// exactly what `?` is for.
func (ev *Evaluator) evalHasAttr(n *nixparse.HasAttr, env *value.Environment) (*value.Value, error) {
	cur, err := ev.Eval(n.Target, env)
	if err != nil {
		return nil, err
	}
	for _, elem := range n.Path {
		if cur.Kind != value.KindAttrs {
			return value.NewBool(false), nil
		}
		sym, _, serr := ev.resolvePathElem(elem, env, false)
		if serr != nil {
			return nil, serr
		}
		slot, ok := cur.Attrs.Get(sym)
		if !ok {
			return value.NewBool(false), nil
		}
		next := slot.Value.(*value.Value)
		if err := ev.Force(next, n.Pos()); err != nil {
			return nil, err
		}
		cur = next
	}
	return value.NewBool(true), nil
}

// HasAttrSym is a convenience used by primops (builtins.hasAttr) that
// already have a forced attrset and an interned name, bypassing attrpath
// parsing.
func HasAttrSym(a *attrs.Bindings, sym symtab.Symbol) bool { return a.Has(sym) }
