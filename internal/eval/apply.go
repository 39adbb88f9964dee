package eval

import (
	"github.com/agnivade/levenshtein"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/nixparse"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// Apply calls fn with arg, forcing fn (but not arg — arg stays lazy, the
// callee decides whether it ever needs to be forced) and handling every
// callable shape: a plain lambda, an attrset-destructuring lambda
// (formals, optional `...`, optional `@alias`), a primop, a partially
// applied primop, and an attrset with a `__functor` attribute. Any other
// shape is a TypeError. Satisfies value.Caller for primops.
func (ev *Evaluator) Apply(fn, arg *value.Value, pos symtab.PosIdx) (*value.Value, error) {
	release, err := ev.enterCall(pos)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := ev.Force(fn, pos); err != nil {
		return nil, err
	}

	switch fn.Kind {
	case value.KindLambda:
		return ev.callLambda(fn.Lambda, arg, pos)
	case value.KindPrimOp:
		return ev.callPrimOp(fn.Prim, []*value.Value{arg}, pos)
	case value.KindPrimOpApp:
		return ev.callPrimOpApp(fn, arg, pos)
	case value.KindAttrs:
		if slot, ok := fn.Attrs.Get(ev.Symbols.Intern("__functor")); ok {
			functor := slot.Value.(*value.Value)
			if err := ev.Force(functor, pos); err != nil {
				return nil, err
			}
			self, err := ev.Apply(functor, fn, pos)
			if err != nil {
				return nil, err
			}
			return ev.Apply(self, arg, pos)
		}
		return nil, ev.throw(errs.TypeError, pos, "attempt to call a set without a `__functor` attribute")
	default:
		return nil, ev.throw(errs.TypeError, pos, "attempt to call a %s", fn.Type())
	}
}

func (ev *Evaluator) callLambda(l *value.Lambda, arg *value.Value, pos symtab.PosIdx) (*value.Value, error) {
	n, ok := l.Node.(*nixparse.Lambda)
	if !ok {
		return nil, ev.throw(errs.EvalError, pos, "internal error: lambda node is not *nixparse.Lambda")
	}
	child := value.NewChildEnvironment(l.Env, n.NumSlots)

	if n.SimpleParam.Valid() {
		child.Bind(0, arg)
		return ev.Eval(n.Body, child)
	}

	if err := ev.Force(arg, pos); err != nil {
		return nil, err
	}
	if arg.Kind != value.KindAttrs {
		return nil, ev.throw(errs.TypeError, pos, "function expects a set, got a %s", arg.Type())
	}

	if !n.Ellipsis {
		formalSet := make(map[symtab.Symbol]bool, len(n.Formals))
		for _, f := range n.Formals {
			formalSet[f.Name] = true
		}
		var extra symtab.Symbol
		found := false
		arg.Attrs.Range(func(sym symtab.Symbol, _ symtab.PosIdx, _ *attrs.Slot) {
			if !found && !formalSet[sym] {
				extra, found = sym, true
			}
		})
		if found {
			name := ev.Symbols.Str(extra)
			if suggestion, ok := ev.suggestFormal(name, n.Formals); ok {
				return nil, ev.throw(errs.TypeError, pos, "function called with unexpected argument '%s', did you mean '%s'?", name, suggestion)
			}
			return nil, ev.throw(errs.TypeError, pos, "function called with unexpected argument '%s'", name)
		}
	}

	slot := 0
	if n.Alias.Valid() {
		child.Bind(slot, arg)
		slot++
	}
	for _, f := range n.Formals {
		if got, ok := arg.Attrs.Get(f.Name); ok {
			child.Bind(slot, got.Value.(*value.Value))
		} else if f.Default != nil {
			child.Bind(slot, ev.Thunk(f.Default, child))
		} else {
			return nil, ev.throw(errs.MissingArgument, pos, "function called without required argument '%s'", ev.Symbols.Str(f.Name))
		}
		slot++
	}
	return ev.Eval(n.Body, child)
}

// suggestFormal finds the declared formal closest (by edit distance) to
// name, for the "unexpected argument" error's "did you mean ...?" hint.
// Only a genuinely close match (distance no more than a third of the
// longer name's length, and always at least 1) is suggested — otherwise
// the hint would be more confusing than no hint at all.
func (ev *Evaluator) suggestFormal(name string, formals []nixparse.Formal) (string, bool) {
	best := ""
	bestDist := -1
	for _, f := range formals {
		candidate := ev.Symbols.Str(f.Name)
		d := levenshtein.ComputeDistance(name, candidate)
		if bestDist == -1 || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if bestDist < 0 {
		return "", false
	}
	longer := len(name)
	if len(best) > longer {
		longer = len(best)
	}
	if bestDist == 0 || bestDist*3 > longer {
		return "", false
	}
	return best, true
}

func (ev *Evaluator) callPrimOp(p *value.PrimOp, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	if len(args) < p.Arity {
		return &value.Value{Kind: value.KindPrimOpApp, App: value.PrimOpApp{Left: &value.Value{Kind: value.KindPrimOp, Prim: p}, Arg: args[0]}}, nil
	}
	return p.Fn(ev, args, pos)
}

func (ev *Evaluator) callPrimOpApp(fn *value.Value, arg *value.Value, pos symtab.PosIdx) (*value.Value, error) {
	args, prim := flattenPrimOpApp(fn)
	args = append(args, arg)
	if len(args) < prim.Arity {
		return &value.Value{Kind: value.KindPrimOpApp, App: value.PrimOpApp{Left: fn, Arg: arg}}, nil
	}
	return prim.Fn(ev, args, pos)
}

func flattenPrimOpApp(v *value.Value) ([]*value.Value, *value.PrimOp) {
	var args []*value.Value
	for v.Kind == value.KindPrimOpApp {
		args = append([]*value.Value{v.App.Arg}, args...)
		v = v.App.Left
	}
	return args, v.Prim
}

