package eval

import (
	"math"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/nixparse"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

func (ev *Evaluator) evalUnary(n *nixparse.UnaryOp, env *value.Environment) (*value.Value, error) {
	v, err := ev.Eval(n.Expr, env)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case nixparse.Not:
		b, err := ev.requireBool(v, n.Pos())
		if err != nil {
			return nil, err
		}
		return value.NewBool(!b), nil
	case nixparse.Neg:
		switch v.Kind {
		case value.KindInt:
			return value.NewInt(-v.Int), nil
		case value.KindFloat:
			return value.NewFloat(-v.Float), nil
		default:
			return nil, ev.throw(errs.TypeError, n.Pos(), "cannot negate a %s", v.Type())
		}
	}
	return nil, ev.throw(errs.EvalError, n.Pos(), "internal error: unhandled unary operator")
}

// evalBinary dispatches every infix operator. `&&`, `||`, `->`, and `//`
// evaluate their operands lazily (short-circuiting or deferring a forced
// evaluation until genuinely needed); the rest force both sides eagerly,
// which is sound because an infix operator's result always depends on
// both operands' values.
func (ev *Evaluator) evalBinary(n *nixparse.BinaryOp, env *value.Environment) (*value.Value, error) {
	switch n.Op {
	case nixparse.And:
		l, err := ev.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		lb, err := ev.requireBool(l, n.Pos())
		if err != nil {
			return nil, err
		}
		if !lb {
			return value.NewBool(false), nil
		}
		r, err := ev.Eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		rb, err := ev.requireBool(r, n.Pos())
		return value.NewBool(rb), err
	case nixparse.Or:
		l, err := ev.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		lb, err := ev.requireBool(l, n.Pos())
		if err != nil {
			return nil, err
		}
		if lb {
			return value.NewBool(true), nil
		}
		r, err := ev.Eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		rb, err := ev.requireBool(r, n.Pos())
		return value.NewBool(rb), err
	case nixparse.Impl:
		l, err := ev.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		lb, err := ev.requireBool(l, n.Pos())
		if err != nil {
			return nil, err
		}
		if !lb {
			return value.NewBool(true), nil
		}
		r, err := ev.Eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		rb, err := ev.requireBool(r, n.Pos())
		return value.NewBool(rb), err
	case nixparse.Update:
		l, err := ev.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		r, err := ev.Eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		if l.Kind != value.KindAttrs {
			return nil, ev.throw(errs.TypeError, n.Pos(), "left side of `//` is a %s, not a set", l.Type())
		}
		if r.Kind != value.KindAttrs {
			return nil, ev.throw(errs.TypeError, n.Pos(), "right side of `//` is a %s, not a set", r.Type())
		}
		return value.NewAttrs(attrs.Update(l.Attrs, r.Attrs)), nil
	case nixparse.ConcatLists:
		l, err := ev.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		r, err := ev.Eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		if l.Kind != value.KindList {
			return nil, ev.throw(errs.TypeError, n.Pos(), "left side of `++` is a %s, not a list", l.Type())
		}
		if r.Kind != value.KindList {
			return nil, ev.throw(errs.TypeError, n.Pos(), "right side of `++` is a %s, not a list", r.Type())
		}
		return &value.Value{Kind: value.KindList, List: value.Concat(l.List, r.List)}, nil
	case nixparse.Eq, nixparse.NEq:
		l, err := ev.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		r, err := ev.Eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		eq, err := ev.EqValues(l, r, n.Pos())
		if err != nil {
			return nil, err
		}
		if n.Op == nixparse.NEq {
			eq = !eq
		}
		return value.NewBool(eq), nil
	case nixparse.Add:
		return ev.evalArith(n, env, "+")
	case nixparse.Sub:
		return ev.evalArith(n, env, "-")
	case nixparse.Mul:
		return ev.evalArith(n, env, "*")
	case nixparse.Div:
		return ev.evalArith(n, env, "/")
	case nixparse.Less, nixparse.LessEq, nixparse.Greater, nixparse.GreaterEq:
		return ev.evalCompare(n, env)
	}
	return nil, ev.throw(errs.EvalError, n.Pos(), "internal error: unhandled binary operator")
}

// evalArith implements +, -, *, / with Nix's type-dependent behavior:
// int op int stays int (checked for overflow), any float operand
// promotes to float, and `+` on two strings/paths is concatenation
// (handled by coerce.go's ConcatStrings path instead — this function
// only ever sees Add for numeric operands, string/path "+" is rewritten
// to ConcatStrings by the parser's desugaring... since this minimal
// parser does not desugar, "+" between strings falls through to the
// string-concat branch below as well).
func (ev *Evaluator) evalArith(n *nixparse.BinaryOp, env *value.Environment, op string) (*value.Value, error) {
	l, err := ev.Eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	r, err := ev.Eval(n.Right, env)
	if err != nil {
		return nil, err
	}
	if op == "+" && (l.Kind == value.KindString || l.Kind == value.KindPath) {
		return ev.concatStringLike(l, r, n.Pos())
	}
	if l.Kind == value.KindInt && r.Kind == value.KindInt {
		return ev.intArith(l.Int, r.Int, op, n.Pos())
	}
	lf, lok := numericAsFloat(l)
	rf, rok := numericAsFloat(r)
	if !lok {
		return nil, ev.throw(errs.TypeError, n.Pos(), "left operand of `%s` is a %s, not a number", op, l.Type())
	}
	if !rok {
		return nil, ev.throw(errs.TypeError, n.Pos(), "right operand of `%s` is a %s, not a number", op, r.Type())
	}
	switch op {
	case "+":
		return value.NewFloat(lf + rf), nil
	case "-":
		return value.NewFloat(lf - rf), nil
	case "*":
		return value.NewFloat(lf * rf), nil
	case "/":
		if rf == 0 {
			return nil, ev.throw(errs.EvalError, n.Pos(), "division by zero")
		}
		return value.NewFloat(lf / rf), nil
	}
	return nil, ev.throw(errs.EvalError, n.Pos(), "internal error: bad arith op")
}

func numericAsFloat(v *value.Value) (float64, bool) {
	switch v.Kind {
	case value.KindInt:
		return float64(v.Int), true
	case value.KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// intArith performs checked 64-bit integer arithmetic, raising an
// EvalError on overflow rather than wrapping — see DESIGN.md's
// resolution of the integer-representation open question.
func (ev *Evaluator) intArith(a, b int64, op string, pos symtab.PosIdx) (*value.Value, error) {
	switch op {
	case "+":
		sum := a + b
		if (b > 0 && sum < a) || (b < 0 && sum > a) {
			return nil, ev.throw(errs.EvalError, pos, "integer overflow in addition")
		}
		return value.NewInt(sum), nil
	case "-":
		diff := a - b
		if (b < 0 && diff < a) || (b > 0 && diff > a) {
			return nil, ev.throw(errs.EvalError, pos, "integer overflow in subtraction")
		}
		return value.NewInt(diff), nil
	case "*":
		if a == 0 || b == 0 {
			return value.NewInt(0), nil
		}
		prod := a * b
		if prod/b != a || (a == -1 && b == math.MinInt64) {
			return nil, ev.throw(errs.EvalError, pos, "integer overflow in multiplication")
		}
		return value.NewInt(prod), nil
	case "/":
		if b == 0 {
			return nil, ev.throw(errs.EvalError, pos, "division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return nil, ev.throw(errs.EvalError, pos, "integer overflow in division")
		}
		return value.NewInt(a / b), nil
	}
	return nil, ev.throw(errs.EvalError, pos, "internal error: bad int arith op")
}

func (ev *Evaluator) evalCompare(n *nixparse.BinaryOp, env *value.Environment) (*value.Value, error) {
	l, err := ev.Eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	r, err := ev.Eval(n.Right, env)
	if err != nil {
		return nil, err
	}
	cmp, err := ev.compareValues(l, r, n.Pos())
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case nixparse.Less:
		return value.NewBool(cmp < 0), nil
	case nixparse.LessEq:
		return value.NewBool(cmp <= 0), nil
	case nixparse.Greater:
		return value.NewBool(cmp > 0), nil
	case nixparse.GreaterEq:
		return value.NewBool(cmp >= 0), nil
	}
	return nil, ev.throw(errs.EvalError, n.Pos(), "internal error: bad comparison op")
}

// compareValues implements Nix's total order over ints/floats, strings,
// and lists (lexicographic). Any other type combination is a TypeError.
func (ev *Evaluator) compareValues(l, r *value.Value, pos symtab.PosIdx) (int, error) {
	lf, lok := numericAsFloat(l)
	rf, rok := numericAsFloat(r)
	if lok && rok {
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if l.Kind == value.KindString && r.Kind == value.KindString {
		switch {
		case l.Str.Bytes < r.Str.Bytes:
			return -1, nil
		case l.Str.Bytes > r.Str.Bytes:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if l.Kind == value.KindList && r.Kind == value.KindList {
		for i := 0; i < l.List.Len() && i < r.List.Len(); i++ {
			a, b := l.List.At(i), r.List.At(i)
			if err := ev.Force(a, pos); err != nil {
				return 0, err
			}
			if err := ev.Force(b, pos); err != nil {
				return 0, err
			}
			c, err := ev.compareValues(a, b, pos)
			if err != nil {
				return 0, err
			}
			if c != 0 {
				return c, nil
			}
		}
		switch {
		case l.List.Len() < r.List.Len():
			return -1, nil
		case l.List.Len() > r.List.Len():
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, ev.throw(errs.TypeError, pos, "cannot compare a %s with a %s", l.Type(), r.Type())
}
