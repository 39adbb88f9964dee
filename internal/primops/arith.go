package primops

import (
	"math"

	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

func init() {
	prim("add", 2, []string{"x", "y"}, primAdd)
	prim("sub", 2, []string{"x", "y"}, primSub)
	prim("mul", 2, []string{"x", "y"}, primMul)
	prim("div", 2, []string{"x", "y"}, primDiv)
	prim("lessThan", 2, []string{"x", "y"}, primLessThan)
	prim("floor", 1, []string{"x"}, primFloor)
	prim("ceil", 1, []string{"x"}, primCeil)
	prim("abs", 1, []string{"x"}, primAbs)
	prim("bitAnd", 2, []string{"x", "y"}, primBitAnd)
	prim("bitOr", 2, []string{"x", "y"}, primBitOr)
	prim("bitXor", 2, []string{"x", "y"}, primBitXor)
}

func numeric(call value.Caller, pos symtab.PosIdx, v *value.Value) (float64, bool, error) {
	if _, err := force(call, v, pos); err != nil {
		return 0, false, err
	}
	switch v.Kind {
	case value.KindInt:
		return float64(v.Int), true, nil
	case value.KindFloat:
		return float64(v.Float), false, nil
	}
	return 0, false, wrongType(call, pos, "int or float", v)
}

func primAdd(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return arith2(call, args, pos, "+")
}
func primSub(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return arith2(call, args, pos, "-")
}
func primMul(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return arith2(call, args, pos, "*")
}
func primDiv(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return arith2(call, args, pos, "/")
}

// arith2 mirrors eval/operators.go's evalArith but starting from already
// forced args rather than unevaluated AST nodes — builtins.add/sub/mul/div
// are ordinary strict functions, not the lazy infix operators.
func arith2(call value.Caller, args []*value.Value, pos symtab.PosIdx, op string) (*value.Value, error) {
	a, b := args[0], args[1]
	af, aIsInt, err := numeric(call, pos, a)
	if err != nil {
		return nil, err
	}
	bf, bIsInt, err := numeric(call, pos, b)
	if err != nil {
		return nil, err
	}
	if aIsInt && bIsInt {
		return intArith2(a.Int, b.Int, op, call, pos)
	}
	switch op {
	case "+":
		return value.NewFloat(af + bf), nil
	case "-":
		return value.NewFloat(af - bf), nil
	case "*":
		return value.NewFloat(af * bf), nil
	case "/":
		if bf == 0 {
			return nil, errs.New(errs.EvalError, call.Pos(pos), "division by zero")
		}
		return value.NewFloat(af / bf), nil
	}
	return nil, errs.New(errs.EvalError, call.Pos(pos), "internal error: bad arith op %q", op)
}

func intArith2(a, b int64, op string, call value.Caller, pos symtab.PosIdx) (*value.Value, error) {
	switch op {
	case "+":
		sum := a + b
		if (b > 0 && sum < a) || (b < 0 && sum > a) {
			return nil, errs.New(errs.EvalError, call.Pos(pos), "integer overflow in addition")
		}
		return value.NewInt(sum), nil
	case "-":
		diff := a - b
		if (b < 0 && diff < a) || (b > 0 && diff > a) {
			return nil, errs.New(errs.EvalError, call.Pos(pos), "integer overflow in subtraction")
		}
		return value.NewInt(diff), nil
	case "*":
		if a == 0 || b == 0 {
			return value.NewInt(0), nil
		}
		prod := a * b
		if prod/b != a || (a == -1 && b == math.MinInt64) {
			return nil, errs.New(errs.EvalError, call.Pos(pos), "integer overflow in multiplication")
		}
		return value.NewInt(prod), nil
	case "/":
		if b == 0 {
			return nil, errs.New(errs.EvalError, call.Pos(pos), "division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return nil, errs.New(errs.EvalError, call.Pos(pos), "integer overflow in division")
		}
		return value.NewInt(a / b), nil
	}
	return nil, errs.New(errs.EvalError, call.Pos(pos), "internal error: bad int arith op %q", op)
}

func primLessThan(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	cmp, err := compareValues(call, args[0], args[1], pos)
	if err != nil {
		return nil, err
	}
	return value.NewBool(cmp < 0), nil
}

// compareValues duplicates eval/operators.go's compareValues against the
// value.Caller surface rather than *eval.Evaluator, so this package never
// imports internal/eval.
func compareValues(call value.Caller, l, r *value.Value, pos symtab.PosIdx) (int, error) {
	if _, err := force(call, l, pos); err != nil {
		return 0, err
	}
	if _, err := force(call, r, pos); err != nil {
		return 0, err
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
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
			c, err := compareValues(call, l.List.At(i), r.List.At(i), pos)
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
	return 0, wrongType(call, pos, "orderable value of the same type as its argument", r)
}

func asFloat(v *value.Value) (float64, bool) {
	switch v.Kind {
	case value.KindInt:
		return float64(v.Int), true
	case value.KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

func primFloor(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	f, isInt, err := numeric(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	if isInt {
		return value.NewInt(int64(f)), nil
	}
	return value.NewInt(int64(math.Floor(f))), nil
}

func primCeil(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	f, isInt, err := numeric(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	if isInt {
		return value.NewInt(int64(f)), nil
	}
	return value.NewInt(int64(math.Ceil(f))), nil
}

func primAbs(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	v := args[0]
	if _, err := force(call, v, pos); err != nil {
		return nil, err
	}
	switch v.Kind {
	case value.KindInt:
		if v.Int < 0 {
			return value.NewInt(-v.Int), nil
		}
		return v, nil
	case value.KindFloat:
		return value.NewFloat(math.Abs(v.Float)), nil
	}
	return nil, wrongType(call, pos, "int or float", v)
}

func primBitAnd(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	a, err := requireInt(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	b, err := requireInt(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	return value.NewInt(a & b), nil
}

func primBitOr(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	a, err := requireInt(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	b, err := requireInt(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	return value.NewInt(a | b), nil
}

func primBitXor(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	a, err := requireInt(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	b, err := requireInt(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	return value.NewInt(a ^ b), nil
}
