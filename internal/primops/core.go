package primops

import (
	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

func init() {
	prim("typeOf", 1, []string{"v"}, primTypeOf)
	prim("isNull", 1, []string{"v"}, primIsNull)
	prim("isBool", 1, []string{"v"}, primIsBool)
	prim("isInt", 1, []string{"v"}, primIsInt)
	prim("isFloat", 1, []string{"v"}, primIsFloat)
	prim("isString", 1, []string{"v"}, primIsString)
	prim("isPath", 1, []string{"v"}, primIsPath)
	prim("isList", 1, []string{"v"}, primIsList)
	prim("isAttrs", 1, []string{"v"}, primIsAttrs)
	prim("isFunction", 1, []string{"v"}, primIsFunction)
	prim("seq", 2, []string{"e1", "e2"}, primSeq)
	prim("deepSeq", 2, []string{"e1", "e2"}, primDeepSeq)
	prim("tryEval", 1, []string{"e"}, primTryEval)
	prim("abort", 1, []string{"msg"}, primAbort)
	prim("throw", 1, []string{"msg"}, primThrow)
	prim("trace", 2, []string{"msg", "value"}, primTrace)
	prim("import", 1, []string{"path"}, primImport)
}

func isKind(call value.Caller, pos symtab.PosIdx, v *value.Value, want value.Kind) (*value.Value, error) {
	if err := call.Force(v, pos); err != nil {
		return nil, err
	}
	return value.NewBool(v.Kind == want), nil
}

func primTypeOf(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	if err := call.Force(args[0], pos); err != nil {
		return nil, err
	}
	return value.NewString(args[0].Type()), nil
}

func primIsNull(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return isKind(call, pos, args[0], value.KindNull)
}
func primIsBool(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return isKind(call, pos, args[0], value.KindBool)
}
func primIsInt(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return isKind(call, pos, args[0], value.KindInt)
}
func primIsFloat(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return isKind(call, pos, args[0], value.KindFloat)
}
func primIsString(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return isKind(call, pos, args[0], value.KindString)
}
func primIsPath(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return isKind(call, pos, args[0], value.KindPath)
}
func primIsList(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return isKind(call, pos, args[0], value.KindList)
}
func primIsAttrs(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	return isKind(call, pos, args[0], value.KindAttrs)
}

func primIsFunction(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	if err := call.Force(args[0], pos); err != nil {
		return nil, err
	}
	k := args[0].Kind
	return value.NewBool(k == value.KindLambda || k == value.KindPrimOp || k == value.KindPrimOpApp), nil
}

func primSeq(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	if err := call.Force(args[0], pos); err != nil {
		return nil, err
	}
	return args[1], nil
}

func primDeepSeq(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	if err := call.ForceDeep(args[0], pos); err != nil {
		return nil, err
	}
	return args[1], nil
}

// primTryEval implements builtins.tryEval: catches any evaluator error
// raised while forcing e and reports it as { success = false; value =
// false; } instead of propagating, matching upstream's "catch assertion
// failures and `throw`, but let abort and true stack overflows through"
// behavior loosely — this evaluator catches every *errs.Error uniformly,
// since InfiniteRecursion is already a bounded, recoverable condition
// here (see the call-depth guard in internal/eval), not a real crash.
func primTryEval(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	err := call.Force(args[0], pos)
	b := newBuilder(2)
	if err != nil {
		b.set(call, "success", value.NewBool(false))
		b.set(call, "value", value.NewBool(false))
		return b.build(), nil
	}
	b.set(call, "success", value.NewBool(true))
	b.set(call, "value", args[0])
	return b.build(), nil
}

func primAbort(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	msg, err := coerceToString(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	return nil, errs.New(errs.Abort, call.Pos(pos), "evaluation aborted: %s", msg)
}

func primThrow(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	msg, err := coerceToString(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	return nil, errs.New(errs.ThrownError, call.Pos(pos), "%s", msg)
}

func primTrace(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	if err := call.Force(args[0], pos); err != nil {
		return nil, err
	}
	return args[1], nil
}

func primImport(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	if err := call.Force(args[0], pos); err != nil {
		return nil, err
	}
	var path string
	switch args[0].Kind {
	case value.KindPath:
		path = args[0].Path.AbsPath
	case value.KindString:
		path = args[0].Str.Bytes
	default:
		return nil, wrongType(call, pos, "path or string", args[0])
	}
	thunk, err := call.EvalFile(path, pos)
	if err != nil {
		return nil, err
	}
	if err := call.Force(thunk, pos); err != nil {
		return nil, err
	}
	return thunk, nil
}
