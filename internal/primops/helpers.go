package primops

import (
	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// prim registers a PrimOp under name with the given arity and argument
// names (used only for introspection/error messages), then returns it —
// every concern file's init() calls this once per builtin it contributes.
func prim(name string, arity int, argNames []string, fn value.PrimOpFunc) *value.PrimOp {
	return register(&value.PrimOp{Name: name, Arity: arity, ArgNames: argNames, Fn: fn})
}

// force is a small convenience wrapper so primop bodies read "force(call,
// v, pos)" instead of repeating the if-err-return boilerplate inline;
// it still returns the (now finished) value for chaining.
func force(call value.Caller, v *value.Value, pos symtab.PosIdx) (*value.Value, error) {
	if err := call.Force(v, pos); err != nil {
		return nil, err
	}
	return v, nil
}

func wrongType(call value.Caller, pos symtab.PosIdx, want string, got *value.Value) error {
	return errs.New(errs.TypeError, call.Pos(pos), "value is a %s while a %s was expected", got.Type(), want)
}

func requireKind(call value.Caller, pos symtab.PosIdx, v *value.Value, kind value.Kind, want string) error {
	if v.Kind != kind {
		return wrongType(call, pos, want, v)
	}
	return nil
}

func requireInt(call value.Caller, pos symtab.PosIdx, v *value.Value) (int64, error) {
	if _, err := force(call, v, pos); err != nil {
		return 0, err
	}
	if v.Kind != value.KindInt {
		return 0, wrongType(call, pos, "int", v)
	}
	return v.Int, nil
}

func requireString(call value.Caller, pos symtab.PosIdx, v *value.Value) (string, error) {
	if _, err := force(call, v, pos); err != nil {
		return "", err
	}
	if v.Kind != value.KindString {
		return "", wrongType(call, pos, "string", v)
	}
	return v.Str.Bytes, nil
}

func requireList(call value.Caller, pos symtab.PosIdx, v *value.Value) (value.List, error) {
	if _, err := force(call, v, pos); err != nil {
		return value.List{}, err
	}
	if v.Kind != value.KindList {
		return value.List{}, wrongType(call, pos, "list", v)
	}
	return v.List, nil
}

func requireAttrs(call value.Caller, pos symtab.PosIdx, v *value.Value) (*value.Value, error) {
	if _, err := force(call, v, pos); err != nil {
		return nil, err
	}
	if v.Kind != value.KindAttrs {
		return nil, wrongType(call, pos, "set", v)
	}
	return v, nil
}

// coerceToString implements the subset of the evaluator's string
// coercion rules primops need (builtins.toString and anything that
// accepts "a string or a path or an int/float/bool/null"). It returns
// only the string; any context the value carries is dropped.
func coerceToString(call value.Caller, pos symtab.PosIdx, v *value.Value) (string, error) {
	if _, err := force(call, v, pos); err != nil {
		return "", err
	}
	switch v.Kind {
	case value.KindString:
		return v.Str.Bytes, nil
	case value.KindPath:
		return v.Path.AbsPath, nil
	case value.KindInt:
		return value.NewInt(v.Int).String(), nil
	case value.KindFloat:
		return value.NewFloat(v.Float).String(), nil
	case value.KindBool:
		if v.Bool {
			return "1", nil
		}
		return "", nil
	case value.KindNull:
		return "", nil
	case value.KindAttrs:
		if slot, ok := v.Attrs.Get(call.Intern("outPath")); ok {
			return coerceToString(call, pos, slotValue(slot))
		}
	}
	return "", wrongType(call, pos, "string-coercible value", v)
}

func requireBool(call value.Caller, pos symtab.PosIdx, v *value.Value) (bool, error) {
	if _, err := force(call, v, pos); err != nil {
		return false, err
	}
	if v.Kind != value.KindBool {
		return false, wrongType(call, pos, "bool", v)
	}
	return v.Bool, nil
}
