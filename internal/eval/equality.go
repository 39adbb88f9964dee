package eval

import (
	"fmt"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// EqValues implements the evaluator's deep structural equality
// (`==`/`!=`): ints compare equal to floats of the same numeric value,
// attrsets and lists compare element-wise, and two function values are
// NEVER equal — not even to themselves, matching the language's rule
// that functions carry no meaningful identity for comparison.
func (ev *Evaluator) EqValues(a, b *value.Value, pos symtab.PosIdx) (bool, error) {
	if err := ev.Force(a, pos); err != nil {
		return false, err
	}
	if err := ev.Force(b, pos); err != nil {
		return false, err
	}
	switch {
	case a.Kind == value.KindLambda || a.Kind == value.KindPrimOp || a.Kind == value.KindPrimOpApp:
		return false, nil
	case b.Kind == value.KindLambda || b.Kind == value.KindPrimOp || b.Kind == value.KindPrimOpApp:
		return false, nil
	}
	lf, lok := numericAsFloat(a)
	rf, rok := numericAsFloat(b)
	if lok && rok {
		return lf == rf, nil
	}
	if a.Kind != b.Kind {
		return false, nil
	}
	switch a.Kind {
	case value.KindBool:
		return a.Bool == b.Bool, nil
	case value.KindNull:
		return true, nil
	case value.KindString:
		return a.Str.Bytes == b.Str.Bytes, nil
	case value.KindPath:
		return a.Path.AbsPath == b.Path.AbsPath, nil
	case value.KindList:
		if a.List.Len() != b.List.Len() {
			return false, nil
		}
		for i := 0; i < a.List.Len(); i++ {
			eq, err := ev.EqValues(a.List.At(i), b.List.At(i), pos)
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	case value.KindAttrs:
		// Two derivations compare equal iff their outPath matches, regardless
		// of any other attribute — matching upstream's special-cased
		// derivation equality rather than structural attrset comparison.
		aIsDrv, _, aOutPath, _, err := ev.uncachedDerivationInfo(a, pos)
		if err != nil {
			return false, err
		}
		bIsDrv, _, bOutPath, _, err := ev.uncachedDerivationInfo(b, pos)
		if err != nil {
			return false, err
		}
		if aIsDrv && bIsDrv {
			return aOutPath == bOutPath, nil
		}
		if a.Attrs.Len() != b.Attrs.Len() {
			return false, nil
		}
		eq := true
		var ferr error
		a.Attrs.Range(func(sym symtab.Symbol, _ symtab.PosIdx, slot *attrs.Slot) {
			if !eq || ferr != nil {
				return
			}
			bs, ok := b.Attrs.Get(sym)
			if !ok {
				eq = false
				return
			}
			e, err := ev.EqValues(slot.Value.(*value.Value), bs.Value.(*value.Value), pos)
			if err != nil {
				ferr = err
				return
			}
			eq = e
		})
		return eq, ferr
	default:
		return false, nil
	}
}

// Diff describes one element-level disagreement found by AssertEqValues,
// for building a helpful assertion-failure message.
type Diff struct {
	Path string
	Left, Right string
}

// AssertEqValues is like EqValues but, on inequality, also returns a
// human-readable Diff pinpointing where the two values first disagree.
// `==` itself goes through EqValues, not this function.
func (ev *Evaluator) AssertEqValues(a, b *value.Value, pos symtab.PosIdx) (bool, *Diff, error) {
	return ev.assertEqAt(a, b, pos, "")
}

func (ev *Evaluator) assertEqAt(a, b *value.Value, pos symtab.PosIdx, path string) (bool, *Diff, error) {
	if err := ev.Force(a, pos); err != nil {
		return false, nil, err
	}
	if err := ev.Force(b, pos); err != nil {
		return false, nil, err
	}
	if a.Kind == value.KindLambda || b.Kind == value.KindLambda {
		return false, &Diff{Path: path, Left: "<lambda>", Right: "<lambda>"}, nil
	}
	lf, lok := numericAsFloat(a)
	rf, rok := numericAsFloat(b)
	if lok && rok {
		if lf == rf {
			return true, nil, nil
		}
		return false, &Diff{Path: path, Left: fmt.Sprint(lf), Right: fmt.Sprint(rf)}, nil
	}
	if a.Kind != b.Kind {
		return false, &Diff{Path: path, Left: a.Type(), Right: b.Type()}, nil
	}
	switch a.Kind {
	case value.KindList:
		n := a.List.Len()
		if b.List.Len() < n {
			n = b.List.Len()
		}
		for i := 0; i < n; i++ {
			ok, d, err := ev.assertEqAt(a.List.At(i), b.List.At(i), pos, fmt.Sprintf("%s[%d]", path, i))
			if err != nil || !ok {
				return ok, d, err
			}
		}
		if a.List.Len() != b.List.Len() {
			return false, &Diff{Path: path, Left: fmt.Sprintf("list of %d", a.List.Len()), Right: fmt.Sprintf("list of %d", b.List.Len())}, nil
		}
		return true, nil, nil
	case value.KindAttrs:
		ok := true
		var diff *Diff
		var ferr error
		a.Attrs.Range(func(sym symtab.Symbol, _ symtab.PosIdx, slot *attrs.Slot) {
			if !ok || ferr != nil {
				return
			}
			name := ev.Symbols.Str(sym)
			bs, found := b.Attrs.Get(sym)
			if !found {
				ok, diff = false, &Diff{Path: path + "." + name, Left: "<present>", Right: "<missing>"}
				return
			}
			o, d, err := ev.assertEqAt(slot.Value.(*value.Value), bs.Value.(*value.Value), pos, path+"."+name)
			if err != nil {
				ferr = err
				return
			}
			if !o {
				ok, diff = false, d
			}
		})
		if ferr != nil || !ok {
			return false, diff, ferr
		}
		if a.Attrs.Len() != b.Attrs.Len() {
			return false, &Diff{Path: path, Left: fmt.Sprintf("set of %d", a.Attrs.Len()), Right: fmt.Sprintf("set of %d", b.Attrs.Len())}, nil
		}
		return true, nil, nil
	default:
		eq, err := ev.EqValues(a, b, pos)
		if err != nil || eq {
			return eq, nil, err
		}
		return false, &Diff{Path: path, Left: a.String(), Right: b.String()}, nil
	}
}
