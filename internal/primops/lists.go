package primops

import (
	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

func init() {
	prim("length", 1, []string{"list"}, primLength)
	prim("head", 1, []string{"list"}, primHead)
	prim("tail", 1, []string{"list"}, primTail)
	prim("elemAt", 2, []string{"list", "n"}, primElemAt)
	prim("elem", 2, []string{"x", "list"}, primElem)
	prim("filter", 2, []string{"pred", "list"}, primFilter)
	prim("map", 2, []string{"fn", "list"}, primMap)
	prim("concatLists", 1, []string{"lists"}, primConcatLists)
	prim("genList", 2, []string{"fn", "n"}, primGenList)
	prim("foldl'", 3, []string{"fn", "init", "list"}, primFoldl)
	prim("sort", 2, []string{"cmp", "list"}, primSort)
	prim("all", 2, []string{"pred", "list"}, primAll)
	prim("any", 2, []string{"pred", "list"}, primAny)
	prim("partition", 2, []string{"pred", "list"}, primPartition)
	prim("reverseList", 1, []string{"list"}, primReverseList)
}

func primLength(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	l, err := requireList(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	return value.NewInt(int64(l.Len())), nil
}

func primHead(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	l, err := requireList(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	if l.Len() == 0 {
		return nil, errs.New(errs.EvalError, call.Pos(pos), "builtins.head called on an empty list")
	}
	return l.At(0), nil
}

func primTail(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	l, err := requireList(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	if l.Len() == 0 {
		return nil, errs.New(errs.EvalError, call.Pos(pos), "builtins.tail called on an empty list")
	}
	out := make([]*value.Value, l.Len()-1)
	for i := 1; i < l.Len(); i++ {
		out[i-1] = l.At(i)
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(out)}, nil
}

func primElemAt(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	l, err := requireList(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	n, err := requireInt(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	if n < 0 || int(n) >= l.Len() {
		return nil, errs.New(errs.EvalError, call.Pos(pos), "list index %d out of bounds (length %d)", n, l.Len())
	}
	return l.At(int(n)), nil
}

func primElem(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	needle := args[0]
	l, err := requireList(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	for i := 0; i < l.Len(); i++ {
		eq, err := eqValues(call, needle, l.At(i), pos)
		if err != nil {
			return nil, err
		}
		if eq {
			return value.NewBool(true), nil
		}
	}
	return value.NewBool(false), nil
}

func primFilter(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	pred := args[0]
	l, err := requireList(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	out := make([]*value.Value, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		res, err := call.Apply(pred, l.At(i), pos)
		if err != nil {
			return nil, err
		}
		keep, err := requireBool(call, pos, res)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, l.At(i))
		}
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(out)}, nil
}

func primMap(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	fn := args[0]
	l, err := requireList(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	out := make([]*value.Value, l.Len())
	for i := 0; i < l.Len(); i++ {
		elem := l.At(i)
		out[i] = mapThunk(fn, elem, pos)
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(out)}, nil
}

// mapThunk wraps one `fn elem` application as a deferred computation —
// map and genList must stay lazy in their elements (only the list's
// length and spine are forced when it is built, never the mapped values
// themselves) the same way Force defers an ordinary Thunk's expression.
func mapThunk(fn, elem *value.Value, pos symtab.PosIdx) *value.Value {
	return value.NewNativeThunk(func(call value.Caller, p symtab.PosIdx) (*value.Value, error) {
		return call.Apply(fn, elem, p)
	})
}

func primConcatLists(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	outer, err := requireList(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	var out []*value.Value
	for i := 0; i < outer.Len(); i++ {
		inner, err := requireList(call, pos, outer.At(i))
		if err != nil {
			return nil, err
		}
		for j := 0; j < inner.Len(); j++ {
			out = append(out, inner.At(j))
		}
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(out)}, nil
}

func primGenList(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	fn := args[0]
	n, err := requireInt(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errs.New(errs.EvalError, call.Pos(pos), "builtins.genList: cannot generate a list of size %d", n)
	}
	out := make([]*value.Value, n)
	for i := int64(0); i < n; i++ {
		idx := value.NewInt(i)
		out[i] = mapThunk(fn, idx, pos)
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(out)}, nil
}

func primFoldl(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	fn, acc := args[0], args[1]
	l, err := requireList(call, pos, args[2])
	if err != nil {
		return nil, err
	}
	for i := 0; i < l.Len(); i++ {
		step, err := call.Apply(fn, acc, pos)
		if err != nil {
			return nil, err
		}
		acc, err = call.Apply(step, l.At(i), pos)
		if err != nil {
			return nil, err
		}
		if err := call.Force(acc, pos); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func primSort(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	cmp := args[0]
	l, err := requireList(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	items := l.Slice()
	out := make([]*value.Value, len(items))
	copy(out, items)

	// Insertion sort: the comparator is an arbitrary Nix function (not
	// necessarily a total order in the mathematical sense), so this
	// avoids relying on sort.Slice's "less must be a strict weak
	// ordering" assumption holding for user-supplied comparators, at the
	// cost of O(n^2) instead of O(n log n).
	less := func(a, b *value.Value) (bool, error) {
		res, err := call.Apply(cmp, a, pos)
		if err != nil {
			return false, err
		}
		res, err = call.Apply(res, b, pos)
		if err != nil {
			return false, err
		}
		return requireBool(call, pos, res)
	}
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 {
			lt, err := less(out[j], out[j-1])
			if err != nil {
				return nil, err
			}
			if !lt {
				break
			}
			out[j], out[j-1] = out[j-1], out[j]
			j--
		}
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(out)}, nil
}

func primAll(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	pred := args[0]
	l, err := requireList(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	for i := 0; i < l.Len(); i++ {
		res, err := call.Apply(pred, l.At(i), pos)
		if err != nil {
			return nil, err
		}
		ok, err := requireBool(call, pos, res)
		if err != nil {
			return nil, err
		}
		if !ok {
			return value.NewBool(false), nil
		}
	}
	return value.NewBool(true), nil
}

func primAny(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	pred := args[0]
	l, err := requireList(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	for i := 0; i < l.Len(); i++ {
		res, err := call.Apply(pred, l.At(i), pos)
		if err != nil {
			return nil, err
		}
		ok, err := requireBool(call, pos, res)
		if err != nil {
			return nil, err
		}
		if ok {
			return value.NewBool(true), nil
		}
	}
	return value.NewBool(false), nil
}

func primPartition(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	pred := args[0]
	l, err := requireList(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	var right, wrong []*value.Value
	for i := 0; i < l.Len(); i++ {
		res, err := call.Apply(pred, l.At(i), pos)
		if err != nil {
			return nil, err
		}
		ok, err := requireBool(call, pos, res)
		if err != nil {
			return nil, err
		}
		if ok {
			right = append(right, l.At(i))
		} else {
			wrong = append(wrong, l.At(i))
		}
	}
	b := newBuilder(2)
	b.set(call, "right", &value.Value{Kind: value.KindList, List: value.NewList(right)})
	b.set(call, "wrong", &value.Value{Kind: value.KindList, List: value.NewList(wrong)})
	return b.build(), nil
}

func primReverseList(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	l, err := requireList(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	out := make([]*value.Value, l.Len())
	for i := 0; i < l.Len(); i++ {
		out[len(out)-1-i] = l.At(i)
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(out)}, nil
}
