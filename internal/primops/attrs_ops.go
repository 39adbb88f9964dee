package primops

import (
	"sort"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/nixparse"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

func init() {
	prim("attrNames", 1, []string{"set"}, primAttrNames)
	prim("attrValues", 1, []string{"set"}, primAttrValues)
	prim("hasAttr", 2, []string{"name", "set"}, primHasAttr)
	prim("getAttr", 2, []string{"name", "set"}, primGetAttr)
	prim("removeAttrs", 2, []string{"set", "names"}, primRemoveAttrs)
	prim("listToAttrs", 1, []string{"list"}, primListToAttrs)
	prim("intersectAttrs", 2, []string{"e1", "e2"}, primIntersectAttrs)
	prim("mapAttrs", 2, []string{"fn", "set"}, primMapAttrs)
	prim("catAttrs", 2, []string{"name", "list"}, primCatAttrs)
	prim("functionArgs", 1, []string{"fn"}, primFunctionArgs)
}

// attrBuilder is a tiny wrapper over attrs.Builder that resolves display
// names to Symbols via a Caller's Intern, for primops that build fresh
// attrsets from Go-side string keys rather than parsed source.
type attrBuilder struct {
	b *attrs.Builder
}

func newBuilder(capHint int) *attrBuilder { return &attrBuilder{b: attrs.NewBuilder(capHint)} }

func (ab *attrBuilder) set(call value.Caller, name string, v *value.Value) {
	ab.b.Overwrite(call.Intern(name), symtab.NoPos, v)
}

func (ab *attrBuilder) build() *value.Value {
	return value.NewAttrs(ab.b.BuildAllowOverride())
}

func primAttrNames(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	a, err := requireAttrs(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, a.Attrs.Len())
	a.Attrs.Range(func(sym symtab.Symbol, _ symtab.PosIdx, _ *attrs.Slot) {
		names = append(names, call.SymbolName(sym))
	})
	sort.Strings(names)
	out := make([]*value.Value, len(names))
	for i, n := range names {
		out[i] = value.NewString(n)
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(out)}, nil
}

func primAttrValues(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	a, err := requireAttrs(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	type kv struct {
		name string
		v    *value.Value
	}
	pairs := make([]kv, 0, a.Attrs.Len())
	a.Attrs.Range(func(sym symtab.Symbol, _ symtab.PosIdx, slot *attrs.Slot) {
		pairs = append(pairs, kv{call.SymbolName(sym), slotValue(*slot)})
	})
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })
	out := make([]*value.Value, len(pairs))
	for i, p := range pairs {
		out[i] = p.v
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(out)}, nil
}

func primHasAttr(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	name, err := requireString(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	a, err := requireAttrs(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	return value.NewBool(a.Attrs.Has(call.Intern(name))), nil
}

func primGetAttr(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	name, err := requireString(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	a, err := requireAttrs(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	slot, ok := a.Attrs.Get(call.Intern(name))
	if !ok {
		return nil, errs.New(errs.EvalError, call.Pos(pos), "attribute '%s' missing", name)
	}
	return slotValue(slot), nil
}

func primRemoveAttrs(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	a, err := requireAttrs(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	names, err := requireList(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	drop := make(map[symtab.Symbol]bool, names.Len())
	for i := 0; i < names.Len(); i++ {
		n, err := requireString(call, pos, names.At(i))
		if err != nil {
			return nil, err
		}
		drop[call.Intern(n)] = true
	}
	b := attrs.NewBuilder(a.Attrs.Len())
	a.Attrs.Range(func(sym symtab.Symbol, p symtab.PosIdx, slot *attrs.Slot) {
		if !drop[sym] {
			b.Insert(sym, p, slot.Value)
		}
	})
	built, buildErr := b.Build()
	if buildErr != nil {
		return nil, errs.Wrap(errs.EvalError, call.Pos(pos), buildErr, "internal error building removeAttrs result")
	}
	return value.NewAttrs(built), nil
}

func primListToAttrs(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	l, err := requireList(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	nameSym := call.Intern("name")
	valueSym := call.Intern("value")
	b := attrs.NewBuilder(l.Len())
	for i := 0; i < l.Len(); i++ {
		entry, err := requireAttrs(call, pos, l.At(i))
		if err != nil {
			return nil, err
		}
		nameSlot, ok := entry.Attrs.Get(nameSym)
		if !ok {
			return nil, errs.New(errs.EvalError, call.Pos(pos), "listToAttrs: entry %d is missing the `name` attribute", i)
		}
		name, err := requireString(call, pos, slotValue(nameSlot))
		if err != nil {
			return nil, err
		}
		valSlot, ok := entry.Attrs.Get(valueSym)
		if !ok {
			return nil, errs.New(errs.EvalError, call.Pos(pos), "listToAttrs: entry %d is missing the `value` attribute", i)
		}
		b.Overwrite(call.Intern(name), pos, valSlot.Value)
	}
	return value.NewAttrs(b.BuildAllowOverride()), nil
}

func primIntersectAttrs(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	e1, err := requireAttrs(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	e2, err := requireAttrs(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	b := attrs.NewBuilder(e1.Attrs.Len())
	e1.Attrs.Range(func(sym symtab.Symbol, p symtab.PosIdx, slot *attrs.Slot) {
		if e2.Attrs.Has(sym) {
			b.Insert(sym, p, slot.Value)
		}
	})
	built, buildErr := b.Build()
	if buildErr != nil {
		return nil, errs.Wrap(errs.EvalError, call.Pos(pos), buildErr, "internal error building intersectAttrs result")
	}
	return value.NewAttrs(built), nil
}

func primMapAttrs(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	fn := args[0]
	a, err := requireAttrs(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	b := attrs.NewBuilder(a.Attrs.Len())
	a.Attrs.Range(func(sym symtab.Symbol, p symtab.PosIdx, slot *attrs.Slot) {
		nameVal := value.NewString(call.SymbolName(sym))
		v := slotValue(*slot)
		thunk := value.NewNativeThunk(func(c value.Caller, p symtab.PosIdx) (*value.Value, error) {
			partial, err := c.Apply(fn, nameVal, p)
			if err != nil {
				return nil, err
			}
			return c.Apply(partial, v, p)
		})
		b.Insert(sym, p, thunk)
	})
	built, buildErr := b.Build()
	if buildErr != nil {
		return nil, errs.Wrap(errs.EvalError, call.Pos(pos), buildErr, "internal error building mapAttrs result")
	}
	return value.NewAttrs(built), nil
}

func primCatAttrs(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	name, err := requireString(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	sym := call.Intern(name)
	l, err := requireList(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	var out []*value.Value
	for i := 0; i < l.Len(); i++ {
		a, err := requireAttrs(call, pos, l.At(i))
		if err != nil {
			return nil, err
		}
		if slot, ok := a.Attrs.Get(sym); ok {
			out = append(out, slotValue(slot))
		}
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(out)}, nil
}

func primFunctionArgs(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	fn := args[0]
	if err := call.Force(fn, pos); err != nil {
		return nil, err
	}
	if fn.Kind != value.KindLambda {
		return nil, wrongType(call, pos, "lambda", fn)
	}
	n, ok := fn.Lambda.Node.(*nixparse.Lambda)
	if !ok || n.SimpleParam.Valid() {
		return value.NewAttrs(attrs.Empty), nil
	}
	b := attrs.NewBuilder(len(n.Formals))
	for _, f := range n.Formals {
		b.Overwrite(f.Name, symtab.NoPos, value.NewBool(f.Default != nil))
	}
	return value.NewAttrs(b.BuildAllowOverride()), nil
}
