package primops

import (
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

func init() {
	prim("unsafeDiscardStringContext", 1, []string{"s"}, primDiscardContext)
	prim("hasContext", 1, []string{"s"}, primHasContext)
	prim("getContext", 1, []string{"s"}, primGetContext)
}

func primDiscardContext(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	s, err := requireString(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	return value.NewString(s), nil
}

func primHasContext(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	if err := call.Force(args[0], pos); err != nil {
		return nil, err
	}
	v := args[0]
	if v.Kind != value.KindString {
		return nil, wrongType(call, pos, "string", v)
	}
	return value.NewBool(len(v.Str.Context) > 0), nil
}

// primGetContext implements builtins.getContext's public shape: a set
// keyed by store path, each value an attrset with boolean `allOutputs`
// and a list-valued `outputs`, matching the Built/DrvDeep/Opaque
// ContextEntry variants this evaluator's strings track.
func primGetContext(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	if err := call.Force(args[0], pos); err != nil {
		return nil, err
	}
	v := args[0]
	if v.Kind != value.KindString {
		return nil, wrongType(call, pos, "string", v)
	}
	byPath := map[string][]value.ContextEntry{}
	var order []string
	for _, e := range v.Str.Context {
		if _, ok := byPath[e.Path]; !ok {
			order = append(order, e.Path)
		}
		byPath[e.Path] = append(byPath[e.Path], e)
	}
	top := newBuilder(len(order))
	for _, p := range order {
		entries := byPath[p]
		allOutputs := false
		var outputs []*value.Value
		for _, e := range entries {
			switch e.Kind {
			case value.DrvDeep:
				allOutputs = true
			case value.Built:
				outputs = append(outputs, value.NewString(e.Output))
			}
		}
		inner := newBuilder(2)
		inner.set(call, "allOutputs", value.NewBool(allOutputs))
		inner.set(call, "outputs", &value.Value{Kind: value.KindList, List: value.NewList(outputs)})
		top.set(call, p, inner.build())
	}
	return top.build(), nil
}
