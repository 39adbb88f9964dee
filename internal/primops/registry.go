// Package primops implements the evaluator's closed set of built-in
// functions (`builtins.*`), grounded on the teacher's one-file-per-
// concern builtins layout (builtins_math.go, builtins_strings.go,
// builtins_collections.go, builtins_core.go, …) and its
// register-into-a-closed-registry pattern.
//
// Every primop is implemented against value.Caller (Force/ForceDeep/
// Apply) rather than against internal/eval.Evaluator directly, so this
// package never imports internal/eval — internal/eval imports this
// package instead, to avoid a cycle between "the evaluator" and "the
// things the evaluator calls".
package primops

import (
	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// registry accumulates every primop registered by this package's
// concern-specific files (arith.go, strings.go, …) via init-time
// registration helpers, so Build can assemble the final `builtins`
// attrset in one place without each file needing to know about the
// others.
var registry []*value.PrimOp

func register(p *value.PrimOp) *value.PrimOp {
	registry = append(registry, p)
	return p
}

// Build returns the finished `builtins` attrset for a fresh evaluation
// session, interning every primop's name via st. Also installs the
// handful of non-function constants (`builtins.true`/`false`/`null`/
// `currentSystem`/`nixVersion`/`langVersion`) alongside the primops,
// exactly as upstream Nix's `builtins` set does.
func Build(st *symtab.SymbolTable) *value.Value {
	b := attrs.NewBuilder(len(registry) + 8)
	for _, p := range registry {
		sym := st.Intern(p.Name)
		b.Overwrite(sym, symtab.NoPos, &value.Value{Kind: value.KindPrimOp, Prim: p})
	}
	b.Overwrite(st.Intern("nixVersion"), symtab.NoPos, value.NewString("2.18-sub000"))
	b.Overwrite(st.Intern("langVersion"), symtab.NoPos, value.NewInt(6))
	b.Overwrite(st.Intern("currentSystem"), symtab.NoPos, value.NewString("x86_64-linux"))
	b.Overwrite(st.Intern("null"), symtab.NoPos, value.NewNull())
	b.Overwrite(st.Intern("true"), symtab.NoPos, value.NewBool(true))
	b.Overwrite(st.Intern("false"), symtab.NoPos, value.NewBool(false))
	built := b.BuildAllowOverride()
	return value.NewAttrs(built)
}

// slotValue type-asserts a slot's payload back to *value.Value — every
// Bindings is declared over `any` to avoid the attrs<->value import
// cycle (see internal/attrs/bindings.go).
func slotValue(s attrs.Slot) *value.Value { return s.Value.(*value.Value) }
