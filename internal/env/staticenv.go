// Package env implements the compile-time half of lexical scoping: the
// binding pass that walks freshly parsed expressions and resolves every
// variable reference to a (level, displacement) pair before the evaluator
// ever runs. It is the static counterpart of internal/value's runtime
// Environment.
//
// Grounded on the teacher's internal/semantic/symbol_table.go scope-chain
// shape (SymbolTable{symbols, outer}, NewEnclosedSymbolTable,
// PushScope/PopScope) but resolving to a numeric displacement instead of a
// *Symbol type record, since this binding pass only needs "how many
// frames up, which slot", not static types.
package env

import "github.com/NixOS/nix-sub000/internal/symtab"

// Kind mirrors value.WithKind: a StaticEnv frame is either a plain lexical
// scope or one introduced by a `with` expression, which the binding pass
// must remember so that an unresolved identifier can be deferred to a
// runtime `with`-lookup instead of being an immediate "undefined variable"
// error.
type Kind int

const (
	Plain Kind = iota
	WithScope
)

// StaticEnv is one compile-time lexical scope: the symbols bound directly
// in this scope (in the order they were declared, which becomes their
// displacement) plus a link to the enclosing scope.
type StaticEnv struct {
	Kind    Kind
	Parent  *StaticEnv
	Symbols []symtab.Symbol
}

// NewStaticEnv returns a root scope (e.g. the implicit top-level `with
// builtins;`-less scope of a freshly parsed file).
func NewStaticEnv() *StaticEnv {
	return &StaticEnv{}
}

// Child returns a new plain scope nested inside e.
func (e *StaticEnv) Child() *StaticEnv {
	return &StaticEnv{Parent: e}
}

// ChildWith returns a new `with`-scope nested inside e.
func (e *StaticEnv) ChildWith() *StaticEnv {
	return &StaticEnv{Parent: e, Kind: WithScope}
}

// Declare adds sym to this scope and returns its displacement (its index
// within Symbols). Declare does not check for duplicates, and neither the
// parser nor the binding pass rejects a repeated let-binding or formal;
// a name declared twice gets two displacements and Resolve returns the
// first.
func (e *StaticEnv) Declare(sym symtab.Symbol) int {
	e.Symbols = append(e.Symbols, sym)
	return len(e.Symbols) - 1
}

// Ref is the result of resolving an identifier: either a concrete
// (level, displacement) lexical slot, or — if no enclosing scope declares
// it but a `with` scope lies between here and the root — a deferred
// reference that must be looked up dynamically at runtime through the
// nearest `with` value, or, failing that, is simply unbound.
type Ref struct {
	// Found is true when Level/Displacement identify a real lexical slot.
	Found bool
	Level int
	Displacement int
	// HasWithFallback is true when the name was not found lexically but a
	// `with` scope was crossed while searching, meaning the evaluator must
	// fall back to a dynamic lookup instead of reporting an undefined
	// variable immediately.
	HasWithFallback bool
}

// Resolve searches outward from e for sym, returning how many frames were
// crossed (Level) and its declared position within the frame it was found
// in (Displacement). Frames of Kind WithScope still occupy one Level each
// even though they declare no Symbols directly, so the runtime
// Environment chain (which has one frame per StaticEnv including `with`
// frames) stays in lock-step with these indices.
func (e *StaticEnv) Resolve(sym symtab.Symbol) Ref {
	level := 0
	crossedWith := false
	for f := e; f != nil; f = f.Parent {
		if f.Kind == WithScope {
			crossedWith = true
		}
		for d, s := range f.Symbols {
			if s.Equal(sym) {
				return Ref{Found: true, Level: level, Displacement: d}
			}
		}
		level++
	}
	return Ref{HasWithFallback: crossedWith}
}
