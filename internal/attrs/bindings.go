// Package attrs implements attribute-set bindings: a sorted, flat array of
// (symbol, value) pairs with binary-search lookup. It is the runtime
// representation behind the evaluator's `set` type, grounded on the
// teacher's RecordValue (internal/interp/value.go) but rewritten from an
// unordered map into a sorted array, since the evaluator's equality and
// cache-key rules depend on a byte-identical, deterministic key order.
package attrs

import (
	"sort"

	"github.com/NixOS/nix-sub000/internal/symtab"
)

// Slot holds one binding's payload. Value is declared as `any` here
// (rather than *value.Value) to avoid attrs<->value import cycle; callers
// in internal/value and internal/eval type-assert it back to *value.Value.
// The indirection costs nothing at runtime since Go interfaces holding a
// pointer are a single word.
type Slot struct {
	Value any
}

// Attr is one binding in a Bindings array: the interned name, the source
// position of its definition (for error messages), and its slot.
type Attr struct {
	Sym symtab.Symbol
	Pos symtab.PosIdx
	Slot
}

// Bindings is a sorted-by-handle, flat array of attribute bindings. The
// zero value is an empty set. Once constructed by Builder.Build, a
// Bindings value is never mutated in place — `//` and `rec`
// self-reference both produce a new Bindings.
type Bindings struct {
	attrs []Attr
}

// Empty is the canonical empty attribute set.
var Empty = &Bindings{}

// Len returns the number of bindings.
func (b *Bindings) Len() int {
	if b == nil {
		return 0
	}
	return len(b.attrs)
}

// Get returns the slot bound to sym and whether it was found, via binary
// search over the sorted array.
func (b *Bindings) Get(sym symtab.Symbol) (Slot, bool) {
	if b == nil {
		return Slot{}, false
	}
	i := sort.Search(len(b.attrs), func(i int) bool { return !b.attrs[i].Sym.Less(sym) })
	if i < len(b.attrs) && b.attrs[i].Sym.Equal(sym) {
		return b.attrs[i].Slot, true
	}
	return Slot{}, false
}

// GetAttr returns the full Attr (including its definition position) bound
// to sym.
func (b *Bindings) GetAttr(sym symtab.Symbol) (Attr, bool) {
	if b == nil {
		return Attr{}, false
	}
	i := sort.Search(len(b.attrs), func(i int) bool { return !b.attrs[i].Sym.Less(sym) })
	if i < len(b.attrs) && b.attrs[i].Sym.Equal(sym) {
		return b.attrs[i], true
	}
	return Attr{}, false
}

// Has reports whether sym is bound.
func (b *Bindings) Has(sym symtab.Symbol) bool {
	_, ok := b.Get(sym)
	return ok
}

// At returns the i'th binding in sorted order.
func (b *Bindings) At(i int) Attr { return b.attrs[i] }

// Range calls fn for every binding in sorted (display) order.
func (b *Bindings) Range(fn func(sym symtab.Symbol, pos symtab.PosIdx, slot *Slot)) {
	if b == nil {
		return
	}
	for i := range b.attrs {
		fn(b.attrs[i].Sym, b.attrs[i].Pos, &b.attrs[i].Slot)
	}
}

// Update returns a new Bindings representing `b // other`: every binding
// of other wins over a binding of the same name in b, everything else
// from both sides is kept. Both inputs are left untouched.
func Update(b, other *Bindings) *Bindings {
	out := make([]Attr, 0, b.Len()+other.Len())
	i, j := 0, 0
	for i < len(b.attrs) && j < len(other.attrs) {
		a, o := b.attrs[i], other.attrs[j]
		switch {
		case a.Sym.Less(o.Sym):
			out = append(out, a)
			i++
		case o.Sym.Less(a.Sym):
			out = append(out, o)
			j++
		default:
			out = append(out, o) // other wins on collision
			i++
			j++
		}
	}
	out = append(out, b.attrs[i:]...)
	out = append(out, other.attrs[j:]...)
	return &Bindings{attrs: out}
}
