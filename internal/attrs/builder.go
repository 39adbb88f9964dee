package attrs

import (
	"fmt"
	"sort"

	"github.com/NixOS/nix-sub000/internal/symtab"
)

// DuplicateAttrError is returned by Builder.Build when the same symbol was
// inserted twice without Overwrite.
type DuplicateAttrError struct {
	Sym symtab.Symbol
}

func (e *DuplicateAttrError) Error() string {
	return fmt.Sprintf("attribute already defined (symbol id %v)", e.Sym)
}

// Builder accumulates bindings in insertion order (as the parser or
// `rec`/`with` construction produces them) and sorts them into a Bindings
// only at Build time — mirroring the teacher's RecordValue construction,
// which also appends fields as they're parsed and only needs sorted order
// for display.
type Builder struct {
	attrs []Attr
}

// NewBuilder returns an empty Builder, optionally pre-sized.
func NewBuilder(capHint int) *Builder {
	return &Builder{attrs: make([]Attr, 0, capHint)}
}

// Insert adds a binding. Duplicate symbols are allowed at insertion time;
// Build rejects them unless Overwrite was used instead.
func (bd *Builder) Insert(sym symtab.Symbol, pos symtab.PosIdx, val any) {
	bd.attrs = append(bd.attrs, Attr{Sym: sym, Pos: pos, Slot: Slot{Value: val}})
}

// Overwrite adds a binding, replacing any existing one for sym inserted
// so far. Used for `__overrides` application, `inherit` entries of
// attrset literals, and primops that build result sets.
func (bd *Builder) Overwrite(sym symtab.Symbol, pos symtab.PosIdx, val any) {
	for i := range bd.attrs {
		if bd.attrs[i].Sym.Equal(sym) {
			bd.attrs[i] = Attr{Sym: sym, Pos: pos, Slot: Slot{Value: val}}
			return
		}
	}
	bd.Insert(sym, pos, val)
}

// Len returns the number of bindings inserted so far.
func (bd *Builder) Len() int { return len(bd.attrs) }

// Build sorts the accumulated bindings by symbol handle and returns the
// finished, immutable Bindings. Returns a *DuplicateAttrError for the
// first duplicate found, in sorted order, if any symbol was inserted more
// than once via Insert.
func (bd *Builder) Build() (*Bindings, error) {
	if len(bd.attrs) == 0 {
		return Empty, nil
	}
	sort.Slice(bd.attrs, func(i, j int) bool { return bd.attrs[i].Sym.Less(bd.attrs[j].Sym) })
	for i := 1; i < len(bd.attrs); i++ {
		if bd.attrs[i].Sym.Equal(bd.attrs[i-1].Sym) {
			return nil, &DuplicateAttrError{Sym: bd.attrs[i].Sym}
		}
	}
	return &Bindings{attrs: bd.attrs}, nil
}

// BuildAllowOverride is like Build but silently keeps the last-inserted
// value for a duplicate symbol instead of erroring, for call sites (the
// primops' result-set builders, e.g. listToAttrs and functionArgs) where
// a later write wins rather than being a programmer error.
func (bd *Builder) BuildAllowOverride() *Bindings {
	if len(bd.attrs) == 0 {
		return Empty
	}
	// Stable sort keeps last-inserted-wins semantics: stable sort preserves
	// insertion order among equal keys, so a dedup pass keeping the last
	// occurrence is correct.
	sort.SliceStable(bd.attrs, func(i, j int) bool { return bd.attrs[i].Sym.Less(bd.attrs[j].Sym) })
	out := bd.attrs[:0:0]
	for i := 0; i < len(bd.attrs); {
		j := i
		for j < len(bd.attrs) && bd.attrs[j].Sym.Equal(bd.attrs[i].Sym) {
			j++
		}
		out = append(out, bd.attrs[j-1])
		i = j
	}
	return &Bindings{attrs: out}
}
