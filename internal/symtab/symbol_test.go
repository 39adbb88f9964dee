package symtab_test

import (
	"testing"

	"github.com/NixOS/nix-sub000/internal/symtab"
)

func TestInternIsIdempotent(t *testing.T) {
	st := symtab.NewSymbolTable()
	a := st.Intern("foo")
	b := st.Intern("foo")
	if !a.Equal(b) {
		t.Fatalf("Intern(%q) returned different handles: %v != %v", "foo", a, b)
	}
}

func TestInternDistinctStringsGetDistinctSymbols(t *testing.T) {
	st := symtab.NewSymbolTable()
	a := st.Intern("foo")
	b := st.Intern("bar")
	if a.Equal(b) {
		t.Fatal("distinct strings interned to the same symbol")
	}
}

func TestLookupWithoutInterning(t *testing.T) {
	st := symtab.NewSymbolTable()
	if _, ok := st.Lookup("never-interned"); ok {
		t.Fatal("Lookup reported a symbol that was never interned")
	}
	want := st.Intern("now-interned")
	got, ok := st.Lookup("now-interned")
	if !ok || !got.Equal(want) {
		t.Fatalf("Lookup(%q) = %v, %v; want %v, true", "now-interned", got, ok, want)
	}
}

func TestStrRoundTrips(t *testing.T) {
	st := symtab.NewSymbolTable()
	sym := st.Intern("hello")
	if got := st.Str(sym); got != "hello" {
		t.Fatalf("Str = %q, want %q", got, "hello")
	}
}

func TestNoSymbolIsInvalid(t *testing.T) {
	if symtab.NoSymbol.Valid() {
		t.Fatal("NoSymbol.Valid() = true, want false")
	}
	st := symtab.NewSymbolTable()
	if !st.Intern("x").Valid() {
		t.Fatal("a freshly interned symbol should be Valid")
	}
}

func TestLenCountsDistinctSymbols(t *testing.T) {
	st := symtab.NewSymbolTable()
	st.Intern("a")
	st.Intern("b")
	st.Intern("a")
	if got := st.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestLessOrdersByInternOrder(t *testing.T) {
	st := symtab.NewSymbolTable()
	first := st.Intern("first")
	second := st.Intern("second")
	if !first.Less(second) {
		t.Fatal("expected the first-interned symbol to sort before the second")
	}
	if second.Less(first) {
		t.Fatal("Less is not antisymmetric")
	}
}
