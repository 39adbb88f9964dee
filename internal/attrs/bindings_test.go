package attrs_test

import (
	"testing"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/symtab"
)

func TestBuilderBuildSortsAndFindsByBinarySearch(t *testing.T) {
	st := symtab.NewSymbolTable()
	b := attrs.NewBuilder(2)
	b.Insert(st.Intern("b"), symtab.NoPos, "b-value")
	b.Insert(st.Intern("a"), symtab.NoPos, "a-value")

	bindings, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if bindings.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", bindings.Len())
	}

	slot, ok := bindings.Get(st.Intern("a"))
	if !ok || slot.Value.(string) != "a-value" {
		t.Fatalf("Get(a) = %v, %v; want a-value, true", slot, ok)
	}
	if !bindings.Has(st.Intern("b")) {
		t.Fatal("Has(b) = false, want true")
	}
	if bindings.Has(st.Intern("z")) {
		t.Fatal("Has(z) = true, want false")
	}
}

func TestBuilderBuildRejectsDuplicates(t *testing.T) {
	st := symtab.NewSymbolTable()
	b := attrs.NewBuilder(2)
	sym := st.Intern("x")
	b.Insert(sym, symtab.NoPos, 1)
	b.Insert(sym, symtab.NoPos, 2)

	_, err := b.Build()
	if err == nil {
		t.Fatal("expected a DuplicateAttrError, got nil")
	}
	if _, ok := err.(*attrs.DuplicateAttrError); !ok {
		t.Fatalf("err = %T, want *attrs.DuplicateAttrError", err)
	}
}

func TestBuilderOverwriteReplacesEarlierInsert(t *testing.T) {
	st := symtab.NewSymbolTable()
	sym := st.Intern("x")
	b := attrs.NewBuilder(1)
	b.Insert(sym, symtab.NoPos, 1)
	b.Overwrite(sym, symtab.NoPos, 2)

	bindings, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	slot, _ := bindings.Get(sym)
	if slot.Value.(int) != 2 {
		t.Fatalf("Get(x) = %v, want 2", slot.Value)
	}
}

func TestBuildAllowOverrideKeepsLastInsertedOnDuplicate(t *testing.T) {
	st := symtab.NewSymbolTable()
	sym := st.Intern("x")
	b := attrs.NewBuilder(2)
	b.Insert(sym, symtab.NoPos, "first")
	b.Insert(sym, symtab.NoPos, "second")

	bindings := b.BuildAllowOverride()
	slot, ok := bindings.Get(sym)
	if !ok || slot.Value.(string) != "second" {
		t.Fatalf("Get(x) = %v, %v; want second, true", slot.Value, ok)
	}
}

func TestRangeVisitsInSortedOrder(t *testing.T) {
	st := symtab.NewSymbolTable()
	b := attrs.NewBuilder(3)
	for _, name := range []string{"c", "a", "b"} {
		b.Insert(st.Intern(name), symtab.NoPos, name)
	}
	bindings, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var seen []symtab.Symbol
	bindings.Range(func(sym symtab.Symbol, _ symtab.PosIdx, _ *attrs.Slot) {
		seen = append(seen, sym)
	})
	for i := 1; i < len(seen); i++ {
		if !seen[i-1].Less(seen[i]) {
			t.Fatalf("Range did not visit bindings in sorted handle order: %v", seen)
		}
	}
}

func TestUpdateOtherWinsOnCollision(t *testing.T) {
	st := symtab.NewSymbolTable()
	aSym, bSym, cSym := st.Intern("a"), st.Intern("b"), st.Intern("c")

	base := attrs.NewBuilder(2)
	base.Insert(aSym, symtab.NoPos, "base-a")
	base.Insert(bSym, symtab.NoPos, "base-b")
	baseBindings, err := base.Build()
	if err != nil {
		t.Fatalf("Build base: %v", err)
	}

	overlay := attrs.NewBuilder(2)
	overlay.Insert(bSym, symtab.NoPos, "overlay-b")
	overlay.Insert(cSym, symtab.NoPos, "overlay-c")
	overlayBindings, err := overlay.Build()
	if err != nil {
		t.Fatalf("Build overlay: %v", err)
	}

	merged := attrs.Update(baseBindings, overlayBindings)
	if merged.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", merged.Len())
	}
	if slot, _ := merged.Get(aSym); slot.Value.(string) != "base-a" {
		t.Errorf("a = %v, want base-a", slot.Value)
	}
	if slot, _ := merged.Get(bSym); slot.Value.(string) != "overlay-b" {
		t.Errorf("b = %v, want overlay-b (other wins on collision)", slot.Value)
	}
	if slot, _ := merged.Get(cSym); slot.Value.(string) != "overlay-c" {
		t.Errorf("c = %v, want overlay-c", slot.Value)
	}
}

func TestEmptyBindingsAreSafeToQuery(t *testing.T) {
	if attrs.Empty.Len() != 0 {
		t.Fatal("Empty.Len() != 0")
	}
	st := symtab.NewSymbolTable()
	if attrs.Empty.Has(st.Intern("anything")) {
		t.Fatal("Empty.Has(...) = true")
	}
	var nilBindings *attrs.Bindings
	if nilBindings.Len() != 0 {
		t.Fatal("nil *Bindings.Len() != 0")
	}
	if nilBindings.Has(st.Intern("x")) {
		t.Fatal("nil *Bindings.Has(...) = true")
	}
}
