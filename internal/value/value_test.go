package value_test

import (
	"testing"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

func TestScalarStringRendering(t *testing.T) {
	tests := []struct {
		name string
		v    *value.Value
		want string
	}{
		{"int", value.NewInt(42), "42"},
		{"negative int", value.NewInt(-7), "-7"},
		{"float", value.NewFloat(1.5), "1.5"},
		{"bool true", value.NewBool(true), "true"},
		{"bool false", value.NewBool(false), "false"},
		{"null", value.NewNull(), "null"},
		{"string", value.NewString("hi"), `"hi"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeNames(t *testing.T) {
	tests := []struct {
		v    *value.Value
		want string
	}{
		{value.NewInt(1), "int"},
		{value.NewFloat(1), "float"},
		{value.NewBool(true), "bool"},
		{value.NewNull(), "null"},
		{value.NewString("x"), "string"},
		{value.NewAttrs(attrs.Empty), "set"},
	}
	for _, tt := range tests {
		if got := tt.v.Type(); got != tt.want {
			t.Errorf("Type() of %v = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestIsFinished(t *testing.T) {
	finished := value.NewInt(1)
	if !finished.IsFinished() {
		t.Error("a freshly constructed Int value should be finished")
	}

	thunk := value.NewThunk(nil, value.NewEnvironment(0))
	if thunk.IsFinished() {
		t.Error("a Thunk value should not be finished")
	}
}

func TestBecomeOverwritesInPlace(t *testing.T) {
	v := value.NewThunk(nil, value.NewEnvironment(0))
	v.Become(value.NewInt(99))
	if v.Kind != value.KindInt || v.Int != 99 {
		t.Fatalf("Become did not overwrite in place: %v", v)
	}
}

func TestSetBlackholeAndRestore(t *testing.T) {
	v := value.NewThunk(nil, value.NewEnvironment(0))
	saved := v.SetBlackhole()
	if v.Kind != value.KindBlackhole {
		t.Fatalf("SetBlackhole did not set KindBlackhole: %v", v)
	}
	v.Restore(saved)
	if v.Kind != value.KindThunk {
		t.Fatalf("Restore did not undo SetBlackhole: %v", v)
	}
}

func TestListInlineAndHeapStorage(t *testing.T) {
	inline := value.NewList([]*value.Value{value.NewInt(1), value.NewInt(2)})
	if inline.Len() != 2 || inline.At(0).Int != 1 || inline.At(1).Int != 2 {
		t.Fatalf("inline list storage broken: %v", inline)
	}

	heap := value.NewList([]*value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)})
	if heap.Len() != 3 || heap.At(2).Int != 3 {
		t.Fatalf("heap list storage broken: %v", heap)
	}
}

func TestListConcat(t *testing.T) {
	a := value.NewList([]*value.Value{value.NewInt(1)})
	b := value.NewList([]*value.Value{value.NewInt(2), value.NewInt(3)})
	c := value.Concat(a, b)
	if c.Len() != 3 {
		t.Fatalf("Concat length = %d, want 3", c.Len())
	}
	for i, want := range []int64{1, 2, 3} {
		if c.At(i).Int != want {
			t.Errorf("Concat()[%d] = %d, want %d", i, c.At(i).Int, want)
		}
	}
}

func TestListConcatReusesEmptyOperand(t *testing.T) {
	a := value.NewList([]*value.Value{value.NewInt(1)})
	empty := value.NewList(nil)
	if got := value.Concat(empty, a); got.Len() != 1 || got.At(0).Int != 1 {
		t.Fatalf("Concat(empty, a) = %v, want a", got)
	}
	if got := value.Concat(a, empty); got.Len() != 1 || got.At(0).Int != 1 {
		t.Fatalf("Concat(a, empty) = %v, want a", got)
	}
}

func TestAttrNamesIsSorted(t *testing.T) {
	st := symtab.NewSymbolTable()
	b := attrs.NewBuilder(3)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		b.Insert(st.Intern(name), symtab.NoPos, value.NewInt(0))
	}
	bindings, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	names := value.AttrNames(bindings, st)
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("AttrNames = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("AttrNames = %v, want %v", names, want)
		}
	}
}
