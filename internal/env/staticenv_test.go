package env_test

import (
	"testing"

	"github.com/NixOS/nix-sub000/internal/env"
	"github.com/NixOS/nix-sub000/internal/symtab"
)

func TestDeclareAssignsSequentialDisplacements(t *testing.T) {
	st := symtab.NewSymbolTable()
	root := env.NewStaticEnv()
	if d := root.Declare(st.Intern("a")); d != 0 {
		t.Fatalf("first Declare = %d, want 0", d)
	}
	if d := root.Declare(st.Intern("b")); d != 1 {
		t.Fatalf("second Declare = %d, want 1", d)
	}
}

func TestResolveFindsOwnScope(t *testing.T) {
	st := symtab.NewSymbolTable()
	root := env.NewStaticEnv()
	sym := st.Intern("x")
	root.Declare(sym)

	ref := root.Resolve(sym)
	if !ref.Found || ref.Level != 0 || ref.Displacement != 0 {
		t.Fatalf("Resolve = %+v, want Found at level 0 displacement 0", ref)
	}
}

func TestResolveFindsEnclosingScope(t *testing.T) {
	st := symtab.NewSymbolTable()
	root := env.NewStaticEnv()
	sym := st.Intern("x")
	root.Declare(sym)

	child := root.Child()
	child.Declare(st.Intern("y"))

	ref := child.Resolve(sym)
	if !ref.Found || ref.Level != 1 {
		t.Fatalf("Resolve(x) from child = %+v, want Found at level 1", ref)
	}
}

func TestResolveUnboundNameWithNoWithScope(t *testing.T) {
	st := symtab.NewSymbolTable()
	root := env.NewStaticEnv()
	ref := root.Resolve(st.Intern("nowhere"))
	if ref.Found || ref.HasWithFallback {
		t.Fatalf("Resolve(unbound) = %+v, want neither Found nor HasWithFallback", ref)
	}
}

func TestResolveUnboundNameAcrossWithScopeSetsFallback(t *testing.T) {
	st := symtab.NewSymbolTable()
	root := env.NewStaticEnv()
	withScope := root.ChildWith()
	inner := withScope.Child()

	ref := inner.Resolve(st.Intern("maybeDynamic"))
	if ref.Found {
		t.Fatal("Resolve should not find a name that was never declared")
	}
	if !ref.HasWithFallback {
		t.Fatal("Resolve should report HasWithFallback when a with-scope was crossed")
	}
}

func TestResolvePrefersInnermostShadowingDeclaration(t *testing.T) {
	st := symtab.NewSymbolTable()
	sym := st.Intern("x")
	root := env.NewStaticEnv()
	root.Declare(sym)
	child := root.Child()
	child.Declare(sym)

	ref := child.Resolve(sym)
	if !ref.Found || ref.Level != 0 {
		t.Fatalf("Resolve should find the innermost shadowing declaration, got %+v", ref)
	}
}
