package nixeval_test

import (
	"testing"

	"github.com/NixOS/nix-sub000/internal/value"
	"github.com/NixOS/nix-sub000/pkg/nixeval"
)

func evalOK(t *testing.T, src string) *value.Value {
	t.Helper()
	sess := nixeval.New(nil, nil)
	defer sess.Close()
	v, err := sess.EvalString("<test>", src)
	if err != nil {
		t.Fatalf("EvalString(%q): %v", src, err)
	}
	return v
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2", "3"},
		{"2 * (3 + 4)", "14"},
		{"10 - 3 - 2", "5"},
		{"7 / 2", "3"},
		{"1 < 2", "true"},
		{"\"a\" + \"b\"", `"ab"`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v := evalOK(t, tt.src)
			if got := v.String(); got != tt.want {
				t.Errorf("eval(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestLetAndLambda(t *testing.T) {
	v := evalOK(t, `let double = x: x * 2; in double 21`)
	if v.Kind != value.KindInt || v.Int != 42 {
		t.Fatalf("got %v, want 42", v)
	}
}

func TestLazySelfReferenceDoesNotLoopForUnusedBinding(t *testing.T) {
	// `y` is never forced, so its self-reference is never evaluated — this
	// must return promptly rather than hang.
	v := evalOK(t, `let x = 1; y = y; in x`)
	if v.Kind != value.KindInt || v.Int != 1 {
		t.Fatalf("got %v, want 1", v)
	}
}

func TestInfiniteRecursionIsReported(t *testing.T) {
	sess := nixeval.New(nil, nil)
	defer sess.Close()
	_, err := sess.EvalString("<test>", `let x = x + 1; in x`)
	if err == nil {
		t.Fatal("expected an infinite-recursion error, got nil")
	}
}

func TestBuiltinsAttrAccess(t *testing.T) {
	v := evalOK(t, `builtins.add 1 2`)
	if v.Kind != value.KindInt || v.Int != 3 {
		t.Fatalf("got %v, want 3", v)
	}
}

func TestListAndAttrsBuiltins(t *testing.T) {
	v := evalOK(t, `builtins.length [ 1 2 3 ]`)
	if v.Kind != value.KindInt || v.Int != 3 {
		t.Fatalf("got %v, want 3", v)
	}

	sess := nixeval.New(nil, nil)
	defer sess.Close()
	attrs, err := sess.EvalString("<test>", `{ a = 1; b = 2; }`)
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.ForceDeep(attrs); err != nil {
		t.Fatal(err)
	}
	if attrs.Kind != value.KindAttrs || attrs.Attrs.Len() != 2 {
		t.Fatalf("got %v, want a 2-entry attrset", attrs)
	}
}
