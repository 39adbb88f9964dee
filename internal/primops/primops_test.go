package primops_test

import (
	"testing"

	"github.com/NixOS/nix-sub000/internal/value"
	"github.com/NixOS/nix-sub000/pkg/nixeval"
)

func eval(t *testing.T, src string) *value.Value {
	t.Helper()
	sess := nixeval.New(nil, nil)
	defer sess.Close()
	v, err := sess.EvalString("<test>", src)
	if err != nil {
		t.Fatalf("eval(%q): %v", src, err)
	}
	if err := sess.ForceDeep(v); err != nil {
		t.Fatalf("ForceDeep(%q): %v", src, err)
	}
	return v
}

func TestListPrimops(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"length", "builtins.length [ 1 2 3 ]", "3"},
		{"head", "builtins.head [ 5 6 7 ]", "5"},
		{"tail-length", "builtins.length (builtins.tail [ 1 2 3 ])", "2"},
		{"elemAt", `builtins.elemAt [ "a" "b" "c" ] 1`, `"b"`},
		{"elem-true", "builtins.elem 2 [ 1 2 3 ]", "true"},
		{"filter", "builtins.length (builtins.filter (x: x > 1) [ 1 2 3 ])", "2"},
		{"map", "builtins.elemAt (builtins.map (x: x * 2) [ 1 2 3 ]) 2", "6"},
		{"concatLists", "builtins.length (builtins.concatLists [ [ 1 ] [ 2 3 ] ])", "3"},
		{"genList", "builtins.elemAt (builtins.genList (i: i * i) 4) 3", "9"},
		{"foldl", "builtins.foldl' (acc: x: acc + x) 0 [ 1 2 3 4 ]", "10"},
		{"all-true", "builtins.all (x: x > 0) [ 1 2 3 ]", "true"},
		{"any-false", "builtins.any (x: x > 10) [ 1 2 3 ]", "false"},
		{"reverseList", "builtins.elemAt (builtins.reverseList [ 1 2 3 ]) 0", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := eval(t, tt.src)
			if got := v.String(); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestAttrPrimops(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"hasAttr-true", `builtins.hasAttr "a" { a = 1; }`, "true"},
		{"hasAttr-false", `builtins.hasAttr "z" { a = 1; }`, "false"},
		{"getAttr", `builtins.getAttr "a" { a = 42; }`, "42"},
		{"attrNames-length", `builtins.length (builtins.attrNames { a = 1; b = 2; })`, "2"},
		{"removeAttrs", `builtins.hasAttr "a" (builtins.removeAttrs { a = 1; b = 2; } [ "a" ])`, "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := eval(t, tt.src)
			if got := v.String(); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestStringAndCompareePrimops(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"toString-int", "builtins.toString 42", `"42"`},
		{"stringLength", `builtins.stringLength "hello"`, "5"},
		{"substring", `builtins.substring 1 3 "hello"`, `"ell"`},
		{"concatStringsSep", `builtins.concatStringsSep "," [ "a" "b" "c" ]`, `"a,b,c"`},
		{"compareVersions-eq", `builtins.compareVersions "1.0" "1.0"`, "0"},
		{"compareVersions-lt", `builtins.compareVersions "1.0" "1.1"`, "-1"},
		{"typeOf-int", "builtins.typeOf 1", `"int"`},
		{"typeOf-string", `builtins.typeOf "x"`, `"string"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := eval(t, tt.src)
			if got := v.String(); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestTryEvalCatchesThrow(t *testing.T) {
	v := eval(t, `(builtins.tryEval (throw "boom")).success`)
	if v.Kind != value.KindBool || v.Bool {
		t.Fatalf("expected tryEval.success = false, got %v", v)
	}
}

func TestDerivationStrictProducesDerivationShape(t *testing.T) {
	v := eval(t, `builtins.derivationStrict {
		name = "hello";
		system = "x86_64-linux";
		builder = "/bin/sh";
	}`)
	if v.Kind != value.KindAttrs {
		t.Fatalf("expected an attrset, got %v", v)
	}

	typ := eval(t, `(builtins.derivationStrict { name = "hello"; builder = "/bin/sh"; }).type`)
	if typ.String() != `"derivation"` {
		t.Errorf("type = %s, want \"derivation\"", typ.String())
	}

	outPath := eval(t, `(builtins.derivationStrict { name = "hello"; builder = "/bin/sh"; }).outPath`)
	if outPath.Kind != value.KindString || outPath.Str.Bytes == "" {
		t.Errorf("outPath = %v, want a non-empty string", outPath)
	}

	drvPath := eval(t, `(builtins.derivationStrict { name = "hello"; builder = "/bin/sh"; }).drvPath`)
	if drvPath.Kind != value.KindString || !hasSuffix(drvPath.Str.Bytes, ".drv") {
		t.Errorf("drvPath = %v, want a path ending in .drv", drvPath)
	}
}

func TestDerivationStrictIsDeterministic(t *testing.T) {
	src := `(builtins.derivationStrict { name = "hello"; builder = "/bin/sh"; }).outPath`
	a := eval(t, src)
	b := eval(t, src)
	if a.String() != b.String() {
		t.Fatalf("derivationStrict is not deterministic: %q != %q", a.String(), b.String())
	}
}

func TestDerivationStrictRequiresName(t *testing.T) {
	sess := nixeval.New(nil, nil)
	defer sess.Close()
	v, err := sess.EvalString("<test>", `builtins.derivationStrict { builder = "/bin/sh"; }`)
	if err == nil {
		if err = sess.ForceDeep(v); err == nil {
			t.Fatal("expected an error for a derivation missing `name`")
		}
	}
}

func TestDerivationStrictWithMultipleOutputsAndListArgs(t *testing.T) {
	sess := nixeval.New(nil, nil)
	defer sess.Close()
	v, err := sess.EvalString("<test>", `builtins.derivationStrict {
		name = "multi";
		builder = "/bin/sh";
		args = [ "-c" "true" ];
		outputs = [ "out" "dev" ];
	}`)
	if err != nil {
		t.Fatalf("EvalString: %v", err)
	}
	if err := sess.ForceDeep(v); err != nil {
		t.Fatalf("ForceDeep: %v", err)
	}
	if v.Kind != value.KindAttrs {
		t.Fatalf("expected an attrset, got %v", v)
	}

	outputs := eval(t, `(builtins.derivationStrict {
		name = "multi";
		builder = "/bin/sh";
		args = [ "-c" "true" ];
		outputs = [ "out" "dev" ];
	}).outputs`)
	if outputs.Kind != value.KindList || outputs.List.Len() != 2 {
		t.Fatalf("outputs = %v, want a 2-element list", outputs)
	}

	dev := eval(t, `(builtins.derivationStrict {
		name = "multi";
		builder = "/bin/sh";
		args = [ "-c" "true" ];
		outputs = [ "out" "dev" ];
	}).dev`)
	if dev.Kind != value.KindString || dev.Str.Bytes == "" {
		t.Fatalf("dev output = %v, want a non-empty store path", dev)
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
