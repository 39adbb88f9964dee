package eval

import (
	"strings"
	"testing"
	"time"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/config"
	"github.com/NixOS/nix-sub000/internal/nixparse"
	"github.com/NixOS/nix-sub000/internal/primops"
	"github.com/NixOS/nix-sub000/internal/store"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// newTestEvaluator builds a fully wired Evaluator the way pkg/nixeval.New
// does, without importing that package (which itself imports internal/eval
// and would create an import cycle from a white-box test here).
func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	st := symtab.NewSymbolTable()
	pt := symtab.NewPositionTable()
	ev := New(st, pt, &config.Options{}, store.NewMemStore(""))
	ev.Builtins = primops.Build(st)
	ev.InitGlobals()
	return ev
}

func mustEval(t *testing.T, ev *Evaluator, src string) *value.Value {
	t.Helper()
	expr, err := nixparse.Parse("<test>", src, ev.Symbols, ev.Positions)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	nixparse.Bind(expr, ev.GlobalStatic)
	v := ev.Thunk(expr, ev.RootEnv)
	if err := ev.Force(v, expr.Pos()); err != nil {
		t.Fatalf("Force(%q): %v", src, err)
	}
	return v
}

func evalErr(t *testing.T, ev *Evaluator, src string) error {
	t.Helper()
	expr, err := nixparse.Parse("<test>", src, ev.Symbols, ev.Positions)
	if err != nil {
		return err
	}
	nixparse.Bind(expr, ev.GlobalStatic)
	v := ev.Thunk(expr, ev.RootEnv)
	return ev.Force(v, expr.Pos())
}

func TestEvalArithmetic(t *testing.T) {
	ev := newTestEvaluator(t)
	cases := []struct {
		src  string
		want int64
	}{
		{"1 + 2", 3},
		{"10 - 4", 6},
		{"3 * 4", 12},
		{"7 / 2", 3},
		{"2 + 3 * 4", 14},
	}
	for _, c := range cases {
		v := mustEval(t, ev, c.src)
		if v.Kind != value.KindInt || v.Int != c.want {
			t.Errorf("eval(%q) = %v, want int %d", c.src, v, c.want)
		}
	}
}

func TestEvalArithmeticPromotesToFloat(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "1 + 2.5")
	if v.Kind != value.KindFloat || v.Float != 3.5 {
		t.Fatalf("eval(\"1 + 2.5\") = %v, want float 3.5", v)
	}
}

func TestEvalIntegerOverflowIsAnError(t *testing.T) {
	ev := newTestEvaluator(t)
	if err := evalErr(t, ev, "9223372036854775807 + 1"); err == nil {
		t.Fatal("expected an overflow error adding to math.MaxInt64")
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	ev := newTestEvaluator(t)
	if err := evalErr(t, ev, "1 / 0"); err == nil {
		t.Fatal("expected a division-by-zero error")
	}
}

func TestEvalStringConcat(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, `"foo" + "bar"`)
	if v.Kind != value.KindString || v.Str.Bytes != "foobar" {
		t.Fatalf("eval = %v, want string \"foobar\"", v)
	}
}

func TestEvalStringInterpolation(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, `let x = "world"; in "hello ${x}"`)
	if v.Kind != value.KindString || v.Str.Bytes != "hello world" {
		t.Fatalf("eval = %v, want \"hello world\"", v)
	}
}

func TestEvalLetRecursiveBinding(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "let x = 1; y = x + 1; in y")
	if v.Kind != value.KindInt || v.Int != 2 {
		t.Fatalf("eval = %v, want int 2", v)
	}
}

func TestEvalLazyLetDoesNotForceUnusedBinding(t *testing.T) {
	ev := newTestEvaluator(t)
	// the unused binding throws if ever forced; if evaluation of the body
	// alone succeeds, laziness held.
	v := mustEval(t, ev, `let x = 1; bad = 1 / 0; in x`)
	if v.Kind != value.KindInt || v.Int != 1 {
		t.Fatalf("eval = %v, want int 1 (bad must stay unforced)", v)
	}
}

func TestEvalLambdaApplication(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "(x: x + 1) 41")
	if v.Kind != value.KindInt || v.Int != 42 {
		t.Fatalf("eval = %v, want int 42", v)
	}
}

func TestEvalCurriedApplicationIsLeftAssociative(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "(a: b: a - b) 10 3")
	if v.Kind != value.KindInt || v.Int != 7 {
		t.Fatalf("eval = %v, want int 7", v)
	}
}

func TestEvalFormalsDestructuring(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "({ a, b }: a + b) { a = 1; b = 2; }")
	if v.Kind != value.KindInt || v.Int != 3 {
		t.Fatalf("eval = %v, want int 3", v)
	}
}

func TestEvalFormalsDefaultValue(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "({ a, b ? 10 }: a + b) { a = 1; }")
	if v.Kind != value.KindInt || v.Int != 11 {
		t.Fatalf("eval = %v, want int 11", v)
	}
}

func TestEvalFormalsMissingRequiredArgIsAnError(t *testing.T) {
	ev := newTestEvaluator(t)
	if err := evalErr(t, ev, "({ a }: a) { }"); err == nil {
		t.Fatal("expected a missing-argument error")
	}
}

func TestEvalFormalsRejectsExtraArgWithoutEllipsis(t *testing.T) {
	ev := newTestEvaluator(t)
	if err := evalErr(t, ev, "({ a }: a) { a = 1; b = 2; }"); err == nil {
		t.Fatal("expected an error for an unexpected extra argument")
	}
}

func TestEvalFormalsEllipsisAllowsExtraArgs(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "({ a, ... }: a) { a = 1; b = 2; }")
	if v.Kind != value.KindInt || v.Int != 1 {
		t.Fatalf("eval = %v, want int 1", v)
	}
}

func TestEvalIfElse(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "if 1 < 2 then \"yes\" else \"no\"")
	if v.Kind != value.KindString || v.Str.Bytes != "yes" {
		t.Fatalf("eval = %v, want \"yes\"", v)
	}
}

func TestEvalIfRequiresBoolCondition(t *testing.T) {
	ev := newTestEvaluator(t)
	if err := evalErr(t, ev, `if "x" then 1 else 2`); err == nil {
		t.Fatal("expected a type error for a non-bool condition")
	}
}

func TestEvalAssertFailureStopsEvaluation(t *testing.T) {
	ev := newTestEvaluator(t)
	if err := evalErr(t, ev, "assert false; 1"); err == nil {
		t.Fatal("expected an assertion error")
	}
}

func TestEvalAssertSuccessContinues(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "assert true; 1")
	if v.Kind != value.KindInt || v.Int != 1 {
		t.Fatalf("eval = %v, want int 1", v)
	}
}

func TestEvalAndOrShortCircuit(t *testing.T) {
	ev := newTestEvaluator(t)
	// the right side throws if ever evaluated.
	if v := mustEval(t, ev, "false && (1/0 == 1)"); v.Bool {
		t.Fatal("&& should short-circuit to false without forcing the right side")
	}
	if v := mustEval(t, ev, "true || (1/0 == 1)"); !v.Bool {
		t.Fatal("|| should short-circuit to true without forcing the right side")
	}
}

func TestEvalImplication(t *testing.T) {
	ev := newTestEvaluator(t)
	cases := []struct {
		src  string
		want bool
	}{
		{"false -> false", true},
		{"false -> true", true},
		{"true -> false", false},
		{"true -> true", true},
	}
	for _, c := range cases {
		v := mustEval(t, ev, c.src)
		if v.Bool != c.want {
			t.Errorf("eval(%q) = %v, want %v", c.src, v.Bool, c.want)
		}
	}
}

func TestEvalAttrSetUpdateRightWins(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "({ a = 1; b = 2; } // { b = 3; c = 4; }).b")
	if v.Kind != value.KindInt || v.Int != 3 {
		t.Fatalf("eval = %v, want int 3", v)
	}
}

func TestEvalListConcat(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "builtins.length ([1 2] ++ [3 4 5])")
	if v.Kind != value.KindInt || v.Int != 5 {
		t.Fatalf("eval = %v, want int 5", v)
	}
}

func TestEvalRecAttrSetSelfReference(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "(rec { a = 1; b = a + 1; }).b")
	if v.Kind != value.KindInt || v.Int != 2 {
		t.Fatalf("eval = %v, want int 2", v)
	}
}

func TestEvalAttrSetDottedPathMerges(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "({ a.b = 1; a.c = 2; }).a.c")
	if v.Kind != value.KindInt || v.Int != 2 {
		t.Fatalf("eval = %v, want int 2", v)
	}
}

func TestEvalAttrSetDuplicateAttributeIsAnError(t *testing.T) {
	ev := newTestEvaluator(t)
	if err := evalErr(t, ev, "{ a = 1; a = 2; }"); err == nil {
		t.Fatal("expected a duplicate-attribute error")
	}
}

func TestEvalInheritFromOuterScope(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "let x = 5; in { inherit x; }.x")
	if v.Kind != value.KindInt || v.Int != 5 {
		t.Fatalf("eval = %v, want int 5", v)
	}
}

func TestEvalInheritFromExpr(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "{ inherit ({ a = 10; }) a; }.a")
	if v.Kind != value.KindInt || v.Int != 10 {
		t.Fatalf("eval = %v, want int 10", v)
	}
}

func TestEvalSelectWithDefault(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "{ a = 1; }.b or 99")
	if v.Kind != value.KindInt || v.Int != 99 {
		t.Fatalf("eval = %v, want int 99", v)
	}
}

func TestEvalSelectMissingWithoutDefaultIsAnError(t *testing.T) {
	ev := newTestEvaluator(t)
	if err := evalErr(t, ev, "{ a = 1; }.b"); err == nil {
		t.Fatal("expected a missing-attribute error")
	}
}

func TestEvalHasAttrOperator(t *testing.T) {
	ev := newTestEvaluator(t)
	if v := mustEval(t, ev, "{ a = 1; } ? a"); !v.Bool {
		t.Fatal("{ a = 1; } ? a should be true")
	}
	if v := mustEval(t, ev, "{ a = 1; } ? b"); v.Bool {
		t.Fatal("{ a = 1; } ? b should be false")
	}
}

func TestEvalWithBringsAttrsIntoScope(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "with { a = 7; }; a + 1")
	if v.Kind != value.KindInt || v.Int != 8 {
		t.Fatalf("eval = %v, want int 8", v)
	}
}

func TestEvalWithDoesNotShadowLexicalBinding(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "let a = 1; in with { a = 2; }; a")
	if v.Kind != value.KindInt || v.Int != 1 {
		t.Fatalf("eval = %v, want int 1 (lexical binding wins over with)", v)
	}
}

func TestEvalComparisonOperators(t *testing.T) {
	ev := newTestEvaluator(t)
	cases := []struct {
		src  string
		want bool
	}{
		{"1 < 2", true},
		{"2 < 1", false},
		{"2 <= 2", true},
		{"3 > 2", true},
		{"2 >= 3", false},
		{"\"a\" < \"b\"", true},
		{"[1 2] < [1 3]", true},
		{"[1] < [1 2]", true},
	}
	for _, c := range cases {
		v := mustEval(t, ev, c.src)
		if v.Bool != c.want {
			t.Errorf("eval(%q) = %v, want %v", c.src, v.Bool, c.want)
		}
	}
}

func TestEvalComparisonOfIncompatibleTypesIsAnError(t *testing.T) {
	ev := newTestEvaluator(t)
	if err := evalErr(t, ev, `1 < "x"`); err == nil {
		t.Fatal("expected a type error comparing an int to a string")
	}
}

func TestEvalEqualityIntFloat(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "1 == 1.0")
	if !v.Bool {
		t.Fatal("1 == 1.0 should be true (numeric equality across int/float)")
	}
}

func TestEvalEqualityFunctionsNeverEqual(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "(let f = x: x; in f == f)")
	if v.Bool {
		t.Fatal("two function values should never compare equal, even to themselves")
	}
}

func TestEvalEqualityAttrsAndLists(t *testing.T) {
	ev := newTestEvaluator(t)
	if v := mustEval(t, ev, "{ a = 1; b = 2; } == { b = 2; a = 1; }"); !v.Bool {
		t.Fatal("attrsets with the same key/value pairs in different insertion order should be equal")
	}
	if v := mustEval(t, ev, "[1 2 3] == [1 2 3]"); !v.Bool {
		t.Fatal("lists with equal elements should be equal")
	}
	if v := mustEval(t, ev, "[1 2] == [1 2 3]"); v.Bool {
		t.Fatal("lists of different length should not be equal")
	}
}

func TestEvalNegation(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "-5")
	if v.Kind != value.KindInt || v.Int != -5 {
		t.Fatalf("eval = %v, want int -5", v)
	}
}

func TestEvalNot(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "!true")
	if v.Bool {
		t.Fatal("!true should be false")
	}
}

func TestEvalFunctorAttrSetIsCallable(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "({ __functor = self: x: x + 1; }) 41")
	if v.Kind != value.KindInt || v.Int != 42 {
		t.Fatalf("eval = %v, want int 42", v)
	}
}

func TestEvalCallingNonFunctionIsAnError(t *testing.T) {
	ev := newTestEvaluator(t)
	if err := evalErr(t, ev, "1 2"); err == nil {
		t.Fatal("expected a type error calling a non-function")
	}
}

func TestEvalInfiniteRecursionIsBounded(t *testing.T) {
	ev := newTestEvaluator(t)
	ev.Config.MaxCallDepth = 50
	if err := evalErr(t, ev, "let f = x: f x; in f 1"); err == nil {
		t.Fatal("expected an infinite-recursion error bounded by MaxCallDepth")
	}
}

func TestEvalSelfReferentialThunkIsBlackholeDetected(t *testing.T) {
	ev := newTestEvaluator(t)
	if err := evalErr(t, ev, "let x = x; in x"); err == nil {
		t.Fatal("expected an infinite-recursion error forcing a self-referential thunk")
	}
}

func TestForceDeepForcesNestedValues(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, "{ a = [ (1 + 1) (2 + 2) ]; }")
	if err := ev.ForceDeep(v, symtab.NoPos); err != nil {
		t.Fatalf("ForceDeep: %v", err)
	}
	slot, _ := v.Attrs.Get(ev.Symbols.Intern("a"))
	list := slot.Value.(*value.Value)
	if list.List.At(0).Int != 2 || list.List.At(1).Int != 4 {
		t.Fatalf("ForceDeep did not reduce nested list elements: %v", list)
	}
}

func TestCoerceToStringRejectsBareIntWithoutCoerceMore(t *testing.T) {
	ev := newTestEvaluator(t)
	v := value.NewInt(5)
	if _, _, err := ev.CoerceToString(v, symtab.NoPos, CoerceOpts{}); err == nil {
		t.Fatal("expected an error coercing an int to a string without CoerceMore")
	}
}

func TestCoerceToStringAllowsIntWithCoerceMore(t *testing.T) {
	ev := newTestEvaluator(t)
	v := value.NewInt(5)
	s, _, err := ev.CoerceToString(v, symtab.NoPos, CoerceOpts{CoerceMore: true})
	if err != nil {
		t.Fatalf("CoerceToString: %v", err)
	}
	if s != "5" {
		t.Fatalf("CoerceToString(5) = %q, want \"5\"", s)
	}
}

func TestCoerceToStringDerivationLikeAttrsUsesOutPath(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, `{ outPath = "/nix/store/xyz-thing"; }`)
	s, _, err := ev.CoerceToString(v, symtab.NoPos, CoerceOpts{})
	if err != nil {
		t.Fatalf("CoerceToString: %v", err)
	}
	if s != "/nix/store/xyz-thing" {
		t.Fatalf("CoerceToString = %q, want the outPath value", s)
	}
}

func TestAssertEqValuesReportsFirstDiff(t *testing.T) {
	ev := newTestEvaluator(t)
	a := mustEval(t, ev, "{ x = 1; y = [1 2 3]; }")
	b := mustEval(t, ev, "{ x = 1; y = [1 9 3]; }")
	ok, diff, err := ev.AssertEqValues(a, b, symtab.NoPos)
	if err != nil {
		t.Fatalf("AssertEqValues: %v", err)
	}
	if ok {
		t.Fatal("expected inequality")
	}
	if diff == nil || diff.Path != ".y[1]" {
		t.Fatalf("Diff = %+v, want path \".y[1]\"", diff)
	}
}

func TestEvalRecOverridesReplacesSelfReferentialBinding(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, `(rec { a = 1; b = a + 1; __overrides = { a = 10; }; }).b`)
	if v.Kind != value.KindInt || v.Int != 11 {
		t.Fatalf("b = %v, want int 11", v)
	}
}

func TestEvalRecOverridesAppendsNewAttr(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, `rec { a = 1; __overrides = { c = 3; }; }`)
	if v.Kind != value.KindAttrs {
		t.Fatalf("result is a %s, want attrs", v.Type())
	}
	aSlot, ok := v.Attrs.Get(ev.Symbols.Intern("a"))
	if !ok {
		t.Fatal("missing attr a")
	}
	aVal := aSlot.Value.(*value.Value)
	if err := ev.Force(aVal, symtab.NoPos); err != nil {
		t.Fatalf("force a: %v", err)
	}
	if aVal.Int != 1 {
		t.Fatalf("a = %d, want 1", aVal.Int)
	}
	cSlot, ok := v.Attrs.Get(ev.Symbols.Intern("c"))
	if !ok {
		t.Fatal("missing appended attr c")
	}
	cVal := cSlot.Value.(*value.Value)
	if err := ev.Force(cVal, symtab.NoPos); err != nil {
		t.Fatalf("force c: %v", err)
	}
	if cVal.Int != 3 {
		t.Fatalf("c = %d, want 3", cVal.Int)
	}
	if _, ok := v.Attrs.Get(ev.Symbols.Intern("__overrides")); ok {
		t.Fatal("__overrides itself should not appear in the output set")
	}
}

func TestEvalDerivationsCompareEqualByOutPathOnly(t *testing.T) {
	ev := newTestEvaluator(t)
	a := mustEval(t, ev, `{ type = "derivation"; outPath = "/nix/store/same-out"; drvPath = "/nix/store/a.drv"; name = "a"; }`)
	b := mustEval(t, ev, `{ type = "derivation"; outPath = "/nix/store/same-out"; drvPath = "/nix/store/b.drv"; name = "b"; }`)
	eq, err := ev.EqValues(a, b, symtab.NoPos)
	if err != nil {
		t.Fatalf("EqValues: %v", err)
	}
	if !eq {
		t.Fatal("expected derivations with equal outPath to compare equal despite other attrs differing")
	}
}

func TestEvalDerivationsCompareUnequalByDifferingOutPath(t *testing.T) {
	ev := newTestEvaluator(t)
	a := mustEval(t, ev, `{ type = "derivation"; outPath = "/nix/store/out-a"; drvPath = "/nix/store/a.drv"; }`)
	b := mustEval(t, ev, `{ type = "derivation"; outPath = "/nix/store/out-b"; drvPath = "/nix/store/a.drv"; }`)
	eq, err := ev.EqValues(a, b, symtab.NoPos)
	if err != nil {
		t.Fatalf("EqValues: %v", err)
	}
	if eq {
		t.Fatal("expected derivations with differing outPath to compare unequal")
	}
}

func TestCoerceToStringUsesToStringAttr(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, `{ __toString = self: "hello from " + self.name; name = "widget"; }`)
	s, _, err := ev.CoerceToString(v, symtab.NoPos, CoerceOpts{})
	if err != nil {
		t.Fatalf("CoerceToString: %v", err)
	}
	if s != "hello from widget" {
		t.Fatalf("CoerceToString = %q, want %q", s, "hello from widget")
	}
}

func TestCoerceToStringPrefersToStringOverOutPath(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, `{ __toString = self: "custom"; outPath = "/nix/store/ignored"; }`)
	s, _, err := ev.CoerceToString(v, symtab.NoPos, CoerceOpts{})
	if err != nil {
		t.Fatalf("CoerceToString: %v", err)
	}
	if s != "custom" {
		t.Fatalf("CoerceToString = %q, want %q", s, "custom")
	}
}

func TestForceDeepTerminatesOnCyclicAttrs(t *testing.T) {
	ev := newTestEvaluator(t)
	// Build a genuinely self-referential attrset value by hand: a.x
	// ultimately points back at a itself, the way `let a = { x = a; }; in a`
	// would evaluate once forced.
	cyclic := &value.Value{Kind: value.KindAttrs}
	b := attrs.NewBuilder(1)
	b.Insert(ev.Symbols.Intern("x"), symtab.NoPos, cyclic)
	built, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cyclic.Attrs = built
	done := make(chan error, 1)
	go func() { done <- ev.ForceDeep(cyclic, symtab.NoPos) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ForceDeep: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ForceDeep did not terminate on a cyclic attrset")
	}
}

func TestEvalDynamicAttrNameNullIsSkippedInAttrSetLiteral(t *testing.T) {
	ev := newTestEvaluator(t)
	v := mustEval(t, ev, `{ ${null} = 1; a = 2; }`)
	if v.Attrs.Len() != 1 {
		t.Fatalf("attrs has %d entries, want 1 (null-named binding skipped)", v.Attrs.Len())
	}
	if _, ok := v.Attrs.Get(ev.Symbols.Intern("a")); !ok {
		t.Fatal("missing attr a")
	}
}

func TestEvalSelectWithNonStringDynamicNameIsAnError(t *testing.T) {
	ev := newTestEvaluator(t)
	err := evalErr(t, ev, `{ a = 1; }.${null}`)
	if err == nil {
		t.Fatal("expected an error selecting through a null dynamic name")
	}
}

func TestEvalFormalsUnexpectedArgSuggestsCloseMatch(t *testing.T) {
	ev := newTestEvaluator(t)
	err := evalErr(t, ev, `({ name, age }: name) { nam = "a"; age = 1; }`)
	if err == nil {
		t.Fatal("expected an unexpected-argument error")
	}
	if !strings.Contains(err.Error(), "did you mean 'name'?") {
		t.Fatalf("error = %q, want a \"did you mean 'name'?\" suggestion", err.Error())
	}
}

func TestEvalFormalsUnexpectedArgNoSuggestionWhenNoCloseMatch(t *testing.T) {
	ev := newTestEvaluator(t)
	err := evalErr(t, ev, `({ name }: name) { somethingTotallyDifferent = 1; }`)
	if err == nil {
		t.Fatal("expected an unexpected-argument error")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("error = %q, want no suggestion for an unrelated name", err.Error())
	}
}
