package primops

import (
	"strconv"
	"strings"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

func init() {
	prim("compareVersions", 2, []string{"a", "b"}, primCompareVersions)
	prim("splitVersion", 1, []string{"s"}, primSplitVersion)
	prim("parseDrvName", 1, []string{"s"}, primParseDrvName)
}

// eqValues is a structural equality against the value.Caller surface,
// for primops (elem) that need it without importing internal/eval.
// Unlike eval/equality.go's EqValues it has no derivation-by-outPath rule.
func eqValues(call value.Caller, a, b *value.Value, pos symtab.PosIdx) (bool, error) {
	if err := call.Force(a, pos); err != nil {
		return false, err
	}
	if err := call.Force(b, pos); err != nil {
		return false, err
	}
	if a.Kind == value.KindLambda || a.Kind == value.KindPrimOp || a.Kind == value.KindPrimOpApp ||
		b.Kind == value.KindLambda || b.Kind == value.KindPrimOp || b.Kind == value.KindPrimOpApp {
		return false, nil
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf, nil
	}
	if a.Kind != b.Kind {
		return false, nil
	}
	switch a.Kind {
	case value.KindBool:
		return a.Bool == b.Bool, nil
	case value.KindNull:
		return true, nil
	case value.KindString:
		return a.Str.Bytes == b.Str.Bytes, nil
	case value.KindPath:
		return a.Path.AbsPath == b.Path.AbsPath, nil
	case value.KindList:
		if a.List.Len() != b.List.Len() {
			return false, nil
		}
		for i := 0; i < a.List.Len(); i++ {
			eq, err := eqValues(call, a.List.At(i), b.List.At(i), pos)
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	case value.KindAttrs:
		if a.Attrs.Len() != b.Attrs.Len() {
			return false, nil
		}
		eq := true
		var ferr error
		a.Attrs.Range(func(sym symtab.Symbol, _ symtab.PosIdx, slot *attrs.Slot) {
			if !eq || ferr != nil {
				return
			}
			bs, ok := b.Attrs.Get(sym)
			if !ok {
				eq = false
				return
			}
			e, err := eqValues(call, slotValue(*slot), slotValue(bs), pos)
			if err != nil {
				ferr = err
				return
			}
			eq = e
		})
		return eq, ferr
	default:
		return false, nil
	}
}

// splitVersionComponents splits a Nix-style version string into its
// dot/dash-separated parts, matching upstream's rule that a digit run
// never merges with an adjacent letter run within one dot-separated
// component (so "10pre2" splits into "10", "pre", "2").
func splitVersionComponents(s string) []string {
	var parts []string
	for _, dotPart := range strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '-' }) {
		start := 0
		isDigit := func(r byte) bool { return r >= '0' && r <= '9' }
		for i := 1; i <= len(dotPart); i++ {
			if i == len(dotPart) || isDigit(dotPart[i]) != isDigit(dotPart[start]) {
				parts = append(parts, dotPart[start:i])
				start = i
			}
		}
	}
	return parts
}

// compareVersionPart orders two version components the way Nix does:
// numeric comparison when both are all-digits, otherwise lexicographic,
// with a handful of special tokens ("", "pre") sorting below everything
// else.
func compareVersionPart(a, b string) int {
	rank := func(s string) int {
		switch s {
		case "":
			return -2
		case "pre":
			return -1
		default:
			return 0
		}
	}
	ra, rb := rank(a), rank(b)
	if ra != 0 || rb != 0 {
		switch {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		default:
			return 0
		}
	}
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareVersionStrings(a, b string) int {
	pa, pb := splitVersionComponents(a), splitVersionComponents(b)
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var ca, cb string
		if i < len(pa) {
			ca = pa[i]
		}
		if i < len(pb) {
			cb = pb[i]
		}
		if c := compareVersionPart(ca, cb); c != 0 {
			return c
		}
	}
	return 0
}

func primCompareVersions(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	a, err := requireString(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	b, err := requireString(call, pos, args[1])
	if err != nil {
		return nil, err
	}
	return value.NewInt(int64(compareVersionStrings(a, b))), nil
}

func primSplitVersion(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	s, err := requireString(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	parts := splitVersionComponents(s)
	out := make([]*value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.NewString(p)
	}
	return &value.Value{Kind: value.KindList, List: value.NewList(out)}, nil
}

// primParseDrvName implements builtins.parseDrvName: splits "name-1.2.3"
// into {name = "name"; version = "1.2.3";}, where the version is the
// suffix starting at the first dash followed by a digit.
func primParseDrvName(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	s, err := requireString(call, pos, args[0])
	if err != nil {
		return nil, err
	}
	name, version := s, ""
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '-' && s[i+1] >= '0' && s[i+1] <= '9' {
			name, version = s[:i], s[i+1:]
			break
		}
	}
	b := newBuilder(2)
	b.set(call, "name", value.NewString(name))
	b.set(call, "version", value.NewString(version))
	return b.build(), nil
}
