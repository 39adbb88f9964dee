package value

import "sort"

// ContextKind distinguishes the three ways a string can depend on a
// store path, modeled on original_source/src/libexpr/context.hh.
type ContextKind int

const (
	// Opaque records a plain dependency on a store path: "this string
	// mentions /nix/store/...-foo" with no further structure.
	Opaque ContextKind = iota
	// DrvDeep records a dependency on a derivation's full closure
	// (outputs and their build-time dependencies), not just its outPath.
	DrvDeep
	// Built records a dependency on one specific output of a derivation.
	Built
)

// ContextEntry is one element of a string's build-time dependency context.
type ContextEntry struct {
	Kind ContextKind
	// Path is the store path this entry refers to (for Opaque and
	// DrvDeep) or the derivation's store path (for Built).
	Path string
	// Output is the output name, meaningful only when Kind == Built.
	Output string
}

func (e ContextEntry) less(other ContextEntry) bool {
	if e.Path != other.Path {
		return e.Path < other.Path
	}
	if e.Kind != other.Kind {
		return e.Kind < other.Kind
	}
	return e.Output < other.Output
}

func (e ContextEntry) equal(other ContextEntry) bool {
	return e.Kind == other.Kind && e.Path == other.Path && e.Output == other.Output
}

// SortContext returns a sorted, de-duplicated copy of entries. Every
// String's Context is normalised through this function so context
// equality can be checked with a simple element-wise compare.
func SortContext(entries []ContextEntry) []ContextEntry {
	if len(entries) == 0 {
		return nil
	}
	out := append([]ContextEntry(nil), entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	dedup := out[:1]
	for _, e := range out[1:] {
		if !dedup[len(dedup)-1].equal(e) {
			dedup = append(dedup, e)
		}
	}
	return dedup
}

// MergeContext returns the sorted union of two already-sorted contexts,
// used when concatenating two strings (the result's context is the union
// of its operands' contexts).
func MergeContext(a, b []ContextEntry) []ContextEntry {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]ContextEntry, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].less(b[j]):
			out = append(out, a[i])
			i++
		case b[j].less(a[i]):
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
