package evalcache

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// AttrCursor walks one forced attrset, consulting and populating a Cache
// as it goes, exactly as spec.md §4.7 names: maybeGetAttr, forceValue,
// the getString/getBool/getInt/getListOfStrings/getAttrs family,
// isDerivation, forceDerivation. It is the evalcache package's one
// exported way to read a cached (or freshly-forced, then cached)
// attribute without internal/eval needing to know the cache's row
// format.
type AttrCursor struct {
	cache  *Cache
	call   value.Caller
	syms   *symtab.SymbolTable
	key    string // this cursor's own parent fingerprint
	attrs  *value.Value
	pos    symtab.PosIdx
}

// NewAttrCursor returns a cursor over v (which must already be, or will
// be forced to, an attrset) keyed by key within cache.
func NewAttrCursor(cache *Cache, call value.Caller, syms *symtab.SymbolTable, key string, v *value.Value, pos symtab.PosIdx) *AttrCursor {
	return &AttrCursor{cache: cache, call: call, syms: syms, key: key, attrs: v, pos: pos}
}

// Child returns a cursor over the attrset found at name, keyed by a
// fingerprint derived from this cursor's own key, so nested attrsets
// cache independently of their parent's rows.
func (c *AttrCursor) Child(name string, v *value.Value) *AttrCursor {
	return &AttrCursor{cache: c.cache, call: c.call, syms: c.syms, key: AttrKey(c.key, []string{name}), attrs: v, pos: c.pos}
}

// maybeGetAttr looks up name in the underlying attrset without forcing
// it if a cached row already answers the question, returning
// (value, found). A cached typeUnset row means "previously forced and
// found absent" and reports found=false without touching the attrset.
func (c *AttrCursor) maybeGetAttr(name string) (*value.Value, bool, error) {
	if r, ok, err := c.cache.get(c.key, name); err != nil {
		return nil, false, err
	} else if ok {
		if r.typ == typeUnset {
			return nil, false, nil
		}
		// Rows decodeValue cannot rebuild (typeAttrs, typeFailed) fall
		// through to a live lookup.
		if v, err := decodeValue(r); v != nil || err != nil {
			return v, true, err
		}
	}

	if c.attrs == nil || c.attrs.Kind != value.KindAttrs {
		return nil, false, nil
	}
	sym, ok := c.syms.Lookup(name)
	if !ok {
		_ = c.cache.put(c.key, name, row{typ: typeUnset})
		return nil, false, nil
	}
	slot, found := c.attrs.Attrs.Get(sym)
	if !found {
		_ = c.cache.put(c.key, name, row{typ: typeUnset})
		return nil, false, nil
	}
	v := slot.Value.(*value.Value)
	if err := c.call.Force(v, c.pos); err != nil {
		return nil, false, err
	}
	// A kind encodeValue has no row type for (function, path, ...) is not
	// recorded: its typeUnset row would read back as "found absent".
	if r := c.encodeValue(v); r.typ != typeUnset {
		if err := c.cache.put(c.key, name, r); err != nil {
			return nil, false, err
		}
	}
	return v, true, nil
}

// forceValue forces v and stores its result under name, unconditionally
// (used when the caller already knows it needs the fresh value and wants
// the cache updated rather than consulted).
func (c *AttrCursor) forceValue(name string, v *value.Value) (*value.Value, error) {
	if err := c.call.Force(v, c.pos); err != nil {
		_ = c.cache.put(c.key, name, row{typ: typeFailed, value: err.Error()})
		return nil, err
	}
	if err := c.cache.put(c.key, name, c.encodeValue(v)); err != nil {
		return nil, err
	}
	return v, nil
}

func (c *AttrCursor) getString(name string) (string, bool, error) {
	v, ok, err := c.maybeGetAttr(name)
	if err != nil || !ok || v.Kind != value.KindString {
		return "", false, err
	}
	return v.Str.Bytes, true, nil
}

func (c *AttrCursor) getBool(name string) (bool, bool, error) {
	v, ok, err := c.maybeGetAttr(name)
	if err != nil || !ok || v.Kind != value.KindBool {
		return false, false, err
	}
	return v.Bool, true, nil
}

func (c *AttrCursor) getInt(name string) (int64, bool, error) {
	v, ok, err := c.maybeGetAttr(name)
	if err != nil || !ok || v.Kind != value.KindInt {
		return 0, false, err
	}
	return v.Int, true, nil
}

func (c *AttrCursor) getListOfStrings(name string) ([]string, bool, error) {
	v, ok, err := c.maybeGetAttr(name)
	if err != nil || !ok {
		return nil, false, err
	}
	if v.Kind != value.KindList {
		return nil, false, nil
	}
	out := make([]string, 0, v.List.Len())
	for i := 0; i < v.List.Len(); i++ {
		el := v.List.At(i)
		if err := c.call.Force(el, c.pos); err != nil {
			return nil, false, err
		}
		if el.Kind != value.KindString {
			continue
		}
		out = append(out, el.Str.Bytes)
	}
	return out, true, nil
}

// getAttrs returns a child cursor over the attrset at name.
func (c *AttrCursor) getAttrs(name string) (*AttrCursor, bool, error) {
	v, ok, err := c.maybeGetAttr(name)
	if err != nil || !ok || v.Kind != value.KindAttrs {
		return nil, false, err
	}
	return c.Child(name, v), true, nil
}

// isDerivation reports whether the underlying attrset has
// `type = "derivation"`, matching upstream Nix's own convention for
// recognising a derivation attrset rather than a nominal type tag.
func (c *AttrCursor) isDerivation() (bool, error) {
	s, ok, err := c.getString("type")
	if err != nil || !ok {
		return false, err
	}
	return s == "derivation", nil
}

// forceDerivation forces and returns the three fields
// derivationStrict-shaped attrsets are expected to carry: drvPath,
// outPath, and the outputs list.
func (c *AttrCursor) forceDerivation() (drvPath, outPath string, outputs []string, err error) {
	drvPath, _, err = c.getString("drvPath")
	if err != nil {
		return "", "", nil, err
	}
	outPath, _, err = c.getString("outPath")
	if err != nil {
		return "", "", nil, err
	}
	outputs, _, err = c.getListOfStrings("outputs")
	if err != nil {
		return "", "", nil, err
	}
	if outputs == nil {
		outputs = []string{"out"}
	}
	return drvPath, outPath, outputs, nil
}

// QueryDerivation is the exported entry point other packages use to
// consult the cache for one attrset: it reports whether v looks like a
// derivation and, if so, its drvPath/outPath/outputs, using (and
// populating) the cache along the way. AttrCursor's own methods mirror
// the original Nix eval-cache's lowercase method names one-for-one and
// stay unexported; this is the one doorway into them from outside the
// package.
func QueryDerivation(cache *Cache, call value.Caller, syms *symtab.SymbolTable, fingerprint string, v *value.Value, pos symtab.PosIdx) (isDrv bool, drvPath, outPath string, outputs []string, err error) {
	cur := NewAttrCursor(cache, call, syms, fingerprint, v, pos)
	isDrv, err = cur.isDerivation()
	if err != nil || !isDrv {
		return isDrv, "", "", nil, err
	}
	drvPath, outPath, outputs, err = cur.forceDerivation()
	return isDrv, drvPath, outPath, outputs, err
}

// ---- row <-> value.Value encoding --------------------------------------

func (c *AttrCursor) encodeValue(v *value.Value) row {
	switch v.Kind {
	case value.KindString:
		ctxJSON, _ := json.Marshal(v.Str.Context)
		return row{typ: typeString, value: v.Str.Bytes, context: string(ctxJSON)}
	case value.KindBool:
		if v.Bool {
			return row{typ: typeBool, value: "1"}
		}
		return row{typ: typeBool, value: "0"}
	case value.KindInt:
		return row{typ: typeInt, value: strconv.FormatInt(v.Int, 10)}
	case value.KindFloat:
		return row{typ: typeFloat, value: strconv.FormatFloat(v.Float, 'g', -1, 64)}
	case value.KindNull:
		return row{typ: typeNull}
	case value.KindList:
		strs := make([]string, 0, v.List.Len())
		for i := 0; i < v.List.Len(); i++ {
			el := v.List.At(i)
			if el.Kind == value.KindString {
				strs = append(strs, el.Str.Bytes)
			}
		}
		b, _ := json.Marshal(strs)
		return row{typ: typeList, value: string(b)}
	case value.KindAttrs:
		// Shallow only: record the sorted attribute names so a later
		// session knows what's present without forcing anything; the
		// nested values themselves cache under their own child key.
		names := value.AttrNames(v.Attrs, c.syms)
		return row{typ: typeAttrs, value: strings.Join(names, ",")}
	default:
		return row{typ: typeUnset}
	}
}

func decodeValue(r row) (*value.Value, error) {
	switch r.typ {
	case typeString:
		var ctx []value.ContextEntry
		if r.context != "" {
			_ = json.Unmarshal([]byte(r.context), &ctx)
		}
		return value.NewStringWithContext(r.value, ctx), nil
	case typeBool:
		return value.NewBool(r.value == "1"), nil
	case typeInt:
		n, err := strconv.ParseInt(r.value, 10, 64)
		if err != nil {
			return nil, err
		}
		return value.NewInt(n), nil
	case typeFloat:
		f, err := strconv.ParseFloat(r.value, 64)
		if err != nil {
			return nil, err
		}
		return value.NewFloat(f), nil
	case typeNull:
		return value.NewNull(), nil
	case typeList:
		var strs []string
		if err := json.Unmarshal([]byte(r.value), &strs); err != nil {
			return nil, err
		}
		elems := make([]*value.Value, len(strs))
		for i, s := range strs {
			elems[i] = value.NewString(s)
		}
		return &value.Value{Kind: value.KindList, List: value.NewList(elems)}, nil
	default:
		return nil, nil
	}
}
