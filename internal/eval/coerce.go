package eval

import (
	"strconv"
	"strings"

	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/nixparse"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// CoerceOpts controls how permissive CoerceToString is, mirroring the
// evaluator's internal coerceToString(v, context, coerceMore,
// copyToStore, canonicalizePath) signature.
type CoerceOpts struct {
	// CoerceMore allows bools, ints, floats, and null to coerce to
	// strings; off by default, since plain `+` concatenation of e.g. a
	// string and an int is a TypeError. The evaluator's own interpolation
	// path leaves it off, and `toString` uses the primops' own coercion.
	CoerceMore bool
}

// CoerceToString reduces v to a string, accumulating any path/derivation
// dependency it carries into ctx. pos is used for error reporting.
func (ev *Evaluator) CoerceToString(v *value.Value, pos symtab.PosIdx, opts CoerceOpts) (string, []value.ContextEntry, error) {
	if err := ev.Force(v, pos); err != nil {
		return "", nil, err
	}
	switch v.Kind {
	case value.KindString:
		return v.Str.Bytes, v.Str.Context, nil
	case value.KindPath:
		return v.Path.AbsPath, []value.ContextEntry{{Kind: value.Opaque, Path: v.Path.AbsPath}}, nil
	case value.KindAttrs:
		if slot, ok := v.Attrs.Get(ev.Symbols.Intern("__toString")); ok {
			fn := slot.Value.(*value.Value)
			res, err := ev.Apply(fn, v, pos)
			if err != nil {
				return "", nil, err
			}
			return ev.CoerceToString(res, pos, opts)
		}
		if slot, ok := v.Attrs.Get(ev.Symbols.Intern("outPath")); ok {
			out := slot.Value.(*value.Value)
			return ev.CoerceToString(out, pos, opts)
		}
		return "", nil, ev.throw(errs.TypeError, pos, "cannot coerce a set without an `outPath` attribute to a string")
	case value.KindList:
		var sb strings.Builder
		var ctx []value.ContextEntry
		for i := 0; i < v.List.Len(); i++ {
			if i > 0 {
				sb.WriteByte(' ')
			}
			s, c, err := ev.CoerceToString(v.List.At(i), pos, opts)
			if err != nil {
				return "", nil, err
			}
			sb.WriteString(s)
			ctx = value.MergeContext(ctx, c)
		}
		return sb.String(), ctx, nil
	}
	if opts.CoerceMore {
		switch v.Kind {
		case value.KindBool:
			if v.Bool {
				return "1", nil, nil
			}
			return "", nil, nil
		case value.KindNull:
			return "", nil, nil
		case value.KindInt:
			return strconv.FormatInt(v.Int, 10), nil, nil
		case value.KindFloat:
			return strconv.FormatFloat(v.Float, 'g', -1, 64), nil, nil
		}
	}
	return "", nil, ev.throw(errs.TypeError, pos, "cannot coerce a %s to a string", v.Type())
}

// concatStringLike implements `+` between a string/path left operand and
// any right operand: the result's type (string vs. path) is decided by
// the first operand, matching ExprConcatStrings's "first element decides
// the type" rule.
func (ev *Evaluator) concatStringLike(l, r *value.Value, pos symtab.PosIdx) (*value.Value, error) {
	ls, lctx, err := ev.CoerceToString(l, pos, CoerceOpts{})
	if err != nil {
		return nil, err
	}
	rs, rctx, err := ev.CoerceToString(r, pos, CoerceOpts{})
	if err != nil {
		return nil, err
	}
	ctx := value.MergeContext(lctx, rctx)
	if l.Kind == value.KindPath {
		return value.NewPath(l.Path.Accessor, ls+rs), nil
	}
	return value.NewStringWithContext(ls+rs, ctx), nil
}

// evalStringParts evaluates a Str/Path's interpolated parts and
// concatenates them. forPath relaxes nothing semantically here (paths
// still coerce the same way) but documents the call site's intent.
func (ev *Evaluator) evalStringParts(parts []nixparse.StringPart, env *value.Environment, forPath bool) (*value.Value, error) {
	if len(parts) == 1 && parts[0].Expr == nil {
		return value.NewString(parts[0].Text), nil
	}
	var sb strings.Builder
	var ctx []value.ContextEntry
	for _, p := range parts {
		if p.Expr == nil {
			sb.WriteString(p.Text)
			continue
		}
		v, err := ev.Eval(p.Expr, env)
		if err != nil {
			return nil, err
		}
		s, c, err := ev.CoerceToString(v, p.Expr.Pos(), CoerceOpts{})
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)
		ctx = value.MergeContext(ctx, c)
	}
	return value.NewStringWithContext(sb.String(), ctx), nil
}

// evalConcatStrings evaluates a desugared ConcatStrings node (not
// currently produced by this package's parser, which instead keeps
// string/path interpolation as Str/Path nodes — this function exists so
// the node type is a fully supported member of the expression language,
// for callers (e.g. a future richer parser) that do desugar to it).
func (ev *Evaluator) evalConcatStrings(n *nixparse.ConcatStrings, env *value.Environment) (*value.Value, error) {
	parts := make([]nixparse.StringPart, len(n.Parts))
	for i, e := range n.Parts {
		parts[i] = nixparse.StringPart{Expr: e}
	}
	v, err := ev.evalStringParts(parts, env, n.ForcePath)
	if err != nil {
		return nil, err
	}
	if n.ForcePath {
		return value.NewPath("local", v.Str.Bytes), nil
	}
	return v, nil
}
