// Package eval implements the evaluator core: WHNF reduction of parsed
// expressions over lazy thunks, attribute-set and list semantics,
// operators, string coercion, equality, and file-level caching of
// imports. It is grounded on the teacher's internal/interp/interpreter.go
// (the Interpreter struct: output writer, environment, config) and
// internal/interp/runtime/lazy_eval.go's LazyThunk/EvalCallback pattern,
// generalized from an opt-in by-need parameter mechanism into the
// universal call-by-need strategy this evaluator requires.
package eval

import (
	"sync"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/config"
	"github.com/NixOS/nix-sub000/internal/env"
	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/evalcache"
	"github.com/NixOS/nix-sub000/internal/store"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// Expr is re-exported from value so callers of this package don't need to
// import both internal/value and internal/nixparse for the same type.
type Expr = value.Expr

// Evaluator holds everything one evaluation session shares: the interned
// symbol/position tables, the `builtins` attrset, the call-depth guard,
// configuration, and the file-level import cache.
//
// Unlike the teacher's Interpreter, which is safe to reuse only from one
// goroutine at a time by convention, Evaluator makes that constraint
// explicit: nothing here is synchronized except the file-level import
// cache and the statistics counters.
type Evaluator struct {
	Symbols   *symtab.SymbolTable
	Positions *symtab.PositionTable
	Config    *config.Options
	Store     store.Store

	Builtins *value.Value // the finished `builtins` attrset

	// Cache is the optional on-disk evaluation cache (config.Options'
	// EvalCache knob). Nil means caching is off; every method that
	// consults it checks for nil first.
	Cache *evalcache.Cache

	// GlobalStatic and RootEnv are the compile-time scope and runtime
	// frame every parsed file's top-level expression is bound and
	// evaluated against, set up by InitGlobals once Builtins is ready.
	GlobalStatic *env.StaticEnv
	RootEnv      *value.Environment

	callDepth int

	fileCache sync.Map // absolute path string -> *value.Value (thunk, shared across imports)

	statsMu     sync.Mutex
	EnvCount    int64
	ValueCount  int64
	ThunksForced int64
}

// New returns an Evaluator with its symbol/position tables and
// configuration set up, but with Builtins still nil — callers set it
// (pkg/nixeval uses primops.Build) and then call InitGlobals before
// evaluating anything that references `builtins`.
func New(st *symtab.SymbolTable, pt *symtab.PositionTable, cfg *config.Options, strSt store.Store) *Evaluator {
	return &Evaluator{Symbols: st, Positions: pt, Config: cfg, Store: strSt}
}

// OpenCache opens the on-disk evaluation cache named by ev.Config.EvalCache
// (a no-op returning nil, nil if that knob is unset) and installs it as
// ev.Cache. Callers own the returned close func and should defer it.
func (ev *Evaluator) OpenCache() (func() error, error) {
	if ev.Config == nil || ev.Config.EvalCache == "" {
		return func() error { return nil }, nil
	}
	c, err := evalcache.Open(ev.Config.EvalCache)
	if err != nil {
		return nil, err
	}
	ev.Cache = c
	return c.Close, nil
}

// CachedDerivationInfo consults the evaluation cache (if one is installed)
// for v's derivation shape — drvPath/outPath/outputs — forcing and caching
// the relevant attributes on a miss. isDrv is false and err is nil if v
// simply isn't a derivation attrset. If no cache is installed, ev falls
// back to forcing and reading those attributes directly without caching.
func (ev *Evaluator) CachedDerivationInfo(fingerprint string, v *value.Value, pos symtab.PosIdx) (isDrv bool, drvPath, outPath string, outputs []string, err error) {
	if ev.Cache != nil {
		return evalcache.QueryDerivation(ev.Cache, ev, ev.Symbols, fingerprint, v, pos)
	}
	return ev.uncachedDerivationInfo(v, pos)
}

func (ev *Evaluator) uncachedDerivationInfo(v *value.Value, pos symtab.PosIdx) (isDrv bool, drvPath, outPath string, outputs []string, err error) {
	if err = ev.Force(v, pos); err != nil || v.Kind != value.KindAttrs {
		return false, "", "", nil, err
	}
	typeSym := ev.Symbols.Intern("type")
	slot, ok := v.Attrs.Get(typeSym)
	if !ok {
		return false, "", "", nil, nil
	}
	typeVal := slot.Value.(*value.Value)
	if err = ev.Force(typeVal, pos); err != nil {
		return false, "", "", nil, err
	}
	if typeVal.Kind != value.KindString || typeVal.Str.Bytes != "derivation" {
		return false, "", "", nil, nil
	}
	attr := func(name string) (*value.Value, bool) {
		s, ok := v.Attrs.Get(ev.Symbols.Intern(name))
		val, _ := s.Value.(*value.Value)
		return val, ok
	}
	if dv, ok := attr("drvPath"); ok {
		if err = ev.Force(dv, pos); err != nil {
			return true, "", "", nil, err
		}
		drvPath = dv.Str.Bytes
	}
	if ov, ok := attr("outPath"); ok {
		if err = ev.Force(ov, pos); err != nil {
			return true, "", "", nil, err
		}
		outPath = ov.Str.Bytes
	}
	outputs = []string{"out"}
	if lv, ok := attr("outputs"); ok {
		if err = ev.Force(lv, pos); err != nil {
			return true, "", "", nil, err
		}
		if lv.Kind == value.KindList {
			outputs = outputs[:0]
			for i := 0; i < lv.List.Len(); i++ {
				el := lv.List.At(i)
				if err = ev.Force(el, pos); err != nil {
					return true, "", "", nil, err
				}
				outputs = append(outputs, el.Str.Bytes)
			}
		}
	}
	return true, drvPath, outPath, outputs, nil
}

func (ev *Evaluator) pos(idx symtab.PosIdx) symtab.Pos { return ev.Positions.Resolve(idx) }

// Pos resolves idx to a human-readable position. Exported for primops
// (value.Caller) that need to build their own *errs.Error.
func (ev *Evaluator) Pos(idx symtab.PosIdx) symtab.Pos { return ev.pos(idx) }

// Intern and SymbolName let primops (value.Caller) translate between
// attribute-name strings (builtins.hasAttr, builtins.getAttr, ...) and
// the interned Symbol handles Bindings is keyed by.
func (ev *Evaluator) Intern(s string) symtab.Symbol     { return ev.Symbols.Intern(s) }
func (ev *Evaluator) SymbolName(sym symtab.Symbol) string { return ev.Symbols.Str(sym) }

// throw is a small helper building an *errs.Error at idx with a frame for
// the current operation.
func (ev *Evaluator) throw(kind errs.Kind, idx symtab.PosIdx, format string, args ...any) error {
	return errs.New(kind, ev.pos(idx), format, args...)
}

// enterCall increments the call-depth guard and returns a release
// function; it returns an InfiniteRecursion error instead when the
// configured maximum is exceeded. Grounded on the teacher's recursion
// depth counter (internal/interp/recursion_test.go's pattern of bounding
// nested calls rather than letting the Go stack overflow).
func (ev *Evaluator) enterCall(idx symtab.PosIdx) (func(), error) {
	max := 10000
	if ev.Config != nil && ev.Config.MaxCallDepth > 0 {
		max = ev.Config.MaxCallDepth
	}
	ev.callDepth++
	if ev.callDepth > max {
		ev.callDepth--
		return nil, ev.throw(errs.InfiniteRecursion, idx, "stack overflow; max-call-depth %d exceeded", max)
	}
	return func() { ev.callDepth-- }, nil
}

// Eval fully reduces expr (closed over env) to weak head normal form.
// Sub-expressions that do not need to be inspected yet (let-bound values,
// attrset values, list elements, function arguments) are wrapped as
// thunks instead of being evaluated here.
func (ev *Evaluator) Eval(expr Expr, env *value.Environment) (*value.Value, error) {
	return ev.eval(expr, env)
}

// Thunk wraps expr/env as a not-yet-evaluated Value, for binding sites
// that must stay lazy.
func (ev *Evaluator) Thunk(expr Expr, env *value.Environment) *value.Value {
	return value.NewThunk(expr, env)
}

// Force drives v to weak head normal form in place, installing the
// blackhole sentinel for the duration so that a self-referential forcing
// attempt is reported as infinite recursion instead of looping or
// crashing. Satisfies value.Caller for primops.
func (ev *Evaluator) Force(v *value.Value, pos symtab.PosIdx) error {
	if v.IsFinished() {
		return nil
	}
	if v.Kind == value.KindBlackhole {
		return ev.throw(errs.InfiniteRecursion, pos, "infinite recursion encountered")
	}
	if v.Kind != value.KindThunk && v.Kind != value.KindNativeThunk {
		return nil
	}
	saved := v.SetBlackhole()
	var result *value.Value
	var err error
	if saved.Kind == value.KindNativeThunk {
		result, err = saved.Native(ev, pos)
	} else {
		result, err = ev.eval(saved.Thunk.Expr, saved.Thunk.Env)
	}
	if err != nil {
		v.Restore(saved)
		return err
	}
	ev.statsMu.Lock()
	ev.ThunksForced++
	ev.statsMu.Unlock()
	v.Become(result)
	return nil
}

// ForceDeep recursively forces v and, if it is a list or attrset, every
// value reachable from it. Used by `builtins.deepSeq` and by
// pkg/nixeval's Session.ForceDeep.
//
// A visited set guards against cyclic structures (`let a = { x = a; }; in
// a`, once `a.x` itself is forced to the same attrset) — without it,
// deepSeq-ing a self-referential value recurses forever instead of
// terminating the way a finite, already-finished value does.
func (ev *Evaluator) ForceDeep(v *value.Value, pos symtab.PosIdx) error {
	return ev.forceDeep(v, pos, make(map[*value.Value]bool))
}

func (ev *Evaluator) forceDeep(v *value.Value, pos symtab.PosIdx, visited map[*value.Value]bool) error {
	if err := ev.Force(v, pos); err != nil {
		return err
	}
	if visited[v] {
		return nil
	}
	switch v.Kind {
	case value.KindList:
		if v.List.Len() == 0 {
			return nil
		}
		visited[v] = true
		for i := 0; i < v.List.Len(); i++ {
			if err := ev.forceDeep(v.List.At(i), pos, visited); err != nil {
				return err
			}
		}
	case value.KindAttrs:
		if v.Attrs.Len() == 0 {
			return nil
		}
		visited[v] = true
		var ferr error
		v.Attrs.Range(func(_ symtab.Symbol, p symtab.PosIdx, slot *attrs.Slot) {
			if ferr != nil {
				return
			}
			ferr = ev.forceDeep(slot.Value.(*value.Value), p, visited)
		})
		if ferr != nil {
			return ferr
		}
	}
	return nil
}
