// Package value implements the runtime value representation described by
// the evaluator's data model: a tagged union of scalar/composite/thunk
// variants (Value), the lexical environment chain values are captured in
// (Environment), and the small amount of supporting machinery (string
// contexts, list storage) those variants need.
//
// Environment lives in this package rather than a separate one because
// Lambda and Thunk values capture an *Environment and an *Environment's
// with-scope slot holds a Value — the two are mutually recursive, the same
// way the teacher keeps its Value and Environment types in one package
// (internal/interp) rather than splitting them and fighting an import
// cycle.
package value

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/symtab"
)

// Kind identifies which variant a Value is.
type Kind int

const (
	KindUninit Kind = iota
	KindInt
	KindFloat
	KindBool
	KindNull
	KindString
	KindPath
	KindAttrs
	KindList
	KindLambda
	KindPrimOp
	KindPrimOpApp
	KindApp
	KindThunk
	KindNativeThunk
	KindBlackhole
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindUninit:
		return "uninitialised"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindPath:
		return "path"
	case KindAttrs:
		return "attrset"
	case KindList:
		return "list"
	case KindLambda:
		return "lambda"
	case KindPrimOp:
		return "primop"
	case KindPrimOpApp:
		return "primop-app"
	case KindApp:
		return "app"
	case KindThunk:
		return "thunk"
	case KindNativeThunk:
		return "native-thunk"
	case KindBlackhole:
		return "blackhole"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Expr is satisfied by every AST expression node. It is declared here (not
// imported from the parser package) to avoid a value<->ast import cycle;
// the nixparse package's node types satisfy it structurally.
type Expr interface {
	Pos() symtab.PosIdx
}

// Value is the mutable cell every binding, list element, and thunk result
// points to. Exactly one of the Kind-tagged fields below is meaningful at
// any time; Force (see internal/eval) transitions a cell from Thunk/App/
// Blackhole to one of the finished kinds and never reverses that on the
// successful path.
type Value struct {
	Kind Kind

	Int    int64
	Float  float64
	Bool   bool
	Str    String
	Path   Path
	Attrs  *attrs.Bindings
	List   List
	Lambda *Lambda
	Prim   *PrimOp
	App    PrimOpApp // valid when Kind == KindPrimOpApp
	Call   Application

	Thunk  *Thunk
	Native NativeThunk // valid when Kind == KindNativeThunk

	External External
}

// New* constructors return a finished Value of the given kind.

func NewInt(i int64) *Value     { return &Value{Kind: KindInt, Int: i} }
func NewFloat(f float64) *Value { return &Value{Kind: KindFloat, Float: f} }
func NewBool(b bool) *Value     { return &Value{Kind: KindBool, Bool: b} }
func NewNull() *Value           { return &Value{Kind: KindNull} }

func NewString(s string) *Value { return &Value{Kind: KindString, Str: String{Bytes: s}} }

func NewStringWithContext(s string, ctx []ContextEntry) *Value {
	return &Value{Kind: KindString, Str: String{Bytes: s, Context: SortContext(ctx)}}
}

func NewAttrs(b *attrs.Bindings) *Value { return &Value{Kind: KindAttrs, Attrs: b} }

func NewPath(accessor string, absPath string) *Value {
	return &Value{Kind: KindPath, Path: Path{Accessor: accessor, AbsPath: absPath}}
}

// Type returns the evaluator-visible type name used by `builtins.typeOf`.
// Forced (non-thunk) kinds only; call Force first.
func (v *Value) Type() string {
	switch v.Kind {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindPath:
		return "path"
	case KindAttrs:
		return "set"
	case KindList:
		return "list"
	case KindLambda, KindPrimOp, KindPrimOpApp:
		return "lambda"
	case KindExternal:
		return v.External.TypeName()
	default:
		return v.Kind.String()
	}
}

// String renders v for display (builtins.toString-adjacent debugging, not
// the coercion rules in eval/coerce.go).
func (v *Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNull:
		return "null"
	case KindString:
		return strconv.Quote(v.Str.Bytes)
	case KindPath:
		return v.Path.AbsPath
	case KindAttrs:
		return "«attrset»"
	case KindList:
		var sb strings.Builder
		sb.WriteByte('[')
		for i := 0; i < v.List.Len(); i++ {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(v.List.At(i).String())
		}
		sb.WriteByte(']')
		return sb.String()
	case KindLambda:
		return "«lambda»"
	case KindPrimOp:
		return fmt.Sprintf("«primop %s»", v.Prim.Name)
	case KindPrimOpApp:
		return "«partially applied primop»"
	case KindThunk, KindNativeThunk:
		return "«thunk»"
	case KindBlackhole:
		return "«blackhole»"
	case KindApp:
		return "«pending application»"
	case KindExternal:
		return v.External.String()
	default:
		return "«uninitialised»"
	}
}

// IsFinished reports whether v is in weak-head-normal-form: its outermost
// constructor is known and is not Thunk/App/Blackhole.
func (v *Value) IsFinished() bool {
	switch v.Kind {
	case KindThunk, KindApp, KindNativeThunk, KindBlackhole, KindUninit:
		return false
	default:
		return true
	}
}

// Become overwrites the receiver in place with the contents of other, so
// that every existing pointer to v observes the new, finished value. This
// is how Force mutates a cell from Thunk to its result without callers
// having to re-fetch a pointer.
func (v *Value) Become(other *Value) {
	*v = *other
}

// ---- String ----------------------------------------------------------

// String is the runtime representation of a string value: immutable bytes
// plus an optional sorted, de-duplicated set of build-time dependency
// entries (its "context").
type String struct {
	Bytes   string
	Context []ContextEntry
}

// ---- Path --------------------------------------------------------------

// Path is a source-accessor handle (opaque identifier for "which
// filesystem/tree this path was read through" — see internal/store) plus
// the absolute, canonicalised path string.
type Path struct {
	Accessor string
	AbsPath  string
}

// ---- List ----------------------------------------------------------------

const listInlineCap = 2

// List stores up to listInlineCap elements inline to avoid a heap
// allocation for the overwhelmingly common short lists, and spills to a
// heap slice beyond that. Element count is fixed at construction.
type List struct {
	inline    [listInlineCap]*Value
	inlineLen int8
	heap      []*Value
}

func NewList(elems []*Value) List {
	if len(elems) <= listInlineCap {
		var l List
		l.inlineLen = int8(len(elems))
		copy(l.inline[:], elems)
		return l
	}
	return List{heap: elems, inlineLen: -1}
}

func (l List) Len() int {
	if l.inlineLen >= 0 {
		return int(l.inlineLen)
	}
	return len(l.heap)
}

func (l List) At(i int) *Value {
	if l.inlineLen >= 0 {
		return l.inline[i]
	}
	return l.heap[i]
}

// Slice materialises the list as a plain Go slice. Callers that only need
// to iterate should prefer At/Len to avoid the allocation.
func (l List) Slice() []*Value {
	out := make([]*Value, l.Len())
	for i := range out {
		out[i] = l.At(i)
	}
	return out
}

// Concat produces a new List holding a++b, reusing a or b verbatim
// whenever the other operand is empty.
func Concat(a, b List) List {
	if a.Len() == 0 {
		return b
	}
	if b.Len() == 0 {
		return a
	}
	out := make([]*Value, 0, a.Len()+b.Len())
	for i := 0; i < a.Len(); i++ {
		out = append(out, a.At(i))
	}
	for i := 0; i < b.Len(); i++ {
		out = append(out, b.At(i))
	}
	return NewList(out)
}

// ---- Lambda --------------------------------------------------------------

// Formal is one parameter of an attribute-set (destructuring) lambda
// pattern, e.g. the `a` or `b ? default` in `{a, b ? default, ...}: ...`.
type Formal struct {
	Name    symtab.Symbol
	Default Expr // nil if this formal has no default
	Pos     symtab.PosIdx
}

// Lambda is a captured environment plus a pointer to the lambda's AST
// node. Node is an opaque `any` (rather than a concrete AST type) to
// keep this package independent of the AST's concrete grammar; the
// evaluator type-asserts it back to its own *nixparse.Lambda.
type Lambda struct {
	Env  *Environment
	Node any
}

// ---- PrimOp / PrimOpApp ---------------------------------------------------

// PrimOpFunc is the Go function backing a primop. args has exactly Arity
// elements, already in argument order.
type PrimOpFunc func(call Caller, args []*Value, pos symtab.PosIdx) (*Value, error)

// Caller is the minimal surface a primop implementation needs from the
// evaluator: forcing a value, applying a function, resolving a position
// for error reporting, and going between attribute names and their
// interned Symbol handles (builtins.hasAttr, builtins.getAttr, and
// friends take attribute names as plain strings). internal/eval's
// Evaluator implements it.
type Caller interface {
	Force(v *Value, pos symtab.PosIdx) error
	ForceDeep(v *Value, pos symtab.PosIdx) error
	Apply(fn, arg *Value, pos symtab.PosIdx) (*Value, error)
	Pos(idx symtab.PosIdx) symtab.Pos
	Intern(s string) symtab.Symbol
	SymbolName(sym symtab.Symbol) string
	EvalFile(path string, pos symtab.PosIdx) (*Value, error)
}

// PrimOp describes one intrinsic function: its name, arity, the Go
// function implementing it, optional formal-argument names (used for
// error messages and introspection), and documentation.
type PrimOp struct {
	Name     string
	Arity    int
	Fn       PrimOpFunc
	ArgNames []string
	Doc      string
	Internal bool // name begins with __; exposed under the short name only in `builtins`
}

// PrimOpApp is a curried partial application of a PrimOp: Left is either
// the PrimOp itself (wrapped in a Value) or another PrimOpApp; Arg is the
// most recently supplied argument.
type PrimOpApp struct {
	Left *Value
	Arg  *Value
}

// ---- App (pending application) -------------------------------------------

// Application represents a still-unevaluated `f x` node before Force has
// driven it to WHNF.
type Application struct {
	Fun Expr
	Arg Expr
	Env *Environment
}

// ---- Thunk / Blackhole -----------------------------------------------------

// Thunk is a suspended computation: an AST expression plus the
// environment it closes over, to be evaluated the first time it is
// forced.
type Thunk struct {
	Expr Expr
	Env  *Environment
}

// NewThunk returns a Value in the Thunk state.
func NewThunk(expr Expr, env *Environment) *Value {
	return &Value{Kind: KindThunk, Thunk: &Thunk{Expr: expr, Env: env}}
}

// NativeThunk is a deferred Go computation standing in for an AST
// expression, used by primops (builtins.map, builtins.genList, …) that
// must produce lazily-evaluated elements without an expression/Environment
// pair to build an ordinary Thunk over.
type NativeThunk func(call Caller, pos symtab.PosIdx) (*Value, error)

// NewNativeThunk returns a Value that, when forced, runs fn exactly once
// and replaces itself with the result — the same one-shot memoization
// Force gives an ordinary Thunk.
func NewNativeThunk(fn NativeThunk) *Value {
	return &Value{Kind: KindNativeThunk, Native: fn}
}

// NewApp returns a Value representing the pending application fun arg.
func NewApp(fun, arg Expr, env *Environment) *Value {
	return &Value{Kind: KindApp, Call: Application{Fun: fun, Arg: arg, Env: env}}
}

// Blackhole is the sentinel a cell holds while it is being forced.
// Observing one means the expression being evaluated refers to itself
// without a productive constructor in between.
var blackholeSentinel = &Value{Kind: KindBlackhole}

// SetBlackhole installs the blackhole sentinel into v in place, saving
// whatever was there (always a Thunk or App) so it can be restored if
// forcing fails.
func (v *Value) SetBlackhole() (saved Value) {
	saved = *v
	v.Kind = KindBlackhole
	v.Thunk = nil
	v.Call = Application{}
	v.Native = nil
	return saved
}

// Restore undoes SetBlackhole after a failed forcing attempt, so the same
// thunk can be retried (and observed failing again, per the evaluator's
// retry contract).
func (v *Value) Restore(saved Value) { *v = saved }

// ---- External --------------------------------------------------------------

// External is the vtable a foreign (host-provided) value must implement:
// printing, string coercion, equality, and serialisation hooks. No
// concrete implementation ships in the core; it exists purely as an
// extension point external collaborators can plug into.
type External interface {
	TypeName() string
	String() string
	CoerceToString() (string, bool)
	Equal(other External) bool
	ToJSON() (string, error)
}

// ---- misc helpers ----------------------------------------------------------

// AsBigInt returns v's integer value as a big.Int. Nothing in this module
// calls it; the runtime representation itself stays a native int64 (see
// DESIGN.md's integer-overflow resolution).
func (v *Value) AsBigInt() *big.Int {
	return big.NewInt(v.Int)
}

// AttrNames returns the sorted display names of an Attrs value's keys,
// used by error-message suggestion lists. tbl resolves Symbol->string.
func AttrNames(a *attrs.Bindings, tbl *symtab.SymbolTable) []string {
	names := make([]string, 0, a.Len())
	a.Range(func(sym symtab.Symbol, _ symtab.PosIdx, _ *attrs.Slot) {
		names = append(names, tbl.Str(sym))
	})
	sort.Strings(names)
	return names
}
