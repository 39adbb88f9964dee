// Package nixeval is the evaluator's public facade: construct a Session,
// hand it an expression (from a file, a string, or stdin), and get back a
// fully forced value or a rendered error. It plays the same role as the
// teacher's pkg/dwscript facade over internal/interp — a small, stable
// surface a CLI or an embedding program can depend on without reaching
// into internal/eval, internal/nixparse, or internal/primops directly.
package nixeval

import (
	"fmt"
	"io"

	"github.com/NixOS/nix-sub000/internal/config"
	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/eval"
	"github.com/NixOS/nix-sub000/internal/nixparse"
	"github.com/NixOS/nix-sub000/internal/primops"
	"github.com/NixOS/nix-sub000/internal/store"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// Session owns one evaluator's worth of shared state: the interned symbol
// and position tables, the evaluator itself (with `builtins` and the root
// scope already wired up), and — once OpenCache is called — the on-disk
// evaluation cache. A Session is not safe for concurrent use; evaluate one
// expression at a time, the same constraint the teacher's Interpreter
// documents for itself.
type Session struct {
	Symbols   *symtab.SymbolTable
	Positions *symtab.PositionTable
	Config    *config.Options
	Store     store.Store
	Eval      *eval.Evaluator

	closeCache func() error
}

// New builds a Session with a fresh symbol table, a populated `builtins`,
// and the root scope every expression this Session evaluates is resolved
// against. cfg and st may be nil, in which case config.FromEnviron() and a
// store.NewMemStore("") are used.
func New(cfg *config.Options, st store.Store) *Session {
	if cfg == nil {
		cfg = config.FromEnviron()
	}
	if st == nil {
		st = store.NewMemStore("")
	}
	symbols := symtab.NewSymbolTable()
	positions := symtab.NewPositionTable()
	ev := eval.New(symbols, positions, cfg, st)
	ev.Builtins = primops.Build(symbols)
	ev.InitGlobals()

	s := &Session{Symbols: symbols, Positions: positions, Config: cfg, Store: st, Eval: ev}
	if closer, err := ev.OpenCache(); err == nil {
		s.closeCache = closer
	}
	return s
}

// Close releases the Session's resources (currently just the evaluation
// cache, if one was opened). Safe to call on a Session built without a
// cache.
func (s *Session) Close() error {
	if s.closeCache != nil {
		return s.closeCache()
	}
	return nil
}

// Result is the outcome of evaluating one expression: its fully-forced
// value, ready for Render, or an error.
type Result struct {
	Value *value.Value
}

// EvalString parses src (named origin for error messages) and evaluates
// it to weak head normal form against the Session's root scope, returning
// a *value.Value the caller can Force further (e.g. Session.ForceDeep) or
// pass straight to Render.
func (s *Session) EvalString(origin, src string) (*value.Value, error) {
	expr, err := nixparse.Parse(origin, src, s.Symbols, s.Positions)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", origin, err)
	}
	nixparse.Bind(expr, s.Eval.GlobalStatic)
	v := s.Eval.Thunk(expr, s.Eval.RootEnv)
	if err := s.Eval.Force(v, expr.Pos()); err != nil {
		return nil, err
	}
	return v, nil
}

// EvalFile parses and evaluates the file at path, sharing its parse/bind
// result with any other import of the same canonical path within this
// Session's lifetime.
func (s *Session) EvalFile(path string) (*value.Value, error) {
	v, err := s.Eval.EvalFile(path, symtab.NoPos)
	if err != nil {
		return nil, err
	}
	if err := s.Eval.Force(v, symtab.NoPos); err != nil {
		return nil, err
	}
	return v, nil
}

// EvalReader reads all of r and evaluates it as a single expression named
// origin, the facade `parseStdin` names in SPEC_FULL.md §6 is built on.
func (s *Session) EvalReader(origin string, r io.Reader) (*value.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", origin, err)
	}
	return s.EvalString(origin, string(data))
}

// ForceDeep fully forces v (and everything reachable from it), the way a
// `nix eval --json`-style consumer needs before serialising.
func (s *Session) ForceDeep(v *value.Value) error {
	return s.Eval.ForceDeep(v, symtab.NoPos)
}

// Render writes v's display form (v.String()) to w, followed by a newline.
// Render does not force v further; call ForceDeep first for a complete
// rendering of a list or attrset.
func Render(w io.Writer, v *value.Value) error {
	_, err := fmt.Fprintln(w, v.String())
	return err
}

// FormatError renders err as the user-visible, caret-annotated text
// SPEC_FULL.md §7 specifies, falling back to err.Error() for errors that
// didn't originate from this evaluator. sourceLine, if non-empty, is
// shown under the position header with a caret at the error's column.
func FormatError(err error, sourceLine string) string {
	ee, ok := err.(*errs.Error)
	if !ok {
		return err.Error()
	}
	return ee.Format(sourceLine)
}

// exitCode maps a Session-level error to the process exit status the CLI
// uses, grounded on the teacher's cmd/dwscript pattern of a single
// exitWithError helper rather than scattering os.Exit calls.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*errs.Error); ok && ee.Kind == errs.Abort {
		return 2
	}
	return 1
}

// ExitCode is exported so cmd/nixeval doesn't need to import internal/errs
// just to decide a process exit status.
func ExitCode(err error) int { return exitCode(err) }
