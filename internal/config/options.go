// Package config collects the evaluator's environment-driven knobs into
// one struct, grounded on the teacher's internal/interp/options.go
// collaborator-seam pattern (an Options interface the Interpreter takes
// instead of reaching for package-level globals) but gathered as a plain
// struct populated from the process environment, which is where this
// evaluator's knobs actually come from (NIX_PATH and friends), rather
// than from a dependency-injected collaborator.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Options is the evaluator's full set of runtime-tunable knobs. Only
// MaxCallDepth (the call-depth guard) and EvalCache (Evaluator.OpenCache)
// are read outside this package; the other fields are parsed and carried,
// and no evaluator, primop or CLI code acts on them.
type Options struct {
	// NixPath holds the colon-separated entries of NIX_PATH. `<...>`
	// path literals are not resolved against it.
	NixPath []string
	// MaxCallDepth bounds the nesting depth of function applications
	// before InfiniteRecursion is raised; thunk forcing is not counted.
	// 0 means "use the built-in default" (10000). From NIX_MAX_CALL_DEPTH.
	MaxCallDepth int
	// CountCalls is set from NIX_COUNT_CALLS; no call counts are kept.
	CountCalls bool
	// ShowStats is set from NIX_SHOW_STATS; no statistics are printed.
	ShowStats bool
	// ShowStatsPath is taken from NIX_SHOW_STATS_PATH; nothing is written
	// to it.
	ShowStatsPath string
	// ShowSymbols is set from NIX_SHOW_SYMBOLS; the symbol table is not
	// printed.
	ShowSymbols bool
	// AbortOnWarn is set from NIX_ABORT_ON_WARN; warnings are not turned
	// into errors.
	AbortOnWarn bool
	// PureEval is set from NIX_PURE_EVAL; no builtin is disabled by it.
	PureEval bool
	// RestrictEval is set from NIX_RESTRICT_EVAL; import and path access
	// are not confined by it.
	RestrictEval bool
	// AllowedURIs holds the URI prefixes from NIX_ALLOWED_URIS. The value
	// is split at colons, except that a colon followed by `//` stays inside
	// its URI, so "https://a:file:///tmp" yields two entries (a `:port`
	// after a host is split off). No primop checks URIs against it.
	AllowedURIs []string
	// EvalCache, if non-empty, is the path to the on-disk evaluation
	// cache database (internal/evalcache) this session should open, from
	// NIX_EVAL_CACHE.
	EvalCache string
	// TraceFunctionCalls is set from NIX_TRACE_FUNCTION_CALLS; no calls
	// are logged.
	TraceFunctionCalls bool
}

// FromEnviron populates an Options from the process environment,
// matching the names real Nix uses for the equivalent knobs.
func FromEnviron() *Options {
	o := &Options{}
	if v := os.Getenv("NIX_PATH"); v != "" {
		o.NixPath = strings.Split(v, ":")
	}
	o.CountCalls = boolEnv("NIX_COUNT_CALLS")
	o.ShowStats = boolEnv("NIX_SHOW_STATS")
	o.ShowStatsPath = os.Getenv("NIX_SHOW_STATS_PATH")
	o.ShowSymbols = boolEnv("NIX_SHOW_SYMBOLS")
	o.AbortOnWarn = boolEnv("NIX_ABORT_ON_WARN")
	o.PureEval = boolEnv("NIX_PURE_EVAL")
	o.RestrictEval = boolEnv("NIX_RESTRICT_EVAL")
	if v := os.Getenv("NIX_ALLOWED_URIS"); v != "" {
		for _, part := range strings.Split(v, ":") {
			if n := len(o.AllowedURIs); n > 0 && strings.HasPrefix(part, "//") {
				o.AllowedURIs[n-1] += ":" + part
				continue
			}
			o.AllowedURIs = append(o.AllowedURIs, part)
		}
	}
	o.EvalCache = os.Getenv("NIX_EVAL_CACHE")
	o.TraceFunctionCalls = boolEnv("NIX_TRACE_FUNCTION_CALLS")
	if v := os.Getenv("NIX_MAX_CALL_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.MaxCallDepth = n
		}
	}
	return o
}

func boolEnv(name string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	return v == "1" || v == "true" || v == "yes"
}
