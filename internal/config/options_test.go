package config_test

import (
	"os"
	"testing"

	"github.com/NixOS/nix-sub000/internal/config"
)

func withEnv(t *testing.T, kv map[string]string, fn func()) {
	t.Helper()
	for k, v := range kv {
		old, had := os.LookupEnv(k)
		os.Setenv(k, v)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			} else {
				os.Unsetenv(k)
			}
		})
	}
	fn()
}

func TestFromEnvironParsesPaths(t *testing.T) {
	withEnv(t, map[string]string{
		"NIX_PATH":         "/a:/b:/c",
		"NIX_ALLOWED_URIS": "https://example.com:file:///tmp",
	}, func() {
		o := config.FromEnviron()
		if len(o.NixPath) != 3 || o.NixPath[0] != "/a" || o.NixPath[2] != "/c" {
			t.Fatalf("NixPath = %v", o.NixPath)
		}
		if len(o.AllowedURIs) != 2 {
			t.Fatalf("AllowedURIs = %v", o.AllowedURIs)
		}
	})
}

func TestFromEnvironParsesBooleans(t *testing.T) {
	withEnv(t, map[string]string{
		"NIX_COUNT_CALLS":          "1",
		"NIX_SHOW_STATS":           "true",
		"NIX_ABORT_ON_WARN":        "yes",
		"NIX_PURE_EVAL":            "",
		"NIX_TRACE_FUNCTION_CALLS": "TRUE",
	}, func() {
		o := config.FromEnviron()
		if !o.CountCalls {
			t.Error("CountCalls should be true for \"1\"")
		}
		if !o.ShowStats {
			t.Error("ShowStats should be true for \"true\"")
		}
		if !o.AbortOnWarn {
			t.Error("AbortOnWarn should be true for \"yes\"")
		}
		if o.PureEval {
			t.Error("PureEval should be false for an empty value")
		}
		if !o.TraceFunctionCalls {
			t.Error("TraceFunctionCalls should be case-insensitively true for \"TRUE\"")
		}
	})
}

func TestFromEnvironParsesMaxCallDepth(t *testing.T) {
	withEnv(t, map[string]string{"NIX_MAX_CALL_DEPTH": "5000"}, func() {
		o := config.FromEnviron()
		if o.MaxCallDepth != 5000 {
			t.Fatalf("MaxCallDepth = %d, want 5000", o.MaxCallDepth)
		}
	})
}

func TestFromEnvironIgnoresUnparsableMaxCallDepth(t *testing.T) {
	withEnv(t, map[string]string{"NIX_MAX_CALL_DEPTH": "not-a-number"}, func() {
		o := config.FromEnviron()
		if o.MaxCallDepth != 0 {
			t.Fatalf("MaxCallDepth = %d, want 0 (default) for an unparsable value", o.MaxCallDepth)
		}
	})
}

func TestFromEnvironDefaultsToZeroValues(t *testing.T) {
	for _, k := range []string{
		"NIX_PATH", "NIX_COUNT_CALLS", "NIX_SHOW_STATS", "NIX_SHOW_STATS_PATH",
		"NIX_SHOW_SYMBOLS", "NIX_ABORT_ON_WARN", "NIX_PURE_EVAL", "NIX_RESTRICT_EVAL",
		"NIX_ALLOWED_URIS", "NIX_EVAL_CACHE", "NIX_TRACE_FUNCTION_CALLS", "NIX_MAX_CALL_DEPTH",
	} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		if had {
			k, old := k, old
			t.Cleanup(func() { os.Setenv(k, old) })
		}
	}
	o := config.FromEnviron()
	if o.NixPath != nil || o.CountCalls || o.ShowStats || o.EvalCache != "" {
		t.Fatalf("expected zero-value Options with no environment set, got %+v", o)
	}
}
