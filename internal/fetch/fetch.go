// Package fetch defines the evaluator's narrow view of a fetcher
// subsystem — resolving a URL/spec to local content before the store
// hashes it — and a LocalFetcher stand-in for tests and the CLI.
// Grounded on the same Options-seam idiom as internal/store; the real
// fetcher subsystem (tarball caching, substituters, FOD verification) is
// out of scope for this evaluator.
package fetch

import (
	"fmt"
	"os"
)

// Request describes what the evaluator's builtins.fetchurl/fetchTarball-
// style primops need fetched.
type Request struct {
	URL        string
	ExpectedSHA256 string
	Name       string
}

// Result is what a successful fetch hands back: local file contents plus
// the name the store should file it under.
type Result struct {
	Contents []byte
	Name     string
}

// Fetcher resolves a Request to local Contents.
type Fetcher interface {
	Fetch(req Request) (Result, error)
}

// LocalFetcher only "fetches" file:// and bare local paths, by reading
// them straight off disk — enough to exercise the evaluator's
// fetch-dependent primops end to end without network access.
type LocalFetcher struct{}

func (LocalFetcher) Fetch(req Request) (Result, error) {
	path := req.URL
	const prefix = "file://"
	if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
		path = path[len(prefix):]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("fetching %q: %w", req.URL, err)
	}
	name := req.Name
	if name == "" {
		name = "source"
	}
	return Result{Contents: data, Name: name}, nil
}
