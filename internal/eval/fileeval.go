package eval

import (
	"os"
	"path/filepath"

	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/nixparse"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

// fileCacheEntry is what fileCache stores: either a placeholder being
// computed by one goroutine (done is open) or the finished thunk plus
// any parse/bind error.
type fileCacheEntry struct {
	done  chan struct{}
	thunk *value.Value
	err   error
}

// EvalFile parses, binds, and returns a thunk for the top-level
// expression of the file at absPath, sharing the result across every
// caller that imports the same canonical path within this Evaluator's
// lifetime. A symlink in the final path component is resolved (up to
// maxSymlinkDepth = 1024 links) so that two import paths reaching the
// same file via different symlinks share one cache entry.
//
// The insert-placeholder-then-resolve idiom lets concurrent importers of
// the same file block on the first one's parse instead of doing the work
// twice — a loser goroutine adopts the winner's result rather than
// discarding its own.
func (ev *Evaluator) EvalFile(path string, pos symtab.PosIdx) (*value.Value, error) {
	absPath, err := ev.canonicalize(path)
	if err != nil {
		return nil, ev.throw(errs.EvalError, pos, "cannot resolve import path %q: %v", path, err)
	}

	entry := &fileCacheEntry{done: make(chan struct{})}
	actual, loaded := ev.fileCache.LoadOrStore(absPath, entry)
	if loaded {
		e := actual.(*fileCacheEntry)
		<-e.done
		return e.thunk, e.err
	}

	src, readErr := os.ReadFile(absPath)
	if readErr != nil {
		entry.err = errs.Wrap(errs.EvalError, ev.pos(pos), readErr, "cannot read %q", absPath)
		close(entry.done)
		return nil, entry.err
	}

	expr, parseErr := nixparse.Parse(absPath, string(src), ev.Symbols, ev.Positions)
	if parseErr != nil {
		entry.err = errs.Wrap(errs.ParseError, ev.pos(pos), parseErr, "parse error in %q", absPath)
		close(entry.done)
		return nil, entry.err
	}
	nixparse.Bind(expr, ev.GlobalStatic)

	entry.thunk = ev.Thunk(expr, ev.RootEnv)
	close(entry.done)
	return entry.thunk, nil
}

const maxSymlinkDepth = 1024

func (ev *Evaluator) canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for i := 0; i < maxSymlinkDepth; i++ {
		info, err := os.Lstat(abs)
		if err != nil {
			return abs, nil
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return abs, nil
		}
		target, err := os.Readlink(abs)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(abs), target)
		}
		abs = target
	}
	return "", errs.New(errs.EvalError, symtab.Pos{}, "too many levels of symbolic links resolving %q", path)
}
