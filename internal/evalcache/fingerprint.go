package evalcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// fingerprintVersion is bumped whenever the shape of what goes into a
// fingerprint changes, so stale rows from an earlier cache layout don't
// get misread as valid for a new one.
const fingerprintVersion = "v1"

// Fingerprint computes the stable byte string spec.md §4.7 calls the
// cache key for one evaluation session: a sha256 over the root
// expression's origin name, its byte offset, and the configuration knobs
// that can change evaluation results, truncated to a hex prefix exactly
// the way funvibe-funxy's internal/ext.Cache.computeKey truncates its own
// sha256 build-cache key.
func Fingerprint(originName string, offset int, configTag string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s\x00%s", originName, offset, configTag, fingerprintVersion)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// AttrKey returns the parent fingerprint used to key one attrset's rows:
// the owning session fingerprint plus the dotted attribute path leading
// to that attrset, so nested attrsets don't collide with their parent's
// own rows.
func AttrKey(sessionFingerprint string, path []string) string {
	h := sha256.New()
	h.Write([]byte(sessionFingerprint))
	for _, p := range path {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}
