package symtab

import (
	"sort"
	"strings"
	"sync"
)

// PosIdx is an opaque handle into a PositionTable. NoPos is the
// distinguished zero handle used by synthetic nodes that carry no source
// location.
type PosIdx uint32

// NoPos is the distinguished "no position" handle.
const NoPos PosIdx = 0

// Origin identifies one parsed unit of source text (a file, or a string
// passed to nixparse.Parse) within a PositionTable. PosIdx handles for
// offsets into it are assigned sequentially, across all origins, as Add
// is called.
type Origin struct {
	Name string // file path, or a synthetic name such as "<string>"
	Text string // full source text, retained for on-demand line/column scans
}

// Pos is a resolved, human-readable source position.
type Pos struct {
	File   string
	Line   int
	Column int
}

// PositionTable assigns PosIdx handles to (origin, byte-offset) pairs.
// Resolving a PosIdx back to a Pos{file,line,column} triple is on-demand
// and scans the origin's text; it is expensive and meant only for error
// rendering, never for hot-path evaluation.
type PositionTable struct {
	mu      sync.Mutex
	origins []Origin
	// offsets[i] is the byte offset recorded for PosIdx(i+1); originOf[i]
	// is the index into origins that offset belongs to.
	offsets  []int
	originOf []int
}

// NewPositionTable returns an empty position table. Slot 0 is reserved for
// NoPos.
func NewPositionTable() *PositionTable {
	return &PositionTable{}
}

// AddOrigin registers a new origin (a parsed file or string) and returns
// its index for use with Add.
func (t *PositionTable) AddOrigin(name, text string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.origins = append(t.origins, Origin{Name: name, Text: text})
	return len(t.origins) - 1
}

// Add records a byte offset within the given origin and returns a fresh
// PosIdx for it.
func (t *PositionTable) Add(origin int, offset int) PosIdx {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.offsets = append(t.offsets, offset)
	t.originOf = append(t.originOf, origin)
	return PosIdx(len(t.offsets))
}

// Resolve converts idx into a Pos{file, line, column} triple, scanning the
// origin's source text to count newlines. Returns the zero Pos for NoPos
// or an out-of-range idx.
func (t *PositionTable) Resolve(idx PosIdx) Pos {
	if idx == NoPos {
		return Pos{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	i := int(idx) - 1
	if i < 0 || i >= len(t.offsets) {
		return Pos{}
	}
	origin := t.origins[t.originOf[i]]
	offset := t.offsets[i]
	if offset > len(origin.Text) {
		offset = len(origin.Text)
	}

	line := 1 + strings.Count(origin.Text[:offset], "\n")
	col := offset
	if lastNL := strings.LastIndexByte(origin.Text[:offset], '\n'); lastNL >= 0 {
		col = offset - lastNL - 1
	}
	return Pos{File: origin.Name, Line: line, Column: col + 1}
}

// Context returns the source lines from `before` lines above idx's line
// to `after` lines below it (clipped to the text), for
// rendering error carets. Lines are 1-indexed and returned in order.
func (t *PositionTable) Context(idx PosIdx, before, after int) (lines []string, startLine int) {
	pos := t.Resolve(idx)
	if pos.File == "" && pos.Line == 0 {
		return nil, 0
	}
	t.mu.Lock()
	origin := t.origins[t.originOf[int(idx)-1]]
	t.mu.Unlock()

	all := strings.Split(origin.Text, "\n")
	start := pos.Line - before
	if start < 1 {
		start = 1
	}
	end := pos.Line + after
	if end > len(all) {
		end = len(all)
	}
	return append([]string(nil), all[start-1:end]...), start
}

// sortedOriginNames returns the names of all known origins in sorted
// order. Nothing in this module calls it.
func (t *PositionTable) sortedOriginNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, len(t.origins))
	for i, o := range t.origins {
		names[i] = o.Name
	}
	sort.Strings(names)
	return names
}
