package errs

import (
	"fmt"
	"strings"

	"github.com/NixOS/nix-sub000/internal/symtab"
)

// Frame is one entry of a call trace: the position the call happened at
// and a short description of what was being evaluated there. Grounded on
// the teacher's StackFrame{Position, FunctionName, FileName}.
type Frame struct {
	Pos  symtab.Pos
	Desc string
}

func (f Frame) String() string {
	if f.Pos.File == "" {
		return f.Desc
	}
	return fmt.Sprintf("%s [%s:%d:%d]", f.Desc, f.Pos.File, f.Pos.Line, f.Pos.Column)
}

// NewFrame builds a Frame.
func NewFrame(pos symtab.Pos, desc string) Frame { return Frame{Pos: pos, Desc: desc} }

// Trace is a call-stack trace, innermost frame first (the order frames
// are appended as errors propagate outward).
type Trace []Frame

// String renders the trace one frame per line, innermost first.
func (t Trace) String() string {
	if len(t) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("trace:\n")
	for _, f := range t {
		fmt.Fprintf(&sb, "  %s\n", f)
	}
	return sb.String()
}

// Reverse returns a copy of t with frame order reversed (outermost first),
// for call sites that print traces top-down.
func (t Trace) Reverse() Trace {
	out := make(Trace, len(t))
	for i, f := range t {
		out[len(t)-1-i] = f
	}
	return out
}

// Top returns the innermost frame, and false if t is empty.
func (t Trace) Top() (Frame, bool) {
	if len(t) == 0 {
		return Frame{}, false
	}
	return t[0], true
}

// Bottom returns the outermost frame, and false if t is empty.
func (t Trace) Bottom() (Frame, bool) {
	if len(t) == 0 {
		return Frame{}, false
	}
	return t[len(t)-1], true
}

// Depth returns the number of frames in t.
func (t Trace) Depth() int { return len(t) }
