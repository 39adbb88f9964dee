package nixparse

import (
	"fmt"
	"strings"
)

type tokKind int

const (
	tEOF tokKind = iota
	tInt
	tFloat
	tIdent
	tStringStart // opening "
	tStringPart  // literal chunk inside a string
	tStringEnd   // closing "
	tPathLit     // a whole path literal, lexed as one token (no interpolation inside paths)
	tDollarBrace // ${
	tCloseBrace  // } that closes a ${}
	tPunct       // operators and punctuation, Text holds the exact spelling
	tKeyword
)

type token struct {
	kind tokKind
	text string
	ival int64
	fval float64
	pos  int // byte offset
}

// lexer tokenizes the core grammar using a simple hand-rolled scanner.
// Interpolation is handled by lexInterpolation, which counts brace depth
// so that the `}` balancing a `${` is emitted as tCloseBrace and any
// other `}` as ordinary punctuation.
type lexer struct {
	src   string
	pos   int
	toks  []token
	// braceStack and inString are not read or written by the scanner.
	braceStack []bool
	inString   []bool
}

var keywords = map[string]bool{
	"let": true, "in": true, "rec": true, "with": true, "if": true,
	"then": true, "else": true, "assert": true, "inherit": true, "or": true,
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.toks, nil
}

func (l *lexer) run() error {
	for {
		l.skipSpaceAndComments()
		if l.pos >= len(l.src) {
			l.emit(tEOF, "", l.pos)
			return nil
		}
		c := l.src[l.pos]
		switch {
		case c == '"':
			if err := l.lexString(); err != nil {
				return err
			}
		case isDigit(c):
			l.lexNumber()
		case isIdentStart(c):
			l.lexIdentOrPathOrKeyword()
		case c == '/' && l.pos+1 < len(l.src) && isPathCont(l.src[l.pos+1]):
			l.lexPath()
		case c == '~':
			l.lexPath()
		case c == '<':
			if l.tryLexSearchPath() {
				continue
			}
			l.lexPunct()
		case c == '}':
			l.pos++
			l.emit(tPunct, "}", l.pos-1)
		case c == '$' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '{':
			l.pos += 2
			l.emit(tDollarBrace, "${", l.pos-2)
			if err := l.lexInterpolation(); err != nil {
				return err
			}
		default:
			l.lexPunct()
		}
	}
}

func (l *lexer) emit(k tokKind, text string, pos int) {
	l.toks = append(l.toks, token{kind: k, text: text, pos: pos})
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		if c == '#' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		if c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*' {
			l.pos += 2
			for l.pos+1 < len(l.src) && !(l.src[l.pos] == '*' && l.src[l.pos+1] == '/') {
				l.pos++
			}
			l.pos += 2
			continue
		}
		break
	}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentCont(c byte) bool  { return isIdentStart(c) || isDigit(c) || c == '\'' || c == '-' }
func isPathCont(c byte) bool   { return isIdentCont(c) || c == '/' || c == '.' }

func (l *lexer) lexNumber() {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	isFloat := false
	if l.pos < len(l.src) && l.src[l.pos] == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		isFloat = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		isFloat = true
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	text := l.src[start:l.pos]
	if isFloat {
		var f float64
		fmt.Sscanf(text, "%g", &f)
		l.toks = append(l.toks, token{kind: tFloat, text: text, fval: f, pos: start})
	} else {
		var i int64
		fmt.Sscanf(text, "%d", &i)
		l.toks = append(l.toks, token{kind: tInt, text: text, ival: i, pos: start})
	}
}

func (l *lexer) lexIdentOrPathOrKeyword() {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	// A bare identifier immediately followed by '/' with no space is a
	// relative path (e.g. `foo/bar`), not division, when adjacent to a
	// path-continuation char.
	if l.pos < len(l.src) && l.src[l.pos] == '/' && l.pos+1 < len(l.src) && isPathCont(l.src[l.pos+1]) {
		l.pos = start
		l.lexPath()
		return
	}
	text := l.src[start:l.pos]
	if keywords[text] {
		l.emit(tKeyword, text, start)
		return
	}
	l.emit(tIdent, text, start)
}

func (l *lexer) lexPath() {
	start := l.pos
	for l.pos < len(l.src) && isPathCont(l.src[l.pos]) {
		l.pos++
	}
	l.toks = append(l.toks, token{kind: tPathLit, text: l.src[start:l.pos], pos: start})
}

func (l *lexer) tryLexSearchPath() bool {
	save := l.pos
	l.pos++
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '>' && l.src[l.pos] != '\n' {
		l.pos++
	}
	if l.pos >= len(l.src) || l.src[l.pos] != '>' {
		l.pos = save
		return false
	}
	text := l.src[start:l.pos]
	l.pos++
	l.toks = append(l.toks, token{kind: tPathLit, text: "<" + text + ">", pos: save})
	return true
}

// lexString scans a double-quoted string, emitting tStringStart,
// alternating tStringPart/tDollarBrace...tCloseBrace groups, and
// tStringEnd. The tokens of an interpolated expression are produced by
// lexInterpolation, called here right after each tDollarBrace.
func (l *lexer) lexString() error {
	l.emit(tStringStart, "\"", l.pos)
	l.pos++ // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return fmt.Errorf("unterminated string literal")
		}
		c := l.src[l.pos]
		switch {
		case c == '"':
			l.flushStringPart(&sb)
			l.pos++
			l.emit(tStringEnd, "\"", l.pos-1)
			return nil
		case c == '\\':
			l.pos++
			if l.pos >= len(l.src) {
				return fmt.Errorf("unterminated escape in string literal")
			}
			sb.WriteByte(unescape(l.src[l.pos]))
			l.pos++
		case c == '$' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '{':
			l.flushStringPart(&sb)
			l.pos += 2
			l.emit(tDollarBrace, "${", l.pos-2)
			if err := l.lexInterpolation(); err != nil {
				return err
			}
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
}

func (l *lexer) flushStringPart(sb *strings.Builder) {
	if sb.Len() > 0 {
		l.emit(tStringPart, sb.String(), l.pos)
		sb.Reset()
	}
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

// lexInterpolation lexes ordinary tokens (numbers, identifiers, nested
// strings and interpolations, punctuation) until it finds the '}' that
// balances the '${' just emitted. Paths starting with '/' or '~' and
// `<...>` search paths are not recognised here.
func (l *lexer) lexInterpolation() error {
	depth := 1
	for {
		l.skipSpaceAndComments()
		if l.pos >= len(l.src) {
			return fmt.Errorf("unterminated interpolation")
		}
		c := l.src[l.pos]
		if c == '{' {
			depth++
			l.pos++
			l.emit(tPunct, "{", l.pos-1)
			continue
		}
		if c == '}' {
			depth--
			l.pos++
			if depth == 0 {
				l.emit(tCloseBrace, "}", l.pos-1)
				return nil
			}
			l.emit(tPunct, "}", l.pos-1)
			continue
		}
		switch {
		case c == '"':
			if err := l.lexString(); err != nil {
				return err
			}
		case isDigit(c):
			l.lexNumber()
		case isIdentStart(c):
			l.lexIdentOrPathOrKeyword()
		case c == '$' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '{':
			l.pos += 2
			l.emit(tDollarBrace, "${", l.pos-2)
			if err := l.lexInterpolation(); err != nil {
				return err
			}
		default:
			l.lexPunct()
		}
	}
}

var multiCharPuncts = []string{
	"...", "==", "!=", "<=", ">=", "&&", "||", "->", "//", "?", "@",
}

func (l *lexer) lexPunct() {
	for _, p := range multiCharPuncts {
		if strings.HasPrefix(l.src[l.pos:], p) {
			l.emit(tPunct, p, l.pos)
			l.pos += len(p)
			return
		}
	}
	l.emit(tPunct, string(l.src[l.pos]), l.pos)
	l.pos++
}
