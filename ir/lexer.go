package ir

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF     = tokenKind(iota)
	tokIdent   // bare identifier: i16, tensor, func.func, x
	tokValue   // %name
	tokSymbol  // @name
	tokAttr    // #dialect.mnemonic
	tokType    // !dialect.mnemonic
	tokInt     // 17
	tokFloat   // 1.5e+00
	tokString  // "quoted"
	tokPunct   // ( ) < > [ ] { } , : = + - * -> **
	tokInvalid // anything else
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokValue:
		return "value"
	case tokSymbol:
		return "symbol"
	case tokAttr:
		return "attribute alias"
	case tokType:
		return "type alias"
	case tokInt:
		return "integer"
	case tokFloat:
		return "float"
	case tokString:
		return "string"
	case tokPunct:
		return "punctuation"
	default:
		return "invalid token"
	}
}

type token struct {
	kind tokenKind
	text string // for prefixed tokens, the text without the prefix; for strings, the unquoted value
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokValue:
		return "'%" + t.text + "'"
	case tokSymbol:
		return "'@" + t.text + "'"
	case tokAttr:
		return "'#" + t.text + "'"
	case tokType:
		return "'!" + t.text + "'"
	case tokString:
		return strconv.Quote(t.text)
	default:
		return "'" + t.text + "'"
	}
}

// lexer splits the textual form of a program into tokens.
// It keeps a single position in the source; the parser may rewind it to
// scan constructs that do not split along token boundaries (tensor shapes).
type lexer struct {
	src string
	pos int
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '.' || c == '$'
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch c := l.src[l.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '/' && strings.HasPrefix(l.src[l.pos:], "//"):
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) scanWhile(pred func(byte) bool) string {
	start := l.pos
	for l.pos < len(l.src) && pred(l.src[l.pos]) {
		l.pos++
	}
	return l.src[start:l.pos]
}

func (l *lexer) next() (tok token, err error) {

	l.skipSpace()

	tok.pos = l.pos

	if l.pos >= len(l.src) {
		tok.kind = tokEOF
		return
	}

	c := l.src[l.pos]

	switch {
	case isLetter(c):
		tok.kind = tokIdent
		tok.text = l.scanWhile(isIdentChar)
		return

	case isDigit(c):
		return l.scanNumber()

	case c == '%' || c == '@' || c == '#' || c == '!':
		l.pos++
		tok.text = l.scanWhile(isIdentChar)
		if tok.text == "" {
			return tok, fmt.Errorf("expected identifier after '%c'", c)
		}
		tok.kind = map[byte]tokenKind{'%': tokValue, '@': tokSymbol, '#': tokAttr, '!': tokType}[c]
		return

	case c == '"':
		return l.scanString()
	}

	for _, p := range []string{"->", "**"} {
		if strings.HasPrefix(l.src[l.pos:], p) {
			l.pos += len(p)
			return token{kind: tokPunct, text: p, pos: tok.pos}, nil
		}
	}

	if strings.IndexByte("()<>[]{},:=+-*", c) >= 0 {
		l.pos++
		return token{kind: tokPunct, text: string(c), pos: tok.pos}, nil
	}

	return token{kind: tokInvalid, text: string(c), pos: tok.pos}, fmt.Errorf("unexpected character %q", c)
}

func (l *lexer) scanNumber() (tok token, err error) {

	start := l.pos
	tok.pos = start
	tok.kind = tokInt

	l.scanWhile(isDigit)

	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && isDigit(l.src[l.pos+1]) {
		tok.kind = tokFloat
		l.pos++
		l.scanWhile(isDigit)
	}

	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		j := l.pos + 1
		if j < len(l.src) && (l.src[j] == '+' || l.src[j] == '-') {
			j++
		}
		if j < len(l.src) && isDigit(l.src[j]) {
			tok.kind = tokFloat
			l.pos = j
			l.scanWhile(isDigit)
		}
	}

	tok.text = l.src[start:l.pos]
	return
}

func (l *lexer) scanString() (tok token, err error) {
	start := l.pos
	tok.pos = start
	l.pos++
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '"':
			l.pos++
			tok.kind = tokString
			if tok.text, err = strconv.Unquote(l.src[start:l.pos]); err != nil {
				return tok, fmt.Errorf("invalid string literal %s: %w", l.src[start:l.pos], err)
			}
			return
		case '\n':
			return tok, fmt.Errorf("unterminated string literal")
		}
		l.pos++
	}
	return tok, fmt.Errorf("unterminated string literal")
}

// scanDimensions scans a tensor shape prefix "4x8x" starting at pos and returns the
// dimensions and the position following the last 'x'.
func (l *lexer) scanDimensions(pos int) (dims []int64, end int, err error) {
	end = pos
	for {
		j := end
		for j < len(l.src) && isDigit(l.src[j]) {
			j++
		}
		if j == end || j >= len(l.src) || l.src[j] != 'x' {
			return dims, end, nil
		}
		d, err := strconv.ParseInt(l.src[end:j], 10, 64)
		if err != nil {
			return nil, end, fmt.Errorf("invalid tensor dimension %q: %w", l.src[end:j], err)
		}
		dims = append(dims, d)
		end = j + 1
	}
}

// lineCol returns the 1-based line and column of pos.
func (l *lexer) lineCol(pos int) (line, col int) {
	if pos > len(l.src) {
		pos = len(l.src)
	}
	line = 1 + strings.Count(l.src[:pos], "\n")
	col = pos - strings.LastIndexByte(l.src[:pos], '\n')
	return
}
