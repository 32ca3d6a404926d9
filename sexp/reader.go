package sexp

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// SyntaxError reports a malformed s-expression as a distinct type from a
// framing error, so callers can tell the two apart.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sexp: syntax error at byte %d: %s", e.Pos, e.Msg)
}

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokSymbol
	tokInt
	tokFloat
	tokString
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	i    int64
	f    float64
	pos  int
}

type tokenizer struct {
	input []rune
	pos   int
}

func newTokenizer(input string) *tokenizer {
	return &tokenizer{input: []rune(input)}
}

func (t *tokenizer) peek() rune {
	if t.pos >= len(t.input) {
		return 0
	}
	return t.input[t.pos]
}

func (t *tokenizer) advance() rune {
	r := t.peek()
	if r != 0 {
		t.pos++
	}
	return r
}

func (t *tokenizer) skipSpace() {
	for t.pos < len(t.input) && unicode.IsSpace(t.peek()) {
		t.advance()
	}
}

func isDelimiter(r rune) bool {
	return r == 0 || unicode.IsSpace(r) || r == '(' || r == ')' || r == '"'
}

func (t *tokenizer) next() (token, error) {
	t.skipSpace()
	startPos := t.pos
	if t.pos >= len(t.input) {
		return token{kind: tokEOF, pos: startPos}, nil
	}

	switch c := t.peek(); c {
	case '(':
		t.advance()
		return token{kind: tokLParen, pos: startPos}, nil
	case ')':
		t.advance()
		return token{kind: tokRParen, pos: startPos}, nil
	case '"':
		return t.readString(startPos)
	default:
		return t.readAtom(startPos)
	}
}

func (t *tokenizer) readString(startPos int) (token, error) {
	t.advance() // opening quote
	var sb strings.Builder
	for {
		if t.pos >= len(t.input) {
			return token{}, &SyntaxError{Pos: startPos, Msg: "unterminated string"}
		}
		c := t.advance()
		if c == '"' {
			return token{kind: tokString, text: sb.String(), pos: startPos}, nil
		}
		if c == '\\' {
			if t.pos >= len(t.input) {
				return token{}, &SyntaxError{Pos: startPos, Msg: "unterminated escape"}
			}
			switch e := t.advance(); e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteRune(e)
			}
			continue
		}
		sb.WriteRune(c)
	}
}

func (t *tokenizer) readAtom(startPos int) (token, error) {
	var sb strings.Builder
	for !isDelimiter(t.peek()) {
		sb.WriteRune(t.advance())
	}
	text := sb.String()
	if text == "" {
		return token{}, &SyntaxError{Pos: startPos, Msg: fmt.Sprintf("unexpected byte %q", t.peek())}
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return token{kind: tokInt, text: text, i: n, pos: startPos}, nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return token{kind: tokFloat, text: text, f: f, pos: startPos}, nil
	}
	return token{kind: tokSymbol, text: text, pos: startPos}, nil
}

// Reader parses a stream of whitespace-separated s-expressions out of a
// single string. Decode is the common case (parse exactly one expression).
type Reader struct {
	tok tokenizer
	cur token
	err error
}

// NewReader creates a Reader over src.
func NewReader(src string) *Reader {
	r := &Reader{tok: *newTokenizer(src)}
	r.cur, r.err = r.tok.next()
	return r
}

// Read parses and returns the next top-level Value, or io.EOF-shaped
// behavior via the ok return when the input is exhausted.
func (r *Reader) Read() (Value, bool, error) {
	if r.err != nil {
		return Value{}, false, r.err
	}
	if r.cur.kind == tokEOF {
		return Value{}, false, nil
	}
	v, err := r.parseExpr()
	if err != nil {
		return Value{}, false, err
	}
	return v, true, nil
}

func (r *Reader) advance() (token, error) {
	cur := r.cur
	r.cur, r.err = r.tok.next()
	return cur, r.err
}

func (r *Reader) parseExpr() (Value, error) {
	switch r.cur.kind {
	case tokLParen:
		if _, err := r.advance(); err != nil {
			return Value{}, err
		}
		var items []Value
		for r.cur.kind != tokRParen {
			if r.cur.kind == tokEOF {
				return Value{}, &SyntaxError{Pos: r.cur.pos, Msg: "unterminated list"}
			}
			item, err := r.parseExpr()
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		if _, err := r.advance(); err != nil { // consume ')'
			return Value{}, err
		}
		return List(items...), nil
	case tokRParen:
		return Value{}, &SyntaxError{Pos: r.cur.pos, Msg: "unexpected ')'"}
	case tokInt:
		tok, err := r.advance()
		if err != nil {
			return Value{}, err
		}
		return Int(tok.i), nil
	case tokFloat:
		tok, err := r.advance()
		if err != nil {
			return Value{}, err
		}
		return Float(tok.f), nil
	case tokString:
		tok, err := r.advance()
		if err != nil {
			return Value{}, err
		}
		return Str(tok.text), nil
	case tokSymbol:
		tok, err := r.advance()
		if err != nil {
			return Value{}, err
		}
		if tok.text == "nil" {
			return Nil(), nil
		}
		return Sym(tok.text), nil
	default:
		return Value{}, &SyntaxError{Pos: r.cur.pos, Msg: "unexpected end of input"}
	}
}

// Decode parses src as exactly one s-expression, returning an error if
// src contains anything other than a single trailing value (trailing
// whitespace is tolerated).
func Decode(src string) (Value, error) {
	r := NewReader(src)
	v, ok, err := r.Read()
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return Value{}, &SyntaxError{Pos: 0, Msg: "empty input"}
	}
	if r.cur.kind != tokEOF {
		return Value{}, &SyntaxError{Pos: r.cur.pos, Msg: "trailing data after expression"}
	}
	return v, nil
}
