package main

import (
	"strings"
	"text/scanner"
	"unicode"
)

type TokenKind int

const (
	_ TokenKind = iota

	NumberToken
	NameToken
	OpToken
	ParenToken
)

func (k TokenKind) String() string {
	switch k {
	case NumberToken:
		return "number"
	case NameToken:
		return "name"
	case OpToken:
		return "operator"
	case ParenToken:
		return "paren"
	default:
		return "invalid"
	}
}

type Token struct {
	Kind TokenKind
	Text string
	Pos  scanner.Position
}

func (t Token) String() string {
	return t.Kind.String() + " " + t.Text
}

func (t Token) isOpenParen() bool  { return t.Kind == ParenToken && t.Text == "(" }
func (t Token) isCloseParen() bool { return t.Kind == ParenToken && t.Text == ")" }

const operators = "+-*/<>="

// lexer splits source text into tokens.
// The scanner is used in character mode (Mode = 0, no whitespace skipping)
// so that token boundaries are ours to decide; it still tracks positions.
type lexer struct {
	src     string
	scanner scanner.Scanner
	tokens  []Token
}

func (l *lexer) Init(src string) {
	l.src = src
	l.scanner.Init(strings.NewReader(src))
	l.scanner.Mode = 0
	l.scanner.Whitespace = 0
	l.scanner.Error = func(*scanner.Scanner, string) {}
}

// tokenize turns source text into a sequence of tokens.
func tokenize(src string) ([]Token, error) {
	l := new(lexer)
	l.Init(src)
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *lexer) run() error {
	for {
		pos := l.scanner.Pos()
		r := l.scanner.Peek()
		switch {
		case r == scanner.EOF:
			return nil
		case unicode.IsSpace(r):
			l.scanner.Next()
		case r == '(' || r == ')':
			l.scanner.Next()
			l.emit(ParenToken, string(r), pos)
		case strings.ContainsRune(operators, r):
			l.scanner.Next()
			l.emit(OpToken, string(r), pos)
		case isDigit(r):
			l.emit(NumberToken, l.number(), pos)
		case unicode.IsLetter(r):
			l.emit(NameToken, l.name(), pos)
		default:
			return &LexError{Pos: pos, Char: r, Context: lineAt(l.src, pos.Line)}
		}
	}
}

// number scans a run of digits containing at most one decimal point.
func (l *lexer) number() string {
	var b strings.Builder
	dot := false
	for {
		r := l.scanner.Peek()
		if r == '.' && !dot {
			dot = true
		} else if !isDigit(r) {
			return b.String()
		}
		b.WriteRune(l.scanner.Next())
	}
}

func (l *lexer) name() string {
	var b strings.Builder
	for unicode.IsLetter(l.scanner.Peek()) {
		b.WriteRune(l.scanner.Next())
	}
	return b.String()
}

func (l *lexer) emit(kind TokenKind, text string, pos scanner.Position) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: text, Pos: pos})
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

// lineAt returns the n'th (1-based) line of src.
func lineAt(src string, n int) string {
	lines := strings.Split(src, "\n")
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}
