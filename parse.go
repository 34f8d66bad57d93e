package main

import (
	"errors"
	"strconv"
)

// parse.go is a recursive-descent parser.
// Each rule takes the remaining tokens and returns what it parsed
// together with the tokens it did not consume.
//
//	expr ::= number | name | "(" form
//	form ::= op expr expr ")"
//	       | "defn" name "(" name* ")" expr ")"
//	       | "if" expr expr expr ")"
//	       | name expr* ")"

const (
	kDefn = "defn"
	kIf   = "if"
)

func isKeyword(s string) bool {
	return s == kDefn || s == kIf
}

// parseProgram parses top-level expressions until the tokens run out.
func parseProgram(tokens []Token) (*Program, error) {
	prog := new(Program)
	for len(tokens) > 0 {
		var expr Expr
		var err error
		expr, tokens, err = parseExpr(tokens)
		if err != nil {
			return nil, err
		}
		prog.Exprs = append(prog.Exprs, expr)
	}
	return prog, nil
}

func parseExpr(tokens []Token) (Expr, []Token, error) {
	if len(tokens) == 0 {
		return nil, nil, eof("expression")
	}
	first := tokens[0]
	switch {
	case first.Kind == NumberToken:
		// out of range numerals are well formed; they become ±Inf
		v, err := strconv.ParseFloat(first.Text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, nil, unexpected(first, "number, found malformed numeral "+strconv.Quote(first.Text))
		}
		return &NumberExpr{Value: v}, tokens[1:], nil
	case first.Kind == NameToken:
		if isKeyword(first.Text) {
			return nil, nil, unexpected(first, "expression, found keyword "+first.Text)
		}
		return &VarExpr{Name: first.Text}, tokens[1:], nil
	case first.isOpenParen():
		return parseForm(tokens[1:])
	default:
		return nil, nil, unexpected(first, "number, name or (")
	}
}

// parseForm dispatches on the token following an opening paren.
func parseForm(tokens []Token) (Expr, []Token, error) {
	if len(tokens) == 0 {
		return nil, nil, eof("operator, defn, if, or call")
	}
	next := tokens[0]
	switch {
	case next.Kind == OpToken:
		return parseBinOp(tokens)
	case next.Kind == NameToken && next.Text == kDefn:
		return parseFunction(tokens[1:])
	case next.Kind == NameToken && next.Text == kIf:
		return parseIf(tokens[1:])
	case next.Kind == NameToken:
		return parseCall(tokens)
	default:
		return nil, nil, unexpected(next, "operator, defn, if, or call")
	}
}

// op expr expr ")"
func parseBinOp(tokens []Token) (Expr, []Token, error) {
	op := tokens[0]
	left, rest, err := parseExpr(tokens[1:])
	if err != nil {
		return nil, nil, err
	}
	if len(rest) == 0 {
		return nil, nil, eof("second operand of " + op.Text)
	}
	if rest[0].isCloseParen() {
		return nil, nil, unexpected(rest[0], "second operand: binary op "+op.Text+" takes two operands")
	}
	right, rest, err := parseExpr(rest)
	if err != nil {
		return nil, nil, err
	}
	rest, err = closeParen(rest)
	if err != nil {
		return nil, nil, err
	}
	return &BinExpr{Op: op.Text, Left: left, Right: right}, rest, nil
}

// name "(" name* ")" expr ")"
func parseFunction(tokens []Token) (Expr, []Token, error) {
	if len(tokens) == 0 {
		return nil, nil, eof("function name")
	}
	name := tokens[0]
	if name.Kind != NameToken || isKeyword(name.Text) {
		return nil, nil, unexpected(name, "function name")
	}
	proto, rest, err := parsePrototype(name.Text, tokens[1:])
	if err != nil {
		return nil, nil, err
	}
	body, rest, err := parseExpr(rest)
	if err != nil {
		return nil, nil, err
	}
	rest, err = closeParen(rest)
	if err != nil {
		return nil, nil, err
	}
	return &FuncExpr{Proto: proto, Body: body}, rest, nil
}

// parsePrototype parses the parameter list: the longest run of names
// after an opening paren, which must be followed by a closing paren.
func parsePrototype(name string, tokens []Token) (Prototype, []Token, error) {
	proto := Prototype{Name: name}
	if len(tokens) == 0 {
		return proto, nil, eof("( after function name")
	}
	if !tokens[0].isOpenParen() {
		return proto, nil, unexpected(tokens[0], "( after function name")
	}
	rest := tokens[1:]
	seen := make(map[string]bool)
	for len(rest) > 0 && rest[0].Kind == NameToken {
		p := rest[0]
		if isKeyword(p.Text) {
			return proto, nil, unexpected(p, "parameter name, found keyword "+p.Text)
		}
		if seen[p.Text] {
			return proto, nil, unexpected(p, "distinct parameter names, found duplicate "+p.Text)
		}
		seen[p.Text] = true
		proto.Params = append(proto.Params, p.Text)
		rest = rest[1:]
	}
	rest, err := closeParen(rest)
	if err != nil {
		return proto, nil, err
	}
	return proto, rest, nil
}

// "if" expr expr expr ")"
func parseIf(tokens []Token) (Expr, []Token, error) {
	cond, rest, err := parseExpr(tokens)
	if err != nil {
		return nil, nil, err
	}
	then, rest, err := parseExpr(rest)
	if err != nil {
		return nil, nil, err
	}
	els, rest, err := parseExpr(rest)
	if err != nil {
		return nil, nil, err
	}
	rest, err = closeParen(rest)
	if err != nil {
		return nil, nil, err
	}
	return &IfExpr{Cond: cond, Then: then, Else: els}, rest, nil
}

// name expr* ")"
func parseCall(tokens []Token) (Expr, []Token, error) {
	call := &CallExpr{Callee: tokens[0].Text}
	rest := tokens[1:]
	for len(rest) > 0 && !rest[0].isCloseParen() {
		var arg Expr
		var err error
		arg, rest, err = parseExpr(rest)
		if err != nil {
			return nil, nil, err
		}
		call.Args = append(call.Args, arg)
	}
	rest, err := closeParen(rest)
	if err != nil {
		return nil, nil, err
	}
	return call, rest, nil
}

func closeParen(tokens []Token) ([]Token, error) {
	if len(tokens) == 0 {
		return nil, eof("closing paren )")
	}
	if !tokens[0].isCloseParen() {
		return nil, unexpected(tokens[0], "closing paren )")
	}
	return tokens[1:], nil
}

func eof(expected string) error {
	return &ParseError{Kind: InvalidState, Expected: expected}
}

func unexpected(t Token, expected string) error {
	return &ParseError{Kind: UnexpectedInput, Expected: expected, Pos: t.Pos}
}
