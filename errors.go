package main

import (
	"errors"
	"fmt"
	"strings"
	"text/scanner"
)

type LexError struct {
	Pos     scanner.Position
	Char    rune
	Context string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: unexpected character %q in %q", e.Pos, e.Char, e.Context)
}

type ParseErrorKind int

const (
	// InvalidState means the input ran out where a token was required.
	InvalidState ParseErrorKind = iota + 1
	// UnexpectedInput means a token was present but did not fit the grammar.
	UnexpectedInput
)

func (k ParseErrorKind) String() string {
	switch k {
	case InvalidState:
		return "invalid state"
	case UnexpectedInput:
		return "unexpected input"
	default:
		return "parse error"
	}
}

type ParseError struct {
	Kind     ParseErrorKind
	Expected string
	Pos      scanner.Position // zero when the input ran out
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: expected %s", e.Pos, e.Kind, e.Expected)
	}
	return fmt.Sprintf("%s: expected %s", e.Kind, e.Expected)
}

// isIncomplete reports whether err is a parse failure caused only by
// running out of input, which more input might fix.
func isIncomplete(err error) bool {
	var perr *ParseError
	return errors.As(err, &perr) && perr.Kind == InvalidState
}

type LowerErrorKind int

const (
	UnresolvedName LowerErrorKind = iota + 1
	UnknownFunction
	ArityMismatch
	UnsupportedOperator
	NestedFunction
)

type LowerError struct {
	Kind     LowerErrorKind
	Name     string // variable, function, or operator
	Expected int
	Got      int
}

func (e *LowerError) Error() string {
	switch e.Kind {
	case UnresolvedName:
		return fmt.Sprintf("unresolved name %s", e.Name)
	case UnknownFunction:
		return fmt.Sprintf("unknown function %s", e.Name)
	case ArityMismatch:
		return fmt.Sprintf("wrong number of arguments to %s: expected %d, got %d", e.Name, e.Expected, e.Got)
	case UnsupportedOperator:
		return fmt.Sprintf("unsupported operator %s", e.Name)
	case NestedFunction:
		return fmt.Sprintf("function %s must be defined at top level", e.Name)
	default:
		return "lowering error"
	}
}

// An InternalError means the lowering produced a malformed function.
// It is a bug in the compiler, not in the program being compiled.
type InternalError struct {
	Func string
	Err  error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: malformed function %s: %v", e.Func, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

type RuntimeError struct {
	Func string
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error in %s: %s", e.Func, e.Msg)
}

type ErrorList []error

func (l ErrorList) Error() string {
	var b strings.Builder
	for i, err := range l {
		if i != 0 {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// aggregates multiple errors.
// strips out nils (may modify the input list).
func multiError(errors ...error) error {
	j := 0
	for i := range errors {
		if errors[i] != nil {
			if i != j {
				errors[j] = errors[i]
			}
			j++
		}
	}
	switch j {
	case 0:
		return nil
	case 1:
		return errors[0]
	default:
		return ErrorList(errors[:j])
	}
}

func fatalf(s string, args ...interface{}) {
	msg := fmt.Sprintf(s, args...)
	panic("fatal compile error: " + msg)
}
