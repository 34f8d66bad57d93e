package main

import (
	"io"

	"github.com/kr/pretty"
)

// A Session holds the functions defined so far
// and evaluates one input at a time against them.
type Session struct {
	mod    *Module
	engine *Engine

	// if set, each parsed program is dumped here
	AST io.Writer
	// if set, each parsed program is printed here in canonical form
	Source io.Writer
	// if set, the module is printed here before each run
	IR io.Writer
}

func newSession() *Session {
	m := newModule("sisp")
	return &Session{mod: m, engine: newEngine(m)}
}

// Eval tokenizes, parses, lowers and runs src.
func (s *Session) Eval(src string) (float64, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return 0, err
	}
	prog, err := parseProgram(tokens)
	if err != nil {
		return 0, err
	}
	return s.EvalProgram(prog)
}

// EvalProgram lowers and runs an already parsed program.
// Functions it defines stay defined for later calls;
// the entry function is removed once it has run.
func (s *Session) EvalProgram(p *Program) (float64, error) {
	if s.AST != nil {
		pretty.Fprintf(s.AST, "%# v\n", p)
	}
	if s.Source != nil {
		io.WriteString(s.Source, formatProgram(p))
	}
	entry, err := lowerProgram(p, s.mod)
	if err != nil {
		return 0, err
	}
	defer s.mod.DeleteFunc(entry)
	if s.IR != nil {
		printModule(s.IR, s.mod)
	}
	return s.engine.Run(entry)
}

func (s *Session) Module() *Module { return s.mod }
