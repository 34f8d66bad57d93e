package main

// A scope maps the names visible at some point to the registers holding them.
// Inner scopes are pushed on function entry and dropped on exit.
type scope struct {
	parent *scope
	vars   map[string]Reg
}

func newscope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]Reg)}
}

func (s *scope) push() *scope {
	return newscope(s)
}

// pop returns the enclosing scope.
func (s *scope) pop() *scope {
	if s.parent == nil {
		fatalf("pop of top-level scope")
	}
	return s.parent
}

func (s *scope) define(name string, r Reg) {
	s.vars[name] = r
}

func (s *scope) has(name string) bool {
	_, ok := s.lookup(name)
	return ok
}

func (s *scope) lookup(name string) (Reg, bool) {
	for ; s != nil; s = s.parent {
		if r, ok := s.vars[name]; ok {
			return r, true
		}
	}
	return "", false
}
