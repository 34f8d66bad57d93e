package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := parseString(src)
	if err != nil {
		t.Fatalf("parse(%q) failed: %v", src, err)
	}
	return prog
}

func dumpFunc(f *Func) string {
	var buf bytes.Buffer
	printFunc(&buf, f)
	return buf.String()
}

var lowerErrorTests = []struct {
	input string
	want  LowerError
}{
	{"(foo 1)", LowerError{Kind: UnknownFunction, Name: "foo"}},
	{"(defn f (x) (g x))", LowerError{Kind: UnknownFunction, Name: "g"}},
	{"(defn f (a b) (+ a b)) (f 1)", LowerError{Kind: ArityMismatch, Name: "f", Expected: 2, Got: 1}},
	{"(defn f () 1) (f 1 2)", LowerError{Kind: ArityMismatch, Name: "f", Expected: 0, Got: 2}},
	{"(defn f (x) x) (f 1) (defn f () 2)", LowerError{Kind: ArityMismatch, Name: "f", Expected: 0, Got: 1}},
	{"(defn f (x) x) (if 1 (f 1) 0) (defn f (a b) a)", LowerError{Kind: ArityMismatch, Name: "f", Expected: 2, Got: 1}},
	{"x", LowerError{Kind: UnresolvedName, Name: "x"}},
	{"(defn f (x) y)", LowerError{Kind: UnresolvedName, Name: "y"}},
	{"(defn f (x) x) x", LowerError{Kind: UnresolvedName, Name: "x"}},
	{"(defn f (x) x) (defn g (y) x)", LowerError{Kind: UnresolvedName, Name: "x"}},
	{"(defn f (x) (+ x (if x y 1)))", LowerError{Kind: UnresolvedName, Name: "y"}},
	{"(defn f (x) (defn g (y) y))", LowerError{Kind: NestedFunction, Name: "g"}},
	{"(+ (defn g () 1) 2)", LowerError{Kind: NestedFunction, Name: "g"}},
}

func TestLowerErrors(t *testing.T) {
	for _, tt := range lowerErrorTests {
		m := newModule("test")
		_, err := lowerProgram(mustParse(t, tt.input), m)
		var lerr *LowerError
		if !errors.As(err, &lerr) {
			t.Errorf("lower(%q): got error %v, want %v", tt.input, err, &tt.want)
			continue
		}
		if *lerr != tt.want {
			t.Errorf("lower(%q): got %#v, want %#v", tt.input, *lerr, tt.want)
		}
	}
}

func TestLowerUnsupportedOperator(t *testing.T) {
	for _, op := range []string{"%", "^", "<=", "and"} {
		prog := &Program{Exprs: []Expr{bin(op, num(1), num(2))}}
		_, err := lowerProgram(prog, newModule("test"))
		var lerr *LowerError
		if !errors.As(err, &lerr) || lerr.Kind != UnsupportedOperator || lerr.Name != op {
			t.Errorf("lower of %s: got %v, want unsupported operator", op, err)
		}
	}
}

func TestLowerErrorMessages(t *testing.T) {
	_, err := lowerProgram(mustParse(t, "(defn f (a b) (+ a b)) (f 1)"), newModule("test"))
	if err == nil || !strings.Contains(err.Error(), "expected 2, got 1") {
		t.Errorf("got %v, want an error naming both counts", err)
	}
}

// A failed lowering leaves no entry function and no half-built function behind,
// but functions completed before the failure stay.
func TestLowerDiscardsPartialFunctions(t *testing.T) {
	m := newModule("test")
	_, err := lowerProgram(mustParse(t, "(defn g () 1) (defn f (x) (+ x y)) (g)"), m)
	if err == nil {
		t.Fatal("expected an error")
	}
	if m.Func("f") != nil {
		t.Errorf("half-built function f is still defined")
	}
	if m.Func(entryName) != nil {
		t.Errorf("entry function is still defined")
	}
	if m.Func("g") == nil {
		t.Errorf("function g was removed")
	}
}

// A redefinition that does not fit the calls already made to the old
// definition is refused, and the old definition stays.
func TestLowerRedefinitionKeepsCallers(t *testing.T) {
	m := newModule("test")
	_, err := lowerProgram(mustParse(t, "(defn f (x) x) (f 1) (defn f () 2)"), m)
	var lerr *LowerError
	if !errors.As(err, &lerr) || lerr.Kind != ArityMismatch {
		t.Fatalf("got %v, want arity mismatch", err)
	}
	if f := m.Func("f"); f == nil || f.NumParams() != 1 {
		t.Errorf("f = %v, want the one-parameter definition", f)
	}
	// a redefinition with the same arity is fine
	entry, err := lowerProgram(mustParse(t, "(f 1) (defn f (y) (+ y 1)) (f 1)"), m)
	if err != nil {
		t.Fatal(err)
	}
	if v, err := newEngine(m).Run(entry); err != nil || v != 2 {
		t.Errorf("run = %v, %v; want 2", v, err)
	}
}

// Lowering a call succeeds iff the number of arguments matches the prototype.
func TestLowerArity(t *testing.T) {
	for params := 0; params <= 3; params++ {
		for args := 0; args <= 4; args++ {
			src := fmt.Sprintf("(defn f (%s) 0) (f%s)", paramList(params), strings.Repeat(" 1", args))
			_, err := lowerProgram(mustParse(t, src), newModule("test"))
			if args == params {
				if err != nil {
					t.Errorf("lower(%q): unexpected error: %v", src, err)
				}
				continue
			}
			var lerr *LowerError
			if !errors.As(err, &lerr) || lerr.Kind != ArityMismatch || lerr.Expected != params || lerr.Got != args {
				t.Errorf("lower(%q): got %v, want arity mismatch (expected %d, got %d)", src, err, params, args)
			}
		}
	}
}

func paramList(n int) string {
	names := []string{"a", "b", "c", "d"}
	return strings.Join(names[:n], " ")
}

func TestLowerFunction(t *testing.T) {
	m := newModule("test")
	entry, err := lowerProgram(mustParse(t, "(defn f (a b) (+ a (* b 2)))"), m)
	if err != nil {
		t.Fatal(err)
	}
	f := m.Func("f")
	if f == nil {
		t.Fatal("function f not defined")
	}
	if f.NumParams() != 2 {
		t.Errorf("f has %d params, want 2", f.NumParams())
	}
	want := `FUNCTION f(%a, %b)
  entry:
	  0: %k = const <2>
	  1: %multmp = binop "*" %b, %k
	  2: %addtmp = binop "+" %a, %multmp
	  3: ret %addtmp
`
	if got := dumpFunc(f); got != want {
		t.Errorf("IR didn't match\nexpected:\n%s\nactual:\n%s", want, got)
	}
	// no expressions: the entry function returns 0
	want = `FUNCTION <toplevel>()
  entry:
	  0: %k = const <0>
	  1: ret %k
`
	if got := dumpFunc(entry); got != want {
		t.Errorf("IR didn't match\nexpected:\n%s\nactual:\n%s", want, got)
	}
}

func TestLowerComparison(t *testing.T) {
	m := newModule("test")
	entry, err := lowerProgram(mustParse(t, "(< 1 2)"), m)
	if err != nil {
		t.Fatal(err)
	}
	want := `FUNCTION <toplevel>()
  entry:
	  0: %k = const <1>
	  1: %k1 = const <2>
	  2: %cmptmp = cmp "olt" %k, %k1
	  3: %booltmp = tofloat %cmptmp
	  4: ret %booltmp
`
	if got := dumpFunc(entry); got != want {
		t.Errorf("IR didn't match\nexpected:\n%s\nactual:\n%s", want, got)
	}
}

// The branches into the join block, and the phi's incoming blocks,
// must be the blocks each arm finished in, which differ from the blocks
// the arms started in when an arm contains another if.
func TestLowerNestedIf(t *testing.T) {
	m := newModule("test")
	entry, err := lowerProgram(mustParse(t, "(if (> 1 0) (if (> 2 0) 1 2) 3)"), m)
	if err != nil {
		t.Fatal(err)
	}
	if err := verifyFunc(entry); err != nil {
		t.Fatalf("verify: %v\n%s", err, dumpFunc(entry))
	}

	var names []string
	for _, b := range entry.Blocks() {
		names = append(names, b.Name())
	}
	if got, want := strings.Join(names, " "), "entry then then1 else1 continue else continue1"; got != want {
		t.Errorf("blocks = %s, want %s", got, want)
	}

	term, _ := entry.Entry().Terminator()
	if term.Opcode != CondBrOp || term.Label[0].Name() != "then" || term.Label[1].Name() != "else" {
		t.Errorf("entry block ends with %v, want condbr to then, else", term)
	}

	join := entry.Blocks()[len(entry.Blocks())-1]
	phi := join.Code()[0]
	if phi.Opcode != PhiOp {
		t.Fatalf("join block starts with %v, want a phi", phi)
	}
	if got := phi.Label[0].Name() + " " + phi.Label[1].Name(); got != "continue else" {
		t.Errorf("phi incoming blocks = %s, want continue else\n%s", got, dumpFunc(entry))
	}
	for _, b := range []string{"continue", "else"} {
		blk := findBlock(entry, b)
		if term, ok := blk.Terminator(); !ok || term.Opcode != BrOp || term.Label[0] != join {
			t.Errorf("block %s ends with %v, want br to %s", b, term, join.Name())
		}
	}
	if term, _ := findBlock(entry, "then").Terminator(); term.Opcode != CondBrOp {
		t.Errorf("block then ends with %v, want the inner condbr", term)
	}
}

func findBlock(f *Func, name string) *Block {
	for _, b := range f.Blocks() {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// An if in one top-level expression must not strand the expressions after it.
func TestLowerIfThenMoreExpressions(t *testing.T) {
	m := newModule("test")
	entry, err := lowerProgram(mustParse(t, "(if 1 2 3) (+ 4 5)"), m)
	if err != nil {
		t.Fatal(err)
	}
	if err := verifyFunc(entry); err != nil {
		t.Fatalf("verify: %v\n%s", err, dumpFunc(entry))
	}
	v, err := newEngine(m).Run(entry)
	if err != nil || v != 9 {
		t.Errorf("run = %v, %v; want 9", v, err)
	}
}

func TestLowerRedefinition(t *testing.T) {
	m := newModule("test")
	_, err := lowerProgram(mustParse(t, "(defn f (x) x) (defn f (x y) (+ x y))"), m)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, f := range m.Funcs() {
		if f.Name == "f" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("module has %d functions named f, want 1", count)
	}
	if f := m.Func("f"); f == nil || f.NumParams() != 2 {
		t.Errorf("f = %v, want the two-parameter definition", f)
	}
}

// Parameter bindings are dropped once their function is lowered.
func TestLowerScopeCleanup(t *testing.T) {
	m := newModule("test")
	if _, err := lowerProgram(mustParse(t, "(defn f (a b c) (+ a (+ b c)))"), m); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"a", "b", "c"} {
		_, err := lowerProgram(mustParse(t, p), m)
		var lerr *LowerError
		if !errors.As(err, &lerr) || lerr.Kind != UnresolvedName {
			t.Errorf("lower(%q) after defn: got %v, want unresolved name", p, err)
		}
	}
}

func TestScope(t *testing.T) {
	top := newscope(nil)
	inner := top.push()
	inner.define("x", "x")
	if !inner.has("x") {
		t.Errorf("inner scope lost x")
	}
	inner2 := inner.push()
	inner2.define("y", "y1")
	if r, ok := inner2.lookup("x"); !ok || r != "x" {
		t.Errorf("lookup(x) = %v, %v; want x from the enclosing scope", r, ok)
	}
	if inner2.pop() != inner || inner.pop() != top {
		t.Errorf("pop did not return the enclosing scope")
	}
	if top.has("x") || inner.has("y") {
		t.Errorf("bindings leaked out of their scope")
	}
}
