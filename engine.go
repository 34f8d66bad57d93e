package main

import (
	"fmt"
	"math"
)

const defaultMaxDepth = 10000

// An Engine runs functions of a module.
// It walks the ops of each block directly; functions should have passed
// verifyFunc first.
type Engine struct {
	mod      *Module
	MaxDepth int // maximum call depth
}

func newEngine(m *Module) *Engine {
	return &Engine{mod: m, MaxDepth: defaultMaxDepth}
}

// Run calls f with the given arguments and returns its result.
func (e *Engine) Run(f *Func, args ...float64) (float64, error) {
	return e.call(f, args, 0)
}

type frame struct {
	fn   *Func
	regs map[Reg]float64 // bools are stored as 0 or 1
}

func (e *Engine) call(f *Func, args []float64, depth int) (float64, error) {
	if depth >= e.MaxDepth {
		return 0, &RuntimeError{Func: f.Name, Msg: "call stack exhausted"}
	}
	if len(args) != f.NumParams() {
		return 0, &RuntimeError{Func: f.Name, Msg: fmt.Sprintf("called with %d arguments, want %d", len(args), f.NumParams())}
	}
	if len(f.blocks) == 0 {
		return 0, &RuntimeError{Func: f.Name, Msg: "function has no body"}
	}
	fr := &frame{fn: f, regs: make(map[Reg]float64)}
	for i, p := range f.Params {
		fr.regs[p] = args[i]
	}

	var prev *Block
	b := f.blocks[0]
	for {
		next, result, done, err := e.runBlock(fr, prev, b, depth)
		if err != nil || done {
			return result, err
		}
		prev, b = b, next
	}
}

// runBlock executes b, having arrived from prev (nil on function entry).
// It returns the next block to run, or done and the function's result.
func (e *Engine) runBlock(fr *frame, prev, b *Block, depth int) (next *Block, result float64, done bool, err error) {
	// phis read their inputs as they were on the incoming edge,
	// so all of them are evaluated before any is assigned
	var phis []Op
	for _, l := range b.code {
		if l.Opcode != PhiOp {
			break
		}
		phis = append(phis, l)
	}
	vals := make([]float64, len(phis))
	for i, l := range phis {
		found := false
		for j, in := range l.Label {
			if in == prev {
				vals[i] = fr.regs[l.Src[j]]
				found = true
				break
			}
		}
		if !found {
			return nil, 0, false, e.errorf(fr, "phi %%%s in %s has no value for the edge from %v", l.Dst, b.name, prev)
		}
	}
	for i, l := range phis {
		fr.regs[l.Dst] = vals[i]
	}

	for _, l := range b.code[len(phis):] {
		switch l.Opcode {
		case ConstOp:
			fr.regs[l.Dst] = l.Value.(float64)
		case BinOp:
			x, y := fr.regs[l.Src[0]], fr.regs[l.Src[1]]
			switch l.Variant {
			case "+":
				fr.regs[l.Dst] = x + y
			case "-":
				fr.regs[l.Dst] = x - y
			case "*":
				fr.regs[l.Dst] = x * y
			case "/":
				fr.regs[l.Dst] = x / y
			default:
				return nil, 0, false, e.errorf(fr, "unknown binop %q", l.Variant)
			}
		case CmpOp:
			x, y := fr.regs[l.Src[0]], fr.regs[l.Src[1]]
			var t bool
			switch l.Variant {
			case "one":
				t = x != y && !math.IsNaN(x) && !math.IsNaN(y)
			case "oeq":
				t = x == y
			case "olt":
				t = x < y
			case "ogt":
				t = x > y
			default:
				return nil, 0, false, e.errorf(fr, "unknown comparison %q", l.Variant)
			}
			fr.regs[l.Dst] = boolFloat(t)
		case BoolToFloatOp:
			fr.regs[l.Dst] = fr.regs[l.Src[0]]
		case CallOp:
			callee := e.mod.Func(l.Variant)
			if callee == nil {
				return nil, 0, false, e.errorf(fr, "call to undefined function %s", l.Variant)
			}
			args := make([]float64, len(l.Src))
			for i, r := range l.Src {
				args[i] = fr.regs[r]
			}
			v, err := e.call(callee, args, depth+1)
			if err != nil {
				return nil, 0, false, err
			}
			fr.regs[l.Dst] = v
		case BrOp:
			return l.Label[0], 0, false, nil
		case CondBrOp:
			if fr.regs[l.Src[0]] != 0 {
				return l.Label[0], 0, false, nil
			}
			return l.Label[1], 0, false, nil
		case RetOp:
			return nil, fr.regs[l.Src[0]], true, nil
		default:
			return nil, 0, false, e.errorf(fr, "cannot execute %s", l.Opcode)
		}
	}
	return nil, 0, false, e.errorf(fr, "fell off the end of block %s", b.name)
}

func (e *Engine) errorf(fr *frame, format string, args ...interface{}) error {
	return &RuntimeError{Func: fr.fn.Name, Msg: fmt.Sprintf(format, args...)}
}

func boolFloat(t bool) float64 {
	if t {
		return 1
	}
	return 0
}
