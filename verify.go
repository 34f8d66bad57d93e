package main

import (
	"fmt"
)

// verifyFunc checks that f is a well-formed function:
//
//   - it has at least one block, and its entry block has no predecessors
//   - every block ends with exactly one terminator
//   - phis appear only at the start of a block, with one incoming
//     value for each predecessor and no others
//   - every register is defined once and every register used is defined
//   - branch targets are blocks of f
//   - operands have the types their ops expect
//
// All problems found are returned together.
func verifyFunc(f *Func) error {
	if len(f.blocks) == 0 {
		return fmt.Errorf("function %s has no blocks", f.Name)
	}
	var errs []error
	errorf := func(b *Block, format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%s: block %s: %s", f.Name, b.name, fmt.Sprintf(format, args...)))
	}

	inFunc := make(map[*Block]bool)
	for _, b := range f.blocks {
		inFunc[b] = true
	}

	defined := make(map[Reg]bool)
	for _, p := range f.Params {
		defined[p] = true
	}
	for _, b := range f.blocks {
		for _, l := range b.code {
			if l.Dst == "" {
				continue
			}
			if defined[l.Dst] {
				errorf(b, "register %%%s defined more than once", l.Dst)
			}
			defined[l.Dst] = true
		}
	}

	preds := make(map[*Block][]*Block)
	for _, b := range f.blocks {
		if _, ok := b.Terminator(); !ok {
			errorf(b, "missing terminator")
			continue
		}
		for _, s := range b.succ() {
			if !inFunc[s] {
				errorf(b, "branch to block %s outside function", s)
				continue
			}
			preds[s] = append(preds[s], b)
		}
	}
	if len(preds[f.blocks[0]]) > 0 {
		errorf(f.blocks[0], "entry block has predecessors")
	}

	for _, b := range f.blocks {
		body := true
		for i, l := range b.code {
			if l.Opcode.isTerminator() && i != len(b.code)-1 {
				errorf(b, "op %d: terminator %s in the middle of the block", i, l.Opcode)
			}
			if l.Opcode == PhiOp {
				if !body {
					errorf(b, "op %d: phi after non-phi op", i)
				}
			} else {
				body = false
			}
			for _, r := range l.Src {
				if !defined[r] {
					errorf(b, "op %d: use of undefined register %%%s", i, r)
				}
			}
			if err := checkOp(f, l, preds[b]); err != nil {
				errorf(b, "op %d: %v", i, err)
			}
		}
	}
	return multiError(errs...)
}

// checkOp checks the operands of a single op.
// preds is the list of predecessors of the op's block.
func checkOp(f *Func, l Op, preds []*Block) error {
	want := func(n int, t Type) error {
		if len(l.Src) != n {
			return fmt.Errorf("%s takes %d operands, found %d", l.Opcode, n, len(l.Src))
		}
		for _, r := range l.Src {
			// undefined registers are reported by the caller
			if rt, ok := f.types[r]; ok && rt != t {
				return fmt.Errorf("%s operand %%%s is %s, want %s", l.Opcode, r, f.types[r], t)
			}
		}
		return nil
	}
	switch l.Opcode {
	case ConstOp:
		if _, ok := l.Value.(float64); !ok {
			return fmt.Errorf("const with non-float value %v", l.Value)
		}
	case BinOp:
		switch l.Variant {
		case "+", "-", "*", "/":
		default:
			return fmt.Errorf("unknown binop %q", l.Variant)
		}
		return want(2, FloatT)
	case CmpOp:
		switch l.Variant {
		case "one", "oeq", "olt", "ogt":
		default:
			return fmt.Errorf("unknown comparison %q", l.Variant)
		}
		return want(2, FloatT)
	case BoolToFloatOp:
		return want(1, BoolT)
	case CallOp:
		// the callee is looked up when the call runs,
		// since it may be replaced after f is built
		if l.Variant == "" {
			return fmt.Errorf("call with no callee")
		}
		return want(len(l.Src), FloatT)
	case PhiOp:
		if len(l.Src) != len(l.Label) {
			return fmt.Errorf("phi has %d values for %d blocks", len(l.Src), len(l.Label))
		}
		seen := make(map[*Block]bool)
		for _, in := range l.Label {
			if seen[in] {
				return fmt.Errorf("phi has more than one value for block %s", in)
			}
			seen[in] = true
			if !containsBlock(preds, in) {
				return fmt.Errorf("phi has value for %s, which is not a predecessor", in)
			}
		}
		for _, p := range preds {
			if !seen[p] {
				return fmt.Errorf("phi has no value for predecessor %s", p)
			}
		}
		return want(len(l.Src), FloatT)
	case BrOp:
		if len(l.Label) != 1 {
			return fmt.Errorf("br with %d targets", len(l.Label))
		}
	case CondBrOp:
		if len(l.Label) != 2 {
			return fmt.Errorf("condbr with %d targets", len(l.Label))
		}
		return want(1, BoolT)
	case RetOp:
		return want(1, FloatT)
	default:
		return fmt.Errorf("invalid opcode %s", l.Opcode)
	}
	return nil
}

func containsBlock(list []*Block, b *Block) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}
