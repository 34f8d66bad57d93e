package main

import (
	"strconv"
)

// ir.go is the low-level representation the lowering pass targets.
//
// A Module holds named functions. A function is a list of blocks;
// the first block is its entry. A block is a straight-line list of ops
// ending in exactly one terminator (br, condbr or ret).
// Every op defines at most one register and every register is defined once,
// so the code is in SSA form; values merge through phi ops.

type Reg string

type Type int

const (
	_ Type = iota

	FloatT
	BoolT
)

func (t Type) String() string {
	switch t {
	case FloatT:
		return "float"
	case BoolT:
		return "bool"
	default:
		return "invalid"
	}
}

type Opcode int

const (
	NoOp Opcode = iota

	ConstOp       // a = k
	BinOp         // a = b variant c       (+ - * /)
	CmpOp         // a = b variant c       (one oeq olt ogt) -> bool
	BoolToFloatOp // a = float(b)
	CallOp        // a = variant(src...)
	PhiOp         // a = phi [src[i], label[i]]...
	BrOp          // jump label[0]
	CondBrOp      // if b jump label[0] else label[1]
	RetOp         // return b
)

var opcodeNames = [...]string{
	NoOp:          "noop",
	ConstOp:       "const",
	BinOp:         "binop",
	CmpOp:         "cmp",
	BoolToFloatOp: "tofloat",
	CallOp:        "call",
	PhiOp:         "phi",
	BrOp:          "br",
	CondBrOp:      "condbr",
	RetOp:         "ret",
}

func (op Opcode) String() string {
	if op < 0 || int(op) >= len(opcodeNames) {
		return "Opcode(" + strconv.Itoa(int(op)) + ")"
	}
	return opcodeNames[op]
}

func (op Opcode) isTerminator() bool {
	return op == BrOp || op == CondBrOp || op == RetOp
}

// An Op is a single low-level operation.
type Op struct {
	Opcode  Opcode
	Variant string // operator, comparison predicate, or callee name
	Dst     Reg
	Src     []Reg
	Label   []*Block // branch targets; for phis, the predecessor of each Src
	Value   interface{}
}

type Module struct {
	Name  string
	funcs []*Func
}

func newModule(name string) *Module {
	return &Module{Name: name}
}

// Func looks up a function by name. It returns nil if there is none.
func (m *Module) Func(name string) *Func {
	for _, f := range m.funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Funcs returns the functions of m in the order they were created.
func (m *Module) Funcs() []*Func {
	return m.funcs
}

// NewFunc adds a function taking len(params) floats and returning a float.
// The name must not already be in use.
func (m *Module) NewFunc(name string, params []string) *Func {
	if m.Func(name) != nil {
		fatalf("function %s already defined", name)
	}
	f := &Func{
		Name:   name,
		module: m,
		types:  make(map[Reg]Type),
		names:  make(map[string]bool),
	}
	for _, p := range params {
		f.Params = append(f.Params, f.newreg(p, FloatT))
	}
	m.funcs = append(m.funcs, f)
	return f
}

func (m *Module) DeleteFunc(f *Func) {
	for i := range m.funcs {
		if m.funcs[i] == f {
			m.funcs = append(m.funcs[:i], m.funcs[i+1:]...)
			f.module = nil
			return
		}
	}
}

type Func struct {
	Name   string
	Params []Reg

	module *Module
	blocks []*Block
	types  map[Reg]Type
	names  map[string]bool // register and block names in use
}

func (f *Func) NumParams() int { return len(f.Params) }

func (f *Func) Blocks() []*Block { return f.blocks }

// Entry returns the entry block, or nil if f has no blocks yet.
func (f *Func) Entry() *Block {
	if len(f.blocks) == 0 {
		return nil
	}
	return f.blocks[0]
}

// AppendBlock adds a new empty block at the end of f.
func (f *Func) AppendBlock(name string) *Block {
	b := &Block{name: f.uniqueName(name), fn: f}
	f.blocks = append(f.blocks, b)
	return b
}

// MoveBlockAfter moves b so that it directly follows after.
// Block order only affects printing; control flow is given by the branches.
func (f *Func) MoveBlockAfter(b, after *Block) {
	if b == after {
		return
	}
	i := f.blockIndex(b)
	if i < 0 || f.blockIndex(after) < 0 {
		fatalf("MoveBlockAfter: block not in %s", f.Name)
	}
	f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
	j := f.blockIndex(after)
	f.blocks = append(f.blocks, nil)
	copy(f.blocks[j+2:], f.blocks[j+1:])
	f.blocks[j+1] = b
}

func (f *Func) blockIndex(b *Block) int {
	for i := range f.blocks {
		if f.blocks[i] == b {
			return i
		}
	}
	return -1
}

func (f *Func) newreg(hint string, t Type) Reg {
	r := Reg(f.uniqueName(hint))
	f.types[r] = t
	return r
}

// uniqueName returns hint, or hint followed by the smallest number
// that makes it unused in f.
func (f *Func) uniqueName(hint string) string {
	name := hint
	for i := 1; f.names[name]; i++ {
		name = hint + strconv.Itoa(i)
	}
	f.names[name] = true
	return name
}

// A Block is a basic block.
type Block struct {
	name string
	fn   *Func
	code []Op
}

func (b *Block) Name() string   { return b.name }
func (b *Block) Parent() *Func  { return b.fn }
func (b *Block) Code() []Op     { return b.code }
func (b *Block) String() string { return b.name }

// Terminator returns the last op of b if it is a terminator.
func (b *Block) Terminator() (Op, bool) {
	if len(b.code) == 0 {
		return Op{}, false
	}
	l := b.code[len(b.code)-1]
	return l, l.Opcode.isTerminator()
}

// succ returns the blocks b may branch to.
func (b *Block) succ() []*Block {
	if t, ok := b.Terminator(); ok && t.Opcode != RetOp {
		return t.Label
	}
	return nil
}

type Incoming struct {
	Value Reg
	Block *Block
}

// A Builder appends ops at the end of its current block.
type Builder struct {
	block *Block
}

func (b *Builder) PositionAtEnd(blk *Block) {
	b.block = blk
}

// InsertBlock returns the block ops are currently appended to.
func (b *Builder) InsertBlock() *Block {
	return b.block
}

func (b *Builder) emit(l Op) {
	if b.block == nil {
		fatalf("emit %s with no current block", l.Opcode)
	}
	b.block.code = append(b.block.code, l)
}

func (b *Builder) newreg(hint string, t Type) Reg {
	if b.block == nil {
		fatalf("no current block")
	}
	return b.block.fn.newreg(hint, t)
}

func (b *Builder) Const(v float64) Reg {
	dst := b.newreg("k", FloatT)
	b.emit(Op{Opcode: ConstOp, Dst: dst, Value: v})
	return dst
}

// BinOp emits an arithmetic op; op is one of + - * /.
func (b *Builder) BinOp(op string, x, y Reg, name string) Reg {
	dst := b.newreg(name, FloatT)
	b.emit(Op{Opcode: BinOp, Variant: op, Dst: dst, Src: []Reg{x, y}})
	return dst
}

// FCmp emits a float comparison; pred is one of one, oeq, olt, ogt.
func (b *Builder) FCmp(pred string, x, y Reg, name string) Reg {
	dst := b.newreg(name, BoolT)
	b.emit(Op{Opcode: CmpOp, Variant: pred, Dst: dst, Src: []Reg{x, y}})
	return dst
}

func (b *Builder) BoolToFloat(x Reg, name string) Reg {
	dst := b.newreg(name, FloatT)
	b.emit(Op{Opcode: BoolToFloatOp, Dst: dst, Src: []Reg{x}})
	return dst
}

func (b *Builder) Call(f *Func, args []Reg, name string) Reg {
	dst := b.newreg(name, FloatT)
	b.emit(Op{Opcode: CallOp, Variant: f.Name, Dst: dst, Src: append([]Reg(nil), args...)})
	return dst
}

func (b *Builder) Ret(x Reg) {
	b.emit(Op{Opcode: RetOp, Src: []Reg{x}})
}

func (b *Builder) Br(dst *Block) {
	b.emit(Op{Opcode: BrOp, Label: []*Block{dst}})
}

func (b *Builder) CondBr(cond Reg, then, els *Block) {
	b.emit(Op{Opcode: CondBrOp, Src: []Reg{cond}, Label: []*Block{then, els}})
}

// Phi emits a join of float values, one per predecessor block.
func (b *Builder) Phi(name string, in ...Incoming) Reg {
	dst := b.newreg(name, FloatT)
	l := Op{Opcode: PhiOp, Dst: dst}
	for _, e := range in {
		l.Src = append(l.Src, e.Value)
		l.Label = append(l.Label, e.Block)
	}
	b.emit(l)
	return dst
}
