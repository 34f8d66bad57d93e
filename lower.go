package main

// lower.go is the middle-end of the compiler
// it takes a parsed Program and lowers it into functions of a Module
//
// Every top-level defn becomes a function of the module.
// Everything else is collected, in order, into one entry function
// which returns the value of the last expression (or 0 if there is none).

// entryName is the name of the entry function.
// The lexer cannot produce it, so no defn can clash with it.
const entryName = "<toplevel>"

type compiler struct {
	mod   *Module
	b     Builder
	scope *scope
	dst   Reg // register holding the value of the last lowered expression

	entry   *Func
	partial *Func // defn being lowered
}

// lowerProgram lowers p into m and returns the entry function.
// On error, the entry function and any half-built function are removed
// from m again; functions completed before the error stay defined.
func lowerProgram(p *Program, m *Module) (*Func, error) {
	c := &compiler{mod: m, scope: newscope(nil)}
	entry, err := c.lowerProgram(p)
	if err != nil {
		c.discard()
		return nil, err
	}
	return entry, nil
}

func (c *compiler) lowerProgram(p *Program) (*Func, error) {
	if old := c.mod.Func(entryName); old != nil {
		c.mod.DeleteFunc(old)
	}
	c.entry = c.mod.NewFunc(entryName, nil)
	cur := c.entry.AppendBlock("entry")

	var last Reg
	for _, expr := range p.Exprs {
		if fn, ok := expr.(*FuncExpr); ok {
			if err := c.lowerFunc(fn); err != nil {
				return nil, err
			}
			continue
		}
		// an earlier if may have moved the entry function on to a later block
		c.b.PositionAtEnd(cur)
		if err := c.lowerExpr(expr); err != nil {
			return nil, err
		}
		last = c.dst
		cur = c.b.InsertBlock()
	}

	c.b.PositionAtEnd(cur)
	if last == "" {
		last = c.b.Const(0)
	}
	c.b.Ret(last)
	if err := c.verify(c.entry); err != nil {
		return nil, err
	}
	return c.entry, nil
}

// lowerFunc lowers a top-level function definition,
// replacing any function of the same name.
func (c *compiler) lowerFunc(fn *FuncExpr) error {
	if err := c.checkCallers(fn.Proto.Name, len(fn.Proto.Params)); err != nil {
		return err
	}
	if old := c.mod.Func(fn.Proto.Name); old != nil {
		c.mod.DeleteFunc(old)
	}
	f := c.mod.NewFunc(fn.Proto.Name, fn.Proto.Params)
	c.partial = f
	c.b.PositionAtEnd(f.AppendBlock("entry"))

	c.scope = c.scope.push()
	for i, name := range fn.Proto.Params {
		c.scope.define(name, f.Params[i])
	}
	err := c.lowerExpr(fn.Body)
	c.scope = c.scope.pop()
	if err != nil {
		return err
	}

	c.b.Ret(c.dst)
	if err := c.verify(f); err != nil {
		return err
	}
	c.partial = nil
	return nil
}

// checkCallers checks the calls to name already emitted in the entry
// function against a new definition taking nparams arguments.
// Those calls run after the definition replaces the old one.
func (c *compiler) checkCallers(name string, nparams int) error {
	for _, b := range c.entry.Blocks() {
		for _, l := range b.Code() {
			if l.Opcode == CallOp && l.Variant == name && len(l.Src) != nparams {
				return &LowerError{Kind: ArityMismatch, Name: name, Expected: nparams, Got: len(l.Src)}
			}
		}
	}
	return nil
}

// lowerExpr emits code for expr at the builder's current block
// and leaves the result in c.dst.
// It may leave the builder positioned at a different block than it started in.
func (c *compiler) lowerExpr(expr Expr) error {
	switch e := expr.(type) {
	case *NumberExpr:
		c.dst = c.b.Const(e.Value)
	case *VarExpr:
		r, ok := c.scope.lookup(e.Name)
		if !ok {
			return &LowerError{Kind: UnresolvedName, Name: e.Name}
		}
		c.dst = r
	case *BinExpr:
		return c.lowerBinExpr(e)
	case *CallExpr:
		return c.lowerCall(e)
	case *IfExpr:
		return c.lowerIf(e)
	case *FuncExpr:
		return &LowerError{Kind: NestedFunction, Name: e.Proto.Name}
	default:
		fatalf("unhandled case in lowerExpr: %T", expr)
	}
	return nil
}

func (c *compiler) lowerBinExpr(e *BinExpr) error {
	if err := c.lowerExpr(e.Left); err != nil {
		return err
	}
	left := c.dst
	if err := c.lowerExpr(e.Right); err != nil {
		return err
	}
	right := c.dst
	switch e.Op {
	case "+":
		c.dst = c.b.BinOp("+", left, right, "addtmp")
	case "-":
		c.dst = c.b.BinOp("-", left, right, "subtmp")
	case "*":
		c.dst = c.b.BinOp("*", left, right, "multmp")
	case "/":
		c.dst = c.b.BinOp("/", left, right, "divtmp")
	case "=":
		c.dst = c.compare("oeq", left, right)
	case "<":
		c.dst = c.compare("olt", left, right)
	case ">":
		c.dst = c.compare("ogt", left, right)
	default:
		return &LowerError{Kind: UnsupportedOperator, Name: e.Op}
	}
	return nil
}

// compare emits a comparison and converts its result to 1 or 0.
func (c *compiler) compare(pred string, left, right Reg) Reg {
	cmp := c.b.FCmp(pred, left, right, "cmptmp")
	return c.b.BoolToFloat(cmp, "booltmp")
}

func (c *compiler) lowerCall(e *CallExpr) error {
	callee := c.mod.Func(e.Callee)
	if callee == nil || callee == c.entry {
		return &LowerError{Kind: UnknownFunction, Name: e.Callee}
	}
	if callee.NumParams() != len(e.Args) {
		return &LowerError{Kind: ArityMismatch, Name: e.Callee, Expected: callee.NumParams(), Got: len(e.Args)}
	}
	args := make([]Reg, 0, len(e.Args))
	for _, a := range e.Args {
		if err := c.lowerExpr(a); err != nil {
			return err
		}
		args = append(args, c.dst)
	}
	c.dst = c.b.Call(callee, args, "calltmp")
	return nil
}

// lowerIf builds the diamond
//
//	origin: ... condbr %ifcond {then, else}
//	then:   ... br {continue}
//	else:   ... br {continue}
//	continue: %iftmp = phi [%a, then], [%b, else]
//
// Lowering a branch body may itself create blocks (a nested if),
// so the branches into continue, and the phi's incoming blocks,
// must use whichever block each body finished in, not the block it started in.
func (c *compiler) lowerIf(e *IfExpr) error {
	if err := c.lowerExpr(e.Cond); err != nil {
		return err
	}
	zero := c.b.Const(0)
	cond := c.b.FCmp("one", c.dst, zero, "ifcond")
	origin := c.b.InsertBlock()
	fn := origin.Parent()

	thenBlock := fn.AppendBlock("then")
	elseBlock := fn.AppendBlock("else")

	c.b.PositionAtEnd(thenBlock)
	if err := c.lowerExpr(e.Then); err != nil {
		return err
	}
	thenVal := c.dst
	thenExit := c.b.InsertBlock()

	fn.MoveBlockAfter(elseBlock, thenExit)
	c.b.PositionAtEnd(elseBlock)
	if err := c.lowerExpr(e.Else); err != nil {
		return err
	}
	elseVal := c.dst
	elseExit := c.b.InsertBlock()

	c.b.PositionAtEnd(origin)
	c.b.CondBr(cond, thenBlock, elseBlock)

	cont := fn.AppendBlock("continue")
	fn.MoveBlockAfter(cont, elseExit)
	c.b.PositionAtEnd(thenExit)
	c.b.Br(cont)
	c.b.PositionAtEnd(elseExit)
	c.b.Br(cont)

	c.b.PositionAtEnd(cont)
	c.dst = c.b.Phi("iftmp", Incoming{thenVal, thenExit}, Incoming{elseVal, elseExit})
	return nil
}

func (c *compiler) verify(f *Func) error {
	if err := verifyFunc(f); err != nil {
		return &InternalError{Func: f.Name, Err: err}
	}
	return nil
}

// discard removes the functions left unfinished by a failed lowering.
func (c *compiler) discard() {
	for _, f := range []*Func{c.partial, c.entry} {
		if f != nil && f.module == c.mod {
			c.mod.DeleteFunc(f)
		}
	}
}
