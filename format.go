package main

import (
	"bytes"
	"fmt"
	"strconv"
)

// format.go converts an AST back to source code

type formatter struct {
	buf bytes.Buffer
}

func formatExpr(expr Expr) string {
	var f formatter
	f.visitExpr(expr)
	return f.buf.String()
}

// formatProgram writes one top-level expression per line.
func formatProgram(p *Program) string {
	var f formatter
	for _, e := range p.Exprs {
		f.visitExpr(e)
		f.write("\n")
	}
	return f.buf.String()
}

func (f *formatter) visitExpr(e Expr) {
	switch e := e.(type) {
	case *NumberExpr:
		f.write(strconv.FormatFloat(e.Value, 'f', -1, 64))
	case *VarExpr:
		f.write(e.Name)
	case *BinExpr:
		f.write("(" + e.Op + " ")
		f.visitExpr(e.Left)
		f.write(" ")
		f.visitExpr(e.Right)
		f.write(")")
	case *CallExpr:
		f.write("(" + e.Callee)
		for _, a := range e.Args {
			f.write(" ")
			f.visitExpr(a)
		}
		f.write(")")
	case *FuncExpr:
		f.write("(defn " + e.Proto.Name + " (")
		for i, name := range e.Proto.Params {
			if i != 0 {
				f.write(" ")
			}
			f.write(name)
		}
		f.write(") ")
		f.visitExpr(e.Body)
		f.write(")")
	case *IfExpr:
		f.write("(if ")
		f.visitExpr(e.Cond)
		f.write(" ")
		f.visitExpr(e.Then)
		f.write(" ")
		f.visitExpr(e.Else)
		f.write(")")
	default:
		panic(fmt.Sprintf("unhandled case in formatter.visitExpr: %T", e))
	}
}

func (f *formatter) write(s string) {
	f.buf.WriteString(s)
}
