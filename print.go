package main

import (
	"bytes"
	"fmt"
	"io"
)

// this file pretty-prints modules and blocks for debugging

func printModule(w io.Writer, m *Module) {
	for _, f := range m.funcs {
		printFunc(w, f)
	}
}

func printFunc(w io.Writer, f *Func) {
	fmt.Fprintf(w, "FUNCTION %s(", f.Name)
	for i, r := range f.Params {
		if i != 0 {
			fmt.Fprintf(w, ", ")
		}
		fmt.Fprintf(w, "%%%s", r)
	}
	fmt.Fprintf(w, ")\n")
	for _, b := range f.blocks {
		fmt.Fprintf(w, "  %s:\n", b.name)
		printb(w, b)
	}
}

func printb(w io.Writer, b *Block) {
	var buf bytes.Buffer
	for i, l := range b.code {
		fmt.Fprintf(w, "\t%3d: %s\n", i, l.debugstr(&buf))
	}
}

func (l Op) debugstr(b *bytes.Buffer) string {
	b.Reset()
	if l.Dst != "" {
		b.WriteString("%" + string(l.Dst) + " = ")
	}

	b.WriteString(l.Opcode.String())

	if l.Variant != "" {
		b.WriteString(" \"")
		b.WriteString(l.Variant)
		b.WriteString("\"")
	}

	if l.Opcode == PhiOp {
		for i := range l.Src {
			if i != 0 {
				b.WriteString(",")
			}
			label := "?"
			if i < len(l.Label) {
				label = l.Label[i].name
			}
			fmt.Fprintf(b, " [%%%s, %s]", l.Src[i], label)
		}
		return b.String()
	}

	if len(l.Src) > 0 {
		b.WriteString(" ")
		for i, r := range l.Src {
			if i != 0 {
				b.WriteString(", ")
			}
			b.WriteString("%" + string(r))
		}
	}

	if len(l.Label) > 0 {
		b.WriteString(" {")
		for i, d := range l.Label {
			if i != 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.name)
		}
		b.WriteString("}")
	}

	if l.Value != nil {
		fmt.Fprint(b, " <", l.Value, ">")
	}
	return b.String()
}

func (l Op) String() string {
	var buf bytes.Buffer
	return l.debugstr(&buf)
}
