package main

// Expr is a node of the syntax tree.
// Every node owns its children; nodes are never shared.
type Expr interface {
	exprNode()
}

type NumberExpr struct {
	Value float64
}

type VarExpr struct {
	Name string
}

type BinExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

type CallExpr struct {
	Callee string
	Args   []Expr
}

// A FuncExpr is a top-level function definition, (defn name (params) body).
type FuncExpr struct {
	Proto Prototype
	Body  Expr
}

type IfExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

type Prototype struct {
	Name   string
	Params []string
}

// A Program is the sequence of top-level expressions of one input.
type Program struct {
	Exprs []Expr
}

func (*NumberExpr) exprNode() {}
func (*VarExpr) exprNode()    {}
func (*BinExpr) exprNode()    {}
func (*CallExpr) exprNode()   {}
func (*FuncExpr) exprNode()   {}
func (*IfExpr) exprNode()     {}
