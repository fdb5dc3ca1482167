package ast

type Stmt interface {
	Node
	stmtNode()
}

type Block struct {
	Meta
	Stmts []Stmt
}

type LocalVarStmt struct {
	Meta
	Decl *VarDecl
}

type ExprStmt struct {
	Meta
	X Expr
}

type IfStmt struct {
	Meta
	Cond Expr
	Then Stmt
	Else Stmt // nil when there is no else branch.
}

type WhileStmt struct {
	Meta
	Cond Expr
	Body Stmt
}

// ForStmt: Init is nil, a *LocalVarStmt or an *ExprStmt. Cond and Update may be nil.
type ForStmt struct {
	Meta
	Init   Stmt
	Cond   Expr
	Update Expr
	Body   Stmt
}

type ReturnStmt struct {
	Meta
	X Expr // nil for `return;`.
}

type EmptyStmt struct {
	Meta
}

func (*Block) stmtNode()        {}
func (*LocalVarStmt) stmtNode() {}
func (*ExprStmt) stmtNode()     {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*ForStmt) stmtNode()      {}
func (*ReturnStmt) stmtNode()   {}
func (*EmptyStmt) stmtNode()    {}

// Walk calls fn for every statement and expression reachable from node in source order, parents before
// children. It does not descend into type nodes.
func Walk(node Node, fn func(Node)) {
	if node == nil {
		return
	}
	fn(node)
	switch n := node.(type) {
	case *Block:
		for _, stmt := range n.Stmts {
			Walk(stmt, fn)
		}
	case *LocalVarStmt:
		if n.Decl.Init != nil {
			Walk(n.Decl.Init, fn)
		}
	case *ExprStmt:
		Walk(n.X, fn)
	case *IfStmt:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		if n.Else != nil {
			Walk(n.Else, fn)
		}
	case *WhileStmt:
		Walk(n.Cond, fn)
		Walk(n.Body, fn)
	case *ForStmt:
		if n.Init != nil {
			Walk(n.Init, fn)
		}
		if n.Cond != nil {
			Walk(n.Cond, fn)
		}
		if n.Update != nil {
			Walk(n.Update, fn)
		}
		Walk(n.Body, fn)
	case *ReturnStmt:
		if n.X != nil {
			Walk(n.X, fn)
		}
	case *InfixExpr:
		Walk(n.LHS, fn)
		Walk(n.RHS, fn)
	case *PrefixExpr:
		Walk(n.X, fn)
	case *AssignExpr:
		Walk(n.LHS, fn)
		Walk(n.RHS, fn)
	case *FieldAccess:
		Walk(n.X, fn)
	case *MethodInvocation:
		if n.Receiver != nil {
			Walk(n.Receiver, fn)
		}
		for _, arg := range n.Args {
			Walk(arg, fn)
		}
	case *ClassInstanceCreation:
		for _, arg := range n.Args {
			Walk(arg, fn)
		}
	case *ArrayCreation:
		Walk(n.Size, fn)
	case *ArrayAccess:
		Walk(n.X, fn)
		Walk(n.Index, fn)
	case *CastExpr:
		Walk(n.X, fn)
	case *InstanceOfExpr:
		Walk(n.X, fn)
	}
}
