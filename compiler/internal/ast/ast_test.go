package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBase(t *testing.T) {
	arena := &Arena{}
	meta := func(line int) Meta {
		return Meta{ID: arena.NewID(), Line: line}
	}
	x := &SimpleName{Meta: meta(3), Ident: "x"}
	nodes := []Node{
		&CompilationUnit{Meta: meta(1)},
		&TypeDecl{Meta: meta(1), Name: "A"},
		&FieldDecl{Meta: meta(2), Name: "f"},
		&MethodDecl{Meta: meta(2), Name: "m"},
		&VarDecl{Meta: meta(3), Name: "v"},
		&Block{Meta: meta(3)},
		&ReturnStmt{Meta: meta(4), X: x},
		x,
		NewQualifiedName(meta(5), x, "y"),
		&IntLiteral{Meta: meta(6), Value: 1},
		&MethodInvocation{Meta: meta(7), Target: x},
	}
	seen := map[NodeID]bool{}
	for _, node := range nodes {
		base := node.Base()
		assert.NotZero(t, base.ID)
		assert.False(t, seen[base.ID])
		seen[base.ID] = true
		assert.NotZero(t, base.Line)
	}

	var name Name = NewQualifiedName(meta(8), x, "y")
	assert.Equal(t, 8, name.Base().Line)
	assert.Equal(t, "x.y", name.FullName())
	assert.Equal(t, "y", LastIdent(name))
}

func TestWalk(t *testing.T) {
	x := &SimpleName{Ident: "x"}
	one := &IntLiteral{Value: 1}
	sum := &InfixExpr{Op: AddOp, LHS: x, RHS: one}
	ret := &ReturnStmt{X: sum}
	body := &Block{Stmts: []Stmt{&IfStmt{Cond: &BoolLiteral{Value: true}, Then: ret}}}

	var visited []Node
	Walk(body, func(node Node) {
		visited = append(visited, node)
	})
	assert.Len(t, visited, 7)
	assert.Equal(t, Node(body), visited[0])
	assert.Equal(t, Node(ret), visited[3])
	assert.Equal(t, Node(sum), visited[4])
	assert.Equal(t, Node(one), visited[6])
}
