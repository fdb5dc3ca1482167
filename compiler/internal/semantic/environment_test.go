package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
)

func TestEnvironment_LookUp(t *testing.T) {
	owner := &ast.TypeDecl{Name: "A", File: "A.java"}
	field := &ast.FieldDecl{Name: "x", Owner: owner}
	variable := &ast.VarDecl{Name: "x"}
	table := &SymbolTable{}
	unit := table.OpenScope(CompilationUnitEnv, nil)
	require.Nil(t, unit.AddType(owner))
	table.OpenScope(InheritEnv, owner)
	class := table.OpenScope(ClassEnv, owner)
	require.Nil(t, class.AddField(field))
	block := table.OpenScope(BlockEnv, nil)
	require.Nil(t, block.AddVariable(variable))

	assert.Equal(t, ast.Decl(variable), block.LookUpName("x"))
	assert.Equal(t, ast.Decl(field), class.LookUpName("x"))
	assert.Equal(t, ast.Decl(owner), block.LookUpName("A"))
	assert.Nil(t, block.LookUpName("y"))
	assert.Equal(t, unit, block.CompilationUnit())

	table.CloseScope()
	assert.Equal(t, class, table.Current())
	assert.Nil(t, table.Current().LookUpVariable("x"))
}

func TestEnvironment_AddDuplicate(t *testing.T) {
	owner := &ast.TypeDecl{Name: "A", File: "A.java"}
	env := newEnvironment(ClassEnv, nil, owner)
	require.Nil(t, env.AddField(&ast.FieldDecl{Name: "f", Owner: owner}))
	err := env.AddField(&ast.FieldDecl{Meta: ast.Meta{Line: 3}, Name: "f", Owner: owner})
	require.NotNil(t, err)
	assert.True(t, diag.Is(err, diag.StructuralError))
	assert.Contains(t, err.Error(), "A.java:3")

	method := &ast.MethodDecl{Name: "m", Owner: owner}
	require.Nil(t, env.AddMethod("m", method))
	assert.NotNil(t, env.AddMethod("m", method))
	assert.Nil(t, env.AddMethod("m@I", method))

	// Keys are unique within one scope only.
	inner := newEnvironment(BlockEnv, env, nil)
	assert.Nil(t, inner.AddVariable(&ast.VarDecl{Name: "f"}))
	assert.NotNil(t, inner.AddVariable(&ast.VarDecl{Name: "f"}))
}

func TestEnvironment_LookUpType(t *testing.T) {
	units := parseUnits(t,
		"package p; public class C { }",
		"package q; public class C { }",
		"package q; public class D { }",
		"package r; import p.C; import q.*; public class E { }",
		"package r; public class F { }",
	)
	info, err := Analyze(units, DefaultOptions())
	require.Nil(t, err)
	env := info.ClassEnv(findType(units, "r.E"))

	testDatas := []struct {
		name   string
		expect string
	}{
		{name: "C", expect: "p.C"},
		{name: "D", expect: "q.D"},
		{name: "E", expect: "r.E"},
		{name: "F", expect: "r.F"},
		{name: "Object", expect: "java.lang.Object"},
		{name: "q.C", expect: "q.C"},
		{name: "G", expect: ""},
	}
	for _, data := range testDatas {
		decl, err := env.LookUpType(data.name)
		require.Nil(t, err, data.name)
		if data.expect == "" {
			assert.Nil(t, decl, data.name)
			continue
		}
		require.NotNil(t, decl, data.name)
		assert.Equal(t, data.expect, decl.FullName(), data.name)
	}
}

func TestScopes_Shadowing(t *testing.T) {
	info, units, err := analyzeSources(t, "public class A { int x; void m() { x = 1; int x = 2; x = 3; } }")
	require.Nil(t, err)
	method := findMethod(findType(units, "A"), "m")
	stmts := method.Body.Stmts
	before := stmts[0].(*ast.ExprStmt).X.(*ast.AssignExpr).LHS
	after := stmts[2].(*ast.ExprStmt).X.(*ast.AssignExpr).LHS
	assert.IsType(t, &ast.FieldDecl{}, info.DeclOf(before))
	assert.Equal(t, ast.Decl(stmts[1].(*ast.LocalVarStmt).Decl), info.DeclOf(after))

	local, ok := info.Scopes.Get(stmts[1])
	require.True(t, ok)
	assert.IsType(t, &ast.VarDecl{}, local.LookUpName("x"))
	block, ok := info.Scopes.Get(method.Body)
	require.True(t, ok)
	assert.IsType(t, &ast.FieldDecl{}, block.LookUpName("x"))
}

func TestSideTable_Attach(t *testing.T) {
	table := newSideTable[int]("number", diag.TypeError)
	node := &ast.EmptyStmt{Meta: ast.Meta{ID: 7, Line: 2}}
	require.Nil(t, table.Attach(node, 1))
	require.Nil(t, table.Attach(node, 1))
	err := table.Attach(node, 2)
	require.NotNil(t, err)
	assert.True(t, diag.Is(err, diag.TypeError))
	value, ok := table.Get(node)
	assert.True(t, ok)
	assert.Equal(t, 1, value)
	assert.Equal(t, 1, table.Len())
}
