package syntax

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
)

func TestParser_isJavaFile(t *testing.T) {
	assert.True(t, isJavaFile("xxx.java"))
	assert.False(t, isJavaFile("xxx.jack"))
}

func TestParser_ParseSource(t *testing.T) {
	testDatas := []struct {
		data      string
		expectErr bool
	}{
		{data: "", expectErr: false},
		{data: "package a.b; import c.D; import e.*;", expectErr: false},
		{data: "public class A { }", expectErr: false},
		{data: "public abstract class A extends B implements C, D { public abstract int m(); }", expectErr: false},
		{data: "public interface I extends J, K { int m(int a, A[] b); }", expectErr: false},
		{data: "public class A { int x = 1; static A a; public A() { } public A(int x) { this.x = x; } }", expectErr: false},
		{data: "public class A { void m() { int a = 1; a = a + 2 * 3; if (a < 3) a = 4; else { a = 5; } } }", expectErr: false},
		{data: "public class A { void m() { for (int i = 0; i < 10; i = i + 1) { } while (true) ; } }", expectErr: false},
		{data: "public class A { int[] m() { int[] a = new int[5]; a[0] = -2147483648; return a; } }", expectErr: false},
		{data: "public class A { Object m(Object o) { return (A) o; } boolean n(Object o) { return o instanceof A && !(o == null); } }", expectErr: false},
		{data: "public class A { void m() { new A(); a.b.c(1, 2).d(); A.f = (a) + 1; } }", expectErr: false},
		{data: "public class A { void m() { a.b(c[1] + d.e(f)).g[2] = h; } }", expectErr: false},
		// Errors.
		{data: "public class A { m() { } }", expectErr: true},
		{data: "public class A { void x; }", expectErr: true},
		{data: "public class A { void m() { 1 + 2; } }", expectErr: true},
		{data: "public class A { void m() { 1 = 2; } }", expectErr: true},
		{data: "public class A { } class B { }", expectErr: true},
		{data: "public public class A { }", expectErr: true},
		{data: "public class A { void m() { int[] a = new int[1][2]; } }", expectErr: true},
		{data: "public class A { void m() { return }", expectErr: true},
		{data: "package a.b", expectErr: true},
	}
	for _, data := range testDatas {
		parser := NewParser(&ast.Arena{})
		_, err := parser.ParseSource("A.java", data.data)
		if data.expectErr {
			assert.NotNil(t, err, data.data)
			assert.True(t, diag.Is(err, diag.SyntaxError), data.data)
			continue
		}
		assert.Nil(t, err, data.data)
	}
}

func TestParser_ParseExpression(t *testing.T) {
	testDatas := []struct {
		data   string
		expect string
	}{
		{data: "a + b * c", expect: "(a + (b * c))"},
		{data: "a * b + c * d", expect: "((a * b) + (c * d))"},
		{data: "a - b - c", expect: "((a - b) - c)"},
		{data: "a || b && c | d & e == f < g + h * i", expect: "(a || (b && (c | (d & (e == (f < (g + (h * i))))))))"},
		{data: "a = b = c", expect: "a = b = c"},
		{data: "o instanceof A == true", expect: "((o instanceof A) == true)"},
		{data: "-a + !b", expect: "(-a + !b)"},
		{data: "(int) c + 1", expect: "((int)c + 1)"},
		{data: "(a) + 1", expect: "(a + 1)"},
		{data: "a.b.c(1).d[2]", expect: "a.b.c(1).d[2]"},
		{data: "new A(1, 2).f", expect: "new A(1, 2).f"},
		{data: "-5", expect: "-5"},
	}
	for _, data := range testDatas {
		parser := NewParser(&ast.Arena{})
		tokens, err := NewTokenizer("A.java").Tokenize(stringsReader(data.data))
		require.Nil(t, err)
		parser.currentTokens = tokens
		expr, err := parser.parseExpression()
		assert.Nil(t, err, data.data)
		assert.False(t, parser.hasRemainTokens(), data.data)
		assert.Equal(t, data.expect, render(expr), data.data)
	}
}

func TestParser_Structure(t *testing.T) {
	parser := NewParser(&ast.Arena{})
	unit, err := parser.ParseSource("A.java", `package p;
import q.R;
public class A extends B implements I {
	public static int s;
	public A() { }
	public int get(int a, boolean b) { int c = a; return c; }
	public abstract void abs();
}`)
	require.Nil(t, err)
	assert.Equal(t, "p", unit.PackageName())
	assert.Len(t, unit.Imports, 1)
	decl := unit.Type
	assert.Equal(t, "p.A", decl.FullName())
	assert.Equal(t, "B", decl.SuperClass.String())
	assert.Len(t, decl.Interfaces, 1)
	assert.Len(t, decl.Fields, 1)
	assert.True(t, decl.Fields[0].IsStatic())
	assert.Len(t, decl.Methods, 3)
	assert.True(t, decl.Methods[0].IsConstructor)
	assert.Equal(t, "get", decl.Methods[1].Name)
	assert.Len(t, decl.Methods[1].Params, 2)
	assert.Nil(t, decl.Methods[2].Body)
	assert.Same(t, decl, decl.Methods[1].Owner)
	assert.Equal(t, 6, decl.Methods[1].Line)

	// Node ids are unique.
	seen := map[ast.NodeID]bool{}
	ast.Walk(decl.Methods[1].Body, func(node ast.Node) {
		assert.False(t, seen[node.Base().ID])
		seen[node.Base().ID] = true
	})
}

func TestParser_ParseFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A.java"), []byte("public class A { }"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	units, err := NewParser(&ast.Arena{}).ParseFiles([]string{dir})
	require.NoError(t, err)
	assert.Len(t, units, 1)
	assert.Equal(t, "A", units[0].Type.Name)

	_, err = NewParser(&ast.Arena{}).ParseFiles([]string{filepath.Join(dir, "missing.java")})
	assert.True(t, diag.Is(err, diag.ReadError))
}

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

// render prints an expression with every binary expression parenthesised.
func render(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return fmt.Sprint(e.Value)
	case *ast.BoolLiteral:
		return fmt.Sprint(e.Value)
	case *ast.SimpleName, *ast.QualifiedName:
		return e.(ast.Name).FullName()
	case *ast.InfixExpr:
		return "(" + render(e.LHS) + " " + e.Op.String() + " " + render(e.RHS) + ")"
	case *ast.InstanceOfExpr:
		return "(" + render(e.X) + " instanceof " + e.Type.String() + ")"
	case *ast.PrefixExpr:
		return e.Op.String() + render(e.X)
	case *ast.AssignExpr:
		return render(e.LHS) + " = " + render(e.RHS)
	case *ast.CastExpr:
		return "(" + e.Type.String() + ")" + render(e.X)
	case *ast.FieldAccess:
		return render(e.X) + "." + e.Name
	case *ast.ArrayAccess:
		return render(e.X) + "[" + render(e.Index) + "]"
	case *ast.MethodInvocation:
		target := ""
		if e.Target != nil {
			target = e.Target.FullName()
		} else {
			target = render(e.Receiver) + "." + e.Name
		}
		return target + "(" + renderArgs(e.Args) + ")"
	case *ast.ClassInstanceCreation:
		return "new " + e.Type.String() + "(" + renderArgs(e.Args) + ")"
	}
	return fmt.Sprintf("%T", expr)
}

func renderArgs(args []ast.Expr) string {
	var parts []string
	for _, arg := range args {
		parts = append(parts, render(arg))
	}
	return strings.Join(parts, ", ")
}
