package semantic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
	"github.com/xiaobogaga/joosc/compiler/internal/syntax"
)

var prelude = []string{
	"package java.lang; public class Object { public Object() { } public boolean equals(Object other) { return this == other; } public int hashCode() { return 0; } }",
	"package java.lang; public class String { public String() { } public String concat(String s) { return s; } }",
}

func parseUnits(t *testing.T, sources ...string) []*ast.CompilationUnit {
	parser := syntax.NewParser(&ast.Arena{})
	var units []*ast.CompilationUnit
	for i, source := range append(append([]string{}, prelude...), sources...) {
		unit, err := parser.ParseSource(fmt.Sprintf("Unit%d.java", i), source)
		require.Nil(t, err, source)
		units = append(units, unit)
	}
	return units
}

func analyzeSources(t *testing.T, sources ...string) (*Info, []*ast.CompilationUnit, error) {
	units := parseUnits(t, sources...)
	info, err := Analyze(units, DefaultOptions())
	return info, units, err
}

func findType(units []*ast.CompilationUnit, name string) *ast.TypeDecl {
	for _, unit := range units {
		if unit.Type != nil && unit.Type.FullName() == name {
			return unit.Type
		}
	}
	return nil
}

func findMethod(decl *ast.TypeDecl, name string) *ast.MethodDecl {
	for _, method := range decl.Methods {
		if method.Name == name {
			return method
		}
	}
	return nil
}

func findField(decl *ast.TypeDecl, name string) *ast.FieldDecl {
	for _, field := range decl.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

const success = diag.Kind(-1)

func TestAnalyze(t *testing.T) {
	testDatas := []struct {
		name    string
		sources []string
		kind    diag.Kind
	}{
		{name: "simple class", sources: []string{"public class A { public A() { } int x = 1; int m() { return x; } }"}, kind: success},
		{name: "duplicate field", sources: []string{"public class A { int x; int x; }"}, kind: diag.StructuralError},
		{name: "duplicate method", sources: []string{"public class A { void m() { } int m() { return 1; } }"}, kind: diag.StructuralError},
		{name: "overloads", sources: []string{"public class A { void m() { } void m(int a) { } void m(A a) { } }"}, kind: success},
		{name: "duplicate constructor", sources: []string{"public class A { public A(int a) { } public A(int b) { } }"}, kind: diag.StructuralError},
		{name: "duplicate type", sources: []string{"public class A { }", "public class A { }"}, kind: diag.StructuralError},
		{name: "extends interface", sources: []string{"public interface I { }", "public class A extends I { }"}, kind: diag.StructuralError},
		{name: "extends final", sources: []string{"public final class F { }", "public class A extends F { }"}, kind: diag.StructuralError},
		{name: "implements class", sources: []string{"public class B { }", "public class A implements B { }"}, kind: diag.StructuralError},
		{name: "repeated interface", sources: []string{"public interface I { }", "public class A implements I, I { }"}, kind: diag.StructuralError},
		{name: "cycle", sources: []string{"public class A extends B { }", "public class B extends A { }"}, kind: diag.StructuralError},
		{name: "interface cycle", sources: []string{"public interface I extends J { }", "public interface J extends I { }"}, kind: diag.StructuralError},
		{name: "unknown type", sources: []string{"public class A { B b; }"}, kind: diag.StructuralError},
		{name: "unknown package", sources: []string{"import foo.*; public class A { }"}, kind: diag.StructuralError},
		{name: "unknown import", sources: []string{"import java.lang.Foo; public class A { }"}, kind: diag.StructuralError},
		{name: "prefix package", sources: []string{"package a.b; public class C { }", "import a.*; public class A { }"}, kind: success},
		{name: "qualified type", sources: []string{"package a.b; public class C { }", "public class A { a.b.C c; }"}, kind: success},
		{
			name:    "import collision",
			sources: []string{"package p; public class C { }", "package q; public class C { }", "import p.C; import q.C; public class A { }"},
			kind:    diag.StructuralError,
		},
		{
			name:    "import collides with own type",
			sources: []string{"package p; public class A { }", "import p.A; public class A { }"},
			kind:    diag.StructuralError,
		},
		{
			name:    "ambiguous on-demand import",
			sources: []string{"package p; public class C { }", "package q; public class C { }", "import p.*; import q.*; public class A { C c; }"},
			kind:    diag.StructuralError,
		},
		{
			name:    "unused ambiguous on-demand import",
			sources: []string{"package p; public class C { }", "package q; public class C { }", "import p.*; import q.*; public class A { }"},
			kind:    success,
		},
		{name: "package collides with type", sources: []string{"package a; public class B { }", "package a.B; public class C { }"}, kind: diag.StructuralError},
		{name: "local shadows parameter", sources: []string{"public class A { void m(int a) { int a = 1; } }"}, kind: diag.StructuralError},
		{name: "local shadows local", sources: []string{"public class A { void m() { int a = 1; { int a = 2; } } }"}, kind: diag.StructuralError},
		{name: "sibling blocks", sources: []string{"public class A { void m() { { int a = 1; } { int a = 2; } } }"}, kind: success},
		{name: "for scopes", sources: []string{"public class A { void m() { for (int i = 0; i < 1; i = i + 1) { } for (int i = 0; i < 1; i = i + 1) { } } }"}, kind: success},
		{name: "local shadows field", sources: []string{"public class A { int a; void m() { int a = 1; a = 2; } }"}, kind: success},
		{
			name:    "unimplemented abstract method",
			sources: []string{"public abstract class A { public abstract int m(); }", "public class B extends A { }"},
			kind:    diag.StructuralError,
		},
		{
			name:    "unimplemented interface method",
			sources: []string{"public interface I { int m(); }", "public class B implements I { }"},
			kind:    diag.StructuralError,
		},
		{
			name:    "implemented interface method",
			sources: []string{"public interface I { int m(); }", "public class B implements I { public B() { } public int m() { return 1; } }"},
			kind:    success,
		},
		{
			name:    "interface method implemented by superclass",
			sources: []string{"public interface I { int m(); }", "public class A { public int m() { return 1; } }", "public class B extends A implements I { }"},
			kind:    success,
		},
		{
			name:    "override changes return type",
			sources: []string{"public class A { public int m() { return 1; } }", "public class B extends A { public boolean m() { return true; } }"},
			kind:    diag.StructuralError,
		},
		{
			name:    "override final",
			sources: []string{"public class A { public final int m() { return 1; } }", "public class B extends A { public int m() { return 2; } }"},
			kind:    diag.StructuralError,
		},
		{
			name:    "static hides instance",
			sources: []string{"public class A { public int m() { return 1; } }", "public class B extends A { public static int m() { return 2; } }"},
			kind:    diag.StructuralError,
		},
		{
			name:    "protected overrides public",
			sources: []string{"public class A { public int m() { return 1; } }", "public class B extends A { protected int m() { return 2; } }"},
			kind:    diag.StructuralError,
		},
		{name: "abstract method with body", sources: []string{"public abstract class A { public abstract int m() { return 1; } }"}, kind: diag.StructuralError},
		{name: "method without body", sources: []string{"public class A { public int m(); }"}, kind: diag.StructuralError},
		// Names.
		{name: "forward reference", sources: []string{"public class C { int x = y; int y = 1; }"}, kind: diag.NameResolutionError},
		{name: "self reference", sources: []string{"public class C { int x = x; }"}, kind: success},
		{name: "self reference in expression", sources: []string{"public class C { int x = x + 1; }"}, kind: diag.NameResolutionError},
		{name: "self reference in static initializer", sources: []string{"public class C { static int x = 2 * x; }"}, kind: diag.NameResolutionError},
		{name: "assignment to later field in initializer", sources: []string{"public class C { int x = y = 1; int y; }"}, kind: success},
		{name: "backward reference", sources: []string{"public class C { int y = 1; int x = y; }"}, kind: success},
		{name: "forward reference from method", sources: []string{"public class C { int m() { return y; } int y = 1; }"}, kind: success},
		{name: "unresolved name", sources: []string{"public class A { int m() { return z; } }"}, kind: diag.NameResolutionError},
		{name: "instance field in static method", sources: []string{"public class A { int f; static int m() { return f; } }"}, kind: diag.NameResolutionError},
		{name: "instance method in static method", sources: []string{"public class A { int f() { return 1; } static int m() { return f(); } }"}, kind: diag.NameResolutionError},
		{name: "static method in static method", sources: []string{"public class A { static int f() { return 1; } static int m() { return f(); } }"}, kind: success},
		{name: "static field through type", sources: []string{"public class A { public static int s = 1; }", "public class B { int m() { return A.s; } }"}, kind: success},
		{name: "instance field through type", sources: []string{"public class A { public int s = 1; }", "public class B { int m() { return A.s; } }"}, kind: diag.NameResolutionError},
		{name: "static field through instance", sources: []string{"public class A { public static int s = 1; }", "public class B { int m(A a) { return a.s; } }"}, kind: diag.NameResolutionError},
		{name: "field chain", sources: []string{"public class A { public A next; public int v; }", "public class B { int m(A a) { return a.next.next.v; } }"}, kind: success},
		{name: "static field chain", sources: []string{"public class A { public static A head; public int v; }", "public class B { int m() { return A.head.v; } }"}, kind: success},
		{name: "fully qualified static field", sources: []string{"package p.q; public class A { public static int s = 1; }", "public class B { int m() { return p.q.A.s; } }"}, kind: success},
		{name: "local in own initializer", sources: []string{"public class A { void m() { int a = a + 1; } }"}, kind: diag.NameResolutionError},
		{name: "array length", sources: []string{"public class A { int m(int[] a) { return a.length; } }"}, kind: success},
		{name: "array length not last", sources: []string{"public class A { int m(int[] a) { return a.length.x; } }"}, kind: diag.NameResolutionError},
		{name: "static method through type", sources: []string{"public class A { public static int s() { return 1; } }", "public class B { int m() { return A.s(); } }"}, kind: success},
		{name: "instance method through type", sources: []string{"public class A { public int s() { return 1; } }", "public class B { int m() { return A.s(); } }"}, kind: diag.TypeError},
		// Types.
		{name: "assign array length", sources: []string{"public class A { void m(int[] a) { a.length = 1; } }"}, kind: diag.TypeError},
		{name: "bad initializer", sources: []string{"public class A { int x = true; }"}, kind: diag.TypeError},
		{name: "narrowing initializer", sources: []string{"public class A { int i = 1; byte b = i; }"}, kind: diag.TypeError},
		{name: "widening initializer", sources: []string{"public class A { byte b = (byte) 1; int i = b; }"}, kind: success},
		{name: "int plus boolean", sources: []string{"public class A { int x = 1 + true; }"}, kind: diag.TypeError},
		{name: "concatenate void", sources: []string{"public class A { void v() { } String s = \"a\" + v(); }"}, kind: diag.TypeError},
		{name: "concatenate null", sources: []string{"public class A { String s = \"a\" + null; }"}, kind: success},
		{name: "condition not boolean", sources: []string{"public class A { void m() { if (1) { } } }"}, kind: diag.TypeError},
		{name: "logical on ints", sources: []string{"public class A { boolean b = 1 && 2; }"}, kind: diag.TypeError},
		{name: "negate boolean", sources: []string{"public class A { int x = -true; }"}, kind: diag.TypeError},
		{name: "not int", sources: []string{"public class A { boolean b = !1; }"}, kind: diag.TypeError},
		{name: "reference equality", sources: []string{"public class A { boolean m(A a, Object o) { return a == o && o != null; } }"}, kind: success},
		{name: "unrelated equality", sources: []string{"public class A { boolean m(A a, String s) { return a == s; } }"}, kind: diag.TypeError},
		{name: "missing return", sources: []string{"public class A { int m() { } }"}, kind: diag.TypeError},
		{name: "missing return after if", sources: []string{"public class A { int m(boolean b) { if (b) return 1; } }"}, kind: diag.TypeError},
		{name: "return in both branches", sources: []string{"public class A { int m(boolean b) { if (b) return 1; else return 2; } }"}, kind: success},
		{name: "unreachable code", sources: []string{"public class A { void m() { return; int a = 1; } }"}, kind: diag.TypeError},
		{name: "infinite loop", sources: []string{"public class A { int m() { while (true) { } } }"}, kind: success},
		{name: "code after infinite loop", sources: []string{"public class A { void m() { while (true) { } return; } }"}, kind: diag.TypeError},
		{name: "return value from void", sources: []string{"public class A { void m() { return 1; } }"}, kind: diag.TypeError},
		{name: "return without value", sources: []string{"public class A { int m() { return; } }"}, kind: diag.TypeError},
		{name: "this in static method", sources: []string{"public class A { static Object m() { return this; } }"}, kind: diag.TypeError},
		{name: "instantiate abstract", sources: []string{"public abstract class A { }", "public class B { void m() { new A(); } }"}, kind: diag.TypeError},
		{name: "instantiate interface", sources: []string{"public interface I { }", "public class B { void m() { new I(); } }"}, kind: diag.TypeError},
		{name: "no matching constructor", sources: []string{"public class A { public A(int x) { } }", "public class B { void m() { new A(); } }"}, kind: diag.TypeError},
		{name: "matching constructor", sources: []string{"public class A { public A(int x) { } }", "public class B { void m() { new A((byte) 1); } }"}, kind: success},
		{name: "most specific overload", sources: []string{"public class A { int f(Object o) { return 1; } int f(A a) { return 2; } int m() { return f(null); } }"}, kind: success},
		{name: "ambiguous overload", sources: []string{"public class A { int f(A a, Object b) { return 1; } int f(Object a, A b) { return 2; } int m() { return f(null, null); } }"}, kind: diag.TypeError},
		{name: "no such method", sources: []string{"public class A { int m() { return g(); } }"}, kind: diag.TypeError},
		{name: "integer out of range", sources: []string{"public class A { int x = 2147483648; }"}, kind: diag.TypeError},
		{name: "minimum integer", sources: []string{"public class A { int x = -2147483648; }"}, kind: success},
		{name: "cast primitive to reference", sources: []string{"public class A { Object o = (Object) 1; }"}, kind: diag.TypeError},
		{name: "downcast", sources: []string{"public class A { public int v; int m(Object o) { return ((A) o).v; } }"}, kind: success},
		{name: "instanceof primitive", sources: []string{"public class A { boolean b = 1 instanceof A; }"}, kind: diag.TypeError},
		{name: "instanceof", sources: []string{"public class A { boolean m(Object o) { return o instanceof A; } }"}, kind: success},
		{name: "array creation", sources: []string{"public class A { int m() { int[] a = new int[3]; a[0] = 2; return a[0] + a.length; } }"}, kind: success},
		{name: "array index not numeric", sources: []string{"public class A { int m(int[] a) { return a[true]; } }"}, kind: diag.TypeError},
		{name: "index non array", sources: []string{"public class A { int m(int a) { return a[0]; } }"}, kind: diag.TypeError},
		{name: "array to object", sources: []string{"public class A { Object m(int[] a) { return a; } }"}, kind: success},
		{name: "array method", sources: []string{"public class A { int m(int[] a) { return a.hashCode(); } }"}, kind: success},
		{name: "interface receiver", sources: []string{"public interface I { int m(); }", "public class A { int n(I i) { return i.m() + i.hashCode(); } }"}, kind: success},
		{name: "method on primitive", sources: []string{"public class A { int n(int i) { return i.m(); } }"}, kind: diag.TypeError},
	}
	for _, data := range testDatas {
		_, _, err := analyzeSources(t, data.sources...)
		if data.kind == success {
			assert.Nil(t, err, data.name)
			continue
		}
		if assert.NotNil(t, err, data.name) {
			kind, _ := diag.KindOf(err)
			assert.Equal(t, data.kind, kind, "%s: %v", data.name, err)
		}
	}
}

func TestAnalyze_ImplicitSuperclass(t *testing.T) {
	info, units, err := analyzeSources(t, "public class A { }", "public interface I { }")
	require.Nil(t, err)
	root := findType(units, "java.lang.Object")
	assert.Equal(t, root, info.Supers[findType(units, "A")])
	assert.Nil(t, info.Supers[root])
	assert.Nil(t, info.Supers[findType(units, "I")])
}

func TestAnalyze_ErrorLocation(t *testing.T) {
	_, _, err := analyzeSources(t, "public class A {\n int m() {\n return z;\n }\n}")
	require.NotNil(t, err)
	var located *diag.Error
	require.ErrorAs(t, err, &located)
	assert.Equal(t, "Unit2.java", located.File)
	assert.Equal(t, 3, located.Line)
}

func TestAnalyzeWith(t *testing.T) {
	var passes []string
	_, err := AnalyzeWith(parseUnits(t, "public class A { }"), DefaultOptions(), func(pass string) {
		passes = append(passes, pass)
	})
	require.Nil(t, err)
	assert.Equal(t, []string{"scope builder", "hierarchy linker", "name disambiguator", "type checker"}, passes)
}
