package codegen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
	"github.com/xiaobogaga/joosc/compiler/internal/semantic"
	"github.com/xiaobogaga/joosc/compiler/internal/syntax"
	"github.com/xiaobogaga/joosc/util"
)

var prelude = []string{
	"package java.lang; public class Object { public Object() { } public boolean equals(Object other) { return this == other; } public int hashCode() { return 0; } }",
	"package java.lang; public class String { public char[] chars; public String() { } public static String valueOf(int i) { return new String(); } public String concat(String s) { return s; } }",
}

func generateSources(t *testing.T, sources ...string) (*Program, *semantic.Info, []*ast.CompilationUnit, error) {
	parser := syntax.NewParser(&ast.Arena{})
	var units []*ast.CompilationUnit
	for i, source := range append(append([]string{}, prelude...), sources...) {
		unit, err := parser.ParseSource(fmt.Sprintf("Unit%d.java", i), source)
		require.Nil(t, err, source)
		units = append(units, unit)
	}
	info, err := semantic.Analyze(units, semantic.DefaultOptions())
	require.Nil(t, err)
	program, err := Generate(info, units, DefaultOptions())
	return program, info, units, err
}

func findType(units []*ast.CompilationUnit, name string) *ast.TypeDecl {
	for _, unit := range units {
		if unit.Type != nil && unit.Type.FullName() == name {
			return unit.Type
		}
	}
	return nil
}

func findUnit(program *Program, name string) *Unit {
	for _, unit := range program.Files() {
		if unit.Name == name {
			return unit
		}
	}
	return nil
}

func TestGenerate_OverrideSharesSlot(t *testing.T) {
	program, info, units, err := generateSources(t,
		"public class A { public A() { } public int get() { return 1; } public int other() { return 3; } }",
		"public class B extends A { public B() { } public int get() { return 2; } public int more() { return 4; } }",
	)
	require.Nil(t, err)
	a, b := findType(units, "A"), findType(units, "B")
	layout := program.Layout
	slotA, ok := layout.Slot(a, "get")
	require.True(t, ok)
	slotB, ok := layout.Slot(b, "get")
	require.True(t, ok)
	assert.Equal(t, slotA, slotB)

	vtableA, vtableB := layout.Vtable(a), layout.Vtable(b)
	require.True(t, len(vtableB) > len(vtableA))
	assert.Equal(t, a.Methods[1], vtableA[slotA])
	assert.Equal(t, b.Methods[1], vtableB[slotB])
	// Every slot of the superclass keeps its index in the subclass.
	for i, method := range vtableA {
		if method == a.Methods[1] {
			continue
		}
		assert.Equal(t, method, vtableB[i])
	}
	more, ok := layout.Slot(b, "more")
	require.True(t, ok)
	assert.True(t, more >= len(vtableA))

	unitB := findUnit(program, "B")
	require.NotNil(t, unitB)
	assert.Contains(t, unitB.String(), "global B$$vtable")
	assert.Contains(t, unitB.String(), "dd "+ImplLabel(info, b.Methods[1]))
}

func TestGenerate_InheritedFieldOverride(t *testing.T) {
	program, _, units, err := generateSources(t,
		"class A { int f = 1; int get() { return f; } }",
		"class B extends A { int get() { return f; } }",
	)
	require.Nil(t, err)
	slotA, okA := program.Layout.Slot(findType(units, "A"), "get")
	slotB, okB := program.Layout.Slot(findType(units, "B"), "get")
	require.True(t, okA && okB)
	assert.Equal(t, slotA, slotB)
	unitA := findUnit(program, "A").String()
	assert.Contains(t, unitA, "A.f$$init:")
	assert.Contains(t, unitA, "call A.f$$init")
}

func TestGenerate_Entry(t *testing.T) {
	program, info, units, err := generateSources(t,
		"public class Main { public Main() { } public static int test() { return 123; } }",
	)
	require.Nil(t, err)
	main := findType(units, "Main")
	require.NotNil(t, program.Entry)
	assert.Equal(t, main.Methods[1], program.Entry)

	var starts int
	for _, unit := range program.Files() {
		if unit.Defines(startLabel) {
			starts++
		}
	}
	assert.Equal(t, 1, starts)

	global := program.Global.String()
	call := strings.Index(global, "call "+ImplLabel(info, program.Entry))
	exit := strings.Index(global, "call __debexit")
	require.True(t, call >= 0)
	assert.True(t, exit > call)
	assert.Contains(t, global, "call Main$$static_init")
}

func TestGenerate_EntryMarkerName(t *testing.T) {
	program, _, _, err := generateSources(t, "public class Main { public Main() { } public static void test$$implementation() { return; } }")
	require.Nil(t, err)
	require.NotNil(t, program.Entry)
	assert.Equal(t, "test$$implementation", program.Entry.Name)
	assert.Equal(t, 1, strings.Count(program.Global.String(), startLabel+":"))
	assert.Equal(t, 1, strings.Count(program.Global.String(), "call __debexit"))
}

func TestGenerate_NoEntry(t *testing.T) {
	program, _, _, err := generateSources(t, "public class A { public A() { } public int get() { return 1; } }")
	require.Nil(t, err)
	assert.Nil(t, program.Entry)
	assert.False(t, program.Global.Defines(startLabel))
}

func TestGenerate_Errors(t *testing.T) {
	testDatas := []struct {
		name    string
		sources []string
	}{
		{
			name: "two entry methods",
			sources: []string{
				"public class A { public A() { } public static int test() { return 1; } }",
				"public class B { public B() { } public static int test() { return 2; } }",
			},
		},
		{
			name: "superclass without a parameterless constructor",
			sources: []string{
				"public class A { public A(int x) { } }",
				"public class B extends A { public B() { } }",
				"public class C { public C() { } public Object make() { return new B(); } }",
			},
		},
		{
			name:    "type name starting with a dollar",
			sources: []string{"public class $A { public $A() { } public int get() { return 1; } }"},
		},
	}
	for _, testData := range testDatas {
		_, _, _, err := generateSources(t, testData.sources...)
		assert.True(t, diag.Is(err, diag.CodeGenError), testData.name)
	}
}

func TestGenerate_LabelsAreValid(t *testing.T) {
	program, _, _, err := generateSources(t,
		"package p; public interface I { int run(int[] xs); }",
		"package p; public class Impl implements I { public Impl() { } public int run(int[] xs) { int s = 0; for (int i = 0; i < xs.length; i = i + 1) { s = s + xs[i]; } return s; } }",
		"package p; public class Main { public static int counter = 7; public Main() { } "+
			"public static int test() { I i = new Impl(); int[] xs = new int[3]; xs[0] = 1; String s = \"n=\" + counter; "+
			"if (i instanceof Impl && s != null) { return i.run(xs); } else { return ((Impl) i).run(xs); } } }",
	)
	require.Nil(t, err)
	for _, unit := range program.Files() {
		for _, label := range append(unit.Globals(), unit.Externs()...) {
			assert.True(t, util.IsValidLabel(label), label)
		}
	}
	main := findUnit(program, "p~Main")
	require.NotNil(t, main)
	text := main.String()
	assert.Contains(t, text, "global p~Main.counter")
	assert.Contains(t, text, "p~Main$$string0")
	assert.Contains(t, text, "call __concat")
	assert.Contains(t, text, "call __instanceof")
	assert.Contains(t, text, "extern __exception")
	assert.Contains(t, text, "extern ?I$$vtable")
	assert.Contains(t, program.Global.String(), "global ?I$$vtable")
	assert.Contains(t, program.Global.String(), "global "+subtypeTableLabel)
}

func TestLayout_FieldOffsets(t *testing.T) {
	program, _, units, err := generateSources(t,
		"public class A { public int x; public static int s; public int y; public A() { } }",
		"public class B extends A { public int z; public B() { } }",
	)
	require.Nil(t, err)
	a, b := findType(units, "A"), findType(units, "B")
	layout := program.Layout
	assert.Equal(t, 8, layout.FieldOffset(a.Fields[0]))
	assert.Equal(t, 12, layout.FieldOffset(a.Fields[2]))
	assert.Equal(t, 16, layout.FieldOffset(b.Fields[0]))
	assert.Equal(t, 16, layout.ObjectSize(a))
	assert.Equal(t, 20, layout.ObjectSize(b))
}

func TestLayout_SubtypeTable(t *testing.T) {
	program, info, units, err := generateSources(t,
		"public interface I { }",
		"public class A implements I { public A() { } }",
	)
	require.Nil(t, err)
	layout := program.Layout
	i := layout.TypeID(semantic.ClassType{Decl: findType(units, "I")})
	a := layout.TypeID(semantic.ClassType{Decl: findType(units, "A")})
	object := layout.TypeID(semantic.ClassType{Decl: info.RootObject()})
	table := layout.SubtypeTable()
	assert.True(t, table[i][a])
	assert.False(t, table[a][i])
	assert.True(t, table[object][a])
	assert.True(t, table[a][a])
}

func TestWriteProgram(t *testing.T) {
	program, _, _, err := generateSources(t, "public class Main { public Main() { } public static int test() { return 1; } }")
	require.Nil(t, err)
	dir := t.TempDir()
	paths, err := WriteProgram(dir, program)
	require.Nil(t, err)
	assert.Len(t, paths, len(program.Units)+1)
	data, err := os.ReadFile(filepath.Join(dir, GlobalUnitName+AssemblyExt))
	require.Nil(t, err)
	assert.Contains(t, string(data), "global _start")
}

func TestGenerate_NativeMethod(t *testing.T) {
	program, info, units, err := generateSources(t,
		"public class Out { public Out() { } public static native int nativeWrite(int b); }",
		"public class Main { public Main() { } public static int test() { return Out.nativeWrite(65); } }",
	)
	require.Nil(t, err)
	write := findType(units, "Out").Methods[1]
	label := ImplLabel(info, write)
	assert.Equal(t, "NATIVE"+MethodSig(info, write), label)
	assert.True(t, util.IsValidLabel(label))

	out := findUnit(program, "Out").String()
	assert.Contains(t, out, "extern "+label)
	assert.Contains(t, out, "dd "+label)
	assert.NotContains(t, out, MethodSig(info, write)+implementationSuffix)
	main := findUnit(program, "Main").String()
	assert.Contains(t, main, "extern "+label)
	assert.Contains(t, main, "call "+label)
}

func TestGenerate_StringLiteralData(t *testing.T) {
	program, _, _, err := generateSources(t,
		"public class Main { public Main() { } public static String test() { return \"hi\"; } }",
	)
	require.Nil(t, err)
	text := findUnit(program, "Main").String()
	// One word per char, the element width of every array.
	assert.Contains(t, text, "Main$$string0$$chars:\n\tdd ?C$$vtable\n\tdd 2\n\tdd 104, 105\n")
	assert.Contains(t, text, "Main$$string0:\n\tdd java~lang~String$$vtable\n")
}
