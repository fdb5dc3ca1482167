package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaobogaga/joosc/compiler/internal/config"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
	"github.com/xiaobogaga/joosc/compiler/internal/symdb"
)

var stdlib = map[string]string{
	"Object.java": "package java.lang; public class Object { public Object() { } public boolean equals(Object other) { return this == other; } public int hashCode() { return 0; } }",
	"String.java": "package java.lang; public class String { public char[] chars; public String() { } public static String valueOf(int i) { return new String(); } }",
}

func writeSources(t *testing.T, sources map[string]string) string {
	dir := t.TempDir()
	for name, source := range sources {
		require.Nil(t, os.WriteFile(filepath.Join(dir, name), []byte(source), 0o644))
	}
	return dir
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "output")
	return cfg
}

func TestCompile(t *testing.T) {
	lib := writeSources(t, stdlib)
	src := writeSources(t, map[string]string{
		"A.java":    "public class A { public A() { } public int get() { return 1; } }",
		"B.java":    "public class B extends A { public B() { } public int get() { return 2; } }",
		"Main.java": "public class Main { public Main() { } public static int test() { A a = new B(); return a.get(); } }",
	})
	cfg := testConfig(t)
	cfg.SymbolsDB = filepath.Join(t.TempDir(), "symbols.db")

	result, err := Compile(context.Background(), cfg, []string{lib, src})
	require.Nil(t, err)
	assert.NotEmpty(t, result.BuildID)
	assert.Len(t, result.Files, 6)
	assert.NotNil(t, result.Program.Entry)

	global, err := os.ReadFile(filepath.Join(cfg.OutputDir, "__global.s"))
	require.Nil(t, err)
	assert.Equal(t, 1, strings.Count(string(global), "_start:"))
	main, err := os.ReadFile(filepath.Join(cfg.OutputDir, "Main.s"))
	require.Nil(t, err)
	assert.Contains(t, string(main), "Main#test$$implementation:")

	methods, err := symdb.Methods(context.Background(), cfg.SymbolsDB, result.BuildID)
	require.Nil(t, err)
	assert.NotEmpty(t, methods)
}

func TestCompile_Errors(t *testing.T) {
	testDatas := []struct {
		name    string
		sources map[string]string
		kind    diag.Kind
	}{
		{name: "syntax", sources: map[string]string{"A.java": "public class A { int x = ; }"}, kind: diag.SyntaxError},
		{name: "structural", sources: map[string]string{"A.java": "public class A extends A { }"}, kind: diag.StructuralError},
		{name: "name", sources: map[string]string{"A.java": "public class A { public A() { } int m() { return y; } }"}, kind: diag.NameResolutionError},
		{name: "type", sources: map[string]string{"A.java": "public class A { public A() { } int m() { return true; } }"}, kind: diag.TypeError},
	}
	lib := writeSources(t, stdlib)
	for _, testData := range testDatas {
		src := writeSources(t, testData.sources)
		_, err := Compile(context.Background(), testConfig(t), []string{lib, src})
		assert.True(t, diag.Is(err, testData.kind), "%s: %v", testData.name, err)
	}
}

func TestCompile_MissingPath(t *testing.T) {
	_, err := Compile(context.Background(), testConfig(t), []string{filepath.Join(t.TempDir(), "missing")})
	assert.True(t, diag.Is(err, diag.ReadError))
}
