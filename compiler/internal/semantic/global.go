package semantic

import (
	"strings"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
)

// GlobalIndex maps fully qualified names to type declarations and packages to their types. It is built once
// before any pass runs and is read only afterwards.
type GlobalIndex struct {
	types    map[string]*ast.TypeDecl
	packages map[string][]string
	order    []*ast.TypeDecl
}

// BuildGlobal indexes every type declared by units. Two units declaring the same type, and a package whose
// name equals or lies under a type's name, are errors.
func BuildGlobal(units []*ast.CompilationUnit) (*GlobalIndex, error) {
	global := &GlobalIndex{types: map[string]*ast.TypeDecl{}, packages: map[string][]string{}}
	for _, unit := range units {
		pkg := unit.PackageName()
		if _, ok := global.packages[pkg]; !ok {
			global.packages[pkg] = nil
		}
		decl := unit.Type
		if decl == nil {
			continue
		}
		fullName := decl.FullName()
		if _, ok := global.types[fullName]; ok {
			return nil, makeStructuralError(decl, "duplicate type %s", fullName)
		}
		global.types[fullName] = decl
		global.packages[pkg] = append(global.packages[pkg], fullName)
		global.order = append(global.order, decl)
	}
	for pkg := range global.packages {
		if pkg == "" {
			continue
		}
		for fullName, decl := range global.types {
			if pkg == fullName || strings.HasPrefix(pkg, fullName+".") {
				return nil, makeStructuralError(decl, "package %s collides with type %s", pkg, fullName)
			}
		}
	}
	return global, nil
}

func (global *GlobalIndex) LookUp(fullName string) *ast.TypeDecl {
	return global.types[fullName]
}

// HasPackage reports whether pkg is a declared package or a prefix of one.
func (global *GlobalIndex) HasPackage(pkg string) bool {
	if _, ok := global.packages[pkg]; ok {
		return true
	}
	for name := range global.packages {
		if strings.HasPrefix(name, pkg+".") {
			return true
		}
	}
	return false
}

// Package returns the types declared directly in pkg, in declaration order.
func (global *GlobalIndex) Package(pkg string) []*ast.TypeDecl {
	var decls []*ast.TypeDecl
	for _, fullName := range global.packages[pkg] {
		decls = append(decls, global.types[fullName])
	}
	return decls
}

// Types returns every indexed type in the order the compilation units were given.
func (global *GlobalIndex) Types() []*ast.TypeDecl {
	return global.order
}
