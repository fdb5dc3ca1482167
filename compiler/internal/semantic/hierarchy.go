package semantic

import (
	"sort"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
)

type hierarchyLinker struct {
	info       *Info
	visited    map[*ast.TypeDecl]bool
	inProgress map[*ast.TypeDecl]bool
}

// LinkHierarchy fills the inherited scope of every type. Supertypes are linked before their subtypes and
// every type is linked exactly once, however many paths reach it.
func LinkHierarchy(info *Info) error {
	linker := &hierarchyLinker{info: info, visited: map[*ast.TypeDecl]bool{}, inProgress: map[*ast.TypeDecl]bool{}}
	for _, decl := range info.Global.Types() {
		if err := linker.link(decl); err != nil {
			return err
		}
	}
	return nil
}

// parents returns the superinterfaces of decl followed by its superclass. Later parents win when merging.
func (linker *hierarchyLinker) parents(decl *ast.TypeDecl) []*ast.TypeDecl {
	parents := append([]*ast.TypeDecl{}, linker.info.SuperInterfaces[decl]...)
	if super := linker.info.Supers[decl]; super != nil {
		parents = append(parents, super)
	}
	return parents
}

func (linker *hierarchyLinker) link(decl *ast.TypeDecl) error {
	if linker.visited[decl] {
		return nil
	}
	if linker.inProgress[decl] {
		return makeStructuralError(decl, "cyclic hierarchy involving %s", decl.FullName())
	}
	linker.inProgress[decl] = true
	parents := linker.parents(decl)
	for _, parent := range parents {
		if err := linker.link(parent); err != nil {
			return err
		}
	}
	inherit := linker.info.InheritEnv(decl)
	for _, parent := range parents {
		if err := linker.merge(decl, inherit, linker.info.InheritEnv(parent)); err != nil {
			return err
		}
		if err := linker.merge(decl, inherit, linker.info.ClassEnv(parent)); err != nil {
			return err
		}
	}
	if err := linker.checkOverrides(decl); err != nil {
		return err
	}
	if err := linker.checkAbstract(decl); err != nil {
		return err
	}
	delete(linker.inProgress, decl)
	linker.visited[decl] = true
	return nil
}

// merge copies the fields and methods of from into the inherited scope of decl.
func (linker *hierarchyLinker) merge(decl *ast.TypeDecl, inherit, from *Environment) error {
	for name, field := range from.Fields {
		inherit.Fields[name] = field
	}
	for _, key := range sortedKeys(from.Methods) {
		method := from.Methods[key]
		if existing, ok := inherit.Methods[key]; ok && existing != method {
			if !sameType(linker.info.Resolve(existing.ReturnType), linker.info.Resolve(method.ReturnType)) {
				return makeStructuralError(decl, "%s inherits %s and %s with different return types", decl.FullName(), existing, method)
			}
			if existing.IsStatic() != method.IsStatic() {
				return makeStructuralError(decl, "%s inherits static and instance versions of %s", decl.FullName(), method)
			}
		}
		inherit.Methods[key] = method
	}
	return nil
}

// checkOverrides validates every declared method of decl against the inherited one with the same key.
func (linker *hierarchyLinker) checkOverrides(decl *ast.TypeDecl) error {
	classEnv, inherit := linker.info.ClassEnv(decl), linker.info.InheritEnv(decl)
	for _, key := range sortedKeys(classEnv.Methods) {
		method := classEnv.Methods[key]
		inherited, ok := inherit.Methods[key]
		if !ok {
			continue
		}
		switch {
		case !sameType(linker.info.Resolve(method.ReturnType), linker.info.Resolve(inherited.ReturnType)):
			return makeStructuralError(method, "%s overrides %s with a different return type", method, inherited)
		case method.IsStatic() && !inherited.IsStatic():
			return makeStructuralError(method, "static %s cannot hide instance %s", method, inherited)
		case !method.IsStatic() && inherited.IsStatic():
			return makeStructuralError(method, "instance %s cannot override static %s", method, inherited)
		case inherited.Modifiers.Has(ast.Final):
			return makeStructuralError(method, "%s cannot override final %s", method, inherited)
		case method.Modifiers.Has(ast.Protected) && isPublic(inherited):
			return makeStructuralError(method, "protected %s cannot override public %s", method, inherited)
		}
	}
	return nil
}

// isPublic treats interface methods as public whatever their modifiers say.
func isPublic(method *ast.MethodDecl) bool {
	return method.Modifiers.Has(ast.Public) || method.Owner.IsInterface
}

// checkAbstract rejects a concrete class that leaves an abstract method unimplemented.
func (linker *hierarchyLinker) checkAbstract(decl *ast.TypeDecl) error {
	if decl.IsInterface || decl.Modifiers.Has(ast.Abstract) {
		return nil
	}
	methods := linker.info.ClassEnv(decl).VisibleMethods()
	for _, key := range sortedKeys(methods) {
		if methods[key].IsAbstract() {
			return makeStructuralError(decl, "%s must be declared abstract, it does not implement %s", decl.FullName(), methods[key])
		}
	}
	return nil
}

// sameType compares two resolved types. A nil type stands for a constructor's missing return type.
func sameType(a, b Type) bool {
	return a == b
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
