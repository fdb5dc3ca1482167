package semantic

import (
	"errors"
	"sort"
	"strings"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
)

type EnvKind int

const (
	CompilationUnitEnv EnvKind = iota
	InheritEnv
	ClassEnv
	BlockEnv
)

var envKindNames = map[EnvKind]string{
	CompilationUnitEnv: "compilation unit",
	InheritEnv:         "inherit",
	ClassEnv:           "class",
	BlockEnv:           "block",
}

func (kind EnvKind) String() string {
	return envKindNames[kind]
}

// Environment is one scope of the scope chain. Lookups walk outward through Enclosing. Keys are unique within
// one scope only.
type Environment struct {
	Kind      EnvKind
	Enclosing *Environment
	// Owner is the type declaration of class and inherit scopes.
	Owner *ast.TypeDecl

	Variables    map[string]*ast.VarDecl
	Fields       map[string]*ast.FieldDecl
	Methods      map[string]*ast.MethodDecl // keyed by MethodKey.
	Constructors map[string]*ast.MethodDecl // keyed by MethodKey.

	// Compilation unit scopes only. Type maps are keyed by simple name.
	Global          *GlobalIndex
	Types           map[string]*ast.TypeDecl
	SamePackage     map[string]*ast.TypeDecl
	SingleImports   map[string]*ast.TypeDecl
	OnDemandImports map[string][]*ast.TypeDecl
}

func newEnvironment(kind EnvKind, enclosing *Environment, owner *ast.TypeDecl) *Environment {
	return &Environment{
		Kind:            kind,
		Enclosing:       enclosing,
		Owner:           owner,
		Variables:       map[string]*ast.VarDecl{},
		Fields:          map[string]*ast.FieldDecl{},
		Methods:         map[string]*ast.MethodDecl{},
		Constructors:    map[string]*ast.MethodDecl{},
		Types:           map[string]*ast.TypeDecl{},
		SamePackage:     map[string]*ast.TypeDecl{},
		SingleImports:   map[string]*ast.TypeDecl{},
		OnDemandImports: map[string][]*ast.TypeDecl{},
	}
}

func (env *Environment) AddVariable(decl *ast.VarDecl) error {
	if _, ok := env.Variables[decl.Name]; ok {
		return makeStructuralError(decl, "duplicate variable %s", decl.Name)
	}
	env.Variables[decl.Name] = decl
	return nil
}

func (env *Environment) AddField(decl *ast.FieldDecl) error {
	if _, ok := env.Fields[decl.Name]; ok {
		return makeStructuralError(decl, "duplicate field %s in %s", decl.Name, decl.Owner.FullName())
	}
	env.Fields[decl.Name] = decl
	return nil
}

func (env *Environment) AddMethod(key string, decl *ast.MethodDecl) error {
	if _, ok := env.Methods[key]; ok {
		return makeStructuralError(decl, "duplicate %s", decl)
	}
	env.Methods[key] = decl
	return nil
}

func (env *Environment) AddConstructor(key string, decl *ast.MethodDecl) error {
	if _, ok := env.Constructors[key]; ok {
		return makeStructuralError(decl, "duplicate constructor %s", decl)
	}
	env.Constructors[key] = decl
	return nil
}

func (env *Environment) AddType(decl *ast.TypeDecl) error {
	if _, ok := env.Types[decl.Name]; ok {
		return makeStructuralError(decl, "duplicate type %s", decl.Name)
	}
	env.Types[decl.Name] = decl
	return nil
}

func (env *Environment) LookUpVariable(name string) *ast.VarDecl {
	for e := env; e != nil; e = e.Enclosing {
		if decl, ok := e.Variables[name]; ok {
			return decl
		}
	}
	return nil
}

// LookUpField finds a field declared in, or inherited by, the enclosing type.
func (env *Environment) LookUpField(name string) *ast.FieldDecl {
	for e := env; e != nil; e = e.Enclosing {
		if decl, ok := e.Fields[name]; ok {
			return decl
		}
	}
	return nil
}

func (env *Environment) LookUpMethod(key string) *ast.MethodDecl {
	for e := env; e != nil; e = e.Enclosing {
		if decl, ok := e.Methods[key]; ok {
			return decl
		}
	}
	return nil
}

// LookUpType resolves a simple or fully qualified type name. It returns nil when the name denotes no type and
// an error when a simple name is provided by several on-demand imports.
func (env *Environment) LookUpType(name string) (*ast.TypeDecl, error) {
	unit := env.CompilationUnit()
	if unit == nil {
		return nil, nil
	}
	if strings.Contains(name, ".") {
		return unit.Global.LookUp(name), nil
	}
	if decl, ok := unit.Types[name]; ok {
		return decl, nil
	}
	if decl, ok := unit.SingleImports[name]; ok {
		return decl, nil
	}
	if decl, ok := unit.SamePackage[name]; ok {
		return decl, nil
	}
	candidates := unit.OnDemandImports[name]
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	}
	var names []string
	for _, candidate := range candidates {
		names = append(names, candidate.FullName())
	}
	sort.Strings(names)
	return nil, diag.Structural("type %s is ambiguous: %s", name, strings.Join(names, ", "))
}

// LookUpName resolves a simple name the way an expression sees it: variables shadow fields, fields shadow types.
func (env *Environment) LookUpName(name string) ast.Decl {
	if decl := env.LookUpVariable(name); decl != nil {
		return decl
	}
	if decl := env.LookUpField(name); decl != nil {
		return decl
	}
	if decl, _ := env.LookUpType(name); decl != nil {
		return decl
	}
	return nil
}

func (env *Environment) CompilationUnit() *Environment {
	for e := env; e != nil; e = e.Enclosing {
		if e.Kind == CompilationUnitEnv {
			return e
		}
	}
	return nil
}

// VisibleMethods returns the methods of a class scope merged with its inherited scope. Declared methods hide
// inherited ones with the same key.
func (env *Environment) VisibleMethods() map[string]*ast.MethodDecl {
	methods := map[string]*ast.MethodDecl{}
	if env.Enclosing != nil && env.Enclosing.Kind == InheritEnv {
		for key, decl := range env.Enclosing.Methods {
			methods[key] = decl
		}
	}
	for key, decl := range env.Methods {
		methods[key] = decl
	}
	return methods
}

// SymbolTable is the cursor over the scope chain used while scopes are built.
type SymbolTable struct {
	current *Environment
}

func (table *SymbolTable) OpenScope(kind EnvKind, owner *ast.TypeDecl) *Environment {
	table.current = newEnvironment(kind, table.current, owner)
	return table.current
}

func (table *SymbolTable) CloseScope() {
	table.current = table.current.Enclosing
}

func (table *SymbolTable) Current() *Environment {
	return table.current
}

func makeStructuralError(node ast.Node, format string, args ...interface{}) error {
	return diag.Structural(format, args...).At(fileOf(node), node.Base().Line)
}

func fileOf(node ast.Node) string {
	switch n := node.(type) {
	case *ast.TypeDecl:
		return n.File
	case *ast.FieldDecl:
		return n.Owner.File
	case *ast.MethodDecl:
		return n.Owner.File
	}
	return ""
}

// locateError fills in the position of node on a compile error that has none.
func locateError(err error, file string, node ast.Node) error {
	var e *diag.Error
	if errors.As(err, &e) {
		return e.At(file, node.Base().Line)
	}
	return err
}
