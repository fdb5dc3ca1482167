package semantic

import (
	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
)

// SideTable maps nodes to what a pass learned about them. A value is attached at most once: attaching a
// different value to the same node is an error, attaching the same value again is a no-op.
type SideTable[V comparable] struct {
	name   string
	kind   diag.Kind
	values map[ast.NodeID]V
}

func newSideTable[V comparable](name string, kind diag.Kind) *SideTable[V] {
	return &SideTable[V]{name: name, kind: kind, values: map[ast.NodeID]V{}}
}

func (table *SideTable[V]) Attach(node ast.Node, value V) error {
	id := node.Base().ID
	if old, ok := table.values[id]; ok && old != value {
		return diag.New(table.kind, "%s of node %d is already attached", table.name, id).At("", node.Base().Line)
	}
	table.values[id] = value
	return nil
}

func (table *SideTable[V]) Get(node ast.Node) (V, bool) {
	value, ok := table.values[node.Base().ID]
	return value, ok
}

func (table *SideTable[V]) Len() int {
	return len(table.values)
}

// Options carries the names of the types the language treats specially.
type Options struct {
	RootPackage string
	RootObject  string
	StringType  string
}

func DefaultOptions() Options {
	return Options{RootPackage: "java.lang", RootObject: "java.lang.Object", StringType: "java.lang.String"}
}

// Info is everything the semantic passes attach to a forest of compilation units.
type Info struct {
	Options Options
	Global  *GlobalIndex

	// Scopes holds the environment opened for compilation units, type declarations (their class scope),
	// methods (their parameter scope), blocks, local variable statements and for statements.
	Scopes *SideTable[*Environment]
	// Links holds the declaration of every SimpleType node.
	Links *SideTable[*ast.TypeDecl]
	// Decls holds the declaration a name, field access, method invocation or instance creation denotes.
	Decls *SideTable[ast.Decl]
	// Types holds the type of every expression.
	Types *SideTable[Type]
	// ArrayLength marks names and field accesses denoting the length of an array.
	ArrayLength map[ast.NodeID]bool

	Supers          map[*ast.TypeDecl]*ast.TypeDecl
	SuperInterfaces map[*ast.TypeDecl][]*ast.TypeDecl
}

func NewInfo(global *GlobalIndex, options Options) *Info {
	return &Info{
		Options:         options,
		Global:          global,
		Scopes:          newSideTable[*Environment]("scope", diag.StructuralError),
		Links:           newSideTable[*ast.TypeDecl]("type link", diag.StructuralError),
		Decls:           newSideTable[ast.Decl]("declaration", diag.NameResolutionError),
		Types:           newSideTable[Type]("type", diag.TypeError),
		ArrayLength:     map[ast.NodeID]bool{},
		Supers:          map[*ast.TypeDecl]*ast.TypeDecl{},
		SuperInterfaces: map[*ast.TypeDecl][]*ast.TypeDecl{},
	}
}

// ClassEnv returns the class scope of decl. Its enclosing scope is the inherited scope.
func (info *Info) ClassEnv(decl *ast.TypeDecl) *Environment {
	env, _ := info.Scopes.Get(decl)
	return env
}

func (info *Info) InheritEnv(decl *ast.TypeDecl) *Environment {
	if env := info.ClassEnv(decl); env != nil {
		return env.Enclosing
	}
	return nil
}

func (info *Info) RootObject() *ast.TypeDecl {
	return info.Global.LookUp(info.Options.RootObject)
}

func (info *Info) StringDecl() *ast.TypeDecl {
	return info.Global.LookUp(info.Options.StringType)
}

// Resolve turns a linked type node into a Type.
func (info *Info) Resolve(tp ast.Type) Type {
	switch t := tp.(type) {
	case *ast.PrimitiveType:
		return PrimitiveType{Kind: t.Kind}
	case *ast.SimpleType:
		decl, _ := info.Links.Get(t)
		return ClassType{Decl: decl}
	case *ast.ArrayType:
		return ArrayType{Elem: info.Resolve(t.Elem)}
	}
	return nil
}

// TypeOf returns the type attached to an expression by the type checker.
func (info *Info) TypeOf(expr ast.Expr) Type {
	t, _ := info.Types.Get(expr)
	return t
}

// DeclOf returns the declaration attached to a node, nil when there is none.
func (info *Info) DeclOf(node ast.Node) ast.Decl {
	decl, _ := info.Decls.Get(node)
	return decl
}
