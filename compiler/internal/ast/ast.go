package ast

import "strings"

// NodeID identifies a node inside one compilation. Every side table built by the semantic passes and the
// code generator is keyed by it.
type NodeID int

// Arena hands out node ids. One arena is shared by all compilation units of a compilation so ids never clash.
type Arena struct {
	next NodeID
}

func (arena *Arena) NewID() NodeID {
	arena.next++
	return arena.next
}

// Meta is embedded by every node.
type Meta struct {
	ID   NodeID
	Line int
}

func (meta *Meta) Base() *Meta {
	return meta
}

type Node interface {
	Base() *Meta
}

// Decl is a declaration a name can resolve to: *TypeDecl, *FieldDecl, *MethodDecl or *VarDecl.
type Decl interface {
	Node
	declNode()
}

type Modifiers uint8

const (
	Public Modifiers = 1 << iota
	Protected
	Static
	Abstract
	Final
	Native
)

func (mods Modifiers) Has(m Modifiers) bool {
	return mods&m != 0
}

func (mods Modifiers) String() string {
	var names []string
	for _, m := range []struct {
		mod  Modifiers
		name string
	}{{Public, "public"}, {Protected, "protected"}, {Static, "static"}, {Abstract, "abstract"}, {Final, "final"}, {Native, "native"}} {
		if mods.Has(m.mod) {
			names = append(names, m.name)
		}
	}
	return strings.Join(names, " ")
}

type CompilationUnit struct {
	Meta
	File    string
	Package Name // nil for the default package.
	Imports []*ImportDecl
	Type    *TypeDecl // nil when the unit declares no type.
}

func (cu *CompilationUnit) PackageName() string {
	if cu.Package == nil {
		return ""
	}
	return cu.Package.FullName()
}

type ImportDecl struct {
	Meta
	Name     Name
	OnDemand bool
}

type TypeDecl struct {
	Meta
	Modifiers   Modifiers
	Name        string
	Package     string
	IsInterface bool
	SuperClass  Type
	Interfaces  []Type
	Fields      []*FieldDecl
	Methods     []*MethodDecl // methods and constructors in source order.
	File        string
}

func (decl *TypeDecl) FullName() string {
	if decl.Package == "" {
		return decl.Name
	}
	return decl.Package + "." + decl.Name
}

func (decl *TypeDecl) String() string {
	kind := "class"
	if decl.IsInterface {
		kind = "interface"
	}
	return kind + " " + decl.FullName()
}

type FieldDecl struct {
	Meta
	Modifiers Modifiers
	Type      Type
	Name      string
	Init      Expr
	Owner     *TypeDecl
}

func (decl *FieldDecl) IsStatic() bool {
	return decl.Modifiers.Has(Static)
}

func (decl *FieldDecl) String() string {
	return "field " + decl.Owner.FullName() + "." + decl.Name
}

type MethodDecl struct {
	Meta
	Modifiers     Modifiers
	ReturnType    Type // nil for constructors.
	Name          string
	Params        []*VarDecl
	Body          *Block // nil for abstract and native methods.
	IsConstructor bool
	Owner         *TypeDecl
}

func (decl *MethodDecl) IsStatic() bool {
	return decl.Modifiers.Has(Static)
}

func (decl *MethodDecl) IsAbstract() bool {
	return decl.Modifiers.Has(Abstract) || (decl.Owner != nil && decl.Owner.IsInterface)
}

func (decl *MethodDecl) String() string {
	var params []string
	for _, param := range decl.Params {
		params = append(params, param.Type.String())
	}
	name := decl.Name
	if decl.IsConstructor {
		name = "<init>"
	}
	return "method " + decl.Owner.FullName() + "." + name + "(" + strings.Join(params, ", ") + ")"
}

// VarDecl is a local variable or a parameter.
type VarDecl struct {
	Meta
	Type Type
	Name string
	Init Expr
}

func (decl *VarDecl) String() string {
	return "variable " + decl.Name
}

func (*TypeDecl) declNode()   {}
func (*FieldDecl) declNode()  {}
func (*MethodDecl) declNode() {}
func (*VarDecl) declNode()    {}
