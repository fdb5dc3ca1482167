package ast

import "strings"

type Type interface {
	Node
	String() string
	typeNode()
}

type PrimitiveKind int

const (
	Boolean PrimitiveKind = iota
	Byte
	Char
	Short
	Int
	Void
)

var primitiveNames = map[PrimitiveKind]string{
	Boolean: "boolean",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Void:    "void",
}

func (kind PrimitiveKind) String() string {
	return primitiveNames[kind]
}

func (kind PrimitiveKind) IsNumeric() bool {
	return kind == Byte || kind == Char || kind == Short || kind == Int
}

type PrimitiveType struct {
	Meta
	Kind PrimitiveKind
}

// SimpleType is a reference to a class or interface by (possibly qualified) name. The declaration it denotes
// is linked by the scope builder.
type SimpleType struct {
	Meta
	Name Name
}

type ArrayType struct {
	Meta
	Elem Type
}

func (t *PrimitiveType) String() string { return t.Kind.String() }
func (t *SimpleType) String() string    { return t.Name.FullName() }
func (t *ArrayType) String() string     { return t.Elem.String() + "[]" }

func (*PrimitiveType) typeNode() {}
func (*SimpleType) typeNode()    {}
func (*ArrayType) typeNode()     {}

// Name is either a SimpleName or a QualifiedName. Names are expressions as well.
type Name interface {
	Expr
	FullName() string
	Parts() []string
}

type SimpleName struct {
	Meta
	Ident string
}

func (name *SimpleName) FullName() string { return name.Ident }
func (name *SimpleName) Parts() []string  { return []string{name.Ident} }

type QualifiedName struct {
	Meta
	Qualifier Name
	Ident     string
	parts     []string
	full      string
}

func NewQualifiedName(meta Meta, qualifier Name, ident string) *QualifiedName {
	parts := append(append([]string{}, qualifier.Parts()...), ident)
	return &QualifiedName{
		Meta:      meta,
		Qualifier: qualifier,
		Ident:     ident,
		parts:     parts,
		full:      strings.Join(parts, "."),
	}
}

func (name *QualifiedName) FullName() string { return name.full }
func (name *QualifiedName) Parts() []string  { return name.parts }

// LastIdent returns the trailing identifier of a name.
func LastIdent(name Name) string {
	parts := name.Parts()
	return parts[len(parts)-1]
}
