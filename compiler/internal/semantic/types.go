package semantic

import "github.com/xiaobogaga/joosc/compiler/internal/ast"

// Type is the resolved type of an expression or declaration. Types are values and compare with ==.
type Type interface {
	String() string
	isType()
}

type PrimitiveType struct {
	Kind ast.PrimitiveKind
}

type ClassType struct {
	Decl *ast.TypeDecl
}

type ArrayType struct {
	Elem Type
}

// NullType is the type of the null literal.
type NullType struct{}

func (t PrimitiveType) String() string { return t.Kind.String() }
func (t ClassType) String() string     { return t.Decl.FullName() }
func (t ArrayType) String() string     { return t.Elem.String() + "[]" }
func (NullType) String() string        { return "null" }

func (PrimitiveType) isType() {}
func (ClassType) isType()     {}
func (ArrayType) isType()     {}
func (NullType) isType()      {}

var (
	BooleanType = PrimitiveType{Kind: ast.Boolean}
	ByteType    = PrimitiveType{Kind: ast.Byte}
	CharType    = PrimitiveType{Kind: ast.Char}
	ShortType   = PrimitiveType{Kind: ast.Short}
	IntType     = PrimitiveType{Kind: ast.Int}
	VoidType    = PrimitiveType{Kind: ast.Void}
	Null        = NullType{}
)

func IsNumeric(t Type) bool {
	primitive, ok := t.(PrimitiveType)
	return ok && primitive.Kind.IsNumeric()
}

func IsReference(t Type) bool {
	switch t.(type) {
	case ClassType, ArrayType:
		return true
	}
	return false
}

func IsVoid(t Type) bool {
	return t == VoidType
}
