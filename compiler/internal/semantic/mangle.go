package semantic

import (
	"strings"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
)

// Mangled names only use characters that are legal in assembler labels. Characters that cannot appear in a
// source identifier separate the parts, so distinct declarations never share a name.
const (
	// ConstructorMarker replaces the method name of constructors.
	ConstructorMarker = "@init"
	// ParamSeparator precedes every parameter type.
	ParamSeparator = "@"
	// PackageSeparator replaces '.' in qualified type names.
	PackageSeparator = "~"
	// ArrayMarker prefixes the element type of an array type.
	ArrayMarker = "?"
)

var primitiveSigs = map[ast.PrimitiveKind]string{
	ast.Boolean: "Z",
	ast.Byte:    "B",
	ast.Char:    "C",
	ast.Short:   "S",
	ast.Int:     "I",
	ast.Void:    "V",
}

// ClassSig is the mangled name of a class or interface.
func ClassSig(decl *ast.TypeDecl) string {
	return strings.ReplaceAll(decl.FullName(), ".", PackageSeparator)
}

// TypeSig is the mangled name of a type used as a parameter type. Class types carry a leading separator so a
// class named like a primitive code never collides with it.
func TypeSig(t Type) string {
	switch tp := t.(type) {
	case PrimitiveType:
		return primitiveSigs[tp.Kind]
	case ClassType:
		return PackageSeparator + ClassSig(tp.Decl)
	case ArrayType:
		return ArrayMarker + TypeSig(tp.Elem)
	}
	return "N"
}

// CallKey mangles a method name and its parameter types. It is the key of the method and constructor maps of
// an environment, the return type plays no part in it.
func CallKey(name string, params []Type) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, param := range params {
		sb.WriteString(ParamSeparator)
		sb.WriteString(TypeSig(param))
	}
	return sb.String()
}

// MethodKey mangles a method or constructor declaration whose parameter types are linked.
func (info *Info) MethodKey(decl *ast.MethodDecl) string {
	var params []Type
	for _, param := range decl.Params {
		params = append(params, info.Resolve(param.Type))
	}
	name := decl.Name
	if decl.IsConstructor {
		name = ConstructorMarker
	}
	return CallKey(name, params)
}
