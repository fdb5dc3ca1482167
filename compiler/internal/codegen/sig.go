package codegen

import (
	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/semantic"
)

const (
	implementationSuffix = "$$implementation"
	vtableSuffix         = "$$vtable"
	itableSuffix         = "$$itable"
	instanceInitSuffix   = "$$instance_init"
	staticInitSuffix     = "$$static_init"
	fieldInitSuffix      = "$$init"
	stringSuffix         = "$$string"
	charsSuffix          = "$$chars"

	// nativePrefix names the runtime routine behind a native method.
	nativePrefix = "NATIVE"

	methodSeparator = "#"
	fieldSeparator  = "."
)

func ClassSig(decl *ast.TypeDecl) string {
	return semantic.ClassSig(decl)
}

// MethodSig is the static-call cell label of a static method and the name of every method.
func MethodSig(info *semantic.Info, method *ast.MethodDecl) string {
	return ClassSig(method.Owner) + methodSeparator + info.MethodKey(method)
}

// ImplLabel labels the body of a method or constructor. A native method has no body, the runtime provides it
// as NATIVE followed by the method signature.
func ImplLabel(info *semantic.Info, method *ast.MethodDecl) string {
	if method.Modifiers.Has(ast.Native) {
		return nativePrefix + MethodSig(info, method)
	}
	return MethodSig(info, method) + implementationSuffix
}

func FieldSig(field *ast.FieldDecl) string {
	return ClassSig(field.Owner) + fieldSeparator + field.Name
}

// FieldInitLabel labels the routine evaluating the initializer of a field.
func FieldInitLabel(field *ast.FieldDecl) string {
	return FieldSig(field) + fieldInitSuffix
}

func VtableLabel(decl *ast.TypeDecl) string {
	return ClassSig(decl) + vtableSuffix
}

func ItableLabel(decl *ast.TypeDecl) string {
	return ClassSig(decl) + itableSuffix
}

// ArrayVtableLabel labels the dispatch row shared by every array of type t.
func ArrayVtableLabel(t semantic.ArrayType) string {
	return semantic.TypeSig(t) + vtableSuffix
}

func InstanceInitLabel(decl *ast.TypeDecl) string {
	return ClassSig(decl) + instanceInitSuffix
}

func StaticInitLabel(decl *ast.TypeDecl) string {
	return ClassSig(decl) + staticInitSuffix
}
