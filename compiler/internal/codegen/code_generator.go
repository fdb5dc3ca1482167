// Package codegen turns analyzed compilation units into 32-bit x86 assembly text: one unit per type plus a
// global unit holding the array dispatch rows, the subtype table and the entry routine.
package codegen

import (
	"fmt"
	"strings"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
	"github.com/xiaobogaga/joosc/compiler/internal/semantic"
)

// Options names the entry marker and the runtime routines generated code calls.
type Options struct {
	EntryMarker string
	Malloc      string
	Exit        string
	Exception   string
	Concat      string
	InstanceOf  string
}

func DefaultOptions() Options {
	return Options{
		EntryMarker: "test$$implementation",
		Malloc:      "__malloc",
		Exit:        "__debexit",
		Exception:   "__exception",
		Concat:      "__concat",
		InstanceOf:  "__instanceof",
	}
}

// Program is the generated assembly of a compilation.
type Program struct {
	Units  []*Unit
	Global *Unit
	// Entry is the method _start calls, nil when there is none.
	Entry  *ast.MethodDecl
	Layout *Layout
}

type Generator struct {
	info    *semantic.Info
	layout  *Layout
	options Options

	// State of the unit being generated.
	unit     *Unit
	owner    *ast.TypeDecl
	routine  *routine
	literals map[string]string
}

// routine is the frame of the method or initializer being generated.
type routine struct {
	static bool
	// vars maps parameters and locals to their offset from ebp.
	vars map[*ast.VarDecl]int
}

func NewGenerator(info *semantic.Info, options Options) *Generator {
	return &Generator{info: info, layout: NewLayout(info), options: options}
}

// Generate generates every type declared by units, then the global unit.
func Generate(info *semantic.Info, units []*ast.CompilationUnit, options Options) (*Program, error) {
	return NewGenerator(info, options).Generate(units)
}

func (g *Generator) Generate(units []*ast.CompilationUnit) (*Program, error) {
	program := &Program{Layout: g.layout}
	for _, unit := range units {
		if unit.Type == nil {
			continue
		}
		if ClassSig(unit.Type) == GlobalUnitName {
			return nil, diag.CodeGen("type %s clashes with the global unit", unit.Type.FullName()).At(unit.File, unit.Type.Line)
		}
		generated, err := g.generateTypeCode(unit.Type)
		if err == nil {
			err = checkLabels(generated)
		}
		if err != nil {
			return nil, locateCodeGenError(err, unit.File, unit.Type)
		}
		program.Units = append(program.Units, generated)
		for _, method := range unit.Type.Methods {
			if !g.isEntry(method) {
				continue
			}
			if program.Entry != nil {
				return nil, diag.CodeGen("more than one entry method: %s and %s", program.Entry, method).At(unit.File, method.Line)
			}
			program.Entry = method
		}
	}
	program.Global = g.generateGlobalCode(program.Entry)
	if err := checkLabels(program.Global); err != nil {
		return nil, err
	}
	return program, nil
}

func checkLabels(unit *Unit) error {
	if invalid := unit.InvalidLabels(); len(invalid) > 0 {
		return diag.CodeGen("unit %s uses invalid labels %s", unit.Name, strings.Join(invalid, ", "))
	}
	return nil
}

// isEntry reports whether method is the static, parameterless method whose implementation label or name is
// the entry marker.
func (g *Generator) isEntry(method *ast.MethodDecl) bool {
	if !method.IsStatic() || method.IsConstructor || len(method.Params) != 0 || method.Body == nil {
		return false
	}
	marker := g.options.EntryMarker
	return ImplLabel(g.info, method) == ClassSig(method.Owner)+methodSeparator+marker || method.Name == marker
}

// generateTypeCode emits, in order: static field storage, the vtable and interface row, static method cells,
// method bodies, field initializer routines and the instance and static initializer routines.
func (g *Generator) generateTypeCode(decl *ast.TypeDecl) (*Unit, error) {
	g.unit, g.owner, g.literals = newUnit(ClassSig(decl)), decl, map[string]string{}
	g.unit.section(dataSection)
	for _, field := range decl.Fields {
		if field.IsStatic() {
			g.unit.writeGlobalLabel(FieldSig(field))
			g.unit.writeOutput("dd 0")
		}
	}
	g.unit.section(textSection)
	if !decl.IsInterface {
		g.generateDispatchRows(decl)
	}
	for _, method := range decl.Methods {
		if method.IsStatic() {
			g.unit.writeGlobalLabel(MethodSig(g.info, method))
			g.unit.writeOutput("dd %s", g.unit.use(ImplLabel(g.info, method)))
		}
	}
	for _, method := range decl.Methods {
		if method.Body == nil {
			continue
		}
		if err := g.generateMethodCode(method); err != nil {
			return nil, err
		}
	}
	for _, field := range decl.Fields {
		if field.Init == nil {
			continue
		}
		if err := g.generateFieldInitCode(field); err != nil {
			return nil, err
		}
	}
	if !decl.IsInterface {
		g.generateInstanceInitCode(decl)
		g.generateStaticInitCode(decl)
	}
	return g.unit, nil
}

// generateDispatchRows emits the type id word, the vtable and the interface row of a class.
func (g *Generator) generateDispatchRows(decl *ast.TypeDecl) {
	g.unit.writeOutput("dd %d", g.layout.TypeID(semantic.ClassType{Decl: decl}))
	g.unit.writeGlobalLabel(VtableLabel(decl))
	g.writeMethodRow(g.layout.Vtable(decl))
	g.unit.writeGlobalLabel(ItableLabel(decl))
	g.writeMethodRow(g.layout.Itable(decl))
}

// writeMethodRow emits one word per method: its implementation label, or 0 for a missing or abstract one.
func (g *Generator) writeMethodRow(methods []*ast.MethodDecl) {
	for _, method := range methods {
		if method == nil || method.IsAbstract() || method.Modifiers.Has(ast.Native) {
			g.unit.writeOutput("dd 0")
			continue
		}
		g.unit.writeOutput("dd %s", g.unit.use(ImplLabel(g.info, method)))
	}
}

// Frame of a routine called with n arguments:
//
//	[ebp + 12 + 4*(n-1-i)]  argument i
//	[ebp + 8]               this, 0 for static routines
//	[ebp + 4]               return address
//	[ebp - 4*(k+1)]         local k
func (g *Generator) generateMethodCode(method *ast.MethodDecl) error {
	g.routine = &routine{static: method.IsStatic(), vars: map[*ast.VarDecl]int{}}
	n := len(method.Params)
	for i, param := range method.Params {
		g.routine.vars[param] = 12 + wordSize*(n-1-i)
	}
	locals := 0
	ast.Walk(method.Body, func(node ast.Node) {
		if local, ok := node.(*ast.LocalVarStmt); ok {
			locals++
			g.routine.vars[local.Decl] = -wordSize * locals
		}
	})
	g.writePrologue(ImplLabel(g.info, method), locals)
	if err := g.generateStatementCode(method.Body); err != nil {
		return err
	}
	g.writeEpilogue()
	return nil
}

func (g *Generator) generateFieldInitCode(field *ast.FieldDecl) error {
	g.routine = &routine{static: field.IsStatic(), vars: map[*ast.VarDecl]int{}}
	g.writePrologue(FieldInitLabel(field), 0)
	if err := g.generateExpressionCode(field.Init); err != nil {
		return err
	}
	if field.IsStatic() {
		g.unit.writeOutput("mov [%s], eax", g.unit.use(FieldSig(field)))
	} else {
		g.unit.writeOutput("mov ebx, [ebp + 8]")
		g.unit.writeOutput("mov [ebx + %d], eax", g.layout.FieldOffset(field))
	}
	g.writeEpilogue()
	return nil
}

// generateInstanceInitCode emits the routine initializing the fields of a new object: the fields of the
// superclass first, then the fields of decl in declaration order.
func (g *Generator) generateInstanceInitCode(decl *ast.TypeDecl) {
	g.writePrologue(InstanceInitLabel(decl), 0)
	if super := g.info.Supers[decl]; super != nil {
		g.unit.writeOutput("push dword [ebp + 8]")
		g.unit.writeOutput("call %s", g.unit.use(InstanceInitLabel(super)))
		g.unit.writeOutput("add esp, %d", wordSize)
	}
	for _, field := range decl.Fields {
		if field.IsStatic() || field.Init == nil {
			continue
		}
		g.unit.writeOutput("push dword [ebp + 8]")
		g.unit.writeOutput("call %s", g.unit.use(FieldInitLabel(field)))
		g.unit.writeOutput("add esp, %d", wordSize)
	}
	g.writeEpilogue()
}

func (g *Generator) generateStaticInitCode(decl *ast.TypeDecl) {
	g.writePrologue(StaticInitLabel(decl), 0)
	for _, field := range decl.Fields {
		if !field.IsStatic() || field.Init == nil {
			continue
		}
		g.unit.writeOutput("push 0")
		g.unit.writeOutput("call %s", g.unit.use(FieldInitLabel(field)))
		g.unit.writeOutput("add esp, %d", wordSize)
	}
	g.writeEpilogue()
}

func (g *Generator) writePrologue(label string, locals int) {
	g.unit.writeGlobalLabel(label)
	g.unit.writeOutput("push ebp")
	g.unit.writeOutput("mov ebp, esp")
	if locals > 0 {
		g.unit.writeOutput("sub esp, %d", wordSize*locals)
	}
}

func (g *Generator) writeEpilogue() {
	g.unit.writeOutput("mov esp, ebp")
	g.unit.writeOutput("pop ebp")
	g.unit.writeOutput("ret")
}

func frameRef(offset int) string {
	if offset < 0 {
		return fmt.Sprintf("[ebp - %d]", -offset)
	}
	return fmt.Sprintf("[ebp + %d]", offset)
}

func (g *Generator) makeError(node ast.Node, format string, args ...interface{}) error {
	return diag.CodeGen(format, args...).At("", node.Base().Line)
}

func locateCodeGenError(err error, file string, decl *ast.TypeDecl) error {
	if e, ok := err.(*diag.Error); ok {
		return e.At(file, decl.Line)
	}
	return err
}
