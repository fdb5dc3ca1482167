package codegen

import (
	"fmt"
	"strings"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/semantic"
)

// Expression code leaves the value of the expression in eax. ebx, ecx and edx are scratch registers and
// intermediate values are kept on the stack.

var setInstructions = map[ast.Operator]string{
	ast.LessOp:         "setl",
	ast.GreaterOp:      "setg",
	ast.LessEqualOp:    "setle",
	ast.GreaterEqualOp: "setge",
	ast.EqualOp:        "sete",
	ast.NotEqualOp:     "setne",
}

func (g *Generator) generateExpressionCode(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		g.unit.writeOutput("mov eax, %d", e.Value)
	case *ast.BoolLiteral:
		if e.Value {
			g.unit.writeOutput("mov eax, 1")
		} else {
			g.unit.writeOutput("mov eax, 0")
		}
	case *ast.CharLiteral:
		g.unit.writeOutput("mov eax, %d", e.Value)
	case *ast.NullLiteral:
		g.unit.writeOutput("mov eax, 0")
	case *ast.StringLiteral:
		g.unit.writeOutput("mov eax, %s", g.generateStringLiteral(e.Value))
	case *ast.ThisExpr:
		g.unit.writeOutput("mov eax, [ebp + 8]")
	case ast.Name:
		return g.generateNameCode(e)
	case *ast.InfixExpr:
		return g.generateInfixCode(e)
	case *ast.PrefixExpr:
		if err := g.generateExpressionCode(e.X); err != nil {
			return err
		}
		if e.Op == ast.NegOp {
			g.unit.writeOutput("neg eax")
		} else {
			g.unit.writeOutput("xor eax, 1")
		}
	case *ast.AssignExpr:
		if err := g.generateAddressCode(e.LHS); err != nil {
			return err
		}
		g.unit.writeOutput("push eax")
		if err := g.generateExpressionCode(e.RHS); err != nil {
			return err
		}
		g.unit.writeOutput("pop ebx")
		g.unit.writeOutput("mov [ebx], eax")
	case *ast.FieldAccess:
		if err := g.generateExpressionCode(e.X); err != nil {
			return err
		}
		g.generateNullCheck()
		if g.info.ArrayLength[e.ID] {
			g.unit.writeOutput("mov eax, [eax + 4]")
			return nil
		}
		field, ok := g.info.DeclOf(e).(*ast.FieldDecl)
		if !ok {
			return g.makeError(e, "field access %s is not resolved", e.Name)
		}
		g.unit.writeOutput("mov eax, [eax + %d]", g.layout.FieldOffset(field))
	case *ast.MethodInvocation:
		return g.generateMethodInvocationCode(e)
	case *ast.ClassInstanceCreation:
		return g.generateCreationCode(e)
	case *ast.ArrayCreation:
		return g.generateArrayCreationCode(e)
	case *ast.ArrayAccess:
		if err := g.generateElementAddressCode(e); err != nil {
			return err
		}
		g.unit.writeOutput("mov eax, [eax]")
	case *ast.CastExpr:
		return g.generateCastCode(e)
	case *ast.InstanceOfExpr:
		if err := g.generateExpressionCode(e.X); err != nil {
			return err
		}
		g.generateInstanceOfCall(g.info.Resolve(e.Type))
	default:
		return g.makeError(expr, "unexpected expression %T", expr)
	}
	return nil
}

// generateNameCode loads the variable or field a name denotes.
func (g *Generator) generateNameCode(name ast.Name) error {
	if g.info.ArrayLength[name.Base().ID] {
		if err := g.generateNameCode(name.(*ast.QualifiedName).Qualifier); err != nil {
			return err
		}
		g.generateNullCheck()
		g.unit.writeOutput("mov eax, [eax + 4]")
		return nil
	}
	switch decl := g.info.DeclOf(name).(type) {
	case *ast.VarDecl:
		offset, ok := g.routine.vars[decl]
		if !ok {
			return g.makeError(name, "variable %s has no frame slot", decl.Name)
		}
		g.unit.writeOutput("mov eax, %s", frameRef(offset))
	case *ast.FieldDecl:
		if decl.IsStatic() {
			g.unit.writeOutput("mov eax, [%s]", g.unit.use(FieldSig(decl)))
			return nil
		}
		if err := g.generateFieldReceiverCode(name); err != nil {
			return err
		}
		g.generateNullCheck()
		g.unit.writeOutput("mov eax, [eax + %d]", g.layout.FieldOffset(decl))
	default:
		return g.makeError(name, "name %s is not resolved to a value", name.FullName())
	}
	return nil
}

// generateFieldReceiverCode loads the object an instance field name is read from: this for a simple name,
// the value of the qualifier otherwise.
func (g *Generator) generateFieldReceiverCode(name ast.Name) error {
	if qualified, ok := name.(*ast.QualifiedName); ok {
		return g.generateNameCode(qualified.Qualifier)
	}
	g.unit.writeOutput("mov eax, [ebp + 8]")
	return nil
}

// generateAddressCode leaves the address of an assignable expression in eax.
func (g *Generator) generateAddressCode(expr ast.Expr) error {
	switch e := expr.(type) {
	case ast.Name:
		switch decl := g.info.DeclOf(e).(type) {
		case *ast.VarDecl:
			offset, ok := g.routine.vars[decl]
			if !ok {
				return g.makeError(e, "variable %s has no frame slot", decl.Name)
			}
			g.unit.writeOutput("lea eax, %s", frameRef(offset))
		case *ast.FieldDecl:
			if decl.IsStatic() {
				g.unit.writeOutput("mov eax, %s", g.unit.use(FieldSig(decl)))
				return nil
			}
			if err := g.generateFieldReceiverCode(e); err != nil {
				return err
			}
			g.generateNullCheck()
			g.unit.writeOutput("add eax, %d", g.layout.FieldOffset(decl))
		default:
			return g.makeError(e, "%s is not assignable", e.FullName())
		}
	case *ast.FieldAccess:
		field, ok := g.info.DeclOf(e).(*ast.FieldDecl)
		if !ok {
			return g.makeError(e, "%s is not assignable", e.Name)
		}
		if err := g.generateExpressionCode(e.X); err != nil {
			return err
		}
		g.generateNullCheck()
		g.unit.writeOutput("add eax, %d", g.layout.FieldOffset(field))
	case *ast.ArrayAccess:
		return g.generateElementAddressCode(e)
	default:
		return g.makeError(expr, "%T is not assignable", expr)
	}
	return nil
}

// generateElementAddressCode leaves the address of an array element in eax after checking the array for null
// and the index against the length.
func (g *Generator) generateElementAddressCode(e *ast.ArrayAccess) error {
	if err := g.generateExpressionCode(e.X); err != nil {
		return err
	}
	g.unit.writeOutput("push eax")
	if err := g.generateExpressionCode(e.Index); err != nil {
		return err
	}
	g.unit.writeOutput("pop ebx")
	g.unit.writeOutput("cmp ebx, 0")
	g.unit.writeOutput("je %s", g.unit.use(g.options.Exception))
	// Unsigned comparison also rejects negative indices.
	g.unit.writeOutput("cmp eax, [ebx + 4]")
	g.unit.writeOutput("jae %s", g.unit.use(g.options.Exception))
	g.unit.writeOutput("lea eax, [ebx + eax * 4 + %d]", wordSize*headerWords)
	return nil
}

func (g *Generator) generateNullCheck() {
	g.unit.writeOutput("cmp eax, 0")
	g.unit.writeOutput("je %s", g.unit.use(g.options.Exception))
}

func (g *Generator) generateInfixCode(e *ast.InfixExpr) error {
	switch {
	case e.Op == ast.AndAndOp || e.Op == ast.OrOrOp:
		return g.generateShortCircuitCode(e)
	case e.Op == ast.AddOp && g.info.IsString(g.info.TypeOf(e)):
		return g.generateConcatCode(e)
	}
	if err := g.generateExpressionCode(e.LHS); err != nil {
		return err
	}
	g.unit.writeOutput("push eax")
	if err := g.generateExpressionCode(e.RHS); err != nil {
		return err
	}
	g.unit.writeOutput("mov ebx, eax")
	g.unit.writeOutput("pop eax")
	switch e.Op {
	case ast.AddOp:
		g.unit.writeOutput("add eax, ebx")
	case ast.SubOp:
		g.unit.writeOutput("sub eax, ebx")
	case ast.MulOp:
		g.unit.writeOutput("imul eax, ebx")
	case ast.DivOp, ast.ModOp:
		g.unit.writeOutput("cmp ebx, 0")
		g.unit.writeOutput("je %s", g.unit.use(g.options.Exception))
		g.unit.writeOutput("cdq")
		g.unit.writeOutput("idiv ebx")
		if e.Op == ast.ModOp {
			g.unit.writeOutput("mov eax, edx")
		}
	case ast.AndOp:
		g.unit.writeOutput("and eax, ebx")
	case ast.OrOp:
		g.unit.writeOutput("or eax, ebx")
	default:
		set, ok := setInstructions[e.Op]
		if !ok {
			return g.makeError(e, "unexpected operator %s", e.Op)
		}
		g.unit.writeOutput("cmp eax, ebx")
		g.unit.writeOutput("%s al", set)
		g.unit.writeOutput("movzx eax, al")
	}
	return nil
}

func (g *Generator) generateShortCircuitCode(e *ast.InfixExpr) error {
	prefix, jump := "and_exit", "je"
	if e.Op == ast.OrOrOp {
		prefix, jump = "or_exit", "jne"
	}
	exit := g.unit.newLabel(prefix)
	if err := g.generateExpressionCode(e.LHS); err != nil {
		return err
	}
	g.unit.writeOutput("cmp eax, 0")
	g.unit.writeOutput("%s %s", jump, exit)
	if err := g.generateExpressionCode(e.RHS); err != nil {
		return err
	}
	g.unit.writeLabel(exit)
	return nil
}

func (g *Generator) generateConcatCode(e *ast.InfixExpr) error {
	if err := g.generateConcatOperandCode(e.LHS); err != nil {
		return err
	}
	g.unit.writeOutput("push eax")
	if err := g.generateConcatOperandCode(e.RHS); err != nil {
		return err
	}
	g.unit.writeOutput("push eax")
	g.unit.writeOutput("call %s", g.unit.use(g.options.Concat))
	g.unit.writeOutput("add esp, %d", 2*wordSize)
	return nil
}

// generateConcatOperandCode evaluates an operand of a string concatenation and converts a non string value
// with the static valueOf overload of the string type that takes it.
func (g *Generator) generateConcatOperandCode(expr ast.Expr) error {
	if err := g.generateExpressionCode(expr); err != nil {
		return err
	}
	t := g.info.TypeOf(expr)
	if g.info.IsString(t) {
		return nil
	}
	valueOf := g.valueOf(t)
	if valueOf == nil {
		return nil
	}
	g.unit.writeOutput("push eax")
	g.unit.writeOutput("push 0")
	g.unit.writeOutput("call %s", g.unit.use(ImplLabel(g.info, valueOf)))
	g.unit.writeOutput("add esp, %d", 2*wordSize)
	return nil
}

func (g *Generator) valueOf(t semantic.Type) *ast.MethodDecl {
	str := g.info.StringDecl()
	if str == nil {
		return nil
	}
	switch t {
	case semantic.ByteType, semantic.ShortType:
		t = semantic.IntType
	case semantic.BooleanType, semantic.CharType, semantic.IntType:
	default:
		if root := g.info.RootObject(); root != nil {
			t = semantic.ClassType{Decl: root}
		}
	}
	method := g.info.MethodsOf(str)[semantic.CallKey("valueOf", []semantic.Type{t})]
	if method == nil || !method.IsStatic() {
		return nil
	}
	return method
}

// generateMethodInvocationCode pushes the arguments in order and then this, 0 for a static method. Instance
// methods declared by a class are dispatched through the vtable of the receiver, methods declared by an
// interface through its interface row.
func (g *Generator) generateMethodInvocationCode(call *ast.MethodInvocation) error {
	method, ok := g.info.DeclOf(call).(*ast.MethodDecl)
	if !ok {
		return g.makeError(call, "method %s is not resolved", call.MethodName())
	}
	for _, arg := range call.Args {
		if err := g.generateExpressionCode(arg); err != nil {
			return err
		}
		g.unit.writeOutput("push eax")
	}
	cleanup := wordSize * (len(call.Args) + 1)
	if method.IsStatic() {
		g.unit.writeOutput("push 0")
		g.unit.writeOutput("call %s", g.unit.use(ImplLabel(g.info, method)))
		g.unit.writeOutput("add esp, %d", cleanup)
		return nil
	}
	var err error
	switch qualifier := call.Qualifier(); {
	case call.Receiver != nil:
		err = g.generateExpressionCode(call.Receiver)
	case qualifier != nil:
		err = g.generateNameCode(qualifier)
	default:
		g.unit.writeOutput("mov eax, [ebp + 8]")
	}
	if err != nil {
		return err
	}
	g.generateNullCheck()
	g.unit.writeOutput("push eax")
	key := g.info.MethodKey(method)
	if method.Owner.IsInterface {
		selector, ok := g.layout.Selector(key)
		if !ok {
			return g.makeError(call, "no interface selector for %s", method)
		}
		g.unit.writeOutput("mov eax, [eax + 4]")
		g.unit.writeOutput("call [eax + %d]", wordSize*selector)
	} else {
		slot, ok := g.layout.Slot(method.Owner, key)
		if !ok {
			return g.makeError(call, "no vtable slot for %s", method)
		}
		g.unit.writeOutput("mov eax, [eax]")
		g.unit.writeOutput("call [eax + %d]", wordSize*slot)
	}
	g.unit.writeOutput("add esp, %d", cleanup)
	return nil
}

// generateCreationCode allocates a zeroed object, installs its dispatch rows, runs the field initializers, the
// parameterless constructor of the superclass and finally the selected constructor.
func (g *Generator) generateCreationCode(e *ast.ClassInstanceCreation) error {
	ctor, ok := g.info.DeclOf(e).(*ast.MethodDecl)
	if !ok {
		return g.makeError(e, "constructor of %s is not resolved", e.Type)
	}
	decl := ctor.Owner
	for _, arg := range e.Args {
		if err := g.generateExpressionCode(arg); err != nil {
			return err
		}
		g.unit.writeOutput("push eax")
	}
	g.unit.writeOutput("mov eax, %d", g.layout.ObjectSize(decl))
	g.unit.writeOutput("call %s", g.unit.use(g.options.Malloc))
	g.unit.writeOutput("mov dword [eax], %s", g.unit.use(VtableLabel(decl)))
	g.unit.writeOutput("mov dword [eax + 4], %s", g.unit.use(ItableLabel(decl)))
	g.unit.writeOutput("push eax")
	g.unit.writeOutput("call %s", g.unit.use(InstanceInitLabel(decl)))
	if super := g.info.Supers[decl]; super != nil {
		superCtor := g.info.ClassEnv(super).Constructors[semantic.ConstructorMarker]
		if superCtor == nil {
			return g.makeError(e, "%s has no parameterless constructor", super)
		}
		g.unit.writeOutput("call %s", g.unit.use(ImplLabel(g.info, superCtor)))
	}
	g.unit.writeOutput("call %s", g.unit.use(ImplLabel(g.info, ctor)))
	g.unit.writeOutput("pop eax")
	if len(e.Args) > 0 {
		g.unit.writeOutput("add esp, %d", wordSize*len(e.Args))
	}
	return nil
}

// generateArrayCreationCode allocates an array of zeroed elements: the vtable pointer, the length, then the
// elements.
func (g *Generator) generateArrayCreationCode(e *ast.ArrayCreation) error {
	array, ok := g.info.TypeOf(e).(semantic.ArrayType)
	if !ok {
		return g.makeError(e, "array creation is not typed")
	}
	g.layout.TypeID(array)
	if err := g.generateExpressionCode(e.Size); err != nil {
		return err
	}
	g.unit.writeOutput("cmp eax, 0")
	g.unit.writeOutput("jl %s", g.unit.use(g.options.Exception))
	g.unit.writeOutput("push eax")
	g.unit.writeOutput("lea eax, [eax * 4 + %d]", wordSize*headerWords)
	g.unit.writeOutput("call %s", g.unit.use(g.options.Malloc))
	g.unit.writeOutput("pop ebx")
	g.unit.writeOutput("mov dword [eax], %s", g.unit.use(ArrayVtableLabel(array)))
	g.unit.writeOutput("mov [eax + 4], ebx")
	return nil
}

func (g *Generator) generateCastCode(e *ast.CastExpr) error {
	if err := g.generateExpressionCode(e.X); err != nil {
		return err
	}
	target := g.info.Resolve(e.Type)
	switch target {
	case semantic.ByteType:
		g.unit.writeOutput("movsx eax, al")
		return nil
	case semantic.ShortType:
		g.unit.writeOutput("movsx eax, ax")
		return nil
	case semantic.CharType:
		g.unit.writeOutput("movzx eax, ax")
		return nil
	}
	if !semantic.IsReference(target) || g.info.Assignable(target, g.info.TypeOf(e.X)) {
		return nil
	}
	done := g.unit.newLabel("cast_exit")
	g.unit.writeOutput("cmp eax, 0")
	g.unit.writeOutput("je %s", done)
	g.unit.writeOutput("push eax")
	g.generateInstanceOfCall(target)
	g.unit.writeOutput("cmp eax, 0")
	g.unit.writeOutput("je %s", g.unit.use(g.options.Exception))
	g.unit.writeOutput("pop eax")
	g.unit.writeLabel(done)
	return nil
}

// generateInstanceOfCall tests the object in eax against t. The runtime answers 0 for null.
func (g *Generator) generateInstanceOfCall(t semantic.Type) {
	g.unit.writeOutput("push eax")
	g.unit.writeOutput("push %d", g.layout.TypeID(t))
	g.unit.writeOutput("call %s", g.unit.use(g.options.InstanceOf))
	g.unit.writeOutput("add esp, %d", 2*wordSize)
}

// generateStringLiteral emits a string object for value into the data section once per unit and returns its
// label. The first char[] field of the string type points to a char array holding the characters.
func (g *Generator) generateStringLiteral(value string) string {
	if label, ok := g.literals[value]; ok {
		return label
	}
	label := fmt.Sprintf("%s%s%d", ClassSig(g.owner), stringSuffix, len(g.literals))
	g.literals[value] = label
	chars := label + charsSuffix
	charArray := semantic.ArrayType{Elem: semantic.CharType}
	g.layout.TypeID(charArray)

	previous := g.unit.current
	g.unit.section(dataSection)
	g.unit.writeLabel(chars)
	g.unit.writeOutput("dd %s", g.unit.use(ArrayVtableLabel(charArray)))
	g.unit.writeOutput("dd %d", len(value))
	if len(value) > 0 {
		words := make([]string, len(value))
		for i := 0; i < len(value); i++ {
			words[i] = fmt.Sprint(value[i])
		}
		g.unit.writeOutput("dd %s", strings.Join(words, ", "))
	}
	g.unit.writeLabel(label)
	if str := g.info.StringDecl(); str != nil {
		g.unit.writeOutput("dd %s", g.unit.use(VtableLabel(str)))
		g.unit.writeOutput("dd %s", g.unit.use(ItableLabel(str)))
		pointed := false
		for _, field := range g.layout.Fields(str) {
			if !pointed && g.info.Resolve(field.Type) == semantic.Type(charArray) {
				g.unit.writeOutput("dd %s", chars)
				pointed = true
				continue
			}
			g.unit.writeOutput("dd 0")
		}
	}
	g.unit.section(previous)
	return label
}
