package semantic

import (
	"math"
	"strings"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
)

type typeChecker struct {
	info   *Info
	unit   *ast.CompilationUnit
	owner  *ast.TypeDecl
	method *ast.MethodDecl // nil while field initializers are checked.
	static bool
}

// TypeCheck computes the type of every expression, resolves the member names left by the disambiguator and
// checks every statement. Method bodies also go through return analysis.
func TypeCheck(info *Info, units []*ast.CompilationUnit) error {
	for _, unit := range units {
		if unit.Type == nil {
			continue
		}
		checker := &typeChecker{info: info, unit: unit, owner: unit.Type}
		if err := checker.checkType(unit.Type); err != nil {
			return err
		}
	}
	return nil
}

func (checker *typeChecker) checkType(decl *ast.TypeDecl) error {
	for _, field := range decl.Fields {
		if field.Init == nil {
			continue
		}
		checker.method, checker.static = nil, field.IsStatic()
		tp, err := checker.checkExpr(field.Init)
		if err != nil {
			return err
		}
		if target := checker.info.Resolve(field.Type); !checker.info.Assignable(target, tp) {
			return checker.makeError(field, "cannot initialize field %s of type %s with %s", field.Name, target, tp)
		}
	}
	for _, method := range decl.Methods {
		if method.Body == nil {
			continue
		}
		checker.method, checker.static = method, method.IsStatic()
		if err := checker.checkStmt(method.Body); err != nil {
			return err
		}
		if err := checkReturns(method, checker.unit.File); err != nil {
			return err
		}
	}
	return nil
}

func (checker *typeChecker) checkStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.Block:
		for _, child := range s.Stmts {
			if err := checker.checkStmt(child); err != nil {
				return err
			}
		}
	case *ast.LocalVarStmt:
		if s.Decl.Init == nil {
			return nil
		}
		tp, err := checker.checkExpr(s.Decl.Init)
		if err != nil {
			return err
		}
		if target := checker.info.Resolve(s.Decl.Type); !checker.info.Assignable(target, tp) {
			return checker.makeError(s, "cannot initialize %s of type %s with %s", s.Decl.Name, target, tp)
		}
	case *ast.ExprStmt:
		_, err := checker.checkExpr(s.X)
		return err
	case *ast.IfStmt:
		if err := checker.checkCondition(s.Cond); err != nil {
			return err
		}
		if err := checker.checkStmt(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			return checker.checkStmt(s.Else)
		}
	case *ast.WhileStmt:
		if err := checker.checkCondition(s.Cond); err != nil {
			return err
		}
		return checker.checkStmt(s.Body)
	case *ast.ForStmt:
		if s.Init != nil {
			if err := checker.checkStmt(s.Init); err != nil {
				return err
			}
		}
		if s.Cond != nil {
			if err := checker.checkCondition(s.Cond); err != nil {
				return err
			}
		}
		if s.Update != nil {
			if _, err := checker.checkExpr(s.Update); err != nil {
				return err
			}
		}
		return checker.checkStmt(s.Body)
	case *ast.ReturnStmt:
		return checker.checkReturn(s)
	}
	return nil
}

func (checker *typeChecker) checkCondition(cond ast.Expr) error {
	tp, err := checker.checkExpr(cond)
	if err != nil {
		return err
	}
	if tp != BooleanType {
		return checker.makeError(cond, "condition must be boolean, found %s", tp)
	}
	return nil
}

func (checker *typeChecker) checkReturn(stmt *ast.ReturnStmt) error {
	method := checker.method
	if method.IsConstructor || IsVoid(checker.info.Resolve(method.ReturnType)) {
		if stmt.X != nil {
			return checker.makeError(stmt, "%s cannot return a value", method)
		}
		return nil
	}
	if stmt.X == nil {
		return checker.makeError(stmt, "%s must return a value", method)
	}
	tp, err := checker.checkExpr(stmt.X)
	if err != nil {
		return err
	}
	if target := checker.info.Resolve(method.ReturnType); !checker.info.Assignable(target, tp) {
		return checker.makeError(stmt, "cannot return %s from %s returning %s", tp, method, target)
	}
	return nil
}

// checkExpr types expr and attaches the type to it.
func (checker *typeChecker) checkExpr(expr ast.Expr) (Type, error) {
	tp, err := checker.typeOf(expr)
	if err != nil {
		return nil, err
	}
	if err := checker.info.Types.Attach(expr, tp); err != nil {
		return nil, locateError(err, checker.unit.File, expr)
	}
	return tp, nil
}

func (checker *typeChecker) checkExprs(exprs []ast.Expr) ([]Type, error) {
	var types []Type
	for _, expr := range exprs {
		tp, err := checker.checkExpr(expr)
		if err != nil {
			return nil, err
		}
		types = append(types, tp)
	}
	return types, nil
}

func (checker *typeChecker) typeOf(expr ast.Expr) (Type, error) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		if e.Value > math.MaxInt32 || e.Value < math.MinInt32 {
			return nil, checker.makeError(e, "integer %d is out of range", e.Value)
		}
		return IntType, nil
	case *ast.BoolLiteral:
		return BooleanType, nil
	case *ast.CharLiteral:
		return CharType, nil
	case *ast.NullLiteral:
		return Null, nil
	case *ast.StringLiteral:
		return checker.stringType(e)
	case *ast.ThisExpr:
		if checker.static {
			return nil, checker.makeError(e, "this cannot be used in a static context")
		}
		return ClassType{Decl: checker.owner}, nil
	case ast.Name:
		return checker.typeOfName(e)
	case *ast.InfixExpr:
		return checker.typeOfInfix(e)
	case *ast.PrefixExpr:
		return checker.typeOfPrefix(e)
	case *ast.AssignExpr:
		return checker.typeOfAssign(e)
	case *ast.FieldAccess:
		return checker.typeOfFieldAccess(e)
	case *ast.MethodInvocation:
		return checker.typeOfMethodInvocation(e)
	case *ast.ClassInstanceCreation:
		return checker.typeOfCreation(e)
	case *ast.ArrayCreation:
		size, err := checker.checkExpr(e.Size)
		if err != nil {
			return nil, err
		}
		if !IsNumeric(size) {
			return nil, checker.makeError(e, "array size must be numeric, found %s", size)
		}
		return ArrayType{Elem: checker.info.Resolve(e.Elem)}, nil
	case *ast.ArrayAccess:
		return checker.typeOfArrayAccess(e)
	case *ast.CastExpr:
		tp, err := checker.checkExpr(e.X)
		if err != nil {
			return nil, err
		}
		target := checker.info.Resolve(e.Type)
		if !checker.info.Castable(target, tp) {
			return nil, checker.makeError(e, "cannot cast %s to %s", tp, target)
		}
		return target, nil
	case *ast.InstanceOfExpr:
		tp, err := checker.checkExpr(e.X)
		if err != nil {
			return nil, err
		}
		target := checker.info.Resolve(e.Type)
		if !(IsReference(tp) || tp == Null) || !IsReference(target) || !checker.info.Castable(target, tp) {
			return nil, checker.makeError(e, "%s cannot be an instance of %s", tp, target)
		}
		return BooleanType, nil
	}
	return nil, checker.makeError(expr, "unexpected expression %T", expr)
}

func (checker *typeChecker) stringType(node ast.Node) (Type, error) {
	decl := checker.info.StringDecl()
	if decl == nil {
		return nil, checker.makeError(node, "string type %s is not declared", checker.info.Options.StringType)
	}
	return ClassType{Decl: decl}, nil
}

// typeOfName types a name resolved by the disambiguator and the prefixes of a qualified one that denote
// values.
func (checker *typeChecker) typeOfName(name ast.Name) (Type, error) {
	if qualified, ok := name.(*ast.QualifiedName); ok {
		if err := checker.checkNamePrefix(qualified.Qualifier); err != nil {
			return nil, err
		}
	}
	if checker.info.ArrayLength[name.Base().ID] {
		return IntType, nil
	}
	switch decl := checker.info.DeclOf(name).(type) {
	case *ast.VarDecl:
		return checker.info.Resolve(decl.Type), nil
	case *ast.FieldDecl:
		return checker.info.Resolve(decl.Type), nil
	case *ast.TypeDecl:
		return nil, checker.makeError(name, "type %s cannot be used as a value", decl.FullName())
	}
	return nil, checker.makeError(name, "cannot find symbol %s", name.FullName())
}

// checkNamePrefix types the qualifier of a name unless it denotes a package or a type.
func (checker *typeChecker) checkNamePrefix(name ast.Name) error {
	switch checker.info.DeclOf(name).(type) {
	case nil, *ast.TypeDecl:
		return nil
	}
	_, err := checker.checkExpr(name)
	return err
}

func (checker *typeChecker) typeOfInfix(expr *ast.InfixExpr) (Type, error) {
	left, err := checker.checkExpr(expr.LHS)
	if err != nil {
		return nil, err
	}
	right, err := checker.checkExpr(expr.RHS)
	if err != nil {
		return nil, err
	}
	info, op := checker.info, expr.Op
	switch {
	case op == ast.AddOp && (info.IsString(left) || info.IsString(right)):
		if IsVoid(left) || IsVoid(right) {
			return nil, checker.makeError(expr, "cannot concatenate void")
		}
		return checker.stringType(expr)
	case op.IsArithmetic():
		if IsNumeric(left) && IsNumeric(right) {
			return IntType, nil
		}
	case op.IsRelational():
		if IsNumeric(left) && IsNumeric(right) {
			return BooleanType, nil
		}
	case op.IsEquality():
		if IsVoid(left) || IsVoid(right) {
			break
		}
		if (IsNumeric(left) && IsNumeric(right)) || info.Assignable(left, right) || info.Assignable(right, left) {
			return BooleanType, nil
		}
	case op.IsLogical():
		if left == BooleanType && right == BooleanType {
			return BooleanType, nil
		}
	}
	return nil, checker.makeError(expr, "operator %s cannot be applied to %s and %s", op, left, right)
}

func (checker *typeChecker) typeOfPrefix(expr *ast.PrefixExpr) (Type, error) {
	tp, err := checker.checkExpr(expr.X)
	if err != nil {
		return nil, err
	}
	switch expr.Op {
	case ast.NegOp:
		if tp == ByteType || tp == ShortType || tp == IntType {
			return IntType, nil
		}
	case ast.NotOp:
		if tp == BooleanType {
			return BooleanType, nil
		}
	}
	return nil, checker.makeError(expr, "operator %s cannot be applied to %s", expr.Op, tp)
}

func (checker *typeChecker) typeOfAssign(expr *ast.AssignExpr) (Type, error) {
	switch expr.LHS.(type) {
	case ast.Name, *ast.FieldAccess, *ast.ArrayAccess:
	default:
		return nil, checker.makeError(expr, "cannot assign to this expression")
	}
	left, err := checker.checkExpr(expr.LHS)
	if err != nil {
		return nil, err
	}
	if checker.info.ArrayLength[expr.LHS.Base().ID] {
		return nil, checker.makeError(expr, "cannot assign to the length of an array")
	}
	right, err := checker.checkExpr(expr.RHS)
	if err != nil {
		return nil, err
	}
	if !checker.info.Assignable(left, right) {
		return nil, checker.makeError(expr, "cannot assign %s to %s", right, left)
	}
	return left, nil
}

func (checker *typeChecker) typeOfFieldAccess(expr *ast.FieldAccess) (Type, error) {
	tp, err := checker.checkExpr(expr.X)
	if err != nil {
		return nil, err
	}
	switch t := tp.(type) {
	case ArrayType:
		if expr.Name == "length" {
			checker.info.ArrayLength[expr.ID] = true
			return IntType, nil
		}
	case ClassType:
		field := checker.info.ClassEnv(t.Decl).LookUpField(expr.Name)
		if field == nil {
			break
		}
		if field.IsStatic() {
			return nil, checker.makeError(expr, "static field %s cannot be accessed through an instance", expr.Name)
		}
		if err := checker.attach(expr, field); err != nil {
			return nil, err
		}
		return checker.info.Resolve(field.Type), nil
	}
	return nil, checker.makeError(expr, "cannot find symbol %s in %s", expr.Name, tp)
}

func (checker *typeChecker) typeOfArrayAccess(expr *ast.ArrayAccess) (Type, error) {
	tp, err := checker.checkExpr(expr.X)
	if err != nil {
		return nil, err
	}
	index, err := checker.checkExpr(expr.Index)
	if err != nil {
		return nil, err
	}
	array, ok := tp.(ArrayType)
	if !ok {
		return nil, checker.makeError(expr, "%s is not an array", tp)
	}
	if !IsNumeric(index) {
		return nil, checker.makeError(expr, "array index must be numeric, found %s", index)
	}
	return array.Elem, nil
}

// typeOfMethodInvocation selects the invoked method from the receiver type and the argument types.
func (checker *typeChecker) typeOfMethodInvocation(call *ast.MethodInvocation) (Type, error) {
	args, err := checker.checkExprs(call.Args)
	if err != nil {
		return nil, err
	}
	var (
		receiver   *ast.TypeDecl
		staticCall bool
		implicit   bool
	)
	switch qualifier := call.Qualifier(); {
	case call.Receiver != nil:
		receiver, err = checker.receiverOf(call.Receiver)
	case qualifier != nil:
		if decl, ok := checker.info.DeclOf(qualifier).(*ast.TypeDecl); ok {
			receiver, staticCall = decl, true
			break
		}
		receiver, err = checker.receiverOf(qualifier)
	default:
		receiver, implicit = checker.owner, true
	}
	if err != nil {
		return nil, err
	}
	method, err := checker.selectMethod(call, receiver, call.MethodName(), args)
	if err != nil {
		return nil, err
	}
	switch {
	case implicit && checker.static && !method.IsStatic():
		return nil, diag.Name("non-static %s cannot be referenced from a static context", method).At(checker.unit.File, call.Line)
	case staticCall && !method.IsStatic():
		return nil, checker.makeError(call, "non-static %s cannot be called through type %s", method, receiver.FullName())
	case !staticCall && !implicit && method.IsStatic():
		return nil, checker.makeError(call, "static %s cannot be called through an instance", method)
	}
	if err := checker.attach(call, method); err != nil {
		return nil, err
	}
	return checker.info.Resolve(method.ReturnType), nil
}

// receiverOf types a receiver expression and returns the type whose methods it exposes. Arrays expose the
// methods of the root object type.
func (checker *typeChecker) receiverOf(expr ast.Expr) (*ast.TypeDecl, error) {
	tp, err := checker.checkExpr(expr)
	if err != nil {
		return nil, err
	}
	switch t := tp.(type) {
	case ClassType:
		return t.Decl, nil
	case ArrayType:
		if root := checker.info.RootObject(); root != nil {
			return root, nil
		}
	}
	return nil, checker.makeError(expr, "%s cannot be dereferenced", tp)
}

// MethodsOf returns every method visible on decl by key. Interfaces also expose the methods of the root object
// type.
func (info *Info) MethodsOf(decl *ast.TypeDecl) map[string]*ast.MethodDecl {
	methods := info.ClassEnv(decl).VisibleMethods()
	if root := info.RootObject(); decl.IsInterface && root != nil {
		for key, method := range info.ClassEnv(root).VisibleMethods() {
			if _, ok := methods[key]; !ok {
				methods[key] = method
			}
		}
	}
	return methods
}

func (checker *typeChecker) selectMethod(call ast.Node, decl *ast.TypeDecl, name string, args []Type) (*ast.MethodDecl, error) {
	methods := checker.info.MethodsOf(decl)
	if method, ok := methods[CallKey(name, args)]; ok {
		return method, nil
	}
	var candidates []*ast.MethodDecl
	for _, key := range sortedKeys(methods) {
		if methods[key].Name == name {
			candidates = append(candidates, methods[key])
		}
	}
	method, err := checker.mostSpecific(candidates, args)
	if err != nil {
		return nil, checker.makeError(call, "%s method %s(%s) in %s", err.Error(), name, typeList(args), decl.FullName())
	}
	return method, nil
}

func (checker *typeChecker) typeOfCreation(expr *ast.ClassInstanceCreation) (Type, error) {
	args, err := checker.checkExprs(expr.Args)
	if err != nil {
		return nil, err
	}
	decl, _ := checker.info.Links.Get(expr.Type)
	if decl.IsInterface || decl.Modifiers.Has(ast.Abstract) {
		return nil, checker.makeError(expr, "%s cannot be instantiated", decl)
	}
	constructors := checker.info.ClassEnv(decl).Constructors
	ctor, ok := constructors[CallKey(ConstructorMarker, args)]
	if !ok {
		var candidates []*ast.MethodDecl
		for _, key := range sortedKeys(constructors) {
			candidates = append(candidates, constructors[key])
		}
		ctor, err = checker.mostSpecific(candidates, args)
		if err != nil {
			return nil, checker.makeError(expr, "%s constructor %s(%s)", err.Error(), decl.Name, typeList(args))
		}
	}
	if err := checker.attach(expr, ctor); err != nil {
		return nil, err
	}
	return ClassType{Decl: decl}, nil
}

type selectError string

func (e selectError) Error() string {
	return string(e)
}

// mostSpecific picks among candidates the applicable one whose parameters are assignable to the parameters of
// every other applicable candidate.
func (checker *typeChecker) mostSpecific(candidates []*ast.MethodDecl, args []Type) (*ast.MethodDecl, error) {
	var applicable []*ast.MethodDecl
	for _, candidate := range candidates {
		if checker.applicable(candidate, args) {
			applicable = append(applicable, candidate)
		}
	}
	if len(applicable) == 0 {
		return nil, selectError("no applicable")
	}
	var best []*ast.MethodDecl
	for _, m := range applicable {
		isBest := true
		for _, other := range applicable {
			if m != other && !checker.moreSpecific(m, other) {
				isBest = false
				break
			}
		}
		if isBest {
			best = append(best, m)
		}
	}
	if len(best) != 1 {
		return nil, selectError("ambiguous")
	}
	return best[0], nil
}

func (checker *typeChecker) applicable(method *ast.MethodDecl, args []Type) bool {
	if len(method.Params) != len(args) {
		return false
	}
	for i, param := range method.Params {
		if !checker.info.Assignable(checker.info.Resolve(param.Type), args[i]) {
			return false
		}
	}
	return true
}

func (checker *typeChecker) moreSpecific(m, other *ast.MethodDecl) bool {
	for i, param := range m.Params {
		if !checker.info.Assignable(checker.info.Resolve(other.Params[i].Type), checker.info.Resolve(param.Type)) {
			return false
		}
	}
	return true
}

func typeList(types []Type) string {
	var names []string
	for _, tp := range types {
		names = append(names, tp.String())
	}
	return strings.Join(names, ", ")
}

func (checker *typeChecker) attach(node ast.Node, decl ast.Decl) error {
	if err := checker.info.Decls.Attach(node, decl); err != nil {
		return locateError(err, checker.unit.File, node)
	}
	return nil
}

func (checker *typeChecker) makeError(node ast.Node, format string, args ...interface{}) error {
	return diag.Type(format, args...).At(checker.unit.File, node.Base().Line)
}
