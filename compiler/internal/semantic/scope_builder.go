package semantic

import (
	"github.com/xiaobogaga/joosc/compiler/internal/ast"
)

// scopeBuilder is the declaration pass. It opens the scope chain of every compilation unit, links type
// references to their declarations and registers every declaration in its scope.
type scopeBuilder struct {
	info  *Info
	table *SymbolTable
	unit  *ast.CompilationUnit
}

// BuildScopes runs the declaration pass over every unit.
func BuildScopes(info *Info, units []*ast.CompilationUnit) error {
	for _, unit := range units {
		builder := &scopeBuilder{info: info, table: &SymbolTable{}, unit: unit}
		if err := builder.buildUnit(); err != nil {
			return err
		}
	}
	return nil
}

func (builder *scopeBuilder) buildUnit() error {
	unit := builder.unit
	env := builder.table.OpenScope(CompilationUnitEnv, nil)
	defer builder.table.CloseScope()
	env.Global = builder.info.Global
	if err := builder.info.Scopes.Attach(unit, env); err != nil {
		return err
	}
	for _, decl := range builder.info.Global.Package(unit.PackageName()) {
		if decl != unit.Type {
			env.SamePackage[decl.Name] = decl
		}
	}
	if unit.Type != nil {
		if err := env.AddType(unit.Type); err != nil {
			return err
		}
	}
	if builder.info.Global.HasPackage(builder.info.Options.RootPackage) {
		builder.importPackage(env, builder.info.Options.RootPackage)
	}
	for _, importDecl := range unit.Imports {
		if err := builder.buildImport(env, importDecl); err != nil {
			return err
		}
	}
	if unit.Type == nil {
		return nil
	}
	return builder.buildType(unit.Type)
}

func (builder *scopeBuilder) buildImport(env *Environment, importDecl *ast.ImportDecl) error {
	name := importDecl.Name.FullName()
	global := builder.info.Global
	if importDecl.OnDemand {
		if !global.HasPackage(name) {
			return builder.makeError(importDecl, "package %s not found", name)
		}
		builder.importPackage(env, name)
		return nil
	}
	decl := global.LookUp(name)
	if decl == nil {
		return builder.makeError(importDecl, "imported type %s not found", name)
	}
	if own, ok := env.Types[decl.Name]; ok && own != decl {
		return builder.makeError(importDecl, "import %s collides with type %s", name, own.FullName())
	}
	if other, ok := env.SingleImports[decl.Name]; ok && other != decl {
		return builder.makeError(importDecl, "import %s collides with import %s", name, other.FullName())
	}
	env.SingleImports[decl.Name] = decl
	return nil
}

func (builder *scopeBuilder) importPackage(env *Environment, pkg string) {
	for _, decl := range builder.info.Global.Package(pkg) {
		if !containsDecl(env.OnDemandImports[decl.Name], decl) {
			env.OnDemandImports[decl.Name] = append(env.OnDemandImports[decl.Name], decl)
		}
	}
}

func containsDecl(decls []*ast.TypeDecl, decl *ast.TypeDecl) bool {
	for _, d := range decls {
		if d == decl {
			return true
		}
	}
	return false
}

func (builder *scopeBuilder) buildType(decl *ast.TypeDecl) error {
	if err := builder.buildSupers(decl); err != nil {
		return err
	}
	builder.table.OpenScope(InheritEnv, decl)
	defer builder.table.CloseScope()
	classEnv := builder.table.OpenScope(ClassEnv, decl)
	defer builder.table.CloseScope()
	if err := builder.info.Scopes.Attach(decl, classEnv); err != nil {
		return err
	}
	for _, field := range decl.Fields {
		if err := builder.buildField(classEnv, field); err != nil {
			return err
		}
	}
	for _, method := range decl.Methods {
		if err := builder.declareMethod(classEnv, method); err != nil {
			return err
		}
	}
	for _, method := range decl.Methods {
		if err := builder.buildMethodBody(method); err != nil {
			return err
		}
	}
	return nil
}

// buildSupers validates and links the superinterfaces and the superclass of decl.
func (builder *scopeBuilder) buildSupers(decl *ast.TypeDecl) error {
	seen := map[*ast.TypeDecl]bool{}
	for _, tp := range decl.Interfaces {
		super, err := builder.linkSuperType(tp)
		if err != nil {
			return err
		}
		if !super.IsInterface {
			return builder.makeError(tp, "%s cannot implement class %s", decl.Name, super.FullName())
		}
		if seen[super] {
			return builder.makeError(tp, "interface %s is repeated", super.FullName())
		}
		if super == decl {
			return builder.makeError(tp, "interface %s cannot extend itself", decl.Name)
		}
		seen[super] = true
		builder.info.SuperInterfaces[decl] = append(builder.info.SuperInterfaces[decl], super)
	}
	if decl.SuperClass == nil {
		root := builder.info.RootObject()
		if !decl.IsInterface && root != nil && root != decl {
			builder.info.Supers[decl] = root
		}
		return nil
	}
	super, err := builder.linkSuperType(decl.SuperClass)
	if err != nil {
		return err
	}
	switch {
	case super.IsInterface:
		return builder.makeError(decl.SuperClass, "%s cannot extend interface %s", decl.Name, super.FullName())
	case super.Modifiers.Has(ast.Final):
		return builder.makeError(decl.SuperClass, "%s cannot extend final class %s", decl.Name, super.FullName())
	case super == decl:
		return builder.makeError(decl.SuperClass, "%s cannot extend itself", decl.Name)
	}
	builder.info.Supers[decl] = super
	return nil
}

func (builder *scopeBuilder) linkSuperType(tp ast.Type) (*ast.TypeDecl, error) {
	simple, ok := tp.(*ast.SimpleType)
	if !ok {
		return nil, builder.makeError(tp, "%s cannot be a super type", tp)
	}
	if err := builder.linkType(tp); err != nil {
		return nil, err
	}
	decl, _ := builder.info.Links.Get(simple)
	return decl, nil
}

// linkType attaches the declaration of every SimpleType inside tp.
func (builder *scopeBuilder) linkType(tp ast.Type) error {
	switch t := tp.(type) {
	case *ast.ArrayType:
		return builder.linkType(t.Elem)
	case *ast.SimpleType:
		decl, err := builder.table.Current().LookUpType(t.Name.FullName())
		if err != nil {
			return builder.locate(err, t)
		}
		if decl == nil {
			return builder.makeError(t, "type %s not found", t.Name.FullName())
		}
		return builder.info.Links.Attach(t, decl)
	}
	return nil
}

// linkExprTypes links the type nodes nested in an expression: casts, instanceof and creations.
func (builder *scopeBuilder) linkExprTypes(expr ast.Expr) error {
	var err error
	ast.Walk(expr, func(node ast.Node) {
		if err != nil {
			return
		}
		switch n := node.(type) {
		case *ast.CastExpr:
			err = builder.linkType(n.Type)
		case *ast.InstanceOfExpr:
			err = builder.linkType(n.Type)
		case *ast.ClassInstanceCreation:
			err = builder.linkType(n.Type)
		case *ast.ArrayCreation:
			err = builder.linkType(n.Elem)
		}
	})
	return err
}

func (builder *scopeBuilder) buildField(classEnv *Environment, field *ast.FieldDecl) error {
	if field.Owner.IsInterface {
		return builder.makeError(field, "interface %s cannot declare field %s", field.Owner.Name, field.Name)
	}
	if err := builder.linkType(field.Type); err != nil {
		return err
	}
	if err := classEnv.AddField(field); err != nil {
		return err
	}
	if field.Init == nil {
		return nil
	}
	return builder.linkExprTypes(field.Init)
}

// declareMethod links the signature of a method or constructor and registers it under its mangled key.
func (builder *scopeBuilder) declareMethod(classEnv *Environment, method *ast.MethodDecl) error {
	if err := builder.checkMethodShape(method); err != nil {
		return err
	}
	if method.ReturnType != nil {
		if err := builder.linkType(method.ReturnType); err != nil {
			return err
		}
	}
	for _, param := range method.Params {
		if err := builder.linkType(param.Type); err != nil {
			return err
		}
	}
	key := builder.info.MethodKey(method)
	if method.IsConstructor {
		return classEnv.AddConstructor(key, method)
	}
	return classEnv.AddMethod(key, method)
}

func (builder *scopeBuilder) checkMethodShape(method *ast.MethodDecl) error {
	owner, mods := method.Owner, method.Modifiers
	switch {
	case owner.IsInterface && method.IsConstructor:
		return builder.makeError(method, "interface %s cannot declare a constructor", owner.Name)
	case owner.IsInterface && method.Body != nil:
		return builder.makeError(method, "interface method %s cannot have a body", method.Name)
	case owner.IsInterface && (mods.Has(ast.Static) || mods.Has(ast.Final) || mods.Has(ast.Native)):
		return builder.makeError(method, "interface method %s cannot be static, final or native", method.Name)
	case owner.IsInterface:
		return nil
	case mods.Has(ast.Abstract) && method.Body != nil:
		return builder.makeError(method, "abstract method %s cannot have a body", method.Name)
	case mods.Has(ast.Abstract) && (mods.Has(ast.Static) || mods.Has(ast.Final)):
		return builder.makeError(method, "abstract method %s cannot be static or final", method.Name)
	case mods.Has(ast.Native) && !mods.Has(ast.Static):
		return builder.makeError(method, "native method %s must be static", method.Name)
	case !mods.Has(ast.Abstract) && !mods.Has(ast.Native) && method.Body == nil:
		return builder.makeError(method, "method %s must have a body", method.Name)
	}
	return nil
}

// buildMethodBody opens the parameter scope of a method, then the scopes of its body.
func (builder *scopeBuilder) buildMethodBody(method *ast.MethodDecl) error {
	if method.Body == nil {
		return nil
	}
	env := builder.table.OpenScope(BlockEnv, method.Owner)
	defer builder.table.CloseScope()
	if err := builder.info.Scopes.Attach(method, env); err != nil {
		return err
	}
	for _, param := range method.Params {
		if err := env.AddVariable(param); err != nil {
			return builder.locate(err, param)
		}
	}
	return builder.buildBlock(method.Body)
}

// buildBlock opens a scope for the block. Every local variable declaration opens one more scope that
// encloses the rest of the block.
func (builder *scopeBuilder) buildBlock(block *ast.Block) error {
	env := builder.table.OpenScope(BlockEnv, nil)
	opened := 1
	defer func() {
		for ; opened > 0; opened-- {
			builder.table.CloseScope()
		}
	}()
	if err := builder.info.Scopes.Attach(block, env); err != nil {
		return err
	}
	for _, stmt := range block.Stmts {
		if local, ok := stmt.(*ast.LocalVarStmt); ok {
			builder.table.OpenScope(BlockEnv, nil)
			opened++
			if err := builder.declareLocal(local); err != nil {
				return err
			}
			continue
		}
		if err := builder.buildStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// declareLocal adds a local variable to the current scope. A local may not shadow another local or a
// parameter of the same method.
func (builder *scopeBuilder) declareLocal(local *ast.LocalVarStmt) error {
	env := builder.table.Current()
	decl := local.Decl
	if err := builder.info.Scopes.Attach(local, env); err != nil {
		return err
	}
	if err := builder.linkType(decl.Type); err != nil {
		return err
	}
	if env.LookUpVariable(decl.Name) != nil {
		return builder.makeError(local, "variable %s is already defined", decl.Name)
	}
	if err := env.AddVariable(decl); err != nil {
		return builder.locate(err, local)
	}
	if decl.Init == nil {
		return nil
	}
	return builder.linkExprTypes(decl.Init)
}

func (builder *scopeBuilder) buildStatement(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.Block:
		return builder.buildBlock(s)
	case *ast.LocalVarStmt:
		builder.table.OpenScope(BlockEnv, nil)
		defer builder.table.CloseScope()
		return builder.declareLocal(s)
	case *ast.ExprStmt:
		return builder.linkExprTypes(s.X)
	case *ast.ReturnStmt:
		if s.X == nil {
			return nil
		}
		return builder.linkExprTypes(s.X)
	case *ast.IfStmt:
		if err := builder.linkExprTypes(s.Cond); err != nil {
			return err
		}
		if err := builder.buildStatement(s.Then); err != nil {
			return err
		}
		if s.Else == nil {
			return nil
		}
		return builder.buildStatement(s.Else)
	case *ast.WhileStmt:
		if err := builder.linkExprTypes(s.Cond); err != nil {
			return err
		}
		return builder.buildStatement(s.Body)
	case *ast.ForStmt:
		return builder.buildFor(s)
	}
	return nil
}

func (builder *scopeBuilder) buildFor(stmt *ast.ForStmt) error {
	env := builder.table.OpenScope(BlockEnv, nil)
	defer builder.table.CloseScope()
	if err := builder.info.Scopes.Attach(stmt, env); err != nil {
		return err
	}
	switch init := stmt.Init.(type) {
	case *ast.LocalVarStmt:
		if err := builder.declareLocal(init); err != nil {
			return err
		}
	case *ast.ExprStmt:
		if err := builder.linkExprTypes(init.X); err != nil {
			return err
		}
	}
	for _, expr := range []ast.Expr{stmt.Cond, stmt.Update} {
		if expr == nil {
			continue
		}
		if err := builder.linkExprTypes(expr); err != nil {
			return err
		}
	}
	return builder.buildStatement(stmt.Body)
}

func (builder *scopeBuilder) makeError(node ast.Node, format string, args ...interface{}) error {
	return builder.locate(makeStructuralError(node, format, args...), node)
}

// locate adds the position of node to an error that has none.
func (builder *scopeBuilder) locate(err error, node ast.Node) error {
	return locateError(err, builder.unit.File, node)
}
