package semantic

import (
	"strings"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
)

// disambiguator resolves every name used as an expression to the variable, field or type it denotes.
// Member names of method invocations and field accesses on expressions need types and are left to the
// type checker.
type disambiguator struct {
	info  *Info
	unit  *ast.CompilationUnit
	owner *ast.TypeDecl

	// unseen holds the fields of owner that are declared after the initializer being resolved.
	unseen map[string]bool
	// simpleNameLHS is set while the bare left hand side of an assignment is resolved.
	simpleNameLHS bool
	// localInit is the local variable whose initializer is being resolved.
	localInit *ast.VarDecl
	static    bool
}

func Disambiguate(info *Info, units []*ast.CompilationUnit) error {
	for _, unit := range units {
		if unit.Type == nil {
			continue
		}
		d := &disambiguator{info: info, unit: unit, owner: unit.Type}
		if err := d.disambiguateType(unit.Type); err != nil {
			return err
		}
	}
	return nil
}

func (d *disambiguator) disambiguateType(decl *ast.TypeDecl) error {
	classEnv := d.info.ClassEnv(decl)
	d.unseen = map[string]bool{}
	for _, field := range decl.Fields {
		d.unseen[field.Name] = true
	}
	for _, field := range decl.Fields {
		if field.Init != nil {
			d.static = field.IsStatic()
			// int x = x; reads as the assignment x = x, any other use of x is a forward reference.
			d.simpleNameLHS = isSelfInit(field)
			err := d.resolveExpr(classEnv, field.Init)
			d.simpleNameLHS = false
			if err != nil {
				return err
			}
		}
		delete(d.unseen, field.Name)
	}
	d.unseen = nil
	for _, method := range decl.Methods {
		if method.Body == nil {
			continue
		}
		d.static = method.IsStatic()
		if err := d.resolveBlock(method.Body); err != nil {
			return err
		}
	}
	return nil
}

func isSelfInit(field *ast.FieldDecl) bool {
	name, ok := field.Init.(*ast.SimpleName)
	return ok && name.Ident == field.Name
}

func (d *disambiguator) resolveBlock(block *ast.Block) error {
	env, _ := d.info.Scopes.Get(block)
	for _, stmt := range block.Stmts {
		if local, ok := stmt.(*ast.LocalVarStmt); ok {
			env, _ = d.info.Scopes.Get(local)
		}
		if err := d.resolveStmt(env, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (d *disambiguator) resolveStmt(env *Environment, stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.Block:
		return d.resolveBlock(s)
	case *ast.LocalVarStmt:
		if s.Decl.Init == nil {
			return nil
		}
		scope, _ := d.info.Scopes.Get(s)
		d.localInit = s.Decl
		defer func() { d.localInit = nil }()
		return d.resolveExpr(scope, s.Decl.Init)
	case *ast.ExprStmt:
		return d.resolveExpr(env, s.X)
	case *ast.ReturnStmt:
		if s.X == nil {
			return nil
		}
		return d.resolveExpr(env, s.X)
	case *ast.IfStmt:
		if err := d.resolveExpr(env, s.Cond); err != nil {
			return err
		}
		if err := d.resolveStmt(env, s.Then); err != nil {
			return err
		}
		if s.Else == nil {
			return nil
		}
		return d.resolveStmt(env, s.Else)
	case *ast.WhileStmt:
		if err := d.resolveExpr(env, s.Cond); err != nil {
			return err
		}
		return d.resolveStmt(env, s.Body)
	case *ast.ForStmt:
		scope, _ := d.info.Scopes.Get(s)
		if s.Init != nil {
			if err := d.resolveStmt(scope, s.Init); err != nil {
				return err
			}
		}
		for _, expr := range []ast.Expr{s.Cond, s.Update} {
			if expr == nil {
				continue
			}
			if err := d.resolveExpr(scope, expr); err != nil {
				return err
			}
		}
		return d.resolveStmt(scope, s.Body)
	}
	return nil
}

func (d *disambiguator) resolveExprs(env *Environment, exprs ...ast.Expr) error {
	for _, expr := range exprs {
		if err := d.resolveExpr(env, expr); err != nil {
			return err
		}
	}
	return nil
}

func (d *disambiguator) resolveExpr(env *Environment, expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.SimpleName:
		_, err := d.resolveSimpleName(env, e)
		return err
	case *ast.QualifiedName:
		return d.resolveQualifiedName(env, e)
	case *ast.InfixExpr:
		return d.resolveExprs(env, e.LHS, e.RHS)
	case *ast.PrefixExpr:
		return d.resolveExpr(env, e.X)
	case *ast.AssignExpr:
		if name, ok := e.LHS.(*ast.SimpleName); ok {
			d.simpleNameLHS = true
			_, err := d.resolveSimpleName(env, name)
			d.simpleNameLHS = false
			if err != nil {
				return err
			}
		} else if err := d.resolveExpr(env, e.LHS); err != nil {
			return err
		}
		return d.resolveExpr(env, e.RHS)
	case *ast.FieldAccess:
		return d.resolveExpr(env, e.X)
	case *ast.MethodInvocation:
		if e.Receiver != nil {
			if err := d.resolveExpr(env, e.Receiver); err != nil {
				return err
			}
		} else if qualifier := e.Qualifier(); qualifier != nil {
			if err := d.resolveAmbiguousName(env, qualifier); err != nil {
				return err
			}
		}
		return d.resolveExprs(env, e.Args...)
	case *ast.ClassInstanceCreation:
		return d.resolveExprs(env, e.Args...)
	case *ast.ArrayCreation:
		return d.resolveExpr(env, e.Size)
	case *ast.ArrayAccess:
		return d.resolveExprs(env, e.X, e.Index)
	case *ast.CastExpr:
		return d.resolveExpr(env, e.X)
	case *ast.InstanceOfExpr:
		return d.resolveExpr(env, e.X)
	}
	return nil
}

// resolveSimpleName resolves a bare identifier used as a value. Variables shadow fields.
func (d *disambiguator) resolveSimpleName(env *Environment, name *ast.SimpleName) (ast.Decl, error) {
	if variable := env.LookUpVariable(name.Ident); variable != nil {
		if variable == d.localInit {
			return nil, d.makeError(name, "variable %s is used in its own initializer", name.Ident)
		}
		return variable, d.attach(name, variable)
	}
	field := env.LookUpField(name.Ident)
	if field == nil {
		return nil, d.makeError(name, "cannot find symbol %s", name.Ident)
	}
	if d.unseen[name.Ident] && field.Owner == d.owner && !d.simpleNameLHS {
		return nil, d.makeError(name, "illegal forward reference to field %s", name.Ident)
	}
	if d.static && !field.IsStatic() {
		return nil, d.makeError(name, "non-static field %s cannot be referenced from a static context", name.Ident)
	}
	return field, d.attach(name, field)
}

// prefixes returns the names A1, A1.A2, ... up to name itself.
func prefixes(name ast.Name) []ast.Name {
	var names []ast.Name
	for n := name; n != nil; {
		names = append([]ast.Name{n}, names...)
		qualified, ok := n.(*ast.QualifiedName)
		if !ok {
			break
		}
		n = qualified.Qualifier
	}
	return names
}

// resolveQualifiedName resolves A1.A2...An. A1 is tried as a variable, then as a field; otherwise the shortest
// prefix naming a type is taken and the next segment must be a static field of it. The remaining segments
// are instance fields.
func (d *disambiguator) resolveQualifiedName(env *Environment, name *ast.QualifiedName) error {
	names := prefixes(name)
	first := names[0].(*ast.SimpleName)
	if env.LookUpVariable(first.Ident) != nil || env.LookUpField(first.Ident) != nil {
		decl, err := d.resolveSimpleName(env, first)
		if err != nil {
			return err
		}
		return d.resolveInstanceFields(names, 1, d.declType(decl))
	}
	parts := name.Parts()
	for i := 0; i <= len(parts)-2; i++ {
		typeDecl, err := env.LookUpType(strings.Join(parts[:i+1], "."))
		if err != nil {
			return locateError(err, d.unit.File, names[i])
		}
		if typeDecl == nil {
			continue
		}
		if err := d.attach(names[i], typeDecl); err != nil {
			return err
		}
		field := d.info.ClassEnv(typeDecl).LookUpField(parts[i+1])
		if field == nil {
			return d.makeError(names[i+1], "cannot find symbol %s in %s", parts[i+1], typeDecl.FullName())
		}
		if !field.IsStatic() {
			return d.makeError(names[i+1], "non-static field %s cannot be accessed through type %s", field.Name, typeDecl.FullName())
		}
		if err := d.attach(names[i+1], field); err != nil {
			return err
		}
		return d.resolveInstanceFields(names, i+2, d.info.Resolve(field.Type))
	}
	return d.makeError(name, "cannot find symbol %s", name.FullName())
}

// resolveInstanceFields resolves names[from:] as instance field accesses starting from a value of type t.
// length is the only member of an array and must end the name.
func (d *disambiguator) resolveInstanceFields(names []ast.Name, from int, t Type) error {
	for i := from; i < len(names); i++ {
		ident := ast.LastIdent(names[i])
		switch tp := t.(type) {
		case ArrayType:
			if ident != "length" || i != len(names)-1 {
				return d.makeError(names[i], "cannot find symbol %s on array type %s", ident, tp)
			}
			d.info.ArrayLength[names[i].Base().ID] = true
			return nil
		case ClassType:
			field := d.info.ClassEnv(tp.Decl).LookUpField(ident)
			if field == nil {
				return d.makeError(names[i], "cannot find symbol %s in %s", ident, tp)
			}
			if field.IsStatic() {
				return d.makeError(names[i], "static field %s cannot be accessed through an instance", ident)
			}
			if err := d.attach(names[i], field); err != nil {
				return err
			}
			t = d.info.Resolve(field.Type)
		default:
			return d.makeError(names[i], "%s cannot be dereferenced", t)
		}
	}
	return nil
}

// resolveAmbiguousName resolves the qualifier of a method invocation, which may also denote a type.
func (d *disambiguator) resolveAmbiguousName(env *Environment, name ast.Name) error {
	ident := prefixes(name)[0].(*ast.SimpleName).Ident
	if env.LookUpVariable(ident) != nil || env.LookUpField(ident) != nil {
		return d.resolveExpr(env, name)
	}
	typeDecl, err := env.LookUpType(name.FullName())
	if err != nil {
		return locateError(err, d.unit.File, name)
	}
	if typeDecl != nil {
		return d.attach(name, typeDecl)
	}
	if _, ok := name.(*ast.SimpleName); ok {
		return d.makeError(name, "cannot find symbol %s", ident)
	}
	return d.resolveExpr(env, name)
}

func (d *disambiguator) declType(decl ast.Decl) Type {
	switch dl := decl.(type) {
	case *ast.VarDecl:
		return d.info.Resolve(dl.Type)
	case *ast.FieldDecl:
		return d.info.Resolve(dl.Type)
	}
	return nil
}

func (d *disambiguator) attach(node ast.Node, decl ast.Decl) error {
	if err := d.info.Decls.Attach(node, decl); err != nil {
		return locateError(err, d.unit.File, node)
	}
	return nil
}

func (d *disambiguator) makeError(node ast.Node, format string, args ...interface{}) error {
	return diag.Name(format, args...).At(d.unit.File, node.Base().Line)
}
