package semantic

import "github.com/xiaobogaga/joosc/compiler/internal/ast"

// Arrays are assignable to these class types besides the root object type.
var arraySuperTypes = map[string]bool{
	"java.lang.Cloneable":  true,
	"java.io.Serializable": true,
}

// widenings lists, per primitive kind, the kinds whose values widen to it.
var widenings = map[ast.PrimitiveKind][]ast.PrimitiveKind{
	ast.Short: {ast.Byte},
	ast.Int:   {ast.Char, ast.Short, ast.Byte},
}

// Assignable reports whether a value of type from may be assigned to a location of type to.
func (info *Info) Assignable(to, from Type) bool {
	if to == from {
		return true
	}
	switch t := to.(type) {
	case PrimitiveType:
		f, ok := from.(PrimitiveType)
		if !ok {
			return false
		}
		for _, kind := range widenings[t.Kind] {
			if kind == f.Kind {
				return true
			}
		}
		return false
	case ClassType:
		switch f := from.(type) {
		case NullType:
			return true
		case ClassType:
			return info.InheritsFrom(f.Decl, t.Decl)
		case ArrayType:
			return t.Decl == info.RootObject() || arraySuperTypes[t.Decl.FullName()]
		}
	case ArrayType:
		switch f := from.(type) {
		case NullType:
			return true
		case ArrayType:
			_, toPrimitive := t.Elem.(PrimitiveType)
			_, fromPrimitive := f.Elem.(PrimitiveType)
			switch {
			case toPrimitive || fromPrimitive:
				return t.Elem == f.Elem
			default:
				return info.Assignable(t.Elem, f.Elem)
			}
		}
	}
	return false
}

// InheritsFrom reports whether sub is super or one of its subtypes. Every type inherits from the root object
// type. Class targets are found along the superclass chain, interface targets by a search over all supertypes.
func (info *Info) InheritsFrom(sub, super *ast.TypeDecl) bool {
	if sub == super || super == info.RootObject() {
		return true
	}
	if !super.IsInterface {
		if sub.IsInterface {
			return false
		}
		for decl := info.Supers[sub]; decl != nil; decl = info.Supers[decl] {
			if decl == super {
				return true
			}
		}
		return false
	}
	visited := map[*ast.TypeDecl]bool{sub: true}
	worklist := []*ast.TypeDecl{sub}
	for len(worklist) > 0 {
		decl := worklist[0]
		worklist = worklist[1:]
		next := append([]*ast.TypeDecl{}, info.SuperInterfaces[decl]...)
		if parent := info.Supers[decl]; parent != nil {
			next = append(next, parent)
		}
		for _, parent := range next {
			if parent == super {
				return true
			}
			if !visited[parent] {
				visited[parent] = true
				worklist = append(worklist, parent)
			}
		}
	}
	return false
}

// Castable reports whether a value of type from may be cast to type to.
func (info *Info) Castable(to, from Type) bool {
	if IsNumeric(to) && IsNumeric(from) {
		return true
	}
	if info.Assignable(to, from) || info.Assignable(from, to) {
		return true
	}
	t, ok := to.(ClassType)
	if !ok {
		return false
	}
	f, ok := from.(ClassType)
	if !ok {
		return false
	}
	// An interface and a class that is not final may always meet in some subclass.
	switch {
	case t.Decl.IsInterface && f.Decl.IsInterface:
		return true
	case t.Decl.IsInterface:
		return !f.Decl.Modifiers.Has(ast.Final)
	case f.Decl.IsInterface:
		return !t.Decl.Modifiers.Has(ast.Final)
	}
	return false
}

func (info *Info) IsString(t Type) bool {
	class, ok := t.(ClassType)
	return ok && class.Decl != nil && class.Decl == info.StringDecl()
}
