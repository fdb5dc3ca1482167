package semantic

import (
	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
)

// checkReturns rejects statements that can never run and non-void methods whose body can complete normally.
func checkReturns(method *ast.MethodDecl, file string) error {
	analysis := &returnAnalysis{file: file}
	completes, err := analysis.stmt(method.Body)
	if err != nil {
		return err
	}
	if method.IsConstructor || method.ReturnType == nil {
		return nil
	}
	if primitive, ok := method.ReturnType.(*ast.PrimitiveType); ok && primitive.Kind == ast.Void {
		return nil
	}
	if completes {
		return diag.Type("missing return statement in %s", method).At(file, method.Line)
	}
	return nil
}

type returnAnalysis struct {
	file string
}

// stmt reports whether stmt can complete normally.
func (analysis *returnAnalysis) stmt(stmt ast.Stmt) (bool, error) {
	switch s := stmt.(type) {
	case *ast.Block:
		completes := true
		for _, child := range s.Stmts {
			if !completes {
				return false, diag.Type("unreachable code").At(analysis.file, child.Base().Line)
			}
			var err error
			if completes, err = analysis.stmt(child); err != nil {
				return false, err
			}
		}
		return completes, nil
	case *ast.ReturnStmt:
		return false, nil
	case *ast.IfStmt:
		then, err := analysis.stmt(s.Then)
		if err != nil || s.Else == nil {
			return true, err
		}
		otherwise, err := analysis.stmt(s.Else)
		return then || otherwise, err
	case *ast.WhileStmt:
		if isConstant(s.Cond, false) {
			return false, diag.Type("unreachable code").At(analysis.file, s.Body.Base().Line)
		}
		if _, err := analysis.stmt(s.Body); err != nil {
			return false, err
		}
		return !isConstant(s.Cond, true), nil
	case *ast.ForStmt:
		if s.Cond != nil && isConstant(s.Cond, false) {
			return false, diag.Type("unreachable code").At(analysis.file, s.Body.Base().Line)
		}
		if _, err := analysis.stmt(s.Body); err != nil {
			return false, err
		}
		return s.Cond != nil && !isConstant(s.Cond, true), nil
	}
	return true, nil
}

func isConstant(expr ast.Expr, value bool) bool {
	literal, ok := expr.(*ast.BoolLiteral)
	return ok && literal.Value == value
}
