package codegen

import (
	"github.com/xiaobogaga/joosc/compiler/internal/ast"
)

func (g *Generator) generateStatementCode(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.Block:
		for _, inner := range s.Stmts {
			if err := g.generateStatementCode(inner); err != nil {
				return err
			}
		}
	case *ast.LocalVarStmt:
		return g.generateLocalVarCode(s)
	case *ast.ExprStmt:
		return g.generateExpressionCode(s.X)
	case *ast.IfStmt:
		return g.generateIfStatementCode(s)
	case *ast.WhileStmt:
		return g.generateWhileStatementCode(s)
	case *ast.ForStmt:
		return g.generateForStatementCode(s)
	case *ast.ReturnStmt:
		if s.X != nil {
			if err := g.generateExpressionCode(s.X); err != nil {
				return err
			}
		}
		g.writeEpilogue()
	case *ast.EmptyStmt:
	default:
		return g.makeError(stmt, "unexpected statement %T", stmt)
	}
	return nil
}

// A local without an initializer starts as 0.
func (g *Generator) generateLocalVarCode(s *ast.LocalVarStmt) error {
	offset, ok := g.routine.vars[s.Decl]
	if !ok {
		return g.makeError(s, "variable %s has no frame slot", s.Decl.Name)
	}
	if s.Decl.Init == nil {
		g.unit.writeOutput("mov dword %s, 0", frameRef(offset))
		return nil
	}
	if err := g.generateExpressionCode(s.Decl.Init); err != nil {
		return err
	}
	g.unit.writeOutput("mov %s, eax", frameRef(offset))
	return nil
}

// cond
// jne if_label
// else statement
// jmp exit_label
// if_label:
// then statement
// exit_label:
func (g *Generator) generateIfStatementCode(s *ast.IfStmt) error {
	if err := g.generateExpressionCode(s.Cond); err != nil {
		return err
	}
	ifLabel, exitLabel := g.unit.newLabel("if"), g.unit.newLabel("if_exit")
	g.unit.writeOutput("cmp eax, 0")
	g.unit.writeOutput("jne %s", ifLabel)
	if s.Else != nil {
		if err := g.generateStatementCode(s.Else); err != nil {
			return err
		}
	}
	g.unit.writeOutput("jmp %s", exitLabel)
	g.unit.writeLabel(ifLabel)
	if err := g.generateStatementCode(s.Then); err != nil {
		return err
	}
	g.unit.writeLabel(exitLabel)
	return nil
}

// while_check_label:
// cond
// jne while_statements_label
// jmp exit_label
// while_statements_label:
// body
// jmp while_check_label
// exit_label:
func (g *Generator) generateWhileStatementCode(s *ast.WhileStmt) error {
	checkLabel, statementsLabel, exitLabel := g.unit.newLabel("while_check"), g.unit.newLabel("while_statements"),
		g.unit.newLabel("while_exit")
	g.unit.writeLabel(checkLabel)
	if err := g.generateExpressionCode(s.Cond); err != nil {
		return err
	}
	g.unit.writeOutput("cmp eax, 0")
	g.unit.writeOutput("jne %s", statementsLabel)
	g.unit.writeOutput("jmp %s", exitLabel)
	g.unit.writeLabel(statementsLabel)
	if err := g.generateStatementCode(s.Body); err != nil {
		return err
	}
	g.unit.writeOutput("jmp %s", checkLabel)
	g.unit.writeLabel(exitLabel)
	return nil
}

// init
// for_check_label:
// cond
// je exit_label
// body
// update
// jmp for_check_label
// exit_label:
func (g *Generator) generateForStatementCode(s *ast.ForStmt) error {
	if s.Init != nil {
		if err := g.generateStatementCode(s.Init); err != nil {
			return err
		}
	}
	checkLabel, exitLabel := g.unit.newLabel("for_check"), g.unit.newLabel("for_exit")
	g.unit.writeLabel(checkLabel)
	if s.Cond != nil {
		if err := g.generateExpressionCode(s.Cond); err != nil {
			return err
		}
		g.unit.writeOutput("cmp eax, 0")
		g.unit.writeOutput("je %s", exitLabel)
	}
	if err := g.generateStatementCode(s.Body); err != nil {
		return err
	}
	if s.Update != nil {
		if err := g.generateExpressionCode(s.Update); err != nil {
			return err
		}
	}
	g.unit.writeOutput("jmp %s", checkLabel)
	g.unit.writeLabel(exitLabel)
	return nil
}
