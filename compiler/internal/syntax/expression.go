package syntax

import (
	"strconv"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
)

type opAst struct {
	token      *Token
	op         ast.Operator
	instanceOf bool
	priority   int
}

var binaryOps = map[TokenType]struct {
	op       ast.Operator
	priority int
}{
	OrOrTP:         {ast.OrOrOp, 1},
	AndAndTP:       {ast.AndAndOp, 2},
	OrTP:           {ast.OrOp, 3},
	AndTP:          {ast.AndOp, 4},
	EqualTP:        {ast.EqualOp, 5},
	NotEqualTP:     {ast.NotEqualOp, 5},
	LessTP:         {ast.LessOp, 6},
	GreaterTP:      {ast.GreaterOp, 6},
	LessEqualTP:    {ast.LessEqualOp, 6},
	GreaterEqualTP: {ast.GreaterEqualOp, 6},
	AddTP:          {ast.AddOp, 7},
	MinusTP:        {ast.SubOp, 7},
	MultiplyTP:     {ast.MulOp, 8},
	DivideTP:       {ast.DivOp, 8},
	ModTP:          {ast.ModOp, 8},
}

const instanceOfPriority = 6

// buildExpressionsTree0 combines terms and binary operators by precedence climbing. Operators of the same
// priority associate to the left. A term is either an ast.Expr or, right of instanceof, an ast.Type.
func (parser *Parser) buildExpressionsTree0(ops []*opAst, exprTerms []interface{}, loc int, minPriority int) (interface{}, int) {
	lhs := exprTerms[loc]
	i := loc
	for i < len(ops) && ops[i].priority >= minPriority {
		op := ops[i]
		rhs := exprTerms[i+1]
		j := i + 1
		for j < len(ops) && ops[j].priority > op.priority {
			rhs, j = parser.buildExpressionsTree0(ops, exprTerms, j, ops[j].priority)
		}
		lhs = parser.makeNewExpression(lhs, rhs, op)
		exprTerms[j] = lhs
		i = j
	}
	return lhs, i
}

func (parser *Parser) makeNewExpression(leftExpr interface{}, rightExpr interface{}, op *opAst) ast.Expr {
	if op.instanceOf {
		return &ast.InstanceOfExpr{Meta: parser.metaOf(op.token), X: leftExpr.(ast.Expr), Type: rightExpr.(ast.Type)}
	}
	return &ast.InfixExpr{Meta: parser.metaOf(op.token), Op: op.op, LHS: leftExpr.(ast.Expr), RHS: rightExpr.(ast.Expr)}
}

func (parser *Parser) parseExpressions() (exprs []ast.Expr, err error) {
	for parser.hasRemainTokens() {
		expression, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expression)
		if !parser.expectTokens(CommaTP) {
			break
		}
	}
	return
}

// parseExpression parses an assignment, which is right associative, or a binary expression.
func (parser *Parser) parseExpression() (ast.Expr, error) {
	meta := parser.newMeta()
	lhs, err := parser.parseBinaryExpression()
	if err != nil {
		return nil, err
	}
	if !parser.expectTokens(AssignTP) {
		return lhs, nil
	}
	switch lhs.(type) {
	case *ast.SimpleName, *ast.QualifiedName, *ast.FieldAccess, *ast.ArrayAccess:
	default:
		return nil, parser.makeErrorMsg(false, "invalid assignment target")
	}
	rhs, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.AssignExpr{Meta: meta, LHS: lhs, RHS: rhs}, nil
}

func (parser *Parser) parseBinaryExpression() (ast.Expr, error) {
	term, err := parser.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	var ops []*opAst
	exprTerms := []interface{}{term}
	for parser.hasRemainTokens() {
		token := parser.currentTokens[parser.currentTokenPos]
		if token.tp == InstanceOfTP {
			parser.stepForward()
			tp, err := parser.parseType()
			if err != nil {
				return nil, err
			}
			ops = append(ops, &opAst{token: token, instanceOf: true, priority: instanceOfPriority})
			exprTerms = append(exprTerms, tp)
			continue
		}
		binary, ok := binaryOps[token.tp]
		if !ok {
			break
		}
		parser.stepForward()
		term, err := parser.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		ops = append(ops, &opAst{token: token, op: binary.op, priority: binary.priority})
		exprTerms = append(exprTerms, term)
	}
	if len(ops) == 0 {
		return term, nil
	}
	ret, _ := parser.buildExpressionsTree0(ops, exprTerms, 0, 0)
	return ret.(ast.Expr), nil
}

// Unary: - Unary | ! Unary | ( Type ) Unary | Postfix
func (parser *Parser) parseUnaryExpression() (ast.Expr, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	switch token.tp {
	case MinusTP:
		parser.stepForward()
		// A negative integer literal is folded so -2147483648 stays in range.
		if literal, match := parser.expectToken(IntegerTP, false); match && parser.peekTokenTP(1) != LeftSquareBracketTP && parser.peekTokenTP(1) != DotTP {
			parser.stepForward()
			value, err := strconv.ParseInt("-"+literal.content, 10, 64)
			if err != nil {
				return nil, parser.makeErrorMsg(false, "integer literal out of range")
			}
			return &ast.IntLiteral{Meta: parser.metaOf(literal), Value: value}, nil
		}
		x, err := parser.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return &ast.PrefixExpr{Meta: parser.metaOf(token), Op: ast.NegOp, X: x}, nil
	case NotTP:
		parser.stepForward()
		x, err := parser.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return &ast.PrefixExpr{Meta: parser.metaOf(token), Op: ast.NotOp, X: x}, nil
	case LeftParenthesesTP:
		cast, err := parser.tryParseCast()
		if cast != nil || err != nil {
			return cast, err
		}
	}
	return parser.parsePostfixExpression()
}

// tryParseCast returns nil, nil when the parenthesis opens a sub expression rather than a cast.
func (parser *Parser) tryParseCast() (ast.Expr, error) {
	start := parser.currentTokenPos
	token := parser.currentTokens[start]
	parser.stepForward()
	_, primitive := primitiveTokens[parser.peekTokenTP(0)]
	if !primitive && parser.peekTokenTP(0) != IdentifierTP {
		parser.currentTokenPos = start
		return nil, nil
	}
	tp, err := parser.parseType()
	if err != nil || !parser.expectTokens(RightParenthesesTP) {
		parser.currentTokenPos = start
		return nil, nil
	}
	if _, isName := tp.(*ast.SimpleType); isName && !parser.startsCastOperand() {
		parser.currentTokenPos = start
		return nil, nil
	}
	x, err := parser.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	return &ast.CastExpr{Meta: parser.metaOf(token), Type: tp, X: x}, nil
}

// startsCastOperand reports whether the current token can start the operand of a reference cast, which
// excludes binary operators such as + and -.
func (parser *Parser) startsCastOperand() bool {
	switch parser.peekTokenTP(0) {
	case IdentifierTP, IntegerTP, CharacterTP, StringTP, TrueTP, FalseTP, NullTP, ThisTP, NewTP, LeftParenthesesTP, NotTP:
		return true
	}
	return false
}

func (parser *Parser) parsePostfixExpression() (ast.Expr, error) {
	expr, err := parser.parsePrimary()
	if err != nil {
		return nil, err
	}
	for parser.hasRemainTokens() {
		token := parser.currentTokens[parser.currentTokenPos]
		switch token.tp {
		case DotTP:
			parser.stepForward()
			nameToken, match := parser.expectToken(IdentifierTP, true)
			if !match {
				return nil, parser.makeError(true)
			}
			if _, match := parser.expectToken(LeftParenthesesTP, false); match {
				args, err := parser.parseArguments()
				if err != nil {
					return nil, err
				}
				expr = &ast.MethodInvocation{Meta: parser.metaOf(nameToken), Receiver: expr, Name: nameToken.content, Args: args}
				continue
			}
			expr = &ast.FieldAccess{Meta: parser.metaOf(nameToken), X: expr, Name: nameToken.content}
		case LeftSquareBracketTP:
			if _, isArrayCreation := expr.(*ast.ArrayCreation); isArrayCreation {
				return nil, parser.makeErrorMsg(true, "multi dimensional arrays are not supported")
			}
			parser.stepForward()
			index, err := parser.parseExpression()
			if err != nil {
				return nil, err
			}
			if !parser.expectTokens(RightSquareBracketTP) {
				return nil, parser.makeError(true)
			}
			expr = &ast.ArrayAccess{Meta: parser.metaOf(token), X: expr, Index: index}
		default:
			return expr, nil
		}
	}
	return expr, nil
}

func (parser *Parser) parsePrimary() (ast.Expr, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	meta := parser.metaOf(token)
	switch token.tp {
	case IntegerTP:
		parser.stepForward()
		value, err := strconv.ParseInt(token.content, 10, 64)
		if err != nil {
			return nil, parser.makeErrorMsg(false, "integer literal out of range")
		}
		return &ast.IntLiteral{Meta: meta, Value: value}, nil
	case CharacterTP:
		parser.stepForward()
		return &ast.CharLiteral{Meta: meta, Value: token.content[0]}, nil
	case StringTP:
		parser.stepForward()
		return &ast.StringLiteral{Meta: meta, Value: token.content}, nil
	case TrueTP, FalseTP:
		parser.stepForward()
		return &ast.BoolLiteral{Meta: meta, Value: token.tp == TrueTP}, nil
	case NullTP:
		parser.stepForward()
		return &ast.NullLiteral{Meta: meta}, nil
	case ThisTP:
		parser.stepForward()
		return &ast.ThisExpr{Meta: meta}, nil
	case LeftParenthesesTP:
		return parser.parseParenthesizedExpression()
	case NewTP:
		return parser.parseCreation()
	case IdentifierTP:
		name, err := parser.parseName()
		if err != nil {
			return nil, err
		}
		if _, match := parser.expectToken(LeftParenthesesTP, false); !match {
			return name, nil
		}
		args, err := parser.parseArguments()
		if err != nil {
			return nil, err
		}
		return &ast.MethodInvocation{Meta: meta, Target: name, Args: args}, nil
	}
	return nil, parser.makeError(true)
}

// new Name ( args ) | new Type [ Expression ]
func (parser *Parser) parseCreation() (ast.Expr, error) {
	token := parser.currentTokens[parser.currentTokenPos]
	parser.stepForward()
	elem, err := parser.parseType()
	if err != nil {
		return nil, err
	}
	if parser.expectTokens(LeftSquareBracketTP) {
		if _, isArray := elem.(*ast.ArrayType); isArray {
			return nil, parser.makeErrorMsg(false, "multi dimensional arrays are not supported")
		}
		size, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		if !parser.expectTokens(RightSquareBracketTP) {
			return nil, parser.makeError(true)
		}
		return &ast.ArrayCreation{Meta: parser.metaOf(token), Elem: elem, Size: size}, nil
	}
	simple, ok := elem.(*ast.SimpleType)
	if !ok {
		return nil, parser.makeErrorMsg(false, "cannot instantiate "+elem.String())
	}
	args, err := parser.parseArguments()
	if err != nil {
		return nil, err
	}
	return &ast.ClassInstanceCreation{Meta: parser.metaOf(token), Type: simple, Args: args}, nil
}

// ( [Expression {, Expression}] )
func (parser *Parser) parseArguments() ([]ast.Expr, error) {
	if !parser.expectTokens(LeftParenthesesTP) {
		return nil, parser.makeError(true)
	}
	if parser.expectTokens(RightParenthesesTP) {
		return nil, nil
	}
	args, err := parser.parseExpressions()
	if err != nil {
		return nil, err
	}
	if !parser.expectTokens(RightParenthesesTP) {
		return nil, parser.makeError(true)
	}
	return args, nil
}
