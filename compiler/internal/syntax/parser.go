package syntax

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
)

type Parser struct {
	arena           *ast.Arena
	file            string
	currentTokenPos int
	currentTokens   []*Token
}

func NewParser(arena *ast.Arena) *Parser {
	return &Parser{arena: arena}
}

// ParseFiles parses every .java file in paths. A directory path contributes the .java files directly inside it.
func (parser *Parser) ParseFiles(paths []string) ([]*ast.CompilationUnit, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, diag.Read("%v", err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, diag.Read("%v", err)
		}
		for _, entry := range entries {
			// Skip not-java file.
			if entry.IsDir() || !isJavaFile(entry.Name()) {
				continue
			}
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	var units []*ast.CompilationUnit
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, diag.Read("%v", err)
		}
		unit, err := parser.ParseFile(file, bytes.NewReader(content))
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, nil
}

func isJavaFile(fileName string) bool {
	return strings.HasSuffix(fileName, ".java")
}

// ParseSource parses one compilation unit held in memory.
func (parser *Parser) ParseSource(file string, source string) (*ast.CompilationUnit, error) {
	return parser.ParseFile(file, strings.NewReader(source))
}

func (parser *Parser) ParseFile(file string, rd io.Reader) (*ast.CompilationUnit, error) {
	tokens, err := NewTokenizer(file).Tokenize(rd)
	if err != nil {
		return nil, err
	}
	parser.reset()
	parser.file = file
	parser.currentTokens = tokens
	return parser.parseCompilationUnit()
}

func (parser *Parser) reset() {
	parser.currentTokenPos, parser.currentTokens = 0, nil
}

// [package Name;] {import Name[.*];} [TypeDeclaration]
func (parser *Parser) parseCompilationUnit() (*ast.CompilationUnit, error) {
	unit := &ast.CompilationUnit{Meta: parser.newMeta(), File: parser.file}
	if _, match := parser.expectToken(PackageTP, true); match {
		name, err := parser.parseName()
		if err != nil {
			return nil, err
		}
		unit.Package = name
		if !parser.expectTokens(SemiColonTP) {
			return nil, parser.makeError(false)
		}
	}
	for {
		token, match := parser.expectToken(ImportTP, true)
		if !match {
			break
		}
		importDecl := &ast.ImportDecl{Meta: parser.metaOf(token)}
		name, err := parser.parseName()
		if err != nil {
			return nil, err
		}
		importDecl.Name = name
		if parser.expectTokens(DotTP, MultiplyTP) {
			importDecl.OnDemand = true
		}
		if !parser.expectTokens(SemiColonTP) {
			return nil, parser.makeError(false)
		}
		unit.Imports = append(unit.Imports, importDecl)
	}
	if !parser.hasRemainTokens() {
		return unit, nil
	}
	typeDecl, err := parser.parseTypeDeclaration(unit.PackageName())
	if err != nil {
		return nil, err
	}
	unit.Type = typeDecl
	if parser.hasRemainTokens() {
		return nil, parser.makeErrorMsg(true, "only one top-level type is allowed per compilation unit")
	}
	return unit, nil
}

func (parser *Parser) parseName() (ast.Name, error) {
	token, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return nil, parser.makeError(true)
	}
	var name ast.Name = &ast.SimpleName{Meta: parser.metaOf(token), Ident: token.content}
	for parser.peekTokenTP(0) == DotTP && parser.peekTokenTP(1) == IdentifierTP {
		parser.stepForward()
		token = parser.currentTokens[parser.currentTokenPos]
		parser.stepForward()
		name = ast.NewQualifiedName(parser.metaOf(token), name, token.content)
	}
	return name, nil
}

var modifierTokens = map[TokenType]ast.Modifiers{
	PublicTP:    ast.Public,
	ProtectedTP: ast.Protected,
	StaticTP:    ast.Static,
	AbstractTP:  ast.Abstract,
	FinalTP:     ast.Final,
	NativeTP:    ast.Native,
}

func (parser *Parser) parseModifiers() (ast.Modifiers, error) {
	var mods ast.Modifiers
	for parser.hasRemainTokens() {
		mod, ok := modifierTokens[parser.currentTokens[parser.currentTokenPos].tp]
		if !ok {
			break
		}
		if mods.Has(mod) {
			return 0, parser.makeErrorMsg(true, "repeated modifier")
		}
		mods |= mod
		parser.stepForward()
	}
	return mods, nil
}

// Modifiers class Identifier [extends Type] [implements Type {, Type}] ClassBody
// Modifiers interface Identifier [extends Type {, Type}] ClassBody
func (parser *Parser) parseTypeDeclaration(pkg string) (*ast.TypeDecl, error) {
	mods, err := parser.parseModifiers()
	if err != nil {
		return nil, err
	}
	decl := &ast.TypeDecl{Meta: parser.newMeta(), Modifiers: mods, Package: pkg, File: parser.file}
	switch {
	case parser.expectTokens(ClassTP):
	case parser.expectTokens(InterfaceTP):
		decl.IsInterface = true
	default:
		return nil, parser.makeError(true)
	}
	nameToken, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return nil, parser.makeError(false)
	}
	decl.Name = nameToken.content
	if parser.expectTokens(ExtendsTP) {
		if decl.IsInterface {
			decl.Interfaces, err = parser.parseTypeList()
		} else {
			decl.SuperClass, err = parser.parseType()
		}
		if err != nil {
			return nil, err
		}
	}
	if !decl.IsInterface && parser.expectTokens(ImplementsTP) {
		decl.Interfaces, err = parser.parseTypeList()
		if err != nil {
			return nil, err
		}
	}
	return decl, parser.parseClassBody(decl)
}

func (parser *Parser) parseTypeList() (types []ast.Type, err error) {
	for {
		tp, err := parser.parseType()
		if err != nil {
			return nil, err
		}
		types = append(types, tp)
		if !parser.expectTokens(CommaTP) {
			return types, nil
		}
	}
}

// ClassBody contains field, method or constructor declarations.
// {
//    members
// }
func (parser *Parser) parseClassBody(decl *ast.TypeDecl) error {
	if !parser.expectTokens(LeftBraceTP) {
		return parser.makeError(true)
	}
	for parser.hasRemainTokens() {
		if parser.expectTokens(RightBraceTP) {
			return nil
		}
		if err := parser.parseMember(decl); err != nil {
			return err
		}
	}
	return parser.makeError(false)
}

func (parser *Parser) parseMember(decl *ast.TypeDecl) error {
	mods, err := parser.parseModifiers()
	if err != nil {
		return err
	}
	meta := parser.newMeta()
	// Constructor: Identifier (
	if token, _ := parser.getCurrentToken(); token != nil && token.tp == IdentifierTP && parser.peekTokenTP(1) == LeftParenthesesTP {
		if token.content != decl.Name {
			return parser.makeErrorMsg(true, "method return type is missing")
		}
		parser.stepForward()
		method := &ast.MethodDecl{Meta: meta, Modifiers: mods, Name: token.content, IsConstructor: true, Owner: decl}
		if err := parser.parseMethodRest(method); err != nil {
			return err
		}
		decl.Methods = append(decl.Methods, method)
		return nil
	}
	var tp ast.Type
	if token, match := parser.expectToken(VoidTP, true); match {
		tp = &ast.PrimitiveType{Meta: parser.metaOf(token), Kind: ast.Void}
	} else if tp, err = parser.parseType(); err != nil {
		return err
	}
	nameToken, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return parser.makeError(true)
	}
	if _, match := parser.expectToken(LeftParenthesesTP, false); match {
		method := &ast.MethodDecl{Meta: meta, Modifiers: mods, ReturnType: tp, Name: nameToken.content, Owner: decl}
		if err := parser.parseMethodRest(method); err != nil {
			return err
		}
		decl.Methods = append(decl.Methods, method)
		return nil
	}
	if isVoid(tp) {
		return parser.makeErrorMsg(false, "field cannot be void")
	}
	field := &ast.FieldDecl{Meta: meta, Modifiers: mods, Type: tp, Name: nameToken.content, Owner: decl}
	if parser.expectTokens(AssignTP) {
		field.Init, err = parser.parseExpression()
		if err != nil {
			return err
		}
	}
	if !parser.expectTokens(SemiColonTP) {
		return parser.makeError(true)
	}
	decl.Fields = append(decl.Fields, field)
	return nil
}

// ( params ) ( ; | Block )
func (parser *Parser) parseMethodRest(method *ast.MethodDecl) (err error) {
	method.Params, err = parser.parseParamList()
	if err != nil {
		return err
	}
	if parser.expectTokens(SemiColonTP) {
		return nil
	}
	method.Body, err = parser.parseBlock()
	return err
}

func (parser *Parser) parseParamList() (params []*ast.VarDecl, err error) {
	if !parser.expectTokens(LeftParenthesesTP) {
		return nil, parser.makeError(true)
	}
	if parser.expectTokens(RightParenthesesTP) {
		return nil, nil
	}
	for {
		param := &ast.VarDecl{Meta: parser.newMeta()}
		param.Type, err = parser.parseType()
		if err != nil {
			return nil, err
		}
		nameToken, match := parser.expectToken(IdentifierTP, true)
		if !match {
			return nil, parser.makeError(true)
		}
		param.Name = nameToken.content
		params = append(params, param)
		if parser.expectTokens(RightParenthesesTP) {
			return params, nil
		}
		if !parser.expectTokens(CommaTP) {
			return nil, parser.makeError(true)
		}
	}
}

var primitiveTokens = map[TokenType]ast.PrimitiveKind{
	BooleanTP: ast.Boolean,
	ByteTP:    ast.Byte,
	CharTP:    ast.Char,
	ShortTP:   ast.Short,
	IntTP:     ast.Int,
}

// Type: (boolean|byte|char|short|int|Name) [ [] ]
func (parser *Parser) parseType() (ast.Type, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	var tp ast.Type
	if kind, ok := primitiveTokens[token.tp]; ok {
		parser.stepForward()
		tp = &ast.PrimitiveType{Meta: parser.metaOf(token), Kind: kind}
	} else {
		name, err := parser.parseName()
		if err != nil {
			return nil, err
		}
		tp = &ast.SimpleType{Meta: parser.metaOf(token), Name: name}
	}
	if parser.peekTokenTP(0) == LeftSquareBracketTP && parser.peekTokenTP(1) == RightSquareBracketTP {
		parser.currentTokenPos += 2
		tp = &ast.ArrayType{Meta: parser.metaOf(token), Elem: tp}
	}
	return tp, nil
}

func isVoid(tp ast.Type) bool {
	primitive, ok := tp.(*ast.PrimitiveType)
	return ok && primitive.Kind == ast.Void
}

// {
//    statements
// }
func (parser *Parser) parseBlock() (*ast.Block, error) {
	block := &ast.Block{Meta: parser.newMeta()}
	if !parser.expectTokens(LeftBraceTP) {
		return nil, parser.makeError(true)
	}
	for parser.hasRemainTokens() {
		if parser.expectTokens(RightBraceTP) {
			return block, nil
		}
		stmt, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	return nil, parser.makeError(false)
}

func (parser *Parser) parseStatement() (ast.Stmt, error) {
	token, err := parser.getCurrentToken()
	if err != nil {
		return nil, err
	}
	switch token.tp {
	case LeftBraceTP:
		return parser.parseBlock()
	case SemiColonTP:
		parser.stepForward()
		return &ast.EmptyStmt{Meta: parser.metaOf(token)}, nil
	case IfTP:
		return parser.parseIfStatement()
	case WhileTP:
		return parser.parseWhileStatement()
	case ForTP:
		return parser.parseForStatement()
	case ReturnTP:
		return parser.parseReturnStatement()
	}
	var stmt ast.Stmt
	if parser.isLocalVarDeclaration() {
		stmt, err = parser.parseLocalVarDeclaration()
	} else {
		stmt, err = parser.parseExpressionStatement()
	}
	if err != nil {
		return nil, err
	}
	if !parser.expectTokens(SemiColonTP) {
		return nil, parser.makeError(true)
	}
	return stmt, nil
}

// isLocalVarDeclaration looks ahead for `Type Identifier` without consuming tokens.
func (parser *Parser) isLocalVarDeclaration() bool {
	if _, ok := primitiveTokens[parser.peekTokenTP(0)]; ok {
		return true
	}
	i := 0
	if parser.peekTokenTP(i) != IdentifierTP {
		return false
	}
	i++
	for parser.peekTokenTP(i) == DotTP && parser.peekTokenTP(i+1) == IdentifierTP {
		i += 2
	}
	if parser.peekTokenTP(i) == LeftSquareBracketTP && parser.peekTokenTP(i+1) == RightSquareBracketTP {
		i += 2
	}
	return parser.peekTokenTP(i) == IdentifierTP
}

// Type Identifier [= Expression]
func (parser *Parser) parseLocalVarDeclaration() (*ast.LocalVarStmt, error) {
	stmt := &ast.LocalVarStmt{Meta: parser.newMeta()}
	decl := &ast.VarDecl{Meta: parser.newMeta()}
	var err error
	decl.Type, err = parser.parseType()
	if err != nil {
		return nil, err
	}
	nameToken, match := parser.expectToken(IdentifierTP, true)
	if !match {
		return nil, parser.makeError(true)
	}
	decl.Name = nameToken.content
	if parser.expectTokens(AssignTP) {
		decl.Init, err = parser.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	stmt.Decl = decl
	return stmt, nil
}

func (parser *Parser) parseExpressionStatement() (*ast.ExprStmt, error) {
	meta := parser.newMeta()
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	switch expr.(type) {
	case *ast.AssignExpr, *ast.MethodInvocation, *ast.ClassInstanceCreation:
	default:
		return nil, parser.makeErrorMsg(false, "not a statement")
	}
	return &ast.ExprStmt{Meta: meta, X: expr}, nil
}

// if ( Expression ) Statement [else Statement]
func (parser *Parser) parseIfStatement() (*ast.IfStmt, error) {
	stmt := &ast.IfStmt{Meta: parser.newMeta()}
	parser.stepForward()
	var err error
	stmt.Cond, err = parser.parseParenthesizedExpression()
	if err != nil {
		return nil, err
	}
	stmt.Then, err = parser.parseStatement()
	if err != nil {
		return nil, err
	}
	if parser.expectTokens(ElseTP) {
		stmt.Else, err = parser.parseStatement()
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// while ( Expression ) Statement
func (parser *Parser) parseWhileStatement() (*ast.WhileStmt, error) {
	stmt := &ast.WhileStmt{Meta: parser.newMeta()}
	parser.stepForward()
	var err error
	stmt.Cond, err = parser.parseParenthesizedExpression()
	if err != nil {
		return nil, err
	}
	stmt.Body, err = parser.parseStatement()
	return stmt, err
}

// for ( [Init] ; [Expression] ; [Expression] ) Statement
func (parser *Parser) parseForStatement() (*ast.ForStmt, error) {
	stmt := &ast.ForStmt{Meta: parser.newMeta()}
	parser.stepForward()
	if !parser.expectTokens(LeftParenthesesTP) {
		return nil, parser.makeError(false)
	}
	var err error
	if _, match := parser.expectToken(SemiColonTP, false); !match {
		if parser.isLocalVarDeclaration() {
			stmt.Init, err = parser.parseLocalVarDeclaration()
		} else {
			stmt.Init, err = parser.parseExpressionStatement()
		}
		if err != nil {
			return nil, err
		}
	}
	if !parser.expectTokens(SemiColonTP) {
		return nil, parser.makeError(true)
	}
	if _, match := parser.expectToken(SemiColonTP, false); !match {
		if stmt.Cond, err = parser.parseExpression(); err != nil {
			return nil, err
		}
	}
	if !parser.expectTokens(SemiColonTP) {
		return nil, parser.makeError(true)
	}
	if _, match := parser.expectToken(RightParenthesesTP, false); !match {
		update, err := parser.parseExpressionStatement()
		if err != nil {
			return nil, err
		}
		stmt.Update = update.X
	}
	if !parser.expectTokens(RightParenthesesTP) {
		return nil, parser.makeError(true)
	}
	stmt.Body, err = parser.parseStatement()
	return stmt, err
}

// return [Expression] ;
func (parser *Parser) parseReturnStatement() (*ast.ReturnStmt, error) {
	stmt := &ast.ReturnStmt{Meta: parser.newMeta()}
	parser.stepForward()
	if parser.expectTokens(SemiColonTP) {
		return stmt, nil
	}
	var err error
	stmt.X, err = parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if !parser.expectTokens(SemiColonTP) {
		return nil, parser.makeError(true)
	}
	return stmt, nil
}

func (parser *Parser) parseParenthesizedExpression() (ast.Expr, error) {
	if !parser.expectTokens(LeftParenthesesTP) {
		return nil, parser.makeError(true)
	}
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if !parser.expectTokens(RightParenthesesTP) {
		return nil, parser.makeError(true)
	}
	return expr, nil
}

func (parser *Parser) getCurrentToken() (*Token, error) {
	if !parser.hasRemainTokens() {
		return nil, parser.makeError(true)
	}
	return parser.currentTokens[parser.currentTokenPos], nil
}

// peekTokenTP returns the type of the token offset positions ahead, -1 past the end.
func (parser *Parser) peekTokenTP(offset int) TokenType {
	if parser.currentTokenPos+offset >= len(parser.currentTokens) {
		return -1
	}
	return parser.currentTokens[parser.currentTokenPos+offset].tp
}

func (parser *Parser) stepForward() {
	parser.currentTokenPos++
}

func (parser *Parser) hasRemainTokens() bool {
	return parser.currentTokenPos < len(parser.currentTokens)
}

// expectTokens consumes the given token sequence. Nothing is consumed when it does not match.
func (parser *Parser) expectTokens(expectedTokenTPs ...TokenType) bool {
	for i, tokenType := range expectedTokenTPs {
		if parser.peekTokenTP(i) != tokenType {
			return false
		}
	}
	parser.currentTokenPos += len(expectedTokenTPs)
	return true
}

func (parser *Parser) expectToken(expectedTokenTp TokenType, walk bool) (*Token, bool) {
	if parser.peekTokenTP(0) != expectedTokenTp {
		return nil, false
	}
	token := parser.currentTokens[parser.currentTokenPos]
	if walk {
		parser.currentTokenPos++
	}
	return token, true
}

func (parser *Parser) newMeta() ast.Meta {
	line := 0
	if parser.hasRemainTokens() {
		line = parser.currentTokens[parser.currentTokenPos].line
	}
	return ast.Meta{ID: parser.arena.NewID(), Line: line}
}

func (parser *Parser) metaOf(token *Token) ast.Meta {
	return ast.Meta{ID: parser.arena.NewID(), Line: token.line}
}

func (parser *Parser) makeError(useCurrentPos bool) error {
	return parser.makeErrorMsg(useCurrentPos, "")
}

func (parser *Parser) makeErrorMsg(useCurrentPos bool, msg string) error {
	currentPos := parser.currentTokenPos
	if !useCurrentPos {
		currentPos--
	}
	if currentPos < 0 || currentPos >= len(parser.currentTokens) {
		return diag.Syntax(parser.file, 0, "unexpected token ends")
	}
	currentToken := parser.currentTokens[currentPos]
	if msg == "" {
		return diag.Syntax(parser.file, currentToken.line, "syntax error near %s", currentToken.content)
	}
	return diag.Syntax(parser.file, currentToken.line, "syntax error near %s: %s", currentToken.content, msg)
}
