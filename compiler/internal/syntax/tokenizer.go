package syntax

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/xiaobogaga/joosc/compiler/internal/diag"
	"github.com/xiaobogaga/joosc/util"
)

// A Tokenizer for the java subset.
//
// * KeyWord: package, import, class, interface, extends, implements, public, protected, static, abstract,
// 			final, native, void, boolean, byte, char, short, int, if, else, while, for, return, new, this,
// 			null, true, false, instanceof.
// * Symbol: {, }, (, ), [, ], ., ,, ;, =, ==, !=, <, >, <=, >=, +, -, *, /, %, !, &&, ||, &, |.
// * Constant: integer, character ('a', '\n'), string ("xxx").
// * Identifier: letters, digits, underscore and dollar, not starting with a digit.
// * Comment: /**/, //.

type TokenType int

const (
	PackageTP TokenType = iota
	ImportTP
	ClassTP
	InterfaceTP
	ExtendsTP
	ImplementsTP
	PublicTP
	ProtectedTP
	StaticTP
	AbstractTP
	FinalTP
	NativeTP
	VoidTP
	BooleanTP
	ByteTP
	CharTP
	ShortTP
	IntTP
	IfTP
	ElseTP
	WhileTP
	ForTP
	ReturnTP
	NewTP
	ThisTP
	NullTP
	TrueTP
	FalseTP
	InstanceOfTP
	LeftBraceTP          // {
	RightBraceTP         // }
	LeftParenthesesTP    // (
	RightParenthesesTP   // )
	LeftSquareBracketTP  // [
	RightSquareBracketTP // ]
	DotTP                // .
	CommaTP              // ,
	SemiColonTP          // ;
	AssignTP             // =
	EqualTP              // ==
	NotEqualTP           // !=
	LessTP               // <
	GreaterTP            // >
	LessEqualTP          // <=
	GreaterEqualTP       // >=
	AddTP                // +
	MinusTP              // -
	MultiplyTP           // *
	DivideTP             // /
	ModTP                // %
	NotTP                // !
	AndAndTP             // &&
	OrOrTP               // ||
	AndTP                // &
	OrTP                 // |
	IntegerTP            // 1010
	CharacterTP          // 'a'
	StringTP             // "xxx"
	IdentifierTP         // varA
)

var keyWordTokenTPMap = map[string]TokenType{
	"package":    PackageTP,
	"import":     ImportTP,
	"class":      ClassTP,
	"interface":  InterfaceTP,
	"extends":    ExtendsTP,
	"implements": ImplementsTP,
	"public":     PublicTP,
	"protected":  ProtectedTP,
	"static":     StaticTP,
	"abstract":   AbstractTP,
	"final":      FinalTP,
	"native":     NativeTP,
	"void":       VoidTP,
	"boolean":    BooleanTP,
	"byte":       ByteTP,
	"char":       CharTP,
	"short":      ShortTP,
	"int":        IntTP,
	"if":         IfTP,
	"else":       ElseTP,
	"while":      WhileTP,
	"for":        ForTP,
	"return":     ReturnTP,
	"new":        NewTP,
	"this":       ThisTP,
	"null":       NullTP,
	"true":       TrueTP,
	"false":      FalseTP,
	"instanceof": InstanceOfTP,
}

// symbolTokenTPMap holds every operator and separator. Two character symbols are tried before one character
// ones.
var symbolTokenTPMap = map[string]TokenType{
	"{":  LeftBraceTP,
	"}":  RightBraceTP,
	"(":  LeftParenthesesTP,
	")":  RightParenthesesTP,
	"[":  LeftSquareBracketTP,
	"]":  RightSquareBracketTP,
	".":  DotTP,
	",":  CommaTP,
	";":  SemiColonTP,
	"=":  AssignTP,
	"==": EqualTP,
	"!=": NotEqualTP,
	"<":  LessTP,
	">":  GreaterTP,
	"<=": LessEqualTP,
	">=": GreaterEqualTP,
	"+":  AddTP,
	"-":  MinusTP,
	"*":  MultiplyTP,
	"/":  DivideTP,
	"%":  ModTP,
	"!":  NotTP,
	"&&": AndAndTP,
	"||": OrOrTP,
	"&":  AndTP,
	"|":  OrTP,
}

var escapes = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'b':  '\b',
	'f':  '\f',
	'0':  0,
	'\'': '\'',
	'"':  '"',
	'\\': '\\',
}

type Token struct {
	content string
	line    int
	tp      TokenType
}

func (t *Token) String() string {
	return t.content
}

type Tokenizer struct {
	currentPos  int
	currentFile string
	currentLine int
	inComment   bool
	tokens      []*Token
}

func NewTokenizer(file string) *Tokenizer {
	return &Tokenizer{currentFile: file}
}

// getNextToken returns the next token from line, nil when the line is exhausted or the rest of it is a comment.
func (tokenizer *Tokenizer) getNextToken(line []byte) (*Token, error) {
	if tokenizer.inComment {
		tokenizer.skipMultipleLineComment(line)
		if tokenizer.inComment {
			return nil, nil
		}
	}
	tokenizer.trimSpace(line)
	if !tokenizer.hasRemainCharacters(line) {
		return nil, nil
	}
	switch c := line[tokenizer.currentPos]; {
	case c == '/' && tokenizer.peek(line, 1) == '/':
		tokenizer.currentPos = len(line)
		return nil, nil
	case c == '/' && tokenizer.peek(line, 1) == '*':
		tokenizer.currentPos += 2
		tokenizer.inComment = true
		return tokenizer.getNextToken(line)
	case c == '\'':
		return tokenizer.tokenCharacter(line)
	case c == '"':
		return tokenizer.tokenString(line)
	case util.IsNumber(c):
		return tokenizer.tokenNumber(line)
	case util.IsIdentifierStart(c):
		return tokenizer.toKeywordOrIdentifier(line)
	default:
		return tokenizer.tokenSymbol(line)
	}
}

func (tokenizer *Tokenizer) peek(line []byte, offset int) byte {
	if tokenizer.currentPos+offset >= len(line) {
		return 0
	}
	return line[tokenizer.currentPos+offset]
}

// trimSpace steps forward through line and skips all continuous space.
func (tokenizer *Tokenizer) trimSpace(line []byte) {
	for tokenizer.currentPos < len(line) && unicode.IsSpace(rune(line[tokenizer.currentPos])) {
		tokenizer.currentPos++
	}
}

func (tokenizer *Tokenizer) hasRemainCharacters(line []byte) bool {
	return tokenizer.currentPos < len(line)
}

func (tokenizer *Tokenizer) skipMultipleLineComment(line []byte) {
	for tokenizer.currentPos < len(line) {
		if line[tokenizer.currentPos] == '*' && tokenizer.peek(line, 1) == '/' {
			tokenizer.currentPos += 2
			tokenizer.inComment = false
			return
		}
		tokenizer.currentPos++
	}
}

func (tokenizer *Tokenizer) tokenSymbol(line []byte) (*Token, error) {
	if tokenizer.currentPos+1 < len(line) {
		symbol := string(line[tokenizer.currentPos : tokenizer.currentPos+2])
		if tp, ok := symbolTokenTPMap[symbol]; ok {
			tokenizer.currentPos += 2
			return tokenizer.makeToken(symbol, tp), nil
		}
	}
	symbol := string(line[tokenizer.currentPos])
	tp, ok := symbolTokenTPMap[symbol]
	if !ok {
		return nil, tokenizer.makeError(symbol, "unknown symbol")
	}
	tokenizer.currentPos++
	return tokenizer.makeToken(symbol, tp), nil
}

// readEscaped reads one possibly escaped character starting at currentPos.
func (tokenizer *Tokenizer) readEscaped(line []byte) (byte, error) {
	if !tokenizer.hasRemainCharacters(line) || line[tokenizer.currentPos] == '\n' {
		return 0, tokenizer.makeError(string(line), "unterminated literal")
	}
	c := line[tokenizer.currentPos]
	tokenizer.currentPos++
	if c != '\\' {
		return c, nil
	}
	if !tokenizer.hasRemainCharacters(line) {
		return 0, tokenizer.makeError(string(line), "unterminated escape sequence")
	}
	escaped, ok := escapes[line[tokenizer.currentPos]]
	if !ok {
		return 0, tokenizer.makeError(string(line[tokenizer.currentPos]), "illegal escape sequence")
	}
	tokenizer.currentPos++
	return escaped, nil
}

func (tokenizer *Tokenizer) tokenCharacter(line []byte) (*Token, error) {
	tokenizer.currentPos++
	if tokenizer.peek(line, 0) == '\'' {
		return nil, tokenizer.makeError(string(line), "empty character literal")
	}
	c, err := tokenizer.readEscaped(line)
	if err != nil {
		return nil, err
	}
	if tokenizer.peek(line, 0) != '\'' {
		return nil, tokenizer.makeError(string(line), "incorrect character format")
	}
	tokenizer.currentPos++
	return tokenizer.makeToken(string([]byte{c}), CharacterTP), nil
}

func (tokenizer *Tokenizer) tokenString(line []byte) (*Token, error) {
	tokenizer.currentPos++
	var content strings.Builder
	for tokenizer.peek(line, 0) != '"' {
		c, err := tokenizer.readEscaped(line)
		if err != nil {
			return nil, tokenizer.makeError(string(line), "incorrect string format")
		}
		content.WriteByte(c)
	}
	tokenizer.currentPos++
	return tokenizer.makeToken(content.String(), StringTP), nil
}

func (tokenizer *Tokenizer) tokenNumber(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	for tokenizer.hasRemainCharacters(line) && util.IsNumber(line[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
	content := string(line[startPos:tokenizer.currentPos])
	if tokenizer.hasRemainCharacters(line) && util.IsIdentifierStart(line[tokenizer.currentPos]) {
		return nil, tokenizer.makeError(content, "incorrect identifier format")
	}
	if len(content) > 1 && content[0] == '0' {
		return nil, tokenizer.makeError(content, "octal literals are not supported")
	}
	return tokenizer.makeToken(content, IntegerTP), nil
}

func (tokenizer *Tokenizer) toKeywordOrIdentifier(line []byte) (*Token, error) {
	startPos := tokenizer.currentPos
	for tokenizer.hasRemainCharacters(line) && util.IsIdentifierPart(line[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
	content := string(line[startPos:tokenizer.currentPos])
	if tp, isKeyWord := keyWordTokenTPMap[content]; isKeyWord {
		return tokenizer.makeToken(content, tp), nil
	}
	return tokenizer.makeToken(content, IdentifierTP), nil
}

func (tokenizer *Tokenizer) makeToken(content string, tp TokenType) *Token {
	return &Token{content: content, line: tokenizer.currentLine, tp: tp}
}

func (tokenizer *Tokenizer) makeError(near string, msg string) error {
	return diag.Syntax(tokenizer.currentFile, tokenizer.currentLine, "tokenizer error near %s, msg: %s", strings.TrimSpace(near), msg)
}

// Tokenize accepts a source `rd` and tokenizes its content. This method is the main method of this tokenizer.
func (tokenizer *Tokenizer) Tokenize(rd io.Reader) ([]*Token, error) {
	bfReader := bufio.NewReader(rd)
	tokenizer.currentLine = 0
	for {
		tokenizer.currentLine++
		tokenizer.currentPos = 0
		line, readErr := bfReader.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, diag.Read("%s: %v", tokenizer.currentFile, readErr)
		}
		for {
			token, err := tokenizer.getNextToken(line)
			if err != nil {
				return nil, err
			}
			if token == nil {
				break
			}
			tokenizer.tokens = append(tokenizer.tokens, token)
		}
		if readErr == io.EOF {
			break
		}
	}
	if tokenizer.inComment {
		return nil, tokenizer.makeError("/*", "incorrect comment format")
	}
	return tokenizer.tokens, nil
}

func (tokenizer *Tokenizer) Reset() {
	tokenizer.currentPos, tokenizer.currentLine = 0, 0
	tokenizer.inComment = false
	tokenizer.tokens = nil
}
