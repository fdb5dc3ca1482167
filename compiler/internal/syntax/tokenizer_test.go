package syntax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizer_Tokenize(t *testing.T) {
	testDatas := []struct {
		data   string
		expect []TokenType
	}{
		{data: "class A {}", expect: []TokenType{ClassTP, IdentifierTP, LeftBraceTP, RightBraceTP}},
		{data: "a <= b && c != d", expect: []TokenType{IdentifierTP, LessEqualTP, IdentifierTP, AndAndTP, IdentifierTP, NotEqualTP, IdentifierTP}},
		{data: "x = y / 2; // trailing", expect: []TokenType{IdentifierTP, AssignTP, IdentifierTP, DivideTP, IntegerTP, SemiColonTP}},
		{data: "a /* inline */ b", expect: []TokenType{IdentifierTP, IdentifierTP}},
		{data: "a /* multiple\n line\n comment */ b", expect: []TokenType{IdentifierTP, IdentifierTP}},
		{data: "'a' '\\n' \"str\\\"ing\"", expect: []TokenType{CharacterTP, CharacterTP, StringTP}},
		{data: "test$$implementation instanceof", expect: []TokenType{IdentifierTP, InstanceOfTP}},
		{data: "!a || b % c", expect: []TokenType{NotTP, IdentifierTP, OrOrTP, IdentifierTP, ModTP, IdentifierTP}},
	}
	for _, data := range testDatas {
		tokens, err := NewTokenizer("A.java").Tokenize(strings.NewReader(data.data))
		assert.Nil(t, err, data.data)
		var tps []TokenType
		for _, token := range tokens {
			tps = append(tps, token.tp)
		}
		assert.Equal(t, data.expect, tps, data.data)
	}
}

func TestTokenizer_Literals(t *testing.T) {
	tokens, err := NewTokenizer("A.java").Tokenize(strings.NewReader("'\\n' \"a\\tb\" 42"))
	assert.Nil(t, err)
	assert.Equal(t, "\n", tokens[0].content)
	assert.Equal(t, "a\tb", tokens[1].content)
	assert.Equal(t, "42", tokens[2].content)
}

func TestTokenizer_Lines(t *testing.T) {
	tokens, err := NewTokenizer("A.java").Tokenize(strings.NewReader("class\n/* x\n*/ A\n{"))
	assert.Nil(t, err)
	assert.Equal(t, 1, tokens[0].line)
	assert.Equal(t, 3, tokens[1].line)
	assert.Equal(t, 4, tokens[2].line)
}

func TestTokenizer_Errors(t *testing.T) {
	testDatas := []string{
		"\"unterminated",
		"'ab'",
		"''",
		"'\\q'",
		"/* never closed",
		"12abc",
		"a # b",
		"007",
	}
	for _, data := range testDatas {
		_, err := NewTokenizer("A.java").Tokenize(strings.NewReader(data))
		assert.NotNil(t, err, data)
	}
}
