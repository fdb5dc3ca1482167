package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidLabel(t *testing.T) {
	testDatas := []struct {
		label  string
		expect bool
	}{
		{label: "java~lang~Object#equals@java~lang~Object", expect: true},
		{label: "A#test$$implementation", expect: true},
		{label: "A.f", expect: true},
		{label: "A#get@?I", expect: true},
		{label: "", expect: false},
		{label: "1abc", expect: false},
		{label: ".local", expect: false},
		{label: "a/b", expect: false},
		{label: "a[]", expect: false},
	}
	for _, data := range testDatas {
		assert.Equal(t, data.expect, IsValidLabel(data.label), data.label)
	}
}

func TestIdentifierChars(t *testing.T) {
	assert.True(t, IsIdentifierStart('$'))
	assert.True(t, IsIdentifierStart('_'))
	assert.False(t, IsIdentifierStart('1'))
	assert.True(t, IsIdentifierPart('1'))
	assert.False(t, IsIdentifierPart('-'))
}
