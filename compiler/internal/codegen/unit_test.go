package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnit(t *testing.T) {
	unit := newUnit("A")
	unit.section(dataSection)
	unit.writeGlobalLabel("A.x")
	unit.writeOutput("dd 0")
	unit.section(textSection)
	unit.writeGlobalLabel("A#m$$implementation")
	unit.writeOutput("call %s", unit.use("__malloc"))
	unit.writeOutput("call %s", unit.use("A#m$$implementation"))
	label := unit.newLabel("if")
	unit.writeLabel(label)

	assert.Equal(t, "if_0", label)
	assert.Equal(t, "if_exit_1", unit.newLabel("if_exit"))
	assert.Equal(t, []string{"__malloc"}, unit.Externs())
	assert.True(t, unit.Defines("if_0"))
	assert.Equal(t, "extern __malloc\n"+
		"global A.x\n"+
		"global A#m$$implementation\n"+
		"section .data\n"+
		"A.x:\n"+
		"\tdd 0\n"+
		"section .text\n"+
		"A#m$$implementation:\n"+
		"\tcall __malloc\n"+
		"\tcall A#m$$implementation\n"+
		"if_0:\n", unit.String())
}

func TestUnit_InvalidLabels(t *testing.T) {
	unit := newUnit("A")
	unit.writeGlobalLabel("A#m$$implementation")
	unit.writeLabel("$A$$vtable")
	unit.writeOutput("call %s", unit.use("1abc"))
	unit.writeOutput("call %s", unit.use("$A$$vtable"))
	unit.writeOutput("call %s", unit.use("__malloc"))
	assert.Equal(t, []string{"$A$$vtable", "1abc"}, unit.InvalidLabels())
	assert.Empty(t, newUnit("B").InvalidLabels())
}
