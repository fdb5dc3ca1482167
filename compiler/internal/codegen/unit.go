package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xiaobogaga/joosc/util"
)

type section int

const (
	dataSection section = iota
	textSection
)

// Unit is one assembly text unit: a data section and a text section. It tracks the labels it defines and the
// labels it references so it can declare the missing ones extern.
type Unit struct {
	Name string

	current    section
	data       []string
	text       []string
	globals    []string
	defined    map[string]bool
	referenced map[string]bool
	labelSeq   int
}

func newUnit(name string) *Unit {
	return &Unit{Name: name, current: textSection, defined: map[string]bool{}, referenced: map[string]bool{}}
}

func (unit *Unit) section(s section) {
	unit.current = s
}

// writeOutput appends one instruction or directive to the current section.
func (unit *Unit) writeOutput(format string, args ...interface{}) {
	line := "\t" + fmt.Sprintf(format, args...)
	if unit.current == dataSection {
		unit.data = append(unit.data, line)
		return
	}
	unit.text = append(unit.text, line)
}

// writeLabel defines a label in the current section.
func (unit *Unit) writeLabel(label string) {
	unit.defined[label] = true
	if unit.current == dataSection {
		unit.data = append(unit.data, label+":")
		return
	}
	unit.text = append(unit.text, label+":")
}

// writeGlobalLabel defines a label other units may reference.
func (unit *Unit) writeGlobalLabel(label string) {
	unit.globals = append(unit.globals, label)
	unit.writeLabel(label)
}

// use records a reference to label and returns it.
func (unit *Unit) use(label string) string {
	unit.referenced[label] = true
	return label
}

// newLabel returns a fresh local label such as if_3.
func (unit *Unit) newLabel(prefix string) string {
	label := fmt.Sprintf("%s_%d", prefix, unit.labelSeq)
	unit.labelSeq++
	return label
}

// Defines reports whether the unit defines label.
func (unit *Unit) Defines(label string) bool {
	return unit.defined[label]
}

// Externs returns the labels the unit references without defining them, sorted.
func (unit *Unit) Externs() []string {
	var externs []string
	for label := range unit.referenced {
		if !unit.defined[label] {
			externs = append(externs, label)
		}
	}
	sort.Strings(externs)
	return externs
}

// InvalidLabels returns the labels the unit defines or references that an assembler would reject, sorted.
func (unit *Unit) InvalidLabels() []string {
	var invalid []string
	for _, labels := range []map[string]bool{unit.defined, unit.referenced} {
		for label := range labels {
			if !util.IsValidLabel(label) && !contains(invalid, label) {
				invalid = append(invalid, label)
			}
		}
	}
	sort.Strings(invalid)
	return invalid
}

func contains(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func (unit *Unit) Globals() []string {
	return unit.globals
}

func (unit *Unit) String() string {
	var sb strings.Builder
	for _, label := range unit.Externs() {
		sb.WriteString("extern " + label + "\n")
	}
	for _, label := range unit.globals {
		sb.WriteString("global " + label + "\n")
	}
	sb.WriteString("section .data\n")
	for _, line := range unit.data {
		sb.WriteString(line + "\n")
	}
	sb.WriteString("section .text\n")
	for _, line := range unit.text {
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
