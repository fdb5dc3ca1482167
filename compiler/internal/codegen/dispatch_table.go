package codegen

import (
	"strings"

	"github.com/xiaobogaga/joosc/compiler/internal/ast"
)

const (
	// GlobalUnitName names the unit that is not tied to a type.
	GlobalUnitName = "__global"

	typeCountLabel    = "__type_count"
	subtypeTableLabel = "__subtype_table"
	startLabel        = "_start"
)

// generateGlobalCode emits the unit shared by the whole program. Its data section holds the number of type
// ids and the subtype table: row i, column j is 1 when type j is assignable to type i. Its text section holds
// one dispatch row per array type, which exposes the methods of the root object type, and the entry routine
// when there is an entry method.
func (g *Generator) generateGlobalCode(entry *ast.MethodDecl) *Unit {
	g.unit, g.owner, g.literals = newUnit(GlobalUnitName), nil, map[string]string{}
	var rootVtable []*ast.MethodDecl
	if root := g.info.RootObject(); root != nil {
		rootVtable = g.layout.Vtable(root)
	}
	for _, array := range g.layout.ArrayTypes() {
		g.unit.writeOutput("dd %d", g.layout.TypeID(array))
		g.unit.writeGlobalLabel(ArrayVtableLabel(array))
		g.writeMethodRow(rootVtable)
	}

	table := g.layout.SubtypeTable()
	g.unit.section(dataSection)
	g.unit.writeGlobalLabel(typeCountLabel)
	g.unit.writeOutput("dd %d", len(table))
	g.unit.writeGlobalLabel(subtypeTableLabel)
	for _, assignable := range table {
		row := make([]string, len(assignable))
		for j, ok := range assignable {
			row[j] = "0"
			if ok {
				row[j] = "1"
			}
		}
		g.unit.writeOutput("dd %s", strings.Join(row, ", "))
	}

	g.unit.section(textSection)
	if entry != nil {
		g.generateStartCode(entry)
	}
	return g.unit
}

// generateStartCode emits _start: it runs the static initializers of every class in declaration order, calls
// the entry method and hands its result to the exit routine.
func (g *Generator) generateStartCode(entry *ast.MethodDecl) {
	g.unit.writeGlobalLabel(startLabel)
	for _, decl := range g.info.Global.Types() {
		if decl.IsInterface {
			continue
		}
		g.unit.writeOutput("call %s", g.unit.use(StaticInitLabel(decl)))
	}
	g.unit.writeOutput("push 0")
	g.unit.writeOutput("call %s", g.unit.use(ImplLabel(g.info, entry)))
	g.unit.writeOutput("add esp, %d", wordSize)
	g.unit.writeOutput("call %s", g.unit.use(g.options.Exit))
}

// SubtypeTable returns the subtype matrix the global unit emits, indexed by type id.
func (layout *Layout) SubtypeTable() [][]bool {
	types := layout.Types()
	table := make([][]bool, len(types))
	for i, to := range types {
		table[i] = make([]bool, len(types))
		for j, from := range types {
			table[i][j] = layout.info.Assignable(to, from)
		}
	}
	return table
}
