// Package semantic resolves and checks a forest of compilation units. The passes run in a fixed order:
// global index, scope builder, hierarchy linker, name disambiguator and type checker. Each pass reads what
// the previous ones attached to Info and the first error aborts the analysis.
package semantic

import "github.com/xiaobogaga/joosc/compiler/internal/ast"

// Pass is one step of the analysis.
type Pass struct {
	Name string
	Run  func(info *Info, units []*ast.CompilationUnit) error
}

// Passes lists the passes that run after the global index is built, in order.
var Passes = []Pass{
	{Name: "scope builder", Run: BuildScopes},
	{Name: "hierarchy linker", Run: func(info *Info, _ []*ast.CompilationUnit) error { return LinkHierarchy(info) }},
	{Name: "name disambiguator", Run: Disambiguate},
	{Name: "type checker", Run: TypeCheck},
}

// Analyze runs every pass over units.
func Analyze(units []*ast.CompilationUnit, options Options) (*Info, error) {
	return AnalyzeWith(units, options, nil)
}

// AnalyzeWith runs every pass over units and calls after, when not nil, once each pass succeeds.
func AnalyzeWith(units []*ast.CompilationUnit, options Options, after func(pass string)) (*Info, error) {
	global, err := BuildGlobal(units)
	if err != nil {
		return nil, err
	}
	info := NewInfo(global, options)
	for _, pass := range Passes {
		if err := pass.Run(info, units); err != nil {
			return nil, err
		}
		if after != nil {
			after(pass.Name)
		}
	}
	return info, nil
}
