package codegen

import (
	"fmt"
	"os"
	"path/filepath"
)

// AssemblyExt is the extension of every emitted unit.
const AssemblyExt = ".s"

// Files returns the emitted units of the program, global unit last.
func (program *Program) Files() []*Unit {
	files := append([]*Unit{}, program.Units...)
	if program.Global != nil {
		files = append(files, program.Global)
	}
	return files
}

// WriteProgram writes every unit of program to dir as <name>.s and returns the written paths.
func WriteProgram(dir string, program *Program) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	var paths []string
	for _, unit := range program.Files() {
		path := filepath.Join(dir, unit.Name+AssemblyExt)
		if err := os.WriteFile(path, []byte(unit.String()), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
