package internal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xiaobogaga/joosc/compiler/internal/ast"
	"github.com/xiaobogaga/joosc/compiler/internal/codegen"
	"github.com/xiaobogaga/joosc/compiler/internal/config"
	"github.com/xiaobogaga/joosc/compiler/internal/semantic"
	"github.com/xiaobogaga/joosc/compiler/internal/symdb"
	"github.com/xiaobogaga/joosc/compiler/internal/syntax"
)

// Result describes a successful compilation.
type Result struct {
	BuildID string
	Units   []*ast.CompilationUnit
	Info    *semantic.Info
	Program *codegen.Program
	// Files are the written assembly files, global unit last.
	Files []string
}

func SemanticOptions(cfg *config.Config) semantic.Options {
	return semantic.Options{RootPackage: cfg.RootPackage, RootObject: cfg.RootObject, StringType: cfg.StringType}
}

func CodegenOptions(cfg *config.Config) codegen.Options {
	return codegen.Options{
		EntryMarker: cfg.EntryMarker,
		Malloc:      cfg.Runtime.Malloc,
		Exit:        cfg.Runtime.Exit,
		Exception:   cfg.Runtime.Exception,
		Concat:      cfg.Runtime.Concat,
		InstanceOf:  cfg.Runtime.InstanceOf,
	}
}

// Compile compiles the .java files in paths (files or directories) into cfg.OutputDir. The first error of any
// stage stops the compilation.
func Compile(ctx context.Context, cfg *config.Config, paths []string) (*Result, error) {
	result := &Result{BuildID: uuid.New().String()}
	logger := slog.Default().With("build", result.BuildID)
	start := time.Now()

	logger.Info("compiler: start parser", "paths", paths)
	units, err := syntax.NewParser(&ast.Arena{}).ParseFiles(paths)
	if err != nil {
		return nil, err
	}
	result.Units = units
	logger.Debug("compiler: parsed", "units", len(units))

	logger.Info("compiler: start semantic analysis")
	result.Info, err = semantic.AnalyzeWith(units, SemanticOptions(cfg), func(pass string) {
		logger.Debug("compiler: pass done", "pass", pass)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("compiler: start generate codes")
	result.Program, err = codegen.Generate(result.Info, units, CodegenOptions(cfg))
	if err != nil {
		return nil, err
	}
	if result.Program.Entry == nil {
		logger.Warn("compiler: no entry method", "marker", cfg.EntryMarker)
	}
	result.Files, err = codegen.WriteProgram(cfg.OutputDir, result.Program)
	if err != nil {
		return nil, err
	}
	logger.Info("compiler: wrote assembly", "dir", cfg.OutputDir, "files", len(result.Files))

	if cfg.SymbolsDB != "" {
		if err := symdb.Export(ctx, cfg.SymbolsDB, result.BuildID, result.Info, result.Program.Layout); err != nil {
			return nil, err
		}
		logger.Info("compiler: exported symbols", "db", cfg.SymbolsDB)
	}
	logger.Info("compiler: done", "elapsed", time.Since(start))
	return result, nil
}
