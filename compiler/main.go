package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/xiaobogaga/joosc/compiler/internal"
	"github.com/xiaobogaga/joosc/compiler/internal/config"
	"github.com/xiaobogaga/joosc/compiler/internal/diag"
)

var (
	path       = flag.String("path", ".", "comma separated .java files or directories to compile")
	configPath = flag.String("config", "", "the joosc.yaml to use, searched from the working directory when empty")
	outputDir  = flag.String("o", "", "the directory assembly files are written to")
	symbols    = flag.String("symbols", "", "the sqlite file resolved symbols are exported to")
	verbose    = flag.Bool("v", false, "log every compiler pass")
)

func main() {
	flag.Parse()
	printer := &diag.Printer{W: os.Stderr}
	cfg, err := loadConfig()
	if err != nil {
		printer.Print(err)
		os.Exit(2)
	}
	printer.Color = diag.UseColor(diag.ColorMode(cfg.Color), os.Stderr)

	level, _ := cfg.Level()
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if _, err := internal.Compile(context.Background(), cfg, strings.Split(*path, ",")); err != nil {
		printer.Print(err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	file := *configPath
	if file == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, err
		}
		file = found
	}
	cfg := config.Default()
	if file != "" {
		loaded, err := config.Load(file)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *symbols != "" {
		cfg.SymbolsDB = *symbols
	}
	return cfg, nil
}
