package diag

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Kind classifies a compile error. The first error of any kind aborts the compilation.
type Kind int

const (
	ReadError Kind = iota
	SyntaxError
	StructuralError
	NameResolutionError
	TypeError
	CodeGenError
)

var kindNames = map[Kind]string{
	ReadError:           "read error",
	SyntaxError:         "syntax error",
	StructuralError:     "structural error",
	NameResolutionError: "name resolution error",
	TypeError:           "type error",
	CodeGenError:        "code generation error",
}

func (kind Kind) String() string {
	return kindNames[kind]
}

type Error struct {
	Kind Kind
	Msg  string
	File string
	Line int
}

func (e *Error) Error() string {
	if e.File == "" && e.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s:%d: %s", e.Kind, e.File, e.Line, e.Msg)
}

// At returns a copy of the error located at file:line. A location that is already set is kept.
func (e *Error) At(file string, line int) *Error {
	located := *e
	if located.File == "" {
		located.File = file
	}
	if located.Line == 0 {
		located.Line = line
	}
	return &located
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Read(format string, args ...interface{}) *Error {
	return New(ReadError, format, args...)
}

func Syntax(file string, line int, format string, args ...interface{}) *Error {
	e := New(SyntaxError, format, args...)
	e.File, e.Line = file, line
	return e
}

func Structural(format string, args ...interface{}) *Error {
	return New(StructuralError, format, args...)
}

func Name(format string, args ...interface{}) *Error {
	return New(NameResolutionError, format, args...)
}

func Type(format string, args ...interface{}) *Error {
	return New(TypeError, format, args...)
}

func CodeGen(format string, args ...interface{}) *Error {
	return New(CodeGenError, format, args...)
}

// KindOf reports the kind of a compile error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// ColorMode is one of "auto", "always" or "never".
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// UseColor decides whether diagnostics written to f are colorized.
func UseColor(mode ColorMode, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printer writes compile errors for humans.
type Printer struct {
	W     io.Writer
	Color bool
}

func (p *Printer) Print(err error) {
	var e *Error
	if !errors.As(err, &e) {
		fmt.Fprintf(p.W, "[Compiler]: %v\n", err)
		return
	}
	kind := e.Kind.String()
	if p.Color {
		kind = "\033[1;31m" + kind + "\033[0m"
	}
	if e.File == "" && e.Line == 0 {
		fmt.Fprintf(p.W, "[Compiler]: %s: %s\n", kind, e.Msg)
		return
	}
	fmt.Fprintf(p.W, "[Compiler]: %s: %s:%d: %s\n", kind, e.File, e.Line, e.Msg)
}
