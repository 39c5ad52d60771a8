package pipeline

import (
	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/diagnostics"
	"github.com/ajalt/eece6083-compiler/internal/symbols"
)

// Context holds all the data passed between pipeline stages: the
// source, the token stream the parser consumes it through, the AST
// each later stage reads and rewrites, the symbol table the checker
// builds, and the accumulated diagnostics. A phase that adds to
// Diagnostics fails the whole compile; later phases are not run.
type Context struct {
	SourceCode  string
	FilePath    string
	TokenStream TokenStream
	Program     *ast.Program
	Symbols     *symbols.Table
	Diagnostics diagnostics.Bag

	// Resolutions maps every *ast.Name the checker resolved (both
	// declaration sites and later references) to the Symbol it names.
	// The checker's own scope stack is popped as it finishes walking
	// each procedure, so this is how later phases (optimizer, codegen)
	// still find out what a given Name refers to without re-resolving
	// it against a live scope.
	Resolutions map[*ast.Name]*symbols.Symbol

	OptLevel        int  // 0, 1, or 2, selects the optimizer level the driver requested
	VerboseAssembly bool // annotate generated C with source comments
	IncludeRuntime  bool // link against runtime.c

	// GeneratedC is the code generator's output, set once the codegen
	// phase runs successfully.
	GeneratedC string
}

// NewContext builds a Context ready for the scanner/parser stage.
func NewContext(source, filePath string) *Context {
	return &Context{
		SourceCode: source,
		FilePath:   filePath,
		Symbols:    symbols.NewTable(),
	}
}

// Failed reports whether this phase (or an earlier one) recorded any
// diagnostic, meaning the pipeline must stop before the next phase.
func (c *Context) Failed() bool { return !c.Diagnostics.OK() }
