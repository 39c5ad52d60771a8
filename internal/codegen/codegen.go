// Package codegen lowers a checked, optimized AST to portable C. The
// generated program is a single main() using computed gotos
// (address-of-label) to jump between basic blocks that correspond to
// procedure entry points and control-flow labels, so that procedures
// need no C function boundaries and the hand-rolled stack model (MM[],
// SP, FP) stays the single source of truth for the running program's
// state.
//
// Calling convention (stack grows up, relative to the callee's FP):
//
//	higher addresses
//	+----------------------+
//	| local variables      | <- SP (after prologue)
//	| ...                  |
//	+----------------------+
//	| return address       | <- FP
//	+----------------------+
//	| caller FP            | <- FP - 1
//	+----------------------+
//	| parameter N          | <- FP - 2
//	| ...                  |
//	| parameter 1          | <- FP - (N+1)
//	+----------------------+
//
// The caller writes the arguments into consecutive slots just above its
// SP, parameter 1 first (lowest), so parameter N ends up next to the
// saved FP; "in" parameters by value, "out" parameters by address. The
// caller then pushes its own
// FP and the address of a return label before jumping to the callee's
// entry label.
package codegen

import (
	"fmt"
	"strings"

	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/config"
	"github.com/ajalt/eece6083-compiler/internal/diagnostics"
	"github.com/ajalt/eece6083-compiler/internal/pipeline"
	"github.com/ajalt/eece6083-compiler/internal/symbols"
)

// Generator walks a checked Program and emits C source. A Generator is
// single-use: call Generate once per program.
type Generator struct {
	resolved map[*ast.Name]*symbols.Symbol

	globals    map[*symbols.Symbol]int
	globalSize int
	layouts    map[*ast.ProcDecl]*frameLayout

	reg   *allocator
	cache map[*symbols.Symbol]Register // Name -> register holding its last-read value, cleared at every call

	stringLiterals []stringConst
	stringNames    map[string]string

	curProc       *ast.ProcDecl // nil while generating the top-level program body
	labelCounters map[string]int

	verbose        bool
	includeRuntime bool

	Warnings []string
}

// New returns a Generator ready for one call to Generate.
func New() *Generator { return &Generator{} }

// Process implements pipeline.Processor.
func (g *Generator) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Program == nil || ctx.Failed() {
		return ctx
	}
	code, err := g.Generate(ctx.Program, ctx.Resolutions, ctx.VerboseAssembly, ctx.IncludeRuntime)
	if err != nil {
		ctx.Diagnostics.Add(diagnostics.New(diagnostics.PhaseCodegen, diagnostics.ErrMalformedTree, ctx.Program.Tok, err.Error()))
		return ctx
	}
	ctx.GeneratedC = code
	return ctx
}

// Generate lowers prog to a complete C translation unit. resolved is
// the checker's Name->Symbol map; it must be non-nil for any program
// that references a variable or calls a procedure.
func (g *Generator) Generate(prog *ast.Program, resolved map[*ast.Name]*symbols.Symbol, verbose, includeRuntime bool) (string, error) {
	g.resolved = resolved
	g.globals = make(map[*symbols.Symbol]int)
	g.layouts = make(map[*ast.ProcDecl]*frameLayout)
	g.reg = newAllocator()
	g.cache = make(map[*symbols.Symbol]Register)
	g.stringNames = make(map[string]string)
	g.labelCounters = make(map[string]int)
	g.verbose = verbose
	g.includeRuntime = includeRuntime

	g.scanGlobals(prog)
	for _, pd := range flattenProcs(prog.Decls) {
		g.scanProcLayouts(pd)
	}

	var body strings.Builder
	for _, pd := range flattenProcs(prog.Decls) {
		g.curProc = pd
		g.cache = make(map[*symbols.Symbol]Register)
		g.genProcDecl(&body, pd)
	}

	g.curProc = nil
	g.cache = make(map[*symbols.Symbol]Register)
	entryLabel := "program_entry"
	if prog.Name != nil {
		entryLabel = prog.Name.Value
	}
	fmt.Fprintf(&body, "%s:\n", entryLabel)
	// The global region occupies MM[0, globalSize); every call's frame
	// is written relative to SP, so SP must clear that region before
	// the first call, or the callee's saved FP/return label would
	// overwrite the globals themselves.
	fmt.Fprintf(&body, "SP = SP + %d;\n", g.globalSize)
	g.genStmts(&body, prog.Body)

	return g.assemble(entryLabel, &body), nil
}

// assemble wraps the generated body (procedures plus the top-level
// program label) in the preamble declaring MM[]/R[]/string constants
// and the main() computed-goto entry, and the closing brace.
func (g *Generator) assemble(entryLabel string, body *strings.Builder) string {
	var out strings.Builder

	out.WriteString("#include <stdio.h>\n")
	out.WriteString("#include <string.h>\n")
	out.WriteString("#include <stdbool.h>\n")
	if g.includeRuntime {
		out.WriteString("#include \"runtime.h\"\n")
	}
	fmt.Fprintf(&out, "\n#define MM_SIZE %d\n", config.MM_SIZE)
	out.WriteString("int MM[MM_SIZE];\n")
	fmt.Fprintf(&out, "int R[%d];\n", g.reg.size())
	out.WriteString("float FLOAT_REG_1, FLOAT_REG_2;\n")
	out.WriteString("int SP = 0, FP = 0, HP = MM_SIZE - 1;\n\n")

	for _, sc := range g.stringLiterals {
		fmt.Fprintf(&out, "static const char *%s = %s;\n", sc.name, sc.lexeme)
	}
	if len(g.stringLiterals) > 0 {
		out.WriteByte('\n')
	}

	out.WriteString("int main(void) {\n")
	fmt.Fprintf(&out, "    goto %s;\n", entryLabel)
	for _, line := range strings.Split(strings.TrimRight(body.String(), "\n"), "\n") {
		out.WriteString("    ")
		out.WriteString(line)
		out.WriteByte('\n')
	}
	out.WriteString("    return 0;\n")
	out.WriteString("}\n")

	return out.String()
}

// procLabel implements §4.6's label mangling: top-level ("global")
// procedures emit __global_<name>, nested ones use the bare name.
func procLabel(pd *ast.ProcDecl) string {
	if pd.IsGlobal {
		return "__global_" + pd.Name.Value
	}
	return pd.Name.Value
}

func epilogueLabel(pd *ast.ProcDecl) string { return procLabel(pd) + "_epilogue" }

// nextReturnLabel uniquifies a call-site return label with a
// per-callee-name counter, per §4.6.
func (g *Generator) nextReturnLabel(calleeName string) string {
	g.labelCounters[calleeName]++
	return fmt.Sprintf("%s_ret_%d", calleeName, g.labelCounters[calleeName])
}

// genProcDecl emits one procedure's entry label, prologue, body and
// epilogue. Falling off the end of the body reaches the epilogue
// directly since it is emitted immediately afterward; a `return`
// statement inside the body instead gotos there explicitly.
func (g *Generator) genProcDecl(buf *strings.Builder, pd *ast.ProcDecl) {
	layout := g.layouts[pd]
	n := len(pd.Params)

	if g.verbose {
		fmt.Fprintf(buf, "// procedure %s\n", pd.Name.Value)
	}
	fmt.Fprintf(buf, "%s:\n", procLabel(pd))
	fmt.Fprintf(buf, "FP = SP + %d + 2;\n", n)
	fmt.Fprintf(buf, "SP = SP + %d;\n", layout.frameSize)

	g.genStmts(buf, pd.Body)

	fmt.Fprintf(buf, "%s:\n", epilogueLabel(pd))
	g.spillOutParamsAndGlobals(buf, pd)
	fmt.Fprintf(buf, "SP = FP - %d;\n", n+2)
	buf.WriteString("R[0] = MM[FP];\n")     // return address, saved at FP
	buf.WriteString("FP = MM[FP - 1];\n")   // caller's FP, saved at FP-1
	buf.WriteString("goto *(void *)R[0];\n")
}

// spillOutParamsAndGlobals writes every register cached for one of
// pd's out-parameters or a global back to memory before the epilogue
// restores FP. Since every store in this generator writes through to
// memory immediately (see genAssign), there is nothing left to flush;
// this only needs to drop the cache so a caller resuming after the
// call reloads fresh values instead of reusing a stale register.
func (g *Generator) spillOutParamsAndGlobals(buf *strings.Builder, pd *ast.ProcDecl) {
	g.cache = make(map[*symbols.Symbol]Register)
}
