package optimizer

import (
	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/pipeline"
	"github.com/ajalt/eece6083-compiler/internal/symbols"
)

// maxIterations bounds the Level 2 fixed-point loop. Three rounds is
// enough for every program this language can express: propagation and
// elimination can each only ever shrink or simplify the tree, and in
// practice they settle in one or two passes.
const maxIterations = 3

// Optimizer implements pipeline.Processor. OptLevel 0 leaves the tree
// untouched, 1 runs constant folding alone, and 2 additionally runs
// constant propagation and dead-code elimination to a fixed point.
type Optimizer struct {
	Warnings []string
}

func New() *Optimizer { return &Optimizer{} }

func (o *Optimizer) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Program == nil {
		return ctx
	}
	o.Run(ctx.Program, ctx.OptLevel, ctx.Resolutions)
	return ctx
}

// Run applies the requested optimization level directly, outside a
// Pipeline. resolved is the checker's Name->Symbol map (ctx.Resolutions);
// levels below 2 never consult it.
func (o *Optimizer) Run(prog *ast.Program, level int, resolved map[*ast.Name]*symbols.Symbol) {
	if level <= 0 {
		return
	}
	FoldConstants(prog)
	if level == 1 {
		return
	}

	for i := 0; i < maxIterations; i++ {
		prop := newPropagator(resolved)
		changed := prop.run(prog)
		if prop.Warning != "" {
			o.Warnings = append(o.Warnings, prop.Warning)
		}

		elim := newEliminator(resolved)
		elimChanged := elim.run(prog)

		if !changed && !elimChanged {
			break
		}
	}
}
