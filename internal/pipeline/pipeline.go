package pipeline

// Pipeline runs a fixed sequence of Processors, one per compiler phase.
// A failure in one phase is terminal: per §5's resource model, later
// phases never run against an invalid tree.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run feeds ctx through each processor in order, stopping as soon as
// one leaves the context in a failed state.
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, proc := range p.processors {
		ctx = proc.Process(ctx)
		if ctx.Failed() {
			break
		}
	}
	return ctx
}
