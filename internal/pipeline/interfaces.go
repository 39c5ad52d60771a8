package pipeline

import "github.com/ajalt/eece6083-compiler/internal/token"

// Processor is any component that can process a Context and
// return a (possibly the same) modified context.
type Processor interface {
	Process(ctx *Context) *Context
}

// TokenStream defines the contract a scanner offers a parser.
type TokenStream interface {
	// Next consumes and returns the next token from the stream.
	Next() token.Token

	// Peek returns up to the next n tokens without consuming them. If
	// fewer than n tokens remain, it returns all remaining ones.
	Peek(n int) []token.Token
}
