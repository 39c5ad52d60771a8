// Package diagnostics renders the scanner/parser/checker's accumulated
// errors in the user-visible format §7 requires: an "Error on line N"
// header followed by the source line and a caret/tilde underline
// spanning the offending token.
package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ajalt/eece6083-compiler/internal/token"
)

// Phase identifies which compiler stage raised a Diagnostic.
type Phase string

const (
	PhaseScanner Phase = "scanner"
	PhaseParser  Phase = "parser"
	PhaseChecker Phase = "checker"
	PhaseCodegen Phase = "codegen"
)

// Code is a short, stable identifier for one class of error, grouped by
// phase in the §7 error taxonomy.
type Code string

const (
	ErrIllegalChar       Code = "S001" // invalid character / unterminated string
	ErrUnexpectedToken   Code = "P001" // expected X, found Y
	ErrBadNumber         Code = "P002" // malformed numeric literal
	ErrBadSubscript      Code = "P003" // subscript applied to a non-name target
	ErrUndeclaredName    Code = "C001"
	ErrRedefinition      Code = "C002"
	ErrArityMismatch     Code = "C003"
	ErrTypeMismatch      Code = "C004"
	ErrForbiddenOp       Code = "C005"
	ErrReadFromOut       Code = "C006"
	ErrWriteToIn         Code = "C007"
	ErrGlobalAtInner     Code = "C008"
	ErrBadArraySize      Code = "C009"
	ErrNotAnArray        Code = "C010"
	ErrBadOutArgShape    Code = "C011"
	ErrRegisterExhausted Code = "G001"
	ErrMalformedTree     Code = "G002"
)

var templates = map[Code]string{
	ErrIllegalChar:       "%s",
	ErrUnexpectedToken:   "expected %s, found %s",
	ErrBadNumber:         "malformed numeric literal '%s'",
	ErrBadSubscript:      "only a name can be subscripted",
	ErrUndeclaredName:    "'%s' is not declared",
	ErrRedefinition:      "'%s' is already declared in this scope",
	ErrArityMismatch:     "procedure '%s' expects %d argument(s), got %d",
	ErrTypeMismatch:      "incompatible types %s and %s",
	ErrForbiddenOp:       "operator '%s' is not defined for %s",
	ErrReadFromOut:       "'%s' is an out parameter and cannot be read",
	ErrWriteToIn:         "'%s' is an in parameter and cannot be assigned",
	ErrGlobalAtInner:     "'global' is only legal in the program's top-level declarations",
	ErrBadArraySize:      "array size must be a positive integer literal",
	ErrNotAnArray:        "'%s' is not an array and cannot be subscripted",
	ErrBadOutArgShape:    "argument for out parameter '%s' must be a variable name",
	ErrRegisterExhausted: "ran out of registers (limit %d)",
	ErrMalformedTree:     "internal error: %s",
}

// Diagnostic is one reported error, always carrying the token whose
// span it points at.
type Diagnostic struct {
	Phase Phase
	Code  Code
	Tok   token.Token
	Args  []interface{}
}

func (d *Diagnostic) message() string {
	tmpl, ok := templates[d.Code]
	if !ok {
		return string(d.Code)
	}
	return fmt.Sprintf(tmpl, d.Args...)
}

// Error satisfies the error interface with a one-line summary; Render
// produces the full multi-line, source-quoting form.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("line %d: %s", d.Tok.Line, d.message())
}

func New(phase Phase, code Code, tok token.Token, args ...interface{}) *Diagnostic {
	return &Diagnostic{Phase: phase, Code: code, Tok: tok, Args: args}
}

// Bag accumulates diagnostics across a phase without aborting on the
// first one, matching the scanner/parser/checker's "keep going, report
// a final success boolean" policy.
type Bag struct {
	items []*Diagnostic
}

func (b *Bag) Add(d *Diagnostic) { b.items = append(b.items, d) }

func (b *Bag) OK() bool { return len(b.items) == 0 }

func (b *Bag) Items() []*Diagnostic { return b.items }

// Render writes every diagnostic in b to w in the §7 format:
//
//	Error on line N: <message>
//	<source line>
//	   ^~~~
//
// Colorized when the process's stdout is a terminal: fatih/color makes
// that decision once, from os.Stdout, whatever w is.
func (b *Bag) Render(w io.Writer) {
	for _, d := range b.items {
		RenderOne(w, d)
	}
}

// RenderOne writes a single diagnostic in the §7 format.
func RenderOne(w io.Writer, d *Diagnostic) {
	headerColor := color.New(color.FgRed, color.Bold)
	underlineColor := color.New(color.FgRed)

	headerColor.Fprintf(w, "Error on line %d: ", d.Tok.Line)
	fmt.Fprintln(w, d.message())

	if d.Tok.LineText == "" && d.Tok.Line == 0 {
		return
	}
	fmt.Fprintln(w, d.Tok.LineText)

	underlineColor.Fprintln(w, underline(d.Tok))
}

// underline builds the caret/tilde marker line beneath the source line:
// a single '^' for a one-column token, or '^' followed by '~' for the
// rest of a multi-column span.
func underline(tok token.Token) string {
	start, end := tok.StartColumn, tok.EndColumn
	if end < start {
		end = start
	}
	var b strings.Builder
	for i := 0; i < start; i++ {
		b.WriteByte(' ')
	}
	b.WriteByte('^')
	for i := start + 1; i <= end; i++ {
		b.WriteByte('~')
	}
	return b.String()
}
