package codegen

import "fmt"

// internString records lexeme (including its surrounding quotes) as a
// file-scope C string constant and returns the C identifier that
// names it. Repeated literals with the same text share one constant.
func (g *Generator) internString(lexeme string) string {
	if name, ok := g.stringNames[lexeme]; ok {
		return name
	}
	name := fmt.Sprintf("STR_%d", len(g.stringLiterals))
	g.stringNames[lexeme] = name
	g.stringLiterals = append(g.stringLiterals, stringConst{name: name, lexeme: lexeme})
	return name
}

type stringConst struct {
	name   string
	lexeme string
}
