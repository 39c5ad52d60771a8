package lexer

import (
	"testing"

	"github.com/ajalt/eece6083-compiler/internal/token"
)

func allTokens(src string) []token.Token {
	l := New(src)
	var out []token.Token
	for {
		tok := l.Next()
		out = append(out, tok)
		if tok.IsEOF() {
			return out
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexerPunctuationAndKeywords(t *testing.T) {
	toks := allTokens("global int x;")
	got := kinds(toks)
	want := []token.Kind{token.GLOBAL, token.INT_TY, token.IDENTIFIER, token.SEMICOLON, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexerAmbiguousOperators(t *testing.T) {
	tests := []struct {
		src  string
		kind token.Kind
	}{
		{"<", token.LT},
		{"<=", token.LTE},
		{">", token.GT},
		{">=", token.GTE},
		{":", token.COLON},
		{":=", token.ASSIGN},
		{"==", token.EQ},
		{"!=", token.NOT_EQ},
	}
	for _, tt := range tests {
		toks := allTokens(tt.src)
		if toks[0].Kind != tt.kind {
			t.Errorf("scanning %q: got %s, want %s", tt.src, toks[0].Kind, tt.kind)
		}
		if toks[0].Lexeme != tt.src {
			t.Errorf("scanning %q: lexeme = %q", tt.src, toks[0].Lexeme)
		}
	}
}

func TestLexerBangAloneIsIllegal(t *testing.T) {
	toks := allTokens("!x")
	if toks[0].Kind != token.ILLEGAL {
		t.Errorf("! alone should be ILLEGAL, got %s", toks[0].Kind)
	}
}

func TestLexerEqualsAloneIsIllegal(t *testing.T) {
	toks := allTokens("=x")
	if toks[0].Kind != token.ILLEGAL {
		t.Errorf("= alone should be ILLEGAL, got %s", toks[0].Kind)
	}
}

func TestLexerCommentsToEndOfLine(t *testing.T) {
	toks := allTokens("int x; // this is ignored\nint y;")
	got := kinds(toks)
	want := []token.Kind{
		token.INT_TY, token.IDENTIFIER, token.SEMICOLON,
		token.INT_TY, token.IDENTIFIER, token.SEMICOLON,
		token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLexerNumberStripsUnderscores(t *testing.T) {
	toks := allTokens("1_000")
	if toks[0].Kind != token.NUMBER {
		t.Fatalf("expected NUMBER, got %s", toks[0].Kind)
	}
	if toks[0].Lexeme != "1000" {
		t.Errorf("lexeme = %q, want 1000", toks[0].Lexeme)
	}
}

func TestLexerFloatLiteral(t *testing.T) {
	toks := allTokens("3.14")
	if toks[0].Kind != token.NUMBER || toks[0].Lexeme != "3.14" {
		t.Errorf("got %s %q", toks[0].Kind, toks[0].Lexeme)
	}
}

func TestLexerStringLiteral(t *testing.T) {
	toks := allTokens(`"hello, world"`)
	if toks[0].Kind != token.STRING {
		t.Fatalf("expected STRING, got %s", toks[0].Kind)
	}
	if toks[0].Lexeme != `"hello, world"` {
		t.Errorf("lexeme = %q", toks[0].Lexeme)
	}
}

func TestLexerUnterminatedStringEndsLine(t *testing.T) {
	toks := allTokens("\"unterminated\nint x;")
	if toks[0].Kind != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL for unterminated string, got %s", toks[0].Kind)
	}
	// Scanning of the first line stops at the unclosed quote; the next
	// line is still scanned normally.
	if toks[1].Kind != token.INT_TY {
		t.Errorf("expected scanning to resume on the next line, got %s", toks[1].Kind)
	}
}

func TestLexerIllegalCharacterInString(t *testing.T) {
	toks := allTokens(`"bad@char"`)
	if toks[0].Kind != token.ILLEGAL {
		t.Errorf("expected ILLEGAL for disallowed string character, got %s", toks[0].Kind)
	}
}

func TestLexerIllegalCharacterNeverAborts(t *testing.T) {
	toks := allTokens("x @ y")
	got := kinds(toks)
	want := []token.Kind{token.IDENTIFIER, token.ILLEGAL, token.IDENTIFIER, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	l := New("a b c")
	peeked := l.Peek(2)
	if len(peeked) != 2 {
		t.Fatalf("Peek(2) returned %d tokens", len(peeked))
	}
	first := l.Next()
	if first.Lexeme != peeked[0].Lexeme {
		t.Errorf("Next() after Peek() = %q, want %q", first.Lexeme, peeked[0].Lexeme)
	}
}

func TestLexerPeekAcrossLines(t *testing.T) {
	l := New("a\nb c")
	peeked := l.Peek(3)
	if len(peeked) != 3 {
		t.Fatalf("Peek(3) across lines returned %d tokens", len(peeked))
	}
	if peeked[1].Lexeme != "b" || peeked[2].Lexeme != "c" {
		t.Errorf("unexpected lookahead: %v", peeked)
	}
}

func TestLexerEOFIsSticky(t *testing.T) {
	l := New("x")
	l.Next()
	first := l.Next()
	second := l.Next()
	if !first.IsEOF() || !second.IsEOF() {
		t.Errorf("expected EOF to repeat, got %v then %v", first, second)
	}
}
