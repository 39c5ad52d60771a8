package analyzer

import (
	"testing"

	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/diagnostics"
	"github.com/ajalt/eece6083-compiler/internal/lexer"
	"github.com/ajalt/eece6083-compiler/internal/parser"
	"github.com/ajalt/eece6083-compiler/internal/pipeline"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if len(p.Errors().Items()) != 0 {
		t.Fatalf("parse errors: %v", p.Errors().Items())
	}
	return prog
}

func codes(b *diagnostics.Bag) []diagnostics.Code {
	var out []diagnostics.Code
	for _, d := range b.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestCheckValidProgramHasNoErrors(t *testing.T) {
	src := `program demo is
		global int x;
		begin
			x := 1 + 2;
		end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 0 {
		t.Fatalf("unexpected errors: %v", errs.Items())
	}
}

func TestCheckUndeclaredName(t *testing.T) {
	src := `program demo is begin x := 1; end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 1 || errs.Items()[0].Code != diagnostics.ErrUndeclaredName {
		t.Errorf("expected a single ErrUndeclaredName, got %v", codes(errs))
	}
}

func TestCheckRedefinitionInSameScope(t *testing.T) {
	src := `program demo is
		global int x;
		global int x;
		begin end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 1 || errs.Items()[0].Code != diagnostics.ErrRedefinition {
		t.Errorf("expected a single ErrRedefinition, got %v", codes(errs))
	}
}

func TestCheckLocalShadowsGlobal(t *testing.T) {
	src := `program demo is
		global int x;
		procedure p()
			int x;
		begin
			x := 1;
		end procedure;
		begin end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 0 {
		t.Errorf("shadowing a global with a local should not error, got %v", codes(errs))
	}
}

func TestCheckGlobalAtInnerScopeIsRejected(t *testing.T) {
	src := `program demo is
		procedure p()
			global int x;
		begin end procedure;
		begin end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 1 || errs.Items()[0].Code != diagnostics.ErrGlobalAtInner {
		t.Errorf("expected a single ErrGlobalAtInner, got %v", codes(errs))
	}
}

func TestCheckTypeMismatchOnAssign(t *testing.T) {
	src := `program demo is
		global int x;
		global string s;
		begin
			x := s;
		end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 1 || errs.Items()[0].Code != diagnostics.ErrTypeMismatch {
		t.Errorf("expected a single ErrTypeMismatch, got %v", codes(errs))
	}
}

func TestCheckBoolAndIntUnifyToBool(t *testing.T) {
	src := `program demo is
		global bool b;
		global int i;
		global bool result;
		begin
			result := b and i;
		end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 0 {
		t.Fatalf("unexpected errors: %v", codes(errs))
	}
}

func TestCheckWriteToInParamIsRejected(t *testing.T) {
	src := `program demo is
		procedure p(int a in)
		begin
			a := 1;
		end procedure;
		begin end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 1 || errs.Items()[0].Code != diagnostics.ErrWriteToIn {
		t.Errorf("expected a single ErrWriteToIn, got %v", codes(errs))
	}
}

func TestCheckReadFromOutParamIsRejected(t *testing.T) {
	src := `program demo is
		global int dest;
		procedure p(int a out)
		begin
			dest := a + 1;
		end procedure;
		begin end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 1 || errs.Items()[0].Code != diagnostics.ErrReadFromOut {
		t.Errorf("expected a single ErrReadFromOut, got %v", codes(errs))
	}
}

func TestCheckForwardingOutParamAsOutArgIsAllowed(t *testing.T) {
	// x is g's out parameter, but forwarding it into f's own out slot
	// is a reference hand-off, not a read, so no ErrReadFromOut fires.
	src := `program demo is
		procedure f(int x out)
		begin end procedure;
		procedure g(int x out)
		begin
			f(x);
		end procedure;
		begin end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 0 {
		t.Errorf("expected no errors, got %v", codes(errs))
	}
}

func TestCheckArityMismatch(t *testing.T) {
	src := `program demo is
		procedure p(int a in)
		begin end procedure;
		begin
			p(1, 2);
		end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 1 || errs.Items()[0].Code != diagnostics.ErrArityMismatch {
		t.Errorf("expected a single ErrArityMismatch, got %v", codes(errs))
	}
}

func TestCheckOutArgMustBeForwardable(t *testing.T) {
	src := `program demo is
		procedure p(int a out)
		begin end procedure;
		begin
			p(1);
		end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 1 || errs.Items()[0].Code != diagnostics.ErrBadOutArgShape {
		t.Errorf("expected a single ErrBadOutArgShape, got %v", codes(errs))
	}
}

func TestCheckSubscriptOnNonArrayIsRejected(t *testing.T) {
	src := `program demo is
		global int x;
		begin
			x[0] := 1;
		end program`
	prog := mustParse(t, src)
	_, errs := Check(prog)
	if len(errs.Items()) != 1 || errs.Items()[0].Code != diagnostics.ErrNotAnArray {
		t.Errorf("expected a single ErrNotAnArray, got %v", codes(errs))
	}
}

func TestProcessPopulatesResolutionsForEveryReference(t *testing.T) {
	src := `program demo is
		global int x;
		begin
			x := x + 1;
		end program`
	prog := mustParse(t, src)

	ctx := pipeline.NewContext(src, "demo.src")
	ctx.Program = prog
	ctx = New().Process(ctx)

	if ctx.Failed() {
		t.Fatalf("unexpected diagnostics: %v", codes(&ctx.Diagnostics))
	}

	assign := prog.Body[0].(*ast.Assign)
	target := assign.Target.(*ast.Name)
	rhs := assign.Value.(*ast.BinaryOp).Left.(*ast.Name)

	targetSym, ok := ctx.Resolutions[target]
	if !ok {
		t.Fatalf("assignment target %q was not resolved", target.Value)
	}
	rhsSym, ok := ctx.Resolutions[rhs]
	if !ok {
		t.Fatalf("reference %q was not resolved", rhs.Value)
	}
	if targetSym != rhsSym {
		t.Errorf("both occurrences of x should resolve to the same symbol")
	}
	if !targetSym.IsGlobal {
		t.Errorf("expected x's symbol to be marked global")
	}
}
