package codegen

import (
	"strings"
	"testing"

	"github.com/ajalt/eece6083-compiler/internal/ast"
	"github.com/ajalt/eece6083-compiler/internal/symbols"
	"github.com/ajalt/eece6083-compiler/internal/token"
)

func TestRegisterHeapReusesFreedIndices(t *testing.T) {
	a := newAllocator()
	r0 := a.acquire()
	r1 := a.acquire()
	a.release(r0)
	r2 := a.acquire()
	if r2 != r0 {
		t.Errorf("expected the freed register %v to be reused, got %v", r0, r2)
	}
	if r1 == r2 {
		t.Errorf("r1 and r2 should not collide: %v vs %v", r1, r2)
	}
}

func TestRegisterHeapBumpsHighWaterMark(t *testing.T) {
	a := newAllocator()
	for i := 0; i < 4; i++ {
		a.acquire()
	}
	if a.size() != 4 {
		t.Errorf("size() = %d, want 4", a.size())
	}
}

func TestRegisterString(t *testing.T) {
	if got := Register(3).String(); got != "R[3]" {
		t.Errorf("Register(3).String() = %q, want R[3]", got)
	}
}

func TestScanGlobalsAssignsOffsetsInOrder(t *testing.T) {
	n := 10
	a := &ast.VarDecl{Name: &ast.Name{Value: "a"}}
	b := &ast.VarDecl{Name: &ast.Name{Value: "b"}, ArrayLength: &n}
	c := &ast.VarDecl{Name: &ast.Name{Value: "c"}}

	resolved := map[*ast.Name]*symbols.Symbol{}
	symA := &symbols.Symbol{Name: "a", IsGlobal: true, VarDecl: a}
	symB := &symbols.Symbol{Name: "b", IsGlobal: true, VarDecl: b}
	symC := &symbols.Symbol{Name: "c", IsGlobal: true, VarDecl: c}
	resolved[a.Name] = symA
	resolved[b.Name] = symB
	resolved[c.Name] = symC

	prog := &ast.Program{Decls: []ast.Declaration{a, b, c}}

	g := &Generator{resolved: resolved, globals: map[*symbols.Symbol]int{}}
	g.scanGlobals(prog)

	if g.globals[symA] != 0 {
		t.Errorf("a at %d, want 0", g.globals[symA])
	}
	if g.globals[symB] != 1 {
		t.Errorf("b at %d, want 1", g.globals[symB])
	}
	if g.globals[symC] != 1+n {
		t.Errorf("c at %d, want %d", g.globals[symC], 1+n)
	}
}

func TestScanProcLayoutsParameterOffsets(t *testing.T) {
	p1 := &ast.Param{VarDecl: &ast.VarDecl{Name: &ast.Name{Value: "p1"}}, Direction: ast.DirIn}
	p2 := &ast.Param{VarDecl: &ast.VarDecl{Name: &ast.Name{Value: "p2"}}, Direction: ast.DirOut}
	pd := &ast.ProcDecl{Name: &ast.Name{Value: "f"}, Params: []*ast.Param{p1, p2}}

	resolved := map[*ast.Name]*symbols.Symbol{}
	sym1 := &symbols.Symbol{Name: "p1", VarDecl: p1.VarDecl, Param: p1}
	sym2 := &symbols.Symbol{Name: "p2", VarDecl: p2.VarDecl, Param: p2}
	resolved[p1.VarDecl.Name] = sym1
	resolved[p2.VarDecl.Name] = sym2

	g := &Generator{resolved: resolved, layouts: map[*ast.ProcDecl]*frameLayout{}}
	g.scanProcLayouts(pd)

	layout := g.layouts[pd]
	// N=2: param 1 at FP-(N+1)=FP-3, param 2 at FP-2.
	if layout.params[sym1] != 3 {
		t.Errorf("p1 k = %d, want 3", layout.params[sym1])
	}
	if layout.params[sym2] != 2 {
		t.Errorf("p2 k = %d, want 2", layout.params[sym2])
	}
	if layout.frameSize != 2+2 {
		t.Errorf("frameSize = %d, want 4 (0 locals + 2 params + 2)", layout.frameSize)
	}
}

func TestProcLabelMangling(t *testing.T) {
	global := &ast.ProcDecl{Name: &ast.Name{Value: "foo"}, IsGlobal: true}
	local := &ast.ProcDecl{Name: &ast.Name{Value: "bar"}, IsGlobal: false}

	if got := procLabel(global); got != "__global_foo" {
		t.Errorf("procLabel(global) = %q", got)
	}
	if got := procLabel(local); got != "bar" {
		t.Errorf("procLabel(local) = %q", got)
	}
}

func TestGenerateEmitsEntryLabelAndGoto(t *testing.T) {
	prog := &ast.Program{
		Name: &ast.Name{Value: "demo"},
		Body: []ast.Statement{&ast.Return{}},
	}
	g := New()
	out, err := g.Generate(prog, map[*ast.Name]*symbols.Symbol{}, false, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "goto demo;") {
		t.Errorf("missing entry goto, got:\n%s", out)
	}
	if !strings.Contains(out, "demo:") {
		t.Errorf("missing entry label, got:\n%s", out)
	}
	if !strings.Contains(out, "int main(void)") {
		t.Errorf("missing main(), got:\n%s", out)
	}
}

func TestGenerateAssignStoresThroughGlobalAddress(t *testing.T) {
	target := &ast.Name{Value: "x"}
	vd := &ast.VarDecl{Name: &ast.Name{Value: "x"}, Type: token.INT_TY}
	sym := &symbols.Symbol{Name: "x", Kind: symbols.VarSymbol, IsGlobal: true, VarDecl: vd}
	resolved := map[*ast.Name]*symbols.Symbol{vd.Name: sym, target: sym}

	assign := &ast.Assign{Target: target, Value: &ast.Num{Lexeme: "5"}}
	prog := &ast.Program{Decls: []ast.Declaration{vd}, Body: []ast.Statement{assign}}

	g := New()
	out, err := g.Generate(prog, resolved, false, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "MM[0] = R[") {
		t.Errorf("expected a store to MM[0], got:\n%s", out)
	}
}
