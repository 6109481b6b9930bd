package main

import (
	"testing"

	"github.com/gmofishsauce/light/internal/ast"
	"github.com/gmofishsauce/light/internal/hir"
	"github.com/gmofishsauce/light/internal/lexer"
	"github.com/gmofishsauce/light/internal/lower"
	"github.com/gmofishsauce/light/internal/parser"
	"github.com/gmofishsauce/light/internal/symtab"
	"github.com/gmofishsauce/light/internal/tych"
)

func mustLowerSrc(t *testing.T, src string) *hir.Hir {
	t.Helper()
	toks, err := lexer.Scan(src)
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	table := symtab.New()
	prog, err := parser.Parse(toks, table)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	typed, err := tych.Check(prog, table, "")
	if err != nil {
		t.Fatalf("check error: %v", err)
	}
	h, err := lower.Lower(typed, table)
	if err != nil {
		t.Fatalf("lower error: %v", err)
	}
	return h
}

func TestVerifyAcceptsWellFormedHir(t *testing.T) {
	src := `struct Point {
		let x: int;
		let y: int;
		fn sum() -> int { self.x + self.y; }
	}
	fn f(p: Point) -> int { p.sum(); }`
	h := mustLowerSrc(t, src)
	if err := verify(h); err != nil {
		t.Errorf("verify = %v, want nil", err)
	}
}

func TestVerifyRejectsOutOfRangeFieldIndex(t *testing.T) {
	src := `struct Point { let x: int; let y: int; }
	fn f(p: Point) -> int { p.y; }`
	h := mustLowerSrc(t, src)

	var sel *ast.Node
	for _, fn := range h.Functions {
		if fn.Fn.Proto.Name == "f" {
			sel = fn.Fn.Body.Block.List[0]
		}
	}
	if sel == nil || sel.Kind != ast.KindFSelector {
		t.Fatal("expected function f's body to be a single FSelector statement")
	}
	sel.FSelector.FieldIndex = 5

	if err := verify(h); err == nil {
		t.Error("verify accepted an out-of-range field index; want error")
	}
}

func TestVerifyRejectsUnknownCallTarget(t *testing.T) {
	src := `fn f() -> int { 1; }`
	h := mustLowerSrc(t, src)
	h.Functions[0].Fn.Body.Block.List[0] = &ast.Node{
		Kind: ast.KindCall,
		Call: &ast.CallNode{Name: "_no_such_function", Args: nil},
	}

	if err := verify(h); err == nil {
		t.Error("verify accepted a call to an unregistered fq_name; want error")
	}
}
