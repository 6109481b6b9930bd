package parser

import (
	"testing"

	"github.com/gmofishsauce/light/internal/ast"
	"github.com/gmofishsauce/light/internal/lexer"
	"github.com/gmofishsauce/light/internal/symtab"
	"github.com/gmofishsauce/light/internal/types"
)

func mustParse(t *testing.T, src string) (*ast.Ast, *symtab.SymbolTable) {
	t.Helper()
	toks, err := lexer.Scan(src)
	if err != nil {
		t.Fatalf("lexer.Scan(%q) error: %v", src, err)
	}
	table := symtab.New()
	prog, err := Parse(toks, table)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return prog, table
}

func TestParseSimpleFn(t *testing.T) {
	prog, table := mustParse(t, "fn add(a: int, b: int) -> int { a + b; }")
	if len(prog.Decls) != 1 {
		t.Fatalf("got %d decls, want 1", len(prog.Decls))
	}
	fn := prog.Decls[0]
	if fn.Kind != ast.KindFn {
		t.Fatalf("decl kind = %v, want KindFn", fn.Kind)
	}
	if fn.Fn.Proto.Name != "add" {
		t.Errorf("proto name = %s, want add", fn.Fn.Proto.Name)
	}
	if len(fn.Fn.Proto.Args) != 2 {
		t.Errorf("got %d params, want 2", len(fn.Fn.Proto.Args))
	}
	if _, ok := table.Get("add"); !ok {
		t.Error("add not registered in symbol table")
	}
}

func TestParseExternFn(t *testing.T) {
	_, table := mustParse(t, "extern fn puts(s: int);")
	sym, ok := table.Get("puts")
	if !ok {
		t.Fatal("puts not registered")
	}
	if !sym.Fn.IsExtern {
		t.Error("puts.Fn.IsExtern = false, want true")
	}
}

func TestParseStructWithMethodMangling(t *testing.T) {
	src := `struct Point {
		let x: int;
		let y: int;
		fn sum() -> int { x + y; }
	}`
	prog, table := mustParse(t, src)
	if len(prog.Decls) != 1 || prog.Decls[0].Kind != ast.KindStruct {
		t.Fatalf("expected a single struct decl, got %v", prog.Decls)
	}
	st := prog.Decls[0].Struct
	if len(st.Fields) != 2 {
		t.Errorf("got %d fields, want 2", len(st.Fields))
	}
	if len(st.Methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(st.Methods))
	}
	mangled := st.Methods[0].Fn.Proto.Name
	if mangled != "_Point_sum" {
		t.Errorf("mangled method name = %s, want _Point_sum", mangled)
	}
	if _, ok := table.Get("_Point_sum"); !ok {
		t.Error("_Point_sum not registered in symbol table")
	}
	if _, ok := table.Get("sum"); ok {
		t.Error("unmangled 'sum' should not be registered at top level")
	}
}

func TestStructFieldCannotHaveInitializer(t *testing.T) {
	src := `struct Point { let x: int = 1; }`
	toks, err := lexer.Scan(src)
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	if _, err := Parse(toks, symtab.New()); err == nil {
		t.Error("Parse accepted a struct field initializer; want error")
	}
}

func TestDuplicateTopLevelNameErrors(t *testing.T) {
	src := "fn f() {} fn f() {}"
	toks, err := lexer.Scan(src)
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	if _, err := Parse(toks, symtab.New()); err == nil {
		t.Error("Parse accepted a duplicate top-level name; want error")
	}
}

func TestOperatorPrecedence(t *testing.T) {
	// 1 + 2 * 3 must parse as 1 + (2 * 3): the outer node is '+'.
	prog, _ := mustParse(t, "fn f() -> int { 1 + 2 * 3; }")
	body := prog.Decls[0].Fn.Body.Block.List[0]
	if body.Kind != ast.KindBinOp {
		t.Fatalf("top expr kind = %v, want KindBinOp", body.Kind)
	}
	if body.BinOp.Op.String() != "+" {
		t.Errorf("top operator = %s, want +", body.BinOp.Op)
	}
	rhs := body.BinOp.RHS
	if rhs.Kind != ast.KindBinOp || rhs.BinOp.Op.String() != "*" {
		t.Errorf("rhs = %v, want a '*' BinOp", rhs)
	}
}

func TestAssignmentIsRightAssociative(t *testing.T) {
	prog, _ := mustParse(t, "fn f() { a = b = c; }")
	stmt := prog.Decls[0].Fn.Body.Block.List[0]
	if stmt.Kind != ast.KindBinOp || stmt.BinOp.Op.String() != "=" {
		t.Fatalf("stmt = %v, want top-level '=' BinOp", stmt)
	}
	rhs := stmt.BinOp.RHS
	if rhs.Kind != ast.KindBinOp || rhs.BinOp.Op.String() != "=" {
		t.Errorf("rhs = %v, want nested '=' BinOp", rhs)
	}
}

func TestMethodCallParsesAsMSelector(t *testing.T) {
	prog, _ := mustParse(t, "fn f() { p.sum(); }")
	stmt := prog.Decls[0].Fn.Body.Block.List[0]
	if stmt.Kind != ast.KindMSelector {
		t.Fatalf("stmt kind = %v, want KindMSelector", stmt.Kind)
	}
	if stmt.MSelector.MethodName != "sum" {
		t.Errorf("method name = %s, want sum", stmt.MSelector.MethodName)
	}
}

func TestFieldSelectorVsMethodCall(t *testing.T) {
	prog, _ := mustParse(t, "fn f() { p.x; }")
	stmt := prog.Decls[0].Fn.Body.Block.List[0]
	if stmt.Kind != ast.KindFSelector {
		t.Fatalf("stmt kind = %v, want KindFSelector", stmt.Kind)
	}
}

func TestArrayTypeAndIndex(t *testing.T) {
	prog, _ := mustParse(t, "fn f(a: [int; 3]) -> int { a[0]; }")
	ty := prog.Decls[0].Fn.Proto.Args[0].Ty
	if ty.Kind != types.KindSArray || ty.Size != 3 {
		t.Fatalf("param type = %v, want a 3-element array", ty)
	}
	body := prog.Decls[0].Fn.Body.Block.List[0]
	if body.Kind != ast.KindIndex {
		t.Errorf("body kind = %v, want KindIndex", body.Kind)
	}
}

func TestForLoopHeader(t *testing.T) {
	prog, _ := mustParse(t, "fn f() { for i: int = 0; i < 10; i = i + 1 {} }")
	stmt := prog.Decls[0].Fn.Body.Block.List[0]
	if stmt.Kind != ast.KindFor {
		t.Fatalf("stmt kind = %v, want KindFor", stmt.Kind)
	}
	if stmt.For.StartName != "i" {
		t.Errorf("for start name = %s, want i", stmt.For.StartName)
	}
}

func TestIfElseChain(t *testing.T) {
	prog, _ := mustParse(t, "fn f() { if a { 1; } else if b { 2; } else { 3; } }")
	stmt := prog.Decls[0].Fn.Body.Block.List[0]
	if stmt.Kind != ast.KindCond {
		t.Fatalf("stmt kind = %v, want KindCond", stmt.Kind)
	}
	if stmt.Cond.ElseBlock == nil || stmt.Cond.ElseBlock.Kind != ast.KindCond {
		t.Error("else branch should itself be an if (else-if chain)")
	}
}

func TestIntLiteralParsesAsUInt64(t *testing.T) {
	prog, _ := mustParse(t, "fn f() -> int { 42; }")
	lit := prog.Decls[0].Fn.Body.Block.List[0]
	if lit.Kind != ast.KindLit || lit.Lit.Kind != ast.LitUInt64 {
		t.Fatalf("literal = %v, want a raw LitUInt64", lit)
	}
	if lit.Lit.UInt64Val != 42 {
		t.Errorf("literal value = %d, want 42", lit.Lit.UInt64Val)
	}
}

func TestFloatLiteralKeepsRawText(t *testing.T) {
	prog, _ := mustParse(t, "fn f() -> float { 1.5; }")
	lit := prog.Decls[0].Fn.Body.Block.List[0]
	if lit.Lit.Kind != ast.LitFloat {
		t.Fatalf("literal kind = %v, want LitFloat", lit.Lit.Kind)
	}
	if lit.Lit.RawNum != "1.5" {
		t.Errorf("RawNum = %s, want 1.5", lit.Lit.RawNum)
	}
}

func TestModuleDeclRegisters(t *testing.T) {
	_, table := mustParse(t, "module math;")
	if _, ok := table.Get("math"); !ok {
		t.Error("math module not registered in symbol table")
	}
}
