package symtab

import (
	"testing"

	"github.com/gmofishsauce/light/internal/types"
)

func TestInsertAndGetAcrossScopes(t *testing.T) {
	tab := New()
	tab.Insert(NewVar("x", types.Int32, ""))

	tab.EnterScope()
	tab.Insert(NewVar("y", types.Bool, ""))

	if _, ok := tab.Get("x"); !ok {
		t.Error("Get(x) not found from nested scope; want visible through enclosing scope")
	}
	if _, ok := tab.Get("y"); !ok {
		t.Error("Get(y) not found in its own scope")
	}

	tab.LeaveScope()
	if _, ok := tab.Get("y"); ok {
		t.Error("Get(y) found after LeaveScope; want it gone")
	}
	if _, ok := tab.Get("x"); !ok {
		t.Error("Get(x) not found after LeaveScope; want it still visible")
	}
}

func TestShadowing(t *testing.T) {
	tab := New()
	tab.Insert(NewVar("x", types.Int32, ""))
	tab.EnterScope()
	tab.Insert(NewVar("x", types.Bool, ""))

	sym, ok := tab.Get("x")
	if !ok {
		t.Fatal("Get(x) not found")
	}
	if sym.Var.Ty != types.Bool {
		t.Errorf("Get(x) = %v, want the inner shadow (Bool)", sym.Var.Ty)
	}
}

func TestLeaveGlobalScopePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("LeaveScope on the global frame did not panic")
		}
	}()
	New().LeaveScope()
}

func TestResolveSymbolModuleQualified(t *testing.T) {
	tab := New()
	tab.InsertWithName("math::sqrt", NewFn("sqrt", "sqrt~double", nil, types.Double, false, "math", true))

	if _, ok := tab.ResolveSymbol("sqrt", ""); ok {
		t.Error("ResolveSymbol(sqrt, \"\") found an unqualified match; want none")
	}
	sym, ok := tab.ResolveSymbol("sqrt", "math")
	if !ok {
		t.Fatal("ResolveSymbol(sqrt, math) not found")
	}
	if sym.Fn.FQName != "sqrt~double" {
		t.Errorf("ResolveSymbol(sqrt, math).Fn.FQName = %s, want sqrt~double", sym.Fn.FQName)
	}
}

func TestDumpTableInsertionOrder(t *testing.T) {
	tab := New()
	tab.Insert(NewVar("b", types.Int32, ""))
	tab.Insert(NewVar("a", types.Int32, ""))
	tab.Insert(NewVar("c", types.Int32, ""))

	got := tab.DumpTable(0)
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("DumpTable(0) = %d symbols, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("DumpTable(0)[%d].Name = %s, want %s", i, got[i].Name, name)
		}
	}
}

func TestTypesReturnsOnlyStructs(t *testing.T) {
	tab := New()
	tab.Insert(NewVar("x", types.Int32, ""))
	tab.Insert(NewStruct("Point", []StructField{{Name: "x", TypeName: "int"}}, nil, "", true))

	names := tab.Types()
	if len(names) != 1 || names[0] != "Point" {
		t.Errorf("Types() = %v, want [Point]", names)
	}
}

func TestAllNamesIncludesOpenFrames(t *testing.T) {
	tab := New()
	tab.Insert(NewVar("global", types.Int32, ""))
	tab.EnterScope()
	tab.Insert(NewVar("local", types.Int32, ""))

	names := tab.AllNames()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["global"] || !found["local"] {
		t.Errorf("AllNames() = %v, want both global and local", names)
	}
}
