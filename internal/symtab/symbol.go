// Package symtab implements the scoped, insertion-ordered symbol table:
// each entry carries its FnData/VarData/StructData variant, fq_name, and exportability.
// The scope-stack mechanics (enter/leave, lexical search) follow
// lang/yparse/symtab.go's Define*/Lookup* conventions, generalized from a
// flat global+function-local pair into an arbitrary-depth stack.
package symtab

import (
	"fmt"
	"strings"

	"github.com/gmofishsauce/light/internal/ast"
	"github.com/gmofishsauce/light/internal/types"
)

// Kind tags a Symbol's associated data.
type Kind int

const (
	KindFn Kind = iota
	KindVar
	KindStruct
	KindModule
)

func (k Kind) String() string {
	switch k {
	case KindFn:
		return "Fn"
	case KindVar:
		return "Var"
	case KindStruct:
		return "Struct"
	case KindModule:
		return "Module"
	default:
		return "?"
	}
}

// FnData describes a function or extern declaration.
type FnData struct {
	FQName   string
	Args     []ast.Param
	RetTy    *types.Type
	IsExtern bool
}

// VarData describes a variable. Struct fields are also entered as Vars,
// into the scope open at the struct declaration, when tych checks them.
type VarData struct {
	Ty *types.Type
}

// StructField is a (name, type-as-string) pair, a field representation
// for struct symbols.
type StructField struct {
	Name     string
	TypeName string
}

// StructData describes a struct type. The parser records the declared
// fields and mangled method names; the type checker replaces them with
// the resolved ones.
type StructData struct {
	Fields  []StructField
	Methods []string
}

// Symbol is an entry in the symbol table.
type Symbol struct {
	Name         string
	Module       string
	IsExportable bool
	Kind         Kind

	Fn         *FnData
	Var        *VarData
	Struct     *StructData
	ModuleName string // KindModule
}

func NewFn(name, fqName string, args []ast.Param, retTy *types.Type, isExtern bool, module string, exportable bool) *Symbol {
	return &Symbol{
		Name: name, Module: module, IsExportable: exportable, Kind: KindFn,
		Fn: &FnData{FQName: fqName, Args: args, RetTy: retTy, IsExtern: isExtern},
	}
}

func NewVar(name string, ty *types.Type, module string) *Symbol {
	return &Symbol{Name: name, Module: module, Kind: KindVar, Var: &VarData{Ty: ty}}
}

func NewStruct(name string, fields []StructField, methods []string, module string, exportable bool) *Symbol {
	return &Symbol{
		Name: name, Module: module, IsExportable: exportable, Kind: KindStruct,
		Struct: &StructData{Fields: fields, Methods: methods},
	}
}

func NewModule(name string) *Symbol {
	return &Symbol{Name: name, Kind: KindModule, ModuleName: name}
}

// FQName returns the code-generator-facing name: a function's mangled
// fq_name, or a struct's own name (structs aren't mangled).
func (s *Symbol) FQName() (string, bool) {
	switch s.Kind {
	case KindFn:
		return s.Fn.FQName, true
	case KindStruct:
		return s.Name, true
	default:
		return "", false
	}
}

// IsImport reports whether s is defined in a different module and isn't
// an extern declaration.
func (s *Symbol) IsImport(module string) bool {
	if s.Module == module {
		return false
	}
	return !(s.Kind == KindFn && s.Fn.IsExtern)
}

func isExportableName(name string) bool {
	if name == "" {
		return false
	}
	ch := name[0]
	return ch >= 'A' && ch <= 'Z'
}

// IsExportableName exposes the uppercase-leading-letter convention used to
// decide IsExportable when constructing top-level symbols.
func IsExportableName(name string) bool { return isExportableName(name) }

func (s *Symbol) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s, module: %s, exportable: %v", s.Name, s.Module, s.IsExportable)
	switch s.Kind {
	case KindFn:
		fmt.Fprintf(&b, "\n      [Fn] %s(", s.Fn.FQName)
		for i, a := range s.Fn.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", a.Name, a.Ty.String())
		}
		fmt.Fprintf(&b, ") -> %s, is_extern: %v", s.Fn.RetTy.String(), s.Fn.IsExtern)
	case KindVar:
		fmt.Fprintf(&b, "\n      [Var] type: %s", s.Var.Ty.String())
	case KindStruct:
		b.WriteString("\n      [Struct] { ")
		for i, f := range s.Struct.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", f.Name, f.TypeName)
		}
		b.WriteString(" }")
		for _, m := range s.Struct.Methods {
			fmt.Fprintf(&b, " | %s()", m)
		}
	case KindModule:
	}
	return b.String()
}
