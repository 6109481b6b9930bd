// Package hir is the lowered, backend-facing output of the lowerer:
// struct methods are free functions, field selectors are positional, and
// every Call.name is a resolved fq_name. HIR is produced once and never
// mutated.
package hir

import "github.com/gmofishsauce/light/internal/ast"

// Hir is the immutable triple the lowerer produces.
type Hir struct {
	Structs    []*ast.Node
	Functions  []*ast.Node
	Prototypes []ast.Prototype
}
