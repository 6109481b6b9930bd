// Package lower implements the lowerer: it rewrites a typed
// Ast into a Hir by prepending an explicit self parameter to method
// prototypes and turning field selectors into positional indices, adapted
// to the single-tagged-variant ast.Visitor already used by tych. Method
// selectors arrive already rewritten into direct calls by tych.
package lower

import (
	"fmt"

	"github.com/gmofishsauce/light/internal/ast"
	"github.com/gmofishsauce/light/internal/diag"
	"github.com/gmofishsauce/light/internal/hir"
	"github.com/gmofishsauce/light/internal/symtab"
	"github.com/gmofishsauce/light/internal/types"
)

// Lowerer rewrites a typed Ast into a Hir.
type Lowerer struct {
	table *symtab.SymbolTable
	out   *hir.Hir

	// currentStruct names the struct whose method is being lowered, so a
	// self parameter can be prepended to its prototype.
	currentStruct string
}

// Lower lowers a (already type-checked) Ast into a Hir.
func Lower(a *ast.Ast, table *symtab.SymbolTable) (*hir.Hir, error) {
	l := &Lowerer{table: table, out: &hir.Hir{}}
	for _, decl := range a.Decls {
		if _, err := lowerNode(decl, l); err != nil {
			return nil, err
		}
	}
	return l.out, nil
}

// lowerNode dispatches through ast.Accept and carries n's tych-assigned Ty
// forward onto the result: the Visitor contract (ast.Accept) only forwards
// a node's payload and location to its Visit method, not its Ty, so each
// Visit method that doesn't recompute its own type (identifiers, operators,
// calls, selectors, ...) would otherwise lose it. Every recursive call in this package goes
// through here instead of ast.Accept directly.
func lowerNode(n *ast.Node, l *Lowerer) (*ast.Node, error) {
	out, err := ast.Accept(n, l)
	if err != nil {
		return nil, err
	}
	if out.Ty == nil {
		out.Ty = n.Ty
	}
	return out, nil
}

func (l *Lowerer) VisitFn(n *ast.FnNode, loc ast.SourceLoc) (*ast.Node, error) {
	proto := n.Proto
	if l.currentStruct != "" {
		args := make([]ast.Param, 0, len(proto.Args)+1)
		args = append(args, ast.Param{Name: "self", Ty: types.NewComp(l.currentStruct)})
		args = append(args, proto.Args...)
		proto.Args = args
	}

	var body *ast.Node
	if n.Body != nil {
		var err error
		body, err = lowerNode(n.Body, l)
		if err != nil {
			return nil, err
		}
	}

	out := &ast.Node{Kind: ast.KindFn, Ty: types.Void, Loc: loc, Fn: &ast.FnNode{Proto: proto, Body: body}}
	l.out.Functions = append(l.out.Functions, out)
	l.out.Prototypes = append(l.out.Prototypes, proto)
	return out, nil
}

func (l *Lowerer) VisitStruct(n *ast.StructNode, loc ast.SourceLoc) (*ast.Node, error) {
	prevStruct := l.currentStruct
	l.currentStruct = n.Name

	methods := make([]*ast.Node, len(n.Methods))
	for i, m := range n.Methods {
		lowered, err := lowerNode(m, l)
		if err != nil {
			l.currentStruct = prevStruct
			return nil, err
		}
		methods[i] = lowered
		// Methods are also free functions post-lowering, so VisitFn's append
		// to l.out.Functions/Prototypes stands; they're reachable both ways.
	}
	l.currentStruct = prevStruct

	out := &ast.Node{Kind: ast.KindStruct, Ty: types.Void, Loc: loc, Struct: &ast.StructNode{Name: n.Name, Fields: n.Fields, Methods: methods}}
	l.out.Structs = append(l.out.Structs, out)
	return out, nil
}

func (l *Lowerer) VisitLit(n *ast.Literal, loc ast.SourceLoc) (*ast.Node, error) {
	if n.Kind != ast.LitArray {
		return &ast.Node{Kind: ast.KindLit, Ty: litStaticType(n.Kind), Loc: loc, Lit: n}, nil
	}
	elems := make([]*ast.Node, len(n.Elements))
	for i, e := range n.Elements {
		lowered, err := lowerNode(e, l)
		if err != nil {
			return nil, err
		}
		elems[i] = lowered
	}
	return &ast.Node{
		Kind: ast.KindLit, Ty: types.NewSArray(n.InnerTy, len(elems)), Loc: loc,
		Lit: &ast.Literal{Kind: ast.LitArray, Elements: elems, InnerTy: n.InnerTy},
	}, nil
}

func litStaticType(k ast.LitKind) *types.Type {
	switch k {
	case ast.LitInt8:
		return types.Int8
	case ast.LitInt16:
		return types.Int16
	case ast.LitInt32:
		return types.Int32
	case ast.LitInt64:
		return types.Int64
	case ast.LitUInt8:
		return types.UInt8
	case ast.LitUInt16:
		return types.UInt16
	case ast.LitUInt32:
		return types.UInt32
	case ast.LitUInt64:
		return types.UInt64
	case ast.LitFloat:
		return types.Float
	case ast.LitDouble:
		return types.Double
	case ast.LitBool:
		return types.Bool
	case ast.LitChar:
		return types.Char
	default:
		return types.Void
	}
}

func (l *Lowerer) VisitIdent(n *ast.IdentNode, loc ast.SourceLoc) (*ast.Node, error) {
	return &ast.Node{Kind: ast.KindIdent, Loc: loc, Ident: n}, nil
}

func (l *Lowerer) VisitBinOp(n *ast.BinOpNode, loc ast.SourceLoc) (*ast.Node, error) {
	lhs, err := lowerNode(n.LHS, l)
	if err != nil {
		return nil, err
	}
	rhs, err := lowerNode(n.RHS, l)
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.KindBinOp, Loc: loc, BinOp: &ast.BinOpNode{Op: n.Op, LHS: lhs, RHS: rhs}}, nil
}

func (l *Lowerer) VisitUnOp(n *ast.UnOpNode, loc ast.SourceLoc) (*ast.Node, error) {
	rhs, err := lowerNode(n.RHS, l)
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.KindUnOp, Loc: loc, UnOp: &ast.UnOpNode{Op: n.Op, RHS: rhs}}, nil
}

func (l *Lowerer) VisitCall(n *ast.CallNode, loc ast.SourceLoc) (*ast.Node, error) {
	if _, ok := l.table.Get(n.Name); !ok {
		return nil, &diag.Internal{Message: fmt.Sprintf("call to unresolved fq_name %s survived tych", n.Name)}
	}
	args := make([]*ast.Node, len(n.Args))
	for i, a := range n.Args {
		lowered, err := lowerNode(a, l)
		if err != nil {
			return nil, err
		}
		args[i] = lowered
	}
	return &ast.Node{Kind: ast.KindCall, Loc: loc, Call: &ast.CallNode{Name: n.Name, Args: args}}, nil
}

func (l *Lowerer) VisitCond(n *ast.CondNode, loc ast.SourceLoc) (*ast.Node, error) {
	cond, err := lowerNode(n.Cond, l)
	if err != nil {
		return nil, err
	}
	thenBlock, err := lowerNode(n.ThenBlock, l)
	if err != nil {
		return nil, err
	}
	var elseBlock *ast.Node
	if n.ElseBlock != nil {
		elseBlock, err = lowerNode(n.ElseBlock, l)
		if err != nil {
			return nil, err
		}
	}
	return &ast.Node{Kind: ast.KindCond, Loc: loc, Cond: &ast.CondNode{Cond: cond, ThenBlock: thenBlock, ElseBlock: elseBlock}}, nil
}

func (l *Lowerer) VisitBlock(n *ast.BlockNode, loc ast.SourceLoc) (*ast.Node, error) {
	list := make([]*ast.Node, len(n.List))
	for i, stmt := range n.List {
		lowered, err := lowerNode(stmt, l)
		if err != nil {
			return nil, err
		}
		list[i] = lowered
	}
	return &ast.Node{Kind: ast.KindBlock, Loc: loc, Block: &ast.BlockNode{List: list}}, nil
}

func (l *Lowerer) VisitIndex(n *ast.IndexNode, loc ast.SourceLoc) (*ast.Node, error) {
	binding, err := lowerNode(n.Binding, l)
	if err != nil {
		return nil, err
	}
	idx, err := lowerNode(n.Idx, l)
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.KindIndex, Loc: loc, Index: &ast.IndexNode{Binding: binding, Idx: idx}}, nil
}

// VisitFSelector replaces the field name with its declaration-order
// position.
func (l *Lowerer) VisitFSelector(n *ast.FSelectorNode, loc ast.SourceLoc) (*ast.Node, error) {
	comp, err := lowerNode(n.Comp, l)
	if err != nil {
		return nil, err
	}
	if comp.Ty == nil || comp.Ty.Kind != types.KindComp {
		return nil, &diag.Internal{Message: "field selector target is not a struct after tych"}
	}
	structSym, ok := l.table.Get(comp.Ty.Name)
	if !ok || structSym.Kind != symtab.KindStruct {
		return nil, &diag.Internal{Message: fmt.Sprintf("struct %s missing from symbol table during lowering", comp.Ty.Name)}
	}
	index := -1
	for i, f := range structSym.Struct.Fields {
		if f.Name == n.FieldName {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, &diag.Internal{Message: fmt.Sprintf("field %s missing from struct %s during lowering", n.FieldName, comp.Ty.Name)}
	}
	return &ast.Node{
		Kind: ast.KindFSelector, Loc: loc,
		FSelector: &ast.FSelectorNode{Comp: comp, FieldIndex: index, Lowered: true},
	}, nil
}

// VisitMSelector should never be reached: tych rewrites every MSelector
// into a Call before lowering runs.
func (l *Lowerer) VisitMSelector(n *ast.MSelectorNode, loc ast.SourceLoc) (*ast.Node, error) {
	return nil, &diag.Internal{Message: "MSelector node survived tych into lowering"}
}

func (l *Lowerer) VisitLet(n *ast.LetNode, loc ast.SourceLoc) (*ast.Node, error) {
	var init *ast.Node
	if n.Init != nil {
		var err error
		init, err = lowerNode(n.Init, l)
		if err != nil {
			return nil, err
		}
	}
	return &ast.Node{Kind: ast.KindLet, Loc: loc, Let: &ast.LetNode{Name: n.Name, Antn: n.Antn, Init: init}}, nil
}

func (l *Lowerer) VisitFor(n *ast.ForNode, loc ast.SourceLoc) (*ast.Node, error) {
	var startExpr *ast.Node
	var err error
	if n.StartExpr != nil {
		startExpr, err = lowerNode(n.StartExpr, l)
		if err != nil {
			return nil, err
		}
	}
	cond, err := lowerNode(n.Cond, l)
	if err != nil {
		return nil, err
	}
	step, err := lowerNode(n.Step, l)
	if err != nil {
		return nil, err
	}
	body, err := lowerNode(n.Body, l)
	if err != nil {
		return nil, err
	}
	return &ast.Node{
		Kind: ast.KindFor, Loc: loc,
		For: &ast.ForNode{StartName: n.StartName, StartAntn: n.StartAntn, StartExpr: startExpr, Cond: cond, Step: step, Body: body},
	}, nil
}
