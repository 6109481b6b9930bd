// Package tych implements the type checker: a recursive ast.Visitor that
// consumes each node by value and returns a new node with Ty populated,
// mutating the symbol table as it resolves names. The phase-oriented
// outer shape (collect type registry, then walk) follows
// lang/ysem/analyzer.go's buildSymbolTables/typeCheck split.
package tych

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gmofishsauce/light/internal/ast"
	"github.com/gmofishsauce/light/internal/diag"
	"github.com/gmofishsauce/light/internal/suggest"
	"github.com/gmofishsauce/light/internal/symtab"
	"github.com/gmofishsauce/light/internal/token"
	"github.com/gmofishsauce/light/internal/types"
)

// nameErr builds a NameError enriched with a "did you mean" suggestion
// drawn from every name currently visible in the symbol table.
func (c *Checker) nameErr(what, name string) *diag.NameError {
	return &diag.NameError{What: what, Name: name, Suggestion: suggest.Best(name, c.table.AllNames())}
}

// Checker walks an Ast, resolving and checking types in place.
type Checker struct {
	table  *symtab.SymbolTable
	module string

	// hint is the downward-propagated expected type for the node currently
	// being visited; nil means no hint.
	hint *types.Type
	// currentStruct names the struct whose method body is being checked, for
	// self injection; "" outside of any method.
	currentStruct string

	// typeNames is the pre-collected registry used by resolveType:
	// primitives are implicit via types.LookupPrimitive, this set adds all
	// struct names.
	typeNames map[string]bool
}

// Check type-checks a into the symbol table, returning the typed Ast or
// the first error encountered.
func Check(a *ast.Ast, table *symtab.SymbolTable, module string) (*ast.Ast, error) {
	c := &Checker{table: table, module: module, typeNames: map[string]bool{}}
	for _, name := range table.Types() {
		c.typeNames[name] = true
	}
	if err := c.detectStructCycles(a); err != nil {
		return nil, err
	}

	out := &ast.Ast{}
	for _, decl := range a.Decls {
		typed, err := ast.Accept(decl, c)
		if err != nil {
			return nil, err
		}
		out.Decls = append(out.Decls, typed)
	}
	return out, nil
}

// resolveType resolves a parsed Type, recursing into SArray and looking up
// Comp names against the pre-collected type registry.
func (c *Checker) resolveType(t *types.Type) (*types.Type, error) {
	if t == nil {
		return types.Void, nil
	}
	switch t.Kind {
	case types.KindSArray:
		elem, err := c.resolveType(t.Elem)
		if err != nil {
			return nil, err
		}
		return types.NewSArray(elem, t.Size), nil
	case types.KindComp:
		if c.typeNames[t.Name] {
			return t, nil
		}
		qualified := t.Name
		if c.module != "" {
			qualified = c.module + "::" + t.Name
		}
		if c.typeNames[qualified] {
			return types.NewComp(qualified), nil
		}
		return nil, c.nameErr("type", t.Name)
	default:
		return t, nil
	}
}

func withHint(c *Checker, hint *types.Type, fn func() (*ast.Node, error)) (*ast.Node, error) {
	prev := c.hint
	c.hint = hint
	defer func() { c.hint = prev }()
	return fn()
}

// --- ast.Visitor ---

func (c *Checker) VisitLit(lit *ast.Literal, loc ast.SourceLoc) (*ast.Node, error) {
	return c.checkLiteral(lit, loc, c.hint)
}

func (c *Checker) checkLiteral(lit *ast.Literal, loc ast.SourceLoc, hint *types.Type) (*ast.Node, error) {
	switch lit.Kind {
	case ast.LitArray:
		return c.checkArrayLiteral(lit, loc, hint)
	case ast.LitBool:
		if hint != nil && hint != types.Bool {
			return nil, &diag.TypeMismatch{Site: "bool literal", Expected: hint.String(), Actual: types.Bool.String()}
		}
		return &ast.Node{Kind: ast.KindLit, Ty: types.Bool, Loc: loc, Lit: lit}, nil
	case ast.LitChar:
		if hint != nil && hint != types.Char {
			return nil, &diag.TypeMismatch{Site: "char literal", Expected: hint.String(), Actual: types.Char.String()}
		}
		return &ast.Node{Kind: ast.KindLit, Ty: types.Char, Loc: loc, Lit: lit}, nil
	case ast.LitFloat:
		return c.checkFloatLiteral(lit, loc, hint)
	case ast.LitUInt64:
		return c.checkIntLiteral(lit, loc, hint)
	default:
		// Already retyped by a previous check pass (tych is idempotent).
		return &ast.Node{Kind: ast.KindLit, Ty: litKindToType(lit.Kind), Loc: loc, Lit: lit}, nil
	}
}

func litKindToType(k ast.LitKind) *types.Type {
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
	default:
		return types.Void
	}
}

// checkFloatLiteral resolves a float literal against its hint: a Float
// hint keeps it at 32 bits, a Double hint promotes it to 64 bits.
// Double never arises from a bare, unhinted float literal.
func (c *Checker) checkFloatLiteral(lit *ast.Literal, loc ast.SourceLoc, hint *types.Type) (*ast.Node, error) {
	if hint == nil {
		return &ast.Node{Kind: ast.KindLit, Ty: types.Float, Loc: loc, Lit: &ast.Literal{Kind: ast.LitFloat, FloatVal: lit.FloatVal}}, nil
	}
	switch hint {
	case types.Float:
		return &ast.Node{Kind: ast.KindLit, Ty: types.Float, Loc: loc, Lit: &ast.Literal{Kind: ast.LitFloat, FloatVal: lit.FloatVal}}, nil
	case types.Double:
		d, err := strconv.ParseFloat(lit.RawNum, 64)
		if err != nil {
			return nil, &diag.Internal{Message: fmt.Sprintf("float literal %q did not reparse as f64", lit.RawNum)}
		}
		return &ast.Node{Kind: ast.KindLit, Ty: types.Double, Loc: loc, Lit: &ast.Literal{Kind: ast.LitDouble, DoubleVal: d}}, nil
	default:
		return nil, &diag.TypeMismatch{Site: "float literal", Expected: hint.String(), Actual: types.Float.String()}
	}
}

// checkIntLiteral narrows a widest-container UInt64 literal to hint's
// width, erroring on overflow; unhinted defaults to Int32.
func (c *Checker) checkIntLiteral(lit *ast.Literal, loc ast.SourceLoc, hint *types.Type) (*ast.Node, error) {
	target := hint
	if target == nil {
		target = types.Int32
	}
	if !target.IsInteger() {
		return nil, &diag.TypeMismatch{Site: "integer literal", Expected: target.String(), Actual: types.UInt64.String()}
	}
	v := lit.UInt64Val
	if !target.FitsUint64(v) {
		return nil, &diag.TypeMismatch{Site: fmt.Sprintf("integer literal %d", v), Expected: target.String(), Actual: "out of range"}
	}
	out := &ast.Literal{Kind: typeToLitKind(target)}
	switch target {
	case types.Int8:
		out.Int8Val = int8(v)
	case types.Int16:
		out.Int16Val = int16(v)
	case types.Int32:
		out.Int32Val = int32(v)
	case types.Int64:
		out.Int64Val = int64(v)
	case types.UInt8:
		out.UInt8Val = uint8(v)
	case types.UInt16:
		out.UInt16Val = uint16(v)
	case types.UInt32:
		out.UInt32Val = uint32(v)
	case types.UInt64:
		out.UInt64Val = v
	}
	return &ast.Node{Kind: ast.KindLit, Ty: target, Loc: loc, Lit: out}, nil
}

func typeToLitKind(t *types.Type) ast.LitKind {
	switch t {
	case types.Int8:
		return ast.LitInt8
	case types.Int16:
		return ast.LitInt16
	case types.Int32:
		return ast.LitInt32
	case types.Int64:
		return ast.LitInt64
	case types.UInt8:
		return ast.LitUInt8
	case types.UInt16:
		return ast.LitUInt16
	case types.UInt32:
		return ast.LitUInt32
	default:
		return ast.LitUInt64
	}
}

func (c *Checker) checkArrayLiteral(lit *ast.Literal, loc ast.SourceLoc, hint *types.Type) (*ast.Node, error) {
	if hint == nil || hint.Kind != types.KindSArray {
		return nil, &diag.TypeMismatch{Site: "array literal", Expected: "SArray", Actual: "no hint"}
	}
	if len(lit.Elements) > hint.Size {
		return nil, &diag.TypeMismatch{Site: "array literal", Expected: fmt.Sprintf("at most %d elements", hint.Size), Actual: fmt.Sprintf("%d elements", len(lit.Elements))}
	}
	elems := make([]*ast.Node, len(lit.Elements))
	for i, e := range lit.Elements {
		typed, err := withHint(c, hint.Elem, func() (*ast.Node, error) { return ast.Accept(e, c) })
		if err != nil {
			return nil, err
		}
		elems[i] = typed
	}
	arrTy := types.NewSArray(hint.Elem, hint.Size)
	return &ast.Node{Kind: ast.KindLit, Ty: arrTy, Loc: loc, Lit: &ast.Literal{Kind: ast.LitArray, Elements: elems, InnerTy: hint.Elem}}, nil
}

func (c *Checker) VisitIdent(n *ast.IdentNode, loc ast.SourceLoc) (*ast.Node, error) {
	sym, ok := c.table.ResolveSymbol(n.Name, c.module)
	if !ok || sym.Kind != symtab.KindVar {
		return nil, c.nameErr("identifier", n.Name)
	}
	return &ast.Node{Kind: ast.KindIdent, Ty: sym.Var.Ty, Loc: loc, Ident: n}, nil
}

func (c *Checker) VisitBinOp(n *ast.BinOpNode, loc ast.SourceLoc) (*ast.Node, error) {
	if isAssignOp(n.Op) {
		return c.checkAssign(n, loc)
	}

	lhsIsLit := n.LHS.Kind == ast.KindLit && n.LHS.Lit.Kind != ast.LitArray
	var lhs, rhs *ast.Node
	var err error
	if lhsIsLit {
		rhs, err = withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(n.RHS, c) })
		if err != nil {
			return nil, err
		}
		lhs, err = withHint(c, rhs.Ty, func() (*ast.Node, error) { return ast.Accept(n.LHS, c) })
	} else {
		lhs, err = withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(n.LHS, c) })
		if err != nil {
			return nil, err
		}
		rhs, err = withHint(c, lhs.Ty, func() (*ast.Node, error) { return ast.Accept(n.RHS, c) })
	}
	if err != nil {
		return nil, err
	}

	if !lhs.Ty.Equal(rhs.Ty) {
		return nil, &diag.TypeMismatch{Site: fmt.Sprintf("operator %s", n.Op), Expected: lhs.Ty.String(), Actual: rhs.Ty.String()}
	}

	resultTy, err := binOpResultType(n.Op, lhs.Ty)
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.KindBinOp, Ty: resultTy, Loc: loc, BinOp: &ast.BinOpNode{Op: n.Op, LHS: lhs, RHS: rhs}}, nil
}

func isAssignOp(op token.Operator) bool {
	return op == token.OpAssign || op.IsCompoundAssign()
}

// binOpResultType implements the operator typing table.
func binOpResultType(op token.Operator, operand *types.Type) (*types.Type, error) {
	switch op {
	case token.OpAnd, token.OpOr:
		if operand != types.Bool {
			return nil, &diag.TypeMismatch{Site: fmt.Sprintf("operator %s", op), Expected: "bool", Actual: operand.String()}
		}
		return types.Bool, nil
	case token.OpEq, token.OpNotEq:
		if !(operand.IsNumeric() || operand == types.Bool || operand == types.Char) {
			return nil, &diag.TypeMismatch{Site: fmt.Sprintf("operator %s", op), Expected: "numeric, bool, or char", Actual: operand.String()}
		}
		return types.Bool, nil
	case token.OpLt, token.OpLtEq, token.OpGt, token.OpGtEq:
		if !(operand.IsNumeric() || operand == types.Char) {
			return nil, &diag.TypeMismatch{Site: fmt.Sprintf("operator %s", op), Expected: "numeric or char", Actual: operand.String()}
		}
		return types.Bool, nil
	case token.OpAdd, token.OpSub, token.OpMul, token.OpDiv, token.OpPow,
		token.OpBitAnd, token.OpBitOr, token.OpBitXor:
		if !operand.IsNumeric() {
			return nil, &diag.TypeMismatch{Site: fmt.Sprintf("operator %s", op), Expected: "numeric", Actual: operand.String()}
		}
		return operand, nil
	default:
		return nil, &diag.Internal{Message: fmt.Sprintf("unreachable binary operator %s", op)}
	}
}

func (c *Checker) VisitUnOp(n *ast.UnOpNode, loc ast.SourceLoc) (*ast.Node, error) {
	rhs, err := withHint(c, c.hint, func() (*ast.Node, error) { return ast.Accept(n.RHS, c) })
	if err != nil {
		return nil, err
	}
	if !rhs.Ty.IsNumeric() {
		return nil, &diag.TypeMismatch{Site: "unary operator", Expected: "numeric", Actual: rhs.Ty.String()}
	}
	return &ast.Node{Kind: ast.KindUnOp, Ty: rhs.Ty, Loc: loc, UnOp: &ast.UnOpNode{Op: n.Op, RHS: rhs}}, nil
}

func (c *Checker) checkAssign(n *ast.BinOpNode, loc ast.SourceLoc) (*ast.Node, error) {
	switch n.LHS.Kind {
	case ast.KindIdent, ast.KindIndex, ast.KindFSelector:
	default:
		return nil, &diag.StructuralError{Message: "assignment target must be an identifier, index, or field selector"}
	}
	lhs, err := withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(n.LHS, c) })
	if err != nil {
		return nil, err
	}
	rhs, err := withHint(c, lhs.Ty, func() (*ast.Node, error) { return ast.Accept(n.RHS, c) })
	if err != nil {
		return nil, err
	}
	if !lhs.Ty.Equal(rhs.Ty) {
		return nil, &diag.TypeMismatch{Site: "assignment", Expected: lhs.Ty.String(), Actual: rhs.Ty.String()}
	}
	return &ast.Node{Kind: ast.KindBinOp, Ty: types.Void, Loc: loc, BinOp: &ast.BinOpNode{Op: n.Op, LHS: lhs, RHS: rhs}}, nil
}

func (c *Checker) VisitCall(n *ast.CallNode, loc ast.SourceLoc) (*ast.Node, error) {
	sym, ok := c.table.ResolveSymbol(n.Name, c.module)
	if !ok || sym.Kind != symtab.KindFn {
		return nil, c.nameErr("function", n.Name)
	}
	if len(n.Args) != len(sym.Fn.Args) {
		return nil, &diag.TypeMismatch{Site: fmt.Sprintf("call to %s", n.Name), Expected: fmt.Sprintf("%d arguments", len(sym.Fn.Args)), Actual: fmt.Sprintf("%d arguments", len(n.Args))}
	}
	args := make([]*ast.Node, len(n.Args))
	for i, a := range n.Args {
		paramTy := sym.Fn.Args[i].Ty
		typed, err := withHint(c, paramTy, func() (*ast.Node, error) { return ast.Accept(a, c) })
		if err != nil {
			return nil, err
		}
		if !typed.Ty.Equal(paramTy) {
			return nil, &diag.TypeMismatch{Site: fmt.Sprintf("argument %d of %s", i+1, n.Name), Expected: paramTy.String(), Actual: typed.Ty.String()}
		}
		args[i] = typed
	}
	return &ast.Node{Kind: ast.KindCall, Ty: sym.Fn.RetTy, Loc: loc, Call: &ast.CallNode{Name: sym.Fn.FQName, Args: args}}, nil
}

func (c *Checker) VisitCond(n *ast.CondNode, loc ast.SourceLoc) (*ast.Node, error) {
	cond, err := withHint(c, types.Bool, func() (*ast.Node, error) { return ast.Accept(n.Cond, c) })
	if err != nil {
		return nil, err
	}
	if cond.Ty != types.Bool {
		return nil, &diag.TypeMismatch{Site: "if condition", Expected: "bool", Actual: cond.Ty.String()}
	}
	thenBlock, err := withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(n.ThenBlock, c) })
	if err != nil {
		return nil, err
	}
	resultTy := thenBlock.Ty
	var elseBlock *ast.Node
	if n.ElseBlock != nil {
		elseBlock, err = withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(n.ElseBlock, c) })
		if err != nil {
			return nil, err
		}
		if !thenBlock.Ty.Equal(elseBlock.Ty) {
			return nil, &diag.TypeMismatch{Site: "if/else branches", Expected: thenBlock.Ty.String(), Actual: elseBlock.Ty.String()}
		}
	}
	return &ast.Node{Kind: ast.KindCond, Ty: resultTy, Loc: loc, Cond: &ast.CondNode{Cond: cond, ThenBlock: thenBlock, ElseBlock: elseBlock}}, nil
}

func (c *Checker) VisitBlock(n *ast.BlockNode, loc ast.SourceLoc) (*ast.Node, error) {
	c.table.EnterScope()
	defer c.table.LeaveScope()

	list := make([]*ast.Node, len(n.List))
	var last *types.Type = types.Void
	for i, stmt := range n.List {
		typed, err := withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(stmt, c) })
		if err != nil {
			return nil, err
		}
		list[i] = typed
		last = typed.Ty
	}
	return &ast.Node{Kind: ast.KindBlock, Ty: last, Loc: loc, Block: &ast.BlockNode{List: list}}, nil
}

func (c *Checker) VisitIndex(n *ast.IndexNode, loc ast.SourceLoc) (*ast.Node, error) {
	binding, err := withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(n.Binding, c) })
	if err != nil {
		return nil, err
	}
	if binding.Ty == nil || binding.Ty.Kind != types.KindSArray {
		return nil, &diag.TypeMismatch{Site: "index target", Expected: "array", Actual: binding.Ty.String()}
	}
	idx, err := withHint(c, types.Int32, func() (*ast.Node, error) { return ast.Accept(n.Idx, c) })
	if err != nil {
		return nil, err
	}
	if idx.Ty != types.Int32 {
		return nil, &diag.TypeMismatch{Site: "array index", Expected: "int32", Actual: idx.Ty.String()}
	}
	return &ast.Node{Kind: ast.KindIndex, Ty: binding.Ty.Elem, Loc: loc, Index: &ast.IndexNode{Binding: binding, Idx: idx}}, nil
}

func (c *Checker) VisitFSelector(n *ast.FSelectorNode, loc ast.SourceLoc) (*ast.Node, error) {
	comp, err := withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(n.Comp, c) })
	if err != nil {
		return nil, err
	}
	if comp.Ty == nil || comp.Ty.Kind != types.KindComp {
		return nil, &diag.TypeMismatch{Site: "field selector target", Expected: "struct", Actual: comp.Ty.String()}
	}
	structSym, ok := c.table.Get(comp.Ty.Name)
	if !ok || structSym.Kind != symtab.KindStruct {
		return nil, c.nameErr("type", comp.Ty.Name)
	}
	for _, f := range structSym.Struct.Fields {
		if f.Name == n.FieldName {
			fieldTy, ok := types.LookupPrimitive(f.TypeName)
			if !ok {
				fieldTy, err = c.resolveType(types.NewComp(f.TypeName))
				if err != nil {
					return nil, err
				}
			}
			return &ast.Node{Kind: ast.KindFSelector, Ty: fieldTy, Loc: loc, FSelector: &ast.FSelectorNode{Comp: comp, FieldName: n.FieldName}}, nil
		}
	}
	return nil, c.nameErr("field", n.FieldName)
}

// VisitMSelector resolves a method call into a direct call on its mangled
// free-function name. Arity and argument types are checked against
// sym.Fn.Args, which holds only the method's declared parameters (self is
// never part of it, per VisitFn); VisitCall can't be reused here because
// its arity check would see the receiver-prepended argument list and
// reject every method call as one argument too many.
func (c *Checker) VisitMSelector(n *ast.MSelectorNode, loc ast.SourceLoc) (*ast.Node, error) {
	comp, err := withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(n.Comp, c) })
	if err != nil {
		return nil, err
	}
	if comp.Ty == nil || comp.Ty.Kind != types.KindComp {
		return nil, &diag.TypeMismatch{Site: "method selector target", Expected: "struct", Actual: comp.Ty.String()}
	}
	structName := comp.Ty.Name
	structSym, ok := c.table.Get(structName)
	if !ok || structSym.Kind != symtab.KindStruct {
		return nil, c.nameErr("type", structName)
	}
	mangled := "_" + structName + "_" + n.MethodName
	found := false
	for _, m := range structSym.Struct.Methods {
		if m == mangled {
			found = true
			break
		}
	}
	if !found {
		return nil, c.nameErr("method", structName+"."+n.MethodName)
	}

	sym, ok := c.table.Get(mangled)
	if !ok || sym.Kind != symtab.KindFn {
		return nil, &diag.Internal{Message: fmt.Sprintf("mangled method %s missing from symbol table", mangled)}
	}
	if len(n.Args) != len(sym.Fn.Args) {
		site := structName + "." + n.MethodName
		return nil, &diag.TypeMismatch{Site: fmt.Sprintf("call to %s", site), Expected: fmt.Sprintf("%d arguments", len(sym.Fn.Args)), Actual: fmt.Sprintf("%d arguments", len(n.Args))}
	}
	args := make([]*ast.Node, len(n.Args)+1)
	args[0] = comp
	for i, a := range n.Args {
		paramTy := sym.Fn.Args[i].Ty
		typed, err := withHint(c, paramTy, func() (*ast.Node, error) { return ast.Accept(a, c) })
		if err != nil {
			return nil, err
		}
		if !typed.Ty.Equal(paramTy) {
			return nil, &diag.TypeMismatch{Site: fmt.Sprintf("argument %d of %s.%s", i+1, structName, n.MethodName), Expected: paramTy.String(), Actual: typed.Ty.String()}
		}
		args[i+1] = typed
	}
	return &ast.Node{Kind: ast.KindCall, Ty: sym.Fn.RetTy, Loc: loc, Call: &ast.CallNode{Name: sym.Fn.FQName, Args: args}}, nil
}

func (c *Checker) VisitLet(n *ast.LetNode, loc ast.SourceLoc) (*ast.Node, error) {
	ty, err := c.resolveType(n.Antn)
	if err != nil {
		return nil, err
	}
	c.table.Insert(symtab.NewVar(n.Name, ty, c.module))

	var init *ast.Node
	if n.Init != nil {
		init, err = withHint(c, ty, func() (*ast.Node, error) { return ast.Accept(n.Init, c) })
		if err != nil {
			return nil, err
		}
		if !init.Ty.Equal(ty) {
			return nil, &diag.TypeMismatch{Site: fmt.Sprintf("let %s", n.Name), Expected: ty.String(), Actual: init.Ty.String()}
		}
	}
	return &ast.Node{Kind: ast.KindLet, Ty: types.Void, Loc: loc, Let: &ast.LetNode{Name: n.Name, Antn: ty, Init: init}}, nil
}

func (c *Checker) VisitFor(n *ast.ForNode, loc ast.SourceLoc) (*ast.Node, error) {
	antn, err := c.resolveType(n.StartAntn)
	if err != nil {
		return nil, err
	}

	c.table.EnterScope()
	defer c.table.LeaveScope()

	c.table.Insert(symtab.NewVar(n.StartName, antn, c.module))

	var startExpr *ast.Node
	if n.StartExpr != nil {
		startExpr, err = withHint(c, antn, func() (*ast.Node, error) { return ast.Accept(n.StartExpr, c) })
		if err != nil {
			return nil, err
		}
		if !startExpr.Ty.Equal(antn) {
			return nil, &diag.TypeMismatch{Site: fmt.Sprintf("for %s init", n.StartName), Expected: antn.String(), Actual: startExpr.Ty.String()}
		}
	}

	cond, err := withHint(c, types.Bool, func() (*ast.Node, error) { return ast.Accept(n.Cond, c) })
	if err != nil {
		return nil, err
	}
	if cond.Ty != types.Bool {
		return nil, &diag.TypeMismatch{Site: "for condition", Expected: "bool", Actual: cond.Ty.String()}
	}

	step, err := withHint(c, antn, func() (*ast.Node, error) { return ast.Accept(n.Step, c) })
	if err != nil {
		return nil, err
	}
	if !step.Ty.Equal(antn) {
		return nil, &diag.TypeMismatch{Site: fmt.Sprintf("for %s step", n.StartName), Expected: antn.String(), Actual: step.Ty.String()}
	}

	body, err := withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(n.Body, c) })
	if err != nil {
		return nil, err
	}

	return &ast.Node{
		Kind: ast.KindFor, Ty: types.Void, Loc: loc,
		For: &ast.ForNode{StartName: n.StartName, StartAntn: antn, StartExpr: startExpr, Cond: cond, Step: step, Body: body},
	}, nil
}

func (c *Checker) VisitFn(n *ast.FnNode, loc ast.SourceLoc) (*ast.Node, error) {
	sym, ok := c.table.Get(n.Proto.Name)
	if !ok || sym.Kind != symtab.KindFn {
		return nil, &diag.Internal{Message: fmt.Sprintf("function %s missing from symbol table", n.Proto.Name)}
	}

	retTy, err := c.resolveType(n.Proto.RetTy)
	if err != nil {
		return nil, err
	}
	isMain := n.Proto.Name == "main"

	args := make([]ast.Param, len(n.Proto.Args))
	for i, a := range n.Proto.Args {
		resolved, err := c.resolveType(a.Ty)
		if err != nil {
			return nil, err
		}
		args[i] = ast.Param{Name: a.Name, Ty: resolved}
	}
	proto := ast.Prototype{Name: n.Proto.Name, Args: args, RetTy: retTy, FQName: n.Proto.FQName}

	if n.Body == nil {
		// extern: nothing further to check.
		sym.Fn.RetTy = retTy
		sym.Fn.Args = args
		c.table.InsertWithName(sym.Fn.FQName, sym)
		return &ast.Node{Kind: ast.KindFn, Ty: types.Void, Loc: loc, Fn: &ast.FnNode{Proto: proto}}, nil
	}

	c.table.EnterScope()

	if c.currentStruct != "" {
		c.table.Insert(symtab.NewVar("self", types.NewComp(c.currentStruct), c.module))
	}
	for _, a := range args {
		c.table.Insert(symtab.NewVar(a.Name, a.Ty, c.module))
	}

	body, err := withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(n.Body, c) })
	// Leave the function scope before publishing under fq_name, so the
	// fq_name entry lands in the enclosing (global) frame.
	c.table.LeaveScope()
	if err != nil {
		return nil, err
	}

	if isMain {
		if n.Proto.RetTy != nil && n.Proto.RetTy != types.Void {
			return nil, &diag.StructuralError{Message: "main's return type must be void"}
		}
		retTy = types.Void
		proto.RetTy = types.Void
	} else if retTy != types.Void {
		if !body.Ty.Equal(retTy) {
			return nil, &diag.TypeMismatch{Site: fmt.Sprintf("function %s body", n.Proto.Name), Expected: retTy.String(), Actual: body.Ty.String()}
		}
	}

	sym.Fn.RetTy = retTy
	sym.Fn.Args = args
	c.table.InsertWithName(sym.Fn.FQName, sym)

	return &ast.Node{Kind: ast.KindFn, Ty: types.Void, Loc: loc, Fn: &ast.FnNode{Proto: proto, Body: body}}, nil
}

func (c *Checker) VisitStruct(n *ast.StructNode, loc ast.SourceLoc) (*ast.Node, error) {
	if c.table.ScopeDepth() != 0 {
		return nil, &diag.StructuralError{Message: fmt.Sprintf("struct %s must be declared at global scope", n.Name)}
	}

	fields := make([]*ast.Node, len(n.Fields))
	fieldSyms := make([]symtab.StructField, len(n.Fields))
	for i, f := range n.Fields {
		typed, err := withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(f, c) })
		if err != nil {
			return nil, err
		}
		fields[i] = typed
		fieldSyms[i] = symtab.StructField{Name: typed.Let.Name, TypeName: typed.Let.Antn.String()}
	}

	prevStruct := c.currentStruct
	c.currentStruct = n.Name
	methods := make([]*ast.Node, len(n.Methods))
	methodNames := make([]string, len(n.Methods))
	for i, m := range n.Methods {
		typed, err := withHint(c, nil, func() (*ast.Node, error) { return ast.Accept(m, c) })
		if err != nil {
			c.currentStruct = prevStruct
			return nil, err
		}
		methods[i] = typed
		methodNames[i] = typed.Fn.Proto.Name
	}
	c.currentStruct = prevStruct

	structSym, ok := c.table.Get(n.Name)
	if !ok || structSym.Kind != symtab.KindStruct {
		return nil, &diag.Internal{Message: fmt.Sprintf("struct %s missing from symbol table", n.Name)}
	}
	structSym.Struct.Fields = fieldSyms
	structSym.Struct.Methods = methodNames

	return &ast.Node{
		Kind: ast.KindStruct, Ty: types.Void, Loc: loc,
		Struct: &ast.StructNode{Name: n.Name, Fields: fields, Methods: methods},
	}, nil
}

// detectStructCycles rejects textually cyclic struct field graphs: a
// struct that directly or indirectly embeds itself by value can never
// have a finite size. It walks direct Comp-typed fields via DFS, tracking
// the recursion stack.
func (c *Checker) detectStructCycles(a *ast.Ast) error {
	fieldsOf := map[string][]string{}
	for _, decl := range a.Decls {
		if decl.Kind != ast.KindStruct {
			continue
		}
		var deps []string
		for _, f := range decl.Struct.Fields {
			if f.Let.Antn != nil && f.Let.Antn.Kind == types.KindComp {
				deps = append(deps, f.Let.Antn.Name)
			}
		}
		fieldsOf[decl.Struct.Name] = deps
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return &diag.StructuralError{Message: fmt.Sprintf("cyclic struct field graph: %s", strings.Join(append(path, name), " -> "))}
		}
		color[name] = gray
		for _, dep := range fieldsOf[name] {
			if _, isStruct := fieldsOf[dep]; !isStruct {
				continue
			}
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}
	for name := range fieldsOf {
		if color[name] == white {
			if err := visit(name, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
