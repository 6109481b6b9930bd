package ast

// Visitor dispatches on a Node's Kind. Tych and the lowerer each implement
// this to consume a tree by value and produce a new one.
type Visitor interface {
	VisitFor(n *ForNode, loc SourceLoc) (*Node, error)
	VisitLet(n *LetNode, loc SourceLoc) (*Node, error)
	VisitFn(n *FnNode, loc SourceLoc) (*Node, error)
	VisitStruct(n *StructNode, loc SourceLoc) (*Node, error)
	VisitLit(n *Literal, loc SourceLoc) (*Node, error)
	VisitIdent(n *IdentNode, loc SourceLoc) (*Node, error)
	VisitBinOp(n *BinOpNode, loc SourceLoc) (*Node, error)
	VisitUnOp(n *UnOpNode, loc SourceLoc) (*Node, error)
	VisitCall(n *CallNode, loc SourceLoc) (*Node, error)
	VisitCond(n *CondNode, loc SourceLoc) (*Node, error)
	VisitBlock(n *BlockNode, loc SourceLoc) (*Node, error)
	VisitIndex(n *IndexNode, loc SourceLoc) (*Node, error)
	VisitFSelector(n *FSelectorNode, loc SourceLoc) (*Node, error)
	VisitMSelector(n *MSelectorNode, loc SourceLoc) (*Node, error)
}

// Accept dispatches n to the matching Visitor method.
func Accept(n *Node, v Visitor) (*Node, error) {
	switch n.Kind {
	case KindFor:
		return v.VisitFor(n.For, n.Loc)
	case KindLet:
		return v.VisitLet(n.Let, n.Loc)
	case KindFn:
		return v.VisitFn(n.Fn, n.Loc)
	case KindStruct:
		return v.VisitStruct(n.Struct, n.Loc)
	case KindLit:
		return v.VisitLit(n.Lit, n.Loc)
	case KindIdent:
		return v.VisitIdent(n.Ident, n.Loc)
	case KindBinOp:
		return v.VisitBinOp(n.BinOp, n.Loc)
	case KindUnOp:
		return v.VisitUnOp(n.UnOp, n.Loc)
	case KindCall:
		return v.VisitCall(n.Call, n.Loc)
	case KindCond:
		return v.VisitCond(n.Cond, n.Loc)
	case KindBlock:
		return v.VisitBlock(n.Block, n.Loc)
	case KindIndex:
		return v.VisitIndex(n.Index, n.Loc)
	case KindFSelector:
		return v.VisitFSelector(n.FSelector, n.Loc)
	case KindMSelector:
		return v.VisitMSelector(n.MSelector, n.Loc)
	default:
		panic("ast: unhandled node kind in Accept")
	}
}
