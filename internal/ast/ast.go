// Package ast defines the untyped/typed AST node model: a single tagged
// variant (Kind) with a payload, plus a visitor object that dispatches
// on the tag.
package ast

import (
	"github.com/gmofishsauce/light/internal/token"
	"github.com/gmofishsauce/light/internal/types"
)

// Kind tags a Node's payload.
type Kind int

const (
	KindFor Kind = iota
	KindLet
	KindFn
	KindStruct
	KindLit
	KindIdent
	KindBinOp
	KindUnOp
	KindCall
	KindCond
	KindBlock
	KindIndex
	KindFSelector
	KindMSelector
)

// SourceLoc locates a node in the original source.
type SourceLoc struct {
	Line   int
	Column int
}

func LocOf(t token.Token) SourceLoc { return SourceLoc{Line: t.Line, Column: t.Column} }

// Node is the single polymorphic AST node type. Ty is nil until the type
// checker sets it and is never mutated afterward.
type Node struct {
	Kind Kind
	Ty   *types.Type
	Loc  SourceLoc

	For       *ForNode
	Let       *LetNode
	Fn        *FnNode
	Struct    *StructNode
	Lit       *Literal
	Ident     *IdentNode
	BinOp     *BinOpNode
	UnOp      *UnOpNode
	Call      *CallNode
	Cond      *CondNode
	Block     *BlockNode
	Index     *IndexNode
	FSelector *FSelectorNode
	MSelector *MSelectorNode
}

type ForNode struct {
	StartName string
	StartAntn *types.Type
	StartExpr *Node // optional
	Cond      *Node
	Step      *Node
	Body      *Node
}

type LetNode struct {
	Name string
	Antn *types.Type
	Init *Node // optional
}

// Prototype is a function signature detached from a body.
type Prototype struct {
	Name   string
	Args   []Param
	RetTy  *types.Type
	FQName string // set once the function is registered in the symbol table
}

type Param struct {
	Name string
	Ty   *types.Type
}

type FnNode struct {
	Proto Prototype
	Body  *Node // nil for extern
}

type StructNode struct {
	Name    string
	Fields  []*Node // KindLet
	Methods []*Node // KindFn
}

// LitKind tags a Literal's value.
type LitKind int

const (
	LitInt8 LitKind = iota
	LitInt16
	LitInt32
	LitInt64
	LitUInt8
	LitUInt16
	LitUInt32
	LitUInt64
	LitFloat
	LitDouble
	LitBool
	LitChar
	LitArray
)

// Literal carries exactly one of the numeric/bool/char payloads, or an
// Array payload.
type Literal struct {
	Kind LitKind

	Int8Val   int8
	Int16Val  int16
	Int32Val  int32
	Int64Val  int64
	UInt8Val  uint8
	UInt16Val uint16
	UInt32Val uint32
	UInt64Val uint64
	FloatVal  float32
	DoubleVal float64
	BoolVal   bool
	CharVal   string

	// RawNum is the literal's original digit text, kept so a Double hint
	// can reparse at full 64-bit precision instead of widening FloatVal.
	RawNum string

	Elements []*Node // LitArray
	InnerTy  *types.Type
}

type IdentNode struct {
	Name string
}

type BinOpNode struct {
	Op  token.Operator
	LHS *Node
	RHS *Node
}

type UnOpNode struct {
	Op  token.Operator
	RHS *Node
}

type CallNode struct {
	Name string
	Args []*Node
}

type CondNode struct {
	Cond      *Node
	ThenBlock *Node
	ElseBlock *Node // optional
}

type BlockNode struct {
	List []*Node
}

type IndexNode struct {
	Binding *Node
	Idx     *Node
}

// FSelectorNode is field access. FieldName is set by the parser; after
// lowering FieldIndex holds the numeric position and FieldName is ignored.
type FSelectorNode struct {
	Comp       *Node
	FieldName  string
	FieldIndex int
	Lowered    bool
}

type MSelectorNode struct {
	Comp       *Node
	MethodName string
	Args       []*Node
}

// Ast is the owning container for a parsed/typed/lowered tree: top-level
// declarations in source order.
type Ast struct {
	Decls []*Node
}
