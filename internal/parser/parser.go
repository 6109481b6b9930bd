// Package parser implements the Pratt-style expression parser and
// recursive-descent declaration/statement parser. The overall Parser
// shape (a struct holding a token cursor and the symbol table being
// populated, one declaration-dispatch entry point) follows
// lang/parse/parser.go; this parser does not attempt panic-mode error
// recovery — the first error aborts parsing.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gmofishsauce/light/internal/ast"
	"github.com/gmofishsauce/light/internal/symtab"
	"github.com/gmofishsauce/light/internal/token"
	"github.com/gmofishsauce/light/internal/types"
)

// Error is a syntactic error carrying the offending position.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("Syntactic error: %s at %d:%d", e.Message, e.Line, e.Column)
}

func errAt(t token.Token, format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Line: t.Line, Column: t.Column}
}

// Parser consumes a token stream and produces an Ast, registering
// top-level symbols into Table as it goes.
type Parser struct {
	toks  []token.Token
	pos   int
	Table *symtab.SymbolTable

	// currentStruct names the struct whose body is currently being parsed,
	// so methods can be registered under their mangled name.
	currentStruct string
}

// New creates a Parser over toks, populating table (which may already
// hold prior modules' symbols).
func New(toks []token.Token, table *symtab.SymbolTable) *Parser {
	return &Parser{toks: toks, Table: table}
}

// Parse parses the whole token stream into an Ast.
func Parse(toks []token.Token, table *symtab.SymbolTable) (*ast.Ast, error) {
	p := New(toks, table)
	return p.parseProgram()
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.KindEOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) token.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return token.Token{Kind: token.KindEOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	t := p.peek()
	if t.Kind != k {
		return t, errAt(t, "expected %s but found %s", k, describe(t))
	}
	return p.advance(), nil
}

func (p *Parser) expectOp(op token.Operator) (token.Token, error) {
	t := p.peek()
	if t.Kind != token.KindOp || t.Op != op {
		return t, errAt(t, "expected '%s' but found %s", op, describe(t))
	}
	return p.advance(), nil
}

func describe(t token.Token) string {
	return t.String()
}

// skipSemicolon consumes one statement terminator (synthetic or explicit).
func (p *Parser) skipSemicolon() error {
	_, err := p.expect(token.KindSemicolon)
	return err
}

func (p *Parser) parseProgram() (*ast.Ast, error) {
	prog := &ast.Ast{}
	for !p.check(token.KindEOF) {
		// A declaration ending in `}` is followed by an inferred semicolon.
		if p.check(token.KindSemicolon) {
			p.advance()
			continue
		}
		decl, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
	}
	return prog, nil
}

func (p *Parser) parseTopLevel() (*ast.Node, error) {
	switch p.peek().Kind {
	case token.KindStruct:
		return p.parseStruct()
	case token.KindFn:
		return p.parseFn(false)
	case token.KindExtern:
		p.advance()
		if !p.check(token.KindFn) {
			t := p.peek()
			return nil, errAt(t, "expected %s but found %s", token.KindFn, describe(t))
		}
		return p.parseFn(true)
	case token.KindModule:
		return p.parseModuleDecl()
	case token.KindLet:
		n, err := p.parseLet()
		if err != nil {
			return nil, err
		}
		return n, p.skipSemicolon()
	default:
		t := p.peek()
		return nil, errAt(t, "expected a declaration but found %s", describe(t))
	}
}

// parseModuleDecl consumes `module Ident` and registers it. Modules are a
// flat namespacing declaration only; separate compilation units are out
// of scope.
func (p *Parser) parseModuleDecl() (*ast.Node, error) {
	p.advance() // 'module'
	name, err := p.expect(token.KindIdent)
	if err != nil {
		return nil, err
	}
	p.Table.Insert(symtab.NewModule(name.Ident))
	if err := p.skipSemicolon(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (p *Parser) parseType() (*types.Type, error) {
	if p.check(token.KindOpenBracket) {
		p.advance()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.KindSemicolon); err != nil {
			return nil, err
		}
		numTok, err := p.expect(token.KindNum)
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(numTok.Num)
		if err != nil {
			return nil, errAt(numTok, "invalid array size literal: %s", numTok.Num)
		}
		if _, err := p.expect(token.KindCloseBracket); err != nil {
			return nil, err
		}
		return types.NewSArray(elem, size), nil
	}
	name, err := p.expect(token.KindIdent)
	if err != nil {
		return nil, err
	}
	if prim, ok := types.LookupPrimitive(name.Ident); ok {
		return prim, nil
	}
	return types.NewComp(name.Ident), nil
}

func (p *Parser) parseParams() ([]ast.Param, error) {
	var params []ast.Param
	if p.check(token.KindCloseParen) {
		return params, nil
	}
	for {
		nameTok, err := p.expect(token.KindIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.KindColon); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: nameTok.Ident, Ty: ty})
		if p.check(token.KindComma) {
			p.advance()
			continue
		}
		break
	}
	return params, nil
}

func fqName(proto ast.Prototype) string {
	var b strings.Builder
	b.WriteString(proto.Name)
	b.WriteByte('~')
	for _, a := range proto.Args {
		fmt.Fprintf(&b, "%s:%s~", a.Name, a.Ty.String())
	}
	ret := proto.RetTy
	if ret == nil {
		ret = types.Void
	}
	b.WriteString(strings.ToLower(ret.String()))
	return b.String()
}

func (p *Parser) parseFn(isExtern bool) (*ast.Node, error) {
	fnTok := p.advance() // 'fn'
	nameTok, err := p.expect(token.KindIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindOpenParen); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindCloseParen); err != nil {
		return nil, err
	}

	retTy := types.Void
	if p.check(token.KindOp) && p.peek().Op == token.OpRetType {
		p.advance()
		retTy, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	proto := ast.Prototype{Name: nameTok.Ident, Args: params, RetTy: retTy}

	// self is injected into the method's scope by tych and prepended to
	// the HIR prototype by the lowerer; the parser only registers the
	// mangled name.
	methodOf := p.currentStruct
	symbolName := nameTok.Ident
	if methodOf != "" {
		symbolName = "_" + methodOf + "_" + nameTok.Ident
		proto.Name = symbolName
	}
	proto.FQName = fqName(proto)

	if isExtern {
		if err := p.skipSemicolon(); err != nil {
			return nil, err
		}
		sym := symtab.NewFn(symbolName, proto.FQName, proto.Args, retTy, true, "", symtab.IsExportableName(symbolName))
		if _, dup := p.Table.Get(symbolName); dup {
			return nil, errAt(nameTok, "duplicate top-level name: %s", symbolName)
		}
		p.Table.Insert(sym)
		return &ast.Node{Kind: ast.KindFn, Loc: ast.LocOf(fnTok), Fn: &ast.FnNode{Proto: proto}}, nil
	}

	if _, dup := p.Table.Get(symbolName); dup {
		return nil, errAt(nameTok, "duplicate top-level name: %s", symbolName)
	}
	sym := symtab.NewFn(symbolName, proto.FQName, proto.Args, retTy, false, "", symtab.IsExportableName(symbolName))
	p.Table.Insert(sym)

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.KindFn, Loc: ast.LocOf(fnTok), Fn: &ast.FnNode{Proto: proto, Body: body}}, nil
}

func (p *Parser) parseStruct() (*ast.Node, error) {
	structTok := p.advance() // 'struct'
	nameTok, err := p.expect(token.KindIdent)
	if err != nil {
		return nil, err
	}
	if _, dup := p.Table.Get(nameTok.Ident); dup {
		return nil, errAt(nameTok, "duplicate top-level name: %s", nameTok.Ident)
	}
	if _, err := p.expect(token.KindOpenBrace); err != nil {
		return nil, err
	}

	p.currentStruct = nameTok.Ident
	defer func() { p.currentStruct = "" }()

	var fields []*ast.Node
	var methods []*ast.Node
	var fieldSyms []symtab.StructField
	var methodNames []string

	for !p.check(token.KindCloseBrace) {
		switch p.peek().Kind {
		case token.KindSemicolon:
			// inferred after a method body's closing `}`
			p.advance()
		case token.KindLet:
			f, err := p.parseLet()
			if err != nil {
				return nil, err
			}
			if f.Let.Init != nil {
				return nil, errAt(structTok, "struct field '%s' may not have an initializer", f.Let.Name)
			}
			if err := p.skipSemicolon(); err != nil {
				return nil, err
			}
			fields = append(fields, f)
			fieldSyms = append(fieldSyms, symtab.StructField{Name: f.Let.Name, TypeName: f.Let.Antn.String()})
		case token.KindFn:
			m, err := p.parseFn(false)
			if err != nil {
				return nil, err
			}
			methods = append(methods, m)
			methodNames = append(methodNames, m.Fn.Proto.Name)
		default:
			t := p.peek()
			return nil, errAt(t, "expected a field or method but found %s", describe(t))
		}
	}
	if _, err := p.expect(token.KindCloseBrace); err != nil {
		return nil, err
	}

	structSym := symtab.NewStruct(nameTok.Ident, fieldSyms, methodNames, "", symtab.IsExportableName(nameTok.Ident))
	p.Table.Insert(structSym)

	return &ast.Node{
		Kind: ast.KindStruct, Loc: ast.LocOf(structTok),
		Struct: &ast.StructNode{Name: nameTok.Ident, Fields: fields, Methods: methods},
	}, nil
}

func (p *Parser) parseLet() (*ast.Node, error) {
	letTok := p.advance() // 'let'
	nameTok, err := p.expect(token.KindIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindColon); err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	var init *ast.Node
	if p.check(token.KindOp) && p.peek().Op == token.OpAssign {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return &ast.Node{Kind: ast.KindLet, Loc: ast.LocOf(letTok), Let: &ast.LetNode{Name: nameTok.Ident, Antn: ty, Init: init}}, nil
}

func (p *Parser) parseBlock() (*ast.Node, error) {
	openTok, err := p.expect(token.KindOpenBrace)
	if err != nil {
		return nil, err
	}
	var list []*ast.Node
	for !p.check(token.KindCloseBrace) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		list = append(list, stmt)
	}
	if _, err := p.expect(token.KindCloseBrace); err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.KindBlock, Loc: ast.LocOf(openTok), Block: &ast.BlockNode{List: list}}, nil
}

func (p *Parser) parseStmt() (*ast.Node, error) {
	if p.check(token.KindLet) {
		n, err := p.parseLet()
		if err != nil {
			return nil, err
		}
		return n, p.skipSemicolon()
	}
	expr, err := p.parseExprStmt()
	if err != nil {
		return nil, err
	}
	return expr, nil
}

// parseExprStmt parses an expression followed by a terminator, except for
// if/for/block expressions in statement position, whose trailing
// semicolon is optional and consumed when present.
func (p *Parser) parseExprStmt() (*ast.Node, error) {
	switch p.peek().Kind {
	case token.KindIf, token.KindFor, token.KindOpenBrace:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.check(token.KindSemicolon) {
			p.advance()
		}
		return expr, nil
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.skipSemicolon(); err != nil {
			return nil, err
		}
		return expr, nil
	}
}

func (p *Parser) parseExpr() (*ast.Node, error) {
	switch p.peek().Kind {
	case token.KindFor:
		return p.parseFor()
	case token.KindIf:
		return p.parseIf()
	case token.KindOpenBrace:
		return p.parseBlock()
	default:
		return p.parseAssignment()
	}
}

func (p *Parser) parseFor() (*ast.Node, error) {
	forTok := p.advance() // 'for'
	nameTok, err := p.expect(token.KindIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindColon); err != nil {
		return nil, err
	}
	antn, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(token.OpAssign); err != nil {
		return nil, err
	}
	startExpr, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindSemicolon); err != nil {
		return nil, err
	}
	cond, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KindSemicolon); err != nil {
		return nil, err
	}
	step, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Node{
		Kind: ast.KindFor, Loc: ast.LocOf(forTok),
		For: &ast.ForNode{StartName: nameTok.Ident, StartAntn: antn, StartExpr: startExpr, Cond: cond, Step: step, Body: body},
	}, nil
}

func (p *Parser) parseIf() (*ast.Node, error) {
	ifTok := p.advance() // 'if'
	cond, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBlock *ast.Node
	if p.check(token.KindElse) {
		p.advance()
		if p.check(token.KindIf) {
			elseBlock, err = p.parseIf()
		} else {
			elseBlock, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}
	}
	return &ast.Node{Kind: ast.KindCond, Loc: ast.LocOf(ifTok), Cond: &ast.CondNode{Cond: cond, ThenBlock: thenBlock, ElseBlock: elseBlock}}, nil
}

// Precedence-climbing expression parser, low to high: assignment
// (right-assoc) -> || -> && -> | ^ & -> == != -> relational -> + - ->
// * / ** -> unary prefix -> postfix.

func (p *Parser) parseAssignment() (*ast.Node, error) {
	lhs, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.check(token.KindOp) && isAssignOp(p.peek().Op) {
		opTok := p.advance()
		rhs, err := p.parseAssignment() // right-associative
		if err != nil {
			return nil, err
		}
		return &ast.Node{Kind: ast.KindBinOp, Loc: ast.LocOf(opTok), BinOp: &ast.BinOpNode{Op: opTok.Op, LHS: lhs, RHS: rhs}}, nil
	}
	return lhs, nil
}

func isAssignOp(op token.Operator) bool {
	return op == token.OpAssign || op.IsCompoundAssign()
}

func (p *Parser) parseLogicalOr() (*ast.Node, error) {
	return p.parseBinOpLevel(p.parseLogicalAnd, token.OpOr)
}

func (p *Parser) parseLogicalAnd() (*ast.Node, error) {
	return p.parseBinOpLevel(p.parseBitwise, token.OpAnd)
}

func (p *Parser) parseBitwise() (*ast.Node, error) {
	return p.parseBinOpLevel(p.parseEquality, token.OpBitOr, token.OpBitXor, token.OpBitAnd)
}

func (p *Parser) parseEquality() (*ast.Node, error) {
	return p.parseBinOpLevel(p.parseRelational, token.OpEq, token.OpNotEq)
}

func (p *Parser) parseRelational() (*ast.Node, error) {
	return p.parseBinOpLevel(p.parseAdditive, token.OpLt, token.OpLtEq, token.OpGt, token.OpGtEq)
}

func (p *Parser) parseAdditive() (*ast.Node, error) {
	return p.parseBinOpLevel(p.parseMultiplicative, token.OpAdd, token.OpSub)
}

func (p *Parser) parseMultiplicative() (*ast.Node, error) {
	return p.parseBinOpLevel(p.parseUnary, token.OpMul, token.OpDiv, token.OpPow)
}

// parseBinOpLevel is the shared left-associative-binary-operator climber:
// parse one operand at the next-higher level, then fold in any run of
// operators from ops at this level.
func (p *Parser) parseBinOpLevel(next func() (*ast.Node, error), ops ...token.Operator) (*ast.Node, error) {
	lhs, err := next()
	if err != nil {
		return nil, err
	}
	for p.check(token.KindOp) && containsOp(ops, p.peek().Op) {
		opTok := p.advance()
		rhs, err := next()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Node{Kind: ast.KindBinOp, Loc: ast.LocOf(opTok), BinOp: &ast.BinOpNode{Op: opTok.Op, LHS: lhs, RHS: rhs}}
	}
	return lhs, nil
}

func containsOp(ops []token.Operator, op token.Operator) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	if p.check(token.KindOp) {
		switch p.peek().Op {
		case token.OpNot, token.OpSub, token.OpInc, token.OpDec:
			opTok := p.advance()
			rhs, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.Node{Kind: ast.KindUnOp, Loc: ast.LocOf(opTok), UnOp: &ast.UnOpNode{Op: opTok.Op, RHS: rhs}}, nil
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (*ast.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Kind {
		case token.KindDot:
			dotTok := p.advance()
			nameTok, err := p.expect(token.KindIdent)
			if err != nil {
				return nil, err
			}
			if p.check(token.KindOpenParen) {
				p.advance()
				args, err := p.parseArgList(token.KindCloseParen)
				if err != nil {
					return nil, err
				}
				expr = &ast.Node{Kind: ast.KindMSelector, Loc: ast.LocOf(dotTok), MSelector: &ast.MSelectorNode{Comp: expr, MethodName: nameTok.Ident, Args: args}}
			} else {
				expr = &ast.Node{Kind: ast.KindFSelector, Loc: ast.LocOf(dotTok), FSelector: &ast.FSelectorNode{Comp: expr, FieldName: nameTok.Ident}}
			}
		case token.KindOpenBracket:
			brTok := p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.KindCloseBracket); err != nil {
				return nil, err
			}
			expr = &ast.Node{Kind: ast.KindIndex, Loc: ast.LocOf(brTok), Index: &ast.IndexNode{Binding: expr, Idx: idx}}
		case token.KindOp:
			if p.peek().Op == token.OpInc || p.peek().Op == token.OpDec {
				opTok := p.advance()
				expr = &ast.Node{Kind: ast.KindUnOp, Loc: ast.LocOf(opTok), UnOp: &ast.UnOpNode{Op: opTok.Op, RHS: expr}}
				continue
			}
			return expr, nil
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgList(closing token.Kind) ([]*ast.Node, error) {
	var args []*ast.Node
	if p.check(closing) {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.check(token.KindComma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(closing); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	t := p.peek()
	switch t.Kind {
	case token.KindNum:
		return p.parseNumberLit()
	case token.KindChar:
		p.advance()
		return &ast.Node{Kind: ast.KindLit, Loc: ast.LocOf(t), Lit: &ast.Literal{Kind: ast.LitChar, CharVal: t.Char}}, nil
	case token.KindBool:
		p.advance()
		return &ast.Node{Kind: ast.KindLit, Loc: ast.LocOf(t), Lit: &ast.Literal{Kind: ast.LitBool, BoolVal: t.Bool}}, nil
	case token.KindOpenBracket:
		return p.parseArrayLit()
	case token.KindOpenParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.KindCloseParen); err != nil {
			return nil, err
		}
		return inner, nil
	case token.KindIdent:
		p.advance()
		if p.check(token.KindOpenParen) {
			p.advance()
			args, err := p.parseArgList(token.KindCloseParen)
			if err != nil {
				return nil, err
			}
			return &ast.Node{Kind: ast.KindCall, Loc: ast.LocOf(t), Call: &ast.CallNode{Name: t.Ident, Args: args}}, nil
		}
		return &ast.Node{Kind: ast.KindIdent, Loc: ast.LocOf(t), Ident: &ast.IdentNode{Name: t.Ident}}, nil
	default:
		return nil, errAt(t, "expected an expression but found %s", describe(t))
	}
}

func (p *Parser) parseArrayLit() (*ast.Node, error) {
	openTok := p.advance() // '['
	elements, err := p.parseArgList(token.KindCloseBracket)
	if err != nil {
		return nil, err
	}
	return &ast.Node{Kind: ast.KindLit, Loc: ast.LocOf(openTok), Lit: &ast.Literal{Kind: ast.LitArray, Elements: elements}}, nil
}

// parseNumberLit reads the raw Num text: a `.` makes it a Float literal;
// otherwise it is parsed into the widest unsigned container (UInt64) and
// refined later by the type checker per its hint.
func (p *Parser) parseNumberLit() (*ast.Node, error) {
	t := p.advance()
	if strings.Contains(t.Num, ".") {
		f, err := strconv.ParseFloat(t.Num, 32)
		if err != nil {
			return nil, errAt(t, "invalid float literal: %s", t.Num)
		}
		return &ast.Node{Kind: ast.KindLit, Loc: ast.LocOf(t), Lit: &ast.Literal{Kind: ast.LitFloat, FloatVal: float32(f), RawNum: t.Num}}, nil
	}
	v, err := strconv.ParseUint(t.Num, 10, 64)
	if err != nil {
		return nil, errAt(t, "integer literal out of range: %s", t.Num)
	}
	return &ast.Node{Kind: ast.KindLit, Loc: ast.LocOf(t), Lit: &ast.Literal{Kind: ast.LitUInt64, UInt64Val: v}}, nil
}
