package lexer

import (
	"testing"

	"github.com/gmofishsauce/light/internal/token"
)

type lexTest struct {
	name  string
	input string
	want  []token.Token
}

func tok(kind token.Kind) token.Token { return token.Token{Kind: kind} }

var lexTests = []lexTest{
	{
		name:  "ident_and_num",
		input: "foo 42",
		want: []token.Token{
			{Kind: token.KindIdent, Ident: "foo"},
			{Kind: token.KindNum, Num: "42"},
			{Kind: token.KindSemicolon, Synth: true},
		},
	},
	{
		name:  "keywords",
		input: "fn let for if else extern struct module",
		want: []token.Token{
			tok(token.KindFn), tok(token.KindLet), tok(token.KindFor),
			tok(token.KindIf), tok(token.KindElse), tok(token.KindExtern),
			tok(token.KindStruct), tok(token.KindModule),
		},
	},
	{
		name:  "bool_literals",
		input: "true false",
		want: []token.Token{
			{Kind: token.KindBool, Bool: true},
			{Kind: token.KindBool, Bool: false},
			{Kind: token.KindSemicolon, Synth: true},
		},
	},
	{
		name:  "multi_char_ops",
		input: "== != <= >= && || ++ -- -> += -= *= /=",
		want: []token.Token{
			{Kind: token.KindOp, Op: token.OpEq}, {Kind: token.KindOp, Op: token.OpNotEq},
			{Kind: token.KindOp, Op: token.OpLtEq}, {Kind: token.KindOp, Op: token.OpGtEq},
			{Kind: token.KindOp, Op: token.OpAnd}, {Kind: token.KindOp, Op: token.OpOr},
			{Kind: token.KindOp, Op: token.OpInc}, {Kind: token.KindOp, Op: token.OpDec},
			{Kind: token.KindOp, Op: token.OpRetType}, {Kind: token.KindOp, Op: token.OpAddEq},
			{Kind: token.KindOp, Op: token.OpSubEq}, {Kind: token.KindOp, Op: token.OpMulEq},
			{Kind: token.KindOp, Op: token.OpDivEq},
		},
	},
	{
		name:  "line_comment_ignored",
		input: "foo // trailing comment\nbar",
		want: []token.Token{
			{Kind: token.KindIdent, Ident: "foo"},
			{Kind: token.KindSemicolon, Synth: true},
			{Kind: token.KindIdent, Ident: "bar"},
			{Kind: token.KindSemicolon, Synth: true},
		},
	},
	{
		name:  "char_literal",
		input: "'a' '\\n'",
		want: []token.Token{
			{Kind: token.KindChar, Char: "a"},
			{Kind: token.KindChar, Char: "\n"},
			{Kind: token.KindSemicolon, Synth: true},
		},
	},
	{
		name:  "semicolon_inferred_after_ident",
		input: "foo\nbar",
		want: []token.Token{
			{Kind: token.KindIdent, Ident: "foo"},
			{Kind: token.KindSemicolon, Synth: true},
			{Kind: token.KindIdent, Ident: "bar"},
			{Kind: token.KindSemicolon, Synth: true},
		},
	},
	{
		name:  "semicolon_not_inferred_after_operator",
		input: "foo +\nbar",
		want: []token.Token{
			{Kind: token.KindIdent, Ident: "foo"},
			{Kind: token.KindOp, Op: token.OpAdd},
			{Kind: token.KindIdent, Ident: "bar"},
			{Kind: token.KindSemicolon, Synth: true},
		},
	},
	{
		name:  "semicolon_inferred_at_eof",
		input: "foo",
		want: []token.Token{
			{Kind: token.KindIdent, Ident: "foo"},
			{Kind: token.KindSemicolon, Synth: true},
		},
	},
	{
		name:  "explicit_semicolon_not_synthetic",
		input: "foo;",
		want: []token.Token{
			{Kind: token.KindIdent, Ident: "foo"},
			{Kind: token.KindSemicolon, Synth: false},
		},
	},
	{
		name:  "postfix_inc_infers_semicolon",
		input: "x++\ny",
		want: []token.Token{
			{Kind: token.KindIdent, Ident: "x"},
			{Kind: token.KindOp, Op: token.OpInc},
			{Kind: token.KindSemicolon, Synth: true},
			{Kind: token.KindIdent, Ident: "y"},
			{Kind: token.KindSemicolon, Synth: true},
		},
	},
}

func TestScan(t *testing.T) {
	for _, tt := range lexTests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scan(tt.input)
			if err != nil {
				t.Fatalf("Scan(%q) returned error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Scan(%q) = %d tokens, want %d\ngot:  %v\nwant: %v", tt.input, len(got), len(tt.want), got, tt.want)
			}
			for i := range got {
				g, w := got[i], tt.want[i]
				if g.Kind != w.Kind || g.Ident != w.Ident || g.Num != w.Num ||
					g.Char != w.Char || g.Bool != w.Bool || g.Op != w.Op || g.Synth != w.Synth {
					t.Errorf("token %d: got %v, want %v", i, g, w)
				}
			}
		})
	}
}

func TestScanErrors(t *testing.T) {
	cases := []string{
		"'",
		"'ab'",
		"'\\q'",
		"$",
	}
	for _, src := range cases {
		if _, err := Scan(src); err == nil {
			t.Errorf("Scan(%q) = nil error, want error", src)
		}
	}
}
