// Command lightc is the thin driver over the compiler core: it owns file
// I/O and diagnostic flag plumbing; backend IR emission, JIT, and linking
// are out-of-scope collaborators this repository doesn't implement, since
// it covers only the front/middle-end. Flag names mirror the lightc CLI;
// --watch and concurrent multi-file compilation are additions.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gmofishsauce/light/internal/ast"
	"github.com/gmofishsauce/light/internal/cache"
	"github.com/gmofishsauce/light/internal/hir"
	"github.com/gmofishsauce/light/internal/lexer"
	"github.com/gmofishsauce/light/internal/lower"
	"github.com/gmofishsauce/light/internal/parser"
	"github.com/gmofishsauce/light/internal/symtab"
	"github.com/gmofishsauce/light/internal/token"
	"github.com/gmofishsauce/light/internal/tych"
	"github.com/gmofishsauce/light/internal/watch"
)

func main() {
	app := &cli.App{
		Name:  "lightc",
		Usage: "compile a light source file to its lowered intermediate representation",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "tokens", Usage: "print the lexed token stream and exit"},
			&cli.BoolFlag{Name: "ast-pre", Usage: "print the number of parsed top-level declarations and exit (the untyped AST itself is not printed)"},
			&cli.BoolFlag{Name: "ast", Usage: "print the number of type-checked top-level declarations and exit (the typed AST itself is not printed)"},
			&cli.BoolFlag{Name: "ir", Usage: "print the number of lowered structs and functions and exit (the HIR itself is not printed)"},
			&cli.BoolFlag{Name: "jit", Usage: "JIT-execute the compiled program (external collaborator, not implemented by this core)"},
			&cli.StringFlag{Name: "o", Usage: "output path for the generated artifact (external collaborator, accepted but unused by this core)"},
			&cli.IntFlag{Name: "opt-level", Aliases: []string{"O"}, Usage: "optimization level: 0 or 1 (external collaborator, accepted but unused by this core)"},
			&cli.BoolFlag{Name: "no-verify", Usage: "skip HIR invariant verification before handing off to a backend"},
			&cli.BoolFlag{Name: "watch", Usage: "recompile automatically when the input file changes (exactly one input file)"},
			&cli.StringFlag{Name: "cache", Usage: "path to the incremental-compilation cache file", Value: ".lightc-cache.json"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return cli.Exit("lightc: no input files", 1)
	}

	buildID := uuid.New().String()
	opts := options{
		tokens: c.Bool("tokens"), astPre: c.Bool("ast-pre"), ast: c.Bool("ast"), ir: c.Bool("ir"),
		noVerify: c.Bool("no-verify"), optLevel: c.Int("opt-level"), out: c.String("o"),
	}

	compileCache, err := cache.Load(c.String("cache"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("lightc[%s]: %s", buildID, err), 1)
	}

	compileOne := func(path string) error {
		if needsRecompile, err := compileCache.NeedsRecompile(path); err == nil && !needsRecompile {
			return nil
		}
		if err := compileFile(path, opts); err != nil {
			compileCache.Forget(path)
			return err
		}
		return nil
	}

	if c.Bool("watch") {
		if len(paths) != 1 {
			return cli.Exit("lightc: --watch accepts exactly one input file", 1)
		}
		return watch.Run(context.Background(), paths[0], compileOne)
	}

	g, _ := errgroup.WithContext(context.Background())
	for _, path := range paths {
		path := path
		g.Go(func() error { return compileOne(path) })
	}
	if err := g.Wait(); err != nil {
		_ = compileCache.Save()
		return cli.Exit(fmt.Sprintf("lightc[%s]: %s", buildID, err), 1)
	}
	return compileCache.Save()
}

type options struct {
	tokens, astPre, ast, ir bool
	noVerify                bool
	optLevel                int
	out                     string
}

// compileFile runs one source file through the full pipeline. Each file
// compiles with its own SymbolTable, keeping each compilation
// single-threaded even when multiple files run concurrently across
// goroutines.
func compileFile(path string, opts options) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	toks, err := lexer.Scan(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if opts.tokens {
		printTokens(path, toks)
		return nil
	}

	table := symtab.New()
	untyped, err := parser.Parse(toks, table)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if opts.astPre {
		fmt.Printf("%s: parsed %d top-level declarations\n", path, len(untyped.Decls))
		return nil
	}

	typed, err := tych.Check(untyped, table, "")
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if opts.ast {
		fmt.Printf("%s: type-checked %d top-level declarations\n", path, len(typed.Decls))
		return nil
	}

	h, err := lower.Lower(typed, table)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !opts.noVerify {
		if err := verify(h); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if opts.ir {
		fmt.Printf("%s: lowered %d structs, %d functions\n", path, len(h.Structs), len(h.Functions))
		return nil
	}

	// Backend code generation, linking, and JIT execution are external
	// collaborators not implemented by this core.
	fmt.Printf("%s: compiled (%d functions ready for a backend)\n", path, len(h.Functions))
	return nil
}

// verify checks the HIR invariants a correct lowering must hold: every
// Call.name is a known fq_name, and every FSelector index is within its
// target struct's field count, before handing HIR to an external backend.
func verify(h *hir.Hir) error {
	fqNames := make(map[string]bool, len(h.Prototypes))
	for _, p := range h.Prototypes {
		fqNames[p.FQName] = true
	}
	fieldCounts := make(map[string]int, len(h.Structs))
	for _, s := range h.Structs {
		fieldCounts[s.Struct.Name] = len(s.Struct.Fields)
	}

	var walk func(n *ast.Node) error
	walk = func(n *ast.Node) error {
		if n == nil {
			return nil
		}
		switch n.Kind {
		case ast.KindCall:
			if !fqNames[n.Call.Name] {
				return fmt.Errorf("call to unknown function %s survived lowering", n.Call.Name)
			}
			for _, a := range n.Call.Args {
				if err := walk(a); err != nil {
					return err
				}
			}
		case ast.KindFSelector:
			structName := n.FSelector.Comp.Ty.Name
			if count, ok := fieldCounts[structName]; ok {
				if n.FSelector.FieldIndex < 0 || n.FSelector.FieldIndex >= count {
					return fmt.Errorf("field selector index %d out of range for struct %s", n.FSelector.FieldIndex, structName)
				}
			}
			return walk(n.FSelector.Comp)
		case ast.KindFor:
			return firstErr(walk(n.For.StartExpr), walk(n.For.Cond), walk(n.For.Step), walk(n.For.Body))
		case ast.KindLet:
			return walk(n.Let.Init)
		case ast.KindBinOp:
			return firstErr(walk(n.BinOp.LHS), walk(n.BinOp.RHS))
		case ast.KindUnOp:
			return walk(n.UnOp.RHS)
		case ast.KindCond:
			return firstErr(walk(n.Cond.Cond), walk(n.Cond.ThenBlock), walk(n.Cond.ElseBlock))
		case ast.KindBlock:
			for _, stmt := range n.Block.List {
				if err := walk(stmt); err != nil {
					return err
				}
			}
		case ast.KindIndex:
			return firstErr(walk(n.Index.Binding), walk(n.Index.Idx))
		}
		return nil
	}

	for _, fn := range h.Functions {
		if err := walk(fn.Fn.Body); err != nil {
			return err
		}
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func printTokens(path string, toks []token.Token) {
	fmt.Printf("%s:\n", path)
	for _, t := range toks {
		fmt.Printf("  %d:%d %s\n", t.Line, t.Column, t.String())
	}
}
