package copperhead

import (
	"fmt"
	"log"
	"os"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/parser"
	"github.com/funvibe/copperhead/internal/symbols"
	"github.com/funvibe/copperhead/internal/trace"
	"github.com/funvibe/copperhead/internal/typesystem"
)

// LoadOptions turns a project configuration into compile options. When the
// configuration names a trace database it is opened here; release it with
// Options.Close.
func LoadOptions(cfg *config.Config) (Options, error) {
	opts := Options{
		Library: cfg.Library,
		Quiet:   cfg.Quiet,
	}

	globals, err := DefineGlobals(symbols.NewSymbolTable(), cfg.Globals)
	if err != nil {
		return opts, err
	}
	opts.Globals = globals

	if cfg.Entry != nil {
		args := make([]typesystem.Type, len(cfg.Entry.Args))
		for i, src := range cfg.Entry.Args {
			if args[i], err = typesystem.ParseType(src); err != nil {
				return opts, fmt.Errorf("entry %s: argument %d: %w", cfg.Entry.Name, i+1, err)
			}
		}
		opts.Entries = map[string][]typesystem.Type{cfg.Entry.Name: args}
	}

	if cfg.Verbose {
		opts.Logger = log.New(os.Stderr, "copperhead: ", log.Lmicroseconds)
	}

	if cfg.Trace != "" {
		sink, err := trace.OpenSQLite(cfg.Trace)
		if err != nil {
			return opts, err
		}
		opts.Captures = append(opts.Captures, sink.Capture)
		opts.closers = append(opts.closers, sink)
	}
	return opts, nil
}

// DefineGlobals adds configured globals to st. A typed global becomes a
// library name; a global with source contributes every procedure of that
// source as gatherable syntax.
func DefineGlobals(st *symbols.SymbolTable, specs []config.GlobalSpec) (*symbols.SymbolTable, error) {
	for _, g := range specs {
		if g.Type != "" {
			t, err := typesystem.ParseType(g.Type)
			if err != nil {
				return nil, fmt.Errorf("global %s: %w", g.Name, err)
			}
			st.DefineType(g.Name, t, symbols.LibrarySymbol)
		}
		if g.Source == "" {
			continue
		}
		prog, err := parser.ParseString(g.Source)
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", g.Name, err)
		}
		found := false
		for _, s := range prog.Statements {
			proc, ok := s.(*ast.Procedure)
			if !ok {
				return nil, fmt.Errorf("global %s: source may only define procedures", g.Name)
			}
			found = found || proc.Name.Value == g.Name
			st.DefineSyntax(proc)
		}
		if !found {
			return nil, fmt.Errorf("global %s: source does not define %s", g.Name, g.Name)
		}
	}
	return st, nil
}
