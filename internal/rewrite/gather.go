package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/symbols"
	"github.com/hashicorp/go-set/v3"
)

// Gather prepends a copy of every host procedure the program references,
// transitively, ahead of the program's own statements. Dependencies come
// before the procedures that use them.
func Gather(prog *ast.Program, globals *symbols.SymbolTable) {
	defined := set.New[string](len(prog.Statements))
	for _, s := range prog.Statements {
		if p, ok := s.(*ast.Procedure); ok {
			defined.Insert(p.Name.Value)
		}
	}

	g := &gatherer{globals: globals, visited: defined}
	for _, name := range ast.FreeNames(prog) {
		g.visit(name)
	}
	if len(g.out) > 0 {
		prog.Statements = append(g.out, prog.Statements...)
	}
}

type gatherer struct {
	globals *symbols.SymbolTable
	visited *set.Set[string]
	out     []ast.Statement
}

func (g *gatherer) visit(name string) {
	if !g.visited.Insert(name) {
		return
	}
	sym, ok := g.globals.Find(name)
	if !ok || !sym.HasSyntax() {
		return
	}
	proc := ast.Clone(sym.Syntax)
	for _, dep := range ast.FreeNames(proc) {
		g.visit(dep)
	}
	g.out = append(g.out, proc)
}
