package analyzer

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/typesystem"
	"golang.org/x/exp/slices"
)

// Result is the outcome of inference over one program.
type Result struct {
	// Type is the type of the program's last statement.
	Type typesystem.Type
	// Solution is the compacted substitution.
	Solution typesystem.Subst
	// Assumed maps type variables of free occurrences that were never
	// explained to their nodes. It is only non-empty when Infer fails.
	Assumed map[int]ast.Node
}

// Infer types prog in place: on success every node's type is resolved
// against the final solution. Errors are *diagnostics.DiagnosticError.
func Infer(ctx *TypingContext, prog *ast.Program) (*Result, error) {
	constraints, last, err := Generate(ctx, prog)
	if err != nil {
		return nil, err
	}

	solver := NewSolver(ctx)
	solution, err := solver.Solve(constraints)
	if err != nil {
		return &Result{Assumed: solver.Unexplained()}, err
	}

	for n := range ast.Nodes(prog) {
		meta := n.Annotations()
		if meta.Type != nil {
			meta.Type = meta.Type.Apply(solution)
		}
	}
	return &Result{
		Type:     last.Apply(solution),
		Solution: solution,
		Assumed:  map[int]ast.Node{},
	}, nil
}

func sortedNames(names []string) []string {
	slices.Sort(names)
	return names
}
