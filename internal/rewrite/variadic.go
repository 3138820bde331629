package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/symbols"
)

// LowerVariadics rewrites map, zip and unzip into their fixed-arity forms:
// map(f, xs, ys) becomes map2(f, xs, ys) and zip(xs, ys) becomes zip2(xs, ys).
// unzip takes its arity from the most recent tuple binder of its block.
func LowerVariadics(prog *ast.Program) error {
	return lowerBlock(prog.Statements)
}

func lowerBlock(stmts []ast.Statement) error {
	arity := 0
	for _, s := range stmts {
		if b, ok := s.(*ast.Bind); ok {
			if t, ok := b.Binder.(*ast.Tuple); ok {
				arity = len(t.Elements)
			}
		}
		var err error
		switch s := s.(type) {
		case *ast.Bind:
			s.Value, err = lowerExpr(s.Value, arity)
		case *ast.Return:
			s.Value, err = lowerExpr(s.Value, arity)
		case *ast.Cond:
			if s.Test, err = lowerExpr(s.Test, arity); err == nil {
				if err = lowerBlock(s.Body); err == nil {
					err = lowerBlock(s.Orelse)
				}
			}
		case *ast.Procedure:
			err = lowerBlock(s.Body)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func lowerExpr(e ast.Expression, unzipArity int) (ast.Expression, error) {
	var err error
	out := ast.Rewrite(e, func(n ast.Node) ast.Node {
		if err != nil {
			return n
		}
		var lowered ast.Node
		lowered, err = lowerCall(n, unzipArity)
		return lowered
	})
	return out.(ast.Expression), err
}

func lowerCall(n ast.Node, unzipArity int) (ast.Node, error) {
	switch n := n.(type) {
	case *ast.Map:
		if len(n.Inputs) < 1 || len(n.Inputs) > config.MaxArity {
			return n, syntaxError(diagnostics.ErrS005, n, "map needs 1 to %d sequences, got %d", config.MaxArity, len(n.Inputs))
		}
		return &ast.Apply{
			Token: n.Token,
			Fn:    newName(n.Token, symbols.VariadicName(config.MapFuncName, len(n.Inputs))),
			Args:  append([]ast.Expression{n.Fn}, n.Inputs...),
		}, nil
	case *ast.Apply:
		fn, ok := n.Fn.(*ast.Name)
		if !ok {
			return n, nil
		}
		switch fn.Value {
		case config.MapFuncName:
			if len(n.Args) < 2 || len(n.Args)-1 > config.MaxArity {
				return n, syntaxError(diagnostics.ErrS005, n, "map needs a function and 1 to %d sequences", config.MaxArity)
			}
			rename(fn, symbols.VariadicName(config.MapFuncName, len(n.Args)-1))
		case config.ZipFuncName:
			if len(n.Args) < 2 || len(n.Args) > config.MaxArity {
				return n, syntaxError(diagnostics.ErrS005, n, "zip needs 2 to %d sequences, got %d", config.MaxArity, len(n.Args))
			}
			rename(fn, symbols.VariadicName(config.ZipFuncName, len(n.Args)))
		case config.UnzipFuncName:
			if len(n.Args) != 1 {
				return n, syntaxError(diagnostics.ErrS005, n, "unzip takes one sequence, got %d", len(n.Args))
			}
			if unzipArity < 2 {
				return n, syntaxError(diagnostics.ErrS005, n, "cannot tell how many sequences unzip returns: bind its result to a tuple")
			}
			rename(fn, symbols.VariadicName(config.UnzipFuncName, unzipArity))
		}
	}
	return n, nil
}
