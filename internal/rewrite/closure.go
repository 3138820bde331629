package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/token"
	"github.com/funvibe/copperhead/internal/utils"
	"github.com/hashicorp/go-set/v3"
	"golang.org/x/exp/slices"
)

// ConvertClosures makes every lambda and procedure closed: free variables
// bound by an enclosing local scope become extra trailing formals, and
// references to the converted callable capture the outer values in a
// Closure. Top-level procedure names and host globals are never captured.
//
// Calling closure(vars, f) with args is calling f with args followed by
// vars, so the captured values line up with the new formals.
func ConvertClosures(prog *ast.Program, names *utils.Names) {
	cc := &closureConverter{names: names, sources: make(map[string]string)}
	prog.Statements = cc.block(prog.Statements, set.New[string](0))
}

type closureConverter struct {
	names *utils.Names
	// sources maps a closure formal to the source name it captures.
	sources map[string]string
}

// block converts stmts in order. env holds the local names a nested
// callable could capture; it is extended as bindings are seen. References
// to a capturing procedure are rewritten throughout the block, so a sibling
// defined earlier may call it.
func (cc *closureConverter) block(stmts []ast.Statement, env *set.Set[string]) []ast.Statement {
	captures := siblingCaptures(stmts, env)
	if len(captures) > 0 {
		refs := make(map[string]ast.Expression, len(captures))
		for _, s := range stmts {
			if p, ok := s.(*ast.Procedure); ok && len(captures[p.Name.Value]) > 0 {
				refs[p.Name.Value] = closureOf(p.Token, captures[p.Name.Value], p.Name)
			}
		}
		// Substitute leaves a procedure's own name alone inside its body.
		for i, s := range stmts {
			stmts[i] = ast.Substitute(s, refs).(ast.Statement)
		}
	}

	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.Bind:
			s.Value = cc.expr(s.Value, env)
			for _, n := range ast.PatternNames(s.Binder) {
				env.Insert(n.Value)
			}
		case *ast.Return:
			s.Value = cc.expr(s.Value, env)
		case *ast.Cond:
			s.Test = cc.expr(s.Test, env)
			s.Body = cc.block(s.Body, env.Copy())
			s.Orelse = cc.block(s.Orelse, env.Copy())
		case *ast.Procedure:
			cc.procedure(s, env, captures[s.Name.Value])
		}
	}
	return stmts
}

// siblingCaptures lists, per procedure defined in stmts, the outer names it
// captures. A procedure referring to a capturing sibling also captures what
// the sibling captures.
func siblingCaptures(stmts []ast.Statement, env *set.Set[string]) map[string][]string {
	env = env.Copy()
	var procs []*ast.Procedure
	captures := make(map[string][]string)
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.Bind:
			for _, n := range ast.PatternNames(s.Binder) {
				env.Insert(n.Value)
			}
		case *ast.Procedure:
			procs = append(procs, s)
			captures[s.Name.Value] = capturedNames(s, env)
		}
	}
	if len(procs) == 0 {
		return nil
	}

	free := make([][]string, len(procs))
	for i, p := range procs {
		free[i] = ast.FreeNames(p)
	}
	for changed := true; changed; {
		changed = false
		for i, p := range procs {
			own := captures[p.Name.Value]
			for _, ref := range free[i] {
				for _, v := range captures[ref] {
					if !slices.Contains(own, v) {
						own = append(own, v)
						changed = true
					}
				}
			}
			captures[p.Name.Value] = own
		}
	}
	return captures
}

// procedure converts p in place, adding a formal for each captured name.
// Captures are rewritten before the body is converted so nested callables
// capture the new formals rather than the outer names.
func (cc *closureConverter) procedure(p *ast.Procedure, env *set.Set[string], captured []string) {
	if len(captured) > 0 {
		formals := cc.extend(&p.Formals, p.Token, captured)
		subst := substitution(p.Token, captured, formals)
		// Recursive references go through a closure over the new formals.
		subst[p.Name.Value] = closureOf(p.Token, formals, p.Name)
		p.Body = ast.SubstituteBlock(p.Body, subst)
	}
	p.Body = cc.block(p.Body, withNames(env, formalNames(p.Formals)...))
}

func (cc *closureConverter) expr(e ast.Expression, env *set.Set[string]) ast.Expression {
	lam, ok := e.(*ast.Lambda)
	if !ok {
		ast.RewriteChildren(e, func(c ast.Node) ast.Node {
			return cc.expr(c.(ast.Expression), env)
		})
		return e
	}

	captured := capturedNames(lam, env)
	if len(captured) > 0 {
		formals := cc.extend(&lam.Formals, lam.Token, captured)
		lam.Body = ast.Substitute(lam.Body, substitution(lam.Token, captured, formals)).(ast.Expression)
	}
	lam.Body = cc.expr(lam.Body, withNames(env, formalNames(lam.Formals)...))
	if len(captured) == 0 {
		return lam
	}
	return &ast.Closure{Token: lam.Token, Vars: namesOf(lam.Token, captured), Body: lam}
}

// extend appends one fresh closure formal per captured name. Each formal
// remembers the source name it stands for.
func (cc *closureConverter) extend(formals *[]ast.Expression, tok token.Token, captured []string) []string {
	fresh := make([]string, len(captured))
	for i, name := range captured {
		if src, ok := cc.sources[name]; ok {
			name = src
		}
		fresh[i] = cc.names.Fresh(config.ClosureFormalPrefix)
		cc.sources[fresh[i]] = name
		f := newName(tok, fresh[i])
		f.Source = name
		*formals = append(*formals, f)
	}
	return fresh
}

// capturedNames lists the free names of n bound in env, in order of first
// occurrence.
func capturedNames(n ast.Node, env *set.Set[string]) []string {
	var out []string
	for _, name := range ast.FreeNames(n) {
		if env.Contains(name) {
			out = append(out, name)
		}
	}
	return out
}

func substitution(tok token.Token, from, to []string) map[string]ast.Expression {
	subst := make(map[string]ast.Expression, len(from)+1)
	for i, name := range from {
		subst[name] = newName(tok, to[i])
	}
	return subst
}

func closureOf(tok token.Token, vars []string, fn *ast.Name) *ast.Closure {
	return &ast.Closure{Token: tok, Vars: namesOf(tok, vars), Body: refTo(fn)}
}
