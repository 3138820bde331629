package rewrite

import (
	"fmt"
	"strings"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/utils"
	"github.com/hashicorp/go-set/v3"
	"golang.org/x/exp/slices"
)

// Inline replaces every binding of a direct call to an earlier top-level
// procedure with a copy of the callee's body. Only straight-line, non
// recursive callees are inlined, and calls inside conditionals are left
// alone. The copy is renamed apart; its final return becomes a binding of
// the call site's target.
func Inline(prog *ast.Program, names *utils.Names) {
	in := &inliner{names: names, defined: make(map[string]*ast.Procedure)}
	prog.Statements = in.block(prog.Statements, "")
}

type inliner struct {
	names   *utils.Names
	defined map[string]*ast.Procedure
}

func (in *inliner) block(stmts []ast.Statement, self string) []ast.Statement {
	out := make([]ast.Statement, 0, len(stmts))
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.Bind:
			if expanded, ok := in.expand(s, self); ok {
				out = append(out, expanded...)
				continue
			}
		case *ast.Procedure:
			s.Body = in.block(s.Body, s.Name.Value)
			in.defined[s.Name.Value] = s
		}
		out = append(out, s)
	}
	return out
}

func (in *inliner) expand(b *ast.Bind, self string) ([]ast.Statement, bool) {
	call, ok := b.Value.(*ast.Apply)
	if !ok {
		return nil, false
	}
	args := call.Args
	var fn *ast.Name
	switch f := call.Fn.(type) {
	case *ast.Name:
		fn = f
	case *ast.Closure:
		if fn, ok = f.Body.(*ast.Name); !ok {
			return nil, false
		}
		args = append(slices.Clone(args), f.Vars...)
	default:
		return nil, false
	}

	callee, ok := in.defined[fn.Value]
	if !ok || fn.Value == self || len(callee.Formals) != len(args) || !inlinable(callee) {
		return nil, false
	}

	body := ast.CloneStmts(callee.Body)
	ret := body[len(body)-1].(*ast.Return)
	body[len(body)-1] = &ast.Bind{Token: b.Token, Binder: ast.Clone(b.Binder), Value: ret.Value}

	subst := make(map[string]ast.Expression, len(args))
	var prologue []ast.Statement
	for i, f := range callee.Formals {
		if n, ok := f.(*ast.Name); ok {
			subst[n.Value] = args[i]
			continue
		}
		prologue = append(prologue, &ast.Bind{Token: b.Token, Binder: ast.Clone(f), Value: ast.Clone(args[i])})
	}
	body = ast.SubstituteBlock(append(prologue, body...), subst)

	keep := set.New[string](0)
	for _, n := range ast.PatternNames(b.Binder) {
		keep.Insert(n.Value)
	}
	return SingleAssignment(body, in.names, keep), true
}

// inlinable reports whether p is a sequence of bindings ending in a return
// that never refers to itself.
func inlinable(p *ast.Procedure) bool {
	if len(p.Body) == 0 {
		return false
	}
	for i, s := range p.Body {
		switch s.(type) {
		case *ast.Bind:
		case *ast.Return:
			if i != len(p.Body)-1 {
				return false
			}
		default:
			return false
		}
	}
	if _, ok := p.Body[len(p.Body)-1].(*ast.Return); !ok {
		return false
	}
	for _, s := range p.Body {
		for n := range ast.Nodes(s) {
			if name, ok := n.(*ast.Name); ok && name.Value == p.Name.Value {
				return false
			}
		}
	}
	return true
}

// OpenLiterals specializes procedures closed over numeric literals: each
// such closure is redirected to a private copy of its procedure with the
// literals substituted into the body. The copy follows the original at the
// top level.
func OpenLiterals(prog *ast.Program, names *utils.Names) {
	o := &opener{names: names, procs: topLevelProcedures(prog), specs: make(map[string]string)}
	for {
		o.added = make(map[string][]ast.Statement)
		for _, s := range prog.Statements {
			ast.Rewrite(s, o.rewrite)
		}
		if len(o.added) == 0 {
			return
		}
		out := make([]ast.Statement, 0, len(prog.Statements))
		for _, s := range prog.Statements {
			out = append(out, s)
			if p, ok := s.(*ast.Procedure); ok {
				out = append(out, o.added[p.Name.Value]...)
			}
		}
		prog.Statements = out
	}
}

type opener struct {
	names *utils.Names
	procs map[string]*ast.Procedure
	// specs memoizes specializations by procedure and opened values.
	specs map[string]string
	added map[string][]ast.Statement
}

func (o *opener) rewrite(n ast.Node) ast.Node {
	c, ok := n.(*ast.Closure)
	if !ok {
		return n
	}
	fn, ok := c.Body.(*ast.Name)
	if !ok {
		return n
	}
	proc, ok := o.procs[fn.Value]
	if !ok {
		return n
	}
	public := len(proc.Formals) - len(c.Vars)
	if public < 0 {
		return n
	}

	opened := make([]bool, len(c.Vars))
	var key strings.Builder
	key.WriteString(fn.Value)
	found := false
	for i, v := range c.Vars {
		num, isNum := v.(*ast.Number)
		_, named := proc.Formals[public+i].(*ast.Name)
		if isNum && named {
			opened[i] = true
			found = true
			fmt.Fprintf(&key, "|%d=%s", i, num.Value)
		}
	}
	if !found {
		return n
	}

	spec, ok := o.specs[key.String()]
	if !ok {
		spec = o.specialize(proc, public, c.Vars, opened)
		o.specs[key.String()] = spec
	}

	var rest []ast.Expression
	for i, v := range c.Vars {
		if !opened[i] {
			rest = append(rest, v)
		}
	}
	ref := newName(fn.Token, spec)
	if len(rest) == 0 {
		return ref
	}
	c.Vars = rest
	c.Body = ref
	return c
}

func (o *opener) specialize(proc *ast.Procedure, public int, vars []ast.Expression, opened []bool) string {
	spec := ast.Clone(proc)
	spec.EntryPoint = false
	name := o.names.Fresh(proc.Name.Value + config.SpecializedInfix)
	rename(spec.Name, name)

	formals := slices.Clone(spec.Formals[:public])
	subst := make(map[string]ast.Expression)
	for i, v := range vars {
		f := spec.Formals[public+i]
		if opened[i] {
			subst[f.(*ast.Name).Value] = v
			continue
		}
		formals = append(formals, f)
	}
	spec.Formals = formals
	spec.Body = ast.SubstituteBlock(spec.Body, subst)
	SingleAssignment([]ast.Statement{spec}, o.names, set.New[string](0))

	o.procs[name] = spec
	o.added[proc.Name.Value] = append(o.added[proc.Name.Value], spec)
	return name
}

// Prune drops top-level procedures that neither an entry point nor a
// top-level statement can reach. Without entry points nothing is dropped.
func Prune(prog *ast.Program, entries []string) {
	if len(entries) == 0 {
		return
	}
	procs := topLevelProcedures(prog)
	work := slices.Clone(entries)
	for _, s := range prog.Statements {
		if _, ok := s.(*ast.Procedure); !ok {
			work = append(work, ast.FreeNames(s)...)
		}
	}

	live := set.New[string](len(procs))
	for len(work) > 0 {
		name := work[len(work)-1]
		work = work[:len(work)-1]
		p, ok := procs[name]
		if !ok || !live.Insert(name) {
			continue
		}
		work = append(work, ast.FreeNames(p)...)
	}

	kept := prog.Statements[:0]
	for _, s := range prog.Statements {
		if p, ok := s.(*ast.Procedure); ok && !live.Contains(p.Name.Value) {
			continue
		}
		kept = append(kept, s)
	}
	prog.Statements = kept
}
