package analyzer

import (
	"errors"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/typesystem"
	"github.com/hashicorp/go-set/v3"
)

// Solver solves constraints in order, extending a single substitution.
// Equalities that would bind a binder still awaiting generalization, and
// closures over a callable that is not known yet, are deferred until the
// forward pass is over.
type Solver struct {
	ctx     *TypingContext
	unifier *typesystem.Unifier

	// quantified maps each generalized variable to its quantifier. It is
	// merged into the solution once solving is done.
	quantified map[int]typesystem.TVar

	deferred []Constraint

	// binders are the variables of Generalizing constraints not yet solved.
	binders *set.Set[int]
	// unexplained are free occurrences no Explanation has resolved yet.
	unexplained *set.Set[int]
}

func NewSolver(ctx *TypingContext) *Solver {
	unexplained := set.New[int](len(ctx.Free))
	for id := range ctx.Free {
		unexplained.Insert(id)
	}
	return &Solver{
		ctx:         ctx,
		unifier:     typesystem.NewUnifier(ctx.Fresh),
		quantified:  make(map[int]typesystem.TVar),
		binders:     set.New[int](0),
		unexplained: unexplained,
	}
}

// Solve runs the forward pass, reports undefined names, drains the deferred
// queue and compacts the solution.
func (s *Solver) Solve(constraints []Constraint) (typesystem.Subst, error) {
	for _, c := range constraints {
		if g, ok := c.(*Generalizing); ok {
			s.binders.Insert(g.Binder.ID)
		}
	}

	for _, c := range constraints {
		if err := s.solve(c, true); err != nil {
			return nil, err
		}
	}

	if err := s.undefined(); err != nil {
		return nil, err
	}

	for len(s.deferred) > 0 {
		c := s.deferred[0]
		s.deferred = s.deferred[1:]
		if err := s.solve(c, false); err != nil {
			return nil, err
		}
	}

	for id, q := range s.quantified {
		if _, bound := s.unifier.Subst[id]; !bound {
			s.unifier.Subst[id] = q
		}
	}
	s.unifier.Compact()
	return s.unifier.Subst, nil
}

// Resolve applies the current solution to t.
func (s *Solver) Resolve(t typesystem.Type) typesystem.Type {
	return s.unifier.Resolve(t)
}

func (s *Solver) solve(c Constraint, canDefer bool) error {
	switch c := c.(type) {
	case *Equality:
		if canDefer && (s.pendingBinder(c.Left) || s.pendingBinder(c.Right)) {
			s.deferred = append(s.deferred, c)
			return nil
		}
		return s.unify(c.Left, c.Right, c.Node)

	case *Explanation:
		if canDefer && s.pendingBinder(c.Binder) {
			s.deferred = append(s.deferred, c)
			return nil
		}
		s.unexplained.Remove(c.Assumed.ID)
		return s.unify(c.Assumed, c.Binder, c.Node)

	case *Generalizing:
		return s.generalize(c)

	case *ClosedOver:
		if _, unknown := s.unifier.Walk(c.Body).(typesystem.TVar); unknown && canDefer {
			s.deferred = append(s.deferred, c)
			return nil
		}
		return s.closedOver(c)
	}
	panic("analyzer: unknown constraint")
}

func (s *Solver) pendingBinder(t typesystem.Type) bool {
	tv, ok := s.unifier.Walk(t).(typesystem.TVar)
	return ok && s.binders.Contains(tv.ID)
}

// generalize quantifies the value over every variable that neither an
// enclosing formal nor an unexplained free occurrence can still reach.
func (s *Solver) generalize(c *Generalizing) error {
	value := s.Resolve(c.Value)
	excluded := set.New[int](0)
	for _, m := range c.Monomorphs {
		excluded.InsertSet(typesystem.VarSet(typesystem.NamesInType(s.Resolve(m))))
	}
	for id := range s.unexplained.Items() {
		excluded.InsertSet(typesystem.VarSet(typesystem.NamesInType(s.Resolve(typesystem.TVar{ID: id}))))
	}
	for _, t := range s.deferredTypes() {
		excluded.InsertSet(typesystem.VarSet(typesystem.NamesInType(s.Resolve(t))))
	}
	generalized := typesystem.QuantifyType(value, excluded, s.quantified, s.ctx.Fresh)
	s.binders.Remove(c.Binder.ID)
	// Bound directly: unifying would instantiate the polytype.
	if tv, free := s.unifier.Walk(c.Binder).(typesystem.TVar); free {
		return s.diagnose(s.unifier.Bind(tv, generalized), c.Node)
	}
	return s.unify(c.Binder, generalized, c.Node)
}

// deferredTypes lists the types mentioned by deferred constraints. Their
// variables are still to be constrained and must stay monomorphic.
func (s *Solver) deferredTypes() []typesystem.Type {
	var ts []typesystem.Type
	for _, c := range s.deferred {
		switch c := c.(type) {
		case *Equality:
			ts = append(ts, c.Left, c.Right)
		case *Explanation:
			ts = append(ts, c.Assumed)
		case *ClosedOver:
			ts = append(ts, c.Type, c.Body)
			ts = append(ts, c.Closed...)
		}
	}
	return ts
}

func (s *Solver) closedOver(c *ClosedOver) error {
	body := typesystem.Instantiate(s.unifier.Walk(c.Body), s.ctx.Fresh)
	fn, ok := body.(typesystem.TFunc)
	if !ok || len(fn.Params) < len(c.Closed) {
		return diagnostics.NewError(diagnostics.ErrI004, line(c.Node),
			"closure body of type %s cannot take %d closed-over values", s.Resolve(body), len(c.Closed))
	}
	public := len(fn.Params) - len(c.Closed)
	for i, closed := range c.Closed {
		if err := s.unify(closed, fn.Params[public+i], c.Node); err != nil {
			return err
		}
	}
	return s.unify(c.Type, typesystem.Fn(fn.Params[:public], fn.ReturnType), c.Node)
}

func (s *Solver) unify(l, r typesystem.Type, origin ast.Node) error {
	return s.diagnose(s.unifier.Unify(l, r), origin)
}

func (s *Solver) diagnose(err error, origin ast.Node) error {
	if err == nil {
		return nil
	}
	var occurs *typesystem.OccursError
	if errors.As(err, &occurs) {
		return diagnostics.NewError(diagnostics.ErrI002, line(origin), "%s", err)
	}
	return diagnostics.NewError(diagnostics.ErrI001, line(origin), "%s", err)
}

// undefined reports the free occurrences left unexplained after the
// forward pass.
func (s *Solver) undefined() error {
	if s.unexplained.Empty() {
		return nil
	}
	seen := set.New[string](0)
	var names []string
	for _, id := range s.unexplained.Slice() {
		if n, ok := s.ctx.Free[id].(*ast.Name); ok && seen.Insert(n.Original()) {
			names = append(names, n.Original())
		}
	}
	return diagnostics.Undefined(sortedNames(names))
}

// Unexplained returns the free occurrences no binder has explained.
func (s *Solver) Unexplained() map[int]ast.Node {
	out := make(map[int]ast.Node, s.unexplained.Size())
	for id := range s.unexplained.Items() {
		out[id] = s.ctx.Free[id]
	}
	return out
}

func line(n ast.Node) int {
	if n == nil {
		return 0
	}
	return n.GetToken().Line
}
