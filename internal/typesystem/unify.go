package typesystem

// Unifier incrementally extends a substitution so that unified types become
// equal. Polytypes met during unification are instantiated with Fresh.
type Unifier struct {
	Subst Subst
	Fresh func() TVar
}

func NewUnifier(fresh func() TVar) *Unifier {
	return &Unifier{Subst: make(Subst), Fresh: fresh}
}

// Unify attempts to find a substitution that makes t1 and t2 equal.
// Polytypes are rejected since there is no variable supply to instantiate them.
func Unify(t1, t2 Type) (Subst, error) {
	u := NewUnifier(nil)
	if err := u.Unify(t1, t2); err != nil {
		return nil, err
	}
	return u.Subst, nil
}

// Walk follows variable bindings until reaching an unbound variable or a
// non-variable type. Inner parameters are left unresolved.
func (u *Unifier) Walk(t Type) Type {
	for {
		tv, ok := t.(TVar)
		if !ok {
			return t
		}
		next, bound := u.Subst[tv.ID]
		if !bound {
			return t
		}
		if nv, ok := next.(TVar); ok && nv.ID == tv.ID {
			return t
		}
		t = next
	}
}

// Resolve applies the whole substitution to t.
func (u *Unifier) Resolve(t Type) Type {
	return t.Apply(u.Subst)
}

func (u *Unifier) Unify(t1, t2 Type) error {
	t1, t2 = u.Walk(t1), u.Walk(t2)

	if _, ok := t1.(TForall); ok {
		if u.Fresh == nil {
			return &MismatchError{Left: u.Resolve(t1), Right: u.Resolve(t2)}
		}
		t1 = Instantiate(t1, u.Fresh)
	}
	if _, ok := t2.(TForall); ok {
		if u.Fresh == nil {
			return &MismatchError{Left: u.Resolve(t1), Right: u.Resolve(t2)}
		}
		t2 = Instantiate(t2, u.Fresh)
	}

	v1, isVar1 := t1.(TVar)
	v2, isVar2 := t2.(TVar)
	switch {
	case isVar1 && isVar2 && v1.ID == v2.ID:
		return nil
	case isVar1:
		return u.Bind(v1, t2)
	case isVar2:
		return u.Bind(v2, t1)
	}

	n1, p1, _ := Decompose(t1)
	n2, p2, _ := Decompose(t2)
	if n1 != n2 || len(p1) != len(p2) {
		return &MismatchError{Left: u.Resolve(t1), Right: u.Resolve(t2)}
	}
	for i := range p1 {
		if err := u.Unify(p1[i], p2[i]); err != nil {
			return err
		}
	}
	return nil
}

// Bind binds a type variable to a type, performing the occurs check.
func (u *Unifier) Bind(tv TVar, t Type) error {
	if other, ok := u.Walk(t).(TVar); ok && other.ID == tv.ID {
		return nil
	}
	resolved := u.Resolve(t)
	if Occurs(tv, resolved) {
		return &OccursError{Var: tv, Type: resolved}
	}
	u.Subst[tv.ID] = t
	return nil
}

// Compact rewrites every binding to its fully resolved target so that later
// lookups need no chain walking.
func (u *Unifier) Compact() {
	for id, t := range u.Subst {
		u.Subst[id] = u.Resolve(t)
	}
}
