package typesystem

import (
	"fmt"
	"iter"

	"github.com/hashicorp/go-set/v3"
	"golang.org/x/exp/slices"
)

// Quantifiers returns the variables bound by t if it is a polytype.
func Quantifiers(t Type) []TVar {
	if f, ok := t.(TForall); ok {
		return f.Vars
	}
	return nil
}

// NamesInType yields every type variable occurring in t, bound or free, in
// order of appearance. Variables may be yielded more than once.
func NamesInType(t Type) iter.Seq[TVar] {
	return func(yield func(TVar) bool) {
		walkVars(t, nil, yield)
	}
}

// FreeInType yields the type variables of t that are not bound by an
// enclosing polytype inside t.
func FreeInType(t Type) iter.Seq[TVar] {
	return func(yield func(TVar) bool) {
		walkVars(t, set.New[int](0), yield)
	}
}

// walkVars visits variables; when bound is non-nil, quantified variables are
// skipped. Returns false once yield asks to stop.
func walkVars(t Type, bound *set.Set[int], yield func(TVar) bool) bool {
	switch t := t.(type) {
	case TVar:
		if bound != nil && bound.Contains(t.ID) {
			return true
		}
		return yield(t)
	case TForall:
		if bound != nil {
			inner := bound.Copy()
			for _, v := range t.Vars {
				inner.Insert(v.ID)
			}
			return walkVars(t.Type, inner, yield)
		}
		for _, v := range t.Vars {
			if !yield(v) {
				return false
			}
		}
		return walkVars(t.Type, nil, yield)
	}
	_, params, _ := Decompose(t)
	for _, p := range params {
		if !walkVars(p, bound, yield) {
			return false
		}
	}
	return true
}

// VarSet collects the IDs of the variables yielded by seq.
func VarSet(seq iter.Seq[TVar]) *set.Set[int] {
	s := set.New[int](0)
	for v := range seq {
		s.Insert(v.ID)
	}
	return s
}

// Occurs reports whether v occurs anywhere in t.
func Occurs(v TVar, t Type) bool {
	for n := range NamesInType(t) {
		if n.ID == v.ID {
			return true
		}
	}
	return false
}

// SubstitutedType returns a copy of t with every variable keyed in subst
// replaced. No key may be quantified by a polytype inside t; violating this
// is a programming error.
func SubstitutedType(t Type, subst Subst) Type {
	switch t := t.(type) {
	case TVar:
		if r, ok := subst[t.ID]; ok {
			return r
		}
		return t
	case TCon:
		return t
	case TApp:
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = SubstitutedType(a, subst)
		}
		return TApp{Constructor: t.Constructor, Args: args}
	case TTuple:
		elems := make([]Type, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = SubstitutedType(e, subst)
		}
		return TTuple{Elements: elems}
	case TFunc:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = SubstitutedType(p, subst)
		}
		return TFunc{Params: params, ReturnType: SubstitutedType(t.ReturnType, subst)}
	case TForall:
		for _, v := range t.Vars {
			if _, captured := subst[v.ID]; captured {
				panic(fmt.Sprintf("typesystem: substitution captures quantified variable %s in %s", v, t))
			}
		}
		return TForall{Vars: t.Vars, Type: SubstitutedType(t.Type, subst)}
	}
	panic(fmt.Sprintf("typesystem: unknown type %T", t))
}

// QuantifyType generalizes t over its free variables that are not in bound.
// memo maps source variables to the quantifier allocated for them so that a
// variable is always generalized to the same quantifier. fresh allocates new
// quantifiers. When nothing is left to generalize t is returned unchanged.
func QuantifyType(t Type, bound *set.Set[int], memo map[int]TVar, fresh func() TVar) Type {
	body := t
	var existing []TVar
	if f, ok := t.(TForall); ok {
		body, existing = f.Type, f.Vars
	}

	seen := set.New[int](0)
	for _, v := range existing {
		seen.Insert(v.ID)
	}
	var free []TVar
	for v := range FreeInType(body) {
		if bound.Contains(v.ID) || seen.Contains(v.ID) {
			continue
		}
		seen.Insert(v.ID)
		free = append(free, v)
	}
	if len(free) == 0 {
		return t
	}

	subst := make(Subst, len(free))
	vars := slices.Clone(existing)
	for _, v := range free {
		q, ok := memo[v.ID]
		if !ok {
			q = fresh()
			memo[v.ID] = q
		}
		subst[v.ID] = q
		vars = append(vars, q)
	}
	slices.SortFunc(vars, func(a, b TVar) int { return a.ID - b.ID })
	vars = slices.CompactFunc(vars, func(a, b TVar) bool { return a.ID == b.ID })
	return TForall{Vars: vars, Type: SubstitutedType(body, subst)}
}

// Instantiate replaces the quantifiers of a polytype with fresh variables.
// Monotypes are returned unchanged.
func Instantiate(t Type, fresh func() TVar) Type {
	f, ok := t.(TForall)
	if !ok {
		return t
	}
	subst := make(Subst, len(f.Vars))
	for _, v := range f.Vars {
		subst[v.ID] = fresh()
	}
	return SubstitutedType(f.Type, subst)
}
