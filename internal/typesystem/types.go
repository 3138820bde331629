package typesystem

import (
	"fmt"
	"strings"

	"github.com/funvibe/copperhead/internal/config"
)

// Type is the interface for all types in our system.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
}

// TVar represents a type variable. Identity is the ID; Name is only used for
// display and may be shared by unrelated variables.
type TVar struct {
	ID   int
	Name string
}

func (t TVar) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("t%d", t.ID)
}

func (t TVar) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[int]bool))
}

func (t TVar) FreeTypeVariables() []TVar {
	return []TVar{t}
}

// TCon represents a nullary type constructor (e.g. Long, Bool).
type TCon struct {
	Name string
}

func (t TCon) String() string { return t.Name }

func (t TCon) Apply(Subst) Type { return t }

func (t TCon) FreeTypeVariables() []TVar { return nil }

// TApp represents a type constructor applied to arguments (e.g. Seq(Long)).
type TApp struct {
	Constructor TCon
	Args        []Type
}

func (t TApp) String() string {
	if t.Constructor.Name == config.SeqTypeName && len(t.Args) == 1 {
		return "[" + t.Args[0].String() + "]"
	}
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", t.Constructor.Name, strings.Join(args, ", "))
}

func (t TApp) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[int]bool))
}

func (t TApp) FreeTypeVariables() []TVar { return collectFree(t) }

// TTuple represents a tuple type (e.g. (Long, Bool)).
type TTuple struct {
	Elements []Type
}

func (t TTuple) String() string {
	args := make([]string, len(t.Elements))
	for i, el := range t.Elements {
		args[i] = el.String()
	}
	return "(" + strings.Join(args, ", ") + ")"
}

func (t TTuple) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[int]bool))
}

func (t TTuple) FreeTypeVariables() []TVar { return collectFree(t) }

// TFunc represents a function type (e.g. (Long, Long) -> Bool).
type TFunc struct {
	Params     []Type
	ReturnType Type
}

func (t TFunc) String() string {
	var params string
	switch {
	case len(t.Params) == 1 && !needsParens(t.Params[0]):
		params = t.Params[0].String()
	case len(t.Params) == 1:
		params = "(" + t.Params[0].String() + ")"
	default:
		ps := make([]string, len(t.Params))
		for i, p := range t.Params {
			ps[i] = p.String()
		}
		params = "(" + strings.Join(ps, ", ") + ")"
	}
	return params + " -> " + t.ReturnType.String()
}

func needsParens(t Type) bool {
	switch t.(type) {
	case TFunc, TTuple, TForall:
		return true
	}
	return false
}

func (t TFunc) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[int]bool))
}

func (t TFunc) FreeTypeVariables() []TVar { return collectFree(t) }

// TForall represents a universally quantified type. Vars are bound in Type.
type TForall struct {
	Vars []TVar
	Type Type
}

// String renames the quantified variables to a, b, c, ... in order so that
// alpha-equivalent polytypes print identically.
func (t TForall) String() string {
	display := make(map[int]Type, len(t.Vars))
	names := make([]string, len(t.Vars))
	for i, v := range t.Vars {
		names[i] = quantifierName(i)
		display[v.ID] = TVar{ID: v.ID, Name: names[i]}
	}
	return fmt.Sprintf("ForAll %s: %s", strings.Join(names, ", "), rename(t.Type, display))
}

func quantifierName(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return fmt.Sprintf("a%d", i)
}

func (t TForall) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[int]bool))
}

func (t TForall) FreeTypeVariables() []TVar { return collectFree(t) }

func collectFree(t Type) []TVar {
	var out []TVar
	for v := range FreeInType(t) {
		out = append(out, v)
	}
	return uniqueTVars(out)
}

// Constructors for the base types.
var (
	Int    = TCon{Name: config.IntTypeName}
	Long   = TCon{Name: config.LongTypeName}
	Float  = TCon{Name: config.FloatTypeName}
	Double = TCon{Name: config.DoubleTypeName}
	Bool   = TCon{Name: config.BoolTypeName}
	Void   = TCon{Name: config.VoidTypeName}
)

// Seq builds the sequence type [elem].
func Seq(elem Type) Type {
	return TApp{Constructor: TCon{Name: config.SeqTypeName}, Args: []Type{elem}}
}

// Fn builds a function type.
func Fn(params []Type, ret Type) Type {
	return TFunc{Params: params, ReturnType: ret}
}

// Tuple builds a tuple type from a sequence of element types. A single
// element is returned as is.
func Tuple(elems ...Type) Type {
	if len(elems) == 1 {
		return elems[0]
	}
	return TTuple{Elements: elems}
}

// Decompose views a non-variable type as a constructor name applied to
// parameters, the form unification compares.
func Decompose(t Type) (name string, params []Type, ok bool) {
	switch t := t.(type) {
	case TCon:
		return t.Name, nil, true
	case TApp:
		return t.Constructor.Name, t.Args, true
	case TTuple:
		return config.TupleTypeName, t.Elements, true
	case TFunc:
		return config.FnTypeName, []Type{TTuple{Elements: t.Params}, t.ReturnType}, true
	}
	return "", nil, false
}

// Equal reports structural equality. Type variables compare by ID.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case TVar:
		bv, ok := b.(TVar)
		return ok && a.ID == bv.ID
	case TForall:
		bf, ok := b.(TForall)
		if !ok || len(a.Vars) != len(bf.Vars) {
			return false
		}
		for i := range a.Vars {
			if a.Vars[i].ID != bf.Vars[i].ID {
				return false
			}
		}
		return Equal(a.Type, bf.Type)
	}
	an, ap, ok := Decompose(a)
	if !ok {
		return false
	}
	bn, bp, ok := Decompose(b)
	if !ok || an != bn || len(ap) != len(bp) {
		return false
	}
	for i := range ap {
		if !Equal(ap[i], bp[i]) {
			return false
		}
	}
	return true
}

// Subst is a mapping from type variable IDs to types.
type Subst map[int]Type

// Compose combines two substitutions.
func (s1 Subst) Compose(s2 Subst) Subst {
	subst := Subst{}
	for k, v := range s2 {
		subst[k] = v
	}
	for k, v := range s1 {
		subst[k] = v.Apply(s2)
	}
	return subst
}

// ApplyWithCycleCheck applies substitution with cycle detection.
// This is the main entry point for substitution application.
func ApplyWithCycleCheck(t Type, s Subst, visited map[int]bool) Type {
	if t == nil {
		return nil
	}

	switch typ := t.(type) {
	case TVar:
		if visited[typ.ID] {
			return typ
		}
		replacement, ok := s[typ.ID]
		if !ok {
			return typ
		}
		if tv, ok := replacement.(TVar); ok && tv.ID == typ.ID {
			return replacement
		}
		newVisited := copyVisited(visited)
		newVisited[typ.ID] = true
		return ApplyWithCycleCheck(replacement, s, newVisited)

	case TCon:
		return typ

	case TApp:
		newArgs := make([]Type, len(typ.Args))
		for i, arg := range typ.Args {
			newArgs[i] = ApplyWithCycleCheck(arg, s, visited)
		}
		return TApp{Constructor: typ.Constructor, Args: newArgs}

	case TTuple:
		newElems := make([]Type, len(typ.Elements))
		for i, e := range typ.Elements {
			newElems[i] = ApplyWithCycleCheck(e, s, visited)
		}
		return TTuple{Elements: newElems}

	case TFunc:
		newParams := make([]Type, len(typ.Params))
		for i, p := range typ.Params {
			newParams[i] = ApplyWithCycleCheck(p, s, visited)
		}
		return TFunc{Params: newParams, ReturnType: ApplyWithCycleCheck(typ.ReturnType, s, visited)}

	case TForall:
		// Quantified variables are never substituted.
		bound := make(map[int]bool, len(typ.Vars))
		for _, v := range typ.Vars {
			bound[v.ID] = true
		}
		inner := make(Subst, len(s))
		for k, v := range s {
			if !bound[k] {
				inner[k] = v
			}
		}
		return TForall{Vars: typ.Vars, Type: ApplyWithCycleCheck(typ.Type, inner, visited)}

	default:
		panic(fmt.Sprintf("typesystem: unknown type %T", t))
	}
}

func copyVisited(m map[int]bool) map[int]bool {
	newMap := make(map[int]bool, len(m)+1)
	for k, v := range m {
		newMap[k] = v
	}
	return newMap
}

// rename replaces variables by ID without any capture checks. Only used for
// display.
func rename(t Type, display map[int]Type) Type {
	switch t := t.(type) {
	case TVar:
		if r, ok := display[t.ID]; ok {
			return r
		}
		return t
	case TApp:
		args := make([]Type, len(t.Args))
		for i, a := range t.Args {
			args[i] = rename(a, display)
		}
		return TApp{Constructor: t.Constructor, Args: args}
	case TTuple:
		elems := make([]Type, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = rename(e, display)
		}
		return TTuple{Elements: elems}
	case TFunc:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = rename(p, display)
		}
		return TFunc{Params: params, ReturnType: rename(t.ReturnType, display)}
	case TForall:
		return TForall{Vars: t.Vars, Type: rename(t.Type, display)}
	}
	return t
}

func uniqueTVars(vars []TVar) []TVar {
	unique := []TVar{}
	seen := map[int]bool{}
	for _, v := range vars {
		if !seen[v.ID] {
			seen[v.ID] = true
			unique = append(unique, v)
		}
	}
	return unique
}
