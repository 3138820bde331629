package analyzer

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/symbols"
	"github.com/funvibe/copperhead/internal/typesystem"
	"golang.org/x/exp/slices"
)

// TypingContext holds the state of one inference run. A fresh context is
// needed per compilation; nothing in it is safe for concurrent use.
type TypingContext struct {
	counter int

	// Globals is the host namespace consulted after local scopes.
	Globals *symbols.SymbolTable

	// EntryTypes fixes the argument types of entry point procedures.
	EntryTypes map[string][]typesystem.Type

	// scopes maps local identifiers to their binder types, innermost last.
	scopes []map[string]typesystem.Type

	// monomorphs are the types of formals enclosing the current point.
	// monoMarks records the stack height at each scope entry.
	monomorphs []typesystem.Type
	monoMarks  []int

	// Free maps the type variable of every free occurrence to its node.
	Free map[int]ast.Node

	// assumptions are free occurrences, by name, that no later binder has
	// explained yet.
	assumptions map[string][]typesystem.TVar
}

func NewTypingContext(globals *symbols.SymbolTable) *TypingContext {
	if globals == nil {
		globals = symbols.NewSymbolTable()
	}
	return &TypingContext{
		Globals:     globals,
		EntryTypes:  make(map[string][]typesystem.Type),
		scopes:      []map[string]typesystem.Type{{}},
		Free:        make(map[int]ast.Node),
		assumptions: make(map[string][]typesystem.TVar),
	}
}

// Fresh returns a type variable never handed out before by this context.
func (c *TypingContext) Fresh() typesystem.TVar {
	c.counter++
	return typesystem.TVar{ID: c.counter}
}

func (c *TypingContext) FreshTypes(n int) []typesystem.Type {
	ts := make([]typesystem.Type, n)
	for i := range ts {
		ts[i] = c.Fresh()
	}
	return ts
}

// BeginScope opens a lexical scope for locals and monomorphs.
func (c *TypingContext) BeginScope() {
	c.scopes = append(c.scopes, map[string]typesystem.Type{})
	c.monoMarks = append(c.monoMarks, len(c.monomorphs))
}

func (c *TypingContext) EndScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
	mark := c.monoMarks[len(c.monoMarks)-1]
	c.monoMarks = c.monoMarks[:len(c.monoMarks)-1]
	c.monomorphs = c.monomorphs[:mark]
}

// Bind makes name visible in the innermost scope.
func (c *TypingContext) Bind(name string, t typesystem.Type) {
	c.scopes[len(c.scopes)-1][name] = t
}

// Lookup finds name in the local scopes, innermost first.
func (c *TypingContext) Lookup(name string) (typesystem.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

// AddMonomorph keeps the variables of t from being generalized while the
// current scope is open.
func (c *TypingContext) AddMonomorph(t typesystem.Type) {
	c.monomorphs = append(c.monomorphs, t)
}

// Monomorphs snapshots the current monomorphic set.
func (c *TypingContext) Monomorphs() []typesystem.Type {
	return slices.Clone(c.monomorphs)
}

// Assume records a free occurrence of name.
func (c *TypingContext) Assume(name string, node ast.Node) typesystem.TVar {
	tv := c.Fresh()
	c.Free[tv.ID] = node
	c.assumptions[name] = append(c.assumptions[name], tv)
	return tv
}

// explain removes and returns the pending assumptions about name.
func (c *TypingContext) explain(name string) []typesystem.TVar {
	tvs := c.assumptions[name]
	delete(c.assumptions, name)
	return tvs
}
