package symbols

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/typesystem"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type SymbolKind int

type ScopeType int

const (
	ScopePrelude ScopeType = iota // Built-in functions and type names
	ScopeGlobal                   // Host-provided globals
)

const (
	BuiltinSymbol SymbolKind = iota // Provided by the standard library surface
	LibrarySymbol                   // Host library name subject to identifier marking
	UserSymbol                      // Copperhead-visible user procedure
	TypeSymbol                      // Scalar type name
)

// ShapeFunc computes result extents from argument extents. The front end
// only carries it through to the backend.
type ShapeFunc func(args [][]int) []int

// Symbol is one entry of the globals namespace.
type Symbol struct {
	Name string
	Kind SymbolKind
	// Type is the attached static type, or nil.
	Type typesystem.Type
	// Syntax is the procedure's source tree for Copperhead-visible globals.
	Syntax *ast.Procedure
	Shape  ShapeFunc
	// Phase names the completion phase the backend expects, if any.
	Phase string
}

// HasSyntax reports whether the symbol carries Copperhead-visible source.
func (s Symbol) HasSyntax() bool {
	return s.Syntax != nil
}

// SymbolTable maps global identifiers to symbols. Lookups fall back to the
// outer table, normally the shared prelude.
type SymbolTable struct {
	store     map[string]Symbol
	outer     *SymbolTable
	scopeType ScopeType
}

func NewEmptySymbolTable() *SymbolTable {
	return &SymbolTable{
		store:     make(map[string]Symbol),
		scopeType: ScopeGlobal,
	}
}

// Define adds or replaces a symbol in this table.
func (st *SymbolTable) Define(sym Symbol) {
	st.store[sym.Name] = sym
}

// DefineType registers a typed global.
func (st *SymbolTable) DefineType(name string, t typesystem.Type, kind SymbolKind) {
	st.Define(Symbol{Name: name, Kind: kind, Type: t})
}

// DefineSyntax registers a Copperhead-visible procedure.
func (st *SymbolTable) DefineSyntax(proc *ast.Procedure) {
	sym := st.store[proc.Name.Value]
	sym.Name = proc.Name.Value
	sym.Kind = UserSymbol
	sym.Syntax = proc
	st.Define(sym)
}

// Find looks name up here and then in outer tables.
func (st *SymbolTable) Find(name string) (Symbol, bool) {
	for t := st; t != nil; t = t.outer {
		if sym, ok := t.store[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

func (st *SymbolTable) IsDefined(name string) bool {
	_, ok := st.Find(name)
	return ok
}

// IsPrelude reports whether name resolves to the built-in table.
func (st *SymbolTable) IsPrelude(name string) bool {
	for t := st; t != nil; t = t.outer {
		if _, ok := t.store[name]; ok {
			return t.scopeType == ScopePrelude
		}
	}
	return false
}

// Names returns the names defined directly in this table, sorted.
func (st *SymbolTable) Names() []string {
	names := maps.Keys(st.store)
	slices.Sort(names)
	return names
}

// All returns every visible name, outer tables included, sorted.
func (st *SymbolTable) All() []string {
	seen := make(map[string]bool)
	for t := st; t != nil; t = t.outer {
		for name := range t.store {
			seen[name] = true
		}
	}
	names := maps.Keys(seen)
	slices.Sort(names)
	return names
}

// Fork returns a table sharing the outer chain with a copy of this table's
// own symbols, so a compilation can extend it without affecting the caller.
func (st *SymbolTable) Fork() *SymbolTable {
	return &SymbolTable{store: maps.Clone(st.store), outer: st.outer, scopeType: st.scopeType}
}
