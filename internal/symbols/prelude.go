package symbols

import (
	"fmt"
	"strings"
	"sync"

	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/typesystem"
)

// Singleton prelude table containing all built-in symbols
var (
	preludeTable *SymbolTable
	preludeOnce  sync.Once
)

// GetPrelude returns the singleton prelude SymbolTable containing all built-in symbols.
// It is never modified after construction and is shared by all compilations.
func GetPrelude() *SymbolTable {
	preludeOnce.Do(func() {
		preludeTable = NewEmptySymbolTable()
		preludeTable.scopeType = ScopePrelude
		preludeTable.InitBuiltins()
	})
	return preludeTable
}

// NewSymbolTable creates a new symbol table.
// It inherits from Prelude.
func NewSymbolTable() *SymbolTable {
	st := NewEmptySymbolTable()
	st.outer = GetPrelude()
	st.scopeType = ScopeGlobal
	return st
}

var builtinSignatures = map[string]string{
	// Arithmetic
	"op_add": "ForAll a: (a, a) -> a",
	"op_sub": "ForAll a: (a, a) -> a",
	"op_mul": "ForAll a: (a, a) -> a",
	"op_div": "ForAll a: (a, a) -> a",
	"op_mod": "ForAll a: (a, a) -> a",
	"op_pow": "ForAll a: (a, a) -> a",
	"op_neg": "ForAll a: a -> a",

	// Bitwise
	"op_and":    "ForAll a: (a, a) -> a",
	"op_or":     "ForAll a: (a, a) -> a",
	"op_xor":    "ForAll a: (a, a) -> a",
	"op_lshift": "ForAll a: (a, a) -> a",
	"op_rshift": "ForAll a: (a, a) -> a",
	"op_invert": "ForAll a: a -> a",

	// Comparison
	"op_lt": "ForAll a: (a, a) -> Bool",
	"op_le": "ForAll a: (a, a) -> Bool",
	"op_gt": "ForAll a: (a, a) -> Bool",
	"op_ge": "ForAll a: (a, a) -> Bool",
	"op_eq": "ForAll a: (a, a) -> Bool",
	"op_ne": "ForAll a: (a, a) -> Bool",

	// Boolean
	"op_band": "(Bool, Bool) -> Bool",
	"op_bor":  "(Bool, Bool) -> Bool",
	"op_not":  "Bool -> Bool",

	// Sequences
	"len":       "ForAll a: [a] -> Long",
	"range":     "Long -> [Long]",
	"indices":   "ForAll a: [a] -> [Long]",
	"reduce":    "ForAll a: ((a, a) -> a, [a], a) -> a",
	"sum":       "ForAll a: [a] -> a",
	"gather":    "ForAll a: ([a], [Long]) -> [a]",
	"scatter":   "ForAll a: ([a], [Long], [a]) -> [a]",
	"scan":      "ForAll a: ((a, a) -> a, [a]) -> [a]",
	"permute":   "ForAll a: ([a], [Long]) -> [a]",
	"replicate": "ForAll a: (a, Long) -> [a]",

	config.CastToFuncName: "ForAll a, b: (a, b) -> b",
}

func (st *SymbolTable) InitBuiltins() {
	for name, sig := range builtinSignatures {
		st.DefineType(name, typesystem.MustParseType(sig), BuiltinSymbol)
	}

	for typeName, fn := range config.ConversionFuncs {
		st.DefineType(fn, typesystem.MustParseType("ForAll a: a -> "+typeName), BuiltinSymbol)
		st.DefineType(typeName, nil, TypeSymbol)
	}
	st.DefineType(config.VoidTypeName, nil, TypeSymbol)

	for n := 1; n <= config.MaxArity; n++ {
		st.DefineType(VariadicName(config.MapFuncName, n), typesystem.MustParseType(mapSignature(n)), BuiltinSymbol)
		if n >= 2 {
			st.DefineType(VariadicName(config.ZipFuncName, n), typesystem.MustParseType(zipSignature(n)), BuiltinSymbol)
			st.DefineType(VariadicName(config.UnzipFuncName, n), typesystem.MustParseType(unzipSignature(n)), BuiltinSymbol)
		}
	}

	// Variadic names are lowered before inference and carry no type.
	for _, name := range config.VariadicFuncNames {
		st.DefineType(name, nil, BuiltinSymbol)
	}
}

// VariadicName is the arity-specific variant of a variadic builtin.
func VariadicName(base string, n int) string {
	return fmt.Sprintf("%s%d", base, n)
}

func typeVars(n int) []string {
	vs := make([]string, n)
	for i := range vs {
		vs[i] = fmt.Sprintf("a%d", i)
	}
	return vs
}

func seqsOf(vs []string) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = "[" + v + "]"
	}
	return out
}

// map3: ((a0, a1, a2) -> b, [a0], [a1], [a2]) -> [b]
func mapSignature(n int) string {
	vs := typeVars(n)
	fn := "(" + strings.Join(vs, ", ") + ") -> b"
	return fmt.Sprintf("((%s), %s) -> [b]", fn, strings.Join(seqsOf(vs), ", "))
}

// zip2: ([a0], [a1]) -> [(a0, a1)]
func zipSignature(n int) string {
	vs := typeVars(n)
	return fmt.Sprintf("(%s) -> [(%s)]", strings.Join(seqsOf(vs), ", "), strings.Join(vs, ", "))
}

// unzip2: ([(a0, a1)]) -> ([a0], [a1])
func unzipSignature(n int) string {
	vs := typeVars(n)
	return fmt.Sprintf("([(%s)]) -> (%s)", strings.Join(vs, ", "), strings.Join(seqsOf(vs), ", "))
}

// IsReserved reports whether name belongs to the standard library surface
// and so may not be redefined by a program.
func IsReserved(name string) bool {
	switch name {
	case config.TrueName, config.FalseName, config.NoneName:
		return true
	}
	return GetPrelude().IsDefined(name)
}
