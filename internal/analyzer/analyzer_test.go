package analyzer

import (
	"strings"
	"testing"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/parser"
	"github.com/funvibe/copperhead/internal/symbols"
	"github.com/funvibe/copperhead/internal/token"
	"github.com/funvibe/copperhead/internal/typesystem"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.ParseString(src)
	if err != nil {
		t.Fatalf("parse error: %v\nsource:\n%s", err, src)
	}
	return prog
}

func infer(t *testing.T, prog *ast.Program) (*Result, error) {
	t.Helper()
	return Infer(NewTypingContext(symbols.NewSymbolTable()), prog)
}

// mustInfer returns the printed type of the program's last statement.
func mustInfer(t *testing.T, src string) string {
	t.Helper()
	res, err := infer(t, parse(t, src))
	if err != nil {
		t.Fatalf("unexpected error: %v\nsource:\n%s", err, src)
	}
	return res.Type.String()
}

func expectInferError(t *testing.T, src string, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	_, err := infer(t, parse(t, src))
	if err == nil {
		t.Fatalf("expected %s, inference succeeded\nsource:\n%s", code, src)
	}
	de, ok := diagnostics.As(err)
	if !ok {
		t.Fatalf("expected a DiagnosticError, got %T: %v", err, err)
	}
	if de.Code != code {
		t.Fatalf("expected %s, got %v", code, de)
	}
	if !diagnostics.IsInference(err) {
		t.Errorf("%v is not classified as an inference error", err)
	}
	return de
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"identity", "def f(x): return x\n", "ForAll a: a -> a"},
		{"increment", "def f(x): return x + 1\n", "Long -> Long"},
		{"lambda capture", "a = 1\nf = lambda x: x + a\nreturn f(2)\n", "Long"},
		{"conditional", `if 1 < 0:
    x = 1
    y = 0
    return x + y
else:
    x = 2
    y = 3
    return y - x
`, "Long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mustInfer(t, tt.src); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBranchMismatch(t *testing.T) {
	src := `if 1 < 0:
    x = 1
    y = 0
    return x + y
else:
    x = 2
    y = 3
    return 2.5
`
	de := expectInferError(t, src, diagnostics.ErrI001)
	if !strings.Contains(de.Message, "Long") || !strings.Contains(de.Message, "Double") {
		t.Errorf("message should name both types: %s", de.Message)
	}
}

func TestPolymorphicInstancesAreIndependent(t *testing.T) {
	// Both calls of id typecheck on their own; op_band needs two Bools.
	src := "def id(x): return x\nreturn id(True) and id(3)\n"
	expectInferError(t, src, diagnostics.ErrI001)

	ok := "def id(x): return x\nreturn id(True), id(3)\n"
	if got := mustInfer(t, ok); got != "(Bool, Long)" {
		t.Errorf("got %s", got)
	}
}

func TestLiteralTypes(t *testing.T) {
	tests := map[string]string{
		"return 7\n":     "Long",
		"return -7\n":    "Long",
		"return 2.5\n":   "Double",
		"return 1e3\n":   "Double",
		"return True\n":  "Bool",
		"return False\n": "Bool",
		"return None\n":  "Void",
		"return ()\n":    "()",
	}
	for src, want := range tests {
		if got := mustInfer(t, src); got != want {
			t.Errorf("%q: got %s, want %s", src, got, want)
		}
	}
}

func TestGeneralization(t *testing.T) {
	if got := mustInfer(t, "f = lambda z: z\n"); got != "ForAll a: a -> a" {
		t.Errorf("let-bound lambda: got %s", got)
	}

	src := `def g(y):
    h = lambda z: y
    return h
`
	prog := parse(t, src)
	res, err := infer(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Type.String(); got != "ForAll a, b: a -> b -> a" {
		t.Errorf("g: got %s", got)
	}

	// h may only be generalized over z: y belongs to the enclosing formal.
	binds := ast.Collect(prog, func(n ast.Node) []*ast.Bind {
		if b, ok := n.(*ast.Bind); ok {
			return []*ast.Bind{b}
		}
		return nil
	})
	if len(binds) != 1 {
		t.Fatalf("expected one bind, got %d", len(binds))
	}
	h, ok := binds[0].Binder.Annotations().Type.(typesystem.TForall)
	if !ok {
		t.Fatalf("h should be polymorphic, got %s", binds[0].Binder.Annotations().Type)
	}
	if len(h.Vars) != 1 {
		t.Errorf("h should quantify exactly one variable, got %s", h)
	}
}

func TestDestructuringIsMonomorphic(t *testing.T) {
	src := "p, q = (lambda z: z), 1\nreturn p(True), p(3)\n"
	expectInferError(t, src, diagnostics.ErrI001)
}

func TestRecursionIsMonomorphic(t *testing.T) {
	if got := mustInfer(t, "def f(x):\n    return f(x)\n"); got != "ForAll a, b: a -> b" {
		t.Errorf("got %s", got)
	}
	src := `def f(x):
    if True:
        return f(1)
    else:
        return f(True)
`
	expectInferError(t, src, diagnostics.ErrI001)
}

func TestForwardReference(t *testing.T) {
	src := `def f(x):
    return g(x)
def g(y):
    return y
return f(1)
`
	if got := mustInfer(t, src); got != "Long" {
		t.Errorf("got %s", got)
	}
}

func TestUndefinedVariables(t *testing.T) {
	prog := parse(t, "def f(x):\n    return h(g(x), g(1))\n")
	res, err := infer(t, prog)
	de, ok := diagnostics.As(err)
	if !ok || de.Code != diagnostics.ErrI003 {
		t.Fatalf("expected I003, got %v", err)
	}
	if strings.Join(de.Names, ",") != "g,h" {
		t.Errorf("names: got %v", de.Names)
	}
	if res == nil || len(res.Assumed) != 3 {
		t.Errorf("expected three assumed occurrences, got %+v", res)
	}
}

func TestOccursCheckReported(t *testing.T) {
	de := expectInferError(t, "def f(x): return x(x)\n", diagnostics.ErrI002)
	if !strings.Contains(de.Message, "occurs in") {
		t.Errorf("message: %s", de.Message)
	}
}

func TestEntryTypes(t *testing.T) {
	prog := parse(t, "def f(x): return x\n")
	ctx := NewTypingContext(nil)
	ctx.EntryTypes["f"] = []typesystem.Type{typesystem.Seq(typesystem.Double)}
	res, err := Infer(ctx, prog)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Type.String(); got != "[Double] -> [Double]" {
		t.Errorf("got %s", got)
	}

	ctx = NewTypingContext(nil)
	ctx.EntryTypes["f"] = []typesystem.Type{typesystem.Long, typesystem.Long}
	_, err = Infer(ctx, parse(t, "def f(x): return x\n"))
	if !diagnostics.HasCode(err, diagnostics.ErrI005) {
		t.Errorf("expected I005, got %v", err)
	}
}

func TestGlobalsWithAttachedTypes(t *testing.T) {
	globals := symbols.NewSymbolTable()
	globals.DefineType("scale", typesystem.MustParseType("ForAll a: (a, [a]) -> [a]"), symbols.LibrarySymbol)
	prog := parse(t, "def f(xs): return scale(2.0, xs)\n")
	res, err := Infer(NewTypingContext(globals), prog)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Type.String(); got != "[Double] -> [Double]" {
		t.Errorf("got %s", got)
	}
}

func TestMapAndSubscript(t *testing.T) {
	src := `def f(xs, ys):
    return map(lambda x, y: x < y, xs, ys)
`
	if got := mustInfer(t, src); got != "ForAll a: ([a], [a]) -> [Bool]" {
		t.Errorf("map: got %s", got)
	}
	if got := mustInfer(t, "def f(xs, i): return xs[i] + 1.0\n"); got != "([Double], Long) -> Double" {
		t.Errorf("subscript: got %s", got)
	}
	if got := mustInfer(t, "def f(x): return 1 if x else 2\n"); got != "Bool -> Long" {
		t.Errorf("ternary: got %s", got)
	}
}

func TestEveryNodeIsResolved(t *testing.T) {
	prog := parse(t, "def f(x, y):\n    (a, b) = (x + 1, y)\n    return a if b else 0\n")
	if _, err := infer(t, prog); err != nil {
		t.Fatal(err)
	}
	for n := range ast.Nodes(prog) {
		if _, ok := n.(*ast.Program); ok {
			continue
		}
		ty := n.Annotations().Type
		if ty == nil {
			t.Errorf("%s has no type", n.Kind())
			continue
		}
		if len(ty.FreeTypeVariables()) != 0 {
			t.Errorf("%s has unresolved type %s", n.Kind(), ty)
		}
	}
}

func closureCall(captured ast.Expression, callee string, arg ast.Expression) ast.Expression {
	return &ast.Apply{
		Fn:   &ast.Closure{Vars: []ast.Expression{captured}, Body: &ast.Name{Value: callee}},
		Args: []ast.Expression{arg},
	}
}

func num(v string) *ast.Number {
	return &ast.Number{Token: token.Token{Type: token.INT, Lexeme: v}, Value: v}
}

func TestClosedOver(t *testing.T) {
	prog := parse(t, "def add(x, k):\n    return x + k\n")
	prog.Statements = append(prog.Statements, &ast.Return{Value: closureCall(num("1"), "add", num("2"))})
	res, err := infer(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Type.String(); got != "Long" {
		t.Errorf("got %s", got)
	}

	bad := parse(t, "def add(x, k):\n    return x + k\n")
	bad.Statements = append(bad.Statements, &ast.Return{Value: closureCall(&ast.Name{Value: "True"}, "add", num("2"))})
	if _, err := infer(t, bad); !diagnostics.HasCode(err, diagnostics.ErrI001) {
		t.Errorf("expected I001, got %v", err)
	}

	notFn := &ast.Program{Statements: []ast.Statement{
		&ast.Bind{Binder: &ast.Name{Value: "k"}, Value: num("3")},
		&ast.Return{Value: closureCall(num("1"), "k", num("2"))},
	}}
	if _, err := infer(t, notFn); !diagnostics.HasCode(err, diagnostics.ErrI004) {
		t.Errorf("expected I004, got %v", err)
	}
}

func TestClosedOverForwardReferenceIsDeferred(t *testing.T) {
	prog := &ast.Program{}
	prog.Statements = append(prog.Statements, &ast.Bind{
		Binder: &ast.Name{Value: "f"},
		Value:  &ast.Closure{Vars: []ast.Expression{num("1")}, Body: &ast.Name{Value: "add"}},
	})
	defs := parse(t, "def add(x, k):\n    return x + k\nreturn f(2)\n")
	prog.Statements = append(prog.Statements, defs.Statements...)
	res, err := infer(t, prog)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Type.String(); got != "Long" {
		t.Errorf("got %s", got)
	}
}
