package rewrite

import (
	"strings"
	"testing"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/lexer"
	"github.com/funvibe/copperhead/internal/parser"
	"github.com/funvibe/copperhead/internal/pipeline"
	"github.com/funvibe/copperhead/internal/prettyprinter"
	"github.com/funvibe/copperhead/internal/typesystem"
	"github.com/funvibe/copperhead/internal/utils"
	"github.com/hashicorp/go-set/v3"
	"golang.org/x/exp/slices"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.ParseString(src)
	if err != nil {
		t.Fatalf("parse error: %v\nsource:\n%s", err, src)
	}
	return prog
}

// through runs the front end up to and including the named pass.
func through(t *testing.T, src, last string, entries map[string][]typesystem.Type) (*pipeline.PipelineContext, error) {
	t.Helper()
	stages := []pipeline.Processor{&lexer.LexerProcessor{}, &parser.ParserProcessor{}}
	found := false
	for _, p := range Passes() {
		stages = append(stages, p)
		if pipeline.Name(p) == last {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("no pass named %s", last)
	}
	ctx := pipeline.NewContext(src)
	for name, types := range entries {
		ctx.EntryTypes[name] = types
	}
	ctx = pipeline.New(stages...).Quiet(true).Run(ctx)
	return ctx, ctx.Err()
}

func mustRun(t *testing.T, src, last string, entries map[string][]typesystem.Type) *ast.Program {
	t.Helper()
	ctx, err := through(t, src, last, entries)
	if err != nil {
		t.Fatalf("%s failed: %v\nsource:\n%s", last, err, src)
	}
	return ctx.AstRoot
}

func expectCode(t *testing.T, err error, code diagnostics.ErrorCode) {
	t.Helper()
	if !diagnostics.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
	if !diagnostics.IsSyntax(err) && code[0] == 'S' {
		t.Errorf("%v is not classified as a syntax error", err)
	}
}

func procedure(t *testing.T, prog *ast.Program, name string) *ast.Procedure {
	t.Helper()
	for _, s := range prog.Statements {
		if p, ok := s.(*ast.Procedure); ok && p.Name.Value == name {
			return p
		}
	}
	t.Fatalf("no top-level procedure %s in\n%s", name, prettyprinter.Print(prog))
	return nil
}

func valueNames(es []ast.Expression) []string {
	out := make([]string, len(es))
	for i, e := range es {
		if n, ok := e.(*ast.Name); ok {
			out[i] = n.Value
		} else {
			out[i] = "<" + e.Kind().String() + ">"
		}
	}
	return out
}

func TestPassOrder(t *testing.T) {
	var names []string
	for _, p := range Passes() {
		names = append(names, pipeline.Name(p))
	}
	want := "gather mark closure_conversion single_assignment protect_conditionals lambda_lift " +
		"flatten_procedures flatten_expressions legality inline cast_literals name_tuples " +
		"dead_rebindings lower_variadics"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("got %s", got)
	}
}

func TestClosureConversionArity(t *testing.T) {
	prog := parse(t, `def outer(a, b):
    def inner(x):
        return x + a + b
    return inner(1)
`)
	ConvertClosures(prog, utils.NewNames())

	outer := prog.Statements[0].(*ast.Procedure)
	inner := outer.Body[0].(*ast.Procedure)
	if got := strings.Join(valueNames(inner.Formals), ","); got != "x,_K0,_K1" {
		t.Fatalf("inner formals: %s", got)
	}
	free := set.From(ast.FreeNames(inner))
	if free.Contains("a") || free.Contains("b") {
		t.Errorf("inner still refers to captured names: %v", ast.FreeNames(inner))
	}

	call := outer.Body[1].(*ast.Return).Value.(*ast.Apply)
	c, ok := call.Fn.(*ast.Closure)
	if !ok {
		t.Fatalf("call site not wrapped in a closure: %s", prettyprinter.Print(call))
	}
	if got := strings.Join(valueNames(c.Vars), ","); got != "a,b" {
		t.Errorf("closure vars: %s", got)
	}
	if body, ok := c.Body.(*ast.Name); !ok || body.Value != "inner" {
		t.Errorf("closure body: %s", prettyprinter.Print(c.Body))
	}
}

func TestClosureConversionLambda(t *testing.T) {
	prog := parse(t, "a = 1\nf = lambda x: x + a\nreturn f(2)\n")
	ConvertClosures(prog, utils.NewNames())

	c, ok := prog.Statements[1].(*ast.Bind).Value.(*ast.Closure)
	if !ok {
		t.Fatalf("lambda not closure converted:\n%s", prettyprinter.Print(prog))
	}
	lam := c.Body.(*ast.Lambda)
	if len(lam.Formals) != 2 || len(c.Vars) != 1 {
		t.Fatalf("want one extra formal and one capture, got\n%s", prettyprinter.Print(prog))
	}
	if len(ast.FreeNames(lam)) != 1 || ast.FreeNames(lam)[0] != "op_add" {
		t.Errorf("lambda should only refer to globals, free: %v", ast.FreeNames(lam))
	}
}

func TestClosureConversionRecursion(t *testing.T) {
	prog := parse(t, `def outer(n):
    def loop(i):
        return loop(i + n)
    return loop(0)
`)
	ConvertClosures(prog, utils.NewNames())
	loop := prog.Statements[0].(*ast.Procedure).Body[0].(*ast.Procedure)
	if len(loop.Formals) != 2 {
		t.Fatalf("loop formals: %v", valueNames(loop.Formals))
	}
	self := loop.Body[0].(*ast.Return).Value.(*ast.Apply)
	c, ok := self.Fn.(*ast.Closure)
	if !ok {
		t.Fatalf("recursive call not wrapped: %s", prettyprinter.Print(self))
	}
	if got := strings.Join(valueNames(c.Vars), ","); got != "_K0" {
		t.Errorf("recursive closure should capture the new formal, got %s", got)
	}
}

func TestTopLevelProceduresAreNotCaptured(t *testing.T) {
	prog := parse(t, "def g(x):\n    return x\ndef f(y):\n    return g(y)\n")
	ConvertClosures(prog, utils.NewNames())
	f := prog.Statements[1].(*ast.Procedure)
	if len(f.Formals) != 1 {
		t.Errorf("f captured a global: %v", valueNames(f.Formals))
	}
}

func TestClosureConversionForwardReference(t *testing.T) {
	prog := parse(t, `def f(x):
    def g(y):
        return h(y)
    def h(y):
        return y + x
    return g(1)
`)
	ConvertClosures(prog, utils.NewNames())
	f := prog.Statements[0].(*ast.Procedure)
	g := f.Body[0].(*ast.Procedure)
	h := f.Body[1].(*ast.Procedure)

	// g reaches x through h, so it captures x as well.
	if got := strings.Join(valueNames(g.Formals), ","); got != "y,_K0" {
		t.Fatalf("g formals: %s", got)
	}
	if got := strings.Join(valueNames(h.Formals), ","); got != "y,_K1" {
		t.Fatalf("h formals: %s", got)
	}
	call := g.Body[0].(*ast.Return).Value.(*ast.Apply)
	c, ok := call.Fn.(*ast.Closure)
	if !ok {
		t.Fatalf("call to a later sibling not wrapped: %s", prettyprinter.Print(call))
	}
	if got := strings.Join(valueNames(c.Vars), ","); got != "_K0" {
		t.Errorf("closure vars: %s", got)
	}
	if free := ast.FreeNames(g); slices.Contains(free, "x") {
		t.Errorf("g still refers to x: %v", free)
	}
}

func TestMarking(t *testing.T) {
	prog := mustRun(t, `def f(x):
    return g(x)
def g(y):
    return y
def h(g):
    return g(True)
`, "mark", nil)
	f := procedure(t, prog, "_f")
	call := f.Body[0].(*ast.Return).Value.(*ast.Apply)
	if name := call.Fn.(*ast.Name); name.Value != "_g" || name.Original() != "g" {
		t.Errorf("reference to g: %s (source %s)", name.Value, name.Original())
	}
	h := procedure(t, prog, "_h")
	if got := valueNames(h.Formals)[0]; got != "g" {
		t.Errorf("formal shadowing a global was marked: %s", got)
	}
	inner := h.Body[0].(*ast.Return).Value.(*ast.Apply)
	if got := inner.Fn.(*ast.Name).Value; got != "g" {
		t.Errorf("shadowed reference was marked: %s", got)
	}
	if got := inner.Args[0].(*ast.Name).Value; got != "True" {
		t.Errorf("True must never be marked: %s", got)
	}
}

func TestEntryPointsAreResolved(t *testing.T) {
	ctx, err := through(t, "def f(x):\n    return x\n", "mark", map[string][]typesystem.Type{"f": {typesystem.Long}})
	if err != nil {
		t.Fatal(err)
	}
	if len(ctx.EntryPoints) != 1 || ctx.EntryPoints[0] != "_f" {
		t.Fatalf("entry points: %v", ctx.EntryPoints)
	}
	if !procedure(t, ctx.AstRoot, "_f").EntryPoint {
		t.Error("entry procedure not flagged")
	}
	if got := ctx.EntryPointTypes["_f"]; len(got) != 1 || got[0] != typesystem.Long {
		t.Errorf("entry types: %v", got)
	}

	_, err = through(t, "def f(x):\n    return x\n", "mark", map[string][]typesystem.Type{"nope": nil})
	expectCode(t, err, diagnostics.ErrS005)

	src := "def b(x):\n    return x\ndef c(x):\n    return x\ndef a(x):\n    return x\n"
	entries := map[string][]typesystem.Type{"c": {typesystem.Long}, "a": {typesystem.Long}, "b": {typesystem.Long}}
	ctx, err = through(t, src, "mark", entries)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(ctx.EntryPoints, ","); got != "_a,_b,_c" {
		t.Errorf("entry points %s, want them in name order", got)
	}
}

func TestSingleAssignment(t *testing.T) {
	src := `def f(x):
    y = x + 1
    y = y * 2
    if y > 0:
        z = y
        return z
    else:
        z = 0
        return z
`
	prog := mustRun(t, src, "single_assignment", map[string][]typesystem.Type{"f": {typesystem.Long}})
	f := procedure(t, prog, "_f")
	if got := valueNames(f.Formals)[0]; got != "x" {
		t.Errorf("entry formal was renamed to %s", got)
	}

	seen := set.New[string](0)
	for n := range ast.Nodes(prog) {
		for _, b := range ast.Bindings(n) {
			if !seen.Insert(b.Value) {
				t.Errorf("%s is bound twice:\n%s", b.Value, prettyprinter.Print(prog))
			}
		}
	}

	// The second binding of y reads the first.
	second := f.Body[1].(*ast.Bind)
	first := f.Body[0].(*ast.Bind).Binder.(*ast.Name)
	arg := second.Value.(*ast.Apply).Args[0].(*ast.Name)
	if arg.Value != first.Value {
		t.Errorf("second binding reads %s, want %s", arg.Value, first.Value)
	}
	if first.Original() != "y" {
		t.Errorf("source name lost: %s", first.Original())
	}
}

func TestSingleAssignmentForwardReference(t *testing.T) {
	src := `def f(x):
    def g(y):
        return h(y)
    def h(y):
        return y
    return g(x)
`
	prog := mustRun(t, src, "single_assignment", map[string][]typesystem.Type{"f": {typesystem.Long}})
	f := procedure(t, prog, "_f")
	g := f.Body[0].(*ast.Procedure)
	h := f.Body[1].(*ast.Procedure)
	call := g.Body[0].(*ast.Return).Value.(*ast.Apply)
	if got := call.Fn.(*ast.Name).Value; got != h.Name.Value || got == "h" {
		t.Errorf("g calls %s, h is bound as %s", got, h.Name.Value)
	}
}

func TestSingleAssignmentRenamesReboundEntryFormal(t *testing.T) {
	src := "def f(x):\n    x = x + 1\n    return x\n"
	prog := mustRun(t, src, "single_assignment", map[string][]typesystem.Type{"f": {typesystem.Long}})
	f := procedure(t, prog, "_f")
	if got := valueNames(f.Formals)[0]; got != "x" {
		t.Fatalf("entry formal was renamed to %s", got)
	}
	bind := f.Body[0].(*ast.Bind)
	binder := bind.Binder.(*ast.Name)
	if binder.Value == "x" || binder.Original() != "x" {
		t.Errorf("rebinding of the formal is %s (source %s)", binder.Value, binder.Original())
	}
	if arg := bind.Value.(*ast.Apply).Args[0].(*ast.Name); arg.Value != "x" {
		t.Errorf("rebinding reads %s, want the formal", arg.Value)
	}
	if ret := f.Body[1].(*ast.Return).Value.(*ast.Name); ret.Value != binder.Value {
		t.Errorf("return reads %s, want %s", ret.Value, binder.Value)
	}
}

func TestProtectConditionals(t *testing.T) {
	prog := mustRun(t, "def f(x, y):\n    return x if y else 0\n", "protect_conditionals", nil)
	ret := procedure(t, prog, "_f").Body[0].(*ast.Return)
	call, ok := ret.Value.(*ast.Apply)
	if !ok || len(call.Args) != 0 {
		t.Fatalf("conditional not delayed:\n%s", prettyprinter.Print(prog))
	}
	cond := call.Fn.(*ast.If)
	if _, ok := cond.Body.(*ast.Closure); !ok {
		t.Errorf("arm referring to a local should be a closure, got %s", cond.Body.Kind())
	}
	if lam, ok := cond.Orelse.(*ast.Lambda); !ok || len(lam.Formals) != 0 {
		t.Errorf("constant arm should be a bare thunk, got %s", prettyprinter.Print(cond.Orelse))
	}
}

func TestLambdaLifting(t *testing.T) {
	src := "def f(xs):\n    ys = map(lambda x: x + 1, xs)\n    return ys\n"
	prog := mustRun(t, src, "lambda_lift", nil)
	f := procedure(t, prog, "_f")
	lifted, ok := f.Body[0].(*ast.Procedure)
	if !ok || lifted.Name.Value != "lambda0" {
		t.Fatalf("lifted procedure should precede its statement:\n%s", prettyprinter.Print(prog))
	}
	m := f.Body[1].(*ast.Bind).Value.(*ast.Map)
	if name, ok := m.Fn.(*ast.Name); !ok || name.Value != "lambda0" {
		t.Errorf("lambda not replaced: %s", prettyprinter.Print(m))
	}

	prog = mustRun(t, src, "flatten_procedures", nil)
	if len(prog.Statements) != 2 || procedure(t, prog, "lambda0") != prog.Statements[0] {
		t.Errorf("nested procedure not hoisted ahead of its parent:\n%s", prettyprinter.Print(prog))
	}
}

func TestFlattenedOperandsAreAtomic(t *testing.T) {
	src := `def g(a, b):
    return a
def f(x, y):
    z = g(x + y * 2, -x)
    if z < y:
        return (z, g(y, x) + 1)
    else:
        return g(z, y) if x < y else y
`
	prog := mustRun(t, src, "flatten_expressions", nil)
	atomic := func(e ast.Expression) {
		if !ast.IsAtomic(e) {
			t.Errorf("non-atomic operand %s in\n%s", prettyprinter.Print(e), prettyprinter.Print(prog))
		}
	}
	for n := range ast.Nodes(prog) {
		switch n := n.(type) {
		case *ast.Bind:
			for _, c := range ast.Children(n.Value) {
				atomic(c.(ast.Expression))
			}
		case *ast.Return:
			atomic(n.Value)
		case *ast.Cond:
			atomic(n.Test)
		}
	}
}

func TestFlattenNamesContinue(t *testing.T) {
	names := utils.NewNames()
	a := parse(t, "return f(g(1))\n")
	b := parse(t, "return f(g(1))\n")
	FlattenExpressions(a, names)
	FlattenExpressions(b, names)
	first := a.Statements[0].(*ast.Bind).Binder.(*ast.Name).Value
	second := b.Statements[0].(*ast.Bind).Binder.(*ast.Name).Value
	if first == second {
		t.Errorf("temporaries reused across runs: %s", first)
	}
}

func TestRewritesAreIdempotent(t *testing.T) {
	src := `def f(x, ps):
    y = x
    (a, b) = (y, x)
    (c, d) = unzip(ps)
    return map(lambda u, v: u + v, c, d) if a < b else zip(c, d)
`
	prog := mustRun(t, src, "lower_variadics", nil)
	before := prettyprinter.Print(prog)

	names := utils.NewNames()
	EliminateRebindings(prog)
	FlattenExpressions(prog, names)
	if err := LowerVariadics(prog); err != nil {
		t.Fatal(err)
	}
	if after := prettyprinter.Print(prog); after != before {
		t.Errorf("second run changed the program:\n%s\nvs\n%s", before, after)
	}
}

func TestDeadRebindings(t *testing.T) {
	prog := parse(t, `def f(x, y):
    a = x
    (b, c) = (a, y)
    (d, e) = (b, 1)
    return (c, d, e)
`)
	EliminateRebindings(prog)
	f := prog.Statements[0].(*ast.Procedure)
	if len(f.Body) != 2 {
		t.Fatalf("want the partial tuple rebinding and the return, got\n%s", prettyprinter.Print(prog))
	}
	partial := f.Body[0].(*ast.Bind)
	if got := prettyprinter.Print(partial.Value); got != "(x, 1)" {
		t.Errorf("partial rebinding should read x, got %s", got)
	}
	ret := f.Body[1].(*ast.Return).Value.(*ast.Tuple)
	if got := strings.Join(valueNames(ret.Elements), ","); got != "y,d,e" {
		t.Errorf("return: %s", got)
	}
}

// value is a concrete test value: an int or a slice of values.
type value interface{}

// bindPattern destructures v against pattern into env.
func bindPattern(t *testing.T, pattern ast.Expression, v value, env map[string]value) {
	t.Helper()
	switch p := pattern.(type) {
	case *ast.Name:
		env[p.Value] = v
	case *ast.Tuple:
		vs, ok := v.([]value)
		if !ok || len(vs) != len(p.Elements) {
			t.Fatalf("cannot destructure %v with %s", v, prettyprinter.Print(p))
		}
		for i, el := range p.Elements {
			bindPattern(t, el, vs[i], env)
		}
	}
}

func TestTupleNamingRoundTrip(t *testing.T) {
	prog := parse(t, "def f((a, (b, c)), d, (e, f)):\n    return a\n")
	original := ast.Clone(prog.Statements[0].(*ast.Procedure))
	NameTuples(prog, utils.NewNames())
	named := prog.Statements[0].(*ast.Procedure)

	for _, f := range named.Formals {
		if _, ok := f.(*ast.Name); !ok {
			t.Fatalf("tuple formal left: %s", prettyprinter.Print(named))
		}
	}
	if got := strings.Join(valueNames(named.Formals), ","); got != "tuple0,d,tuple2" {
		t.Errorf("formals: %s", got)
	}

	args := []value{[]value{1, []value{2, 3}}, 4, []value{5, 6}}
	want := map[string]value{}
	for i, f := range original.Formals {
		bindPattern(t, f, args[i], want)
	}

	got := map[string]value{}
	for i, f := range named.Formals {
		bindPattern(t, f, args[i], got)
	}
	for _, s := range named.Body {
		b, ok := s.(*ast.Bind)
		if !ok {
			break
		}
		bindPattern(t, b.Binder, got[b.Value.(*ast.Name).Value], got)
	}
	for name, v := range want {
		if _, isTuple := v.([]value); isTuple {
			continue
		}
		if got[name] != v {
			t.Errorf("%s: got %v, want %v", name, got[name], v)
		}
	}
}

func TestArityLimit(t *testing.T) {
	formals := func(n int) string {
		names := make([]string, n)
		for i := range names {
			names[i] = string(rune('a' + i))
		}
		return "def f(" + strings.Join(names, ", ") + "):\n    return a\n"
	}
	if _, err := through(t, formals(10), "legality", nil); err != nil {
		t.Errorf("10 formals: %v", err)
	}
	_, err := through(t, formals(11), "legality", nil)
	expectCode(t, err, diagnostics.ErrS001)

	_, err = through(t, "return (1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)\n", "legality", nil)
	expectCode(t, err, diagnostics.ErrS001)

	// Captured variables count against the limit and are named.
	captures := `def outer(z):
    def inner(a, b, c, d, e, f, g, h, i, j):
        return a + z
    return inner(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
`
	_, err = through(t, captures, "legality", nil)
	expectCode(t, err, diagnostics.ErrS001)
	if msg := err.Error(); !strings.Contains(msg, "10 written") || !strings.Contains(msg, "captured z") {
		t.Errorf("message does not explain the captured formal: %s", msg)
	}
}

func TestLegality(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diagnostics.ErrorCode
	}{
		{"missing return", "def f(x):\n    y = x\n", diagnostics.ErrS002},
		{"branch without return", "def f(x):\n    if x:\n        return 1\n    else:\n        y = 2\n", diagnostics.ErrS002},
		{"one-armed conditional", "def f(x):\n    if x:\n        return 1\n", diagnostics.ErrS002},
		{"statements after conditional", "def f(x):\n    if x:\n        return 1\n    else:\n        return 2\n    return 3\n", diagnostics.ErrS004},
		{"reserved binder", "def f(x):\n    len = x\n    return len\n", diagnostics.ErrS003},
		{"reserved procedure", "def sum(x):\n    return x\n", diagnostics.ErrS003},
		{"reserved formal", "def f(range):\n    return range\n", diagnostics.ErrS003},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := through(t, tt.src, "legality", nil)
			expectCode(t, err, tt.code)
		})
	}

	ok := "def f(x):\n    if x:\n        return 1\n    elif x:\n        return 2\n    else:\n        return 3\n"
	if _, err := through(t, ok, "legality", nil); err != nil {
		t.Errorf("nested conditional: %v", err)
	}
}

func TestInline(t *testing.T) {
	src := `def inc(x):
    return x + 1
def f(y):
    return inc(y)
`
	entries := map[string][]typesystem.Type{"f": {typesystem.Long}}
	prog := mustRun(t, src, "inline", entries)
	if len(prog.Statements) != 1 {
		t.Fatalf("inc should be inlined and pruned:\n%s", prettyprinter.Print(prog))
	}
	for n := range ast.Nodes(prog) {
		if name, ok := n.(*ast.Name); ok && name.Value == "_inc" {
			t.Errorf("call to inc survived:\n%s", prettyprinter.Print(prog))
		}
	}
}

func TestNoInliningUnderConditionals(t *testing.T) {
	src := `def inc(x):
    return x + 1
def f(y):
    if y > 0:
        return inc(y)
    else:
        return y
`
	prog := mustRun(t, src, "inline", map[string][]typesystem.Type{"f": {typesystem.Long}})
	procedure(t, prog, "_inc")
}

func TestLiteralOpening(t *testing.T) {
	src := `def scale(xs, k):
    return map(lambda x: x * k, xs)
def f(xs):
    return scale(xs, 2)
`
	prog := mustRun(t, src, "inline", map[string][]typesystem.Type{"f": {typesystem.Seq(typesystem.Long)}})
	var spec *ast.Procedure
	for _, s := range prog.Statements {
		if p, ok := s.(*ast.Procedure); ok && strings.HasPrefix(p.Name.Value, "lambda0_spec") {
			spec = p
		}
	}
	if spec == nil {
		t.Fatalf("no specialized procedure:\n%s", prettyprinter.Print(prog))
	}
	if len(spec.Formals) != 1 {
		t.Errorf("literal formal not removed: %v", valueNames(spec.Formals))
	}
	for n := range ast.Nodes(procedure(t, prog, "_f")) {
		if c, ok := n.(*ast.Closure); ok {
			t.Errorf("closure over a literal survived: %s", prettyprinter.Print(c))
		}
	}
	for _, s := range prog.Statements {
		if p, ok := s.(*ast.Procedure); ok && (p.Name.Value == "_scale" || p.Name.Value == "lambda0") {
			t.Errorf("%s should be pruned", p.Name.Value)
		}
	}
}

func TestPruneKeepsEverythingWithoutEntries(t *testing.T) {
	prog := parse(t, "def f(x):\n    return x\ndef g(x):\n    return x\n")
	Prune(prog, nil)
	if len(prog.Statements) != 2 {
		t.Errorf("pruned without entry points")
	}
	Prune(prog, []string{"g"})
	if len(prog.Statements) != 1 || prog.Statements[0].(*ast.Procedure).Name.Value != "g" {
		t.Errorf("f should be pruned:\n%s", prettyprinter.Print(prog))
	}
}

func TestCastLiterals(t *testing.T) {
	prog := mustRun(t, "def f(x):\n    return x + 1\n", "cast_literals", nil)
	add := procedure(t, prog, "_f").Body[0].(*ast.Bind).Value.(*ast.Apply)
	cast, ok := add.Args[1].(*ast.Apply)
	if !ok || cast.Fn.(*ast.Name).Value != "cast_to" {
		t.Fatalf("literal not cast: %s", prettyprinter.Print(add))
	}
	if !cast.LiteralExpr {
		t.Error("cast not flagged as literal")
	}

	prog = mustRun(t, "return 1 + 2\n", "cast_literals", nil)
	sum := prog.Statements[0].(*ast.Bind).Value.(*ast.Apply)
	if !sum.LiteralExpr {
		t.Error("call over literals not flagged")
	}
	for _, a := range sum.Args {
		if _, ok := a.(*ast.Number); !ok {
			t.Errorf("nothing to cast to, got %s", prettyprinter.Print(a))
		}
	}

	prog = mustRun(t, "return 1 and True\n", "cast_literals", nil)
	and := prog.Statements[0].(*ast.Bind).Value.(*ast.Apply)
	if got := prettyprinter.Print(and.Args[0]); got != "bool(1)" {
		t.Errorf("concrete parameter: got %s", got)
	}
}

func TestLowerVariadics(t *testing.T) {
	prog := parse(t, `def f(g, xs, ys, ps):
    (a, b, c) = unzip(ps)
    z = zip(xs, ys, a)
    return map(g, xs, ys)
`)
	if err := LowerVariadics(prog); err != nil {
		t.Fatal(err)
	}
	var called []string
	for n := range ast.Nodes(prog) {
		if a, ok := n.(*ast.Apply); ok {
			called = append(called, a.Fn.(*ast.Name).Value)
		}
		if _, ok := n.(*ast.Map); ok {
			t.Error("map node left")
		}
	}
	if got := strings.Join(called, ","); got != "unzip3,zip3,map2" {
		t.Errorf("got %s", got)
	}

	err := LowerVariadics(parse(t, "def f(ps):\n    p = unzip(ps)\n    return p\n"))
	expectCode(t, err, diagnostics.ErrS005)
	err = LowerVariadics(parse(t, "def f(xs):\n    return zip(xs)\n"))
	expectCode(t, err, diagnostics.ErrS005)
}

func TestGather(t *testing.T) {
	globals := pipeline.NewContext("").Globals
	for _, src := range []string{
		"def helper(x):\n    return x\n",
		"def twice(x):\n    return helper(helper(x))\n",
		"def unused(x):\n    return x\n",
	} {
		globals.DefineSyntax(parse(t, src).Statements[0].(*ast.Procedure))
	}
	prog := parse(t, "def f(y):\n    return twice(y)\n")
	Gather(prog, globals)

	var order []string
	for _, s := range prog.Statements {
		order = append(order, s.(*ast.Procedure).Name.Value)
	}
	if got := strings.Join(order, ","); got != "helper,twice,f" {
		t.Errorf("got %s", got)
	}
}
