package copperhead

import (
	"bytes"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/backend"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/parser"
	"github.com/funvibe/copperhead/internal/trace"
	"github.com/funvibe/copperhead/internal/typesystem"
)

func mustCompile(t *testing.T, src string, opts Options) *Result {
	t.Helper()
	opts.Quiet = true
	res, err := Compile(src, opts)
	if err != nil {
		t.Fatalf("compile failed: %v\nsource:\n%s", err, src)
	}
	return res
}

func expectError(t *testing.T, src string, code diagnostics.ErrorCode) error {
	t.Helper()
	res, err := Compile(src, Options{Quiet: true})
	if err == nil {
		t.Fatalf("expected %s, compiled to %s", code, res.Type)
	}
	if !diagnostics.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
	return err
}

func entry(name string, args ...typesystem.Type) map[string][]typesystem.Type {
	return map[string][]typesystem.Type{name: args}
}

func formals(n int) string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("a%d", i)
	}
	return strings.Join(names, ", ")
}

func TestIdentity(t *testing.T) {
	res := mustCompile(t, "def f(x): return x\n", Options{})
	if got := res.Type.String(); got != "ForAll a: a -> a" {
		t.Errorf("got %s", got)
	}
}

func TestIncrement(t *testing.T) {
	res := mustCompile(t, "def f(x): return x+1\n", Options{Entries: entry("f", typesystem.Long)})
	if got := res.Type.String(); got != "Long -> Long" {
		t.Errorf("got %s", got)
	}
	if len(res.EntryPoints) != 1 || res.EntryPoints[0] != "_f" {
		t.Errorf("entry points %v", res.EntryPoints)
	}
	if _, ok := res.Entry("f"); !ok {
		t.Errorf("entry f not found by its source name")
	}
}

func TestLambdaCapture(t *testing.T) {
	res := mustCompile(t, "a = 1\nf = lambda x: x + a\nreturn f(2)\n", Options{})
	if got := res.Type.String(); got != "Long" {
		t.Errorf("got %s", got)
	}
	var lifted []*ast.Procedure
	for _, s := range res.Program.Statements {
		if p, ok := s.(*ast.Procedure); ok && strings.HasPrefix(p.Name.Value, config.LambdaPrefix) {
			lifted = append(lifted, p)
		}
	}
	if len(lifted) != 1 {
		t.Fatalf("expected one lifted lambda, got %d", len(lifted))
	}
	if n := len(lifted[0].Formals); n != 2 {
		t.Errorf("lifted lambda has %d formals, want x plus one capture", n)
	}
}

func TestConditionalBranches(t *testing.T) {
	src := `if 1<0:
    x=1
    y=0
    return x+y
else:
    x=2
    y=3
    return y-x
`
	res := mustCompile(t, src, Options{})
	if got := res.Type.String(); got != "Long" {
		t.Errorf("got %s", got)
	}

	bad := strings.Replace(src, "return y-x", "return 2.5", 1)
	err := expectError(t, bad, diagnostics.ErrI001)
	if !diagnostics.IsInference(err) {
		t.Errorf("%v is not an inference error", err)
	}
}

func TestArityLimit(t *testing.T) {
	ok := fmt.Sprintf("def f(%s):\n    return a0\n", formals(config.MaxArity))
	mustCompile(t, ok, Options{})

	tooMany := fmt.Sprintf("def f(%s):\n    return a0\n", formals(config.MaxArity+1))
	err := expectError(t, tooMany, diagnostics.ErrS001)
	if !diagnostics.IsSyntax(err) {
		t.Errorf("%v is not a syntax error", err)
	}
}

func TestIndependentInstantiations(t *testing.T) {
	expectError(t, "def id(x): return x\nreturn id(True) and id(3)\n", diagnostics.ErrI001)
}

func TestUndefinedNamesAreSorted(t *testing.T) {
	err := expectError(t, "def f(x):\n    return zeta(beta(x))\n", diagnostics.ErrI003)
	de, _ := diagnostics.As(err)
	if strings.Join(de.Names, ",") != "beta,zeta" {
		t.Errorf("names %v", de.Names)
	}
}

func TestUnknownEntryPoint(t *testing.T) {
	_, err := Compile("def f(x): return x\n", Options{Quiet: true, Entries: entry("g", typesystem.Long)})
	if !diagnostics.HasCode(err, diagnostics.ErrS005) {
		t.Errorf("expected S005, got %v", err)
	}
}

func TestEntryArity(t *testing.T) {
	_, err := Compile("def f(x): return x\n", Options{Quiet: true, Entries: entry("f", typesystem.Long, typesystem.Long)})
	if !diagnostics.HasCode(err, diagnostics.ErrI005) {
		t.Errorf("expected I005, got %v", err)
	}
}

func TestFailureDump(t *testing.T) {
	var dump bytes.Buffer
	_, err := Compile("def f(x):\n    y = x\n", Options{Dump: &dump})
	if !diagnostics.HasCode(err, diagnostics.ErrS002) {
		t.Fatalf("expected S002, got %v", err)
	}
	if !strings.Contains(dump.String(), "Failure in legality pass") {
		t.Errorf("dump:\n%s", dump.String())
	}

	dump.Reset()
	Compile("def f(x):\n    y = x\n", Options{Dump: &dump, Quiet: true})
	if dump.Len() != 0 {
		t.Errorf("quiet compilation printed:\n%s", dump.String())
	}
}

func TestCompileProgram(t *testing.T) {
	prog, err := parser.ParseString("def f(xs, i):\n    return xs[i] and True\n")
	if err != nil {
		t.Fatal(err)
	}
	res, err := CompileProgram(prog, Options{Quiet: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Type.String(); got != "([Bool], Long) -> Bool" {
		t.Errorf("got %s", got)
	}
	if res.Program != prog {
		t.Errorf("program should be rewritten in place")
	}
}

func TestGlobalsAreNotModified(t *testing.T) {
	cfg := &config.Config{Globals: []config.GlobalSpec{{Name: "helper", Source: "def helper(x):\n    return x\n"}}}
	opts, err := LoadOptions(cfg)
	if err != nil {
		t.Fatal(err)
	}
	before := opts.Globals.Names()
	mustCompile(t, "def f(y):\n    return helper(y)\n", opts)
	mustCompile(t, "def g(z):\n    return helper(z)\n", opts)
	if after := opts.Globals.Names(); strings.Join(after, ",") != strings.Join(before, ",") {
		t.Errorf("globals changed: %v -> %v", before, after)
	}
}

func TestTextBackend(t *testing.T) {
	res := mustCompile(t, "def f(x):\n    return x * 2.0\n", Options{
		Entries: entry("f", typesystem.Double),
		Backend: backend.NewText(),
	})
	if !strings.Contains(string(res.Output), "f :: Double -> Double  [entry]") {
		t.Errorf("output:\n%s", res.Output)
	}
}

func TestPasses(t *testing.T) {
	passes := Passes()
	want := []string{"lex", "parse", "gather", "mark", "closure_conversion"}
	if strings.Join(passes[:len(want)], ",") != strings.Join(want, ",") {
		t.Errorf("passes start %v", passes[:len(want)])
	}
	if passes[len(passes)-1] != "infer" {
		t.Errorf("last pass %s", passes[len(passes)-1])
	}
}

func TestLoadOptions(t *testing.T) {
	yaml := `
quiet: true
library: [reduce]
trace: trace.db
globals:
  - name: scale
    type: "ForAll a: (a, [a]) -> [a]"
  - name: helper
    source: |
      def helper(x):
          return x + 1
entry:
  name: f
  args: ["[Double]"]
`
	dir := t.TempDir()
	cfg, err := config.ParseConfig([]byte(yaml), filepath.Join(dir, "copperhead.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	opts, err := LoadOptions(cfg)
	if err != nil {
		t.Fatal(err)
	}

	src := "def f(xs):\n    ys = scale(2.0, xs)\n    return map(helper, ys)\n"
	res := mustCompile(t, src, opts)
	if got := res.Type.String(); got != "[Double] -> [Double]" {
		t.Errorf("got %s", got)
	}
	if err := opts.Close(); err != nil {
		t.Fatal(err)
	}

	sink, err := trace.OpenSQLite(filepath.Join(dir, "trace.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()
	snaps, err := sink.Snapshots(res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != len(Passes()) {
		t.Errorf("traced %d passes, want %d", len(snaps), len(Passes()))
	}
}

func TestCloseReportsTraceFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")
	opts, err := LoadOptions(&config.Config{Trace: path})
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("DROP TABLE passes"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	mustCompile(t, "def f(x):\n    return x\n", opts)
	err = opts.Close()
	if err == nil || !strings.Contains(err.Error(), "recording pass lex") {
		t.Errorf("expected the recording error, got %v", err)
	}
}

func TestLoadOptionsErrors(t *testing.T) {
	tests := []*config.Config{
		{Globals: []config.GlobalSpec{{Name: "g", Type: "(Long"}}},
		{Globals: []config.GlobalSpec{{Name: "g", Source: "def g(x):\n    return\n  bad\n"}}},
		{Globals: []config.GlobalSpec{{Name: "g", Source: "x = 1\ndef g(y):\n    return y\n"}}},
		{Entry: &config.EntrySpec{Name: "f", Args: []string{"Long ->"}}},
	}
	for i, cfg := range tests {
		if _, err := LoadOptions(cfg); err == nil {
			t.Errorf("case %d: expected an error", i)
		}
	}
}

func TestConcurrentCompilations(t *testing.T) {
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := fmt.Sprintf("def f(x):\n    return x + %d\n", i)
			res, err := Compile(src, Options{Quiet: true, Entries: entry("f", typesystem.Long)})
			if err == nil && res.Type.String() != "Long -> Long" {
				err = fmt.Errorf("compilation %d typed %s", i, res.Type)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}
