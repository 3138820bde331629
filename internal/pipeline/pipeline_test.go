package pipeline

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/token"
)

type stage struct {
	name string
	fail bool
}

func (s *stage) Name() string { return s.name }

func (s *stage) Process(ctx *PipelineContext) *PipelineContext {
	if s.fail {
		return ctx.Fail(diagnostics.NewError(diagnostics.ErrS002, 1, "%s failed", s.name))
	}
	if ctx.AstRoot == nil {
		ctx.AstRoot = &ast.Program{}
	}
	ret := &ast.Return{Token: token.Token{Line: 1}, Value: &ast.Name{Value: s.name}}
	ctx.AstRoot.Statements = append(ctx.AstRoot.Statements, ret)
	return ctx
}

type unnamed struct{}

func (unnamed) Process(ctx *PipelineContext) *PipelineContext { return ctx }

func TestRunCapturesEveryStage(t *testing.T) {
	var seen []string
	p := New(&stage{name: "one"}, &stage{name: "two"}).
		WithCapture(func(pass string, prog *ast.Program, ctx *PipelineContext) {
			seen = append(seen, pass)
			if len(prog.Statements) != len(seen) {
				t.Errorf("%s: %d statements", pass, len(prog.Statements))
			}
		})
	ctx := p.Run(NewContext(""))
	if err := ctx.Err(); err != nil {
		t.Fatal(err)
	}
	if strings.Join(seen, ",") != "one,two" {
		t.Errorf("captured %v", seen)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	var dump, logged bytes.Buffer
	ran := &stage{name: "after"}
	p := New(&stage{name: "first"}, &stage{name: "broken", fail: true}, ran).
		WithDump(&dump).
		WithLogger(log.New(&logged, "", 0))
	ctx := p.Run(NewContext(""))

	if !diagnostics.HasCode(ctx.Err(), diagnostics.ErrS002) {
		t.Fatalf("got %v", ctx.Err())
	}
	if len(ctx.AstRoot.Statements) != 1 {
		t.Errorf("a stage ran after the failure")
	}
	if !strings.HasPrefix(dump.String(), "Failure in broken pass:\n") {
		t.Errorf("dump %q", dump.String())
	}
	if !strings.Contains(logged.String(), "pass first done") || !strings.Contains(logged.String(), "pass broken failed") {
		t.Errorf("log %q", logged.String())
	}
}

func TestQuietSuppressesDump(t *testing.T) {
	var dump bytes.Buffer
	New(&stage{name: "a"}, &stage{name: "b", fail: true}).WithDump(&dump).Quiet(true).Run(NewContext(""))
	if dump.Len() != 0 {
		t.Errorf("dump %q", dump.String())
	}
}

func TestPasses(t *testing.T) {
	got := New(&stage{name: "a"}, unnamed{}).Passes()
	if len(got) != 2 || got[0] != "a" || got[1] != "pipeline.unnamed" {
		t.Errorf("got %v", got)
	}
}

func TestContext(t *testing.T) {
	a, b := NewContext("x"), NewContext("x")
	if a.ID == b.ID {
		t.Error("contexts share an id")
	}
	if a.Err() != nil {
		t.Error("fresh context has an error")
	}
	a.EntryPointTypes["_f"] = nil
	if !a.IsEntryPoint("_f") || a.IsEntryPoint("f") {
		t.Error("entry point lookup is by marked name")
	}
	first := diagnostics.NewError(diagnostics.ErrI001, 0, "first")
	a.Fail(first).Fail(diagnostics.NewError(diagnostics.ErrI002, 0, "second"))
	if a.Err() != first {
		t.Errorf("Err returned %v", a.Err())
	}
}
