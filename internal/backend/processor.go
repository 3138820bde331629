package backend

import (
	"bytes"

	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/pipeline"
)

// EmitProcessor runs a Backend as the last pipeline stage.
type EmitProcessor struct {
	Backend Backend
	// Output holds the artifact of the last successful run.
	Output []byte
}

// NewEmitProcessor creates a new pipeline step for the given backend
func NewEmitProcessor(b Backend) *EmitProcessor {
	return &EmitProcessor{Backend: b}
}

func (p *EmitProcessor) Name() string { return "emit:" + p.Backend.Name() }

func (p *EmitProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, there is nothing to emit
	if ctx.AstRoot == nil || len(ctx.Errors) > 0 {
		return ctx
	}

	m, err := NewModule(ctx)
	if err != nil {
		return ctx.Fail(diagnostics.NewError(diagnostics.ErrB001, 0, "%v", err))
	}
	var buf bytes.Buffer
	if err := p.Backend.Emit(m, &buf); err != nil {
		return ctx.Fail(diagnostics.NewError(diagnostics.ErrB001, 0, "%s backend: %v", p.Backend.Name(), err))
	}
	p.Output = buf.Bytes()
	return ctx
}
