package analyzer

import (
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/pipeline"
)

// InferenceProcessor types the rewritten program. It must run after every
// rewrite pass: inference assumes single-assignment, closure-converted code.
type InferenceProcessor struct{}

func (ip *InferenceProcessor) Name() string { return "infer" }

func (ip *InferenceProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}

	tc := NewTypingContext(ctx.Globals)
	for name, types := range ctx.EntryPointTypes {
		tc.EntryTypes[name] = types
	}

	res, err := Infer(tc, ctx.AstRoot)
	if res != nil {
		ctx.Assumed = res.Assumed
	}
	if err != nil {
		de, ok := diagnostics.As(err)
		if !ok {
			de = diagnostics.NewError(diagnostics.ErrI001, 0, "%v", err)
		}
		return ctx.Fail(de)
	}
	ctx.ResultType = res.Type
	ctx.Solution = res.Solution
	return ctx
}
