package lexer

import (
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/pipeline"
)

type LexerProcessor struct{}

func (lp *LexerProcessor) Name() string { return "lex" }

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	toks, err := New(ctx.SourceCode).Tokenize()
	if err != nil {
		if de, ok := diagnostics.As(err); ok {
			return ctx.Fail(de)
		}
		return ctx.Fail(diagnostics.NewError(diagnostics.ErrP001, 0, "%v", err))
	}
	ctx.TokenStream = toks
	return ctx
}
