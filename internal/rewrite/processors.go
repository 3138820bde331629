package rewrite

import (
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/pipeline"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Passes returns the rewrite passes in the order they must run.
func Passes() []pipeline.Processor {
	return []pipeline.Processor{
		&GatherProcessor{},
		&MarkProcessor{},
		&ClosureProcessor{},
		&SingleAssignmentProcessor{},
		&ProtectProcessor{},
		&LiftProcessor{},
		&FlattenProceduresProcessor{},
		&FlattenExpressionsProcessor{},
		&LegalityProcessor{},
		&InlineProcessor{},
		&CastProcessor{},
		&TupleProcessor{},
		&RebindProcessor{},
		&VariadicProcessor{},
	}
}

// run applies fn to the program unless an earlier stage failed.
func run(ctx *pipeline.PipelineContext, fn func(prog *ast.Program) error) *pipeline.PipelineContext {
	if ctx.AstRoot == nil {
		return ctx
	}
	if err := fn(ctx.AstRoot); err != nil {
		de, ok := diagnostics.As(err)
		if !ok {
			de = diagnostics.NewError(diagnostics.ErrS005, 0, "%v", err)
		}
		return ctx.Fail(de)
	}
	return ctx
}

type GatherProcessor struct{}

func (p *GatherProcessor) Name() string { return "gather" }

func (p *GatherProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		Gather(prog, ctx.Globals)
		return nil
	})
}

// MarkProcessor marks identifiers and resolves the requested entry points
// to marked procedure names.
type MarkProcessor struct{}

func (p *MarkProcessor) Name() string { return "mark" }

func (p *MarkProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		// Generated names must never shadow a source identifier.
		for n := range ast.Nodes(prog) {
			if name, ok := n.(*ast.Name); ok {
				ctx.Names.Reserve(name.Value)
			}
		}

		marked := Marked(prog, ctx.Globals, ctx.Library)
		MarkIdentifiers(prog, marked)

		procs := topLevelProcedures(prog)
		requested := maps.Keys(ctx.EntryTypes)
		slices.Sort(requested)
		ctx.EntryPoints = ctx.EntryPoints[:0]
		for _, name := range requested {
			target := name
			if _, ok := procs[target]; !ok {
				target = config.UserPrefix + name
			}
			proc, ok := procs[target]
			if !ok {
				return diagnostics.NewError(diagnostics.ErrS005, 0, "entry point %s is not a top-level procedure", name)
			}
			proc.EntryPoint = true
			ctx.EntryPoints = append(ctx.EntryPoints, target)
			ctx.EntryPointTypes[target] = ctx.EntryTypes[name]
		}
		return nil
	})
}

type ClosureProcessor struct{}

func (p *ClosureProcessor) Name() string { return "closure_conversion" }

func (p *ClosureProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		ConvertClosures(prog, ctx.Names)
		return nil
	})
}

type SingleAssignmentProcessor struct{}

func (p *SingleAssignmentProcessor) Name() string { return "single_assignment" }

func (p *SingleAssignmentProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		prog.Statements = SingleAssignment(prog.Statements, ctx.Names, EntryFormals(prog))
		return nil
	})
}

type ProtectProcessor struct{}

func (p *ProtectProcessor) Name() string { return "protect_conditionals" }

func (p *ProtectProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		ProtectConditionals(prog, ctx.Names)
		return nil
	})
}

type LiftProcessor struct{}

func (p *LiftProcessor) Name() string { return "lambda_lift" }

func (p *LiftProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		LiftLambdas(prog, ctx.Names)
		return nil
	})
}

type FlattenProceduresProcessor struct{}

func (p *FlattenProceduresProcessor) Name() string { return "flatten_procedures" }

func (p *FlattenProceduresProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		FlattenProcedures(prog)
		return nil
	})
}

type FlattenExpressionsProcessor struct{}

func (p *FlattenExpressionsProcessor) Name() string { return "flatten_expressions" }

func (p *FlattenExpressionsProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		FlattenExpressions(prog, ctx.Names)
		return nil
	})
}

type LegalityProcessor struct{}

func (p *LegalityProcessor) Name() string { return "legality" }

func (p *LegalityProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, CheckLegality)
}

// InlineProcessor inlines, specializes literal closures and prunes
// procedures the entry points no longer reach.
type InlineProcessor struct{}

func (p *InlineProcessor) Name() string { return "inline" }

func (p *InlineProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		Inline(prog, ctx.Names)
		OpenLiterals(prog, ctx.Names)
		Prune(prog, ctx.EntryPoints)
		return nil
	})
}

type CastProcessor struct{}

func (p *CastProcessor) Name() string { return "cast_literals" }

func (p *CastProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		CastLiterals(prog, ctx.Globals)
		return nil
	})
}

type TupleProcessor struct{}

func (p *TupleProcessor) Name() string { return "name_tuples" }

func (p *TupleProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		NameTuples(prog, ctx.Names)
		return nil
	})
}

type RebindProcessor struct{}

func (p *RebindProcessor) Name() string { return "dead_rebindings" }

func (p *RebindProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, func(prog *ast.Program) error {
		EliminateRebindings(prog)
		return nil
	})
}

type VariadicProcessor struct{}

func (p *VariadicProcessor) Name() string { return "lower_variadics" }

func (p *VariadicProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	return run(ctx, LowerVariadics)
}
