package pipeline

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/prettyprinter"
)

// Processor is one stage of the compilation.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// CaptureFunc observes the program after every successful stage.
type CaptureFunc func(pass string, prog *ast.Program, ctx *PipelineContext)

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
	captures   []CaptureFunc
	logger     *log.Logger
	dump       io.Writer
	quiet      bool
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors, dump: os.Stderr}
}

// WithCapture registers a sink notified after every stage.
func (p *Pipeline) WithCapture(fn CaptureFunc) *Pipeline {
	p.captures = append(p.captures, fn)
	return p
}

// WithLogger enables per-stage progress logging.
func (p *Pipeline) WithLogger(l *log.Logger) *Pipeline {
	p.logger = l
	return p
}

// WithDump sets where the partial program is printed when a stage fails.
func (p *Pipeline) WithDump(w io.Writer) *Pipeline {
	p.dump = w
	return p
}

// Quiet suppresses the failure dump.
func (p *Pipeline) Quiet(quiet bool) *Pipeline {
	p.quiet = quiet
	return p
}

// Passes lists the stage names in execution order.
func (p *Pipeline) Passes() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = Name(proc)
	}
	return names
}

// Name returns the display name of a stage.
func Name(proc Processor) string {
	if n, ok := proc.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", proc)
}

// Run executes the pipeline. It stops at the first stage that records an
// error; the context then carries no usable program.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		name := Name(processor)
		ctx = processor.Process(ctx)
		if err := ctx.Err(); err != nil {
			if p.logger != nil {
				p.logger.Printf("pass %s failed: %v", name, err)
			}
			if !p.quiet && p.dump != nil && ctx.AstRoot != nil {
				fmt.Fprintf(p.dump, "Failure in %s pass:\n", name)
				fmt.Fprintln(p.dump, prettyprinter.Print(ctx.AstRoot))
			}
			return ctx
		}
		if p.logger != nil {
			p.logger.Printf("pass %s done (%d top-level statements)", name, statementCount(ctx.AstRoot))
		}
		for _, capture := range p.captures {
			capture(name, ctx.AstRoot, ctx)
		}
	}
	return ctx
}

func statementCount(prog *ast.Program) int {
	if prog == nil {
		return 0
	}
	return len(prog.Statements)
}
