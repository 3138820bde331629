// Package copperhead is the public entry point of the Copperhead front end.
//
// Compile takes source text, CompileProgram a parsed program. Both run the
// rewrite passes and type inference and return the typed, flattened
// program together with its entry points:
//
//	res, err := copperhead.Compile(src, copperhead.Options{
//		Entries: map[string][]typesystem.Type{"f": {typesystem.Long}},
//	})
package copperhead

import (
	"io"
	"log"

	"github.com/funvibe/copperhead/internal/analyzer"
	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/backend"
	"github.com/funvibe/copperhead/internal/lexer"
	"github.com/funvibe/copperhead/internal/parser"
	"github.com/funvibe/copperhead/internal/pipeline"
	"github.com/funvibe/copperhead/internal/rewrite"
	"github.com/funvibe/copperhead/internal/symbols"
	"github.com/funvibe/copperhead/internal/typesystem"
	"github.com/google/uuid"
)

// Options configures one compilation. The zero value compiles against the
// standard prelude with no entry points.
type Options struct {
	// Globals is the host namespace. It is forked per compilation and never
	// modified.
	Globals *symbols.SymbolTable
	// Library lists extra host names subject to identifier marking.
	Library []string
	// Entries maps entry point names, as written in the source, to their
	// argument types.
	Entries map[string][]typesystem.Type

	// File is used in diagnostics and trace records.
	File string

	// Quiet suppresses the partial program dump on failure.
	Quiet bool
	// Dump receives the partial program on failure; stderr when nil.
	Dump io.Writer
	// Logger, when set, logs every pass.
	Logger *log.Logger
	// Captures are notified after every pass.
	Captures []pipeline.CaptureFunc
	// Backend, when set, runs after inference and fills Result.Output.
	Backend backend.Backend

	closers []io.Closer
}

// Close releases resources opened by LoadOptions. A trace sink's recording
// error is reported ahead of any error from closing it.
func (o *Options) Close() error {
	var first error
	for _, c := range o.closers {
		if r, ok := c.(interface{ Err() error }); ok {
			if err := r.Err(); err != nil && first == nil {
				first = err
			}
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	o.closers = nil
	return first
}

// Result is a successful compilation.
type Result struct {
	ID      uuid.UUID
	Program *ast.Program
	// Type is the type of the program's last statement.
	Type typesystem.Type
	// EntryPoints are the entry procedure names after identifier marking.
	EntryPoints []string
	Solution    typesystem.Subst
	// Output is the backend's artifact, if a backend was configured.
	Output []byte
}

// Entry returns the compiled procedure for an entry point given by its
// source name.
func (r *Result) Entry(name string) (*ast.Procedure, bool) {
	for _, s := range r.Program.Statements {
		p, ok := s.(*ast.Procedure)
		if ok && p.EntryPoint && (p.Name.Value == name || p.Name.Original() == name) {
			return p, true
		}
	}
	return nil, false
}

// Passes returns the names of the stages Compile runs, in order.
func Passes() []string {
	_, procs := stages(nil)
	return pipeline.New(procs...).Passes()
}

func stages(b backend.Backend) (emit *backend.EmitProcessor, procs []pipeline.Processor) {
	procs = append([]pipeline.Processor{&lexer.LexerProcessor{}, &parser.ParserProcessor{}}, rewrite.Passes()...)
	procs = append(procs, &analyzer.InferenceProcessor{})
	if b != nil {
		emit = backend.NewEmitProcessor(b)
		procs = append(procs, emit)
	}
	return emit, procs
}

// Compile parses and compiles src.
func Compile(src string, opts Options) (*Result, error) {
	ctx := newContext(src, opts)
	return run(ctx, opts, 0)
}

// CompileProgram compiles an already parsed program. prog is rewritten in
// place.
func CompileProgram(prog *ast.Program, opts Options) (*Result, error) {
	ctx := newContext("", opts)
	ctx.AstRoot = prog
	// Lexing and parsing are skipped.
	return run(ctx, opts, 2)
}

func newContext(src string, opts Options) *pipeline.PipelineContext {
	ctx := pipeline.NewContext(src)
	ctx.FilePath = opts.File
	if opts.Globals != nil {
		ctx.Globals = opts.Globals.Fork()
	}
	ctx.Library = append(ctx.Library, opts.Library...)
	for name, types := range opts.Entries {
		ctx.EntryTypes[name] = types
	}
	return ctx
}

func run(ctx *pipeline.PipelineContext, opts Options, skip int) (*Result, error) {
	emit, procs := stages(opts.Backend)
	p := pipeline.New(procs[skip:]...).Quiet(opts.Quiet)
	if opts.Dump != nil {
		p.WithDump(opts.Dump)
	}
	if opts.Logger != nil {
		p.WithLogger(opts.Logger)
	}
	for _, c := range opts.Captures {
		p.WithCapture(c)
	}

	ctx = p.Run(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{
		ID:          ctx.ID,
		Program:     ctx.AstRoot,
		Type:        ctx.ResultType,
		EntryPoints: ctx.EntryPoints,
		Solution:    ctx.Solution,
	}
	if emit != nil {
		res.Output = emit.Output
	}
	return res, nil
}
