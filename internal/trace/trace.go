// Package trace provides sinks for the pipeline's capture hook. Each sink
// receives the program as printed after every successful pass.
package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/pipeline"
	"github.com/funvibe/copperhead/internal/prettyprinter"
)

// Snapshot is the program text after one pass.
type Snapshot struct {
	Pass    string
	Program string
}

func render(prog *ast.Program) string {
	if prog == nil {
		return ""
	}
	return prettyprinter.PrintTyped(prog)
}

// Recorder keeps snapshots in memory.
type Recorder struct {
	Snapshots []Snapshot
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Capture implements pipeline.CaptureFunc.
func (r *Recorder) Capture(pass string, prog *ast.Program, _ *pipeline.PipelineContext) {
	r.Snapshots = append(r.Snapshots, Snapshot{Pass: pass, Program: render(prog)})
}

// Passes returns the recorded pass names in order.
func (r *Recorder) Passes() []string {
	out := make([]string, len(r.Snapshots))
	for i, s := range r.Snapshots {
		out[i] = s.Pass
	}
	return out
}

// After returns the program as it was after the named pass.
func (r *Recorder) After(pass string) (string, bool) {
	for _, s := range r.Snapshots {
		if s.Pass == pass {
			return s.Program, true
		}
	}
	return "", false
}

// WriterSink prints every snapshot under a header line.
type WriterSink struct {
	w io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Capture(pass string, prog *ast.Program, _ *pipeline.PipelineContext) {
	fmt.Fprintf(s.w, "== %s ==\n", pass)
	if text := render(prog); text != "" {
		fmt.Fprintln(s.w, strings.TrimRight(text, "\n"))
	}
	fmt.Fprintln(s.w)
}
