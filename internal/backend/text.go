package backend

import (
	"fmt"
	"io"
	"strings"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/prettyprinter"
)

// Text renders a module as a signature table followed by the typed
// program. It is the reference backend used by the CLI and in tests.
type Text struct {
	// Signatures omits the program body when set.
	Signatures bool
}

func NewText() *Text {
	return &Text{}
}

func (t *Text) Name() string { return "text" }

func (t *Text) Emit(m *Module, w io.Writer) error {
	var b strings.Builder
	for _, s := range m.Program.Statements {
		proc, ok := s.(*ast.Procedure)
		if !ok || proc.Type == nil {
			continue
		}
		fmt.Fprintf(&b, "%s :: %s", proc.Name.Original(), proc.Type)
		if proc.EntryPoint {
			b.WriteString("  [entry]")
		}
		b.WriteByte('\n')
	}
	for _, e := range m.Entries {
		if len(e.Args) == 0 {
			continue
		}
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = a.String()
		}
		fmt.Fprintf(&b, "# %s called with (%s)\n", e.Source, strings.Join(args, ", "))
	}
	if !t.Signatures {
		b.WriteByte('\n')
		b.WriteString(prettyprinter.PrintTyped(m.Program))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
