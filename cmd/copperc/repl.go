package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/copperhead/internal/ast"
	"github.com/funvibe/copperhead/internal/backend"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/parser"
	"github.com/funvibe/copperhead/internal/prettyprinter"
	"github.com/funvibe/copperhead/pkg/copperhead"
	"github.com/peterh/liner"
)

const (
	historyFile = ".copperc_history"
	promptMain  = "ch> "
	promptCont  = "... "
)

// session accumulates the definitions entered at the prompt. Every input is
// compiled together with everything accepted before it.
type session struct {
	opts   copperhead.Options
	chunks []string
}

func newSession(opts copperhead.Options) *session {
	opts.Quiet = true
	opts.Backend = nil
	return &session{opts: opts}
}

func (s *session) source(extra string) string {
	var b strings.Builder
	for _, c := range s.chunks {
		b.WriteString(c)
		b.WriteByte('\n')
	}
	b.WriteString(extra)
	b.WriteByte('\n')
	return b.String()
}

// eval compiles input in the context of the session. Definitions and
// bindings are kept; a bare expression, a return or a conditional is typed
// and discarded.
// The result is the text to show the user.
func (s *session) eval(input string) (string, error) {
	prog, err := parser.ParseString(input)
	if diagnostics.HasCode(err, diagnostics.ErrP003) && !strings.Contains(strings.TrimSpace(input), "\n") {
		if p, rerr := parser.ParseString("return " + input); rerr == nil {
			input, prog, err = "return "+input, p, nil
		}
	}
	if err != nil {
		return "", err
	}

	var defined []string
	keep := true
	for _, st := range prog.Statements {
		switch st := st.(type) {
		case *ast.Procedure:
			defined = append(defined, st.Name.Value)
		case *ast.Return, *ast.Cond:
			keep = false
		}
	}

	opts := s.opts
	if len(defined) > 0 {
		opts.Backend = &backend.Text{Signatures: true}
	}
	res, err := copperhead.Compile(s.source(input), opts)
	if err != nil {
		return "", err
	}
	if !keep {
		return res.Type.String(), nil
	}
	s.chunks = append(s.chunks, input)

	var lines []string
	for _, line := range strings.Split(string(res.Output), "\n") {
		for _, name := range defined {
			if strings.HasPrefix(line, name+" :: ") {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

// program returns the typed program of the whole session.
func (s *session) program() (string, error) {
	if len(s.chunks) == 0 {
		return "", nil
	}
	res, err := copperhead.Compile(s.source(""), s.opts)
	if err != nil {
		return "", err
	}
	return prettyprinter.PrintTyped(res.Program), nil
}

func (s *session) reset() { s.chunks = nil }

func cmdRepl(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "Usage: copperc repl")
		return 2
	}
	opts, err := loadOptions(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return 1
	}
	defer opts.Close()
	s := newSession(opts)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println("Copperhead. Type :help for commands.")
	for {
		input, ok := readBlock(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))

		if strings.HasPrefix(strings.TrimSpace(input), ":") {
			if quit := s.command(os.Stdout, strings.TrimSpace(input)); quit {
				return 0
			}
			continue
		}

		out, err := s.eval(input)
		if err != nil {
			report(os.Stderr, "<repl>", err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}

// command runs a colon command and reports whether the session should end.
func (s *session) command(w io.Writer, cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":reset":
		s.reset()
	case ":program":
		text, err := s.program()
		if err != nil {
			report(w, "<repl>", err)
			break
		}
		fmt.Fprintln(w, text)
	case ":passes":
		fmt.Fprintln(w, strings.Join(copperhead.Passes(), " "))
	case ":help":
		fmt.Fprintln(w, ":program  print the typed session program")
		fmt.Fprintln(w, ":passes   list the compiler passes")
		fmt.Fprintln(w, ":reset    forget all definitions")
		fmt.Fprintln(w, ":quit     leave")
	default:
		fmt.Fprintln(w, "unknown command. Type :help for commands.")
	}
	return false
}

// readBlock reads one input. A line ending in a colon opens a block that
// runs until the next blank line.
func readBlock(ln *liner.State) (string, bool) {
	var lines []string
	for {
		prompt := promptMain
		if len(lines) > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl-C drops the pending block.
			return "", true
		}
		lines = append(lines, line)
		if !continues(lines) {
			return strings.Join(lines, "\n"), true
		}
	}
}

func continues(lines []string) bool {
	first := strings.TrimSpace(lines[0])
	if !strings.HasSuffix(first, ":") || strings.HasPrefix(first, ":") {
		return false
	}
	return strings.TrimSpace(lines[len(lines)-1]) != ""
}
