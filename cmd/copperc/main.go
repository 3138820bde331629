package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/funvibe/copperhead/internal/backend"
	"github.com/funvibe/copperhead/internal/config"
	"github.com/funvibe/copperhead/internal/diagnostics"
	"github.com/funvibe/copperhead/internal/trace"
	"github.com/funvibe/copperhead/internal/typesystem"
	"github.com/funvibe/copperhead/pkg/copperhead"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

const usage = `Usage: copperc <command> [flags] [file]

Commands:
  check FILE...                   type check each FILE
  compile FILE [flags]            compile FILE and print the typed program
      --entry NAME                entry point procedure
      --args TYPES                entry argument types, e.g. "Long, [Double]"
      --signatures                print signatures only
      -o PATH                     write output to PATH
  passes FILE                     print the program after every pass
  repl                            start an interactive session
  help                            show this message

A copperhead.yaml in the current directory or any parent configures globals,
the entry point and tracing. COPPERHEAD_QUIET, COPPERHEAD_VERBOSE and
COPPERHEAD_TRACE override it.
`

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var code int
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "check":
		code = cmdCheck(args)
	case "compile":
		code = cmdCompile(args)
	case "passes":
		code = cmdPasses(args)
	case "repl":
		code = cmdRepl(args)
	case "help", "-h", "-help", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", cmd, usage)
		code = 2
	}
	os.Exit(code)
}

// loadOptions finds the project configuration above dir and turns it into
// compile options. A missing configuration yields the defaults.
func loadOptions(dir string) (copperhead.Options, error) {
	path, err := config.FindConfig(dir)
	if err != nil {
		return copperhead.Options{}, err
	}
	cfg := &config.Config{}
	if path != "" {
		if cfg, err = config.LoadConfig(path); err != nil {
			return copperhead.Options{}, err
		}
	}
	cfg.ApplyEnv()
	return copperhead.LoadOptions(cfg)
}

// readSource returns the file's text and the options configured for its
// directory.
func readSource(path string) (string, copperhead.Options, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", copperhead.Options{}, fmt.Errorf("reading %s: %w", path, err)
	}
	opts, err := loadOptions(filepath.Dir(path))
	if err != nil {
		return "", opts, err
	}
	opts.File = path
	return string(src), opts, nil
}

func cmdCheck(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: copperc check FILE...")
		return 2
	}

	// Files are independent compilations; results are printed in order.
	results := make([]checkResult, len(args))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range args {
		g.Go(func() error {
			results[i] = check(file)
			return nil
		})
	}
	g.Wait()

	code := 0
	for i, r := range results {
		if r.err != nil {
			report(os.Stderr, args[i], r.err)
			code = 1
			continue
		}
		fmt.Printf("%s: ok :: %s\n", args[i], r.typ)
	}
	return code
}

type checkResult struct {
	typ typesystem.Type
	err error
}

func check(file string) checkResult {
	src, opts, err := readSource(file)
	if err != nil {
		return checkResult{err: err}
	}
	defer opts.Close()

	opts.Quiet = true
	res, err := copperhead.Compile(src, opts)
	if err != nil {
		return checkResult{err: err}
	}
	return checkResult{typ: res.Type}
}

func cmdCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	entry := fs.String("entry", "", "entry point procedure")
	types := fs.String("args", "", "entry argument types")
	signatures := fs.Bool("signatures", false, "print signatures only")
	out := fs.String("o", "", "output path")
	file, err := parseArgs(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 2
	}

	src, opts, err := readSource(file)
	if err != nil {
		report(os.Stderr, file, err)
		return 1
	}
	defer opts.Close()

	if *entry != "" {
		argTypes, err := typesystem.ParseTypeList(*types)
		if err != nil {
			fmt.Fprintf(os.Stderr, "--args: %s\n", err)
			return 2
		}
		opts.Entries = map[string][]typesystem.Type{*entry: argTypes}
	} else if *types != "" {
		fmt.Fprintln(os.Stderr, "--args requires --entry")
		return 2
	}
	opts.Backend = &backend.Text{Signatures: *signatures}

	res, err := copperhead.Compile(src, opts)
	if err != nil {
		report(os.Stderr, file, err)
		return 1
	}

	if *out == "" {
		os.Stdout.Write(res.Output)
		return 0
	}
	if err := os.WriteFile(*out, res.Output, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %s\n", err)
		return 1
	}
	return 0
}

func cmdPasses(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: copperc passes FILE")
		return 2
	}
	src, opts, err := readSource(args[0])
	if err != nil {
		report(os.Stderr, args[0], err)
		return 1
	}
	defer opts.Close()

	opts.Quiet = true
	opts.Captures = append(opts.Captures, trace.NewWriterSink(os.Stdout).Capture)
	if _, err := copperhead.Compile(src, opts); err != nil {
		report(os.Stderr, args[0], err)
		return 1
	}
	return 0
}

// parseArgs parses flags that may appear before or after the single file
// argument.
func parseArgs(fs *flag.FlagSet, args []string) (string, error) {
	fs.SetOutput(io.Discard)
	var files []string
	for {
		if err := fs.Parse(args); err != nil {
			return "", err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		files = append(files, args[0])
		args = args[1:]
	}
	if len(files) != 1 {
		return "", fmt.Errorf("expected one source file, got %d", len(files))
	}
	return files[0], nil
}

// report prints err, colouring the diagnostic code when w is a terminal.
func report(w io.Writer, file string, err error) {
	de, ok := diagnostics.As(err)
	if !ok {
		fmt.Fprintf(w, "%s: %s\n", file, err)
		return
	}
	code := string(de.Code)
	if colorize(w) {
		code = "\x1b[31m" + code + "\x1b[0m"
	}
	loc := file
	if de.Line > 0 {
		loc = fmt.Sprintf("%s:%d", file, de.Line)
	}
	fmt.Fprintf(w, "%s: %s %s\n", loc, code, de.Message)
	if len(de.Names) > 0 && de.Code != diagnostics.ErrI003 {
		fmt.Fprintf(w, "  names: %s\n", strings.Join(de.Names, ", "))
	}
}

func colorize(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
