package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"ankokuvm/ankoku"

	"github.com/mattn/go-isatty"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// Exit codes follow sysexits.h.
const (
	exitUsage   = 64
	exitCompile = 65
	exitRuntime = 70
	exitIO      = 74
)

var log = commonlog.GetLogger("ankoku.cli")

const usage = `usage: ankoku [flags] [run] <script>
       ankoku [flags] repl
       ankoku [flags] disasm <script>

flags:
`

func main() {
	os.Exit(mainWithArgs(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func mainWithArgs(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("ankoku", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "config file (default: search for ankoku.toml/ankoku.yaml upwards)")
	verbose := flags.Int("v", 0, "log verbosity")
	stressGC := flags.Bool("stress-gc", false, "collect garbage on every allocation")
	stats := flags.Bool("gc-stats", false, "print collector statistics on exit")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return exitUsage
	}
	commonlog.Configure(*verbose, nil)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %s\n", err)
		return exitIO
	}

	opts := []ankoku.Option{
		ankoku.WithConfig(cfg),
		ankoku.WithStdout(stdout),
		ankoku.WithTraceOutput(stderr),
	}
	if *stressGC {
		opts = append(opts, ankoku.WithStressGC(true))
	}
	vm := ankoku.NewVM(opts...)
	defer vm.Close()
	if err := vm.LoadBuiltins(); err != nil {
		fmt.Fprintf(stderr, "loading builtins: %s\n", err)
		return exitRuntime
	}
	if *stats {
		defer func() {
			s := vm.GCStats()
			fmt.Fprintf(stderr, "gc: %d collections, %d bytes freed, %d live objects, %d bytes allocated\n",
				s.Collections, s.BytesFreed, s.Objects, s.BytesAllocated)
		}()
	}

	rest := flags.Args()
	cmd := "repl"
	if len(rest) > 0 {
		cmd = rest[0]
		rest = rest[1:]
	}
	switch cmd {
	case "repl":
		return repl(vm, stdin, stdout, stderr)
	case "run":
		if len(rest) != 1 {
			flags.Usage()
			return exitUsage
		}
		return runFile(vm, rest[0], stderr)
	case "disasm":
		if len(rest) != 1 {
			flags.Usage()
			return exitUsage
		}
		return disasmFile(vm, rest[0], stderr)
	default:
		if len(rest) != 0 {
			flags.Usage()
			return exitUsage
		}
		return runFile(vm, cmd, stderr)
	}
}

func loadConfig(path string) (ankoku.Config, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ankoku.DefaultConfig(), nil
		}
		if path = ankoku.FindConfig(wd); path == "" {
			return ankoku.DefaultConfig(), nil
		}
	}
	log.Infof("using config %s", path)
	return ankoku.LoadConfig(path)
}

func runFile(vm *ankoku.VM, path string, stderr io.Writer) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "error reading file: %s\n", err)
		return exitIO
	}
	if err := ankoku.RunScript(vm, filepath.Base(path), string(source)); err != nil {
		return reportError(err, string(source), stderr)
	}
	return 0
}

func disasmFile(vm *ankoku.VM, path string, stderr io.Writer) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "error reading file: %s\n", err)
		return exitIO
	}
	if err := ankoku.DisassembleAndShow(vm, string(source)); err != nil {
		return reportError(err, string(source), stderr)
	}
	return 0
}

// reportError prints err against source and returns the matching exit code.
func reportError(err error, source string, stderr io.Writer) int {
	msg := err.Error()
	var scriptErr ankoku.Error
	if errors.As(err, &scriptErr) {
		msg = scriptErr.ShowSource(source)
	}
	fmt.Fprintln(stderr, colorize(stderr, msg))

	if ankoku.IsCompileError(err) {
		return exitCompile
	}
	return exitRuntime
}

// colorize wraps s in red when w is a terminal.
func colorize(w io.Writer, s string) string {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return s
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return s
	}
	return "\x1b[31m" + s + "\x1b[0m"
}
