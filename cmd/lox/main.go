// Lox CLI - compiles and runs Lox expressions
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	"github.com/tliron/kutil/util"

	"github.com/chazu/lox/journal"
	"github.com/chazu/lox/manifest"
	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/loxerr"
	"github.com/chazu/lox/vm"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("lox.cli")

func main() {
	util.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli carries the state shared by every mode of the front end.
type cli struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	manifest *manifest.Manifest
	trace    bool
	disasm   bool
}

// run parses the command line and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lox", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose (debug) logging")
	trace := fs.Bool("trace", false, "Print the VM execution trace to stderr")
	disasm := fs.Bool("disasm", false, "Print each chunk before running it")
	configPath := fs.String("config", "", "Path to a lox.toml (default: search upward from the current directory)")

	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	m, err := loadManifest(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitIOErr
	}
	configureLogging(m, *verbose)

	c := &cli{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		manifest: m,
		trace:    *trace || m.Run.Trace,
		disasm:   *disasm || m.Run.Disassemble,
	}

	rest := fs.Args()
	if len(rest) > 0 {
		switch rest[0] {
		case "build":
			return c.build(rest[1:])
		case "run":
			return c.runImage(rest[1:])
		case "disasm":
			return c.disassemble(rest[1:])
		case "serve":
			return c.serve(rest[1:])
		case "lsp":
			return c.lsp(rest[1:])
		}
	}

	switch len(rest) {
	case 0:
		return c.repl()
	case 1:
		return c.runFile(rest[0])
	default:
		usage(stderr, fs)
		return exitUsage
	}
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: lox [path]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "With no path, starts a REPL. With a path, compiles and runs the file.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  lox build <src> [-o out.loxc]  Compile source to a chunk image")
	fmt.Fprintln(w, "  lox run <image.loxc>           Run a chunk image")
	fmt.Fprintln(w, "  lox disasm <src|image.loxc>    Print the disassembled chunk")
	fmt.Fprintln(w, "  lox serve [-addr host:port]    Start the evaluation server (Connect HTTP/JSON)")
	fmt.Fprintln(w, "  lox lsp                        Start the language server on stdio")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "A path that matches a command name is run as a file when written")
	fmt.Fprintln(w, "with a directory, e.g. lox ./build")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
}

// parseInterspersed parses flags that may appear before, between or after
// positional arguments, and returns the positional arguments in order.
// Everything after "--" is positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if n := len(args) - len(rest); n > 0 && args[n-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// loadManifest loads the file named by -config, or searches upward from
// the working directory. Without a file the defaults apply.
func loadManifest(path string) (*manifest.Manifest, error) {
	if path != "" {
		return manifest.LoadFile(path)
	}
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(), nil
	}
	return m, nil
}

// configureLogging sets up commonlog from the manifest; -v raises the
// verbosity to debug.
func configureLogging(m *manifest.Manifest, verbose bool) {
	verbosity := m.Log.Verbosity
	if verbose && verbosity < 2 {
		verbosity = 2
	}
	if path := m.LogFile(); path != "" {
		commonlog.Configure(verbosity, &path)
	} else {
		commonlog.Configure(verbosity, nil)
	}
}

// newVM builds a VM printing to stdout, tracing to stderr when enabled.
func (c *cli) newVM(store *bytecode.ChunkStore) *vm.VM {
	opts := []vm.Option{vm.WithOutput(c.stdout)}
	if c.trace {
		opts = append(opts, vm.WithTrace(c.stderr))
	}
	if store != nil {
		opts = append(opts, vm.WithChunkStore(store))
	}
	return vm.New(opts...)
}

// openJournal opens the configured journal, or returns nil when none is
// configured.
func (c *cli) openJournal() (*journal.Journal, error) {
	path := c.manifest.JournalPath()
	if path == "" {
		return nil, nil
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	log.Infof("journal: %s", path)
	return j, nil
}

// runFile compiles and runs the file at path.
func (c *cli) runFile(path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(c.stderr, "Could not read file %q: %v\n", path, err)
		return exitIOErr
	}

	v := c.newVM(nil)
	chunk, err := v.Compile(string(source))
	if err != nil {
		return c.report(err)
	}
	if c.disasm {
		fmt.Fprint(c.stdout, chunk.DisassembleWithName(path))
	}
	result, err := v.Run(chunk)
	if err != nil {
		return c.report(err)
	}
	if result.Returned {
		fmt.Fprintln(c.stdout, result.Value)
	}
	return exitOK
}

// report prints err to stderr and maps it to an exit code.
func (c *cli) report(err error) int {
	fmt.Fprintln(c.stderr, err)
	if loxerr.IsCompile(err) {
		return exitDataErr
	}
	return exitSoftware
}
