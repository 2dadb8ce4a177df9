package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/chazu/lox/journal"
	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/loxerr"
	"github.com/chazu/lox/vm"
)

// historyLimit is how many entries :history shows.
const historyLimit = 20

// replState is one interactive session.
type replState struct {
	*cli
	vm      *vm.VM
	journal *journal.Journal // nil when disabled
	session string
	history []string // used when there is no journal
}

// repl reads one expression per line until end of input. Errors are
// reported and the session continues.
func (c *cli) repl() int {
	j, err := c.openJournal()
	if err != nil {
		fmt.Fprintf(c.stderr, "Warning: journal disabled: %v\n", err)
	}
	if j != nil {
		defer j.Close()
	}

	r := &replState{
		cli:     c,
		vm:      c.newVM(bytecode.NewChunkStore(c.manifest.Run.CacheSize)),
		journal: j,
		session: uuid.NewString(),
	}
	interactive := isTerminal(c.stdin)
	log.Debugf("repl session %s (interactive: %t)", r.session, interactive)

	scanner := bufio.NewScanner(c.stdin)
	for {
		if interactive {
			fmt.Fprint(c.stdout, "> ")
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, ":"):
			if !r.command(line) {
				return exitOK
			}
			continue
		}
		r.eval(line)
	}

	if interactive {
		fmt.Fprintln(c.stdout)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(c.stderr, "Error reading input: %v\n", err)
		return exitIOErr
	}
	return exitOK
}

// eval compiles and runs one line, printing the value or the error.
func (r *replState) eval(line string) {
	chunk, err := r.vm.Compile(line)
	if err == nil {
		if r.disasm {
			fmt.Fprint(r.stdout, chunk.Disassemble())
		}
		var result vm.Result
		result, err = r.vm.Run(chunk)
		if err == nil && result.Returned {
			fmt.Fprintln(r.stdout, result.Value)
			r.record(line, result.Value.String(), nil)
			return
		}
	}
	if err != nil {
		fmt.Fprintln(r.stderr, err)
	}
	r.record(line, "", err)
}

// record remembers a line in the journal, or in memory without one.
func (r *replState) record(line, value string, err error) {
	if r.journal == nil {
		r.history = append(r.history, line)
		return
	}
	e := journal.Entry{Session: r.session, Source: line, Outcome: journal.OutcomeOK, Value: value}
	if err != nil {
		e.Outcome = journal.Outcome(loxerr.KindOf(err).String())
		e.Message = err.Error()
	}
	if _, jerr := r.journal.Record(context.Background(), e); jerr != nil {
		log.Warningf("journal record failed: %s", jerr)
	}
}

// command runs a REPL meta-command. It returns false when the session
// should end.
func (r *replState) command(line string) bool {
	switch line {
	case ":help", ":h", ":?":
		fmt.Fprintln(r.stdout, "REPL Commands:")
		fmt.Fprintln(r.stdout, "  :help, :h, :?     Show this help")
		fmt.Fprintln(r.stdout, "  :disasm           Toggle printing each chunk before it runs")
		fmt.Fprintln(r.stdout, "  :trace            Toggle the VM execution trace")
		fmt.Fprintln(r.stdout, "  :history          Show recent input")
		fmt.Fprintln(r.stdout, "  :quit             Exit REPL")
	case ":disasm":
		r.disasm = !r.disasm
		fmt.Fprintf(r.stdout, "disassembly %s\n", onOff(r.disasm))
	case ":trace":
		if r.vm.Tracing() {
			r.vm.SetTrace(nil)
		} else {
			r.vm.SetTrace(r.stderr)
		}
		fmt.Fprintf(r.stdout, "trace %s\n", onOff(r.vm.Tracing()))
	case ":history":
		r.showHistory()
	case ":quit", ":q":
		return false
	default:
		fmt.Fprintf(r.stderr, "Unknown command %s (try :help)\n", line)
	}
	return true
}

func (r *replState) showHistory() {
	if r.journal == nil {
		start := max(0, len(r.history)-historyLimit)
		for i, line := range r.history[start:] {
			fmt.Fprintf(r.stdout, "%4d  %s\n", start+i+1, line)
		}
		return
	}

	entries, err := r.journal.Recent(context.Background(), r.session, historyLimit)
	if err != nil {
		fmt.Fprintf(r.stderr, "Error reading history: %v\n", err)
		return
	}
	// Oldest first, like a shell.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		result := e.Value
		if e.Outcome != journal.OutcomeOK {
			result = string(e.Outcome) + " error"
		}
		fmt.Fprintf(r.stdout, "%4d  %-30s %s\n", e.ID, e.Source, result)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r any) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
