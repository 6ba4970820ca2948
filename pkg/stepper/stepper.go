// Package stepper implements the interactive REPL that applies a patch table
// one rule at a time.
package stepper

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/ormasoftchile/catpatch/pkg/patch"
	"github.com/ormasoftchile/catpatch/pkg/store"
	"github.com/ormasoftchile/catpatch/pkg/trace"
)

// Stepper provides an interactive REPL over a patch session.
type Stepper struct {
	table   *patch.Table
	session *patch.Session
	store   *store.Store
	path    string
	tracer  *trace.Writer
	output  io.Writer
	rl      *readline.Instance
	written string
}

// New reads path from st and starts a session of table over it.
func New(table *patch.Table, st *store.Store, path string) (*Stepper, error) {
	text, err := st.Read(path)
	if err != nil {
		return nil, err
	}
	return &Stepper{
		table:   table,
		session: table.NewSession(text),
		store:   st,
		path:    path,
		output:  os.Stdout,
		written: text,
	}, nil
}

// SetOutput redirects command output.
func (s *Stepper) SetOutput(w io.Writer) { s.output = w }

// SetTrace records every evaluated rule and write to tw.
func (s *Stepper) SetTrace(tw *trace.Writer) { s.tracer = tw }

// Session returns the underlying patch session.
func (s *Stepper) Session() *patch.Session { return s.session }

// Run starts the interactive REPL loop.
func (s *Stepper) Run(ctx context.Context) error {
	commands := []string{"next", "all", "status", "diff", "write", "help", "quit"}

	completer := readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children, readline.PcItem(cmd))
	}
	var names []readline.PrefixCompleterInterface
	for _, r := range s.table.Rules() {
		names = append(names, readline.PcItem(r.Name))
	}
	completer.Children = append(completer.Children, readline.PcItem("show", names...))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.buildPrompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	s.rl = rl
	defer rl.Close()

	fmt.Fprintf(s.output, "catpatch stepper: %d rules over %s\n", s.table.Len(), s.path)
	fmt.Fprintf(s.output, "Type 'help' for available commands, 'next' to apply the next rule.\n\n")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rl.SetPrompt(s.buildPrompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}
		if s.Execute(line) {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the stepper should exit.
func (s *Stepper) Execute(line string) (quit bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	switch parts[0] {
	case "next", "n":
		if err := s.handleNext(); err != nil {
			fmt.Fprintf(s.output, "Error: %v\n", err)
		}
	case "all", "a":
		if err := s.handleAll(); err != nil {
			fmt.Fprintf(s.output, "Error: %v\n", err)
		}
	case "status", "s":
		s.handleStatus()
	case "diff", "d":
		s.handleDiff()
	case "show":
		s.handleShow(parts)
	case "write", "w":
		if err := s.handleWrite(); err != nil {
			fmt.Fprintf(s.output, "Error: %v\n", err)
		}
	case "help", "h", "?":
		s.handleHelp()
	case "quit", "q":
		if s.session.Text() != s.written {
			fmt.Fprintf(s.output, "Discarding unwritten changes to %s.\n", s.path)
		}
		fmt.Fprintf(s.output, "Exiting stepper.\n")
		return true
	default:
		fmt.Fprintf(s.output, "Unknown command: %q. Type 'help' for available commands.\n", parts[0])
	}
	return false
}

// buildPrompt creates the prompt string: catpatch[N/total | rule]>
func (s *Stepper) buildPrompt() string {
	remaining := s.session.Remaining()
	if len(remaining) == 0 {
		return "catpatch[done]> "
	}
	total := s.table.Len()
	return fmt.Sprintf("catpatch[%d/%d | %s]> ", total-len(remaining)+1, total, remaining[0].Name)
}
