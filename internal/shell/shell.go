// Package shell is an interactive front-end for the journal.
//
// The shell keeps a current search query and re-renders the matching entries
// whenever the journal reports a change, so the listing always mirrors the
// store.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pbaille/devlog/internal/domain"
	"github.com/pbaille/devlog/internal/journal"
	"github.com/pbaille/devlog/internal/view"
)

const help = `Commands:
  add <text>       record a new entry
  list             show all entries and reset the search
  search [query]   filter entries, no query shows everything
  delete <id>      delete an entry by id or id prefix
  clear            delete every entry (asks first)
  help             show this help
  exit | quit      leave the shell`

// Shell reads commands line by line and dispatches them to the journal.
type Shell struct {
	journal *journal.Store
	scanner *bufio.Scanner
	out     io.Writer
	query   string
}

func New(j *journal.Store, in io.Reader, out io.Writer) *Shell {
	return &Shell{journal: j, scanner: bufio.NewScanner(in), out: out}
}

// Run loops until EOF, exit/quit, or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	cancel := s.journal.Subscribe(func([]domain.Entry) { s.render() })
	defer cancel()

	fmt.Fprintln(s.out, "devlog shell (type 'help' for commands)")
	s.render()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, "devlog> ")
		if !s.scanner.Scan() {
			fmt.Fprintln(s.out)
			return s.scanner.Err()
		}

		cmd, arg := split(s.scanner.Text())
		if cmd == "" {
			continue
		}

		switch cmd {
		case "help", "?":
			fmt.Fprintln(s.out, help)
		case "add", "a":
			if _, ok := s.journal.Create(ctx, arg); !ok {
				fmt.Fprintln(s.out, "Nothing to add.")
				continue
			}
			s.warnUnsynced()
		case "list", "l", "ls":
			s.query = ""
			s.render()
		case "search", "s", "/":
			s.query = arg
			s.render()
		case "delete", "rm", "d":
			s.delete(ctx, arg)
		case "clear":
			s.clear(ctx)
		case "exit", "quit", "q":
			fmt.Fprintln(s.out, "Bye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Unknown command:", cmd)
		}
	}
}

func (s *Shell) render() {
	if s.query == "" {
		view.Entries(s.out, s.journal.Entries(), view.EmptyJournal)
		return
	}
	fmt.Fprintf(s.out, "Search: %q\n", s.query)
	view.Entries(s.out, s.journal.Search(s.query), view.NoMatches)
}

func (s *Shell) delete(ctx context.Context, ref string) {
	if ref == "" {
		fmt.Fprintln(s.out, "Usage: delete <id>")
		return
	}
	e, err := s.journal.Resolve(ref)
	if err != nil {
		if errors.Is(err, journal.ErrAmbiguous) {
			fmt.Fprintln(s.out, "Ambiguous id, type more characters.")
		} else {
			fmt.Fprintln(s.out, "No such entry.")
		}
		return
	}
	s.journal.Delete(ctx, e.ID)
	s.warnUnsynced()
}

func (s *Shell) clear(ctx context.Context) {
	if s.journal.Len() == 0 {
		fmt.Fprintln(s.out, "Nothing to clear.")
		return
	}
	fmt.Fprint(s.out, "Clear all your logs? This cannot be undone. [y/N] ")
	if !s.scanner.Scan() {
		return
	}
	switch strings.ToLower(strings.TrimSpace(s.scanner.Text())) {
	case "y", "yes":
		s.journal.Clear(ctx)
		s.warnUnsynced()
	default:
		fmt.Fprintln(s.out, "Cancelled.")
	}
}

func (s *Shell) warnUnsynced() {
	if s.journal.Status() == journal.StatusUnsynced {
		fmt.Fprintln(s.out, view.UnsyncedWarning)
	}
}

func split(line string) (cmd, arg string) {
	line = strings.TrimSpace(line)
	cmd, arg, _ = strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}
