package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pbaille/devlog/internal/api"
	"github.com/pbaille/devlog/internal/config"
	"github.com/pbaille/devlog/internal/fetcher"
	"github.com/pbaille/devlog/internal/journal"
	"github.com/pbaille/devlog/internal/shell"
	"github.com/pbaille/devlog/internal/view"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func addCmd(a *app) *cobra.Command {
	var fromURL string

	cmd := &cobra.Command{
		Use:   "add [text | url]",
		Short: "Add a new entry",
		Long: `Add a new entry. When the only argument is a web address, the entry
text becomes "Read: <page title>". If the page cannot be fetched the address
itself is recorded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			text := strings.Join(args, " ")

			switch {
			case fromURL != "":
				title, err := fetcher.New().Title(cmd.Context(), fromURL)
				if err != nil {
					return fmt.Errorf("fetch title: %w", err)
				}
				text = "Read: " + title
			case len(args) == 1 && fetcher.IsURL(text):
				title, err := fetcher.New().Title(cmd.Context(), text)
				if err != nil {
					a.log.Warn(cmd.Context(), "fetch title failed, keeping the address", "url", text, "err", err)
					break
				}
				text = "Read: " + title
			}

			entry, ok := a.journal.Create(cmd.Context(), text)
			if !ok {
				fmt.Fprintln(out, "Nothing to add.")
				return nil
			}

			fmt.Fprintf(out, "Added entry: %s\n", entry.ShortID())
			fmt.Fprintf(out, "Text: %s\n", view.Truncate(entry.Text, 80))
			warnUnsynced(a, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromURL, "url", "", "use the title of this web page as the entry text")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List entries, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view.Entries(cmd.OutOrStdout(), a.journal.Entries(), view.EmptyJournal)
			return nil
		},
	}
}

func searchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search entries (case-insensitive)",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			view.Entries(cmd.OutOrStdout(), a.journal.Search(query), view.NoMatches)
			return nil
		},
	}
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete an entry by id or unique id prefix",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			entry, err := a.journal.Resolve(args[0])
			if errors.Is(err, journal.ErrNotFound) {
				fmt.Fprintln(out, "No such entry.")
				return nil
			}
			if err != nil {
				return err
			}

			a.journal.Delete(cmd.Context(), entry.ID)
			fmt.Fprintf(out, "Deleted entry: %s\n", entry.ShortID())
			warnUnsynced(a, out)
			return nil
		},
	}
}

func clearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if a.journal.Len() == 0 {
				fmt.Fprintln(out, "Nothing to clear.")
				return nil
			}

			if !yes {
				confirmed, err := confirm(cmd.InOrStdin(), out, "Clear all your logs? This cannot be undone.")
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			a.journal.Clear(cmd.Context())
			fmt.Fprintln(out, "Cleared.")
			warnUnsynced(a, out)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func shellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shell.New(a.journal, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
}

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// --addr is bound through config, so a.cfg.Addr already reflects it
			return api.New(a.journal, a.log, a.cfg.Addr).Run(cmd.Context())
		},
	}

	cmd.Flags().StringP(config.KeyAddr, "a", ":8080", "server address")
	return cmd
}

var errNotInteractive = errors.New("refusing to clear without a terminal; pass --yes")

// confirm asks a yes/no question on an interactive terminal.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, errNotInteractive
	}
	return ask(in, out, question)
}

func ask(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func warnUnsynced(a *app, out io.Writer) {
	if a.journal.Status() == journal.StatusUnsynced {
		fmt.Fprintln(out, view.UnsyncedWarning)
	}
}
