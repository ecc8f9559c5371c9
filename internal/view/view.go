// Package view renders entries as plain text for terminal front-ends.
package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/pbaille/devlog/internal/domain"
)

const (
	EmptyJournal = "No logs yet - time to start coding!"
	NoMatches    = "No matching entries found."
	DateLayout   = "2006-01-02"

	// UnsyncedWarning follows a mutation that could not be saved.
	UnsyncedWarning = "warning: changes are kept for this session only, storage is unavailable"
)

// Entries writes one line per entry: short id, local date and text.
// empty is printed instead when there is nothing to show.
func Entries(w io.Writer, entries []domain.Entry, empty string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	for _, e := range entries {
		fmt.Fprintln(w, Line(e))
	}
}

// Line formats a single entry
func Line(e domain.Entry) string {
	return fmt.Sprintf("%-8s  %s  %s", e.ShortID(), e.Time().Format(DateLayout), Truncate(e.Text, 60))
}

// Truncate flattens newlines and shortens s to max runes
func Truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
