// Package console prints saver's user-facing output: progress of every
// relocation, warnings for recoverable failures and save listings.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/saver/pkg/saves"
)

// Level represents the console verbosity level
type Level int

const (
	// LevelQuiet shows only warnings, errors and listings
	LevelQuiet Level = iota
	// LevelNormal shows progress of every operation (default)
	LevelNormal
	// LevelVerbose adds detail such as the session log location
	LevelVerbose
	// LevelDebug shows everything
	LevelDebug
)

// ParseLevel converts a verbosity name to a Level, defaulting to LevelNormal.
func ParseLevel(level string) Level {
	switch level {
	case "quiet":
		return LevelQuiet
	case "verbose":
		return LevelVerbose
	case "debug":
		return LevelDebug
	default:
		return LevelNormal
	}
}

const timeLayout = "2006-01-02 15:04:05"

// Reporter writes styled lines to a terminal. Colors are only emitted when the
// writer is a terminal that supports them.
type Reporter struct {
	level  Level
	writer io.Writer

	info    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	title   lipgloss.Style
	name    lipgloss.Style
}

// New creates a reporter writing to w. A nil w means stdout.
func New(w io.Writer, level Level) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)

	return &Reporter{
		level:   level,
		writer:  w,
		info:    r.NewStyle().Foreground(lipgloss.Color("217")),
		success: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("3")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		title:   r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		name:    r.NewStyle().Bold(true),
	}
}

func (r *Reporter) println(style lipgloss.Style, msg string) {
	fmt.Fprintln(r.writer, style.Render(msg))
}

// Greeting introduces the tool the first time it creates its saves directory
func (r *Reporter) Greeting() {
	if r.level < LevelNormal {
		return
	}
	r.println(r.title, "A lightweight game saver. Takes away all surprises.")
	r.println(r.info, "Every overwrite keeps a backup, and autosave keeps your run safe while you play.")
	r.println(r.info, "Have fun!")
}

// Relocating reports a displaced destination being moved to the backup slot
func (r *Reporter) Relocating(from, to string) {
	if r.level < LevelNormal {
		return
	}
	r.println(r.muted, fmt.Sprintf("Saving old file to backup path: %s -> %s", from, to))
}

// Moving reports a transfer of the source onto its destination
func (r *Reporter) Moving(from, to string) {
	if r.level < LevelNormal {
		return
	}
	r.println(r.muted, fmt.Sprintf("Moving %s to %s", from, to))
}

// Infof prints an informational message
func (r *Reporter) Infof(format string, args ...interface{}) {
	if r.level < LevelNormal {
		return
	}
	r.println(r.info, fmt.Sprintf(format, args...))
}

// Successf prints a success message with checkmark
func (r *Reporter) Successf(format string, args ...interface{}) {
	if r.level < LevelNormal {
		return
	}
	r.println(r.success, "✓ "+fmt.Sprintf(format, args...))
}

// Warningf prints a warning message
func (r *Reporter) Warningf(format string, args ...interface{}) {
	r.println(r.warning, "⚠ Warning: "+fmt.Sprintf(format, args...))
}

// Errorf prints an error message
func (r *Reporter) Errorf(format string, args ...interface{}) {
	r.println(r.failure, "✗ Error: "+fmt.Sprintf(format, args...))
}

// Verbosef prints detailed information (only in verbose mode)
func (r *Reporter) Verbosef(format string, args ...interface{}) {
	if r.level < LevelVerbose {
		return
	}
	r.println(r.muted, "→ "+fmt.Sprintf(format, args...))
}

// Debugf prints debug information (only in debug mode)
func (r *Reporter) Debugf(format string, args ...interface{}) {
	if r.level < LevelDebug {
		return
	}
	r.println(r.muted, "[DEBUG] "+fmt.Sprintf(format, args...))
}

// Listing prints saves and backups with their modification times. It is the
// output of a command, so it is shown at every level.
func (r *Reporter) Listing(l *saves.Listing) {
	if len(l.Saves) > 0 {
		r.println(r.title, "List of saves:")
		r.entries(l.Saves)
	}
	if len(l.Backups) > 0 {
		r.println(r.title, "List of backup saves:")
		r.entries(l.Backups)
	}
	if l.Empty() {
		r.println(r.info, "No saves currently stored.")
	}
}

func (r *Reporter) entries(entries []saves.Entry) {
	for _, e := range entries {
		fmt.Fprintf(r.writer, "  %s |\t %s\n",
			r.name.Render(padRight(e.Name, 25)),
			r.muted.Render(fmt.Sprintf("(Last Modified: %s)", e.ModTime.Format(timeLayout))))
	}
}

// Text prints plain text such as help output
func (r *Reporter) Text(text string) {
	fmt.Fprint(r.writer, text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(r.writer)
	}
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
