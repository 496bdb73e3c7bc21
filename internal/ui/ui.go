// Package ui provides terminal rendering helpers for skiff output.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/skiffdb/skiff/internal/store"
)

// ------- minimal styling helpers (Lip Gloss) -------
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
)

const (
	boxChecked   = "☑"
	boxUnchecked = "☐"
)

// Init picks the color profile from the environment. NO_COLOR and dumb
// terminals downgrade to plain text.
func Init() {
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// Width returns the terminal width, falling back to 80 columns when
// stdout is not a terminal.
func Width() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// OK formats a success line.
func OK(msg string) string {
	return successStyle.Render("✔ " + msg)
}

// Fail formats an error line.
func Fail(msg string) string {
	return errorStyle.Render("✖ " + msg)
}

// Warn formats a warning line.
func Warn(msg string) string {
	return pendingStyle.Render("! " + msg)
}

// Title formats a section heading.
func Title(msg string) string {
	return titleStyle.Render(msg)
}

// Muted formats de-emphasized detail text.
func Muted(msg string) string {
	return mutedStyle.Render(msg)
}

// Accent formats a highlighted value.
func Accent(msg string) string {
	return accentStyle.Render(msg)
}

// RenderItem formats one item as a checklist line.
func RenderItem(item store.Item) string {
	if item.Done {
		return fmt.Sprintf("%s %3d  %s", successStyle.Render(boxChecked), item.ID, doneStyle.Render(item.Value))
	}
	return fmt.Sprintf("%s %3d  %s", mutedStyle.Render(boxUnchecked), item.ID, item.Value)
}

// RenderSnapshot formats both partitions with a progress footer.
func RenderSnapshot(snap store.Snapshot) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Pending") + "\n")
	if len(snap.Pending) == 0 {
		b.WriteString(mutedStyle.Render("  (none)") + "\n")
	}
	for _, item := range snap.Pending {
		b.WriteString("  " + RenderItem(item) + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("Completed") + "\n")
	if len(snap.Completed) == 0 {
		b.WriteString(mutedStyle.Render("  (none)") + "\n")
	}
	for _, item := range snap.Completed {
		b.WriteString("  " + RenderItem(item) + "\n")
	}

	b.WriteString("\n" + ProgressBar(len(snap.Completed), snap.Total(), 28) + "\n")
	return b.String()
}

// ProgressBar renders a completion bar like [████░░░░] 2/5.
func ProgressBar(done, total, width int) string {
	shown := total
	if total == 0 {
		total = 1
	}
	if width <= 0 {
		width = 28
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf("] %d/%d", done, shown)
}
