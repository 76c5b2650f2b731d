package cli

import (
	"os"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styles mirror the teacher's ui package conventions (lipgloss.Color by
// ANSI index rather than hex, one NewStyle per semantic role) but are
// applied to plain stdout/stderr lines instead of a bubbletea view.
var (
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	toolStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
)

// renderMarkdown renders content for a terminal of the given width using
// go-term-markdown, the library the teacher uses for the same job (see
// ui/appview_rendering.go), superseding its lower-level gomarkdown/parser
// pairing with the package's own top-level Render entry point.
func renderMarkdown(content string, width int) string {
	if width < 20 {
		width = 80
	}
	return string(markdown.Render(content, width, 0))
}

// terminalWidth reports stdout's column width, falling back to 80 when
// stdout is not a terminal (a pipe, a file, --json mode).
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
