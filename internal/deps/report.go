package deps

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)
	installedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	missingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	optionalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"})
)

// Render formats the report for the terminal.
func (r Report) Render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Dependency Check"))
	b.WriteString("\n\n")

	for _, s := range r.Statuses {
		switch {
		case s.Installed:
			b.WriteString(installedStyle.Render(fmt.Sprintf("  ✓ %s: ", s.Name)))
			b.WriteString(s.Path)
			if s.Version != "" {
				b.WriteString(" " + dimStyle.Render(s.Version))
			}
		case s.Required:
			b.WriteString(missingStyle.Render(fmt.Sprintf("  ✗ %s: ", s.Name)))
			b.WriteString("Not installed")
		default:
			b.WriteString(optionalStyle.Render(fmt.Sprintf("  ○ %s: ", s.Name)))
			b.WriteString("Not installed (optional)")
		}
		if s.Purpose != "" {
			b.WriteString(dimStyle.Render(" (" + s.Purpose + ")"))
		}
		b.WriteString("\n")
		if !s.Installed && s.Instructions != "" {
			fmt.Fprintf(&b, "    %s\n", s.Instructions)
		}
	}
	return b.String()
}
