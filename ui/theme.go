package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

var (
	dimFg    = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	labelFg  = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	errorFg  = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	warnFg   = lipgloss.AdaptiveColor{Light: "#F5A623", Dark: "#FFB454"}
	borderFg = lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#3C3C3C"}
)

// Theme holds the styles used to draw a frame.
type Theme struct {
	Title   lipgloss.Style
	State   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Dim     lipgloss.Style
	Accent  lipgloss.Style
	Error   lipgloss.Style
	Notice  lipgloss.Style
	Success lipgloss.Style
	Border  lipgloss.Style
	Section lipgloss.Style

	Help help.Model
}

// NewTheme builds a Theme for the given renderer.
func NewTheme(r *lipgloss.Renderer, cfg Config) Theme {
	accent := lipgloss.Color(cfg.Accent)
	if cfg.Accent == "" {
		accent = lipgloss.Color("#04B575")
	}

	h := help.New()
	h.Styles.ShortKey = r.NewStyle().Foreground(accent)
	h.Styles.ShortDesc = r.NewStyle().Foreground(labelFg)
	h.Styles.ShortSeparator = r.NewStyle().Foreground(dimFg)

	return Theme{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ECFD65")).Background(lipgloss.Color("#5A56E0")).Padding(0, 1),
		State:   r.NewStyle().Foreground(accent).Bold(true),
		Label:   r.NewStyle().Foreground(labelFg),
		Value:   r.NewStyle(),
		Dim:     r.NewStyle().Foreground(dimFg),
		Accent:  r.NewStyle().Foreground(accent),
		Error:   r.NewStyle().Foreground(errorFg),
		Notice:  r.NewStyle().Foreground(warnFg).Bold(true),
		Success: r.NewStyle().Foreground(accent),
		Border:  r.NewStyle().Foreground(borderFg),
		Section: r.NewStyle().Bold(true).Underline(true),
		Help:    h,
	}
}
