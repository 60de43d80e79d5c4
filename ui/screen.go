package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/sfjuke/sfjuke/internal/input"
	"github.com/sfjuke/sfjuke/internal/session"
)

// Screen is the session.Display that draws frames to a terminal.
type Screen struct {
	out   *termenv.Output
	cfg   Config
	theme Theme
	keys  input.KeyMap
	fd    int
}

// NewScreen returns a Screen writing to w.
func NewScreen(w io.Writer, cfg Config, keys input.KeyMap) *Screen {
	var opts []termenv.OutputOption
	if cfg.NoColor != "" {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	out := termenv.NewOutput(w, opts...)

	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(out.Profile)
	r.SetHasDarkBackground(out.HasDarkBackground())

	fd := -1
	if f, ok := w.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &Screen{
		out:   out,
		cfg:   cfg,
		theme: NewTheme(r, cfg),
		keys:  keys,
		fd:    fd,
	}
}

// Width returns the width frames are drawn at.
func (s *Screen) Width() int {
	w := defaultWidth
	if s.fd >= 0 && term.IsTerminal(s.fd) {
		if tw, _, err := term.GetSize(s.fd); err == nil && tw > 0 {
			w = tw
		}
	}
	if s.cfg.Width > 0 && s.cfg.Width < w {
		w = s.cfg.Width
	}
	return w
}

// Show implements session.Display.
func (s *Screen) Show(f session.Frame) {
	if s.cfg.ClearScreen {
		s.out.ClearScreen()
	}
	fmt.Fprint(s.out, Render(f, s.theme, s.keys, s.cfg, s.Width()))
}
