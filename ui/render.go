package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/sfjuke/sfjuke/internal/input"
	"github.com/sfjuke/sfjuke/internal/metadata"
	"github.com/sfjuke/sfjuke/internal/session"
)

const (
	minWidth     = 40
	defaultWidth = 80
	ellipsis     = "…"
)

// Render draws f as a block of text at most width cells wide.
func Render(f session.Frame, theme Theme, keys input.KeyMap, cfg Config, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	if width < minWidth {
		width = minWidth
	}

	var b strings.Builder
	b.WriteString(header(f, theme, width))
	b.WriteString("\n\n")
	b.WriteString(nowPlaying(f, theme, width))
	b.WriteString("\n")

	if f.ShowMetadata {
		b.WriteString("\n")
		b.WriteString(metadataView(f, theme, cfg, width))
	}

	if f.Message != "" {
		b.WriteString("\n")
		style := theme.Success
		if f.MessageIsErr {
			style = theme.Error
		}
		b.WriteString(style.Render(wordwrap.String(f.Message, width)))
		b.WriteString("\n")
	}

	if cfg.ShowHelp {
		theme.Help.Width = width
		b.WriteString("\n")
		b.WriteString(theme.Help.ShortHelpView(keys.ShortHelp()))
		b.WriteString("\n")
	}
	return b.String()
}

func header(f session.Frame, theme Theme, width int) string {
	title := theme.Title.Render("sfjuke")

	var state string
	switch {
	case f.RenderErr != nil:
		state = theme.Error.Render("✗ unable to play")
	case f.State == session.Exporting:
		state = theme.State.Render("● saving")
	case f.State == session.AwaitingInput:
		state = theme.State.Render("▶ playing")
	default:
		state = theme.Dim.Render(f.State.String())
	}

	line := title + " " + state
	if f.MaxPlay > 0 && f.State == session.AwaitingInput {
		line += theme.Dim.Render(fmt.Sprintf("  (next in %s)", f.MaxPlay))
	}
	return truncate.StringWithTail(line, uint(width), ellipsis)
}

func nowPlaying(f session.Frame, theme Theme, width int) string {
	// borders plus the padded label column
	valueWidth := width - 16
	fit := func(s, suffix string) string {
		w := valueWidth - runewidth.StringWidth(suffix)
		if w < 1 {
			w = 1
		}
		return truncate.StringWithTail(s, uint(w), ellipsis) + theme.Dim.Render(suffix)
	}

	rows := [][]string{
		{"Now Playing", fit(f.Track.Name, position(f.TrackPos, f.TrackTotal))},
		{"SoundFont", fit(f.Voice.Name, position(f.VoicePos, f.VoiceTotal))},
		{"Up Next", fit(f.NextTrack.Name, "")},
	}
	if f.RenderErr != nil {
		rows = append(rows, []string{"Error", theme.Error.Render(fit(f.RenderErr.Error(), ""))})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.Border).
		BorderRow(false).
		BorderColumn(false).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return theme.Label.Width(13)
			}
			return theme.Value
		}).
		Rows(rows...)
	return t.Render()
}

func position(pos, total int) string {
	if total <= 0 {
		return ""
	}
	return fmt.Sprintf(" (%d of %d)", pos, total)
}

func metadataView(f session.Frame, theme Theme, cfg Config, width int) string {
	var b strings.Builder
	b.WriteString(theme.Section.Render("Metadata"))
	b.WriteString("\n")

	d := f.Metadata.Details
	if d.Name != "" {
		details := [][2]string{
			{"Filename:", d.Name},
			{"Path:", d.Path},
			{"File Size:", d.SizeString()},
		}
		if d.Length > 0 {
			details = append(details, [2]string{"Length:", d.Length.Round(time.Second).String()})
		}
		for _, kv := range details {
			label := runewidth.FillRight(kv[0], 11)
			value := truncate.StringWithTail(kv[1], uint(width-12), ellipsis)
			b.WriteString(theme.Label.Render(label) + " " + value + "\n")
		}
		b.WriteString("\n")
	}

	switch {
	case f.MetadataErr != nil && !errors.Is(f.MetadataErr, metadata.ErrUnavailable):
		b.WriteString(theme.Error.Render(wordwrap.String("Error extracting metadata: "+f.MetadataErr.Error(), width)))
		b.WriteString("\n")
	case !f.Metadata.Available():
		b.WriteString(theme.Notice.Render(metadata.NoMetadataNotice))
		b.WriteString("\n")
	default:
		lines := f.Metadata.Lines
		limit := cfg.MetadataLines
		if limit <= 0 {
			limit = len(lines)
		}
		shown := lines
		if len(shown) > limit {
			shown = shown[:limit]
		}
		for _, l := range shown {
			b.WriteString(truncate.StringWithTail(l, uint(width), ellipsis))
			b.WriteString("\n")
		}
		if rest := len(lines) - len(shown); rest > 0 {
			b.WriteString(theme.Dim.Render(fmt.Sprintf("… %d more", rest)))
			b.WriteString("\n")
		}
	}
	return b.String()
}
