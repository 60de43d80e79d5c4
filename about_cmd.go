package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sfjuke/sfjuke/internal/input"
	"github.com/sfjuke/sfjuke/internal/metadata"
)

const maxAboutWidth = 100

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Show how to drive a session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		style := styles.AutoStyle
		width := 80
		fd := int(os.Stdout.Fd())
		if term.IsTerminal(fd) {
			if w, _, err := term.GetSize(fd); err == nil && w > 0 {
				width = min(w, maxAboutWidth)
			}
		} else {
			style = "notty"
		}

		r, err := glamour.NewTermRenderer(
			glamour.WithColorProfile(lipgloss.ColorProfile()),
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return fmt.Errorf("unable to create renderer: %w", err)
		}

		out, err := r.Render(aboutMarkdown(input.DefaultKeyMap()))
		if err != nil {
			return fmt.Errorf("unable to render markdown: %w", err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

// aboutMarkdown documents the keys in km and the session's behaviour.
func aboutMarkdown(km input.KeyMap) string {
	var b strings.Builder
	b.WriteString("# sfjuke\n\n")
	b.WriteString("sfjuke plays every MIDI file below your library directory through ")
	b.WriteString("one of your SoundFonts. When a track ends the next one starts.\n\n")
	b.WriteString("## Keys\n\n")
	b.WriteString("| Key | Action |\n|---|---|\n")
	for _, k := range km.ShortHelp() {
		h := k.Help()
		fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	b.WriteString("\nKeys are read without pressing enter. `Ctrl+C` also quits.\n\n")
	b.WriteString("## Saving\n\n")
	b.WriteString("Saving renders the current track with the current SoundFont to ")
	b.WriteString("`<output>/<track>-<soundfont>.mp3` and then plays the same track again.\n\n")
	b.WriteString("## Metadata\n\n")
	b.WriteString("Tracks show their title, text, copyright, lyric and marker events. ")
	fmt.Fprintf(&b, "Tracks without any show `%s`.\n", strings.Trim(metadata.NoMetadataNotice, "*"))
	return b.String()
}

// keysReference is the plain text key list used in the man page.
func keysReference() string {
	var b strings.Builder
	for _, k := range input.DefaultKeyMap().ShortHelp() {
		h := k.Help()
		fmt.Fprintf(&b, "%s    %s\n", h.Key, h.Desc)
	}
	return b.String()
}
