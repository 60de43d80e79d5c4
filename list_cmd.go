package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/sfjuke/sfjuke/internal/config"
	"github.com/sfjuke/sfjuke/internal/library"
)

var (
	listJSON   bool
	listVoices bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the tracks and SoundFonts a session would play",
	Example: paragraph("sfjuke list\nsfjuke list --json --no-shuffle\nsfjuke list --soundfonts"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		l, err := buildListing(cfg, listVoices)
		if err != nil {
			return err
		}
		if listJSON {
			return writeListingJSON(cmd.OutOrStdout(), l)
		}
		return writeListing(cmd.OutOrStdout(), l)
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the listing as JSON")
	listCmd.Flags().BoolVar(&listVoices, "soundfonts", false, "read every SoundFont and report its bank name and preset count")
}

type listedTrack struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type listedVoice struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	BankName string `json:"bank_name,omitempty"`
	Presets  int    `json:"presets,omitempty"`
}

type listing struct {
	Tracks []listedTrack `json:"tracks"`
	Voices []listedVoice `json:"soundfonts"`
}

func buildListing(cfg config.Config, inspect bool) (listing, error) {
	tracks, err := library.EnumerateTracks(cfg.Library.Dir, library.Options{Shuffle: cfg.Library.Shuffle})
	if err != nil {
		return listing{}, fmt.Errorf("unable to read library %s: %w", cfg.Library.Dir, err)
	}
	voices, err := library.EnumerateVoices(cfg.Library.Voices)
	if err != nil {
		return listing{}, fmt.Errorf("unable to read soundfonts in %s: %w", cfg.Library.Voices, err)
	}

	var l listing
	for _, t := range tracks {
		l.Tracks = append(l.Tracks, listedTrack{Name: t.Name, Path: t.Path})
	}
	for _, v := range voices {
		lv := listedVoice{Name: v.Name, Path: v.Path}
		if inspect {
			info, err := library.InspectVoice(v)
			if err != nil {
				log.Warn("Unable to inspect soundfont", "path", v.Path, "error", err)
			} else {
				lv.BankName = info.BankName
				lv.Presets = info.Presets
			}
		}
		l.Voices = append(l.Voices, lv)
	}
	return l, nil
}

func writeListingJSON(w io.Writer, l listing) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

func writeListing(w io.Writer, l listing) error {
	if _, err := fmt.Fprintln(w, keyword(fmt.Sprintf("Tracks (%d)", len(l.Tracks)))); err != nil {
		return err
	}
	for i, t := range l.Tracks {
		if _, err := fmt.Fprintf(w, "%4d  %s\n", i+1, t.Name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "\n"+keyword(fmt.Sprintf("SoundFonts (%d)", len(l.Voices)))); err != nil {
		return err
	}
	for i, v := range l.Voices {
		line := fmt.Sprintf("%4d  %s", i+1, v.Name)
		if v.BankName != "" {
			line += fmt.Sprintf("  %s, %d presets", v.BankName, v.Presets)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
