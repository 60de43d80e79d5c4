package metadata

import (
	"context"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2/smf"
)

// SMF extracts metadata by reading the meta events of the file directly, so
// no external tool is needed.
type SMF struct{}

// Extract implements Extractor.
func (SMF) Extract(_ context.Context, track, _ string) (Result, error) {
	details, err := FileDetails(track)
	if err != nil {
		return Result{}, err
	}
	res := Result{Details: details}

	s, err := smf.ReadFile(details.Path)
	if err != nil {
		return res, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	res.Lines = metaLines(s)
	return res, nil
}

func metaLines(s *smf.SMF) []string {
	var lines []string
	add := func(text string) {
		text = strings.TrimSpace(strings.ToValidUTF8(text, "�"))
		if text != "" {
			lines = append(lines, text)
		}
	}

	for _, tr := range s.Tracks {
		for _, ev := range tr {
			var text string
			switch msg := ev.Message; {
			case msg.GetMetaTrackName(&text),
				msg.GetMetaText(&text),
				msg.GetMetaCopyright(&text),
				msg.GetMetaLyric(&text),
				msg.GetMetaMarker(&text):
				add(text)
			}
		}
	}
	return lines
}
