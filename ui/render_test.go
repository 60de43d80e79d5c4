package ui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfjuke/sfjuke/internal/input"
	"github.com/sfjuke/sfjuke/internal/library"
	"github.com/sfjuke/sfjuke/internal/metadata"
	"github.com/sfjuke/sfjuke/internal/session"
)

func testTheme() Theme {
	return NewTheme(lipgloss.NewRenderer(io.Discard), Config{})
}

func testFrame() session.Frame {
	return session.Frame{
		State:        session.AwaitingInput,
		Track:        library.NewTrack("/music/Bach/prelude.mid"),
		TrackPos:     3,
		TrackTotal:   12,
		NextTrack:    library.NewTrack("/music/Bach/fugue.mid"),
		Voice:        library.NewVoiceProfile("/sf2/FluidR3_GM.sf2"),
		VoicePos:     1,
		VoiceTotal:   2,
		ShowMetadata: true,
		Metadata: metadata.Result{
			Details: metadata.Details{
				Name: "prelude.mid",
				Path: "/music/Bach/prelude.mid",
				Size: 2048,
			},
			Lines: []string{"Prelude in C", "J.S. Bach"},
		},
	}
}

func TestRenderPlaying(t *testing.T) {
	out := Render(testFrame(), testTheme(), input.DefaultKeyMap(), Config{ShowHelp: true}, 80)

	for _, want := range []string{
		"playing",
		"Bach/prelude.mid",
		"(3 of 12)",
		"FluidR3_GM.sf2",
		"(1 of 2)",
		"Bach/fugue.mid",
		"prelude.mid",
		"2.0 KiB",
		"Prelude in C",
		"J.S. Bach",
		"quit",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, metadata.NoMetadataNotice)
}

func TestRenderMetadataStates(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*session.Frame)
		want    string
		notWant string
	}{
		{
			name: "no lines",
			modify: func(f *session.Frame) {
				f.Metadata.Lines = nil
				f.MetadataErr = metadata.ErrUnavailable
			},
			want: metadata.NoMetadataNotice,
		},
		{
			name: "extraction failed",
			modify: func(f *session.Frame) {
				f.Metadata = metadata.Result{}
				f.MetadataErr = errors.New("midicsv exploded")
			},
			want:    "Error extracting metadata: midicsv exploded",
			notWant: metadata.NoMetadataNotice,
		},
		{
			name: "disabled",
			modify: func(f *session.Frame) {
				f.ShowMetadata = false
			},
			notWant: "Metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testFrame()
			tt.modify(&f)
			out := Render(f, testTheme(), input.DefaultKeyMap(), Config{}, 80)
			if tt.want != "" {
				assert.Contains(t, out, tt.want)
			}
			if tt.notWant != "" {
				assert.NotContains(t, out, tt.notWant)
			}
		})
	}
}

func TestRenderMetadataLimit(t *testing.T) {
	f := testFrame()
	f.Metadata.Lines = []string{"one", "two", "three", "four"}

	out := Render(f, testTheme(), input.DefaultKeyMap(), Config{MetadataLines: 2}, 80)
	assert.Contains(t, out, "two")
	assert.NotContains(t, out, "three")
	assert.Contains(t, out, "2 more")
}

func TestRenderStates(t *testing.T) {
	f := testFrame()
	f.State = session.Exporting
	assert.Contains(t, Render(f, testTheme(), input.DefaultKeyMap(), Config{}, 80), "saving")

	f = testFrame()
	f.RenderErr = errors.New("no audio device")
	out := Render(f, testTheme(), input.DefaultKeyMap(), Config{}, 80)
	assert.Contains(t, out, "unable to play")
	assert.Contains(t, out, "no audio device")

	f = testFrame()
	f.MaxPlay = 30 * time.Second
	assert.Contains(t, Render(f, testTheme(), input.DefaultKeyMap(), Config{}, 80), "next in 30s")
}

func TestRenderMessage(t *testing.T) {
	f := testFrame()
	f.Message = "Saved Output/prelude-FluidR3_GM.mp3"
	out := Render(f, testTheme(), input.DefaultKeyMap(), Config{}, 80)
	assert.Contains(t, out, "Saved Output/prelude-FluidR3_GM.mp3")
}

func TestRenderFitsWidth(t *testing.T) {
	f := testFrame()
	long := strings.Repeat("very-long-directory-name-", 8)
	f.Track = library.NewTrack("/music/" + long + "/" + long + ".mid")
	f.NextTrack = f.Track
	f.Metadata.Details.Path = f.Track.Path
	f.Metadata.Lines = []string{strings.Repeat("lyric ", 40)}

	const width = 60
	out := Render(f, testTheme(), input.DefaultKeyMap(), Config{ShowHelp: true}, width)
	for _, line := range strings.Split(out, "\n") {
		require.LessOrEqual(t, lipgloss.Width(line), width, "line too wide: %q", line)
	}
}

func TestRenderMinimumWidth(t *testing.T) {
	out := Render(testFrame(), testTheme(), input.DefaultKeyMap(), Config{}, 0)
	assert.Contains(t, out, "Bach/prelude.mid")
}

func TestScreenShow(t *testing.T) {
	var buf bytes.Buffer
	s := NewScreen(&buf, Config{NoColor: "1", Width: 70, ShowHelp: true}, input.DefaultKeyMap())
	assert.Equal(t, 70, s.Width())

	s.Show(testFrame())
	out := buf.String()
	assert.Contains(t, out, "Bach/prelude.mid")
	assert.Contains(t, out, "switch soundfont")
	assert.NotContains(t, out, "\x1b[2J")
}
