// Package metadata derives the text shown next to the playing track: file
// details plus any title, copyright, lyric or marker events in the MIDI file.
package metadata

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// ErrUnavailable means the track carries no displayable metadata. It is not a
// failure: the screen shows NoMetadataNotice instead.
var ErrUnavailable = errors.New("no metadata available")

// NoMetadataNotice is shown when a track has no tagged events.
const NoMetadataNotice = "**NO METADATA AVAILABLE FOR THIS MIDI**"

// Tags are the midicsv record types kept for display.
var Tags = []string{
	"Title_t",
	"Text_t",
	"Copyright_t",
	"Composer",
	"Album",
	"Title",
	"Track_name",
	"Lyrics",
	"Metaeventtext",
	"Marker",
}

// Extractor produces metadata for a track. workdir is a scratch directory
// owned by the caller for the current cycle.
type Extractor interface {
	Extract(ctx context.Context, track, workdir string) (Result, error)
}

// Details describes the track file itself.
type Details struct {
	Name   string        `json:"name"`
	Path   string        `json:"path"`
	Size   int64         `json:"size"`
	Length time.Duration `json:"length"`
}

// SizeString returns the file size in human readable form.
func (d Details) SizeString() string {
	return humanize.IBytes(uint64(d.Size))
}

// Result is the metadata of one track.
type Result struct {
	Details Details  `json:"details"`
	Lines   []string `json:"lines"`
}

// Available reports whether any tagged lines were found.
func (r Result) Available() bool {
	return len(r.Lines) > 0
}

// Err returns ErrUnavailable when no lines were found.
func (r Result) Err() error {
	if r.Available() {
		return nil
	}
	return ErrUnavailable
}

// FileDetails stats track and measures its playing time. A file that cannot
// be parsed still gets its name, path and size.
func FileDetails(track string) (Details, error) {
	path, err := filepath.Abs(track)
	if err != nil {
		path = track
	}
	st, err := os.Stat(path)
	if err != nil {
		return Details{}, fmt.Errorf("unable to stat track: %w", err)
	}
	d := Details{
		Name: filepath.Base(path),
		Path: path,
		Size: st.Size(),
	}
	if length, err := Length(path); err == nil {
		d.Length = length
	} else {
		log.Debug("Unable to measure track", "path", path, "error", err)
	}
	return d, nil
}

// Length returns the playing time of a MIDI file.
func Length(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck

	midi, err := meltysynth.NewMidiFile(bufio.NewReader(f))
	if err != nil {
		return 0, fmt.Errorf("failed to parse MIDI file: %w", err)
	}
	return midi.GetLength(), nil
}

// FilterCSV returns the text column of every midicsv record whose line
// mentions one of Tags.
func FilterCSV(r io.Reader) ([]string, error) {
	var lines []string
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	for s.Scan() {
		line := strings.ToValidUTF8(s.Text(), "�")
		if !hasTag(line) {
			continue
		}
		cols := strings.SplitN(line, ",", 4)
		if len(cols) < 4 {
			continue
		}
		if text := unquote(strings.TrimSpace(cols[3])); text != "" {
			lines = append(lines, text)
		}
	}
	return lines, s.Err()
}

func hasTag(line string) bool {
	for _, tag := range Tags {
		if strings.Contains(line, tag) {
			return true
		}
	}
	return false
}

// unquote strips midicsv's string quoting, where "" stands for a literal
// quote.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return strings.TrimSpace(s)
}
