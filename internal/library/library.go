package library

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrEmptyLibrary is returned when no tracks are found under the library root.
	ErrEmptyLibrary = errors.New("no MIDI tracks found")
	// ErrEmptyVoiceSet is returned when no SoundFonts are found.
	ErrEmptyVoiceSet = errors.New("no SoundFont voice profiles found")
)

// gitcha matches patterns case-sensitively, so list the spellings seen in
// the wild and filter by extension afterwards.
var (
	trackPatterns = []string{"*.mid", "*.midi", "*.MID", "*.MIDI", "*.Mid", "*.Midi"}
	voicePatterns = []string{"*.sf2", "*.SF2", "*.Sf2"}
)

// Track is one playable MIDI file.
type Track struct {
	Path string
	// Name is the parent directory joined with the file name.
	Name string
}

// VoiceProfile is a SoundFont used to render tracks.
type VoiceProfile struct {
	Path string
	Name string
}

// NewTrack builds a Track for path.
func NewTrack(path string) Track {
	name := filepath.Join(filepath.Base(filepath.Dir(path)), filepath.Base(path))
	return Track{Path: path, Name: displayName(name)}
}

// NewVoiceProfile builds a VoiceProfile for path.
func NewVoiceProfile(path string) VoiceProfile {
	return VoiceProfile{Path: path, Name: displayName(filepath.Base(path))}
}

func displayName(s string) string {
	return norm.NFC.String(strings.ToValidUTF8(s, "�"))
}

// IsTrackFile reports whether path has a recognised MIDI extension.
func IsTrackFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return true
	}
	return false
}

// IsVoiceFile reports whether path looks like a SoundFont.
func IsVoiceFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sf2")
}

// Options controls track enumeration.
type Options struct {
	// Shuffle permutes the tracks once. When false tracks are sorted by path.
	Shuffle bool
	// Rand is the source used for shuffling. A nil Rand uses the global source.
	Rand *rand.Rand
}

// EnumerateTracks walks root and returns every MIDI file below it.
func EnumerateTracks(root string, opts Options) ([]Track, error) {
	paths, err := find(root, trackPatterns, IsTrackFile)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyLibrary, root)
	}

	tracks := make([]Track, len(paths))
	for i, p := range paths {
		tracks[i] = NewTrack(p)
	}

	if opts.Shuffle {
		shuffle := rand.Shuffle
		if opts.Rand != nil {
			shuffle = opts.Rand.Shuffle
		}
		shuffle(len(tracks), func(i, j int) {
			tracks[i], tracks[j] = tracks[j], tracks[i]
		})
	}

	log.Debug("Enumerated tracks", "root", root, "count", len(tracks), "shuffled", opts.Shuffle)
	return tracks, nil
}

// EnumerateVoices walks dir and returns every SoundFont below it, sorted by
// path.
func EnumerateVoices(dir string) ([]VoiceProfile, error) {
	paths, err := find(dir, voicePatterns, IsVoiceFile)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyVoiceSet, dir)
	}

	voices := make([]VoiceProfile, len(paths))
	for i, p := range paths {
		voices[i] = NewVoiceProfile(p)
	}
	log.Debug("Enumerated voices", "dir", dir, "count", len(voices))
	return voices, nil
}

// find returns the sorted, de-duplicated absolute paths of the files below
// root that match one of patterns and pass keep.
func find(root string, patterns []string, keep func(string) bool) ([]string, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	ch, err := gitcha.FindAllFilesExcept(root, patterns, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to search %s: %w", root, err)
	}

	seen := make(map[string]struct{})
	var paths []string
	for res := range ch {
		if res.Info != nil && res.Info.IsDir() {
			continue
		}
		p := res.Path
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if !keep(p) {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
