package library

import (
	"fmt"
	"os"

	"github.com/sahilm/fuzzy"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// FindVoice returns the index of the voice whose name best matches query.
func FindVoice(voices []VoiceProfile, query string) (int, bool) {
	if query == "" || len(voices) == 0 {
		return 0, false
	}
	names := make([]string, len(voices))
	for i, v := range voices {
		names[i] = v.Name
	}
	matches := fuzzy.Find(query, names)
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0].Index, true
}

// VoiceInfo describes the contents of a SoundFont.
type VoiceInfo struct {
	BankName string
	Presets  int
}

// InspectVoice parses the SoundFont at v.Path. SoundFonts can be large, so
// callers should only do this on demand.
func InspectVoice(v VoiceProfile) (VoiceInfo, error) {
	f, err := os.Open(v.Path)
	if err != nil {
		return VoiceInfo{}, fmt.Errorf("unable to open soundfont: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sf, err := meltysynth.NewSoundFont(f)
	if err != nil {
		return VoiceInfo{}, fmt.Errorf("failed to parse SoundFont: %w", err)
	}

	info := VoiceInfo{Presets: len(sf.Presets)}
	if sf.Info != nil {
		info.BankName = sf.Info.BankName
	}
	return info, nil
}
