package session

import (
	"time"

	"github.com/sfjuke/sfjuke/internal/library"
	"github.com/sfjuke/sfjuke/internal/metadata"
)

// Frame is everything the display needs for one screen. Positions are
// 1-based.
type Frame struct {
	State State

	Track      library.Track
	TrackPos   int
	TrackTotal int
	NextTrack  library.Track

	Voice      library.VoiceProfile
	VoicePos   int
	VoiceTotal int

	ShowMetadata bool
	Metadata     metadata.Result
	MetadataErr  error

	// RenderErr is set when the renderer could not be started.
	RenderErr error

	Message      string
	MessageIsErr bool

	MaxPlay time.Duration
}

// Display shows frames to the user.
type Display interface {
	Show(Frame)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(Frame)

// Show implements Display.
func (f DisplayFunc) Show(fr Frame) { f(fr) }
