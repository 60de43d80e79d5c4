package session

import "github.com/sfjuke/sfjuke/internal/input"

// Wrap maps i into [0, n). It returns 0 when n is not positive.
func Wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Cursor is the session's position in the track and voice lists.
type Cursor struct {
	Track  int
	Voice  int
	Tracks int
	Voices int
}

// Apply moves the cursor for cmd. Save and Quit leave it alone.
func (c *Cursor) Apply(cmd input.Command) {
	switch cmd {
	case input.Next, input.None:
		c.Track = Wrap(c.Track+1, c.Tracks)
	case input.Previous:
		c.Track = Wrap(c.Track-1, c.Tracks)
	case input.SwitchVoice:
		c.Voice = Wrap(c.Voice+1, c.Voices)
	}
}

// NextTrack returns the index that Next would select.
func (c Cursor) NextTrack() int {
	return Wrap(c.Track+1, c.Tracks)
}
