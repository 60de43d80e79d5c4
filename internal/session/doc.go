// Package session drives playback: it walks the track list, keeps exactly
// one renderer running for the current track and voice, reacts to key
// commands and guarantees cleanup when the session ends.
//
// A cycle starts the renderer, shows a Frame, polls for a command while the
// renderer is alive, stops the renderer and applies the command. All of this
// happens on the goroutine that calls Run.
package session
