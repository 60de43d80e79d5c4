// Package library enumerates the MIDI tracks and SoundFont voice profiles a
// session plays. Both collections are built once at startup and never change
// while the session runs.
package library
