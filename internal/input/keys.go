// Package input turns single keystrokes into session commands.
package input

import (
	"github.com/charmbracelet/bubbles/key"
)

// Command is what the user asked the session to do.
type Command int

const (
	// None means no key was pressed: the renderer exited, playback hit its
	// time limit or the session is shutting down.
	None Command = iota
	Next
	Previous
	SwitchVoice
	Save
	Quit
)

func (c Command) String() string {
	switch c {
	case None:
		return "none"
	case Next:
		return "next"
	case Previous:
		return "previous"
	case SwitchVoice:
		return "switch voice"
	case Save:
		return "save"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}

// KeyMap binds keys to commands.
type KeyMap struct {
	Next        key.Binding
	Previous    key.Binding
	SwitchVoice key.Binding
	Save        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "next track"),
		),
		Previous: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "previous track"),
		),
		SwitchVoice: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "switch soundfont"),
		),
		Save: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "save mp3"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Lookup returns the command bound to r, or None.
func (k KeyMap) Lookup(r rune) Command {
	s := string(r)
	for _, b := range []struct {
		binding key.Binding
		cmd     Command
	}{
		{k.Next, Next},
		{k.Previous, Previous},
		{k.SwitchVoice, SwitchVoice},
		{k.Save, Save},
		{k.Quit, Quit},
	} {
		if !b.binding.Enabled() {
			continue
		}
		for _, bk := range b.binding.Keys() {
			if bk == s {
				return b.cmd
			}
		}
	}
	return None
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Previous, k.Next, k.SwitchVoice, k.Save, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Previous, k.Next},
		{k.SwitchVoice, k.Save, k.Quit},
	}
}
