// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application, stopping any active run.
	Quit key.Binding

	// Help shows the help view.
	Help key.Binding

	// Back returns to the dashboard.
	Back key.Binding

	// Stage1, Stage2 and Stage3 run a single stage.
	Stage1 key.Binding
	Stage2 key.Binding
	Stage3 key.Binding

	// Full runs all three stages.
	Full key.Binding

	// Stop asks to stop the active run.
	Stop key.Binding

	// Refresh reloads the artifact status.
	Refresh key.Binding

	// Detail opens the detailed progress view.
	Detail key.Binding

	// History opens the recent runs view.
	History key.Binding

	// Confirm and Deny answer a confirmation prompt.
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Stage1: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "stage 1"),
		),
		Stage2: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "stage 2"),
		),
		Stage3: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "stage 3"),
		),
		Full: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "full sync"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Detail: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "details"),
		),
		History: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "history"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "yes"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "no"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Full, k.Stop, k.Refresh, k.Help, k.Quit}
}

// ConfirmHelp returns keybindings shown while a prompt is open.
func (k *KeyMap) ConfirmHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Deny}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Stage1, k.Stage2, k.Stage3, k.Full},
		{k.Stop, k.Refresh, k.Detail, k.History},
		{k.Confirm, k.Deny, k.Back},
		{k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
