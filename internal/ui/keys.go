package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings for the layer tree view.
type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	ToggleVisible key.Binding
	ToggleQuery   key.Binding
	Theme         key.Binding
	Counts        key.Binding
	Quit          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		ToggleVisible: key.NewBinding(
			key.WithKeys("v", " "),
			key.WithHelp("v", "toggle visibility"),
		),
		ToggleQuery: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "toggle query"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
		Counts: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "counts"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
