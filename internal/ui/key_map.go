package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	search     key.Binding
	build      key.Binding
	create     key.Binding
	back       key.Binding
	restart    key.Binding
	disconnect key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		search:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		build:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create playlist")),
		create:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		restart:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "new search")),
		disconnect: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disconnect spotify")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.build},
		{k.back, k.restart, k.disconnect},
		{k.quit},
	}
}
