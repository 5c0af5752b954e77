package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the dashboard.
type keyMap struct {
	toggle key.Binding
	reset  key.Binding
	swap   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "start/pause")),
		reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		swap:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "switch phase")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.reset, k.swap, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.reset},
		{k.swap, k.quit},
	}
}
