package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#E9967A", "#87CEEB", "#04B575", "#FF5F56", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	focus lipgloss.Style // focus-phase accents
	rest  lipgloss.Style // break-phase accents
	ok    lipgloss.Style
	err   lipgloss.Style
	help  lipgloss.Style
	panel lipgloss.Style
}

func NewPalette(f, b, s, e, h string) *Palette {
	return &Palette{
		focus: NewBold(f),
		rest:  NewBold(b),
		ok:    NewBold(s),
		err:   NewBold(e),
		help:  NewEm(h),
		panel: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
