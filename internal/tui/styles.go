package tui

import (
	"github.com/charmbracelet/bubbles/v2/help"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

// Styles are the colors used by the list demo.
type Styles struct {
	Item      lipgloss.Style
	ItemAlt   lipgloss.Style
	Active    lipgloss.Style
	Gutter    lipgloss.Style
	Status    lipgloss.Style
	StatusKey lipgloss.Style
	Help      help.Styles
}

// DefaultStyles returns the charmtone based styles.
func DefaultStyles() Styles {
	base := lipgloss.NewStyle()
	return Styles{
		Item:      base.Foreground(charmtone.Ash),
		ItemAlt:   base.Foreground(charmtone.Smoke),
		Active:    base.Foreground(charmtone.Salt).Background(charmtone.Charple).Bold(true),
		Gutter:    base.Foreground(charmtone.Oyster),
		Status:    base.Foreground(charmtone.Squid).Background(charmtone.Charcoal),
		StatusKey: base.Foreground(charmtone.Salt).Background(charmtone.Dolly).Padding(0, 1),
		Help: help.Styles{
			ShortKey:       base.Foreground(charmtone.Squid),
			ShortDesc:      base.Foreground(charmtone.Oyster),
			ShortSeparator: base.Foreground(charmtone.Charcoal),
			Ellipsis:       base.Foreground(charmtone.Charcoal),
			FullKey:        base.Foreground(charmtone.Squid),
			FullDesc:       base.Foreground(charmtone.Oyster),
			FullSeparator:  base.Foreground(charmtone.Charcoal),
		},
	}
}
