package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/cinex/internal/session"
)

var styles = NewPalette("#E50914", "#04B575", "#FF5F5F", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	header lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		header: NewStyle(h).Padding(0, 1).Border(lipgloss.NormalBorder(), false, false, true, false),
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

// badge colors a session state.
func (p *Palette) badge(s session.State) string {
	switch s {
	case session.StateAuthenticated:
		return p.ok.Render(s.String())
	case session.StateGuest:
		return p.warn.Render(s.String())
	default:
		return p.help.Render(s.String())
	}
}
