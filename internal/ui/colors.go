package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title    lipgloss.Style
	ok       lipgloss.Style
	err      lipgloss.Style
	warn     lipgloss.Style
	help     lipgloss.Style
	cursor   lipgloss.Style
	selected lipgloss.Style
}

var _ Painter = (*Palette)(nil)

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:    NewBold(t),
		ok:       NewBold(s),
		err:      NewBold(e),
		warn:     NewStyle(w),
		help:     NewEm(h),
		cursor:   NewBold(t),
		selected: lipgloss.NewStyle().Bold(true),
	}
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
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

// gradientStops maps the leading stop of a song color gradient to a terminal color.
var gradientStops = map[string]lipgloss.Color{
	"emerald": "#34D399",
	"cyan":    "#22D3EE",
	"purple":  "#C084FC",
	"amber":   "#FBBF24",
	"rose":    "#FB7185",
	"indigo":  "#818CF8",
	"green":   "#4ADE80",
	"pink":    "#F472B6",
}

// songColor resolves a gradient identifier such as "from-cyan-400 to-blue-500".
func songColor(gradient string) lipgloss.Color {
	for _, part := range strings.Fields(gradient) {
		name, ok := strings.CutPrefix(part, "from-")
		if !ok {
			continue
		}
		if i := strings.IndexByte(name, '-'); i > 0 {
			name = name[:i]
		}
		if c, ok := gradientStops[name]; ok {
			return c
		}
	}
	return lipgloss.Color("#626262")
}
