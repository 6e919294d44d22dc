// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	beatStyle = titleStyle.
			Background(lipgloss.Color("#E8B339"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"})

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	// Progress bar parts.
	trackStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C8C8C8"))
	playedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#BE2137"))
	headStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	headAltStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FDF900"))
)

type rgb struct{ r, g, b uint8 }

// Bar gradient stops, bottom to top.
var gradient = []rgb{
	{r: 37, g: 160, b: 101},
	{r: 232, g: 179, b: 57},
	{r: 255, g: 80, b: 60},
}

func lerp(a, b rgb, t float64) rgb {
	t = min(max(t, 0), 1)
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return rgb{r: mix(a.r, b.r), g: mix(a.g, b.g), b: mix(a.b, b.b)}
}

// gradientAt returns the bar colour at height t in [0, 1].
func gradientAt(t float64) lipgloss.Color {
	t = min(max(t, 0), 1)
	seg := t * float64(len(gradient)-1)
	i := min(int(seg), len(gradient)-2)
	c := lerp(gradient[i], gradient[i+1], seg-float64(i))
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.r, c.g, c.b))
}

// rowStyles returns one style per bar row, top row first.
func rowStyles(height int) []lipgloss.Style {
	styles := make([]lipgloss.Style, height)
	for row := range styles {
		t := 1.0
		if height > 1 {
			t = float64(height-1-row) / float64(height-1)
		}
		styles[row] = lipgloss.NewStyle().Foreground(gradientAt(t))
	}
	return styles
}
