// SPDX-License-Identifier: MIT
package tui

import "strings"

const headRadius = 1 // Columns either side of the head that count as a hit.

// progressBar is the seek bar of the player, placed at column x of row y.
type progressBar struct {
	x, y  int
	width int
}

// headX returns the column of the head marker at fraction f.
func (p progressBar) headX(f float64) int {
	f = min(max(f, 0), 1)
	return p.x + int(f*float64(p.width-1))
}

// fractionAt returns the track fraction under column x of row y, and false
// when the point is off the bar.
func (p progressBar) fractionAt(x, y int) (float64, bool) {
	if y != p.y || x < p.x || x >= p.x+p.width || p.width < 1 {
		return 0, false
	}
	if p.width == 1 {
		return 0, true
	}
	return float64(x-p.x) / float64(p.width-1), true
}

// onHead reports whether (x, y) hits the head marker at fraction f.
func (p progressBar) onHead(x, y int, f float64) bool {
	if y != p.y {
		return false
	}
	d := x - p.headX(f)
	return d >= -headRadius && d <= headRadius
}

// render draws the bar with the played part, the head marker and the rest.
func (p progressBar) render(f float64, headAlt bool) string {
	if p.width < 1 {
		return ""
	}
	head := p.headX(f) - p.x
	hs := headStyle
	if headAlt {
		hs = headAltStyle
	}
	return playedStyle.Render(strings.Repeat("━", head)) +
		hs.Render("●") +
		trackStyle.Render(strings.Repeat("─", p.width-head-1))
}
