// SPDX-License-Identifier: MIT
package tui

import (
	"strings"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

// Display range of the bars. Levels at or below FloorDB draw nothing and
// levels at or above CeilDB fill the column.
const (
	FloorDB = -40.0
	CeilDB  = 50.0
)

const (
	barWidth = 2 // Columns per bar.
	barGap   = 1 // Columns between bars.

	springFrequency = 8.0
	springDamping   = 0.8
)

var barChars = []rune(" ▁▂▃▄▅▆▇█")

// dbToLevel maps a bar height in dB to [0, 1].
func dbToLevel(db float64) float64 {
	return min(max((db-FloorDB)/(CeilDB-FloorDB), 0), 1)
}

// barsForWidth returns how many bars fit in width columns, at most limit.
func barsForWidth(width, limit int) int {
	n := (width + barGap) / (barWidth + barGap)
	return min(max(n, 1), limit)
}

// springField animates each bar towards its analyzed height.
type springField struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

func newSpringField(fps int) springField {
	return springField{spring: harmonica.NewSpring(harmonica.FPS(fps), springFrequency, springDamping)}
}

func (s *springField) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

func (s *springField) step(i int, target float64) float64 {
	p, v := s.spring.Update(s.pos[i], s.vel[i], target)
	s.pos[i] = min(max(p, 0), 1)
	s.vel[i] = v
	return s.pos[i]
}

// update moves every spring one frame towards the levels of bars.
func (s *springField) update(bars []float64) {
	s.resize(len(bars))
	for i, db := range bars {
		s.step(i, dbToLevel(db))
	}
}

// renderBars draws levels in [0, 1] as height rows of gradient coloured
// columns.
func renderBars(levels []float64, height int, styles []lipgloss.Style) string {
	if height < 1 {
		return ""
	}

	rows := make([]string, height)
	var line strings.Builder
	for row := range height {
		line.Reset()
		rowFromBottom := float64(height - 1 - row)
		for b, level := range levels {
			if b > 0 {
				line.WriteString(strings.Repeat(" ", barGap))
			}
			filled := level * float64(height)
			charIdx := 0
			if filled >= rowFromBottom+1 {
				charIdx = len(barChars) - 1
			} else if filled > rowFromBottom {
				charIdx = int((filled - rowFromBottom) * float64(len(barChars)-1))
			}
			line.WriteString(strings.Repeat(string(barChars[charIdx]), barWidth))
		}
		if row < len(styles) {
			rows[row] = styles[row].Render(line.String())
		} else {
			rows[row] = line.String()
		}
	}
	return strings.Join(rows, "\n")
}
