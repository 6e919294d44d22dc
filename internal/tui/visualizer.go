// SPDX-License-Identifier: MIT

// Package tui renders the spectrum visualizer and the device picker in the
// terminal with Bubble Tea.
package tui

import (
	"fmt"
	"strings"
	"time"

	"specviz/internal/analysis"
	"specviz/internal/metadata"
	"specviz/internal/session"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	seekStep     = 5 * time.Second
	maxMetaLines = 3
	margin       = 2 // Left and right padding in columns.
	minBarsRows  = 1
	headerRows   = 3 // Title, help line and the blank line under them.
	footerRows   = 3 // Blank line, progress bar and time.
)

// Player is the playback transport the visualizer controls. *audio.Engine
// implements it.
type Player interface {
	TogglePause() bool
	Playing() bool
	Position() time.Duration
	Duration() time.Duration
	Progress() float64
	Seek(d time.Duration) error
	SeekFraction(f float64) error
	Done() <-chan struct{}
}

type keyMap struct {
	Quit        key.Binding
	Pause       key.Binding
	SeekBack    key.Binding
	SeekForward key.Binding
}

var keys = keyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
	Pause:       key.NewBinding(key.WithKeys(" ")),
	SeekBack:    key.NewBinding(key.WithKeys("left", "h")),
	SeekForward: key.NewBinding(key.WithKeys("right", "l")),
}

type tickMsg time.Time
type playbackEndedMsg struct{}

// Options configures the visualizer.
type Options struct {
	Session  *session.Session
	Player   Player // nil while capturing live input.
	Metadata metadata.Metadata
	Source   string // Shown in live mode, usually the input device name.
	FPS      int
	Err      error // Set when the audio could not be opened.
}

// Model is the Bubble Tea model of the spectrum visualizer.
type Model struct {
	session *session.Session
	player  Player
	meta    []string
	source  string
	err     error

	interval time.Duration
	maxBars  int
	springs  springField
	styles   []lipgloss.Style

	width, height int
	beat          bool
	headAlt       bool // Head marker toggled to its alternate colour.
	playing       bool
	ended         bool
	position      time.Duration
	duration      time.Duration
	progress      float64
}

// NewModel builds the visualizer for opts.
func NewModel(opts Options) Model {
	fps := opts.FPS
	if fps <= 0 {
		fps = analysis.DefaultFramesPerSecond
	}
	m := Model{
		session:  opts.Session,
		player:   opts.Player,
		source:   opts.Source,
		err:      opts.Err,
		interval: time.Second / time.Duration(fps),
		springs:  newSpringField(fps),
	}
	if m.session != nil {
		m.maxBars = m.session.NumBars()
	}

	lines := opts.Metadata.Lines()
	m.meta = lines[:min(len(lines), maxMetaLines)]

	if m.player != nil {
		m.playing = m.player.Playing()
		m.duration = m.player.Duration()
	}
	return m
}

// Init starts the render tick.
func (m Model) Init() tea.Cmd {
	if m.err != nil || m.session == nil {
		return nil
	}
	cmds := []tea.Cmd{m.tickCmd()}
	if m.player != nil {
		cmds = append(cmds, waitDone(m.player))
	}
	return tea.Batch(cmds...)
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitDone(p Player) tea.Cmd {
	return func() tea.Msg {
		<-p.Done()
		return playbackEndedMsg{}
	}
}

// Update handles input, resizes and render ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.styles = rowStyles(m.layout().barsRows)
		if m.session != nil {
			m.session.SetNumBars(barsForWidth(m.width-2*margin, m.maxBars))
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case m.player == nil || m.err != nil:
		case key.Matches(msg, keys.Pause):
			m.playing = m.player.TogglePause()
		case key.Matches(msg, keys.SeekBack):
			_ = m.player.Seek(m.player.Position() - seekStep)
			m.syncPlayer()
		case key.Matches(msg, keys.SeekForward):
			_ = m.player.Seek(m.player.Position() + seekStep)
			m.syncPlayer()
		}
		return m, nil

	case tea.MouseMsg:
		if m.player == nil || m.err != nil ||
			msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		bar := m.layout().progress
		if bar.onHead(msg.X, msg.Y, m.progress) {
			m.headAlt = !m.headAlt
		}
		if f, ok := bar.fractionAt(msg.X, msg.Y); ok {
			_ = m.player.SeekFraction(f)
			m.syncPlayer()
		}
		return m, nil

	case tickMsg:
		frame := m.session.Tick(time.Time(msg))
		m.springs.update(frame.Bars)
		m.beat = frame.Beat
		m.syncPlayer()
		return m, m.tickCmd()

	case playbackEndedMsg:
		m.ended = true
		m.syncPlayer()
		return m, nil
	}

	return m, nil
}

func (m *Model) syncPlayer() {
	if m.player == nil {
		return
	}
	m.playing = m.player.Playing()
	m.position = m.player.Position()
	m.duration = m.player.Duration()
	m.progress = m.player.Progress()
}

type layout struct {
	barsTop  int
	barsRows int
	progress progressBar
}

// layout places the screen regions for the current window size. Mouse hit
// testing and View share it.
func (m Model) layout() layout {
	top := headerRows + len(m.meta)
	rows := max(m.height-top-footerRows, minBarsRows)
	return layout{
		barsTop:  top,
		barsRows: rows,
		progress: progressBar{
			x:     margin,
			y:     top + rows + 1,
			width: max(m.width-2*margin, 1),
		},
	}
}

// View renders the visualizer.
func (m Model) View() string {
	if m.err != nil {
		return "\n" + strings.Repeat(" ", margin) +
			errorStyle.Render(fmt.Sprintf("Cannot play music: %v", m.err)) +
			"\n\n" + strings.Repeat(" ", margin) + infoStyle.Render("Press q to quit.") + "\n"
	}
	if m.width == 0 {
		return "Initializing..."
	}

	l := m.layout()
	pad := strings.Repeat(" ", margin)
	var sb strings.Builder

	title := titleStyle
	if m.beat {
		title = beatStyle
	}
	sb.WriteString(pad + title.Render("specviz") + "\n")
	for _, line := range m.meta {
		sb.WriteString(pad + infoStyle.Render(line) + "\n")
	}
	sb.WriteString(pad + helpStyle.Render(m.helpText()) + "\n\n")

	bars := renderBars(m.springs.pos, l.barsRows, m.styles)
	for _, row := range strings.Split(bars, "\n") {
		sb.WriteString(pad + row + "\n")
	}
	sb.WriteString("\n")

	if m.player == nil {
		sb.WriteString(pad + infoStyle.Render("● live "+m.source) + "\n")
		sb.WriteString(pad + "\n")
	} else {
		sb.WriteString(pad + l.progress.render(m.progress, m.headAlt) + "\n")
		sb.WriteString(pad + infoStyle.Render(FormatTime(m.position)+" / "+FormatTime(m.duration)) + "\n")
	}
	return sb.String()
}

func (m Model) helpText() string {
	if m.player == nil {
		return "Capturing live input • q: Quit"
	}
	action := "play"
	if m.playing {
		action = "pause"
	}
	return "Press space to " + action + " music • ←/→: Seek • Click the bar to jump • q: Quit"
}

// Run starts the visualizer in the alternate screen with mouse support and
// blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(
		NewModel(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
