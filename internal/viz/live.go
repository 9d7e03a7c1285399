package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/playback"
)

const (
	canvasCols      = 60
	canvasRows      = 22
	trailCapacity   = 400
	historyCapacity = 600
	maxStepsPerTick = 256
)

type TickMsg time.Time

// DriverFunc builds a fresh driver positioned at the start. It is called
// once up front and again on every replay.
type DriverFunc func() *playback.Driver

type Options struct {
	Title string
	Theme string
	// StepsPerTick is how many physics frames one screen frame advances.
	StepsPerTick int
	FrameRate    int
	// Waypoints are drawn as markers on the course.
	Waypoints []dynamo.Vec2
}

// Model plays a driver back on a course at FrameRate screen frames per
// second.
type Model struct {
	ctx       context.Context
	newDriver DriverFunc
	drv       *playback.Driver
	crs       *course.Course
	view      Viewport
	backdrop  *Canvas
	canvas    *Canvas
	waypoints []dynamo.Vec2

	title     string
	theme     Theme
	frameRate int
	steps     int

	trail     []dynamo.Vec2
	speeds    []float64
	penalties int
	last      playback.Frame
	running   bool
	showHelp  bool
	err       error
}

func NewModel(ctx context.Context, crs *course.Course, newDriver DriverFunc, opts Options) Model {
	if opts.StepsPerTick <= 0 {
		opts.StepsPerTick = 4
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}
	if opts.Title == "" {
		opts.Title = crs.Name
	}

	view := FitCourse(crs, canvasCols*2, canvasRows*4, opts.Waypoints...)
	m := Model{
		ctx:       ctx,
		newDriver: newDriver,
		crs:       crs,
		view:      view,
		backdrop:  Backdrop(crs, view, canvasCols, canvasRows),
		canvas:    NewCanvas(canvasCols, canvasRows),
		waypoints: opts.Waypoints,
		title:     opts.Title,
		theme:     GetTheme(opts.Theme),
		frameRate: opts.FrameRate,
		steps:     opts.StepsPerTick,
		running:   true,
	}
	m.reset()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Update handles input events and advances the playback.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "+", "=":
			m.steps = min(m.steps*2, maxStepsPerTick)
		case "-", "_":
			m.steps = max(m.steps/2, 1)
		case "t":
			names := ThemeNames()
			for i, name := range names {
				if name == m.theme.Name {
					m.theme = GetTheme(names[(i+1)%len(names)])
					break
				}
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.err == nil && !m.drv.Done() {
			m.advance()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) reset() {
	m.drv = m.newDriver()
	m.trail = m.trail[:0]
	m.speeds = m.speeds[:0]
	m.penalties = 0
	m.err = nil
	m.last = playback.Frame{State: m.drv.State()}
}

// advance runs up to steps driver frames, stopping early once the ball has
// nothing left to play.
func (m *Model) advance() {
	for i := 0; i < m.steps; i++ {
		f, err := m.drv.Tick(m.ctx)
		if err != nil {
			m.err = err
			return
		}
		m.record(f)
		if m.drv.Done() {
			return
		}
	}
}

func (m *Model) record(f playback.Frame) {
	m.last = f
	if f.Event == playback.EventPenalty {
		m.penalties++
	}
	if f.Event == playback.EventIdle {
		return
	}
	m.trail = append(m.trail, f.State.Position())
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}
	m.speeds = append(m.speeds, f.State.Speed())
	if len(m.speeds) > historyCapacity {
		m.speeds = m.speeds[1:]
	}
}

func (m *Model) draw() {
	m.canvas.CopyFrom(m.backdrop)
	for _, w := range m.waypoints {
		x, y := m.view.ToPixel(w)
		m.canvas.Dot(x, y, 2, LayerHole)
	}
	for _, p := range m.trail {
		x, y := m.view.ToPixel(p)
		m.canvas.Set(x, y, LayerTrail)
	}
	x, y := m.view.ToPixel(m.drv.State().Position())
	m.canvas.Dot(x, y, 3, LayerBall)
}

func (m Model) status() (string, bool) {
	switch {
	case m.err != nil:
		return "ERROR", true
	case m.drv.Holed():
		return "HOLED", false
	case m.drv.Done():
		return "FINISHED", false
	case !m.running:
		return "PAUSED", true
	case m.drv.AtRest():
		return "AIMING", false
	}
	return "ROLLING", false
}

// View renders the course canvas next to the stats panel.
func (m Model) View() string {
	m.draw()
	st := m.theme.panel()
	canvasView := canvasStyle.Render(m.canvas.Render(m.theme))

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	status, warn := m.status()
	if warn {
		s.WriteString(st.warn.Render(status) + "\n\n")
	} else {
		s.WriteString(st.status.Render(status) + "\n\n")
	}

	if len(m.speeds) > 1 {
		chart := asciigraph.Plot(m.speeds, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Speed"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	state := m.drv.State()
	pos := state.Position()
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.drv.Time()))
	row("Shots", fmt.Sprintf("%d", m.drv.Shots()))
	row("Penalties", fmt.Sprintf("%d", m.penalties))
	row("Position", fmt.Sprintf("(%.2f, %.2f)", pos.X, pos.Z))
	row("Speed", fmt.Sprintf("%.3f", state.Speed()))
	row("To hole", fmt.Sprintf("%.3f", pos.Dist(m.crs.Target.Pos)))
	row("Playback", fmt.Sprintf("%dx", m.steps))
	if m.crs.IsSand(pos) {
		row("Lie", "sand")
	} else {
		row("Lie", "grass")
	}
	if m.err != nil {
		s.WriteString("\n" + st.warn.Render(m.err.Error()) + "\n")
	}

	s.WriteString(st.help.Render("─────────────────────\nSP:Pause R:Replay Q:Quit\nT:Theme  +/-:Speed ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpOverlay + "\n\n" + mainView
	}
	return mainView
}

const helpOverlay = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume playback    ║
║  R        - Replay from the start    ║
║  Q        - Quit                     ║
║  +/-      - Faster/slower playback   ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run shows m full screen until the user quits.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
