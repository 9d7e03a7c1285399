package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Mode is how the launched playback picks its shots.
type Mode string

const (
	ModeAim  Mode = "aim"
	ModePlan Mode = "plan"
)

var modeInfo = map[Mode]string{
	ModeAim:  "optimizer aims every shot at the hole",
	ModePlan: "planner finds a route, optimizer plays it",
}

type MenuItem struct {
	Name        string
	Description string
}

// LaunchFunc builds the playback for a menu choice. It may block while
// shots are searched for.
type LaunchFunc func(item MenuItem, mode Mode) (Model, error)

const (
	stateMenu = iota
	stateMode
	statePlay
)

// Menu picks a course and a mode, then hands over to a live Model.
type Menu struct {
	state, cursor int
	items         []MenuItem
	modes         []Mode
	selected      MenuItem
	launch        LaunchFunc
	live          Model
	err           error
	width, height int
}

func NewMenu(items []MenuItem, launch LaunchFunc) Menu {
	return Menu{items: items, modes: []Mode{ModeAim, ModePlan}, launch: launch, width: 80, height: 24}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	default:
		if m.state == statePlay {
			next, cmd := m.live.Update(msg)
			m.live = next.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m Menu) handleKey(msg tea.KeyMsg) (Menu, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateMode:
		return m.modeKey(msg)
	case statePlay:
		if msg.String() == "esc" {
			m.state, m.cursor = stateMenu, 0
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	return m, nil
}

func (m Menu) menuKey(msg tea.KeyMsg) (Menu, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.items) == 0 {
			return m, nil
		}
		m.selected = m.items[m.cursor]
		m.state, m.cursor, m.err = stateMode, 0, nil
	}
	return m, nil
}

func (m Menu) modeKey(msg tea.KeyMsg) (Menu, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		m.state, m.cursor = stateMenu, 0
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.modes)-1 {
			m.cursor++
		}
	case "enter":
		live, err := m.launch(m.selected, m.modes[m.cursor])
		if err != nil {
			m.err = err
			return m, nil
		}
		m.live, m.state = live, statePlay
		return m, m.live.Init()
	}
	return m, nil
}

func (m Menu) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateMode:
		return m.viewMode()
	case statePlay:
		return m.live.View()
	}
	return ""
}

var (
	menuTitle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cc88")).Bold(true)
	menuSub   = lipgloss.NewStyle().Foreground(lipgloss.Color("#668866"))
	menuPick  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true)
	menuOn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDesc  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0c068"))
	menuOff   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aa66")).Bold(true)
	menuErr   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

func (m Menu) list(b *strings.Builder, names, descs []string) {
	for i, name := range names {
		desc := descs[i]
		if len(desc) > 44 {
			desc = desc[:41] + "..."
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuPick.Render("▸"), menuOn.Render(fmt.Sprintf("%-12s", name)), menuDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", menuOff.Render(fmt.Sprintf("  %-12s", name)), menuOff.Render(desc)))
		}
	}
}

func hints(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, menuKey.Render(pairs[i])+menuOff.Render(" "+pairs[i+1]))
	}
	return "\n    " + strings.Join(parts, "  ") + "\n"
}

func (m Menu) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("PUTTSIM") + "\n    " + menuSub.Render("putting green simulator") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	names := make([]string, len(m.items))
	descs := make([]string, len(m.items))
	for i, it := range m.items {
		names[i], descs[i] = it.Name, it.Description
	}
	m.list(&b, names, descs)
	b.WriteString(hints("j/k", "navigate", "enter", "select", "q", "quit"))
	return b.String()
}

func (m Menu) viewMode() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render(strings.ToUpper(m.selected.Name)) + "\n    " + menuSub.Render(m.selected.Description) + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	names := make([]string, len(m.modes))
	descs := make([]string, len(m.modes))
	for i, mode := range m.modes {
		names[i], descs[i] = string(mode), modeInfo[mode]
	}
	m.list(&b, names, descs)
	if m.err != nil {
		b.WriteString("\n    " + menuErr.Render(m.err.Error()) + "\n")
	}
	b.WriteString(hints("j/k", "select", "enter", "play", "esc", "back"))
	return b.String()
}
