package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors each canvas layer and the side panel.
type Theme struct {
	Name    string
	Contour lipgloss.Color
	Sand    lipgloss.Color
	Water   lipgloss.Color
	Wall    lipgloss.Color
	Trail   lipgloss.Color
	Hole    lipgloss.Color
	Ball    lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
}

var (
	ThemeLinks = Theme{
		Name:    "links",
		Contour: lipgloss.Color("#2e8b57"),
		Sand:    lipgloss.Color("#e0c068"),
		Water:   lipgloss.Color("#3a7bd5"),
		Wall:    lipgloss.Color("#a0522d"),
		Trail:   lipgloss.Color("#c0c0c0"),
		Hole:    lipgloss.Color("#ff4444"),
		Ball:    lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#00ff88"),
		Text:    lipgloss.Color("#e8f5e9"),
		Muted:   lipgloss.Color("#5f7f6f"),
		Warning: lipgloss.Color("#ffaa00"),
	}

	ThemeNight = Theme{
		Name:    "night",
		Contour: lipgloss.Color("#444466"),
		Sand:    lipgloss.Color("#8b7d6b"),
		Water:   lipgloss.Color("#00ccff"),
		Wall:    lipgloss.Color("#ff00ff"),
		Trail:   lipgloss.Color("#ffff00"),
		Hole:    lipgloss.Color("#ff4444"),
		Ball:    lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666688"),
		Warning: lipgloss.Color("#ff8800"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Contour: lipgloss.Color("#555555"),
		Sand:    lipgloss.Color("#aaaaaa"),
		Water:   lipgloss.Color("#888888"),
		Wall:    lipgloss.Color("#cccccc"),
		Trail:   lipgloss.Color("#999999"),
		Hole:    lipgloss.Color("#0088ff"),
		Ball:    lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Warning: lipgloss.Color("#ffaa00"),
	}

	Themes = []Theme{ThemeLinks, ThemeNight, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

func (th Theme) layerStyles() map[Layer]lipgloss.Style {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return map[Layer]lipgloss.Style{
		LayerContour: fg(th.Contour),
		LayerSand:    fg(th.Sand),
		LayerWater:   fg(th.Water),
		LayerWall:    fg(th.Wall).Bold(true),
		LayerTrail:   fg(th.Trail),
		LayerHole:    fg(th.Hole).Bold(true),
		LayerBall:    fg(th.Ball).Bold(true),
	}
}

type panelStyles struct {
	header, label, value, status, warn, graph, help lipgloss.Style
}

func (th Theme) panel() panelStyles {
	return panelStyles{
		header: lipgloss.NewStyle().Foreground(th.Accent).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(th.Muted).Width(12),
		value:  lipgloss.NewStyle().Foreground(th.Text),
		status: lipgloss.NewStyle().Foreground(th.Accent).Bold(true),
		warn:   lipgloss.NewStyle().Foreground(th.Warning).Bold(true),
		graph:  lipgloss.NewStyle().Foreground(th.Trail).Padding(1, 0),
		help:   lipgloss.NewStyle().Foreground(th.Muted).MarginTop(1),
	}
}

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
)
