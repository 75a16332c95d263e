package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme of terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Banner renders a boxed title followed by dimmed lines, sized to the
// widest of them.
//
//	╭──────────────╮
//	│  title       │
//	├──────────────┤
//	│ line         │
//	╰──────────────╯
func (s Styles) Banner(title string, lines ...string) string {
	bc := s.Border
	t := s.Title.Render(title)
	width := lipgloss.Width(t) + 2
	for _, l := range lines {
		width = max(width, lipgloss.Width(l)+2)
	}

	row := func(text string) string {
		pad := max(0, width-1-lipgloss.Width(text))
		return bc.Render("│") + " " + text + strings.Repeat(" ", pad) + bc.Render("│")
	}

	out := []string{
		bc.Render("╭" + strings.Repeat("─", width) + "╮"),
		bc.Render("│") + t + strings.Repeat(" ", max(0, width-lipgloss.Width(t))) + bc.Render("│"),
	}
	if len(lines) > 0 {
		out = append(out, bc.Render("├"+strings.Repeat("─", width)+"┤"))
		for _, l := range lines {
			out = append(out, row(s.Help.Render(l)))
		}
	}
	out = append(out, bc.Render("╰"+strings.Repeat("─", width)+"╯"))
	return strings.Join(out, "\n")
}

// Prompt renders the input prompt of the interactive shell.
func (s Styles) Prompt(label string) string {
	return s.Label.Render(label+">") + " "
}
