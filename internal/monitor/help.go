package monitor

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// Help overlay styles
var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Background(ColorSurfaceBg).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Width(10)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)
)

// renderHelpOverlay renders a centered box listing every binding.
func (m Model) renderHelpOverlay() string {
	var lines []string
	lines = append(lines, helpTitleStyle.Render("Keyboard Shortcuts"))

	for _, b := range m.keys.helpBindings() {
		k, desc := helpText(b)
		lines = append(lines, helpKeyStyle.Render(k)+helpDescStyle.Render(desc))
	}

	lines = append(lines, "")
	lines = append(lines, helpTitleStyle.Render("While filtering"))
	for _, b := range []key.Binding{m.keys.ApplyFilter, m.keys.CancelInput} {
		k, desc := helpText(b)
		lines = append(lines, helpKeyStyle.Render(k)+helpDescStyle.Render(desc))
	}

	lines = append(lines, "")
	lines = append(lines, LabelStyle.Render("Press any key to close"))

	width, height := m.size()
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		helpBoxStyle.Render(strings.Join(lines, "\n")),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorDarkBg),
	)
}

// helpText renders a binding for the help overlay.
func helpText(b key.Binding) (string, string) {
	h := b.Help()
	return h.Key, h.Desc
}
