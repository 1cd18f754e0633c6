package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// Dashboard color palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F") // Deep void
	ColorSurfaceBg = lipgloss.Color("#12121A") // Dark surface
	ColorBorder    = lipgloss.Color("#2A2A4A") // Glass border (purple tint)

	// Semantic colors for metrics
	ColorHealthy  = lipgloss.Color("#39FF14") // Neon green
	ColorWarning  = lipgloss.Color("#FFAA00") // Electric amber
	ColorCritical = lipgloss.Color("#FF0055") // Hot red-pink

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0") // Lavender gray
	ColorTextMuted     = lipgloss.Color("#6B6B8D") // Purple-gray

	ColorAccent    = lipgloss.Color("#FF2E97") // Neon pink
	ColorAccentDim = lipgloss.Color("#BF40FF") // Neon purple

	ColorGraph = lipgloss.Color("#00FFFF") // Neon cyan
)

// Base styles for the dashboard
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorTextPrimary).
				Background(ColorBorder).
				Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorCritical).
			Bold(true)

	FilterPromptStyle = lipgloss.NewStyle().
				Foreground(ColorGraph).
				Bold(true)
)

// Status glyphs
const (
	GlyphOnline       = "●"
	GlyphOffline      = "○"
	GlyphTransitional = "◐"
	GlyphCursor       = "›"
)

// MetricColor returns the palette color for a percentage against t.
func MetricColor(percent float64, t ui.Thresholds) lipgloss.Color {
	switch {
	case percent >= t.Critical:
		return ColorCritical
	case percent >= t.Warning:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// MetricStyle returns a style colored for percent.
func MetricStyle(percent float64, t ui.Thresholds) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent, t))
}

// CompactProgressBar renders a bracketless bar colored by t.
func CompactProgressBar(width int, percent float64, t ui.Thresholds) string {
	if width < 1 {
		width = 1
	}

	clamped := percent
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 100 {
		clamped = 100
	}

	filled := int(clamped / 100.0 * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
	return MetricStyle(percent, t).Render(bar)
}

// SectionHeader renders the top border of a panel with the title on the left
// and value on the right. Active panels get an accent border.
// Format: ╭─ Title ────────────────────────────────────── Value ╮
func SectionHeader(title, value string, width int, active bool) string {
	if width < 10 {
		width = 10
	}

	// Left: "╭─ " + title + " "
	leftWidth := 3 + lipgloss.Width(title) + 1
	// Right: " " + value + " ╮"
	rightWidth := 1 + lipgloss.Width(value) + 2

	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}
	middle := strings.Repeat("─", fillWidth)

	border := borderStyle(active)
	titleStyle := lipgloss.NewStyle().Foreground(ColorTextSecondary).Bold(true)
	if active {
		titleStyle = TitleStyle
	}
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return border.Render("╭─ ") +
		titleStyle.Render(title) +
		border.Render(" "+middle+" ") +
		valueStyle.Render(value) +
		border.Render(" ╮")
}

// SectionFooter renders the bottom border of a panel.
func SectionFooter(width int, active bool) string {
	if width < 2 {
		width = 2
	}
	return borderStyle(active).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders one line inside a panel, padded or cut to width.
// Format: │ content                                              │
func SectionContentLine(content string, width int, active bool) string {
	if width < 4 {
		width = 4
	}

	innerWidth := width - 4
	content = truncateVisible(content, innerWidth)
	padding := innerWidth - lipgloss.Width(content)
	if padding < 0 {
		padding = 0
	}

	border := borderStyle(active)
	return border.Render("│") + " " + content + strings.Repeat(" ", padding) + " " + border.Render("│")
}

func borderStyle(active bool) lipgloss.Style {
	if active {
		return lipgloss.NewStyle().Foreground(ColorAccentDim)
	}
	return lipgloss.NewStyle().Foreground(ColorBorder)
}

// truncateVisible cuts s to at most width display cells.
func truncateVisible(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

// truncate shortens plain text to width cells, marking the cut with "~".
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "~"
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// padLeft right-aligns s within width display cells.
func padLeft(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}
