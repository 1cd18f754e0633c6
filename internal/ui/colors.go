package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors as ANSI codes so one-shot output respects the user's
// terminal theme.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// Brand accents, shared with the dashboard palette.
const (
	ColorNeonPink   lipgloss.Color = "#FF2E97"
	ColorNeonPurple lipgloss.Color = "#BF40FF"
	ColorNeonCyan   lipgloss.Color = "#00FFFF"
	ColorNeonGreen  lipgloss.Color = "#39FF14"
)

// GradientColors is cycled through by the spinner.
var GradientColors = []lipgloss.Color{
	ColorNeonPink,
	ColorNeonPurple,
	ColorNeonCyan,
	ColorNeonGreen,
}

// Thresholds are the percentages at which a usage value turns from healthy
// to warning and from warning to critical.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// DefaultThresholds match the config defaults.
var DefaultThresholds = Thresholds{Warning: 70, Critical: 90}

// Color returns the semantic color for percent.
func (t Thresholds) Color(percent float64) lipgloss.Color {
	switch {
	case percent >= t.Critical:
		return ColorError
	case percent >= t.Warning:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// SuccessStyle renders text in the success color.
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

// ErrorStyle renders text in the error color.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorError)
}

// WarningStyle renders text in the warning color.
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorWarning)
}

// MutedStyle renders secondary text.
func MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}
