package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

// sparklineBlockRunes provides indexed access to block characters.
var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline draws the most recent width percentages as block
// characters on a fixed 0-100 scale, so a flat 5% line stays low instead of
// filling the cell. The color follows the last value against t.
func RenderSparkline(data []float64, width int, t Thresholds) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	if len(data) > width {
		data = data[len(data)-width:]
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	for _, v := range data {
		sb.WriteRune(sparklineBlockRunes[sparklineLevel(v)])
	}

	last := data[len(data)-1]
	return lipgloss.NewStyle().Foreground(t.Color(last)).Render(sb.String())
}

// sparklineLevel maps a percentage to a block index.
func sparklineLevel(percent float64) int {
	numLevels := len(sparklineBlockRunes)
	switch {
	case percent <= 0:
		return 0
	case percent >= 100:
		return numLevels - 1
	}
	level := int(percent / 100 * float64(numLevels))
	if level >= numLevels {
		level = numLevels - 1
	}
	return level
}
