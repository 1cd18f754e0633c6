package monitor

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/ui"
	"github.com/rileyhilliard/pulse/internal/view"
)

// detailBarWidth is the width of the CPU and memory bars.
const detailBarWidth = 20

// renderDetail renders the panel describing the entity under the active
// panel's cursor.
func (m Model) renderDetail(f *view.Frame, width int) string {
	var lines []string
	title := "Details"

	switch f.Panel {
	case view.PanelWorkloads:
		if w, ok := f.SelectedWorkload(); ok {
			title = w.Name
			lines = m.workloadDetail(f.Snapshot, w, width)
		} else {
			lines = []string{MutedStyle.Render("No workload selected")}
		}
	default:
		if h, ok := f.SelectedHost(); ok {
			title = h.Name
			lines = m.hostDetail(h, width)
		} else {
			lines = []string{MutedStyle.Render("No host selected")}
		}
	}

	out := []string{SectionHeader(title, f.Panel.String(), width, false)}
	for i := 0; i < detailHeight-2; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		out = append(out, SectionContentLine(line, width, false))
	}
	out = append(out, SectionFooter(width, false))
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

func (m Model) hostDetail(h inventory.Host, width int) []string {
	status := lipgloss.NewStyle().Foreground(ColorHealthy).Render(GlyphOnline + " Online")
	if !h.Online() {
		status = lipgloss.NewStyle().Foreground(ColorCritical).Render(GlyphOffline + " Offline")
	}

	return []string{
		status + LabelStyle.Render(" | Source: ") + ValueStyle.Render(h.Source) +
			LabelStyle.Render(" | Uptime: ") + ValueStyle.Render(inventory.FormatUptime(h.Uptime)),
		m.cpuLine(h.CPU, hostKey(h), width),
		m.memLine(h.MemUsed, h.MemTotal),
	}
}

func (m Model) workloadDetail(snap *inventory.Snapshot, w inventory.Workload, width int) []string {
	kind := lipgloss.NewStyle().Foreground(ColorAccentDim).Render("VM")
	if w.Kind == inventory.KindContainer {
		kind = lipgloss.NewStyle().Foreground(ColorGraph).Render("Container")
	}
	glyph, color := workloadGlyph(w.State)
	state := lipgloss.NewStyle().Foreground(color).Render(glyph + " " + w.StateLabel())

	return []string{
		kind + MutedStyle.Render(" (ID: "+strconv.FormatUint(w.ID, 10)+")") + " " + state +
			LabelStyle.Render(" | Host: ") + ValueStyle.Render(snap.HostLabel(w)) +
			LabelStyle.Render(" | Source: ") + ValueStyle.Render(w.Source) +
			LabelStyle.Render(" | Uptime: ") + ValueStyle.Render(inventory.FormatUptime(w.Uptime)),
		m.cpuLine(w.CPU, workloadKey(w), width),
		m.memLine(w.MemUsed, w.MemMax),
	}
}

// cpuLine renders the CPU bar followed by the recent trend.
func (m Model) cpuLine(cpu float64, key inventory.Key, width int) string {
	line := LabelStyle.Render("CPU ") +
		CompactProgressBar(detailBarWidth, cpu, m.thresholds.CPU) + " " +
		MetricStyle(cpu, m.thresholds.CPU).Render(padLeft(inventory.FormatPercent(cpu), colPct))

	// Whatever is left of the line goes to the sparkline.
	room := innerWidth(width) - lipgloss.Width(line) - len("  trend ")
	if samples := m.history.Get(key, room); len(samples) > 1 {
		line += LabelStyle.Render("  trend ") + ui.RenderSparkline(samples, room, m.thresholds.CPU)
	}
	return line
}

// memLine renders the memory bar, or "unknown" when the total is not known.
func (m Model) memLine(used, total uint64) string {
	pct, ok := memoryPercent(used, total)
	if !ok {
		return LabelStyle.Render("MEM ") + MutedStyle.Render("unknown")
	}
	return LabelStyle.Render("MEM ") +
		CompactProgressBar(detailBarWidth, pct, m.thresholds.Memory) + " " +
		MetricStyle(pct, m.thresholds.Memory).Render(padLeft(inventory.FormatPercent(pct), colPct)) +
		MutedStyle.Render(fmt.Sprintf(" (%s)", inventory.FormatMemory(used, total)))
}

func memoryPercent(used, total uint64) (float64, bool) {
	return inventory.Host{MemUsed: used, MemTotal: total}.MemoryPercent()
}
