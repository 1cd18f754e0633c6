package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/view"
)

// Layout proportions and fixed heights.
const (
	hostsPanelShare = 35 // percent of the width for the hosts panel
	detailHeight    = 7  // detail panel including borders
	minPanelHeight  = 4
)

// Column widths shared by row and column-header rendering.
const (
	colPct    = 6
	colUptime = 10
	colID     = 5
	colKind   = 4
	colMem    = 9
	colState  = 9

	// rowPrefix is the cursor, status glyph and a space.
	rowPrefix = 3
)

// renderDashboard renders the complete dashboard for one frame.
func (m Model) renderDashboard(f *view.Frame) string {
	width, height := m.size()

	header := m.renderHeader(f, width)
	status := m.renderStatusBar(f, width)

	panelHeight := height - lipgloss.Height(header) - detailHeight - lipgloss.Height(status)
	if panelHeight < minPanelHeight {
		panelHeight = minPanelHeight
	}

	hostsWidth := width * hostsPanelShare / 100
	workloadsWidth := width - hostsWidth

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderHostsPanel(f, hostsWidth, panelHeight),
		m.renderWorkloadsPanel(f, workloadsWidth, panelHeight),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		panels,
		m.renderDetail(f, width),
		status,
	)
}

// renderHeader renders the summary line.
func (m Model) renderHeader(f *view.Frame, width int) string {
	sum := f.Snapshot.Summary()

	title := TitleStyle.Render("PULSE")
	stats := LabelStyle.Render(fmt.Sprintf(" | Hosts: %d/%d | Workloads: %d/%d | Sort: %s %s | refreshed %s",
		sum.HostsOnline, sum.HostsTotal,
		sum.WorkloadsRunning, sum.WorkloadsTotal,
		f.Sort, f.Dir.Arrow(),
		m.refreshedText(f),
	))

	line := title + stats
	if m.refreshing() {
		line += " " + m.spinner.View()
	}
	return HeaderStyle.Width(width).Render(truncateVisible(line, width-2))
}

// refreshedText is "never" before the first snapshot, otherwise a
// humanized age such as "5 seconds ago".
func (m Model) refreshedText(f *view.Frame) string {
	if !f.Refreshed() {
		return "never"
	}
	return humanize.RelTime(f.LastRefresh, m.now(), "ago", "from now")
}

// renderHostsPanel renders the hosts list.
func (m Model) renderHostsPanel(f *view.Frame, width, height int) string {
	active := f.Panel == view.PanelHosts
	sum := f.Snapshot.Summary()
	title := fmt.Sprintf("Hosts (%d/%d)", sum.HostsOnline, sum.HostsTotal)

	nameWidth := innerWidth(width) - rowPrefix - 2*(colPct+1) - (colUptime + 1)
	columns := "   " + padRight("NAME", nameWidth) + " " +
		padLeft("CPU", colPct) + " " + padLeft("MEM", colPct) + " " + padLeft("UPTIME", colUptime)

	rows := make([]string, len(f.Hosts))
	for i, h := range f.Hosts {
		rows[i] = m.hostRow(h, nameWidth, i == f.HostCursor, active)
	}

	empty := emptyText(f, "hosts")
	return m.renderPanel(title, filterBadge(f), columns, rows, empty, f.HostCursor, width, height, active)
}

func (m Model) hostRow(h inventory.Host, nameWidth int, selected, active bool) string {
	glyph, glyphColor := GlyphOnline, ColorHealthy
	if !h.Online() {
		glyph, glyphColor = GlyphOffline, ColorCritical
	}

	name := padRight(truncate(h.Name, nameWidth), nameWidth)
	cpu := padLeft(inventory.FormatPercent(h.CPU), colPct)
	mem := padLeft("?", colPct)
	memPct, memKnown := h.MemoryPercent()
	if memKnown {
		mem = padLeft(inventory.FormatPercent(memPct), colPct)
	}
	uptime := padLeft(inventory.FormatUptime(h.Uptime), colUptime)

	if selected {
		line := GlyphCursor + glyph + " " + name + " " + cpu + " " + mem + " " + uptime
		return selectedRow(line, active)
	}

	if !h.Online() {
		cpu = MutedStyle.Render(cpu)
		mem = MutedStyle.Render(mem)
	} else {
		cpu = MetricStyle(h.CPU, m.thresholds.CPU).Render(cpu)
		if memKnown {
			mem = MetricStyle(memPct, m.thresholds.Memory).Render(mem)
		}
	}
	return " " + lipgloss.NewStyle().Foreground(glyphColor).Render(glyph) + " " +
		ValueStyle.Render(name) + " " + cpu + " " + mem + " " + MutedStyle.Render(uptime)
}

// renderWorkloadsPanel renders the workloads list.
func (m Model) renderWorkloadsPanel(f *view.Frame, width, height int) string {
	active := f.Panel == view.PanelWorkloads
	sum := f.Snapshot.Summary()
	title := fmt.Sprintf("Workloads (%d/%d)", sum.WorkloadsRunning, sum.WorkloadsTotal)

	rest := innerWidth(width) - rowPrefix - (colID + 1) - (colKind + 1) - (colPct + 1) - (colMem + 1) - colState
	hostWidth := rest / 3
	nameWidth := rest - hostWidth - 2

	columns := "   " + padLeft("ID", colID) + " " + padRight("TYPE", colKind) + " " +
		padRight("NAME", nameWidth) + " " + padRight("HOST", hostWidth) + " " +
		padLeft("CPU", colPct) + " " + padLeft("MEM", colMem) + " " + padRight("STATE", colState)

	rows := make([]string, len(f.Workloads))
	for i, w := range f.Workloads {
		rows[i] = m.workloadRow(f.Snapshot, w, nameWidth, hostWidth, i == f.WorkloadCursor, active)
	}

	empty := emptyText(f, "workloads")
	return m.renderPanel(title, filterBadge(f), columns, rows, empty, f.WorkloadCursor, width, height, active)
}

func (m Model) workloadRow(snap *inventory.Snapshot, w inventory.Workload, nameWidth, hostWidth int, selected, active bool) string {
	glyph, glyphColor := workloadGlyph(w.State)

	id := padLeft(strconv.FormatUint(w.ID, 10), colID)
	kind := padRight(kindLabel(w.Kind), colKind)
	name := padRight(truncate(w.Name, nameWidth), nameWidth)
	host := padRight(truncate(snap.HostLabel(w), hostWidth), hostWidth)
	cpu := padLeft(inventory.FormatPercent(w.CPU), colPct)
	mem := padLeft(memUsedText(w.MemUsed, w.MemMax), colMem)
	state := padRight(truncate(w.StateLabel(), colState), colState)

	if selected {
		line := GlyphCursor + glyph + " " + id + " " + kind + " " + name + " " + host + " " + cpu + " " + mem + " " + state
		return selectedRow(line, active)
	}

	if w.Running() {
		cpu = MetricStyle(w.CPU, m.thresholds.CPU).Render(cpu)
	} else {
		cpu = MutedStyle.Render(cpu)
	}
	return " " + lipgloss.NewStyle().Foreground(glyphColor).Render(glyph) + " " +
		MutedStyle.Render(id) + " " + LabelStyle.Render(kind) + " " +
		ValueStyle.Render(name) + " " + LabelStyle.Render(host) + " " +
		cpu + " " + ValueStyle.Render(mem) + " " +
		lipgloss.NewStyle().Foreground(glyphColor).Render(state)
}

// renderPanel draws a bordered list, scrolled so the cursor stays visible.
func (m Model) renderPanel(title, badge, columns string, rows []string, empty string, cursor, width, height int, active bool) string {
	visible := height - 3 // top border, column header, bottom border
	if visible < 1 {
		visible = 1
	}

	offset := 0
	if cursor >= visible {
		offset = cursor - visible + 1
	}

	lines := []string{
		SectionHeader(title, badge, width, active),
		SectionContentLine(MutedStyle.Render(columns), width, active),
	}

	switch {
	case len(rows) == 0:
		lines = append(lines, SectionContentLine(MutedStyle.Render(empty), width, active))
		visible--
	default:
		end := min(offset+visible, len(rows))
		for _, row := range rows[offset:end] {
			lines = append(lines, SectionContentLine(row, width, active))
		}
		visible -= end - offset
	}
	for ; visible > 0; visible-- {
		lines = append(lines, SectionContentLine("", width, active))
	}

	lines = append(lines, SectionFooter(width, active))
	return strings.Join(lines, "\n")
}

// renderStatusBar shows the filter input while typing, otherwise the error
// summary if the last refresh had failures, otherwise key hints.
func (m Model) renderStatusBar(f *view.Frame, width int) string {
	var content string
	switch {
	case f.Mode == view.ModeFilter:
		content = m.filter.View()
	case f.ErrorSummary != "":
		content = ErrorTextStyle.Render("✗ " + f.ErrorSummary)
		if m.notice != "" {
			content += MutedStyle.Render(" | " + m.notice)
		}
	case m.notice != "":
		content = LabelStyle.Render(m.notice)
	default:
		content = m.keyHints()
	}
	return FooterStyle.Width(width).Render(truncateVisible(content, width-2))
}

func (m Model) keyHints() string {
	var hints []string
	for _, b := range m.keys.footerBindings() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return strings.Join(hints, " | ")
}

func selectedRow(line string, active bool) string {
	if active {
		return SelectedRowStyle.Render(line)
	}
	return LabelStyle.Render(line)
}

func workloadGlyph(s inventory.RunState) (string, lipgloss.Color) {
	switch s {
	case inventory.StateRunning:
		return GlyphOnline, ColorHealthy
	case inventory.StateTransitional:
		return GlyphTransitional, ColorWarning
	default:
		return GlyphOffline, ColorTextMuted
	}
}

func kindLabel(k inventory.WorkloadKind) string {
	if k == inventory.KindContainer {
		return "ct"
	}
	return "vm"
}

func memUsedText(used, total uint64) string {
	if total == 0 {
		return "?"
	}
	return inventory.FormatBytes(used)
}

func filterBadge(f *view.Frame) string {
	if f.Filter == "" {
		return ""
	}
	return "/" + f.Filter
}

func emptyText(f *view.Frame, what string) string {
	switch {
	case !f.Refreshed():
		return "waiting for first refresh..."
	case f.Filter != "":
		return fmt.Sprintf("no %s match %q", what, f.Filter)
	default:
		return "no " + what
	}
}

// innerWidth is the content width inside a panel's borders.
func innerWidth(width int) int {
	return width - 4
}
