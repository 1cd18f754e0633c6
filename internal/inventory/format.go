package inventory

import "fmt"

// FormatBytes formats a byte count using 1024-based units.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit && exp < 3; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// FormatUptime renders seconds as "5m", "1h 1m" or "1d 0h 0m". Zero is "-".
func FormatUptime(seconds uint64) string {
	if seconds == 0 {
		return "-"
	}

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// ClampPercent limits a usage percentage to [0, 100]. Backends can report
// slightly over 100 while counters settle.
func ClampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatMemory renders "used / total", or "unknown" when total is 0.
func FormatMemory(used, total uint64) string {
	if total == 0 {
		return "unknown"
	}
	return FormatBytes(used) + " / " + FormatBytes(total)
}
