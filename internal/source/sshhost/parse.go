package sshhost

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// sectionMarker separates the files printed by probeCommand.
const sectionMarker = "--pulse--"

// probeCommand prints everything a host probe needs in one round trip.
const probeCommand = "cat /proc/stat; echo " + sectionMarker +
	"; cat /proc/meminfo; echo " + sectionMarker +
	"; cat /proc/uptime"

// cpuSample is the aggregate jiffy counters from /proc/stat.
type cpuSample struct {
	total uint64
	idle  uint64
}

// busyPercent returns the busy share of the interval between prev and s.
// Without a usable previous sample the counters since boot are used.
func (s cpuSample) busyPercent(prev cpuSample, havePrev bool) float64 {
	total, idle := s.total, s.idle
	if havePrev && s.total > prev.total && s.idle >= prev.idle {
		total = s.total - prev.total
		idle = s.idle - prev.idle
	}
	if total == 0 || idle > total {
		return 0
	}
	return float64(total-idle) / float64(total) * 100
}

// splitProbe splits probeCommand output into its three sections.
func splitProbe(out string) (stat, meminfo, uptime string, err error) {
	parts := strings.Split(out, sectionMarker+"\n")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("expected 3 sections in probe output, got %d", len(parts))
	}
	return parts[0], parts[1], parts[2], nil
}

// parseCPU reads the aggregate "cpu " line of /proc/stat. iowait counts
// as idle.
func parseCPU(procStat string) (cpuSample, error) {
	scanner := bufio.NewScanner(strings.NewReader(procStat))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 5 {
			return cpuSample{}, fmt.Errorf("invalid /proc/stat cpu line: %s", line)
		}

		var s cpuSample
		for i := 1; i < len(fields); i++ {
			val, err := strconv.ParseUint(fields[i], 10, 64)
			if err != nil {
				return cpuSample{}, fmt.Errorf("failed to parse cpu field %d: %w", i, err)
			}
			s.total += val
			if i == 4 || i == 5 {
				s.idle += val
			}
		}
		return s, nil
	}
	if err := scanner.Err(); err != nil {
		return cpuSample{}, fmt.Errorf("error scanning /proc/stat: %w", err)
	}
	return cpuSample{}, fmt.Errorf("no aggregate cpu line in /proc/stat")
}

// parseMemory returns used and total bytes from /proc/meminfo. Used is
// total minus MemAvailable, or minus free, buffers and cache on kernels that
// predate MemAvailable.
func parseMemory(procMeminfo string) (used, total uint64, err error) {
	values := make(map[string]uint64)
	scanner := bufio.NewScanner(strings.NewReader(procMeminfo))
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}
		val, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			continue
		}
		values[strings.TrimSuffix(parts[0], ":")] = val * 1024
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, fmt.Errorf("error scanning /proc/meminfo: %w", err)
	}

	total, ok := values["MemTotal"]
	if !ok || total == 0 {
		return 0, 0, fmt.Errorf("MemTotal missing from /proc/meminfo")
	}

	var free uint64
	if avail, ok := values["MemAvailable"]; ok {
		free = avail
	} else {
		free = values["MemFree"] + values["Buffers"] + values["Cached"]
	}
	if free > total {
		free = total
	}
	return total - free, total, nil
}

// parseUptime returns whole seconds from /proc/uptime.
func parseUptime(procUptime string) (uint64, error) {
	fields := strings.Fields(procUptime)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty /proc/uptime")
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("invalid /proc/uptime value %q", fields[0])
	}
	return uint64(secs), nil
}
