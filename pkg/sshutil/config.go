package sshutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// SSHHostEntry is a concrete Host alias from an ssh config file.
type SSHHostEntry struct {
	Alias    string
	Hostname string
	User     string
	Port     string
}

// Description is a one-line summary for pickers: "10.0.0.5, user: pi".
func (h SSHHostEntry) Description() string {
	var parts []string
	if h.Hostname != "" && h.Hostname != h.Alias {
		parts = append(parts, h.Hostname)
	}
	if h.User != "" {
		parts = append(parts, "user: "+h.User)
	}
	if h.Port != "" && h.Port != "22" {
		parts = append(parts, "port: "+h.Port)
	}
	if len(parts) == 0 {
		return h.Alias
	}
	return strings.Join(parts, ", ")
}

// ParseSSHConfig returns the concrete host aliases in ~/.ssh/config, used by
// 'pulse init' to offer hosts for an ssh provider.
func ParseSSHConfig() ([]SSHHostEntry, error) {
	return ParseSSHConfigFile(filepath.Join(homeDir(), ".ssh", "config"))
}

// ParseSSHConfigFile parses the given ssh config. Wildcard patterns are
// skipped, aliases are deduplicated and sorted. A missing file is not an error.
func ParseSSHConfigFile(path string) ([]SSHHostEntry, error) {
	content, err := readConfigBeforeMatch(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var hosts []SSHHostEntry
	for _, host := range cfg.Hosts {
		for _, pattern := range host.Patterns {
			alias := pattern.String()
			if strings.ContainsAny(alias, "*?!") || seen[alias] {
				continue
			}
			seen[alias] = true

			hostname, _ := cfg.Get(alias, "HostName")
			user, _ := cfg.Get(alias, "User")
			port, _ := cfg.Get(alias, "Port")
			hosts = append(hosts, SSHHostEntry{Alias: alias, Hostname: hostname, User: user, Port: port})
		}
	}

	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Alias < hosts[j].Alias })
	return hosts, nil
}
