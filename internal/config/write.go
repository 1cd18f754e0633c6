package config

import (
	"os"
	"path/filepath"

	"github.com/rileyhilliard/pulse/internal/errors"
)

// Write saves cfg as TOML at path, creating parent directories. Only the
// settings 'pulse init' collects are written; everything else keeps its default.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't create config directory",
			"Check permissions on "+filepath.Dir(path))
	}

	v := newViper()
	v.Set("general.refresh_rate", cfg.General.RefreshRate.String())
	if cfg.General.FetchTimeout > 0 {
		v.Set("general.fetch_timeout", cfg.General.FetchTimeout.String())
	}
	if cfg.General.LogFile != "" {
		v.Set("general.log_file", cfg.General.LogFile)
	}

	if len(cfg.Providers.Proxmox) > 0 {
		entries := make([]map[string]interface{}, 0, len(cfg.Providers.Proxmox))
		for _, p := range cfg.Providers.Proxmox {
			entry := map[string]interface{}{
				"name":                 p.Name,
				"host":                 p.Host,
				"user":                 p.User,
				"token_id":             p.TokenID,
				"token_secret":         p.TokenSecret,
				"insecure_skip_verify": p.InsecureSkipVerify,
			}
			if p.CAFile != "" {
				entry["ca_file"] = p.CAFile
			}
			entries = append(entries, entry)
		}
		v.Set("providers.proxmox", entries)
	}

	if len(cfg.Providers.SSH) > 0 {
		entries := make([]map[string]interface{}, 0, len(cfg.Providers.SSH))
		for _, s := range cfg.Providers.SSH {
			entries = append(entries, map[string]interface{}{
				"name":                     s.Name,
				"hosts":                    s.Hosts,
				"insecure_ignore_host_key": s.InsecureIgnoreHostKey,
			})
		}
		v.Set("providers.ssh", entries)
	}

	v.Set("providers.local.enabled", cfg.Providers.Local.Enabled)
	v.Set("providers.local.name", cfg.Providers.Local.Name)

	if err := v.WriteConfigAs(path); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write config file",
			"Check permissions on "+path)
	}
	return os.Chmod(path, 0o600)
}
