package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rileyhilliard/pulse/internal/errors"
)

// ValidationOption controls validation behavior.
type ValidationOption func(*validationContext)

type validationContext struct {
	checkFiles bool
}

// SkipFileChecks disables checks that touch the filesystem (ca_file exists).
// Used by 'pulse init' before files are in place.
func SkipFileChecks() ValidationOption {
	return func(c *validationContext) { c.checkFiles = false }
}

// Validate checks the config for errors and returns structured error messages.
// Zero configured sources is fatal here so the refresh engine never has to
// handle it.
func Validate(cfg *Config, opts ...ValidationOption) error {
	ctx := &validationContext{checkFiles: true}
	for _, opt := range opts {
		opt(ctx)
	}

	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.General.RefreshRate < MinRefreshRate {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh_rate %s is too short", cfg.General.RefreshRate),
			fmt.Sprintf("Use at least %s in the [general] section.", MinRefreshRate))
	}
	if cfg.General.FetchTimeout < 0 {
		return errors.New(errors.ErrConfig,
			"fetch_timeout can't be negative",
			"Remove it to use twice the refresh rate.")
	}

	if err := validateThresholds("cpu", cfg.Thresholds.CPU); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the [thresholds] section in your config.")
	}
	if err := validateThresholds("memory", cfg.Thresholds.Memory); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the [thresholds] section in your config.")
	}

	if cfg.SourceCount() == 0 {
		return errors.New(errors.ErrConfig,
			"No data sources configured",
			"Add a [[providers.proxmox]] or [[providers.ssh]] section, or set [providers.local] enabled = true.")
	}

	seen := make(map[string]string)
	claim := func(name, kind string) error {
		if prev, ok := seen[name]; ok {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Source name '%s' is used by both a %s and a %s provider", name, prev, kind),
				"Give every provider a unique name - it's how pulse tells their hosts apart.")
		}
		seen[name] = kind
		return nil
	}

	for i, p := range cfg.Providers.Proxmox {
		if err := validateProxmox(i, p, ctx); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check your [[providers.proxmox]] entries.")
		}
		if err := claim(p.Name, "proxmox"); err != nil {
			return err
		}
	}

	for i, s := range cfg.Providers.SSH {
		if err := validateSSH(i, s); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check your [[providers.ssh]] entries.")
		}
		if err := claim(s.Name, "ssh"); err != nil {
			return err
		}
	}

	if cfg.Providers.Local.Enabled {
		if err := claim(cfg.Providers.Local.Name, "local"); err != nil {
			return err
		}
	}

	return nil
}

func validateThresholds(metric string, t ThresholdValues) error {
	if t.Warning < 0 || t.Warning > 100 || t.Critical < 0 || t.Critical > 100 {
		return fmt.Errorf("%s thresholds must be between 0 and 100", metric)
	}
	if t.Warning != 0 && t.Critical != 0 && t.Warning >= t.Critical {
		return fmt.Errorf("%s warning threshold (%d) should be less than critical (%d)", metric, t.Warning, t.Critical)
	}
	return nil
}

func validateProxmox(i int, p ProxmoxConfig, ctx *validationContext) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("proxmox provider #%d needs a 'name'", i+1)
	}
	missing := []string{}
	if p.Host == "" {
		missing = append(missing, "host")
	}
	if p.TokenID == "" {
		missing = append(missing, "token_id")
	}
	if p.TokenSecret == "" {
		missing = append(missing, "token_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("proxmox provider '%s' is missing %s", p.Name, strings.Join(missing, ", "))
	}

	u, err := url.Parse(p.Host)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("proxmox provider '%s' host '%s' should look like https://pve.example.com:8006", p.Name, p.Host)
	}

	if ctx.checkFiles && p.CAFile != "" {
		if _, err := os.Stat(p.CAFile); err != nil {
			return fmt.Errorf("proxmox provider '%s' ca_file '%s' can't be read: %v", p.Name, p.CAFile, err)
		}
	}
	return nil
}

func validateSSH(i int, s SSHConfig) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("ssh provider #%d needs a 'name'", i+1)
	}
	if len(s.Hosts) == 0 {
		return fmt.Errorf("ssh provider '%s' needs at least one entry in 'hosts'", s.Name)
	}
	for j, h := range s.Hosts {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("ssh provider '%s' has an empty host at position %d", s.Name, j)
		}
	}
	return nil
}
