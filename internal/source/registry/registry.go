// Package registry builds the configured set of data sources.
package registry

import (
	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/source"
	"github.com/rileyhilliard/pulse/internal/source/local"
	"github.com/rileyhilliard/pulse/internal/source/proxmox"
	"github.com/rileyhilliard/pulse/internal/source/sshhost"
)

// FromConfig returns one DataSource per configured provider, in the order
// the collector merges them: proxmox entries, then ssh groups, then local.
// cfg must already be validated.
func FromConfig(cfg *config.Config, log logger.Logger) ([]source.DataSource, error) {
	if log == nil {
		log = logger.Noop()
	}

	var sources []source.DataSource
	for _, p := range cfg.Providers.Proxmox {
		s, err := proxmox.New(p, log)
		if err != nil {
			_ = source.Close(sources)
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't set up proxmox source '"+p.Name+"'",
				"Check host and ca_file in your config")
		}
		sources = append(sources, s)
	}

	for _, g := range cfg.Providers.SSH {
		sources = append(sources, sshhost.New(g, log))
	}

	if cfg.Providers.Local.Enabled {
		sources = append(sources, local.New(cfg.Providers.Local))
	}

	if len(sources) == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No data sources configured",
			"Run 'pulse init' or add a [[providers.proxmox]] section to your config")
	}

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	log.Debug("registered %d sources: %v", len(sources), names)
	return sources, nil
}
