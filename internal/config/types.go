package config

import "time"

// MinRefreshRate is the shortest cadence accepted. Anything faster hammers
// the backends without making the dashboard more useful.
const MinRefreshRate = 500 * time.Millisecond

// Config represents the complete pulse.toml configuration file.
type Config struct {
	General    GeneralConfig   `yaml:"general" mapstructure:"general"`
	Thresholds ThresholdConfig `yaml:"thresholds" mapstructure:"thresholds"`
	Providers  ProvidersConfig `yaml:"providers" mapstructure:"providers"`
}

// GeneralConfig controls refresh cadence and logging.
type GeneralConfig struct {
	// RefreshRate is how often every source is polled.
	RefreshRate time.Duration `yaml:"refresh_rate" mapstructure:"refresh_rate"`

	// FetchTimeout bounds each fetch call. Zero means twice RefreshRate.
	FetchTimeout time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`

	// LogFile receives JSON logs. Empty disables logging while the dashboard runs.
	LogFile string `yaml:"log_file" mapstructure:"log_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ThresholdConfig sets the percentages at which usage turns yellow and red.
type ThresholdConfig struct {
	CPU    ThresholdValues `yaml:"cpu" mapstructure:"cpu"`
	Memory ThresholdValues `yaml:"memory" mapstructure:"memory"`
}

// ThresholdValues holds warning and critical percentages for one metric.
type ThresholdValues struct {
	Warning  int `yaml:"warning" mapstructure:"warning"`
	Critical int `yaml:"critical" mapstructure:"critical"`
}

// ProvidersConfig lists the configured data sources by backend.
type ProvidersConfig struct {
	Proxmox []ProxmoxConfig `yaml:"proxmox" mapstructure:"proxmox"`
	SSH     []SSHConfig     `yaml:"ssh" mapstructure:"ssh"`
	Local   LocalConfig     `yaml:"local" mapstructure:"local"`
}

// ProxmoxConfig is one Proxmox VE cluster or standalone node reached over
// its HTTPS API with an API token.
type ProxmoxConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Host        string `yaml:"host" mapstructure:"host"`
	User        string `yaml:"user" mapstructure:"user"`
	TokenID     string `yaml:"token_id" mapstructure:"token_id"`
	TokenSecret string `yaml:"token_secret" mapstructure:"token_secret"`

	// InsecureSkipVerify disables TLS certificate checks for this source only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`

	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`
}

// SSHConfig is a group of plain Linux hosts polled over SSH.
type SSHConfig struct {
	Name string `yaml:"name" mapstructure:"name"`

	// Hosts are SSH targets: config aliases, hostnames, or user@host[:port].
	Hosts []string `yaml:"hosts" mapstructure:"hosts"`

	// InsecureIgnoreHostKey accepts any host key. Unknown or changed keys are
	// rejected unless this is set.
	InsecureIgnoreHostKey bool `yaml:"insecure_ignore_host_key" mapstructure:"insecure_ignore_host_key"`

	// ConnectTimeout bounds the SSH handshake. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
}

// DefaultConnectTimeout is used for ssh providers that do not set one.
const DefaultConnectTimeout = 5 * time.Second

// LocalConfig enables reporting the machine pulse runs on.
type LocalConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Name    string `yaml:"name" mapstructure:"name"`
}

// EffectiveFetchTimeout returns the per-call fetch timeout.
func (c *Config) EffectiveFetchTimeout() time.Duration {
	if c.General.FetchTimeout > 0 {
		return c.General.FetchTimeout
	}
	return 2 * c.General.RefreshRate
}

// SourceCount is the number of data sources the config describes.
func (c *Config) SourceCount() int {
	n := len(c.Providers.Proxmox) + len(c.Providers.SSH)
	if c.Providers.Local.Enabled {
		n++
	}
	return n
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			RefreshRate: 5 * time.Second,
			LogLevel:    "info",
		},
		Thresholds: ThresholdConfig{
			CPU:    ThresholdValues{Warning: 70, Critical: 90},
			Memory: ThresholdValues{Warning: 70, Critical: 90},
		},
		Providers: ProvidersConfig{
			Local: LocalConfig{Name: "local"},
		},
	}
}
