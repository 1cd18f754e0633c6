package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the config file looked up in the working directory.
	ConfigFileName = "pulse.toml"
	// GlobalConfigDir is the per-user config directory, relative to home.
	GlobalConfigDir = ".config/pulse"
	// GlobalConfigFile is the per-user config file name.
	GlobalConfigFile = "config.toml"
	// EnvConfigPath overrides the search when set.
	EnvConfigPath = "PULSE_CONFIG"
	// EnvPrefix prefixes environment overrides (PULSE_GENERAL_REFRESH_RATE).
	EnvPrefix = "PULSE"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'pulse init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid TOML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. $PULSE_CONFIG
// 3. pulse.toml in the current directory
// 4. ~/.config/pulse/config.toml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvConfigPath)
	}
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if global := GlobalPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalPath returns ~/.config/pulse/config.toml, or "" when the home
// directory is unknown.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadFromFlags finds, loads and validates the config in one step.
func LoadFromFlags(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return nil, "", errors.New(errors.ErrConfig,
			"No config file found",
			"Run 'pulse init' to create "+ConfigFileName+", or pass --config")
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	if err := Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the TOML syntax in "+path)
	}

	cfg.General.LogFile = ExpandTilde(cfg.General.LogFile)
	for i := range cfg.Providers.Proxmox {
		p := &cfg.Providers.Proxmox[i]
		p.Host = strings.TrimRight(strings.TrimSpace(p.Host), "/")
		p.TokenSecret = expandEnv(p.TokenSecret)
		p.CAFile = ExpandTilde(p.CAFile)
	}
	for i := range cfg.Providers.SSH {
		if cfg.Providers.SSH[i].ConnectTimeout <= 0 {
			cfg.Providers.SSH[i].ConnectTimeout = DefaultConnectTimeout
		}
	}
	if cfg.Providers.Local.Name == "" {
		cfg.Providers.Local.Name = "local"
	}

	return cfg, nil
}

// setDefaults registers defaults so environment overrides apply to keys the
// file leaves out.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("general.refresh_rate", def.General.RefreshRate.String())
	v.SetDefault("general.fetch_timeout", "0s")
	v.SetDefault("general.log_file", "")
	v.SetDefault("general.log_level", def.General.LogLevel)
	v.SetDefault("thresholds.cpu.warning", def.Thresholds.CPU.Warning)
	v.SetDefault("thresholds.cpu.critical", def.Thresholds.CPU.Critical)
	v.SetDefault("thresholds.memory.warning", def.Thresholds.Memory.Warning)
	v.SetDefault("thresholds.memory.critical", def.Thresholds.Memory.Critical)
	v.SetDefault("providers.local.enabled", false)
	v.SetDefault("providers.local.name", def.Providers.Local.Name)
}
