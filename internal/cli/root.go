package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile      string
	debugFlag    bool
	intervalFlag time.Duration
	logFileFlag  string
)

// rootCmd runs the dashboard when invoked without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Live dashboard for hypervisor hosts and their workloads",
	Long: `pulse polls every configured data source on a fixed cadence and shows
hosts, VMs and containers in a live terminal dashboard.

Sources are configured in pulse.toml: Proxmox VE clusters over the HTTPS API,
plain Linux machines over SSH, and the local machine.

Examples:
  pulse
  pulse --interval 2s
  pulse --config ~/lab/pulse.toml --log-file /tmp/pulse.log`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./pulse.toml, then ~/.config/pulse/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log at debug level")

	rootCmd.Flags().DurationVar(&intervalFlag, "interval", 0, "refresh interval, overrides general.refresh_rate (e.g. 2s, 1m)")
	rootCmd.Flags().StringVar(&logFileFlag, "log-file", "", "write JSON logs to this file, overrides general.log_file")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return
	}
	if code, ok := errors.GetExitCode(err); ok {
		os.Exit(code)
	}
	fmt.Fprint(os.Stderr, formatError(err))
	os.Exit(1)
}

// formatError renders structured errors as-is and everything else
// (mostly cobra flag errors) on one ✗ line.
func formatError(err error) string {
	if errors.Code(err) != "" {
		return err.Error()
	}
	return fmt.Sprintf("✗ %s\n", err)
}

// overrides carries the flag values that replace config settings.
type overrides struct {
	interval time.Duration
	logFile  string
	debug    bool
}

func currentOverrides() overrides {
	return overrides{interval: intervalFlag, logFile: logFileFlag, debug: debugFlag}
}

// loadConfig finds and validates the config, then applies flag overrides.
// It also returns the path the config was read from.
func loadConfig(explicit string, o overrides) (*config.Config, string, error) {
	cfg, path, err := config.LoadFromFlags(explicit)
	if err != nil {
		return nil, path, err
	}
	if err := o.apply(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// apply writes the overrides into cfg and re-validates what they touch.
func (o overrides) apply(cfg *config.Config) error {
	if o.interval > 0 {
		if o.interval < config.MinRefreshRate {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("--interval %s is below the %s minimum", o.interval, config.MinRefreshRate),
				"Pick a slower refresh interval")
		}
		cfg.General.RefreshRate = o.interval
	}
	if o.logFile != "" {
		cfg.General.LogFile = o.logFile
	}
	if o.debug {
		cfg.General.LogLevel = "debug"
	}
	return nil
}

// fileLogger opens the configured log file. With no file configured it
// returns the no-op logger. The close function is always non-nil.
func fileLogger(cfg *config.Config) (logger.Logger, func() error, error) {
	if cfg.General.LogFile == "" {
		return logger.Noop(), func() error { return nil }, nil
	}

	path := config.ExpandTilde(cfg.General.LogFile)
	log, closeFn, err := logger.NewFile(path, cfg.General.LogLevel)
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't open log file "+path,
			"Check that the directory exists and is writable, or unset general.log_file")
	}
	return log, closeFn, nil
}
