package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/ui"
	"github.com/rileyhilliard/pulse/pkg/sshutil"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	initForce  bool
	initGlobal bool
)

// initCmd creates a pulse.toml through an interactive wizard.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a pulse.toml configuration",
	Long: `Walk through adding data sources and write a pulse.toml.

Offers a Proxmox VE cluster, hosts from ~/.ssh/config for the ssh source,
and the local machine.

Examples:
  pulse init
  pulse init --global
  pulse init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(cmd.OutOrStdout(), initTarget(initGlobal), initForce)
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config without asking")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/.config/pulse/config.toml instead of ./pulse.toml")
}

// initTarget is the file init writes.
func initTarget(global bool) string {
	if global {
		if p := config.GlobalPath(); p != "" {
			return p
		}
	}
	return filepath.Join(".", config.ConfigFileName)
}

// initAnswers holds everything the wizard collects.
type initAnswers struct {
	RefreshRate string

	UseProxmox      bool
	ProxmoxName     string
	ProxmoxHost     string
	ProxmoxUser     string
	ProxmoxTokenID  string
	ProxmoxSecret   string
	ProxmoxInsecure bool

	SSHName  string
	SSHHosts []string

	Local bool
}

func defaultInitAnswers() initAnswers {
	return initAnswers{
		RefreshRate: config.DefaultConfig().General.RefreshRate.String(),
		ProxmoxName: "proxmox",
		ProxmoxUser: "root@pam",
		SSHName:     "ssh",
	}
}

// Config builds and validates the config the answers describe.
func (a initAnswers) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()

	rate, err := time.ParseDuration(strings.TrimSpace(a.RefreshRate))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Invalid refresh rate '%s'", a.RefreshRate),
			"Use a duration such as 5s or 1m")
	}
	cfg.General.RefreshRate = rate

	if a.UseProxmox {
		cfg.Providers.Proxmox = append(cfg.Providers.Proxmox, config.ProxmoxConfig{
			Name:               strings.TrimSpace(a.ProxmoxName),
			Host:               normalizeProxmoxHost(a.ProxmoxHost),
			User:               strings.TrimSpace(a.ProxmoxUser),
			TokenID:            strings.TrimSpace(a.ProxmoxTokenID),
			TokenSecret:        strings.TrimSpace(a.ProxmoxSecret),
			InsecureSkipVerify: a.ProxmoxInsecure,
		})
	}

	if len(a.SSHHosts) > 0 {
		cfg.Providers.SSH = append(cfg.Providers.SSH, config.SSHConfig{
			Name:  strings.TrimSpace(a.SSHName),
			Hosts: a.SSHHosts,
		})
	}

	cfg.Providers.Local.Enabled = a.Local

	if err := config.Validate(cfg, config.SkipFileChecks()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeProxmoxHost turns "pve.lan" into "https://pve.lan:8006".
func normalizeProxmoxHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return host
	}
	if u.Port() == "" {
		u.Host += ":8006"
	}
	return strings.TrimRight(u.String(), "/")
}

func requiredField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// buildInitForm lays out the wizard. SSH aliases are offered when
// ~/.ssh/config has any.
func buildInitForm(a *initAnswers, aliases []sshutil.SSHHostEntry) *huh.Form {
	noProxmox := func() bool { return !a.UseProxmox }

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewInput().
				Title("Refresh rate").
				Description("How often every source is polled").
				Placeholder("5s").
				Value(&a.RefreshRate).
				Validate(func(s string) error {
					d, err := time.ParseDuration(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("not a duration (try 5s)")
					}
					if d < config.MinRefreshRate {
						return fmt.Errorf("must be at least %s", config.MinRefreshRate)
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Add a Proxmox VE cluster?").
				Value(&a.UseProxmox),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Source name").
				Value(&a.ProxmoxName).
				Validate(requiredField("source name")),
			huh.NewInput().
				Title("Proxmox host").
				Description("Hostname or URL; https and port 8006 are assumed").
				Placeholder("pve.lan").
				Value(&a.ProxmoxHost).
				Validate(requiredField("host")),
			huh.NewInput().
				Title("User").
				Value(&a.ProxmoxUser).
				Validate(requiredField("user")),
			huh.NewInput().
				Title("API token ID").
				Placeholder("pulse").
				Value(&a.ProxmoxTokenID).
				Validate(requiredField("token ID")),
			huh.NewInput().
				Title("API token secret").
				EchoMode(huh.EchoModePassword).
				Value(&a.ProxmoxSecret).
				Validate(requiredField("token secret")),
			huh.NewConfirm().
				Title("Skip TLS certificate verification?").
				Description("Only for self-signed clusters you trust. Prefer ca_file.").
				Value(&a.ProxmoxInsecure),
		).WithHideFunc(noProxmox),
	}

	if len(aliases) > 0 {
		options := make([]huh.Option[string], len(aliases))
		for i, h := range aliases {
			label := h.Alias
			if desc := h.Description(); desc != h.Alias {
				label += " (" + desc + ")"
			}
			options[i] = huh.NewOption(label, h.Alias)
		}
		groups = append(groups, huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("SSH hosts to monitor").
				Description("From ~/.ssh/config. Space to toggle, enter to continue.").
				Options(options...).
				Value(&a.SSHHosts),
		))
	}

	groups = append(groups, huh.NewGroup(
		huh.NewConfirm().
			Title("Monitor this machine too?").
			Value(&a.Local),
	))

	return huh.NewForm(groups...)
}

// initCommand runs the wizard and writes the result to path.
func initCommand(out io.Writer, path string, force bool) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New(errors.ErrConfig,
			"pulse init needs an interactive terminal",
			"Write "+config.ConfigFileName+" by hand instead")
	}

	if _, err := os.Stat(path); err == nil && !force {
		var overwrite bool
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("'%s' already exists. Overwrite?", path)).
				Value(&overwrite),
		))
		if err := confirm.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Run with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	aliases, err := sshutil.ParseSSHConfig()
	if err != nil {
		// A broken ssh config only costs us the host picker.
		fmt.Fprintf(out, "%s Couldn't read ~/.ssh/config: %v\n", ui.SymbolSkipped, err)
		aliases = nil
	}

	answers := defaultInitAnswers()
	if err := buildInitForm(&answers, aliases).Run(); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility")
	}

	cfg, err := answers.Config()
	if err != nil {
		return err
	}
	if err := config.Write(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Created %s with %d source(s)\n\n", ui.SymbolSuccess, path, cfg.SourceCount())
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  pulse check   - Poll every source once")
	fmt.Fprintln(out, "  pulse         - Open the dashboard")
	return nil
}
