package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/pulse/internal/collector"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/inventory"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/source"
	"github.com/rileyhilliard/pulse/internal/source/registry"
	"github.com/rileyhilliard/pulse/internal/ui"
	"github.com/rileyhilliard/pulse/internal/view"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats for check.
const (
	outputTable = "table"
	outputYAML  = "yaml"
)

var checkOutput string

// checkCmd collects once and prints the result.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Poll every source once and print what it reports",
	Long: `Run a single refresh cycle against every configured source and print the
merged inventory. Useful for verifying a new config and for scripts.

Exits non-zero when every source fails.

Examples:
  pulse check
  pulse check --output yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return checkCommand(cmd.Context(), cmd.OutOrStdout(), checkOutput)
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", outputTable, "output format: table or yaml")
}

func checkCommand(ctx context.Context, out io.Writer, format string) error {
	if format != outputTable && format != outputYAML {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown output format '%s'", format),
			"Use --output table or --output yaml")
	}

	cfg, path, err := loadConfig(cfgFile, overrides{debug: debugFlag})
	if err != nil {
		return err
	}

	level := "error"
	if debugFlag {
		level = "debug"
	}
	log := logger.NewConsole(level)
	log.Debug("using config %s", path)

	sources, err := registry.FromConfig(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close(sources) }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	coll := collector.New(sources,
		collector.WithTimeout(cfg.EffectiveFetchTimeout()),
		collector.WithLogger(log),
	)

	var spinner *ui.Spinner
	if format == outputTable && term.IsTerminal(int(os.Stderr.Fd())) {
		spinner = ui.NewSpinner(fmt.Sprintf("Polling %d source(s)", len(sources)), os.Stderr)
		spinner.Start()
	}

	snap, err := coll.Collect(ctx)

	if spinner != nil {
		if err != nil {
			spinner.Fail()
		} else {
			spinner.Success()
		}
	}
	if err != nil {
		return err
	}

	if format == outputYAML {
		return writeCheckYAML(out, snap)
	}
	return writeCheckTables(out, snap)
}

// writeCheckTables prints sources, hosts and workloads as three tables.
func writeCheckTables(out io.Writer, snap *inventory.Snapshot) error {
	var b strings.Builder

	b.WriteString(ui.RenderTable([]ui.TableColumn{
		{Title: "SOURCE", Width: 10},
		{Title: "STATUS", Width: 8},
		{Title: "HOSTS", Width: 5},
		{Title: "WORKLOADS", Width: 9},
		{Title: "TIME", Width: 6},
	}, sourceRows(snap)))
	b.WriteString("\n\n")

	hosts := view.Query{}.Hosts(snap)
	if len(hosts) == 0 {
		b.WriteString(ui.MutedStyle().Render("No hosts reported") + "\n")
	} else {
		b.WriteString(ui.RenderTable([]ui.TableColumn{
			{Title: "HOST", Width: 10},
			{Title: "SOURCE", Width: 8},
			{Title: "STATUS", Width: 7},
			{Title: "CPU", Width: 6},
			{Title: "MEMORY", Width: 16},
			{Title: "UPTIME", Width: 10},
		}, hostRows(hosts)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	workloads := view.Query{}.Workloads(snap)
	if len(workloads) == 0 {
		b.WriteString(ui.MutedStyle().Render("No workloads reported") + "\n")
	} else {
		b.WriteString(ui.RenderTable([]ui.TableColumn{
			{Title: "ID", Width: 5},
			{Title: "NAME", Width: 12},
			{Title: "TYPE", Width: 4},
			{Title: "HOST", Width: 10},
			{Title: "STATE", Width: 8},
			{Title: "CPU", Width: 6},
			{Title: "MEMORY", Width: 16},
		}, workloadRows(snap, workloads)))
		b.WriteString("\n")
	}

	sum := snap.Summary()
	fmt.Fprintf(&b, "\n%d/%d hosts online, %d/%d workloads running\n",
		sum.HostsOnline, sum.HostsTotal, sum.WorkloadsRunning, sum.WorkloadsTotal)

	_, err := io.WriteString(out, b.String())
	return err
}

func sourceRows(snap *inventory.Snapshot) [][]string {
	rows := make([][]string, 0, len(snap.Sources))
	for _, s := range snap.Sources {
		status := ui.SymbolSuccess + " ok"
		if !s.OK() {
			status = ui.SymbolFail + " " + errors.Message(s.Err)
		}
		rows = append(rows, []string{
			s.Name,
			status,
			strconv.Itoa(s.Hosts),
			strconv.Itoa(s.Workloads),
			s.Duration.Round(time.Millisecond).String(),
		})
	}
	return rows
}

func hostRows(hosts []inventory.Host) [][]string {
	rows := make([][]string, 0, len(hosts))
	for _, h := range hosts {
		rows = append(rows, []string{
			h.Name,
			h.Source,
			h.Status.String(),
			inventory.FormatPercent(h.CPU),
			inventory.FormatMemory(h.MemUsed, h.MemTotal),
			inventory.FormatUptime(h.Uptime),
		})
	}
	return rows
}

func workloadRows(snap *inventory.Snapshot, workloads []inventory.Workload) [][]string {
	rows := make([][]string, 0, len(workloads))
	for _, w := range workloads {
		rows = append(rows, []string{
			strconv.FormatUint(w.ID, 10),
			w.Name,
			w.Kind.String(),
			snap.HostLabel(w),
			w.StateLabel(),
			inventory.FormatPercent(w.CPU),
			inventory.FormatMemory(w.MemUsed, w.MemMax),
		})
	}
	return rows
}

// checkReport is the YAML form of a snapshot.
type checkReport struct {
	Taken     string           `yaml:"taken"`
	Sources   []sourceReport   `yaml:"sources"`
	Hosts     []hostReport     `yaml:"hosts"`
	Workloads []workloadReport `yaml:"workloads"`
}

type sourceReport struct {
	Name      string `yaml:"name"`
	OK        bool   `yaml:"ok"`
	Error     string `yaml:"error,omitempty"`
	Hosts     int    `yaml:"hosts"`
	Workloads int    `yaml:"workloads"`
	Duration  string `yaml:"duration"`
}

type hostReport struct {
	Name     string  `yaml:"name"`
	Source   string  `yaml:"source"`
	Status   string  `yaml:"status"`
	CPU      float64 `yaml:"cpu_percent"`
	MemUsed  uint64  `yaml:"mem_used_bytes"`
	MemTotal uint64  `yaml:"mem_total_bytes"`
	Uptime   uint64  `yaml:"uptime_seconds"`
}

type workloadReport struct {
	ID      uint64  `yaml:"id"`
	Name    string  `yaml:"name"`
	Kind    string  `yaml:"kind"`
	Host    string  `yaml:"host"`
	Source  string  `yaml:"source"`
	State   string  `yaml:"state"`
	CPU     float64 `yaml:"cpu_percent"`
	MemUsed uint64  `yaml:"mem_used_bytes"`
	MemMax  uint64  `yaml:"mem_max_bytes"`
	Uptime  uint64  `yaml:"uptime_seconds"`
}

func newCheckReport(snap *inventory.Snapshot) checkReport {
	r := checkReport{
		Taken:     snap.Taken.UTC().Format(time.RFC3339),
		Sources:   []sourceReport{},
		Hosts:     []hostReport{},
		Workloads: []workloadReport{},
	}
	for _, s := range snap.Sources {
		sr := sourceReport{
			Name:      s.Name,
			OK:        s.OK(),
			Hosts:     s.Hosts,
			Workloads: s.Workloads,
			Duration:  s.Duration.Round(time.Millisecond).String(),
		}
		if !s.OK() {
			sr.Error = errors.Message(s.Err)
		}
		r.Sources = append(r.Sources, sr)
	}
	for _, h := range (view.Query{}).Hosts(snap) {
		r.Hosts = append(r.Hosts, hostReport{
			Name:     h.Name,
			Source:   h.Source,
			Status:   h.Status.String(),
			CPU:      h.CPU,
			MemUsed:  h.MemUsed,
			MemTotal: h.MemTotal,
			Uptime:   h.Uptime,
		})
	}
	for _, w := range (view.Query{}).Workloads(snap) {
		r.Workloads = append(r.Workloads, workloadReport{
			ID:      w.ID,
			Name:    w.Name,
			Kind:    w.Kind.String(),
			Host:    snap.HostLabel(w),
			Source:  w.Source,
			State:   w.StateLabel(),
			CPU:     w.CPU,
			MemUsed: w.MemUsed,
			MemMax:  w.MemMax,
			Uptime:  w.Uptime,
		})
	}
	return r
}

func writeCheckYAML(out io.Writer, snap *inventory.Snapshot) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(newCheckReport(snap)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
