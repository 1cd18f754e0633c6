package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/pulse/internal/collector"
	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/monitor"
	"github.com/rileyhilliard/pulse/internal/scheduler"
	"github.com/rileyhilliard/pulse/internal/source"
	"github.com/rileyhilliard/pulse/internal/source/registry"
	"github.com/rileyhilliard/pulse/internal/ui"
	"github.com/rileyhilliard/pulse/internal/view"
)

// dashboard is everything the TUI needs, wired but not yet running.
type dashboard struct {
	sources []source.DataSource
	state   *view.State
	sched   *scheduler.Scheduler
	model   monitor.Model
}

// buildDashboard wires sources, collector, view state and scheduler.
// send receives every finished cycle so the program repaints.
func buildDashboard(cfg *config.Config, log logger.Logger, send func(tea.Msg)) (*dashboard, error) {
	sources, err := registry.FromConfig(cfg, log)
	if err != nil {
		return nil, err
	}

	coll := collector.New(sources,
		collector.WithTimeout(cfg.EffectiveFetchTimeout()),
		collector.WithLogger(log),
	)
	state := view.New()
	sched := scheduler.New(coll, state, cfg.General.RefreshRate,
		scheduler.WithLogger(log),
		scheduler.WithOnCycle(func(c scheduler.Cycle) { send(c) }),
	)
	state.SetTrigger(sched.TriggerRefresh)

	model := monitor.NewModel(state,
		monitor.WithThresholds(thresholdsFromConfig(cfg)),
		monitor.WithRefreshing(monitor.RefreshingFunc(sched.State)),
	)

	return &dashboard{sources: sources, state: state, sched: sched, model: model}, nil
}

// thresholdsFromConfig converts the configured percentages for rendering.
func thresholdsFromConfig(cfg *config.Config) monitor.Thresholds {
	convert := func(v config.ThresholdValues) ui.Thresholds {
		return ui.Thresholds{Warning: float64(v.Warning), Critical: float64(v.Critical)}
	}
	return monitor.Thresholds{
		CPU:    convert(cfg.Thresholds.CPU),
		Memory: convert(cfg.Thresholds.Memory),
	}
}

// dashboardCommand runs the TUI until the user quits or the process is
// signalled, then waits for the in-flight cycle and closes every source.
func dashboardCommand(ctx context.Context) error {
	cfg, path, err := loadConfig(cfgFile, currentOverrides())
	if err != nil {
		return err
	}

	log, closeLog, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	logger.SetDefault(log)
	log.Info("loaded %s: %d source(s), refresh every %s", path, cfg.SourceCount(), cfg.General.RefreshRate)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var p *tea.Program
	d, err := buildDashboard(cfg, log, func(msg tea.Msg) { p.Send(msg) })
	if err != nil {
		return err
	}
	p = tea.NewProgram(d.model, tea.WithAltScreen(), tea.WithContext(ctx))

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.sched.Run(ctx)
	}()

	_, runErr := p.Run()
	cancel()
	<-done

	if err := source.Close(d.sources); err != nil {
		log.Warn("closing sources: %v", err)
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard: %w", runErr)
	}
	log.Info("pulse exited after %d cycles", d.sched.Cycles())
	return nil
}
