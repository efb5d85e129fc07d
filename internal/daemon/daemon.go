// Package daemon keeps a build graph up to date: it runs a pass at startup,
// then on debounced source changes and on an optional fixed interval. Passes
// run one at a time on the Run goroutine; triggers that arrive while a pass is
// running collapse into a single follow-up pass.
package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/treetracer/internal/logfields"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
)

// Trigger reasons.
const (
	TriggerStartup  = "startup"
	TriggerChange   = "change"
	TriggerSchedule = "schedule"
)

// BuildFunc runs one pass.
type BuildFunc func(ctx context.Context, trigger string) error

// Config configures a Daemon.
type Config struct {
	// Roots are watched recursively for changes. Empty disables watching.
	Roots []string
	// IgnoreRoot holds the .gitignore applied to watch events.
	IgnoreRoot string
	// Exclude lists paths the passes themselves write to (trace file, output
	// directory). Events under them never trigger a pass.
	Exclude  []string
	Debounce time.Duration
	// Every schedules a periodic pass; zero disables it.
	Every time.Duration
	// MetricsAddr serves Registry at /metrics when both are set.
	MetricsAddr string
	Registry    *prom.Registry
}

// Daemon runs build passes until its context ends.
type Daemon struct {
	cfg      Config
	build    BuildFunc
	triggers chan string
	passes   atomic.Int64
	failures atomic.Int64
}

// New returns a daemon calling build for every pass.
func New(cfg Config, build BuildFunc) (*Daemon, error) {
	if build == nil {
		return nil, ferrors.ValidationError("build function is required").Build()
	}
	if cfg.Every < 0 {
		return nil, ferrors.ValidationError("rebuild interval must not be negative").Build()
	}
	return &Daemon{cfg: cfg, build: build, triggers: make(chan string, 1)}, nil
}

// Trigger requests a pass. It never blocks; a request made while another is
// pending is dropped.
func (d *Daemon) Trigger(reason string) {
	select {
	case d.triggers <- reason:
	default:
		slog.Debug("Build already pending", logfields.Trigger(reason))
	}
}

// Passes returns the number of passes run so far.
func (d *Daemon) Passes() int64 { return d.passes.Load() }

// Failures returns the number of passes that returned an error.
func (d *Daemon) Failures() int64 { return d.failures.Load() }

// Run performs the startup pass, starts the configured triggers and serves
// passes until ctx is done. A failed pass is logged and does not stop the loop.
func (d *Daemon) Run(ctx context.Context) error {
	d.runPass(ctx, TriggerStartup)

	if len(d.cfg.Roots) > 0 {
		ignore, err := LoadIgnore(d.cfg.IgnoreRoot)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read .gitignore").
				WithContext("path", d.cfg.IgnoreRoot).
				Build()
		}
		ignore.Exclude(d.cfg.Exclude...)
		sw, err := NewSourceWatcher(d.cfg.Roots, ignore, d.cfg.Debounce, func(string) {
			d.Trigger(TriggerChange)
		})
		if err != nil {
			return err
		}
		if err := sw.Start(ctx); err != nil {
			_ = sw.Stop()
			return err
		}
		defer func() {
			if err := sw.Stop(); err != nil {
				slog.Warn("Failed to stop source watcher", logfields.Error(err))
			}
		}()
	}

	if d.cfg.Every > 0 {
		s, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := s.SchedulePeriodicBuild(d.cfg.Every, func() { d.Trigger(TriggerSchedule) }); err != nil {
			return err
		}
		s.Start()
		defer func() {
			if err := s.Stop(); err != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	if d.cfg.MetricsAddr != "" && d.cfg.Registry != nil {
		ms, err := NewMetricsServer(d.cfg.MetricsAddr, d.cfg.Registry)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to start metrics server").
				WithContext("addr", d.cfg.MetricsAddr).
				Build()
		}
		go func() { _ = ms.Serve() }()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Shutdown(shutdownCtx)
		}()
	}

	slog.Info("Watching for changes", slog.Int("roots", len(d.cfg.Roots)), slog.Duration("every", d.cfg.Every))
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutdown signal received, stopping watch")
			return nil
		case reason := <-d.triggers:
			d.runPass(ctx, reason)
		}
	}
}

func (d *Daemon) runPass(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	d.passes.Add(1)
	start := time.Now()
	if err := d.build(ctx, reason); err != nil {
		d.failures.Add(1)
		slog.Error("Build pass failed", logfields.Trigger(reason), logfields.Error(err))
		return
	}
	slog.Info("Build pass finished", logfields.Trigger(reason),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
}
