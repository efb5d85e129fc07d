package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/treetracer/internal/daemon"
	"git.home.luguber.info/inful/treetracer/internal/metrics"
	"git.home.luguber.info/inful/treetracer/internal/pipeline"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output      string        `short:"o" help:"Directory the merged output is copied to after every pass" default:"dist" type:"path"`
	Every       time.Duration `help:"Also rebuild on this interval (0 disables)" default:"0s"`
	Debounce    time.Duration `help:"Quiet period after a source change before rebuilding" default:"300ms"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9090)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return w.run(ctx, g, root)
}

func (w *WatchCmd) run(ctx context.Context, g *Global, root *CLI) error {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	s, err := openSession(root, g.stdout(), sessionOptions{recorder: rec})
	if err != nil {
		return err
	}

	ws, err := CreateWorkspace(s.Project.Dir, false)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create workspace").Build()
	}
	defer CleanupWorkspace(ws)

	b, err := pipeline.NewBuilder(s.Root, ws, pipeline.WithRecorder(rec))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "failed to order build graph").Build()
	}

	exclude, err := absPaths(s.Sink.File(), w.Output, ws.GetPath())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to resolve watch exclusions").Build()
	}

	d, err := daemon.New(daemon.Config{
		Roots:       SourceDirs(b.Nodes()),
		IgnoreRoot:  s.Project.Dir,
		Exclude:     exclude,
		Debounce:    w.Debounce,
		Every:       w.Every,
		MetricsAddr: w.MetricsAddr,
		Registry:    reg,
	}, func(ctx context.Context, _ string) error {
		res, err := b.Build(ctx)
		if err != nil {
			return err
		}
		return publish(ctx, res, w.Output)
	})
	if err != nil {
		return err
	}
	return d.Run(ctx)
}

// absPaths resolves the non-empty paths against the working directory, the
// way the sink and publish step open them.
func absPaths(paths ...string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}
