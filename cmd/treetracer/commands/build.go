package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/treetracer/internal/logfields"
	"git.home.luguber.info/inful/treetracer/internal/metrics"
	"git.home.luguber.info/inful/treetracer/internal/pipeline"
	"git.home.luguber.info/inful/treetracer/internal/tree"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output        string `short:"o" help:"Directory the merged output is copied to" default:"dist" type:"path"`
	KeepWorkspace bool   `name:"keep-workspace" help:"Keep node outputs under .treetracer/ next to the project file"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return RunBuild(ctx, g, root, b.Output, b.KeepWorkspace)
}

// RunBuild performs one pass and publishes the merged output to outputDir.
func RunBuild(ctx context.Context, g *Global, root *CLI, outputDir string, keep bool) error {
	s, err := openSession(root, g.stdout(), sessionOptions{recorder: metrics.NoopRecorder{}})
	if err != nil {
		return err
	}

	ws, err := CreateWorkspace(s.Project.Dir, keep)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create workspace").Build()
	}
	defer CleanupWorkspace(ws)

	b, err := pipeline.NewBuilder(s.Root, ws)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "failed to order build graph").Build()
	}
	res, err := b.Build(ctx)
	if err != nil {
		return err
	}

	if err := publish(ctx, res, outputDir); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.stdout(), "Built %s into %s (%d nodes, %s)\n",
		s.Project.Name, outputDir, len(b.Nodes()), res.Total.Round(time.Millisecond))
	return nil
}

func publish(ctx context.Context, res *pipeline.Result, outputDir string) error {
	if err := tree.CopyDir(ctx, res.OutputDir, outputDir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to publish build output").
			WithContext("output", outputDir).
			Build()
	}
	slog.Info("Published build output", logfields.BuildID(res.BuildID), logfields.Path(outputDir))
	return nil
}
