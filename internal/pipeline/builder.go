// Package pipeline runs a tree.Node graph: it orders the nodes so inputs build
// before their consumers, gives every node its own output directory inside a
// workspace, and builds them in sequence.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/treetracer/internal/logfields"
	"git.home.luguber.info/inful/treetracer/internal/metrics"
	"git.home.luguber.info/inful/treetracer/internal/observability"
	"git.home.luguber.info/inful/treetracer/internal/tree"
	"git.home.luguber.info/inful/treetracer/internal/workspace"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
)

// StageDuration is the wall time one node took during a pass.
type StageDuration struct {
	Stage    string
	Duration time.Duration
}

// Result summarizes one build pass.
type Result struct {
	BuildID   string
	Durations []StageDuration
	Total     time.Duration
	// OutputDir is the root node's output; empty when the pass did not finish.
	OutputDir string
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder (NoopRecorder by default).
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// Builder builds the graph below a root node. It is not safe for concurrent use;
// callers serialize passes.
type Builder struct {
	root     tree.Node
	ws       *workspace.Manager
	recorder metrics.Recorder
	order    []tree.Node
	ready    bool
}

// NewBuilder orders the graph below root. ws must already be created; output
// directories are assigned on the first Build.
func NewBuilder(root tree.Node, ws *workspace.Manager, opts ...Option) (*Builder, error) {
	if root == nil {
		return nil, ferrors.ValidationError("pipeline root node is nil").Build()
	}
	if ws == nil {
		return nil, ferrors.ValidationError("pipeline workspace is nil").Build()
	}
	order, err := topologicalSort(root)
	if err != nil {
		return nil, err
	}
	b := &Builder{root: root, ws: ws, recorder: metrics.NoopRecorder{}, order: order}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Nodes returns the nodes in build order.
func (b *Builder) Nodes() []tree.Node {
	out := make([]tree.Node, len(b.order))
	copy(out, b.order)
	return out
}

func (b *Builder) setup() error {
	if b.ready {
		return nil
	}
	for i, n := range b.order {
		dir, err := b.ws.CreateSubdir(fmt.Sprintf("%03d-%s", i, slug(n.Annotation())))
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to prepare node output directory").
				WithContext("node", n.Annotation()).
				Build()
		}
		n.Setup(dir)
	}
	b.ready = true
	return nil
}

// Build runs one pass. Nodes build in order; cancellation is checked before
// each node and the first node error ends the pass and is returned as-is.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	res := &Result{BuildID: observability.NewBuildID()}
	ctx = observability.WithBuildID(ctx, res.BuildID)
	start := time.Now()

	finish := func(outcome metrics.BuildOutcome) {
		res.Total = time.Since(start)
		b.recorder.ObserveBuildDuration(res.Total)
		b.recorder.IncBuildOutcome(outcome)
	}

	if err := b.setup(); err != nil {
		finish(metrics.OutcomeFailed)
		return res, err
	}

	observability.InfoContext(ctx, "Build pass started", logfields.Nodes(len(b.order)))
	for _, n := range b.order {
		if err := ctx.Err(); err != nil {
			finish(metrics.OutcomeCanceled)
			observability.WarnContext(ctx, "Build pass canceled", logfields.Error(err))
			return res, err
		}

		stageCtx := observability.WithStage(ctx, n.Annotation())
		t0 := time.Now()
		err := n.Build(stageCtx)
		dur := time.Since(t0)
		res.Durations = append(res.Durations, StageDuration{Stage: n.Annotation(), Duration: dur})
		b.recorder.ObserveStageDuration(n.Annotation(), dur)

		if err != nil {
			finish(metrics.OutcomeFailed)
			observability.ErrorContext(stageCtx, "Node build failed", logfields.Error(err))
			return res, err
		}
		observability.DebugContext(stageCtx, "Node built", logfields.DurationMS(float64(dur.Microseconds())/1000))
	}

	res.OutputDir = b.root.OutputDir()
	finish(metrics.OutcomeSuccess)
	observability.InfoContext(ctx, "Build pass completed",
		logfields.Nodes(len(b.order)),
		logfields.DurationMS(float64(res.Total.Microseconds())/1000),
		logfields.Path(res.OutputDir))
	return res, nil
}

// slug turns an annotation into a short directory-safe name.
func slug(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
		if sb.Len() >= 40 {
			break
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
