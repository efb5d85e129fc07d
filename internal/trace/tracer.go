// Package trace implements the relabeling proxy placed around a build stage
// and the sink its records are written to.
//
// A Tracer is itself a tree.Node. It re-roots every file of the stage it wraps
// into its own output, recording each relative path and renaming .block.css
// and .hbs files with the stage's suffix token so that the same file name
// coming out of two stages can never collide downstream.
package trace

import (
	"context"
	"errors"
	"strings"

	"git.home.luguber.info/inful/treetracer/internal/logfields"
	"git.home.luguber.info/inful/treetracer/internal/metrics"
	"git.home.luguber.info/inful/treetracer/internal/observability"
	"git.home.luguber.info/inful/treetracer/internal/tree"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
)

// ErrNoTree is returned by NewTracer when there is no stage to wrap.
var ErrNoTree = errors.New("no tree to trace")

// Separator joins a base name and the suffix token.
const Separator = "--"

// Renamed extensions, checked in order. .block.css comes first since it is
// not a plain CSS rename.
var renamedExts = []string{".block.css", ".hbs"}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithRecorder sets the metrics recorder (NoopRecorder by default).
func WithRecorder(r metrics.Recorder) TracerOption {
	return func(t *Tracer) {
		if r != nil {
			t.recorder = r
		}
	}
}

// Tracer wraps exactly one stage for its whole lifetime.
type Tracer struct {
	wrapped    tree.Node
	identity   string
	suffix     string
	sink       *Sink
	recorder   metrics.Recorder
	funnel     *tree.Funnel
	discovered []string
}

// NewTracer wraps a stage. identity labels its records; suffix is inserted
// into renamed file names.
func NewTracer(wrapped tree.Node, identity, suffix string, sink *Sink, opts ...TracerOption) (*Tracer, error) {
	if wrapped == nil {
		return nil, ErrNoTree
	}
	if sink == nil {
		return nil, ferrors.ValidationError("tracer needs a sink").WithContext("identity", identity).Build()
	}
	t := &Tracer{
		wrapped:  wrapped,
		identity: identity,
		suffix:   suffix,
		sink:     sink,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.funnel = tree.NewFunnel(wrapped, tree.FunnelOptions{
		DestinationPath: t.DestinationPath,
		Annotation:      t.Annotation(),
	})
	return t, nil
}

func (t *Tracer) Identity() string       { return t.identity }
func (t *Tracer) Suffix() string         { return t.suffix }
func (t *Tracer) Wrapped() tree.Node     { return t.wrapped }
func (t *Tracer) Annotation() string     { return "tracer: " + t.identity }
func (t *Tracer) Inputs() []tree.Node    { return t.funnel.Inputs() }
func (t *Tracer) Setup(outputDir string) { t.funnel.Setup(outputDir) }
func (t *Tracer) OutputDir() string      { return t.funnel.OutputDir() }

// Discovered returns a copy of the paths recorded so far in the current pass.
func (t *Tracer) Discovered() []string {
	out := make([]string, len(t.discovered))
	copy(out, t.discovered)
	return out
}

// DestinationPath records rel and returns the path the file is written under.
func (t *Tracer) DestinationPath(rel string) string {
	t.discovered = append(t.discovered, rel)
	for _, ext := range renamedExts {
		if strings.HasSuffix(rel, ext) {
			t.recorder.IncRenamedFile(t.identity, strings.TrimPrefix(ext, "."))
			return strings.TrimSuffix(rel, ext) + Separator + t.suffix + ext
		}
	}
	return rel
}

// Build re-roots the wrapped stage's output and emits one record. Errors from
// the copy are returned as they are; the discovered list is cleared either way.
func (t *Tracer) Build(ctx context.Context) error {
	defer func() { t.discovered = nil }()

	if err := t.funnel.Build(ctx); err != nil {
		return err
	}

	rec := Record{Identity: t.identity, Files: t.Discovered()}
	if err := t.sink.EmitRecord(rec); err != nil {
		return err
	}
	t.recorder.IncTraceRecord(t.identity, rec.Empty())
	t.recorder.AddDiscoveredFiles(t.identity, len(rec.Files))
	observability.DebugContext(ctx, "Trace record emitted",
		logfields.Identity(t.identity),
		logfields.Suffix(t.suffix),
		logfields.Files(len(rec.Files)))
	return nil
}
