// Package instrument installs tracers on a host component. Included wraps the
// app's tree slots, or decorates an addon's tree provider, and registers the
// driver's preprocess and postprocess hooks on the component.
package instrument

import (
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/treetracer/internal/logfields"
	"git.home.luguber.info/inful/treetracer/internal/metrics"
	"git.home.luguber.info/inful/treetracer/internal/project"
	"git.home.luguber.info/inful/treetracer/internal/trace"
	"git.home.luguber.info/inful/treetracer/internal/tree"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
)

var (
	// ErrAlreadyIncluded is returned when Included is called more than once.
	ErrAlreadyIncluded = errors.New("driver already included")
	// ErrNotResolved is returned by hooks invoked before Included.
	ErrNotResolved = errors.New("driver environment not resolved")
)

// State is the driver lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateEnvironmentResolved
	StateInstrumented
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateEnvironmentResolved:
		return "environment_resolved"
	case StateInstrumented:
		return "instrumented"
	default:
		return "unknown"
	}
}

// Resolver derives the naming environment of the component a driver is
// included into.
type Resolver func(*project.Component) project.Environment

// Option configures a Driver.
type Option func(*Driver)

// WithResolver replaces project.ResolveEnvironment.
func WithResolver(r Resolver) Option {
	return func(d *Driver) {
		if r != nil {
			d.resolve = r
		}
	}
}

// WithRecorder sets the metrics recorder passed to every tracer.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Driver) {
		if r != nil {
			d.recorder = r
		}
	}
}

// Driver instruments one component. It is not safe for concurrent use.
type Driver struct {
	sink     *trace.Sink
	resolve  Resolver
	recorder metrics.Recorder

	state   State
	env     project.Environment
	tracers []*trace.Tracer
}

// New returns an uninitialized driver writing records and notes to sink.
func New(sink *trace.Sink, opts ...Option) *Driver {
	d := &Driver{
		sink:     sink,
		resolve:  project.ResolveEnvironment,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the lifecycle state.
func (d *Driver) State() State { return d.state }

// Environment returns the resolved environment; ok is false before Included.
func (d *Driver) Environment() (env project.Environment, ok bool) {
	return d.env, d.state != StateUninitialized
}

// Tracers lists every tracer installed so far, in installation order.
func (d *Driver) Tracers() []*trace.Tracer {
	return append([]*trace.Tracer(nil), d.tracers...)
}

// Included resolves the environment of c and instruments it. App slots are
// wrapped in declaration order; absent slots are noted. An addon gets a
// decorated tree provider. In both cases the driver's hooks are registered.
func (d *Driver) Included(c *project.Component) error {
	if d.state != StateUninitialized {
		return ErrAlreadyIncluded
	}
	if c == nil {
		return ferrors.ValidationError("cannot include driver into a nil component").Build()
	}
	if d.sink == nil {
		return ferrors.ValidationError("driver has no trace sink").Build()
	}

	d.env = d.resolve(c)
	d.state = StateEnvironmentResolved

	if d.env.IsApp {
		for _, slot := range c.Slots() {
			identity := AppTreeIdentity(slot.Name)
			if slot.Tree == nil {
				if err := d.note(identity, "No tree for "+identity); err != nil {
					return err
				}
				continue
			}
			tr, err := d.wrap(slot.Tree, identity, AppTreeSuffix(slot.Name))
			if err != nil {
				return err
			}
			c.SetTree(slot.Name, tr)
		}
	} else {
		c.SetTreeProvider(d.TreeForProvider(c.TreeProvider()))
	}
	c.Use(d)

	d.state = StateInstrumented
	slog.Debug("Driver included",
		logfields.Component(c.Name),
		slog.Bool("is_app", d.env.IsApp),
		slog.String("module_prefix", d.env.ModulePrefix))
	return nil
}

// TreeForProvider decorates an addon's provider. A tree returned by orig is
// wrapped; a nil tree is noted and passed through.
func (d *Driver) TreeForProvider(orig project.TreeProvider) project.TreeProvider {
	return func(typ string) (tree.Node, error) {
		if d.state == StateUninitialized {
			return nil, ErrNotResolved
		}
		var real tree.Node
		if orig != nil {
			var err error
			if real, err = orig(typ); err != nil {
				return nil, err
			}
		}
		prefix := d.env.ModulePrefix
		identity := TreeForIdentity(prefix, typ)
		if real == nil {
			return nil, d.note(identity, "No tree for "+identity)
		}
		return d.wrap(real, identity, TreeForSuffix(prefix, typ))
	}
}

// PreprocessTree wraps a tree handed to the component's preprocess hook.
func (d *Driver) PreprocessTree(typ string, n tree.Node) (tree.Node, error) {
	return d.hook(hookPreprocess, typ, n)
}

// PostprocessTree wraps a tree handed to the component's postprocess hook.
func (d *Driver) PostprocessTree(typ string, n tree.Node) (tree.Node, error) {
	return d.hook(hookPostprocess, typ, n)
}

func (d *Driver) hook(kind, typ string, n tree.Node) (tree.Node, error) {
	if d.state == StateUninitialized {
		return nil, ErrNotResolved
	}
	scope := d.scope()
	identity := HookIdentity(scope, kind, typ)
	if n == nil {
		return nil, d.note(identity, "No tree given for "+identity+".")
	}
	return d.wrap(n, identity, HookSuffix(scope, kind, typ))
}

func (d *Driver) scope() string {
	if d.env.IsApp {
		return appScope
	}
	return d.env.ModulePrefix
}

func (d *Driver) wrap(n tree.Node, identity, suffix string) (tree.Node, error) {
	tr, err := trace.NewTracer(n, identity, suffix, d.sink, trace.WithRecorder(d.recorder))
	if err != nil {
		return nil, err
	}
	d.tracers = append(d.tracers, tr)
	slog.Debug("Installed tracer", logfields.Identity(identity), logfields.Suffix(suffix))
	return tr, nil
}

func (d *Driver) note(identity, text string) error {
	d.recorder.IncMissingTree(identity)
	slog.Debug("Missing tree", logfields.Identity(identity))
	return d.sink.Note(text)
}

// CheckDistinctSuffixes fails when two tracers installed by drivers share a
// suffix token. Renamed files of such tracers would overwrite each other in
// the merged output.
func CheckDistinctSuffixes(drivers ...*Driver) error {
	owners := map[string]string{}
	for _, d := range drivers {
		for _, tr := range d.tracers {
			if other, ok := owners[tr.Suffix()]; ok {
				return ferrors.ValidationError("suffix token shared by two wrap sites").
					WithContext("suffix", tr.Suffix()).
					WithContext("identity", tr.Identity()).
					WithContext("other", other).
					Build()
			}
			owners[tr.Suffix()] = tr.Identity()
		}
	}
	return nil
}
