package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/treetracer/internal/config"
	"git.home.luguber.info/inful/treetracer/internal/instrument"
	"git.home.luguber.info/inful/treetracer/internal/logfields"
	"git.home.luguber.info/inful/treetracer/internal/metrics"
	"git.home.luguber.info/inful/treetracer/internal/observability"
	"git.home.luguber.info/inful/treetracer/internal/project"
	"git.home.luguber.info/inful/treetracer/internal/trace"
	"git.home.luguber.info/inful/treetracer/internal/tree"
	"git.home.luguber.info/inful/treetracer/internal/workspace"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Stdout receives user-facing output and console trace records.
	Stdout io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Project   string           `short:"p" help:"Project definition file" default:"treetracer.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format (text|json)" default:"text" enum:"text,json"`
	TraceFile string           `name:"trace-file" help:"Append trace records to this file instead of stdout (overrides TREETRACER_FILE)"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Run one traced build pass and publish the output"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild on source changes and on a schedule"`
	Inspect InspectCmd `cmd:"" help:"List the wrap sites the tracer installs, without building"`
}

// AfterApply runs after flag parsing: loads .env files next to the project
// definition, then sets up logging once.
func (c *CLI) AfterApply() error {
	if _, err := config.LoadEnvFiles(filepath.Dir(c.Project)); err != nil {
		return err
	}
	logger := observability.NewLogger(os.Stderr,
		config.ResolveLogLevel(c.Verbose),
		config.NormalizeLogFormat(c.LogFormat))
	slog.SetDefault(logger)
	return nil
}

// Session is a loaded, instrumented and assembled project.
type Session struct {
	Project *config.Project
	App     *project.Component
	Drivers []*instrument.Driver
	Sink    *trace.Sink
	Root    tree.Node
}

type sessionOptions struct {
	// console forces trace output to the console stream.
	console  bool
	recorder metrics.Recorder
}

// openSession loads the project, installs a driver on every traced component
// and assembles the build graph.
func openSession(root *CLI, stdout io.Writer, opts sessionOptions) (*Session, error) {
	p, err := config.Load(root.Project)
	if err != nil {
		return nil, err
	}

	traceCfg := config.ResolveTraceConfig(root.TraceFile, p)
	if opts.console {
		traceCfg = config.TraceConfig{}
	}
	sink := trace.NewSink(traceCfg, stdout)

	app, err := project.FromConfig(p)
	if err != nil {
		return nil, err
	}

	s := &Session{Project: p, App: app, Sink: sink}
	err = app.Walk(func(c *project.Component) error {
		if !c.Traced {
			return nil
		}
		d := instrument.New(sink, instrument.WithRecorder(opts.recorder))
		if err := d.Included(c); err != nil {
			return err
		}
		s.Drivers = append(s.Drivers, d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Root, err = project.Assemble(app); err != nil {
		return nil, err
	}
	if err := instrument.CheckDistinctSuffixes(s.Drivers...); err != nil {
		return nil, err
	}
	slog.Debug("Project loaded",
		slog.String("project", p.Name),
		slog.Int("drivers", len(s.Drivers)),
		slog.Bool("console_trace", traceCfg.UseConsole()))
	return s, nil
}

// SourceDirs lists the distinct directories read by the graph's sources.
func SourceDirs(nodes []tree.Node) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, n := range nodes {
		if src, ok := n.(*tree.Source); ok && !seen[src.OutputDir()] {
			seen[src.OutputDir()] = true
			dirs = append(dirs, src.OutputDir())
		}
	}
	return dirs
}

// CreateWorkspace returns a created workspace manager. keep selects a
// persistent directory next to the project definition.
func CreateWorkspace(projectDir string, keep bool) (*workspace.Manager, error) {
	var ws *workspace.Manager
	if keep {
		ws = workspace.NewPersistentManager(projectDir, ".treetracer")
	} else {
		ws = workspace.NewManager("")
	}
	if err := ws.Create(); err != nil {
		return nil, err
	}
	return ws, nil
}

// CleanupWorkspace removes a workspace, logging failures.
func CleanupWorkspace(ws *workspace.Manager) {
	if err := ws.Cleanup(); err != nil {
		slog.Warn("Failed to cleanup workspace", logfields.Error(err))
	}
}
