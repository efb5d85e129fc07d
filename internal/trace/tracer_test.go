package trace

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/treetracer/internal/config"
	"git.home.luguber.info/inful/treetracer/internal/metrics"
	"git.home.luguber.info/inful/treetracer/internal/tree"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
	helpers "git.home.luguber.info/inful/treetracer/internal/testutil/testutils"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func fileSink(t *testing.T) (*Sink, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.log")
	return NewSink(config.TraceConfig{File: path}, nil), path
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	// #nosec G304 - test file under t.TempDir
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func newTracer(t *testing.T, files map[string]string, identity, suffix string, sink *Sink, opts ...TracerOption) *Tracer {
	t.Helper()
	dir := t.TempDir()
	helpers.WriteTree(t, dir, files)
	tr, err := NewTracer(tree.NewSource(dir), identity, suffix, sink, opts...)
	require.NoError(t, err)
	tr.Setup(t.TempDir())
	return tr
}

func TestDestinationPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"hbs", "templates/application.hbs", "templates/application--app_trees_app.hbs"},
		{"block css", "styles/nav.block.css", "styles/nav--app_trees_app.block.css"},
		{"plain css", "styles/app.css", "styles/app.css"},
		{"javascript", "app.js", "app.js"},
		{"directory containing hbs", "foo.hbs/bar.js", "foo.hbs/bar.js"},
		{"directory containing block css", "x.block.css/y.txt", "x.block.css/y.txt"},
		{"extension after hbs", "x.hbs.map", "x.hbs.map"},
		{"case sensitive", "X.HBS", "X.HBS"},
		{"bare extension", ".hbs", "--app_trees_app.hbs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracer(t, nil, "app.trees['app']", "app_trees_app", NewSink(config.TraceConfig{}, &bytes.Buffer{}))
			assert.Equal(t, tt.want, tr.DestinationPath(tt.in))
			assert.Equal(t, []string{tt.in}, tr.Discovered())
		})
	}
}

func TestDestinationPath_RecordsInCallOrder(t *testing.T) {
	tr := newTracer(t, nil, "id", "s", NewSink(config.TraceConfig{}, &bytes.Buffer{}))
	tr.DestinationPath("b.hbs")
	tr.DestinationPath("a.js")
	tr.DestinationPath("b.hbs")
	assert.Equal(t, []string{"b.hbs", "a.js", "b.hbs"}, tr.Discovered())
}

func TestNewTracer_NoTree(t *testing.T) {
	_, err := NewTracer(nil, "id", "s", NewSink(config.TraceConfig{}, nil))
	require.ErrorIs(t, err, ErrNoTree)

	_, err = NewTracer(tree.NewSource(t.TempDir()), "id", "s", nil)
	require.Error(t, err)
}

func TestTracer_Node(t *testing.T) {
	dir := t.TempDir()
	src := tree.NewSource(dir)
	tr, err := NewTracer(src, "app.trees['app']", "app_trees_app", NewSink(config.TraceConfig{}, nil))
	require.NoError(t, err)

	assert.Equal(t, "tracer: app.trees['app']", tr.Annotation())
	assert.Equal(t, []tree.Node{src}, tr.Inputs())
	assert.Same(t, src, tr.Wrapped())
	assert.Equal(t, "app.trees['app']", tr.Identity())
	assert.Equal(t, "app_trees_app", tr.Suffix())
}

func TestTracer_Build_AppTrees(t *testing.T) {
	sink, path := fileSink(t)
	tr := newTracer(t, map[string]string{
		"my-app/app.js":               "js",
		"my-app/templates/index.hbs":  "<h1/>",
		"my-app/styles/nav.block.css": ".nav{}",
	}, "app.trees['app']", "app_trees_app", sink)

	require.NoError(t, tr.Build(context.Background()))

	assert.Equal(t, map[string]string{
		"my-app/app.js":                              "js",
		"my-app/templates/index--app_trees_app.hbs":  "<h1/>",
		"my-app/styles/nav--app_trees_app.block.css": ".nav{}",
	}, helpers.ReadTree(t, tr.OutputDir()))
	assert.Empty(t, tr.Discovered())

	newGolden(t).Assert(t, "app_trees_app", readFile(t, path))
}

func TestTracer_Build_Empty(t *testing.T) {
	sink, path := fileSink(t)
	tr := newTracer(t, nil, "my-addon.treeFor('vendor')", "my-addon_treefor_vendor", sink)

	require.NoError(t, tr.Build(context.Background()))
	newGolden(t).Assert(t, "empty_record", readFile(t, path))
}

func TestTracer_Build_SharedFile(t *testing.T) {
	sink, path := fileSink(t)
	first := newTracer(t, map[string]string{"a.hbs": "a"}, "app.preprocessTree('template')", "app_preprocesstree_template", sink)
	second := newTracer(t, nil, "app.postprocessTree('template')", "app_postprocesstree_template", NewSink(config.TraceConfig{File: path}, nil))

	require.NoError(t, first.Build(context.Background()))
	require.NoError(t, sink.Note("No tree given for app.preprocessTree('css')."))
	require.NoError(t, second.Build(context.Background()))

	newGolden(t).Assert(t, "shared_file", readFile(t, path))
}

func TestTracer_Build_ResetsBetweenPasses(t *testing.T) {
	var out bytes.Buffer
	tr := newTracer(t, map[string]string{"x.hbs": "x"}, "id", "s", NewSink(config.TraceConfig{}, &out))

	require.NoError(t, tr.Build(context.Background()))
	require.NoError(t, tr.Build(context.Background()))

	record := "Tree: id\n\tx.hbs\n\n"
	assert.Equal(t, record+record, out.String())
}

func TestTracer_Build_ErrorReturnedUnchanged(t *testing.T) {
	var out bytes.Buffer
	tr := newTracer(t, map[string]string{"x.hbs": "x"}, "id", "s", NewSink(config.TraceConfig{}, &out))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tr.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
	assert.Empty(t, out.String())
	assert.Empty(t, tr.Discovered())
}

func TestTracer_Build_SinkFailure(t *testing.T) {
	sink := NewSink(config.TraceConfig{File: filepath.Join(t.TempDir(), "missing", "trace.log")}, nil)
	tr := newTracer(t, map[string]string{"x.hbs": "x"}, "id", "s", sink)

	err := tr.Build(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
	assert.Empty(t, tr.Discovered())
}

type traceRecorder struct {
	metrics.NoopRecorder
	records    int
	emptyCount int
	files      int
	renamed    map[string]int
}

func (r *traceRecorder) IncTraceRecord(_ string, empty bool) {
	r.records++
	if empty {
		r.emptyCount++
	}
}
func (r *traceRecorder) AddDiscoveredFiles(_ string, n int) { r.files += n }
func (r *traceRecorder) IncRenamedFile(_, kind string)      { r.renamed[kind]++ }

func TestTracer_Build_Metrics(t *testing.T) {
	rec := &traceRecorder{renamed: map[string]int{}}
	tr := newTracer(t, map[string]string{
		"a.hbs":       "a",
		"b.block.css": "b",
		"c.js":        "c",
	}, "id", "s", NewSink(config.TraceConfig{}, &bytes.Buffer{}), WithRecorder(rec))

	require.NoError(t, tr.Build(context.Background()))
	assert.Equal(t, 1, rec.records)
	assert.Equal(t, 0, rec.emptyCount)
	assert.Equal(t, 3, rec.files)
	assert.Equal(t, map[string]int{"hbs": 1, "block.css": 1}, rec.renamed)
}
