package project

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/treetracer/internal/config"
	"git.home.luguber.info/inful/treetracer/internal/pipeline"
	"git.home.luguber.info/inful/treetracer/internal/tree"
	"git.home.luguber.info/inful/treetracer/internal/workspace"

	helpers "git.home.luguber.info/inful/treetracer/internal/testutil/testutils"
)

const projectYAML = `
name: my-app
module_prefix: my-app
trees:
  app: app
  styles: {path: app/styles, dest: my-app/styles}
  vendor: ~
addons:
  - name: ember-widgets
    root: addons/widgets
    traced: true
    tree_for:
      addon: addon
      vendor:
    addons:
      - name: nested
        module_name: "@scope/nested"
        tree_for:
          templates: templates
`

func loadProject(t *testing.T) (*Component, string) {
	t.Helper()
	p, err := config.Parse([]byte(projectYAML))
	require.NoError(t, err)
	p.Dir = t.TempDir()
	app, err := FromConfig(p)
	require.NoError(t, err)
	return app, p.Dir
}

func TestFromConfig(t *testing.T) {
	app, dir := loadProject(t)

	assert.True(t, app.IsApp())
	assert.True(t, app.Traced)
	assert.Equal(t, dir, app.ProjectRoot)

	slots := app.Slots()
	require.Len(t, slots, 3)
	assert.Equal(t, []string{"app", "styles", "vendor"}, []string{slots[0].Name, slots[1].Name, slots[2].Name})
	assert.Equal(t, "source: "+filepath.Join(dir, "app"), slots[0].Tree.Annotation())
	assert.Equal(t, "my-app/styles", slots[1].Dest)
	assert.Nil(t, slots[2].Tree)

	require.Len(t, app.Children, 1)
	widgets := app.Children[0]
	assert.False(t, widgets.IsApp())
	assert.True(t, widgets.Traced)
	assert.Same(t, app, widgets.App())
	assert.Equal(t, filepath.Join(dir, "addons/widgets"), widgets.Root)
	assert.Equal(t, []string{"addon", "vendor"}, widgets.TreeTypes())

	n, err := widgets.TreeFor("addon")
	require.NoError(t, err)
	assert.Equal(t, "source: "+filepath.Join(dir, "addons/widgets", "addon"), n.Annotation())
	n, err = widgets.TreeFor("vendor")
	require.NoError(t, err)
	assert.Nil(t, n)
	n, err = widgets.TreeFor("public")
	require.NoError(t, err)
	assert.Nil(t, n)

	require.Len(t, widgets.Children, 1)
	nested := widgets.Children[0]
	assert.False(t, nested.Traced)
	assert.Same(t, app, nested.App())
}

func TestResolveEnvironment(t *testing.T) {
	tests := []struct {
		name string
		c    Component
		want string
	}{
		{"module name wins", Component{Name: "n", ModuleName: "mn", ModulePrefix: "mp", Config: map[string]any{"modulePrefix": "cp"}}, "mn"},
		{"module prefix", Component{Name: "n", ModulePrefix: "mp", Config: map[string]any{"modulePrefix": "cp"}}, "mp"},
		{"config prefix", Component{Name: "n", Config: map[string]any{"modulePrefix": "cp"}}, "cp"},
		{"non-string config ignored", Component{Name: "n", Config: map[string]any{"modulePrefix": 3}}, "n"},
		{"name", Component{Name: "n"}, "n"},
		{"nothing", Component{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.c
			assert.Equal(t, tt.want, ResolveEnvironment(&c).ModulePrefix)
		})
	}

	app := NewApp("my-app")
	app.ProjectRoot = "/project"
	addon := app.AddAddon("addon", nil)

	env := ResolveEnvironment(addon)
	assert.False(t, env.IsApp)
	assert.Same(t, app, env.App)
	assert.Equal(t, "/project", env.RootDir)

	addon.Root = "/project/tests/dummy"
	assert.Equal(t, "/project/tests/dummy", ResolveEnvironment(addon).RootDir)
	assert.True(t, ResolveEnvironment(app).IsApp)
}

func TestComponent_SetTree(t *testing.T) {
	app := NewApp("my-app")
	src := tree.NewSource("/x")
	app.AddSlot("app", "", nil)

	assert.True(t, app.SetTree("app", src))
	assert.False(t, app.SetTree("missing", src))
	assert.Same(t, src, app.Slots()[0].Tree)
	assert.Equal(t, "app", app.Slots()[0].Dest)
}

// recordingHooks logs every hook call and passes trees through.
type recordingHooks struct {
	calls []string
}

func (h *recordingHooks) PreprocessTree(typ string, n tree.Node) (tree.Node, error) {
	h.calls = append(h.calls, "pre:"+typ+":"+present(n))
	return n, nil
}

func (h *recordingHooks) PostprocessTree(typ string, n tree.Node) (tree.Node, error) {
	h.calls = append(h.calls, "post:"+typ+":"+present(n))
	return n, nil
}

func present(n tree.Node) string {
	if n == nil {
		return "nil"
	}
	return "tree"
}

func TestAssemble(t *testing.T) {
	app, dir := loadProject(t)
	helpers.WriteTree(t, dir, map[string]string{
		"app/app.js":                "app",
		"app/styles/app.css":        "css",
		"addons/widgets/addon/w.js": "w",
		"templates/app.js":          "nested wins",
		"templates/index.hbs":       "<h1/>",
	})
	// Route the nested addon's templates over the app tree.
	nested := app.Children[0].Children[0]
	nested.SetDest("templates", "app")

	appHooks := &recordingHooks{}
	app.Use(appHooks)

	root, err := Assemble(app)
	require.NoError(t, err)
	assert.Equal(t, "merge: my-app", root.Annotation())
	assert.Equal(t, []string{
		"pre:app:tree", "post:app:tree",
		"pre:styles:tree", "post:styles:tree",
		"pre:vendor:nil", "post:vendor:nil",
	}, appHooks.calls)

	ws := workspace.NewManager(t.TempDir())
	require.NoError(t, ws.Create())
	t.Cleanup(func() { _ = ws.Cleanup() })
	b, err := pipeline.NewBuilder(root, ws)
	require.NoError(t, err)
	res, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"app/app.js":            "nested wins",
		"app/index.hbs":         "<h1/>",
		"app/styles/app.css":    "css",
		"my-app/styles/app.css": "css",
		"addon/w.js":            "w",
	}, helpers.ReadTree(t, res.OutputDir))
}
