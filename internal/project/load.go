package project

import (
	"path/filepath"

	"git.home.luguber.info/inful/treetracer/internal/config"
	"git.home.luguber.info/inful/treetracer/internal/tree"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
)

// FromConfig builds the component tree of a project definition. Tree paths are
// resolved against the declaring component's root; roots are resolved against
// the project directory.
func FromConfig(p *config.Project) (*Component, error) {
	if p == nil {
		return nil, ferrors.ValidationError("project definition is nil").Build()
	}
	app := NewApp(p.Name)
	app.ProjectRoot = p.Dir
	applyNaming(app, p.Component, p.Dir, true)

	root := componentRoot(app)
	for _, e := range p.Trees {
		var n tree.Node
		if !e.Absent {
			n = tree.NewSource(resolve(root, e.Path))
		}
		app.AddSlot(e.Name, e.Destination(), n)
	}

	addAddons(app, p.Addons)
	return app, nil
}

func addAddons(parent *Component, addons []*config.Addon) {
	for _, a := range addons {
		slots := a.TreeFor
		child := parent.AddAddon(a.Name, nil, slots.Names()...)
		applyNaming(child, a.Component, parent.ProjectRoot, false)

		root := componentRoot(child)
		child.SetTreeProvider(func(typ string) (tree.Node, error) {
			e, ok := slots.Get(typ)
			if !ok || e.Absent {
				return nil, nil
			}
			return tree.NewSource(resolve(root, e.Path)), nil
		})
		for _, e := range slots {
			child.SetDest(e.Name, e.Destination())
		}
		addAddons(child, a.Addons)
	}
}

func applyNaming(c *Component, cfg config.Component, projectDir string, isApp bool) {
	c.ModuleName = cfg.ModuleName
	c.ModulePrefix = cfg.ModulePrefix
	c.Config = cfg.Config
	c.Traced = cfg.IsTraced(isApp)
	if cfg.Root != "" {
		c.Root = resolve(projectDir, cfg.Root)
	}
}

func componentRoot(c *Component) string {
	if c.Root != "" {
		return c.Root
	}
	return c.ProjectRoot
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) || base == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(base, filepath.FromSlash(p))
}
