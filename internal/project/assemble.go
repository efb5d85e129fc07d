package project

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/treetracer/internal/logfields"
	"git.home.luguber.info/inful/treetracer/internal/tree"
)

// Assemble builds the output graph of app. Every app slot and every addon
// content type passes through the owning component's preprocess hooks, is
// placed under its destination directory, then passes through the postprocess
// hooks. The results are merged in component order, later files winning.
//
// Hooks see absent trees as nil so they can report them; a tree that is still
// nil after the hooks contributes nothing.
func Assemble(app *Component) (tree.Node, error) {
	var parts []tree.Node
	err := app.Walk(func(c *Component) error {
		if c.IsApp() {
			for _, s := range c.slots {
				n, err := process(c, s.Name, s.Dest, s.Tree)
				if err != nil {
					return err
				}
				parts = append(parts, n)
			}
			return nil
		}
		for _, typ := range c.types {
			n, err := c.TreeFor(typ)
			if err != nil {
				return err
			}
			out, err := process(c, typ, c.Dest(typ), n)
			if err != nil {
				return err
			}
			parts = append(parts, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	merged := tree.NewMerge(parts, tree.MergeOptions{
		Overwrite:  true,
		Annotation: "merge: " + app.Name,
	})
	slog.Debug("Assembled build graph", logfields.Component(app.Name), logfields.Nodes(len(merged.Inputs())))
	return merged, nil
}

func process(c *Component, typ, dest string, n tree.Node) (tree.Node, error) {
	var err error
	for _, h := range c.hooks {
		if n, err = h.PreprocessTree(typ, n); err != nil {
			return nil, fmt.Errorf("%s: preprocess %s: %w", c.Name, typ, err)
		}
	}
	if n != nil {
		n = tree.NewFunnel(n, tree.FunnelOptions{
			DestDir:    dest,
			Annotation: fmt.Sprintf("funnel: %s/%s -> %s", c.Name, typ, dest),
		})
	}
	for _, h := range c.hooks {
		if n, err = h.PostprocessTree(typ, n); err != nil {
			return nil, fmt.Errorf("%s: postprocess %s: %w", c.Name, typ, err)
		}
	}
	return n, nil
}
