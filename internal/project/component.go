// Package project models the host application the tracing driver is installed
// on: the top-level app with its named tree slots and the addons that expose
// trees by content type. It also assembles those trees into one build graph.
package project

import (
	"git.home.luguber.info/inful/treetracer/internal/tree"
)

// TreeProvider returns an addon's tree for a content type, or nil when the
// addon has none.
type TreeProvider func(typ string) (tree.Node, error)

// Hooks are invoked for every tree a component contributes, before and after
// it is placed in the final output. A hook may replace the tree.
type Hooks interface {
	PreprocessTree(typ string, n tree.Node) (tree.Node, error)
	PostprocessTree(typ string, n tree.Node) (tree.Node, error)
}

// Slot is a named app tree. Tree is nil for a declared but absent tree.
type Slot struct {
	Name string
	Dest string
	Tree tree.Node
}

// Component is the app (no parent) or an addon.
type Component struct {
	Name         string
	ModuleName   string
	ModulePrefix string
	Config       map[string]any
	// Root is the component's own root directory, empty to use ProjectRoot.
	Root        string
	ProjectRoot string
	// Traced marks components the tracing driver should be installed on.
	Traced bool

	Parent   *Component
	Children []*Component

	slots    []Slot
	provider TreeProvider
	types    []string
	dests    map[string]string
	hooks    []Hooks
}

// NewApp returns a top-level component.
func NewApp(name string) *Component {
	return &Component{Name: name}
}

// AddAddon attaches a child component exposing trees through provider.
// types lists the content types assembled for it, in order.
func (c *Component) AddAddon(name string, provider TreeProvider, types ...string) *Component {
	child := &Component{
		Name:        name,
		ProjectRoot: c.ProjectRoot,
		Parent:      c,
		provider:    provider,
		types:       append([]string(nil), types...),
		dests:       map[string]string{},
	}
	c.Children = append(c.Children, child)
	return child
}

// IsApp reports whether c is the top-level app.
func (c *Component) IsApp() bool { return c.Parent == nil }

// App returns the top-level component c belongs to.
func (c *Component) App() *Component {
	app := c
	for app.Parent != nil {
		app = app.Parent
	}
	return app
}

// AddSlot appends a named tree slot. A nil tree declares an absent slot.
func (c *Component) AddSlot(name, dest string, n tree.Node) {
	if dest == "" {
		dest = name
	}
	c.slots = append(c.slots, Slot{Name: name, Dest: dest, Tree: n})
}

// Slots returns the tree slots in declaration order.
func (c *Component) Slots() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// SetTree replaces the tree behind an existing slot. It reports whether the
// slot exists.
func (c *Component) SetTree(name string, n tree.Node) bool {
	for i := range c.slots {
		if c.slots[i].Name == name {
			c.slots[i].Tree = n
			return true
		}
	}
	return false
}

// TreeProvider returns the component's current provider, nil for the app.
func (c *Component) TreeProvider() TreeProvider { return c.provider }

// SetTreeProvider replaces the provider, typically with a decorator around
// the current one.
func (c *Component) SetTreeProvider(p TreeProvider) { c.provider = p }

// TreeFor asks the provider for a content type.
func (c *Component) TreeFor(typ string) (tree.Node, error) {
	if c.provider == nil {
		return nil, nil
	}
	return c.provider(typ)
}

// TreeTypes lists the content types assembled for an addon.
func (c *Component) TreeTypes() []string {
	return append([]string(nil), c.types...)
}

// SetDest places an addon content type under dest in the output.
func (c *Component) SetDest(typ, dest string) {
	if c.dests == nil {
		c.dests = map[string]string{}
	}
	c.dests[typ] = dest
}

// Dest returns where an addon content type is placed, defaulting to the type.
func (c *Component) Dest(typ string) string {
	if d, ok := c.dests[typ]; ok && d != "" {
		return d
	}
	return typ
}

// Use registers pre/post hooks on the component.
func (c *Component) Use(h Hooks) { c.hooks = append(c.hooks, h) }

// Hooks returns the registered hooks in registration order.
func (c *Component) Hooks() []Hooks { return append([]Hooks(nil), c.hooks...) }

// Walk visits c and its descendants depth-first, parents before children.
func (c *Component) Walk(fn func(*Component) error) error {
	if err := fn(c); err != nil {
		return err
	}
	for _, child := range c.Children {
		if err := child.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}
