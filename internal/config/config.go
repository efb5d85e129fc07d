package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
)

// DefaultProjectFile is the project definition looked up when no path is given.
const DefaultProjectFile = "treetracer.yaml"

// Project is the host application definition: the top-level app, its named
// tree slots and the addons attached to it.
type Project struct {
	Component `yaml:",inline"`

	Trees  TreeSlots   `yaml:"trees"`
	Trace  TraceConfig `yaml:"trace"`
	Addons []*Addon    `yaml:"addons,omitempty"`

	// Dir is the absolute directory containing the project file.
	Dir string `yaml:"-"`
}

// Component holds the naming fields shared by the app and its addons.
type Component struct {
	Name         string         `yaml:"name"`
	ModuleName   string         `yaml:"module_name,omitempty"`
	ModulePrefix string         `yaml:"module_prefix,omitempty"`
	Config       map[string]any `yaml:"config,omitempty"`
	Root         string         `yaml:"root,omitempty"`
	// Traced installs the tracing driver on this component. Nil means true for
	// the app and false for addons.
	Traced *bool `yaml:"traced,omitempty"`
}

// Addon is a sub-component exposing trees by content type.
type Addon struct {
	Component `yaml:",inline"`

	TreeFor TreeSlots `yaml:"tree_for"`
	Addons  []*Addon  `yaml:"addons,omitempty"`
}

// IsTraced reports whether the driver should be installed, given the default
// for the component kind.
func (c Component) IsTraced(def bool) bool {
	if c.Traced == nil {
		return def
	}
	return *c.Traced
}

// Prefix resolves the module prefix: module_name, then module_prefix, then
// the "modulePrefix" config entry, then the name.
func (c Component) Prefix() string {
	switch {
	case c.ModuleName != "":
		return c.ModuleName
	case c.ModulePrefix != "":
		return c.ModulePrefix
	}
	if v, ok := c.Config["modulePrefix"].(string); ok && v != "" {
		return v
	}
	return c.Name
}

// appScope is the scope of the app's own hooks; no addon may resolve to it.
const appScope = "app"

// Load reads a project definition, expanding environment variables in the YAML content.
func Load(path string) (*Project, error) {
	if path == "" {
		path = DefaultProjectFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.NotFoundError("project file not found").
				WithContext("path", path).
				WithCause(err).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read project file").
			WithContext("path", path).
			Build()
	}

	p, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		if ferrors.HasCategory(err, ferrors.CategoryValidation) {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parse project file").
			WithContext("path", path).
			Fatal().
			Build()
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve project directory: %w", err)
	}
	p.Dir = abs
	return p, nil
}

// Parse decodes and validates a project definition. Dir is left empty.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every component is named, names are unique and every
// addon resolves to its own module prefix.
func (p *Project) Validate() error {
	if p.Name == "" {
		return ferrors.ValidationError("project name is required").Build()
	}
	seen := map[string]bool{p.Name: true}
	prefixes := map[string]string{}
	var walk func(addons []*Addon, parent string) error
	walk = func(addons []*Addon, parent string) error {
		for i, a := range addons {
			if a == nil || a.Name == "" {
				return ferrors.ValidationError("addon name is required").
					WithContext("parent", parent).
					WithContext("index", i).
					Build()
			}
			if seen[a.Name] {
				return ferrors.ValidationError("duplicate component name").
					WithContext("name", a.Name).
					Build()
			}
			seen[a.Name] = true
			if err := checkPrefix(a, prefixes); err != nil {
				return err
			}
			if err := walk(a.Addons, a.Name); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(p.Addons, p.Name)
}

func checkPrefix(a *Addon, prefixes map[string]string) error {
	prefix := a.Prefix()
	if prefix == appScope {
		return ferrors.ValidationError("addon module prefix is reserved for the app").
			WithContext("name", a.Name).
			WithContext("prefix", prefix).
			Build()
	}
	if other, ok := prefixes[prefix]; ok {
		return ferrors.ValidationError("duplicate addon module prefix").
			WithContext("name", a.Name).
			WithContext("other", other).
			WithContext("prefix", prefix).
			Build()
	}
	prefixes[prefix] = a.Name
	return nil
}
