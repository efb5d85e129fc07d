package project

import "git.home.luguber.info/inful/treetracer/internal/config"

// Environment is what the tracing driver needs to know about the component it
// was included into.
type Environment struct {
	Component *Component
	App       *Component
	IsApp     bool
	// RootDir is the component root, falling back to the project root.
	RootDir      string
	ModulePrefix string
}

// ResolveEnvironment derives the naming environment of c.
func ResolveEnvironment(c *Component) Environment {
	rootDir := c.Root
	if rootDir == "" {
		rootDir = c.ProjectRoot
	}
	return Environment{
		Component:    c,
		App:          c.App(),
		IsApp:        c.IsApp(),
		RootDir:      rootDir,
		ModulePrefix: ModulePrefix(c),
	}
}

// ModulePrefix returns the first non-empty of the module name, the configured
// module prefix, the "modulePrefix" config entry and the component name.
func ModulePrefix(c *Component) string {
	return config.Component{
		Name:         c.Name,
		ModuleName:   c.ModuleName,
		ModulePrefix: c.ModulePrefix,
		Config:       c.Config,
	}.Prefix()
}
