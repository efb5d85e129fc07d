package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TreeEntry declares one tree slot. A slot with Absent set exists by name but
// has no tree behind it.
type TreeEntry struct {
	Name   string
	Path   string
	Dest   string
	Absent bool
}

// Destination returns the directory the slot's files are merged under.
func (e TreeEntry) Destination() string {
	if e.Dest != "" {
		return e.Dest
	}
	return e.Name
}

// TreeSlots is an ordered name -> tree mapping. Declaration order is preserved.
type TreeSlots []TreeEntry

// Get returns the entry for name.
func (s TreeSlots) Get(name string) (TreeEntry, bool) {
	for _, e := range s {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// Names lists slot names in declaration order.
func (s TreeSlots) Names() []string {
	names := make([]string, len(s))
	for i, e := range s {
		names[i] = e.Name
	}
	return names
}

// UnmarshalYAML decodes a mapping whose values are a path, a {path, dest}
// mapping, or null / empty for an absent tree.
func (s *TreeSlots) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: trees must be a mapping", node.Line)
	}
	out := make(TreeSlots, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		entry := TreeEntry{Name: key.Value}
		switch {
		case val.Kind == yaml.ScalarNode && (val.Tag == "!!null" || val.Value == ""):
			entry.Absent = true
		case val.Kind == yaml.ScalarNode:
			entry.Path = val.Value
		case val.Kind == yaml.MappingNode:
			var ref struct {
				Path string `yaml:"path"`
				Dest string `yaml:"dest"`
			}
			if err := val.Decode(&ref); err != nil {
				return fmt.Errorf("line %d: tree %q: %w", val.Line, key.Value, err)
			}
			entry.Path, entry.Dest = ref.Path, ref.Dest
			entry.Absent = ref.Path == ""
		default:
			return fmt.Errorf("line %d: tree %q must be a path or mapping", val.Line, key.Value)
		}
		if _, dup := out.Get(entry.Name); dup {
			return fmt.Errorf("line %d: duplicate tree %q", key.Line, key.Value)
		}
		out = append(out, entry)
	}
	*s = out
	return nil
}
