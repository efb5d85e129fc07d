package tree

import (
	"context"
	"fmt"
	"os"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
)

// Source is a directory on disk. It has no inputs and writes nothing.
type Source struct {
	dir        string
	annotation string
}

// NewSource returns a node exposing dir as-is.
func NewSource(dir string) *Source {
	return &Source{dir: dir, annotation: "source: " + dir}
}

func (s *Source) Annotation() string { return s.annotation }
func (s *Source) Inputs() []Node     { return nil }
func (s *Source) Setup(string)       {}
func (s *Source) OutputDir() string  { return s.dir }

// Build verifies the directory exists.
func (s *Source) Build(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return ferrors.NotFoundError("source directory not found").
			WithContext("path", s.dir).
			WithCause(err).
			Build()
	}
	if !info.IsDir() {
		return ferrors.ValidationError(fmt.Sprintf("source is not a directory: %s", s.dir)).Build()
	}
	return nil
}
