// Package tree defines the build-graph node contract and the small set of
// nodes the host pipeline is assembled from: directory sources, funnels that
// copy a tree under rewritten destination paths, and merges.
//
// Nodes perform a full re-copy on every Build; there is no caching.
package tree

import (
	"context"
	"errors"
)

// Node is one stage of the build graph. The pipeline builder assigns an output
// directory through Setup, builds every input first, then calls Build.
type Node interface {
	// Annotation is a human-readable label used in logs and errors.
	Annotation() string
	// Inputs lists the nodes whose OutputDir this node reads.
	Inputs() []Node
	// Setup assigns the directory Build writes into. Nodes that own no output
	// (sources) ignore it.
	Setup(outputDir string)
	// OutputDir is where downstream nodes read this node's files from.
	OutputDir() string
	Build(ctx context.Context) error
}

var (
	// ErrConflict is returned by a non-overwriting Merge when two inputs provide the same path.
	ErrConflict = errors.New("merge conflict")
	// ErrEscapesOutput is returned when a destination path resolves outside the output directory.
	ErrEscapesOutput = errors.New("destination escapes output directory")
	// ErrNotSetup is returned when Build runs before an output directory was assigned.
	ErrNotSetup = errors.New("node has no output directory")
	// ErrCycle is returned when a node is, directly or transitively, its own input.
	ErrCycle = errors.New("cycle in build graph")
)

// DestinationPathFunc maps an input-relative, slash-separated path to the path the
// file is written under. It is consulted once for every file.
type DestinationPathFunc func(relativePath string) string
