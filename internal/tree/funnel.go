package tree

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
)

// FunnelOptions configures a Funnel.
type FunnelOptions struct {
	// SrcDir restricts the funnel to a subdirectory of its input.
	SrcDir string
	// DestDir places every file under this directory of the output.
	DestDir string
	// DestinationPath rewrites each input-relative path before DestDir is applied.
	DestinationPath DestinationPathFunc
	Annotation      string
}

// Funnel re-roots the files of one input node into its own output directory.
type Funnel struct {
	input     Node
	opts      FunnelOptions
	outputDir string
}

// NewFunnel returns a funnel over input.
func NewFunnel(input Node, opts FunnelOptions) *Funnel {
	if opts.Annotation == "" {
		opts.Annotation = "funnel: " + input.Annotation()
	}
	return &Funnel{input: input, opts: opts}
}

func (f *Funnel) Annotation() string     { return f.opts.Annotation }
func (f *Funnel) Inputs() []Node         { return []Node{f.input} }
func (f *Funnel) Setup(outputDir string) { f.outputDir = outputDir }
func (f *Funnel) OutputDir() string      { return f.outputDir }

// Build materializes every input file at its destination path. The destination
// hook runs once per file, in lexical order of the input-relative paths.
func (f *Funnel) Build(ctx context.Context) error {
	if err := resetDir(f.outputDir); err != nil {
		return fmt.Errorf("%s: %w", f.opts.Annotation, err)
	}
	root := f.input.OutputDir()
	if f.opts.SrcDir != "" {
		root = filepath.Join(root, filepath.FromSlash(f.opts.SrcDir))
	}
	return walkFiles(ctx, root, func(rel, abs string) error {
		dest := rel
		if f.opts.DestinationPath != nil {
			dest = f.opts.DestinationPath(rel)
		}
		if f.opts.DestDir != "" {
			dest = path.Join(f.opts.DestDir, dest)
		}
		target, err := resolveDest(f.outputDir, dest)
		if err != nil {
			return fmt.Errorf("%s: %w", f.opts.Annotation, err)
		}
		return linkOrCopy(abs, target)
	})
}
