package tree

import (
	"context"
	"fmt"
)

// MergeOptions configures a Merge.
type MergeOptions struct {
	// Overwrite lets later inputs replace files provided by earlier ones.
	Overwrite  bool
	Annotation string
}

// Merge combines the files of several inputs into one output, in input order.
type Merge struct {
	inputs    []Node
	opts      MergeOptions
	outputDir string
}

// NewMerge returns a merge over inputs. Nil inputs are dropped.
func NewMerge(inputs []Node, opts MergeOptions) *Merge {
	kept := make([]Node, 0, len(inputs))
	for _, in := range inputs {
		if in != nil {
			kept = append(kept, in)
		}
	}
	if opts.Annotation == "" {
		opts.Annotation = fmt.Sprintf("merge: %d trees", len(kept))
	}
	return &Merge{inputs: kept, opts: opts}
}

func (m *Merge) Annotation() string     { return m.opts.Annotation }
func (m *Merge) Inputs() []Node         { return m.inputs }
func (m *Merge) Setup(outputDir string) { m.outputDir = outputDir }
func (m *Merge) OutputDir() string      { return m.outputDir }

// Build copies every input's files into the output.
func (m *Merge) Build(ctx context.Context) error {
	if err := resetDir(m.outputDir); err != nil {
		return fmt.Errorf("%s: %w", m.opts.Annotation, err)
	}
	owner := make(map[string]string)
	for _, in := range m.inputs {
		err := walkFiles(ctx, in.OutputDir(), func(rel, abs string) error {
			if prev, seen := owner[rel]; seen && !m.opts.Overwrite {
				return fmt.Errorf("%s: %w: %q provided by %q and %q",
					m.opts.Annotation, ErrConflict, rel, prev, in.Annotation())
			}
			owner[rel] = in.Annotation()
			target, err := resolveDest(m.outputDir, rel)
			if err != nil {
				return err
			}
			return linkOrCopy(abs, target)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
