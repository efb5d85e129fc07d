// Package workspace manages the scratch directory holding per-node build outputs.
//
// Ephemeral mode creates a timestamped directory (e.g. treetracer-20261014-101500-123)
// removed on Cleanup. Persistent mode uses a fixed path that survives the run,
// which is handy when inspecting what each traced stage copied.
package workspace
