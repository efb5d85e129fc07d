// Package errors provides classified error primitives used across treetracer.
//
// A ClassifiedError carries a broad category (config, build, filesystem, ...),
// a severity and free-form context. The CLI adapter maps categories to process
// exit codes.
//
// Wrapped-stage failures are never classified here: a traced stage returns the
// error its wrapped node produced, untouched, so callers keep errors.Is/As on
// the original value.
//
// Example usage:
//
//	err := errors.FileSystemError("append trace record").
//		WithContext("path", cfg.File).
//		WithCause(writeErr).
//		Build()
package errors
