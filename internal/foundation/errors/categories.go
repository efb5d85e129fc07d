package errors

import "maps"

// ErrorCategory selects the exit code and log treatment of a ClassifiedError.
type ErrorCategory string

const (
	// CategoryConfig is a project file that cannot be read or parsed.
	CategoryConfig ErrorCategory = "config"
	// CategoryValidation is a well-formed project that cannot be traced as
	// declared, such as two wrap sites sharing a suffix token.
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// CategoryBuild is a build graph the engine refuses, such as a cycle.
	// Errors of wrapped stages are never reclassified.
	CategoryBuild ErrorCategory = "build"
	// CategoryFileSystem covers the trace sink, workspace and publish step.
	CategoryFileSystem ErrorCategory = "filesystem"

	// CategoryRuntime is watch mode infrastructure (metrics listener).
	CategoryRuntime ErrorCategory = "runtime"
	// CategoryInternal is anything unclassified.
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity maps to the slog level the CLI adapter logs with.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
	SeverityInfo    ErrorSeverity = "info"
)

// ErrorContext holds the key/value details logged next to an error
// (path, identity, suffix, ...).
type ErrorContext map[string]any

// Set stores value under key, allocating the map on first use.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = ErrorContext{}
	}
	c[key] = value
	return c
}

func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Merge returns a new context holding c overlaid with other.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
