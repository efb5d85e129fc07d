package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid project file").
			WithSeverity(SeverityFatal).
			WithContext("file", "project.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid project file" {
			t.Errorf("expected message 'invalid project file', got %s", err.Message())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "project.yaml" {
			t.Errorf("expected context file=project.yaml, got %v", file)
		}
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", ConfigError("test error").Build())

		if !HasCategory(err, CategoryConfig) {
			t.Error("expected wrapped error to have config category")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified error to map to internal")
		}
	})

	t.Run("Cause unwrapping", func(t *testing.T) {
		cause := errors.New("disk full")
		err := FileSystemError("append trace record").WithCause(cause).Build()
		if !errors.Is(err, cause) {
			t.Error("expected error to wrap cause")
		}
		if err.Error() != "[filesystem:error] append trace record: disk full" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("WithContext does not mutate original", func(t *testing.T) {
		base := BuildError("cycle").Build()
		derived := base.WithContext("node", "funnel")
		if _, ok := base.Context().Get("node"); ok {
			t.Error("base context was mutated")
		}
		if v, _ := derived.Context().GetString("node"); v != "funnel" {
			t.Errorf("expected derived context node=funnel, got %q", v)
		}
	})
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	cases := []struct {
		err  error
		code int
	}{
		{nil, 0},
		{errors.New("x"), 1},
		{ValidationError("bad flag").Build(), 2},
		{NotFoundError("missing").Build(), 3},
		{ConfigError("bad").Build(), 7},
		{BuildError("cycle").Build(), 11},
		{FileSystemError("io").Build(), 11},
		{RuntimeError("watch").Build(), 12},
	}
	for _, tc := range cases {
		if got := a.ExitCodeFor(tc.err); got != tc.code {
			t.Errorf("ExitCodeFor(%v) = %d, want %d", tc.err, got, tc.code)
		}
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := WrapError(errors.New("permission denied"), CategoryFileSystem, "append trace record").Build()

	quiet := NewCLIErrorAdapter(false, nil)
	if got := quiet.FormatError(err); got != "Error: append trace record (use -v for details)" {
		t.Errorf("unexpected quiet format %q", got)
	}
	verbose := NewCLIErrorAdapter(true, nil)
	if got := verbose.FormatError(err); got != "Error: [filesystem:error] append trace record: permission denied" {
		t.Errorf("unexpected verbose format %q", got)
	}
}
