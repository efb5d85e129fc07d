package trace

import (
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/treetracer/internal/config"

	ferrors "git.home.luguber.info/inful/treetracer/internal/foundation/errors"
)

// Sink writes trace records and notes to a file or, when no file is
// configured, to the console stream.
//
// A Sink holds no open handle: every Emit opens the file in append mode and
// closes it before returning, so records from several sinks sharing one file
// stay in call order. It is not safe for concurrent use.
type Sink struct {
	file    string
	console io.Writer
}

// NewSink returns a sink for cfg. A nil console means os.Stdout.
func NewSink(cfg config.TraceConfig, console io.Writer) *Sink {
	if console == nil {
		console = os.Stdout
	}
	return &Sink{file: cfg.File, console: console}
}

// File returns the configured trace file, empty for console output.
func (s *Sink) File() string { return s.file }

// Emit writes text. In file mode exactly one trailing newline is ensured;
// in console mode text is printed as a line.
func (s *Sink) Emit(text string) error {
	if s.file == "" {
		if _, err := fmt.Fprintln(s.console, text); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write trace output").Build()
		}
		return nil
	}

	// #nosec G302 G304 - trace files are operator-chosen and meant to be readable
	f, err := os.OpenFile(s.file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to open trace file").
			WithContext("path", s.file).
			Build()
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := io.WriteString(f, text); err != nil {
		_ = f.Close()
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to append to trace file").
			WithContext("path", s.file).
			Build()
	}
	if err := f.Close(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to close trace file").
			WithContext("path", s.file).
			Build()
	}
	return nil
}

// EmitRecord formats and emits one record.
func (s *Sink) EmitRecord(rec Record) error {
	return s.Emit(rec.String())
}

// Note emits a trace-only message, such as a missing tree.
func (s *Sink) Note(text string) error {
	return s.Emit(text)
}
