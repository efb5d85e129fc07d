package metrics

import "time"

// BuildOutcome enumerates final build pass states for counters.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// Recorder defines observability hooks for build passes and traced stages.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcome)
	// IncTraceRecord counts one emitted trace record; empty marks the EMPTY variant.
	IncTraceRecord(identity string, empty bool)
	AddDiscoveredFiles(identity string, n int)
	// IncRenamedFile counts a destination rewrite; kind is the matched extension.
	IncRenamedFile(identity, kind string)
	IncMissingTree(identity string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcome)               {}
func (NoopRecorder) IncTraceRecord(string, bool)                {}
func (NoopRecorder) AddDiscoveredFiles(string, int)             {}
func (NoopRecorder) IncRenamedFile(string, string)              {}
func (NoopRecorder) IncMissingTree(string)                      {}
