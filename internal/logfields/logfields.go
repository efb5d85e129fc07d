package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyIdentity   = "identity"
	KeySuffix     = "suffix"
	KeyPath       = "path"
	KeyFiles      = "files"
	KeyNodes      = "nodes"
	KeyComponent  = "component"
	KeyTreeType   = "tree_type"
	KeyDurationMS = "duration_ms"
	KeyTrigger    = "trigger"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr       { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func Identity(id string) slog.Attr      { return slog.String(KeyIdentity, id) }
func Suffix(s string) slog.Attr         { return slog.String(KeySuffix, s) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Files(n int) slog.Attr             { return slog.Int(KeyFiles, n) }
func Nodes(n int) slog.Attr             { return slog.Int(KeyNodes, n) }
func Component(name string) slog.Attr   { return slog.String(KeyComponent, name) }
func TreeType(t string) slog.Attr       { return slog.String(KeyTreeType, t) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Trigger(reason string) slog.Attr   { return slog.String(KeyTrigger, reason) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
