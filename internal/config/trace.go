package config

import (
	"os"
	"path/filepath"
)

// EnvTraceFile names the file trace records are appended to.
const EnvTraceFile = "TREETRACER_FILE"

// TraceConfig selects the trace sink target. An empty File means console output.
type TraceConfig struct {
	File string `yaml:"file,omitempty"`
}

// UseConsole reports whether records go to the console stream.
func (c TraceConfig) UseConsole() bool {
	return c.File == ""
}

// ResolveTraceConfig picks the sink target once at process start.
// Precedence: explicit flag > TREETRACER_FILE > project file (relative to the project directory).
func ResolveTraceConfig(flagFile string, p *Project) TraceConfig {
	if flagFile != "" {
		return TraceConfig{File: flagFile}
	}
	if env := os.Getenv(EnvTraceFile); env != "" {
		return TraceConfig{File: env}
	}
	if p == nil || p.Trace.File == "" {
		return TraceConfig{}
	}
	file := p.Trace.File
	if !filepath.IsAbs(file) && p.Dir != "" {
		file = filepath.Join(p.Dir, file)
	}
	return TraceConfig{File: file}
}
