package trace

import "strings"

// emptyMarker replaces the file list of a pass that discovered nothing.
const emptyMarker = "EMPTY"

// Record is the trace of one build pass of one traced stage.
type Record struct {
	Identity string
	// Files are the discovered relative paths, before renaming, in call order.
	Files []string
}

// Empty reports whether the pass discovered no files.
func (r Record) Empty() bool { return len(r.Files) == 0 }

// String renders the record as
//
//	Tree: <identity>
//	\t<file>
//
// with one tab-indented line per file, or a single EMPTY line.
func (r Record) String() string {
	var sb strings.Builder
	sb.WriteString("Tree: ")
	sb.WriteString(r.Identity)
	sb.WriteByte('\n')
	if r.Empty() {
		sb.WriteString("\t" + emptyMarker + "\n")
		return sb.String()
	}
	for _, f := range r.Files {
		sb.WriteByte('\t')
		sb.WriteString(f)
		sb.WriteByte('\n')
	}
	return sb.String()
}
