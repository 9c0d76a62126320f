package classfile

import "fmt"

// Severity grades a diagnostic.
type Severity int

const (
	// SeverityWarning does not interrupt decoding.
	SeverityWarning Severity = iota
	// SeverityRecord invalidated one record; the container decode continued.
	SeverityRecord
	// SeverityFatal stopped decoding of the container.
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityRecord:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a problem found while decoding, anchored at a byte offset
// of the source container.
type Diagnostic struct {
	Offset   int      `json:"offset"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%08x: %s: %s", d.Offset, d.Severity, d.Message)
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// Worst returns the highest severity present, or -1 when empty.
func (ds Diagnostics) Worst() Severity {
	worst := Severity(-1)
	for _, d := range ds {
		if d.Severity > worst {
			worst = d.Severity
		}
	}
	return worst
}

// Count returns the number of diagnostics with the given severity.
func (ds Diagnostics) Count(s Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == s {
			n++
		}
	}
	return n
}
