package types

import "fmt"

// DiagnosticKind classifies a diagnostic.
type DiagnosticKind string

const (
	// KindSyntax is a Stage 1 failure: unexpected input at a position.
	KindSyntax DiagnosticKind = "syntax"
	// KindStructural is a Stage 2 failure: a document-level invariant was
	// violated despite a successful parse.
	KindStructural DiagnosticKind = "structural"
	// KindInternal is a contained harness-side failure: parser panic,
	// timeout, or resource exhaustion. Never fatal to a run.
	KindInternal DiagnosticKind = "internal_error"
)

// Diagnostic is the actionable error context attached to a failed sample.
type Diagnostic struct {
	// SampleID is the sample this diagnostic belongs to.
	SampleID SampleID `json:"sample_id"`
	// Kind classifies the failure.
	Kind DiagnosticKind `json:"kind"`
	// Line is the 1-based line of the failure, 0 if unknown.
	Line int `json:"line"`
	// Col is the 1-based column of the failure, 0 if unknown.
	Col int `json:"column"`
	// Unexpected is the offending token or text, if known.
	Unexpected string `json:"unexpected,omitempty"`
	// Expected lists acceptable tokens at the failure point, if known.
	Expected []string `json:"expected,omitempty"`
	// Message is the human-readable description.
	Message string `json:"message"`
}

// Clone returns a deep copy of the diagnostic.
func (d Diagnostic) Clone() Diagnostic {
	out := d
	if d.Expected != nil {
		out.Expected = append([]string(nil), d.Expected...)
	}
	return out
}

// String renders the diagnostic for operator output.
func (d Diagnostic) String() string {
	pos := ""
	if d.Line > 0 {
		pos = fmt.Sprintf(" at line %d col %d", d.Line, d.Col)
	}
	return fmt.Sprintf("[%s] %s%s: %s", d.Kind, d.SampleID, pos, d.Message)
}
