// Package parse adapts an external parser-generator runtime to the narrow
// capability interface the harness depends on.
//
// The harness, registry, and guard never see parser-library types; swapping
// the parsing engine requires changes in this package only. Diagnostics are
// the only failure channel: a syntax error, a panic, and a timeout all
// surface as a per-sample diagnostic, never as a run-aborting error.
package parse

import (
	"context"

	"github.com/pithecene-io/chisel/types"
)

// Statement is one top-level statement recovered from a parse tree.
// Structural checks consume these instead of raw tree nodes so that they
// stay independent of the parsing engine.
type Statement struct {
	// Node is the grammar production name that matched (e.g. "pair").
	Node string
	// Text is the full matched line text.
	Text string
	// Line is the 1-based source line of the statement.
	Line int
}

// Result is a successful Stage 1 outcome for one sample.
type Result struct {
	// SampleID is the sample that was parsed.
	SampleID types.SampleID
	// Statements lists the top-level statements in source order.
	Statements []Statement
	// NodeCount is the total number of tree nodes, for observability.
	NodeCount int
}

// Parser is the parsing capability contract.
//
// Parse returns exactly one of a result or a diagnostic. Diagnostics carry
// kind syntax for ordinary parse failures and kind internal_error for
// contained crashes and timeouts. Implementations must be safe for
// concurrent use by multiple workers.
type Parser interface {
	Parse(ctx context.Context, id types.SampleID, content []byte) (*Result, *types.Diagnostic)
}
