// Package types defines core domain types for the chisel harness.
//
//nolint:revive // types is a common Go package naming convention
package types

// SampleID identifies a sample by its path relative to the corpus root.
// IDs are case-sensitive and stable across runs.
type SampleID = string

// StageStatus is the status of a single validation stage.
type StageStatus string

const (
	// StagePass indicates the stage succeeded.
	StagePass StageStatus = "pass"
	// StageFail indicates the stage failed.
	StageFail StageStatus = "fail"
	// StageNotRun indicates the stage was skipped.
	// Only valid for the structural stage, when the syntactic stage failed.
	StageNotRun StageStatus = "not_run"
)

// CombinedStatus is the per-sample status across both stages.
type CombinedStatus string

const (
	// CombinedPass means both stages passed.
	CombinedPass CombinedStatus = "pass"
	// CombinedFail means at least one stage failed or was not run.
	CombinedFail CombinedStatus = "fail"
)

// ValidationRecord is the durable per-sample validation state held by the
// corpus registry.
type ValidationRecord struct {
	// SampleID is the relative path of the sample.
	SampleID SampleID `json:"sample_id"`
	// Syntactic is the Stage 1 result.
	Syntactic StageStatus `json:"syntactic_status"`
	// Structural is the Stage 2 result. NotRun when Stage 1 failed.
	Structural StageStatus `json:"structural_status"`
	// LastError is the most recent diagnostic, nil when both stages pass.
	LastError *Diagnostic `json:"last_error,omitempty"`
	// GrammarFingerprint is the fingerprint of the grammar artifact this
	// record was computed under.
	GrammarFingerprint string `json:"grammar_fingerprint"`
}

// NewPendingRecord returns the initial record for a freshly discovered
// sample: syntactic fail, structural not run, no diagnostic.
func NewPendingRecord(id SampleID) ValidationRecord {
	return ValidationRecord{
		SampleID:   id,
		Syntactic:  StageFail,
		Structural: StageNotRun,
	}
}

// Combined returns the combined status of the record.
// Pass requires both stages to pass; structural NotRun collapses to fail.
func (r ValidationRecord) Combined() CombinedStatus {
	if r.Syntactic == StagePass && r.Structural == StagePass {
		return CombinedPass
	}
	return CombinedFail
}

// StaleUnder reports whether the record was computed under a different
// grammar than fingerprint. A stale record must not be trusted as Pass for
// "all green" decisions; it still counts toward the regression frontier.
func (r ValidationRecord) StaleUnder(fingerprint string) bool {
	return r.GrammarFingerprint != fingerprint
}

// Clone returns a deep copy of the record.
func (r ValidationRecord) Clone() ValidationRecord {
	out := r
	if r.LastError != nil {
		d := r.LastError.Clone()
		out.LastError = &d
	}
	return out
}
