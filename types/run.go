package types

// SampleResult is the immutable per-sample outcome produced by one harness
// execution. Workers produce these independently; they are reduced into a
// ValidationRun by a single collecting step.
type SampleResult struct {
	// SampleID is the sample this result belongs to.
	SampleID SampleID `json:"sample_id"`
	// Syntactic is the Stage 1 result.
	Syntactic StageStatus `json:"syntactic_status"`
	// Structural is the Stage 2 result. NotRun when Stage 1 failed or the
	// run stopped early.
	Structural StageStatus `json:"structural_status"`
	// Diagnostic carries the failure context, nil on combined pass.
	Diagnostic *Diagnostic `json:"diagnostic,omitempty"`
}

// Combined returns the combined status of the result.
func (r SampleResult) Combined() CombinedStatus {
	if r.Syntactic == StagePass && r.Structural == StagePass {
		return CombinedPass
	}
	return CombinedFail
}

// Record converts the result into a durable registry record.
func (r SampleResult) Record(fingerprint string) ValidationRecord {
	rec := ValidationRecord{
		SampleID:           r.SampleID,
		Syntactic:          r.Syntactic,
		Structural:         r.Structural,
		GrammarFingerprint: fingerprint,
	}
	if r.Diagnostic != nil {
		d := r.Diagnostic.Clone()
		rec.LastError = &d
	}
	return rec
}

// ValidationRun is the ephemeral result of one harness execution. It is
// never persisted directly; the regression guard decides whether it folds
// into the registry or is discarded.
type ValidationRun struct {
	// RunID uniquely identifies this harness invocation.
	RunID string `json:"run_id"`
	// Fingerprint is the grammar fingerprint the run was validated under.
	Fingerprint string `json:"grammar_fingerprint"`
	// Results is ordered by the caller-specified sample order
	// (default: lexical order of sample id).
	Results []SampleResult `json:"results"`
	// Partial marks a run that did not cover its full sample list
	// (early mode stop or cancellation). Partial runs are never committed.
	Partial bool `json:"partial,omitempty"`
}

// Result returns the result for id, if present in the run.
func (v *ValidationRun) Result(id SampleID) (SampleResult, bool) {
	for _, r := range v.Results {
		if r.SampleID == id {
			return r, true
		}
	}
	return SampleResult{}, false
}

// Passed returns the number of results with combined status Pass.
func (v *ValidationRun) Passed() int {
	n := 0
	for _, r := range v.Results {
		if r.Combined() == CombinedPass {
			n++
		}
	}
	return n
}

// FirstFailure returns the diagnostic of the first failed result in run
// order, or nil if every result passed.
func (v *ValidationRun) FirstFailure() *Diagnostic {
	for _, r := range v.Results {
		if r.Combined() == CombinedFail && r.Diagnostic != nil {
			return r.Diagnostic
		}
	}
	return nil
}
