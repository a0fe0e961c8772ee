package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pithecene-io/chisel/iox"
	"github.com/pithecene-io/chisel/metrics"
	"github.com/pithecene-io/chisel/types"
)

// RunReport is the structured JSON report written by --report.
type RunReport struct {
	RunID              string `json:"run_id"`
	GrammarFingerprint string `json:"grammar_fingerprint"`
	DurationMs         int64  `json:"duration_ms"`

	Total       int     `json:"total"`
	Passed      int     `json:"passed"`
	Failed      int     `json:"failed"`
	PassPercent float64 `json:"pass_percent"`

	Accepted  bool             `json:"accepted"`
	Regressed []types.SampleID `json:"regressed,omitempty"`

	Samples []ReportSample `json:"samples"`

	NextTarget  types.SampleID    `json:"next_target,omitempty"`
	NextFailure *types.Diagnostic `json:"next_failure,omitempty"`

	Metrics *metrics.Snapshot `json:"metrics,omitempty"`
}

// ReportSample is one per-sample row in the report.
type ReportSample struct {
	SampleID   types.SampleID       `json:"sample_id"`
	Syntactic  types.StageStatus    `json:"syntactic_status"`
	Structural types.StageStatus    `json:"structural_status"`
	Combined   types.CombinedStatus `json:"combined_status"`
	Diagnostic *types.Diagnostic    `json:"diagnostic,omitempty"`
}

// BuildRunReport composes a RunReport from a validation run and the guard
// decision. regressed is nil when the run was accepted.
func BuildRunReport(run *types.ValidationRun, accepted bool, regressed []types.SampleID, duration time.Duration, snap metrics.Snapshot) *RunReport {
	report := &RunReport{
		RunID:              run.RunID,
		GrammarFingerprint: run.Fingerprint,
		DurationMs:         duration.Milliseconds(),
		Total:              len(run.Results),
		Passed:             run.Passed(),
		Accepted:           accepted,
		Regressed:          append([]types.SampleID(nil), regressed...),
		Metrics:            &snap,
	}
	report.Failed = report.Total - report.Passed
	if report.Total > 0 {
		report.PassPercent = 100 * float64(report.Passed) / float64(report.Total)
	}
	sort.Strings(report.Regressed)

	for _, r := range run.Results {
		report.Samples = append(report.Samples, ReportSample{
			SampleID:   r.SampleID,
			Syntactic:  r.Syntactic,
			Structural: r.Structural,
			Combined:   r.Combined(),
			Diagnostic: r.Diagnostic,
		})
	}

	if d := run.FirstFailure(); d != nil {
		report.NextTarget = d.SampleID
		report.NextFailure = d
	}
	return report
}

// WriteJSON writes the report to path, atomically.
func (r *RunReport) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run report: %w", err)
	}
	if err := iox.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write run report: %w", err)
	}
	return nil
}

// WriteJSONTo writes the report to an open file (used for stdout).
func (r *RunReport) WriteJSONTo(f *os.File) error {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
