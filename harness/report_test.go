package harness

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pithecene-io/chisel/metrics"
	"github.com/pithecene-io/chisel/types"
)

func reportRun() *types.ValidationRun {
	return &types.ValidationRun{
		RunID:       "run-1",
		Fingerprint: "fp",
		Results: []types.SampleResult{
			{SampleID: "a.rts", Syntactic: types.StagePass, Structural: types.StagePass},
			{
				SampleID:   "b.rts",
				Syntactic:  types.StageFail,
				Structural: types.StageNotRun,
				Diagnostic: &types.Diagnostic{
					SampleID: "b.rts",
					Kind:     types.KindSyntax,
					Line:     7,
					Col:      2,
					Message:  "unexpected token $text",
				},
			},
			{SampleID: "c.rts", Syntactic: types.StagePass, Structural: types.StagePass},
		},
	}
}

func TestBuildRunReport(t *testing.T) {
	report := BuildRunReport(reportRun(), true, nil, 1500*time.Millisecond, metrics.Snapshot{})

	if report.RunID != "run-1" || report.GrammarFingerprint != "fp" {
		t.Fatalf("run identity lost: %+v", report)
	}
	if report.DurationMs != 1500 {
		t.Fatalf("expected 1500ms, got %d", report.DurationMs)
	}
	if report.Total != 3 || report.Passed != 2 || report.Failed != 1 {
		t.Fatalf("wrong totals: %+v", report)
	}
	if report.PassPercent < 66.6 || report.PassPercent > 66.7 {
		t.Fatalf("expected ~66.67%%, got %f", report.PassPercent)
	}
	if !report.Accepted || len(report.Regressed) != 0 {
		t.Fatalf("accepted run must carry no regressions: %+v", report)
	}
	if len(report.Samples) != 3 {
		t.Fatalf("expected 3 sample rows, got %d", len(report.Samples))
	}
	if report.Samples[1].Combined != types.CombinedFail {
		t.Fatalf("combined status not derived: %+v", report.Samples[1])
	}
	if report.NextTarget != "b.rts" || report.NextFailure == nil || report.NextFailure.Line != 7 {
		t.Fatalf("next target not selected: %s %+v", report.NextTarget, report.NextFailure)
	}
}

func TestBuildRunReportRejected(t *testing.T) {
	regressed := []types.SampleID{"z.rts", "b.rts"}
	report := BuildRunReport(reportRun(), false, regressed, time.Second, metrics.Snapshot{})

	if report.Accepted {
		t.Fatal("rejected run reported as accepted")
	}
	if len(report.Regressed) != 2 || report.Regressed[0] != "b.rts" || report.Regressed[1] != "z.rts" {
		t.Fatalf("regressed ids must be sorted: %v", report.Regressed)
	}
	// The input slice must not be mutated by the sort.
	if regressed[0] != "z.rts" {
		t.Fatal("caller slice was reordered")
	}
}

func TestBuildRunReportEmptyRun(t *testing.T) {
	run := &types.ValidationRun{RunID: "run-0", Fingerprint: "fp"}
	report := BuildRunReport(run, true, nil, 0, metrics.Snapshot{})

	if report.Total != 0 || report.PassPercent != 0 {
		t.Fatalf("empty run must report zero totals: %+v", report)
	}
	if report.NextTarget != "" || report.NextFailure != nil {
		t.Fatalf("empty run has no next target: %+v", report)
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := BuildRunReport(reportRun(), true, nil, time.Second, metrics.Snapshot{RunID: "run-1"})

	if err := report.WriteJSON(path); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	var got RunReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if got.RunID != "run-1" || got.Total != 3 || len(got.Samples) != 3 {
		t.Fatalf("round trip lost data: %+v", got)
	}
	if got.Metrics == nil || got.Metrics.RunID != "run-1" {
		t.Fatalf("metrics snapshot lost: %+v", got.Metrics)
	}
}
