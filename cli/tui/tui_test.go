package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/chisel/harness"
	"github.com/pithecene-io/chisel/types"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		{"status_corpus", true},
		{"status_run", true},

		{"run", false},
		{"next", false},
		{"sync", false},
		{"version", false},
		{"unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			got := IsTUISupported(tt.viewType)
			if got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}
}

func TestSupportedTUIViews(t *testing.T) {
	views := SupportedTUIViews()
	if len(views) != 2 {
		t.Errorf("SupportedTUIViews() returned %d views, expected 2", len(views))
	}
	for _, v := range views {
		if !IsTUISupported(v) {
			t.Errorf("SupportedTUIViews() returned %q but IsTUISupported returns false", v)
		}
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	err := Run("run", nil)
	if err == nil {
		t.Error("Expected error for unsupported view type")
	}
}

func statusData() *StatusData {
	return &StatusData{
		GrammarFingerprint: "abcdef1234567890",
		Total:              3,
		Passing:            1,
		Failing:            2,
		Rows: []StatusRow{
			{
				SampleID:   "scans/beta.rts",
				Syntactic:  "fail",
				Structural: "not_run",
				Combined:   "fail",
				Diagnostic: &types.Diagnostic{
					SampleID: "scans/beta.rts",
					Kind:     types.KindSyntax,
					Line:     4,
					Col:      2,
					Message:  "unexpected token $text",
				},
			},
			{
				SampleID:   "strategies/zeta.rts",
				Syntactic:  "pass",
				Structural: "fail",
				Combined:   "fail",
			},
		},
	}
}

func TestStatusViewRendersRowsAndDiagnostic(t *testing.T) {
	out := RenderStatusStatic("status_corpus", statusData())

	for _, want := range []string{"Corpus Status", "scans/beta.rts", "strategies/zeta.rts", "unexpected token $text", "line 4 col 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRunViewRendersVerdictAndNextTarget(t *testing.T) {
	report := &harness.RunReport{
		GrammarFingerprint: "abcdef1234567890",
		Total:              3,
		Passed:             2,
		Failed:             1,
		PassPercent:        66.67,
		Accepted:           false,
		Regressed:          []types.SampleID{"a.rts"},
		NextTarget:         "scans/beta.rts",
	}

	out := RenderStatusStatic("status_run", report)
	for _, want := range []string{"Validation Run", "rejected (1 regressions)", "66.67%", "scans/beta.rts", "abcdef123456"} {
		if !strings.Contains(out, want) {
			t.Errorf("run view missing %q", want)
		}
	}
}

func TestRunViewAcceptedVerdict(t *testing.T) {
	report := &harness.RunReport{Total: 2, Passed: 2, PassPercent: 100, Accepted: true}
	out := RenderStatusStatic("status_run", report)
	if !strings.Contains(out, "accepted") {
		t.Errorf("run view missing accepted verdict: %q", out)
	}
}

func TestStatusViewWrongDataType(t *testing.T) {
	out := RenderStatusStatic("status_corpus", 42)
	if !strings.Contains(out, "Invalid data type") {
		t.Errorf("expected invalid-data message, got %q", out)
	}
}

func TestStatusModelCursorNavigation(t *testing.T) {
	m := NewStatusModel("status_corpus", statusData())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(StatusModel)
	if m.cursor != 1 {
		t.Fatalf("cursor = %d after down, want 1", m.cursor)
	}

	// Cursor clamps at the last row.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(StatusModel)
	if m.cursor != 1 {
		t.Fatalf("cursor = %d after down at end, want 1", m.cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(StatusModel)
	if m.cursor != 0 {
		t.Fatalf("cursor = %d after up, want 0", m.cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(StatusModel)
	if m.cursor != 0 {
		t.Fatalf("cursor = %d after up at start, want 0", m.cursor)
	}
}

func TestStatusModelQuit(t *testing.T) {
	m := NewStatusModel("status_corpus", statusData())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if next.(StatusModel).View() != "" {
		t.Error("quitting model must render nothing")
	}
}
