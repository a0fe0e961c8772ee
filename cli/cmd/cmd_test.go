package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pithecene-io/chisel/types"
)

func TestReadOnlyFlags_IncludesTUI(t *testing.T) {
	flags := ReadOnlyFlags()

	hasTUI := false
	for _, f := range flags {
		if f.Names()[0] == "tui" {
			hasTUI = true
			break
		}
	}

	if !hasTUI {
		t.Error("ReadOnlyFlags should include --tui flag for explicit error handling")
	}
}

func TestRunCommand_DefinesTUIFlag(t *testing.T) {
	for _, f := range RunCommand().Flags {
		for _, name := range f.Names() {
			if name == "tui" {
				return
			}
		}
	}
	t.Error("run command should define --tui for the post-run report view")
}

func TestContainsID(t *testing.T) {
	ids := []types.SampleID{"a.rts", "m.rts", "z.rts"}

	if !containsID(ids, "m.rts") {
		t.Error("expected m.rts to be found")
	}
	if containsID(ids, "b.rts") {
		t.Error("b.rts is not in the corpus")
	}
	if containsID(nil, "a.rts") {
		t.Error("empty corpus contains nothing")
	}
}

func TestPrintErrorContext(t *testing.T) {
	content := []byte("line one\nline two\nline three\nline four\nline five\nline six\nline seven\nline eight\nline nine\nline ten\nline eleven\nline twelve\n")

	var buf bytes.Buffer
	printErrorContext(&buf, content, 7, 6)
	out := buf.String()

	if !strings.Contains(out, ">    7 | line seven") {
		t.Errorf("failing line not marked:\n%s", out)
	}
	// Caret sits under column 6.
	if !strings.Contains(out, "|      ^") {
		t.Errorf("caret missing or misplaced:\n%s", out)
	}
	// Window is the failing line plus five lines each side.
	if strings.Contains(out, "line one\n") {
		t.Errorf("line outside context window shown:\n%s", out)
	}
	if !strings.Contains(out, "line two") || !strings.Contains(out, "line twelve") {
		t.Errorf("context window truncated:\n%s", out)
	}
}

func TestPrintErrorContext_EdgeLines(t *testing.T) {
	content := []byte("only line\n")

	var buf bytes.Buffer
	printErrorContext(&buf, content, 1, 1)
	if !strings.Contains(buf.String(), ">    1 | only line") {
		t.Errorf("first-line failure not rendered:\n%s", buf.String())
	}

	buf.Reset()
	printErrorContext(&buf, content, 99, 1)
	if buf.String() != "" {
		t.Errorf("out-of-range line must render nothing, got:\n%s", buf.String())
	}

	buf.Reset()
	printErrorContext(&buf, content, 0, 0)
	if buf.String() != "" {
		t.Errorf("unknown position must render nothing, got:\n%s", buf.String())
	}
}

func TestBuildStatusData(t *testing.T) {
	snapshot := map[types.SampleID]types.ValidationRecord{
		"pass.rts": {
			SampleID: "pass.rts", Syntactic: types.StagePass, Structural: types.StagePass,
			GrammarFingerprint: "fp",
		},
		"stale.rts": {
			SampleID: "stale.rts", Syntactic: types.StagePass, Structural: types.StagePass,
			GrammarFingerprint: "old-fp",
		},
		"fail.rts": {
			SampleID: "fail.rts", Syntactic: types.StageFail, Structural: types.StageNotRun,
			GrammarFingerprint: "fp",
			LastError: &types.Diagnostic{SampleID: "fail.rts", Kind: types.KindSyntax, Line: 2},
		},
	}

	data := buildStatusData(snapshot, "fp")

	if data.Total != 3 || data.Passing != 1 || data.Failing != 1 || data.Stale != 1 {
		t.Fatalf("wrong counts: %+v", data)
	}
	if len(data.Rows) != 2 {
		t.Fatalf("expected 2 attention rows, got %d", len(data.Rows))
	}
	// Rows are sorted lexicographically.
	if data.Rows[0].SampleID != "fail.rts" || data.Rows[1].SampleID != "stale.rts" {
		t.Fatalf("rows out of order: %+v", data.Rows)
	}
	if data.Rows[0].Diagnostic == nil || data.Rows[0].Diagnostic.Line != 2 {
		t.Fatalf("diagnostic not carried: %+v", data.Rows[0])
	}
	if !data.Rows[1].Stale {
		t.Fatalf("stale pass must be flagged: %+v", data.Rows[1])
	}
}

func TestBuildStatusData_Empty(t *testing.T) {
	data := buildStatusData(map[types.SampleID]types.ValidationRecord{}, "fp")
	if data.Total != 0 || len(data.Rows) != 0 {
		t.Fatalf("empty snapshot must yield empty data: %+v", data)
	}
}
