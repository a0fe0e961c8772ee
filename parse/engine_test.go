package parse

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ava12/llx"

	"github.com/pithecene-io/chisel/grammar"
	"github.com/pithecene-io/chisel/types"
)

// lineGrammar mirrors the shape of the shipped starter grammar: a
// line-oriented script of key-value pairs and comments.
const lineGrammar = `
$nl = /[ \t]*\r?\n/;
$comment = /[ \t]*\/\/[^\n]*/;
$pair = /[ \t]*[A-Za-z][A-Za-z0-9_.?]*[ \t]*:[^\n]*/;
script = {line};
line = [statement], $nl;
statement = pair | comment;
pair = $pair;
comment = $comment;
`

// strictGrammar accepts exactly one "begin" line, so that any other input
// produces a deterministic parser error.
const strictGrammar = `
$nl = /\r?\n/;
$word = /[a-z]+/;
script = 'begin', $nl;
`

func newTestEngine(t *testing.T, text string) *Engine {
	t.Helper()
	e, err := NewEngine(grammar.New("test.llx", text), DefaultSampleTimeout)
	if err != nil {
		t.Fatalf("grammar did not compile: %v", err)
	}
	return e
}

func TestNewEngineRejectsMalformedArtifact(t *testing.T) {
	_, err := NewEngine(grammar.New("broken.llx", "$tok = ;"), 0)
	if err == nil {
		t.Fatal("expected a compile error for a malformed artifact")
	}
}

func TestParseEmptySample(t *testing.T) {
	e := newTestEngine(t, lineGrammar)

	res, diag := e.Parse(context.Background(), "empty.rts", nil)
	if diag != nil {
		t.Fatalf("empty sample must parse, got %v", diag)
	}
	if len(res.Statements) != 0 {
		t.Fatalf("expected no statements, got %d", len(res.Statements))
	}
}

func TestParseCollectsStatements(t *testing.T) {
	e := newTestEngine(t, lineGrammar)
	content := []byte("Data: SPY\n// position sizing\n\nBarSize: Daily\n")

	res, diag := e.Parse(context.Background(), "s.rts", content)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if res.SampleID != "s.rts" {
		t.Fatalf("result carries wrong sample id %q", res.SampleID)
	}

	want := []Statement{
		{Node: "pair", Text: "Data: SPY", Line: 1},
		{Node: "comment", Text: "// position sizing", Line: 2},
		{Node: "pair", Text: "BarSize: Daily", Line: 4},
	}
	if len(res.Statements) != len(want) {
		t.Fatalf("expected %d statements, got %d: %+v", len(want), len(res.Statements), res.Statements)
	}
	for i, w := range want {
		got := res.Statements[i]
		if got.Node != w.Node || got.Text != w.Text || got.Line != w.Line {
			t.Errorf("statement %d: got %+v, want %+v", i, got, w)
		}
	}
	if res.NodeCount == 0 {
		t.Error("node count was not recorded")
	}
}

func TestParseNormalizesMissingTrailingNewline(t *testing.T) {
	e := newTestEngine(t, lineGrammar)

	res, diag := e.Parse(context.Background(), "s.rts", []byte("Data: SPY"))
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if len(res.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(res.Statements))
	}
}

func TestParseSyntaxErrorDiagnostic(t *testing.T) {
	e := newTestEngine(t, strictGrammar)

	res, diag := e.Parse(context.Background(), "bad.rts", []byte("end\n"))
	if res != nil {
		t.Fatalf("expected failure, got result %+v", res)
	}
	if diag == nil {
		t.Fatal("expected a diagnostic")
	}
	if diag.Kind != types.KindSyntax {
		t.Fatalf("expected syntax kind, got %s", diag.Kind)
	}
	if diag.SampleID != "bad.rts" {
		t.Fatalf("diagnostic carries wrong sample id %q", diag.SampleID)
	}
	if diag.Line != 1 || diag.Col != 1 {
		t.Fatalf("expected position 1:1, got %d:%d", diag.Line, diag.Col)
	}
	if diag.Unexpected != "$word" {
		t.Fatalf("expected unexpected token $word, got %q", diag.Unexpected)
	}
	if len(diag.Expected) != 1 || diag.Expected[0] != "begin" {
		t.Fatalf("expected [begin], got %v", diag.Expected)
	}
}

func TestParseTimeoutContained(t *testing.T) {
	e := newTestEngine(t, lineGrammar)
	e.timeout = time.Nanosecond

	// Large enough that the parse goroutine cannot beat an already-expired
	// timer to the select.
	content := []byte(strings.Repeat("Key: value\n", 20000))

	res, diag := e.Parse(context.Background(), "slow.rts", content)
	if res != nil {
		t.Fatalf("expected timeout, got result with %d statements", len(res.Statements))
	}
	if diag == nil || diag.Kind != types.KindInternal {
		t.Fatalf("expected internal diagnostic, got %v", diag)
	}
	if diag.SampleID != "slow.rts" {
		t.Fatalf("diagnostic carries wrong sample id %q", diag.SampleID)
	}

	// The failure is contained to that sample: the engine keeps serving
	// subsequent parses once the bound allows them.
	e.timeout = DefaultSampleTimeout
	res, diag = e.Parse(context.Background(), "ok.rts", []byte("Data: SPY\n"))
	if diag != nil {
		t.Fatalf("follow-up parse failed: %v", diag)
	}
	if len(res.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(res.Statements))
	}
}

func TestParseHonorsCanceledContext(t *testing.T) {
	e := newTestEngine(t, lineGrammar)
	e.timeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The worker may still win the race on a trivial input; either outcome
	// is acceptable as long as cancellation never reports a bogus pass of
	// a sample that was not parsed.
	res, diag := e.Parse(ctx, "s.rts", []byte("Data: SPY\n"))
	if res == nil {
		if diag == nil || diag.Kind != types.KindInternal {
			t.Fatalf("canceled parse must yield an internal diagnostic, got %v", diag)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize(nil); len(got) != 0 {
		t.Fatalf("empty input must stay empty, got %q", got)
	}
	if got := string(normalize([]byte("a\n"))); got != "a\n" {
		t.Fatalf("trailing newline must be preserved, got %q", got)
	}
	if got := string(normalize([]byte("a"))); got != "a\n" {
		t.Fatalf("missing newline must be appended, got %q", got)
	}
}

func TestSyntaxDiagnosticExtractsErrorParts(t *testing.T) {
	err := llx.NewError(0, "unexpected token $word, expecting begin", "s.rts", 2, 5)

	d := syntaxDiagnostic("s.rts", err)
	if d.Kind != types.KindSyntax {
		t.Fatalf("expected syntax kind, got %s", d.Kind)
	}
	if d.Line != 2 || d.Col != 5 {
		t.Fatalf("expected position 2:5, got %d:%d", d.Line, d.Col)
	}
	if d.Message != "unexpected token $word, expecting begin" {
		t.Fatalf("position suffix not stripped: %q", d.Message)
	}
	if d.Unexpected != "$word" {
		t.Fatalf("expected $word, got %q", d.Unexpected)
	}
	if len(d.Expected) != 1 || d.Expected[0] != "begin" {
		t.Fatalf("expected [begin], got %v", d.Expected)
	}
}

func TestSyntaxDiagnosticPlainError(t *testing.T) {
	d := syntaxDiagnostic("s.rts", context.DeadlineExceeded)
	if d.Kind != types.KindSyntax {
		t.Fatalf("expected syntax kind, got %s", d.Kind)
	}
	if d.Line != 0 || d.Unexpected != "" || d.Expected != nil {
		t.Fatalf("non-library error must not fake positions: %+v", d)
	}
}
