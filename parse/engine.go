package parse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ava12/llx"
	"github.com/ava12/llx/langdef"
	llxparser "github.com/ava12/llx/parser"
	"github.com/ava12/llx/source"
	"github.com/ava12/llx/tree"

	"github.com/pithecene-io/chisel/grammar"
	"github.com/pithecene-io/chisel/types"
)

// DefaultSampleTimeout bounds a single sample's parse. Grammar edits can
// introduce catastrophic backtracking; exceeding the bound yields an
// internal_error diagnostic instead of hanging the run.
const DefaultSampleTimeout = 5 * time.Second

// Engine is the llx-backed parsing capability.
//
// The grammar is compiled once per Engine and an Engine lives for exactly
// one validation run, so grammar edits between runs are always picked up.
// Parse is safe for concurrent use: the underlying parser allocates its
// context per call.
type Engine struct {
	artifact *grammar.Artifact
	parser   *llxparser.Parser
	timeout  time.Duration
}

// NewEngine compiles the grammar artifact into a parser.
// A malformed artifact is an operator error, not a sample diagnostic.
func NewEngine(a *grammar.Artifact, timeout time.Duration) (*Engine, error) {
	g, err := langdef.ParseString(a.Name, a.Text)
	if err != nil {
		return nil, fmt.Errorf("grammar artifact %s does not compile: %w", a.Name, err)
	}
	if timeout <= 0 {
		timeout = DefaultSampleTimeout
	}
	return &Engine{
		artifact: a,
		parser:   llxparser.New(g),
		timeout:  timeout,
	}, nil
}

// Artifact returns the grammar artifact the engine was compiled from.
func (e *Engine) Artifact() *grammar.Artifact { return e.artifact }

type parseOutcome struct {
	result *Result
	diag   *types.Diagnostic
}

// Parse implements Parser. The parse runs in its own goroutine bounded by
// the engine timeout and the caller context; panics are converted to
// internal_error diagnostics.
func (e *Engine) Parse(ctx context.Context, id types.SampleID, content []byte) (*Result, *types.Diagnostic) {
	done := make(chan parseOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- parseOutcome{diag: &types.Diagnostic{
					SampleID: id,
					Kind:     types.KindInternal,
					Message:  fmt.Sprintf("parser panic: %v", r),
				}}
			}
		}()
		done <- e.parseSample(id, content)
	}()

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.result, out.diag
	case <-ctx.Done():
		return nil, &types.Diagnostic{
			SampleID: id,
			Kind:     types.KindInternal,
			Message:  fmt.Sprintf("parse canceled: %v", ctx.Err()),
		}
	case <-timer.C:
		// The worker goroutine is abandoned; it holds no shared state.
		return nil, &types.Diagnostic{
			SampleID: id,
			Kind:     types.KindInternal,
			Message:  fmt.Sprintf("parse exceeded %s bound", e.timeout),
		}
	}
}

func (e *Engine) parseSample(id types.SampleID, content []byte) parseOutcome {
	text := normalize(content)

	hooks := &llxparser.Hooks{
		NonTerms: llxparser.NonTermHooks{
			llxparser.AnyNonTerm: tree.NonTermHook,
		},
	}
	queue := source.NewQueue().Append(source.New(string(id), text))

	res, err := e.parser.Parse(queue, hooks)
	if err != nil {
		return parseOutcome{diag: syntaxDiagnostic(id, err)}
	}

	root, ok := res.(tree.Node)
	if !ok {
		return parseOutcome{diag: &types.Diagnostic{
			SampleID: id,
			Kind:     types.KindInternal,
			Message:  fmt.Sprintf("parser returned %T, not a tree node", res),
		}}
	}

	result := &Result{SampleID: id}
	collectStatements(root, result)
	return parseOutcome{result: result}
}

// normalize guarantees a trailing newline so that line-oriented grammars do
// not reject the final line. Empty samples stay empty: a zero-length script
// is a valid input and must parse (or fail) on its own terms.
func normalize(content []byte) []byte {
	if len(content) == 0 || content[len(content)-1] == '\n' {
		return content
	}
	out := make([]byte, len(content)+1)
	copy(out, content)
	out[len(content)] = '\n'
	return out
}

// collectStatements walks the tree and records every child of the root
// production as a top-level statement, skipping bare separator tokens.
func collectStatements(root tree.Node, result *Result) {
	tree.Walk(root, tree.WalkLtr, func(n tree.Node) (walkChildren, walkSiblings bool) {
		result.NodeCount++
		if n.IsNonTerm() {
			return true, true
		}
		tok := n.Token()
		if tok == nil {
			return false, true
		}
		text := strings.TrimRight(tok.Text(), "\r\n")
		if text == "" {
			return false, true
		}
		result.Statements = append(result.Statements, Statement{
			Node: statementNode(n),
			Text: text,
			Line: tok.Line(),
		})
		return false, true
	})
}

// statementNode names the statement by its nearest non-terminal ancestor,
// falling back to the token type name.
func statementNode(n tree.Node) string {
	if p := n.Parent(); p != nil {
		return p.TypeName()
	}
	return n.TypeName()
}

// syntaxDiagnostic converts a parser error into a syntax diagnostic,
// best-effort extracting position, the unexpected token, and the expected
// set from the library error.
func syntaxDiagnostic(id types.SampleID, err error) *types.Diagnostic {
	d := &types.Diagnostic{
		SampleID: id,
		Kind:     types.KindSyntax,
		Message:  err.Error(),
	}

	le, ok := err.(*llx.Error)
	if !ok {
		return d
	}
	d.Line = le.Line
	d.Col = le.Col

	// Parser messages read "unexpected token $name, expecting X in <src>
	// at line L col C". Strip the position suffix, then split the clauses.
	msg := le.Message
	if le.SourceName != "" && le.Line != 0 {
		suffix := fmt.Sprintf(" in %s at line %d col %d", le.SourceName, le.Line, le.Col)
		msg = strings.TrimSuffix(msg, suffix)
	}
	d.Message = msg

	if i := strings.Index(msg, ", expecting "); i >= 0 {
		head := msg[:i]
		if j := strings.Index(head, "$"); j >= 0 {
			d.Unexpected = head[j:]
		}
		for _, exp := range strings.Split(msg[i+len(", expecting "):], " or ") {
			exp = strings.TrimSpace(exp)
			if exp != "" {
				d.Expected = append(d.Expected, exp)
			}
		}
	}
	return d
}
