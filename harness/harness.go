// Package harness runs the two-stage validation pipeline over the sample
// corpus and produces a ValidationRun for the regression guard.
//
// Samples are independent, read-only parse targets. Workers produce
// immutable per-sample results with no shared mutable state; a single
// reducing step assembles them in caller order. The registry is never
// touched here — commit is the caller's final, separate step, so a
// cancelled run discards cleanly.
package harness

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pithecene-io/chisel/corpus"
	"github.com/pithecene-io/chisel/grammar"
	"github.com/pithecene-io/chisel/log"
	"github.com/pithecene-io/chisel/metrics"
	"github.com/pithecene-io/chisel/parse"
	"github.com/pithecene-io/chisel/structural"
	"github.com/pithecene-io/chisel/types"
)

// DefaultWorkers is the default validation parallelism.
const DefaultWorkers = 4

// ParserFactory builds a parsing capability for a grammar artifact.
// Used for test injection; the default compiles an llx engine fresh per
// run so grammar edits are always picked up.
type ParserFactory func(a *grammar.Artifact) (parse.Parser, error)

// Config configures a Harness.
type Config struct {
	// Factory overrides parser creation. If nil, parse.NewEngine is used
	// with the configured sample timeout.
	Factory ParserFactory
	// Checks is the Stage 2 suite. If nil, structural.DefaultSuite().
	Checks *structural.Suite
	// Workers is the validation parallelism. Early mode always runs with
	// one worker so "first failure" is deterministic.
	Workers int
	// Early stops the run at the first Stage 1 failure. The resulting run
	// is partial and is never committed.
	Early bool
	// Logger receives run progress. If nil, logging is skipped.
	Logger *log.Logger
	// Collector receives per-sample metrics. Nil-safe.
	Collector *metrics.Collector
}

// Harness executes validation runs.
type Harness struct {
	config Config
}

// New creates a Harness.
func New(config Config) *Harness {
	if config.Checks == nil {
		config.Checks = structural.DefaultSuite()
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	return &Harness{config: config}
}

// Run validates samples against the grammar artifact in the given order
// and returns the run result. Per-sample failures are contained in the
// results; the returned error is non-nil only for operator-level problems
// (grammar does not compile) or cancellation.
func (h *Harness) Run(ctx context.Context, samples []corpus.Sample, art *grammar.Artifact) (*types.ValidationRun, error) {
	parser, err := h.buildParser(art)
	if err != nil {
		return nil, err
	}

	run := &types.ValidationRun{
		RunID:       uuid.NewString(),
		Fingerprint: art.Fingerprint,
	}

	h.logInfo("starting validation run", map[string]any{
		"run_id":  run.RunID,
		"samples": len(samples),
		"early":   h.config.Early,
	})

	var results []types.SampleResult
	if h.config.Early {
		results, run.Partial = h.runEarly(ctx, parser, samples)
	} else {
		results = h.runParallel(ctx, parser, samples)
	}
	run.Results = results

	if err := ctx.Err(); err != nil {
		run.Partial = true
		return run, fmt.Errorf("validation run canceled: %w", err)
	}

	h.logInfo("validation run finished", map[string]any{
		"run_id":  run.RunID,
		"passed":  run.Passed(),
		"total":   len(run.Results),
		"partial": run.Partial,
	})
	return run, nil
}

func (h *Harness) buildParser(art *grammar.Artifact) (parse.Parser, error) {
	if h.config.Factory != nil {
		return h.config.Factory(art)
	}
	return parse.NewEngine(art, parse.DefaultSampleTimeout)
}

// runEarly validates sequentially and stops after the first Stage 1
// failure. Partial is true when samples were left unvalidated.
func (h *Harness) runEarly(ctx context.Context, parser parse.Parser, samples []corpus.Sample) ([]types.SampleResult, bool) {
	var results []types.SampleResult
	for i, s := range samples {
		if ctx.Err() != nil {
			return results, true
		}
		res := h.validateSample(ctx, parser, s)
		results = append(results, res)
		if res.Syntactic != types.StagePass {
			return results, i < len(samples)-1
		}
	}
	return results, false
}

// runParallel fans samples out over the worker pool. Results land in a
// pre-sized slice indexed by sample position, so output order equals input
// order regardless of worker scheduling.
func (h *Harness) runParallel(ctx context.Context, parser parse.Parser, samples []corpus.Sample) []types.SampleResult {
	results := make([]types.SampleResult, len(samples))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := h.config.Workers
	if workers > len(samples) {
		workers = len(samples)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = h.validateSample(ctx, parser, samples[i])
			}
		}()
	}

dispatch:
	for i := range samples {
		select {
		case jobs <- i:
		case <-ctx.Done():
			// Mark the undispatched tail as untouched pending results.
			for j := i; j < len(samples); j++ {
				results[j] = pendingResult(samples[j].ID)
			}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	// Workers that had already taken a job may have overwritten some of the
	// pending placeholders; that is fine, their results are real.
	return results
}

func pendingResult(id types.SampleID) types.SampleResult {
	return types.SampleResult{
		SampleID:   id,
		Syntactic:  types.StageFail,
		Structural: types.StageNotRun,
		Diagnostic: &types.Diagnostic{
			SampleID: id,
			Kind:     types.KindInternal,
			Message:  "validation canceled before this sample was processed",
		},
	}
}

// validateSample runs both stages for one sample. Stage 2 only runs when
// Stage 1 passes; a Stage 1 internal error (crash, timeout) is recorded as
// a syntactic failure with an internal_error diagnostic.
func (h *Harness) validateSample(ctx context.Context, parser parse.Parser, s corpus.Sample) types.SampleResult {
	h.config.Collector.IncSampleValidated()

	parsed, diag := parser.Parse(ctx, s.ID, s.Content)
	if diag != nil {
		if diag.Kind == types.KindInternal {
			h.config.Collector.IncInternalError()
		} else {
			h.config.Collector.IncSyntacticFail()
		}
		h.logDebug("stage 1 failed", map[string]any{
			"sample": s.ID,
			"kind":   string(diag.Kind),
			"line":   diag.Line,
		})
		return types.SampleResult{
			SampleID:   s.ID,
			Syntactic:  types.StageFail,
			Structural: types.StageNotRun,
			Diagnostic: diag,
		}
	}
	h.config.Collector.IncSyntacticPass()

	if d := h.config.Checks.Check(s.ID, s.Content, parsed); d != nil {
		h.config.Collector.IncStructuralFail()
		h.logDebug("stage 2 failed", map[string]any{
			"sample": s.ID,
			"line":   d.Line,
		})
		return types.SampleResult{
			SampleID:   s.ID,
			Syntactic:  types.StagePass,
			Structural: types.StageFail,
			Diagnostic: d,
		}
	}
	h.config.Collector.IncStructuralPass()

	return types.SampleResult{
		SampleID:   s.ID,
		Syntactic:  types.StagePass,
		Structural: types.StagePass,
	}
}

func (h *Harness) logInfo(msg string, fields map[string]any) {
	if h.config.Logger != nil {
		h.config.Logger.Info(msg, fields)
	}
}

func (h *Harness) logDebug(msg string, fields map[string]any) {
	if h.config.Logger != nil {
		h.config.Logger.Debug(msg, fields)
	}
}
