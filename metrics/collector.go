// Package metrics provides per-run metrics collection for the harness.
//
// The Collector accumulates counters during a single validation run. It is
// a leaf package with no internal dependencies. All increment methods are
// nil-receiver safe so callers never have to branch on an absent collector.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of run metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Per-sample stage outcomes
	SamplesValidated int64 `json:"samples_validated"`
	SyntacticPass    int64 `json:"syntactic_pass"`
	SyntacticFail    int64 `json:"syntactic_fail"`
	StructuralPass   int64 `json:"structural_pass"`
	StructuralFail   int64 `json:"structural_fail"`
	InternalErrors   int64 `json:"internal_errors"`

	// Run lifecycle
	RunsAccepted int64 `json:"runs_accepted"`
	RunsRejected int64 `json:"runs_rejected"`
	Regressions  int64 `json:"regressions"`

	// Dimensions (informational, set at construction)
	RunID              string `json:"run_id"`
	GrammarFingerprint string `json:"grammar_fingerprint"`
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex; workers increment concurrently.
type Collector struct {
	mu sync.Mutex

	samplesValidated int64
	syntacticPass    int64
	syntacticFail    int64
	structuralPass   int64
	structuralFail   int64
	internalErrors   int64

	runsAccepted int64
	runsRejected int64
	regressions  int64

	runID              string
	grammarFingerprint string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(runID, grammarFingerprint string) *Collector {
	return &Collector{
		runID:              runID,
		grammarFingerprint: grammarFingerprint,
	}
}

// IncSampleValidated records one sample passing through the harness.
func (c *Collector) IncSampleValidated() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samplesValidated++
}

// IncSyntacticPass records a Stage 1 pass.
func (c *Collector) IncSyntacticPass() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syntacticPass++
}

// IncSyntacticFail records a Stage 1 failure.
func (c *Collector) IncSyntacticFail() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syntacticFail++
}

// IncStructuralPass records a Stage 2 pass.
func (c *Collector) IncStructuralPass() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.structuralPass++
}

// IncStructuralFail records a Stage 2 failure.
func (c *Collector) IncStructuralFail() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.structuralFail++
}

// IncInternalError records a contained parser crash or timeout.
func (c *Collector) IncInternalError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.internalErrors++
}

// IncRunAccepted records a guard acceptance.
func (c *Collector) IncRunAccepted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runsAccepted++
}

// IncRunRejected records a guard rejection carrying n regressed samples.
func (c *Collector) IncRunRejected(n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runsRejected++
	c.regressions += int64(n)
}

// Snapshot returns an immutable view of the collected metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SamplesValidated:   c.samplesValidated,
		SyntacticPass:      c.syntacticPass,
		SyntacticFail:      c.syntacticFail,
		StructuralPass:     c.structuralPass,
		StructuralFail:     c.structuralFail,
		InternalErrors:     c.internalErrors,
		RunsAccepted:       c.runsAccepted,
		RunsRejected:       c.runsRejected,
		Regressions:        c.regressions,
		RunID:              c.runID,
		GrammarFingerprint: c.grammarFingerprint,
	}
}
