// Package selector deterministically picks the next sample to work on.
//
// Selection is a pure function of the registry snapshot: the
// lexicographically first sample whose combined status is Fail, regardless
// of run or filesystem ordering. Deterministic selection keeps grammar
// iteration reproducible — two operators looking at the same registry see
// the same next target.
package selector

import (
	"sort"

	"github.com/pithecene-io/chisel/types"
)

// Target is the selected sample plus its stored failure context.
type Target struct {
	// SampleID is the selected sample.
	SampleID types.SampleID
	// Diagnostic is the stored last error, nil if the sample has never
	// produced one (fresh sync).
	Diagnostic *types.Diagnostic
	// Stale is true when the stored record was computed under a grammar
	// other than current (pass/fail may no longer reflect reality).
	Stale bool
}

// NextTarget returns the lexicographically first failing sample, or
// ok=false when every sample's combined status is Pass.
func NextTarget(snapshot map[types.SampleID]types.ValidationRecord) (types.SampleID, bool) {
	ids := make([]types.SampleID, 0, len(snapshot))
	for id, rec := range snapshot {
		if rec.Combined() == types.CombinedFail {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", false
	}
	sort.Strings(ids)
	return ids[0], true
}

// Bundle returns the next target with its stored diagnostic, evaluating
// staleness against the current grammar fingerprint.
func Bundle(snapshot map[types.SampleID]types.ValidationRecord, currentFingerprint string) (Target, bool) {
	id, ok := NextTarget(snapshot)
	if !ok {
		return Target{}, false
	}
	rec := snapshot[id]
	t := Target{SampleID: id, Stale: rec.StaleUnder(currentFingerprint)}
	if rec.LastError != nil {
		d := rec.LastError.Clone()
		t.Diagnostic = &d
	}
	return t, true
}

// AllGreen reports whether every record passes under the current grammar
// fingerprint. Records passing under a stale fingerprint do not count:
// they are unknown until revalidated.
func AllGreen(snapshot map[types.SampleID]types.ValidationRecord, currentFingerprint string) bool {
	for _, rec := range snapshot {
		if rec.Combined() != types.CombinedPass || rec.StaleUnder(currentFingerprint) {
			return false
		}
	}
	return true
}
