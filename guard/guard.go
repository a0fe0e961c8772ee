// Package guard enforces the monotonic-frontier rule: a grammar edit is
// only accepted if every sample that passed before still passes.
//
// The frontier is the set of sample ids whose prior combined status was
// Pass, regardless of the fingerprint those records were computed under —
// an edit is judged against everything the corpus has ever earned, not
// just records from the immediately preceding grammar.
package guard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pithecene-io/chisel/types"
)

// Decision is the guard's verdict on one validation run.
type Decision struct {
	// Accepted is true when no previously passing sample regressed.
	Accepted bool
	// Regressed lists the violating sample ids in lexical order.
	// Empty when Accepted.
	Regressed []types.SampleID
}

// RejectError reports a rejected grammar edit. It is a meta-error about
// the edit under test, not about any single sample; the run's results are
// still available for inspection, but the registry stays at its pre-run
// state.
type RejectError struct {
	// Regressed lists the samples that would break, verbatim.
	Regressed []types.SampleID
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("grammar edit rejected: %d previously passing sample(s) would regress: %s",
		len(e.Regressed), strings.Join(e.Regressed, ", "))
}

// Evaluate compares a validation run against the prior registry snapshot.
//
// Rule: for every sample whose prior combined status was Pass and which the
// run covers, the run's combined status must also be Pass. Any violation
// rejects the update in its entirety — no partial commit. Samples the run
// does not cover (single-file mode) keep their prior records and are not
// regressions.
func Evaluate(prior map[types.SampleID]types.ValidationRecord, run *types.ValidationRun) Decision {
	var regressed []types.SampleID
	for id, rec := range prior {
		if rec.Combined() != types.CombinedPass {
			continue
		}
		res, covered := run.Result(id)
		if !covered {
			continue
		}
		if res.Combined() != types.CombinedPass {
			regressed = append(regressed, id)
		}
	}
	sort.Strings(regressed)
	return Decision{
		Accepted:  len(regressed) == 0,
		Regressed: regressed,
	}
}

// Err returns a RejectError for a rejecting decision, nil otherwise.
func (d Decision) Err() error {
	if d.Accepted {
		return nil
	}
	return &RejectError{Regressed: d.Regressed}
}
