package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pithecene-io/chisel/iox"
	"github.com/pithecene-io/chisel/types"
)

// registryFormatVersion guards against reading a document written by an
// incompatible release.
const registryFormatVersion = 1

// ErrNotSynced is returned when a registry operation runs before Sync.
var ErrNotSynced = errors.New("registry not synced against the corpus")

// SyncReport summarizes one registry sync for observability.
type SyncReport struct {
	// Inserted is the number of freshly discovered samples.
	Inserted int `json:"inserted"`
	// Removed is the number of pruned entries whose sample disappeared.
	Removed int `json:"removed"`
	// Total is the registry size after the sync.
	Total int `json:"total"`
}

// registryDoc is the persisted JSON document.
type registryDoc struct {
	FormatVersion int                                       `json:"format_version"`
	Records       map[types.SampleID]types.ValidationRecord `json:"records"`
}

// Registry is the durable mapping from sample identity to its last known
// validation state.
//
// Invariant: after Sync, the key set equals the sample ids present on disk.
// Sync must run before any read or commit in a run; Commit applies a
// validation run all-or-nothing via an atomic rename, so a crash mid-write
// leaves the file fully pre- or fully post-update.
//
// A Registry is loaded fresh at the start of every invocation; there is no
// long-lived cache that could diverge from external corpus edits.
type Registry struct {
	path    string
	records map[types.SampleID]types.ValidationRecord
	synced  bool
}

// LoadRegistry reads the registry document at path.
// A missing file yields an empty registry: first sync populates it.
func LoadRegistry(path string) (*Registry, error) {
	r := &Registry{
		path:    path,
		records: map[types.SampleID]types.ValidationRecord{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read registry %q: %w", path, err)
	}

	var doc registryDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("registry %q is not valid JSON: %w", path, err)
	}
	if doc.FormatVersion != registryFormatVersion {
		return nil, fmt.Errorf("registry %q has format version %d, want %d",
			path, doc.FormatVersion, registryFormatVersion)
	}
	if doc.Records != nil {
		r.records = doc.Records
	}
	// Key and embedded id must agree; the key wins on disagreement.
	for id, rec := range r.records {
		if rec.SampleID != id {
			rec.SampleID = id
			r.records[id] = rec
		}
	}
	return r, nil
}

// Sync reconciles the registry against the current sample id set.
// New ids are inserted as pending records (syntactic fail, structural not
// run); entries whose sample disappeared are pruned. Idempotent: syncing
// twice with the same set is a no-op the second time.
//
// Sync persists immediately so that the on-disk key set never lags the
// corpus.
func (r *Registry) Sync(ids []types.SampleID) (SyncReport, error) {
	present := make(map[types.SampleID]struct{}, len(ids))
	for _, id := range ids {
		present[id] = struct{}{}
	}

	report := SyncReport{}
	for id := range r.records {
		if _, ok := present[id]; !ok {
			delete(r.records, id)
			report.Removed++
		}
	}
	for _, id := range ids {
		if _, ok := r.records[id]; !ok {
			r.records[id] = types.NewPendingRecord(id)
			report.Inserted++
		}
	}
	report.Total = len(r.records)
	r.synced = true

	if report.Inserted == 0 && report.Removed == 0 {
		return report, nil
	}
	if err := r.persist(); err != nil {
		return report, err
	}
	return report, nil
}

// Snapshot returns a deep copy of the registry state. Mutating the returned
// map never affects the registry.
func (r *Registry) Snapshot() (map[types.SampleID]types.ValidationRecord, error) {
	if !r.synced {
		return nil, ErrNotSynced
	}
	out := make(map[types.SampleID]types.ValidationRecord, len(r.records))
	for id, rec := range r.records {
		out[id] = rec.Clone()
	}
	return out, nil
}

// IDs returns the synced sample ids in lexical order.
func (r *Registry) IDs() ([]types.SampleID, error) {
	if !r.synced {
		return nil, ErrNotSynced
	}
	ids := make([]types.SampleID, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Commit folds an accepted validation run into the registry, replacing
// every record the run touched, and persists atomically. All-or-nothing:
// nothing is applied if the write fails.
//
// Partial runs (early stop, cancellation) are refused; their results are
// incomplete side information, not registry state.
func (r *Registry) Commit(run *types.ValidationRun) error {
	if !r.synced {
		return ErrNotSynced
	}
	if run.Partial {
		return errors.New("refusing to commit a partial validation run")
	}
	for _, res := range run.Results {
		if _, ok := r.records[res.SampleID]; !ok {
			return fmt.Errorf("run touches unknown sample %q; registry out of sync", res.SampleID)
		}
	}

	// Stage in a copy so a persist failure leaves memory at pre-run state.
	staged := make(map[types.SampleID]types.ValidationRecord, len(r.records))
	for id, rec := range r.records {
		staged[id] = rec
	}
	for _, res := range run.Results {
		staged[res.SampleID] = res.Record(run.Fingerprint)
	}

	prev := r.records
	r.records = staged
	if err := r.persist(); err != nil {
		r.records = prev
		return err
	}
	return nil
}

// persist writes the registry document via temp-file + atomic rename.
func (r *Registry) persist() error {
	doc := registryDoc{
		FormatVersion: registryFormatVersion,
		Records:       r.records,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create registry dir: %w", err)
		}
	}
	if err := iox.WriteFileAtomic(r.path, data, 0o644); err != nil {
		return fmt.Errorf("persist registry: %w", err)
	}
	return nil
}
