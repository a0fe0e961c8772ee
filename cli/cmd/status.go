package cmd

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chisel/cli/render"
	"github.com/pithecene-io/chisel/cli/tui"
	"github.com/pithecene-io/chisel/grammar"
	"github.com/pithecene-io/chisel/types"
)

// StatusCommand returns the status command: a read-only view of the
// registry under the current grammar.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show per-sample validation status from the registry",
		Flags:  append(ReadOnlyFlags(), CorpusFlags()...),
		Action: statusAction,
	}
}

func statusAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitInternal)
	}

	art, err := grammar.Load(cfg.Grammar)
	if err != nil {
		return cli.Exit(fmt.Sprintf("grammar: %v", err), exitInternal)
	}

	reg, _, _, err := openRegistry(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("registry: %v", err), exitInternal)
	}
	snapshot, err := reg.Snapshot()
	if err != nil {
		return cli.Exit(fmt.Sprintf("registry: %v", err), exitInternal)
	}

	data := buildStatusData(snapshot, art.Fingerprint)

	if c.Bool("tui") {
		return r.RenderTUI("status_corpus", data)
	}
	return r.Render(data)
}

// buildStatusData shapes the registry snapshot for rendering. Passing
// samples are summarized in the counts; rows list everything that needs
// attention (failing or stale), lexicographically.
func buildStatusData(snapshot map[types.SampleID]types.ValidationRecord, fingerprint string) *tui.StatusData {
	data := &tui.StatusData{
		GrammarFingerprint: fingerprint,
		Total:              len(snapshot),
	}

	ids := make([]types.SampleID, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rec := snapshot[id]
		stale := rec.StaleUnder(fingerprint)
		switch {
		case rec.Combined() == types.CombinedFail:
			data.Failing++
		case stale:
			data.Stale++
		default:
			data.Passing++
		}
		if rec.Combined() == types.CombinedPass && !stale {
			continue
		}
		data.Rows = append(data.Rows, tui.StatusRow{
			SampleID:   id,
			Syntactic:  string(rec.Syntactic),
			Structural: string(rec.Structural),
			Combined:   string(rec.Combined()),
			Stale:      stale,
			Diagnostic: rec.LastError,
		})
	}
	return data
}
