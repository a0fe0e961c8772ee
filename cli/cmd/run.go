package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chisel/cli/config"
	"github.com/pithecene-io/chisel/cli/tui"
	"github.com/pithecene-io/chisel/corpus"
	"github.com/pithecene-io/chisel/grammar"
	"github.com/pithecene-io/chisel/guard"
	"github.com/pithecene-io/chisel/harness"
	"github.com/pithecene-io/chisel/log"
	"github.com/pithecene-io/chisel/metrics"
	"github.com/pithecene-io/chisel/parse"
	"github.com/pithecene-io/chisel/selector"
	"github.com/pithecene-io/chisel/types"
)

// Exit codes for chisel run.
const (
	exitAllPass        = 0
	exitFailuresRemain = 1
	exitRegression     = 2
	exitInternal       = 3
)

// RunCommand returns the run command.
// This is the only command that writes to the registry.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Validate the corpus against the grammar and fold accepted results into the registry",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "sample",
				Usage: "Validate a single sample (relative path within the corpus)",
			},
			&cli.BoolFlag{
				Name:  "early",
				Usage: "Stop at the first syntactic failure and surface it immediately",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a JSON run report to this path",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Validation parallelism",
			},
			&cli.DurationFlag{
				Name:  "sample-timeout",
				Usage: "Per-sample parse bound (e.g. 5s)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress the per-sample table and summary",
			},
			TUIFlag,
			ConfigFlag,
			NoColorFlag,
		}, CorpusFlags()...),
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitInternal)
	}

	art, err := grammar.Load(cfg.Grammar)
	if err != nil {
		return cli.Exit(fmt.Sprintf("grammar: %v", err), exitInternal)
	}

	reg, ids, syncReport, err := openRegistry(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("registry: %v", err), exitInternal)
	}

	runIDs := ids
	if target := c.String("sample"); target != "" {
		if !containsID(ids, target) {
			return cli.Exit(fmt.Sprintf("sample %q is not in the corpus", target), exitInternal)
		}
		runIDs = []types.SampleID{target}
	}

	samples, err := corpus.ReadAll(cfg.Samples, runIDs)
	if err != nil {
		return cli.Exit(fmt.Sprintf("read samples: %v", err), exitInternal)
	}

	logger := log.NewLoggerAt(log.RunContext{GrammarFingerprint: art.Fingerprint}, cfg.LogLevel)
	collector := metrics.NewCollector("", art.Fingerprint)

	h := harness.New(harness.Config{
		Factory: func(a *grammar.Artifact) (parse.Parser, error) {
			return parse.NewEngine(a, cfg.SampleTimeout.Duration)
		},
		Workers:   cfg.Workers,
		Early:     c.Bool("early"),
		Logger:    logger,
		Collector: collector,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	start := time.Now()
	run, err := h.Run(ctx, samples, art)
	if err != nil {
		return cli.Exit(fmt.Sprintf("validation run failed: %v", err), exitInternal)
	}
	duration := time.Since(start)

	prior, err := reg.Snapshot()
	if err != nil {
		return cli.Exit(fmt.Sprintf("registry: %v", err), exitInternal)
	}
	decision := guard.Evaluate(prior, run)

	if decision.Accepted {
		if !run.Partial {
			if err := reg.Commit(run); err != nil {
				return cli.Exit(fmt.Sprintf("commit: %v", err), exitInternal)
			}
			collector.IncRunAccepted()
		}
	} else {
		collector.IncRunRejected(len(decision.Regressed))
	}

	snap := collector.Snapshot()
	snap.RunID = run.RunID
	report := harness.BuildRunReport(run, decision.Accepted, decision.Regressed, duration, snap)

	if path := reportPath(c, cfg); path != "" {
		if err := report.WriteJSON(path); err != nil {
			return cli.Exit(fmt.Sprintf("report: %v", err), exitInternal)
		}
	}

	if c.Bool("tui") {
		if err := tui.Run("status_run", report); err != nil {
			return cli.Exit(fmt.Sprintf("tui: %v", err), exitInternal)
		}
	} else if !c.Bool("quiet") {
		printRunSummary(os.Stdout, run, decision, samples, syncReport)
	}

	if !decision.Accepted {
		return cli.Exit("", exitRegression)
	}

	current, err := reg.Snapshot()
	if err != nil {
		return cli.Exit(fmt.Sprintf("registry: %v", err), exitInternal)
	}
	if selector.AllGreen(current, art.Fingerprint) {
		return cli.Exit("", exitAllPass)
	}
	return cli.Exit("", exitFailuresRemain)
}

func reportPath(c *cli.Context, cfg *config.Config) string {
	if p := c.String("report"); p != "" {
		return p
	}
	return cfg.Report
}

func containsID(ids []types.SampleID, id types.SampleID) bool {
	i := sort.SearchStrings(ids, id)
	return i < len(ids) && ids[i] == id
}

// printRunSummary writes the per-sample table, the pass-rate line, the
// guard verdict, and the first failing diagnostic with code context.
func printRunSummary(w io.Writer, run *types.ValidationRun, decision guard.Decision, samples []corpus.Sample, sync corpus.SyncReport) {
	if sync.Inserted > 0 || sync.Removed > 0 {
		fmt.Fprintf(w, "registry sync: +%d -%d (%d samples)\n\n", sync.Inserted, sync.Removed, sync.Total)
	}

	failed := 0
	for _, r := range run.Results {
		if r.Combined() == types.CombinedPass {
			continue
		}
		failed++
		pos := ""
		if r.Diagnostic != nil && r.Diagnostic.Line > 0 {
			pos = fmt.Sprintf("  line %d", r.Diagnostic.Line)
		}
		fmt.Fprintf(w, "FAIL  %-40s  %s/%s%s\n", r.SampleID, r.Syntactic, r.Structural, pos)
	}
	if failed > 0 {
		fmt.Fprintln(w)
	}

	total := len(run.Results)
	passed := run.Passed()
	percent := 0.0
	if total > 0 {
		percent = 100 * float64(passed) / float64(total)
	}
	fmt.Fprintf(w, "%d/%d samples passed (%.1f%%)\n", passed, total, percent)
	if run.Partial {
		fmt.Fprintln(w, "run was partial; registry left untouched")
	}

	if !decision.Accepted {
		fmt.Fprintf(w, "\nREJECTED: %d sample(s) regressed:\n", len(decision.Regressed))
		for _, id := range decision.Regressed {
			fmt.Fprintf(w, "  %s\n", id)
		}
		fmt.Fprintln(w, "registry left untouched")
	}

	if d := run.FirstFailure(); d != nil {
		fmt.Fprintf(w, "\nfirst failure: %s\n", d.String())
		if content, ok := sampleContent(samples, d.SampleID); ok {
			printErrorContext(w, content, d.Line, d.Col)
		}
	}
}

func sampleContent(samples []corpus.Sample, id types.SampleID) ([]byte, bool) {
	for _, s := range samples {
		if s.ID == id {
			return s.Content, true
		}
	}
	return nil, false
}

// contextRadius is how many lines before and after the failing line are
// shown around a diagnostic.
const contextRadius = 5

// printErrorContext prints the sample lines around the failure with a
// caret under the offending column.
func printErrorContext(w io.Writer, content []byte, line, col int) {
	if line <= 0 {
		return
	}
	lines := strings.Split(string(content), "\n")
	if line > len(lines) {
		return
	}

	start := line - 1 - contextRadius
	if start < 0 {
		start = 0
	}
	end := line + contextRadius
	if end > len(lines) {
		end = len(lines)
	}

	for i := start; i < end; i++ {
		marker := "  "
		if i == line-1 {
			marker = "> "
		}
		fmt.Fprintf(w, "%s%4d | %s\n", marker, i+1, lines[i])
		if i == line-1 && col > 0 {
			fmt.Fprintf(w, "  %4s | %s^\n", "", strings.Repeat(" ", col-1))
		}
	}
}
