package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chisel/cli/render"
	"github.com/pithecene-io/chisel/corpus"
	"github.com/pithecene-io/chisel/grammar"
	"github.com/pithecene-io/chisel/selector"
	"github.com/pithecene-io/chisel/types"
)

// NextResponse is the response for the next command.
type NextResponse struct {
	SampleID   types.SampleID    `json:"sample_id,omitempty"`
	Stale      bool              `json:"stale,omitempty"`
	Diagnostic *types.Diagnostic `json:"diagnostic,omitempty"`
	AllGreen   bool              `json:"all_green"`
}

// NextCommand returns the next command: the deterministic next sample to
// work on, with its stored diagnostic.
func NextCommand() *cli.Command {
	return &cli.Command{
		Name:   "next",
		Usage:  "Show the next failing sample and its last diagnostic",
		Flags:  append(ReadOnlyFlags(), CorpusFlags()...),
		Action: nextAction,
	}
}

func nextAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for next command", 1)
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

	target, ok := selector.Bundle(snapshot, art.Fingerprint)
	if !ok {
		return r.Render(NextResponse{AllGreen: selector.AllGreen(snapshot, art.Fingerprint)})
	}

	resp := NextResponse{
		SampleID:   target.SampleID,
		Stale:      target.Stale,
		Diagnostic: target.Diagnostic,
	}
	if err := r.Render(resp); err != nil {
		return err
	}

	// The code context goes to stderr so json/yaml output stays parseable.
	if target.Diagnostic != nil && target.Diagnostic.Line > 0 {
		if sample, err := corpus.Read(cfg.Samples, target.SampleID); err == nil {
			printErrorContext(os.Stderr, sample.Content, target.Diagnostic.Line, target.Diagnostic.Col)
		}
	}
	return nil
}
