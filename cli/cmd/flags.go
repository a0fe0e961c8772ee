// Package cmd provides CLI commands for the chisel binary.
package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chisel/cli/config"
	"github.com/pithecene-io/chisel/corpus"
	"github.com/pithecene-io/chisel/types"
)

// Shared flags for all commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode: the corpus browser on
	// status and the post-run report view on run.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (status and run)",
	}

	// ConfigFlag points at the chisel.yaml config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to chisel.yaml config file",
		Value:   "chisel.yaml",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error
// messages instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
		ConfigFlag,
	}
}

// CorpusFlags returns the flags locating the grammar, corpus, and registry.
// Each overrides the corresponding chisel.yaml value.
func CorpusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "grammar",
			Usage: "Path to the grammar artifact",
		},
		&cli.StringFlag{
			Name:  "samples",
			Usage: "Corpus root directory",
		},
		&cli.StringFlag{
			Name:  "pattern",
			Usage: "Glob selecting sample files under the corpus root",
		},
		&cli.StringFlag{
			Name:  "registry",
			Usage: "Path of the registry file",
		},
	}
}

// resolveConfig layers flag values over the config file over built-in
// defaults. Flags win; empty flag values fall through.
func resolveConfig(c *cli.Context) (*config.Config, error) {
	fileCfg, err := config.LoadOptional(c.String("config"))
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{
		Grammar:  c.String("grammar"),
		Samples:  c.String("samples"),
		Pattern:  c.String("pattern"),
		Registry: c.String("registry"),
		Report:   c.String("report"),
		Workers:  c.Int("workers"),
		LogLevel: c.String("log-level"),
		NoColor:  c.Bool("no-color"),
	}
	if t := c.Duration("sample-timeout"); t > 0 {
		cfg.SampleTimeout = config.Duration{Duration: t}
	}
	cfg.Merge(fileCfg)
	cfg.Merge(config.Defaults())
	if cfg.Pattern == "" {
		cfg.Pattern = corpus.DefaultPattern
	}
	return cfg, nil
}

// openRegistry enumerates the corpus and syncs the registry against it, so
// every command observes the corpus-mirroring invariant.
func openRegistry(cfg *config.Config) (*corpus.Registry, []types.SampleID, corpus.SyncReport, error) {
	ids, err := corpus.Enumerate(cfg.Samples, cfg.Pattern)
	if err != nil {
		return nil, nil, corpus.SyncReport{}, fmt.Errorf("enumerate corpus: %w", err)
	}
	reg, err := corpus.LoadRegistry(cfg.Registry)
	if err != nil {
		return nil, nil, corpus.SyncReport{}, err
	}
	rep, err := reg.Sync(ids)
	if err != nil {
		return nil, nil, corpus.SyncReport{}, err
	}
	return reg, ids, rep, nil
}
