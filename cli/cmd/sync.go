package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/chisel/cli/render"
)

// SyncCommand returns the sync command: reconcile the registry against the
// corpus without running validation.
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Sync the registry against the sample corpus",
		Flags:  append(ReadOnlyFlags(), CorpusFlags()...),
		Action: syncAction,
	}
}

func syncAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for sync command", 1)
	}

	cfg, err := resolveConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitInternal)
	}

	_, _, report, err := openRegistry(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("registry: %v", err), exitInternal)
	}

	return r.Render(report)
}
