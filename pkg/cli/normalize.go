package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"leadagent/pkg/corpus"
)

func normalizeCommand() *cli.Command {
	var (
		cfg        config
		inputPath  string
		outputPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to the raw FAQ corpus JSON file",
			Sources:     cli.EnvVars("LEADAGENT_CORPUS_INPUT"),
			Destination: &inputPath,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Path to write the normalized corpus",
			Sources:     cli.EnvVars("LEADAGENT_CORPUS_OUTPUT"),
			Destination: &outputPath,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "normalize",
		Usage: "Normalize a raw FAQ corpus for indexing",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if _, err := cfg.setup(ctx); err != nil {
				return err
			}

			stats, err := corpus.ProcessFile(inputPath, outputPath)
			if err != nil {
				return goerr.Wrap(err, "failed to normalize corpus")
			}

			fmt.Fprintf(c.Root().Writer, "Total objects read: %d\n", stats.Read)
			fmt.Fprintf(c.Root().Writer, "Total objects discarded: %d\n", stats.Discarded)
			fmt.Fprintf(c.Root().Writer, "Total objects corrected: %d\n", stats.Corrected)
			return nil
		},
	}
}
