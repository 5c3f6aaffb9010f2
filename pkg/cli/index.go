package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"leadagent/pkg/usecase/indexer"
)

func indexCommand() *cli.Command {
	var (
		cfg         config
		inputPath   string
		concurrency int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to the normalized FAQ corpus JSON file",
			Sources:     cli.EnvVars("LEADAGENT_CORPUS_INPUT"),
			Destination: &inputPath,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "How many records to embed at once",
			Value:       indexer.DefaultConcurrency,
			Sources:     cli.EnvVars("LEADAGENT_INDEX_CONCURRENCY"),
			Destination: &concurrency,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "index",
		Usage: "Embed a normalized corpus into the FAQ index",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			records, err := indexer.LoadCorpus(inputPath)
			if err != nil {
				return err
			}

			_, index, err := cfg.newRepositories(ctx)
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			x := indexer.New(gemini, index, indexer.WithConcurrency(int(concurrency)))
			result, err := x.Run(ctx, records)
			if err != nil {
				return goerr.Wrap(err, "failed to index corpus")
			}

			fmt.Fprintf(c.Root().Writer, "Indexed: %d, Skipped: %d, Failed: %d\n",
				result.Indexed, result.Skipped, result.Failed)
			return nil
		},
	}
}
