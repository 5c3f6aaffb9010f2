package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"leadagent/pkg/model"
)

func profileCommand() *cli.Command {
	var (
		cfg    config
		userID string
		asJSON bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "Lead identity to inspect",
			Sources:     cli.EnvVars("LEADAGENT_USER_ID"),
			Destination: &userID,
			Required:    true,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print the raw profile as JSON",
			Destination: &asJSON,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, leadFlags(&cfg)...)

	return &cli.Command{
		Name:  "profile",
		Usage: "Show the stored profile of a lead",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			store, _, err := cfg.newRepositories(ctx)
			if err != nil {
				return err
			}

			ns := model.NewMemoryNamespace(model.UserID(userID))
			profile, err := store.GetProfile(ctx, ns, model.ProfileKey)
			if err != nil {
				return goerr.Wrap(err, "failed to load profile")
			}

			if asJSON {
				data, err := json.MarshalIndent(profile, "", "  ")
				if err != nil {
					return goerr.Wrap(err, "failed to encode profile")
				}
				fmt.Fprintf(c.Root().Writer, "%s\n", data)
			} else {
				fmt.Fprintf(c.Root().Writer, "%s\n", profile.FormatMemory())
			}

			engine, err := cfg.newWorkflow(ctx)
			if err != nil {
				return err
			}
			decision, err := engine.Evaluate(ctx, profile)
			if err != nil {
				return goerr.Wrap(err, "failed to evaluate qualification")
			}
			if decision != nil {
				if decision.Qualified {
					fmt.Fprintf(c.Root().Writer, "\nQualified: yes (%s)\n", strings.Join(decision.Reasons, ", "))
				} else {
					fmt.Fprintf(c.Root().Writer, "\nQualified: no\n")
				}
			}

			return nil
		},
	}
}
