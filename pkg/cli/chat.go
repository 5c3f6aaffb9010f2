package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/genai"

	"leadagent/pkg/adapter"
	"leadagent/pkg/model"
	"leadagent/pkg/usecase/chat"
	"leadagent/pkg/utils/logging"
)

func chatCommand() *cli.Command {
	var (
		cfg       config
		userID    string
		sessionID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "Lead identity to converse as",
			Sources:     cli.EnvVars("LEADAGENT_USER_ID"),
			Destination: &userID,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "session",
			Usage:       "Archived session ID to resume from",
			Sources:     cli.EnvVars("LEADAGENT_SESSION_ID"),
			Destination: &sessionID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, leadFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive lead conversation",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setup(ctx)
			if err != nil {
				return err
			}

			store, index, err := cfg.newRepositories(ctx)
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			archive, err := cfg.newArchive(ctx)
			if err != nil {
				return err
			}

			analytics, err := cfg.newAnalytics(ctx)
			if err != nil {
				return err
			}

			engine, err := cfg.newWorkflow(ctx)
			if err != nil {
				return err
			}

			var contents []*genai.Content
			if sessionID != "" {
				if archive == nil {
					return goerr.New("bucket is required to resume a session")
				}
				contents, err = archive.LoadTranscript(ctx, model.SessionID(sessionID))
				if err != nil {
					return goerr.Wrap(err, "failed to resume session")
				}
			}

			session := chat.New(chat.NewInput{
				Gemini:    gemini,
				Store:     store,
				Augmenter: cfg.newAugmenter(gemini, index),
				Updater:   cfg.newUpdater(gemini, store),
				UserID:    model.UserID(userID),
				Contents:  contents,
			})

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to open terminal")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Chat session %s started. Type 'exit' to quit.\n", session.ID())

			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt || err == io.EOF {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Suffix = " thinking..."
				sp.Start()
				reply, err := session.Send(ctx, message)
				sp.Stop()
				if err != nil {
					return goerr.Wrap(err, "failed to send message")
				}

				fmt.Fprintf(c.Root().Writer, "%s\n", reply)

				event := turnEvent(session)
				if err := analytics.InsertTurn(ctx, event); err != nil {
					logging.From(ctx).Warn("failed to record turn event", "error", err)
				}
			}

			if archive != nil && len(session.Contents()) > 0 {
				if err := archive.SaveTranscript(ctx, session.ID(), session.Contents()); err != nil {
					logging.From(ctx).Warn("failed to archive transcript", "error", err)
				} else {
					fmt.Fprintf(c.Root().Writer, "\nTranscript archived as %s\n", session.ID())
				}
			}

			decision, err := engine.Evaluate(ctx, session.Profile())
			if err != nil {
				return goerr.Wrap(err, "failed to evaluate qualification")
			}
			if decision != nil {
				if decision.Qualified {
					fmt.Fprintf(c.Root().Writer, "\nLead qualified: %s\n", strings.Join(decision.Reasons, ", "))
				} else {
					fmt.Fprintf(c.Root().Writer, "\nLead not qualified yet\n")
				}
			}

			fmt.Fprintf(c.Root().Writer, "\nChat session completed\n")
			return nil
		},
	}
}

func turnEvent(session *chat.Session) *adapter.TurnEvent {
	filled := 0
	if p := session.Profile(); p != nil {
		filled = p.FilledCount()
	}
	return &adapter.TurnEvent{
		UserID:       string(session.UserID()),
		SessionID:    string(session.ID()),
		Turn:         session.Turns(),
		FilledFields: filled,
		CreatedAt:    time.Now(),
	}
}
