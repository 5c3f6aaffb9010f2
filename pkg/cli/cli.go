package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "leadagent",
		Usage: "Conversational lead qualification agent",
		Commands: []*cli.Command{
			chatCommand(),
			serveCommand(),
			normalizeCommand(),
			indexCommand(),
			profileCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		// Action errors are not printed by the command runner itself; the
		// message has to reach the terminal before the process exits
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
