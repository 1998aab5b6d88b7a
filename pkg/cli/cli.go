package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "wren",
		Usage: "Tool-using conversational agent with grounded retrieval",
		Commands: []*cli.Command{
			serveCommand(),
			chatCommand(),
			ingestCommand(),
			queryCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
