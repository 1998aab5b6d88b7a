package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/tool"
	"github.com/urfave/cli/v3"
)

func queryCommand() *cli.Command {
	var (
		cfg       config
		indexPath string
		question  string
	)

	registry := tool.New(newTools()...)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "index",
			Aliases:     []string{"i"},
			Usage:       "Vector index path",
			Required:    true,
			Destination: &indexPath,
		},
		&cli.StringFlag{
			Name:        "question",
			Aliases:     []string{"q"},
			Usage:       "Question to answer from the index",
			Required:    true,
			Destination: &question,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:  "query",
		Usage: "Answer a question from a persisted index",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := cfg.newRuntime(ctx, registry)
			if err != nil {
				return err
			}

			answer, err := rt.answerer.Answer(ctx, indexPath, question)
			if err != nil {
				return goerr.Wrap(err, "query failed")
			}

			fmt.Fprintln(c.Root().Writer, answer)
			return nil
		},
	}
}
