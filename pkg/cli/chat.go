package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/model"
	"github.com/m-otsuka/wren/pkg/tool"
	"github.com/m-otsuka/wren/pkg/usecase/agent"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var cfg config

	registry := tool.New(newTools()...)

	flags := []cli.Flag{}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)
	flags = append(flags, agentFlags(&cfg)...)
	flags = append(flags, registry.Flags()...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive conversation with the agent",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := cfg.newRuntime(ctx, registry)
			if err != nil {
				return err
			}

			// The transcript lives here, client-side; the agent itself
			// stays stateless between turns.
			var transcript model.Transcript

			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprintf(c.Root().Writer, "Chat session started. Type 'exit' to quit.\n")

			for {
				fmt.Fprintf(c.Root().Writer, "> ")
				if !scanner.Scan() {
					break
				}

				message := strings.TrimSpace(scanner.Text())
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				transcript = append(transcript, model.Message{
					Role:    model.RoleUser,
					Content: message,
				})

				output, err := rt.agent.Run(ctx, agent.Input{Transcript: transcript})
				if err != nil {
					return goerr.Wrap(err, "agent run failed")
				}

				transcript = append(transcript, output.Turn)
				fmt.Fprintf(c.Root().Writer, "%s\n", output.Reply)
			}

			return nil
		},
	}
}
