package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/server"
	"github.com/m-otsuka/wren/pkg/tool"
	"github.com/m-otsuka/wren/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg    config
		addr   string
		apiKey string
	)

	registry := tool.New(newTools()...)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       "127.0.0.1:8000",
			Sources:     cli.EnvVars("WREN_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "Require this API-Key header on all requests (disabled when empty)",
			Sources:     cli.EnvVars("WREN_API_KEY"),
			Destination: &apiKey,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)
	flags = append(flags, agentFlags(&cfg)...)
	flags = append(flags, registry.Flags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the agent and retrieval HTTP API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := cfg.newRuntime(ctx, registry)
			if err != nil {
				return err
			}

			srv := server.New(server.Input{
				Agent:        rt.agent,
				Index:        rt.index,
				Answerer:     rt.answerer,
				APIKey:       apiKey,
				StorageRoot:  cfg.storageRoot,
				ChunkSize:    cfg.chunkSize,
				ChunkOverlap: cfg.chunkOverlap,
			})

			httpServer := &http.Server{
				Addr:        addr,
				Handler:     srv.Handler(),
				ReadTimeout: 30 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
			}()

			logging.From(ctx).Info("starting server", "addr", addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return goerr.Wrap(err, "server failed")
			}
			return nil
		},
	}
}
