package cli

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/index"
	"github.com/m-otsuka/wren/pkg/tool"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg     config
		sources []string
		backend string
	)

	registry := tool.New(newTools()...)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "source",
			Aliases:     []string{"s"},
			Usage:       "Source document path (repeatable)",
			Destination: &sources,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "Index backend identifier",
			Value:       index.DefaultBackend,
			Destination: &backend,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Build a vector index from source documents",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			rt, err := cfg.newRuntime(ctx, registry)
			if err != nil {
				return err
			}

			handle, err := rt.index.Ingest(ctx, index.IngestInput{
				Sources:      sources,
				StorageRoot:  cfg.storageRoot,
				Backend:      backend,
				ChunkSize:    cfg.chunkSize,
				ChunkOverlap: cfg.chunkOverlap,
			})
			if err != nil {
				return goerr.Wrap(err, "ingestion failed")
			}

			encoder := json.NewEncoder(c.Root().Writer)
			encoder.SetIndent("", "  ")
			return encoder.Encode(handle)
		},
	}
}
