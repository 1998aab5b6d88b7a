package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/adapter"
	"github.com/m-otsuka/wren/pkg/index"
	"github.com/m-otsuka/wren/pkg/rag"
	"github.com/m-otsuka/wren/pkg/tool"
	"github.com/m-otsuka/wren/pkg/tool/age"
	"github.com/m-otsuka/wren/pkg/tool/retrievalqa"
	"github.com/m-otsuka/wren/pkg/tool/weather"
	"github.com/m-otsuka/wren/pkg/usecase/agent"
	"github.com/m-otsuka/wren/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// config holds configuration values
type config struct {
	logLevel   string
	configFile string

	// Adapters
	geminiProject   string
	geminiLocation  string
	generativeModel string
	embeddingModel  string
	bucket          string

	// Pipeline
	storageRoot  string
	chunkSize    int
	chunkOverlap int

	// Agent
	maxIterations int
}

// fileConfig is the optional YAML config file shape. Values only fill
// fields the flags left at their defaults.
type fileConfig struct {
	StorageRoot     string `yaml:"storage_root"`
	Bucket          string `yaml:"bucket"`
	GenerativeModel string `yaml:"generative_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkOverlap    int    `yaml:"chunk_overlap"`
	MaxIterations   int    `yaml:"max_iterations"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("WREN_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config file",
			Sources:     cli.EnvVars("WREN_CONFIG"),
			Destination: &cfg.configFile,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Gemini model for completions",
			Sources:     cli.EnvVars("WREN_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Gemini model for embeddings",
			Sources:     cli.EnvVars("WREN_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
	}
}

// pipelineFlags returns flags for ingestion and storage configuration
func pipelineFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-root",
			Usage:       "Base directory for vector index storage",
			Value:       "./storage/vectordb",
			Sources:     cli.EnvVars("WREN_STORAGE_ROOT"),
			Destination: &cfg.storageRoot,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for index storage (local filesystem when empty)",
			Sources:     cli.EnvVars("WREN_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Chunk size in characters",
			Value:       index.DefaultChunkSize,
			Sources:     cli.EnvVars("WREN_CHUNK_SIZE"),
			Destination: &cfg.chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Chunk overlap in characters",
			Value:       index.DefaultChunkOverlap,
			Sources:     cli.EnvVars("WREN_CHUNK_OVERLAP"),
			Destination: &cfg.chunkOverlap,
		},
	}
}

// agentFlags returns flags for the agent loop
func agentFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "max-iterations",
			Usage:       "Maximum think/act/observe cycles per request",
			Value:       agent.DefaultMaxIterations,
			Sources:     cli.EnvVars("WREN_MAX_ITERATIONS"),
			Destination: &cfg.maxIterations,
		},
	}
}

// setup applies the config file and configures the default logger.
func (cfg *config) setup() error {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))

	if cfg.configFile == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.configFile)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", cfg.configFile))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", cfg.configFile))
	}

	if fc.StorageRoot != "" {
		cfg.storageRoot = fc.StorageRoot
	}
	if fc.Bucket != "" {
		cfg.bucket = fc.Bucket
	}
	if fc.GenerativeModel != "" {
		cfg.generativeModel = fc.GenerativeModel
	}
	if fc.EmbeddingModel != "" {
		cfg.embeddingModel = fc.EmbeddingModel
	}
	if fc.ChunkSize > 0 {
		cfg.chunkSize = fc.ChunkSize
	}
	if fc.ChunkOverlap > 0 {
		cfg.chunkOverlap = fc.ChunkOverlap
	}
	if fc.MaxIterations > 0 {
		cfg.maxIterations = fc.MaxIterations
	}

	return nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.generativeModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.generativeModel))
	}
	if cfg.embeddingModel != "" {
		opts = append(opts, adapter.WithEmbeddingModel(cfg.embeddingModel))
	}

	gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini adapter")
	}
	return gemini, nil
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket != "" {
		storage, err := adapter.NewGCSStorage(ctx, cfg.bucket)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create GCS storage")
		}
		return storage, nil
	}
	return adapter.NewFileStorage(), nil
}

// runtime bundles the wired pipeline shared by the commands.
type runtime struct {
	gemini   adapter.Gemini
	storage  adapter.Storage
	index    *index.Index
	answerer *rag.Answerer
	registry *tool.Registry
	agent    *agent.Agent
}

// newTools returns the tool set; called before command construction so
// tool flags register on the command.
func newTools() []tool.Tool {
	return []tool.Tool{
		age.New(),
		weather.New(),
		retrievalqa.New(),
	}
}

// newRuntime wires adapters, pipeline, tools and the agent loop.
func (cfg *config) newRuntime(ctx context.Context, registry *tool.Registry) (*runtime, error) {
	if err := cfg.setup(); err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, err
	}

	idx := index.New(gemini, storage)
	answerer := rag.New(gemini, idx)

	if err := registry.Init(ctx, &tool.Client{
		Gemini:       gemini,
		Storage:      storage,
		Index:        idx,
		Answerer:     answerer,
		StorageRoot:  cfg.storageRoot,
		ChunkSize:    cfg.chunkSize,
		ChunkOverlap: cfg.chunkOverlap,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize tool registry")
	}

	return &runtime{
		gemini:   gemini,
		storage:  storage,
		index:    idx,
		answerer: answerer,
		registry: registry,
		agent:    agent.New(gemini, registry, agent.WithMaxIterations(cfg.maxIterations)),
	}, nil
}
