package tool

import (
	"github.com/m-otsuka/wren/pkg/adapter"
	"github.com/m-otsuka/wren/pkg/index"
	"github.com/m-otsuka/wren/pkg/rag"
)

// Client contains shared resources that tools can use
type Client struct {
	Gemini   adapter.Gemini
	Storage  adapter.Storage
	Index    *index.Index
	Answerer *rag.Answerer

	// StorageRoot is the base directory for indexes created by tools
	StorageRoot string

	// ChunkSize and ChunkOverlap apply to tool-triggered ingestion
	ChunkSize    int
	ChunkOverlap int
}
