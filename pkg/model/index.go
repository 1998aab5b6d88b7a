package model

import (
	"strings"

	"github.com/google/uuid"
)

type RunID string

// NewRunID generates a new unique run identifier for one ingestion call.
func NewRunID() RunID {
	return RunID(strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// Document is a raw source document before chunking. Page is 1-based for
// paginated sources (PDF) and zero for plain text.
type Document struct {
	Source  string
	Content string
	Page    int
}

// Chunk is a bounded span of document text used as the retrieval unit.
type Chunk struct {
	Text        string    `json:"text"`
	Source      string    `json:"source"`
	Page        int       `json:"page,omitempty"`
	StartOffset int       `json:"start_offset"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// IndexHandle describes a persisted vector index. It is immutable after
// creation; callers address the index by Path only.
type IndexHandle struct {
	Backend   string `json:"backend"`
	Path      string `json:"vector_db_path"`
	RunID     RunID  `json:"run_id"`
	NumChunks int    `json:"num_chunks"`
	NumDocs   int    `json:"num_docs"`
}
