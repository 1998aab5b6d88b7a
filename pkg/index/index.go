package index

import (
	"context"
	"encoding/json"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/adapter"
	"github.com/m-otsuka/wren/pkg/model"
	"github.com/m-otsuka/wren/pkg/utils/logging"
)

const (
	// DefaultBackend identifies the flat JSON vector index format.
	DefaultBackend = "flat"
	// DefaultTopK is the baseline result count for queries.
	DefaultTopK = 4

	artifactName = "index.json"
)

// persisted is the on-disk index artifact. The embedding model and
// dimension are recorded so a query with a mismatched model fails hard
// instead of silently ranking garbage.
type persisted struct {
	Backend    string        `json:"backend"`
	EmbedModel string        `json:"embed_model"`
	Dimension  int           `json:"dimension"`
	Chunks     []model.Chunk `json:"chunks"`
}

// Index builds and queries persisted vector indexes.
type Index struct {
	gemini  adapter.Gemini
	storage adapter.Storage
}

func New(gemini adapter.Gemini, storage adapter.Storage) *Index {
	return &Index{
		gemini:  gemini,
		storage: storage,
	}
}

// IngestInput describes one ingestion call. Either Sources (paths readable
// through the storage adapter) or Documents (already-loaded content) must
// be non-empty.
type IngestInput struct {
	Sources      []string
	Documents    []model.Document
	StorageRoot  string
	Backend      string
	ChunkSize    int
	ChunkOverlap int
}

// Ingest loads the given documents, splits them into chunks, embeds each
// chunk and persists the resulting index under a fresh run ID nested in
// StorageRoot. The artifact is written in a single Put once fully built, so
// a failure at any earlier step leaves no readable index behind.
func (x *Index) Ingest(ctx context.Context, input IngestInput) (*model.IndexHandle, error) {
	if len(input.Sources) == 0 && len(input.Documents) == 0 {
		return nil, goerr.Wrap(model.ErrNoSources, "nothing to ingest")
	}

	backend := input.Backend
	if backend == "" {
		backend = DefaultBackend
	}

	docs := make([]model.Document, 0, len(input.Sources)+len(input.Documents))
	docs = append(docs, input.Documents...)
	for _, src := range input.Sources {
		loaded, err := x.loadSource(ctx, src)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}

	splitter := NewSplitter(input.ChunkSize, input.ChunkOverlap)
	var chunks []model.Chunk
	for _, doc := range docs {
		chunks = append(chunks, splitter.Split(doc)...)
	}
	if len(chunks) == 0 {
		return nil, goerr.New("documents contain no indexable text",
			goerr.T(model.TagValidation))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := x.gemini.Embedding(ctx, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed chunks")
	}

	dimension := len(vectors[0])
	for i := range chunks {
		if len(vectors[i]) != dimension {
			return nil, goerr.New("inconsistent embedding dimensions",
				goerr.V("want", dimension), goerr.V("got", len(vectors[i])))
		}
		chunks[i].Embedding = vectors[i]
	}

	runID := model.NewRunID()
	basePath := path.Join(input.StorageRoot, backend, string(runID))

	artifact := persisted{
		Backend:    backend,
		EmbedModel: x.gemini.EmbeddingModel(),
		Dimension:  dimension,
		Chunks:     chunks,
	}
	if err := x.write(ctx, path.Join(basePath, artifactName), &artifact); err != nil {
		return nil, err
	}

	logging.From(ctx).Info("ingested documents",
		"path", basePath,
		"docs", len(docs),
		"chunks", len(chunks),
	)

	return &model.IndexHandle{
		Backend:   backend,
		Path:      basePath,
		RunID:     runID,
		NumChunks: len(chunks),
		NumDocs:   len(docs),
	}, nil
}

// Query loads the index at indexPath and returns the top-k chunks ranked
// by cosine similarity to the query text.
func (x *Index) Query(ctx context.Context, indexPath, query string, k int) ([]model.Chunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(model.ErrEmptyQuestion, "cannot query index")
	}
	if k <= 0 {
		k = DefaultTopK
	}

	artifact, err := x.read(ctx, path.Join(indexPath, artifactName))
	if err != nil {
		return nil, err
	}

	if artifact.EmbedModel != x.gemini.EmbeddingModel() {
		return nil, goerr.Wrap(model.ErrModelMismatch, "cannot query index",
			goerr.V("index_model", artifact.EmbedModel),
			goerr.V("query_model", x.gemini.EmbeddingModel()))
	}

	vectors, err := x.gemini.Embedding(ctx, []string{query})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}
	queryVec := vectors[0]

	if len(queryVec) != artifact.Dimension {
		return nil, goerr.Wrap(model.ErrModelMismatch, "embedding dimension mismatch",
			goerr.V("index_dimension", artifact.Dimension),
			goerr.V("query_dimension", len(queryVec)))
	}

	type scored struct {
		chunk model.Chunk
		score float64
	}
	results := make([]scored, 0, len(artifact.Chunks))
	for _, c := range artifact.Chunks {
		results = append(results, scored{chunk: c, score: cosineSimilarity(queryVec, c.Embedding)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > k {
		results = results[:k]
	}

	chunks := make([]model.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.chunk
	}
	return chunks, nil
}

// loadSource reads one source through the storage adapter. PDF sources
// expand into one document per page; anything else is treated as plain
// text.
func (x *Index) loadSource(ctx context.Context, src string) ([]model.Document, error) {
	exists, err := x.storage.Exists(ctx, src)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check source", goerr.V("source", src))
	}
	if !exists {
		return nil, goerr.Wrap(model.ErrSourceNotFound, "cannot load source",
			goerr.V("source", src))
	}

	reader, err := x.storage.Get(ctx, src)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open source", goerr.V("source", src))
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read source", goerr.V("source", src))
	}

	if strings.EqualFold(path.Ext(src), ".pdf") {
		return parsePDF(src, content)
	}

	return []model.Document{{Source: src, Content: string(content)}}, nil
}

func (x *Index) write(ctx context.Context, key string, artifact *persisted) error {
	writer, err := x.storage.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to create index artifact", goerr.V("key", key))
	}

	if err := json.NewEncoder(writer).Encode(artifact); err != nil {
		writer.Close()
		return goerr.Wrap(err, "failed to encode index artifact", goerr.V("key", key))
	}

	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize index artifact", goerr.V("key", key))
	}
	return nil
}

func (x *Index) read(ctx context.Context, key string) (*persisted, error) {
	exists, err := x.storage.Exists(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check index", goerr.V("key", key))
	}
	if !exists {
		return nil, goerr.Wrap(model.ErrIndexNotFound, "cannot read index",
			goerr.V("key", key))
	}

	reader, err := x.storage.Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open index", goerr.V("key", key))
	}
	defer reader.Close()

	var artifact persisted
	if err := json.NewDecoder(reader).Decode(&artifact); err != nil {
		return nil, goerr.Wrap(model.ErrIndexNotFound, "index artifact is corrupt",
			goerr.V("key", key))
	}
	return &artifact, nil
}
