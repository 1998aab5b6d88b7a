package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-otsuka/wren/pkg/index"
	"github.com/m-otsuka/wren/pkg/model"
	"github.com/m-otsuka/wren/pkg/rag"
	"github.com/m-otsuka/wren/pkg/usecase/agent"
	"github.com/m-otsuka/wren/pkg/utils/logging"
)

// Server exposes the agent loop and the ingestion/query pipeline over HTTP.
// It holds no per-request state: each /agent call carries its own transcript.
type Server struct {
	agent    *agent.Agent
	idx      *index.Index
	answerer *rag.Answerer

	apiKey       string
	storageRoot  string
	chunkSize    int
	chunkOverlap int
}

// Input wires the server's collaborators.
type Input struct {
	Agent    *agent.Agent
	Index    *index.Index
	Answerer *rag.Answerer

	// APIKey enables API-Key header auth when non-empty
	APIKey string
	// StorageRoot is the base directory for /ingest created indexes
	StorageRoot  string
	ChunkSize    int
	ChunkOverlap int
}

func New(input Input) *Server {
	return &Server{
		agent:        input.Agent,
		idx:          input.Index,
		answerer:     input.Answerer,
		apiKey:       input.APIKey,
		storageRoot:  input.StorageRoot,
		chunkSize:    input.ChunkSize,
		chunkOverlap: input.ChunkOverlap,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /agent", s.handleAgent)
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("POST /query", s.handleQuery)

	return s.authMiddleware(loggingMiddleware(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type agentRequest struct {
	Messages model.Transcript `json:"messages"`
}

type agentResponse struct {
	Reply string        `json:"reply"`
	Turn  model.Message `json:"turn"`
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	output, err := s.agent.Run(r.Context(), agent.Input{Transcript: req.Messages})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, agentResponse{
		Reply: output.Reply,
		Turn:  output.Turn,
	})
}

type ingestRequest struct {
	Sources      []string `json:"sources"`
	Backend      string   `json:"backend"`
	ChunkSize    int      `json:"chunk_size"`
	ChunkOverlap int      `json:"chunk_overlap"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = s.chunkSize
	}
	chunkOverlap := req.ChunkOverlap
	if chunkOverlap <= 0 {
		chunkOverlap = s.chunkOverlap
	}

	handle, err := s.idx.Ingest(r.Context(), index.IngestInput{
		Sources:      req.Sources,
		StorageRoot:  s.storageRoot,
		Backend:      req.Backend,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, handle)
}

type queryRequest struct {
	VectorDBPath string `json:"vector_db_path"`
	Question     string `json:"question"`
}

type queryResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	answer, err := s.answerer.Answer(r.Context(), req.VectorDBPath, req.Question)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Answer: answer})
}

// writeFailure maps the error taxonomy to HTTP statuses. Anything that is
// neither validation nor not-found is reported as a generic internal
// failure with no internals leaked.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.From(r.Context())

	switch {
	case model.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case model.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.From(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Default().Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
