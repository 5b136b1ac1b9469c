// Package http exposes the ingestion and query entry points over a JSON
// API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/docchat-go/internal/domain/chunker"
	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
	"github.com/0xcro3dile/docchat-go/internal/domain/usecases"
)

const maxUploadBytes = 50 << 20

// Server is the HTTP front for the retrieval pipeline.
type Server struct {
	ingest   *usecases.IngestUseCase
	query    *usecases.QueryUseCase
	index    ports.VectorIndex
	docs     ports.DocumentStore
	defaults entities.GenerationSettings
	log      *zap.Logger
	addr     string
}

// NewServer creates the HTTP server.
func NewServer(
	ingest *usecases.IngestUseCase,
	query *usecases.QueryUseCase,
	index ports.VectorIndex,
	docs ports.DocumentStore,
	defaults entities.GenerationSettings,
	log *zap.Logger,
	addr string,
) *Server {
	return &Server{
		ingest:   ingest,
		query:    query,
		index:    index,
		docs:     docs,
		defaults: defaults,
		log:      log,
		addr:     addr,
	}
}

// Handler returns the full route table wrapped in the logging and CORS
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/documents", s.handleUpload)
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/health", s.handleHealth)
	return corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the server until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // generation calls can be slow
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.log.Info("server starting", zap.String("addr", s.addr))
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// handleUpload ingests a multipart file upload (field "file", .txt or
// .pdf).
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "parsing multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	docType, ok := documentType(header.Filename)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported file type (want .txt or .pdf)")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return
	}

	doc, chunks, err := s.ingest.Ingest(r.Context(), header.Filename, docType, data)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chunker.ErrInvalidChunking) {
			status = http.StatusBadRequest
		}
		if errors.Is(err, ports.ErrEmbeddingUnavailable) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"document_id":  doc.ID,
		"name":         doc.Name,
		"chunks_added": chunks,
	})
}

type queryRequest struct {
	Question    string   `json:"question"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
}

// handleQuery answers a question from the indexed documents.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	settings := s.defaults
	if req.Model != "" {
		settings.Model = req.Model
	}
	if req.Temperature != nil {
		settings.Temperature = *req.Temperature
	}
	if req.MaxTokens > 0 {
		settings.MaxTokens = req.MaxTokens
	}
	if req.TopK > 0 {
		settings.TopK = req.TopK
	}

	answer, err := s.query.Query(r.Context(), req.Question, settings)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ports.ErrEmbeddingUnavailable) || errors.Is(err, ports.ErrGenerationUnavailable) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"answer":   answer.Text,
		"sources":  answer.Sources,
		"grounded": answer.Grounded,
		"model":    answer.Model,
	})
}

// handleReset clears the knowledge base.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.ingest.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleStats reports index and catalog statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": len(docs),
		"chunks":    s.index.Count(),
		"dimension": s.index.Dimension(),
	})
}

// handleHistory returns recent conversation turns, oldest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	turns, err := s.docs.ListTurns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	type turnResponse struct {
		Question  string    `json:"question"`
		Answer    string    `json:"answer"`
		Sources   []string  `json:"sources"`
		Model     string    `json:"model"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]turnResponse, len(turns))
	for i, t := range turns {
		out[i] = turnResponse{
			Question:  t.Question,
			Answer:    t.Answer,
			Sources:   t.Sources,
			Model:     t.Model,
			CreatedAt: t.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func documentType(filename string) (entities.DocumentType, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown":
		return entities.DocumentTypeText, true
	case ".pdf":
		return entities.DocumentTypePDF, true
	default:
		return "", false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
