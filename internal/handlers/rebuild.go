package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"docassist/internal/contextutil"
	"docassist/internal/indexer"
	"docassist/internal/vectorindex"
)

// Rebuilder triggers an index build. Satisfied by *indexer.Builder.
type Rebuilder interface {
	Rebuild(ctx context.Context, corpusPath string) (*vectorindex.Index, error)
}

// RebuildHandler handles HTTP requests to rebuild the index.
type RebuildHandler struct {
	builder   Rebuilder
	corpusDir string
}

// NewRebuildHandler creates a new RebuildHandler. corpusDir is used when the
// request does not name a corpus path.
func NewRebuildHandler(builder Rebuilder, corpusDir string) *RebuildHandler {
	return &RebuildHandler{builder: builder, corpusDir: corpusDir}
}

// RebuildRequest is the optional request body for POST /api/rebuild.
type RebuildRequest struct {
	CorpusPath string `json:"corpus_path,omitempty"`
}

// RebuildResponse reports a completed build.
type RebuildResponse struct {
	Status  string `json:"status"`
	BuildID string `json:"build_id"`
	Chunks  int    `json:"chunks"`
}

// ServeHTTP answers POST /api/rebuild. Builds run synchronously; a second
// rebuild while one is running is rejected with 409.
func (h *RebuildHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var req RebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	corpusPath := req.CorpusPath
	if corpusPath == "" {
		corpusPath = h.corpusDir
	}

	ix, err := h.builder.Rebuild(r.Context(), corpusPath)
	if err != nil {
		switch {
		case errors.Is(err, indexer.ErrBuildInProgress):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, indexer.ErrBuildFailed):
			logger.ErrorContext(r.Context(), "index rebuild failed", "error", err)
			respondError(w, http.StatusInternalServerError, err.Error())
		default:
			logger.ErrorContext(r.Context(), "index rebuild failed", "error", err)
			respondError(w, http.StatusInternalServerError, "rebuild failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, RebuildResponse{
		Status:  "ok",
		BuildID: ix.BuildID(),
		Chunks:  ix.Len(),
	})
}
