package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"docassist/internal/contextutil"
	"docassist/internal/rag"
)

// QueryHandler handles HTTP requests for documentation queries.
type QueryHandler struct {
	engine rag.Engine
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(engine rag.Engine) *QueryHandler {
	return &QueryHandler{engine: engine}
}

// ServeHTTP answers POST /api/query. The request body is a rag.Query;
// the response is the full QueryResult including refusal state and sources.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	var q rag.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.engine.Answer(r.Context(), q)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuestion) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.ErrorContext(r.Context(), "query failed", "error", err)
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
