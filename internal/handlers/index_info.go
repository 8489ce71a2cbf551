package handlers

import (
	"net/http"

	"docassist/internal/vectorindex"
)

// IndexInfoHandler reports statistics about the currently served index.
type IndexInfoHandler struct {
	indexes *vectorindex.Manager
}

// NewIndexInfoHandler creates a new IndexInfoHandler.
func NewIndexInfoHandler(indexes *vectorindex.Manager) *IndexInfoHandler {
	return &IndexInfoHandler{indexes: indexes}
}

// IndexInfoResponse describes the served snapshot.
type IndexInfoResponse struct {
	BuildID   string `json:"build_id"`
	Chunks    int    `json:"chunks"`
	Dimension int    `json:"dimension"`
}

// ServeHTTP answers GET /api/index.
func (h *IndexInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ix := h.indexes.Current()
	respondJSON(w, http.StatusOK, IndexInfoResponse{
		BuildID:   ix.BuildID(),
		Chunks:    ix.Len(),
		Dimension: ix.Dim(),
	})
}
