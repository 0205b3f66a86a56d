package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/quorumlabs/quorum/internal/domain"
)

type MemoryHandler struct {
	store  domain.EvidenceStore
	logger *zap.Logger
}

func NewMemoryHandler(store domain.EvidenceStore, logger *zap.Logger) *MemoryHandler {
	return &MemoryHandler{store: store, logger: logger}
}

type memoryStatsResponse struct {
	Records int `json:"records"`
}

// Stats reports the size of the persistent evidence memory. Load also
// re-checks the vector/metadata count invariant, so a desynced store
// surfaces here as a 500 rather than silently serving bad search results.
func (h *MemoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Load(r.Context())
	if err != nil {
		h.logger.Error("evidence store check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "evidence store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, memoryStatsResponse{Records: count})
}
