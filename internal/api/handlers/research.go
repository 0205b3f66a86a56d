package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/quorumlabs/quorum/internal/config"
	"github.com/quorumlabs/quorum/internal/domain"
	"github.com/quorumlabs/quorum/internal/service"
)

type ResearchHandler struct {
	svc    *service.ResearchService
	logger *zap.Logger
}

func NewResearchHandler(svc *service.ResearchService, logger *zap.Logger) *ResearchHandler {
	return &ResearchHandler{svc: svc, logger: logger}
}

type runRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode,omitempty"`
}

// Run executes one research run synchronously and returns the full result,
// including the audit trail.
func (h *ResearchHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	if req.Mode == "" {
		req.Mode = "standard"
	}
	mode, err := config.ModeConfig(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Run(r.Context(), req.Question, mode.Rounds, mode.QueriesPerRound)
	if err != nil {
		var cerr *domain.ContractError
		if errors.As(err, &cerr) {
			h.logger.Error("run aborted on contract violation",
				zap.String("contract", cerr.Contract), zap.Error(err))
			writeError(w, http.StatusBadGateway, "upstream capability returned invalid data")
			return
		}
		h.logger.Error("research run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "research run failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
