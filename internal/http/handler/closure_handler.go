package handler

import (
	"net/http"

	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/service"
	"go.uber.org/zap"
)

// ClosureHandler handles closing executions into the financial ledger
type ClosureHandler struct {
	closureService *service.ClosureService
	logger         *zap.Logger
}

// NewClosureHandler creates a new closure handler instance
func NewClosureHandler(closureService *service.ClosureService, logger *zap.Logger) *ClosureHandler {
	return &ClosureHandler{
		closureService: closureService,
		logger:         logger,
	}
}

// Close handles POST /plans/{id}/close.
// Without executionId the current month's period is closed.
func (h *ClosureHandler) Close(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	var req domain.CloseExecutionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.closureService.CloseExecution(r.Context(), planID, &req)
	if err != nil {
		respondServiceError(w, h.logger, "close execution", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
