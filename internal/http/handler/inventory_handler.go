package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/service"
	"go.uber.org/zap"
)

const defaultMovementLimit = 100

// InventoryHandler handles stock movements and their reconciled expenses
type InventoryHandler struct {
	inventoryService *service.InventoryService
	logger           *zap.Logger
}

// NewInventoryHandler creates a new inventory handler instance
func NewInventoryHandler(inventoryService *service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// RecordMovement handles POST /inventory/movements
func (h *InventoryHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordMovementRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	movement, err := h.inventoryService.RecordMovement(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, "record stock movement", err)
		return
	}

	respondJSON(w, http.StatusCreated, movement)
}

// ListMovements handles GET /inventory/movements
// Query: productId, limit
func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	var productID *uuid.UUID
	if raw := r.URL.Query().Get("productId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid productId: must be a valid UUID")
			return
		}
		productID = &id
	}

	limit := intQuery(r, "limit", defaultMovementLimit)
	if limit < 1 || limit > defaultMovementLimit {
		limit = defaultMovementLimit
	}

	movements, err := h.inventoryService.ListMovementsWithExpenses(r.Context(), productID, limit)
	if err != nil {
		respondServiceError(w, h.logger, "list stock movements", err)
		return
	}

	respondJSON(w, http.StatusOK, movements)
}

// GetExpense handles GET /inventory/movements/{id}/expense.
// A movement without a matching expense answers 200 with a null body.
func (h *InventoryHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", "movement")
	if !ok {
		return
	}

	expense, err := h.inventoryService.GetMovementExpense(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, "reconcile stock movement", err)
		return
	}

	respondJSON(w, http.StatusOK, expense)
}
