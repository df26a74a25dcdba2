package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/repository"
	"github.com/verdant-ops/gardenledger/internal/service"
	"go.uber.org/zap"
)

// PlanHandler handles HTTP requests for maintenance plans
type PlanHandler struct {
	planService      *service.PlanService
	schedulerService *service.SchedulerService
	logger           *zap.Logger
}

// NewPlanHandler creates a new plan handler instance
func NewPlanHandler(
	planService *service.PlanService,
	schedulerService *service.SchedulerService,
	logger *zap.Logger,
) *PlanHandler {
	return &PlanHandler{
		planService:      planService,
		schedulerService: schedulerService,
		logger:           logger,
	}
}

// Create handles POST /plans
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	plan, err := h.planService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, "create plan", err)
		return
	}

	w.Header().Set("Location", "/api/v1/plans/"+plan.ID.String())
	respondJSON(w, http.StatusCreated, plan)
}

// List handles GET /plans
// Query: page, pageSize, clientId, status (active|paused), sortBy, sortOrder
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filters := &domain.PlanFilters{}

	if raw := query.Get("clientId"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid clientId: must be a valid UUID")
			return
		}
		filters.ClientID = &clientID
	}

	if raw := query.Get("status"); raw != "" {
		status := domain.PlanStatus(raw)
		if status != domain.PlanStatusActive && status != domain.PlanStatusPaused {
			respondWithError(w, http.StatusBadRequest, "Invalid status: must be active or paused")
			return
		}
		filters.Status = &status
	}

	sort := repository.SortConfig{
		Field: query.Get("sortBy"),
		Order: repository.ParseSortOrder(query.Get("sortOrder")),
	}

	result, err := h.planService.List(r.Context(), intQuery(r, "page", 1), intQuery(r, "pageSize", 20), filters, sort)
	if err != nil {
		respondServiceError(w, h.logger, "list plans", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID handles GET /plans/{id}
func (h *PlanHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	plan, err := h.planService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, "get plan", err)
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// Update handles PUT /plans/{id}
func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	var req domain.UpdatePlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	plan, err := h.planService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, "update plan", err)
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// Pause handles POST /plans/{id}/pause
func (h *PlanHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.planService.Pause, "pause plan")
}

// Resume handles POST /plans/{id}/resume
func (h *PlanHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.planService.Resume, "resume plan")
}

func (h *PlanHandler) setStatus(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id uuid.UUID) (*domain.PlanDTO, error), action string) {
	id, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	plan, err := apply(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, action, err)
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// Overview handles GET /plans/{id}/overview
// Query: windowMonths (default from configuration)
func (h *PlanHandler) Overview(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	windowMonths := intQuery(r, "windowMonths", 0)
	if windowMonths < 0 || windowMonths > 36 {
		respondWithError(w, http.StatusBadRequest, "windowMonths must be between 1 and 36")
		return
	}

	overview, err := h.schedulerService.Overview(r.Context(), id, windowMonths)
	if err != nil {
		respondServiceError(w, h.logger, "build plan overview", err)
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

// Status handles GET /plans/{id}/status
func (h *PlanHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	status, err := h.schedulerService.Status(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, "compute plan status", err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}
