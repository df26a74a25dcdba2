package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/verdant-ops/gardenledger/internal/domain"
	"github.com/verdant-ops/gardenledger/internal/mapper"
	"github.com/verdant-ops/gardenledger/internal/service"
	"go.uber.org/zap"
)

// ExecutionHandler handles HTTP requests for the execution ledger of a plan
type ExecutionHandler struct {
	executionService *service.ExecutionService
	logger           *zap.Logger
}

// NewExecutionHandler creates a new execution handler instance
func NewExecutionHandler(executionService *service.ExecutionService, logger *zap.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		executionService: executionService,
		logger:           logger,
	}
}

func (h *ExecutionHandler) respondExecution(w http.ResponseWriter, status int, execution *domain.PlanExecution) {
	respondJSON(w, status, mapper.ToExecutionDTO(execution))
}

// List handles GET /plans/{id}/executions
// The template is hidden unless includeTemplate=true.
func (h *ExecutionHandler) List(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	includeTemplate, _ := strconv.ParseBool(r.URL.Query().Get("includeTemplate"))

	executions, err := h.executionService.ListExecutions(r.Context(), planID, !includeTemplate)
	if err != nil {
		respondServiceError(w, h.logger, "list executions", err)
		return
	}

	respondJSON(w, http.StatusOK, mapper.ToExecutionDTOs(executions))
}

// GetByID handles GET /plans/{id}/executions/{executionId}
func (h *ExecutionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}
	executionID, ok := uuidParam(w, r, "executionId", "execution")
	if !ok {
		return
	}

	execution, err := h.executionService.GetExecution(r.Context(), planID, executionID)
	if err != nil {
		respondServiceError(w, h.logger, "get execution", err)
		return
	}

	h.respondExecution(w, http.StatusOK, execution)
}

// GetTemplate handles GET /plans/{id}/template, creating the template on first access
func (h *ExecutionHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	template, err := h.executionService.GetOrCreateTemplate(r.Context(), planID)
	if err != nil {
		respondServiceError(w, h.logger, "get template", err)
		return
	}

	h.respondExecution(w, http.StatusOK, template)
}

// SaveTemplate handles PUT /plans/{id}/template
func (h *ExecutionHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	var req domain.SaveTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	template, err := h.executionService.SaveTemplateDefaults(r.Context(), planID, req.Checklist, req.Schedule)
	if err != nil {
		respondServiceError(w, h.logger, "save template", err)
		return
	}

	h.respondExecution(w, http.StatusOK, template)
}

// GetOrCreatePeriod handles POST /plans/{id}/periods/{year}/{month}
func (h *ExecutionHandler) GetOrCreatePeriod(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid year")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid month")
		return
	}

	period, err := h.executionService.GetOrCreatePeriod(r.Context(), planID, year, time.Month(month))
	if err != nil {
		respondServiceError(w, h.logger, "get period", err)
		return
	}

	h.respondExecution(w, http.StatusOK, period)
}

// RecordAdHoc handles POST /plans/{id}/adhoc
func (h *ExecutionHandler) RecordAdHoc(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	var req domain.RecordAdHocRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	execution, err := h.executionService.RecordAdHoc(r.Context(), planID, req.Details, req.FinalAmount)
	if err != nil {
		respondServiceError(w, h.logger, "record ad-hoc service", err)
		return
	}

	h.respondExecution(w, http.StatusCreated, execution)
}

// AppendEvent handles POST /plans/{id}/events/{kind}
// The body is a fertilization entry or a pest entry depending on kind.
func (h *ExecutionHandler) AppendEvent(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}

	event := domain.SeasonalEvent{Kind: domain.SeasonalKind(chi.URLParam(r, "kind"))}
	switch event.Kind {
	case domain.SeasonalFertilization:
		event.Fertilization = &domain.FertilizationEntry{}
		if !decodeJSON(w, r, event.Fertilization) {
			return
		}
	case domain.SeasonalPests:
		event.Pest = &domain.PestEntry{}
		if !decodeJSON(w, r, event.Pest) {
			return
		}
	default:
		respondWithError(w, http.StatusBadRequest, "Event kind must be fertilization or pests")
		return
	}

	execution, err := h.executionService.AppendSeasonalEvent(r.Context(), planID, event)
	if err != nil {
		respondServiceError(w, h.logger, "append seasonal event", err)
		return
	}

	h.respondExecution(w, http.StatusOK, execution)
}

// UpdateChecklist handles PUT /plans/{id}/executions/{executionId}/checklist
func (h *ExecutionHandler) UpdateChecklist(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}
	executionID, ok := uuidParam(w, r, "executionId", "execution")
	if !ok {
		return
	}

	var req domain.UpdateChecklistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	execution, err := h.executionService.UpdateChecklist(r.Context(), planID, executionID, req.Checklist)
	if err != nil {
		respondServiceError(w, h.logger, "update checklist", err)
		return
	}

	h.respondExecution(w, http.StatusOK, execution)
}

// LinkReferences handles PUT /plans/{id}/executions/{executionId}/links
func (h *ExecutionHandler) LinkReferences(w http.ResponseWriter, r *http.Request) {
	planID, ok := uuidParam(w, r, "id", "plan")
	if !ok {
		return
	}
	executionID, ok := uuidParam(w, r, "executionId", "execution")
	if !ok {
		return
	}

	var req domain.LinkReferencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	execution, err := h.executionService.LinkReferences(r.Context(), planID, executionID, req.TaskID, req.AppointmentID)
	if err != nil {
		respondServiceError(w, h.logger, "link references", err)
		return
	}

	h.respondExecution(w, http.StatusOK, execution)
}
