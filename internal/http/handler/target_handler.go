package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/timi233/channel-target-api/internal/auth"
	"github.com/timi233/channel-target-api/internal/domain"
	"github.com/timi233/channel-target-api/internal/service"
	"go.uber.org/zap"
)

type TargetHandler struct {
	targetService *service.TargetService
	logger        *zap.Logger
}

func NewTargetHandler(targetService *service.TargetService, logger *zap.Logger) *TargetHandler {
	return &TargetHandler{
		targetService: targetService,
		logger:        logger,
	}
}

// Create godoc
// @Summary Create a target
// @Description Create a new sales target for the authenticated user and period
// @Tags Targets
// @Accept json
// @Produce json
// @Param target body domain.CreateTargetRequest true "Target data"
// @Success 201 {object} domain.TargetDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /targets [post]
func (h *TargetHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	var req domain.CreateTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	target, err := h.targetService.Create(r.Context(), user.UserID, req)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to create target", zap.Error(err))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, target)
}

// List godoc
// @Summary List targets
// @Description List the authenticated user's targets with optional period filters
// @Tags Targets
// @Produce json
// @Param year query int false "Filter by year"
// @Param quarter query string false "Filter by quarter" Enums(Q1, Q2, Q3, Q4)
// @Param targetType query string false "Filter by type" Enums(yearly, quarterly, monthly)
// @Success 200 {array} domain.TargetDTO
// @Security BearerAuth
// @Router /targets [get]
func (h *TargetHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	var filter domain.ListTargetsFilter
	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		filter.Year = &year
	}
	if q := r.URL.Query().Get("quarter"); q != "" {
		quarter := domain.Quarter(q)
		if !quarter.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid quarter")
			return
		}
		filter.Quarter = &quarter
	}
	if t := r.URL.Query().Get("targetType"); t != "" {
		targetType := domain.TargetType(t)
		if !targetType.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid target type")
			return
		}
		filter.TargetType = &targetType
	}

	targets, err := h.targetService.List(r.Context(), user.UserID, filter)
	if err != nil {
		h.logger.Error("failed to list targets", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, targets)
}

// Get godoc
// @Summary Get a target
// @Tags Targets
// @Produce json
// @Param id path string true "Target ID"
// @Success 200 {object} domain.TargetDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /targets/{id} [get]
func (h *TargetHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid target ID")
		return
	}

	target, err := h.targetService.GetByID(r.Context(), user.UserID, targetID)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to get target", zap.Error(err), zap.String("target_id", targetID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, target)
}

// Update godoc
// @Summary Update a target
// @Description Partially update a target's goal fields and description. Completion fields are computed and cannot be set.
// @Tags Targets
// @Accept json
// @Produce json
// @Param id path string true "Target ID"
// @Param target body domain.UpdateTargetRequest true "Fields to update"
// @Success 200 {object} domain.TargetDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /targets/{id} [put]
func (h *TargetHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid target ID")
		return
	}

	var req domain.UpdateTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	target, err := h.targetService.Update(r.Context(), user.UserID, targetID, req)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to update target", zap.Error(err), zap.String("target_id", targetID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, target)
}

// Delete godoc
// @Summary Delete a target
// @Description Delete a target together with all of its allocations
// @Tags Targets
// @Param id path string true "Target ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /targets/{id} [delete]
func (h *TargetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid target ID")
		return
	}

	if err := h.targetService.Delete(r.Context(), user.UserID, targetID); err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to delete target", zap.Error(err), zap.String("target_id", targetID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
