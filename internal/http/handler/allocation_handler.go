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

type AllocationHandler struct {
	allocationService *service.AllocationService
	logger            *zap.Logger
}

func NewAllocationHandler(allocationService *service.AllocationService, logger *zap.Logger) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
		logger:            logger,
	}
}

// Allocate godoc
// @Summary Allocate a target across distributors
// @Description Distribute a target's goal fields across the owner's active distributors in proportion to tier weights, with optional per-distributor overrides. Re-running replaces existing rows for the named distributors.
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Target ID"
// @Param allocation body domain.AllocateRequest true "Distributor selection and overrides"
// @Success 200 {array} domain.TargetAllocationDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /targets/{id}/allocations [post]
func (h *AllocationHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid target ID")
		return
	}

	var req domain.AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	allocations, err := h.allocationService.Allocate(r.Context(), user.UserID, targetID, req)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to allocate target", zap.Error(err), zap.String("target_id", targetID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, allocations)
}

// ListByTarget godoc
// @Summary List a target's allocations
// @Tags Allocations
// @Produce json
// @Param id path string true "Target ID"
// @Success 200 {array} domain.TargetAllocationDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /targets/{id}/allocations [get]
func (h *AllocationHandler) ListByTarget(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid target ID")
		return
	}

	allocations, err := h.allocationService.GetByTarget(r.Context(), user.UserID, targetID)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to list allocations", zap.Error(err), zap.String("target_id", targetID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, allocations)
}

// ListByDistributor godoc
// @Summary List a distributor's allocations
// @Description List one distributor's allocations across periods with the parent target embedded
// @Tags Allocations
// @Produce json
// @Param id path string true "Distributor ID"
// @Param year query int false "Filter by year"
// @Param quarter query string false "Filter by quarter" Enums(Q1, Q2, Q3, Q4)
// @Success 200 {array} domain.TargetAllocationDTO
// @Security BearerAuth
// @Router /distributors/{id}/targets [get]
func (h *AllocationHandler) ListByDistributor(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	distributorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid distributor ID")
		return
	}

	var year *int
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid year")
			return
		}
		year = &parsed
	}
	var quarter *domain.Quarter
	if q := r.URL.Query().Get("quarter"); q != "" {
		parsed := domain.Quarter(q)
		if !parsed.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid quarter")
			return
		}
		quarter = &parsed
	}

	allocations, err := h.allocationService.GetByDistributor(r.Context(), user.UserID, distributorID, year, quarter)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to list distributor allocations", zap.Error(err),
				zap.String("distributor_id", distributorID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, allocations)
}

// UpdateCompletion godoc
// @Summary Update a completion figure
// @Description Write one completion field on an allocation and re-aggregate the parent target's totals
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Allocation ID"
// @Param completion body domain.UpdateCompletionRequest true "Field name and value"
// @Success 200 {object} domain.TargetAllocationDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /allocations/{id}/completion [put]
func (h *AllocationHandler) UpdateCompletion(w http.ResponseWriter, r *http.Request) {
	allocationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid allocation ID")
		return
	}

	var req domain.UpdateCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	allocation, err := h.allocationService.UpdateCompletion(r.Context(), allocationID, req.Field, req.Value)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to update completion", zap.Error(err),
				zap.String("allocation_id", allocationID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, allocation)
}

// Delete godoc
// @Summary Delete an allocation
// @Description Remove an allocation and re-aggregate the parent target's completion totals
// @Tags Allocations
// @Param id path string true "Allocation ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /allocations/{id} [delete]
func (h *AllocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	allocationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid allocation ID")
		return
	}

	if err := h.allocationService.Delete(r.Context(), user.UserID, allocationID); err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to delete allocation", zap.Error(err),
				zap.String("allocation_id", allocationID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// UpsertDistributorTarget godoc
// @Summary Record a distributor's target bottom-up
// @Description Upsert one distributor's goals for a period. The parent target is found or created and its goal totals recomputed from its children.
// @Tags Allocations
// @Accept json
// @Produce json
// @Param target body domain.UpsertDistributorTargetRequest true "Distributor target data"
// @Success 200 {object} domain.TargetAllocationDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /distributor-targets [post]
func (h *AllocationHandler) UpsertDistributorTarget(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	var req domain.UpsertDistributorTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	allocation, err := h.allocationService.UpsertForDistributor(r.Context(), user.UserID, req)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to upsert distributor target", zap.Error(err),
				zap.String("distributor_id", req.DistributorID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, allocation)
}
