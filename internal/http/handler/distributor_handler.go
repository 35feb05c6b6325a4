package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/timi233/channel-target-api/internal/auth"
	"github.com/timi233/channel-target-api/internal/domain"
	"github.com/timi233/channel-target-api/internal/service"
	"go.uber.org/zap"
)

type DistributorHandler struct {
	distributorService *service.DistributorService
	logger             *zap.Logger
}

func NewDistributorHandler(distributorService *service.DistributorService, logger *zap.Logger) *DistributorHandler {
	return &DistributorHandler{
		distributorService: distributorService,
		logger:             logger,
	}
}

// Create godoc
// @Summary Create a distributor
// @Tags Distributors
// @Accept json
// @Produce json
// @Param distributor body domain.CreateDistributorRequest true "Distributor data"
// @Success 201 {object} domain.DistributorDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /distributors [post]
func (h *DistributorHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	var req domain.CreateDistributorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	distributor, err := h.distributorService.Create(r.Context(), user.UserID, req)
	if err != nil {
		h.logger.Error("failed to create distributor", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, distributor)
}

// List godoc
// @Summary List distributors
// @Tags Distributors
// @Produce json
// @Param activeOnly query bool false "Only active distributors"
// @Success 200 {array} domain.DistributorDTO
// @Security BearerAuth
// @Router /distributors [get]
func (h *DistributorHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())
	activeOnly := r.URL.Query().Get("activeOnly") == "true"

	distributors, err := h.distributorService.List(r.Context(), user.UserID, activeOnly)
	if err != nil {
		h.logger.Error("failed to list distributors", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, distributors)
}

// Get godoc
// @Summary Get a distributor
// @Tags Distributors
// @Produce json
// @Param id path string true "Distributor ID"
// @Success 200 {object} domain.DistributorDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /distributors/{id} [get]
func (h *DistributorHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	distributorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid distributor ID")
		return
	}

	distributor, err := h.distributorService.GetByID(r.Context(), user.UserID, distributorID)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to get distributor", zap.Error(err),
				zap.String("distributor_id", distributorID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, distributor)
}

// Update godoc
// @Summary Update a distributor
// @Description Replace a distributor's profile. A tier change affects future allocation runs only.
// @Tags Distributors
// @Accept json
// @Produce json
// @Param id path string true "Distributor ID"
// @Param distributor body domain.UpdateDistributorRequest true "Distributor data"
// @Success 200 {object} domain.DistributorDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /distributors/{id} [put]
func (h *DistributorHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	distributorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid distributor ID")
		return
	}

	var req domain.UpdateDistributorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	distributor, err := h.distributorService.Update(r.Context(), user.UserID, distributorID, req)
	if err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to update distributor", zap.Error(err),
				zap.String("distributor_id", distributorID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, distributor)
}

// Delete godoc
// @Summary Delete a distributor
// @Description Soft-delete a distributor. Historical allocations are preserved.
// @Tags Distributors
// @Param id path string true "Distributor ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /distributors/{id} [delete]
func (h *DistributorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.MustFromContext(r.Context())

	distributorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid distributor ID")
		return
	}

	if err := h.distributorService.Delete(r.Context(), user.UserID, distributorID); err != nil {
		if !isClientError(err) {
			h.logger.Error("failed to delete distributor", zap.Error(err),
				zap.String("distributor_id", distributorID.String()))
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
