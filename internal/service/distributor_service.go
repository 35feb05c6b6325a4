package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/timi233/channel-target-api/internal/domain"
	"github.com/timi233/channel-target-api/internal/mapper"
	"github.com/timi233/channel-target-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DistributorService manages the distributor roster each user allocates
// targets against
type DistributorService struct {
	distributorRepo *repository.DistributorRepository
	logger          *zap.Logger
}

// NewDistributorService creates a new DistributorService instance
func NewDistributorService(distributorRepo *repository.DistributorRepository, logger *zap.Logger) *DistributorService {
	return &DistributorService{
		distributorRepo: distributorRepo,
		logger:          logger,
	}
}

// Create registers a distributor under the caller's ownership
func (s *DistributorService) Create(ctx context.Context, userID uuid.UUID, req domain.CreateDistributorRequest) (*domain.DistributorDTO, error) {
	distributor := &domain.Distributor{
		Name:         req.Name,
		OwnerUserID:  userID,
		Tier:         req.Tier,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		Region:       req.Region,
		IsActive:     true,
	}
	if err := s.distributorRepo.Create(ctx, distributor); err != nil {
		return nil, fmt.Errorf("failed to create distributor: %w", err)
	}

	s.logger.Info("distributor created",
		zap.String("distributor_id", distributor.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("tier", string(distributor.Tier)))

	dto := mapper.ToDistributorDTO(distributor)
	return &dto, nil
}

// List returns the caller's distributors
func (s *DistributorService) List(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]domain.DistributorDTO, error) {
	distributors, err := s.distributorRepo.ListByOwner(ctx, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list distributors: %w", err)
	}

	dtos := make([]domain.DistributorDTO, len(distributors))
	for i := range distributors {
		dtos[i] = mapper.ToDistributorDTO(&distributors[i])
	}
	return dtos, nil
}

// GetByID returns one distributor. Distributors owned by other users are
// reported as not found.
func (s *DistributorService) GetByID(ctx context.Context, userID, distributorID uuid.UUID) (*domain.DistributorDTO, error) {
	distributor, err := s.getOwned(ctx, userID, distributorID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToDistributorDTO(distributor)
	return &dto, nil
}

// Update replaces a distributor's profile fields. A tier change affects
// future allocation runs only; existing allocations keep their tier snapshot.
func (s *DistributorService) Update(ctx context.Context, userID, distributorID uuid.UUID, req domain.UpdateDistributorRequest) (*domain.DistributorDTO, error) {
	distributor, err := s.getOwned(ctx, userID, distributorID)
	if err != nil {
		return nil, err
	}

	distributor.Name = req.Name
	distributor.Tier = req.Tier
	distributor.ContactName = req.ContactName
	distributor.ContactPhone = req.ContactPhone
	distributor.Region = req.Region
	if req.IsActive != nil {
		distributor.IsActive = *req.IsActive
	}

	if err := s.distributorRepo.Update(ctx, distributor); err != nil {
		return nil, fmt.Errorf("failed to update distributor: %w", err)
	}

	s.logger.Info("distributor updated",
		zap.String("distributor_id", distributor.ID.String()),
		zap.String("user_id", userID.String()))

	dto := mapper.ToDistributorDTO(distributor)
	return &dto, nil
}

// Delete soft-deletes a distributor. Historical allocations survive so past
// rollups keep their provenance.
func (s *DistributorService) Delete(ctx context.Context, userID, distributorID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, distributorID); err != nil {
		return err
	}
	if err := s.distributorRepo.Delete(ctx, distributorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete distributor: %w", err)
	}

	s.logger.Info("distributor deleted",
		zap.String("distributor_id", distributorID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

func (s *DistributorService) getOwned(ctx context.Context, userID, distributorID uuid.UUID) (*domain.Distributor, error) {
	distributor, err := s.distributorRepo.GetOwned(ctx, distributorID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get distributor: %w", err)
	}
	return distributor, nil
}
