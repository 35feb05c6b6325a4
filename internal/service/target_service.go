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

// TargetService manages parent targets: the per-user, per-period records that
// allocations hang off
type TargetService struct {
	targetRepo *repository.TargetRepository
	logger     *zap.Logger
}

// NewTargetService creates a new TargetService instance
func NewTargetService(targetRepo *repository.TargetRepository, logger *zap.Logger) *TargetService {
	return &TargetService{
		targetRepo: targetRepo,
		logger:     logger,
	}
}

// Create records a new target for the caller. One target per user and period
// scope; a second create for the same scope is a conflict.
func (s *TargetService) Create(ctx context.Context, userID uuid.UUID, req domain.CreateTargetRequest) (*domain.TargetDTO, error) {
	quarter, month, err := normalizeScope(req.TargetType, req.Quarter, req.Month)
	if err != nil {
		return nil, err
	}

	existing, err := s.targetRepo.FindByScope(ctx, userID, req.Year, quarter, month, req.TargetType)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check target scope: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: target already exists for this period", ErrConflict)
	}

	target := &domain.Target{
		UserID:           userID,
		Year:             req.Year,
		Quarter:          quarter,
		Month:            month,
		TargetType:       req.TargetType,
		GoalMetrics:      req.GoalMetrics,
		AllocationStatus: domain.AllocationStatusPending,
		Description:      req.Description,
	}
	if err := s.targetRepo.Create(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to create target: %w", err)
	}

	s.logger.Info("target created",
		zap.String("target_id", target.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("year", target.Year),
		zap.String("target_type", string(target.TargetType)))

	dto := mapper.ToTargetDTO(target)
	return &dto, nil
}

// List returns the caller's targets, optionally filtered by period
func (s *TargetService) List(ctx context.Context, userID uuid.UUID, filter domain.ListTargetsFilter) ([]domain.TargetDTO, error) {
	targets, err := s.targetRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	dtos := make([]domain.TargetDTO, len(targets))
	for i := range targets {
		dtos[i] = mapper.ToTargetDTO(&targets[i])
	}
	return dtos, nil
}

// GetByID returns one target. Targets owned by other users are reported as
// not found rather than forbidden.
func (s *TargetService) GetByID(ctx context.Context, userID, targetID uuid.UUID) (*domain.TargetDTO, error) {
	target, err := s.getOwned(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToTargetDTO(target)
	return &dto, nil
}

// Update applies a partial update to a target's goal fields and description.
// Completion fields are owned by the aggregator and cannot be set here.
func (s *TargetService) Update(ctx context.Context, userID, targetID uuid.UUID, req domain.UpdateTargetRequest) (*domain.TargetDTO, error) {
	target, err := s.getOwned(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		target.Description = *req.Description
	}
	if req.NewSignTarget != nil {
		target.NewSignTarget = *req.NewSignTarget
	}
	if req.CoreOppTarget != nil {
		target.CoreOppTarget = *req.CoreOppTarget
	}
	if req.CoreRevenueTarget != nil {
		target.CoreRevenueTarget = *req.CoreRevenueTarget
	}
	if req.HighValueOppTarget != nil {
		target.HighValueOppTarget = *req.HighValueOppTarget
	}
	if req.HighValueRevenueTarget != nil {
		target.HighValueRevenueTarget = *req.HighValueRevenueTarget
	}

	if err := s.targetRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to update target: %w", err)
	}

	s.logger.Info("target updated",
		zap.String("target_id", target.ID.String()),
		zap.String("user_id", userID.String()))

	dto := mapper.ToTargetDTO(target)
	return &dto, nil
}

// Delete removes a target together with all of its allocations
func (s *TargetService) Delete(ctx context.Context, userID, targetID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, targetID); err != nil {
		return err
	}
	if err := s.targetRepo.Delete(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete target: %w", err)
	}

	s.logger.Info("target deleted",
		zap.String("target_id", targetID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

func (s *TargetService) getOwned(ctx context.Context, userID, targetID uuid.UUID) (*domain.Target, error) {
	target, err := s.targetRepo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get target: %w", err)
	}
	if target.UserID != userID {
		return nil, ErrNotFound
	}
	return target, nil
}
