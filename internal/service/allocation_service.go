package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/timi233/channel-target-api/internal/domain"
	"github.com/timi233/channel-target-api/internal/mapper"
	"github.com/timi233/channel-target-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AllocationService implements the target allocation engine: distributing a
// manager's target across distributors by weight, rolling completion figures
// back up into the parent, and resolving parents bottom-up from single
// distributor entries.
type AllocationService struct {
	targetRepo      *repository.TargetRepository
	allocationRepo  *repository.AllocationRepository
	distributorRepo *repository.DistributorRepository
	weights         *WeightResolver
	logger          *zap.Logger
	db              *gorm.DB
}

// NewAllocationService creates a new AllocationService instance
func NewAllocationService(
	targetRepo *repository.TargetRepository,
	allocationRepo *repository.AllocationRepository,
	distributorRepo *repository.DistributorRepository,
	weights *WeightResolver,
	logger *zap.Logger,
	db *gorm.DB,
) *AllocationService {
	return &AllocationService{
		targetRepo:      targetRepo,
		allocationRepo:  allocationRepo,
		distributorRepo: distributorRepo,
		weights:         weights,
		logger:          logger,
		db:              db,
	}
}

// Allocate distributes a parent target's goal fields across the owner's
// active distributors in proportion to their resolved weights, upserting one
// allocation row per distributor. The whole batch commits atomically; a
// failed distributor fails the batch rather than being skipped.
func (s *AllocationService) Allocate(ctx context.Context, userID, targetID uuid.UUID, req domain.AllocateRequest) ([]domain.TargetAllocationDTO, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.targetRepo.WithTx(tx).GetByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get target: %w", err)
		}
		if target.UserID != userID {
			return ErrPermissionDenied
		}

		distributors, err := s.distributorRepo.WithTx(tx).
			ListActiveByOwnerAndIDs(ctx, target.UserID, req.DistributorIDs)
		if err != nil {
			return fmt.Errorf("failed to list distributors: %w", err)
		}
		if len(distributors) == 0 {
			return ErrEmptyAllocationSet
		}

		weights := make([]float64, len(distributors))
		methods := make([]domain.AllocationMethod, len(distributors))
		totalWeight := 0.0
		for i, dist := range distributors {
			var override *float64
			if o, ok := req.Overrides[dist.ID]; ok {
				override = o.Weight
			}
			weight, method, err := s.weights.Resolve(dist.Tier, override)
			if err != nil {
				return err
			}
			weights[i] = weight
			methods[i] = method
			totalWeight += weight
		}
		// Unreachable given the resolver's positivity guarantee, but a zero
		// divisor must never make it into the share computation
		if totalWeight <= 0 {
			return fmt.Errorf("%w: total weight %v", ErrInvalidWeight, totalWeight)
		}

		allocationRepo := s.allocationRepo.WithTx(tx)
		for i, dist := range distributors {
			ratio := weights[i] / totalWeight
			allocation := &domain.TargetAllocation{
				TargetID:      target.ID,
				DistributorID: dist.ID,
				Year:          target.Year,
				Quarter:       target.Quarter,
				Month:         target.Month,
				TierSnapshot:  dist.Tier,
				Weight:        weights[i],
				Method:        methods[i],
				GoalMetrics: domain.GoalMetrics{
					NewSignTarget:          target.NewSignTarget * ratio,
					CoreOppTarget:          target.CoreOppTarget * ratio,
					CoreRevenueTarget:      target.CoreRevenueTarget * ratio,
					HighValueOppTarget:     target.HighValueOppTarget * ratio,
					HighValueRevenueTarget: target.HighValueRevenueTarget * ratio,
				},
				Note: req.Overrides[dist.ID].Note,
			}
			if err := allocationRepo.Upsert(ctx, allocation); err != nil {
				return fmt.Errorf("failed to upsert allocation for distributor %s: %w", dist.ID, err)
			}
		}

		if err := s.targetRepo.WithTx(tx).UpdateColumns(ctx, target.ID, map[string]interface{}{
			"allocation_status": domain.AllocationStatusAllocated,
		}); err != nil {
			return fmt.Errorf("failed to update allocation status: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("target allocated",
		zap.String("target_id", targetID.String()),
		zap.String("user_id", userID.String()))

	allocations, err := s.allocationRepo.ListByTarget(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	return mapper.ToTargetAllocationDTOs(allocations), nil
}

// GetByTarget returns all allocations under a parent target, heaviest first
func (s *AllocationService) GetByTarget(ctx context.Context, userID, targetID uuid.UUID) ([]domain.TargetAllocationDTO, error) {
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

	allocations, err := s.allocationRepo.ListByTarget(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	return mapper.ToTargetAllocationDTOs(allocations), nil
}

// GetByDistributor returns a distributor's allocations across periods with
// the parent target embedded. A distributor the caller does not own yields
// an empty result rather than an error.
func (s *AllocationService) GetByDistributor(ctx context.Context, userID, distributorID uuid.UUID, year *int, quarter *domain.Quarter) ([]domain.TargetAllocationDTO, error) {
	if _, err := s.distributorRepo.GetOwned(ctx, distributorID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []domain.TargetAllocationDTO{}, nil
		}
		return nil, fmt.Errorf("failed to get distributor: %w", err)
	}

	allocations, err := s.allocationRepo.ListByDistributor(ctx, distributorID, year, quarter)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	return mapper.ToTargetAllocationDTOs(allocations), nil
}

// UpdateCompletion writes one completion figure on an allocation and rolls
// the parent target's completion totals up in the same transaction, so a
// reader never sees a child update without the matching parent rollup.
func (s *AllocationService) UpdateCompletion(ctx context.Context, allocationID uuid.UUID, field string, value float64) (*domain.TargetAllocationDTO, error) {
	column, ok := domain.CompletionFieldColumns[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return nil, fmt.Errorf("%w: completion value must be a non-negative number, got %v", ErrInvalidInput, value)
	}

	var updated *domain.TargetAllocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		allocationRepo := s.allocationRepo.WithTx(tx)

		allocation, err := allocationRepo.GetByID(ctx, allocationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get allocation: %w", err)
		}

		if err := allocationRepo.UpdateColumn(ctx, allocation.ID, column, value); err != nil {
			return fmt.Errorf("failed to update completion field: %w", err)
		}

		if err := s.rollupTarget(ctx, tx, allocation.TargetID, domain.CompletionColumns); err != nil {
			return err
		}

		updated, err = allocationRepo.GetByID(ctx, allocation.ID)
		if err != nil {
			return fmt.Errorf("failed to reload allocation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := mapper.ToTargetAllocationDTO(updated)
	return &dto, nil
}

// Aggregate recomputes a target's five completion fields as the sum over all
// of its allocations. The recompute replaces prior values wholesale, making
// repeated calls idempotent and safe after arbitrary allocation edits.
func (s *AllocationService) Aggregate(ctx context.Context, targetID uuid.UUID) (*domain.TargetDTO, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.targetRepo.WithTx(tx).GetByID(ctx, targetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get target: %w", err)
		}
		return s.rollupTarget(ctx, tx, targetID, domain.CompletionColumns)
	})
	if err != nil {
		return nil, err
	}

	target, err := s.targetRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload target: %w", err)
	}
	dto := mapper.ToTargetDTO(target)
	return &dto, nil
}

// Delete removes an allocation and re-aggregates the parent's completion
// totals in the same transaction
func (s *AllocationService) Delete(ctx context.Context, userID, allocationID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		allocationRepo := s.allocationRepo.WithTx(tx)

		allocation, err := allocationRepo.GetByID(ctx, allocationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get allocation: %w", err)
		}

		target, err := s.targetRepo.WithTx(tx).GetByID(ctx, allocation.TargetID)
		if err != nil {
			return fmt.Errorf("failed to get parent target: %w", err)
		}
		if target.UserID != userID {
			return ErrNotFound
		}

		if err := allocationRepo.Delete(ctx, allocation.ID); err != nil {
			return fmt.Errorf("failed to delete allocation: %w", err)
		}

		return s.rollupTarget(ctx, tx, allocation.TargetID, domain.CompletionColumns)
	})
}

// UpsertForDistributor is the bottom-up entry point: it finds or creates the
// parent target for the requested period, upserts the distributor's
// allocation with a partial update, and recomputes the parent's goal fields
// from its children. This path never promotes the parent to allocated.
func (s *AllocationService) UpsertForDistributor(ctx context.Context, userID uuid.UUID, req domain.UpsertDistributorTargetRequest) (*domain.TargetAllocationDTO, error) {
	quarter, month, err := normalizeScope(req.TargetType, req.Quarter, req.Month)
	if err != nil {
		return nil, err
	}

	distributor, err := s.distributorRepo.GetOwned(ctx, req.DistributorID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Existence and ownership failures are reported identically
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("failed to get distributor: %w", err)
	}

	var allocationID uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		targetRepo := s.targetRepo.WithTx(tx)
		allocationRepo := s.allocationRepo.WithTx(tx)

		target, err := targetRepo.FindByScope(ctx, userID, req.Year, quarter, month, req.TargetType)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to find target: %w", err)
			}
			target = &domain.Target{
				UserID:           userID,
				Year:             req.Year,
				Quarter:          quarter,
				Month:            month,
				TargetType:       req.TargetType,
				AllocationStatus: domain.AllocationStatusPartial,
			}
			if err := targetRepo.Create(ctx, target); err != nil {
				return fmt.Errorf("failed to create target: %w", err)
			}
		}

		allocation, err := allocationRepo.GetByTargetAndDistributor(ctx, target.ID, distributor.ID)
		switch {
		case err == nil:
			// Partial update; goal fields the caller omitted stay untouched
			updates := goalUpdates(req)
			if req.Note != nil {
				updates["note"] = *req.Note
			}
			if len(updates) > 0 {
				if err := tx.Model(allocation).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update allocation: %w", err)
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			allocation = &domain.TargetAllocation{
				TargetID:      target.ID,
				DistributorID: distributor.ID,
				Year:          target.Year,
				Quarter:       target.Quarter,
				Month:         target.Month,
				TierSnapshot:  distributor.Tier,
				Weight:        1,
				Method:        domain.AllocationMethodManual,
				GoalMetrics: domain.GoalMetrics{
					NewSignTarget:          deref(req.NewSignTarget),
					CoreOppTarget:          deref(req.CoreOppTarget),
					CoreRevenueTarget:      deref(req.CoreRevenueTarget),
					HighValueOppTarget:     deref(req.HighValueOppTarget),
					HighValueRevenueTarget: deref(req.HighValueRevenueTarget),
				},
			}
			if req.Note != nil {
				allocation.Note = *req.Note
			}
			if err := allocationRepo.Upsert(ctx, allocation); err != nil {
				return fmt.Errorf("failed to create allocation: %w", err)
			}
		default:
			return fmt.Errorf("failed to get allocation: %w", err)
		}
		allocationID = allocation.ID

		// The parent's goals mirror the sum of its children on this path
		if err := s.rollupTarget(ctx, tx, target.ID, domain.GoalColumns); err != nil {
			return err
		}
		return targetRepo.UpdateColumns(ctx, target.ID, map[string]interface{}{
			"allocation_status": domain.AllocationStatusPartial,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("distributor target upserted",
		zap.String("distributor_id", distributor.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("year", req.Year))

	allocation, err := s.allocationRepo.GetByID(ctx, allocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload allocation: %w", err)
	}
	dto := mapper.ToTargetAllocationDTO(allocation)
	return &dto, nil
}

// rollupTarget recomputes the given metric columns on a parent target as the
// sum over its children. Both the completion aggregator and the bottom-up
// goal recompute share this helper so the two paths cannot drift apart.
func (s *AllocationService) rollupTarget(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, columns []string) error {
	sums, err := s.allocationRepo.WithTx(tx).SumColumnsByTarget(ctx, targetID, columns)
	if err != nil {
		return fmt.Errorf("failed to sum allocation columns: %w", err)
	}
	if err := s.targetRepo.WithTx(tx).UpdateColumns(ctx, targetID, sums); err != nil {
		return fmt.Errorf("failed to write target totals: %w", err)
	}
	return nil
}

// normalizeScope validates that the period descriptor matches the target
// type and forces inapplicable parts to nil so scope matching stays exact
func normalizeScope(targetType domain.TargetType, quarter *domain.Quarter, month *int) (*domain.Quarter, *int, error) {
	switch targetType {
	case domain.TargetTypeYearly:
		return nil, nil, nil
	case domain.TargetTypeQuarterly:
		if quarter == nil {
			return nil, nil, fmt.Errorf("%w: quarterly target requires a quarter", ErrInvalidInput)
		}
		return quarter, nil, nil
	case domain.TargetTypeMonthly:
		if month == nil {
			return nil, nil, fmt.Errorf("%w: monthly target requires a month", ErrInvalidInput)
		}
		return quarter, month, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown target type %q", ErrInvalidInput, targetType)
	}
}

// goalUpdates builds the column map for a partial goal update from the goal
// fields the caller actually supplied
func goalUpdates(req domain.UpsertDistributorTargetRequest) map[string]interface{} {
	updates := make(map[string]interface{})
	if req.NewSignTarget != nil {
		updates["new_sign_target"] = *req.NewSignTarget
	}
	if req.CoreOppTarget != nil {
		updates["core_opp_target"] = *req.CoreOppTarget
	}
	if req.CoreRevenueTarget != nil {
		updates["core_revenue_target"] = *req.CoreRevenueTarget
	}
	if req.HighValueOppTarget != nil {
		updates["high_value_opp_target"] = *req.HighValueOppTarget
	}
	if req.HighValueRevenueTarget != nil {
		updates["high_value_revenue_target"] = *req.HighValueRevenueTarget
	}
	return updates
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
