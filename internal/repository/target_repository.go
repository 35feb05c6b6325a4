package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/timi233/channel-target-api/internal/domain"
	"gorm.io/gorm"
)

// TargetRepository handles database operations for channel targets
type TargetRepository struct {
	db *gorm.DB
}

// NewTargetRepository creates a new TargetRepository instance
func NewTargetRepository(db *gorm.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *TargetRepository) WithTx(tx *gorm.DB) *TargetRepository {
	return &TargetRepository{db: tx}
}

// UpdateColumns writes the given column values onto a target. Used by the
// rollup paths to replace aggregated metric fields wholesale.
func (r *TargetRepository) UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&domain.Target{}).
		Where("id = ?", id).
		Updates(values).Error
}

// Create inserts a new target
func (r *TargetRepository) Create(ctx context.Context, target *domain.Target) error {
	return r.db.WithContext(ctx).Create(target).Error
}

// GetByID retrieves a target by its ID
func (r *TargetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Target, error) {
	var target domain.Target
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&target).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// FindByScope looks up the target matching (user, year, quarter, month, type)
// exactly. Nil quarter/month must match stored NULLs, so that a yearly target
// and a quarterly target in the same year are never confused.
func (r *TargetRepository) FindByScope(ctx context.Context, userID uuid.UUID, year int, quarter *domain.Quarter, month *int, targetType domain.TargetType) (*domain.Target, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND year = ? AND target_type = ?", userID, year, targetType)
	query = scopeNullAware(query, quarter, month)

	var target domain.Target
	if err := query.First(&target).Error; err != nil {
		return nil, err
	}
	return &target, nil
}

// scopeNullAware applies quarter/month conditions with explicit NULL matching
func scopeNullAware(query *gorm.DB, quarter *domain.Quarter, month *int) *gorm.DB {
	if quarter == nil {
		query = query.Where("quarter IS NULL")
	} else {
		query = query.Where("quarter = ?", *quarter)
	}
	if month == nil {
		query = query.Where("month IS NULL")
	} else {
		query = query.Where("month = ?", *month)
	}
	return query
}

// List returns a user's targets filtered by period
func (r *TargetRepository) List(ctx context.Context, userID uuid.UUID, filter domain.ListTargetsFilter) ([]domain.Target, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Year != nil {
		query = query.Where("year = ?", *filter.Year)
	}
	if filter.Quarter != nil {
		query = query.Where("quarter = ?", *filter.Quarter)
	}
	if filter.TargetType != nil {
		query = query.Where("target_type = ?", *filter.TargetType)
	}

	var targets []domain.Target
	err := query.Order("year DESC, created_at DESC").Find(&targets).Error
	return targets, err
}

// ListIDs returns the ids of every target; used by the reconciliation job
func (r *TargetRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.Target{}).
		Pluck("id", &ids).Error
	return ids, err
}

// Update saves changes to an existing target
func (r *TargetRepository) Update(ctx context.Context, target *domain.Target) error {
	return r.db.WithContext(ctx).Save(target).Error
}

// Delete removes a target and its allocations
func (r *TargetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Allocations do not outlive their parent; delete them first so the
		// behavior does not depend on database-level cascade support
		if err := tx.Where("target_id = ?", id).Delete(&domain.TargetAllocation{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Target{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
