package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/timi233/channel-target-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllocationRepository handles database operations for target allocations
type AllocationRepository struct {
	db *gorm.DB
}

// NewAllocationRepository creates a new AllocationRepository instance
func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *AllocationRepository) WithTx(tx *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: tx}
}

// upsertColumns are the columns a batch allocation run is allowed to
// overwrite on an existing row. Completion fields and the tier snapshot
// stay untouched.
var upsertColumns = []string{
	"weight",
	"method",
	"new_sign_target",
	"core_opp_target",
	"core_revenue_target",
	"high_value_opp_target",
	"high_value_revenue_target",
	"note",
	"updated_at",
}

// Upsert inserts the allocation or, when a row for (target, distributor)
// already exists, overwrites its weight, method, goal fields and note in
// place. Relies on the store's native upsert so concurrent callers racing to
// create the first allocation never produce duplicates.
func (r *AllocationRepository) Upsert(ctx context.Context, allocation *domain.TargetAllocation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "target_id"}, {Name: "distributor_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(allocation).Error
}

// GetByID retrieves an allocation by its ID
func (r *AllocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TargetAllocation, error) {
	var allocation domain.TargetAllocation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&allocation).Error
	if err != nil {
		return nil, err
	}
	return &allocation, nil
}

// GetByTargetAndDistributor retrieves the single allocation for a
// (target, distributor) pair
func (r *AllocationRepository) GetByTargetAndDistributor(ctx context.Context, targetID, distributorID uuid.UUID) (*domain.TargetAllocation, error) {
	var allocation domain.TargetAllocation
	err := r.db.WithContext(ctx).
		Where("target_id = ? AND distributor_id = ?", targetID, distributorID).
		First(&allocation).Error
	if err != nil {
		return nil, err
	}
	return &allocation, nil
}

// ListByTarget returns all allocations under a parent target, heaviest first,
// with distributor display data preloaded
func (r *AllocationRepository) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]domain.TargetAllocation, error) {
	var allocations []domain.TargetAllocation
	err := r.db.WithContext(ctx).
		Preload("Distributor").
		Where("target_id = ?", targetID).
		Order("weight DESC, created_at ASC").
		Find(&allocations).Error
	return allocations, err
}

// ListByDistributor returns a distributor's allocations across targets with
// the parent target embedded, optionally filtered by year and quarter
func (r *AllocationRepository) ListByDistributor(ctx context.Context, distributorID uuid.UUID, year *int, quarter *domain.Quarter) ([]domain.TargetAllocation, error) {
	query := r.db.WithContext(ctx).
		Preload("Target").
		Where("distributor_id = ?", distributorID)
	if year != nil {
		query = query.Where("year = ?", *year)
	}
	if quarter != nil {
		query = query.Where("quarter = ?", *quarter)
	}

	var allocations []domain.TargetAllocation
	err := query.Order("year DESC, created_at DESC").Find(&allocations).Error
	return allocations, err
}

// metricColumns are the only columns UpdateColumn may touch
var metricColumns = func() map[string]bool {
	m := make(map[string]bool)
	for _, col := range append(append([]string{}, domain.GoalColumns...), domain.CompletionColumns...) {
		m[col] = true
	}
	return m
}()

// UpdateColumn writes a single metric column on an allocation. Any column
// outside the goal and completion metric set is rejected, so caller input
// can never steer the write elsewhere.
func (r *AllocationRepository) UpdateColumn(ctx context.Context, id uuid.UUID, column string, value float64) error {
	if !metricColumns[column] {
		return fmt.Errorf("column %q is not an updatable metric", column)
	}
	result := r.db.WithContext(ctx).
		Model(&domain.TargetAllocation{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an allocation
func (r *AllocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.TargetAllocation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SumColumnsByTarget sums the given metric columns across all of a target's
// allocations in one query. A target without children yields zero sums, not
// an error.
func (r *AllocationRepository) SumColumnsByTarget(ctx context.Context, targetID uuid.UUID, columns []string) (map[string]interface{}, error) {
	selects := make([]string, len(columns))
	for i, col := range columns {
		selects[i] = fmt.Sprintf("COALESCE(SUM(%s), 0) AS %s", col, col)
	}

	sums := make(map[string]interface{})
	err := r.db.WithContext(ctx).
		Model(&domain.TargetAllocation{}).
		Where("target_id = ?", targetID).
		Select(strings.Join(selects, ", ")).
		Take(&sums).Error
	if err != nil {
		return nil, err
	}
	return sums, nil
}

// CountByTarget returns the number of allocations under a parent target
func (r *AllocationRepository) CountByTarget(ctx context.Context, targetID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.TargetAllocation{}).
		Where("target_id = ?", targetID).
		Count(&count).Error
	return int(count), err
}
