package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/timi233/channel-target-api/internal/domain"
	"gorm.io/gorm"
)

// DistributorRepository handles database operations for distributors
type DistributorRepository struct {
	db *gorm.DB
}

// NewDistributorRepository creates a new DistributorRepository instance
func NewDistributorRepository(db *gorm.DB) *DistributorRepository {
	return &DistributorRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *DistributorRepository) WithTx(tx *gorm.DB) *DistributorRepository {
	return &DistributorRepository{db: tx}
}

// Create inserts a new distributor
func (r *DistributorRepository) Create(ctx context.Context, distributor *domain.Distributor) error {
	return r.db.WithContext(ctx).Create(distributor).Error
}

// GetByID retrieves a distributor by its ID
func (r *DistributorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Distributor, error) {
	var distributor domain.Distributor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&distributor).Error
	if err != nil {
		return nil, err
	}
	return &distributor, nil
}

// GetOwned retrieves a distributor only if it belongs to the given user.
// Missing and not-owned rows are indistinguishable to the caller.
func (r *DistributorRepository) GetOwned(ctx context.Context, id, ownerUserID uuid.UUID) (*domain.Distributor, error) {
	var distributor domain.Distributor
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		First(&distributor).Error
	if err != nil {
		return nil, err
	}
	return &distributor, nil
}

// ListByOwner returns a user's distributors, optionally restricted to active ones
func (r *DistributorRepository) ListByOwner(ctx context.Context, ownerUserID uuid.UUID, activeOnly bool) ([]domain.Distributor, error) {
	var distributors []domain.Distributor
	query := r.db.WithContext(ctx).Where("owner_user_id = ?", ownerUserID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("name ASC").Find(&distributors).Error
	return distributors, err
}

// ListActiveByOwnerAndIDs returns the owner's active distributors restricted
// to the given id set; an empty id set means no restriction.
func (r *DistributorRepository) ListActiveByOwnerAndIDs(ctx context.Context, ownerUserID uuid.UUID, ids []uuid.UUID) ([]domain.Distributor, error) {
	var distributors []domain.Distributor
	query := r.db.WithContext(ctx).
		Where("owner_user_id = ? AND is_active = ?", ownerUserID, true)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	err := query.Order("name ASC").Find(&distributors).Error
	return distributors, err
}

// Update saves changes to an existing distributor
func (r *DistributorRepository) Update(ctx context.Context, distributor *domain.Distributor) error {
	return r.db.WithContext(ctx).Save(distributor).Error
}

// Delete soft-deletes a distributor
func (r *DistributorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Distributor{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
