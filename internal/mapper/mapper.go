// Package mapper converts GORM models to response DTOs.
package mapper

import (
	"github.com/timi233/channel-target-api/internal/domain"
)

// ToDistributorDTO converts a Distributor model to its DTO
func ToDistributorDTO(d *domain.Distributor) domain.DistributorDTO {
	return domain.DistributorDTO{
		ID:           d.ID,
		Name:         d.Name,
		OwnerUserID:  d.OwnerUserID,
		Tier:         d.Tier,
		ContactName:  d.ContactName,
		ContactPhone: d.ContactPhone,
		Region:       d.Region,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ToTargetDTO converts a Target model to its DTO
func ToTargetDTO(t *domain.Target) domain.TargetDTO {
	return domain.TargetDTO{
		ID:                t.ID,
		UserID:            t.UserID,
		Year:              t.Year,
		Quarter:           t.Quarter,
		Month:             t.Month,
		TargetType:        t.TargetType,
		GoalMetrics:       t.GoalMetrics,
		CompletionMetrics: t.CompletionMetrics,
		AllocationStatus:  t.AllocationStatus,
		Description:       t.Description,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// ToTargetAllocationDTO converts a TargetAllocation model to its DTO.
// Distributor display fields and the embedded parent target are filled in
// when the corresponding associations were preloaded.
func ToTargetAllocationDTO(a *domain.TargetAllocation) domain.TargetAllocationDTO {
	dto := domain.TargetAllocationDTO{
		ID:                a.ID,
		TargetID:          a.TargetID,
		DistributorID:     a.DistributorID,
		Year:              a.Year,
		Quarter:           a.Quarter,
		Month:             a.Month,
		TierSnapshot:      a.TierSnapshot,
		Weight:            a.Weight,
		Method:            a.Method,
		GoalMetrics:       a.GoalMetrics,
		CompletionMetrics: a.CompletionMetrics,
		Note:              a.Note,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}

	if a.Distributor != nil {
		dto.DistributorName = a.Distributor.Name
		dto.DistributorTier = a.Distributor.Tier
	}
	if a.Target != nil {
		target := ToTargetDTO(a.Target)
		dto.Target = &target
	}

	return dto
}

// ToTargetAllocationDTOs converts a slice of allocations
func ToTargetAllocationDTOs(allocations []domain.TargetAllocation) []domain.TargetAllocationDTO {
	dtos := make([]domain.TargetAllocationDTO, len(allocations))
	for i := range allocations {
		dtos[i] = ToTargetAllocationDTO(&allocations[i])
	}
	return dtos
}
