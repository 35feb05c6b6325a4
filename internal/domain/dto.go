package domain

import (
	"time"

	"github.com/google/uuid"
)

// Target request DTOs

type CreateTargetRequest struct {
	Year        int        `json:"year" validate:"required,gte=2000,lte=2100"`
	Quarter     *Quarter   `json:"quarter,omitempty" validate:"omitempty,oneof=Q1 Q2 Q3 Q4"`
	Month       *int       `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	TargetType  TargetType `json:"targetType" validate:"required,oneof=yearly quarterly monthly"`
	Description string     `json:"description,omitempty"`
	GoalMetrics
}

type UpdateTargetRequest struct {
	Description *string  `json:"description,omitempty"`
	NewSignTarget          *float64 `json:"newSignTarget,omitempty" validate:"omitempty,gte=0"`
	CoreOppTarget          *float64 `json:"coreOppTarget,omitempty" validate:"omitempty,gte=0"`
	CoreRevenueTarget      *float64 `json:"coreRevenueTarget,omitempty" validate:"omitempty,gte=0"`
	HighValueOppTarget     *float64 `json:"highValueOppTarget,omitempty" validate:"omitempty,gte=0"`
	HighValueRevenueTarget *float64 `json:"highValueRevenueTarget,omitempty" validate:"omitempty,gte=0"`
}

// ListTargetsFilter narrows a target listing by period
type ListTargetsFilter struct {
	Year       *int
	Quarter    *Quarter
	TargetType *TargetType
}

// Allocation request DTOs

// AllocationOverride carries a caller-supplied weight and note for one
// distributor inside a batch allocation run
type AllocationOverride struct {
	Weight *float64 `json:"weight,omitempty"`
	Note   string   `json:"note,omitempty"`
}

type AllocateRequest struct {
	DistributorIDs []uuid.UUID                      `json:"distributorIds,omitempty"`
	Overrides      map[uuid.UUID]AllocationOverride `json:"overrides,omitempty"`
}

type UpdateCompletionRequest struct {
	Field string  `json:"field" validate:"required"`
	Value float64 `json:"value"`
}

// UpsertDistributorTargetRequest is the bottom-up entry point: one
// distributor's goals for a period, with the parent target resolved or
// created as a side effect. Goal fields are pointers so that omitted fields
// are left untouched on an existing allocation.
type UpsertDistributorTargetRequest struct {
	DistributorID uuid.UUID  `json:"distributorId" validate:"required"`
	Year          int        `json:"year" validate:"required,gte=2000,lte=2100"`
	Quarter       *Quarter   `json:"quarter,omitempty" validate:"omitempty,oneof=Q1 Q2 Q3 Q4"`
	Month         *int       `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	TargetType    TargetType `json:"targetType" validate:"required,oneof=yearly quarterly monthly"`

	NewSignTarget          *float64 `json:"newSignTarget,omitempty" validate:"omitempty,gte=0"`
	CoreOppTarget          *float64 `json:"coreOppTarget,omitempty" validate:"omitempty,gte=0"`
	CoreRevenueTarget      *float64 `json:"coreRevenueTarget,omitempty" validate:"omitempty,gte=0"`
	HighValueOppTarget     *float64 `json:"highValueOppTarget,omitempty" validate:"omitempty,gte=0"`
	HighValueRevenueTarget *float64 `json:"highValueRevenueTarget,omitempty" validate:"omitempty,gte=0"`

	Note *string `json:"note,omitempty"`
}

// Distributor request DTOs

type CreateDistributorRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Tier         CooperationTier `json:"tier" validate:"required,oneof=bronze silver gold platinum"`
	ContactName  string          `json:"contactName,omitempty" validate:"max=100"`
	ContactPhone string          `json:"contactPhone,omitempty" validate:"max=50"`
	Region       string          `json:"region,omitempty" validate:"max=100"`
}

type UpdateDistributorRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Tier         CooperationTier `json:"tier" validate:"required,oneof=bronze silver gold platinum"`
	ContactName  string          `json:"contactName,omitempty" validate:"max=100"`
	ContactPhone string          `json:"contactPhone,omitempty" validate:"max=50"`
	Region       string          `json:"region,omitempty" validate:"max=100"`
	IsActive     *bool           `json:"isActive,omitempty"`
}

// Response DTOs

type DistributorDTO struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	OwnerUserID  uuid.UUID       `json:"ownerUserId"`
	Tier         CooperationTier `json:"tier"`
	ContactName  string          `json:"contactName,omitempty"`
	ContactPhone string          `json:"contactPhone,omitempty"`
	Region       string          `json:"region,omitempty"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type TargetDTO struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	Year       int        `json:"year"`
	Quarter    *Quarter   `json:"quarter,omitempty"`
	Month      *int       `json:"month,omitempty"`
	TargetType TargetType `json:"targetType"`
	GoalMetrics
	CompletionMetrics
	AllocationStatus AllocationStatus `json:"allocationStatus"`
	Description      string           `json:"description,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

type TargetAllocationDTO struct {
	ID            uuid.UUID `json:"id"`
	TargetID      uuid.UUID `json:"targetId"`
	DistributorID uuid.UUID `json:"distributorId"`
	Year          int       `json:"year"`
	Quarter       *Quarter  `json:"quarter,omitempty"`
	Month         *int      `json:"month,omitempty"`

	TierSnapshot CooperationTier  `json:"tierSnapshot"`
	Weight       float64          `json:"weight"`
	Method       AllocationMethod `json:"method"`
	GoalMetrics
	CompletionMetrics
	Note string `json:"note,omitempty"`

	// Denormalized distributor display fields for caller convenience
	DistributorName string          `json:"distributorName,omitempty"`
	DistributorTier CooperationTier `json:"distributorTier,omitempty"`

	// Parent target, embedded when listing by distributor
	Target *TargetDTO `json:"target,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
