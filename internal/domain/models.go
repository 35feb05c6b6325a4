package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns a UUID when the record is created without one.
// IDs are generated application-side so the same models work on both
// PostgreSQL and the SQLite databases used in tests.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// CooperationTier represents the cooperation level of a distributor
type CooperationTier string

const (
	TierBronze   CooperationTier = "bronze"
	TierSilver   CooperationTier = "silver"
	TierGold     CooperationTier = "gold"
	TierPlatinum CooperationTier = "platinum"
)

// IsValid checks if the CooperationTier is a valid enum value
func (t CooperationTier) IsValid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}

// TargetType represents the period granularity of a target
type TargetType string

const (
	TargetTypeYearly    TargetType = "yearly"
	TargetTypeQuarterly TargetType = "quarterly"
	TargetTypeMonthly   TargetType = "monthly"
)

// IsValid checks if the TargetType is a valid enum value
func (t TargetType) IsValid() bool {
	switch t {
	case TargetTypeYearly, TargetTypeQuarterly, TargetTypeMonthly:
		return true
	}
	return false
}

// Quarter labels a calendar quarter within a target's year
type Quarter string

const (
	QuarterQ1 Quarter = "Q1"
	QuarterQ2 Quarter = "Q2"
	QuarterQ3 Quarter = "Q3"
	QuarterQ4 Quarter = "Q4"
)

// IsValid checks if the Quarter is a valid enum value
func (q Quarter) IsValid() bool {
	switch q {
	case QuarterQ1, QuarterQ2, QuarterQ3, QuarterQ4:
		return true
	}
	return false
}

// AllocationStatus tracks how far a target has been distributed to channels
type AllocationStatus string

const (
	// AllocationStatusPending means no allocations exist yet
	AllocationStatusPending AllocationStatus = "pending"
	// AllocationStatusPartial means allocations exist but were not finalized
	// through the batch allocation run (e.g. created bottom-up)
	AllocationStatusPartial AllocationStatus = "partial"
	// AllocationStatusAllocated means the batch allocation run produced them
	AllocationStatusAllocated AllocationStatus = "allocated"
)

// AllocationMethod records how an allocation weight was determined
type AllocationMethod string

const (
	// AllocationMethodAuto means the weight came from the tier weight table
	AllocationMethodAuto AllocationMethod = "auto"
	// AllocationMethodManual means the weight was supplied explicitly
	AllocationMethodManual AllocationMethod = "manual"
)

// Distributor represents a channel partner managed by one user
type Distributor struct {
	BaseModel
	Name         string          `gorm:"type:varchar(200);not null;index"`
	OwnerUserID  uuid.UUID       `gorm:"type:uuid;not null;index;column:owner_user_id"`
	Tier         CooperationTier `gorm:"type:varchar(20);not null;default:'bronze';index"`
	ContactName  string          `gorm:"type:varchar(100);column:contact_name"`
	ContactPhone string          `gorm:"type:varchar(50);column:contact_phone"`
	Region       string          `gorm:"type:varchar(100)"`
	IsActive     bool            `gorm:"not null;default:true;column:is_active"`
	DeletedAt    gorm.DeletedAt  `gorm:"index"`
}

// GoalMetrics holds the five planned goal figures shared by targets and
// their per-distributor allocations.
type GoalMetrics struct {
	NewSignTarget          float64 `gorm:"not null;default:0;column:new_sign_target" json:"newSignTarget"`
	CoreOppTarget          float64 `gorm:"not null;default:0;column:core_opp_target" json:"coreOppTarget"`
	CoreRevenueTarget      float64 `gorm:"not null;default:0;column:core_revenue_target" json:"coreRevenueTarget"`
	HighValueOppTarget     float64 `gorm:"not null;default:0;column:high_value_opp_target" json:"highValueOppTarget"`
	HighValueRevenueTarget float64 `gorm:"not null;default:0;column:high_value_revenue_target" json:"highValueRevenueTarget"`
}

// CompletionMetrics holds the five tracked actuals mirroring GoalMetrics.
// On a Target these are always derived by aggregation, never hand-edited.
type CompletionMetrics struct {
	NewSignCompleted          float64 `gorm:"not null;default:0;column:new_sign_completed" json:"newSignCompleted"`
	CoreOppCompleted          float64 `gorm:"not null;default:0;column:core_opp_completed" json:"coreOppCompleted"`
	CoreRevenueCompleted      float64 `gorm:"not null;default:0;column:core_revenue_completed" json:"coreRevenueCompleted"`
	HighValueOppCompleted     float64 `gorm:"not null;default:0;column:high_value_opp_completed" json:"highValueOppCompleted"`
	HighValueRevenueCompleted float64 `gorm:"not null;default:0;column:high_value_revenue_completed" json:"highValueRevenueCompleted"`
}

// GoalColumns are the database columns of GoalMetrics, in declaration order.
var GoalColumns = []string{
	"new_sign_target",
	"core_opp_target",
	"core_revenue_target",
	"high_value_opp_target",
	"high_value_revenue_target",
}

// CompletionColumns are the database columns of CompletionMetrics.
var CompletionColumns = []string{
	"new_sign_completed",
	"core_opp_completed",
	"core_revenue_completed",
	"high_value_opp_completed",
	"high_value_revenue_completed",
}

// CompletionFieldColumns maps the external completion field keys accepted by
// the completion update endpoint to their database columns. Keys not present
// here must be rejected, never written through to an arbitrary column.
var CompletionFieldColumns = map[string]string{
	"newSignCompleted":          "new_sign_completed",
	"coreOppCompleted":          "core_opp_completed",
	"coreRevenueCompleted":      "core_revenue_completed",
	"highValueOppCompleted":     "high_value_opp_completed",
	"highValueRevenueCompleted": "high_value_revenue_completed",
}

// Target represents a period-scoped set of sales goals owned by one manager.
// Scope (user, year, quarter, month, type) is logically unique per owner.
type Target struct {
	BaseModel
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id"`
	Year       int        `gorm:"not null;index"`
	Quarter    *Quarter   `gorm:"type:varchar(2)"`
	Month      *int       `gorm:""`
	TargetType TargetType `gorm:"type:varchar(20);not null;column:target_type"`
	GoalMetrics
	CompletionMetrics
	AllocationStatus AllocationStatus   `gorm:"type:varchar(20);not null;default:'pending';column:allocation_status"`
	Description      string             `gorm:"type:text"`
	Allocations      []TargetAllocation `gorm:"foreignKey:TargetID;constraint:OnDelete:CASCADE"`
}

// TargetAllocation represents one distributor's share of a parent target.
// At most one allocation row exists per (target, distributor) pair.
type TargetAllocation struct {
	BaseModel
	TargetID      uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_target_distributor;column:target_id"`
	Target        *Target      `gorm:"foreignKey:TargetID"`
	DistributorID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_target_distributor;column:distributor_id"`
	Distributor   *Distributor `gorm:"foreignKey:DistributorID"`

	// Scope copied from the parent at creation time for query convenience
	Year    int      `gorm:"not null;index"`
	Quarter *Quarter `gorm:"type:varchar(2)"`
	Month   *int     `gorm:""`

	// Tier at allocation time; later tier changes do not rewrite history
	TierSnapshot CooperationTier  `gorm:"type:varchar(20);not null;column:tier_snapshot"`
	Weight       float64          `gorm:"not null;default:1"`
	Method       AllocationMethod `gorm:"type:varchar(10);not null;default:'auto'"`
	GoalMetrics
	CompletionMetrics
	Note string `gorm:"type:text"`
}
