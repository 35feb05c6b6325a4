package service

import (
	"fmt"
	"math"

	"github.com/timi233/channel-target-api/internal/config"
	"github.com/timi233/channel-target-api/internal/domain"
)

// WeightResolver maps a distributor's cooperation tier, or an explicit
// caller-supplied override, to an allocation weight. The tier table comes
// from configuration so deployments can tune it without a rebuild.
type WeightResolver struct {
	cfg *config.AllocationConfig
}

// NewWeightResolver creates a new WeightResolver instance
func NewWeightResolver(cfg *config.AllocationConfig) *WeightResolver {
	return &WeightResolver{cfg: cfg}
}

// Resolve returns the allocation weight for a distributor and how it was
// determined. An override takes precedence over the tier table and marks the
// allocation as manual; it must be a positive finite number. A zero or
// negative override is rejected outright rather than silently falling back
// to the tier default. The resolved weight is always > 0.
func (w *WeightResolver) Resolve(tier domain.CooperationTier, override *float64) (float64, domain.AllocationMethod, error) {
	if override != nil {
		v := *override
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return 0, "", fmt.Errorf("%w: override must be a positive number, got %v", ErrInvalidWeight, v)
		}
		return v, domain.AllocationMethodManual, nil
	}
	return w.cfg.WeightFor(tier), domain.AllocationMethodAuto, nil
}
