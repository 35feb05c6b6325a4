package service_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timi233/channel-target-api/internal/config"
	"github.com/timi233/channel-target-api/internal/domain"
	"github.com/timi233/channel-target-api/internal/service"
)

func testAllocationConfig() *config.AllocationConfig {
	return &config.AllocationConfig{
		TierWeights: map[string]float64{
			"bronze":   0.6,
			"silver":   1.0,
			"gold":     1.3,
			"platinum": 1.6,
		},
		DefaultWeight: 1.0,
	}
}

func TestWeightResolver_Resolve(t *testing.T) {
	resolver := service.NewWeightResolver(testAllocationConfig())

	t.Run("tier weights from the table", func(t *testing.T) {
		cases := []struct {
			tier   domain.CooperationTier
			weight float64
		}{
			{domain.TierBronze, 0.6},
			{domain.TierSilver, 1.0},
			{domain.TierGold, 1.3},
			{domain.TierPlatinum, 1.6},
		}
		for _, tc := range cases {
			weight, method, err := resolver.Resolve(tc.tier, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.weight, weight)
			assert.Equal(t, domain.AllocationMethodAuto, method)
		}
	})

	t.Run("unknown tier falls back to default weight", func(t *testing.T) {
		weight, method, err := resolver.Resolve(domain.CooperationTier("diamond"), nil)
		require.NoError(t, err)
		assert.Equal(t, 1.0, weight)
		assert.Equal(t, domain.AllocationMethodAuto, method)
	})

	t.Run("override takes precedence and is marked manual", func(t *testing.T) {
		override := 2.5
		weight, method, err := resolver.Resolve(domain.TierBronze, &override)
		require.NoError(t, err)
		assert.Equal(t, 2.5, weight)
		assert.Equal(t, domain.AllocationMethodManual, method)
	})

	t.Run("non-positive override is rejected", func(t *testing.T) {
		for _, v := range []float64{0, -1} {
			override := v
			_, _, err := resolver.Resolve(domain.TierGold, &override)
			assert.ErrorIs(t, err, service.ErrInvalidWeight)
		}
	})

	t.Run("non-finite override is rejected", func(t *testing.T) {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			override := v
			_, _, err := resolver.Resolve(domain.TierGold, &override)
			assert.ErrorIs(t, err, service.ErrInvalidWeight)
		}
	})
}
