package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timi233/channel-target-api/internal/domain"
	"github.com/timi233/channel-target-api/internal/repository"
	"github.com/timi233/channel-target-api/internal/testutil"
)

func TestAllocationRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewAllocationRepository(db)

	userID := uuid.New()
	distributor := testutil.CreateDistributor(t, db, userID, "Partner", domain.TierGold)
	target := testutil.CreateYearlyTarget(t, db, userID, 2026, domain.GoalMetrics{NewSignTarget: 100})

	first := &domain.TargetAllocation{
		TargetID:      target.ID,
		DistributorID: distributor.ID,
		Year:          2026,
		TierSnapshot:  domain.TierGold,
		Weight:        1.3,
		Method:        domain.AllocationMethodAuto,
		GoalMetrics:   domain.GoalMetrics{NewSignTarget: 100},
	}
	require.NoError(t, repo.Upsert(ctx, first))

	// Record a completion, then upsert the same pair again with new goals
	require.NoError(t, repo.UpdateColumn(ctx, first.ID, "new_sign_completed", 40))

	second := &domain.TargetAllocation{
		TargetID:      target.ID,
		DistributorID: distributor.ID,
		Year:          2026,
		TierSnapshot:  domain.TierGold,
		Weight:        2.0,
		Method:        domain.AllocationMethodManual,
		GoalMetrics:   domain.GoalMetrics{NewSignTarget: 150},
	}
	require.NoError(t, repo.Upsert(ctx, second))

	allocations, err := repo.ListByTarget(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, allocations, 1)

	got := allocations[0]
	assert.Equal(t, first.ID, got.ID)
	assert.InDelta(t, 150, got.NewSignTarget, 1e-9)
	assert.InDelta(t, 2.0, got.Weight, 1e-9)
	assert.Equal(t, domain.AllocationMethodManual, got.Method)
	// Completions survive a goal re-allocation
	assert.InDelta(t, 40, got.NewSignCompleted, 1e-9)
}

func TestAllocationRepository_ListByTarget_Order(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewAllocationRepository(db)

	userID := uuid.New()
	target := testutil.CreateYearlyTarget(t, db, userID, 2026, domain.GoalMetrics{})

	weights := []float64{0.6, 1.6, 1.0}
	for i, w := range weights {
		distributor := testutil.CreateDistributor(t, db, userID, "Partner", domain.TierSilver)
		require.NoError(t, repo.Upsert(ctx, &domain.TargetAllocation{
			TargetID:      target.ID,
			DistributorID: distributor.ID,
			Year:          2026,
			TierSnapshot:  domain.TierSilver,
			Weight:        w,
			Method:        domain.AllocationMethodAuto,
		}), "allocation %d", i)
	}

	allocations, err := repo.ListByTarget(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, allocations, 3)
	assert.InDelta(t, 1.6, allocations[0].Weight, 1e-9)
	assert.InDelta(t, 1.0, allocations[1].Weight, 1e-9)
	assert.InDelta(t, 0.6, allocations[2].Weight, 1e-9)
	// Distributor is preloaded for display fields
	require.NotNil(t, allocations[0].Distributor)
}

func TestAllocationRepository_SumColumnsByTarget(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewAllocationRepository(db)

	userID := uuid.New()
	target := testutil.CreateYearlyTarget(t, db, userID, 2026, domain.GoalMetrics{})

	for _, v := range []float64{30, 45} {
		distributor := testutil.CreateDistributor(t, db, userID, "Partner", domain.TierSilver)
		require.NoError(t, repo.Upsert(ctx, &domain.TargetAllocation{
			TargetID:          target.ID,
			DistributorID:     distributor.ID,
			Year:              2026,
			TierSnapshot:      domain.TierSilver,
			Weight:            1,
			Method:            domain.AllocationMethodAuto,
			CompletionMetrics: domain.CompletionMetrics{NewSignCompleted: v},
		}))
	}

	sums, err := repo.SumColumnsByTarget(ctx, target.ID, domain.CompletionColumns)
	require.NoError(t, err)
	assert.InDelta(t, 75, toFloat(t, sums["new_sign_completed"]), 1e-9)
	assert.InDelta(t, 0, toFloat(t, sums["core_opp_completed"]), 1e-9)
}

func TestAllocationRepository_SumColumnsByTarget_Empty(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewAllocationRepository(db)

	target := testutil.CreateYearlyTarget(t, db, uuid.New(), 2026, domain.GoalMetrics{})

	sums, err := repo.SumColumnsByTarget(ctx, target.ID, domain.CompletionColumns)
	require.NoError(t, err)
	// COALESCE keeps empty sets at zero instead of NULL
	assert.InDelta(t, 0, toFloat(t, sums["new_sign_completed"]), 1e-9)
}

func TestAllocationRepository_UpdateColumn_Whitelist(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewAllocationRepository(db)

	userID := uuid.New()
	distributor := testutil.CreateDistributor(t, db, userID, "Partner", domain.TierSilver)
	target := testutil.CreateYearlyTarget(t, db, userID, 2026, domain.GoalMetrics{})

	allocation := &domain.TargetAllocation{
		TargetID:      target.ID,
		DistributorID: distributor.ID,
		Year:          2026,
		TierSnapshot:  domain.TierSilver,
		Weight:        1,
		Method:        domain.AllocationMethodAuto,
	}
	require.NoError(t, repo.Upsert(ctx, allocation))

	err := repo.UpdateColumn(ctx, allocation.ID, "weight", 99)
	assert.Error(t, err)

	err = repo.UpdateColumn(ctx, allocation.ID, "core_opp_completed", 7)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, allocation.ID)
	require.NoError(t, err)
	assert.InDelta(t, 7, got.CoreOppCompleted, 1e-9)
	assert.InDelta(t, 1, got.Weight, 1e-9)
}

func toFloat(t *testing.T, v interface{}) float64 {
	t.Helper()
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		t.Fatalf("unexpected sum type %T", v)
		return 0
	}
}
