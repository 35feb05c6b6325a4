// Package testutil provides shared helpers for package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/timi233/channel-target-api/internal/database"
	"github.com/timi233/channel-target-api/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a fresh in-memory SQLite database and migrates the
// schema. Each call returns an isolated database, so tests need no cleanup.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A uniquely named shared-cache database keeps all pooled connections
	// on the same in-memory store while isolating tests from each other
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	require.NoError(t, database.AutoMigrate(db), "failed to migrate test database")

	return db
}

// CreateDistributor inserts a distributor owned by the given user
func CreateDistributor(t *testing.T, db *gorm.DB, ownerUserID uuid.UUID, name string, tier domain.CooperationTier) *domain.Distributor {
	t.Helper()

	distributor := &domain.Distributor{
		Name:        name,
		OwnerUserID: ownerUserID,
		Tier:        tier,
		IsActive:    true,
	}
	require.NoError(t, db.Create(distributor).Error)
	return distributor
}

// CreateYearlyTarget inserts a yearly target with the given goal figures
func CreateYearlyTarget(t *testing.T, db *gorm.DB, userID uuid.UUID, year int, goals domain.GoalMetrics) *domain.Target {
	t.Helper()

	target := &domain.Target{
		UserID:           userID,
		Year:             year,
		TargetType:       domain.TargetTypeYearly,
		GoalMetrics:      goals,
		AllocationStatus: domain.AllocationStatusPending,
	}
	require.NoError(t, db.Create(target).Error)
	return target
}
