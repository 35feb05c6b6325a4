package jobs

import (
	"context"

	"github.com/timi233/channel-target-api/internal/config"
	"github.com/timi233/channel-target-api/internal/repository"
	"github.com/timi233/channel-target-api/internal/service"
	"go.uber.org/zap"
)

// ReconcileJob periodically recomputes every target's completion totals from
// its allocations. The write path keeps parent and children consistent on
// its own; this job is a safety net against drift from manual database
// intervention or interrupted migrations.
type ReconcileJob struct {
	targetRepo        *repository.TargetRepository
	allocationService *service.AllocationService
	cfg               *config.JobsConfig
	logger            *zap.Logger
}

// NewReconcileJob creates a new ReconcileJob instance
func NewReconcileJob(
	targetRepo *repository.TargetRepository,
	allocationService *service.AllocationService,
	cfg *config.JobsConfig,
	logger *zap.Logger,
) *ReconcileJob {
	return &ReconcileJob{
		targetRepo:        targetRepo,
		allocationService: allocationService,
		cfg:               cfg,
		logger:            logger,
	}
}

// Register schedules the job on the given scheduler if enabled
func (j *ReconcileJob) Register(scheduler *Scheduler) error {
	if !j.cfg.ReconcileEnabled {
		j.logger.Info("completion reconciliation job disabled")
		return nil
	}
	return scheduler.AddJob("completion-reconcile", j.cfg.ReconcileCron, j.Run)
}

// Run reconciles all targets once. Failures on individual targets are logged
// and skipped so one bad row cannot stall the sweep.
func (j *ReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.cfg.ReconcileTimeoutDuration())
	defer cancel()

	ids, err := j.targetRepo.ListIDs(ctx)
	if err != nil {
		j.logger.Error("reconcile: failed to list targets", zap.Error(err))
		return
	}

	var failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			j.logger.Warn("reconcile: run timed out",
				zap.Int("total", len(ids)),
				zap.Int("failed", failed))
			return
		}
		if _, err := j.allocationService.Aggregate(ctx, id); err != nil {
			failed++
			j.logger.Error("reconcile: failed to aggregate target",
				zap.String("target_id", id.String()),
				zap.Error(err))
		}
	}

	j.logger.Info("reconcile: completed",
		zap.Int("total", len(ids)),
		zap.Int("failed", failed))
}
