package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/aristath/dividend-tracker/internal/events"
	"github.com/aristath/dividend-tracker/internal/locking"
	"github.com/aristath/dividend-tracker/internal/modules/plans"
	"github.com/rs/zerolog"
)

// ReconcileJob materializes the due contributions of every active
// recurring plan. It runs daily; each pass also retries dates that
// were skipped earlier because no price was available.
type ReconcileJob struct {
	log         zerolog.Logger
	lockManager *locking.Manager
	repo        *plans.Repository
	scheduler   *plans.Scheduler
	prices      domain.PriceSource
	eventMgr    *events.Manager
}

// ReconcileJobConfig holds dependencies for the reconcile job
type ReconcileJobConfig struct {
	Log         zerolog.Logger
	LockManager *locking.Manager
	Repo        *plans.Repository
	Scheduler   *plans.Scheduler
	Prices      domain.PriceSource
	EventMgr    *events.Manager
}

// NewReconcileJob creates a new plan reconcile job
func NewReconcileJob(cfg ReconcileJobConfig) *ReconcileJob {
	return &ReconcileJob{
		log:         cfg.Log.With().Str("job", "plan_reconcile").Logger(),
		lockManager: cfg.LockManager,
		repo:        cfg.Repo,
		scheduler:   cfg.Scheduler,
		prices:      cfg.Prices,
		eventMgr:    cfg.EventMgr,
	}
}

// Name returns the job name
func (j *ReconcileJob) Name() string {
	return "plan_reconcile"
}

// Run reconciles all active plans as of today. A failure on one plan
// is logged and does not stop the others.
func (j *ReconcileJob) Run(ctx context.Context) error {
	if err := j.lockManager.Acquire("plan_reconcile"); err != nil {
		j.log.Warn().Err(err).Msg("Reconcile already running, skipping")
		return nil
	}
	defer j.lockManager.Release("plan_reconcile")

	asOf := domain.Day(time.Now())
	j.eventMgr.Emit(events.PlanReconcileStart, "plans", map[string]interface{}{
		"as_of": domain.FormatDay(asOf),
	})

	active, err := j.repo.GetActive()
	if err != nil {
		return fmt.Errorf("failed to load active plans: %w", err)
	}

	var failed int
	for _, plan := range active {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.reconcileOne(ctx, plan, asOf); err != nil {
			failed++
			j.log.Error().
				Err(err).
				Str("plan", plan.ID).
				Str("symbol", plan.Symbol).
				Msg("Plan reconcile failed")
		}
	}

	j.eventMgr.Emit(events.PlanReconcileComplete, "plans", map[string]interface{}{
		"as_of":  domain.FormatDay(asOf),
		"plans":  len(active),
		"failed": failed,
	})

	j.log.Info().
		Int("plans", len(active)).
		Int("failed", failed).
		Msg("Reconciled active plans")

	if failed > 0 {
		return fmt.Errorf("%d of %d plans failed to reconcile", failed, len(active))
	}
	return nil
}

func (j *ReconcileJob) reconcileOne(ctx context.Context, plan domain.RecurringPlan, asOf time.Time) error {
	reconciled, err := j.scheduler.Reconcile(ctx, plan, j.prices, asOf)
	if err != nil {
		return err
	}
	return j.repo.SaveTransactions(&reconciled)
}
