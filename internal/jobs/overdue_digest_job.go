package jobs

import (
	"context"
	"fmt"

	"github.com/verdant-ops/gardenledger/internal/logger"
	"github.com/verdant-ops/gardenledger/internal/service"
	"go.uber.org/zap"
)

// OverdueDigestJobName is the name of the overdue digest job
const OverdueDigestJobName = "overdue_digest"

// OverdueReporter lists active plans whose last completed visit is too old
type OverdueReporter interface {
	OverdueReport(ctx context.Context) ([]service.OverduePlan, error)
	OverdueThresholdDays() int
}

// OverdueDigestJob logs every overdue active plan across all accounts.
// It runs with an unscoped context and never writes.
type OverdueDigestJob struct {
	reporter OverdueReporter
	logger   *zap.Logger
}

// NewOverdueDigestJob creates a new overdue digest job
func NewOverdueDigestJob(reporter OverdueReporter, logger *zap.Logger) *OverdueDigestJob {
	return &OverdueDigestJob{
		reporter: reporter,
		logger:   logger,
	}
}

// Name implements Job
func (j *OverdueDigestJob) Name() string {
	return OverdueDigestJobName
}

// Run implements Job
func (j *OverdueDigestJob) Run(ctx context.Context) error {
	overdue, err := j.reporter.OverdueReport(ctx)
	if err != nil {
		return fmt.Errorf("failed to build overdue report: %w", err)
	}

	for _, item := range overdue {
		planLog := logger.WithPlan(j.logger, item.Plan.ID.String())
		fields := []zap.Field{
			zap.String("account_id", item.Plan.AccountID.String()),
			zap.String("plan_name", item.Plan.Name),
		}
		if item.Status.DaysSinceLastDone != nil {
			fields = append(fields, zap.Int("days_since_last_done", *item.Status.DaysSinceLastDone))
		} else {
			fields = append(fields, zap.Bool("never_done", true))
		}
		planLog.Warn("Plan overdue", fields...)
	}

	j.logger.Info("Overdue digest complete",
		zap.Int("overdue_count", len(overdue)),
		zap.Int("threshold_days", j.reporter.OverdueThresholdDays()))
	return nil
}
