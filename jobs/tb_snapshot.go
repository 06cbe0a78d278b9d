package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/atlas-erp/atlas-erp/internal/accounting/reports"
)

// TrialBalanceSnapshotJob refreshes stored trial balances per business.
type TrialBalanceSnapshotJob struct {
	service *reports.Service
	logger  *slog.Logger
	now     func() time.Time
}

func NewTrialBalanceSnapshotJob(service *reports.Service, logger *slog.Logger) *TrialBalanceSnapshotJob {
	return &TrialBalanceSnapshotJob{service: service, logger: logger, now: time.Now}
}

// Handle fans the snapshot out over every business with activity. One
// business failing does not stop the others; the first error is
// reported after all finish.
func (j *TrialBalanceSnapshotJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload TrialBalanceSnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		now := j.now().UTC()
		asOf = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	}
	ids, err := j.service.BusinessIDs(ctx)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, businessID := range ids {
		g.Go(func() error {
			snap, err := j.service.SnapshotTrialBalance(ctx, businessID, asOf)
			if err != nil {
				j.logger.Error("trial balance snapshot",
					slog.Int64("business_id", businessID), slog.Any("error", err))
				return err
			}
			j.logger.Info("trial balance snapshot stored",
				slog.Int64("business_id", businessID), slog.Int64("snapshot_id", snap.ID))
			return nil
		})
	}
	return g.Wait()
}
