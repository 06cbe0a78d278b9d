package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTrialBalanceSnapshot refreshes stored trial balances for every
	// business with activity.
	TaskTrialBalanceSnapshot = "reports:tb_snapshot"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "shared:idempotency_cleanup"
)

// TrialBalanceSnapshotPayload scopes one snapshot run. A zero AsOf means
// "end of the previous day".
type TrialBalanceSnapshotPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewTrialBalanceSnapshotTask constructs an Asynq task.
func NewTrialBalanceSnapshotTask(payload TrialBalanceSnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTrialBalanceSnapshot, data), nil
}

// IdempotencyCleanupPayload carries the retention window for key pruning.
type IdempotencyCleanupPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
