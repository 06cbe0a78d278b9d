package periods

import (
	"fmt"
	"time"

	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

type OpenYearInput struct {
	BusinessID int64     `json:"business_id" validate:"required"`
	Name       string    `json:"name" validate:"required"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required"`
	Partition  Partition `json:"partition" validate:"omitempty,oneof=monthly quarterly"`
	ActorID    int64     `json:"-"`
}

type TransitionInput struct {
	BusinessID int64 `json:"business_id" validate:"required"`
	PeriodID   int64 `json:"-"`
	ActorID    int64 `json:"-"`
}

type CloseYearInput struct {
	BusinessID   int64 `json:"business_id" validate:"required"`
	FiscalYearID int64 `json:"-"`
	ActorID      int64 `json:"-"`
}

// CloseYearResult reports the close outcome. AlreadyClosed marks the
// idempotent repeat of an earlier close.
type CloseYearResult struct {
	Year                 FiscalYear
	ClosingTransactionID *int64
	RetainedEarnings     string
	AlreadyClosed        bool
}

// buildPeriods cuts [start, end] into calendar partitions plus one
// trailing zero-length adjustment period. Partition edges clamp to the
// year bounds so short years still cover every date exactly once.
func buildPeriods(start, end time.Time, partition Partition) []FiscalPeriod {
	months := 1
	if partition == PartitionQuarterly {
		months = 3
	}
	var out []FiscalPeriod
	for cursor := start; !cursor.After(end); {
		next := cursor.AddDate(0, months, 0)
		periodEnd := next.AddDate(0, 0, -1)
		if periodEnd.After(end) {
			periodEnd = end
		}
		name := cursor.Format("2006-01")
		if partition == PartitionQuarterly {
			name = fmt.Sprintf("%d-Q%d", cursor.Year(), (int(cursor.Month())-1)/3+1)
		}
		out = append(out, FiscalPeriod{
			Name:      name,
			StartDate: cursor,
			EndDate:   periodEnd,
			Status:    acctshared.PeriodOpen,
		})
		cursor = periodEnd.AddDate(0, 0, 1)
	}
	out = append(out, FiscalPeriod{
		Name:         fmt.Sprintf("%d-ADJ", end.Year()),
		StartDate:    end,
		EndDate:      end,
		Status:       acctshared.PeriodOpen,
		IsAdjustment: true,
	})
	return out
}
