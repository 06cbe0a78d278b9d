package periods

import (
	"time"

	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

// Partition selects how a fiscal year is cut into posting periods.
type Partition string

const (
	PartitionMonthly   Partition = "monthly"
	PartitionQuarterly Partition = "quarterly"
)

// FiscalYear is the closing unit. Once closed it never reopens.
type FiscalYear struct {
	ID                   int64
	BusinessID           int64
	Name                 string
	StartDate            time.Time
	EndDate              time.Time
	Status               acctshared.YearStatus
	ClosingTransactionID *int64
	ClosedBy             *int64
	ClosedAt             *time.Time
	CreatedAt            time.Time
}

// FiscalPeriod is one posting window inside a year. The trailing
// adjustment period shares the year's end date and only accepts
// postings flagged as adjustments.
type FiscalPeriod struct {
	ID           int64
	FiscalYearID int64
	Name         string
	StartDate    time.Time
	EndDate      time.Time
	Status       acctshared.PeriodStatus
	IsAdjustment bool
}
