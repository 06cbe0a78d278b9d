package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

// SourceType tags a transaction with the producer that created it.
type SourceType string

const (
	SourceManual     SourceType = "manual"
	SourceInvoice    SourceType = "invoice"
	SourceBill       SourceType = "bill"
	SourcePayroll    SourceType = "payroll"
	SourceClosing    SourceType = "closing"
	SourceAdjustment SourceType = "adjustment"
	SourceOpening    SourceType = "opening"
	SourceWriteOff   SourceType = "write_off"
	SourceRecovery   SourceType = "recovery"
	SourceInventory  SourceType = "inventory"
	SourceReversal   SourceType = "reversal"
)

// Transaction is an immutable posted journal transaction. Corrections
// happen through reversing transactions, never through updates.
type Transaction struct {
	ID         int64
	BusinessID int64
	BranchID   int64
	PeriodID   int64
	Number     string
	Date       time.Time
	Memo       string
	SourceType SourceType
	SourceID   string
	ReversesID *int64
	CreatedBy  int64
	CreatedAt  time.Time
	Entries    []Entry
}

// Entry is one debit or credit line of a transaction.
type Entry struct {
	ID            int64
	TransactionID int64
	AccountID     int64
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Memo          string
}

// PostingPeriod is the row-locked projection of the fiscal period a
// posting lands in.
type PostingPeriod struct {
	ID           int64
	FiscalYearID int64
	StartDate    time.Time
	EndDate      time.Time
	Status       acctshared.PeriodStatus
	IsAdjustment bool
}

// Balance is a derived account balance, never a stored column.
type Balance struct {
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	// Net is sign-adjusted by the account's normal side.
	Net decimal.Decimal
}
