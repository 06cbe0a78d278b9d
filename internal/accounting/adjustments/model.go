package adjustments

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpeningBatch records one opening balance import for a fiscal year.
type OpeningBatch struct {
	ID            int64
	BusinessID    int64
	FiscalYearID  int64
	Number        string
	TransactionID int64
	ImportedBy    int64
	ImportedAt    time.Time
}

// BankAdjustmentKind names the reconciliation discrepancy being booked.
type BankAdjustmentKind string

const (
	BankCharge     BankAdjustmentKind = "charge"
	BankInterest   BankAdjustmentKind = "interest"
	BankCorrection BankAdjustmentKind = "correction"
)

// Direction applies to corrections only: which side the bank account
// takes.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// BankAdjustment is one booked reconciliation discrepancy.
type BankAdjustment struct {
	ID            int64
	BusinessID    int64
	BankAccountID int64
	Number        string
	Kind          BankAdjustmentKind
	Amount        decimal.Decimal
	Date          time.Time
	Reference     string
	Memo          string
	TransactionID int64
	CreatedBy     int64
}
