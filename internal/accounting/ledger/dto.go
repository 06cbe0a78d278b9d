package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

// LineInput is one side of a posting. Exactly one of Debit or Credit
// must be positive.
type LineInput struct {
	AccountID int64           `json:"account_id" validate:"required"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo"`
}

// PostingInput describes one balanced transaction to append to the ledger.
type PostingInput struct {
	BusinessID int64       `json:"business_id" validate:"required"`
	BranchID   int64       `json:"branch_id"`
	Date       time.Time   `json:"date" validate:"required"`
	Memo       string      `json:"memo"`
	SourceType SourceType  `json:"source_type"`
	SourceID   string      `json:"source_id"`
	ActorID    int64       `json:"-"`
	Lines      []LineInput `json:"lines" validate:"required,min=2,dive"`

	// Adjustment targets the year's adjustment period instead of the
	// calendar period containing Date.
	Adjustment bool `json:"adjustment"`
	// Closing marks the year-end closing entry. Only the close process
	// sets it; closing entries may land in locked periods.
	Closing bool `json:"-"`

	reversesID *int64
}

// Validate enforces the double-entry shape before any storage work.
func (in PostingInput) Validate() error {
	if len(in.Lines) < 2 {
		return acctshared.ErrTooFewLines
	}
	var debits, credits decimal.Decimal
	for _, line := range in.Lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return acctshared.ErrInvalidLine
		}
		debitSet := line.Debit.IsPositive()
		creditSet := line.Credit.IsPositive()
		if debitSet == creditSet {
			return acctshared.ErrInvalidLine
		}
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}
	if !debits.Round(2).Equal(credits.Round(2)) {
		return acctshared.ErrUnbalanced
	}
	return nil
}

// ReverseInput requests a reversing transaction for a posted one.
type ReverseInput struct {
	BusinessID    int64     `json:"business_id" validate:"required"`
	TransactionID int64     `json:"transaction_id" validate:"required"`
	Date          time.Time `json:"date" validate:"required"`
	Memo          string    `json:"memo"`
	ActorID       int64     `json:"-"`
}

// BalanceQuery asks for a derived balance as of a date (inclusive).
type BalanceQuery struct {
	BusinessID int64
	AccountID  int64
	AsOf       time.Time
}
