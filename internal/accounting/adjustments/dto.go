package adjustments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

// OpeningLine carries one account's opening balance on its natural side.
type OpeningLine struct {
	AccountID int64           `json:"account_id" validate:"required"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

type OpeningBalancesInput struct {
	BusinessID   int64         `json:"business_id" validate:"required"`
	FiscalYearID int64         `json:"-"`
	Lines        []OpeningLine `json:"lines" validate:"required,min=2,dive"`
	Memo         string        `json:"memo"`
	ActorID      int64         `json:"-"`
}

// Validate rejects the whole batch before any storage work when it does
// not net to zero.
func (in OpeningBalancesInput) Validate() error {
	if len(in.Lines) < 2 {
		return acctshared.ErrTooFewLines
	}
	var debits, credits decimal.Decimal
	for _, line := range in.Lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return acctshared.ErrInvalidLine
		}
		if line.Debit.IsPositive() == line.Credit.IsPositive() {
			return acctshared.ErrInvalidLine
		}
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}
	if !debits.Round(2).Equal(credits.Round(2)) {
		return acctshared.ErrOpeningUnbalanced
	}
	return nil
}

type BankAdjustmentInput struct {
	BusinessID    int64              `json:"business_id" validate:"required"`
	BankAccountID int64              `json:"bank_account_id" validate:"required"`
	Kind          BankAdjustmentKind `json:"kind" validate:"required,oneof=charge interest correction"`
	Direction     Direction          `json:"direction" validate:"omitempty,oneof=debit credit"`
	Amount        decimal.Decimal    `json:"amount"`
	Date          time.Time          `json:"date" validate:"required"`
	Reference     string             `json:"reference"`
	Memo          string             `json:"memo"`
	ActorID       int64              `json:"-"`
}

// OpeningResult pairs the batch record with the posted transaction.
type OpeningResult struct {
	Batch       OpeningBatch       `json:"batch"`
	Transaction ledger.Transaction `json:"transaction"`
}

// BankAdjustmentResult pairs the adjustment with its posting.
type BankAdjustmentResult struct {
	Adjustment  BankAdjustment     `json:"adjustment"`
	Transaction ledger.Transaction `json:"transaction"`
}
