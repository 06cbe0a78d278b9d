package ar

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
)

type WriteOffInput struct {
	BusinessID int64     `json:"business_id" validate:"required"`
	InvoiceID  int64     `json:"-"`
	Date       time.Time `json:"date" validate:"required"`
	Memo       string    `json:"memo"`
	ActorID    int64     `json:"-"`
}

type RecoveryInput struct {
	BusinessID int64           `json:"business_id" validate:"required"`
	BadDebtID  int64           `json:"-"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date" validate:"required"`
	Memo       string          `json:"memo"`
	ActorID    int64           `json:"-"`
}

// WriteOffResult pairs the bad debt record with its ledger transaction.
type WriteOffResult struct {
	BadDebt     BadDebt            `json:"bad_debt"`
	Transaction ledger.Transaction `json:"transaction"`
}

// RecoveryResult reports the updated record and the recovery posting.
type RecoveryResult struct {
	BadDebt     BadDebt            `json:"bad_debt"`
	Transaction ledger.Transaction `json:"transaction"`
}
