package ar

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceIssued     InvoiceStatus = "issued"
	InvoicePartial    InvoiceStatus = "partial"
	InvoicePaid       InvoiceStatus = "paid"
	InvoiceWrittenOff InvoiceStatus = "written_off"
)

// Invoice is the receivable view the bad debt lifecycle works on.
// Issuing and payment collection live outside the engine.
type Invoice struct {
	ID         int64
	BusinessID int64
	CustomerID int64
	Number     string
	Total      decimal.Decimal
	Paid       decimal.Decimal
	Status     InvoiceStatus
	IssuedAt   time.Time
}

// Outstanding is the unpaid remainder a write-off removes.
func (i Invoice) Outstanding() decimal.Decimal {
	return i.Total.Sub(i.Paid)
}

type BadDebtStatus string

const (
	BadDebtWrittenOff      BadDebtStatus = "written_off"
	BadDebtPartialRecovery BadDebtStatus = "partial_recovery"
	BadDebtRecovered       BadDebtStatus = "recovered"
)

// BadDebt tracks one written-off invoice and its recoveries. Recovered
// never exceeds Amount.
type BadDebt struct {
	ID            int64
	BusinessID    int64
	InvoiceID     int64
	Number        string
	Amount        decimal.Decimal
	Recovered     decimal.Decimal
	Status        BadDebtStatus
	TransactionID int64
	WrittenOffAt  time.Time
	CreatedBy     int64
}
