package shared

import "errors"

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: transaction lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("accounting: transaction requires at least two lines")
	// ErrInvalidLine indicates a line with both or neither side set, or a negative amount.
	ErrInvalidLine = errors.New("accounting: line must carry exactly one non-negative side")
	// ErrUnknownAccount indicates a line references an account that does not exist.
	ErrUnknownAccount = errors.New("accounting: unknown account")
	// ErrCrossBusiness indicates a reference to an entity owned by another business.
	ErrCrossBusiness = errors.New("accounting: cross-business reference")
	// ErrPeriodClosed indicates the target period does not accept ordinary postings.
	ErrPeriodClosed = errors.New("accounting: period closed")
	// ErrNoPeriodForDate indicates no fiscal period covers the posting date.
	ErrNoPeriodForDate = errors.New("accounting: no period covers date")
	// ErrTransactionNotFound indicates a missing ledger transaction.
	ErrTransactionNotFound = errors.New("accounting: transaction not found")
	// ErrAccountNotFound indicates a missing chart-of-accounts entry.
	ErrAccountNotFound = errors.New("accounting: account not found")
	// ErrYearClosed indicates the fiscal year no longer accepts changes.
	ErrYearClosed = errors.New("accounting: fiscal year closed")
	// ErrYearOverlap indicates the requested year conflicts with an existing range.
	ErrYearOverlap = errors.New("accounting: fiscal year overlaps existing range")
	// ErrYearNotFound indicates a missing fiscal year.
	ErrYearNotFound = errors.New("accounting: fiscal year not found")
	// ErrPeriodNotFound indicates a missing fiscal period.
	ErrPeriodNotFound = errors.New("accounting: period not found")
	// ErrInsufficientStock indicates a consumption larger than on-hand quantity.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrOpeningUnbalanced indicates an opening balance batch that does not net to zero.
	ErrOpeningUnbalanced = errors.New("accounting: opening balances do not balance")
	// ErrSourceAlreadyLinked indicates a source document that already produced a transaction.
	ErrSourceAlreadyLinked = errors.New("accounting: source document already posted")
	// ErrInvoiceNotFound indicates a missing receivable invoice.
	ErrInvoiceNotFound = errors.New("receivables: invoice not found")
	// ErrInvoiceSettled indicates an invoice with no outstanding amount to write off.
	ErrInvoiceSettled = errors.New("receivables: invoice has no outstanding balance")
	// ErrAlreadyWrittenOff indicates a repeated write-off attempt for one invoice.
	ErrAlreadyWrittenOff = errors.New("receivables: invoice already written off")
	// ErrBadDebtNotFound indicates a missing bad debt record.
	ErrBadDebtNotFound = errors.New("receivables: bad debt not found")
	// ErrRecoveryExceedsWriteOff indicates a recovery beyond the unrecovered amount.
	ErrRecoveryExceedsWriteOff = errors.New("receivables: recovery exceeds written-off amount")
	// ErrAmountNotPositive indicates a zero or negative monetary amount.
	ErrAmountNotPositive = errors.New("accounting: amount must be positive")
	// ErrQuantityNotPositive indicates a zero or negative quantity.
	ErrQuantityNotPositive = errors.New("inventory: quantity must be positive")
	// ErrNegativeCost indicates a negative unit cost.
	ErrNegativeCost = errors.New("inventory: unit cost must not be negative")
	// ErrProductNotFound indicates a missing product record.
	ErrProductNotFound = errors.New("inventory: product not found")
)

// Kind classifies engine errors for callers; the engine itself only
// distinguishes kind and a human-readable detail.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindStateConflict    Kind = "state_conflict"
	KindResourceShortage Kind = "resource_shortage"
	KindIntegrity        Kind = "integrity"
	KindUnknown          Kind = "unknown"
)

// Classify maps a sentinel error to its taxonomy kind.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrUnbalanced),
		errors.Is(err, ErrTooFewLines),
		errors.Is(err, ErrInvalidLine),
		errors.Is(err, ErrOpeningUnbalanced),
		errors.Is(err, ErrAmountNotPositive),
		errors.Is(err, ErrQuantityNotPositive),
		errors.Is(err, ErrNegativeCost):
		return KindValidation
	case errors.Is(err, ErrPeriodClosed),
		errors.Is(err, ErrYearClosed),
		errors.Is(err, ErrYearOverlap),
		errors.Is(err, ErrNoPeriodForDate),
		errors.Is(err, ErrSourceAlreadyLinked),
		errors.Is(err, ErrInvoiceSettled),
		errors.Is(err, ErrAlreadyWrittenOff),
		errors.Is(err, ErrRecoveryExceedsWriteOff):
		return KindStateConflict
	case errors.Is(err, ErrInsufficientStock):
		return KindResourceShortage
	case errors.Is(err, ErrUnknownAccount),
		errors.Is(err, ErrCrossBusiness),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrYearNotFound),
		errors.Is(err, ErrPeriodNotFound),
		errors.Is(err, ErrInvoiceNotFound),
		errors.Is(err, ErrBadDebtNotFound),
		errors.Is(err, ErrProductNotFound):
		return KindIntegrity
	default:
		return KindUnknown
	}
}
