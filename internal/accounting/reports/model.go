package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
)

// AccountTotals carries the raw posted sums of one account, straight
// from storage. Presentation (netting to one side) happens in the
// service.
type AccountTotals struct {
	AccountID int64
	Code      string
	Name      string
	Type      accounts.AccountType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// TrialBalanceRow is one account's net balance shown on its proper
// side.
type TrialBalanceRow struct {
	AccountID int64                `json:"account_id"`
	Code      string               `json:"code"`
	Name      string               `json:"name"`
	Type      accounts.AccountType `json:"type"`
	Debit     decimal.Decimal      `json:"debit"`
	Credit    decimal.Decimal      `json:"credit"`
}

// TrialBalance lists every account with activity up to the cutoff.
// TotalDebit and TotalCredit are always equal for a consistent ledger.
type TrialBalance struct {
	BusinessID  int64             `json:"business_id"`
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
}

// IncomeStatementLine is one revenue or expense account's net over the
// reporting range.
type IncomeStatementLine struct {
	AccountID int64           `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// IncomeStatement nets revenue against expenses over a date range.
// Closing entries are excluded so the statement stays meaningful after
// year end.
type IncomeStatement struct {
	BusinessID   int64                 `json:"business_id"`
	From         time.Time             `json:"from"`
	To           time.Time             `json:"to"`
	Revenue      []IncomeStatementLine `json:"revenue"`
	Expenses     []IncomeStatementLine `json:"expenses"`
	TotalRevenue decimal.Decimal       `json:"total_revenue"`
	TotalExpense decimal.Decimal       `json:"total_expense"`
	NetIncome    decimal.Decimal       `json:"net_income"`
}

// Snapshot is a stored trial balance, taken by the background worker
// for point-in-time reporting.
type Snapshot struct {
	ID          int64           `json:"id"`
	BusinessID  int64           `json:"business_id"`
	AsOf        time.Time       `json:"as_of"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Rows        []byte          `json:"-"`
	TakenAt     time.Time       `json:"taken_at"`
}
