package accounts

import "time"

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// NormalSide is the side on which an account type naturally increases.
type NormalSide string

const (
	NormalSideDebit  NormalSide = "DEBIT"
	NormalSideCredit NormalSide = "CREDIT"
)

// NormalSideFor returns the conventional normal side for a type.
func NormalSideFor(t AccountType) NormalSide {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalSideDebit
	default:
		return NormalSideCredit
	}
}

// Account models a chart of accounts node owned by one business.
type Account struct {
	ID         int64
	BusinessID int64
	Code       string
	Name       string
	Type       AccountType
	NormalSide NormalSide
	ParentID   *int64
	IsSystem   bool
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SystemRole names a well-known account the engine must be able to post
// against. EnsureSystemAccount creates it on demand with the defaults below.
type SystemRole string

const (
	RoleRetainedEarnings     SystemRole = "retained_earnings"
	RoleBadDebtExpense       SystemRole = "bad_debt_expense"
	RoleBadDebtRecovery      SystemRole = "bad_debt_recovery_income"
	RoleAccountsReceivable   SystemRole = "accounts_receivable"
	RoleAccountsPayable      SystemRole = "accounts_payable"
	RoleCash                 SystemRole = "cash"
	RoleBankCharges          SystemRole = "bank_charges"
	RoleInterestIncome       SystemRole = "interest_income"
	RoleSuspense             SystemRole = "suspense"
	RoleInventory            SystemRole = "inventory"
	RoleCostOfGoodsSold      SystemRole = "cost_of_goods_sold"
	RoleOpeningBalanceEquity SystemRole = "opening_balance_equity"
)

// SystemAccountSpec carries the default chart entry for a role.
type SystemAccountSpec struct {
	Code string
	Name string
	Type AccountType
}

// SystemAccountDefaults mirrors the default chart codes the business
// bootstrap seeds; EnsureSystemAccount falls back to these when the
// account is absent.
var SystemAccountDefaults = map[SystemRole]SystemAccountSpec{
	RoleRetainedEarnings:     {Code: "3300", Name: "Retained Earnings", Type: AccountTypeEquity},
	RoleBadDebtExpense:       {Code: "6300", Name: "Bad Debt Expense", Type: AccountTypeExpense},
	RoleBadDebtRecovery:      {Code: "4300", Name: "Bad Debt Recovery Income", Type: AccountTypeRevenue},
	RoleAccountsReceivable:   {Code: "1200", Name: "Accounts Receivable", Type: AccountTypeAsset},
	RoleAccountsPayable:      {Code: "2100", Name: "Accounts Payable", Type: AccountTypeLiability},
	RoleCash:                 {Code: "1000", Name: "Cash", Type: AccountTypeAsset},
	RoleBankCharges:          {Code: "6100", Name: "Bank Charges", Type: AccountTypeExpense},
	RoleInterestIncome:       {Code: "4200", Name: "Interest Income", Type: AccountTypeRevenue},
	RoleSuspense:             {Code: "1999", Name: "Suspense Account", Type: AccountTypeAsset},
	RoleInventory:            {Code: "1300", Name: "Inventory", Type: AccountTypeAsset},
	RoleCostOfGoodsSold:      {Code: "5100", Name: "Cost of Goods Sold", Type: AccountTypeExpense},
	RoleOpeningBalanceEquity: {Code: "3900", Name: "Opening Balance Equity", Type: AccountTypeEquity},
}
