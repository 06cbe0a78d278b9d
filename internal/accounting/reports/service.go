package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
)

// Service derives reporting views from posted entries. It never writes
// to the ledger.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// TrialBalance nets every account's activity up to the cutoff onto its
// proper side. Accounts that net to zero are dropped.
func (s *Service) TrialBalance(ctx context.Context, businessID int64, asOf time.Time) (TrialBalance, error) {
	totals, err := s.repo.AccountTotals(ctx, businessID, time.Time{}, asOf, "")
	if err != nil {
		return TrialBalance{}, err
	}
	tb := TrialBalance{BusinessID: businessID, AsOf: asOf}
	for _, t := range totals {
		net := t.Debit.Sub(t.Credit).Round(2)
		if net.IsZero() {
			continue
		}
		row := TrialBalanceRow{AccountID: t.AccountID, Code: t.Code, Name: t.Name, Type: t.Type}
		if net.IsPositive() {
			row.Debit = net
		} else {
			row.Credit = net.Neg()
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
	}
	return tb, nil
}

// IncomeStatement nets revenue and expense activity over the range.
// Closing entries are excluded so a closed year still reports its
// result.
func (s *Service) IncomeStatement(ctx context.Context, businessID int64, from, to time.Time) (IncomeStatement, error) {
	totals, err := s.repo.AccountTotals(ctx, businessID, from, to, ledger.SourceClosing)
	if err != nil {
		return IncomeStatement{}, err
	}
	is := IncomeStatement{BusinessID: businessID, From: from, To: to}
	for _, t := range totals {
		switch t.Type {
		case accounts.AccountTypeRevenue:
			amount := t.Credit.Sub(t.Debit).Round(2)
			is.Revenue = append(is.Revenue, IncomeStatementLine{AccountID: t.AccountID, Code: t.Code, Name: t.Name, Amount: amount})
			is.TotalRevenue = is.TotalRevenue.Add(amount)
		case accounts.AccountTypeExpense:
			amount := t.Debit.Sub(t.Credit).Round(2)
			is.Expenses = append(is.Expenses, IncomeStatementLine{AccountID: t.AccountID, Code: t.Code, Name: t.Name, Amount: amount})
			is.TotalExpense = is.TotalExpense.Add(amount)
		}
	}
	is.NetIncome = is.TotalRevenue.Sub(is.TotalExpense)
	return is, nil
}

// SnapshotTrialBalance stores the business's trial balance as of the
// given cutoff. The worker calls this nightly per business.
func (s *Service) SnapshotTrialBalance(ctx context.Context, businessID int64, asOf time.Time) (Snapshot, error) {
	tb, err := s.TrialBalance(ctx, businessID, asOf)
	if err != nil {
		return Snapshot{}, err
	}
	payload, err := json.Marshal(tb.Rows)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal trial balance rows: %w", err)
	}
	snap, err := s.repo.SaveSnapshot(ctx, Snapshot{
		BusinessID:  businessID,
		AsOf:        asOf,
		TotalDebit:  tb.TotalDebit,
		TotalCredit: tb.TotalCredit,
		Rows:        payload,
		TakenAt:     s.now(),
	})
	if err != nil {
		return Snapshot{}, err
	}
	if !tb.TotalDebit.Equal(tb.TotalCredit) {
		s.logger.Error("trial balance out of balance",
			slog.Int64("business_id", businessID),
			slog.String("debit", tb.TotalDebit.String()),
			slog.String("credit", tb.TotalCredit.String()))
	}
	return snap, nil
}

// BusinessIDs lists businesses with posted activity.
func (s *Service) BusinessIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListBusinessIDs(ctx)
}

// Snapshots returns the most recent stored snapshots.
func (s *Service) Snapshots(ctx context.Context, businessID int64, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	if limit > 365 {
		limit = 365
	}
	return s.repo.ListSnapshots(ctx, businessID, limit)
}
