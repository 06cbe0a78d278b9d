package reports

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger/ledgertest"
)

type memoryRepo struct {
	store     *ledgertest.Store
	snapshots []Snapshot
}

func (r *memoryRepo) AccountTotals(_ context.Context, businessID int64, from, to time.Time, excludeSource ledger.SourceType) ([]AccountTotals, error) {
	byAccount := make(map[int64]*AccountTotals)
	for _, t := range r.store.Transactions {
		if t.BusinessID != businessID || t.Date.Before(from) || t.Date.After(to) {
			continue
		}
		if excludeSource != "" && t.SourceType == excludeSource {
			continue
		}
		for _, e := range t.Entries {
			agg, ok := byAccount[e.AccountID]
			if !ok {
				a := r.store.Accounts[e.AccountID]
				agg = &AccountTotals{AccountID: a.ID, Code: a.Code, Name: a.Name, Type: a.Type}
				byAccount[e.AccountID] = agg
			}
			agg.Debit = agg.Debit.Add(e.Debit)
			agg.Credit = agg.Credit.Add(e.Credit)
		}
	}
	out := make([]AccountTotals, 0, len(byAccount))
	for _, agg := range byAccount {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *memoryRepo) SaveSnapshot(_ context.Context, s Snapshot) (Snapshot, error) {
	s.ID = int64(len(r.snapshots) + 1)
	r.snapshots = append(r.snapshots, s)
	return s, nil
}

func (r *memoryRepo) ListSnapshots(_ context.Context, businessID int64, limit int) ([]Snapshot, error) {
	var out []Snapshot
	for i := len(r.snapshots) - 1; i >= 0 && len(out) < limit; i-- {
		if r.snapshots[i].BusinessID == businessID {
			out = append(out, r.snapshots[i])
		}
	}
	return out, nil
}

func (r *memoryRepo) ListBusinessIDs(context.Context) ([]int64, error) {
	seen := make(map[int64]bool)
	var out []int64
	for _, t := range r.store.Transactions {
		if !seen[t.BusinessID] {
			seen[t.BusinessID] = true
			out = append(out, t.BusinessID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func post(t *testing.T, store *ledgertest.Store, date time.Time, source ledger.SourceType, lines []ledger.LineInput) {
	t.Helper()
	_, err := ledger.PostTx(context.Background(), store, ledger.PostingInput{
		BusinessID: 1,
		Date:       date,
		SourceType: source,
		Lines:      lines,
	})
	require.NoError(t, err)
}

func seedActivity(t *testing.T, store *ledgertest.Store) (cash, sales, rent accounts.Account) {
	t.Helper()
	store.AddCalendarYear(1, 1, 2025)
	cash = store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	sales = store.AddAccount(1, "4000", "Sales", accounts.AccountTypeRevenue)
	rent = store.AddAccount(1, "6000", "Rent", accounts.AccountTypeExpense)
	post(t, store, time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC), ledger.SourceManual, []ledger.LineInput{
		{AccountID: cash.ID, Debit: dec("900.00")},
		{AccountID: sales.ID, Credit: dec("900.00")},
	})
	post(t, store, time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), ledger.SourceManual, []ledger.LineInput{
		{AccountID: rent.ID, Debit: dec("250.00")},
		{AccountID: cash.ID, Credit: dec("250.00")},
	})
	return cash, sales, rent
}

func newTestService(repo Repository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTrialBalanceNetsOntoProperSide(t *testing.T) {
	store := ledgertest.NewStore()
	cash, sales, rent := seedActivity(t, store)
	service := newTestService(&memoryRepo{store: store})

	tb, err := service.TrialBalance(context.Background(), 1, time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, tb.Rows, 3)
	require.True(t, tb.TotalDebit.Equal(tb.TotalCredit))

	byID := make(map[int64]TrialBalanceRow)
	for _, row := range tb.Rows {
		byID[row.AccountID] = row
	}
	require.True(t, byID[cash.ID].Debit.Equal(dec("650.00")))
	require.True(t, byID[sales.ID].Credit.Equal(dec("900.00")))
	require.True(t, byID[rent.ID].Debit.Equal(dec("250.00")))
}

func TestTrialBalanceCutoffExcludesLaterPostings(t *testing.T) {
	store := ledgertest.NewStore()
	cash, sales, _ := seedActivity(t, store)
	service := newTestService(&memoryRepo{store: store})

	tb, err := service.TrialBalance(context.Background(), 1, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, tb.Rows, 2)
	byID := make(map[int64]TrialBalanceRow)
	for _, row := range tb.Rows {
		byID[row.AccountID] = row
	}
	require.True(t, byID[cash.ID].Debit.Equal(dec("900.00")))
	require.True(t, byID[sales.ID].Credit.Equal(dec("900.00")))
}

func TestIncomeStatementExcludesClosingEntries(t *testing.T) {
	store := ledgertest.NewStore()
	_, sales, rent := seedActivity(t, store)
	re := store.AddAccount(1, "3300", "Retained Earnings", accounts.AccountTypeEquity)
	post(t, store, time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC), ledger.SourceClosing, []ledger.LineInput{
		{AccountID: sales.ID, Debit: dec("900.00")},
		{AccountID: rent.ID, Credit: dec("250.00")},
		{AccountID: re.ID, Credit: dec("650.00")},
	})
	service := newTestService(&memoryRepo{store: store})

	is, err := service.IncomeStatement(context.Background(), 1,
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, is.TotalRevenue.Equal(dec("900.00")))
	require.True(t, is.TotalExpense.Equal(dec("250.00")))
	require.True(t, is.NetIncome.Equal(dec("650.00")))
	require.Len(t, is.Revenue, 1)
	require.Len(t, is.Expenses, 1)
}

func TestSnapshotTrialBalance(t *testing.T) {
	store := ledgertest.NewStore()
	seedActivity(t, store)
	repo := &memoryRepo{store: store}
	taken := time.Date(2025, time.April, 1, 2, 0, 0, 0, time.UTC)
	service := newTestService(repo).WithNow(func() time.Time { return taken })

	snap, err := service.SnapshotTrialBalance(context.Background(), 1, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, int64(1), snap.ID)
	require.True(t, snap.TotalDebit.Equal(snap.TotalCredit))
	require.Equal(t, taken, snap.TakenAt)
	require.NotEmpty(t, snap.Rows)

	listed, err := service.Snapshots(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	ids, err := service.BusinessIDs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{1}, ids)
}
