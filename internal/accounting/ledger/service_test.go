package ledger_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	. "github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger/ledgertest"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

type memoryRepo struct {
	store *ledgertest.Store
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	snap := r.store.Snapshot()
	if err := fn(ctx, r.store); err != nil {
		r.store.Restore(snap)
		return err
	}
	return nil
}

func (r *memoryRepo) GetWithEntries(ctx context.Context, businessID, id int64) (Transaction, error) {
	return r.store.GetWithEntries(ctx, businessID, id)
}

func (r *memoryRepo) List(ctx context.Context, businessID int64, limit, offset int) ([]Transaction, error) {
	var out []Transaction
	for id := int64(1); ; id++ {
		t, err := r.store.GetWithEntries(ctx, businessID, id)
		if err != nil {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *memoryRepo) AccountActivity(ctx context.Context, businessID, accountID int64, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return r.store.AccountActivity(ctx, businessID, accountID, asOf)
}

type memoryAccounts struct {
	store *ledgertest.Store
}

func (r *memoryAccounts) List(context.Context, int64) ([]accounts.Account, error) {
	return nil, nil
}

func (r *memoryAccounts) ListByType(context.Context, int64, accounts.AccountType) ([]accounts.Account, error) {
	return nil, nil
}

func (r *memoryAccounts) GetByID(ctx context.Context, businessID, id int64) (accounts.Account, error) {
	found, err := r.store.AccountsByID(ctx, []int64{id})
	if err != nil {
		return accounts.Account{}, err
	}
	a, ok := found[id]
	if !ok || a.BusinessID != businessID {
		return accounts.Account{}, acctshared.ErrAccountNotFound
	}
	return a, nil
}

func (r *memoryAccounts) GetByCode(context.Context, int64, string) (accounts.Account, error) {
	return accounts.Account{}, acctshared.ErrAccountNotFound
}

func (r *memoryAccounts) Create(_ context.Context, a accounts.Account) (accounts.Account, error) {
	return a, nil
}

func newTestService(store *ledgertest.Store) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(&memoryRepo{store: store}, &memoryAccounts{store: store}, nil, logger)
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPostBalancedTransaction(t *testing.T) {
	store := ledgertest.NewStore()
	store.AddCalendarYear(1, 1, 2025)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	sales := store.AddAccount(1, "4000", "Sales", accounts.AccountTypeRevenue)
	service := newTestService(store)

	posted, err := service.Post(context.Background(), PostingInput{
		BusinessID: 1,
		Date:       time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		Memo:       "cash sale",
		SourceType: SourceInvoice,
		SourceID:   "inv-100",
		Lines: []LineInput{
			{AccountID: cash.ID, Debit: dec("250.00")},
			{AccountID: sales.ID, Credit: dec("250.00")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "JV-00001", posted.Number)
	require.Len(t, posted.Entries, 2)
	require.NotZero(t, posted.PeriodID)
	require.Equal(t, SourceInvoice, posted.SourceType)
}

func TestPostValidation(t *testing.T) {
	store := ledgertest.NewStore()
	store.AddCalendarYear(1, 1, 2025)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	sales := store.AddAccount(1, "4000", "Sales", accounts.AccountTypeRevenue)
	service := newTestService(store)
	date := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		lines []LineInput
		want  error
	}{
		{
			name:  "single line",
			lines: []LineInput{{AccountID: cash.ID, Debit: dec("10")}},
			want:  acctshared.ErrTooFewLines,
		},
		{
			name: "unbalanced",
			lines: []LineInput{
				{AccountID: cash.ID, Debit: dec("10.00")},
				{AccountID: sales.ID, Credit: dec("9.99")},
			},
			want: acctshared.ErrUnbalanced,
		},
		{
			name: "both sides on one line",
			lines: []LineInput{
				{AccountID: cash.ID, Debit: dec("10"), Credit: dec("10")},
				{AccountID: sales.ID, Credit: dec("10")},
			},
			want: acctshared.ErrInvalidLine,
		},
		{
			name: "negative amount",
			lines: []LineInput{
				{AccountID: cash.ID, Debit: dec("-10")},
				{AccountID: sales.ID, Credit: dec("-10")},
			},
			want: acctshared.ErrInvalidLine,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Post(context.Background(), PostingInput{
				BusinessID: 1,
				Date:       date,
				Lines:      tc.lines,
			})
			require.ErrorIs(t, err, tc.want)
		})
	}
	require.Empty(t, store.Transactions)
}

func TestPostAccountOwnership(t *testing.T) {
	store := ledgertest.NewStore()
	store.AddCalendarYear(1, 1, 2025)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	foreign := store.AddAccount(2, "4000", "Sales", accounts.AccountTypeRevenue)
	service := newTestService(store)
	date := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	_, err := service.Post(context.Background(), PostingInput{
		BusinessID: 1,
		Date:       date,
		Lines: []LineInput{
			{AccountID: cash.ID, Debit: dec("5")},
			{AccountID: 999, Credit: dec("5")},
		},
	})
	require.ErrorIs(t, err, acctshared.ErrUnknownAccount)

	_, err = service.Post(context.Background(), PostingInput{
		BusinessID: 1,
		Date:       date,
		Lines: []LineInput{
			{AccountID: cash.ID, Debit: dec("5")},
			{AccountID: foreign.ID, Credit: dec("5")},
		},
	})
	require.ErrorIs(t, err, acctshared.ErrCrossBusiness)
	require.Empty(t, store.Transactions)
}

func TestPostPeriodGuards(t *testing.T) {
	store := ledgertest.NewStore()
	store.AddCalendarYear(1, 1, 2025)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	sales := store.AddAccount(1, "4000", "Sales", accounts.AccountTypeRevenue)
	service := newTestService(store)

	march, err := store.PostingPeriod(context.Background(), 1, time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	store.SetPeriodStatus(march.ID, acctshared.PeriodClosed)

	lines := []LineInput{
		{AccountID: cash.ID, Debit: dec("80")},
		{AccountID: sales.ID, Credit: dec("80")},
	}
	_, err = service.Post(context.Background(), PostingInput{
		BusinessID: 1,
		Date:       time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC),
		Lines:      lines,
	})
	require.ErrorIs(t, err, acctshared.ErrPeriodClosed)
	require.Empty(t, store.Transactions)

	_, err = service.Post(context.Background(), PostingInput{
		BusinessID: 1,
		Date:       time.Date(2030, time.January, 5, 0, 0, 0, 0, time.UTC),
		Lines:      lines,
	})
	require.ErrorIs(t, err, acctshared.ErrNoPeriodForDate)

	// Adjustment postings bypass the closed calendar period and land in
	// the year's adjustment period.
	posted, err := service.Post(context.Background(), PostingInput{
		BusinessID: 1,
		Date:       time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC),
		Adjustment: true,
		Lines:      lines,
	})
	require.NoError(t, err)
	adj, err := store.PostingPeriod(context.Background(), 1, posted.Date, true)
	require.NoError(t, err)
	require.Equal(t, adj.ID, posted.PeriodID)
}

func TestReverseSwapsSides(t *testing.T) {
	store := ledgertest.NewStore()
	store.AddCalendarYear(1, 1, 2025)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	sales := store.AddAccount(1, "4000", "Sales", accounts.AccountTypeRevenue)
	service := newTestService(store)
	date := time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)

	posted, err := service.Post(context.Background(), PostingInput{
		BusinessID: 1,
		Date:       date,
		Lines: []LineInput{
			{AccountID: cash.ID, Debit: dec("120.00")},
			{AccountID: sales.ID, Credit: dec("120.00")},
		},
	})
	require.NoError(t, err)

	reversal, err := service.Reverse(context.Background(), ReverseInput{
		BusinessID:    1,
		TransactionID: posted.ID,
		Date:          date.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	require.NotNil(t, reversal.ReversesID)
	require.Equal(t, posted.ID, *reversal.ReversesID)
	require.Equal(t, SourceReversal, reversal.SourceType)
	require.Len(t, reversal.Entries, 2)
	require.True(t, reversal.Entries[0].Credit.Equal(dec("120.00")))
	require.True(t, reversal.Entries[1].Debit.Equal(dec("120.00")))

	balance, err := service.Balance(context.Background(), BalanceQuery{BusinessID: 1, AccountID: cash.ID, AsOf: date.AddDate(0, 1, 0)})
	require.NoError(t, err)
	require.True(t, balance.Net.IsZero())
}

func TestBalanceSignAdjustment(t *testing.T) {
	store := ledgertest.NewStore()
	store.AddCalendarYear(1, 1, 2025)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	sales := store.AddAccount(1, "4000", "Sales", accounts.AccountTypeRevenue)
	service := newTestService(store)
	date := time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)

	_, err := service.Post(context.Background(), PostingInput{
		BusinessID: 1,
		Date:       date,
		Lines: []LineInput{
			{AccountID: cash.ID, Debit: dec("300.00")},
			{AccountID: sales.ID, Credit: dec("300.00")},
		},
	})
	require.NoError(t, err)

	cashBal, err := service.Balance(context.Background(), BalanceQuery{BusinessID: 1, AccountID: cash.ID, AsOf: date})
	require.NoError(t, err)
	require.True(t, cashBal.Net.Equal(dec("300.00")))

	salesBal, err := service.Balance(context.Background(), BalanceQuery{BusinessID: 1, AccountID: sales.ID, AsOf: date})
	require.NoError(t, err)
	require.True(t, salesBal.Net.Equal(dec("300.00")))
}

func TestDuplicateSourceRejected(t *testing.T) {
	store := ledgertest.NewStore()
	store.AddCalendarYear(1, 1, 2025)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	sales := store.AddAccount(1, "4000", "Sales", accounts.AccountTypeRevenue)
	service := newTestService(store)

	in := PostingInput{
		BusinessID: 1,
		Date:       time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		SourceType: SourceInvoice,
		SourceID:   "inv-77",
		Lines: []LineInput{
			{AccountID: cash.ID, Debit: dec("40")},
			{AccountID: sales.ID, Credit: dec("40")},
		},
	}
	_, err := service.Post(context.Background(), in)
	require.NoError(t, err)

	_, err = service.Post(context.Background(), in)
	require.ErrorIs(t, err, acctshared.ErrSourceAlreadyLinked)
	require.Len(t, store.Transactions, 1)
}
