package adjustments

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger/ledgertest"
	"github.com/atlas-erp/atlas-erp/internal/accounting/periods"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

type memoryStore struct {
	*ledgertest.Store
	years           map[int64]periods.FiscalYear
	batches         []OpeningBatch
	bankAdjustments []BankAdjustment
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		Store: ledgertest.NewStore(),
		years: make(map[int64]periods.FiscalYear),
	}
}

func (m *memoryStore) addCalendarYear(businessID, yearID int64, year int, status acctshared.YearStatus) periods.FiscalYear {
	m.AddCalendarYear(businessID, yearID, year)
	y := periods.FiscalYear{
		ID:         yearID,
		BusinessID: businessID,
		Name:       fmt.Sprintf("FY%d", year),
		StartDate:  time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		Status:     status,
	}
	m.years[yearID] = y
	return y
}

func (m *memoryStore) GetFiscalYear(_ context.Context, businessID, yearID int64) (periods.FiscalYear, error) {
	y, ok := m.years[yearID]
	if !ok || y.BusinessID != businessID {
		return periods.FiscalYear{}, acctshared.ErrYearNotFound
	}
	return y, nil
}

func (m *memoryStore) InsertOpeningBatch(_ context.Context, b OpeningBatch) (OpeningBatch, error) {
	b.ID = int64(len(m.batches) + 1)
	b.Number = fmt.Sprintf("OB-%05d", b.ID)
	m.batches = append(m.batches, b)
	return b, nil
}

func (m *memoryStore) InsertBankAdjustment(_ context.Context, a BankAdjustment) (BankAdjustment, error) {
	a.ID = int64(len(m.bankAdjustments) + 1)
	a.Number = fmt.Sprintf("BA-%05d", a.ID)
	m.bankAdjustments = append(m.bankAdjustments, a)
	return a, nil
}

type memoryRepo struct {
	store *memoryStore
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	snap := r.store.Snapshot()
	batches := append([]OpeningBatch(nil), r.store.batches...)
	bankAdjustments := append([]BankAdjustment(nil), r.store.bankAdjustments...)
	if err := fn(ctx, r.store); err != nil {
		r.store.Restore(snap)
		r.store.batches = batches
		r.store.bankAdjustments = bankAdjustments
		return err
	}
	return nil
}

func (r *memoryRepo) ListBankAdjustments(_ context.Context, businessID, bankAccountID int64) ([]BankAdjustment, error) {
	var out []BankAdjustment
	for _, a := range r.store.bankAdjustments {
		if a.BusinessID == businessID && a.BankAccountID == bankAccountID {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestService(store *memoryStore) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(&memoryRepo{store: store}, nil, logger)
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestImportOpeningBalances(t *testing.T) {
	store := newMemoryStore()
	year := store.addCalendarYear(1, 1, 2025, acctshared.YearOpen)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	equity := store.AddAccount(1, "3000", "Owner Equity", accounts.AccountTypeEquity)
	loan := store.AddAccount(1, "2500", "Bank Loan", accounts.AccountTypeLiability)
	service := newTestService(store)

	result, err := service.ImportOpeningBalances(context.Background(), OpeningBalancesInput{
		BusinessID:   1,
		FiscalYearID: year.ID,
		Lines: []OpeningLine{
			{AccountID: cash.ID, Debit: dec("150000.00")},
			{AccountID: equity.ID, Credit: dec("100000.00")},
			{AccountID: loan.ID, Credit: dec("50000.00")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "OB-00001", result.Batch.Number)
	require.True(t, result.Transaction.Date.Equal(year.StartDate))
	require.Len(t, result.Transaction.Entries, 3)

	// Importing the same year twice is rejected by the source link.
	_, err = service.ImportOpeningBalances(context.Background(), OpeningBalancesInput{
		BusinessID:   1,
		FiscalYearID: year.ID,
		Lines: []OpeningLine{
			{AccountID: cash.ID, Debit: dec("1.00")},
			{AccountID: equity.ID, Credit: dec("1.00")},
		},
	})
	require.ErrorIs(t, err, acctshared.ErrSourceAlreadyLinked)
	require.Len(t, store.batches, 1)
}

func TestImportOpeningBalancesRejectsUnbalancedBatch(t *testing.T) {
	store := newMemoryStore()
	year := store.addCalendarYear(1, 1, 2025, acctshared.YearOpen)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	equity := store.AddAccount(1, "3000", "Owner Equity", accounts.AccountTypeEquity)
	service := newTestService(store)

	_, err := service.ImportOpeningBalances(context.Background(), OpeningBalancesInput{
		BusinessID:   1,
		FiscalYearID: year.ID,
		Lines: []OpeningLine{
			{AccountID: cash.ID, Debit: dec("150000.00")},
			{AccountID: equity.ID, Credit: dec("149999.99")},
		},
	})
	require.ErrorIs(t, err, acctshared.ErrOpeningUnbalanced)
	require.Empty(t, store.Transactions)
	require.Empty(t, store.batches)
}

func TestImportOpeningBalancesClosedYear(t *testing.T) {
	store := newMemoryStore()
	year := store.addCalendarYear(1, 1, 2024, acctshared.YearClosed)
	cash := store.AddAccount(1, "1000", "Cash", accounts.AccountTypeAsset)
	equity := store.AddAccount(1, "3000", "Owner Equity", accounts.AccountTypeEquity)
	service := newTestService(store)

	_, err := service.ImportOpeningBalances(context.Background(), OpeningBalancesInput{
		BusinessID:   1,
		FiscalYearID: year.ID,
		Lines: []OpeningLine{
			{AccountID: cash.ID, Debit: dec("10.00")},
			{AccountID: equity.ID, Credit: dec("10.00")},
		},
	})
	require.ErrorIs(t, err, acctshared.ErrYearClosed)
}

func TestPostBankAdjustmentKinds(t *testing.T) {
	store := newMemoryStore()
	store.addCalendarYear(1, 1, 2025, acctshared.YearOpen)
	bank := store.AddAccount(1, "1100", "Operating Bank", accounts.AccountTypeAsset)
	service := newTestService(store)
	date := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)

	charge, err := service.PostBankAdjustment(context.Background(), BankAdjustmentInput{
		BusinessID:    1,
		BankAccountID: bank.ID,
		Kind:          BankCharge,
		Amount:        dec("25.00"),
		Date:          date,
		Reference:     "stmt-2025-03/17",
	})
	require.NoError(t, err)
	require.Equal(t, "BA-00001", charge.Adjustment.Number)
	require.True(t, charge.Transaction.Entries[1].Credit.Equal(dec("25.00")))
	require.Equal(t, bank.ID, charge.Transaction.Entries[1].AccountID)

	interest, err := service.PostBankAdjustment(context.Background(), BankAdjustmentInput{
		BusinessID:    1,
		BankAccountID: bank.ID,
		Kind:          BankInterest,
		Amount:        dec("12.40"),
		Date:          date,
	})
	require.NoError(t, err)
	require.Equal(t, bank.ID, interest.Transaction.Entries[0].AccountID)
	require.True(t, interest.Transaction.Entries[0].Debit.Equal(dec("12.40")))

	correction, err := service.PostBankAdjustment(context.Background(), BankAdjustmentInput{
		BusinessID:    1,
		BankAccountID: bank.ID,
		Kind:          BankCorrection,
		Direction:     DirectionCredit,
		Amount:        dec("100.00"),
		Date:          date,
	})
	require.NoError(t, err)
	require.Equal(t, bank.ID, correction.Transaction.Entries[1].AccountID)
	require.True(t, correction.Transaction.Entries[1].Credit.Equal(dec("100.00")))

	// Re-importing the same statement line is rejected.
	_, err = service.PostBankAdjustment(context.Background(), BankAdjustmentInput{
		BusinessID:    1,
		BankAccountID: bank.ID,
		Kind:          BankCharge,
		Amount:        dec("25.00"),
		Date:          date,
		Reference:     "stmt-2025-03/17",
	})
	require.ErrorIs(t, err, acctshared.ErrSourceAlreadyLinked)
}

func TestPostBankAdjustmentGuards(t *testing.T) {
	store := newMemoryStore()
	store.addCalendarYear(1, 1, 2025, acctshared.YearOpen)
	bank := store.AddAccount(1, "1100", "Operating Bank", accounts.AccountTypeAsset)
	foreign := store.AddAccount(2, "1100", "Other Bank", accounts.AccountTypeAsset)
	service := newTestService(store)
	date := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)

	_, err := service.PostBankAdjustment(context.Background(), BankAdjustmentInput{
		BusinessID: 1, BankAccountID: bank.ID, Kind: BankCharge, Amount: dec("0"), Date: date,
	})
	require.ErrorIs(t, err, acctshared.ErrAmountNotPositive)

	_, err = service.PostBankAdjustment(context.Background(), BankAdjustmentInput{
		BusinessID: 1, BankAccountID: foreign.ID, Kind: BankCharge, Amount: dec("5"), Date: date,
	})
	require.ErrorIs(t, err, acctshared.ErrCrossBusiness)
	require.Empty(t, store.bankAdjustments)
}
