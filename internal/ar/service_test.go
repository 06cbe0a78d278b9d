package ar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger/ledgertest"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

type memoryStore struct {
	*ledgertest.Store
	invoices      map[int64]Invoice
	badDebts      map[int64]BadDebt
	nextInvoiceID int64
	nextBadDebtID int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		Store:    ledgertest.NewStore(),
		invoices: make(map[int64]Invoice),
		badDebts: make(map[int64]BadDebt),
	}
}

func (m *memoryStore) addInvoice(businessID int64, total, paid string) Invoice {
	m.nextInvoiceID++
	inv := Invoice{
		ID:         m.nextInvoiceID,
		BusinessID: businessID,
		CustomerID: 1,
		Number:     fmt.Sprintf("INV-%05d", m.nextInvoiceID),
		Total:      dec(total),
		Paid:       dec(paid),
		Status:     InvoiceIssued,
		IssuedAt:   time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
	}
	m.invoices[inv.ID] = inv
	return inv
}

func (m *memoryStore) GetInvoiceForUpdate(_ context.Context, businessID, invoiceID int64) (Invoice, error) {
	inv, ok := m.invoices[invoiceID]
	if !ok || inv.BusinessID != businessID {
		return Invoice{}, acctshared.ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *memoryStore) SetInvoiceStatus(_ context.Context, invoiceID int64, status InvoiceStatus) error {
	inv := m.invoices[invoiceID]
	inv.Status = status
	m.invoices[invoiceID] = inv
	return nil
}

func (m *memoryStore) InsertBadDebt(_ context.Context, bd BadDebt) (BadDebt, error) {
	m.nextBadDebtID++
	bd.ID = m.nextBadDebtID
	bd.Number = fmt.Sprintf("BD-%05d", bd.ID)
	bd.Recovered = decimal.Zero
	m.badDebts[bd.ID] = bd
	return bd, nil
}

func (m *memoryStore) GetBadDebtForUpdate(_ context.Context, businessID, badDebtID int64) (BadDebt, error) {
	bd, ok := m.badDebts[badDebtID]
	if !ok || bd.BusinessID != businessID {
		return BadDebt{}, acctshared.ErrBadDebtNotFound
	}
	return bd, nil
}

func (m *memoryStore) UpdateBadDebtRecovery(_ context.Context, badDebtID int64, recovered decimal.Decimal, status BadDebtStatus) error {
	bd := m.badDebts[badDebtID]
	bd.Recovered = recovered
	bd.Status = status
	m.badDebts[badDebtID] = bd
	return nil
}

type memoryRepo struct {
	store *memoryStore
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	snap := r.store.Snapshot()
	invoices := make(map[int64]Invoice, len(r.store.invoices))
	for k, v := range r.store.invoices {
		invoices[k] = v
	}
	badDebts := make(map[int64]BadDebt, len(r.store.badDebts))
	for k, v := range r.store.badDebts {
		badDebts[k] = v
	}
	ids := [2]int64{r.store.nextInvoiceID, r.store.nextBadDebtID}
	if err := fn(ctx, r.store); err != nil {
		r.store.Restore(snap)
		r.store.invoices = invoices
		r.store.badDebts = badDebts
		r.store.nextInvoiceID, r.store.nextBadDebtID = ids[0], ids[1]
		return err
	}
	return nil
}

func (r *memoryRepo) GetBadDebt(ctx context.Context, businessID, badDebtID int64) (BadDebt, error) {
	return r.store.GetBadDebtForUpdate(ctx, businessID, badDebtID)
}

func (r *memoryRepo) ListBadDebts(_ context.Context, businessID int64) ([]BadDebt, error) {
	var out []BadDebt
	for _, bd := range r.store.badDebts {
		if bd.BusinessID == businessID {
			out = append(out, bd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
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

func TestWriteOffOutstandingAmount(t *testing.T) {
	store := newMemoryStore()
	store.AddCalendarYear(1, 1, 2025)
	invoice := store.addInvoice(1, "5000000.00", "662500.00")
	service := newTestService(store)

	result, err := service.WriteOff(context.Background(), WriteOffInput{
		BusinessID: 1,
		InvoiceID:  invoice.ID,
		Date:       time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, "BD-00001", result.BadDebt.Number)
	require.True(t, result.BadDebt.Amount.Equal(dec("4337500.00")))
	require.Equal(t, BadDebtWrittenOff, result.BadDebt.Status)

	require.Len(t, result.Transaction.Entries, 2)
	require.True(t, result.Transaction.Entries[0].Debit.Equal(dec("4337500.00")))
	require.True(t, result.Transaction.Entries[1].Credit.Equal(dec("4337500.00")))

	inv, err := store.GetInvoiceForUpdate(context.Background(), 1, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, InvoiceWrittenOff, inv.Status)
}

func TestWriteOffGuards(t *testing.T) {
	store := newMemoryStore()
	store.AddCalendarYear(1, 1, 2025)
	service := newTestService(store)
	date := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)

	settled := store.addInvoice(1, "1000.00", "1000.00")
	_, err := service.WriteOff(context.Background(), WriteOffInput{BusinessID: 1, InvoiceID: settled.ID, Date: date})
	require.ErrorIs(t, err, acctshared.ErrInvoiceSettled)

	open := store.addInvoice(1, "1000.00", "0.00")
	_, err = service.WriteOff(context.Background(), WriteOffInput{BusinessID: 1, InvoiceID: open.ID, Date: date})
	require.NoError(t, err)
	posted := len(store.Transactions)

	_, err = service.WriteOff(context.Background(), WriteOffInput{BusinessID: 1, InvoiceID: open.ID, Date: date})
	require.ErrorIs(t, err, acctshared.ErrAlreadyWrittenOff)
	require.Len(t, store.Transactions, posted)

	_, err = service.WriteOff(context.Background(), WriteOffInput{BusinessID: 2, InvoiceID: open.ID, Date: date})
	require.ErrorIs(t, err, acctshared.ErrInvoiceNotFound)
}

func TestRecoveryLifecycle(t *testing.T) {
	store := newMemoryStore()
	store.AddCalendarYear(1, 1, 2025)
	invoice := store.addInvoice(1, "4337500.00", "0.00")
	service := newTestService(store)
	date := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	writeOff, err := service.WriteOff(context.Background(), WriteOffInput{BusinessID: 1, InvoiceID: invoice.ID, Date: date})
	require.NoError(t, err)
	bdID := writeOff.BadDebt.ID

	// Recovering more than was written off is rejected outright.
	_, err = service.RecordRecovery(context.Background(), RecoveryInput{
		BusinessID: 1, BadDebtID: bdID, Amount: dec("4500000.00"), Date: date.AddDate(0, 1, 0),
	})
	require.ErrorIs(t, err, acctshared.ErrRecoveryExceedsWriteOff)

	partial, err := service.RecordRecovery(context.Background(), RecoveryInput{
		BusinessID: 1, BadDebtID: bdID, Amount: dec("1000000.00"), Date: date.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	require.Equal(t, BadDebtPartialRecovery, partial.BadDebt.Status)
	require.True(t, partial.BadDebt.Recovered.Equal(dec("1000000.00")))

	// The remainder caps the next recovery.
	_, err = service.RecordRecovery(context.Background(), RecoveryInput{
		BusinessID: 1, BadDebtID: bdID, Amount: dec("3337500.01"), Date: date.AddDate(0, 2, 0),
	})
	require.ErrorIs(t, err, acctshared.ErrRecoveryExceedsWriteOff)

	full, err := service.RecordRecovery(context.Background(), RecoveryInput{
		BusinessID: 1, BadDebtID: bdID, Amount: dec("3337500.00"), Date: date.AddDate(0, 2, 0),
	})
	require.NoError(t, err)
	require.Equal(t, BadDebtRecovered, full.BadDebt.Status)
	require.True(t, full.BadDebt.Recovered.Equal(full.BadDebt.Amount))

	_, err = service.RecordRecovery(context.Background(), RecoveryInput{
		BusinessID: 1, BadDebtID: bdID, Amount: dec("0.01"), Date: date.AddDate(0, 3, 0),
	})
	require.ErrorIs(t, err, acctshared.ErrRecoveryExceedsWriteOff)

	_, err = service.RecordRecovery(context.Background(), RecoveryInput{
		BusinessID: 1, BadDebtID: bdID, Amount: dec("0"), Date: date,
	})
	require.ErrorIs(t, err, acctshared.ErrAmountNotPositive)
}
