package inventory_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	. "github.com/atlas-erp/atlas-erp/internal/inventory"
	"github.com/atlas-erp/atlas-erp/internal/inventory/inventorytest"
)

type memoryRepo struct {
	store *inventorytest.Store
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	snap := r.store.Snapshot()
	if err := fn(ctx, r.store); err != nil {
		r.store.Restore(snap)
		return err
	}
	return nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, businessID, productID int64) (Product, error) {
	return r.store.GetProductForUpdate(ctx, businessID, productID)
}

func (r *memoryRepo) Lots(ctx context.Context, productID int64) ([]Lot, error) {
	return r.store.LotsForUpdate(ctx, productID)
}

func (r *memoryRepo) Pool(ctx context.Context, productID int64) (Pool, error) {
	return r.store.GetPool(ctx, productID)
}

func (r *memoryRepo) ListMovements(_ context.Context, businessID, productID int64, _ int) ([]Movement, error) {
	var out []Movement
	for _, m := range r.store.Movements {
		if m.BusinessID == businessID && m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func newTestService(store *inventorytest.Store) *Service {
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

func receive(t *testing.T, service *Service, businessID, productID int64, day int, qty, cost string) {
	t.Helper()
	_, err := service.Receive(context.Background(), ReceiveInput{
		BusinessID: businessID,
		ProductID:  productID,
		Quantity:   dec(qty),
		UnitCost:   dec(cost),
		OccurredAt: time.Date(2025, time.February, day, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
}

func TestConsumeFIFOCrossesLots(t *testing.T) {
	store := inventorytest.NewStore()
	product := store.AddProduct(1, "WIDGET", CostFIFO)
	service := newTestService(store)

	receive(t, service, 1, product.ID, 1, "100", "10.00")
	receive(t, service, 1, product.ID, 5, "50", "12.00")

	movement, err := service.Consume(context.Background(), ConsumeInput{
		BusinessID: 1,
		ProductID:  product.ID,
		Quantity:   dec("120"),
		OccurredAt: time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, movement.TotalCost.Equal(dec("1240.00")), "got %s", movement.TotalCost)
	require.Equal(t, MovementOut, movement.Type)

	lots := store.ProductLots(product.ID)
	require.Len(t, lots, 2)
	require.True(t, lots[0].Remaining.IsZero())
	require.True(t, lots[1].Remaining.Equal(dec("30")))

	v, err := service.Valuation(context.Background(), 1, product.ID)
	require.NoError(t, err)
	require.True(t, v.OnHand.Equal(dec("30")))
	require.True(t, v.Value.Equal(dec("360.00")))
}

func TestConsumeWeightedAverage(t *testing.T) {
	store := inventorytest.NewStore()
	product := store.AddProduct(1, "GADGET", CostWeightedAverage)
	service := newTestService(store)

	receive(t, service, 1, product.ID, 1, "100", "10.00")
	receive(t, service, 1, product.ID, 5, "50", "12.00")

	movement, err := service.Consume(context.Background(), ConsumeInput{
		BusinessID: 1,
		ProductID:  product.ID,
		Quantity:   dec("60"),
		OccurredAt: time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.True(t, movement.TotalCost.Equal(dec("640.00")), "got %s", movement.TotalCost)

	v, err := service.Valuation(context.Background(), 1, product.ID)
	require.NoError(t, err)
	require.True(t, v.OnHand.Equal(dec("90")))
	require.True(t, v.Value.Equal(dec("960.00")))
}

func TestConsumeInsufficientStockLeavesStateUntouched(t *testing.T) {
	store := inventorytest.NewStore()
	product := store.AddProduct(1, "WIDGET", CostFIFO)
	service := newTestService(store)

	receive(t, service, 1, product.ID, 1, "10", "5.00")
	before := store.ProductLots(product.ID)

	_, err := service.Consume(context.Background(), ConsumeInput{
		BusinessID: 1,
		ProductID:  product.ID,
		Quantity:   dec("11"),
		OccurredAt: time.Date(2025, time.February, 2, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, acctshared.ErrInsufficientStock)

	after := store.ProductLots(product.ID)
	require.Equal(t, before, after)
	require.Len(t, store.Movements, 1)
}

func TestConsumeValidation(t *testing.T) {
	store := inventorytest.NewStore()
	product := store.AddProduct(1, "WIDGET", CostFIFO)
	service := newTestService(store)

	_, err := service.Consume(context.Background(), ConsumeInput{
		BusinessID: 1,
		ProductID:  product.ID,
		Quantity:   dec("0"),
		OccurredAt: time.Now(),
	})
	require.ErrorIs(t, err, acctshared.ErrQuantityNotPositive)

	_, err = service.Receive(context.Background(), ReceiveInput{
		BusinessID: 1,
		ProductID:  product.ID,
		Quantity:   dec("5"),
		UnitCost:   dec("-1"),
		OccurredAt: time.Now(),
	})
	require.ErrorIs(t, err, acctshared.ErrNegativeCost)

	_, err = service.Consume(context.Background(), ConsumeInput{
		BusinessID: 2,
		ProductID:  product.ID,
		Quantity:   dec("1"),
		OccurredAt: time.Now(),
	})
	require.ErrorIs(t, err, acctshared.ErrProductNotFound)
}

func TestWeightedAverageDrainsPoolExactly(t *testing.T) {
	store := inventorytest.NewStore()
	product := store.AddProduct(1, "GADGET", CostWeightedAverage)
	service := newTestService(store)

	receive(t, service, 1, product.ID, 1, "3", "10.00")

	// 3 units at 10.00; consuming all three must leave a zero pool even
	// though intermediate consumptions round.
	for i := 0; i < 3; i++ {
		_, err := service.Consume(context.Background(), ConsumeInput{
			BusinessID: 1,
			ProductID:  product.ID,
			Quantity:   dec("1"),
			OccurredAt: time.Date(2025, time.February, 2+i, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	v, err := service.Valuation(context.Background(), 1, product.ID)
	require.NoError(t, err)
	require.True(t, v.OnHand.IsZero())
	require.True(t, v.Value.IsZero())
}
