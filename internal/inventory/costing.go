package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

// ReceiveTx records an inbound movement inside the caller's unit of
// work: a new FIFO lot plus the weighted-average pool update.
func ReceiveTx(ctx context.Context, tx TxRepository, in ReceiveInput) (Movement, error) {
	if err := in.Validate(); err != nil {
		return Movement{}, err
	}
	product, err := tx.GetProductForUpdate(ctx, in.BusinessID, in.ProductID)
	if err != nil {
		return Movement{}, err
	}
	if _, err := tx.InsertLot(ctx, Lot{
		ProductID:  product.ID,
		ReceivedAt: in.OccurredAt,
		Quantity:   in.Quantity,
		Remaining:  in.Quantity,
		UnitCost:   in.UnitCost,
	}); err != nil {
		return Movement{}, err
	}
	pool, err := tx.GetPool(ctx, product.ID)
	if err != nil {
		return Movement{}, err
	}
	pool.ProductID = product.ID
	pool.TotalQty = pool.TotalQty.Add(in.Quantity)
	pool.TotalCost = pool.TotalCost.Add(in.Quantity.Mul(in.UnitCost))
	if err := tx.SavePool(ctx, pool); err != nil {
		return Movement{}, err
	}
	return tx.InsertMovement(ctx, Movement{
		BusinessID: in.BusinessID,
		ProductID:  product.ID,
		Type:       MovementIn,
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		TotalCost:  in.Quantity.Mul(in.UnitCost).Round(2),
		OccurredAt: in.OccurredAt,
		Reference:  in.Reference,
		CreatedBy:  in.ActorID,
	})
}

// ConsumeTx records an outbound movement and returns its cost under the
// product's method. Shortages fail before any mutation.
func ConsumeTx(ctx context.Context, tx TxRepository, in ConsumeInput) (Movement, error) {
	if err := in.Validate(); err != nil {
		return Movement{}, err
	}
	product, err := tx.GetProductForUpdate(ctx, in.BusinessID, in.ProductID)
	if err != nil {
		return Movement{}, err
	}
	var cost decimal.Decimal
	switch product.CostMethod {
	case CostWeightedAverage:
		cost, err = consumeWeightedAverage(ctx, tx, product, in.Quantity)
	default:
		cost, err = consumeFIFO(ctx, tx, product, in.Quantity)
	}
	if err != nil {
		return Movement{}, err
	}
	unitCost := decimal.Zero
	if !in.Quantity.IsZero() {
		unitCost = cost.DivRound(in.Quantity, 4)
	}
	return tx.InsertMovement(ctx, Movement{
		BusinessID: in.BusinessID,
		ProductID:  product.ID,
		Type:       MovementOut,
		Quantity:   in.Quantity,
		UnitCost:   unitCost,
		TotalCost:  cost,
		OccurredAt: in.OccurredAt,
		Reference:  in.Reference,
		CreatedBy:  in.ActorID,
	})
}

// consumeFIFO depletes lots oldest first and prices the consumption at
// the sum of the depleted layers.
func consumeFIFO(ctx context.Context, tx TxRepository, product Product, qty decimal.Decimal) (decimal.Decimal, error) {
	lots, err := tx.LotsForUpdate(ctx, product.ID)
	if err != nil {
		return decimal.Zero, err
	}
	var available decimal.Decimal
	for _, lot := range lots {
		available = available.Add(lot.Remaining)
	}
	if qty.GreaterThan(available) {
		return decimal.Zero, fmt.Errorf("%w: need %s, have %s", acctshared.ErrInsufficientStock, qty, available)
	}
	var cost decimal.Decimal
	left := qty
	for _, lot := range lots {
		if left.IsZero() {
			break
		}
		if lot.Remaining.IsZero() {
			continue
		}
		take := decimal.Min(lot.Remaining, left)
		cost = cost.Add(take.Mul(lot.UnitCost))
		left = left.Sub(take)
		if err := tx.SetLotRemaining(ctx, lot.ID, lot.Remaining.Sub(take)); err != nil {
			return decimal.Zero, err
		}
	}
	cost = cost.Round(2)
	if err := drainPool(ctx, tx, product.ID, qty, cost); err != nil {
		return decimal.Zero, err
	}
	return cost, nil
}

// consumeWeightedAverage prices the consumption at the pool's running
// average unit cost.
func consumeWeightedAverage(ctx context.Context, tx TxRepository, product Product, qty decimal.Decimal) (decimal.Decimal, error) {
	pool, err := tx.GetPool(ctx, product.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if qty.GreaterThan(pool.TotalQty) {
		return decimal.Zero, fmt.Errorf("%w: need %s, have %s", acctshared.ErrInsufficientStock, qty, pool.TotalQty)
	}
	unitCost := pool.TotalCost.Div(pool.TotalQty)
	cost := qty.Mul(unitCost).Round(2)
	if err := drainPool(ctx, tx, product.ID, qty, cost); err != nil {
		return decimal.Zero, err
	}
	return cost, nil
}

func drainPool(ctx context.Context, tx TxRepository, productID int64, qty, cost decimal.Decimal) error {
	pool, err := tx.GetPool(ctx, productID)
	if err != nil {
		return err
	}
	pool.ProductID = productID
	pool.TotalQty = pool.TotalQty.Sub(qty)
	pool.TotalCost = pool.TotalCost.Sub(cost)
	if pool.TotalQty.IsZero() {
		// Rounding residue has nowhere to live once the pool empties.
		pool.TotalCost = decimal.Zero
	}
	return tx.SavePool(ctx, pool)
}
