package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	"github.com/atlas-erp/atlas-erp/internal/platform/db"
)

// TxRepository is the costing unit-of-work surface. GetProductForUpdate
// doubles as the per-product writer lock: every stock mutation starts
// by taking it.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, businessID, productID int64) (Product, error)
	LotsForUpdate(ctx context.Context, productID int64) ([]Lot, error)
	InsertLot(ctx context.Context, lot Lot) (Lot, error)
	SetLotRemaining(ctx context.Context, lotID int64, remaining decimal.Decimal) error
	GetPool(ctx context.Context, productID int64) (Pool, error)
	SavePool(ctx context.Context, pool Pool) error
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
}

type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetProduct(ctx context.Context, businessID, productID int64) (Product, error)
	Lots(ctx context.Context, productID int64) ([]Lot, error)
	Pool(ctx context.Context, productID int64) (Pool, error)
	ListMovements(ctx context.Context, businessID, productID int64, limit int) ([]Movement, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, NewTxRepository(tx))
	})
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.BusinessID, &p.SKU, &p.Name, &p.CostMethod)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, acctshared.ErrProductNotFound
	}
	return p, err
}

func (r *repository) GetProduct(ctx context.Context, businessID, productID int64) (Product, error) {
	return scanProduct(r.db.QueryRow(ctx, `
		SELECT id, business_id, sku, name, cost_method
		FROM products WHERE business_id = $1 AND id = $2`, businessID, productID))
}

func (r *repository) Lots(ctx context.Context, productID int64) ([]Lot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, received_at, quantity, remaining, unit_cost
		FROM inventory_lots WHERE product_id = $1
		ORDER BY received_at, id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLots(rows)
}

func (r *repository) Pool(ctx context.Context, productID int64) (Pool, error) {
	return scanPool(r.db.QueryRow(ctx, `
		SELECT product_id, total_qty, total_cost
		FROM inventory_pools WHERE product_id = $1`, productID), productID)
}

func (r *repository) ListMovements(ctx context.Context, businessID, productID int64, limit int) ([]Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, business_id, product_id, type, quantity, unit_cost, total_cost, occurred_at, reference, created_by, created_at
		FROM inventory_movements
		WHERE business_id = $1 AND product_id = $2
		ORDER BY occurred_at DESC, id DESC
		LIMIT $3`, businessID, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.BusinessID, &m.ProductID, &m.Type, &m.Quantity, &m.UnitCost, &m.TotalCost, &m.OccurredAt, &m.Reference, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func collectLots(rows pgx.Rows) ([]Lot, error) {
	var out []Lot
	for rows.Next() {
		var l Lot
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ReceivedAt, &l.Quantity, &l.Remaining, &l.UnitCost); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanPool(row pgx.Row, productID int64) (Pool, error) {
	var p Pool
	err := row.Scan(&p.ProductID, &p.TotalQty, &p.TotalCost)
	if errors.Is(err, pgx.ErrNoRows) {
		return Pool{ProductID: productID, TotalQty: decimal.Zero, TotalCost: decimal.Zero}, nil
	}
	return p, err
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an open transaction so goods-movement producers
// can cost stock inside their own unit of work.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, businessID, productID int64) (Product, error) {
	return scanProduct(r.tx.QueryRow(ctx, `
		SELECT id, business_id, sku, name, cost_method
		FROM products WHERE business_id = $1 AND id = $2
		FOR UPDATE`, businessID, productID))
}

func (r *txRepository) LotsForUpdate(ctx context.Context, productID int64) ([]Lot, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id, product_id, received_at, quantity, remaining, unit_cost
		FROM inventory_lots WHERE product_id = $1
		ORDER BY received_at, id
		FOR UPDATE`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLots(rows)
}

func (r *txRepository) InsertLot(ctx context.Context, lot Lot) (Lot, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO inventory_lots (product_id, received_at, quantity, remaining, unit_cost)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, lot.ProductID, lot.ReceivedAt, lot.Quantity, lot.Remaining, lot.UnitCost).Scan(&lot.ID)
	return lot, err
}

func (r *txRepository) SetLotRemaining(ctx context.Context, lotID int64, remaining decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE inventory_lots SET remaining = $2 WHERE id = $1`, lotID, remaining)
	return err
}

func (r *txRepository) GetPool(ctx context.Context, productID int64) (Pool, error) {
	return scanPool(r.tx.QueryRow(ctx, `
		SELECT product_id, total_qty, total_cost
		FROM inventory_pools WHERE product_id = $1`, productID), productID)
}

func (r *txRepository) SavePool(ctx context.Context, pool Pool) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO inventory_pools (product_id, total_qty, total_cost)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id) DO UPDATE SET total_qty = EXCLUDED.total_qty, total_cost = EXCLUDED.total_cost`,
		pool.ProductID, pool.TotalQty, pool.TotalCost)
	return err
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO inventory_movements (business_id, product_id, type, quantity, unit_cost, total_cost, occurred_at, reference, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		m.BusinessID, m.ProductID, m.Type, m.Quantity, m.UnitCost, m.TotalCost, m.OccurredAt, m.Reference, m.CreatedBy).
		Scan(&m.ID, &m.CreatedAt)
	return m, err
}
