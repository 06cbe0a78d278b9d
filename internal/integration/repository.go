package integration

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/inventory"
	"github.com/atlas-erp/atlas-erp/internal/platform/db"
)

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

// Aliases keep the embedded field names distinct when joining the two
// transaction surfaces.
type postingTx = ledger.TxRepository
type costingTx = inventory.TxRepository

// txRepository joins the posting, account and costing surfaces over a
// single transaction.
type txRepository struct {
	postingTx
	*accounts.TxEnsurer
	costingTx
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{
			postingTx: ledger.NewTxRepository(tx),
			TxEnsurer: accounts.NewTxEnsurer(tx),
			costingTx: inventory.NewTxRepository(tx),
		})
	})
}
