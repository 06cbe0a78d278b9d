package ar

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	"github.com/atlas-erp/atlas-erp/internal/platform/db"
)

// TxRepository is the write-off unit of work: receivable state plus the
// ledger posting surface, one commit.
type TxRepository interface {
	ledger.TxRepository
	accounts.Ensurer

	GetInvoiceForUpdate(ctx context.Context, businessID, invoiceID int64) (Invoice, error)
	SetInvoiceStatus(ctx context.Context, invoiceID int64, status InvoiceStatus) error
	InsertBadDebt(ctx context.Context, bd BadDebt) (BadDebt, error)
	GetBadDebtForUpdate(ctx context.Context, businessID, badDebtID int64) (BadDebt, error)
	UpdateBadDebtRecovery(ctx context.Context, badDebtID int64, recovered decimal.Decimal, status BadDebtStatus) error
}

type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetBadDebt(ctx context.Context, businessID, badDebtID int64) (BadDebt, error)
	ListBadDebts(ctx context.Context, businessID int64) ([]BadDebt, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{
			TxRepository: ledger.NewTxRepository(tx),
			Ensurer:      accounts.NewTxEnsurer(tx),
			tx:           tx,
		})
	})
}

const badDebtColumns = `id, business_id, invoice_id, number, amount, recovered, status, transaction_id, written_off_at, created_by`

func scanBadDebt(row pgx.Row) (BadDebt, error) {
	var bd BadDebt
	err := row.Scan(&bd.ID, &bd.BusinessID, &bd.InvoiceID, &bd.Number, &bd.Amount, &bd.Recovered, &bd.Status, &bd.TransactionID, &bd.WrittenOffAt, &bd.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return BadDebt{}, acctshared.ErrBadDebtNotFound
	}
	return bd, err
}

func (r *repository) GetBadDebt(ctx context.Context, businessID, badDebtID int64) (BadDebt, error) {
	return scanBadDebt(r.db.QueryRow(ctx, `SELECT `+badDebtColumns+` FROM bad_debts WHERE business_id = $1 AND id = $2`, businessID, badDebtID))
}

func (r *repository) ListBadDebts(ctx context.Context, businessID int64) ([]BadDebt, error) {
	rows, err := r.db.Query(ctx, `SELECT `+badDebtColumns+` FROM bad_debts WHERE business_id = $1 ORDER BY written_off_at DESC, id DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BadDebt
	for rows.Next() {
		bd, err := scanBadDebt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bd)
	}
	return out, rows.Err()
}

type txRepository struct {
	ledger.TxRepository
	accounts.Ensurer
	tx pgx.Tx
}

func (r *txRepository) GetInvoiceForUpdate(ctx context.Context, businessID, invoiceID int64) (Invoice, error) {
	var inv Invoice
	err := r.tx.QueryRow(ctx, `
		SELECT id, business_id, customer_id, number, total, paid, status, issued_at
		FROM invoices WHERE business_id = $1 AND id = $2
		FOR UPDATE`, businessID, invoiceID).
		Scan(&inv.ID, &inv.BusinessID, &inv.CustomerID, &inv.Number, &inv.Total, &inv.Paid, &inv.Status, &inv.IssuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, acctshared.ErrInvoiceNotFound
	}
	return inv, err
}

func (r *txRepository) SetInvoiceStatus(ctx context.Context, invoiceID int64, status InvoiceStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE invoices SET status = $2 WHERE id = $1`, invoiceID, status)
	return err
}

func (r *txRepository) InsertBadDebt(ctx context.Context, bd BadDebt) (BadDebt, error) {
	return scanBadDebt(r.tx.QueryRow(ctx, `
		INSERT INTO bad_debts (business_id, invoice_id, number, amount, recovered, status, transaction_id, written_off_at, created_by)
		VALUES ($1, $2, 'BD-' || LPAD(nextval('doc_seq_bad_debt')::text, 5, '0'), $3, 0, $4, $5, $6, $7)
		RETURNING `+badDebtColumns,
		bd.BusinessID, bd.InvoiceID, bd.Amount, bd.Status, bd.TransactionID, bd.WrittenOffAt, bd.CreatedBy))
}

func (r *txRepository) GetBadDebtForUpdate(ctx context.Context, businessID, badDebtID int64) (BadDebt, error) {
	return scanBadDebt(r.tx.QueryRow(ctx, `SELECT `+badDebtColumns+` FROM bad_debts WHERE business_id = $1 AND id = $2 FOR UPDATE`, businessID, badDebtID))
}

func (r *txRepository) UpdateBadDebtRecovery(ctx context.Context, badDebtID int64, recovered decimal.Decimal, status BadDebtStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE bad_debts SET recovered = $2, status = $3 WHERE id = $1`, badDebtID, recovered, status)
	return err
}
