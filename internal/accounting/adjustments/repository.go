package adjustments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	"github.com/atlas-erp/atlas-erp/internal/accounting/periods"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	"github.com/atlas-erp/atlas-erp/internal/platform/db"
)

// TxRepository is the adjustment producers' unit-of-work surface.
type TxRepository interface {
	ledger.TxRepository
	accounts.Ensurer

	GetFiscalYear(ctx context.Context, businessID, yearID int64) (periods.FiscalYear, error)
	InsertOpeningBatch(ctx context.Context, b OpeningBatch) (OpeningBatch, error)
	InsertBankAdjustment(ctx context.Context, a BankAdjustment) (BankAdjustment, error)
}

type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	ListBankAdjustments(ctx context.Context, businessID, bankAccountID int64) ([]BankAdjustment, error)
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

const bankAdjustmentColumns = `id, business_id, bank_account_id, number, kind, amount, date, reference, memo, transaction_id, created_by`

func (r *repository) ListBankAdjustments(ctx context.Context, businessID, bankAccountID int64) ([]BankAdjustment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+bankAdjustmentColumns+`
		FROM bank_adjustments
		WHERE business_id = $1 AND bank_account_id = $2
		ORDER BY date DESC, id DESC`, businessID, bankAccountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BankAdjustment
	for rows.Next() {
		var a BankAdjustment
		if err := rows.Scan(&a.ID, &a.BusinessID, &a.BankAccountID, &a.Number, &a.Kind, &a.Amount, &a.Date, &a.Reference, &a.Memo, &a.TransactionID, &a.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type txRepository struct {
	ledger.TxRepository
	accounts.Ensurer
	tx pgx.Tx
}

func (r *txRepository) GetFiscalYear(ctx context.Context, businessID, yearID int64) (periods.FiscalYear, error) {
	var y periods.FiscalYear
	err := r.tx.QueryRow(ctx, `
		SELECT id, business_id, name, start_date, end_date, status, closing_transaction_id, closed_by, closed_at, created_at
		FROM fiscal_years WHERE business_id = $1 AND id = $2`, businessID, yearID).
		Scan(&y.ID, &y.BusinessID, &y.Name, &y.StartDate, &y.EndDate, &y.Status, &y.ClosingTransactionID, &y.ClosedBy, &y.ClosedAt, &y.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return periods.FiscalYear{}, acctshared.ErrYearNotFound
	}
	if err != nil {
		return periods.FiscalYear{}, err
	}
	return y, nil
}

func (r *txRepository) InsertOpeningBatch(ctx context.Context, b OpeningBatch) (OpeningBatch, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO opening_batches (business_id, fiscal_year_id, number, transaction_id, imported_by, imported_at)
		VALUES ($1, $2, 'OB-' || LPAD(nextval('doc_seq_opening')::text, 5, '0'), $3, $4, $5)
		RETURNING id, number`, b.BusinessID, b.FiscalYearID, b.TransactionID, b.ImportedBy, b.ImportedAt).
		Scan(&b.ID, &b.Number)
	return b, err
}

func (r *txRepository) InsertBankAdjustment(ctx context.Context, a BankAdjustment) (BankAdjustment, error) {
	err := r.tx.QueryRow(ctx, `
		INSERT INTO bank_adjustments (business_id, bank_account_id, number, kind, amount, date, reference, memo, transaction_id, created_by)
		VALUES ($1, $2, 'BA-' || LPAD(nextval('doc_seq_bank_adjustment')::text, 5, '0'), $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, number`,
		a.BusinessID, a.BankAccountID, a.Kind, a.Amount, a.Date, a.Reference, a.Memo, a.TransactionID, a.CreatedBy).
		Scan(&a.ID, &a.Number)
	return a, err
}
