package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	"github.com/atlas-erp/atlas-erp/internal/platform/db"
)

// TxRepository is the transactional surface the ledger service works
// against. It extends TxPoster with the reads Reverse needs.
type TxRepository interface {
	TxPoster
	GetWithEntries(ctx context.Context, businessID, id int64) (Transaction, error)
}

type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetWithEntries(ctx context.Context, businessID, id int64) (Transaction, error)
	List(ctx context.Context, businessID int64, limit, offset int) ([]Transaction, error)
	// AccountActivity sums posted debits and credits up to asOf inclusive.
	AccountActivity(ctx context.Context, businessID, accountID int64, asOf time.Time) (debit, credit decimal.Decimal, err error)
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

const transactionColumns = `id, business_id, branch_id, period_id, number, date, memo, source_type, source_id, reverses_id, created_by, created_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.BusinessID, &t.BranchID, &t.PeriodID, &t.Number, &t.Date, &t.Memo, &t.SourceType, &t.SourceID, &t.ReversesID, &t.CreatedBy, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, acctshared.ErrTransactionNotFound
	}
	return t, err
}

func (r *repository) GetWithEntries(ctx context.Context, businessID, id int64) (Transaction, error) {
	return getWithEntries(ctx, r.db, businessID, id)
}

func (r *repository) List(ctx context.Context, businessID int64, limit, offset int) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM ledger_transactions
		WHERE business_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2 OFFSET $3`, businessID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) AccountActivity(ctx context.Context, businessID, accountID int64, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(e.debit), 0), COALESCE(SUM(e.credit), 0)
		FROM ledger_entries e
		JOIN ledger_transactions t ON t.id = e.transaction_id
		WHERE t.business_id = $1 AND e.account_id = $2 AND t.date <= $3`,
		businessID, accountID, asOf).Scan(&debit, &credit)
	return debit, credit, err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getWithEntries(ctx context.Context, q querier, businessID, id int64) (Transaction, error) {
	t, err := scanTransaction(q.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM ledger_transactions
		WHERE business_id = $1 AND id = $2`, businessID, id))
	if err != nil {
		return Transaction{}, err
	}
	rows, err := q.Query(ctx, `
		SELECT id, transaction_id, account_id, debit, credit, memo
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY id`, id)
	if err != nil {
		return Transaction{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.AccountID, &e.Debit, &e.Credit, &e.Memo); err != nil {
			return Transaction{}, err
		}
		t.Entries = append(t.Entries, e)
	}
	return t, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an open transaction so other producers can reuse
// the posting path inside their own unit of work.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) AccountsByID(ctx context.Context, ids []int64) (map[int64]accounts.Account, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id, business_id, code, name, type, normal_side, parent_id, is_system, is_active, created_at, updated_at
		FROM accounts
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]accounts.Account, len(ids))
	for rows.Next() {
		var a accounts.Account
		if err := rows.Scan(&a.ID, &a.BusinessID, &a.Code, &a.Name, &a.Type, &a.NormalSide, &a.ParentID, &a.IsSystem, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (r *txRepository) PostingPeriod(ctx context.Context, businessID int64, date time.Time, adjustment bool) (PostingPeriod, error) {
	var row pgx.Row
	if adjustment {
		row = r.tx.QueryRow(ctx, `
			SELECT p.id, p.fiscal_year_id, p.start_date, p.end_date, p.status, p.is_adjustment
			FROM fiscal_periods p
			JOIN fiscal_years y ON y.id = p.fiscal_year_id
			WHERE y.business_id = $1 AND p.is_adjustment
			  AND $2::date BETWEEN y.start_date AND y.end_date
			FOR UPDATE OF p`, businessID, date)
	} else {
		row = r.tx.QueryRow(ctx, `
			SELECT p.id, p.fiscal_year_id, p.start_date, p.end_date, p.status, p.is_adjustment
			FROM fiscal_periods p
			JOIN fiscal_years y ON y.id = p.fiscal_year_id
			WHERE y.business_id = $1 AND NOT p.is_adjustment
			  AND $2::date BETWEEN p.start_date AND p.end_date
			FOR UPDATE OF p`, businessID, date)
	}
	var p PostingPeriod
	err := row.Scan(&p.ID, &p.FiscalYearID, &p.StartDate, &p.EndDate, &p.Status, &p.IsAdjustment)
	if errors.Is(err, pgx.ErrNoRows) {
		return PostingPeriod{}, acctshared.ErrNoPeriodForDate
	}
	return p, err
}

func (r *txRepository) InsertTransaction(ctx context.Context, t Transaction) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `
		INSERT INTO ledger_transactions (business_id, branch_id, period_id, number, date, memo, source_type, source_id, reverses_id, created_by)
		VALUES ($1, $2, $3,
			CASE WHEN $6::text = 'closing' THEN 'CE-' ELSE 'JV-' END || LPAD(nextval('doc_seq_journal')::text, 5, '0'),
			$4, $5, $6, $7, $8, $9)
		RETURNING `+transactionColumns,
		t.BusinessID, t.BranchID, t.PeriodID, t.Date, t.Memo, t.SourceType, t.SourceID, t.ReversesID, t.CreatedBy)
	return scanTransaction(row)
}

func (r *txRepository) InsertEntries(ctx context.Context, transactionID int64, entries []Entry) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		row := r.tx.QueryRow(ctx, `
			INSERT INTO ledger_entries (transaction_id, account_id, debit, credit, memo)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`, transactionID, e.AccountID, e.Debit, e.Credit, e.Memo)
		if err := row.Scan(&e.ID); err != nil {
			return nil, err
		}
		e.TransactionID = transactionID
		out = append(out, e)
	}
	return out, nil
}

func (r *txRepository) LinkSource(ctx context.Context, businessID int64, sourceType SourceType, sourceID string, transactionID int64) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO ledger_source_links (business_id, source_type, source_id, transaction_id)
		VALUES ($1, $2, $3, $4)`, businessID, sourceType, sourceID, transactionID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return acctshared.ErrSourceAlreadyLinked
	}
	return err
}

func (r *txRepository) GetWithEntries(ctx context.Context, businessID, id int64) (Transaction, error) {
	return getWithEntries(ctx, r.tx, businessID, id)
}
