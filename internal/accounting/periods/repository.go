package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
	"github.com/atlas-erp/atlas-erp/internal/platform/db"
)

// AccountNet carries the posted totals of one revenue or expense
// account over the closing range.
type AccountNet struct {
	AccountID int64
	Type      accounts.AccountType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// TxRepository is the unit-of-work surface for period transitions and
// the year-end close. It embeds the ledger posting surface so the
// closing entry commits with the state change.
type TxRepository interface {
	ledger.TxRepository
	accounts.Ensurer

	GetYearForUpdate(ctx context.Context, businessID, yearID int64) (FiscalYear, error)
	YearOverlaps(ctx context.Context, businessID int64, start, end time.Time) (bool, error)
	InsertYear(ctx context.Context, y FiscalYear) (FiscalYear, error)
	InsertPeriods(ctx context.Context, yearID int64, ps []FiscalPeriod) ([]FiscalPeriod, error)
	GetPeriodForUpdate(ctx context.Context, businessID, periodID int64) (FiscalPeriod, error)
	UpdatePeriodStatus(ctx context.Context, periodID int64, status acctshared.PeriodStatus) error
	LockOpenPeriods(ctx context.Context, yearID int64) error
	// ProfitAndLossByAccount sums entries of revenue and expense accounts
	// over the inclusive date range.
	ProfitAndLossByAccount(ctx context.Context, businessID int64, start, end time.Time) ([]AccountNet, error)
	MarkYearClosed(ctx context.Context, yearID int64, closingTxID *int64, actorID int64, at time.Time) error
}

type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetYear(ctx context.Context, businessID, yearID int64) (FiscalYear, error)
	ListYears(ctx context.Context, businessID int64) ([]FiscalYear, error)
	ListPeriods(ctx context.Context, businessID, yearID int64) ([]FiscalPeriod, error)
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

const yearColumns = `id, business_id, name, start_date, end_date, status, closing_transaction_id, closed_by, closed_at, created_at`
const periodColumns = `id, fiscal_year_id, name, start_date, end_date, status, is_adjustment`

func scanYear(row pgx.Row) (FiscalYear, error) {
	var y FiscalYear
	err := row.Scan(&y.ID, &y.BusinessID, &y.Name, &y.StartDate, &y.EndDate, &y.Status, &y.ClosingTransactionID, &y.ClosedBy, &y.ClosedAt, &y.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return FiscalYear{}, acctshared.ErrYearNotFound
	}
	return y, err
}

func scanPeriod(row pgx.Row) (FiscalPeriod, error) {
	var p FiscalPeriod
	err := row.Scan(&p.ID, &p.FiscalYearID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.IsAdjustment)
	if errors.Is(err, pgx.ErrNoRows) {
		return FiscalPeriod{}, acctshared.ErrPeriodNotFound
	}
	return p, err
}

func (r *repository) GetYear(ctx context.Context, businessID, yearID int64) (FiscalYear, error) {
	return scanYear(r.db.QueryRow(ctx, `SELECT `+yearColumns+` FROM fiscal_years WHERE business_id = $1 AND id = $2`, businessID, yearID))
}

func (r *repository) ListYears(ctx context.Context, businessID int64) ([]FiscalYear, error) {
	rows, err := r.db.Query(ctx, `SELECT `+yearColumns+` FROM fiscal_years WHERE business_id = $1 ORDER BY start_date DESC`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FiscalYear
	for rows.Next() {
		y, err := scanYear(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

func (r *repository) ListPeriods(ctx context.Context, businessID, yearID int64) ([]FiscalPeriod, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+periodColumns+`
		FROM fiscal_periods p
		WHERE p.fiscal_year_id = $2
		  AND EXISTS (SELECT 1 FROM fiscal_years y WHERE y.id = p.fiscal_year_id AND y.business_id = $1)
		ORDER BY p.start_date, p.is_adjustment`, businessID, yearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FiscalPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type txRepository struct {
	ledger.TxRepository
	accounts.Ensurer
	tx pgx.Tx
}

func (r *txRepository) GetYearForUpdate(ctx context.Context, businessID, yearID int64) (FiscalYear, error) {
	return scanYear(r.tx.QueryRow(ctx, `SELECT `+yearColumns+` FROM fiscal_years WHERE business_id = $1 AND id = $2 FOR UPDATE`, businessID, yearID))
}

func (r *txRepository) YearOverlaps(ctx context.Context, businessID int64, start, end time.Time) (bool, error) {
	var overlaps bool
	err := r.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM fiscal_years
			WHERE business_id = $1 AND start_date <= $3 AND end_date >= $2
		)`, businessID, start, end).Scan(&overlaps)
	return overlaps, err
}

func (r *txRepository) InsertYear(ctx context.Context, y FiscalYear) (FiscalYear, error) {
	return scanYear(r.tx.QueryRow(ctx, `
		INSERT INTO fiscal_years (business_id, name, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+yearColumns,
		y.BusinessID, y.Name, y.StartDate, y.EndDate, y.Status))
}

func (r *txRepository) InsertPeriods(ctx context.Context, yearID int64, ps []FiscalPeriod) ([]FiscalPeriod, error) {
	out := make([]FiscalPeriod, 0, len(ps))
	for _, p := range ps {
		inserted, err := scanPeriod(r.tx.QueryRow(ctx, `
			INSERT INTO fiscal_periods (fiscal_year_id, name, start_date, end_date, status, is_adjustment)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+periodColumns,
			yearID, p.Name, p.StartDate, p.EndDate, p.Status, p.IsAdjustment))
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (r *txRepository) GetPeriodForUpdate(ctx context.Context, businessID, periodID int64) (FiscalPeriod, error) {
	return scanPeriod(r.tx.QueryRow(ctx, `
		SELECT `+periodColumns+`
		FROM fiscal_periods p
		JOIN fiscal_years y ON y.id = p.fiscal_year_id
		WHERE y.business_id = $1 AND p.id = $2
		FOR UPDATE OF p`, businessID, periodID))
}

func (r *txRepository) UpdatePeriodStatus(ctx context.Context, periodID int64, status acctshared.PeriodStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE fiscal_periods SET status = $2 WHERE id = $1`, periodID, status)
	return err
}

func (r *txRepository) LockOpenPeriods(ctx context.Context, yearID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE fiscal_periods SET status = $2 WHERE fiscal_year_id = $1 AND status = $3`,
		yearID, acctshared.PeriodLocked, acctshared.PeriodOpen)
	return err
}

func (r *txRepository) ProfitAndLossByAccount(ctx context.Context, businessID int64, start, end time.Time) ([]AccountNet, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT a.id, a.type, COALESCE(SUM(e.debit), 0), COALESCE(SUM(e.credit), 0)
		FROM ledger_entries e
		JOIN ledger_transactions t ON t.id = e.transaction_id
		JOIN accounts a ON a.id = e.account_id
		WHERE t.business_id = $1 AND t.date BETWEEN $2 AND $3
		  AND a.type IN ('REVENUE', 'EXPENSE')
		GROUP BY a.id, a.type
		ORDER BY a.id`, businessID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountNet
	for rows.Next() {
		var n AccountNet
		if err := rows.Scan(&n.AccountID, &n.Type, &n.Debit, &n.Credit); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *txRepository) MarkYearClosed(ctx context.Context, yearID int64, closingTxID *int64, actorID int64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `
		UPDATE fiscal_years
		SET status = $2, closing_transaction_id = $3, closed_by = $4, closed_at = $5
		WHERE id = $1`, yearID, acctshared.YearClosed, closingTxID, actorID, at)
	return err
}
