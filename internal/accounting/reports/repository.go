package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/atlas-erp/internal/accounting/ledger"
)

type Repository interface {
	// AccountTotals sums posted entries per account up to the cutoff,
	// optionally excluding a source type.
	AccountTotals(ctx context.Context, businessID int64, from, to time.Time, excludeSource ledger.SourceType) ([]AccountTotals, error)
	SaveSnapshot(ctx context.Context, s Snapshot) (Snapshot, error)
	ListSnapshots(ctx context.Context, businessID int64, limit int) ([]Snapshot, error)
	// ListBusinessIDs returns every business with posted activity, for
	// the snapshot worker's fan-out.
	ListBusinessIDs(ctx context.Context) ([]int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) AccountTotals(ctx context.Context, businessID int64, from, to time.Time, excludeSource ledger.SourceType) ([]AccountTotals, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.code, a.name, a.type,
		       COALESCE(SUM(e.debit), 0), COALESCE(SUM(e.credit), 0)
		FROM ledger_entries e
		JOIN ledger_transactions t ON t.id = e.transaction_id
		JOIN accounts a ON a.id = e.account_id
		WHERE t.business_id = $1
		  AND t.date >= $2 AND t.date <= $3
		  AND ($4 = '' OR t.source_type <> $4)
		GROUP BY a.id, a.code, a.name, a.type
		ORDER BY a.code`, businessID, from, to, string(excludeSource))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountTotals
	for rows.Next() {
		var t AccountTotals
		if err := rows.Scan(&t.AccountID, &t.Code, &t.Name, &t.Type, &t.Debit, &t.Credit); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) SaveSnapshot(ctx context.Context, s Snapshot) (Snapshot, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO trial_balance_snapshots (business_id, as_of, total_debit, total_credit, rows, taken_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		s.BusinessID, s.AsOf, s.TotalDebit, s.TotalCredit, s.Rows, s.TakenAt).Scan(&s.ID)
	return s, err
}

func (r *repository) ListSnapshots(ctx context.Context, businessID int64, limit int) ([]Snapshot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, business_id, as_of, total_debit, total_credit, rows, taken_at
		FROM trial_balance_snapshots
		WHERE business_id = $1
		ORDER BY as_of DESC
		LIMIT $2`, businessID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.BusinessID, &s.AsOf, &s.TotalDebit, &s.TotalCredit, &s.Rows, &s.TakenAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) ListBusinessIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT business_id FROM ledger_transactions ORDER BY business_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
