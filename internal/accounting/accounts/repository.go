package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	acctshared "github.com/atlas-erp/atlas-erp/internal/accounting/shared"
)

// Ensurer resolves or lazily creates a well-known system account inside
// the caller's unit of work. Producer transaction stores embed it.
type Ensurer interface {
	EnsureSystemAccount(ctx context.Context, businessID int64, role SystemRole) (Account, error)
}

type Repository interface {
	List(ctx context.Context, businessID int64) ([]Account, error)
	ListByType(ctx context.Context, businessID int64, t AccountType) ([]Account, error)
	GetByID(ctx context.Context, businessID, id int64) (Account, error)
	GetByCode(ctx context.Context, businessID int64, code string) (Account, error)
	Create(ctx context.Context, a Account) (Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, business_id, code, name, type, normal_side, parent_id, is_system, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.BusinessID, &a.Code, &a.Name, &a.Type, &a.NormalSide, &a.ParentID, &a.IsSystem, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, acctshared.ErrAccountNotFound
	}
	return a, err
}

func (r *repository) List(ctx context.Context, businessID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE business_id = $1 ORDER BY code`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *repository) ListByType(ctx context.Context, businessID int64, t AccountType) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE business_id = $1 AND type = $2 ORDER BY code`, businessID, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]Account, error) {
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, businessID, id int64) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE business_id = $1 AND id = $2`, businessID, id))
}

func (r *repository) GetByCode(ctx context.Context, businessID int64, code string) (Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE business_id = $1 AND code = $2`, businessID, code))
}

func (r *repository) Create(ctx context.Context, a Account) (Account, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO accounts (business_id, code, name, type, normal_side, parent_id, is_system, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING `+accountColumns,
		a.BusinessID, a.Code, a.Name, a.Type, a.NormalSide, a.ParentID, a.IsSystem)
	return scanAccount(row)
}

// TxEnsurer implements Ensurer over an open pgx transaction so that the
// lazily created account commits or rolls back with its producer.
type TxEnsurer struct {
	tx pgx.Tx
}

func NewTxEnsurer(tx pgx.Tx) *TxEnsurer {
	return &TxEnsurer{tx: tx}
}

func (e *TxEnsurer) EnsureSystemAccount(ctx context.Context, businessID int64, role SystemRole) (Account, error) {
	spec, ok := SystemAccountDefaults[role]
	if !ok {
		return Account{}, acctshared.ErrAccountNotFound
	}
	a, err := scanAccount(e.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE business_id = $1 AND system_role = $2`, businessID, string(role)))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, acctshared.ErrAccountNotFound) {
		return Account{}, err
	}
	row := e.tx.QueryRow(ctx, `
		INSERT INTO accounts (business_id, code, name, type, normal_side, system_role, is_system, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, TRUE)
		ON CONFLICT (business_id, code) DO UPDATE SET system_role = EXCLUDED.system_role, is_system = TRUE
		RETURNING `+accountColumns,
		businessID, spec.Code, spec.Name, spec.Type, NormalSideFor(spec.Type), string(role))
	return scanAccount(row)
}
