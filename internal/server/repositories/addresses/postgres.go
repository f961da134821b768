package addresses

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/samber/oops"
)

const addressColumns = `id, account_id, full_name, address_line, city, state, zip_code, phone,
		is_default, created_at, updated_at`

// defaultIndex is the partial unique index allowing one default per account.
const defaultIndex = "addresses_one_default_idx"

// ErrDefaultTaken is returned when a write would give an account a second
// default address. Callers are expected to clear siblings first.
var ErrDefaultTaken = errors.New("account already has a default address")

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE account_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, oops.Code("ADDRESS_LIST_FAILED").With("account_id", accountID).Wrap(err)
	}
	defer rows.Close()

	result := []*models.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, oops.Code("ADDRESS_SCAN_FAILED").Wrap(err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ADDRESS_LIST_FAILED").With("account_id", accountID).Wrap(err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, accountID, id string) (*models.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND account_id = $2`

	a, err := scanAddress(r.db.QueryRowContext(ctx, query, id, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, oops.Code("ADDRESS_QUERY_FAILED").With("address_id", id).Wrap(err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Address) error {
	query := `
		INSERT INTO addresses (` + addressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.AccountID, a.FullName, a.AddressLine, a.City, a.State, a.ZipCode, a.Phone,
		a.IsDefault, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if constraint, ok := dbx.IsUniqueViolation(err); ok && constraint == defaultIndex {
			return ErrDefaultTaken
		}
		return oops.Code("ADDRESS_CREATE_FAILED").With("account_id", a.AccountID).Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, a *models.Address) error {
	query := `
		UPDATE addresses
		SET full_name = $3, address_line = $4, city = $5, state = $6, zip_code = $7, phone = $8,
			is_default = $9, updated_at = $10
		WHERE id = $1 AND account_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.AccountID, a.FullName, a.AddressLine, a.City, a.State, a.ZipCode, a.Phone,
		a.IsDefault, a.UpdatedAt)
	if err != nil {
		if constraint, ok := dbx.IsUniqueViolation(err); ok && constraint == defaultIndex {
			return ErrDefaultTaken
		}
		return oops.Code("ADDRESS_UPDATE_FAILED").With("address_id", a.ID).Wrap(err)
	}
	return requireOneRow(res, "ADDRESS_UPDATE_FAILED")
}

func (r *PostgresRepository) ClearDefault(ctx context.Context, accountID, exceptID string) (int64, error) {
	query := `
		UPDATE addresses
		SET is_default = FALSE
		WHERE account_id = $1 AND id <> $2 AND is_default
	`
	res, err := r.db.ExecContext(ctx, query, accountID, exceptID)
	if err != nil {
		return 0, oops.Code("ADDRESS_CLEAR_DEFAULT_FAILED").With("account_id", accountID).Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, oops.Code("ADDRESS_CLEAR_DEFAULT_FAILED").Wrap(err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, accountID, id string) error {
	query := `DELETE FROM addresses WHERE id = $1 AND account_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return oops.Code("ADDRESS_DELETE_FAILED").With("address_id", id).Wrap(err)
	}
	return requireOneRow(res, "ADDRESS_DELETE_FAILED")
}

func (r *PostgresRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	query := `DELETE FROM addresses WHERE account_id = $1`

	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return oops.Code("ADDRESS_DELETE_FAILED").With("account_id", accountID).Wrap(err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAddress(row scanner) (*models.Address, error) {
	var a models.Address
	err := row.Scan(&a.ID, &a.AccountID, &a.FullName, &a.AddressLine, &a.City, &a.State,
		&a.ZipCode, &a.Phone, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func requireOneRow(res sql.Result, code string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Code(code).Wrap(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
