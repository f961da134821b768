package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/samber/oops"
)

const accountColumns = `id, display_id, username, email, password_hash, first_name, last_name,
		phone, role, verified, verification_token, created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// uniqueErrors maps constraint names from the accounts migration to typed errors.
var uniqueErrors = map[string]error{
	"accounts_email_key":              common.ErrDuplicateEmail,
	"accounts_username_key":           common.ErrDuplicateUsername,
	"accounts_display_id_key":         common.ErrDuplicateDisplayID,
	"accounts_verification_token_key": common.ErrDuplicateToken,
}

func translateUnique(err error) error {
	constraint, ok := dbx.IsUniqueViolation(err)
	if !ok {
		return nil
	}
	if typed, found := uniqueErrors[constraint]; found {
		return typed
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.DisplayID, a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName,
		a.Phone, string(a.Role), a.Verified, a.VerificationToken, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if typed := translateUnique(err); typed != nil {
			return typed
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").With("username", a.Username).Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + column + ` = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, oops.Code("ACCOUNT_QUERY_FAILED").With(column, value).Wrap(err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.getBy(ctx, "username", username)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PostgresRepository) GetByDisplayID(ctx context.Context, displayID string) (*models.Account, error) {
	return r.getBy(ctx, "display_id", displayID)
}

func (r *PostgresRepository) GetByVerificationToken(ctx context.Context, token string) (*models.Account, error) {
	return r.getBy(ctx, "verification_token", token)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, oops.Code("ACCOUNT_SCAN_FAILED").Wrap(err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").Wrap(err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, a *models.Account) error {
	query := `
		UPDATE accounts
		SET username = $2, email = $3, password_hash = $4, first_name = $5, last_name = $6,
			phone = $7, role = $8, verified = $9, verification_token = $10, updated_at = $11
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName,
		a.Phone, string(a.Role), a.Verified, a.VerificationToken, a.UpdatedAt)
	if err != nil {
		if typed := translateUnique(err); typed != nil {
			return typed
		}
		return oops.Code("ACCOUNT_UPDATE_FAILED").With("account_id", a.ID).Wrap(err)
	}
	return requireOneRow(res, "ACCOUNT_UPDATE_FAILED")
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, id, token string, at time.Time) error {
	query := `
		UPDATE accounts
		SET verified = TRUE, verification_token = NULL, updated_at = $3
		WHERE id = $1 AND verification_token = $2 AND NOT verified
	`
	res, err := r.db.ExecContext(ctx, query, id, token, at)
	if err != nil {
		return oops.Code("ACCOUNT_VERIFY_FAILED").With("account_id", id).Wrap(err)
	}
	return requireOneRow(res, "ACCOUNT_VERIFY_FAILED")
}

func (r *PostgresRepository) LockForUpdate(ctx context.Context, id string) error {
	query := `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`

	var locked string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return oops.Code("ACCOUNT_LOCK_FAILED").With("account_id", id).Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").With("account_id", id).Wrap(err)
	}
	return requireOneRow(res, "ACCOUNT_DELETE_FAILED")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var (
		a     models.Account
		role  string
		token sql.NullString
	)
	err := row.Scan(&a.ID, &a.DisplayID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName,
		&a.LastName, &a.Phone, &role, &a.Verified, &token, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Role = models.Role(role)
	if token.Valid {
		a.VerificationToken = &token.String
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
