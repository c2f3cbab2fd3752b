// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account (Postgres) implements the storage layer for the directory.

# Schema Table Mapping
  - users.account: identity, credential material and reset-token digest.
  - account_email_lower_key: unique index on LOWER(email).
*/
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/warden/internal/platform/apperr"
	"github.com/taibuivan/warden/internal/platform/database/schema"
	"github.com/taibuivan/warden/internal/platform/dberr"
	"github.com/taibuivan/warden/internal/platform/postgres"
	"github.com/taibuivan/warden/internal/platform/sec"
)

const resourceAccount = "Account"

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation of the directory store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// selectColumns is the column list matched by [scanAccount].
var selectColumns = strings.Join(schema.UserAccount.Columns(), ", ")

// scanAccount hydrates an [Account] from a row in [schema.UserAccountTable.Columns] order.
func scanAccount(row pgx.Row) (*Account, error) {
	account := &Account{}
	var role string
	err := row.Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&account.PasswordHash,
		&role,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.LastPasswordResetTokenHash,
		&account.LastPasswordResetAt,
	)
	if err != nil {
		return nil, err
	}
	account.Role = sec.UserRole(role)
	return account, nil
}

/*
FindByID retrieves an account from the users.account table.

Returns:
  - *Account: Hydrated entity
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		selectColumns, schema.UserAccount.Table, schema.UserAccount.ID)

	account, err := scanAccount(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, resourceAccount)
	}
	return account, nil
}

/*
FindByEmail retrieves an account using the case-insensitive email index.
*/
func (repository *PostgresRepository) FindByEmail(context context.Context, email string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE LOWER(%s) = LOWER($1)`,
		selectColumns, schema.UserAccount.Table, schema.UserAccount.Email)

	account, err := scanAccount(repository.pool.QueryRow(context, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, resourceAccount)
	}
	return account, nil
}

/*
List returns a page of accounts ordered by creation time and the total row count.
*/
func (repository *PostgresRepository) List(context context.Context, limit, offset int) ([]*Account, int, error) {
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, schema.UserAccount.Table)
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s ASC, %s ASC LIMIT $1 OFFSET $2`,
		selectColumns, schema.UserAccount.Table, schema.UserAccount.CreatedAt, schema.UserAccount.ID)

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	accounts := make([]*Account, 0, limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_scan_failed: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_rows_failed: %w", err)
	}

	return accounts, total, nil
}

/*
Create inserts a new account row. A duplicate email surfaces as apperr.Conflict
through the unique LOWER(email) index.
*/
func (repository *PostgresRepository) Create(context context.Context, account *Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.FirstName, schema.UserAccount.LastName,
		schema.UserAccount.Email, schema.UserAccount.Password, schema.UserAccount.Role,
		schema.UserAccount.IsActive, schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		account.ID,
		account.FirstName,
		account.LastName,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.IsActive,
		account.CreatedAt,
		account.UpdatedAt,
	)

	return emailConflict(err)
}

/*
Update writes the mutable profile fields in one transaction: the row is locked,
the email collision is re-checked against other accounts, then the row is updated.
*/
func (repository *PostgresRepository) Update(context context.Context, account *Account) error {
	return postgres.WithTx(context, repository.pool, func(tx pgx.Tx) error {
		lockQuery := fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = $1 FOR UPDATE`,
			schema.UserAccount.Table, schema.UserAccount.ID)

		var exists int
		if err := tx.QueryRow(context, lockQuery, account.ID).Scan(&exists); err != nil {
			return dberr.Wrap(err, resourceAccount)
		}

		collisionQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE LOWER(%s) = LOWER($1) AND %s <> $2)`,
			schema.UserAccount.Table, schema.UserAccount.Email, schema.UserAccount.ID)

		var taken bool
		if err := tx.QueryRow(context, collisionQuery, account.Email, account.ID).Scan(&taken); err != nil {
			return fmt.Errorf("postgres_account_repo_collision_check_failed: %w", err)
		}
		if taken {
			return apperr.Conflict("Email is already registered")
		}

		updateQuery := fmt.Sprintf(`
			UPDATE %s
			SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7
			WHERE %s = $1`,
			schema.UserAccount.Table,
			schema.UserAccount.FirstName, schema.UserAccount.LastName, schema.UserAccount.Email,
			schema.UserAccount.Role, schema.UserAccount.IsActive, schema.UserAccount.UpdatedAt,
			schema.UserAccount.ID,
		)

		_, err := tx.Exec(context, updateQuery,
			account.ID,
			account.FirstName,
			account.LastName,
			account.Email,
			string(account.Role),
			account.IsActive,
			account.UpdatedAt,
		)
		return emailConflict(err)
	})
}

/*
UpdatePassword replaces the password hash of a single account.
*/
func (repository *PostgresRepository) UpdatePassword(context context.Context, id, passwordHash string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.Password, schema.UserAccount.UpdatedAt, schema.UserAccount.ID)

	return repository.execOne(context, query, id, passwordHash, at)
}

/*
SetResetTokenHash overwrites the stored reset digest, superseding earlier tokens.
*/
func (repository *PostgresRepository) SetResetTokenHash(context context.Context, id, digest string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.LastPasswordResetTokenHash, schema.UserAccount.ID)

	return repository.execOne(context, query, id, digest)
}

/*
ConsumeResetToken is a compare-and-clear on the stored digest. Only one of two
concurrent consumers of the same token can match the WHERE clause.
*/
func (repository *PostgresRepository) ConsumeResetToken(context context.Context, id, digest, passwordHash string, at time.Time) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3, %s = NULL, %s = $4, %s = $4
		WHERE %s = $1 AND %s = $2`,
		schema.UserAccount.Table,
		schema.UserAccount.Password, schema.UserAccount.LastPasswordResetTokenHash,
		schema.UserAccount.LastPasswordResetAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.LastPasswordResetTokenHash,
	)

	tag, err := repository.pool.Exec(context, query, id, digest, passwordHash, at)
	if err != nil {
		return false, fmt.Errorf("postgres_account_repo_consume_reset_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

/*
Delete removes an account row.
*/
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.UserAccount.Table, schema.UserAccount.ID)
	return repository.execOne(context, query, id)
}

// execOne runs a single-row statement and maps zero affected rows to NotFound.
func (repository *PostgresRepository) execOne(context context.Context, query string, args ...any) error {
	tag, err := repository.pool.Exec(context, query, args...)
	if err != nil {
		return dberr.Wrap(err, resourceAccount)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resourceAccount)
	}
	return nil
}

// emailConflict maps the unique email index violation to a client-safe Conflict.
func emailConflict(err error) error {
	if err == nil {
		return nil
	}
	if dberr.IsUniqueViolation(err) {
		conflict := apperr.Conflict("Email is already registered")
		conflict.Cause = err
		return conflict
	}
	return dberr.Wrap(err, resourceAccount)
}
