// Package repository provides PostgreSQL persistence for accounts.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/GophAccounts/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrAccountNotFound is returned when no live account has the requested ID.
	ErrAccountNotFound = errors.New("account not found")
	// ErrLoginTaken is returned when another live account already uses the login.
	ErrLoginTaken = errors.New("login already taken")
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

const selectAccount = `SELECT id, login, type, password, tags FROM accounts`

// PostgresAccountRepository stores accounts in a PostgreSQL database.
type PostgresAccountRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAccountRepository creates a repository backed by db.
func NewPostgresAccountRepository(db *sql.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

// LoginExists reports whether a live account already uses login.
func (r *PostgresAccountRepository) LoginExists(ctx context.Context, login string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE login = $1 AND deleted = false)`,
		login,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("LoginExists: %w", err)
	}
	return exists, nil
}

// CreateAccount inserts a new account. The ID must already be set.
func (r *PostgresAccountRepository) CreateAccount(ctx context.Context, a models.Account) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO accounts (id, login, type, password, tags)
		VALUES ($1, $2, $3, $4, $5)
	`, a.ID, a.Login, string(a.Type), a.Password, pq.Array(tagTexts(a.Tags)))
	if err != nil {
		return fmt.Errorf("CreateAccount: %w", mapWriteError(err))
	}
	return nil
}

// GetAccount fetches a live account by ID.
func (r *PostgresAccountRepository) GetAccount(ctx context.Context, id string) (models.Account, error) {
	row := r.DB.QueryRowContext(ctx, selectAccount+` WHERE id = $1 AND deleted = false`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("GetAccount: %w", err)
	}
	return a, nil
}

// ListAccounts returns all live accounts ordered by login.
func (r *PostgresAccountRepository) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := r.DB.QueryContext(ctx, selectAccount+` WHERE deleted = false ORDER BY login, id`)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount replaces every stored field of the account with the same ID.
// Concurrent writers are not reconciled: the last update wins.
func (r *PostgresAccountRepository) UpdateAccount(ctx context.Context, a models.Account) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE accounts
		   SET login = $2, type = $3, password = $4, tags = $5, updated_at = now()
		 WHERE id = $1 AND deleted = false
	`, a.ID, a.Login, string(a.Type), a.Password, pq.Array(tagTexts(a.Tags)))
	if err != nil {
		return fmt.Errorf("UpdateAccount: %w", mapWriteError(err))
	}
	return requireAffected(res)
}

// DeleteAccount marks the account as deleted. Rows are purged later by the cleaner.
func (r *PostgresAccountRepository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE accounts SET deleted = true, deleted_at = now()
		 WHERE id = $1 AND deleted = false
	`, id)
	if err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (models.Account, error) {
	var (
		a        models.Account
		typ      string
		password sql.NullString
		tags     []string
	)
	if err := row.Scan(&a.ID, &a.Login, &typ, &password, pq.Array(&tags)); err != nil {
		return models.Account{}, err
	}

	t, err := models.ParseAccountType(typ)
	if err != nil {
		return models.Account{}, fmt.Errorf("account %s: %w", a.ID, err)
	}
	a.Type = t

	if password.Valid {
		p := password.String
		a.Password = &p
	}

	a.Tags = make([]models.TagItem, 0, len(tags))
	for _, text := range tags {
		a.Tags = append(a.Tags, models.TagItem{Text: text})
	}
	return a, nil
}

// tagTexts never returns nil so an empty tag list is stored as '{}', not NULL.
func tagTexts(tags []models.TagItem) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Text)
	}
	return out
}

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrLoginTaken
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}
