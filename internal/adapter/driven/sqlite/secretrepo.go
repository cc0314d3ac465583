package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.SecretBackend = (*SecretRepo)(nil)
	_ driven.SecretLister  = (*SecretRepo)(nil)
)

// SecretRepo is the SQLite implementation of the SecretBackend port. It stores
// values verbatim; the vault layer hands it envelopes that are already encrypted.
type SecretRepo struct {
	db *DB
}

// NewSecretRepo creates a new SecretRepo.
func NewSecretRepo(db *DB) *SecretRepo {
	return &SecretRepo{db: db}
}

// Get returns the value for (service, account), or driven.ErrSecretNotFound.
func (r *SecretRepo) Get(ctx context.Context, service, account string) (string, error) {
	const query = `SELECT value FROM secrets WHERE service = ? AND account = ?`
	var value string
	err := r.db.Reader.QueryRowContext(ctx, query, service, account).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", driven.ErrSecretNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get secret %q: %w", account, err)
	}
	return value, nil
}

// Set stores or replaces the value for (service, account).
func (r *SecretRepo) Set(ctx context.Context, service, account, value string) error {
	const query = `INSERT INTO secrets (service, account, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (service, account) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.Writer.ExecContext(ctx, query, service, account, value); err != nil {
		return fmt.Errorf("set secret %q: %w", account, err)
	}
	return nil
}

// Delete removes (service, account), or returns driven.ErrSecretNotFound.
func (r *SecretRepo) Delete(ctx context.Context, service, account string) error {
	const query = `DELETE FROM secrets WHERE service = ? AND account = ?`
	res, err := r.db.Writer.ExecContext(ctx, query, service, account)
	if err != nil {
		return fmt.Errorf("delete secret %q: %w", account, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete secret %q: rows affected: %w", account, err)
	}
	if n == 0 {
		return driven.ErrSecretNotFound
	}
	return nil
}

// Accounts lists the entry names stored under service, sorted.
func (r *SecretRepo) Accounts(ctx context.Context, service string) ([]string, error) {
	const query = `SELECT account FROM secrets WHERE service = ? ORDER BY account`
	rows, err := r.db.Reader.QueryContext(ctx, query, service)
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, fmt.Errorf("scan secret: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate secrets: %w", err)
	}
	return accounts, nil
}
