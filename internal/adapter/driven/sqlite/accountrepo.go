package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/codevault/internal/domain/model"
	"github.com/ericfisherdev/codevault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

const accountColumns = `id, email, email_password, email_phone, github_username, github_password,
	github_name, github_recovery_codes, github_cookie, github_apply_id,
	copilot_pro_status, sale_status, created_at, updated_at`

// AccountRepo is the SQLite implementation of the AccountStore port interface.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Create inserts the account and returns the stored row. Zero timestamps are
// filled with the current time.
func (r *AccountRepo) Create(ctx context.Context, a model.Account) (model.Account, error) {
	const query = `INSERT INTO github_accounts (
		email, email_password, email_phone, github_username, github_password,
		github_name, github_recovery_codes, github_cookie, github_apply_id,
		copilot_pro_status, sale_status, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING ` + accountColumns

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := a.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	created, err := scanAccount(r.db.Writer.QueryRowContext(ctx, query,
		a.Email, a.EmailPassword, nullString(a.EmailPhone), a.GitHubUsername, a.GitHubPassword,
		nullString(a.GitHubName), nullString(a.RecoveryCodes), nullString(a.GitHubCookie), nullString(a.GitHubApplyID),
		string(a.EnrollmentStatus), string(a.SaleStatus), formatTime(createdAt), formatTime(updatedAt),
	))
	if err != nil {
		return model.Account{}, fmt.Errorf("create account: %w", err)
	}

	return created, nil
}

// Get retrieves an account by id.
func (r *AccountRepo) Get(ctx context.Context, id int64) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM github_accounts WHERE id = ?`

	a, err := scanAccount(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("get account %d: %w", id, driven.ErrAccountNotFound)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}

	return a, nil
}

// List returns all accounts ordered newest-created first.
func (r *AccountRepo) List(ctx context.Context) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM github_accounts ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}

	return accounts, nil
}

// Update reads the stored account, merges the patch and writes every column
// back inside one transaction on the single writer connection, so concurrent
// partial updates cannot interleave.
func (r *AccountRepo) Update(ctx context.Context, id int64, patch model.AccountPatch, updatedAt time.Time) (model.Account, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Account{}, fmt.Errorf("begin update account %d: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	selectQuery := `SELECT ` + accountColumns + ` FROM github_accounts WHERE id = ?`
	current, err := scanAccount(tx.QueryRowContext(ctx, selectQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("update account %d: %w", id, driven.ErrAccountNotFound)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("load account %d: %w", id, err)
	}

	merged := patch.Apply(current)
	merged.UpdatedAt = updatedAt.UTC()

	const updateQuery = `UPDATE github_accounts SET
		email = ?, email_password = ?, email_phone = ?, github_username = ?, github_password = ?,
		github_name = ?, github_recovery_codes = ?, github_cookie = ?, github_apply_id = ?,
		copilot_pro_status = ?, sale_status = ?, updated_at = ?
	WHERE id = ?`

	_, err = tx.ExecContext(ctx, updateQuery,
		merged.Email, merged.EmailPassword, nullString(merged.EmailPhone), merged.GitHubUsername, merged.GitHubPassword,
		nullString(merged.GitHubName), nullString(merged.RecoveryCodes), nullString(merged.GitHubCookie), nullString(merged.GitHubApplyID),
		string(merged.EnrollmentStatus), string(merged.SaleStatus), formatTime(merged.UpdatedAt),
		id,
	)
	if err != nil {
		return model.Account{}, fmt.Errorf("update account %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Account{}, fmt.Errorf("commit update account %d: %w", id, err)
	}

	return merged, nil
}

// Delete removes the account. Access codes bound to it are removed by the
// ON DELETE CASCADE foreign key. Deleting a missing id reports false.
func (r *AccountRepo) Delete(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM github_accounts WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete account %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}

	return rows > 0, nil
}

func scanAccount(s scanner) (model.Account, error) {
	var a model.Account
	var phone, name, recovery, cookie, applyID sql.NullString
	var enrollment, sale, createdAt, updatedAt string

	err := s.Scan(
		&a.ID, &a.Email, &a.EmailPassword, &phone, &a.GitHubUsername, &a.GitHubPassword,
		&name, &recovery, &cookie, &applyID,
		&enrollment, &sale, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Account{}, err
	}

	a.EmailPhone = phone.String
	a.GitHubName = name.String
	a.RecoveryCodes = recovery.String
	a.GitHubCookie = cookie.String
	a.GitHubApplyID = applyID.String
	a.EnrollmentStatus = model.EnrollmentStatus(enrollment)
	a.SaleStatus = model.SaleStatus(sale)

	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Account{}, fmt.Errorf("parse created_at: %w", err)
	}
	a.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return model.Account{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return a, nil
}
