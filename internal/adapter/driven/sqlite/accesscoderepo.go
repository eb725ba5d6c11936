package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/codevault/internal/domain/model"
	"github.com/ericfisherdev/codevault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccessCodeStore = (*AccessCodeRepo)(nil)

const accessCodeColumns = `id, code, account_id, expires_at, used_count, max_uses, created_at, updated_at`

// AccessCodeRepo is the SQLite implementation of the AccessCodeStore port interface.
type AccessCodeRepo struct {
	db *DB
}

// NewAccessCodeRepo creates a new AccessCodeRepo backed by the given DB.
func NewAccessCodeRepo(db *DB) *AccessCodeRepo {
	return &AccessCodeRepo{db: db}
}

// maxStoredYear is the last year the fixed-width time layout can hold. Expiry
// comparisons in SQL rely on that width.
const maxStoredYear = 9999

// Create inserts a new access code with used_count 0. A duplicate code string
// yields driven.ErrCodeTaken. An expiry past maxStoredYear is rejected before
// anything is written.
func (r *AccessCodeRepo) Create(ctx context.Context, c model.AccessCode) (model.AccessCode, error) {
	const query = `INSERT INTO access_codes (code, account_id, expires_at, used_count, max_uses, created_at, updated_at)
	VALUES (?, ?, ?, 0, ?, ?, ?)
	RETURNING ` + accessCodeColumns

	if c.ExpiresAt != nil && c.ExpiresAt.UTC().Year() > maxStoredYear {
		return model.AccessCode{}, fmt.Errorf("create access code: expires_at %s is beyond year %d",
			c.ExpiresAt.UTC().Format(time.RFC3339), maxStoredYear)
	}

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	created, err := scanAccessCode(r.db.Writer.QueryRowContext(ctx, query,
		c.Code, c.AccountID, nullTime(c.ExpiresAt), c.MaxUses, formatTime(createdAt), formatTime(createdAt),
	))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return model.AccessCode{}, fmt.Errorf("create access code: %w", driven.ErrCodeTaken)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint") {
			return model.AccessCode{}, fmt.Errorf("create access code for account %d: %w", c.AccountID, driven.ErrAccountNotFound)
		}
		return model.AccessCode{}, fmt.Errorf("create access code: %w", err)
	}

	return created, nil
}

// CodeExists reports whether the exact code string is already stored.
func (r *AccessCodeRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM access_codes WHERE code = ?)`

	var exists bool
	if err := r.db.Reader.QueryRowContext(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("check access code: %w", err)
	}

	return exists, nil
}

// GetByCode looks up an access code by exact match. SQLite's default BINARY
// collation keeps the comparison case-sensitive.
func (r *AccessCodeRepo) GetByCode(ctx context.Context, code string) (model.AccessCode, error) {
	query := `SELECT ` + accessCodeColumns + ` FROM access_codes WHERE code = ?`

	c, err := scanAccessCode(r.db.Reader.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return model.AccessCode{}, fmt.Errorf("get access code: %w", driven.ErrAccessCodeNotFound)
	}
	if err != nil {
		return model.AccessCode{}, fmt.Errorf("get access code: %w", err)
	}

	return c, nil
}

// ListByAccount returns all codes bound to accountID, newest first.
func (r *AccessCodeRepo) ListByAccount(ctx context.Context, accountID int64) ([]model.AccessCode, error) {
	query := `SELECT ` + accessCodeColumns + ` FROM access_codes WHERE account_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list access codes for account %d: %w", accountID, err)
	}
	defer rows.Close()

	codes := []model.AccessCode{}
	for rows.Next() {
		c, err := scanAccessCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan access code: %w", err)
		}
		codes = append(codes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access codes: %w", err)
	}

	return codes, nil
}

// ConsumeUse is the only write path for used_count. The quota and expiry
// checks live in the WHERE clause so the check and the increment are one
// statement; a no-op update means the use was not available.
func (r *AccessCodeRepo) ConsumeUse(ctx context.Context, id int64, now time.Time) (int, error) {
	const query = `UPDATE access_codes
	SET used_count = used_count + 1, updated_at = ?
	WHERE id = ?
	  AND used_count < max_uses
	  AND (expires_at IS NULL OR expires_at >= ?)
	RETURNING used_count`

	stamp := formatTime(now)

	var usedCount int
	err := r.db.Writer.QueryRowContext(ctx, query, stamp, id, stamp).Scan(&usedCount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("consume access code %d: %w", id, driven.ErrAccessCodeUnavailable)
	}
	if err != nil {
		return 0, fmt.Errorf("consume access code %d: %w", id, err)
	}

	return usedCount, nil
}

func scanAccessCode(s scanner) (model.AccessCode, error) {
	var c model.AccessCode
	var expiresAt sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&c.ID, &c.Code, &c.AccountID, &expiresAt, &c.UsedCount, &c.MaxUses, &createdAt, &updatedAt)
	if err != nil {
		return model.AccessCode{}, err
	}

	if expiresAt.Valid {
		t, err := parseTime(expiresAt.String)
		if err != nil {
			return model.AccessCode{}, fmt.Errorf("parse expires_at: %w", err)
		}
		c.ExpiresAt = &t
	}

	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.AccessCode{}, fmt.Errorf("parse created_at: %w", err)
	}
	c.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return model.AccessCode{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return c, nil
}
