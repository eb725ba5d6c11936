package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/codevault/internal/domain/model"
)

// Sentinel errors returned by AccessCodeStore implementations.
var (
	// ErrAccessCodeNotFound indicates no access code matches the lookup.
	ErrAccessCodeNotFound = errors.New("access code not found")

	// ErrCodeTaken indicates the code string is already used by another access code.
	ErrCodeTaken = errors.New("access code already exists")

	// ErrAccessCodeUnavailable indicates a conditional use could not be
	// consumed because the code is exhausted, expired or gone.
	ErrAccessCodeUnavailable = errors.New("access code unavailable")
)

// AccessCodeStore defines the driven port for access code persistence.
type AccessCodeStore interface {
	// Create inserts a new access code. Returns ErrCodeTaken on a code string collision.
	Create(ctx context.Context, code model.AccessCode) (model.AccessCode, error)
	// CodeExists reports whether the exact code string is already stored.
	CodeExists(ctx context.Context, code string) (bool, error)
	// GetByCode looks up an access code by exact, case-sensitive match.
	// Returns ErrAccessCodeNotFound if absent.
	GetByCode(ctx context.Context, code string) (model.AccessCode, error)
	// ListByAccount returns all codes bound to the account, newest first.
	ListByAccount(ctx context.Context, accountID int64) ([]model.AccessCode, error)
	// ConsumeUse increments used_count by one only if the code still has a
	// remaining use and is not expired at now, as a single conditional write.
	// It returns the post-increment used_count, or ErrAccessCodeUnavailable
	// when the condition did not hold.
	ConsumeUse(ctx context.Context, id int64, now time.Time) (int, error)
}
