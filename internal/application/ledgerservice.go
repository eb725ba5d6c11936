package application

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ericfisherdev/codevault/internal/domain/model"
	"github.com/ericfisherdev/codevault/internal/domain/port/driven"
)

const (
	// DefaultExpiryDays is the issuance expiry when neither the request nor
	// the configuration supplies one.
	DefaultExpiryDays = 30

	// MaxExpiryDays bounds expiresInDays to a century, which keeps every
	// stored expiry within four-digit years.
	MaxExpiryDays = 36500

	// DefaultMaxUses is the issuance quota when the request omits one.
	DefaultMaxUses = 1

	// maxCodeAttempts bounds regeneration on code collisions. With 32^16
	// possible codes a second attempt is already vanishingly rare.
	maxCodeAttempts = 8
)

// IssueRequest describes a code to issue. Nil pointers take the defaults.
// NeverExpires stores no expiry at all; ExpiresInDays of 0 means the code
// expires at the moment of issuance.
type IssueRequest struct {
	AccountID     int64
	ExpiresInDays *int
	MaxUses       *int
	NeverExpires  bool
}

// LedgerService issues access codes and redeems them against the account
// they are bound to.
type LedgerService struct {
	accounts          driven.AccountStore
	codes             driven.AccessCodeStore
	publisher         driven.EventPublisher
	logger            *slog.Logger
	defaultExpiryDays int
	now               func() time.Time
	random            io.Reader
}

// NewLedgerService creates a LedgerService. defaultExpiryDays outside
// [0, MaxExpiryDays] falls back to DefaultExpiryDays. A nil publisher disables events.
func NewLedgerService(
	accounts driven.AccountStore,
	codes driven.AccessCodeStore,
	publisher driven.EventPublisher,
	logger *slog.Logger,
	defaultExpiryDays int,
) *LedgerService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if defaultExpiryDays < 0 || defaultExpiryDays > MaxExpiryDays {
		defaultExpiryDays = DefaultExpiryDays
	}
	return &LedgerService{
		accounts:          accounts,
		codes:             codes,
		publisher:         publisher,
		logger:            logger,
		defaultExpiryDays: defaultExpiryDays,
		now:               func() time.Time { return time.Now().UTC() },
		random:            rand.Reader,
	}
}

// Issue creates a new access code for an account whose enrollment is active.
// The returned code carries the plaintext code string.
func (s *LedgerService) Issue(ctx context.Context, req IssueRequest) (model.AccessCode, error) {
	if req.AccountID <= 0 {
		return model.AccessCode{}, newError(ErrValidation, "account id is required")
	}

	maxUses := DefaultMaxUses
	if req.MaxUses != nil {
		maxUses = *req.MaxUses
	}
	if maxUses < 1 {
		return model.AccessCode{}, newError(ErrValidation, "maxUses must be at least 1")
	}

	expiresInDays := s.defaultExpiryDays
	if req.ExpiresInDays != nil {
		expiresInDays = *req.ExpiresInDays
	}
	if expiresInDays < 0 {
		return model.AccessCode{}, newError(ErrValidation, "expiresInDays must not be negative")
	}
	if expiresInDays > MaxExpiryDays {
		return model.AccessCode{}, newError(ErrValidation, "expiresInDays must not exceed %d", MaxExpiryDays)
	}

	account, err := s.accounts.Get(ctx, req.AccountID)
	if errors.Is(err, driven.ErrAccountNotFound) {
		return model.AccessCode{}, newError(ErrNotFound, "account not found")
	}
	if err != nil {
		return model.AccessCode{}, fmt.Errorf("load account %d: %w", req.AccountID, err)
	}
	if account.EnrollmentStatus != model.EnrollmentActive {
		return model.AccessCode{}, newError(ErrPreconditionFailed, "account enrollment is not active")
	}

	now := s.now()
	var expiresAt *time.Time
	if !req.NeverExpires {
		t := now.AddDate(0, 0, expiresInDays)
		expiresAt = &t
	}

	created, err := s.createUnique(ctx, model.AccessCode{
		AccountID: account.ID,
		ExpiresAt: expiresAt,
		MaxUses:   maxUses,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, driven.ErrAccountNotFound) {
		// Deleted between the status check and the insert.
		return model.AccessCode{}, newError(ErrNotFound, "account not found")
	}
	if err != nil {
		return model.AccessCode{}, err
	}

	s.logger.Info("access code issued",
		"access_code_id", created.ID,
		"account_id", created.AccountID,
		"max_uses", created.MaxUses,
		"expires_at", created.ExpiresAt,
	)
	publishEvent(ctx, s.publisher, s.logger, driven.EventAccessCodeIssued, now, AccessCodeIssuedPayload{
		AccessCodeID: created.ID,
		AccountID:    created.AccountID,
		MaxUses:      created.MaxUses,
		ExpiresAt:    created.ExpiresAt,
	})

	return created, nil
}

// createUnique generates code strings until one is free. The pre-check keeps
// the common path to a single insert; the unique constraint still decides.
func (s *LedgerService) createUnique(ctx context.Context, code model.AccessCode) (model.AccessCode, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		candidate, err := GenerateCode(s.random)
		if err != nil {
			return model.AccessCode{}, err
		}

		exists, err := s.codes.CodeExists(ctx, candidate)
		if err != nil {
			return model.AccessCode{}, err
		}
		if exists {
			s.logger.Debug("access code collision, regenerating", "attempt", attempt)
			continue
		}

		code.Code = candidate
		created, err := s.codes.Create(ctx, code)
		if errors.Is(err, driven.ErrCodeTaken) {
			s.logger.Debug("access code collision on insert, regenerating", "attempt", attempt)
			continue
		}
		if err != nil {
			return model.AccessCode{}, err
		}
		return created, nil
	}

	return model.AccessCode{}, fmt.Errorf("generate unique access code: gave up after %d attempts", maxCodeAttempts)
}

// ListForAccount returns all codes bound to the account, newest first.
func (s *LedgerService) ListForAccount(ctx context.Context, accountID int64) ([]model.AccessCode, error) {
	if accountID <= 0 {
		return nil, newError(ErrValidation, "account id is required")
	}
	return s.codes.ListByAccount(ctx, accountID)
}

// Redeem consumes one use of the code and returns the bound account as it is
// at this moment, including every secret field. Matching is exact: no
// trimming or case folding. Expired or exhausted codes are never incremented
// and never reveal the account.
func (s *LedgerService) Redeem(ctx context.Context, code string) (model.Redemption, error) {
	if code == "" {
		return model.Redemption{}, newError(ErrValidation, "access code is required")
	}
	if !IsWellFormedCode(code) {
		return model.Redemption{}, newError(ErrNotFound, "invalid access code")
	}

	ac, err := s.codes.GetByCode(ctx, code)
	if errors.Is(err, driven.ErrAccessCodeNotFound) {
		return model.Redemption{}, newError(ErrNotFound, "invalid access code")
	}
	if err != nil {
		return model.Redemption{}, fmt.Errorf("load access code: %w", err)
	}

	now := s.now()
	if err := checkRedeemable(ac, now); err != nil {
		return model.Redemption{}, err
	}

	account, err := s.accounts.Get(ctx, ac.AccountID)
	if errors.Is(err, driven.ErrAccountNotFound) {
		return model.Redemption{}, newError(ErrNotFound, "account not found")
	}
	if err != nil {
		return model.Redemption{}, fmt.Errorf("load account %d: %w", ac.AccountID, err)
	}

	usedCount, err := s.codes.ConsumeUse(ctx, ac.ID, now)
	if errors.Is(err, driven.ErrAccessCodeUnavailable) {
		// Lost a race to another redemption (or the code vanished); report
		// whatever state the code is in now.
		return model.Redemption{}, s.unavailableReason(ctx, code, now)
	}
	if err != nil {
		return model.Redemption{}, fmt.Errorf("consume access code %d: %w", ac.ID, err)
	}

	s.logger.Info("access code redeemed",
		"access_code_id", ac.ID,
		"account_id", ac.AccountID,
		"used_count", usedCount,
		"max_uses", ac.MaxUses,
	)
	publishEvent(ctx, s.publisher, s.logger, driven.EventAccessCodeRedeemed, now, AccessCodeRedeemedPayload{
		AccessCodeID: ac.ID,
		AccountID:    ac.AccountID,
		UsedCount:    usedCount,
		MaxUses:      ac.MaxUses,
	})

	return model.Redemption{
		Account:   account,
		UsedCount: usedCount,
		MaxUses:   ac.MaxUses,
		ExpiresAt: ac.ExpiresAt,
	}, nil
}

func checkRedeemable(ac model.AccessCode, now time.Time) error {
	if ac.IsExpired(now) {
		return newError(ErrExpired, "access code has expired")
	}
	if ac.IsExhausted() {
		return newError(ErrQuotaExhausted, "access code has reached maximum uses")
	}
	return nil
}

func (s *LedgerService) unavailableReason(ctx context.Context, code string, now time.Time) error {
	ac, err := s.codes.GetByCode(ctx, code)
	if errors.Is(err, driven.ErrAccessCodeNotFound) {
		return newError(ErrNotFound, "invalid access code")
	}
	if err != nil {
		return fmt.Errorf("reload access code: %w", err)
	}
	if err := checkRedeemable(ac, now); err != nil {
		return err
	}
	return newError(ErrQuotaExhausted, "access code has reached maximum uses")
}
