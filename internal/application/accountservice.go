package application

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ericfisherdev/codevault/internal/domain/model"
	"github.com/ericfisherdev/codevault/internal/domain/port/driven"
)

// AccountService owns account records: validation, the enrollment activation
// event and GitHub profile sync. It depends only on port interfaces.
type AccountService struct {
	store     driven.AccountStore
	publisher driven.EventPublisher
	profiles  driven.GitHubProfiles
	logger    *slog.Logger
	policy    *bluemonday.Policy
	now       func() time.Time
}

// NewAccountService creates an AccountService. A nil publisher disables events.
func NewAccountService(store driven.AccountStore, publisher driven.EventPublisher, logger *slog.Logger) *AccountService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &AccountService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		policy:    bluemonday.StrictPolicy(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithGitHubProfiles enables SyncGitHubProfile and returns s.
func (s *AccountService) WithGitHubProfiles(profiles driven.GitHubProfiles) *AccountService {
	s.profiles = profiles
	return s
}

// Create validates and stores a new account. Blank statuses default to
// none/available.
func (s *AccountService) Create(ctx context.Context, account model.Account) (model.Account, error) {
	account = model.NewAccount(account)
	account.ID = 0

	if err := account.Validate(); err != nil {
		return model.Account{}, newError(ErrValidation, "%s", err.Error())
	}

	now := s.now()
	account.CreatedAt = now
	account.UpdatedAt = now

	created, err := s.store.Create(ctx, account)
	if err != nil {
		return model.Account{}, err
	}

	s.logger.Info("account created", "account_id", created.ID, "copilot_pro_status", created.EnrollmentStatus)

	if created.EnrollmentStatus == model.EnrollmentActive {
		publishEvent(ctx, s.publisher, s.logger, driven.EventAccountEnrollmentActivated, now,
			AccountEnrollmentActivatedPayload{AccountID: created.ID})
	}

	return created, nil
}

// Get returns the account with the given id.
func (s *AccountService) Get(ctx context.Context, id int64) (model.Account, error) {
	account, err := s.store.Get(ctx, id)
	if errors.Is(err, driven.ErrAccountNotFound) {
		return model.Account{}, newError(ErrNotFound, "account not found")
	}
	if err != nil {
		return model.Account{}, err
	}
	return account, nil
}

// List returns all accounts, newest first.
func (s *AccountService) List(ctx context.Context) ([]model.Account, error) {
	return s.store.List(ctx)
}

// Update applies a partial update. Fields absent from patch keep their stored
// values. Emits account.enrollment_activated when the update moves the
// account into the active state. An empty patch writes nothing and returns
// the stored account.
func (s *AccountService) Update(ctx context.Context, id int64, patch model.AccountPatch) (model.Account, error) {
	if err := patch.Validate(); err != nil {
		return model.Account{}, newError(ErrValidation, "%s", err.Error())
	}
	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}

	activating := patch.EnrollmentStatus != nil && *patch.EnrollmentStatus == model.EnrollmentActive
	wasActive := false
	if activating {
		before, err := s.Get(ctx, id)
		if err != nil {
			return model.Account{}, err
		}
		wasActive = before.EnrollmentStatus == model.EnrollmentActive
	}

	now := s.now()
	updated, err := s.store.Update(ctx, id, patch, now)
	if errors.Is(err, driven.ErrAccountNotFound) {
		return model.Account{}, newError(ErrNotFound, "account not found")
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("update account %d: %w", id, err)
	}

	if activating && !wasActive {
		s.logger.Info("account enrollment activated", "account_id", id)
		publishEvent(ctx, s.publisher, s.logger, driven.EventAccountEnrollmentActivated, now,
			AccountEnrollmentActivatedPayload{AccountID: id})
	}

	return updated, nil
}

// Delete removes the account and reports whether anything was removed.
// Repeated deletes of the same id report false without error.
func (s *AccountService) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		s.logger.Info("account deleted", "account_id", id)
	}
	return removed, nil
}

// SyncGitHubProfile looks up the account's GitHub login and copies the public
// display name into github_name. An empty public name leaves the account
// unchanged.
func (s *AccountService) SyncGitHubProfile(ctx context.Context, id int64) (model.Account, model.GitHubProfile, error) {
	if s.profiles == nil {
		return model.Account{}, model.GitHubProfile{}, newError(ErrPreconditionFailed, "github lookup is not configured")
	}

	account, err := s.Get(ctx, id)
	if err != nil {
		return model.Account{}, model.GitHubProfile{}, err
	}

	profile, err := s.profiles.LookupProfile(ctx, account.GitHubUsername)
	if errors.Is(err, driven.ErrGitHubUserNotFound) {
		return model.Account{}, model.GitHubProfile{}, newError(ErrNotFound, "github user not found")
	}
	if err != nil {
		return model.Account{}, model.GitHubProfile{}, fmt.Errorf("lookup github profile for account %d: %w", id, err)
	}

	name := s.plainText(profile.Name)
	if name == "" || name == account.GitHubName {
		return account, profile, nil
	}

	updated, err := s.store.Update(ctx, id, model.AccountPatch{GitHubName: &name}, s.now())
	if errors.Is(err, driven.ErrAccountNotFound) {
		return model.Account{}, model.GitHubProfile{}, newError(ErrNotFound, "account not found")
	}
	if err != nil {
		return model.Account{}, model.GitHubProfile{}, fmt.Errorf("update account %d: %w", id, err)
	}

	s.logger.Info("github profile synced", "account_id", id)
	return updated, profile, nil
}

// plainText strips markup from text fetched from GitHub. The policy escapes
// what it keeps, so entities are decoded back before storing.
func (s *AccountService) plainText(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}
