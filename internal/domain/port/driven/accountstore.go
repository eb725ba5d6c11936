package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/codevault/internal/domain/model"
)

// ErrAccountNotFound indicates the requested account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// AccountStore defines the driven port for account persistence.
// Get and Update return ErrAccountNotFound if no account has the given id.
type AccountStore interface {
	// Create inserts a new account and returns it with its assigned id.
	Create(ctx context.Context, account model.Account) (model.Account, error)
	Get(ctx context.Context, id int64) (model.Account, error)
	// List returns every account, newest first.
	List(ctx context.Context) ([]model.Account, error)
	// Update merges the supplied patch fields into the stored account as one
	// atomic step and stamps updatedAt. It returns the merged account.
	Update(ctx context.Context, id int64, patch model.AccountPatch, updatedAt time.Time) (model.Account, error)
	// Delete removes the account and reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
}
