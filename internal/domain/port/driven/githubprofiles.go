package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/codevault/internal/domain/model"
)

// ErrGitHubUserNotFound is returned when GitHub has no user with the login.
var ErrGitHubUserNotFound = errors.New("github user not found")

// GitHubProfiles defines the driven port for reading public GitHub profiles.
type GitHubProfiles interface {
	LookupProfile(ctx context.Context, login string) (model.GitHubProfile, error)
}
