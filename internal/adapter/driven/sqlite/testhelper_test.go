package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codevault/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database with all
// migrations applied. The name comes from t.Name() so parallel tests stay isolated.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it cannot be read as DSN query parameters.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		safeName,
	)

	db, err := openDB(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if _, err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

var baseTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func makeAccount(email string) model.Account {
	return model.NewAccount(model.Account{
		Email:          email,
		EmailPassword:  "mail-secret",
		GitHubUsername: "gh-" + email,
		GitHubPassword: "gh-secret",
		CreatedAt:      baseTime,
	})
}

// insertAccount stores an account created offset after baseTime.
func insertAccount(t *testing.T, repo *AccountRepo, email string, offset time.Duration) model.Account {
	t.Helper()
	a := makeAccount(email)
	a.CreatedAt = baseTime.Add(offset)
	created, err := repo.Create(context.Background(), a)
	require.NoError(t, err)
	return created
}
