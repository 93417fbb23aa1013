package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitstack/gymchat/internal/domain"
	"github.com/fitstack/gymchat/internal/repository"
)

// NewTestDB opens a fresh sqlite database in a per-test temp directory with
// the full schema applied. The connection is closed when the test finishes.
func NewTestDB(t *testing.T) *repository.DB {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "gymchat_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

// NewTestUser inserts a user and returns it
func NewTestUser(t *testing.T, db *repository.DB, username string) *domain.User {
	t.Helper()

	user := &domain.User{Username: username}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), user))
	return user
}
