package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitstack/gymchat/internal/domain"
	"github.com/fitstack/gymchat/internal/repository"
	"github.com/fitstack/gymchat/internal/testutil"
)

func TestUserCreateAndLookup(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := repository.NewUserRepository(db)

	user := &domain.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.False(t, byID.IsGuest)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, user.ID, byName.ID)
}

func TestUserLookup_MissingIsNil(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewUserRepository(db)

	user, err := repo.GetByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := repository.NewUserRepository(db)

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "alice"}))
	err := repo.Create(ctx, &domain.User{Username: "alice"})
	assert.Error(t, err)
}

func TestUserUpdatePassword(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := repository.NewUserRepository(db)

	user := &domain.User{Username: "alice", PasswordHash: "old"}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new"))

	updated, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", updated.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "missing", "x"), domain.ErrNotFound)
}
