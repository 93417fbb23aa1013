package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitstack/gymchat/internal/domain"
	"github.com/fitstack/gymchat/internal/repository"
	"github.com/fitstack/gymchat/internal/testutil"
)

func TestConversationCreate_DefaultTitle(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "alice")
	repo := repository.NewConversationRepository(db)

	conv, err := repo.Create(ctx, user.ID, "")
	require.NoError(t, err)

	assert.Greater(t, conv.ID, int64(0))
	assert.Contains(t, conv.Title, "Conversation ")
	assert.Equal(t, conv.CreatedAt, conv.UpdatedAt)
}

func TestConversationCreate_ExplicitTitle(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "alice")
	repo := repository.NewConversationRepository(db)

	conv, err := repo.Create(ctx, user.ID, "Leg day questions")
	require.NoError(t, err)
	assert.Equal(t, "Leg day questions", conv.Title)
}

func TestConversationList_OrderAndCounts(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "alice")
	repo := repository.NewConversationRepository(db)

	first, err := repo.Create(ctx, user.ID, "first")
	require.NoError(t, err)
	second, err := repo.Create(ctx, user.ID, "second")
	require.NoError(t, err)

	// Saving into the first conversation makes it the most recent
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.SaveMessage(ctx, user.ID, first.ID, "hi", "hello", nil))
	require.NoError(t, repo.SaveMessage(ctx, user.ID, first.ID, "more", "sure", nil))

	summaries, err := repo.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, first.ID, summaries[0].ID)
	assert.Equal(t, 2, summaries[0].MessageCount)
	assert.Equal(t, second.ID, summaries[1].ID)
	assert.Equal(t, 0, summaries[1].MessageCount)
}

func TestSaveMessage_BumpsUpdatedAt(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "alice")
	repo := repository.NewConversationRepository(db)

	conv, err := repo.Create(ctx, user.ID, "")
	require.NoError(t, err)
	before := conv.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.SaveMessage(ctx, user.ID, conv.ID, "hi", "hello", []string{"[1] - Doc"}))

	after, err := repo.Get(ctx, user.ID, conv.ID)
	require.NoError(t, err)
	assert.False(t, after.UpdatedAt.Before(before))
	assert.True(t, after.UpdatedAt.After(before))
}

func TestSaveExchange_ZeroIDCreatesConversationWithMessage(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "alice")
	repo := repository.NewConversationRepository(db)

	id, err := repo.SaveExchange(ctx, user.ID, 0, "hi", "hello", []string{"[1] - Doc"})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	summaries, err := repo.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, id, summaries[0].ID)
	assert.Equal(t, 1, summaries[0].MessageCount, "the conversation is born with its first message")
}

func TestSaveExchange_ForeignConversationLeavesNothing(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	owner := testutil.NewTestUser(t, db, "alice")
	intruder := testutil.NewTestUser(t, db, "mallory")
	repo := repository.NewConversationRepository(db)

	conv, err := repo.Create(ctx, owner.ID, "mine")
	require.NoError(t, err)

	_, err = repo.SaveExchange(ctx, intruder.ID, conv.ID, "hi", "hello", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := repo.CountMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	summaries, err := repo.List(ctx, intruder.ID)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestSaveMessage_ZeroIDIsNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, db, "alice")
	repo := repository.NewConversationRepository(db)

	err := repo.SaveMessage(context.Background(), user.ID, 0, "hi", "hello", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetHistory_ChronologicalWithCitations(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "alice")
	repo := repository.NewConversationRepository(db)

	conv, err := repo.Create(ctx, user.ID, "")
	require.NoError(t, err)

	require.NoError(t, repo.SaveMessage(ctx, user.ID, conv.ID, "first q", "first a", []string{"[1] - Program 3"}))
	require.NoError(t, repo.SaveMessage(ctx, user.ID, conv.ID, "second q", "second a", nil))

	messages, err := repo.GetHistory(ctx, user.ID, conv.ID, 50)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "first q", messages[0].UserMessage)
	assert.Equal(t, []string{"[1] - Program 3"}, messages[0].Citations)
	assert.Equal(t, "second q", messages[1].UserMessage)
	assert.Equal(t, []string{}, messages[1].Citations)
}

func TestGetHistory_LimitKeepsNewest(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "alice")
	repo := repository.NewConversationRepository(db)

	conv, err := repo.Create(ctx, user.ID, "")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.SaveMessage(ctx, user.ID, conv.ID,
			"q"+string(rune('0'+i)), "a", nil))
	}

	messages, err := repo.GetHistory(ctx, user.ID, conv.ID, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "q2", messages[0].UserMessage)
	assert.Equal(t, "q4", messages[2].UserMessage)
}

func TestGetHistory_DefaultsToMostRecentConversation(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "alice")
	repo := repository.NewConversationRepository(db)

	older, err := repo.Create(ctx, user.ID, "older")
	require.NoError(t, err)
	newer, err := repo.Create(ctx, user.ID, "newer")
	require.NoError(t, err)

	require.NoError(t, repo.SaveMessage(ctx, user.ID, older.ID, "old q", "old a", nil))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.SaveMessage(ctx, user.ID, newer.ID, "new q", "new a", nil))

	messages, err := repo.GetHistory(ctx, user.ID, 0, 50)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "new q", messages[0].UserMessage)
}

func TestGetHistory_NoConversationsIsEmpty(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.NewTestUser(t, db, "alice")

	messages, err := repository.NewConversationRepository(db).GetHistory(context.Background(), user.ID, 0, 50)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

// Ownership is a hard boundary: another user's conversation behaves exactly
// like a missing one, for reads and writes alike.
func TestOwnershipIsolation(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	alice := testutil.NewTestUser(t, db, "alice")
	bob := testutil.NewTestUser(t, db, "bob")
	repo := repository.NewConversationRepository(db)

	conv, err := repo.Create(ctx, alice.ID, "alice's")
	require.NoError(t, err)
	require.NoError(t, repo.SaveMessage(ctx, alice.ID, conv.ID, "secret q", "secret a", nil))

	_, err = repo.GetHistory(ctx, bob.ID, conv.ID, 50)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.SaveMessage(ctx, bob.ID, conv.ID, "intruder", "reply", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.UpdateTitle(ctx, bob.ID, conv.ID, "hijacked")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.Delete(ctx, bob.ID, conv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Alice's data is untouched
	messages, err := repo.GetHistory(ctx, alice.ID, conv.ID, 50)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "secret q", messages[0].UserMessage)
	conversation, err := repo.Get(ctx, alice.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice's", conversation.Title)
}

func TestDeleteConversation_CascadesToMessages(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "alice")
	repo := repository.NewConversationRepository(db)

	conv, err := repo.Create(ctx, user.ID, "")
	require.NoError(t, err)
	require.NoError(t, repo.SaveMessage(ctx, user.ID, conv.ID, "q1", "a1", nil))
	require.NoError(t, repo.SaveMessage(ctx, user.ID, conv.ID, "q2", "a2", nil))

	require.NoError(t, repo.Delete(ctx, user.ID, conv.ID))

	_, err = repo.GetHistory(ctx, user.ID, conv.ID, 50)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := repo.CountMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "no orphaned messages may survive the delete")
}

func TestUpdateTitle(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, db, "alice")
	repo := repository.NewConversationRepository(db)

	conv, err := repo.Create(ctx, user.ID, "old title")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateTitle(ctx, user.ID, conv.ID, "new title"))

	updated, err := repo.Get(ctx, user.ID, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
}

func TestClearAllMessages(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	alice := testutil.NewTestUser(t, db, "alice")
	bob := testutil.NewTestUser(t, db, "bob")
	repo := repository.NewConversationRepository(db)

	aliceConv, err := repo.Create(ctx, alice.ID, "")
	require.NoError(t, err)
	bobConv, err := repo.Create(ctx, bob.ID, "")
	require.NoError(t, err)
	require.NoError(t, repo.SaveMessage(ctx, alice.ID, aliceConv.ID, "q", "a", nil))
	require.NoError(t, repo.SaveMessage(ctx, bob.ID, bobConv.ID, "q", "a", nil))

	require.NoError(t, repo.ClearAllMessages(ctx))

	for _, tc := range []struct {
		userID string
		convID int64
	}{{alice.ID, aliceConv.ID}, {bob.ID, bobConv.ID}} {
		messages, err := repo.GetHistory(ctx, tc.userID, tc.convID, 50)
		require.NoError(t, err)
		assert.Empty(t, messages)
	}
}
