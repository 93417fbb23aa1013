package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fitstack/gymchat/internal/domain"
)

// ConversationRepository owns the conversations and messages tables and
// enforces the ownership and cascade rules. Every operation that takes a
// user id re-verifies ownership and reports domain.ErrNotFound when the
// conversation exists under a different user.
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts a conversation for the user. An empty title defaults to a
// timestamped placeholder.
func (r *ConversationRepository) Create(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	now := time.Now()
	if title == "" {
		title = "Conversation " + now.Format("2006-01-02 15:04")
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (user_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, userID, title, now.UTC(), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &domain.Conversation{
		ID:        id,
		UserID:    userID,
		Title:     title,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// List returns the user's conversations with message counts, most recently
// updated first.
func (r *ConversationRepository) List(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.created_at, c.updated_at, COUNT(m.id)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.user_id = ?
		GROUP BY c.id
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []domain.ConversationSummary{}
	for rows.Next() {
		var s domain.ConversationSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt, &s.UpdatedAt, &s.MessageCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Get retrieves a conversation after verifying ownership
func (r *ConversationRepository) Get(ctx context.Context, userID string, conversationID int64) (*domain.Conversation, error) {
	conv := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations WHERE id = ? AND user_id = ?
	`, conversationID, userID).Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// GetHistory returns a conversation's messages oldest first. A zero
// conversation id selects the user's most recently updated conversation;
// a user with no conversations gets an empty history. A non-zero id that is
// not owned by the user fails with domain.ErrNotFound.
func (r *ConversationRepository) GetHistory(ctx context.Context, userID string, conversationID int64, limit int) ([]domain.Message, error) {
	if conversationID == 0 {
		err := r.db.QueryRowContext(ctx, `
			SELECT id FROM conversations WHERE user_id = ?
			ORDER BY updated_at DESC LIMIT 1
		`, userID).Scan(&conversationID)
		if errors.Is(err, sql.ErrNoRows) {
			return []domain.Message{}, nil
		}
		if err != nil {
			return nil, err
		}
	} else {
		if _, err := r.Get(ctx, userID, conversationID); err != nil {
			return nil, err
		}
	}

	if limit <= 0 {
		limit = 50
	}

	// Newest rows by insertion order, then reversed to chronological.
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, user_message, bot_response, citations, timestamp
		FROM messages WHERE conversation_id = ?
		ORDER BY id DESC LIMIT ?
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// SaveMessage verifies ownership, inserts the exchange, and bumps the
// conversation's updated_at, all within one transaction so a reader never
// sees the new message without the touched timestamp.
func (r *ConversationRepository) SaveMessage(ctx context.Context, userID string, conversationID int64, userMessage, botResponse string, citations []string) error {
	if conversationID == 0 {
		return domain.ErrNotFound
	}
	_, err := r.SaveExchange(ctx, userID, conversationID, userMessage, botResponse, citations)
	return err
}

// SaveExchange persists one exchange, creating the conversation in the same
// transaction when the id is zero. A failed save therefore never leaves an
// empty conversation behind. Returns the conversation id.
func (r *ConversationRepository) SaveExchange(ctx context.Context, userID string, conversationID int64, userMessage, botResponse string, citations []string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	if conversationID == 0 {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO conversations (user_id, title, created_at, updated_at)
			VALUES (?, ?, ?, ?)
		`, userID, "Conversation "+now.Format("2006-01-02 15:04"), now.UTC(), now.UTC())
		if err != nil {
			return 0, fmt.Errorf("failed to create conversation: %w", err)
		}
		conversationID, err = res.LastInsertId()
		if err != nil {
			return 0, err
		}
	} else {
		var owner string
		err = tx.QueryRowContext(ctx, `
			SELECT user_id FROM conversations WHERE id = ? AND user_id = ?
		`, conversationID, userID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		if err != nil {
			return 0, err
		}
	}

	if citations == nil {
		citations = []string{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, user_message, bot_response, citations, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, conversationID, userMessage, botResponse, string(citationsJSON), now.UTC()); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations SET updated_at = ? WHERE id = ?
	`, now.UTC(), conversationID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return conversationID, nil
}

// UpdateTitle renames a conversation, verifying ownership first
func (r *ConversationRepository) UpdateTitle(ctx context.Context, userID string, conversationID int64, title string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?
	`, title, time.Now().UTC(), conversationID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a conversation and all its messages in one transaction, so
// a racing reader sees either fully present or fully absent.
func (r *ConversationRepository) Delete(ctx context.Context, userID string, conversationID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx, `
		SELECT user_id FROM conversations WHERE id = ? AND user_id = ?
	`, conversationID, userID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, conversationID); err != nil {
		return err
	}

	return tx.Commit()
}

// CountMessages returns the number of messages stored for a conversation,
// without an ownership check. Used by maintenance and tests.
func (r *ConversationRepository) CountMessages(ctx context.Context, conversationID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages WHERE conversation_id = ?
	`, conversationID).Scan(&count)
	return count, err
}

// ClearAllMessages deletes every message in the store. Administrative,
// unscoped; backs the legacy DELETE /history endpoint.
func (r *ConversationRepository) ClearAllMessages(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages`)
	return err
}

func scanMessage(rows *sql.Rows) (domain.Message, error) {
	var msg domain.Message
	var citationsJSON sql.NullString

	if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.UserMessage,
		&msg.BotResponse, &citationsJSON, &msg.Timestamp); err != nil {
		return msg, err
	}

	msg.Citations = []string{}
	if citationsJSON.Valid && citationsJSON.String != "" {
		if err := json.Unmarshal([]byte(citationsJSON.String), &msg.Citations); err != nil {
			// Tolerate a corrupt citations column; the exchange itself is intact.
			msg.Citations = []string{}
		}
	}
	return msg, nil
}
