package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fitstack/gymchat/internal/domain"
)

// GuestSessionRepository handles the durable guest-session codes. Expired
// sessions behave as not found: a lookup past the expiry instant removes
// the session and its orphaned guest user instead of returning stale data.
type GuestSessionRepository struct {
	db *DB
}

// NewGuestSessionRepository creates a new guest session repository
func NewGuestSessionRepository(db *DB) *GuestSessionRepository {
	return &GuestSessionRepository{db: db}
}

// Create stores a session code for a guest user
func (r *GuestSessionRepository) Create(ctx context.Context, session *domain.GuestSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO guest_sessions (code, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, session.Code, session.UserID, session.CreatedAt, session.ExpiresAt)
	return err
}

// GetByCode resolves a session code. Expired sessions are deleted together
// with their guest user and reported as domain.ErrNotFound.
func (r *GuestSessionRepository) GetByCode(ctx context.Context, code string) (*domain.GuestSession, error) {
	session := &domain.GuestSession{}
	err := r.db.QueryRowContext(ctx, `
		SELECT code, user_id, created_at, expires_at
		FROM guest_sessions WHERE code = ?
	`, code).Scan(&session.Code, &session.UserID, &session.CreatedAt, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if session.Expired(time.Now().UTC()) {
		if err := r.deleteWithUser(ctx, session.Code, session.UserID); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotFound
	}

	return session, nil
}

// DeleteExpired removes all expired sessions and their guest users.
// Returns the number of sessions removed.
func (r *GuestSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM users WHERE id IN (
			SELECT user_id FROM guest_sessions WHERE expires_at < ?
		)
	`, now); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM guest_sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(removed), nil
}

func (r *GuestSessionRepository) deleteWithUser(ctx context.Context, code, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM guest_sessions WHERE code = ?`, code); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
		return err
	}
	return tx.Commit()
}
