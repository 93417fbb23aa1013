package domain

import "time"

// User represents a registered or guest account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsGuest      bool      `json:"is_guest"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// GuestSession maps a short shareable code to a guest user
type GuestSession struct {
	Code      string    `json:"session_code"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry instant
func (s *GuestSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
