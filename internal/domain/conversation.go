package domain

import "time"

// Conversation is a thread of messages owned by exactly one user
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationSummary is a conversation plus its message count, for listings
type ConversationSummary struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// Message is one user/assistant exchange within a conversation.
// Messages are immutable once saved; conversation order is insertion order.
type Message struct {
	ID             int64     `json:"-"`
	ConversationID int64     `json:"-"`
	UserMessage    string    `json:"user_message"`
	BotResponse    string    `json:"bot_response"`
	Citations      []string  `json:"citations"`
	Timestamp      time.Time `json:"timestamp"`
}
