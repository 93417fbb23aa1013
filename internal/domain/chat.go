package domain

// Passage is one retrieved excerpt with the locator of its source document
type Passage struct {
	Text    string `json:"text"`
	Locator string `json:"locator"`
}

// ChatRequest is the request to send a chat message
type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID int64  `json:"conversation_id,omitempty"`
}

// ChatResponse is the reply returned from a chat message
type ChatResponse struct {
	Response       string   `json:"response"`
	Citations      []string `json:"citations"`
	ConversationID int64    `json:"conversation_id"`
}
