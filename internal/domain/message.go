package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Source         string    `json:"source,omitempty"` // generative, rule_based, fallback
	CreatedAt      time.Time `json:"created_at"`
}
