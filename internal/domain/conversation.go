package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole distinguishes a user prompt from an AI skill's reply.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// MessageStatus tracks the lifecycle of a single assistant reply while its
// AI skill is running.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusStreaming MessageStatus = "streaming"
	MessageStatusComplete  MessageStatus = "complete"
	MessageStatusError     MessageStatus = "error"
)

// Conversation groups a sequence of Messages exchanged with an AI skill, for
// example a back-and-forth refining a suggest_query result into a saved
// search.
type Conversation struct {
	ID           uuid.UUID              `json:"id" db:"id"`
	TenantID     uuid.UUID              `json:"tenant_id" db:"tenant_id"`
	UserID       string                 `json:"user_id" db:"user_id"`
	Title        string                 `json:"title" db:"title"`
	MessageCount int                    `json:"message_count" db:"message_count"`
	Messages     []Message              `json:"messages,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	LastMessageAt *time.Time            `json:"last_message_at,omitempty" db:"last_message_at"`
	CreatedAt    time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at" db:"updated_at"`
}

// Message is one turn of a Conversation.
type Message struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	ConversationID uuid.UUID     `json:"conversation_id" db:"conversation_id"`
	TenantID       uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	Role           MessageRole   `json:"role" db:"role"`
	Content        string        `json:"content" db:"content"`
	Status         MessageStatus `json:"status" db:"status"`
	SkillName      string        `json:"skill_name,omitempty" db:"skill_name"`
	TokensUsed     int           `json:"tokens_used,omitempty" db:"tokens_used"`
	LatencyMS      int           `json:"latency_ms,omitempty" db:"latency_ms"`
	FollowUps      []string      `json:"follow_ups,omitempty" db:"follow_ups"`
	ErrorMessage   string        `json:"error_message,omitempty" db:"error_message"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}
