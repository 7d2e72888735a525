package domain

import (
	"strings"
	"time"
)

// Role identifies the author of a conversation entry.
type Role string

const (
	// RoleUser marks a message typed by the player.
	RoleUser Role = "user"
	// RoleAssistant marks a narrator response.
	RoleAssistant Role = "assistant"
)

// IsValid reports whether the role is supported.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatMessage is one immutable entry in the session conversation.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage validates and builds a conversation entry.
func NewChatMessage(role Role, content string, at time.Time) (ChatMessage, error) {
	if !role.IsValid() {
		return ChatMessage{}, ErrInvalidRole
	}
	if strings.TrimSpace(content) == "" {
		return ChatMessage{}, ErrEmptyMessage
	}
	return ChatMessage{Role: role, Content: content, Timestamp: at.UTC()}, nil
}
