package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the speaker of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Metadata describes how an assistant reply was produced
type Metadata struct {
	// Duration is nil when the backend did not report one
	Duration         *float64
	CompletionTokens int
}

// Text formats the metadata line, e.g. "1.25s • 42 tokens"
func (m Metadata) Text() string {
	duration := ""
	if m.Duration != nil && *m.Duration != 0 {
		duration = fmt.Sprintf("%.2fs", *m.Duration)
	}
	return strings.TrimSpace(fmt.Sprintf("%s • %d tokens", duration, m.CompletionTokens))
}

// Message is one transcript entry. Messages are never modified after they are appended.
type Message struct {
	ID        uuid.UUID
	Role      Role
	Content   string
	Metadata  *Metadata
	IsError   bool
	CreatedAt time.Time
}

func newMessage(role Role, content string, now time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
}
