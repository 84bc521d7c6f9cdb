package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
	RoleAI     Role = "ai"
)

// MessageStatus is the delivery status of an agent message
type MessageStatus string

const (
	StatusSending MessageStatus = "sending"
	StatusSent    MessageStatus = "sent"
	StatusFailed  MessageStatus = "failed"
)

// ParseRole validates a role value
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleUser, RoleAgent, RoleSystem, RoleAI:
		return r, true
	}
	return "", false
}

// ParseMessageStatus validates a delivery status value
func ParseMessageStatus(s string) (MessageStatus, bool) {
	switch st := MessageStatus(s); st {
	case StatusSending, StatusSent, StatusFailed:
		return st, true
	}
	return "", false
}

// IsTerminal reports whether no further transition is allowed
func (s MessageStatus) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed
}

// Message represents a message entity
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role" yaml:"role"`
	Content   string         `json:"content" yaml:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Status    *MessageStatus `json:"status,omitempty"` // Only set for agent messages
}

// NewMessage creates a message with a fresh time-ordered ID.
// Agent messages start in the sending state.
func NewMessage(role Role, content string, at time.Time) Message {
	msg := Message{
		ID:        newMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
	if role == RoleAgent {
		status := StatusSending
		msg.Status = &status
	}
	return msg
}

func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// IsAgent checks if the message was written by a support agent
func (m Message) IsAgent() bool {
	return m.Role == RoleAgent
}

// CurrentStatus returns the delivery status, or "" for non-agent messages
func (m Message) CurrentStatus() MessageStatus {
	if m.Status == nil {
		return ""
	}
	return *m.Status
}

// Transition moves the delivery status forward.
// Only sending -> sent and sending -> failed are allowed.
func (m *Message) Transition(next MessageStatus) error {
	if !m.IsAgent() {
		return fmt.Errorf("message %s: status is only defined for agent messages", m.ID)
	}
	if m.CurrentStatus() != StatusSending {
		return fmt.Errorf("message %s: cannot move from %q to %q", m.ID, m.CurrentStatus(), next)
	}
	if !next.IsTerminal() {
		return fmt.Errorf("message %s: invalid target status %q", m.ID, next)
	}
	m.Status = &next
	return nil
}

// Clone returns a copy that does not share the status pointer
func (m Message) Clone() Message {
	if m.Status != nil {
		status := *m.Status
		m.Status = &status
	}
	return m
}
