package domain

import (
	"errors"
	"fmt"
	"time"
)

// Priority represents the conversation priority
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates a priority value
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return "", false
}

// Conversation represents the conversation aggregate root
type Conversation struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	Messages    []Message `json:"messages"`
	LastMessage string    `json:"last_message"`
	UnreadCount int       `json:"unread_count"`
	Priority    Priority  `json:"priority"`
	StartedAt   time.Time `json:"started_at"`
}

// NewConversation creates a conversation. A conversation always holds at least one message.
func NewConversation(id, customerID string, priority Priority, startedAt time.Time, messages []Message) (*Conversation, error) {
	if len(messages) == 0 {
		return nil, errors.New("conversation needs at least one message")
	}
	conv := &Conversation{
		ID:         id,
		CustomerID: customerID,
		Priority:   priority,
		StartedAt:  startedAt,
	}
	for _, m := range messages {
		conv.Messages = append(conv.Messages, m.Clone())
	}
	conv.LastMessage = conv.Messages[len(conv.Messages)-1].Content
	return conv, nil
}

// Append adds a message at the end of the history and refreshes the preview
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.LastMessage = msg.Content
}

// FindMessage finds a message by ID
func (c *Conversation) FindMessage(msgID string) *Message {
	for i := range c.Messages {
		if c.Messages[i].ID == msgID {
			return &c.Messages[i]
		}
	}
	return nil
}

// UpdateStatus transitions the delivery status of one of its messages
func (c *Conversation) UpdateStatus(msgID string, status MessageStatus) error {
	msg := c.FindMessage(msgID)
	if msg == nil {
		return fmt.Errorf("message %s: %w", msgID, ErrNotFound)
	}
	return msg.Transition(status)
}

// LastUserMessage returns the most recent customer message, or nil
func (c *Conversation) LastUserMessage() *Message {
	return LastUserMessage(c.Messages)
}

// History returns a deep copy of the message list
func (c *Conversation) History() []Message {
	out := make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		out[i] = m.Clone()
	}
	return out
}

// Clone returns a deep copy of the conversation
func (c *Conversation) Clone() *Conversation {
	cp := *c
	cp.Messages = c.History()
	return &cp
}

// LastUserMessage returns the most recent user-authored message in history
func LastUserMessage(history []Message) *Message {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			m := history[i]
			return &m
		}
	}
	return nil
}

// LastContent returns the content of the most recent message, "" if empty
func LastContent(history []Message) string {
	if len(history) == 0 {
		return ""
	}
	return history[len(history)-1].Content
}
