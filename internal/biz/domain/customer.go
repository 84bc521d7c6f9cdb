package domain

import "time"

// Presence represents a customer's online status
type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceOffline Presence = "offline"
	PresenceAway    Presence = "away"
)

// Customer represents a customer in the directory
type Customer struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Avatar   string    `json:"avatar"`
	Status   Presence  `json:"status"`
	LastSeen time.Time `json:"last_seen"`
	Location string    `json:"location"`
	Tags     []string  `json:"tags"` // Display and filtering only
}

// ParsePresence validates a presence value
func ParsePresence(s string) (Presence, bool) {
	switch p := Presence(s); p {
	case PresenceOnline, PresenceOffline, PresenceAway:
		return p, true
	}
	return "", false
}
