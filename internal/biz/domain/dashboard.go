package domain

import "time"

// DashboardTab is a top-level page of the desk
type DashboardTab string

const (
	TabInbox     DashboardTab = "inbox"
	TabAnalytics DashboardTab = "analytics"
	TabCustomers DashboardTab = "customers"
	TabKnowledge DashboardTab = "knowledge"
	TabSettings  DashboardTab = "settings"
)

// ParseTab validates a tab name
func ParseTab(s string) (DashboardTab, error) {
	switch t := DashboardTab(s); t {
	case TabInbox, TabAnalytics, TabCustomers, TabKnowledge, TabSettings:
		return t, nil
	}
	return "", &ValidationError{Field: "tab", Message: "unknown tab " + s}
}

// Settings holds the desk preferences
type Settings struct {
	AutoSummary bool `json:"auto_summary"`
	DarkMode    bool `json:"dark_mode"`
}

// DefaultSettings returns the settings a fresh desk starts with
func DefaultSettings() Settings {
	return Settings{AutoSummary: true}
}

// StatCard is one headline number on the analytics page
type StatCard struct {
	Label  string `json:"label" yaml:"label"`
	Value  string `json:"value" yaml:"value"`
	Change string `json:"change" yaml:"change"`
	Up     bool   `json:"up" yaml:"up"`
}

// TrafficPoint is one day of the weekly conversation volume
type TrafficPoint struct {
	Day   string `json:"day" yaml:"day"`
	Count int    `json:"count" yaml:"count"`
}

// CategoryShare is one slice of the inquiry category breakdown
type CategoryShare struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

// AnalyticsSeed is the static part of the analytics page
type AnalyticsSeed struct {
	Cards      []StatCard      `json:"cards" yaml:"cards"`
	Traffic    []TrafficPoint  `json:"traffic" yaml:"traffic"`
	Categories []CategoryShare `json:"categories" yaml:"categories"`
}

// LiveStats are computed from the desk's current conversations
type LiveStats struct {
	Conversations int `json:"conversations"`
	Unread        int `json:"unread"`
	HighPriority  int `json:"high_priority"`
	AgentSent     int `json:"agent_sent"`
	AgentFailed   int `json:"agent_failed"`
	AgentPending  int `json:"agent_pending"`
}

// Analytics is the full analytics page payload
type Analytics struct {
	AnalyticsSeed
	Live        LiveStats `json:"live"`
	GeneratedAt time.Time `json:"generated_at"`
}
