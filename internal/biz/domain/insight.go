package domain

import "strings"

// Sentiment is the customer's mood derived from the latest message
type Sentiment string

const (
	SentimentUnknown  Sentiment = ""
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment maps a free-text model answer onto a sentiment.
// Anything that mentions neither positive nor negative is neutral.
func ParseSentiment(text string) Sentiment {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(t, "positive"):
		return SentimentPositive
	case strings.Contains(t, "negative"):
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// MaxSuggestions caps the number of suggestion chips
const MaxSuggestions = 3

// SummaryUnavailable is shown when summarization fails
const SummaryUnavailable = "Summary unavailable"

// Insights is the bundle derived from a conversation's history
type Insights struct {
	Suggestions []string  `json:"suggestions"`
	Summary     string    `json:"summary"`
	Sentiment   Sentiment `json:"sentiment"`
	Loading     bool      `json:"loading"`
}

// Clone returns a copy that does not share the suggestion slice
func (i Insights) Clone() Insights {
	i.Suggestions = append([]string(nil), i.Suggestions...)
	return i
}

// InsightPart names one of the three concurrent requests
type InsightPart string

const (
	PartSuggestions InsightPart = "suggestions"
	PartSummary     InsightPart = "summary"
	PartSentiment   InsightPart = "sentiment"
)

// InsightParts is the fixed set of parts of every invocation
var InsightParts = []InsightPart{PartSuggestions, PartSummary, PartSentiment}

// InsightUpdate carries the resolved value of a single part
type InsightUpdate struct {
	Part        InsightPart
	Suggestions []string
	Summary     string
	Sentiment   Sentiment
	Fallback    bool // Value was computed locally after a remote failure
}

// Apply writes the update into the insight bundle
func (u InsightUpdate) Apply(in *Insights) {
	switch u.Part {
	case PartSuggestions:
		in.Suggestions = append([]string(nil), u.Suggestions...)
	case PartSummary:
		in.Summary = u.Summary
	case PartSentiment:
		in.Sentiment = u.Sentiment
	}
}
