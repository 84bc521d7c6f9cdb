package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
)

// PromptConfig contains prompt configuration
type PromptConfig struct {
	AssistantSystem  string // System prompt shared by every assist request
	SuggestionsTmpl  string // Supports {{history}}
	FollowupTmpl     string // Supports {{message}}, {{matches}}
	SummaryTmpl      string // Supports {{history}}
	SentimentTmpl    string // Supports {{text}}
	ToolDescription  string // Description of the searchKnowledgeBase tool
	CustomerReply    string // Text of the simulated customer reply
	GenericFallbacks []string
	FallbackTmpl     string // Supports {{title}}

	MaxHistoryCount int // Max history messages in a prompt (0 = no limit)
}

// DefaultPromptConfig contains default prompt configuration
var DefaultPromptConfig = PromptConfig{
	AssistantSystem: "You are an assistant helping a customer support agent. Be brief, professional and friendly.",
	SuggestionsTmpl: `Read the following support conversation and propose the 3 most suitable replies the agent could send next (short, professional, friendly).
If product facts, policies or procedures are needed, call searchKnowledgeBase first.
Otherwise answer only with JSON of the form {"suggestions": ["reply 1", "reply 2", "reply 3"]}.

Conversation:
{{history}}`,
	FollowupTmpl: `The customer's latest message is:
"{{message}}"

Knowledge base entries that may help:
{{matches}}

Using only these facts where relevant, propose 3 short, professional, friendly replies.
Answer only with JSON of the form {"suggestions": ["reply 1", "reply 2", "reply 3"]}.`,
	SummaryTmpl: `Summarize in one sentence the customer's core need in this support conversation:

{{history}}`,
	SentimentTmpl: `Classify the emotion of the following text. Answer with exactly one of 'positive', 'neutral' or 'negative':

"{{text}}"`,
	ToolDescription: "Search the support knowledge base for product facts, after-sales policies and how-to guides.",
	CustomerReply:   "OK, I got it.",
	GenericFallbacks: []string{
		"Sure, let me check that for you right away.",
		"Please hold on a moment while I look into this.",
		"I'm very sorry for the inconvenience.",
	},
	FallbackTmpl:    `You may find this helpful: "{{title}}". Let me walk you through it.`,
	MaxHistoryCount: 30,
}

// PromptBuilder renders assist prompts from a conversation history
type PromptBuilder struct {
	cfg PromptConfig
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder(cfg PromptConfig) *PromptBuilder {
	return &PromptBuilder{cfg: cfg}
}

// Config returns the prompt configuration in use
func (b *PromptBuilder) Config() PromptConfig {
	return b.cfg
}

// Suggestions renders the first suggestions request
func (b *PromptBuilder) Suggestions(history []domain.Message) string {
	return strings.ReplaceAll(b.cfg.SuggestionsTmpl, "{{history}}", b.FormatHistory(history))
}

// Followup renders the request that follows a knowledge base search
func (b *PromptBuilder) Followup(lastUser string, matches []*domain.KnowledgeItem) string {
	result := strings.ReplaceAll(b.cfg.FollowupTmpl, "{{message}}", lastUser)
	return strings.ReplaceAll(result, "{{matches}}", FormatMatches(matches))
}

// Summary renders the summarization request
func (b *PromptBuilder) Summary(history []domain.Message) string {
	return strings.ReplaceAll(b.cfg.SummaryTmpl, "{{history}}", b.FormatHistory(history))
}

// Sentiment renders the sentiment request for a single text
func (b *PromptBuilder) Sentiment(text string) string {
	return strings.ReplaceAll(b.cfg.SentimentTmpl, "{{text}}", text)
}

// FallbackFor renders the locally built suggestion for a matched item
func (b *PromptBuilder) FallbackFor(item *domain.KnowledgeItem) string {
	return strings.ReplaceAll(b.cfg.FallbackTmpl, "{{title}}", item.Title)
}

// FormatHistory renders "role: content" lines, keeping the last MaxHistoryCount
func (b *PromptBuilder) FormatHistory(history []domain.Message) string {
	history = b.truncateHistory(history)

	var sb strings.Builder
	for _, m := range history {
		sb.WriteString(fmt.Sprintf("%s: %s\n", m.Role, m.Content))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *PromptBuilder) truncateHistory(history []domain.Message) []domain.Message {
	n := len(history)
	if b.cfg.MaxHistoryCount <= 0 || n <= b.cfg.MaxHistoryCount {
		return history
	}
	return history[n-b.cfg.MaxHistoryCount:]
}

// KnowledgeMatch is the tool output shape of one matched item
type KnowledgeMatch struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
}

// ToolOutput encodes matched items as the searchKnowledgeBase result
func ToolOutput(matches []*domain.KnowledgeItem) json.RawMessage {
	out := make([]KnowledgeMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, KnowledgeMatch{
			Title:    m.Title,
			Content:  m.Content,
			Category: string(m.Category),
			Tags:     m.Tags,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return json.RawMessage("[]")
	}
	return data
}

// FormatMatches renders matched items as a bullet list for a prompt
func FormatMatches(matches []*domain.KnowledgeItem) string {
	if len(matches) == 0 {
		return "(no matching entries)"
	}
	var sb strings.Builder
	for _, m := range matches {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", m.Title, m.Content))
	}
	return strings.TrimRight(sb.String(), "\n")
}
