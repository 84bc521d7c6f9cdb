package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
)

// Handler serves MCP tool calls from the desk API
type Handler struct {
	client *Client
}

// NewHandler creates a new MCP handler
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// SearchInput is the input of searchKnowledgeBase
type SearchInput struct {
	Query string `json:"query" jsonschema:"Keywords to look up in titles, contents and tags"`
}

// KnowledgeEntry is one knowledge item as returned to agents
type KnowledgeEntry struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
}

// SearchOutput is the output of searchKnowledgeBase
type SearchOutput struct {
	Count   int              `json:"count"`
	Matches []KnowledgeEntry `json:"matches"`
}

// GetItemInput is the input of get_knowledge_item
type GetItemInput struct {
	ID string `json:"id" jsonschema:"ID of the knowledge item"`
}

// InsightsInput is the (empty) input of get_conversation_insights
type InsightsInput struct{}

// InsightsOutput is the output of get_conversation_insights
type InsightsOutput struct {
	ConversationID string   `json:"conversation_id"`
	Customer       string   `json:"customer,omitempty"`
	LastMessage    string   `json:"last_message"`
	Suggestions    []string `json:"suggestions"`
	Summary        string   `json:"summary"`
	Sentiment      string   `json:"sentiment"`
	Loading        bool     `json:"loading"`
}

func toEntry(item domain.KnowledgeItem) KnowledgeEntry {
	return KnowledgeEntry{
		ID:       item.ID,
		Title:    item.Title,
		Content:  item.Content,
		Category: string(item.Category),
		Tags:     item.Tags,
	}
}

// SearchKnowledge handles searchKnowledgeBase
func (h *Handler) SearchKnowledge(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	items, err := h.client.SearchKnowledge(ctx, strings.TrimSpace(input.Query))
	if err != nil {
		return nil, SearchOutput{}, fmt.Errorf("search knowledge: %w", err)
	}

	out := SearchOutput{Count: len(items), Matches: make([]KnowledgeEntry, 0, len(items))}
	for _, item := range items {
		out.Matches = append(out.Matches, toEntry(item))
	}
	return nil, out, nil
}

// GetKnowledgeItem handles get_knowledge_item
func (h *Handler) GetKnowledgeItem(ctx context.Context, req *mcp.CallToolRequest, input GetItemInput) (*mcp.CallToolResult, KnowledgeEntry, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, KnowledgeEntry{}, errors.New("id is required")
	}

	item, err := h.client.GetKnowledgeItem(ctx, input.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, KnowledgeEntry{}, fmt.Errorf("knowledge item %s not found", input.ID)
		}
		return nil, KnowledgeEntry{}, fmt.Errorf("get knowledge item: %w", err)
	}
	return nil, toEntry(*item), nil
}

// ConversationInsights handles get_conversation_insights
func (h *Handler) ConversationInsights(ctx context.Context, req *mcp.CallToolRequest, input InsightsInput) (*mcp.CallToolResult, InsightsOutput, error) {
	view, err := h.client.GetView(ctx)
	if err != nil {
		return nil, InsightsOutput{}, fmt.Errorf("get desk view: %w", err)
	}

	out := InsightsOutput{
		ConversationID: view.Conversation.ID,
		LastMessage:    view.Conversation.LastMessage,
		Suggestions:    view.Insights.Suggestions,
		Summary:        view.Insights.Summary,
		Sentiment:      string(view.Insights.Sentiment),
		Loading:        view.Insights.Loading,
	}
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	if view.Customer != nil {
		out.Customer = view.Customer.Name
	}
	return nil, out, nil
}
