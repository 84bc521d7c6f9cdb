package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
)

// Client is the HTTP client for the desk API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new desk API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// DeskView is the part of the desk view the MCP tools expose
type DeskView struct {
	Conversation struct {
		ID          string `json:"id"`
		CustomerID  string `json:"customer_id"`
		LastMessage string `json:"last_message"`
	} `json:"conversation"`
	Customer *struct {
		Name string `json:"name"`
	} `json:"customer"`
	Insights domain.Insights `json:"insights"`
}

// ============ Knowledge ============

// SearchKnowledge runs a knowledge lookup
func (c *Client) SearchKnowledge(ctx context.Context, query string) ([]domain.KnowledgeItem, error) {
	var result struct {
		Items []domain.KnowledgeItem `json:"items"`
	}
	if err := c.get(ctx, "/api/knowledge/search?q="+url.QueryEscape(query), &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// GetKnowledgeItem fetches one item; a missing item wraps domain.ErrNotFound
func (c *Client) GetKnowledgeItem(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	var item domain.KnowledgeItem
	if err := c.get(ctx, "/api/knowledge/"+url.PathEscape(id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ============ Desk ============

// GetView fetches the active conversation and its insights
func (c *Client) GetView(ctx context.Context) (*DeskView, error) {
	var view DeskView
	if err := c.get(ctx, "/api/view", &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Health checks that the desk API is reachable
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

// ============ HTTP Helpers ============

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
