package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/DevRickLin/support-desk/internal/biz/domain"
	"github.com/DevRickLin/support-desk/internal/biz/repo"
	"github.com/DevRickLin/support-desk/internal/biz/usecase"
	"github.com/DevRickLin/support-desk/internal/data"
	"github.com/DevRickLin/support-desk/internal/service"
)

// offlineAssist fails every request so the desk runs on local fallbacks
type offlineAssist struct{}

func (offlineAssist) Generate(ctx context.Context, req repo.GenerateRequest) (repo.GenerateResult, error) {
	return repo.GenerateResult{}, errors.New("offline")
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	seed, err := data.LoadSeed("")
	if err != nil {
		t.Fatalf("Failed to load seed: %v", err)
	}
	directory := data.NewDirectoryRepo(seed)
	knowledgeSeed, _ := directory.KnowledgeSeed(ctx)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	knowledgeRepo, err := data.NewKnowledgeRepo(ctx, dsn, knowledgeSeed)
	if err != nil {
		t.Fatalf("Failed to open knowledge repo: %v", err)
	}
	t.Cleanup(func() { knowledgeRepo.Close() })

	knowledgeUC := usecase.NewKnowledgeUsecase(knowledgeRepo)
	customerUC := usecase.NewCustomerUsecase(directory)
	insightUC := usecase.NewInsightUsecase(offlineAssist{}, knowledgeUC, usecase.NewPromptBuilder(usecase.DefaultPromptConfig), zap.NewNop())

	conversations, _ := directory.Conversations(ctx)
	desk, err := service.NewDeskService(
		conversations,
		insightUC,
		customerUC,
		data.NewSimulatedDelivery(1, data.FixedRandom(0)),
		service.SystemClock(),
		service.DeskConfig{DeliveryDelay: time.Hour, ReplyDelay: time.Hour, CustomerReply: "OK"},
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("Failed to create desk: %v", err)
	}
	desk.StartEventLoop(ctx)

	server := NewServer(desk, knowledgeUC, customerUC, usecase.NewAnalyticsUsecase(directory), "127.0.0.1:0", []string{"*"}, zap.NewNop())
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("Expected status %d, got %d", want, resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := doRequest(t, ts, http.MethodGet, "/health", nil)
	expectStatus(t, resp, http.StatusOK)
}

func TestHandleView(t *testing.T) {
	ts := newTestServer(t)

	var view service.DeskView
	resp := doRequest(t, ts, http.MethodGet, "/api/view", nil)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &view)

	if view.Conversation == nil || view.Conversation.ID != "conv1" {
		t.Fatalf("Expected conv1 active, got %+v", view.Conversation)
	}
	if view.Customer == nil || view.Customer.ID != "c1" {
		t.Errorf("Expected customer c1, got %+v", view.Customer)
	}
	if view.Tab != domain.TabInbox {
		t.Errorf("Expected inbox tab, got %s", view.Tab)
	}
	if !view.Settings.AutoSummary {
		t.Error("Expected auto summary on by default")
	}
}

func TestHandleSend(t *testing.T) {
	ts := newTestServer(t)

	var view service.DeskView
	resp := doRequest(t, ts, http.MethodPost, "/api/messages", textRequest{Text: "   "})
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &view)
	if n := len(view.Conversation.Messages); n != 3 {
		t.Errorf("Expected blank send to change nothing, got %d messages", n)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/messages", textRequest{Text: "Up to 12 hours."})
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &view)

	msgs := view.Conversation.Messages
	last := msgs[len(msgs)-1]
	if len(msgs) != 4 || last.Content != "Up to 12 hours." || last.CurrentStatus() != domain.StatusSending {
		t.Errorf("Expected sending agent message appended, got %+v", last)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/messages", "{not json")
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestHandleUseSuggestion(t *testing.T) {
	ts := newTestServer(t)

	var view service.DeskView
	resp := doRequest(t, ts, http.MethodPost, "/api/suggestions", textRequest{Text: "Let me check."})
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &view)

	msgs := view.Conversation.Messages
	if msgs[len(msgs)-1].Content != "Let me check." || view.Compose != "" {
		t.Errorf("Expected suggestion sent and compose cleared, got %+v", view)
	}
}

func TestHandleSelectConversation(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/conversations/missing/select", nil)
	expectStatus(t, resp, http.StatusNotFound)

	var view service.DeskView
	resp = doRequest(t, ts, http.MethodPost, "/api/conversations/conv2/select", nil)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &view)
	if view.Conversation.ID != "conv2" {
		t.Errorf("Expected conv2 active, got %s", view.Conversation.ID)
	}

	var list struct {
		Conversations []service.ConversationSummary `json:"conversations"`
	}
	resp = doRequest(t, ts, http.MethodGet, "/api/conversations", nil)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &list)
	if len(list.Conversations) != 2 || !list.Conversations[1].Active {
		t.Errorf("Expected conv2 marked active, got %+v", list.Conversations)
	}
	if list.Conversations[0].CustomerName == "" {
		t.Error("Expected customer name in inbox list")
	}
}

func TestHandleTabAndCompose(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPut, "/api/tab", tabRequest{Tab: "reports"})
	expectStatus(t, resp, http.StatusBadRequest)

	var errBody map[string]string
	decodeBody(t, resp, &errBody)
	if errBody["error"] == "" {
		t.Error("Expected error message in body")
	}

	var view service.DeskView
	resp = doRequest(t, ts, http.MethodPut, "/api/tab", tabRequest{Tab: "knowledge"})
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &view)
	if view.Tab != domain.TabKnowledge {
		t.Errorf("Expected knowledge tab, got %s", view.Tab)
	}

	resp = doRequest(t, ts, http.MethodPut, "/api/compose", textRequest{Text: "draft"})
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &view)
	if view.Compose != "draft" {
		t.Errorf("Expected compose 'draft', got '%s'", view.Compose)
	}
}

func TestHandleCustomers(t *testing.T) {
	ts := newTestServer(t)

	var result struct {
		Customers []domain.Customer `json:"customers"`
	}
	resp := doRequest(t, ts, http.MethodGet, "/api/customers?status=all", nil)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &result)
	if len(result.Customers) != 6 {
		t.Errorf("Expected 6 customers, got %d", len(result.Customers))
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/customers?status=busy", nil)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doRequest(t, ts, http.MethodGet, "/api/customers/c99", nil)
	expectStatus(t, resp, http.StatusNotFound)

	var customer domain.Customer
	resp = doRequest(t, ts, http.MethodGet, "/api/customers/c1", nil)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &customer)
	if customer.ID != "c1" {
		t.Errorf("Expected c1, got %s", customer.ID)
	}
}

func TestHandleAnalytics(t *testing.T) {
	ts := newTestServer(t)

	var analytics domain.Analytics
	resp := doRequest(t, ts, http.MethodGet, "/api/analytics", nil)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &analytics)

	if analytics.Live.Conversations != 2 {
		t.Errorf("Expected 2 live conversations, got %d", analytics.Live.Conversations)
	}
	if len(analytics.Cards) != 4 || len(analytics.Traffic) != 7 {
		t.Errorf("Expected seeded cards and traffic, got %d and %d", len(analytics.Cards), len(analytics.Traffic))
	}
}

func TestHandleKnowledgeCRUD(t *testing.T) {
	ts := newTestServer(t)

	var created domain.KnowledgeItem
	resp := doRequest(t, ts, http.MethodPost, "/api/knowledge", domain.KnowledgeItem{
		Title:    "Gift wrapping",
		Content:  "Free gift wrapping on request.",
		Category: domain.CategoryGeneral,
	})
	expectStatus(t, resp, http.StatusCreated)
	decodeBody(t, resp, &created)
	if !strings.HasPrefix(created.ID, "k") || created.UpdatedAt.IsZero() {
		t.Fatalf("Expected generated id and timestamp, got %+v", created)
	}

	var list struct {
		Items []domain.KnowledgeItem `json:"items"`
	}
	resp = doRequest(t, ts, http.MethodGet, "/api/knowledge", nil)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &list)
	if len(list.Items) == 0 || list.Items[0].ID != created.ID {
		t.Errorf("Expected new item first, got %+v", list.Items)
	}

	created.Title = "Gift wrapping service"
	resp = doRequest(t, ts, http.MethodPut, "/api/knowledge/"+created.ID, created)
	expectStatus(t, resp, http.StatusOK)

	var fetched domain.KnowledgeItem
	resp = doRequest(t, ts, http.MethodGet, "/api/knowledge/"+created.ID, nil)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &fetched)
	if fetched.Title != "Gift wrapping service" {
		t.Errorf("Expected updated title, got '%s'", fetched.Title)
	}

	resp = doRequest(t, ts, http.MethodPut, "/api/knowledge/missing", created)
	expectStatus(t, resp, http.StatusNotFound)

	resp = doRequest(t, ts, http.MethodPost, "/api/knowledge", domain.KnowledgeItem{Content: "no title"})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doRequest(t, ts, http.MethodDelete, "/api/knowledge/"+created.ID, nil)
	expectStatus(t, resp, http.StatusOK)
	resp = doRequest(t, ts, http.MethodDelete, "/api/knowledge/"+created.ID, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestHandleKnowledgeSearch(t *testing.T) {
	ts := newTestServer(t)

	var result struct {
		Items []domain.KnowledgeItem `json:"items"`
	}
	resp := doRequest(t, ts, http.MethodGet, "/api/knowledge/search?q=battery", nil)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &result)
	if len(result.Items) == 0 || result.Items[0].ID != "k1" {
		t.Errorf("Expected battery guide, got %+v", result.Items)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/knowledge/search?q=zzzz", nil)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &result)
	if result.Items == nil || len(result.Items) != 0 {
		t.Errorf("Expected empty list, got %v", result.Items)
	}
}

func TestHandleSettings(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPut, "/api/settings", domain.Settings{AutoSummary: false, DarkMode: true})
	expectStatus(t, resp, http.StatusOK)

	var settings domain.Settings
	resp = doRequest(t, ts, http.MethodGet, "/api/settings", nil)
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &settings)
	if settings.AutoSummary || !settings.DarkMode {
		t.Errorf("Expected updated settings, got %+v", settings)
	}
}
