package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_WritesToZap(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(zap.New(core)))
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 request log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/missing" {
		t.Errorf("Expected path /missing, got %v", fields["path"])
	}
	if fields["method"] != http.MethodGet {
		t.Errorf("Expected method GET, got %v", fields["method"])
	}
	if fields["status"] != int64(http.StatusNotFound) {
		t.Errorf("Expected status 404, got %v", fields["status"])
	}
	if id, _ := fields["request_id"].(string); id == "" {
		t.Errorf("Expected a request id, got %v", fields["request_id"])
	}
	if bytes, _ := fields["bytes"].(int64); bytes == 0 {
		t.Errorf("Expected bytes written, got %v", fields["bytes"])
	}
}

func TestRequestLogger_DefaultsToOK(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := requestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["status"]; got != int64(http.StatusOK) {
		t.Errorf("Expected status 200, got %v", got)
	}
}
