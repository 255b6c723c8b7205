package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vkovalov/workbot/internal/classify"
	"github.com/vkovalov/workbot/internal/model"
	"github.com/vkovalov/workbot/internal/stats"
	"github.com/vkovalov/workbot/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	artifact, err := model.Load("../../model/testdata/work_classifier_light.json")
	if err != nil {
		t.Fatalf("failed to load artifact: %v", err)
	}
	aggregator := stats.NewAggregator(logger)
	service := classify.NewService(artifact, aggregator, logger, nil, classify.Options{})

	cfg := &Config{
		Logger:          logger,
		ClassifyHandler: classify.NewHandler(service, logger),
		StatsHandler:    stats.NewHandler(aggregator, logger),
	}

	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterClassifyThenStats(t *testing.T) {
	router := newTestRouter(t)

	payload := classify.Request{
		Text:           "Please send me the Q3 report by EOD",
		ConversationID: "room-1",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/classify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var result classify.Result
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode classify response: %v", err)
	}
	if result.Label != model.LabelWork {
		t.Errorf("expected label %q, got %q", model.LabelWork, result.Label)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/conversations/room-1/stats", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var snap stats.ConversationStats
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("failed to decode stats response: %v", err)
	}
	if snap.TotalCount != 1 {
		t.Errorf("expected total count 1, got %d", snap.TotalCount)
	}
}

func TestRouterCheckDoesNotRecord(t *testing.T) {
	router := newTestRouter(t)

	payload := classify.Request{Text: "lol that movie was hilarious", ConversationID: "room-2"}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/v1/check", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/conversations/room-2/stats", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status %d for unrecorded conversation, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestRouterMuteEndpoints(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/room-3/mute", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/conversations/room-3/unmute", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}
}

func TestRouterSummaryEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats/summary", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var summary stats.Summary
	if err := json.NewDecoder(rr.Body).Decode(&summary); err != nil {
		t.Fatalf("failed to decode summary response: %v", err)
	}
	if summary.Conversations != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}
