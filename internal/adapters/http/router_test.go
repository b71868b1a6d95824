package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/adapters/cache"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/application"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/contracts"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

// stubHistory satisfies the ledger port for endpoints that track writes.
type stubHistory struct {
	entries []domain.HistoryEntry
}

func (s *stubHistory) Append(_ context.Context, row domain.HistoryEntry) (int, error) {
	s.entries = append(s.entries, row)
	return 0, nil
}

func (s *stubHistory) GetByID(context.Context, string) (domain.HistoryEntry, error) {
	return domain.HistoryEntry{}, domain.ErrNotFound
}

func (s *stubHistory) LatestEligible(context.Context, bool) (domain.HistoryEntry, error) {
	return domain.HistoryEntry{}, domain.ErrNotFound
}

func (s *stubHistory) SetUndone(context.Context, string, bool) error { return domain.ErrNotFound }

func (s *stubHistory) List(context.Context, int) ([]domain.HistoryEntry, error) { return nil, nil }

type stubQueue struct {
	triggers []string
}

func (s *stubQueue) Enqueue(trigger string) bool {
	s.triggers = append(s.triggers, trigger)
	return true
}

func newTestRouter(jwtSecret string) (http.Handler, *stubQueue) {
	queue := &stubQueue{}
	svc := application.NewService(application.Dependencies{
		Config:  application.Config{ServiceName: "scoring-test"},
		History: &stubHistory{},
		State:   cache.NewMemoryStateStore(),
		Recalc:  queue,
	})
	handler := NewHandler(svc, jwtSecret)
	return NewRouter(handler, slog.New(slog.NewTextHandler(io.Discard, nil))), queue
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": "user_1",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter("")
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rr.Code)
		}
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	router, _ := newTestRouter("test-secret")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/weights", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var out contracts.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if out.Error.Code != "unauthorized" {
		t.Fatalf("unexpected error code %q", out.Error.Code)
	}
}

func TestAuthMiddlewareRejectsBadSignature(t *testing.T) {
	router, _ := newTestRouter("test-secret")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weights", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad signature, got %d", rr.Code)
	}
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	router, _ := newTestRouter("test-secret")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weights", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestValidateFeaturesEndpoint(t *testing.T) {
	router, _ := newTestRouter("")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/features/validate",
		strings.NewReader(`{"input":{"hook_type":"instant","ctr":0.05}}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var out contracts.SuccessResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data, _ := json.Marshal(out.Data)
	var validation domain.FeatureValidation
	if err := json.Unmarshal(data, &validation); err != nil {
		t.Fatalf("decode validation: %v", err)
	}
	if validation.IsValid {
		t.Fatalf("ctr in the input should invalidate the set")
	}
	if len(validation.Blocked) != 1 || validation.Blocked[0] != "ctr" {
		t.Fatalf("unexpected blocked set: %v", validation.Blocked)
	}
}

func TestValidateFeaturesRejectsMalformedJSON(t *testing.T) {
	router, _ := newTestRouter("")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/features/validate", strings.NewReader(`{`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSetWeightModeMapsInvalidInput(t *testing.T) {
	router, _ := newTestRouter("")
	req := httptest.NewRequest(http.MethodPut, "/api/v1/weights/mode", strings.NewReader(`{"mode":"learning"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	var out contracts.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if out.Error.Code != "invalid_input" {
		t.Fatalf("unexpected error code %q", out.Error.Code)
	}
}

func TestSetWeightModeRoundTrip(t *testing.T) {
	router, _ := newTestRouter("")
	req := httptest.NewRequest(http.MethodPut, "/api/v1/weights/mode", strings.NewReader(`{"mode":"frozen"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "frozen") {
		t.Fatalf("response should echo the new mode: %s", rr.Body.String())
	}
}

func TestTriggerRecalculationQueues(t *testing.T) {
	router, queue := newTestRouter("")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recalculations", strings.NewReader(`{"trigger":"nightly"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	if len(queue.triggers) != 1 || queue.triggers[0] != "nightly" {
		t.Fatalf("trigger not queued: %v", queue.triggers)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router, _ := newTestRouter("")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-keep-me")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-Id"); got != "req-keep-me" {
		t.Fatalf("request id should pass through, got %q", got)
	}
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id should be generated")
	}
}
