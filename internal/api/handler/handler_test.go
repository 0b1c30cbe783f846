package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/streamcast/streamcast-notify/internal/api/respond"
	"github.com/streamcast/streamcast-notify/internal/config"
	"github.com/streamcast/streamcast-notify/internal/dispatch"
	"github.com/streamcast/streamcast-notify/internal/rtc"
)

// --------------------------------------------------------------------------
// Fixtures
// --------------------------------------------------------------------------

type stubStore struct {
	events    []dispatch.Event
	signups   map[string][]dispatch.Signup
	users     map[string]dispatch.User
	selectErr error
}

func (s *stubStore) EventsInWindow(_ context.Context, _, _ time.Time) ([]dispatch.Event, error) {
	return s.events, s.selectErr
}

func (s *stubStore) SignupsForEvent(_ context.Context, eventID string) ([]dispatch.Signup, error) {
	return s.signups[eventID], nil
}

func (s *stubStore) UserByID(_ context.Context, userID string) (dispatch.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return dispatch.User{}, dispatch.ErrUserNotFound
	}
	return u, nil
}

func (s *stubStore) MarkNotified(_ context.Context, _, _ string) error { return nil }

type stubSender struct{ sent int }

func (s *stubSender) Send(_ context.Context, _, _, _ string) error {
	s.sent++
	return nil
}

func newTestHandler(store dispatch.Store, appID, appSecret string) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coordinator := dispatch.NewCoordinator(store, &stubSender{}, time.Hour, 1, logger)
	issuer := rtc.NewIssuer(appID, appSecret, nil)
	return New(nil, coordinator, issuer, &config.Config{})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) respond.ErrorResponse {
	t.Helper()
	var resp respond.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

// --------------------------------------------------------------------------
// RTC token endpoint
// --------------------------------------------------------------------------

func TestIssueTokenEndpoint(t *testing.T) {
	h := newTestHandler(&stubStore{}, "app-1", "secret-1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rtc/token",
		strings.NewReader(`{"channelName":"main-stage","uid":42,"expiryTime":3600}`))
	rec := httptest.NewRecorder()
	h.IssueToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	claims, err := rtc.ParseToken(resp.Token, "secret-1")
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Channel != "main-stage" || claims.UID != 42 {
		t.Errorf("claims = %+v, want channel main-stage, uid 42", claims)
	}
}

func TestIssueTokenEndpointMissingChannel(t *testing.T) {
	h := newTestHandler(&stubStore{}, "app-1", "secret-1")

	tests := []struct {
		name string
		body string
	}{
		{"empty channel", `{"channelName":"","expiryTime":3600}`},
		{"channel omitted", `{"expiryTime":3600}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/rtc/token", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.IssueToken(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if resp := decodeError(t, rec); resp.Error.Code != respond.CodeInvalidArgument {
				t.Errorf("code = %q, want %q", resp.Error.Code, respond.CodeInvalidArgument)
			}
		})
	}
}

func TestIssueTokenEndpointBadBody(t *testing.T) {
	h := newTestHandler(&stubStore{}, "app-1", "secret-1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rtc/token", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.IssueToken(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIssueTokenEndpointUnconfigured(t *testing.T) {
	h := newTestHandler(&stubStore{}, "", "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rtc/token",
		strings.NewReader(`{"channelName":"main-stage","expiryTime":3600}`))
	rec := httptest.NewRecorder()
	h.IssueToken(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error.Code != respond.CodeTokenGenerationFailed {
		t.Errorf("code = %q, want %q", resp.Error.Code, respond.CodeTokenGenerationFailed)
	}
	// The caller gets a stable kind, never signing internals.
	if strings.Contains(resp.Error.Message, "credential") {
		t.Errorf("message leaks internals: %q", resp.Error.Message)
	}
}

// --------------------------------------------------------------------------
// Dispatch trigger endpoint
// --------------------------------------------------------------------------

func TestRunCycleEndpoint(t *testing.T) {
	store := &stubStore{
		events:  []dispatch.Event{{ID: "e1", Title: "Show", StartsAt: time.Now().Add(time.Minute)}},
		signups: map[string][]dispatch.Signup{"e1": {{EventID: "e1", UserID: "u1"}}},
		users:   map[string]dispatch.User{"u1": {ID: "u1", PushToken: "abc", Notify: true}},
	}
	h := newTestHandler(store, "app-1", "secret-1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/run", nil)
	rec := httptest.NewRecorder()
	h.RunCycle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["sent"] != float64(1) {
		t.Errorf("sent = %v, want 1", resp["sent"])
	}
	if resp["run_id"] == "" {
		t.Error("run_id missing from response")
	}
}

func TestRunCycleEndpointSelectionFailure(t *testing.T) {
	h := newTestHandler(&stubStore{selectErr: errors.New("connection refused")}, "app-1", "secret-1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dispatch/run", nil)
	rec := httptest.NewRecorder()
	h.RunCycle(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error.Code != respond.CodeQuerySelectionFailed {
		t.Errorf("code = %q, want %q", resp.Error.Code, respond.CodeQuerySelectionFailed)
	}
}
