package api

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

	"github.com/inboxlab/message-dispatch/internal/model"
	"github.com/inboxlab/message-dispatch/internal/repo"
	"github.com/inboxlab/message-dispatch/internal/scheduler"
)

type fakeStatusRepo struct {
	status   *model.MessageStatusRecord
	channels []model.ChannelStatusRecord
	err      error
}

var _ repo.StatusRepository = (*fakeStatusRepo)(nil)

func (f *fakeStatusRepo) UpsertMessageStatus(ctx context.Context, messageID string, status model.MessageStatus) error {
	return errors.New("not implemented")
}

func (f *fakeStatusRepo) UpsertChannelStatus(ctx context.Context, rec model.ChannelStatusRecord) error {
	return errors.New("not implemented")
}

func (f *fakeStatusRepo) GetMessageStatus(ctx context.Context, messageID string) (*model.MessageStatusRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.status != nil {
		return f.status, nil
	}
	return &model.MessageStatusRecord{MessageID: messageID, Status: model.MessageStatusAccepted}, nil
}

func (f *fakeStatusRepo) ListChannelStatuses(ctx context.Context, messageID string) ([]model.ChannelStatusRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.channels, nil
}

func newTestServer(t *testing.T, statuses repo.StatusRepository) (*scheduler.Scheduler, http.Handler) {
	t.Helper()

	// Long interval so only the immediate tick happens (noop anyway).
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := scheduler.New(time.Hour, func(context.Context) {}, logger)
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}

	h := NewHandler(s, statuses)
	return s, Router(h)
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("failed to decode json: %v body=%q", err, rr.Body.String())
	}
	return m
}

func TestHealth(t *testing.T) {
	s, mux := newTestServer(t, &fakeStatusRepo{})
	defer s.Stop()

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}

	body := decodeJSON(t, rr)
	if v, ok := body["ok"].(bool); !ok || !v {
		t.Fatalf("expected {ok:true}, got %v", body)
	}
}

func TestSchedulerEndpoints(t *testing.T) {
	s, mux := newTestServer(t, &fakeStatusRepo{})
	defer s.Stop()

	// Initially should be false.
	{
		req := httptest.NewRequest(http.MethodGet, "/v1/scheduler/status", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
		}
		body := decodeJSON(t, rr)
		if running, ok := body["running"].(bool); !ok || running {
			t.Fatalf("expected running=false, got %v", body)
		}
	}

	// Start
	{
		req := httptest.NewRequest(http.MethodPost, "/v1/scheduler/start", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
		}
		body := decodeJSON(t, rr)
		if running, ok := body["running"].(bool); !ok || !running {
			t.Fatalf("expected running=true after start, got %v", body)
		}
	}

	// Stop
	{
		req := httptest.NewRequest(http.MethodPost, "/v1/scheduler/stop", nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
		}
		body := decodeJSON(t, rr)
		if running, ok := body["running"].(bool); !ok || running {
			t.Fatalf("expected running=false after stop, got %v", body)
		}
	}
}

func TestMessageStatus(t *testing.T) {
	fr := &fakeStatusRepo{
		status: &model.MessageStatusRecord{MessageID: "msg-1", Status: model.MessageStatusProcessed},
		channels: []model.ChannelStatusRecord{
			{MessageID: "msg-1", NotificationID: "ntf-1", Channel: model.ChannelEmail, Status: model.ChannelStatusSent},
			{MessageID: "msg-1", NotificationID: "ntf-1", Channel: model.ChannelWebhook, Status: model.ChannelStatusSent},
		},
	}

	s, mux := newTestServer(t, fr)
	defer s.Stop()

	req := httptest.NewRequest(http.MethodGet, "/v1/messages/msg-1/status", nil)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}

	body := decodeJSON(t, rr)
	if body["messageId"] != "msg-1" {
		t.Fatalf("expected messageId msg-1, got %v", body["messageId"])
	}
	if body["status"] != "PROCESSED" {
		t.Fatalf("expected status PROCESSED, got %v", body["status"])
	}
	channels, ok := body["channels"].([]any)
	if !ok {
		t.Fatalf("expected channels array, got %T %v", body["channels"], body)
	}
	if len(channels) != 2 {
		t.Fatalf("expected 2 channel statuses, got %d", len(channels))
	}
	first, ok := channels[0].(map[string]any)
	if !ok {
		t.Fatalf("expected channel object, got %T", channels[0])
	}
	if first["channel"] != "EMAIL" || first["status"] != "SENT" || first["notificationId"] != "ntf-1" {
		t.Fatalf("unexpected channel view: %v", first)
	}
}

func TestMessageStatus_NoRowsMeansAccepted(t *testing.T) {
	s, mux := newTestServer(t, &fakeStatusRepo{})
	defer s.Stop()

	req := httptest.NewRequest(http.MethodGet, "/v1/messages/msg-unknown/status", nil)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	body := decodeJSON(t, rr)
	if body["status"] != "ACCEPTED" {
		t.Fatalf("expected implicit ACCEPTED, got %v", body["status"])
	}
	if channels, ok := body["channels"].([]any); !ok || len(channels) != 0 {
		t.Fatalf("expected empty channels array, got %v", body["channels"])
	}
}

func TestMessageStatus_RepoErrorReturns500(t *testing.T) {
	s, mux := newTestServer(t, &fakeStatusRepo{err: errors.New("db down")})
	defer s.Stop()

	req := httptest.NewRequest(http.MethodGet, "/v1/messages/msg-1/status", nil)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d body=%q", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "db down") {
		t.Fatalf("expected error body to contain repo error, got %q", rr.Body.String())
	}
}

func TestRouterRoot(t *testing.T) {
	s, mux := newTestServer(t, &fakeStatusRepo{})
	defer s.Stop()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "message-dispatch" {
		t.Fatalf("expected body %q, got %q", "message-dispatch", got)
	}
}
