package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"urgency-engine/internal/domain"
)

func testNotification() domain.Notification {
	sentAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return domain.Notification{
		ID:        "n-1",
		UserID:    "alice",
		Content:   "INCIDENT SEV1: api down. Acknowledge immediately.",
		Status:    domain.StatusSent,
		Priority:  domain.PriorityUrgent,
		Type:      domain.TypeEmergency,
		SentAt:    sentAt,
		ExpiresAt: sentAt.Add(30 * time.Second),
	}
}

func TestWebhookSinkDeliver(t *testing.T) {
	t.Parallel()

	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	sink, err := NewWebhookSink(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookSink() error = %v", err)
	}

	if err := sink.Deliver(context.Background(), testNotification()); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if received.NotificationID != "n-1" || received.UserID != "alice" {
		t.Fatalf("payload = %+v", received)
	}
	if received.Priority != "urgent" || received.Type != "emergency" {
		t.Fatalf("payload labels = %s/%s, want lowercase", received.Priority, received.Type)
	}
}

func TestWebhookSinkRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	sink, err := NewWebhookSink(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookSink() error = %v", err)
	}

	if err := sink.Deliver(context.Background(), testNotification()); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("calls = %d, want retry after 503", got)
	}
}

func TestWebhookSinkReportsPermanentFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	sink, err := NewWebhookSink(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookSink() error = %v", err)
	}

	if err := sink.Deliver(context.Background(), testNotification()); err == nil {
		t.Fatal("Deliver() expected error on 400, got nil")
	}
}

func TestNewWebhookSinkValidatesEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := NewWebhookSink("   "); err == nil {
		t.Fatal("expected error for blank endpoint")
	}
	if _, err := NewWebhookSink("not a url"); err == nil {
		t.Fatal("expected error for malformed endpoint")
	}
}
