// Package delivery forwards dispatched notifications to collaborators that
// are not connected through an in-process subscription, e.g. a chat bridge
// or the desktop client's push relay.
package delivery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"urgency-engine/internal/domain"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	webhookRetryCount     = 2
)

// Sink receives a dispatched notification for out-of-process delivery.
type Sink interface {
	Deliver(ctx context.Context, n domain.Notification) error
}

type webhookPayload struct {
	NotificationID string `json:"notificationId"`
	UserID         string `json:"userId"`
	Type           string `json:"type"`
	Priority       string `json:"priority"`
	Content        string `json:"content"`
	SentAt         string `json:"sentAt"`
	ExpiresAt      string `json:"expiresAt"`
}

// WebhookSink POSTs notifications to a collaborator endpoint. Transient
// failures (429 and 5xx) are retried a couple of times; the engine treats
// any remaining failure as a logged delivery miss, never as a dispatch error.
type WebhookSink struct {
	client   *resty.Client
	endpoint string
}

func NewWebhookSink(endpoint string) (*WebhookSink, error) {
	client := resty.New()
	client.SetTimeout(defaultWebhookTimeout)
	return NewWebhookSinkWithClient(endpoint, client)
}

func NewWebhookSinkWithClient(endpoint string, client *resty.Client) (*WebhookSink, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("webhook endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultWebhookTimeout)
	}
	client.SetRetryCount(webhookRetryCount)
	client.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return isTransientHTTPStatus(resp.StatusCode())
	})

	return &WebhookSink{client: client, endpoint: trimmed}, nil
}

func (s *WebhookSink) Deliver(ctx context.Context, n domain.Notification) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("webhook sink is not initialized")
	}

	payload := webhookPayload{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           strings.ToLower(n.Type.String()),
		Priority:       strings.ToLower(n.Priority.String()),
		Content:        n.Content,
		SentAt:         n.SentAt.UTC().Format(time.RFC3339),
		ExpiresAt:      n.ExpiresAt.UTC().Format(time.RFC3339),
	}

	response, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.endpoint)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	if response.StatusCode() >= http.StatusOK && response.StatusCode() < http.StatusMultipleChoices {
		return nil
	}
	return fmt.Errorf("webhook delivery returned status %d", response.StatusCode())
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}
