package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a notification.
//
// PENDING exists only while the engine constructs the instance and is never
// externally observable. SENT is the single non-terminal visible state.
// RESPONDED and EXPIRED are terminal; the transition out of SENT happens
// exactly once, guarded by a compare-and-swap on status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusResponded Status = "RESPONDED"
	StatusExpired   Status = "EXPIRED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusResponded, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusResponded || s == StatusExpired
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Notification is one concrete, user-targeted, time-boxed message instance.
// Owned exclusively by the notification engine; append-only history except
// for the single terminal transition.
type Notification struct {
	ID                  string
	ScheduleID          string
	TemplateID          string
	UserID              string
	Content             string
	Status              Status
	Priority            Priority
	Type                TemplateType
	SentAt              time.Time
	ExpiresAt           time.Time
	RespondedAt         *time.Time
	ResponseTimeMs      *int64
	ResponseText        *string
	AutoResponseSent    bool
	AutoResponseContent *string
}

func (n *Notification) Validate() error {
	if strings.TrimSpace(n.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if strings.TrimSpace(n.TemplateID) == "" {
		return fmt.Errorf("%w: template id is required", ErrValidation)
	}
	if strings.TrimSpace(n.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	if !n.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, n.Status)
	}
	if !n.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, n.Priority)
	}
	if !n.Type.IsValid() {
		return fmt.Errorf("%w: invalid type %q", ErrValidation, n.Type)
	}
	if !n.ExpiresAt.After(n.SentAt) {
		return fmt.Errorf("%w: expiresAt must be after sentAt", ErrValidation)
	}
	return nil
}

// Clone returns a copy safe to hand to subscribers and HTTP responses.
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	clone := *n
	if n.RespondedAt != nil {
		at := *n.RespondedAt
		clone.RespondedAt = &at
	}
	if n.ResponseTimeMs != nil {
		ms := *n.ResponseTimeMs
		clone.ResponseTimeMs = &ms
	}
	if n.ResponseText != nil {
		text := *n.ResponseText
		clone.ResponseText = &text
	}
	if n.AutoResponseContent != nil {
		content := *n.AutoResponseContent
		clone.AutoResponseContent = &content
	}
	return &clone
}
