package repository

import (
	"sync"
	"time"

	"urgency-engine/internal/domain"
)

// NotificationRepository is the engine-owned notification table. The two
// Mark methods implement the compare-and-swap terminal transition: whichever
// of response intake and deadline firing reaches the table first wins, the
// loser gets ErrAlreadyResolved.
type NotificationRepository interface {
	Create(n *domain.Notification) error
	GetByID(id string) (*domain.Notification, error)
	MarkResponded(id string, respondedAt time.Time, text string) (*domain.Notification, error)
	MarkExpired(id string, autoResponse *string) (*domain.Notification, error)
	ActiveByUser(userID string) (*domain.Notification, error)
	HistoryByUser(userID string) []domain.Notification
}

type MemoryNotificationRepo struct {
	mu            sync.Mutex
	notifications map[string]*domain.Notification
	byUser        map[string][]string
}

func NewMemoryNotificationRepo() *MemoryNotificationRepo {
	return &MemoryNotificationRepo{
		notifications: make(map[string]*domain.Notification),
		byUser:        make(map[string][]string),
	}
}

func (r *MemoryNotificationRepo) Create(n *domain.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.notifications[n.ID]; exists {
		return domain.ErrConflict
	}
	r.notifications[n.ID] = n.Clone()
	r.byUser[n.UserID] = append(r.byUser[n.UserID], n.ID)
	return nil
}

func (r *MemoryNotificationRepo) GetByID(id string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return n.Clone(), nil
}

func (r *MemoryNotificationRepo) MarkResponded(id string, respondedAt time.Time, text string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if n.Status != domain.StatusSent {
		return nil, domain.ErrAlreadyResolved
	}

	n.Status = domain.StatusResponded
	stamped := respondedAt
	n.RespondedAt = &stamped
	responseTime := respondedAt.Sub(n.SentAt).Milliseconds()
	if responseTime < 0 {
		responseTime = 0
	}
	n.ResponseTimeMs = &responseTime
	n.ResponseText = &text
	return n.Clone(), nil
}

func (r *MemoryNotificationRepo) MarkExpired(id string, autoResponse *string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if n.Status != domain.StatusSent {
		return nil, domain.ErrAlreadyResolved
	}

	n.Status = domain.StatusExpired
	if autoResponse != nil {
		n.AutoResponseSent = true
		content := *autoResponse
		n.AutoResponseContent = &content
	}
	return n.Clone(), nil
}

// ActiveByUser returns the user's most recently sent unresolved notification,
// or nil when everything is resolved.
func (r *MemoryNotificationRepo) ActiveByUser(userID string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.byUser[userID]
	for i := len(ids) - 1; i >= 0; i-- {
		if n := r.notifications[ids[i]]; n != nil && n.Status == domain.StatusSent {
			return n.Clone(), nil
		}
	}
	return nil, nil
}

// HistoryByUser returns the user's notifications most-recent-first.
func (r *MemoryNotificationRepo) HistoryByUser(userID string) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.byUser[userID]
	history := make([]domain.Notification, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if n := r.notifications[ids[i]]; n != nil {
			history = append(history, *n.Clone())
		}
	}
	return history
}
