package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"urgency-engine/internal/delivery"
	"urgency-engine/internal/domain"
	"urgency-engine/internal/observability"
	"urgency-engine/internal/repository"
)

const (
	defaultResponseWindow = 30 * time.Second
	archiveWriteTimeout   = 5 * time.Second
)

// NotifyFunc receives a dispatched notification for a subscribed user.
type NotifyFunc func(n domain.Notification)

type subscriberEntry struct {
	seq    uint64
	notify NotifyFunc
}

// Subscription is the handle returned by Subscribe. Unsubscribing through a
// stale handle (one that was already replaced by a newer registration for
// the same user) is a no-op, so a reconnecting client can never tear down
// its successor's delivery.
type Subscription struct {
	engine *Engine
	userID string
	seq    uint64
}

func (s *Subscription) Unsubscribe() {
	if s == nil || s.engine == nil {
		return
	}
	s.engine.unsubscribe(s.userID, s.seq)
}

// Engine owns the notification table and the per-instance deadline timers.
// Every notification transitions exactly once from SENT to a terminal state;
// the repository's compare-and-swap arbitrates the response/expiry race and
// the loser's event is suppressed.
type Engine struct {
	templates     repository.TemplateRegistry
	notifications repository.NotificationRepository
	scores        ScoreSink
	archive       repository.ArchiveRepository
	fallback      delivery.Sink
	logger        *zap.Logger
	metrics       *observability.Metrics
	window        time.Duration
	now           func() time.Time

	mu     sync.Mutex
	subs   map[string]*subscriberEntry
	timers map[string]*time.Timer
	seq    uint64
	closed bool
}

func NewEngine(
	templates repository.TemplateRegistry,
	notifications repository.NotificationRepository,
	scores ScoreSink,
	window time.Duration,
	logger *zap.Logger,
) (*Engine, error) {
	if templates == nil {
		return nil, fmt.Errorf("template registry is required")
	}
	if notifications == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if scores == nil {
		return nil, fmt.Errorf("score sink is required")
	}
	if window <= 0 {
		window = defaultResponseWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		templates:     templates,
		notifications: notifications,
		scores:        scores,
		logger:        logger,
		window:        window,
		now:           time.Now,
		subs:          make(map[string]*subscriberEntry),
		timers:        make(map[string]*time.Timer),
	}, nil
}

func (e *Engine) SetMetrics(metrics *observability.Metrics) {
	if e == nil {
		return
	}
	e.metrics = metrics
}

func (e *Engine) SetArchive(archive repository.ArchiveRepository) {
	if e == nil {
		return
	}
	e.archive = archive
}

// SetFallbackSink installs an out-of-process delivery path used when the
// target user has no live subscription.
func (e *Engine) SetFallbackSink(sink delivery.Sink) {
	if e == nil {
		return
	}
	e.fallback = sink
}

// Subscribe registers the delivery callback for a user. A new registration
// replaces the previous one; only the currently open client cares.
func (e *Engine) Subscribe(userID string, notify NotifyFunc) *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	entry := &subscriberEntry{seq: e.seq, notify: notify}
	if prior := e.subs[userID]; prior != nil {
		e.logger.Debug("replacing subscriber callback", zap.String("userId", userID))
	}
	e.subs[userID] = entry

	return &Subscription{engine: e, userID: userID, seq: entry.seq}
}

func (e *Engine) unsubscribe(userID string, seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entry := e.subs[userID]; entry != nil && entry.seq == seq {
		delete(e.subs, userID)
	}
}

// DispatchFromSchedule renders the schedule's template for one target user
// and dispatches the resulting notification. A missing template aborts only
// this dispatch.
func (e *Engine) DispatchFromSchedule(ctx context.Context, schedule *domain.Schedule, userID string) (*domain.Notification, error) {
	template, err := e.templates.GetByID(schedule.TemplateID)
	if err != nil {
		if e.metrics != nil {
			e.metrics.IncDispatchFailure("template_not_found")
		}
		return nil, fmt.Errorf("template %q for schedule %q: %w", schedule.TemplateID, schedule.ID, err)
	}
	return e.dispatch(ctx, template, schedule.ID, userID, schedule.Variables)
}

// SendTest dispatches a single notification outside the schedule/tick path.
func (e *Engine) SendTest(ctx context.Context, userID, templateID string, vars map[string]string) (*domain.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	template, err := e.templates.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	return e.dispatch(ctx, template, "", userID, vars)
}

func (e *Engine) dispatch(
	ctx context.Context,
	template *domain.NotificationTemplate,
	scheduleID string,
	userID string,
	vars map[string]string,
) (*domain.Notification, error) {
	now := e.now()

	// The instance is PENDING only inside this frame; it is persisted
	// already SENT so the intermediate state is never observable.
	n := &domain.Notification{
		ID:         uuid.NewString(),
		ScheduleID: scheduleID,
		TemplateID: template.ID,
		UserID:     userID,
		Content:    template.Render(vars),
		Status:     domain.StatusSent,
		Priority:   template.Priority,
		Type:       template.Type,
		SentAt:     now,
		ExpiresAt:  now.Add(e.window),
	}

	var autoResponse *string
	if rendered, ok := template.RenderAutoResponse(vars); ok {
		autoResponse = &rendered
	}

	if err := e.notifications.Create(n); err != nil {
		if e.metrics != nil {
			e.metrics.IncDispatchFailure("persist")
		}
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	e.armDeadline(n.ID, autoResponse)
	if e.metrics != nil {
		e.metrics.IncDispatched(n.Priority.String())
	}

	e.deliver(ctx, n)

	e.logger.Info("notification dispatched",
		zap.String("notificationId", n.ID),
		zap.String("userId", userID),
		zap.String("templateId", template.ID),
		zap.String("priority", n.Priority.String()),
	)

	return n.Clone(), nil
}

func (e *Engine) deliver(ctx context.Context, n *domain.Notification) {
	e.mu.Lock()
	entry := e.subs[n.UserID]
	e.mu.Unlock()

	if entry != nil {
		entry.notify(*n.Clone())
		return
	}

	if e.fallback == nil {
		return
	}
	if err := e.fallback.Deliver(ctx, *n.Clone()); err != nil {
		e.logger.Warn("fallback delivery failed",
			zap.String("notificationId", n.ID),
			zap.String("userId", n.UserID),
			zap.Error(err),
		)
	}
}

func (e *Engine) armDeadline(notificationID string, autoResponse *string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.timers[notificationID] = time.AfterFunc(e.window, func() {
		e.expire(notificationID, autoResponse)
	})
}

func (e *Engine) cancelDeadline(notificationID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if timer, ok := e.timers[notificationID]; ok {
		// Stopping a timer that is concurrently firing is benign; the
		// status compare-and-swap is the authoritative resolution.
		timer.Stop()
		delete(e.timers, notificationID)
	}
}

// Respond resolves a notification through user input. First writer wins: if
// the deadline already fired (or a previous response landed), the caller
// gets ErrAlreadyResolved even when the timestamps would have been in time.
func (e *Engine) Respond(ctx context.Context, notificationID, text string) (*domain.Notification, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: response text is required", domain.ErrValidation)
	}

	n, err := e.notifications.MarkResponded(notificationID, e.now(), trimmed)
	if err != nil {
		return nil, err
	}

	e.cancelDeadline(notificationID)

	responseTimeMs := int64(0)
	if n.ResponseTimeMs != nil {
		responseTimeMs = *n.ResponseTimeMs
	}
	if e.metrics != nil {
		e.metrics.IncResponded(n.Priority.String(), time.Duration(responseTimeMs)*time.Millisecond)
	}

	e.scores.HandleResponded(RespondedEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		ResponseTimeMs: responseTimeMs,
	})
	e.archiveResolution(n)

	e.logger.Info("notification responded",
		zap.String("notificationId", n.ID),
		zap.String("userId", n.UserID),
		zap.Int64("responseTimeMs", responseTimeMs),
	)

	return n, nil
}

// expire is the deadline-timer callback. Losing the race against a response
// is a no-op by design.
func (e *Engine) expire(notificationID string, autoResponse *string) {
	n, err := e.notifications.MarkExpired(notificationID, autoResponse)

	e.mu.Lock()
	delete(e.timers, notificationID)
	e.mu.Unlock()

	if err != nil {
		if !errors.Is(err, domain.ErrAlreadyResolved) && !errors.Is(err, domain.ErrNotFound) {
			e.logger.Error("deadline expiry failed",
				zap.String("notificationId", notificationID),
				zap.Error(err),
			)
		}
		return
	}

	if e.metrics != nil {
		e.metrics.IncExpired(n.Priority.String())
	}

	e.scores.HandleExpired(ExpiredEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
	})
	e.archiveResolution(n)

	e.logger.Info("notification expired",
		zap.String("notificationId", n.ID),
		zap.String("userId", n.UserID),
		zap.Bool("autoResponseSent", n.AutoResponseSent),
	)
}

func (e *Engine) archiveResolution(n *domain.Notification) {
	if e.archive == nil {
		return
	}

	// Write-behind: archive failures are logged, never surfaced to the
	// resolution path.
	go func(snapshot *domain.Notification) {
		ctx, cancel := context.WithTimeout(context.Background(), archiveWriteTimeout)
		defer cancel()
		if err := e.archive.RecordResolution(ctx, snapshot); err != nil {
			e.logger.Warn("failed to archive resolved notification",
				zap.String("notificationId", snapshot.ID),
				zap.Error(err),
			)
		}
	}(n.Clone())
}

// GetActive returns the user's unresolved notification, or nil.
func (e *Engine) GetActive(userID string) (*domain.Notification, error) {
	return e.notifications.ActiveByUser(userID)
}

// GetHistory returns the user's notifications most-recent-first.
func (e *Engine) GetHistory(userID string) []domain.Notification {
	return e.notifications.HistoryByUser(userID)
}

// GetNotification looks up a single notification by id.
func (e *Engine) GetNotification(notificationID string) (*domain.Notification, error) {
	return e.notifications.GetByID(notificationID)
}

// Close stops all outstanding deadline timers. In-flight expiries that
// already fired resolve normally through the status guard.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	for id, timer := range e.timers {
		timer.Stop()
		delete(e.timers, id)
	}
}
